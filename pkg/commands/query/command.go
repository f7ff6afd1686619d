package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapshot-labs/sx-monorepo-sub001/config"
	"github.com/snapshot-labs/sx-monorepo-sub001/execution"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Config holds the configuration of the query commands.
type Config struct {
	Logger logger.Logger
	Deps   *Deps
}

func (c *Config) deps() {
	if c.Deps == nil {
		c.Deps = &Deps{}
	}
	c.Deps.applyDefaults()
}

// NewCommand creates the query command with all subcommands. Every subcommand acts on the
// network named by the --network flag.
func NewCommand(cfg Config) *cobra.Command {
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Governance query commands",
	}

	cmd.AddCommand(newVotingPowerCmd(cfg), newExecutionDataCmd(cfg))

	cmd.PersistentFlags().
		StringP("config", "c", "sxctl.yml", "Runtime configuration file")
	cmd.PersistentFlags().
		StringP("network", "n", "", "Network name (required)")
	_ = cmd.MarkPersistentFlagRequired("network")

	return cmd
}

// loadNetwork loads the runtime configuration and the network named by the --network flag.
func loadNetwork(cmd *cobra.Command, cfg Config) (*config.Config, network.Network, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	name, _ := cmd.Flags().GetString("network")

	rc, err := cfg.Deps.ConfigLoader(cfgPath)
	if err != nil {
		return nil, network.Network{}, fmt.Errorf("failed to load config: %w", err)
	}
	if len(rc.Manifests) == 0 {
		return nil, network.Network{}, errors.New("no network manifests configured")
	}
	networks, err := cfg.Deps.NetworksLoader(rc.Manifests)
	if err != nil {
		return nil, network.Network{}, fmt.Errorf("failed to load networks: %w", err)
	}
	net, err := networks.NetworkByName(name)
	if err != nil {
		return nil, network.Network{}, err
	}

	return rc, net, nil
}

func newVotingPowerCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voting-power",
		Short: "Print the per strategy voting power of a voter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			voter, _ := cmd.Flags().GetString("voter")
			strategiesPath, _ := cmd.Flags().GetString("strategies")

			at, err := snapshotFlag(cmd)
			if err != nil {
				return err
			}
			var strategies []governance.StrategyConfig
			if err := readJSON(cfg, strategiesPath, &strategies); err != nil {
				return fmt.Errorf("failed to read strategies: %w", err)
			}

			rc, net, err := loadNetwork(cmd, cfg)
			if err != nil {
				return err
			}
			reader, err := cfg.Deps.Dialer(cmd.Context(), cfg.Logger, rc, net)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", net.Name, err)
			}
			defer reader.Close()

			vp, err := reader.VotingPower(cmd.Context(), strategies, voter, at)
			if err != nil {
				return err
			}

			return writeJSON(cmd, vp)
		},
	}

	cmd.Flags().StringP("voter", "v", "", "Voter address (required)")
	cmd.Flags().StringP("strategies", "s", "", "JSON file of strategy configs (required)")
	cmd.Flags().Uint64("block", 0, "Evaluate at this block number")
	cmd.Flags().Uint64("timestamp", 0, "Evaluate at this timestamp")
	_ = cmd.MarkFlagRequired("voter")
	_ = cmd.MarkFlagRequired("strategies")
	cmd.MarkFlagsMutuallyExclusive("block", "timestamp")

	return cmd
}

// snapshotFlag returns the snapshot requested with --block or --timestamp, or nil for "now".
func snapshotFlag(cmd *cobra.Command) (*governance.Snapshot, error) {
	if cmd.Flags().Changed("block") {
		block, err := cmd.Flags().GetUint64("block")
		if err != nil {
			return nil, err
		}

		return governance.AtBlock(block), nil
	}
	if cmd.Flags().Changed("timestamp") {
		ts, err := cmd.Flags().GetUint64("timestamp")
		if err != nil {
			return nil, err
		}

		return governance.AtTimestamp(ts), nil
	}

	return nil, nil
}

// transactionInput is a meta transaction as written in input files, with hex data.
type transactionInput struct {
	To        string                `json:"to"`
	Value     *math.HexOrDecimal256 `json:"value"`
	Data      hexutil.Bytes         `json:"data"`
	Operation uint8                 `json:"operation"`
	Salt      *math.HexOrDecimal256 `json:"salt"`
}

type executionInput struct {
	Transactions []transactionInput `json:"transactions"`
	Destination  string             `json:"destination"`
	Description  string             `json:"description"`
}

func (in executionInput) toInput() execution.Input {
	return execution.Input{
		Transactions: lo.Map(in.Transactions, func(tx transactionInput, _ int) governance.MetaTransaction {
			return governance.MetaTransaction{
				To:        tx.To,
				Value:     bigInt(tx.Value),
				Data:      tx.Data,
				Operation: tx.Operation,
				Salt:      bigInt(tx.Salt),
			}
		}),
		Destination: in.Destination,
		Description: in.Description,
	}
}

func bigInt(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}

	return (*big.Int)(v)
}

type executionOutput struct {
	Executor        string          `json:"executor"`
	Kind            string          `json:"kind,omitempty"`
	ExecutionParams []hexutil.Bytes `json:"executionParams"`
}

func newExecutionDataCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution-data",
		Short: "Print the execution params of a proposal for an executor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			executor, _ := cmd.Flags().GetString("executor")
			inputPath, _ := cmd.Flags().GetString("input")

			var in executionInput
			if inputPath != "" {
				if err := readJSON(cfg, inputPath, &in); err != nil {
					return fmt.Errorf("failed to read execution input: %w", err)
				}
			}

			_, net, err := loadNetwork(cmd, cfg)
			if err != nil {
				return err
			}
			resolver := execution.NewResolver(cfg.Logger, net)
			data, err := resolver.GetExecutionDataFor(executor, in.toInput())
			if err != nil {
				return err
			}

			out := executionOutput{
				Executor: executor,
				ExecutionParams: lo.Map(data.ExecutionParams, func(p []byte, _ int) hexutil.Bytes {
					return p
				}),
			}
			if kind, ok := resolver.KindOf(executor); ok {
				out.Kind = string(kind)
			}

			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().StringP("executor", "x", "", "Execution strategy address (required)")
	cmd.Flags().StringP("input", "i", "", "JSON file of transactions, destination and description")
	_ = cmd.MarkFlagRequired("executor")

	return cmd
}

func readJSON(cfg Config, path string, v any) error {
	data, err := cfg.Deps.FileReader(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
