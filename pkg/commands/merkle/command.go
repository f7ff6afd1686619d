package merkle

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/merkle"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Config holds the configuration of the merkle commands.
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

// NewCommand creates the merkle command with its root and proof subcommands.
//
// Usage:
//
//	rootCmd.AddCommand(merkle.NewCommand(merkle.Config{Logger: lggr}))
func NewCommand(cfg Config) *cobra.Command {
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "merkle",
		Short: "Merkle whitelist commands",
	}

	cmd.AddCommand(newRootCmd(cfg), newProofCmd(cfg))

	cmd.PersistentFlags().
		StringP("whitelist", "w", "", "Whitelist file of address:power lines (required)")
	_ = cmd.MarkPersistentFlagRequired("whitelist")

	return cmd
}

type rootOutput struct {
	Root   string `json:"root"`
	Leaves int    `json:"leaves"`
}

type proofOutput struct {
	Root   string      `json:"root"`
	Leaf   merkle.Leaf `json:"leaf"`
	Proof  []string    `json:"proof"`
	Params []string    `json:"params"`
}

func newRootCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:   "root",
		Short: "Print the root of a whitelist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := loadTree(cmd, cfg)
			if err != nil {
				return err
			}

			return writeJSON(cmd, rootOutput{Root: codec.FeltHex(tree.Root()), Leaves: len(tree.Leaves())})
		},
	}
}

func newProofCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Print the proof and strategy params of a whitelisted address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, _ := cmd.Flags().GetString("address")

			tree, err := loadTree(cmd, cfg)
			if err != nil {
				return err
			}
			leaf, proof, err := tree.Lookup(address)
			if err != nil {
				return err
			}
			params, err := merkle.EncodeParams(leaf, proof)
			if err != nil {
				return fmt.Errorf("failed to encode params: %w", err)
			}

			return writeJSON(cmd, proofOutput{
				Root:   codec.FeltHex(tree.Root()),
				Leaf:   leaf,
				Proof:  feltStrings(proof),
				Params: feltStrings(params),
			})
		},
	}

	cmd.Flags().StringP("address", "a", "", "Whitelisted address (required)")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func loadTree(cmd *cobra.Command, cfg Config) (*merkle.Tree, error) {
	path, _ := cmd.Flags().GetString("whitelist")

	data, err := cfg.Deps.WhitelistReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}
	leaves, err := merkle.ParseWhitelist(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse whitelist: %w", err)
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Infow("Built whitelist tree", "leaves", len(leaves))

	return tree, nil
}

func feltStrings(felts []*felt.Felt) []string {
	return lo.Map(felts, func(f *felt.Felt, _ int) string { return codec.FeltHex(f) })
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
