package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/client"
	"github.com/snapshot-labs/sx-monorepo-sub001/config"
	"github.com/snapshot-labs/sx-monorepo-sub001/execution"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

const (
	testAvatar   = "0xece4f6b01a2d7ff5a9765ca44162d453fc455e42"
	testGovernor = "0x00000000000000000000000000000000000000b0"
	testVoter    = "0x556b14cbda79a36dc33fcd461a04a5bcb5dc2a70"
)

func testNetworks() *network.Config {
	return network.NewConfig([]network.Network{{
		Name:    "sep",
		Family:  chainsel.FamilyEVM,
		ChainID: "11155111",
		ExecutionStrategiesImplementations: map[string]string{
			string(network.ExecutorSimpleQuorumAvatar): testAvatar,
			string(network.ExecutorOZGovernor):         testGovernor,
		},
	}})
}

// fakeReader returns fixed voting power and records what it was asked.
type fakeReader struct {
	strategies []governance.StrategyConfig
	voter      string
	at         *governance.Snapshot
	closed     bool
}

func (f *fakeReader) VotingPower(_ context.Context, strategies []governance.StrategyConfig, voter string, at *governance.Snapshot) (client.VotingPower, error) {
	f.strategies, f.voter, f.at = strategies, voter, at
	if at == nil {
		at = governance.AtBlock(1000)
	}

	return client.VotingPower{
		Snapshot: at,
		Results: []governance.VotingPowerResult{
			{StrategyAddress: strategies[0].Address, Value: uint256.NewInt(5), Decimals: 18, Symbol: "VOTE"},
		},
	}, nil
}

func (f *fakeReader) Close() { f.closed = true }

func testDeps(files map[string]string, reader *fakeReader) *Deps {
	return &Deps{
		ConfigLoader: func(path string) (*config.Config, error) {
			if path != "sxctl.yml" {
				return nil, errors.New("unexpected config path " + path)
			}

			return &config.Config{Manifests: []string{"networks.yaml"}}, nil
		},
		NetworksLoader: func(paths []string) (*network.Config, error) {
			return testNetworks(), nil
		},
		Dialer: func(context.Context, logger.Logger, *config.Config, network.Network) (PowerReader, error) {
			if reader == nil {
				return nil, errors.New("rpc unavailable")
			}

			return reader, nil
		},
		FileReader: func(path string) ([]byte, error) {
			data, ok := files[path]
			if !ok {
				return nil, errors.New("no such file")
			}

			return []byte(data), nil
		},
	}
}

func run(t *testing.T, deps *Deps, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	cmd := NewCommand(Config{Logger: logger.Test(t), Deps: deps})
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	return out, cmd.Execute()
}

func TestVotingPower(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"strategies.json": `[{"address":"0xc1245c5dca7885c73e32294140f1e5d30688c202","index":0,"params":""}]`,
	}

	t.Run("at block", func(t *testing.T) {
		t.Parallel()

		reader := &fakeReader{}
		out, err := run(t, testDeps(files, reader), "voting-power", "-n", "sep", "-v", testVoter, "-s", "strategies.json", "--block", "42")
		require.NoError(t, err)

		assert.True(t, reader.closed)
		assert.Equal(t, testVoter, reader.voter)
		require.Len(t, reader.strategies, 1)
		require.NotNil(t, reader.at)
		assert.Equal(t, uint64(42), *reader.at.BlockNumber)

		var got struct {
			Snapshot governance.Snapshot
			Results  []governance.VotingPowerResult
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got.Results, 1)
		assert.Equal(t, uint64(5), got.Results[0].Value.Uint64())
		assert.Equal(t, "VOTE", got.Results[0].Symbol)
	})

	t.Run("live", func(t *testing.T) {
		t.Parallel()

		reader := &fakeReader{}
		_, err := run(t, testDeps(files, reader), "voting-power", "-n", "sep", "-v", testVoter, "-s", "strategies.json")
		require.NoError(t, err)
		assert.Nil(t, reader.at)
	})

	t.Run("at timestamp", func(t *testing.T) {
		t.Parallel()

		reader := &fakeReader{}
		_, err := run(t, testDeps(files, reader), "voting-power", "-n", "sep", "-v", testVoter, "-s", "strategies.json", "--timestamp", "1700000000")
		require.NoError(t, err)
		require.NotNil(t, reader.at)
		assert.Equal(t, uint64(1700000000), *reader.at.Timestamp)
	})
}

func TestExecutionData(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"avatar.json": `{"transactions":[{"to":"` + testVoter + `","value":"0x1","data":"0xabcd","operation":0,"salt":"7"}]}`,
		"empty.json":  `{}`,
	}

	out, err := run(t, testDeps(files, nil), "execution-data", "-n", "sep", "-x", testAvatar, "-i", "avatar.json")
	require.NoError(t, err)

	want, err := execution.EncodeTransactions([]governance.MetaTransaction{{
		To:    testVoter,
		Value: big.NewInt(1),
		Data:  []byte{0xab, 0xcd},
		Salt:  big.NewInt(7),
	}})
	require.NoError(t, err)

	var got executionOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, string(network.ExecutorSimpleQuorumAvatar), got.Kind)
	assert.Equal(t, []hexutil.Bytes{want}, got.ExecutionParams)

	// Governors cannot execute without transactions.
	_, err = run(t, testDeps(files, nil), "execution-data", "-n", "sep", "-x", testGovernor, "-i", "empty.json")
	var insufficient *governance.InsufficientExecutionDataError
	require.ErrorAs(t, err, &insufficient)
}

func TestCommand_Errors(t *testing.T) {
	t.Parallel()

	files := map[string]string{"strategies.json": `[{"address":"0x1","index":0,"params":""}]`}

	tests := []struct {
		name    string
		deps    *Deps
		args    []string
		wantErr string
	}{
		{
			name:    "missing network flag",
			deps:    testDeps(files, &fakeReader{}),
			args:    []string{"voting-power", "-v", testVoter, "-s", "strategies.json"},
			wantErr: `required flag(s) "network" not set`,
		},
		{
			name:    "block and timestamp",
			deps:    testDeps(files, &fakeReader{}),
			args:    []string{"voting-power", "-n", "sep", "-v", testVoter, "-s", "strategies.json", "--block", "1", "--timestamp", "2"},
			wantErr: "if any flags in the group [block timestamp] are set none of the others can be",
		},
		{
			name:    "unknown network",
			deps:    testDeps(files, &fakeReader{}),
			args:    []string{"voting-power", "-n", "nope", "-v", testVoter, "-s", "strategies.json"},
			wantErr: `network "nope" not found in configuration`,
		},
		{
			name:    "missing strategies file",
			deps:    testDeps(nil, &fakeReader{}),
			args:    []string{"voting-power", "-n", "sep", "-v", testVoter, "-s", "strategies.json"},
			wantErr: "failed to read strategies",
		},
		{
			name:    "dial failure",
			deps:    testDeps(files, nil),
			args:    []string{"voting-power", "-n", "sep", "-v", testVoter, "-s", "strategies.json"},
			wantErr: "failed to connect to sep: rpc unavailable",
		},
		{
			name: "no manifests",
			deps: func() *Deps {
				d := testDeps(files, &fakeReader{})
				d.ConfigLoader = func(string) (*config.Config, error) { return &config.Config{}, nil }

				return d
			}(),
			args:    []string{"execution-data", "-n", "sep", "-x", testAvatar},
			wantErr: "no network manifests configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tt.deps, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
