// Package query provides CLI commands that read governance state of one network.
package query

import (
	"context"
	"os"

	"github.com/snapshot-labs/sx-monorepo-sub001/client"
	"github.com/snapshot-labs/sx-monorepo-sub001/config"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// PowerReader evaluates voting power. *client.Client implements it.
type PowerReader interface {
	VotingPower(ctx context.Context, strategies []governance.StrategyConfig, voter string, at *governance.Snapshot) (client.VotingPower, error)
	Close()
}

// ConfigLoaderFunc loads the runtime configuration at path.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// NetworksLoaderFunc loads and merges the network manifests at paths.
type NetworksLoaderFunc func(paths []string) (*network.Config, error)

// DialerFunc connects to the chains a network reads from.
type DialerFunc func(ctx context.Context, lggr logger.Logger, cfg *config.Config, net network.Network) (PowerReader, error)

// FileReaderFunc reads an input file.
type FileReaderFunc func(path string) ([]byte, error)

func defaultDialer(ctx context.Context, lggr logger.Logger, cfg *config.Config, net network.Network) (PowerReader, error) {
	return client.Dial(ctx, lggr, cfg, net)
}

// Deps holds the injectable dependencies for query commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the runtime configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// NetworksLoader loads network manifests.
	// Default: network.Load
	NetworksLoader NetworksLoaderFunc

	// Dialer connects to the chains of a network.
	// Default: client.Dial
	Dialer DialerFunc

	// FileReader reads strategy and transaction input files.
	// Default: os.ReadFile
	FileReader FileReaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.NetworksLoader == nil {
		d.NetworksLoader = network.Load
	}
	if d.Dialer == nil {
		d.Dialer = defaultDialer
	}
	if d.FileReader == nil {
		d.FileReader = os.ReadFile
	}
}
