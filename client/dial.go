package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/authenticator"
	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/config"
	"github.com/snapshot-labs/sx-monorepo-sub001/execution"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
	"github.com/snapshot-labs/sx-monorepo-sub001/storageproof"
	"github.com/snapshot-labs/sx-monorepo-sub001/strategy"
)

// Dial connects to the endpoints cfg lists for net and returns a client over them. The caller
// closes the client.
func Dial(ctx context.Context, lggr logger.Logger, cfg *config.Config, raw network.Network) (*Client, error) {
	net, err := raw.Normalized()
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", raw.Name, err)
	}
	chainCfg, err := cfg.Chain(net.Name)
	if err != nil {
		return nil, err
	}
	cache, err := strategy.NewCache(cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	policy := cfg.RetryPolicy()
	retryCfg := evm.RetryConfig{
		Attempts:     policy.MaxAttempts,
		Delay:        policy.Delay,
		Timeout:      evm.RPCDefaultRetryTimeout,
		DialAttempts: policy.MaxAttempts,
		DialDelay:    policy.Delay,
		DialTimeout:  evm.RPCDefaultDialTimeout,
	}

	var (
		clients   strategy.Clients
		snapshots Snapshotter
		closers   []func()
	)
	closeAll := func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}

	switch {
	case net.IsFamily(chain_selectors.FamilyEVM):
		selector, err := evmSelector(net)
		if err != nil {
			return nil, err
		}
		mc, err := evm.NewMultiClient(lggr, rpcConfig(selector, chainCfg.RPCURLs), evm.WithRetryConfig(retryCfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", net.Name, err)
		}
		closers = append(closers, mc.Close)
		clients.EVM = mc
		snapshots = BlockSnapshotter{Client: mc}
	case net.IsFamily(chain_selectors.FamilyStarknet):
		if len(chainCfg.RPCURLs) == 0 {
			return nil, fmt.Errorf("no RPC URL configured for %s", net.Name)
		}
		sn, err := starknet.Dial(ctx, lggr, chainCfg.RPCURLs[0])
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", net.Name, err)
		}
		closers = append(closers, sn.Close)
		clients.Starknet = sn

		if len(cfg.L1.RPCURLs) > 0 {
			l1Selector, err := l1Selector(net)
			if err != nil {
				closeAll()
				return nil, err
			}
			l1, err := evm.NewMultiClient(lggr, rpcConfig(l1Selector, cfg.L1.RPCURLs), evm.WithRetryConfig(retryCfg))
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("failed to connect to L1: %w", err)
			}
			closers = append(closers, l1.Close)
			clients.L1 = l1
			clients.Proofs = storageproof.NewProver(l1, lggr)
		}
		if cfg.Anchoring.URL != "" {
			var opts []storageproof.AnchorOption
			if cfg.Anchoring.APIKey != "" {
				opts = append(opts, storageproof.WithAPIKey(cfg.Anchoring.APIKey))
			}
			clients.Anchor = storageproof.NewAnchorClient(cfg.Anchoring.URL, lggr, opts...)
		}
	default:
		return nil, errors.New("network family is not supported")
	}
	clients.Metadata = strategy.NewMetadataFetcher(lggr, cfg.Metadata.IPFSGateway, cfg.Metadata.Timeout, cache)

	var authOpts []authenticator.Option
	if chainCfg.RelayerURL != "" {
		authOpts = append(authOpts, authenticator.WithRelay(authenticator.NewRelayClient(chainCfg.RelayerURL, lggr)))
	}

	c := New(lggr,
		strategy.NewResolver(lggr, net, clients, cache, strategy.WithRetryPolicy(policy)),
		authenticator.NewResolver(lggr, net, authOpts...),
		execution.NewResolver(lggr, net),
	)
	if snapshots != nil {
		c.snapshots = snapshots
	}
	c.closers = closers

	return c, nil
}

func rpcConfig(selector uint64, urls []string) evm.RPCConfig {
	rpcs := make([]evm.RPC, len(urls))
	for i, url := range urls {
		rpcs[i] = evm.RPC{Name: "rpc-" + strconv.Itoa(i), HTTPURL: url}
	}

	return evm.RPCConfig{ChainSelector: selector, RPCs: rpcs}
}

func evmSelector(net network.Network) (uint64, error) {
	if net.ChainSelector != 0 {
		return net.ChainSelector, nil
	}
	id, err := strconv.ParseUint(net.ChainID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid EVM chain id %q: %w", net.ChainID, err)
	}

	return chain_selectors.SelectorFromChainId(id)
}

func l1Selector(net network.Network) (uint64, error) {
	if net.L1ChainID != "" {
		id, err := strconv.ParseUint(net.L1ChainID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid L1 chain id %q: %w", net.L1ChainID, err)
		}

		return chain_selectors.SelectorFromChainId(id)
	}
	chainID, err := net.ChainIdentifier()
	if err != nil {
		return 0, err
	}
	id, ok := starknet.L1ChainID(chainID)
	if !ok {
		return 0, fmt.Errorf("no L1 chain id known for %s", chainID)
	}

	return chain_selectors.SelectorFromChainId(id)
}
