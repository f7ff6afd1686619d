// Package strategy resolves configured voting and proposal validation strategies, builds the
// params they need to authorise an action and evaluates voting power.
package strategy

import (
	"context"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/retry"
	"github.com/snapshot-labs/sx-monorepo-sub001/storageproof"
)

// Strategy is a configured strategy contract.
type Strategy interface {
	// Kind returns the implementation kind of the strategy.
	Kind() network.StrategyKind
	// GetParams builds the user params that authorise call. Strategies that cannot serve call
	// return governance.ErrUnsupportedCall.
	GetParams(
		ctx context.Context,
		call governance.Call,
		cfg governance.StrategyConfig,
		signer string,
		metadata *governance.StrategyMetadata,
		action governance.ActionData,
	) ([]byte, error)
	// GetVotingPower evaluates the voting power of voter. A nil snapshot reads live state.
	GetVotingPower(
		ctx context.Context,
		strategyAddress string,
		voter string,
		metadata *governance.StrategyMetadata,
		at *governance.Snapshot,
		params string,
	) (*uint256.Int, error)
}

// AnchorResolver resolves the L1 block anchored to an L2 timestamp.
// *storageproof.AnchorClient implements it.
type AnchorResolver interface {
	WaitL1BlockNumber(ctx context.Context, timestamp uint64, l2Chain, l1Chain string, policy retry.Policy) (uint64, error)
}

// ProofFetcher fetches L1 storage proofs. *storageproof.Prover implements it.
type ProofFetcher interface {
	FetchKeys(ctx context.Context, contract string, blockNumber uint64, keys ...common.Hash) ([]storageproof.KeyProof, error)
}

// Clients are the chain and service clients strategies read from. Only the clients the
// configured kinds need have to be set.
type Clients struct {
	// EVM reads the chain an EVM space lives on.
	EVM evm.OnchainClient
	// Starknet reads the chain a Starknet space lives on.
	Starknet starknet.Reader
	// L1 reads the EVM chain Starknet settles on, for storage-proof strategies.
	L1 evm.OnchainClient
	// Proofs fetches storage proofs from L1.
	Proofs ProofFetcher
	// Anchor maps Starknet timestamps to L1 blocks.
	Anchor AnchorResolver
	// Metadata fetches strategy metadata payloads.
	Metadata *MetadataFetcher
}

// Resolver maps strategy addresses of one network to their implementation.
type Resolver struct {
	network network.Network
	clients Clients
	cache   *Cache
	policy  retry.Policy
	now     func() time.Time
	lggr    logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRetryPolicy sets the policy of anchoring polls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithClock sets the clock used for live Starknet reads.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver returns a resolver for net. cache may be shared between resolvers.
func NewResolver(lggr logger.Logger, net network.Network, clients Clients, cache *Cache, opts ...Option) *Resolver {
	r := &Resolver{
		network: net,
		clients: clients,
		cache:   cache,
		policy:  retry.DefaultPolicy(),
		now:     time.Now,
		lggr:    lggr.Named("strategy"),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Network returns the network the resolver serves.
func (r *Resolver) Network() network.Network { return r.network }

// Resolve returns the strategy configured at address, or nil when the address is not
// configured or its kind does not exist on the network's family.
func (r *Resolver) Resolve(address string) Strategy {
	entry, ok := r.network.Strategy(address)
	if !ok {
		return nil
	}
	family, err := r.network.ChainFamily()
	if err != nil || !entry.Type.SupportedOn(family) {
		return nil
	}

	switch entry.Type {
	case network.StrategyVanilla:
		return vanilla{}
	case network.StrategyMerkleWhitelist:
		return &merkleWhitelist{metadata: r.clients.Metadata}
	case network.StrategyERC20Votes:
		return &erc20Votes{client: r.clients.Starknet, now: r.now}
	case network.StrategyEVMSlotValue:
		return &evmSlotValue{storageProofBase: r.storageProofBase(entry)}
	case network.StrategyOZVotesStorageProofTrace224:
		return &ozVotesStorageProof{storageProofBase: r.storageProofBase(entry), kind: entry.Type, layout: storageproof.Trace224}
	case network.StrategyOZVotesStorageProofTrace208:
		return &ozVotesStorageProof{storageProofBase: r.storageProofBase(entry), kind: entry.Type, layout: storageproof.Trace208}
	case network.StrategyComp:
		return &evmVotes{kind: entry.Type, client: r.clients.EVM, abi: evm.CompABI, pastMethod: "getPriorVotes", currentMethod: "getCurrentVotes"}
	case network.StrategyOZVotes:
		return &evmVotes{kind: entry.Type, client: r.clients.EVM, abi: evm.OZVotesABI, pastMethod: "getPastVotes", currentMethod: "getVotes"}
	case network.StrategyWhitelist:
		return &whitelist{}
	default:
		return nil
	}
}

// storageProofBase collects what storage-proof strategies share. The anchoring service is
// queried for the chain named in the strategy params, defaulting to the network's chain.
func (r *Resolver) storageProofBase(entry network.StrategyEntry) storageProofBase {
	l2Chain, _ := r.network.ChainIdentifier()
	if p, err := network.DecodeParams[network.StorageProofParams](entry.Params); err == nil && p.DeployedOnChain != "" {
		l2Chain = p.DeployedOnChain
	}

	l1Chain := r.network.L1ChainID
	if l1Chain == "" {
		if id, ok := starknet.L1ChainID(l2Chain); ok {
			l1Chain = strconv.FormatUint(id, 10)
		}
	}

	return storageProofBase{
		l1:      r.clients.L1,
		proofs:  r.clients.Proofs,
		anchors: &anchors{resolver: r.clients.Anchor, cache: r.cache, policy: r.policy, l2Chain: l2Chain, l1Chain: l1Chain},
	}
}

// emptyParams is what strategies without user params return.
func emptyParams() []byte { return []byte{} }
