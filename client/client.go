// Package client orchestrates governance actions: it evaluates strategies at a single snapshot,
// builds the authenticator call and signs or relays it.
package client

import (
	"context"
	"errors"
	"time"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/authenticator"
	"github.com/snapshot-labs/sx-monorepo-sub001/execution"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
	"github.com/snapshot-labs/sx-monorepo-sub001/strategy"
)

// Snapshotter returns the snapshot "now" refers to for a network.
type Snapshotter interface {
	Current(ctx context.Context) (*governance.Snapshot, error)
}

// BlockNumberReader is satisfied by the EVM and Starknet clients.
type BlockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// BlockSnapshotter pins snapshots to the latest block, as EVM strategies expect.
type BlockSnapshotter struct {
	Client BlockNumberReader
}

func (s BlockSnapshotter) Current(ctx context.Context) (*governance.Snapshot, error) {
	block, err := s.Client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	return governance.AtBlock(block), nil
}

// ClockSnapshotter pins snapshots to the current time, as Starknet strategies expect.
type ClockSnapshotter struct {
	Now func() time.Time
}

func (s ClockSnapshotter) Current(context.Context) (*governance.Snapshot, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	return governance.AtTimestamp(uint64(now().Unix())), nil
}

var errNoSnapshotter = errors.New("no snapshot source configured for this network")

// Client runs governance actions against one network.
type Client struct {
	network        network.Network
	strategies     *strategy.Resolver
	authenticators *authenticator.Resolver
	executions     *execution.Resolver
	snapshots      Snapshotter
	closers        []func()
	lggr           logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSnapshotter sets the snapshot source of live reads.
func WithSnapshotter(s Snapshotter) Option {
	return func(c *Client) { c.snapshots = s }
}

// New returns a client over the given resolvers, which must serve the same network. Starknet
// networks default to clock based snapshots.
func New(
	lggr logger.Logger,
	strategies *strategy.Resolver,
	authenticators *authenticator.Resolver,
	executions *execution.Resolver,
	opts ...Option,
) *Client {
	c := &Client{
		network:        strategies.Network(),
		strategies:     strategies,
		authenticators: authenticators,
		executions:     executions,
		lggr:           lggr.Named("client"),
	}
	if c.network.IsFamily(chain_selectors.FamilyStarknet) {
		c.snapshots = ClockSnapshotter{}
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close releases the connections opened by Dial.
func (c *Client) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	c.closers = nil
}

// Network returns the network the client acts on.
func (c *Client) Network() network.Network { return c.network }

// currentSnapshot resolves "now" once for an action.
func (c *Client) currentSnapshot(ctx context.Context) (*governance.Snapshot, error) {
	if c.snapshots == nil {
		return nil, errNoSnapshotter
	}

	return c.snapshots.Current(ctx)
}

func (c *Client) authenticator(address string) (authenticator.Authenticator, error) {
	auth := c.authenticators.Resolve(address)
	if auth == nil {
		return nil, &governance.ConfigurationError{Component: "authenticator", Address: address}
	}

	return auth, nil
}

// VotingPower is the per strategy voting power of a voter at one snapshot.
type VotingPower struct {
	Snapshot *governance.Snapshot
	Results  []governance.VotingPowerResult
}

// VotingPower evaluates strategies for voter at the given snapshot, or at the current one when
// at is nil. Failing strategies are left out; unconfigured ones report zero.
func (c *Client) VotingPower(
	ctx context.Context,
	strategies []governance.StrategyConfig,
	voter string,
	at *governance.Snapshot,
) (VotingPower, error) {
	if at == nil {
		var err error
		if at, err = c.currentSnapshot(ctx); err != nil {
			return VotingPower{}, err
		}
	}

	return VotingPower{
		Snapshot: at,
		Results:  c.strategies.GetVotingPowers(ctx, strategies, voter, at),
	}, nil
}

// ExecutionData encodes the execution payload of a proposal for the executor at address.
func (c *Client) ExecutionData(executorAddress string, in execution.Input) (execution.Data, error) {
	return c.executions.GetExecutionDataFor(executorAddress, in)
}
