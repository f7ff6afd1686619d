// Package authenticator resolves configured authenticator contracts and builds the calls that
// carry governance actions through them, either as direct transactions or as signed typed
// messages submitted by a relay.
package authenticator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Type is the authorisation family of an authenticator.
type Type string

const (
	// TypeTransaction authenticators trust the transaction sender.
	TypeTransaction Type = "transaction"
	// TypeSignature authenticators verify a typed message signature.
	TypeSignature Type = "signature"
)

// Call is a contract invocation. On EVM chains EntrypointSelector is the 4 byte function selector
// and Calldata the abi encoded arguments. On Starknet both are felts serialised as 32-byte words.
type Call struct {
	TargetContract     string
	EntrypointSelector []byte
	Calldata           []byte
}

// Data returns the selector followed by the calldata, the input of an EVM transaction.
func (c Call) Data() []byte {
	return append(append([]byte{}, c.EntrypointSelector...), c.Calldata...)
}

// ProposeArgs are the computed inputs of a propose call.
type ProposeArgs struct {
	// ValidationParams are the user params of the proposal validation strategy.
	ValidationParams []byte
}

// VoteArgs are the computed inputs of a vote call.
type VoteArgs struct {
	Strategies []governance.IndexedStrategy
}

// Authenticator builds the calls of one authenticator contract.
type Authenticator interface {
	Kind() network.AuthenticatorKind
	Type() Type
	CreateProposeCall(env governance.Envelope[governance.Propose], args ProposeArgs) (Call, error)
	CreateVoteCall(env governance.Envelope[governance.Vote], args VoteArgs) (Call, error)
	CreateUpdateProposalCall(env governance.Envelope[governance.UpdateProposal]) (Call, error)
	// CreateCancelCall builds the owner's cancel transaction. Signature authenticators return
	// governance.ErrUnsupportedAction.
	CreateCancelCall(env governance.Envelope[governance.Cancel]) (Call, error)
}

// MessageBuilder is implemented by signature authenticators. Every propose and update message
// carries a fresh salt.
type MessageBuilder interface {
	ProposeMessage(p governance.Propose, args ProposeArgs) (Message, error)
	VoteMessage(v governance.Vote, args VoteArgs) (Message, error)
	UpdateProposalMessage(u governance.UpdateProposal) (Message, error)
}

// Relayer submits envelopes to the relay of the network. The relay error message is returned
// as a *governance.RelayRejectionError.
type Relayer interface {
	Send(ctx context.Context, envelope any) (json.RawMessage, error)
}

// Resolver maps the authenticator addresses of one network to their implementation.
type Resolver struct {
	network network.Network
	relay   *RelayClient
	salts   SaltGenerator
	lggr    logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRelay sets the relay signature authenticators submit through.
func WithRelay(c *RelayClient) Option {
	return func(r *Resolver) { r.relay = c }
}

// WithSaltGenerator replaces the random salt source.
func WithSaltGenerator(g SaltGenerator) Option {
	return func(r *Resolver) { r.salts = g }
}

// NewResolver returns a resolver for net.
func NewResolver(lggr logger.Logger, net network.Network, opts ...Option) *Resolver {
	r := &Resolver{
		network: net,
		salts:   RandomSalt,
		lggr:    lggr.Named("authenticator"),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Network returns the network the resolver serves.
func (r *Resolver) Network() network.Network { return r.network }

// Resolve returns the authenticator at address, or nil when the address is not configured or
// its kind does not exist on the network's family.
func (r *Resolver) Resolve(address string) Authenticator {
	kind, ok := r.network.Authenticator(address)
	if !ok {
		return nil
	}
	family, err := r.network.ChainFamily()
	if err != nil || !kind.SupportedOn(family) {
		return nil
	}
	chainID, err := r.network.ChainIdentifier()
	if err != nil {
		return nil
	}

	b := base{address: address, kind: kind}
	relay := relaying{client: r.relay, lggr: r.lggr}

	switch family {
	case chain_selectors.FamilyEVM:
		id, ok := new(big.Int).SetString(chainID, 10)
		if !ok {
			return nil
		}
		switch kind {
		case network.AuthenticatorEthTx:
			return &evmEthTx{base: b}
		case network.AuthenticatorEthSig, network.AuthenticatorEthSigV2:
			return &evmEthSig{base: b, relaying: relay, chainID: id, salts: r.salts}
		}
	case chain_selectors.FamilyStarknet:
		switch kind {
		case network.AuthenticatorStarkTx:
			return &starkTx{base: b}
		case network.AuthenticatorStarkSig:
			return &starkSig{base: b, relaying: relay, chainID: chainID, salts: r.salts}
		case network.AuthenticatorEthSig:
			return &starknetEthSig{base: b, relaying: relay, chainID: chainID, l1ChainID: r.l1ChainID(chainID), salts: r.salts}
		case network.AuthenticatorEthTx:
			return &starknetEthTx{starkTx: starkTx{base: b}, relaying: relay}
		}
	}

	return nil
}

// l1ChainID returns the chain id of the L1 a Starknet network settles on, or nil if unknown.
func (r *Resolver) l1ChainID(chainID string) *big.Int {
	if id, ok := new(big.Int).SetString(r.network.L1ChainID, 10); ok {
		return id
	}
	if id, ok := starknet.L1ChainID(chainID); ok {
		return new(big.Int).SetUint64(id)
	}

	return nil
}

type base struct {
	address string
	kind    network.AuthenticatorKind
}

func (b base) Kind() network.AuthenticatorKind { return b.kind }

// Address returns the authenticator contract address.
func (b base) Address() string { return b.address }

// signatureOnlyCancel is embedded by signature authenticators: cancelling is an owner
// transaction and cannot be authorised by a signature.
type signatureOnlyCancel struct{}

func (signatureOnlyCancel) CreateCancelCall(governance.Envelope[governance.Cancel]) (Call, error) {
	return Call{}, governance.ErrUnsupportedAction
}

func strategyIndex(index int) (uint8, error) {
	if index < 0 || index > math.MaxUint8 {
		return 0, fmt.Errorf("strategy index %d does not fit in 8 bits", index)
	}

	return uint8(index), nil
}
