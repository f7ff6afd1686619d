package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/authenticator"
	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// Prepared is an authorised action ready to be submitted, either as Call by the author or by
// relaying Envelope.
type Prepared[T governance.Action] struct {
	Envelope      governance.Envelope[T]
	Call          authenticator.Call
	Authenticator authenticator.Authenticator
}

// Send hands the envelope to the relay of the authenticator.
func (p Prepared[T]) Send(ctx context.Context) (json.RawMessage, error) {
	relayer, ok := p.Authenticator.(authenticator.Relayer)
	if !ok {
		return nil, fmt.Errorf("authenticator %s is not relayed: %w", p.Authenticator.Kind(), governance.ErrUnsupportedAction)
	}

	return relayer.Send(ctx, p.Envelope)
}

// Propose builds the user proposal validation params of the author, signs the proposal when the
// authenticator expects a signature and a signer is given, and returns the authenticator call.
func (c *Client) Propose(
	ctx context.Context,
	authAddress string,
	env governance.Envelope[governance.Propose],
	signer authenticator.Signer,
) (Prepared[governance.Propose], error) {
	auth, err := c.authenticator(authAddress)
	if err != nil {
		return Prepared[governance.Propose]{}, err
	}

	params, err := c.strategies.GetStrategiesParams(ctx, governance.CallPropose, env.Data.Strategies,
		env.Data.Author, governance.ActionData{Propose: &env.Data})
	if err != nil {
		return Prepared[governance.Propose]{}, fmt.Errorf("failed to build proposal validation params: %w", err)
	}
	if env.Data.ValidationParams, err = c.validationParams(params); err != nil {
		return Prepared[governance.Propose]{}, err
	}

	if env.SignatureData, err = c.sign(ctx, auth, env.SignatureData, signer, func(b authenticator.MessageBuilder) (authenticator.Message, error) {
		return b.ProposeMessage(env.Data, authenticator.ProposeArgs{ValidationParams: env.Data.ValidationParams})
	}); err != nil {
		return Prepared[governance.Propose]{}, err
	}

	call, err := auth.CreateProposeCall(env, authenticator.ProposeArgs{ValidationParams: env.Data.ValidationParams})
	if err != nil {
		return Prepared[governance.Propose]{}, err
	}
	env.SignatureData = c.commit(auth, call, env.SignatureData, env.Data.Author)
	c.lggr.Infow("Prepared proposal", "space", env.Data.Space, "authenticator", auth.Kind())

	return Prepared[governance.Propose]{Envelope: env, Call: call, Authenticator: auth}, nil
}

// Vote evaluates the voter's strategies at the proposal snapshot, or at the current snapshot
// when the proposal carries none, and returns the authenticator call.
func (c *Client) Vote(
	ctx context.Context,
	authAddress string,
	env governance.Envelope[governance.Vote],
	signer authenticator.Signer,
) (Prepared[governance.Vote], error) {
	auth, err := c.authenticator(authAddress)
	if err != nil {
		return Prepared[governance.Vote]{}, err
	}

	if env.Data.Snapshot == nil {
		if env.Data.Snapshot, err = c.currentSnapshot(ctx); err != nil {
			return Prepared[governance.Vote]{}, err
		}
	}

	strategies, err := c.strategies.GetStrategiesParams(ctx, governance.CallVote, env.Data.Strategies,
		env.Data.Voter, governance.ActionData{Vote: &env.Data})
	if err != nil {
		return Prepared[governance.Vote]{}, fmt.Errorf("failed to build voting strategy params: %w", err)
	}
	args := authenticator.VoteArgs{Strategies: strategies}

	if env.SignatureData, err = c.sign(ctx, auth, env.SignatureData, signer, func(b authenticator.MessageBuilder) (authenticator.Message, error) {
		return b.VoteMessage(env.Data, args)
	}); err != nil {
		return Prepared[governance.Vote]{}, err
	}

	call, err := auth.CreateVoteCall(env, args)
	if err != nil {
		return Prepared[governance.Vote]{}, err
	}
	env.SignatureData = c.commit(auth, call, env.SignatureData, env.Data.Voter)
	c.lggr.Infow("Prepared vote", "space", env.Data.Space, "proposal", env.Data.Proposal, "authenticator", auth.Kind())

	return Prepared[governance.Vote]{Envelope: env, Call: call, Authenticator: auth}, nil
}

// UpdateProposal returns the authenticator call replacing a proposal's metadata and execution
// strategy.
func (c *Client) UpdateProposal(
	ctx context.Context,
	authAddress string,
	env governance.Envelope[governance.UpdateProposal],
	signer authenticator.Signer,
) (Prepared[governance.UpdateProposal], error) {
	auth, err := c.authenticator(authAddress)
	if err != nil {
		return Prepared[governance.UpdateProposal]{}, err
	}

	if env.SignatureData, err = c.sign(ctx, auth, env.SignatureData, signer, func(b authenticator.MessageBuilder) (authenticator.Message, error) {
		return b.UpdateProposalMessage(env.Data)
	}); err != nil {
		return Prepared[governance.UpdateProposal]{}, err
	}

	call, err := auth.CreateUpdateProposalCall(env)
	if err != nil {
		return Prepared[governance.UpdateProposal]{}, err
	}
	env.SignatureData = c.commit(auth, call, env.SignatureData, env.Data.Author)

	return Prepared[governance.UpdateProposal]{Envelope: env, Call: call, Authenticator: auth}, nil
}

// Cancel returns the call cancelling a proposal. Only transaction authenticators support it.
func (c *Client) Cancel(authAddress string, env governance.Envelope[governance.Cancel]) (Prepared[governance.Cancel], error) {
	auth, err := c.authenticator(authAddress)
	if err != nil {
		return Prepared[governance.Cancel]{}, err
	}

	call, err := auth.CreateCancelCall(env)
	if err != nil {
		return Prepared[governance.Cancel]{}, err
	}

	return Prepared[governance.Cancel]{Envelope: env, Call: call, Authenticator: auth}, nil
}

// sign returns the signature data of an action. Existing signature data and transaction
// authenticators are left alone, as is a missing signer: the call builder then reports the
// missing signature.
func (c *Client) sign(
	ctx context.Context,
	auth authenticator.Authenticator,
	sd *governance.SignatureData,
	signer authenticator.Signer,
	build func(authenticator.MessageBuilder) (authenticator.Message, error),
) (*governance.SignatureData, error) {
	if sd != nil || signer == nil || auth.Type() != authenticator.TypeSignature {
		return sd, nil
	}
	builder, ok := auth.(authenticator.MessageBuilder)
	if !ok {
		return nil, fmt.Errorf("authenticator %s does not build typed messages", auth.Kind())
	}

	msg, err := build(builder)
	if err != nil {
		return nil, fmt.Errorf("failed to build typed message: %w", err)
	}
	signed, err := signer.Sign(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed message: %w", err)
	}

	return signed, nil
}

// commit attaches the L1 commit hash of a relayed Starknet transaction.
func (c *Client) commit(
	auth authenticator.Authenticator,
	call authenticator.Call,
	sd *governance.SignatureData,
	author string,
) *governance.SignatureData {
	committer, ok := auth.(authenticator.Committer)
	if !ok || (sd != nil && sd.CommitHash != "") {
		return sd
	}
	hash, err := committer.CommitHash(call)
	if err != nil {
		c.lggr.Warnw("Failed to compute commit hash", "err", err)
		return sd
	}

	out := &governance.SignatureData{Address: author}
	if sd != nil {
		cp := *sd
		out = &cp
	}
	out.CommitHash = codec.FeltHex(hash)

	return out
}

// validationParams encodes the proposal validation strategies of the author for the network's
// space contracts.
func (c *Client) validationParams(strategies []governance.IndexedStrategy) ([]byte, error) {
	switch {
	case c.network.IsFamily(chain_selectors.FamilyEVM):
		tuples := make([]evm.IndexedStrategyTuple, len(strategies))
		for i, s := range strategies {
			if s.Index < 0 || s.Index > 255 {
				return nil, fmt.Errorf("strategy index %d does not fit in 8 bits", s.Index)
			}
			tuples[i] = evm.IndexedStrategyTuple{Index: uint8(s.Index), Params: s.Params}
		}

		return evm.IndexedStrategiesArgs.Pack(tuples)
	case c.network.IsFamily(chain_selectors.FamilyStarknet):
		out := []*felt.Felt{codec.FeltFromUint64(uint64(len(strategies)))}
		for _, s := range strategies {
			if s.Index < 0 {
				return nil, fmt.Errorf("strategy index %d is negative", s.Index)
			}
			params, err := codec.BytesToFelts(s.Params)
			if err != nil {
				return nil, fmt.Errorf("strategy %d params: %w", s.Index, err)
			}
			out = append(out, codec.FeltFromUint64(uint64(s.Index)), codec.FeltFromUint64(uint64(len(params))))
			out = append(out, params...)
		}

		return codec.FeltsToBytes(out), nil
	default:
		return nil, errors.New("network family is not supported")
	}
}
