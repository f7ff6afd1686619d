package authenticator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

const snVoter = "0x5a"

func felts(t *testing.T, call Call) []*felt.Felt {
	t.Helper()

	out, err := codec.BytesToFelts(call.Calldata)
	require.NoError(t, err)

	return out
}

func feltValues(values ...any) []*felt.Felt {
	out := make([]*felt.Felt, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case int:
			out[i] = codec.FeltFromUint64(uint64(val))
		case string:
			out[i] = codec.MustFelt(val)
		case *felt.Felt:
			out[i] = val
		}
	}

	return out
}

func assertFelts(t *testing.T, want, got []*felt.Felt) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "felt %d: want %s, got %s", i, want[i], got[i])
	}
}

func selectorBytes(f *felt.Felt) []byte {
	b := f.Bytes()
	return b[:]
}

func snVote(voter string) governance.Vote {
	return governance.Vote{
		Space:       snSpace,
		Voter:       voter,
		Proposal:    big.NewInt(7),
		Choice:      governance.ChoiceFor,
		MetadataURI: "ipfs://r",
	}
}

func snPropose(author string) governance.Propose {
	return governance.Propose{
		Space:             snSpace,
		Author:            author,
		MetadataURI:       "ipfs://p",
		ExecutionStrategy: governance.Strategy{Address: snExecutor, Params: codec.FeltsToBytes(feltValues(5))},
	}
}

var snVoteArgs = VoteArgs{Strategies: []governance.IndexedStrategy{{Index: 0, Params: codec.FeltsToBytes(feltValues("0x99"))}}}

// hashSigner signs with r = hash and s = 1 so tests can check what was signed.
var hashSigner = StarkKeySignerFunc(func(_ context.Context, hash *felt.Felt) (*felt.Felt, *felt.Felt, error) {
	return hash, codec.FeltFromUint64(1), nil
})

func TestStarkTx(t *testing.T) {
	t.Parallel()

	auth := newResolver(t, starknetNetwork()).Resolve(snStarkTx)
	require.NotNil(t, auth)
	uri := codec.SplitLongString("ipfs://r")[0]

	call, err := auth.CreateVoteCall(governance.Envelope[governance.Vote]{Data: snVote(snVoter)}, snVoteArgs)
	require.NoError(t, err)
	assert.Equal(t, snStarkTx, call.TargetContract)
	assert.Equal(t, selectorBytes(starknet.SelectorAuthenticateVote), call.EntrypointSelector)
	assertFelts(t, feltValues(snSpace, snVoter, 7, 0, 1, 1, 0, 1, "0x99", 1, uri), felts(t, call))

	call, err = auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: snPropose(snVoter)},
		ProposeArgs{ValidationParams: codec.FeltsToBytes(feltValues(8, 9))})
	require.NoError(t, err)
	assert.Equal(t, selectorBytes(starknet.SelectorAuthenticatePropose), call.EntrypointSelector)
	assertFelts(t, feltValues(snSpace, snVoter, 1, codec.SplitLongString("ipfs://p")[0], snExecutor, 1, 5, 2, 8, 9), felts(t, call))

	call, err = auth.CreateUpdateProposalCall(governance.Envelope[governance.UpdateProposal]{Data: governance.UpdateProposal{
		Space:             snSpace,
		Author:            snVoter,
		Proposal:          big.NewInt(7),
		MetadataURI:       "ipfs://r",
		ExecutionStrategy: governance.Strategy{Address: snExecutor},
	}})
	require.NoError(t, err)
	assertFelts(t, feltValues(snSpace, snVoter, 7, 0, snExecutor, 0, 1, uri), felts(t, call))

	call, err = auth.CreateCancelCall(governance.Envelope[governance.Cancel]{Data: governance.Cancel{Space: snSpace, Proposal: big.NewInt(7)}})
	require.NoError(t, err)
	assert.Equal(t, snSpace, call.TargetContract)
	assert.Equal(t, selectorBytes(starknet.SelectorCancel), call.EntrypointSelector)
	assertFelts(t, feltValues(7, 0), felts(t, call))

	_, err = auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: snPropose(snVoter)},
		ProposeArgs{ValidationParams: []byte{1, 2, 3}})
	require.ErrorContains(t, err, "validation params: felt encoded data must be a multiple of 32 bytes")
}

func TestStarkSig(t *testing.T) {
	t.Parallel()

	auth := newResolver(t, starknetNetwork()).Resolve(snStarkSig)
	require.NotNil(t, auth)
	builder, ok := auth.(MessageBuilder)
	require.True(t, ok)
	signer := NewStarknetSigner(snVoter, hashSigner)

	t.Run("vote", func(t *testing.T) {
		t.Parallel()

		msg, err := builder.VoteMessage(snVote(snVoter), snVoteArgs)
		require.NoError(t, err)
		require.NotNil(t, msg.SNIP12)

		sd, err := signer.Sign(t.Context(), msg)
		require.NoError(t, err)
		assert.Equal(t, snVoter, sd.Address)
		assert.Equal(t, codec.NewStarknetDomain(starknet.ChainIDSepolia, snStarkSig).Map(), sd.Domain)

		hash, err := msg.SNIP12.MessageHash(codec.MustFelt(snVoter))
		require.NoError(t, err)

		call, err := auth.CreateVoteCall(governance.Envelope[governance.Vote]{Data: snVote(snVoter), SignatureData: sd}, snVoteArgs)
		require.NoError(t, err)
		got := felts(t, call)
		require.Greater(t, len(got), 3)
		assert.True(t, got[0].Equal(codec.FeltFromUint64(2)))
		assert.True(t, got[1].Equal(hash), "r carries the signed message hash")
		assert.True(t, got[2].Equal(codec.FeltFromUint64(1)))
		assert.True(t, got[3].Equal(codec.MustFelt(snSpace)))
	})

	t.Run("propose appends the salt", func(t *testing.T) {
		t.Parallel()

		msg, err := builder.ProposeMessage(snPropose(snVoter), ProposeArgs{})
		require.NoError(t, err)
		sd, err := signer.Sign(t.Context(), msg)
		require.NoError(t, err)

		call, err := auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: snPropose(snVoter), SignatureData: sd}, ProposeArgs{})
		require.NoError(t, err)
		got := felts(t, call)
		salt, err := messageSalt(sd)
		require.NoError(t, err)
		assert.Equal(t, 0, codec.FeltToBig(got[len(got)-1]).Cmp(salt))
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		_, err := auth.CreateVoteCall(governance.Envelope[governance.Vote]{Data: snVote(snVoter)}, snVoteArgs)
		var missing *governance.MissingSignatureError
		require.True(t, errors.As(err, &missing))

		_, err = auth.CreateCancelCall(governance.Envelope[governance.Cancel]{Data: governance.Cancel{Space: snSpace}})
		require.ErrorIs(t, err, governance.ErrUnsupportedAction)

		_, err = signer.Sign(t.Context(), Message{})
		require.ErrorContains(t, err, "requires a SNIP-12 message")
	})
}

func TestStarknetEthSig(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)
	author := signer.Address().Hex()
	auth := newResolver(t, starknetNetwork()).Resolve(snEthSig)
	require.NotNil(t, auth)
	builder, ok := auth.(MessageBuilder)
	require.True(t, ok)

	msg, err := builder.ProposeMessage(snPropose(author), ProposeArgs{})
	require.NoError(t, err)
	require.NotNil(t, msg.EIP712)
	assert.Equal(t, "11155111", (*big.Int)(msg.EIP712.Domain.ChainId).String())

	sd, err := signer.Sign(t.Context(), msg)
	require.NoError(t, err)
	sig, err := hexutil.Decode(sd.Signature[0])
	require.NoError(t, err)

	call, err := auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: snPropose(author), SignatureData: sd}, ProposeArgs{})
	require.NoError(t, err)
	assert.Equal(t, selectorBytes(starknet.SelectorAuthenticatePropose), call.EntrypointSelector)

	got := felts(t, call)
	rLow, rHigh, err := codec.SplitU256Big(new(big.Int).SetBytes(sig[:32]))
	require.NoError(t, err)
	assert.True(t, got[0].Equal(rLow))
	assert.True(t, got[1].Equal(rHigh))
	assert.True(t, got[4].Equal(codec.FeltFromUint64(uint64(sig[64]))))
	assert.True(t, got[5].Equal(codec.MustFelt(snSpace)))
	assert.True(t, got[6].Equal(codec.MustFelt(author)))
	// Salt 1 as u256.
	assert.True(t, got[len(got)-2].Equal(codec.FeltFromUint64(1)))
	assert.True(t, got[len(got)-1].IsZero())

	voteMsg, err := builder.VoteMessage(snVote(author), snVoteArgs)
	require.NoError(t, err)
	_, err = TypedDataHash(voteMsg.EIP712)
	require.NoError(t, err)

	unknownL1 := starknetNetwork()
	unknownL1.ChainID = "SN_OTHER"
	other := NewResolver(logger.Test(t), unknownL1).Resolve(snEthSig).(MessageBuilder)
	_, err = other.ProposeMessage(snPropose(author), ProposeArgs{})
	require.ErrorContains(t, err, "no L1 chain id known for SN_OTHER")
}

func TestStarknetEthTx_CommitHash(t *testing.T) {
	t.Parallel()

	auth := newResolver(t, starknetNetwork()).Resolve(snEthTx)
	require.NotNil(t, auth)
	assert.Equal(t, TypeTransaction, auth.Type())
	committer, ok := auth.(Committer)
	require.True(t, ok)
	_, ok = auth.(Relayer)
	require.True(t, ok)

	author := testSigner(t).Address().Hex()
	call, err := auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: snPropose(author)}, ProposeArgs{})
	require.NoError(t, err)
	assert.Equal(t, snEthTx, call.TargetContract)

	got, err := committer.CommitHash(call)
	require.NoError(t, err)

	args := felts(t, call)
	want := crypto.PoseidonArray(append([]*felt.Felt{args[0], starknet.SelectorPropose}, args[1:]...)...)
	assert.True(t, want.Equal(got))

	cancel, err := auth.CreateCancelCall(governance.Envelope[governance.Cancel]{Data: governance.Cancel{Space: snSpace, Proposal: big.NewInt(1)}})
	require.NoError(t, err)
	_, err = committer.CommitHash(cancel)
	require.ErrorContains(t, err, "is not an authenticate entrypoint")

	_, err = committer.CommitHash(Call{EntrypointSelector: selectorBytes(starknet.SelectorAuthenticateVote)})
	require.ErrorContains(t, err, "calldata is empty")
}
