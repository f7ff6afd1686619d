package authenticator

import (
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

const (
	testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	evmSpace     = "0x65e4329e8c0fba31883b98e2cf3e81d3cdcac780"
	evmExecution = "0xb1001fdf62c020761039a750b27e73c512fdaa5e"
	evmEthTxAddr = "0xba06e6ccb877c332181a6867c05c8b746a21aed1"
	evmEthSigA   = "0x5f9b7d78c9a37a439d78f801e0e339c6e711e260"
	evmEthSigV2A = "0x00000000000000000000000000000000000000e2"

	snSpace    = "0x2"
	snStarkTx  = "0xa1"
	snStarkSig = "0xa2"
	snEthSig   = "0xa3"
	snEthTx    = "0xa4"
	snExecutor = "0xe1"
)

func evmNetwork() network.Network {
	return network.Network{
		Name:    "sep",
		Family:  chainsel.FamilyEVM,
		ChainID: "11155111",
		Authenticators: map[string]network.AuthenticatorKind{
			evmEthTxAddr: network.AuthenticatorEthTx,
			evmEthSigA:   network.AuthenticatorEthSig,
			evmEthSigV2A: network.AuthenticatorEthSigV2,
			// Not an EVM kind.
			"0x00000000000000000000000000000000000000e3": network.AuthenticatorStarkSig,
		},
	}
}

func starknetNetwork() network.Network {
	return network.Network{
		Name:    "sn-sep",
		Family:  chainsel.FamilyStarknet,
		ChainID: starknet.ChainIDSepolia,
		Authenticators: map[string]network.AuthenticatorKind{
			snStarkTx:  network.AuthenticatorStarkTx,
			snStarkSig: network.AuthenticatorStarkSig,
			snEthSig:   network.AuthenticatorEthSig,
			snEthTx:    network.AuthenticatorEthTx,
		},
	}
}

// countingSalts returns 1, 2, 3... so tests can tell consecutive messages apart.
func countingSalts() SaltGenerator {
	var n atomic.Int64

	return SaltFunc(func() (*big.Int, error) {
		return big.NewInt(n.Add(1)), nil
	})
}

func newResolver(t *testing.T, net network.Network) *Resolver {
	t.Helper()

	return NewResolver(logger.Test(t), net, WithSaltGenerator(countingSalts()))
}

func testSigner(t *testing.T) *EVMSigner {
	t.Helper()

	s, err := EVMSignerFromKey(testKey)
	require.NoError(t, err)

	return s
}

func evmPropose(author string) governance.Propose {
	return governance.Propose{
		Space:             evmSpace,
		Author:            author,
		MetadataURI:       "ipfs://proposal",
		ExecutionStrategy: governance.Strategy{Address: evmExecution, Params: []byte{0xde, 0xad}},
	}
}

func evmVote(voter string) governance.Vote {
	return governance.Vote{
		Space:       evmSpace,
		Voter:       voter,
		Proposal:    big.NewInt(3),
		Choice:      governance.ChoiceFor,
		MetadataURI: "ipfs://reason",
	}
}

// unpackAuthenticate decodes the authenticate arguments of call.
func unpackAuthenticate(t *testing.T, contract abi.ABI, call Call) []any {
	t.Helper()

	sel, err := evm.Selector(contract, "authenticate")
	require.NoError(t, err)
	require.Equal(t, sel[:], call.EntrypointSelector)
	assert.Equal(t, append(sel[:], call.Calldata...), call.Data())

	args, err := contract.Methods["authenticate"].Inputs.Unpack(call.Calldata)
	require.NoError(t, err)

	return args
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		net      network.Network
		address  string
		wantKind network.AuthenticatorKind
		wantType Type
		wantNil  bool
	}{
		{name: "evm EthTx", net: evmNetwork(), address: evmEthTxAddr, wantKind: network.AuthenticatorEthTx, wantType: TypeTransaction},
		{name: "evm EthSig checksummed", net: evmNetwork(), address: common.HexToAddress(evmEthSigA).Hex(), wantKind: network.AuthenticatorEthSig, wantType: TypeSignature},
		{name: "evm EthSigV2", net: evmNetwork(), address: evmEthSigV2A, wantKind: network.AuthenticatorEthSigV2, wantType: TypeSignature},
		{name: "evm unsupported kind", net: evmNetwork(), address: "0x00000000000000000000000000000000000000e3", wantNil: true},
		{name: "evm unknown", net: evmNetwork(), address: "0x00000000000000000000000000000000000000ff", wantNil: true},
		{name: "starknet StarkTx", net: starknetNetwork(), address: snStarkTx, wantKind: network.AuthenticatorStarkTx, wantType: TypeTransaction},
		{name: "starknet StarkSig padded", net: starknetNetwork(), address: "0x00000000000000000000000000000000000000000000000000000000000000a2", wantKind: network.AuthenticatorStarkSig, wantType: TypeSignature},
		{name: "starknet EthSig", net: starknetNetwork(), address: snEthSig, wantKind: network.AuthenticatorEthSig, wantType: TypeSignature},
		{name: "starknet EthTx", net: starknetNetwork(), address: snEthTx, wantKind: network.AuthenticatorEthTx, wantType: TypeTransaction},
		{name: "starknet malformed", net: starknetNetwork(), address: "nope", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := newResolver(t, tt.net).Resolve(tt.address)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantKind, got.Kind())
			assert.Equal(t, tt.wantType, got.Type())
		})
	}
}

func TestEVMEthTx(t *testing.T) {
	t.Parallel()

	author := testSigner(t).Address().Hex()
	auth := newResolver(t, evmNetwork()).Resolve(evmEthTxAddr)
	require.NotNil(t, auth)

	t.Run("propose", func(t *testing.T) {
		t.Parallel()

		call, err := auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: evmPropose(author)},
			ProposeArgs{ValidationParams: []byte{0x01}})
		require.NoError(t, err)
		assert.Equal(t, evmEthTxAddr, call.TargetContract)

		args := unpackAuthenticate(t, evm.EthTxAuthenticatorABI, call)
		require.Len(t, args, 3)
		assert.Equal(t, common.HexToAddress(evmSpace), args[0])
		sel, err := evm.Selector(evm.SpaceABI, "propose")
		require.NoError(t, err)
		assert.Equal(t, sel, args[1])

		inner, err := evm.SpaceABI.Methods["propose"].Inputs.Unpack(args[2].([]byte))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(author), inner[0])
		assert.Equal(t, "ipfs://proposal", inner[1])
		assert.Equal(t, []byte{0x01}, inner[3])
	})

	t.Run("vote", func(t *testing.T) {
		t.Parallel()

		call, err := auth.CreateVoteCall(governance.Envelope[governance.Vote]{Data: evmVote(author)},
			VoteArgs{Strategies: []governance.IndexedStrategy{{Index: 1, Params: []byte{0xaa}}}})
		require.NoError(t, err)

		args := unpackAuthenticate(t, evm.EthTxAuthenticatorABI, call)
		inner, err := evm.SpaceABI.Methods["vote"].Inputs.Unpack(args[2].([]byte))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(author), inner[0])
		assert.Equal(t, big.NewInt(3), inner[1])
		assert.Equal(t, uint8(governance.ChoiceFor), inner[2])
		assert.Equal(t, "ipfs://reason", inner[4])
	})

	t.Run("vote with out of range index", func(t *testing.T) {
		t.Parallel()

		_, err := auth.CreateVoteCall(governance.Envelope[governance.Vote]{Data: evmVote(author)},
			VoteArgs{Strategies: []governance.IndexedStrategy{{Index: 256}}})
		require.ErrorContains(t, err, "strategy index 256 does not fit in 8 bits")
	})

	t.Run("update proposal", func(t *testing.T) {
		t.Parallel()

		call, err := auth.CreateUpdateProposalCall(governance.Envelope[governance.UpdateProposal]{Data: governance.UpdateProposal{
			Space:             evmSpace,
			Author:            author,
			Proposal:          big.NewInt(9),
			MetadataURI:       "ipfs://updated",
			ExecutionStrategy: governance.Strategy{Address: evmExecution},
		}})
		require.NoError(t, err)

		args := unpackAuthenticate(t, evm.EthTxAuthenticatorABI, call)
		sel, err := evm.Selector(evm.SpaceABI, "updateProposal")
		require.NoError(t, err)
		assert.Equal(t, sel, args[1])
	})

	t.Run("cancel targets the space", func(t *testing.T) {
		t.Parallel()

		call, err := auth.CreateCancelCall(governance.Envelope[governance.Cancel]{Data: governance.Cancel{Space: evmSpace, Proposal: big.NewInt(4)}})
		require.NoError(t, err)
		assert.Equal(t, evmSpace, call.TargetContract)

		want, err := evm.SpaceABI.Pack("cancel", big.NewInt(4))
		require.NoError(t, err)
		assert.Equal(t, want, call.Data())
	})

	t.Run("bad author", func(t *testing.T) {
		t.Parallel()

		_, err := auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: evmPropose("0x1234")}, ProposeArgs{})
		require.ErrorContains(t, err, `author "0x1234" is not an EVM address`)
	})
}

func TestEVMEthSig_ProposeRoundTrip(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)
	auth := newResolver(t, evmNetwork()).Resolve(evmEthSigA)
	require.NotNil(t, auth)
	builder, ok := auth.(MessageBuilder)
	require.True(t, ok)

	p := evmPropose(signer.Address().Hex())
	args := ProposeArgs{ValidationParams: []byte{0x02}}

	msg, err := builder.ProposeMessage(p, args)
	require.NoError(t, err)
	require.NotNil(t, msg.EIP712)
	assert.Equal(t, "Propose", msg.EIP712.PrimaryType)

	sd, err := signer.Sign(t.Context(), msg)
	require.NoError(t, err)
	assert.Equal(t, signer.Address().Hex(), sd.Address)

	// The signature recovers to the signer over the standard EIP-712 digest.
	hash, _, err := apitypes.TypedDataAndHash(*msg.EIP712)
	require.NoError(t, err)
	ours, err := TypedDataHash(msg.EIP712)
	require.NoError(t, err)
	assert.Equal(t, hash, ours)

	sig, err := hexutil.Decode(sd.Signature[0])
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])
	recoverable := append([]byte{}, sig...)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(hash, recoverable)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))

	call, err := auth.CreateProposeCall(governance.Envelope[governance.Propose]{Data: p, SignatureData: sd}, args)
	require.NoError(t, err)
	assert.Equal(t, evmEthSigA, call.TargetContract)

	got := unpackAuthenticate(t, evm.EthSigAuthenticatorABI, call)
	require.Len(t, got, 7)
	assert.Equal(t, sig[64], got[0])
	assert.Equal(t, [32]byte(sig[:32]), got[1])
	assert.Equal(t, [32]byte(sig[32:64]), got[2])
	assert.Equal(t, big.NewInt(1), got[3], "salt of the signed message")
	assert.Equal(t, common.HexToAddress(evmSpace), got[4])
}

func TestEVMEthSig_VoteMessage(t *testing.T) {
	t.Parallel()

	voter := testSigner(t).Address().Hex()
	args := VoteArgs{Strategies: []governance.IndexedStrategy{{Index: 0, Params: []byte{}}}}

	tests := []struct {
		name         string
		address      string
		wantMetadata bool
	}{
		{name: "EthSig", address: evmEthSigA},
		{name: "EthSigV2 binds the metadata URI", address: evmEthSigV2A, wantMetadata: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			builder, ok := newResolver(t, evmNetwork()).Resolve(tt.address).(MessageBuilder)
			require.True(t, ok)

			msg, err := builder.VoteMessage(evmVote(voter), args)
			require.NoError(t, err)

			_, has := msg.EIP712.Message["voteMetadataURI"]
			assert.Equal(t, tt.wantMetadata, has)

			_, err = TypedDataHash(msg.EIP712)
			require.NoError(t, err)
		})
	}
}

func TestEVMEthSig_TypeHashes(t *testing.T) {
	t.Parallel()

	author := testSigner(t).Address().Hex()
	builder, ok := newResolver(t, evmNetwork()).Resolve(evmEthSigA).(MessageBuilder)
	require.True(t, ok)

	propose, err := builder.ProposeMessage(evmPropose(author), ProposeArgs{})
	require.NoError(t, err)
	update, err := builder.UpdateProposalMessage(governance.UpdateProposal{
		Space:             evmSpace,
		Author:            author,
		Proposal:          big.NewInt(9),
		MetadataURI:       "ipfs://updated",
		ExecutionStrategy: governance.Strategy{Address: evmExecution},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "propose",
			msg:  propose,
			want: "Propose(address space,address author,string metadataURI,Strategy executionStrategy," +
				"bytes userProposalValidationParams,uint256 salt)Strategy(address addr,bytes params)",
		},
		{
			name: "update proposal",
			msg:  update,
			want: "updateProposal(address space,address author,uint256 proposalId,Strategy executionStrategy," +
				"string metadataURI,uint256 salt)Strategy(address addr,bytes params)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			td := tt.msg.EIP712
			assert.Equal(t, tt.want, string(td.EncodeType(td.PrimaryType)))
			assert.Equal(t, hexutil.Bytes(crypto.Keccak256([]byte(tt.want))), td.TypeHash(td.PrimaryType))

			_, err := TypedDataHash(td)
			require.NoError(t, err)
		})
	}
}

func TestEVMEthSig_Errors(t *testing.T) {
	t.Parallel()

	auth := newResolver(t, evmNetwork()).Resolve(evmEthSigA)
	require.NotNil(t, auth)
	voter := testSigner(t).Address().Hex()

	_, err := auth.CreateVoteCall(governance.Envelope[governance.Vote]{Data: evmVote(voter)}, VoteArgs{})
	var missing *governance.MissingSignatureError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, evmEthSigA, missing.Authenticator)

	_, err = auth.CreateVoteCall(governance.Envelope[governance.Vote]{
		Data:          evmVote(voter),
		SignatureData: &governance.SignatureData{Signature: []string{"0x1234"}},
	}, VoteArgs{})
	require.ErrorContains(t, err, "expected 65 bytes, got 2")

	_, err = auth.CreateCancelCall(governance.Envelope[governance.Cancel]{Data: governance.Cancel{Space: evmSpace, Proposal: big.NewInt(1)}})
	require.ErrorIs(t, err, governance.ErrUnsupportedAction)
}

func TestSaltRegeneratedPerMessage(t *testing.T) {
	t.Parallel()

	builder, ok := newResolver(t, evmNetwork()).Resolve(evmEthSigA).(MessageBuilder)
	require.True(t, ok)

	p := evmPropose(testSigner(t).Address().Hex())
	first, err := builder.ProposeMessage(p, ProposeArgs{})
	require.NoError(t, err)
	second, err := builder.ProposeMessage(p, ProposeArgs{})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(1), first.EIP712.Message["salt"])
	assert.Equal(t, big.NewInt(2), second.EIP712.Message["salt"])

	failing := NewResolver(logger.Test(t), evmNetwork(), WithSaltGenerator(SaltFunc(func() (*big.Int, error) {
		return nil, errors.New("entropy exhausted")
	})))
	_, err = failing.Resolve(evmEthSigA).(MessageBuilder).ProposeMessage(p, ProposeArgs{})
	require.ErrorContains(t, err, "entropy exhausted")
}

func TestRandomSalt(t *testing.T) {
	t.Parallel()

	a, err := RandomSalt.Salt()
	require.NoError(t, err)
	b, err := RandomSalt.Salt()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a.BitLen(), 250)
	assert.LessOrEqual(t, b.BitLen(), 250)
}

func TestEVMSigner_Errors(t *testing.T) {
	t.Parallel()

	_, err := EVMSignerFromKey("0xnot-a-key")
	require.ErrorContains(t, err, "invalid private key")

	_, err = testSigner(t).Sign(t.Context(), Message{})
	require.ErrorContains(t, err, "requires an EIP-712 message")

	short := NewEVMSigner(common.Address{}, func([]byte) ([]byte, error) { return []byte{1}, nil })
	_, err = short.Sign(t.Context(), Message{EIP712: &apitypes.TypedData{
		Types:       apitypes.Types{"EIP712Domain": {{Name: "name", Type: "string"}}, "Empty": {}},
		PrimaryType: "Empty",
		Domain:      apitypes.TypedDataDomain{Name: "x"},
		Message:     apitypes.TypedDataMessage{},
	}})
	require.ErrorContains(t, err, "signer returned 1 bytes, want 65")
}
