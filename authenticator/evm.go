package authenticator

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

// spaceCall is a space contract entrypoint with its abi encoded arguments.
type spaceCall struct {
	method   string
	selector [4]byte
	data     []byte
}

func newSpaceCall(method string, args ...any) (spaceCall, error) {
	sel, err := evm.Selector(evm.SpaceABI, method)
	if err != nil {
		return spaceCall{}, err
	}
	data, err := evm.PackArgs(evm.SpaceABI, method, args...)
	if err != nil {
		return spaceCall{}, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	return spaceCall{method: method, selector: sel, data: data}, nil
}

func evmAddress(name, address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%s %q is not an EVM address", name, address)
	}

	return common.HexToAddress(address), nil
}

func evmProposeCall(p governance.Propose, args ProposeArgs) (spaceCall, error) {
	author, err := evmAddress("author", p.Author)
	if err != nil {
		return spaceCall{}, err
	}
	exec, err := evmStrategyTuple(p.ExecutionStrategy)
	if err != nil {
		return spaceCall{}, err
	}
	validation := args.ValidationParams
	if validation == nil {
		validation = []byte{}
	}

	return newSpaceCall("propose", author, p.MetadataURI, exec, validation)
}

func evmVoteCall(v governance.Vote, args VoteArgs) (spaceCall, error) {
	voter, err := evmAddress("voter", v.Voter)
	if err != nil {
		return spaceCall{}, err
	}
	strategies, err := evmIndexedStrategies(args.Strategies)
	if err != nil {
		return spaceCall{}, err
	}

	return newSpaceCall("vote", voter, proposalID(v.Proposal), uint8(v.Choice), strategies, v.MetadataURI)
}

func evmUpdateProposalCall(u governance.UpdateProposal) (spaceCall, error) {
	author, err := evmAddress("author", u.Author)
	if err != nil {
		return spaceCall{}, err
	}
	exec, err := evmStrategyTuple(u.ExecutionStrategy)
	if err != nil {
		return spaceCall{}, err
	}

	return newSpaceCall("updateProposal", author, proposalID(u.Proposal), exec, u.MetadataURI)
}

func evmStrategyTuple(s governance.Strategy) (evm.StrategyTuple, error) {
	addr, err := evmAddress("execution strategy", s.Address)
	if err != nil {
		return evm.StrategyTuple{}, err
	}
	params := s.Params
	if params == nil {
		params = []byte{}
	}

	return evm.StrategyTuple{Addr: addr, Params: params}, nil
}

func evmIndexedStrategies(strategies []governance.IndexedStrategy) ([]evm.IndexedStrategyTuple, error) {
	out := make([]evm.IndexedStrategyTuple, len(strategies))
	for i, s := range strategies {
		index, err := strategyIndex(s.Index)
		if err != nil {
			return nil, err
		}
		params := s.Params
		if params == nil {
			params = []byte{}
		}
		out[i] = evm.IndexedStrategyTuple{Index: index, Params: params}
	}

	return out, nil
}

func proposalID(id *big.Int) *big.Int {
	if id == nil {
		return new(big.Int)
	}

	return id
}

// evmEthTx authenticates the transaction sender as the author or voter.
type evmEthTx struct {
	base
}

func (a *evmEthTx) Type() Type { return TypeTransaction }

func (a *evmEthTx) CreateProposeCall(env governance.Envelope[governance.Propose], args ProposeArgs) (Call, error) {
	sc, err := evmProposeCall(env.Data, args)
	if err != nil {
		return Call{}, err
	}

	return a.authenticate(env.Data.Space, sc)
}

func (a *evmEthTx) CreateVoteCall(env governance.Envelope[governance.Vote], args VoteArgs) (Call, error) {
	sc, err := evmVoteCall(env.Data, args)
	if err != nil {
		return Call{}, err
	}

	return a.authenticate(env.Data.Space, sc)
}

func (a *evmEthTx) CreateUpdateProposalCall(env governance.Envelope[governance.UpdateProposal]) (Call, error) {
	sc, err := evmUpdateProposalCall(env.Data)
	if err != nil {
		return Call{}, err
	}

	return a.authenticate(env.Data.Space, sc)
}

// CreateCancelCall calls cancel on the space directly; only the space owner may send it.
func (a *evmEthTx) CreateCancelCall(env governance.Envelope[governance.Cancel]) (Call, error) {
	if _, err := evmAddress("space", env.Data.Space); err != nil {
		return Call{}, err
	}
	sc, err := newSpaceCall("cancel", proposalID(env.Data.Proposal))
	if err != nil {
		return Call{}, err
	}

	return Call{
		TargetContract:     env.Data.Space,
		EntrypointSelector: sc.selector[:],
		Calldata:           sc.data,
	}, nil
}

func (a *evmEthTx) authenticate(space string, sc spaceCall) (Call, error) {
	target, err := evmAddress("space", space)
	if err != nil {
		return Call{}, err
	}
	sel, err := evm.Selector(evm.EthTxAuthenticatorABI, "authenticate")
	if err != nil {
		return Call{}, err
	}
	calldata, err := evm.PackArgs(evm.EthTxAuthenticatorABI, "authenticate", target, sc.selector, sc.data)
	if err != nil {
		return Call{}, fmt.Errorf("failed to encode authenticate: %w", err)
	}

	return Call{TargetContract: a.address, EntrypointSelector: sel[:], Calldata: calldata}, nil
}

// evmEthSig verifies an EIP-712 signature of the author or voter. EthSigV2 additionally binds
// the vote metadata URI in the signed vote.
type evmEthSig struct {
	base
	relaying
	signatureOnlyCancel
	chainID *big.Int
	salts   SaltGenerator
}

func (a *evmEthSig) Type() Type { return TypeSignature }

func (a *evmEthSig) CreateProposeCall(env governance.Envelope[governance.Propose], args ProposeArgs) (Call, error) {
	sc, err := evmProposeCall(env.Data, args)
	if err != nil {
		return Call{}, err
	}

	return a.authenticate(env.Data.Space, env.SignatureData, sc)
}

func (a *evmEthSig) CreateVoteCall(env governance.Envelope[governance.Vote], args VoteArgs) (Call, error) {
	sc, err := evmVoteCall(env.Data, args)
	if err != nil {
		return Call{}, err
	}

	return a.authenticate(env.Data.Space, env.SignatureData, sc)
}

func (a *evmEthSig) CreateUpdateProposalCall(env governance.Envelope[governance.UpdateProposal]) (Call, error) {
	sc, err := evmUpdateProposalCall(env.Data)
	if err != nil {
		return Call{}, err
	}

	return a.authenticate(env.Data.Space, env.SignatureData, sc)
}

func (a *evmEthSig) authenticate(space string, sd *governance.SignatureData, sc spaceCall) (Call, error) {
	if err := requireSignature(a.address, sd); err != nil {
		return Call{}, err
	}
	sig, err := parseECDSASignature(sd)
	if err != nil {
		return Call{}, err
	}
	salt, err := messageSalt(sd)
	if err != nil {
		return Call{}, err
	}
	target, err := evmAddress("space", space)
	if err != nil {
		return Call{}, err
	}

	sel, err := evm.Selector(evm.EthSigAuthenticatorABI, "authenticate")
	if err != nil {
		return Call{}, err
	}
	calldata, err := evm.PackArgs(evm.EthSigAuthenticatorABI, "authenticate",
		sig.V, sig.R, sig.S, salt, target, sc.selector, sc.data)
	if err != nil {
		return Call{}, fmt.Errorf("failed to encode authenticate: %w", err)
	}

	return Call{TargetContract: a.address, EntrypointSelector: sel[:], Calldata: calldata}, nil
}

var evmStrategyTypes = apitypes.Types{
	"Strategy": {
		{Name: "addr", Type: "address"},
		{Name: "params", Type: "bytes"},
	},
	"IndexedStrategy": {
		{Name: "index", Type: "uint8"},
		{Name: "params", Type: "bytes"},
	},
}

func (a *evmEthSig) typedData(primary string, fields []apitypes.Type, message apitypes.TypedDataMessage) *apitypes.TypedData {
	types := apitypes.Types{
		codec.EIP712DomainPrimaryKey: codec.EVMDomainTypes(),
		primary:                      fields,
	}
	for name, t := range evmStrategyTypes {
		types[name] = t
	}

	return &apitypes.TypedData{
		Types:       types,
		PrimaryType: primary,
		Domain:      codec.EVMDomain(codec.EVMDomainName, codec.EVMDomainVersion, a.chainID, common.HexToAddress(a.address)),
		Message:     message,
	}
}

// ProposeMessage builds the Propose message the author signs.
func (a *evmEthSig) ProposeMessage(p governance.Propose, args ProposeArgs) (Message, error) {
	salt, err := a.salts.Salt()
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	return Message{EIP712: a.typedData("Propose", []apitypes.Type{
		{Name: "space", Type: "address"},
		{Name: "author", Type: "address"},
		{Name: "metadataURI", Type: "string"},
		{Name: "executionStrategy", Type: "Strategy"},
		{Name: "userProposalValidationParams", Type: "bytes"},
		{Name: "salt", Type: "uint256"},
	}, apitypes.TypedDataMessage{
		"space":                        p.Space,
		"author":                       p.Author,
		"metadataURI":                  p.MetadataURI,
		"executionStrategy":            evmStrategyMessage(p.ExecutionStrategy),
		"userProposalValidationParams": hexutil.Bytes(args.ValidationParams),
		"salt":                         salt,
	})}, nil
}

// VoteMessage builds the Vote message the voter signs.
func (a *evmEthSig) VoteMessage(v governance.Vote, args VoteArgs) (Message, error) {
	fields := []apitypes.Type{
		{Name: "space", Type: "address"},
		{Name: "voter", Type: "address"},
		{Name: "proposalId", Type: "uint256"},
		{Name: "choice", Type: "uint8"},
		{Name: "userVotingStrategies", Type: "IndexedStrategy[]"},
	}
	message := apitypes.TypedDataMessage{
		"space":                v.Space,
		"voter":                v.Voter,
		"proposalId":           proposalID(v.Proposal),
		"choice":               big.NewInt(int64(v.Choice)),
		"userVotingStrategies": evmIndexedStrategiesMessage(args.Strategies),
	}
	if a.kind == network.AuthenticatorEthSigV2 {
		fields = append(fields, apitypes.Type{Name: "voteMetadataURI", Type: "string"})
		message["voteMetadataURI"] = v.MetadataURI
	}

	return Message{EIP712: a.typedData("Vote", fields, message)}, nil
}

// UpdateProposalMessage builds the updateProposal message the author signs. The space contract
// declares this primary type in lower camel case.
func (a *evmEthSig) UpdateProposalMessage(u governance.UpdateProposal) (Message, error) {
	salt, err := a.salts.Salt()
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	return Message{EIP712: a.typedData("updateProposal", []apitypes.Type{
		{Name: "space", Type: "address"},
		{Name: "author", Type: "address"},
		{Name: "proposalId", Type: "uint256"},
		{Name: "executionStrategy", Type: "Strategy"},
		{Name: "metadataURI", Type: "string"},
		{Name: "salt", Type: "uint256"},
	}, apitypes.TypedDataMessage{
		"space":             u.Space,
		"author":            u.Author,
		"proposalId":        proposalID(u.Proposal),
		"executionStrategy": evmStrategyMessage(u.ExecutionStrategy),
		"metadataURI":       u.MetadataURI,
		"salt":              salt,
	})}, nil
}

func evmStrategyMessage(s governance.Strategy) map[string]any {
	return map[string]any{
		"addr":   s.Address,
		"params": hexutil.Bytes(s.Params),
	}
}

func evmIndexedStrategiesMessage(strategies []governance.IndexedStrategy) []any {
	out := make([]any, len(strategies))
	for i, s := range strategies {
		out[i] = map[string]any{
			"index":  big.NewInt(int64(s.Index)),
			"params": hexutil.Bytes(s.Params),
		}
	}

	return out
}
