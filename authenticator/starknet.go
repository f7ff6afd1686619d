package authenticator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

func starknetCall(target string, selector *felt.Felt, felts []*felt.Felt) Call {
	sel := selector.Bytes()

	return Call{
		TargetContract:     target,
		EntrypointSelector: sel[:],
		Calldata:           codec.FeltsToBytes(felts),
	}
}

// starknetCancelCall calls cancel on the space directly; only the space owner may send it.
func starknetCancelCall(env governance.Envelope[governance.Cancel]) (Call, error) {
	c := &calldata{}
	felts, err := c.hex("space", env.Data.Space).u256("proposal", proposalID(env.Data.Proposal)).result()
	if err != nil {
		return Call{}, err
	}

	return starknetCall(env.Data.Space, starknet.SelectorCancel, felts[1:]), nil
}

// starkTx authenticates the Starknet account sending the transaction.
type starkTx struct {
	base
}

func (a *starkTx) Type() Type { return TypeTransaction }

func (a *starkTx) CreateProposeCall(env governance.Envelope[governance.Propose], args ProposeArgs) (Call, error) {
	return a.call(starknet.SelectorAuthenticatePropose, starknetProposeArgs(env.Data, args))
}

func (a *starkTx) CreateVoteCall(env governance.Envelope[governance.Vote], args VoteArgs) (Call, error) {
	return a.call(starknet.SelectorAuthenticateVote, starknetVoteArgs(env.Data, args))
}

func (a *starkTx) CreateUpdateProposalCall(env governance.Envelope[governance.UpdateProposal]) (Call, error) {
	return a.call(starknet.SelectorAuthenticateUpdateProposal, starknetUpdateProposalArgs(env.Data))
}

func (a *starkTx) CreateCancelCall(env governance.Envelope[governance.Cancel]) (Call, error) {
	return starknetCancelCall(env)
}

func (a *starkTx) call(selector *felt.Felt, c *calldata) (Call, error) {
	felts, err := c.result()
	if err != nil {
		return Call{}, err
	}

	return starknetCall(a.address, selector, felts), nil
}

// starknetEthTx authenticates an Ethereum address that committed the call hash on L1 through
// the Starknet core messaging contract. The relay consumes the commit once it reaches L2.
type starknetEthTx struct {
	starkTx
	relaying
}

// Committer computes the hash an L1 sender commits before the call can be authenticated.
type Committer interface {
	CommitHash(call Call) (*felt.Felt, error)
}

var _ Committer = &starknetEthTx{}

var spaceSelectors = map[felt.Felt]*felt.Felt{
	*starknet.SelectorAuthenticatePropose:        starknet.SelectorPropose,
	*starknet.SelectorAuthenticateVote:           starknet.SelectorVote,
	*starknet.SelectorAuthenticateUpdateProposal: starknet.SelectorUpdateProposal,
}

// CommitHash returns poseidon(space, space entrypoint selector, arguments...) of an
// authenticator call built by this authenticator.
func (a *starknetEthTx) CommitHash(call Call) (*felt.Felt, error) {
	felts, err := codec.BytesToFelts(call.Calldata)
	if err != nil {
		return nil, err
	}
	if len(felts) == 0 {
		return nil, errors.New("calldata is empty")
	}
	spaceSelector, ok := spaceSelectors[*new(felt.Felt).SetBytes(call.EntrypointSelector)]
	if !ok {
		return nil, fmt.Errorf("entrypoint %x is not an authenticate entrypoint", call.EntrypointSelector)
	}

	elems := append([]*felt.Felt{felts[0], spaceSelector}, felts[1:]...)

	return crypto.PoseidonArray(elems...), nil
}

// starkSig verifies a SNIP-12 signature of the author or voter account.
type starkSig struct {
	base
	relaying
	signatureOnlyCancel
	chainID string
	salts   SaltGenerator
}

func (a *starkSig) Type() Type { return TypeSignature }

func (a *starkSig) CreateProposeCall(env governance.Envelope[governance.Propose], args ProposeArgs) (Call, error) {
	return a.call(starknet.SelectorAuthenticatePropose, env.SignatureData, starknetProposeArgs(env.Data, args), true)
}

func (a *starkSig) CreateVoteCall(env governance.Envelope[governance.Vote], args VoteArgs) (Call, error) {
	return a.call(starknet.SelectorAuthenticateVote, env.SignatureData, starknetVoteArgs(env.Data, args), false)
}

func (a *starkSig) CreateUpdateProposalCall(env governance.Envelope[governance.UpdateProposal]) (Call, error) {
	return a.call(starknet.SelectorAuthenticateUpdateProposal, env.SignatureData, starknetUpdateProposalArgs(env.Data), true)
}

func (a *starkSig) call(selector *felt.Felt, sd *governance.SignatureData, args *calldata, salted bool) (Call, error) {
	if err := requireSignature(a.address, sd); err != nil {
		return Call{}, err
	}
	sig, err := parseStarkSignature(sd)
	if err != nil {
		return Call{}, err
	}
	c := (&calldata{}).array(sig).concat(args)
	if salted {
		salt, err := messageSalt(sd)
		if err != nil {
			return Call{}, err
		}
		c.bigFelt("salt", salt)
	}
	felts, err := c.result()
	if err != nil {
		return Call{}, err
	}

	return starknetCall(a.address, selector, felts), nil
}

var snip12Types = map[string][]starknet.TypeMember{
	starknet.DomainTypeName: {
		{Name: "name", Type: "felt"},
		{Name: "version", Type: "felt"},
		{Name: "chainId", Type: "felt"},
		{Name: "verifyingContract", Type: "ContractAddress"},
	},
	"Propose": {
		{Name: "space", Type: "ContractAddress"},
		{Name: "author", Type: "ContractAddress"},
		{Name: "metadataUri", Type: "felt*"},
		{Name: "executionStrategy", Type: "Strategy"},
		{Name: "userProposalValidationParams", Type: "felt*"},
		{Name: "salt", Type: "felt"},
	},
	"Vote": {
		{Name: "space", Type: "ContractAddress"},
		{Name: "voter", Type: "ContractAddress"},
		{Name: "proposalId", Type: "u256"},
		{Name: "choice", Type: "felt"},
		{Name: "userVotingStrategies", Type: "IndexedStrategy*"},
		{Name: "metadataUri", Type: "felt*"},
	},
	"UpdateProposal": {
		{Name: "space", Type: "ContractAddress"},
		{Name: "author", Type: "ContractAddress"},
		{Name: "proposalId", Type: "u256"},
		{Name: "executionStrategy", Type: "Strategy"},
		{Name: "metadataUri", Type: "felt*"},
		{Name: "salt", Type: "felt"},
	},
	"Strategy": {
		{Name: "address", Type: "felt"},
		{Name: "params", Type: "felt*"},
	},
	"IndexedStrategy": {
		{Name: "index", Type: "felt"},
		{Name: "params", Type: "felt*"},
	},
	"u256": {
		{Name: "low", Type: "felt"},
		{Name: "high", Type: "felt"},
	},
}

// snip12Subset returns the domain, the primary type and the types it references.
func snip12Subset(primary string) map[string][]starknet.TypeMember {
	out := map[string][]starknet.TypeMember{
		starknet.DomainTypeName: snip12Types[starknet.DomainTypeName],
		primary:                 snip12Types[primary],
	}
	for _, m := range snip12Types[primary] {
		switch m.Type {
		case "Strategy", "u256":
			out[m.Type] = snip12Types[m.Type]
		case "IndexedStrategy*":
			out["IndexedStrategy"] = snip12Types["IndexedStrategy"]
		}
	}

	return out
}

func (a *starkSig) typedData(primary string, message map[string]any) *starknet.TypedData {
	return &starknet.TypedData{
		Types:       snip12Subset(primary),
		PrimaryType: primary,
		Domain:      codec.NewStarknetDomain(a.chainID, a.address).Map(),
		Message:     message,
	}
}

// ProposeMessage builds the Propose message the author account signs.
func (a *starkSig) ProposeMessage(p governance.Propose, args ProposeArgs) (Message, error) {
	salt, err := a.salts.Salt()
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	exec, err := snip12Strategy(p.ExecutionStrategy)
	if err != nil {
		return Message{}, err
	}
	validation, err := feltItems(args.ValidationParams)
	if err != nil {
		return Message{}, fmt.Errorf("validation params: %w", err)
	}

	return Message{SNIP12: a.typedData("Propose", map[string]any{
		"space":                        p.Space,
		"author":                       p.Author,
		"metadataUri":                  anyFelts(codec.SplitLongString(p.MetadataURI)),
		"executionStrategy":            exec,
		"userProposalValidationParams": validation,
		"salt":                         salt,
	})}, nil
}

// VoteMessage builds the Vote message the voter account signs.
func (a *starkSig) VoteMessage(v governance.Vote, args VoteArgs) (Message, error) {
	proposal, err := snip12U256(v.Proposal)
	if err != nil {
		return Message{}, err
	}
	strategies := make([]any, len(args.Strategies))
	for i, s := range args.Strategies {
		params, err := feltItems(s.Params)
		if err != nil {
			return Message{}, fmt.Errorf("strategy %d params: %w", s.Index, err)
		}
		strategies[i] = map[string]any{"index": s.Index, "params": params}
	}

	return Message{SNIP12: a.typedData("Vote", map[string]any{
		"space":                v.Space,
		"voter":                v.Voter,
		"proposalId":           proposal,
		"choice":               uint8(v.Choice),
		"userVotingStrategies": strategies,
		"metadataUri":          anyFelts(codec.SplitLongString(v.MetadataURI)),
	})}, nil
}

// UpdateProposalMessage builds the UpdateProposal message the author account signs.
func (a *starkSig) UpdateProposalMessage(u governance.UpdateProposal) (Message, error) {
	salt, err := a.salts.Salt()
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	proposal, err := snip12U256(u.Proposal)
	if err != nil {
		return Message{}, err
	}
	exec, err := snip12Strategy(u.ExecutionStrategy)
	if err != nil {
		return Message{}, err
	}

	return Message{SNIP12: a.typedData("UpdateProposal", map[string]any{
		"space":             u.Space,
		"author":            u.Author,
		"proposalId":        proposal,
		"executionStrategy": exec,
		"metadataUri":       anyFelts(codec.SplitLongString(u.MetadataURI)),
		"salt":              salt,
	})}, nil
}

func snip12Strategy(s governance.Strategy) (map[string]any, error) {
	params, err := feltItems(s.Params)
	if err != nil {
		return nil, fmt.Errorf("execution strategy params: %w", err)
	}

	return map[string]any{"address": s.Address, "params": params}, nil
}

func snip12U256(v *big.Int) (map[string]any, error) {
	low, high, err := codec.SplitU256Big(proposalID(v))
	if err != nil {
		return nil, err
	}

	return map[string]any{"low": low, "high": high}, nil
}

func feltItems(b []byte) ([]any, error) {
	felts, err := codec.BytesToFelts(b)
	if err != nil {
		return nil, err
	}

	return anyFelts(felts), nil
}

func anyFelts(felts []*felt.Felt) []any {
	out := make([]any, len(felts))
	for i, f := range felts {
		out[i] = f
	}

	return out
}

// starknetEthSig verifies an EIP-712 signature of an Ethereum address acting on Starknet. The
// domain binds the L1 chain; the message binds the Starknet chain and authenticator.
type starknetEthSig struct {
	base
	relaying
	signatureOnlyCancel
	chainID   string
	l1ChainID *big.Int
	salts     SaltGenerator
}

func (a *starknetEthSig) Type() Type { return TypeSignature }

func (a *starknetEthSig) CreateProposeCall(env governance.Envelope[governance.Propose], args ProposeArgs) (Call, error) {
	return a.call(starknet.SelectorAuthenticatePropose, env.SignatureData, starknetProposeArgs(env.Data, args), true)
}

func (a *starknetEthSig) CreateVoteCall(env governance.Envelope[governance.Vote], args VoteArgs) (Call, error) {
	return a.call(starknet.SelectorAuthenticateVote, env.SignatureData, starknetVoteArgs(env.Data, args), false)
}

func (a *starknetEthSig) CreateUpdateProposalCall(env governance.Envelope[governance.UpdateProposal]) (Call, error) {
	return a.call(starknet.SelectorAuthenticateUpdateProposal, env.SignatureData, starknetUpdateProposalArgs(env.Data), true)
}

func (a *starknetEthSig) call(selector *felt.Felt, sd *governance.SignatureData, args *calldata, salted bool) (Call, error) {
	if err := requireSignature(a.address, sd); err != nil {
		return Call{}, err
	}
	sig, err := parseECDSASignature(sd)
	if err != nil {
		return Call{}, err
	}

	c := (&calldata{}).
		u256("r", new(big.Int).SetBytes(sig.R[:])).
		u256("s", new(big.Int).SetBytes(sig.S[:])).
		uint(uint64(sig.V)).
		concat(args)
	if salted {
		salt, err := messageSalt(sd)
		if err != nil {
			return Call{}, err
		}
		c.u256("salt", salt)
	}
	felts, err := c.result()
	if err != nil {
		return Call{}, err
	}

	return starknetCall(a.address, selector, felts), nil
}

var starknetEthSigStrategyTypes = apitypes.Types{
	"Strategy": {
		{Name: "address", Type: "uint256"},
		{Name: "params", Type: "uint256[]"},
	},
	"IndexedStrategy": {
		{Name: "index", Type: "uint256"},
		{Name: "params", Type: "uint256[]"},
	},
}

func (a *starknetEthSig) typedData(primary string, fields []apitypes.Type, message apitypes.TypedDataMessage) (*apitypes.TypedData, error) {
	if a.l1ChainID == nil {
		return nil, fmt.Errorf("no L1 chain id known for %s", a.chainID)
	}
	chainID, err := codec.EncodeShortString(a.chainID)
	if err != nil {
		return nil, err
	}
	authenticator, err := codec.FeltFromHex(a.address)
	if err != nil {
		return nil, err
	}
	message["chainId"] = codec.FeltToBig(chainID)
	message["authenticator"] = codec.FeltToBig(authenticator)

	head := []apitypes.Type{
		{Name: "chainId", Type: "uint256"},
		{Name: "authenticator", Type: "uint256"},
	}
	types := apitypes.Types{
		codec.EIP712DomainPrimaryKey: codec.L1DomainForStarknetTypes(),
		primary:                      append(head, fields...),
	}
	for name, t := range starknetEthSigStrategyTypes {
		types[name] = t
	}

	return &apitypes.TypedData{
		Types:       types,
		PrimaryType: primary,
		Domain:      codec.L1DomainForStarknet(a.l1ChainID),
		Message:     message,
	}, nil
}

// ProposeMessage builds the Propose message the author signs on L1.
func (a *starknetEthSig) ProposeMessage(p governance.Propose, args ProposeArgs) (Message, error) {
	salt, err := a.salts.Salt()
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	space, err := codec.ParseBig(p.Space)
	if err != nil {
		return Message{}, fmt.Errorf("space: %w", err)
	}
	exec, err := uint256Strategy(p.ExecutionStrategy)
	if err != nil {
		return Message{}, err
	}
	validation, err := uint256Items(args.ValidationParams)
	if err != nil {
		return Message{}, fmt.Errorf("validation params: %w", err)
	}

	td, err := a.typedData("Propose", []apitypes.Type{
		{Name: "space", Type: "uint256"},
		{Name: "author", Type: "address"},
		{Name: "metadataUri", Type: "uint256[]"},
		{Name: "executionStrategy", Type: "Strategy"},
		{Name: "userProposalValidationParams", Type: "uint256[]"},
		{Name: "salt", Type: "uint256"},
	}, apitypes.TypedDataMessage{
		"space":                        space,
		"author":                       p.Author,
		"metadataUri":                  anyBigs(codec.BigFromFelts(codec.SplitLongString(p.MetadataURI))),
		"executionStrategy":            exec,
		"userProposalValidationParams": validation,
		"salt":                         salt,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{EIP712: td}, nil
}

// VoteMessage builds the Vote message the voter signs on L1.
func (a *starknetEthSig) VoteMessage(v governance.Vote, args VoteArgs) (Message, error) {
	space, err := codec.ParseBig(v.Space)
	if err != nil {
		return Message{}, fmt.Errorf("space: %w", err)
	}
	strategies := make([]any, len(args.Strategies))
	for i, s := range args.Strategies {
		params, err := uint256Items(s.Params)
		if err != nil {
			return Message{}, fmt.Errorf("strategy %d params: %w", s.Index, err)
		}
		strategies[i] = map[string]any{"index": big.NewInt(int64(s.Index)), "params": params}
	}

	td, err := a.typedData("Vote", []apitypes.Type{
		{Name: "space", Type: "uint256"},
		{Name: "voter", Type: "address"},
		{Name: "proposalId", Type: "uint256"},
		{Name: "choice", Type: "uint256"},
		{Name: "userVotingStrategies", Type: "IndexedStrategy[]"},
		{Name: "metadataUri", Type: "uint256[]"},
	}, apitypes.TypedDataMessage{
		"space":                space,
		"voter":                v.Voter,
		"proposalId":           proposalID(v.Proposal),
		"choice":               big.NewInt(int64(v.Choice)),
		"userVotingStrategies": strategies,
		"metadataUri":          anyBigs(codec.BigFromFelts(codec.SplitLongString(v.MetadataURI))),
	})
	if err != nil {
		return Message{}, err
	}

	return Message{EIP712: td}, nil
}

// UpdateProposalMessage builds the UpdateProposal message the author signs on L1.
func (a *starknetEthSig) UpdateProposalMessage(u governance.UpdateProposal) (Message, error) {
	salt, err := a.salts.Salt()
	if err != nil {
		return Message{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	space, err := codec.ParseBig(u.Space)
	if err != nil {
		return Message{}, fmt.Errorf("space: %w", err)
	}
	exec, err := uint256Strategy(u.ExecutionStrategy)
	if err != nil {
		return Message{}, err
	}

	td, err := a.typedData("UpdateProposal", []apitypes.Type{
		{Name: "space", Type: "uint256"},
		{Name: "author", Type: "address"},
		{Name: "proposalId", Type: "uint256"},
		{Name: "executionStrategy", Type: "Strategy"},
		{Name: "metadataUri", Type: "uint256[]"},
		{Name: "salt", Type: "uint256"},
	}, apitypes.TypedDataMessage{
		"space":             space,
		"author":            u.Author,
		"proposalId":        proposalID(u.Proposal),
		"executionStrategy": exec,
		"metadataUri":       anyBigs(codec.BigFromFelts(codec.SplitLongString(u.MetadataURI))),
		"salt":              salt,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{EIP712: td}, nil
}

func uint256Strategy(s governance.Strategy) (map[string]any, error) {
	addr, err := codec.ParseBig(s.Address)
	if err != nil {
		return nil, fmt.Errorf("execution strategy: %w", err)
	}
	params, err := uint256Items(s.Params)
	if err != nil {
		return nil, fmt.Errorf("execution strategy params: %w", err)
	}

	return map[string]any{"address": addr, "params": params}, nil
}

func uint256Items(b []byte) ([]any, error) {
	felts, err := codec.BytesToFelts(b)
	if err != nil {
		return nil, err
	}

	return anyBigs(codec.BigFromFelts(felts)), nil
}

func anyBigs(values []*big.Int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
