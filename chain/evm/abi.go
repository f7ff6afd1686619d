package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract ABIs used to encode calls and decode views. Only the entries the governance client
// touches are listed.
var (
	SpaceABI = mustParseABI(`[
		{"type":"function","name":"propose","inputs":[
			{"name":"author","type":"address"},
			{"name":"metadataURI","type":"string"},
			{"name":"executionStrategy","type":"tuple","components":[{"name":"addr","type":"address"},{"name":"params","type":"bytes"}]},
			{"name":"userProposalValidationParams","type":"bytes"}],"outputs":[]},
		{"type":"function","name":"vote","inputs":[
			{"name":"voter","type":"address"},
			{"name":"proposalId","type":"uint256"},
			{"name":"choice","type":"uint8"},
			{"name":"userVotingStrategies","type":"tuple[]","components":[{"name":"index","type":"uint8"},{"name":"params","type":"bytes"}]},
			{"name":"metadataURI","type":"string"}],"outputs":[]},
		{"type":"function","name":"updateProposal","inputs":[
			{"name":"author","type":"address"},
			{"name":"proposalId","type":"uint256"},
			{"name":"executionStrategy","type":"tuple","components":[{"name":"addr","type":"address"},{"name":"params","type":"bytes"}]},
			{"name":"metadataURI","type":"string"}],"outputs":[]},
		{"type":"function","name":"cancel","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[]}
	]`)

	EthTxAuthenticatorABI = mustParseABI(`[
		{"type":"function","name":"authenticate","inputs":[
			{"name":"target","type":"address"},
			{"name":"functionSelector","type":"bytes4"},
			{"name":"data","type":"bytes"}],"outputs":[]}
	]`)

	EthSigAuthenticatorABI = mustParseABI(`[
		{"type":"function","name":"authenticate","inputs":[
			{"name":"v","type":"uint8"},
			{"name":"r","type":"bytes32"},
			{"name":"s","type":"bytes32"},
			{"name":"salt","type":"uint256"},
			{"name":"target","type":"address"},
			{"name":"functionSelector","type":"bytes4"},
			{"name":"data","type":"bytes"}],"outputs":[]}
	]`)

	CompABI = mustParseABI(`[
		{"type":"function","name":"getPriorVotes","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"blockNumber","type":"uint256"}],"outputs":[{"name":"","type":"uint96"}]},
		{"type":"function","name":"getCurrentVotes","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint96"}]}
	]`)

	OZVotesABI = mustParseABI(`[
		{"type":"function","name":"getPastVotes","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"timepoint","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"getVotes","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	OZGovernorABI = mustParseABI(`[
		{"type":"function","name":"queue","inputs":[
			{"name":"targets","type":"address[]"},
			{"name":"values","type":"uint256[]"},
			{"name":"calldatas","type":"bytes[]"},
			{"name":"descriptionHash","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"execute","stateMutability":"payable","inputs":[
			{"name":"targets","type":"address[]"},
			{"name":"values","type":"uint256[]"},
			{"name":"calldatas","type":"bytes[]"},
			{"name":"descriptionHash","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	GovernorBravoABI = mustParseABI(`[
		{"type":"function","name":"queue","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[]},
		{"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[]}
	]`)

	TimelockExecutorABI = mustParseABI(`[
		{"type":"function","name":"executeQueuedProposal","inputs":[{"name":"payload","type":"bytes"}],"outputs":[]}
	]`)
)

// Argument lists for abi.encode of execution payloads.
var (
	MetaTransactionsArgs = mustArguments(`[{"name":"transactions","type":"tuple[]","components":[
		{"name":"to","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"},
		{"name":"salt","type":"uint256"}]}]`)

	OZGovernorPayloadArgs = mustArguments(`[
		{"name":"targets","type":"address[]"},
		{"name":"values","type":"uint256[]"},
		{"name":"calldatas","type":"bytes[]"},
		{"name":"descriptionHash","type":"bytes32"}]`)

	GovernorBravoPayloadArgs = mustArguments(`[
		{"name":"targets","type":"address[]"},
		{"name":"values","type":"uint256[]"},
		{"name":"signatures","type":"string[]"},
		{"name":"calldatas","type":"bytes[]"}]`)

	IndexedStrategiesArgs = mustArguments(`[{"name":"strategies","type":"tuple[]","components":[
		{"name":"index","type":"uint8"},
		{"name":"params","type":"bytes"}]}]`)

	WhitelistMembersArgs = mustArguments(`[{"name":"members","type":"tuple[]","components":[
		{"name":"addr","type":"address"},
		{"name":"vp","type":"uint256"}]}]`)
)

// Selector returns the 4 byte selector of method in contract.
func Selector(contract abi.ABI, method string) ([4]byte, error) {
	m, ok := contract.Methods[method]
	if !ok {
		return [4]byte{}, fmt.Errorf("method %q not found in ABI", method)
	}

	var sel [4]byte
	copy(sel[:], m.ID)

	return sel, nil
}

// PackArgs returns the calldata of method without its 4 byte selector.
func PackArgs(contract abi.ABI, method string, args ...any) ([]byte, error) {
	m, ok := contract.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %q not found in ABI", method)
	}

	return m.Inputs.Pack(args...)
}

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}

	return parsed
}

// mustArguments parses a JSON argument list through a throwaway method definition.
func mustArguments(inputs string) abi.Arguments {
	parsed := mustParseABI(`[{"type":"function","name":"f","inputs":` + inputs + `,"outputs":[]}]`)

	return parsed.Methods["f"].Inputs
}
