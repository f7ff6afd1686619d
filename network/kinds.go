package network

import (
	"slices"

	chain_selectors "github.com/smartcontractkit/chain-selectors"
)

// StrategyKind identifies a voting or proposal validation strategy implementation.
type StrategyKind string

const (
	StrategyVanilla                     StrategyKind = "Vanilla"
	StrategyMerkleWhitelist             StrategyKind = "MerkleWhitelist"
	StrategyERC20Votes                  StrategyKind = "ERC20Votes"
	StrategyEVMSlotValue                StrategyKind = "EVMSlotValue"
	StrategyOZVotesStorageProofTrace224 StrategyKind = "OZVotesStorageProofTrace224"
	StrategyOZVotesStorageProofTrace208 StrategyKind = "OZVotesStorageProofTrace208"
	StrategyComp                        StrategyKind = "Comp"
	StrategyOZVotes                     StrategyKind = "OZVotes"
	StrategyWhitelist                   StrategyKind = "Whitelist"
)

var strategyKindsByFamily = map[string][]StrategyKind{
	chain_selectors.FamilyEVM: {
		StrategyVanilla,
		StrategyComp,
		StrategyOZVotes,
		StrategyWhitelist,
	},
	chain_selectors.FamilyStarknet: {
		StrategyVanilla,
		StrategyMerkleWhitelist,
		StrategyERC20Votes,
		StrategyEVMSlotValue,
		StrategyOZVotesStorageProofTrace224,
		StrategyOZVotesStorageProofTrace208,
	},
}

// SupportedOn reports whether the strategy kind exists on the chain family.
func (k StrategyKind) SupportedOn(family string) bool {
	return slices.Contains(strategyKindsByFamily[family], k)
}

// AuthenticatorKind identifies an authenticator implementation.
type AuthenticatorKind string

const (
	AuthenticatorEthTx    AuthenticatorKind = "EthTx"
	AuthenticatorEthSig   AuthenticatorKind = "EthSig"
	AuthenticatorEthSigV2 AuthenticatorKind = "EthSigV2"
	AuthenticatorStarkTx  AuthenticatorKind = "StarkTx"
	AuthenticatorStarkSig AuthenticatorKind = "StarkSig"
)

var authenticatorKindsByFamily = map[string][]AuthenticatorKind{
	chain_selectors.FamilyEVM: {
		AuthenticatorEthTx,
		AuthenticatorEthSig,
		AuthenticatorEthSigV2,
	},
	chain_selectors.FamilyStarknet: {
		AuthenticatorStarkTx,
		AuthenticatorStarkSig,
		AuthenticatorEthSig,
		AuthenticatorEthTx,
	},
}

// SupportedOn reports whether the authenticator kind exists on the chain family.
func (k AuthenticatorKind) SupportedOn(family string) bool {
	return slices.Contains(authenticatorKindsByFamily[family], k)
}

// ExecutorKind identifies an execution strategy implementation.
type ExecutorKind string

const (
	ExecutorSimpleQuorumAvatar       ExecutorKind = "SimpleQuorumAvatar"
	ExecutorSimpleQuorumTimelock     ExecutorKind = "SimpleQuorumTimelock"
	ExecutorOptimisticQuorumTimelock ExecutorKind = "OptimisticQuorumTimelock"
	ExecutorAxiom                    ExecutorKind = "Axiom"
	ExecutorEthRelayer               ExecutorKind = "EthRelayer"
	ExecutorOZGovernor               ExecutorKind = "OZGovernor"
	ExecutorGovernorBravo            ExecutorKind = "GovernorBravo"
	ExecutorNoExecution              ExecutorKind = "NoExecution"
)

// ExecutorKinds lists every known executor kind.
var ExecutorKinds = []ExecutorKind{
	ExecutorSimpleQuorumAvatar,
	ExecutorSimpleQuorumTimelock,
	ExecutorOptimisticQuorumTimelock,
	ExecutorAxiom,
	ExecutorEthRelayer,
	ExecutorOZGovernor,
	ExecutorGovernorBravo,
	ExecutorNoExecution,
}

// Known reports whether k is one of ExecutorKinds.
func (k ExecutorKind) Known() bool {
	return slices.Contains(ExecutorKinds, k)
}
