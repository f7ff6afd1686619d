package governance

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Call identifies the authenticated action a strategy is asked to authorise.
type Call string

const (
	CallPropose Call = "propose"
	CallVote    Call = "vote"
)

// Choice is a vote choice as understood by the space contracts.
type Choice uint8

const (
	ChoiceAgainst Choice = 0
	ChoiceFor     Choice = 1
	ChoiceAbstain Choice = 2
)

// StrategyMetadata is the display and evaluation metadata attached to a configured strategy.
type StrategyMetadata struct {
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Symbol   string  `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Decimals int     `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Token    *string `json:"token,omitempty" yaml:"token,omitempty"`
	ChainID  *string `json:"chainId,omitempty" yaml:"chain_id,omitempty"`
	SwapLink *string `json:"swapLink,omitempty" yaml:"swap_link,omitempty"`
	// Payload is either an inline JSON document or a URI (ipfs:// or https://) pointing at one.
	Payload string `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// StrategyConfig is one entry of a space's (or proposal's) strategy list.
type StrategyConfig struct {
	Address string `json:"address" yaml:"address"`
	// Index is the position of the strategy in the space's list. It must be the same when the
	// proposal is created and when it is voted on.
	Index int `json:"index" yaml:"index"`
	// Params is opaque to the resolver: comma separated felts on Starknet, 0x hex bytes on EVM.
	Params   string            `json:"params" yaml:"params"`
	Metadata *StrategyMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ParamsList splits comma separated strategy params, dropping empty entries.
func (c StrategyConfig) ParamsList() []string {
	parts := strings.Split(c.Params, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Snapshot is the single point in time every strategy of an action is evaluated at. A nil
// *Snapshot means "live".
type Snapshot struct {
	// Timestamp is used by Starknet strategies (proposal start timestamp on L2).
	Timestamp *uint64 `json:"timestamp,omitempty"`
	// BlockNumber is used by EVM strategies (proposal snapshot block).
	BlockNumber *uint64 `json:"blockNumber,omitempty"`
}

// AtTimestamp returns a snapshot pinned to a timestamp.
func AtTimestamp(ts uint64) *Snapshot { return &Snapshot{Timestamp: &ts} }

// AtBlock returns a snapshot pinned to a block number.
func AtBlock(block uint64) *Snapshot { return &Snapshot{BlockNumber: &block} }

// Strategy is a contract address with the params it is invoked with.
type Strategy struct {
	Address string `json:"address"`
	Params  []byte `json:"params"`
}

// IndexedStrategy references a space strategy by index with the user supplied params.
type IndexedStrategy struct {
	Index  int    `json:"index"`
	Params []byte `json:"params"`
}

// MetaTransaction is a single transaction carried by an execution payload.
type MetaTransaction struct {
	To        string   `json:"to"`
	Value     *big.Int `json:"value"`
	Data      []byte   `json:"data"`
	Operation uint8    `json:"operation"`
	Salt      *big.Int `json:"salt"`
}

// Propose is the semantic payload of a proposal creation.
type Propose struct {
	Space             string            `json:"space"`
	Author            string            `json:"author"`
	MetadataURI       string            `json:"metadataUri"`
	ExecutionStrategy Strategy          `json:"executionStrategy"`
	Strategies        []StrategyConfig  `json:"strategies"`
	ValidationParams  []byte            `json:"userProposalValidationParams,omitempty"`
	Transactions      []MetaTransaction `json:"transactions,omitempty"`
}

// UpdateProposal is the semantic payload of a proposal update.
type UpdateProposal struct {
	Space             string   `json:"space"`
	Author            string   `json:"author"`
	Proposal          *big.Int `json:"proposal"`
	MetadataURI       string   `json:"metadataUri"`
	ExecutionStrategy Strategy `json:"executionStrategy"`
}

// Vote is the semantic payload of a vote.
type Vote struct {
	Space       string           `json:"space"`
	Voter       string           `json:"voter"`
	Proposal    *big.Int         `json:"proposal"`
	Choice      Choice           `json:"choice"`
	MetadataURI string           `json:"metadataUri"`
	Strategies  []StrategyConfig `json:"strategies"`
	// Snapshot is the proposal snapshot every voting strategy must be evaluated at.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Cancel is the semantic payload of a proposal cancellation.
type Cancel struct {
	Space    string   `json:"space"`
	Proposal *big.Int `json:"proposal"`
}

// Action is the set of semantic payloads an envelope can carry.
type Action interface {
	Propose | Vote | UpdateProposal | Cancel
}

// SignatureData carries the authorisation of signature-based and relayed flows.
type SignatureData struct {
	Address     string         `json:"address"`
	Signature   []string       `json:"signature,omitempty"`
	Domain      map[string]any `json:"domain,omitempty"`
	Types       map[string]any `json:"types,omitempty"`
	PrimaryType string         `json:"primaryType,omitempty"`
	Message     map[string]any `json:"message,omitempty"`
	CommitTxID  string         `json:"commitTxId,omitempty"`
	CommitHash  string         `json:"commitHash,omitempty"`
}

// Envelope is an action payload plus its optional authorisation wrapper.
type Envelope[T Action] struct {
	Data          T              `json:"data"`
	SignatureData *SignatureData `json:"signatureData,omitempty"`
}

// ActionData is the action a strategy is asked to produce params for. Exactly one of the
// fields is set, matching the Call.
type ActionData struct {
	Propose *Propose
	Vote    *Vote
}

// VotingPowerResult is the voting power a single strategy grants a voter.
type VotingPowerResult struct {
	StrategyAddress string       `json:"address"`
	Value           *uint256.Int `json:"value"`
	Decimals        int          `json:"decimals"`
	Symbol          string       `json:"symbol"`
	Token           *string      `json:"token"`
	ChainID         *string      `json:"chainId,omitempty"`
	SwapLink        *string      `json:"swapLink,omitempty"`
}
