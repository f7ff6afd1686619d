// Package execution encodes the payload an execution strategy consumes when a passed proposal
// is executed.
package execution

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Input is what the caller knows about the proposal's execution.
type Input struct {
	Transactions []governance.MetaTransaction `json:"transactions"`
	// Destination is the L1 execution strategy an EthRelayer forwards to.
	Destination string `json:"destination,omitempty"`
	// Description is hashed into governor proposal ids.
	Description string `json:"description,omitempty"`
}

// Data is the execution strategy params of a proposal.
type Data struct {
	ExecutionParams [][]byte `json:"executionParams"`
}

// Resolver encodes execution payloads for the executors of one network.
type Resolver struct {
	network network.Network
	lggr    logger.Logger
}

// NewResolver returns a resolver for net.
func NewResolver(lggr logger.Logger, net network.Network) *Resolver {
	return &Resolver{network: net, lggr: lggr.Named("execution")}
}

// KindOf returns the executor kind implemented at address. Unknown addresses report false.
func (r *Resolver) KindOf(address string) (network.ExecutorKind, bool) {
	return r.network.ExecutorKind(address)
}

// GetExecutionDataFor looks the executor kind up by address and encodes in for it. An address
// with no known implementation is encoded like an unknown kind.
func (r *Resolver) GetExecutionDataFor(executorAddress string, in Input) (Data, error) {
	kind, _ := r.KindOf(executorAddress)

	return r.GetExecutionData(kind, executorAddress, in)
}

// GetExecutionData encodes in for an executor of the given kind. When the kind's required
// input is missing, the avatar encoding is used as long as transactions are present;
// otherwise the call fails with an *governance.InsufficientExecutionDataError.
func (r *Resolver) GetExecutionData(kind network.ExecutorKind, executorAddress string, in Input) (Data, error) {
	hasTxs := len(in.Transactions) > 0

	switch kind {
	case network.ExecutorNoExecution:
		return Data{ExecutionParams: [][]byte{}}, nil
	case network.ExecutorSimpleQuorumAvatar,
		network.ExecutorSimpleQuorumTimelock,
		network.ExecutorOptimisticQuorumTimelock,
		network.ExecutorAxiom:
		if hasTxs {
			return avatarData(in.Transactions)
		}
	case network.ExecutorEthRelayer:
		if hasTxs && in.Destination != "" {
			return ethRelayerData(in.Transactions, in.Destination)
		}
	case network.ExecutorOZGovernor:
		if hasTxs {
			return ozGovernorData(in.Transactions, in.Description)
		}
	case network.ExecutorGovernorBravo:
		if hasTxs {
			return governorBravoData(in.Transactions)
		}
	}

	if !hasTxs {
		return Data{}, &governance.InsufficientExecutionDataError{Kind: string(kind)}
	}

	r.lggr.Warnw("Falling back to avatar execution payload", "kind", kind, "executor", executorAddress)

	return avatarData(in.Transactions)
}

func metaTransactionTuples(txs []governance.MetaTransaction) ([]evm.MetaTransactionTuple, error) {
	out := make([]evm.MetaTransactionTuple, len(txs))
	for i, tx := range txs {
		if !common.IsHexAddress(tx.To) {
			return nil, fmt.Errorf("transaction %d: %q is not an EVM address", i, tx.To)
		}
		out[i] = evm.MetaTransactionTuple{
			To:        common.HexToAddress(tx.To),
			Value:     orZero(tx.Value),
			Data:      orEmpty(tx.Data),
			Operation: tx.Operation,
			Salt:      orZero(tx.Salt),
		}
	}

	return out, nil
}

// EncodeTransactions returns abi.encode(MetaTransaction[]).
func EncodeTransactions(txs []governance.MetaTransaction) ([]byte, error) {
	tuples, err := metaTransactionTuples(txs)
	if err != nil {
		return nil, err
	}
	payload, err := evm.MetaTransactionsArgs.Pack(tuples)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transactions: %w", err)
	}

	return payload, nil
}

func avatarData(txs []governance.MetaTransaction) (Data, error) {
	payload, err := EncodeTransactions(txs)
	if err != nil {
		return Data{}, err
	}

	return Data{ExecutionParams: [][]byte{payload}}, nil
}

// ethRelayerData forwards execution to L1: the destination plus the keccak of the payload split
// into 128-bit felts.
func ethRelayerData(txs []governance.MetaTransaction, destination string) (Data, error) {
	payload, err := EncodeTransactions(txs)
	if err != nil {
		return Data{}, err
	}
	dest, err := codec.FeltFromHex(destination)
	if err != nil {
		return Data{}, fmt.Errorf("destination: %w", err)
	}
	hash := new(big.Int).SetBytes(crypto.Keccak256(payload))
	low, high, err := codec.SplitU256Big(hash)
	if err != nil {
		return Data{}, err
	}

	destBytes, lowBytes, highBytes := dest.Bytes(), low.Bytes(), high.Bytes()

	return Data{ExecutionParams: [][]byte{destBytes[:], lowBytes[:], highBytes[:]}}, nil
}

type governorArgs struct {
	targets   []common.Address
	values    []*big.Int
	calldatas [][]byte
}

func splitTransactions(txs []governance.MetaTransaction) (governorArgs, error) {
	tuples, err := metaTransactionTuples(txs)
	if err != nil {
		return governorArgs{}, err
	}
	for i, tx := range tuples {
		if tx.Operation != 0 {
			return governorArgs{}, fmt.Errorf("transaction %d: governors only execute calls, got operation %d", i, tx.Operation)
		}
	}

	return governorArgs{
		targets:   lo.Map(tuples, func(tx evm.MetaTransactionTuple, _ int) common.Address { return tx.To }),
		values:    lo.Map(tuples, func(tx evm.MetaTransactionTuple, _ int) *big.Int { return tx.Value }),
		calldatas: lo.Map(tuples, func(tx evm.MetaTransactionTuple, _ int) []byte { return tx.Data }),
	}, nil
}

// DescriptionHash is keccak256 of the proposal description, as governors hash it into the
// proposal id.
func DescriptionHash(description string) [32]byte {
	return crypto.Keccak256Hash([]byte(description))
}

func ozGovernorData(txs []governance.MetaTransaction, description string) (Data, error) {
	args, err := splitTransactions(txs)
	if err != nil {
		return Data{}, err
	}
	payload, err := evm.OZGovernorPayloadArgs.Pack(args.targets, args.values, args.calldatas, DescriptionHash(description))
	if err != nil {
		return Data{}, fmt.Errorf("failed to encode governor payload: %w", err)
	}

	return Data{ExecutionParams: [][]byte{payload}}, nil
}

func governorBravoData(txs []governance.MetaTransaction) (Data, error) {
	args, err := splitTransactions(txs)
	if err != nil {
		return Data{}, err
	}
	// Calldata already carries the selector, so signatures stay empty.
	signatures := make([]string, len(args.targets))
	payload, err := evm.GovernorBravoPayloadArgs.Pack(args.targets, args.values, signatures, args.calldatas)
	if err != nil {
		return Data{}, fmt.Errorf("failed to encode governor payload: %w", err)
	}

	return Data{ExecutionParams: [][]byte{payload}}, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}

	return v
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}

	return b
}
