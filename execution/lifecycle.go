package execution

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

var errNoProposalID = errors.New("proposal id is required")

// Call is an EVM transaction to an executor.
type Call struct {
	To   string
	Data []byte
}

// QueueCall builds the transaction that queues a passed proposal on a governor. OZGovernor
// identifies the proposal by its actions and description; GovernorBravo by its id.
func QueueCall(kind network.ExecutorKind, governor string, proposalID *big.Int, in Input) (Call, error) {
	return governorCall("queue", kind, governor, proposalID, in)
}

// ExecuteCall builds the transaction that executes a queued proposal on a governor.
func ExecuteCall(kind network.ExecutorKind, governor string, proposalID *big.Int, in Input) (Call, error) {
	return governorCall("execute", kind, governor, proposalID, in)
}

func governorCall(method string, kind network.ExecutorKind, governor string, proposalID *big.Int, in Input) (Call, error) {
	if !common.IsHexAddress(governor) {
		return Call{}, fmt.Errorf("governor %q is not an EVM address", governor)
	}

	var (
		data []byte
		err  error
	)
	switch kind {
	case network.ExecutorOZGovernor:
		if len(in.Transactions) == 0 {
			return Call{}, &governance.InsufficientExecutionDataError{Kind: string(kind)}
		}
		args, serr := splitTransactions(in.Transactions)
		if serr != nil {
			return Call{}, serr
		}
		data, err = evm.OZGovernorABI.Pack(method, args.targets, args.values, args.calldatas, DescriptionHash(in.Description))
	case network.ExecutorGovernorBravo:
		if proposalID == nil {
			return Call{}, errNoProposalID
		}
		data, err = evm.GovernorBravoABI.Pack(method, proposalID)
	default:
		return Call{}, fmt.Errorf("executor kind %q has no %s step", kind, method)
	}
	if err != nil {
		return Call{}, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	return Call{To: governor, Data: data}, nil
}

// ExecuteQueuedProposalCall builds the transaction that executes a proposal a timelock executor
// queued when the proposal was executed on the space.
func ExecuteQueuedProposalCall(kind network.ExecutorKind, executor string, in Input) (Call, error) {
	switch kind {
	case network.ExecutorSimpleQuorumTimelock, network.ExecutorOptimisticQuorumTimelock:
	default:
		return Call{}, fmt.Errorf("executor kind %q does not queue proposals", kind)
	}
	if !common.IsHexAddress(executor) {
		return Call{}, fmt.Errorf("executor %q is not an EVM address", executor)
	}
	if len(in.Transactions) == 0 {
		return Call{}, &governance.InsufficientExecutionDataError{Kind: string(kind)}
	}

	payload, err := EncodeTransactions(in.Transactions)
	if err != nil {
		return Call{}, err
	}
	data, err := evm.TimelockExecutorABI.Pack("executeQueuedProposal", payload)
	if err != nil {
		return Call{}, fmt.Errorf("failed to encode executeQueuedProposal: %w", err)
	}

	return Call{To: executor, Data: data}, nil
}
