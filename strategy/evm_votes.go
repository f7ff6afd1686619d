package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

// evmVotes reads delegated votes from a Comp or OpenZeppelin votes token whose address is the
// strategy params.
type evmVotes struct {
	kind          network.StrategyKind
	client        evm.OnchainClient
	abi           abi.ABI
	pastMethod    string
	currentMethod string
}

func (s *evmVotes) Kind() network.StrategyKind { return s.kind }

func (s *evmVotes) GetParams(context.Context, governance.Call, governance.StrategyConfig, string, *governance.StrategyMetadata, governance.ActionData) ([]byte, error) {
	return emptyParams(), nil
}

func (s *evmVotes) GetVotingPower(
	ctx context.Context,
	_ string,
	voter string,
	_ *governance.StrategyMetadata,
	at *governance.Snapshot,
	params string,
) (*uint256.Int, error) {
	if s.client == nil {
		return nil, errors.New("no EVM client configured")
	}
	token, err := tokenAddress(params)
	if err != nil {
		return nil, err
	}
	if !isEVMAddress(voter) {
		return nil, fmt.Errorf("voter %s is not an EVM address", voter)
	}
	account := common.HexToAddress(voter)

	method, args := s.currentMethod, []any{account}
	if at != nil && at.BlockNumber != nil {
		method, args = s.pastMethod, []any{account, new(big.Int).SetUint64(*at.BlockNumber)}
	}
	data, err := evm.PackArgs(s.abi, method, args...)
	if err != nil {
		return nil, err
	}

	out, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", method, token.Hex(), err)
	}
	values, err := s.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values, want 1", method, len(values))
	}
	votes, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T", method, values[0])
	}
	power, overflow := uint256.FromBig(votes)
	if overflow {
		return nil, fmt.Errorf("%s returned %s which does not fit 256 bits", method, votes)
	}

	return power, nil
}

// tokenAddress decodes the token address from params, either the raw 20 bytes or an abi encoded
// address word.
func tokenAddress(params string) (common.Address, error) {
	b, err := codec.DecodeHex(params)
	if err != nil {
		return common.Address{}, fmt.Errorf("token address params: %w", err)
	}
	switch len(b) {
	case common.AddressLength, common.HashLength:
		return common.BytesToAddress(b), nil
	default:
		return common.Address{}, fmt.Errorf("token address params: expected 20 or 32 bytes, got %d", len(b))
	}
}
