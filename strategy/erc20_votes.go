package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

var selectorGetVotingPower = starknet.GetSelectorFromName("get_voting_power")

// erc20Votes reads the voting power from the strategy contract's get_voting_power view.
type erc20Votes struct {
	client starknet.Reader
	now    func() time.Time
}

func (s *erc20Votes) Kind() network.StrategyKind { return network.StrategyERC20Votes }

func (s *erc20Votes) GetParams(context.Context, governance.Call, governance.StrategyConfig, string, *governance.StrategyMetadata, governance.ActionData) ([]byte, error) {
	return emptyParams(), nil
}

func (s *erc20Votes) GetVotingPower(
	ctx context.Context,
	strategyAddress string,
	voter string,
	_ *governance.StrategyMetadata,
	at *governance.Snapshot,
	params string,
) (*uint256.Int, error) {
	if s.client == nil {
		return nil, errors.New("no starknet client configured")
	}

	timestamp := uint64(s.now().Unix())
	if at != nil && at.Timestamp != nil {
		timestamp = *at.Timestamp
	}

	contract, err := codec.FeltFromHex(strategyAddress)
	if err != nil {
		return nil, fmt.Errorf("strategy address: %w", err)
	}
	user, err := userAddress(voter)
	if err != nil {
		return nil, err
	}
	strategyParams, err := parseFelts(params)
	if err != nil {
		return nil, err
	}

	calldata := []*felt.Felt{codec.FeltFromUint64(timestamp)}
	calldata = append(calldata, user...)
	calldata = append(calldata, codec.FeltFromUint64(uint64(len(strategyParams))))
	calldata = append(calldata, strategyParams...)
	calldata = append(calldata, codec.FeltFromUint64(0))

	res, err := s.client.Call(ctx, starknet.FunctionCall{
		ContractAddress:    contract,
		EntryPointSelector: selectorGetVotingPower,
		Calldata:           calldata,
	}, starknet.Latest)
	if err != nil {
		return nil, fmt.Errorf("get_voting_power on %s: %w", strategyAddress, err)
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("get_voting_power on %s returned %d values, want 2", strategyAddress, len(res))
	}

	return codec.JoinU256(res[0], res[1])
}
