package strategy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

// whitelist reads the voting power of the voter from the abi encoded member list carried in the
// strategy params.
type whitelist struct{}

func (*whitelist) Kind() network.StrategyKind { return network.StrategyWhitelist }

func (*whitelist) GetParams(context.Context, governance.Call, governance.StrategyConfig, string, *governance.StrategyMetadata, governance.ActionData) ([]byte, error) {
	return emptyParams(), nil
}

func (*whitelist) GetVotingPower(
	_ context.Context,
	_ string,
	voter string,
	_ *governance.StrategyMetadata,
	_ *governance.Snapshot,
	params string,
) (*uint256.Int, error) {
	members, err := DecodeWhitelistParams(params)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(voter) {
		return new(uint256.Int), nil
	}
	account := common.HexToAddress(voter)
	for _, m := range members {
		if m.Addr != account {
			continue
		}
		power, overflow := uint256.FromBig(m.Vp)
		if overflow {
			return nil, fmt.Errorf("voting power of %s does not fit 256 bits", voter)
		}

		return power, nil
	}

	return new(uint256.Int), nil
}

// EncodeWhitelistParams abi encodes a member list as the params of a Whitelist strategy.
func EncodeWhitelistParams(members []evm.MemberTuple) (string, error) {
	b, err := evm.WhitelistMembersArgs.Pack(members)
	if err != nil {
		return "", fmt.Errorf("failed to encode whitelist: %w", err)
	}

	return hexutil.Encode(b), nil
}

// DecodeWhitelistParams decodes the member list of a Whitelist strategy.
func DecodeWhitelistParams(params string) ([]evm.MemberTuple, error) {
	b, err := codec.DecodeHex(params)
	if err != nil {
		return nil, fmt.Errorf("whitelist params: %w", err)
	}
	values, err := evm.WhitelistMembersArgs.Unpack(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode whitelist: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("whitelist params decoded to %d values, want 1", len(values))
	}

	return *abi.ConvertType(values[0], new([]evm.MemberTuple)).(*[]evm.MemberTuple), nil
}
