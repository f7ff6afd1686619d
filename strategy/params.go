package strategy

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// parseFelts parses comma separated felt params.
func parseFelts(params string) ([]*felt.Felt, error) {
	list := governance.StrategyConfig{Params: params}.ParamsList()
	out := make([]*felt.Felt, len(list))
	for i, p := range list {
		f, err := codec.FeltFromHex(p)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		out[i] = f
	}

	return out, nil
}

// userAddress encodes voter as a Starknet UserAddress enum: [variant, address]. 20-byte
// addresses are Ethereum addresses, anything else a Starknet address.
func userAddress(voter string) ([]*felt.Felt, error) {
	addr, err := codec.FeltFromHex(voter)
	if err != nil {
		return nil, fmt.Errorf("voter %s: %w", voter, err)
	}
	variant := uint64(0)
	if isEVMAddress(voter) {
		variant = 1
	}

	return []*felt.Felt{codec.FeltFromUint64(variant), addr}, nil
}

func isEVMAddress(address string) bool {
	return len(address) == 42 && common.IsHexAddress(address)
}

// slotParams are the params of storage-proof strategies: the L1 token contract and the
// storage slot of its balances or checkpoints mapping.
type slotParams struct {
	contract string
	slot     *big.Int
}

func parseSlotParams(params string) (slotParams, error) {
	list := governance.StrategyConfig{Params: params}.ParamsList()
	if len(list) != 2 {
		return slotParams{}, fmt.Errorf("expected contract address and slot index params, got %d values", len(list))
	}
	slot, err := codec.ParseBig(list[1])
	if err != nil {
		return slotParams{}, fmt.Errorf("slot index: %w", err)
	}

	return slotParams{contract: list[0], slot: slot}, nil
}
