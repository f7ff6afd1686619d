// Package storageproof derives EVM storage slot keys, fetches eth_getProof storage proofs from
// L1 and resolves the L1 block anchored to an L2 timestamp.
package storageproof

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

// traceCheckpointsOffset is the position of the _checkpoints array inside OpenZeppelin's
// Trace208 struct.
const traceCheckpointsOffset = 0

// pad32 left-pads a hex key (address or number) to a 32-byte word.
func pad32(key string) ([]byte, error) {
	v, err := codec.ParseBig(key)
	if err != nil {
		return nil, fmt.Errorf("slot key %q: %w", key, err)
	}
	if v.Sign() < 0 || v.BitLen() > 256 {
		return nil, fmt.Errorf("slot key %q does not fit in 32 bytes", key)
	}

	return math.U256Bytes(v), nil
}

// MappingSlotKey returns the storage key of mapping[key] for a mapping declared at slot:
// keccak256(pad32(key) ‖ pad32(slot)).
func MappingSlotKey(key string, slot *big.Int) (common.Hash, error) {
	k, err := pad32(key)
	if err != nil {
		return common.Hash{}, err
	}
	if slot == nil || slot.Sign() < 0 || slot.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("invalid slot index %v", slot)
	}

	return crypto.Keccak256Hash(k, math.U256Bytes(new(big.Int).Set(slot))), nil
}

// Trace224CheckpointSlotKey returns the storage key of checkpoints[key][index] for OpenZeppelin
// v4 votes, where the mapping holds a Checkpoint[] array directly:
// keccak256(MappingSlotKey) + index.
func Trace224CheckpointSlotKey(key string, slot *big.Int, index uint64) (common.Hash, error) {
	base, err := MappingSlotKey(key, slot)
	if err != nil {
		return common.Hash{}, err
	}

	return addIndex(crypto.Keccak256Hash(base.Bytes()), index), nil
}

// Trace208CheckpointSlotKey returns the storage key of checkpoints[key]._checkpoints[index] for
// OpenZeppelin v5 votes, where the mapping holds a Trace208 struct wrapping the array:
// keccak256(MappingSlotKey + traceCheckpointsOffset) + index.
func Trace208CheckpointSlotKey(key string, slot *big.Int, index uint64) (common.Hash, error) {
	base, err := MappingSlotKey(key, slot)
	if err != nil {
		return common.Hash{}, err
	}

	return addIndex(crypto.Keccak256Hash(addIndex(base, traceCheckpointsOffset).Bytes()), index), nil
}

// addIndex adds index to h modulo 2^256, the way Solidity computes array element slots.
func addIndex(h common.Hash, index uint64) common.Hash {
	v := new(big.Int).SetBytes(h.Bytes())
	v.Add(v, new(big.Int).SetUint64(index))

	return common.BytesToHash(math.U256Bytes(math.U256(v)))
}
