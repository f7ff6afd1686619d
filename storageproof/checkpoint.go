package storageproof

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrNoCheckpoint is returned when an account has no checkpoint at or before the block.
var ErrNoCheckpoint = errors.New("no checkpoint at or before block")

// Checkpoint is a decoded OpenZeppelin votes checkpoint.
type Checkpoint struct {
	// Key is the block number (or timepoint) the checkpoint was written at.
	Key   uint64
	Value *uint256.Int
}

// DecodeCheckpoint224 decodes an OpenZeppelin v4 Checkpoint{uint32 fromBlock; uint224 votes}
// storage word.
func DecodeCheckpoint224(word common.Hash) Checkpoint {
	v := new(uint256.Int).SetBytes32(word.Bytes())
	key := new(uint256.Int).And(v, uint256.NewInt(1<<32-1))

	return Checkpoint{Key: key.Uint64(), Value: new(uint256.Int).Rsh(v, 32)}
}

// DecodeCheckpoint208 decodes an OpenZeppelin v5 Checkpoint208{uint48 _key; uint208 _value}
// storage word.
func DecodeCheckpoint208(word common.Hash) Checkpoint {
	v := new(uint256.Int).SetBytes32(word.Bytes())
	key := new(uint256.Int).And(v, uint256.NewInt(1<<48-1))

	return Checkpoint{Key: key.Uint64(), Value: new(uint256.Int).Rsh(v, 48)}
}

// Layout describes where a votes contract stores the checkpoints of an account and how a
// checkpoint word is packed.
type Layout interface {
	// LengthSlot returns the slot holding the number of checkpoints of key.
	LengthSlot(key string, slot *big.Int) (common.Hash, error)
	// CheckpointSlot returns the slot of checkpoint index of key.
	CheckpointSlot(key string, slot *big.Int, index uint64) (common.Hash, error)
	// Decode unpacks a checkpoint word.
	Decode(word common.Hash) Checkpoint
}

// Trace224 is the OpenZeppelin v4 layout: mapping(address => Checkpoint[]).
var Trace224 Layout = trace224{}

// Trace208 is the OpenZeppelin v5 layout: mapping(address => Checkpoints.Trace208).
var Trace208 Layout = trace208{}

type trace224 struct{}

func (trace224) LengthSlot(key string, slot *big.Int) (common.Hash, error) {
	return MappingSlotKey(key, slot)
}

func (trace224) CheckpointSlot(key string, slot *big.Int, index uint64) (common.Hash, error) {
	return Trace224CheckpointSlotKey(key, slot, index)
}

func (trace224) Decode(word common.Hash) Checkpoint { return DecodeCheckpoint224(word) }

type trace208 struct{}

func (trace208) LengthSlot(key string, slot *big.Int) (common.Hash, error) {
	base, err := MappingSlotKey(key, slot)
	if err != nil {
		return common.Hash{}, err
	}

	return addIndex(base, traceCheckpointsOffset), nil
}

func (trace208) CheckpointSlot(key string, slot *big.Int, index uint64) (common.Hash, error) {
	return Trace208CheckpointSlotKey(key, slot, index)
}

func (trace208) Decode(word common.Hash) Checkpoint { return DecodeCheckpoint208(word) }

// StorageReader reads raw contract storage (eth_getStorageAt).
type StorageReader interface {
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// CheckpointQuery locates the checkpoint of Voter in Contract that is in force at BlockNumber.
type CheckpointQuery struct {
	Contract    string
	Voter       string
	SlotIndex   *big.Int
	BlockNumber uint64
}

// FindCheckpoint returns the index and value of the last checkpoint written at or before
// q.BlockNumber, reading storage at that block. It returns ErrNoCheckpoint when there is none.
func FindCheckpoint(ctx context.Context, reader StorageReader, layout Layout, q CheckpointQuery) (uint64, Checkpoint, error) {
	contract := common.HexToAddress(q.Contract)
	block := new(big.Int).SetUint64(q.BlockNumber)

	read := func(slot common.Hash) (common.Hash, error) {
		raw, err := reader.StorageAt(ctx, contract, slot, block)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to read storage slot %s: %w", slot.Hex(), err)
		}

		return common.BytesToHash(raw), nil
	}

	lengthSlot, err := layout.LengthSlot(q.Voter, q.SlotIndex)
	if err != nil {
		return 0, Checkpoint{}, err
	}
	word, err := read(lengthSlot)
	if err != nil {
		return 0, Checkpoint{}, err
	}
	length := new(big.Int).SetBytes(word.Bytes())
	if !length.IsUint64() {
		return 0, Checkpoint{}, fmt.Errorf("checkpoint count %s out of range", length)
	}

	checkpointAt := func(i uint64) (Checkpoint, error) {
		slot, err := layout.CheckpointSlot(q.Voter, q.SlotIndex, i)
		if err != nil {
			return Checkpoint{}, err
		}
		w, err := read(slot)
		if err != nil {
			return Checkpoint{}, err
		}

		return layout.Decode(w), nil
	}

	// Upper bound search for the first checkpoint written after the block.
	low, high := uint64(0), length.Uint64()
	for low < high {
		mid := low + (high-low)/2
		cp, err := checkpointAt(mid)
		if err != nil {
			return 0, Checkpoint{}, err
		}
		if cp.Key > q.BlockNumber {
			high = mid
		} else {
			low = mid + 1
		}
	}
	if low == 0 {
		return 0, Checkpoint{}, fmt.Errorf("%w %d for %s", ErrNoCheckpoint, q.BlockNumber, q.Voter)
	}

	cp, err := checkpointAt(low - 1)
	if err != nil {
		return 0, Checkpoint{}, err
	}

	return low - 1, cp, nil
}
