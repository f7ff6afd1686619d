package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
	"github.com/snapshot-labs/sx-monorepo-sub001/storageproof"
)

// storageProofBase is shared by the Starknet strategies that prove L1 storage at the block
// anchored to the proposal snapshot.
type storageProofBase struct {
	l1      evm.OnchainClient
	proofs  ProofFetcher
	anchors *anchors
}

// snapshotBlock returns the L1 block anchored to the snapshot of the vote.
func (b storageProofBase) snapshotBlock(ctx context.Context, vote *governance.Vote) (uint64, error) {
	if vote == nil || vote.Snapshot == nil || vote.Snapshot.Timestamp == nil {
		return 0, errors.New("storage proofs need the proposal snapshot timestamp")
	}

	return b.anchors.l1Block(ctx, *vote.Snapshot.Timestamp)
}

// readBlock returns the L1 block voting power is read at. Live reads use nil, the latest block.
func (b storageProofBase) readBlock(ctx context.Context, at *governance.Snapshot) (*big.Int, error) {
	if at == nil || at.Timestamp == nil {
		return nil, nil
	}
	block, err := b.anchors.l1Block(ctx, *at.Timestamp)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetUint64(block), nil
}

func (b storageProofBase) fetch(ctx context.Context, contract string, block uint64, keys ...common.Hash) ([]storageproof.KeyProof, error) {
	if b.proofs == nil {
		return nil, errors.New("no storage proof client configured")
	}

	return b.proofs.FetchKeys(ctx, contract, block, keys...)
}

// evmSlotValue proves the value of a mapping(address => uint256) entry of an L1 contract.
type evmSlotValue struct {
	storageProofBase
}

func (s *evmSlotValue) Kind() network.StrategyKind { return network.StrategyEVMSlotValue }

func (s *evmSlotValue) GetParams(
	ctx context.Context,
	call governance.Call,
	cfg governance.StrategyConfig,
	signer string,
	_ *governance.StrategyMetadata,
	action governance.ActionData,
) ([]byte, error) {
	if call != governance.CallVote {
		return nil, fmt.Errorf("%s: %w", s.Kind(), governance.ErrUnsupportedCall)
	}
	p, err := parseSlotParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	block, err := s.snapshotBlock(ctx, action.Vote)
	if err != nil {
		return nil, err
	}
	key, err := storageproof.MappingSlotKey(signer, p.slot)
	if err != nil {
		return nil, err
	}
	proofs, err := s.fetch(ctx, p.contract, block, key)
	if err != nil {
		return nil, err
	}

	return codec.FeltsToBytes(proofs[0].Params().Felts()), nil
}

func (s *evmSlotValue) GetVotingPower(
	ctx context.Context,
	_ string,
	voter string,
	_ *governance.StrategyMetadata,
	at *governance.Snapshot,
	params string,
) (*uint256.Int, error) {
	if !isEVMAddress(voter) {
		return new(uint256.Int), nil
	}
	if s.l1 == nil {
		return nil, errors.New("no L1 client configured")
	}
	p, err := parseSlotParams(params)
	if err != nil {
		return nil, err
	}
	block, err := s.readBlock(ctx, at)
	if err != nil {
		return nil, err
	}
	key, err := storageproof.MappingSlotKey(voter, p.slot)
	if err != nil {
		return nil, err
	}
	raw, err := s.l1.StorageAt(ctx, common.HexToAddress(p.contract), key, block)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s of %s: %w", key.Hex(), p.contract, err)
	}

	return new(uint256.Int).SetBytes(raw), nil
}

// ozVotesStorageProof proves the OpenZeppelin votes checkpoint in force at the snapshot, and that
// the following checkpoint was written after it.
type ozVotesStorageProof struct {
	storageProofBase
	kind   network.StrategyKind
	layout storageproof.Layout
}

func (s *ozVotesStorageProof) Kind() network.StrategyKind { return s.kind }

func (s *ozVotesStorageProof) GetParams(
	ctx context.Context,
	call governance.Call,
	cfg governance.StrategyConfig,
	signer string,
	_ *governance.StrategyMetadata,
	action governance.ActionData,
) ([]byte, error) {
	if call != governance.CallVote {
		return nil, fmt.Errorf("%s: %w", s.Kind(), governance.ErrUnsupportedCall)
	}
	if s.l1 == nil {
		return nil, errors.New("no L1 client configured")
	}
	p, err := parseSlotParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	block, err := s.snapshotBlock(ctx, action.Vote)
	if err != nil {
		return nil, err
	}

	index, _, err := storageproof.FindCheckpoint(ctx, s.l1, s.layout, storageproof.CheckpointQuery{
		Contract:    p.contract,
		Voter:       signer,
		SlotIndex:   p.slot,
		BlockNumber: block,
	})
	if err != nil {
		return nil, err
	}

	checkpoint, err := s.layout.CheckpointSlot(signer, p.slot, index)
	if err != nil {
		return nil, err
	}
	exclusion, err := s.layout.CheckpointSlot(signer, p.slot, index+1)
	if err != nil {
		return nil, err
	}
	proofs, err := s.fetch(ctx, p.contract, block, checkpoint, exclusion)
	if err != nil {
		return nil, err
	}

	felts := []*felt.Felt{codec.FeltFromUint64(index)}
	felts = append(felts, proofs[0].Params().Felts()...)
	felts = append(felts, proofs[1].Params().Felts()...)

	return codec.FeltsToBytes(felts), nil
}

func (s *ozVotesStorageProof) GetVotingPower(
	ctx context.Context,
	_ string,
	voter string,
	_ *governance.StrategyMetadata,
	at *governance.Snapshot,
	params string,
) (*uint256.Int, error) {
	if !isEVMAddress(voter) {
		return new(uint256.Int), nil
	}
	if s.l1 == nil {
		return nil, errors.New("no L1 client configured")
	}
	p, err := parseSlotParams(params)
	if err != nil {
		return nil, err
	}

	var block uint64
	if at == nil || at.Timestamp == nil {
		block, err = s.l1.BlockNumber(ctx)
	} else {
		block, err = s.anchors.l1Block(ctx, *at.Timestamp)
	}
	if err != nil {
		return nil, err
	}

	_, cp, err := storageproof.FindCheckpoint(ctx, s.l1, s.layout, storageproof.CheckpointQuery{
		Contract:    p.contract,
		Voter:       voter,
		SlotIndex:   p.slot,
		BlockNumber: block,
	})
	if errors.Is(err, storageproof.ErrNoCheckpoint) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}

	return cp.Value, nil
}
