package strategy

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/merkle"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

// whitelistPayload is the metadata payload of a Merkle whitelist strategy.
type whitelistPayload struct {
	Tree []merkle.Leaf `json:"tree"`
}

// merkleWhitelist proves membership of a Poseidon Merkle tree whose leaves are published in the
// strategy metadata.
type merkleWhitelist struct {
	metadata *MetadataFetcher
}

func (s *merkleWhitelist) Kind() network.StrategyKind { return network.StrategyMerkleWhitelist }

func (s *merkleWhitelist) tree(ctx context.Context, metadata *governance.StrategyMetadata) (*merkle.Tree, error) {
	var payload whitelistPayload
	if err := s.metadata.Decode(ctx, string(s.Kind()), "tree", metadata, &payload); err != nil {
		return nil, err
	}
	tree, err := merkle.NewTree(payload.Tree)
	if err != nil {
		return nil, fmt.Errorf("invalid whitelist: %w", err)
	}

	return tree, nil
}

func (s *merkleWhitelist) GetParams(
	ctx context.Context,
	_ governance.Call,
	_ governance.StrategyConfig,
	signer string,
	metadata *governance.StrategyMetadata,
	_ governance.ActionData,
) ([]byte, error) {
	tree, err := s.tree(ctx, metadata)
	if err != nil {
		return nil, err
	}
	leaf, proof, err := tree.Lookup(signer)
	if err != nil {
		return nil, err
	}
	felts, err := merkle.EncodeParams(leaf, proof)
	if err != nil {
		return nil, err
	}

	return codec.FeltsToBytes(felts), nil
}

func (s *merkleWhitelist) GetVotingPower(
	ctx context.Context,
	_ string,
	voter string,
	metadata *governance.StrategyMetadata,
	_ *governance.Snapshot,
	_ string,
) (*uint256.Int, error) {
	tree, err := s.tree(ctx, metadata)
	if err != nil {
		return nil, err
	}
	leaf, _, err := tree.Lookup(voter)
	if err != nil {
		return nil, err
	}
	if leaf.VotingPower == nil {
		return new(uint256.Int), nil
	}

	return leaf.VotingPower.Clone(), nil
}
