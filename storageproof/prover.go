package storageproof

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Request asks for the proof of Voter's entry in the mapping declared at SlotIndex of
// ContractAddress, at BlockNumber.
type Request struct {
	ContractAddress string
	VoterAddress    string
	SlotIndex       *big.Int
	BlockNumber     uint64
}

// KeyProof is the storage proof of a single key.
type KeyProof struct {
	Key   common.Hash
	Value *big.Int
	Nodes [][]byte
}

// Params returns the proof in verifier calldata shape.
func (k KeyProof) Params() ProofParams {
	return NewProofParams(k.Key, k.Nodes)
}

// Prover fetches storage proofs with eth_getProof.
type Prover struct {
	client evm.ProofClient
	lggr   logger.Logger
}

// NewProver returns a Prover reading from client.
func NewProver(client evm.ProofClient, lggr logger.Logger) *Prover {
	return &Prover{client: client, lggr: lggr.Named("prover")}
}

// Fetch returns the proof of the mapping slot described by req.
func (p *Prover) Fetch(ctx context.Context, req Request) (KeyProof, error) {
	key, err := MappingSlotKey(req.VoterAddress, req.SlotIndex)
	if err != nil {
		return KeyProof{}, err
	}

	proofs, err := p.FetchKeys(ctx, req.ContractAddress, req.BlockNumber, key)
	if err != nil {
		return KeyProof{}, err
	}

	return proofs[0], nil
}

// FetchKeys returns one proof per key, in order.
func (p *Prover) FetchKeys(ctx context.Context, contract string, blockNumber uint64, keys ...common.Hash) ([]KeyProof, error) {
	hexKeys := make([]string, len(keys))
	for i, k := range keys {
		hexKeys[i] = k.Hex()
	}

	p.lggr.Debugw("Fetching storage proof", "contract", contract, "block", blockNumber, "keys", hexKeys)
	res, err := p.client.GetProof(ctx, common.HexToAddress(contract), hexKeys, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storage proof of %s at block %d: %w", contract, blockNumber, err)
	}
	if len(res.StorageProof) != len(keys) {
		return nil, fmt.Errorf("requested %d storage proofs, got %d", len(keys), len(res.StorageProof))
	}

	out := make([]KeyProof, len(keys))
	for i, sp := range res.StorageProof {
		nodes := make([][]byte, len(sp.Proof))
		for j, node := range sp.Proof {
			b, err := hexutil.Decode(node)
			if err != nil {
				return nil, fmt.Errorf("key %s: proof node %d: %w", keys[i].Hex(), j, err)
			}
			nodes[j] = b
		}
		value := sp.Value
		if value == nil {
			value = new(big.Int)
		}
		out[i] = KeyProof{Key: keys[i], Value: value, Nodes: nodes}
	}

	return out, nil
}
