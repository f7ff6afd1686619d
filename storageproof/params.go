package storageproof

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

// ErrTruncatedParams is returned when a params blob ends before a declared section does.
var ErrTruncatedParams = errors.New("truncated storage proof params")

// ProofParams is the calldata shape the on-chain verifier expects for one storage proof. Proof
// nodes are flattened into 8-byte big-endian words; the byte and word sizes of each node travel
// alongside so the nodes can be rebuilt exactly.
type ProofParams struct {
	Slot       common.Hash
	SizesBytes []uint64
	SizesWords []uint64
	Words      []uint64
}

// NewProofParams flattens the proof nodes of slot.
func NewProofParams(slot common.Hash, nodes [][]byte) ProofParams {
	p := ProofParams{
		Slot:       slot,
		SizesBytes: make([]uint64, len(nodes)),
		SizesWords: make([]uint64, len(nodes)),
		Words:      []uint64{},
	}
	for i, node := range nodes {
		words := codec.BytesToWords64(node)
		p.SizesBytes[i] = uint64(len(node))
		p.SizesWords[i] = uint64(len(words))
		p.Words = append(p.Words, words...)
	}

	return p
}

// Nodes rebuilds the proof nodes.
func (p ProofParams) Nodes() ([][]byte, error) {
	if len(p.SizesBytes) != len(p.SizesWords) {
		return nil, fmt.Errorf("%d byte sizes but %d word sizes", len(p.SizesBytes), len(p.SizesWords))
	}

	nodes := make([][]byte, len(p.SizesBytes))
	offset := uint64(0)
	for i := range nodes {
		if p.SizesWords[i] > uint64(len(p.Words))-offset {
			return nil, fmt.Errorf("node %d: %w", i, ErrTruncatedParams)
		}
		// A word holds at most 8 bytes, which also keeps the size within int range.
		if p.SizesBytes[i] > codec.WordSize*p.SizesWords[i] {
			return nil, fmt.Errorf("node %d: %d bytes in %d words: %w", i, p.SizesBytes[i], p.SizesWords[i], ErrTruncatedParams)
		}
		end := offset + p.SizesWords[i]
		node, err := codec.Words64ToBytes(p.Words[offset:end], int(p.SizesBytes[i]))
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes[i] = node
		offset = end
	}
	if offset != uint64(len(p.Words)) {
		return nil, fmt.Errorf("%d trailing proof words", uint64(len(p.Words))-offset)
	}

	return nodes, nil
}

// Felts encodes the params as
// [slot.low, slot.high, n, sizesBytes..., n, sizesWords..., m, words...].
func (p ProofParams) Felts() []*felt.Felt {
	low, high := codec.SplitU256(new(uint256.Int).SetBytes32(p.Slot.Bytes()))

	out := make([]*felt.Felt, 0, 5+len(p.SizesBytes)+len(p.SizesWords)+len(p.Words))
	out = append(out, low, high)
	for _, section := range [][]uint64{p.SizesBytes, p.SizesWords, p.Words} {
		out = append(out, codec.FeltFromUint64(uint64(len(section))))
		for _, v := range section {
			out = append(out, codec.FeltFromUint64(v))
		}
	}

	return out
}

// DecodeProofParams reads one ProofParams from the front of felts and returns the felts that
// follow it.
func DecodeProofParams(felts []*felt.Felt) (ProofParams, []*felt.Felt, error) {
	if len(felts) < 2 {
		return ProofParams{}, nil, fmt.Errorf("slot: %w", ErrTruncatedParams)
	}
	slot, err := codec.JoinU256(felts[0], felts[1])
	if err != nil {
		return ProofParams{}, nil, fmt.Errorf("slot: %w", err)
	}
	rest := felts[2:]

	var sections [3][]uint64
	for i, name := range []string{"byte sizes", "word sizes", "words"} {
		sections[i], rest, err = readSection(rest)
		if err != nil {
			return ProofParams{}, nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	return ProofParams{
		Slot:       common.Hash(slot.Bytes32()),
		SizesBytes: sections[0],
		SizesWords: sections[1],
		Words:      sections[2],
	}, rest, nil
}

func readSection(felts []*felt.Felt) ([]uint64, []*felt.Felt, error) {
	if len(felts) == 0 {
		return nil, nil, ErrTruncatedParams
	}
	n, err := feltUint64(felts[0])
	if err != nil {
		return nil, nil, err
	}
	felts = felts[1:]
	if uint64(len(felts)) < n {
		return nil, nil, ErrTruncatedParams
	}

	out := make([]uint64, n)
	for i := range out {
		if out[i], err = feltUint64(felts[i]); err != nil {
			return nil, nil, err
		}
	}

	return out, felts[n:], nil
}

func feltUint64(f *felt.Felt) (uint64, error) {
	v := codec.FeltToBig(f)
	if !v.IsUint64() {
		return 0, fmt.Errorf("value %s does not fit in 64 bits", v)
	}

	return v.Uint64(), nil
}
