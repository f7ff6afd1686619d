package merkle

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// ErrEmptyTree is returned when a root or proof is requested for no leaves.
var ErrEmptyTree = errors.New("merkle tree has no leaves")

// zero is the sentinel appended to odd levels.
var zero = new(felt.Felt)

// HashPair combines two nodes as Poseidon(max, min), comparing the nodes as integers.
func HashPair(a, b *felt.Felt) *felt.Felt {
	if codec.FeltToBig(a).Cmp(codec.FeltToBig(b)) > 0 {
		return crypto.Poseidon(a, b)
	}

	return crypto.Poseidon(b, a)
}

// pad returns level with the zero sentinel appended when its length is odd.
func pad(level []*felt.Felt) []*felt.Felt {
	if len(level)%2 == 0 {
		return level
	}
	out := make([]*felt.Felt, len(level), len(level)+1)
	copy(out, level)

	return append(out, zero)
}

func parent(level []*felt.Felt) []*felt.Felt {
	level = pad(level)
	out := make([]*felt.Felt, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		out = append(out, HashPair(level[i], level[i+1]))
	}

	return out
}

// Root returns the Merkle root of the ordered leaf hashes. A single hash is its own root.
func Root(hashes []*felt.Felt) (*felt.Felt, error) {
	if len(hashes) == 0 {
		return nil, ErrEmptyTree
	}

	level := hashes
	for len(level) > 1 {
		level = parent(level)
	}

	return level[0], nil
}

// Proof returns the sibling hashes from the leaf at index up to the root.
func Proof(hashes []*felt.Felt, index int) ([]*felt.Felt, error) {
	if len(hashes) == 0 {
		return nil, ErrEmptyTree
	}
	if index < 0 || index >= len(hashes) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", index, len(hashes))
	}

	proof := []*felt.Felt{}
	level := hashes
	for len(level) > 1 {
		padded := pad(level)
		proof = append(proof, padded[index^1])
		level = parent(padded)
		index /= 2
	}

	return proof, nil
}

// Verify recomputes the root from leaf and proof and compares it with root.
func Verify(proof []*felt.Felt, leaf, root *felt.Felt) bool {
	cur := leaf
	for _, sibling := range proof {
		cur = HashPair(cur, sibling)
	}

	return cur.Equal(root)
}

// Tree is a whitelist with its leaf hashes computed once.
type Tree struct {
	leaves []Leaf
	hashes []*felt.Felt
}

// NewTree hashes leaves in order.
func NewTree(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	hashes, err := Hashes(leaves)
	if err != nil {
		return nil, err
	}

	return &Tree{leaves: leaves, hashes: hashes}, nil
}

// Leaves returns the leaves of the tree.
func (t *Tree) Leaves() []Leaf { return t.leaves }

// Root returns the root of the tree.
func (t *Tree) Root() *felt.Felt {
	root, _ := Root(t.hashes)

	return root
}

// Lookup returns the leaf of address and its proof. An address missing from the tree yields
// *governance.SignerNotWhitelistedError, never a zero power leaf.
func (t *Tree) Lookup(address string) (Leaf, []*felt.Felt, error) {
	idx := IndexOf(t.leaves, address)
	if idx < 0 {
		return Leaf{}, nil, &governance.SignerNotWhitelistedError{Address: address}
	}
	proof, err := Proof(t.hashes, idx)
	if err != nil {
		return Leaf{}, nil, err
	}

	return t.leaves[idx], proof, nil
}
