package merkle

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

func testLeaves(n int) []Leaf {
	leaves := make([]Leaf, n)
	for i := range leaves {
		t := AddressTypeStarknet
		if i%2 == 1 {
			t = AddressTypeEthereum
		}
		leaves[i] = NewLeaf(t, fmt.Sprintf("0x%040x", i+1), uint256.NewInt(uint64(10*(i+1))))
	}

	return leaves
}

func TestLeaf_Hash(t *testing.T) {
	t.Parallel()

	leaf := NewLeaf(AddressTypeEthereum, "0x556B14CbdA79A36dC33FcD461a04A5BCb5dC2A70", uint256.NewInt(42))

	got, err := leaf.Hash()
	require.NoError(t, err)
	assert.Equal(t, "0x48c455f93f5117e909c19f6fb95e0ad047bdba1c6c864dd338d5f3939f08558", got.String())

	again, err := leaf.Hash()
	require.NoError(t, err)
	assert.True(t, got.Equal(again))

	other := leaf
	other.Type = AddressTypeStarknet
	otherHash, err := other.Hash()
	require.NoError(t, err)
	assert.False(t, got.Equal(otherHash))

	_, err = NewLeaf(AddressTypeCustom, "not-hex", uint256.NewInt(1)).Hash()
	require.Error(t, err)
}

func TestHashPair(t *testing.T) {
	t.Parallel()

	a, b := codec.FeltFromUint64(7), codec.FeltFromUint64(300)
	want := "0x69813db00dd3ce0cf2de5aef8156a77e42a225664d01c99730a2b8beb1192fa"

	assert.Equal(t, want, HashPair(a, b).String())
	assert.Equal(t, want, HashPair(b, a).String())
	// Pairs use the two input permutation, not the padded array hash.
	assert.False(t, HashPair(a, b).Equal(crypto.PoseidonArray(b, a)))
}

func TestRoot_ReferenceValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		leaves int
		want   string
	}{
		{leaves: 1, want: "0x69603f6fc72701d214091a553f9912aa6bfb8055c714714bf08e7b12f3058f6"},
		{leaves: 2, want: "0x3c7db1beb0a7f1a08237ce90ed2c40c06ef0cecf72bc23d91f43dfdd4d5b06b"},
		{leaves: 3, want: "0x5eff4e9a72110225cc7fddaedcd4f93355442aa25849242086c17b517c4c558"},
		{leaves: 4, want: "0x55bab933083cc50ca5a574e7f23610e525f2d570b8e4d35dc75cace6b00d337"},
		{leaves: 5, want: "0x14feb60b17298f4956e8c21484634c222ead1b31160a8b6c5a49d5738cc87aa"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d leaves", tt.leaves), func(t *testing.T) {
			t.Parallel()

			tree, err := NewTree(testLeaves(tt.leaves))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.Root().String())
		})
	}
}

func TestRoot_SingleLeaf(t *testing.T) {
	t.Parallel()

	hashes, err := Hashes(testLeaves(1))
	require.NoError(t, err)

	root, err := Root(hashes)
	require.NoError(t, err)
	assert.True(t, root.Equal(hashes[0]))

	proof, err := Proof(hashes, 0)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, Verify(proof, hashes[0], root))
}

func TestProof_VerifiesEveryLeaf(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 9; n++ {
		t.Run(fmt.Sprintf("%d leaves", n), func(t *testing.T) {
			t.Parallel()

			hashes, err := Hashes(testLeaves(n))
			require.NoError(t, err)
			root, err := Root(hashes)
			require.NoError(t, err)

			proofs := make([][]*felt.Felt, n)
			for i := range hashes {
				proofs[i], err = Proof(hashes, i)
				require.NoError(t, err)
				assert.True(t, Verify(proofs[i], hashes[i], root), "leaf %d", i)
			}

			// A proof swapped between two leaves with different siblings fails.
			if n >= 3 {
				assert.False(t, Verify(proofs[0], hashes[2], root))
				assert.False(t, Verify(proofs[2], hashes[0], root))
			}
		})
	}
}

func TestRoot_OddPadding(t *testing.T) {
	t.Parallel()

	for _, n := range []int{3, 5, 7} {
		hashes, err := Hashes(testLeaves(n))
		require.NoError(t, err)

		root, err := Root(hashes)
		require.NoError(t, err)

		padded, err := Root(append(append([]*felt.Felt{}, hashes...), new(felt.Felt)))
		require.NoError(t, err)

		assert.True(t, root.Equal(padded), "%d leaves", n)
	}
}

func TestRoot_TwoLeaves(t *testing.T) {
	t.Parallel()

	hashes, err := Hashes(testLeaves(2))
	require.NoError(t, err)

	root, err := Root(hashes)
	require.NoError(t, err)
	assert.True(t, root.Equal(HashPair(hashes[0], hashes[1])))

	proof, err := Proof(hashes, 1)
	require.NoError(t, err)
	require.Len(t, proof, 1)
	assert.True(t, proof[0].Equal(hashes[0]))
}

func TestProof_Errors(t *testing.T) {
	t.Parallel()

	_, err := Root(nil)
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = Proof(nil, 0)
	require.ErrorIs(t, err, ErrEmptyTree)

	hashes, err := Hashes(testLeaves(2))
	require.NoError(t, err)
	_, err = Proof(hashes, 2)
	require.ErrorContains(t, err, "out of range")
}

func TestTree_Lookup(t *testing.T) {
	t.Parallel()

	leaves := testLeaves(4)
	leaves[3].VotingPower = uint256.NewInt(0)
	tree, err := NewTree(leaves)
	require.NoError(t, err)

	leaf, proof, err := tree.Lookup("0x0000000000000000000000000000000000000002")
	require.NoError(t, err)
	assert.Equal(t, leaves[1], leaf)
	h, err := leaf.Hash()
	require.NoError(t, err)
	assert.True(t, Verify(proof, h, tree.Root()))

	// Whitelisted with zero power is not the same as absent.
	leaf, _, err = tree.Lookup("0x4")
	require.NoError(t, err)
	assert.True(t, leaf.VotingPower.IsZero())

	_, _, err = tree.Lookup("0x99")
	var notWhitelisted *governance.SignerNotWhitelistedError
	require.True(t, errors.As(err, &notWhitelisted))
	assert.Equal(t, "0x99", notWhitelisted.Address)

	_, err = NewTree(nil)
	require.ErrorIs(t, err, ErrEmptyTree)
}

func TestParseWhitelist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    []Leaf
		wantErr string
	}{
		{
			name: "mixed families",
			give: "0x556B14CbdA79A36dC33FcD461a04A5BCb5dC2A70:42\n\n" +
				"0x07D2CD0a1A0dA5b7B4a3f7E0b6a29d4d2f1c2b7c8e9f0a1b2c3d4e5f6a7b8c9d : 0x10\n",
			want: []Leaf{
				NewLeaf(AddressTypeEthereum, "0x556b14cbda79a36dc33fcd461a04a5bcb5dc2a70", uint256.NewInt(42)),
				NewLeaf(AddressTypeStarknet, "0x07d2cd0a1a0da5b7b4a3f7e0b6a29d4d2f1c2b7c8e9f0a1b2c3d4e5f6a7b8c9d", uint256.NewInt(16)),
			},
		},
		{name: "empty", give: "\n  \n"},
		{name: "missing separator", give: "0xabc", wantErr: "line 1: expected address:power"},
		{name: "not hex", give: "abc:1", wantErr: `line 1: address "abc" must be 0x prefixed hex`},
		{name: "bad power", give: "0x1:1\n0x2:lots", wantErr: `line 2: voting power "lots"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseWhitelist(tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLeaf_JSON(t *testing.T) {
	t.Parallel()

	var leaves []Leaf
	err := json.Unmarshal([]byte(`[{"type":1,"address":"0x1","votingPower":"0x2a"},{"type":0,"address":"0x2","votingPower":"7"}]`), &leaves)
	require.NoError(t, err)
	assert.Equal(t, []Leaf{
		NewLeaf(AddressTypeEthereum, "0x1", uint256.NewInt(42)),
		NewLeaf(AddressTypeStarknet, "0x2", uint256.NewInt(7)),
	}, leaves)

	out, err := json.Marshal(leaves[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1,"address":"0x1","votingPower":"42"}`, string(out))

	err = json.Unmarshal([]byte(`{"type":9,"address":"0x1","votingPower":"1"}`), &Leaf{})
	require.ErrorContains(t, err, "unknown address type 9")
}

func TestEncodeParams(t *testing.T) {
	t.Parallel()

	hashes, err := Hashes(testLeaves(3))
	require.NoError(t, err)
	proof, err := Proof(hashes, 0)
	require.NoError(t, err)

	leaf := NewLeaf(AddressTypeEthereum, "0xabc", new(uint256.Int).Lsh(uint256.NewInt(1), 130))
	got, err := EncodeParams(leaf, proof)
	require.NoError(t, err)

	require.Len(t, got, 5+len(proof))
	assert.True(t, got[0].Equal(codec.FeltFromUint64(1)))
	assert.True(t, got[1].Equal(codec.MustFelt("0xabc")))
	assert.True(t, got[2].IsZero())
	assert.True(t, got[3].Equal(codec.FeltFromUint64(4)))
	assert.True(t, got[4].Equal(codec.FeltFromUint64(uint64(len(proof)))))
	for i, p := range proof {
		assert.True(t, got[5+i].Equal(p))
	}
}
