package storageproof

import (
	"math"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

func TestProofParams_RoundTrip(t *testing.T) {
	t.Parallel()

	slot := common.HexToHash("0x40e6ded87fcfccfe5234291ecc4ea6bd0e94fc52a4f9a56305c3bc486d39fdb9")
	nodes := [][]byte{
		{0xf8, 0x51, 0x80, 0x80, 0xa0, 0x01, 0x02, 0x03, 0x04, 0x05},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		{0xe2},
	}

	params := NewProofParams(slot, nodes)
	assert.Equal(t, []uint64{10, 8, 1}, params.SizesBytes)
	assert.Equal(t, []uint64{2, 1, 1}, params.SizesWords)
	assert.Equal(t, []uint64{
		0xf8518080a0010203,
		0x0405,
		0x0102030405060708,
		0xe2,
	}, params.Words)

	felts := params.Felts()
	require.Len(t, felts, 2+1+3+1+3+1+4)
	low, high := felts[0], felts[1]
	assert.Equal(t, "0xe94fc52a4f9a56305c3bc486d39fdb9", codec.FeltHex(low))
	assert.Equal(t, "0x40e6ded87fcfccfe5234291ecc4ea6bd", codec.FeltHex(high))

	trailer := codec.FeltFromUint64(99)
	decoded, rest, err := DecodeProofParams(append(felts, trailer))
	require.NoError(t, err)
	assert.Equal(t, params, decoded)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].Equal(trailer))

	back, err := decoded.Nodes()
	require.NoError(t, err)
	assert.Equal(t, nodes, back)
}

func TestProofParams_Empty(t *testing.T) {
	t.Parallel()

	params := NewProofParams(common.Hash{}, nil)
	decoded, rest, err := DecodeProofParams(params.Felts())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, params, decoded)

	nodes, err := decoded.Nodes()
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestDecodeProofParams_Errors(t *testing.T) {
	t.Parallel()

	full := NewProofParams(common.HexToHash("0x01"), [][]byte{{1, 2, 3}}).Felts()

	tests := []struct {
		name    string
		give    []*felt.Felt
		wantErr string
	}{
		{name: "no slot", give: full[:1], wantErr: "slot: truncated"},
		{name: "no byte sizes", give: full[:2], wantErr: "byte sizes: truncated"},
		{name: "short words", give: full[:len(full)-1], wantErr: "words: truncated"},
		{
			name:    "oversized count",
			give:    append(append([]*felt.Felt{}, full[:2]...), codec.MustFelt("0x10000000000000000")),
			wantErr: "byte sizes: value 18446744073709551616 does not fit in 64 bits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := DecodeProofParams(tt.give)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProofParams_NodesErrors(t *testing.T) {
	t.Parallel()

	_, err := ProofParams{SizesBytes: []uint64{1}}.Nodes()
	require.ErrorContains(t, err, "1 byte sizes but 0 word sizes")

	_, err = ProofParams{SizesBytes: []uint64{9}, SizesWords: []uint64{2}, Words: []uint64{1}}.Nodes()
	require.ErrorIs(t, err, ErrTruncatedParams)

	_, err = ProofParams{SizesBytes: []uint64{1}, SizesWords: []uint64{1}, Words: []uint64{1, 2}}.Nodes()
	require.ErrorContains(t, err, "1 trailing proof words")
}

func TestProofParams_NodesRejectsHostileSizes(t *testing.T) {
	t.Parallel()

	felts := func(vs ...uint64) []*felt.Felt {
		out := make([]*felt.Felt, len(vs))
		for i, v := range vs {
			out[i] = codec.FeltFromUint64(v)
		}

		return out
	}

	tests := []struct {
		name string
		give []*felt.Felt
	}{
		{
			name: "word size wraps the offset",
			give: felts(0, 0, 2, 8, 8, 2, 1, math.MaxUint64, 2, 1, 2),
		},
		{
			name: "byte size beyond int range",
			give: felts(0, 0, 1, math.MaxUint64, 1, 1, 1, 5),
		},
		{
			name: "more bytes than the words hold",
			give: felts(0, 0, 1, 17, 1, 2, 2, 1, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decoded, rest, err := DecodeProofParams(tt.give)
			require.NoError(t, err)
			assert.Empty(t, rest)

			require.NotPanics(t, func() {
				_, err = decoded.Nodes()
			})
			require.ErrorIs(t, err, ErrTruncatedParams)
		})
	}
}
