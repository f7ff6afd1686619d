package codec

import (
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToWords64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		give []byte
		want []uint64
	}{
		{
			name: "empty",
			give: []byte{},
			want: []uint64{},
		},
		{
			name: "exact words",
			give: []byte{0, 0, 0, 0, 0, 0, 0, 1, 0xff, 0, 0, 0, 0, 0, 0, 2},
			want: []uint64{1, 0xff00000000000002},
		},
		{
			name: "short final word is right aligned",
			give: []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xab, 0xcd},
			want: []uint64{0x0102030405060708, 0xabcd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := BytesToWords64(tt.give)
			assert.Equal(t, tt.want, got)

			back, err := Words64ToBytes(got, len(tt.give))
			require.NoError(t, err)
			assert.Equal(t, tt.give, back)
		})
	}
}

func TestWords64ToBytes_Errors(t *testing.T) {
	t.Parallel()

	_, err := Words64ToBytes([]uint64{1}, 9)
	require.ErrorContains(t, err, "need 2 words")

	_, err = Words64ToBytes([]uint64{0x1ff}, 1)
	require.ErrorContains(t, err, "does not fit in 1 bytes")
}

func TestSplitU256(t *testing.T) {
	t.Parallel()

	v := new(uint256.Int).Lsh(uint256.NewInt(5), 128)
	v.Add(v, uint256.NewInt(42))

	low, high := SplitU256(v)
	assert.Equal(t, "0x2a", FeltHex(low))
	assert.Equal(t, "0x5", FeltHex(high))

	joined, err := JoinU256(low, high)
	require.NoError(t, err)
	assert.Equal(t, v, joined)

	low, high = SplitU256(nil)
	assert.True(t, low.IsZero())
	assert.True(t, high.IsZero())
}

func TestSplitU256Big(t *testing.T) {
	t.Parallel()

	_, _, err := SplitU256Big(new(big.Int).Lsh(big.NewInt(1), 256))
	require.Error(t, err)

	low, high, err := SplitU256Big(big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, "0x7", FeltHex(low))
	assert.True(t, high.IsZero())
}

func TestFeltFromHex(t *testing.T) {
	t.Parallel()

	f, err := FeltFromHex("0x0556B")
	require.NoError(t, err)
	assert.Equal(t, "0x556b", FeltHex(f))

	_, err = FeltFromHex(hexOf(FieldPrime))
	require.ErrorIs(t, err, ErrFeltOverflow)

	_, err = FeltFromHex("0xzz")
	require.Error(t, err)
}

func TestFeltsBytesRoundTrip(t *testing.T) {
	t.Parallel()

	felts := []*felt.Felt{FeltFromUint64(1), MustFelt("0x556b"), new(felt.Felt)}
	b := FeltsToBytes(felts)
	require.Len(t, b, 3*FeltSize)

	back, err := BytesToFelts(b)
	require.NoError(t, err)
	require.Len(t, back, 3)
	for i := range felts {
		assert.True(t, felts[i].Equal(back[i]))
	}

	_, err = BytesToFelts([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestPadHex(t *testing.T) {
	t.Parallel()

	got, err := PadHex("0xABC", 4)
	require.NoError(t, err)
	assert.Equal(t, "0x00000abc", got)

	_, err = PadHex("0x0102030405", 4)
	require.Error(t, err)
}

func TestDecodeHex(t *testing.T) {
	t.Parallel()

	for give, want := range map[string][]byte{
		"":       {},
		"0x":     {},
		"0x1":    {0x01},
		"0x0a0b": {0x0a, 0x0b},
		"ff":     {0xff},
	} {
		got, err := DecodeHex(give)
		require.NoError(t, err, give)
		assert.Equal(t, want, got, give)
	}
}

func TestShortStrings(t *testing.T) {
	t.Parallel()

	f, err := EncodeShortString("SN_SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, "SN_SEPOLIA", DecodeShortString(f))

	_, err = EncodeShortString("this string is definitely longer than 31 bytes")
	require.Error(t, err)

	uri := "ipfs://bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"
	parts := SplitLongString(uri)
	assert.Len(t, parts, 3)
	assert.Equal(t, uri, JoinLongString(parts))
}

func TestEVMDomain(t *testing.T) {
	t.Parallel()

	addr := common.HexToAddress("0x5f9B7D78c9a37a439D78f801E0E339C6E711e260")
	d := EVMDomain(EVMDomainName, EVMDomainVersion, big.NewInt(11155111), addr)
	assert.Equal(t, "snapshot-x", d.Name)
	assert.Equal(t, addr.Hex(), d.VerifyingContract)
	assert.Equal(t, int64(11155111), (*big.Int)(d.ChainId).Int64())
	assert.Len(t, EVMDomainTypes(), 4)

	sd := NewStarknetDomain("SN_SEPOLIA", "0x1")
	assert.Equal(t, "sx-starknet", sd.Map()["name"])
}

func hexOf(v *big.Int) string {
	return "0x" + v.Text(16)
}
