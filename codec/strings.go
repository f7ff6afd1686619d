package codec

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
)

// ShortStringMaxLen is the number of ASCII bytes a single felt can carry.
const ShortStringMaxLen = 31

// EncodeShortString packs an ASCII string of at most 31 bytes into a felt.
func EncodeShortString(s string) (*felt.Felt, error) {
	if len(s) > ShortStringMaxLen {
		return nil, fmt.Errorf("short string %q exceeds %d bytes", s, ShortStringMaxLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return nil, fmt.Errorf("short string %q is not ASCII", s)
		}
	}

	return new(felt.Felt).SetBytes([]byte(s)), nil
}

// DecodeShortString unpacks a felt produced by EncodeShortString.
func DecodeShortString(f *felt.Felt) string {
	return string(FeltToBig(f).Bytes())
}

// SplitLongString splits s into 31-byte chunks, each packed as a short string. This is how
// metadata URIs travel in Starknet calldata.
func SplitLongString(s string) []*felt.Felt {
	out := make([]*felt.Felt, 0, (len(s)+ShortStringMaxLen-1)/ShortStringMaxLen)
	for i := 0; i < len(s); i += ShortStringMaxLen {
		end := min(i+ShortStringMaxLen, len(s))
		out = append(out, new(felt.Felt).SetBytes([]byte(s[i:end])))
	}

	return out
}

// JoinLongString is the inverse of SplitLongString.
func JoinLongString(felts []*felt.Felt) string {
	var b []byte
	for _, f := range felts {
		b = append(b, FeltToBig(f).Bytes()...)
	}

	return string(b)
}

// BigFromFelts converts felts to big ints, the form ABI encoders expect for uint256[] values.
func BigFromFelts(felts []*felt.Felt) []*big.Int {
	out := make([]*big.Int, len(felts))
	for i, f := range felts {
		out[i] = FeltToBig(f)
	}

	return out
}
