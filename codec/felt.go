// Package codec holds the byte, word and field-element conversions shared by the Merkle,
// storage-proof, strategy and authenticator packages.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// FeltSize is the byte width of a serialised field element.
const FeltSize = 32

// FieldPrime is the Starknet field modulus, 2^251 + 17*2^192 + 1.
var FieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))

	return p.Add(p, big.NewInt(1))
}()

// ErrFeltOverflow is returned when a value does not fit the Starknet field.
var ErrFeltOverflow = errors.New("value does not fit in a field element")

// FeltFromBig converts v to a felt, rejecting negative values and values >= FieldPrime instead
// of silently reducing them.
func FeltFromBig(v *big.Int) (*felt.Felt, error) {
	if v == nil {
		return new(felt.Felt), nil
	}
	if v.Sign() < 0 || v.Cmp(FieldPrime) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrFeltOverflow, v.String())
	}

	return new(felt.Felt).SetBigInt(v), nil
}

// FeltFromHex parses a 0x prefixed hex string, or a decimal string, into a felt.
func FeltFromHex(s string) (*felt.Felt, error) {
	v, err := ParseBig(s)
	if err != nil {
		return nil, err
	}

	return FeltFromBig(v)
}

// MustFelt is FeltFromHex for compile-time constants.
func MustFelt(s string) *felt.Felt {
	f, err := FeltFromHex(s)
	if err != nil {
		panic(err)
	}

	return f
}

// FeltFromUint64 converts v to a felt.
func FeltFromUint64(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

// FeltToBig converts f to a big.Int.
func FeltToBig(f *felt.Felt) *big.Int {
	return f.BigInt(new(big.Int))
}

// ParseBig parses a hex (0x prefixed) or decimal string.
func ParseBig(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty number")
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
		if s == "" {
			return new(big.Int), nil
		}
	}

	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}

	return v, nil
}

// FeltsToBytes serialises felts as consecutive 32-byte big-endian words.
func FeltsToBytes(felts []*felt.Felt) []byte {
	out := make([]byte, 0, len(felts)*FeltSize)
	for _, f := range felts {
		b := f.Bytes()
		out = append(out, b[:]...)
	}

	return out
}

// BytesToFelts is the inverse of FeltsToBytes.
func BytesToFelts(b []byte) ([]*felt.Felt, error) {
	if len(b)%FeltSize != 0 {
		return nil, fmt.Errorf("felt encoded data must be a multiple of %d bytes, got %d", FeltSize, len(b))
	}

	out := make([]*felt.Felt, 0, len(b)/FeltSize)
	for i := 0; i < len(b); i += FeltSize {
		v := new(big.Int).SetBytes(b[i : i+FeltSize])
		f, err := FeltFromBig(v)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i/FeltSize, err)
		}
		out = append(out, f)
	}

	return out, nil
}

// FeltHex renders a felt as a minimal 0x hex string.
func FeltHex(f *felt.Felt) string {
	return hexutil.EncodeBig(FeltToBig(f))
}

// SplitU256 splits a 256-bit value into its low and high 128-bit halves, the representation
// used by chains without native 256-bit integers.
func SplitU256(v *uint256.Int) (low, high *felt.Felt) {
	if v == nil {
		return new(felt.Felt), new(felt.Felt)
	}
	lo := uint256.Int{v[0], v[1], 0, 0}
	hi := uint256.Int{v[2], v[3], 0, 0}
	loBytes, hiBytes := lo.Bytes32(), hi.Bytes32()

	return new(felt.Felt).SetBytes(loBytes[:]), new(felt.Felt).SetBytes(hiBytes[:])
}

// JoinU256 is the inverse of SplitU256. Both halves must fit in 128 bits.
func JoinU256(low, high *felt.Felt) (*uint256.Int, error) {
	lo, hi := FeltToBig(low), FeltToBig(high)
	if lo.BitLen() > 128 || hi.BitLen() > 128 {
		return nil, errors.New("u256 halves must fit in 128 bits")
	}
	v := new(big.Int).Lsh(hi, 128)
	v.Or(v, lo)

	return uint256.MustFromBig(v), nil
}

// SplitU256Big is SplitU256 for big.Int inputs. It fails when v does not fit in 256 bits.
func SplitU256Big(v *big.Int) (low, high *felt.Felt, err error) {
	if v == nil {
		v = new(big.Int)
	}
	u, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, nil, fmt.Errorf("value %s does not fit in 256 bits", v.String())
	}
	low, high = SplitU256(u)

	return low, high, nil
}
