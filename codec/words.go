package codec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// WordSize is the byte width of a proof word.
const WordSize = 8

// BytesToWords64 splits b into big-endian 64-bit words. The final word holds the remaining
// 1..7 bytes right-aligned when len(b) is not a multiple of WordSize, so the original length
// must travel alongside the words.
func BytesToWords64(b []byte) []uint64 {
	words := make([]uint64, 0, (len(b)+WordSize-1)/WordSize)
	for i := 0; i < len(b); i += WordSize {
		end := min(i+WordSize, len(b))
		var buf [WordSize]byte
		copy(buf[WordSize-(end-i):], b[i:end])
		words = append(words, binary.BigEndian.Uint64(buf[:]))
	}

	return words
}

// Words64ToBytes reverses BytesToWords64 given the original byte length.
func Words64ToBytes(words []uint64, size int) ([]byte, error) {
	want := (size + WordSize - 1) / WordSize
	if len(words) != want {
		return nil, fmt.Errorf("%d bytes need %d words, got %d", size, want, len(words))
	}

	out := make([]byte, 0, size)
	for i, w := range words {
		var buf [WordSize]byte
		binary.BigEndian.PutUint64(buf[:], w)
		n := WordSize
		if i == len(words)-1 && size%WordSize != 0 {
			n = size % WordSize
			if w>>(8*uint(n)) != 0 {
				return nil, fmt.Errorf("final word %#x does not fit in %d bytes", w, n)
			}
		}
		out = append(out, buf[WordSize-n:]...)
	}

	return out, nil
}

// PadHex returns s as lowercase 0x hex left-padded with zeros to byteLen bytes.
func PadHex(s string, byteLen int) (string, error) {
	v, err := ParseBig(s)
	if err != nil {
		return "", err
	}
	if v.Sign() < 0 || (v.BitLen()+7)/8 > byteLen {
		return "", fmt.Errorf("%s does not fit in %d bytes", s, byteLen)
	}

	h := v.Text(16)

	return "0x" + strings.Repeat("0", byteLen*2-len(h)) + h, nil
}

// DecodeHex decodes 0x hex bytes, accepting an empty string or a bare "0x" as empty and
// left-padding odd-length input.
func DecodeHex(s string) ([]byte, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if h == "" {
		return []byte{}, nil
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}

	return hex.DecodeString(h)
}
