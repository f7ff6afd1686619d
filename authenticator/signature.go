package authenticator

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// ecdsaSignature is a 65 byte [r || s || v] secp256k1 signature.
type ecdsaSignature struct {
	V uint8
	R [32]byte
	S [32]byte
}

func requireSignature(address string, sd *governance.SignatureData) error {
	if sd == nil || len(sd.Signature) == 0 {
		return &governance.MissingSignatureError{Authenticator: address}
	}

	return nil
}

// parseECDSASignature decodes the first signature entry. v is normalised to 27 or 28.
func parseECDSASignature(sd *governance.SignatureData) (ecdsaSignature, error) {
	raw, err := hexutil.Decode(sd.Signature[0])
	if err != nil {
		return ecdsaSignature{}, fmt.Errorf("invalid signature: %w", err)
	}
	if len(raw) != 65 {
		return ecdsaSignature{}, fmt.Errorf("invalid signature: expected 65 bytes, got %d", len(raw))
	}

	var sig ecdsaSignature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	sig.V = raw[64]
	if sig.V < 27 {
		sig.V += 27
	}

	return sig, nil
}

// parseStarkSignature decodes every signature entry as a felt.
func parseStarkSignature(sd *governance.SignatureData) ([]*felt.Felt, error) {
	out := make([]*felt.Felt, len(sd.Signature))
	for i, s := range sd.Signature {
		f, err := codec.FeltFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid signature element %d: %w", i, err)
		}
		out[i] = f
	}

	return out, nil
}

// messageSalt returns the salt of a signed message, or zero when the message has none.
func messageSalt(sd *governance.SignatureData) (*big.Int, error) {
	v, ok := sd.Message["salt"]
	if !ok || v == nil {
		return new(big.Int), nil
	}
	salt, err := bigFromAny(v)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}

	return salt, nil
}

// bigFromAny converts the integer representations typed messages take before and after a JSON
// round trip.
func bigFromAny(v any) (*big.Int, error) {
	switch val := v.(type) {
	case *big.Int:
		return new(big.Int).Set(val), nil
	case *math.HexOrDecimal256:
		return new(big.Int).Set((*big.Int)(val)), nil
	case string:
		return codec.ParseBig(val)
	case json.Number:
		return codec.ParseBig(val.String())
	case float64:
		f := new(big.Float).SetFloat64(val)
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", val)
		}
		i, _ := f.Int(nil)

		return i, nil
	case int:
		return big.NewInt(int64(val)), nil
	case uint64:
		return new(big.Int).SetUint64(val), nil
	default:
		return nil, fmt.Errorf("unsupported integer type %T", v)
	}
}
