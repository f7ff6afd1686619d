package starknet

import (
	"fmt"
	"strings"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

// AddressLength is the byte length of a padded Starknet address.
const AddressLength = 32

// AddressToBytes converts a Starknet address (a 0x hex felt of any length) to its 32 byte form.
func AddressToBytes(address string) ([]byte, error) {
	f, err := codec.FeltFromHex(address)
	if err != nil {
		return nil, fmt.Errorf("invalid Starknet address %q: %w", address, err)
	}
	b := f.Bytes()

	return b[:], nil
}

// NormalizeAddress returns the lowercase 0x + 64 hex digit form of a Starknet address, the key
// format used by network config lookups.
func NormalizeAddress(address string) (string, error) {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fmt.Errorf("invalid Starknet address %q: missing 0x prefix", address)
	}
	b, err := AddressToBytes(address)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("0x%x", b), nil
}

// AddressConverter implements address conversion for Starknet.
type AddressConverter struct{}

// ConvertToBytes converts a Starknet address string to 32 bytes.
func (AddressConverter) ConvertToBytes(address string) ([]byte, error) {
	return AddressToBytes(address)
}

// Normalize converts a Starknet address string to its padded lowercase form.
func (AddressConverter) Normalize(address string) (string, error) {
	return NormalizeAddress(address)
}

// Supports returns true if this converter supports the given chain family.
func (AddressConverter) Supports(family string) bool {
	return family == chain_selectors.FamilyStarknet
}
