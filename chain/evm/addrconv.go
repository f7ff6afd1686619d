package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	chain_selectors "github.com/smartcontractkit/chain-selectors"
)

// AddressToBytes converts an EVM address string to bytes.
// EVM addresses are hex strings (with or without 0x prefix) representing 20 bytes.
func AddressToBytes(address string) ([]byte, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid EVM address format: %s", address)
	}

	return common.HexToAddress(address).Bytes(), nil
}

// NormalizeAddress returns the lowercase 0x form of an EVM address, the key format used by
// network config lookups.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid EVM address format: %s", address)
	}

	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// AddressConverter implements address conversion for EVM-compatible chains.
type AddressConverter struct{}

// ConvertToBytes converts an EVM address string to bytes.
func (AddressConverter) ConvertToBytes(address string) ([]byte, error) {
	return AddressToBytes(address)
}

// Normalize converts an EVM address string to its lowercase canonical form.
func (AddressConverter) Normalize(address string) (string, error) {
	return NormalizeAddress(address)
}

// Supports returns true if this converter supports the given chain family.
func (AddressConverter) Supports(family string) bool {
	return family == chain_selectors.FamilyEVM
}
