package addrconv

import (
	"fmt"
	"sync"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
)

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *addressConverterRegistry
)

func registry() *addressConverterRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = newAddressConverterRegistry()
	})

	return defaultRegistry
}

// ToBytes converts an address string to bytes based on the chain family.
//
// Usage:
//
//	bytes, err := addrconv.ToBytes("evm", "0x742d35Cc...")
func ToBytes(family, address string) ([]byte, error) {
	converter, err := registry().converter(family)
	if err != nil {
		return nil, err
	}

	return converter.ConvertToBytes(address)
}

// Normalize returns the canonical form of address for the chain family.
func Normalize(family, address string) (string, error) {
	converter, err := registry().converter(family)
	if err != nil {
		return "", err
	}

	return converter.Normalize(address)
}

// addressConverterRegistry manages address conversion strategies for different chain families.
type addressConverterRegistry struct {
	converters map[string]Converter
}

// newAddressConverterRegistry creates a new registry with all supported chain converters pre-registered.
func newAddressConverterRegistry() *addressConverterRegistry {
	registry := &addressConverterRegistry{
		converters: make(map[string]Converter),
	}

	registry.converters[chain_selectors.FamilyEVM] = evm.AddressConverter{}
	registry.converters[chain_selectors.FamilyStarknet] = starknet.AddressConverter{}

	return registry
}

func (r *addressConverterRegistry) converter(family string) (Converter, error) {
	converter, exists := r.converters[family]
	if !exists {
		return nil, fmt.Errorf("no address converter registered for family: %s", family)
	}

	return converter, nil
}
