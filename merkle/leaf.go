// Package merkle builds and verifies the Poseidon Merkle trees behind whitelist voting power.
//
// Trees are rebuilt from the ordered leaf list on every call; nothing is cached.
package merkle

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

// AddressType tags the family an address in a leaf belongs to.
type AddressType uint8

const (
	AddressTypeStarknet AddressType = 0
	AddressTypeEthereum AddressType = 1
	AddressTypeCustom   AddressType = 2
)

// String implements fmt.Stringer.
func (t AddressType) String() string {
	switch t {
	case AddressTypeStarknet:
		return "STARKNET"
	case AddressTypeEthereum:
		return "ETHEREUM"
	case AddressTypeCustom:
		return "CUSTOM"
	default:
		return fmt.Sprintf("AddressType(%d)", uint8(t))
	}
}

// Leaf is a single whitelist entry.
type Leaf struct {
	Type        AddressType
	Address     string
	VotingPower *uint256.Int
}

// NewLeaf returns a leaf for address with the given voting power.
func NewLeaf(t AddressType, address string, votingPower *uint256.Int) Leaf {
	return Leaf{Type: t, Address: address, VotingPower: votingPower}
}

// AddressFelt returns the address as a field element.
func (l Leaf) AddressFelt() (*felt.Felt, error) {
	f, err := codec.FeltFromHex(l.Address)
	if err != nil {
		return nil, fmt.Errorf("leaf address %s: %w", l.Address, err)
	}

	return f, nil
}

// Felts returns the leaf as [type, address, votingPower.low, votingPower.high].
func (l Leaf) Felts() ([]*felt.Felt, error) {
	addr, err := l.AddressFelt()
	if err != nil {
		return nil, err
	}
	low, high := codec.SplitU256(l.VotingPower)

	return []*felt.Felt{codec.FeltFromUint64(uint64(l.Type)), addr, low, high}, nil
}

// Hash returns PoseidonHashMany(type, address, votingPower.low, votingPower.high).
func (l Leaf) Hash() (*felt.Felt, error) {
	felts, err := l.Felts()
	if err != nil {
		return nil, err
	}

	return crypto.PoseidonArray(felts...), nil
}

// Matches reports whether the leaf belongs to address. Addresses are compared as numbers so
// case and zero padding do not matter.
func (l Leaf) Matches(address string) bool {
	want, err := codec.FeltFromHex(address)
	if err != nil {
		return strings.EqualFold(l.Address, address)
	}
	got, err := l.AddressFelt()
	if err != nil {
		return false
	}

	return got.Equal(want)
}

// Hashes returns the hash of every leaf, in order.
func Hashes(leaves []Leaf) ([]*felt.Felt, error) {
	out := make([]*felt.Felt, len(leaves))
	for i, l := range leaves {
		h, err := l.Hash()
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		out[i] = h
	}

	return out, nil
}

// IndexOf returns the position of the first leaf matching address, or -1.
func IndexOf(leaves []Leaf, address string) int {
	for i, l := range leaves {
		if l.Matches(address) {
			return i
		}
	}

	return -1
}
