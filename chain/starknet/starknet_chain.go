// Package starknet provides the Starknet client, entrypoint selectors and revision 0 typed data
// hashing used by the Starknet strategies and authenticators.
package starknet

import (
	chain_selectors "github.com/smartcontractkit/chain-selectors"
)

// Chain ids of the supported Starknet networks, as short strings.
const (
	ChainIDMainnet = "SN_MAIN"
	ChainIDSepolia = "SN_SEPOLIA"
)

// Chain represents a Starknet chain a space is deployed on.
type Chain struct {
	// ChainID is the short string chain id, e.g. SN_SEPOLIA.
	ChainID string

	Client Reader
}

// Family returns the family of the chain
func (c Chain) Family() string {
	return chain_selectors.FamilyStarknet
}

// L1ChainID returns the EVM chain id Starknet settles on.
func L1ChainID(chainID string) (uint64, bool) {
	switch chainID {
	case ChainIDMainnet:
		return 1, true
	case ChainIDSepolia:
		return 11155111, true
	default:
		return 0, false
	}
}
