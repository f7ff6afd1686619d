/*
Package addrconv normalises and converts addresses of the chain families a governance space can
live on.

Network configs key authenticators and strategies by address. Addresses reach the client in
whatever form a wallet, indexer or user typed them, so every lookup goes through Normalize first:

	key, err := addrconv.Normalize(chain_selectors.FamilyStarknet, "0x2A0a8f3B...")
	// key == "0x02a0a8f3b..." (0x + 64 lowercase hex digits)

# Supported Chain Families

	EVM:
	  - Family: chain_selectors.FamilyEVM
	  - Canonical form: lowercase 0x hex (20 bytes)

	Starknet:
	  - Family: chain_selectors.FamilyStarknet
	  - Canonical form: lowercase 0x hex left padded to 32 bytes; the value must be a field element
*/
package addrconv
