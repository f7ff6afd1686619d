package starknet

import (
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/crypto"
)

var mask250 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// StarknetKeccak is keccak256 truncated to its 250 least significant bits.
func StarknetKeccak(data []byte) *felt.Felt {
	h := new(big.Int).SetBytes(crypto.Keccak256(data))

	return new(felt.Felt).SetBigInt(h.And(h, mask250))
}

// GetSelectorFromName returns the entrypoint selector of a Cairo function.
func GetSelectorFromName(name string) *felt.Felt {
	return StarknetKeccak([]byte(name))
}

// Entrypoints of the space contract and authenticators.
var (
	SelectorPropose        = GetSelectorFromName("propose")
	SelectorVote           = GetSelectorFromName("vote")
	SelectorUpdateProposal = GetSelectorFromName("update_proposal")
	SelectorCancel         = GetSelectorFromName("cancel")

	SelectorAuthenticatePropose        = GetSelectorFromName("authenticate_propose")
	SelectorAuthenticateVote           = GetSelectorFromName("authenticate_vote")
	SelectorAuthenticateUpdateProposal = GetSelectorFromName("authenticate_update_proposal")
)
