package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain names and versions the authenticator contracts verify against.
const (
	EVMDomainName          = "snapshot-x"
	EVMDomainVersion       = "1"
	StarknetDomainName     = "sx-starknet"
	StarknetDomainVersion  = "0.1.0"
	StarknetEthDomainName  = "snapshot-x"
	StarknetEthDomainVer   = "1"
	EIP712DomainPrimaryKey = "EIP712Domain"
)

// EVMDomain builds the EIP-712 domain of an EVM signature authenticator.
func EVMDomain(name, version string, chainID *big.Int, verifyingContract common.Address) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              name,
		Version:           version,
		ChainId:           (*math.HexOrDecimal256)(chainID),
		VerifyingContract: verifyingContract.Hex(),
	}
}

// EVMDomainTypes is the EIP712Domain type list matching EVMDomain.
func EVMDomainTypes() []apitypes.Type {
	return []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}
}

// L1DomainForStarknet builds the EIP-712 domain used by Ethereum signers authorising Starknet
// actions. The verifying contract lives on Starknet and has no 20-byte form, so the domain
// only binds the L1 chain id.
func L1DomainForStarknet(chainID *big.Int) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:    StarknetEthDomainName,
		Version: StarknetEthDomainVer,
		ChainId: (*math.HexOrDecimal256)(chainID),
	}
}

// L1DomainForStarknetTypes is the EIP712Domain type list matching L1DomainForStarknet.
func L1DomainForStarknetTypes() []apitypes.Type {
	return []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	}
}

// StarknetDomain is the SNIP-12 (revision 0) domain of a Starknet signature authenticator.
type StarknetDomain struct {
	Name              string
	Version           string
	ChainID           string
	VerifyingContract string
}

// NewStarknetDomain returns the domain for the given chain id (e.g. "SN_SEPOLIA") and
// authenticator address.
func NewStarknetDomain(chainID, verifyingContract string) StarknetDomain {
	return StarknetDomain{
		Name:              StarknetDomainName,
		Version:           StarknetDomainVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

// Map renders the domain in the shape expected by SignatureData.Domain.
func (d StarknetDomain) Map() map[string]any {
	return map[string]any{
		"name":              d.Name,
		"version":           d.Version,
		"chainId":           d.ChainID,
		"verifyingContract": d.VerifyingContract,
	}
}
