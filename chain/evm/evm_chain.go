package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	chainsel "github.com/smartcontractkit/chain-selectors"
)

// OnchainClient is the read-only EVM client the governance strategies and executors need.
// MultiClient and *ethclient.Client both satisfy it.
type OnchainClient interface {
	ethereum.ContractCaller

	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ProofClient fetches account and storage proofs (eth_getProof).
type ProofClient interface {
	GetProof(ctx context.Context, account common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error)
}

// Chain represents an EVM chain a space is deployed on.
type Chain struct {
	Selector uint64

	Client OnchainClient

	// SignHash signs a 32 byte digest with the key of the acting account. It is nil for read-only
	// chains.
	SignHash func([]byte) ([]byte, error)
}

// ChainSelector returns the chain selector of the chain
func (c Chain) ChainSelector() uint64 {
	return c.Selector
}

// Name returns the name of the chain, or an empty string for unknown selectors.
func (c Chain) Name() string {
	chain, ok := chainsel.ChainBySelector(c.Selector)
	if !ok {
		return ""
	}

	return chain.Name
}

// ChainID returns the EVM chain id of the chain.
func (c Chain) ChainID() (*big.Int, error) {
	id, err := chainsel.GetChainIDFromSelector(c.Selector)
	if err != nil {
		return nil, err
	}

	v, ok := new(big.Int).SetString(id, 10)
	if !ok {
		return nil, fmt.Errorf("chain selector %d has non numeric chain id %q", c.Selector, id)
	}

	return v, nil
}

// Family returns the family of the chain
func (c Chain) Family() string {
	return chainsel.FamilyEVM
}
