package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Go mirrors of the ABI tuples. Field names match the ABI component names so that the
// go-ethereum encoder can map them.

// StrategyTuple mirrors the Strategy{address addr, bytes params} struct.
type StrategyTuple struct {
	Addr   common.Address
	Params []byte
}

// IndexedStrategyTuple mirrors the IndexedStrategy{uint8 index, bytes params} struct.
type IndexedStrategyTuple struct {
	Index  uint8
	Params []byte
}

// MetaTransactionTuple mirrors the MetaTransaction struct consumed by avatar and timelock
// executors.
type MetaTransactionTuple struct {
	To        common.Address
	Value     *big.Int
	Data      []byte
	Operation uint8
	Salt      *big.Int
}

// MemberTuple mirrors a whitelist strategy member.
type MemberTuple struct {
	Addr common.Address
	Vp   *big.Int
}
