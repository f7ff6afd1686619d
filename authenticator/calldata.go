package authenticator

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// calldata accumulates Starknet felt calldata. The first error sticks and later appends are
// ignored.
type calldata struct {
	felts []*felt.Felt
	err   error
}

func (c *calldata) felt(f ...*felt.Felt) *calldata {
	c.felts = append(c.felts, f...)
	return c
}

func (c *calldata) uint(v uint64) *calldata {
	return c.felt(codec.FeltFromUint64(v))
}

// hex appends a felt given as 0x hex: contract addresses and Ethereum addresses alike.
func (c *calldata) hex(name, s string) *calldata {
	if c.err != nil {
		return c
	}
	f, err := codec.FeltFromHex(s)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
		return c
	}

	return c.felt(f)
}

func (c *calldata) array(f []*felt.Felt) *calldata {
	return c.uint(uint64(len(f))).felt(f...)
}

// bytesArray appends felt encoded bytes as a length prefixed array.
func (c *calldata) bytesArray(name string, b []byte) *calldata {
	if c.err != nil {
		return c
	}
	f, err := codec.BytesToFelts(b)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
		return c
	}

	return c.array(f)
}

func (c *calldata) u256(name string, v *big.Int) *calldata {
	if c.err != nil {
		return c
	}
	low, high, err := codec.SplitU256Big(v)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
		return c
	}

	return c.felt(low, high)
}

func (c *calldata) bigFelt(name string, v *big.Int) *calldata {
	if c.err != nil {
		return c
	}
	f, err := codec.FeltFromBig(v)
	if err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
		return c
	}

	return c.felt(f)
}

func (c *calldata) longString(s string) *calldata {
	return c.array(codec.SplitLongString(s))
}

func (c *calldata) strategy(s governance.Strategy) *calldata {
	return c.hex("execution strategy", s.Address).bytesArray("execution strategy params", s.Params)
}

func (c *calldata) indexedStrategies(strategies []governance.IndexedStrategy) *calldata {
	c.uint(uint64(len(strategies)))
	for _, s := range strategies {
		index, err := strategyIndex(s.Index)
		if err != nil && c.err == nil {
			c.err = err
		}
		c.uint(uint64(index)).bytesArray(fmt.Sprintf("strategy %d params", s.Index), s.Params)
	}

	return c
}

func (c *calldata) concat(o *calldata) *calldata {
	if c.err == nil {
		c.err = o.err
	}

	return c.felt(o.felts...)
}

func (c *calldata) result() ([]*felt.Felt, error) {
	if c.err != nil {
		return nil, c.err
	}

	return c.felts, nil
}

// Space entrypoint arguments shared by every Starknet authenticator. The first element is
// always the space address.

func starknetProposeArgs(p governance.Propose, args ProposeArgs) *calldata {
	c := &calldata{}

	return c.hex("space", p.Space).
		hex("author", p.Author).
		longString(p.MetadataURI).
		strategy(p.ExecutionStrategy).
		bytesArray("validation params", args.ValidationParams)
}

func starknetVoteArgs(v governance.Vote, args VoteArgs) *calldata {
	c := &calldata{}

	return c.hex("space", v.Space).
		hex("voter", v.Voter).
		u256("proposal", proposalID(v.Proposal)).
		uint(uint64(v.Choice)).
		indexedStrategies(args.Strategies).
		longString(v.MetadataURI)
}

func starknetUpdateProposalArgs(u governance.UpdateProposal) *calldata {
	c := &calldata{}

	return c.hex("space", u.Space).
		hex("author", u.Author).
		u256("proposal", proposalID(u.Proposal)).
		strategy(u.ExecutionStrategy).
		longString(u.MetadataURI)
}
