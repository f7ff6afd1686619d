package merkle

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

// evmAddressLen is the length of a 0x prefixed 20-byte address.
const evmAddressLen = 42

// ParseWhitelist parses "address:power" lines. Blank lines are skipped. 42 character addresses
// are Ethereum addresses, any other hex address is a Starknet address.
func ParseWhitelist(text string) ([]Leaf, error) {
	var leaves []Leaf

	sc := bufio.NewScanner(strings.NewReader(text))
	for line := 1; sc.Scan(); line++ {
		entry := strings.TrimSpace(sc.Text())
		if entry == "" {
			continue
		}

		addr, power, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected address:power, got %q", line, entry)
		}
		addr, power = strings.TrimSpace(addr), strings.TrimSpace(power)

		if !strings.HasPrefix(addr, "0x") {
			return nil, fmt.Errorf("line %d: address %q must be 0x prefixed hex", line, addr)
		}
		if _, err := codec.FeltFromHex(addr); err != nil {
			return nil, fmt.Errorf("line %d: address %q: %w", line, addr, err)
		}

		vp, err := parseUint256(power)
		if err != nil {
			return nil, fmt.Errorf("line %d: voting power %q: %w", line, power, err)
		}

		t := AddressTypeStarknet
		if len(addr) == evmAddressLen {
			t = AddressTypeEthereum
		}
		leaves = append(leaves, NewLeaf(t, strings.ToLower(addr), vp))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return leaves, nil
}

// jsonLeaf is the shape of a leaf inside strategy metadata payloads.
type jsonLeaf struct {
	Type        AddressType `json:"type"`
	Address     string      `json:"address"`
	VotingPower string      `json:"votingPower"`
}

// MarshalJSON implements json.Marshaler. Voting power is written as a decimal string.
func (l Leaf) MarshalJSON() ([]byte, error) {
	vp := "0"
	if l.VotingPower != nil {
		vp = l.VotingPower.Dec()
	}

	return json.Marshal(jsonLeaf{Type: l.Type, Address: l.Address, VotingPower: vp})
}

// UnmarshalJSON implements json.Unmarshaler. Voting power may be decimal or 0x hex.
func (l *Leaf) UnmarshalJSON(data []byte) error {
	var raw jsonLeaf
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type > AddressTypeCustom {
		return fmt.Errorf("unknown address type %d", raw.Type)
	}
	vp, err := parseUint256(raw.VotingPower)
	if err != nil {
		return fmt.Errorf("voting power %q: %w", raw.VotingPower, err)
	}
	*l = NewLeaf(raw.Type, raw.Address, vp)

	return nil
}

// EncodeParams returns the strategy params of a whitelisted voter:
// [type, address, votingPower.low, votingPower.high, len(proof), proof...].
func EncodeParams(leaf Leaf, proof []*felt.Felt) ([]*felt.Felt, error) {
	felts, err := leaf.Felts()
	if err != nil {
		return nil, err
	}
	out := make([]*felt.Felt, 0, len(felts)+1+len(proof))
	out = append(out, felts...)
	out = append(out, codec.FeltFromUint64(uint64(len(proof))))

	return append(out, proof...), nil
}

func parseUint256(s string) (*uint256.Int, error) {
	v, err := codec.ParseBig(s)
	if err != nil {
		return nil, err
	}
	u, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, fmt.Errorf("%s does not fit in 256 bits", s)
	}

	return u, nil
}
