package starknet

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
)

// DomainTypeName is the domain struct name of revision 0 typed data.
const DomainTypeName = "StarkNetDomain"

const messagePrefix = "StarkNet Message"

// TypeMember is one field of a typed data struct.
type TypeMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is a SNIP-12 revision 0 typed message. Values are felts given as *felt.Felt, 0x hex
// strings, decimal strings, short strings or integers; struct values are map[string]any and
// arrays are []any.
type TypedData struct {
	Types       map[string][]TypeMember `json:"types"`
	PrimaryType string                  `json:"primaryType"`
	Domain      map[string]any          `json:"domain"`
	Message     map[string]any          `json:"message"`
}

// EncodeType returns the textual encoding of a struct type followed by its dependencies in
// alphabetical order, e.g. "Vote(space:ContractAddress,proposalId:u256)u256(low:felt,high:felt)".
func (td TypedData) EncodeType(name string) (string, error) {
	if _, ok := td.Types[name]; !ok {
		return "", fmt.Errorf("type %q is not defined", name)
	}

	deps := map[string]struct{}{}
	td.collectDependencies(name, deps)
	delete(deps, name)

	names := make([]string, 0, len(deps))
	for dep := range deps {
		names = append(names, dep)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, typ := range append([]string{name}, names...) {
		b.WriteString(typ)
		b.WriteByte('(')
		for i, m := range td.Types[typ] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(m.Name)
			b.WriteByte(':')
			b.WriteString(m.Type)
		}
		b.WriteByte(')')
	}

	return b.String(), nil
}

func (td TypedData) collectDependencies(name string, seen map[string]struct{}) {
	if _, ok := seen[name]; ok {
		return
	}
	if _, ok := td.Types[name]; !ok {
		return
	}
	seen[name] = struct{}{}
	for _, m := range td.Types[name] {
		td.collectDependencies(strings.TrimSuffix(m.Type, "*"), seen)
	}
}

// TypeHash returns the starknet keccak of the encoded type.
func (td TypedData) TypeHash(name string) (*felt.Felt, error) {
	enc, err := td.EncodeType(name)
	if err != nil {
		return nil, err
	}

	return StarknetKeccak([]byte(enc)), nil
}

// StructHash hashes data as an instance of the struct type name.
func (td TypedData) StructHash(name string, data map[string]any) (*felt.Felt, error) {
	typeHash, err := td.TypeHash(name)
	if err != nil {
		return nil, err
	}

	elems := []*felt.Felt{typeHash}
	for _, m := range td.Types[name] {
		v, ok := data[m.Name]
		if !ok {
			return nil, fmt.Errorf("%s.%s is missing", name, m.Name)
		}
		enc, err := td.encodeValue(m.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, m.Name, err)
		}
		elems = append(elems, enc)
	}

	return crypto.PedersenArray(elems...), nil
}

// MessageHash returns the hash the account signs:
// pedersen_array("StarkNet Message", domain hash, account, message hash).
func (td TypedData) MessageHash(account *felt.Felt) (*felt.Felt, error) {
	domainHash, err := td.StructHash(DomainTypeName, td.Domain)
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	msgHash, err := td.StructHash(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}
	prefix, err := codec.EncodeShortString(messagePrefix)
	if err != nil {
		return nil, err
	}

	return crypto.PedersenArray(prefix, domainHash, account, msgHash), nil
}

func (td TypedData) encodeValue(typ string, v any) (*felt.Felt, error) {
	if elem, isArray := strings.CutSuffix(typ, "*"); isArray {
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array for %s, got %T", typ, v)
		}
		encoded := make([]*felt.Felt, 0, len(items))
		for i, item := range items {
			enc, err := td.encodeValue(elem, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			encoded = append(encoded, enc)
		}

		return crypto.PedersenArray(encoded...), nil
	}

	if _, isStruct := td.Types[typ]; isStruct {
		data, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected struct %s, got %T", typ, v)
		}

		return td.StructHash(typ, data)
	}

	if typ == "selector" {
		if s, ok := v.(string); ok && !isNumeric(s) {
			return GetSelectorFromName(s), nil
		}
	}

	return ToFelt(v)
}

// ToFelt converts a typed data scalar to a felt.
func ToFelt(v any) (*felt.Felt, error) {
	switch val := v.(type) {
	case *felt.Felt:
		return val, nil
	case *big.Int:
		return codec.FeltFromBig(val)
	case uint64:
		return codec.FeltFromUint64(val), nil
	case int:
		if val < 0 {
			return nil, errors.New("negative value")
		}
		return codec.FeltFromUint64(uint64(val)), nil
	case uint8:
		return codec.FeltFromUint64(uint64(val)), nil
	case bool:
		if val {
			return codec.FeltFromUint64(1), nil
		}
		return new(felt.Felt), nil
	case string:
		if isNumeric(val) {
			return codec.FeltFromHex(val)
		}
		return codec.EncodeShortString(val)
	default:
		return nil, fmt.Errorf("unsupported typed data value %T", v)
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		for _, c := range s[2:] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
				return false
			}
		}

		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}
