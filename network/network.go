package network

import (
	"errors"
	"fmt"
	"strings"

	chain_selectors "github.com/smartcontractkit/chain-selectors"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/addrconv"
)

// StrategyEntry is the configuration of a strategy contract.
type StrategyEntry struct {
	Type StrategyKind `yaml:"type" toml:"type"`
	// Params holds kind specific settings, decoded with DecodeParams.
	Params any `yaml:"params,omitempty" toml:"params,omitempty"`
}

// StorageProofParams are the Params of storage-proof strategies.
type StorageProofParams struct {
	// DeployedOnChain is the chain the anchoring service is queried for, e.g. SN_SEPOLIA.
	DeployedOnChain string `yaml:"deployed_on_chain"`
}

// Network maps the contract addresses of one chain to the implementations the client knows.
type Network struct {
	Name string `yaml:"name" toml:"name"`
	// Family is evm or starknet. It may be omitted when ChainSelector is set.
	Family string `yaml:"family,omitempty" toml:"family,omitempty"`
	// ChainID is the EVM chain id or the Starknet short string chain id. It may be omitted when
	// ChainSelector is set.
	ChainID string `yaml:"chain_id,omitempty" toml:"chain_id,omitempty"`
	// L1ChainID is the EVM chain id Starknet settles on. Storage-proof strategies read from it.
	L1ChainID     string `yaml:"l1_chain_id,omitempty" toml:"l1_chain_id,omitempty"`
	ChainSelector uint64 `yaml:"chain_selector,omitempty" toml:"chain_selector,omitempty"`

	Authenticators                     map[string]AuthenticatorKind `yaml:"authenticators,omitempty" toml:"authenticators,omitempty"`
	Strategies                         map[string]StrategyEntry     `yaml:"strategies,omitempty" toml:"strategies,omitempty"`
	ExecutionStrategiesImplementations map[string]string            `yaml:"execution_strategies_implementations,omitempty" toml:"execution_strategies_implementations,omitempty"`
}

// ChainFamily returns the family of the network, derived from its chain selector when not set
// explicitly.
func (n *Network) ChainFamily() (string, error) {
	if n.Family != "" {
		return n.Family, nil
	}
	if n.ChainSelector == 0 {
		return "", errors.New("family or chain selector is required")
	}

	return chain_selectors.GetSelectorFamily(n.ChainSelector)
}

// ChainIdentifier returns the chain ID as a string, derived from the chain selector when not set
// explicitly.
func (n *Network) ChainIdentifier() (string, error) {
	if n.ChainID != "" {
		return n.ChainID, nil
	}
	if n.ChainSelector == 0 {
		return "", errors.New("chain id or chain selector is required")
	}

	return chain_selectors.GetChainIDFromSelector(n.ChainSelector)
}

// Validate checks that the network is complete and that every configured kind exists on its
// family.
func (n *Network) Validate() error {
	if n.Name == "" {
		return errors.New("name is required")
	}

	family, err := n.ChainFamily()
	if err != nil {
		return err
	}
	if family != chain_selectors.FamilyEVM && family != chain_selectors.FamilyStarknet {
		return fmt.Errorf("unsupported family %q", family)
	}
	if _, err := n.ChainIdentifier(); err != nil {
		return err
	}

	for addr, kind := range n.Authenticators {
		if _, err := addrconv.Normalize(family, addr); err != nil {
			return fmt.Errorf("authenticator %s: %w", addr, err)
		}
		if !kind.SupportedOn(family) {
			return fmt.Errorf("authenticator %s: kind %q is not supported on %s", addr, kind, family)
		}
	}
	for addr, entry := range n.Strategies {
		if _, err := addrconv.Normalize(family, addr); err != nil {
			return fmt.Errorf("strategy %s: %w", addr, err)
		}
		if !entry.Type.SupportedOn(family) {
			return fmt.Errorf("strategy %s: kind %q is not supported on %s", addr, entry.Type, family)
		}
	}
	for kind, addr := range n.ExecutionStrategiesImplementations {
		if !ExecutorKind(kind).Known() {
			return fmt.Errorf("execution strategy implementation %q is unknown", kind)
		}
		if _, err := addrconv.Normalize(family, addr); err != nil {
			return fmt.Errorf("execution strategy implementation %s: %w", kind, err)
		}
	}

	return nil
}

// Normalized returns a copy of the network with every address key in canonical form.
func (n Network) Normalized() (Network, error) {
	family, err := n.ChainFamily()
	if err != nil {
		return Network{}, err
	}

	out := n
	out.Family = family
	out.Authenticators = make(map[string]AuthenticatorKind, len(n.Authenticators))
	for addr, kind := range n.Authenticators {
		key, err := addrconv.Normalize(family, addr)
		if err != nil {
			return Network{}, fmt.Errorf("authenticator %s: %w", addr, err)
		}
		out.Authenticators[key] = kind
	}
	out.Strategies = make(map[string]StrategyEntry, len(n.Strategies))
	for addr, entry := range n.Strategies {
		key, err := addrconv.Normalize(family, addr)
		if err != nil {
			return Network{}, fmt.Errorf("strategy %s: %w", addr, err)
		}
		out.Strategies[key] = entry
	}
	out.ExecutionStrategiesImplementations = make(map[string]string, len(n.ExecutionStrategiesImplementations))
	for kind, addr := range n.ExecutionStrategiesImplementations {
		norm, err := addrconv.Normalize(family, addr)
		if err != nil {
			return Network{}, fmt.Errorf("execution strategy implementation %s: %w", kind, err)
		}
		out.ExecutionStrategiesImplementations[kind] = norm
	}

	return out, nil
}

// Authenticator returns the kind of the authenticator at address. Unknown or malformed
// addresses report false.
func (n *Network) Authenticator(address string) (AuthenticatorKind, bool) {
	return lookup(n, n.Authenticators, address)
}

// Strategy returns the configuration of the strategy at address. Unknown or malformed addresses
// report false.
func (n *Network) Strategy(address string) (StrategyEntry, bool) {
	return lookup(n, n.Strategies, address)
}

// ExecutorKind returns the kind of execution strategy implemented at address, if any.
func (n *Network) ExecutorKind(address string) (ExecutorKind, bool) {
	family, err := n.ChainFamily()
	if err != nil {
		return "", false
	}
	key, err := addrconv.Normalize(family, address)
	if err != nil {
		return "", false
	}
	for kind, addr := range n.ExecutionStrategiesImplementations {
		if norm, err := addrconv.Normalize(family, addr); err == nil && norm == key {
			return ExecutorKind(kind), true
		}
	}

	return "", false
}

// ExecutorAddress returns the implementation address of an executor kind, if configured.
func (n *Network) ExecutorAddress(kind ExecutorKind) (string, bool) {
	addr, ok := n.ExecutionStrategiesImplementations[string(kind)]

	return addr, ok
}

// IsFamily reports whether the network belongs to family.
func (n *Network) IsFamily(family string) bool {
	f, err := n.ChainFamily()

	return err == nil && strings.EqualFold(f, family)
}

// lookup finds address in m, comparing canonical forms. Maps produced by Normalized hit the fast
// path.
func lookup[V any](n *Network, m map[string]V, address string) (V, bool) {
	var zero V
	family, err := n.ChainFamily()
	if err != nil {
		return zero, false
	}
	key, err := addrconv.Normalize(family, address)
	if err != nil {
		return zero, false
	}
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if norm, err := addrconv.Normalize(family, k); err == nil && norm == key {
			return v, true
		}
	}

	return zero, false
}
