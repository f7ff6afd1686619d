// Package network holds the network configuration of the governance client: which
// authenticator, strategy and execution strategy implementation lives at which address on each
// chain.
package network

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is the file representation of network configuration.
type Manifest struct {
	// An array of networks.
	Networks []Network `yaml:"networks" toml:"networks"`
}

// Config represents the configuration of a collection of networks. This is loaded from the
// YAML or TOML manifest file/s.
type Config struct {
	// networks is a map of networks by name, so that names are unique and lookups are direct.
	networks map[string]Network
}

// NewConfig creates a new config from a slice of networks. Any duplicate names will be
// overwritten.
func NewConfig(networks []Network) *Config {
	nmap := make(map[string]Network)

	for _, network := range networks {
		nmap[network.Name] = network
	}

	return &Config{
		networks: nmap,
	}
}

// Validate ensures that all networks are valid.
func (c *Config) Validate() error {
	for _, name := range c.Names() {
		network := c.networks[name]
		if err := network.Validate(); err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}
	}

	return nil
}

// Networks returns all networks in the config, sorted by name.
func (c *Config) Networks() []Network {
	out := make([]Network, 0, len(c.networks))
	for _, name := range c.Names() {
		out = append(out, c.networks[name])
	}

	return out
}

// Names returns the sorted names of all networks.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.networks))
}

// NetworkByName retrieves a network by its name. If the network is not found, an error is
// returned.
func (c *Config) NetworkByName(name string) (Network, error) {
	network, ok := c.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("network %q not found in configuration", name)
	}

	return network, nil
}

// Merge merges another config into the current config.
// It overwrites any networks with the same name.
func (c *Config) Merge(other *Config) {
	maps.Copy(c.networks, other.networks)
}

// MarshalYAML implements the yaml.Marshaler interface for the Config struct.
func (c *Config) MarshalYAML() (any, error) {
	return Manifest{Networks: c.Networks()}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for the Config struct.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	node := Manifest{}

	if err := value.Decode(&node); err != nil {
		return err
	}

	*c = *NewConfig(node.Networks)

	return nil
}

// NetworkFilter defines a function type that filters networks based on certain criteria.
type NetworkFilter func(Network) bool

// FilterWith returns a new Config containing only Networks that pass all provided filter
// functions.
func (c *Config) FilterWith(filters ...NetworkFilter) *Config {
	networks := c.Networks()

	for _, filter := range filters {
		networks = slices.DeleteFunc(networks, func(network Network) bool {
			return !filter(network)
		})
	}

	return NewConfig(networks)
}

// ChainFamilyFilter returns a filter function that matches networks of the specified family.
func ChainFamilyFilter(chainFamily string) NetworkFilter {
	return func(network Network) bool {
		return network.IsFamily(chainFamily)
	}
}

// Load loads configuration from the specified file paths, and merges them into a single Config.
// Files ending in .toml are parsed as TOML, everything else as YAML. Every network is
// validated and its addresses normalised.
func Load(filePaths []string) (*Config, error) {
	cfg := NewConfig([]Network{})

	for _, fp := range filePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read networks file: %w", err)
		}

		fileCfg, err := Parse(data, filepath.Ext(fp))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fp, err)
		}

		cfg.Merge(fileCfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate networks configuration: %w", err)
	}

	for name, n := range cfg.networks {
		norm, err := n.Normalized()
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", name, err)
		}
		cfg.networks[name] = norm
	}

	return cfg, nil
}

// Parse decodes a manifest. ext selects the format: ".toml" or anything else for YAML.
func Parse(data []byte, ext string) (*Config, error) {
	var manifest Manifest
	if strings.EqualFold(ext, ".toml") {
		if err := toml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal networks TOML: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal networks YAML: %w", err)
	}

	return NewConfig(manifest.Networks), nil
}
