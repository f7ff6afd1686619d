package network

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeParams converts the params field of a strategy entry from an any interface to a
// user-specified type using yaml marshaling.
// Example usage:
//
//	params, err := DecodeParams[StorageProofParams](entry.Params)
//	if err != nil {
//	  // handle error
//	}
func DecodeParams[T any](params any) (T, error) {
	var target T
	if params == nil {
		return target, errors.New("params is nil")
	}

	yamlBytes, err := yaml.Marshal(params)
	if err != nil {
		return target, fmt.Errorf("failed to marshal params to YAML: %w", err)
	}

	if err := yaml.Unmarshal(yamlBytes, &target); err != nil {
		return target, fmt.Errorf("failed to unmarshal params to target type: %w", err)
	}

	return target, nil
}
