package governance

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedCall is returned by strategies asked to authorise a call they cannot serve,
	// e.g. a storage-proof strategy asked for propose params.
	ErrUnsupportedCall = errors.New("strategy does not support this call")
	// ErrUnsupportedAction is returned by authenticators that cannot carry an action.
	ErrUnsupportedAction = errors.New("authenticator does not support this action")
)

// NotReadyYetDetails is the Details value of a NotReadyYetError.
const NotReadyYetDetails = "NOT_READY_YET"

// ConfigurationError reports an unknown or unsupported strategy, authenticator or executor.
// The caller must fix the configuration; retrying will not help.
type ConfigurationError struct {
	Component string
	Address   string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s %s is not configured", e.Component, e.Address)
	}

	return fmt.Sprintf("%s %s: %s", e.Component, e.Address, e.Reason)
}

// MissingMetadataError reports a strategy that requires metadata the caller did not supply.
type MissingMetadataError struct {
	Strategy string
	Field    string
}

func (e *MissingMetadataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("strategy %s requires metadata", e.Strategy)
	}

	return fmt.Sprintf("strategy %s requires metadata field %q", e.Strategy, e.Field)
}

// SignerNotWhitelistedError reports an address that is not part of a whitelist. This is
// distinct from being whitelisted with zero voting power.
type SignerNotWhitelistedError struct {
	Address string
}

func (e *SignerNotWhitelistedError) Error() string {
	return fmt.Sprintf("signer %s is not whitelisted", e.Address)
}

// NotReadyYetError reports that the anchoring service has not computed the requested anchor
// yet. It is retryable: callers decide whether to poll or abort based on Details.
type NotReadyYetError struct {
	Details   string
	Timestamp uint64
}

func (e *NotReadyYetError) Error() string {
	return fmt.Sprintf("anchor for timestamp %d is not available yet: %s", e.Timestamp, e.Details)
}

// NewNotReadyYetError returns a NotReadyYetError for the given L2 timestamp.
func NewNotReadyYetError(timestamp uint64) *NotReadyYetError {
	return &NotReadyYetError{Details: NotReadyYetDetails, Timestamp: timestamp}
}

// IsNotReadyYet reports whether err is, or wraps, a NotReadyYetError.
func IsNotReadyYet(err error) bool {
	var nry *NotReadyYetError
	return errors.As(err, &nry)
}

// RelayRejectionError carries the relay's error message unmodified.
type RelayRejectionError struct {
	Message string
}

func (e *RelayRejectionError) Error() string {
	return e.Message
}

// MissingSignatureError is returned when a signature-family authenticator is asked to build a
// call from an envelope that carries no signature data.
type MissingSignatureError struct {
	Authenticator string
}

func (e *MissingSignatureError) Error() string {
	return fmt.Sprintf("authenticator %s requires signature data", e.Authenticator)
}

// InsufficientExecutionDataError is returned when an execution payload cannot be built from the
// given input.
type InsufficientExecutionDataError struct {
	Kind string
}

func (e *InsufficientExecutionDataError) Error() string {
	return fmt.Sprintf("not enough data to create execution for strategy type %s", e.Kind)
}
