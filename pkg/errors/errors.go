// Package errors provides standardized error handling for the machina
// system. It implements structured error types with proper wrapping and
// classification following Go 1.20+ error handling best practices.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Network-related errors
	ErrDaemonStartFailed = errors.New("dhcp daemon failed to start")
	ErrNetworkFailed     = errors.New("network operation failed")

	// Image vault errors
	ErrImageNotFound      = errors.New("image not found")
	ErrImageAlreadyExists = errors.New("image already exists")
	ErrVaultFailed        = errors.New("vault operation failed")

	// System-related errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrTimeout       = errors.New("operation timed out")
)

// NetworkError represents an error related to the guest network service
type NetworkError struct {
	Bridge    string
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network %s: operation %s: %v", e.Bridge, e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError with the given details
func NewNetworkError(bridge, operation string, err error) *NetworkError {
	return &NetworkError{
		Bridge:    bridge,
		Operation: operation,
		Err:       err,
	}
}

// VaultError represents an error related to image vault operations
type VaultError struct {
	Image     string
	Operation string
	Err       error
}

func (e *VaultError) Error() string {
	return fmt.Sprintf("image %s: operation %s: %v", e.Image, e.Operation, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// NewVaultError creates a new VaultError with the given details
func NewVaultError(image, operation string, err error) *VaultError {
	return &VaultError{
		Image:     image,
		Operation: operation,
		Err:       err,
	}
}

// Is reports whether any error in err's chain matches target.
// Re-exported so callers don't need to import both this package and the
// standard errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message while keeping the chain intact
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
