package resource

import (
	"errors"
	"fmt"
	"time"
)

// ConfigurationError reports a missing or mismatched provider, or
// configuration that cannot be parsed.
type ConfigurationError struct {
	Kind   Type
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Kind != "" {
		msg = fmt.Sprintf("%s configuration error", e.Kind)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configurationf builds a ConfigurationError with a formatted reason.
func Configurationf(kind Type, format string, args ...any) error {
	return &ConfigurationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// ProvisioningError reports a failed create, update or delete call against
// the cloud control plane.
type ProvisioningError struct {
	Kind Type
	// Op names the failed step, e.g. "create queue" or "set queue attributes".
	Op string
	// Name is the resource the call targeted.
	Name string
	// BaseURL is set for queue errors.
	BaseURL string
	Err     error
}

func (e *ProvisioningError) Error() string {
	msg := fmt.Sprintf("%s: failed to %s", e.Kind, e.Op)
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.BaseURL != "" {
		msg += fmt.Sprintf(" (base url %s)", e.BaseURL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// DependencyNotReadyError reports a prerequisite kind that did not become
// ready before its deadline.
type DependencyNotReadyError struct {
	Kind      Type
	DependsOn Type
	Timeout   time.Duration
}

func (e *DependencyNotReadyError) Error() string {
	return fmt.Sprintf("%s: dependency %s not ready within %s", e.Kind, e.DependsOn, e.Timeout)
}

// LockError reports that the readiness table cannot be written.
type LockError struct {
	Reason string
}

func (e *LockError) Error() string {
	return "resource status table unavailable: " + e.Reason
}

// UnknownResourceTypeError reports a kind name with no mapping.
type UnknownResourceTypeError struct {
	Value string
}

func (e *UnknownResourceTypeError) Error() string {
	return fmt.Sprintf("unknown resource type: %q", e.Value)
}

// IsConfiguration reports whether err is or wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsProvisioning reports whether err is or wraps a *ProvisioningError.
func IsProvisioning(err error) bool {
	var target *ProvisioningError
	return errors.As(err, &target)
}

// IsDependencyNotReady reports whether err is or wraps a *DependencyNotReadyError.
func IsDependencyNotReady(err error) bool {
	var target *DependencyNotReadyError
	return errors.As(err, &target)
}
