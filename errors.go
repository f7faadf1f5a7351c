package unpack

import (
	"errors"
	"fmt"
)

var (
	// ErrInterrupted is returned when a run stopped because it was
	// interrupted or its context was cancelled.
	ErrInterrupted = errors.New("unpack: interrupted")

	// ErrStreamAccounting is returned when the bytes read or written for a
	// file do not match its declared size or length. It indicates a corrupted
	// or mismatched payload.
	ErrStreamAccounting = errors.New("unpack: stream accounting mismatch")

	// ErrRenameMapping is returned when an override rename pattern cannot be
	// applied to an existing target.
	ErrRenameMapping = errors.New("unpack: cannot map rename pattern")

	// ErrNotReady is returned when Run is called while another run is in
	// progress or after the unpacker was interrupted.
	ErrNotReady = errors.New("unpack: unpacker not ready")

	// ErrUnknownPack is returned when a selected pack is not in the catalog.
	ErrUnknownPack = errors.New("unpack: unknown pack")

	// ErrNoInstallPath is returned when InstallData has no install path.
	ErrNoInstallPath = errors.New("unpack: no install path")

	// ErrUnsupportedEncoding is returned for parsable files that are not UTF-8.
	ErrUnsupportedEncoding = errors.New("unpack: unsupported encoding")
)

// Severity classifies an InstallerError.
type Severity uint8

const (
	// SeverityError stops the installation.
	SeverityError Severity = iota

	// SeverityWarning may be accepted by the user or by configuration.
	SeverityWarning
)

// String returns the name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// InstallerError reports a failed resource operation.
type InstallerError struct {
	Severity Severity
	Op       string
	Path     string
	Err      error
}

func (e *InstallerError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %v", e.Severity, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Severity, e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *InstallerError) Unwrap() error {
	return e.Err
}

// StateError is returned when an operation is not valid in the current state.
// It wraps ErrNotReady.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("unpack: cannot %s in state %s", e.Op, e.State)
}

// Unwrap returns ErrNotReady.
func (e *StateError) Unwrap() error {
	return ErrNotReady
}

func accountingError(op, path string, got, want int64) error {
	return fmt.Errorf("%w: %s %s: %d bytes, expected %d", ErrStreamAccounting, op, path, got, want)
}
