//go:build !unix && !windows

package platform

import (
	"errors"
	"io/fs"
)

// IsInUse always reports false where file locking is not observable.
func IsInUse(error) bool {
	return false
}

// IsDeferrable reports whether a failed move may succeed after a reboot.
func IsDeferrable(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
