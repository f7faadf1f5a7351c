//go:build unix

package platform

import (
	"errors"
	"io/fs"
	"syscall"
)

// IsInUse reports whether err means the target is locked by a running
// process. Replacing such a file has to wait for a reboot.
func IsInUse(err error) bool {
	return errors.Is(err, syscall.ETXTBSY) || errors.Is(err, syscall.EBUSY)
}

// IsDeferrable reports whether a failed move may succeed after a reboot.
func IsDeferrable(err error) bool {
	return IsInUse(err) || errors.Is(err, fs.ErrPermission)
}
