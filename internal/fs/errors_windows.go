//go:build windows

package fs

import (
	"errors"
	"syscall"
)

// Win32 codes not exported by package syscall.
const (
	errorNotSameDevice    syscall.Errno = 17
	errorSharingViolation syscall.Errno = 32
	errorLockViolation    syscall.Errno = 33
)

func isPlatformLock(err error) bool {
	return errors.Is(err, errorSharingViolation) || errors.Is(err, errorLockViolation)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice)
}
