//go:build unix

package fs

import (
	"errors"
	"syscall"
)

func isPlatformLock(err error) bool {
	return errors.Is(err, syscall.ETXTBSY)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
