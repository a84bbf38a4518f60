//go:build windows

package audio

import (
	"errors"

	"golang.org/x/sys/windows"
)

// A file still held by the player process cannot be deleted on Windows.
func platformBusy(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
