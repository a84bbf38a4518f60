//go:build unix

package audio

import (
	"errors"

	"golang.org/x/sys/unix"
)

func platformBusy(err error) bool {
	return errors.Is(err, unix.EBUSY) || errors.Is(err, unix.ETXTBSY)
}
