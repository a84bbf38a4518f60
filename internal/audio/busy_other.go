//go:build !unix && !windows

package audio

func platformBusy(error) bool {
	return false
}
