//go:build windows

package audio_test

import (
	"testing"
	"time"

	"golang.org/x/sys/windows"

	"github.com/glizzus/jukebox/internal/audio"
)

func TestCleanupRetriesSharedFile(t *testing.T) {
	for _, errno := range []error{windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION} {
		t.Run(errno.Error(), func(t *testing.T) {
			track := backingFile(t)
			remover := &countingRemover{busyFor: 2, busy: errno}
			src := audio.NewSource(track,
				audio.WithRemover(remover.Remove),
				audio.WithRetryInterval(time.Millisecond),
			)

			if err := src.Cleanup(t.Context()); err != nil {
				t.Fatalf("Cleanup() returned error: %v", err)
			}
			if got := remover.calls.Load(); got != 3 {
				t.Errorf("remover called %d times, want 3", got)
			}
		})
	}
}
