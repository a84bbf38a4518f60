package opus

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// SendTimeout bounds how long a single frame may wait for the voice connection.
const SendTimeout = time.Minute

// StreamToVoice reads Opus frames from source and sends them on send.
// It blocks until all frames are sent, ctx is cancelled, or an error occurs.
// Returns nil on clean EOF and ctx.Err() on cancellation.
func StreamToVoice(ctx context.Context, source *FrameReader, send chan<- []byte) error {
	timer := time.NewTimer(SendTimeout)
	defer timer.Stop()

	for {
		frame, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(SendTimeout)

		select {
		case send <- frame:
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrVoiceConnClosed
		}
	}
}
