package opus

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// MaxFrameSize is the largest packet a single Opus frame can need.
const MaxFrameSize = 1275 * 3

// FrameReader reads the frame stream produced by Encode: each frame is a
// little-endian uint16 length followed by that many bytes.
type FrameReader struct {
	r      io.Reader
	frames int
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame returns the next frame, or io.EOF once the stream ends on a
// frame boundary. A frame cut short yields io.ErrUnexpectedEOF.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(f.r, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint16(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame %d is %d bytes, larger than %d", f.frames, size, MaxFrameSize)
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(f.r, frame); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	f.frames++
	return frame, nil
}

// Played is the audio duration of the frames read so far.
func (f *FrameReader) Played() time.Duration {
	return time.Duration(f.frames) * FrameDuration * time.Millisecond
}
