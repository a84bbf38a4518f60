package opus

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os/exec"
	"strconv"

	"github.com/jonas747/ogg"
)

const (
	SampleRate = 48000
	Channels   = 2
	// FrameDuration is the length of a single frame in milliseconds.
	FrameDuration = 20
)

// EncodeOptions controls the FFmpeg transcode.
type EncodeOptions struct {
	// Volume multiplies every decoded sample. 1 leaves the signal untouched.
	Volume float64
	// Bitrate of the Opus output in bits per second.
	Bitrate int
}

var DefaultEncodeOptions = EncodeOptions{
	Volume:  1,
	Bitrate: 64000,
}

// Args returns the FFmpeg arguments for the transcode, reading from stdin
// and writing ogg/opus to stdout.
func (o EncodeOptions) Args() []string {
	bitrate := o.Bitrate
	if bitrate <= 0 {
		bitrate = DefaultEncodeOptions.Bitrate
	}
	return []string{
		"-i", "pipe:0",
		"-vn",
		"-map", "0:a",
		"-filter:a", "volume=" + strconv.FormatFloat(o.Volume, 'f', -1, 64),
		"-acodec", "libopus",
		"-f", "ogg",
		"-vbr", "on",
		"-compression_level", "10",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-b:a", strconv.Itoa(bitrate),
		"-application", "audio",
		"-frame_duration", strconv.Itoa(FrameDuration),
		"-packet_loss", "1",
		"-threads", "0",
		"-loglevel", "warning",
		"pipe:1",
	}
}

// Encode takes any audio as an io.Reader, runs FFmpeg to transcode it to Opus,
// and returns an io.ReadCloser that produces length-prefixed Opus frames.
// The caller should read until EOF. The returned io.ReadCloser must be closed
// to clean up the FFmpeg process. Cancelling ctx kills FFmpeg.
func Encode(ctx context.Context, r io.Reader, opts EncodeOptions) (io.ReadCloser, error) {
	ffmpeg := exec.CommandContext(ctx, "ffmpeg", opts.Args()...)
	ffmpeg.Stdin = r

	stdout, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := ffmpeg.Start(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		if err := WriteFrames(pw, stdout); err != nil {
			pw.CloseWithError(err)
		}
	}()

	return &encodeCloser{ReadCloser: pr, cmd: ffmpeg}, nil
}

// WriteFrames demuxes an ogg/opus stream and writes every audio packet
// to w as a length-prefixed frame. The two ogg header packets are skipped.
func WriteFrames(w io.Writer, oggStream io.Reader) error {
	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(oggStream))

	skip := 2
	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if skip > 0 {
			skip--
			continue
		}

		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(packet)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(packet); err != nil {
			return err
		}
	}
}

// encodeCloser wraps the pipe reader and ensures the FFmpeg process is cleaned up.
type encodeCloser struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (e *encodeCloser) Close() error {
	err := e.ReadCloser.Close()
	// Kill FFmpeg if still running (e.g. pipe closed early).
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	_ = e.cmd.Wait()
	return err
}
