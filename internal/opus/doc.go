// Package opus handles encoding, decoding, and streaming of Opus audio frames
// for Discord voice playback.
//
// Frames travel in a minimal binary format: concatenated length-prefixed frames
// ([uint16 LE length][opus bytes]). No headers, no metadata.
//
// Encode transcodes any audio to Opus via FFmpeg and produces length-prefixed frames,
// scaling samples by a volume multiplier on the way. FrameReader reads them back.
// StreamToVoice sends frames to a voice connection's send channel.
package opus
