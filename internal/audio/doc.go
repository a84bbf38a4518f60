// Package audio wraps a resolved track as a playable source whose backing
// file is deleted once playback is over.
package audio
