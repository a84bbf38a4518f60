// Package media resolves a user-supplied URL into a local audio file.
//
// Resolution happens in two passes over an Extractor: the first reads metadata
// without downloading and derives the file name the extractor will write,
// the second downloads the audio and transcodes it to the target container.
package media
