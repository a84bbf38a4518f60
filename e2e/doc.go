// Package e2e drives the command dispatcher end to end with an in-memory
// chat session, voice gateway and media extractor.
package e2e
