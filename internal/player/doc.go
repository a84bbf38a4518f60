// Package player runs one playback state machine per guild.
//
// Every guild has a single goroutine that owns its voice connection and the
// current playback. Commands are closures posted to that goroutine and
// awaited; playback completion is posted back the same way, so guild state is
// never touched from two goroutines. A playback is identified by its Handle:
// whichever of a manual stop or natural completion claims the current handle
// first ends it, and the other becomes a no-op.
package player
