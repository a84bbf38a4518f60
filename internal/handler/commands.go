package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/presenters"
)

func (d *Dispatcher) join(ctx context.Context, inv *Invocation) error {
	channelID, err := d.callerChannel(inv)
	if err != nil {
		return err
	}
	if channelID == "" {
		return &PreconditionError{Message: presenters.NotInVoiceContent}
	}
	if err := inv.Player.Join(ctx, channelID); err != nil {
		return err
	}
	return inv.Reply(presenters.Joined(channelID))
}

func (d *Dispatcher) leave(ctx context.Context, inv *Invocation) error {
	if err := inv.Player.Leave(ctx); err != nil {
		return err
	}
	return inv.Reply(presenters.LeftContent)
}

func (d *Dispatcher) play(ctx context.Context, inv *Invocation) error {
	url := strings.Trim(inv.Arg(0), "<>")
	if url == "" {
		return &UserError{Message: presenters.Usage(d.config.Prefix, "play <url>")}
	}

	release, err := inv.Player.Reserve()
	if err != nil {
		return err
	}
	defer release()

	channelID, err := d.callerChannel(inv)
	if err != nil {
		return err
	}
	joined, err := inv.Player.EnsureConnected(ctx, channelID)
	switch {
	case errors.Is(err, player.ErrNotConnected):
		return &PreconditionError{Message: presenters.NotInVoiceContent}
	case err != nil:
		return err
	case joined:
		slog.Info("joined voice for playback", "guildID", inv.GuildID(), "channelID", channelID)
	}

	resolveCtx, cancel := context.WithTimeout(ctx, d.config.ResolveTimeout)
	defer cancel()
	stopTyping := keepTyping(resolveCtx, inv)
	defer stopTyping()

	plan, err := d.resolver.Inspect(resolveCtx, url)
	if err != nil {
		return &PlayError{URL: url, Err: err}
	}
	// The current file is gone before the next one is downloaded.
	if _, err := inv.Player.Stop(ctx); err != nil && !errors.Is(err, player.ErrNotPlaying) {
		return err
	}
	track, err := d.resolver.Fetch(resolveCtx, plan)
	stopTyping()
	if err != nil {
		return &PlayError{URL: url, Err: err}
	}

	src := audio.NewSource(track, d.config.SourceOptions...)
	handle, err := inv.Player.Play(ctx, src)
	if err != nil {
		return &PlayError{URL: url, Err: err}
	}
	slog.Info("now playing", "guildID", inv.GuildID(), "playbackID", handle.ID, "url", url)
	return inv.Reply(presenters.NowPlaying(handle.Title()))
}

func (d *Dispatcher) stop(ctx context.Context, inv *Invocation) error {
	if _, err := inv.Player.Stop(ctx); err != nil {
		return err
	}
	return inv.Reply(presenters.StoppedContent)
}

func (d *Dispatcher) skip(ctx context.Context, inv *Invocation) error {
	if _, err := inv.Player.Stop(ctx); err != nil {
		return err
	}
	return inv.Reply(presenters.SkippedContent)
}

func (d *Dispatcher) help(ctx context.Context, inv *Invocation) error {
	lines := make([]presenters.CommandHelp, 0, len(d.ordered))
	for _, cmd := range d.ordered {
		lines = append(lines, presenters.CommandHelp{Usage: cmd.Usage, Description: cmd.Description})
	}
	return inv.Reply(presenters.Help(d.config.Prefix, lines))
}

func (d *Dispatcher) callerChannel(inv *Invocation) (string, error) {
	channelID, err := d.voice.UserVoiceChannel(inv.GuildID(), inv.AuthorID())
	if err != nil {
		return "", fmt.Errorf("failed to locate caller: %w", err)
	}
	return channelID, nil
}

// keepTyping shows the typing indicator until ctx ends or the returned func is called.
func keepTyping(ctx context.Context, inv *Invocation) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			if err := inv.Session.ChannelTyping(inv.Message.ChannelID); err != nil {
				slog.Debug("failed to send typing indicator", "channelID", inv.Message.ChannelID, "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
