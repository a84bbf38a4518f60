package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/presenters"
)

// Resolver turns a URL into a downloaded track in two steps, so that a bad
// URL is rejected before anything already playing is touched.
type Resolver interface {
	Inspect(ctx context.Context, url string) (*media.Plan, error)
	Fetch(ctx context.Context, plan *media.Plan) (media.Track, error)
}

// VoiceLocator finds the voice channel a user is sitting in.
type VoiceLocator interface {
	// UserVoiceChannel returns "" when the user is not in voice.
	UserVoiceChannel(guildID, userID string) (string, error)
}

const DefaultResolveTimeout = 5 * time.Minute

// typingInterval refreshes the indicator before Discord drops it after 10 seconds.
const typingInterval = 8 * time.Second

type DispatcherConfig struct {
	Prefix         string
	ResolveTimeout time.Duration
	// SourceOptions apply to every source built from a resolved track.
	SourceOptions []audio.Option
	// Limiter is optional; nil disables rate limiting.
	Limiter *UserLimiter
}

// Dispatcher routes prefixed chat commands to the guild players.
type Dispatcher struct {
	players  *player.Manager
	resolver Resolver
	voice    VoiceLocator
	config   DispatcherConfig

	commands map[string]*Command
	ordered  []*Command
}

func NewDispatcher(players *player.Manager, resolver Resolver, voice VoiceLocator, config DispatcherConfig) *Dispatcher {
	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = DefaultResolveTimeout
	}
	d := &Dispatcher{
		players:  players,
		resolver: resolver,
		voice:    voice,
		config:   config,
		commands: make(map[string]*Command),
	}
	d.register(
		&Command{Name: "join", Usage: "join", Description: "Join your voice channel.", Run: d.join},
		&Command{Name: "leave", Usage: "leave", Description: "Leave the voice channel.", Run: d.leave},
		&Command{Name: "play", Usage: "play <url>", Description: "Play audio from a URL.", Run: d.play},
		&Command{Name: "stop", Usage: "stop", Description: "Stop the current track.", Run: d.stop},
		&Command{Name: "skip", Usage: "skip", Description: "Skip the current track.", Run: d.skip},
		&Command{Name: "help", Usage: "help", Description: "Show this list.", Run: d.help},
	)
	return d
}

func (d *Dispatcher) register(cmds ...*Command) {
	for _, cmd := range cmds {
		if _, exists := d.commands[cmd.Name]; exists {
			panic("command already registered: " + cmd.Name)
		}
		d.commands[cmd.Name] = cmd
		d.ordered = append(d.ordered, cmd)
	}
}

// MessageCreate is the gateway handler for chat messages.
func (d *Dispatcher) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	d.Handle(context.Background(), s, m.Message)
}

// VoiceStateUpdate notices the bot being moved out of voice by someone else.
func (d *Dispatcher) VoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State == nil || s.State.User == nil {
		return
	}
	d.HandleVoiceState(context.Background(), s.State.User.ID, v)
}

// HandleVoiceState detaches the guild player when botID left a channel
// without joining another one.
func (d *Dispatcher) HandleVoiceState(ctx context.Context, botID string, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil || v.UserID != botID || v.ChannelID != "" || v.BeforeUpdate == nil {
		return
	}
	// A leave delivered after the bot already rejoined is stale: the cached
	// voice state shows the newer connection.
	if current, err := d.voice.UserVoiceChannel(v.GuildID, botID); err == nil && current != "" {
		slog.Debug("ignoring stale voice state update", "guildID", v.GuildID, "channelID", current)
		return
	}
	p, err := d.players.Get(v.GuildID)
	if err != nil {
		return
	}
	if err := p.Detach(ctx, v.BeforeUpdate.ChannelID); err != nil {
		slog.Warn("failed to detach player", "guildID", v.GuildID, "error", err)
	}
}

// Handle runs the command in m, if any, and sends exactly one reply.
func (d *Dispatcher) Handle(ctx context.Context, s DiscordSession, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	name, args, ok := ParseCommand(d.config.Prefix, m.Content)
	if !ok {
		return
	}
	cmd, ok := d.commands[name]
	if !ok {
		return
	}

	inv := &Invocation{Session: s, Message: m, Args: args}
	if d.config.Limiter != nil && !d.config.Limiter.Allow(m.Author.ID) {
		d.reply(inv, presenters.RateLimitedContent)
		return
	}

	err := d.run(ctx, cmd, inv)
	if err == nil {
		return
	}
	content, expected := d.describe(err)
	if expected {
		slog.Info("command rejected", "command", cmd.Name, "guildID", m.GuildID, "reason", err)
	} else {
		slog.Error("command failed", "command", cmd.Name, "guildID", m.GuildID, "error", err)
	}
	d.reply(inv, content)
}

func (d *Dispatcher) run(ctx context.Context, cmd *Command, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("command panicked", "command", cmd.Name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("command %s panicked: %v", cmd.Name, r)
		}
	}()

	p, err := d.players.Get(inv.GuildID())
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	inv.Player = p
	return cmd.Run(ctx, inv)
}

func (d *Dispatcher) reply(inv *Invocation, content string) {
	if err := inv.Reply(content); err != nil {
		slog.Warn("failed to send reply", "channelID", inv.Message.ChannelID, "error", err)
	}
}

// describe maps err to the reply shown to the user. expected is false for
// failures worth an error log.
func (d *Dispatcher) describe(err error) (content string, expected bool) {
	var precondition *PreconditionError
	var userErr *UserError
	var playErr *PlayError
	switch {
	case errors.As(err, &precondition):
		return precondition.Message, true
	case errors.As(err, &userErr):
		return userErr.Message, true
	case errors.Is(err, player.ErrNotConnected):
		return presenters.NotConnectedContent, true
	case errors.Is(err, player.ErrAlreadyConnected):
		return presenters.AlreadyConnectedContent, true
	case errors.Is(err, player.ErrNotPlaying):
		return presenters.NothingPlayingContent, true
	case errors.Is(err, player.ErrLoading):
		return presenters.LoadingContent, true
	case errors.As(err, &playErr):
		var resolution *media.ResolutionError
		return presenters.PlayFailed(playErr.Err), errors.As(err, &resolution)
	}
	return presenters.Internal(), false
}
