package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/opus"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/util"
)

// Gateway joins voice channels and looks up voice states through a
// discordgo session. The session must request the GuildVoiceStates intent.
type Gateway struct {
	session *discordgo.Session
}

func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{session: s}
}

// Join connects to a voice channel. Joining another channel of a guild the
// bot is already connected to moves the existing connection.
func (g *Gateway) Join(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := g.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("unable to join the voice channel: %w", err)
	}
	slog.Info("joined voice channel", "guildID", guildID, "channelID", channelID)
	return &Connection{vc: vc}, nil
}

// UserVoiceChannel returns the voice channel userID is connected to in
// guildID, or "" if the user is not in voice.
func (g *Gateway) UserVoiceChannel(guildID, userID string) (string, error) {
	state := g.session.State
	guild, err := state.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("unable to look up guild %s: %w", guildID, err)
	}

	state.RLock()
	defer state.RUnlock()
	vs, ok := util.FindFirst(guild.VoiceStates, func(vs *discordgo.VoiceState) bool {
		return vs.UserID == userID
	})
	if !ok {
		return "", nil
	}
	return vs.ChannelID, nil
}

var _ player.Gateway = (*Gateway)(nil)

// Connection plays Opus frames into a discordgo voice connection.
type Connection struct {
	vc *discordgo.VoiceConnection
}

// Play streams length-prefixed Opus frames until they run out or ctx ends.
func (c *Connection) Play(ctx context.Context, frames io.Reader) error {
	if err := c.vc.Speaking(true); err != nil {
		return fmt.Errorf("error setting speaking state to 'true': %w", err)
	}
	defer func() {
		if err := c.vc.Speaking(false); err != nil {
			slog.Error("failed to stop speaking", "error", err)
		}
	}()

	reader := opus.NewFrameReader(frames)
	err := opus.StreamToVoice(ctx, reader, c.vc.OpusSend)
	slog.Debug("voice stream ended", "guildID", c.vc.GuildID, "played", reader.Played(), "error", err)
	return err
}

func (c *Connection) Disconnect() error {
	if err := c.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

var _ player.Connection = (*Connection)(nil)
