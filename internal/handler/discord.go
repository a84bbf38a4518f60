package handler

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type MessageCreateHandler = func(*discordgo.Session, *discordgo.MessageCreate)
type VoiceStateUpdateHandler = func(*discordgo.Session, *discordgo.VoiceStateUpdate)

// DiscordSession is the part of *discordgo.Session the dispatcher talks through.
type DiscordSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

var _ DiscordSession = (*discordgo.Session)(nil)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID, "guilds", len(r.Guilds))
}

// Intents needed to read prefixed commands and track who sits in which voice channel.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsMessageContent

type Handlers struct {
	Ready            ReadyHandler
	MessageCreate    MessageCreateHandler
	VoiceStateUpdate VoiceStateUpdateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = Intents

	if handlers.Ready != nil {
		s.AddHandler(handlers.Ready)
	}
	if handlers.MessageCreate != nil {
		s.AddHandler(handlers.MessageCreate)
	}
	if handlers.VoiceStateUpdate != nil {
		s.AddHandler(handlers.VoiceStateUpdate)
	}

	return s, nil
}
