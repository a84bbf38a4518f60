package handler

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/presenters"
)

// Invocation is one parsed command message.
type Invocation struct {
	Session DiscordSession
	Message *discordgo.Message
	Args    []string
	Player  *player.Player
}

func (inv *Invocation) GuildID() string {
	return inv.Message.GuildID
}

func (inv *Invocation) AuthorID() string {
	return inv.Message.Author.ID
}

// Arg returns the i-th argument, or "" when it is missing.
func (inv *Invocation) Arg(i int) string {
	if i < len(inv.Args) {
		return inv.Args[i]
	}
	return ""
}

// Reply answers the invoking message.
func (inv *Invocation) Reply(content string) error {
	_, err := inv.Session.ChannelMessageSendComplex(inv.Message.ChannelID, presenters.Reply(inv.Message, content))
	return err
}

// Command is a prefixed chat command.
type Command struct {
	Name        string
	Usage       string
	Description string
	Run         func(ctx context.Context, inv *Invocation) error
}

// ParseCommand splits "<prefix><name> args..." into its name and arguments.
// Names are case-insensitive.
func ParseCommand(prefix, content string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
