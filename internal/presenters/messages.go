package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// noMentions keeps titles and error text from pinging anyone.
var noMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}

// Reply builds a plain reply to the message that invoked a command.
func Reply(to *discordgo.Message, content string) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: noMentions,
	}
	if to != nil && to.ID != "" {
		send.Reference = to.Reference()
	}
	return send
}

const (
	NotInVoiceContent       = "You need to be in a voice channel for me to join."
	NotConnectedContent     = "I'm not in a voice channel."
	AlreadyConnectedContent = "I'm already in a voice channel."
	NothingPlayingContent   = "Nothing is playing right now."
	LoadingContent          = "Another track is still loading, try again in a moment."
	RateLimitedContent      = "Slow down, you're sending commands too quickly."
	LeftContent             = "Left the voice channel."
	StoppedContent          = "Music stopped."
	SkippedContent          = "Track skipped."
)

func Joined(channelID string) string {
	return fmt.Sprintf("Joined <#%s>.", channelID)
}

func NowPlaying(title string) string {
	return fmt.Sprintf("Now playing: **%s**", escape(title))
}

func PlayFailed(err error) string {
	return fmt.Sprintf("Error while playing the track: %s", escape(err.Error()))
}

func Usage(prefix, usage string) string {
	return fmt.Sprintf("Usage: `%s%s`", prefix, usage)
}

// CommandHelp is one line of the help listing.
type CommandHelp struct {
	Usage       string
	Description string
}

func Help(prefix string, commands []CommandHelp) string {
	var b strings.Builder
	b.WriteString("**Commands**")
	for _, c := range commands {
		fmt.Fprintf(&b, "\n`%s%s` %s", prefix, c.Usage, c.Description)
	}
	return b.String()
}

func Internal() string {
	return "Something went wrong while running that command."
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
