package publication

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordTarget announces approved content in a fixed channel.
type DiscordTarget struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordTarget(session *discordgo.Session, channelID string) *DiscordTarget {
	return &DiscordTarget{session: session, channelID: channelID}
}

func (t *DiscordTarget) Name() string { return "discord" }

func (t *DiscordTarget) Deliver(ctx context.Context, pub *Publication) Result {
	if t.session == nil || t.channelID == "" {
		return Result{Error: "discord target not configured"}
	}

	embed := &discordgo.MessageEmbed{
		Title:       pub.Title,
		Description: truncate(pub.Content, 2000),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("observatory %s · pub-%d", pub.Category, pub.ID),
		},
	}
	msg, err := t.session.ChannelMessageSendEmbed(t.channelID, embed)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, Detail: "message " + msg.ID}
}
