package announce

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/umputun/ctfbot/pkg/discord"
	"github.com/umputun/ctfbot/pkg/domain"
)

// teamColor is the embed color of team ranking messages
const teamColor = 0x5865F2

// RankFetcher retrieves team ranking
type RankFetcher interface {
	Fetch(ctx context.Context, teamID string) (domain.TeamRank, error)
}

// TeamReporter posts team ranking to a webhook
type TeamReporter struct {
	fetcher RankFetcher
	poster  Poster
}

// NewTeamReporter makes a team reporter
func NewTeamReporter(fetcher RankFetcher, poster Poster) *TeamReporter {
	return &TeamReporter{fetcher: fetcher, poster: poster}
}

// Run scrapes team ranking and posts it as a single embed
func (r *TeamReporter) Run(ctx context.Context, webhookURL, teamID string) error {
	rank, err := r.fetcher.Fetch(ctx, teamID)
	if err != nil {
		return fmt.Errorf("fetch team rank: %w", err)
	}
	log.Printf("[INFO] team %s, overall place %s, country place %s", rank.TeamID, rank.OverallPlace, rank.CountryPlace)

	msg := discord.Message{Embeds: []*discordgo.MessageEmbed{RenderRank(rank)}}
	if err := r.poster.Post(ctx, webhookURL, msg); err != nil {
		return fmt.Errorf("post team rank: %w", err)
	}
	return nil
}

// RenderRank makes team ranking embed
func RenderRank(rank domain.TeamRank) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("[Team %s](%s)\nOverall rating place: **%s**\nCountry place: **%s**",
		rank.TeamID, rank.PageURL, rank.OverallPlace, rank.CountryPlace)
	return discord.NewEmbed(desc, teamColor)
}
