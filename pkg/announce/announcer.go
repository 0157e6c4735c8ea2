// Package announce builds and posts webhook messages for upcoming events and team ranking
package announce

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/ctfbot/pkg/discord"
	"github.com/umputun/ctfbot/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/poster.go -pkg mocks -skip-ensure -fmt goimports . Poster
//go:generate moq -out mocks/rank_fetcher.go -pkg mocks -skip-ensure -fmt goimports . RankFetcher

// ErrNoEvents is returned when the feed has no events to take maximum weight from
var ErrNoEvents = errors.New("no events in feed")

// Fetcher retrieves validated events
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Event, error)
}

// Poster delivers messages to a webhook
type Poster interface {
	Post(ctx context.Context, webhookURL string, msg discord.Message) error
}

// Announcer posts upcoming online events to a webhook
type Announcer struct {
	fetcher Fetcher
	poster  Poster
	params  Params
}

// Params defines announcer parameters
type Params struct {
	Lookahead     time.Duration    // events starting within this window are posted, 7 days if not set
	Header        bool             // add date range line as message content
	MaxEmbeds     int              // cap on number of embeds, 0 for unlimited
	StandardColor bool             // use standard 24-bit color packing
	Now           func() time.Time // clock, time.Now if not set
}

// NewAnnouncer makes an announcer
func NewAnnouncer(fetcher Fetcher, poster Poster, params Params) *Announcer {
	if params.Lookahead <= 0 {
		params.Lookahead = 7 * 24 * time.Hour
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Announcer{fetcher: fetcher, poster: poster, params: params}
}

// Run fetches events, selects upcoming online ones and posts them as a single message
func (a *Announcer) Run(ctx context.Context, webhookURL string) error {
	events, err := a.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	log.Printf("[DEBUG] fetched %d events", len(events))

	msg, err := a.Message(events)
	if err != nil {
		return err
	}

	if err := a.poster.Post(ctx, webhookURL, msg); err != nil {
		return fmt.Errorf("post events: %w", err)
	}
	log.Printf("[INFO] posted %d events", len(msg.Embeds))
	return nil
}

// Message makes webhook message for events. Colors are relative to the
// maximum weight of all events, including the ones not selected.
func (a *Announcer) Message(events []domain.Event) (discord.Message, error) {
	weightMax, err := MaxWeight(events)
	if err != nil {
		return discord.Message{}, err
	}

	now := a.params.Now()
	cutoff := now.Add(a.params.Lookahead)
	selected := Select(events, now, a.params.Lookahead)
	if a.params.MaxEmbeds > 0 && len(selected) > a.params.MaxEmbeds {
		log.Printf("[WARN] %d events selected, posting top %d", len(selected), a.params.MaxEmbeds)
		selected = selected[:a.params.MaxEmbeds]
	}

	for _, e := range selected {
		log.Printf("[INFO] %s, weight %s, %s, %s - %s", e.Title, formatWeight(e.Weight), e.Href,
			e.StartDate.Format(time.DateTime), e.FinishDate.Format(time.DateTime))
	}

	res := discord.Message{Embeds: Render(selected, weightMax, a.params.StandardColor)}
	if a.params.Header {
		res.Content = fmt.Sprintf("CTFs for %s -> %s", now.Format(time.DateOnly), cutoff.Format(time.DateOnly))
	}
	if len(res.Embeds) == 0 && res.Content == "" {
		// webhook rejects messages without content and embeds
		res.Content = fmt.Sprintf("No online CTFs starting before %s", cutoff.Format(time.DateOnly))
	}
	return res, nil
}

// MaxWeight returns the maximum weight of events
func MaxWeight(events []domain.Event) (float64, error) {
	if len(events) == 0 {
		return 0, ErrNoEvents
	}
	res := events[0].Weight
	for _, e := range events[1:] {
		if e.Weight > res {
			res = e.Weight
		}
	}
	return res, nil
}

// Select returns online events starting before now+lookahead, sorted by weight descending.
// Events with equal weight keep feed order.
func Select(events []domain.Event, now time.Time, lookahead time.Duration) []domain.Event {
	cutoff := now.Add(lookahead)
	res := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.StartDate.Before(cutoff) && !e.Onsite {
			res = append(res, e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Weight > res[j].Weight })
	return res
}

// Render makes one embed per event, colored by weight relative to weightMax
func Render(events []domain.Event, weightMax float64, standardColor bool) []*discordgo.MessageEmbed {
	res := make([]*discordgo.MessageEmbed, 0, len(events))
	for _, e := range events {
		w := 0.0
		if weightMax > 0 {
			w = e.Weight / weightMax
		}
		res = append(res, discord.NewEmbed(Description(e), discord.Color(w, standardColor)))
	}
	return res
}

// Description renders event embed text
func Description(e domain.Event) string {
	return fmt.Sprintf("[%s](%s)\nStarts: **<t:%d:R>**\nFormat: **%s**\nWeight: **%s**",
		plainText(e.Title), e.Href, e.StartDate.Unix(), plainText(e.FormatText), formatWeight(e.Weight))
}

var strictPolicy = bluemonday.StrictPolicy()

// plainText strips markup, feed titles occasionally carry html
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// formatWeight prints weight always with a fraction part, i.e. 25.0 and 24.65
func formatWeight(w float64) string {
	res := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(res, ".") {
		res += ".0"
	}
	return res
}
