package announce_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/ctfbot/pkg/announce"
	"github.com/umputun/ctfbot/pkg/announce/mocks"
	"github.com/umputun/ctfbot/pkg/discord"
	"github.com/umputun/ctfbot/pkg/domain"
)

var now = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

func event(title string, weight float64, onsite bool, startIn time.Duration) domain.Event {
	return domain.Event{
		ID:         "https://ctftime.org/event/" + title,
		Title:      title,
		Href:       "https://" + title + ".example.com",
		FormatText: "Jeopardy",
		Weight:     weight,
		Onsite:     onsite,
		StartDate:  now.Add(startIn),
		FinishDate: now.Add(startIn + 48*time.Hour),
	}
}

func titles(events []domain.Event) []string {
	res := make([]string, 0, len(events))
	for _, e := range events {
		res = append(res, e.Title)
	}
	return res
}

func TestAnnouncer_Run(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		a := event("a", 80, false, 2*24*time.Hour)
		b := event("b", 95, true, 3*24*time.Hour)
		c := event("c", 10, false, 20*24*time.Hour)

		fetcher := &mocks.FetcherMock{FetchFunc: func(ctx context.Context) ([]domain.Event, error) {
			return []domain.Event{a, b, c}, nil
		}}
		poster := &mocks.PosterMock{PostFunc: func(ctx context.Context, webhookURL string, msg discord.Message) error {
			return nil
		}}

		ann := announce.NewAnnouncer(fetcher, poster, announce.Params{Now: func() time.Time { return now }})
		require.NoError(t, ann.Run(context.Background(), "https://hook.example.com"))

		require.Len(t, fetcher.FetchCalls(), 1)
		require.Len(t, poster.PostCalls(), 1)
		call := poster.PostCalls()[0]
		assert.Equal(t, "https://hook.example.com", call.WebhookURL)
		assert.Empty(t, call.Msg.Content)
		require.Len(t, call.Msg.Embeds, 1)
		assert.Equal(t, discord.Color(80.0/95.0, false), call.Msg.Embeds[0].Color)
		assert.Equal(t, 40*255*255+214*255+17, call.Msg.Embeds[0].Color)
		assert.Equal(t, fmt.Sprintf("[a](https://a.example.com)\nStarts: **<t:%d:R>**\nFormat: **Jeopardy**\nWeight: **80.0**",
			a.StartDate.Unix()), call.Msg.Embeds[0].Description)
	})

	t.Run("fetch error", func(t *testing.T) {
		fetcher := &mocks.FetcherMock{FetchFunc: func(ctx context.Context) ([]domain.Event, error) {
			return nil, errors.New("feed down")
		}}
		poster := &mocks.PosterMock{}

		err := announce.NewAnnouncer(fetcher, poster, announce.Params{}).Run(context.Background(), "https://hook")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch events: feed down")
		assert.Empty(t, poster.PostCalls())
	})

	t.Run("empty feed", func(t *testing.T) {
		fetcher := &mocks.FetcherMock{FetchFunc: func(ctx context.Context) ([]domain.Event, error) {
			return []domain.Event{}, nil
		}}
		poster := &mocks.PosterMock{}

		err := announce.NewAnnouncer(fetcher, poster, announce.Params{}).Run(context.Background(), "https://hook")
		require.ErrorIs(t, err, announce.ErrNoEvents)
		assert.Empty(t, poster.PostCalls())
	})

	t.Run("post error", func(t *testing.T) {
		fetcher := &mocks.FetcherMock{FetchFunc: func(ctx context.Context) ([]domain.Event, error) {
			return []domain.Event{event("a", 10, false, time.Hour)}, nil
		}}
		poster := &mocks.PosterMock{PostFunc: func(ctx context.Context, webhookURL string, msg discord.Message) error {
			return &discord.StatusError{Code: 400}
		}}

		err := announce.NewAnnouncer(fetcher, poster, announce.Params{Now: func() time.Time { return now }}).
			Run(context.Background(), "https://hook")
		require.Error(t, err)
		var serr *discord.StatusError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, 400, serr.Code)
	})
}

func TestAnnouncer_Message(t *testing.T) {
	events := []domain.Event{
		event("low", 10, false, time.Hour),
		event("high", 50, false, 2*time.Hour),
		event("mid", 30, false, 3*time.Hour),
	}

	t.Run("header", func(t *testing.T) {
		ann := announce.NewAnnouncer(nil, nil, announce.Params{Header: true, Now: func() time.Time { return now }})
		msg, err := ann.Message(events)
		require.NoError(t, err)
		assert.Equal(t, "CTFs for 2024-04-10 -> 2024-04-17", msg.Content)
		require.Len(t, msg.Embeds, 3)
		assert.Contains(t, msg.Embeds[0].Description, "[high]")
		assert.Contains(t, msg.Embeds[1].Description, "[mid]")
		assert.Contains(t, msg.Embeds[2].Description, "[low]")
	})

	t.Run("max embeds keeps heaviest", func(t *testing.T) {
		ann := announce.NewAnnouncer(nil, nil, announce.Params{MaxEmbeds: 2, Now: func() time.Time { return now }})
		msg, err := ann.Message(events)
		require.NoError(t, err)
		require.Len(t, msg.Embeds, 2)
		assert.Contains(t, msg.Embeds[0].Description, "[high]")
		assert.Contains(t, msg.Embeds[1].Description, "[mid]")
	})

	t.Run("custom lookahead", func(t *testing.T) {
		ann := announce.NewAnnouncer(nil, nil, announce.Params{Lookahead: 90 * time.Minute, Now: func() time.Time { return now }})
		msg, err := ann.Message(events)
		require.NoError(t, err)
		require.Len(t, msg.Embeds, 1)
		assert.Contains(t, msg.Embeds[0].Description, "[low]")
	})

	t.Run("nothing selected", func(t *testing.T) {
		ann := announce.NewAnnouncer(nil, nil, announce.Params{Now: func() time.Time { return now }})
		msg, err := ann.Message([]domain.Event{event("far", 10, false, 30*24*time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, msg.Embeds)
		assert.Equal(t, "No online CTFs starting before 2024-04-17", msg.Content)
	})

	t.Run("standard color", func(t *testing.T) {
		ann := announce.NewAnnouncer(nil, nil, announce.Params{StandardColor: true, Now: func() time.Time { return now }})
		msg, err := ann.Message(events)
		require.NoError(t, err)
		assert.Equal(t, 0x00FF11, msg.Embeds[0].Color)
	})
}

func TestSelect(t *testing.T) {
	t.Run("filter", func(t *testing.T) {
		events := []domain.Event{
			event("started", 5, false, -24*time.Hour),
			event("soon", 20, false, time.Hour),
			event("onsite", 90, true, time.Hour),
			event("edge", 30, false, 7*24*time.Hour-time.Second),
			event("at-cutoff", 40, false, 7*24*time.Hour),
			event("later", 50, false, 8*24*time.Hour),
		}
		res := announce.Select(events, now, 7*24*time.Hour)
		assert.ElementsMatch(t, []string{"started", "soon", "edge"}, titles(res))
		for _, e := range res {
			assert.False(t, e.Onsite)
			assert.True(t, e.StartDate.Before(now.Add(7*24*time.Hour)))
		}
	})

	t.Run("sorted by weight descending, ties keep order", func(t *testing.T) {
		events := []domain.Event{
			event("a", 10, false, time.Hour),
			event("b", 70, false, time.Hour),
			event("c", 10, false, time.Hour),
			event("d", 99.5, false, time.Hour),
			event("e", 70, false, time.Hour),
		}
		res := announce.Select(events, now, 7*24*time.Hour)
		assert.Equal(t, []string{"d", "b", "e", "a", "c"}, titles(res))
		for i := 1; i < len(res); i++ {
			assert.GreaterOrEqual(t, res[i-1].Weight, res[i].Weight)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		events := []domain.Event{event("a", 1, false, time.Hour), event("b", 2, false, time.Hour)}
		_ = announce.Select(events, now, time.Hour*24)
		assert.Equal(t, []string{"a", "b"}, titles(events))
	})
}

func TestMaxWeight(t *testing.T) {
	w, err := announce.MaxWeight([]domain.Event{event("a", 3, false, 0), event("b", 95, true, 0), event("c", 7, false, 0)})
	require.NoError(t, err)
	assert.InDelta(t, 95, w, 0.0001)

	_, err = announce.MaxWeight(nil)
	assert.ErrorIs(t, err, announce.ErrNoEvents)
}

func TestRender(t *testing.T) {
	t.Run("colors relative to max", func(t *testing.T) {
		embeds := announce.Render([]domain.Event{event("a", 100, false, 0), event("b", 0, false, 0)}, 100, false)
		require.Len(t, embeds, 2)
		assert.Equal(t, discord.Color(1, false), embeds[0].Color)
		assert.Equal(t, discord.Color(0, false), embeds[1].Color)
	})

	t.Run("zero max weight", func(t *testing.T) {
		embeds := announce.Render([]domain.Event{event("a", 0, false, 0)}, 0, false)
		require.Len(t, embeds, 1)
		assert.Equal(t, discord.Color(0, false), embeds[0].Color)
	})
}

func TestDescription(t *testing.T) {
	e := event("x", 24.65, false, time.Hour)
	e.Title = "<b>Fancy</b> &amp; CTF"
	e.FormatText = "Attack-Defense"
	assert.Equal(t, fmt.Sprintf("[Fancy & CTF](https://x.example.com)\nStarts: **<t:%d:R>**\nFormat: **Attack-Defense**\nWeight: **24.65**",
		e.StartDate.Unix()), announce.Description(e))
}
