package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/ctfbot/pkg/domain"
)

// DefaultURL is the CTFtime feed of upcoming events
const DefaultURL = "https://ctftime.org/event/list/upcoming/rss/"

// Fetcher fetches the CTFtime RSS feed and turns its entries into events
type Fetcher struct {
	client    *http.Client
	url       string
	userAgent string
	location  *time.Location
}

// Params defines fetcher parameters, zero values are replaced by defaults
type Params struct {
	URL       string
	Timeout   time.Duration
	UserAgent string         // Go client default if not set
	Location  *time.Location // location of feed dates, UTC if not set
}

// NewFetcher creates a new feed fetcher
func NewFetcher(params Params) *Fetcher {
	res := &Fetcher{url: params.URL, userAgent: params.UserAgent, location: params.Location}
	if res.url == "" {
		res.url = DefaultURL
	}
	if res.location == nil {
		res.location = time.UTC
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	res.client = &http.Client{Timeout: timeout}
	return res
}

// Fetch retrieves the feed and validates every entry. A single invalid entry fails the whole batch.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.Event, error) {
	body, err := f.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.url, err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	events := make([]domain.Event, 0, len(feed.Items))
	for i, item := range feed.Items {
		event, err := ParseEvent(item, f.location)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, item.GUID, err)
		}
		events = append(events, event)
	}

	return events, nil
}

// fetch retrieves feed content
func (f *Fetcher) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
