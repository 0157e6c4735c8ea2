// Package team scrapes team ranking from CTFtime team profile pages
package team

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/umputun/ctfbot/pkg/domain"
)

// DefaultID is the team reported when no team id is given
const DefaultID = "279481"

// DefaultBaseURL is the site hosting team profile pages
const DefaultBaseURL = "https://ctftime.org"

const (
	overallMarker = "Overall rating place:"
	countryMarker = "Country place:"
)

// ErrFieldNotFound is returned when a ranking field can't be located on the page
var ErrFieldNotFound = errors.New("field not found")

// FieldNotFoundError names the missing ranking field
type FieldNotFoundError struct {
	Field  string
	Marker string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s, marker %q", ErrFieldNotFound, e.Field, e.Marker)
}

// Unwrap allows errors.Is(err, ErrFieldNotFound)
func (e *FieldNotFoundError) Unwrap() error { return ErrFieldNotFound }

// Scraper fetches team profile pages and extracts the ranking
type Scraper struct {
	client    *http.Client
	baseURL   string
	userAgent string
	country   string
}

// Params defines scraper parameters
type Params struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string // Go client default if not set
	Country   string // country code the country place link must point to, any if empty
}

// NewScraper creates a team page scraper
func NewScraper(params Params) *Scraper {
	res := &Scraper{
		baseURL:   strings.TrimSuffix(params.BaseURL, "/"),
		userAgent: params.UserAgent,
		country:   params.Country,
	}
	if res.baseURL == "" {
		res.baseURL = DefaultBaseURL
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	res.client = &http.Client{Timeout: timeout}
	return res
}

// PageURL returns profile page URL of the team
func (s *Scraper) PageURL(teamID string) string {
	return s.baseURL + "/team/" + url.PathEscape(teamID)
}

// Fetch retrieves team page and extracts overall and country places
func (s *Scraper) Fetch(ctx context.Context, teamID string) (domain.TeamRank, error) {
	if teamID == "" {
		teamID = DefaultID
	}
	pageURL := s.PageURL(teamID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return domain.TeamRank{}, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.TeamRank{}, fmt.Errorf("fetch team page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.TeamRank{}, fmt.Errorf("unexpected status code %d for team page %s", resp.StatusCode, pageURL)
	}

	overall, country, err := ExtractRank(resp.Body, s.country)
	if err != nil {
		return domain.TeamRank{}, fmt.Errorf("extract rank for team %s: %w", teamID, err)
	}

	return domain.TeamRank{TeamID: teamID, PageURL: pageURL, OverallPlace: overall, CountryPlace: country}, nil
}

// ExtractRank parses team page and returns overall and country rating places.
// The overall place is the text of the first bold element following its label in
// document order. The country place is the text of the first following element which
// is (or contains) a stats link, ending with /<country> if country is set.
func ExtractRank(r io.Reader, country string) (overall, countryPlace string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	overall = valueAfter(doc, overallMarker, isBold)
	if overall == "" {
		return "", "", &FieldNotFoundError{Field: "overall rating place", Marker: overallMarker}
	}

	countryPlace = valueAfter(doc, countryMarker, func(n *html.Node) bool { return hasStatsLink(n, country) })
	if countryPlace == "" {
		return "", "", &FieldNotFoundError{Field: "country place", Marker: countryMarker}
	}

	return overall, countryPlace, nil
}

// valueAfter finds the text node containing marker and returns text of the first
// element after it, anywhere in the rest of the document, accepted by match.
// Empty string if not found.
func valueAfter(doc *html.Node, marker string, match func(*html.Node) bool) string {
	label := findText(doc, marker)
	if label == nil {
		return ""
	}
	for n := nextNode(label); n != nil; n = nextNode(n) {
		if n.Type != html.ElementNode || !match(n) {
			continue
		}
		if text := strings.TrimSpace(textContent(n)); text != "" {
			return text
		}
	}
	return ""
}

func isBold(n *html.Node) bool { return n.Data == "b" }

// findText returns the first text node containing s, in document order
func findText(n *html.Node, s string) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, s) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findText(c, s); res != nil {
			return res
		}
	}
	return nil
}

// nextNode returns the node following n in document order
func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// textContent returns concatenated text of n and its descendants
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// hasStatsLink checks if n is or contains an anchor pointing to a stats page
func hasStatsLink(n *html.Node, country string) bool {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key != "href" || !strings.Contains(attr.Val, "/stats/") {
				continue
			}
			if country == "" || strings.HasSuffix(strings.TrimSuffix(attr.Val, "/"), "/"+country) {
				return true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasStatsLink(c, country) {
			return true
		}
	}
	return false
}
