package feed

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/ctfbot/pkg/domain"
)

// DateLayout is the fixed-width date format of CTFtime feed dates, YYYYMMDDThhmmss
const DateLayout = "20060102T150405"

// ErrInvalidRecord is returned for feed entries not matching the expected event shape
var ErrInvalidRecord = errors.New("invalid feed record")

// ValidationError describes the field which failed validation
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: field %q %s", ErrInvalidRecord, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: field %q %s, got %q", ErrInvalidRecord, e.Field, e.Reason, e.Value)
}

// Unwrap allows errors.Is(err, ErrInvalidRecord)
func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// ParseEvent validates a feed item and converts it to an event.
// Dates are interpreted in loc, UTC if nil.
func ParseEvent(item *gofeed.Item, loc *time.Location) (domain.Event, error) {
	if item == nil {
		return domain.Event{}, &ValidationError{Field: "item", Reason: "is missing"}
	}
	if loc == nil {
		loc = time.UTC
	}

	rp := recordParser{custom: item.Custom}

	// gofeed maps absent and empty standard elements alike, so these have to be non-empty
	required := []struct{ name, val string }{{"id", item.GUID}, {"title", item.Title}, {"link", item.Link}}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return domain.Event{}, &ValidationError{Field: r.name, Reason: "is missing"}
		}
	}

	res := domain.Event{
		ID:           item.GUID,
		Title:        item.Title,
		Link:         item.Link,
		Summary:      item.Description,
		GUIDIsLink:   item.GUID == item.Link,
		StartDate:    rp.date("start_date", loc),
		FinishDate:   rp.date("finish_date", loc),
		LogoURL:      rp.str("logo_url"),
		Href:         rp.str("url"),
		CTFTimeURL:   rp.str("ctftime_url"),
		Format:       rp.str("format"),
		FormatText:   rp.str("format_text"),
		Weight:       rp.float("weight"),
		LiveFeed:     rp.str("live_feed"),
		Restrictions: rp.str("restrictions"),
		Location:     rp.str("location"),
		Onsite:       rp.bool("onsite"),
		Organizers:   rp.str("organizers"),
		CTFID:        rp.str("ctf_id"),
		CTFName:      rp.str("ctf_name"),
	}
	if rp.err != nil {
		return domain.Event{}, rp.err
	}
	return res, nil
}

// FormatDate renders t in the feed date layout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// recordParser reads typed values from custom feed elements and keeps the first error
type recordParser struct {
	custom map[string]string
	err    *ValidationError
}

func (p *recordParser) str(name string) string {
	if p.err != nil {
		return ""
	}
	val, ok := p.custom[name]
	if !ok {
		p.err = &ValidationError{Field: name, Reason: "is missing"}
		return ""
	}
	return val
}

func (p *recordParser) date(name string, loc *time.Location) time.Time {
	val := p.str(name)
	if p.err != nil {
		return time.Time{}
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(val), loc)
	if err != nil {
		p.err = &ValidationError{Field: name, Value: val, Reason: "is not a " + DateLayout + " timestamp"}
		return time.Time{}
	}
	return t
}

func (p *recordParser) float(name string) float64 {
	val := p.str(name)
	if p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.err = &ValidationError{Field: name, Value: val, Reason: "is not a number"}
		return 0
	}
	return f
}

func (p *recordParser) bool(name string) bool {
	val := p.str(name)
	if p.err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "t", "true", "yes", "y", "on":
		return true
	case "0", "f", "false", "no", "n", "off":
		return false
	}
	p.err = &ValidationError{Field: name, Value: val, Reason: "is not a boolean"}
	return false
}
