package domain

import "time"

// Event represents one upcoming CTF event from the CTFtime feed
type Event struct {
	// identity
	ID         string
	Title      string
	Link       string
	Summary    string
	GUIDIsLink bool

	// scheduling
	StartDate  time.Time
	FinishDate time.Time

	// classification
	Format     string
	FormatText string
	Weight     float64
	Onsite     bool

	// presentation
	LogoURL      string
	Href         string
	CTFTimeURL   string
	LiveFeed     string
	Restrictions string
	Location     string
	Organizers   string

	// cross-reference
	CTFID   string
	CTFName string
}

// TeamRank is the ranking scraped from a team profile page
type TeamRank struct {
	TeamID       string
	PageURL      string
	OverallPlace string
	CountryPlace string
}
