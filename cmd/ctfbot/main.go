package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/ctfbot/pkg/announce"
	"github.com/umputun/ctfbot/pkg/config"
	"github.com/umputun/ctfbot/pkg/discord"
	"github.com/umputun/ctfbot/pkg/feed"
	"github.com/umputun/ctfbot/pkg/team"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"config file (optional)"`

	Discord   DiscordCmd   `command:"discord" description:"post upcoming CTF events to the webhook"`
	TeamStats TeamStatsCmd `command:"team_stats" description:"post team ranking to the webhook"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// DiscordCmd posts upcoming events
type DiscordCmd struct {
	Team      string        `long:"team" description:"team id, post team ranking after the events"`
	Lookahead time.Duration `long:"lookahead" description:"post events starting within this window (default 168h)"`
	Header    bool          `long:"header" description:"add date range header to the message"`
	Args      struct {
		WebhookURL string `positional-arg-name:"webhook_url" description:"webhook URL, overrides webhook.url from config"`
	} `positional-args:"yes"`
}

// TeamStatsCmd posts team ranking
type TeamStatsCmd struct {
	Args struct {
		WebhookURL string `positional-arg-name:"webhook_url" description:"webhook URL, overrides webhook.url from config"`
		TeamID     string `positional-arg-name:"team_id" description:"CTFtime team id (default 279481)"`
	} `positional-args:"yes"`
}

const (
	cmdDiscord   = "discord"
	cmdTeamStats = "team_stats"
)

var errNoWebhook = errors.New("webhook URL is not set, pass it as argument or set webhook.url in config")

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLog(opts.Debug, opts.NoColor, opts.Discord.Args.WebhookURL, opts.TeamStats.Args.WebhookURL, cfg.Webhook.URL)
	log.Printf("[DEBUG] ctfbot %s, command %s", revision, parser.Active.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[WARN] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts, cfg, parser.Active.Name); err != nil {
		log.Printf("[ERROR] %s failed: %v", parser.Active.Name, err)
		cancel()
		os.Exit(1)
	}
}

// loadConfig loads config file if set, defaults otherwise
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// run executes the command with cfg updated by command line options
func run(ctx context.Context, opts Opts, cfg *config.Config, command string) error {
	hook := applyOptions(cfg, opts, command)
	if hook == "" {
		return errNoWebhook
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	poster := discord.NewClient(discord.Params{
		Timeout:      cfg.HTTP.Timeout,
		Attempts:     cfg.Webhook.Attempts,
		RetryDelay:   cfg.Webhook.RetryDelay,
		BlockPrivate: cfg.Webhook.BlockPrivate,
	})
	scraper := team.NewScraper(team.Params{
		BaseURL:   cfg.Team.BaseURL,
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Country:   cfg.Team.Country,
	})
	reporter := announce.NewTeamReporter(scraper, poster)

	switch command {
	case cmdDiscord:
		fetcher := feed.NewFetcher(feed.Params{
			URL:       cfg.Feed.URL,
			Timeout:   cfg.HTTP.Timeout,
			UserAgent: cfg.HTTP.UserAgent,
			Location:  cfg.Location(),
		})
		announcer := announce.NewAnnouncer(fetcher, poster, announce.Params{
			Lookahead:     cfg.Announce.Lookahead,
			Header:        cfg.Announce.Header,
			MaxEmbeds:     cfg.Announce.MaxEmbeds,
			StandardColor: cfg.Announce.StandardColor,
		})
		if err := announcer.Run(ctx, hook); err != nil {
			return err
		}
		if !cfg.Announce.ChainTeam {
			return nil
		}
		return reporter.Run(ctx, hook, cfg.Team.ID)
	case cmdTeamStats:
		return reporter.Run(ctx, hook, cfg.Team.ID)
	}
	return fmt.Errorf("unknown command %q", command)
}

// applyOptions overrides config with command options and returns webhook URL
func applyOptions(cfg *config.Config, opts Opts, command string) (webhookURL string) {
	webhookURL = cfg.Webhook.URL
	switch command {
	case cmdDiscord:
		if opts.Discord.Args.WebhookURL != "" {
			webhookURL = opts.Discord.Args.WebhookURL
		}
		if opts.Discord.Team != "" {
			cfg.Team.ID = opts.Discord.Team
			cfg.Announce.ChainTeam = true
		}
		if opts.Discord.Lookahead != 0 {
			cfg.Announce.Lookahead = opts.Discord.Lookahead
		}
		if opts.Discord.Header {
			cfg.Announce.Header = true
		}
	case cmdTeamStats:
		if opts.TeamStats.Args.WebhookURL != "" {
			webhookURL = opts.TeamStats.Args.WebhookURL
		}
		if opts.TeamStats.Args.TeamID != "" {
			cfg.Team.ID = opts.TeamStats.Args.TeamID
		}
	}
	return webhookURL
}

func setupLog(dbg, noColor bool, secrets ...string) {
	logOpts := []lgr.Option{}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if noColor {
		color.NoColor = true
	}
	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	// webhook URLs carry the token, keep them out of logs
	secs := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			secs = append(secs, s)
		}
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
