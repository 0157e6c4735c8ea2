// Package discord builds webhook messages and posts them to a Discord-compatible webhook
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/doyensec/safeurl"
	"github.com/go-pkgz/repeater/v2"
)

// Message is the webhook payload
type Message struct {
	Content string                    `json:"content"`
	Embeds  []*discordgo.MessageEmbed `json:"embeds"`
}

// NewEmbed makes an embed with description and color only
func NewEmbed(description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: description, Color: color}
}

// errNoRetry terminates retries, matched by client-side status errors
var errNoRetry = errors.New("not retryable")

// StatusError is returned when the webhook responds with non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook responded with status %d", e.Code)
	}
	return fmt.Sprintf("webhook responded with status %d: %s", e.Code, e.Body)
}

// Is reports client errors as not retryable, except for rate limiting
func (e *StatusError) Is(target error) bool {
	return target == errNoRetry && e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

// Client posts messages to webhooks
type Client struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
}

// Params defines client parameters
type Params struct {
	Timeout      time.Duration
	Attempts     int           // total attempts, 1 means no retries
	RetryDelay   time.Duration // initial backoff delay
	BlockPrivate bool          // refuse webhooks resolving to private, loopback or link-local addresses
}

// NewClient creates a webhook client
func NewClient(params Params) *Client {
	res := &Client{attempts: params.Attempts, retryDelay: params.RetryDelay}
	if res.attempts < 1 {
		res.attempts = 1
	}
	if res.retryDelay <= 0 {
		res.retryDelay = time.Second
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if params.BlockPrivate {
		cfg := safeurl.GetConfigBuilder().
			SetTimeout(timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		res.client = safeurl.Client(cfg).Client
		return res
	}

	res.client = &http.Client{Timeout: timeout}
	return res
}

// Post sends msg to the webhook as JSON. Any non-2xx response is an error.
func (c *Client) Post(ctx context.Context, webhookURL string, msg Message) error {
	if msg.Embeds == nil {
		msg.Embeds = []*discordgo.MessageEmbed{}
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	log.Printf("[DEBUG] posting message with %d embeds, %d bytes", len(msg.Embeds), len(body))
	rpt := repeater.NewBackoff(c.attempts, c.retryDelay, repeater.WithMaxDelay(10*time.Second))
	attempt := 0
	var permanent error // the error which stopped retries
	err = rpt.Do(ctx, func() error {
		attempt++
		e := c.post(ctx, webhookURL, body)
		switch {
		case e == nil:
			return nil
		case errors.Is(e, errNoRetry):
			permanent = e
			return errNoRetry
		case attempt < c.attempts:
			log.Printf("[WARN] webhook post attempt %d failed: %v", attempt, e)
		}
		return e
	}, errNoRetry)
	if permanent != nil {
		return fmt.Errorf("post to webhook: %w", permanent)
	}
	if err != nil {
		return fmt.Errorf("post to webhook: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, webhookURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
