package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pauljones0/graph-feed-export/internal/models"
	"github.com/pauljones0/graph-feed-export/internal/util"
)

const (
	colorComplete = 3066993  // #2ECC71 (Green)
	colorPartial  = 16753920 // #FFA500 (Orange)

	maxSendAttempts = 3
)

type Client struct {
	webhookURL  string
	client      *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

func New(webhookURL string, logger *slog.Logger) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		// Discord allows roughly 5 webhook requests per 2 seconds.
		rateLimiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
		logger:      logger,
	}
}

// Send posts the run summary. It is a no-op without a webhook URL.
func (c *Client) Send(ctx context.Context, summary models.Summary) error {
	if c.webhookURL == "" {
		return nil
	}
	payload := discordWebhookPayload{Embeds: []discordEmbed{formatSummaryEmbed(summary)}}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payloadBytes))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if err := util.Sleep(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
				return err
			}
			continue
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))

		backoff := retryBackoff(resp, attempt)
		if backoff == 0 {
			return lastErr
		}
		c.logger.Warn("Discord webhook failed, retrying", "status", resp.StatusCode, "backoff", backoff)
		if err := util.Sleep(ctx, backoff); err != nil {
			return err
		}
	}
	return fmt.Errorf("discord webhook failed after %d attempts: %w", maxSendAttempts, lastErr)
}

// retryBackoff returns how long to wait before retrying resp, or zero if the
// status is not retryable.
func retryBackoff(resp *http.Response, attempt int) time.Duration {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		return time.Duration(1<<attempt) * time.Second
	case resp.StatusCode >= 500:
		return time.Duration(1<<attempt) * time.Second
	default:
		return 0
	}
}

// Internal structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

func formatSummaryEmbed(s models.Summary) discordEmbed {
	title := "Group export finished"
	color := colorComplete
	if !s.Complete {
		title = "Group export finished with partial results"
		color = colorPartial
	}

	return discordEmbed{
		Title:       title,
		Description: fmt.Sprintf("Group %s", s.GroupID),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Color:       color,
		Fields: []discordEmbedField{
			{Name: "Posts", Value: strconv.Itoa(s.Exported), Inline: true},
			{Name: "Duration", Value: s.Duration.Round(time.Second).String(), Inline: true},
			{Name: "File", Value: s.File},
		},
	}
}
