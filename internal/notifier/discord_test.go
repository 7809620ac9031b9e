package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pauljones0/graph-feed-export/internal/logging"
	"github.com/pauljones0/graph-feed-export/internal/models"
)

func testSummary(complete bool) models.Summary {
	return models.Summary{
		GroupID:  "12345",
		Fetched:  42,
		Exported: 42,
		File:     "facebook_group_posts_12345_20230501_120000.csv",
		Complete: complete,
		Duration: 95 * time.Second,
	}
}

func TestFormatSummaryEmbed(t *testing.T) {
	embed := formatSummaryEmbed(testSummary(true))

	if embed.Color != colorComplete {
		t.Errorf("Expected complete color, got %d", embed.Color)
	}
	if embed.Description != "Group 12345" {
		t.Errorf("Description incorrect. Got: %s", embed.Description)
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(embed.Fields))
	}
	if embed.Fields[0].Value != "42" {
		t.Errorf("Posts field = %s, want 42", embed.Fields[0].Value)
	}
	if embed.Fields[1].Value != "1m35s" {
		t.Errorf("Duration field = %s, want 1m35s", embed.Fields[1].Value)
	}

	partial := formatSummaryEmbed(testSummary(false))
	if partial.Color != colorPartial {
		t.Errorf("Expected partial color, got %d", partial.Color)
	}
}

func TestClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		var payload discordWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if len(payload.Embeds) != 1 {
			t.Errorf("Expected 1 embed, got %d", len(payload.Embeds))
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, logging.Discard())
	// Override rate limiter for tests to run fast
	client.rateLimiter = rate.NewLimiter(rate.Inf, 1)

	if err := client.Send(context.Background(), testSummary(true)); err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}
}

func TestClient_Send_RetriesOn5xx(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "server error"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, logging.Discard())
	client.rateLimiter = rate.NewLimiter(rate.Inf, 1)

	if err := client.Send(context.Background(), testSummary(true)); err != nil {
		t.Fatalf("Send() should have succeeded after retry, got error: %v", err)
	}
	if atomic.LoadInt32(&attempts) != 2 {
		t.Errorf("Expected 2 attempts (1 failure + 1 success), got %d", atomic.LoadInt32(&attempts))
	}
}

func TestClient_Send_NoRetryOn4xx(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "bad request"}`))
	}))
	defer server.Close()

	client := New(server.URL, logging.Discard())
	client.rateLimiter = rate.NewLimiter(rate.Inf, 1)

	if err := client.Send(context.Background(), testSummary(true)); err == nil {
		t.Fatal("Send() should have returned error for 400 response")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("Expected 1 attempt (no retry for 400), got %d", atomic.LoadInt32(&attempts))
	}
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		retryAfter string
		attempt    int
		want       time.Duration
	}{
		{"429 with Retry-After", 429, "2", 0, 2 * time.Second},
		{"429 without Retry-After", 429, "", 0, time.Second},
		{"500 error", 500, "", 0, time.Second},
		{"503 error", 503, "", 1, 2 * time.Second},
		{"400 error", 400, "", 0, 0},
		{"404 error", 404, "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.statusCode,
				Header:     http.Header{},
			}
			if tt.retryAfter != "" {
				resp.Header.Set("Retry-After", tt.retryAfter)
			}

			if got := retryBackoff(resp, tt.attempt); got != tt.want {
				t.Errorf("retryBackoff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Send_EmptyWebhookURL(t *testing.T) {
	c := New("", logging.Discard())
	if err := c.Send(context.Background(), testSummary(true)); err != nil {
		t.Fatalf("Send() with empty webhook should be a no-op, got %v", err)
	}
}
