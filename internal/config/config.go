package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AccessToken          string
	GroupID              string
	GraphBaseURL         string
	GraphAPIVersion      string
	Fields               string
	FieldsConfigPath     string
	PageLimit            int
	InitialDelay         time.Duration
	MaxDelay             time.Duration
	MaxRetries           int
	HTTPTimeout          time.Duration
	MaxRequestsPerSecond float64
	OutputDir            string
	OutputPrefix         string
	LogLevel             string
	DiscordWebhookURL    string
}

// LoadEnvFile seeds the process environment from dotenv files. Variables that
// are already set win. Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %q: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	accessToken := os.Getenv("GRAPH_ACCESS_TOKEN")
	if accessToken == "" {
		return nil, fmt.Errorf("GRAPH_ACCESS_TOKEN environment variable is required but not set")
	}

	groupID := os.Getenv("GRAPH_GROUP_ID")
	if groupID == "" {
		return nil, fmt.Errorf("GRAPH_GROUP_ID environment variable is required but not set")
	}

	baseURL := strings.TrimRight(envOrDefault("GRAPH_BASE_URL", "https://graph.facebook.com"), "/")
	parsedBase, err := url.Parse(baseURL)
	if err != nil || (parsedBase.Scheme != "http" && parsedBase.Scheme != "https") || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid GRAPH_BASE_URL %q: must be an absolute http(s) URL", baseURL)
	}

	pageLimit, err := intFromEnv("GRAPH_PAGE_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	if pageLimit <= 0 {
		return nil, fmt.Errorf("invalid GRAPH_PAGE_LIMIT %d: must be positive", pageLimit)
	}

	initialDelay, err := durationFromEnv("FETCH_INITIAL_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	if initialDelay <= 0 {
		return nil, fmt.Errorf("invalid FETCH_INITIAL_DELAY %s: must be positive", initialDelay)
	}

	maxDelay, err := durationFromEnv("FETCH_MAX_DELAY", "32s")
	if err != nil {
		return nil, err
	}
	if maxDelay < initialDelay {
		return nil, fmt.Errorf("invalid FETCH_MAX_DELAY %s: must not be below FETCH_INITIAL_DELAY %s", maxDelay, initialDelay)
	}

	maxRetries, err := intFromEnv("FETCH_MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}
	if maxRetries < 0 {
		return nil, fmt.Errorf("invalid FETCH_MAX_RETRIES %d: must not be negative", maxRetries)
	}

	// Zero means no client-side timeout; the transport defaults apply.
	httpTimeout, err := durationFromEnv("HTTP_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}

	maxRPS := 0.0
	if v := os.Getenv("MAX_REQUESTS_PER_SECOND"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid MAX_REQUESTS_PER_SECOND %q: must be a non-negative number", v)
		}
		maxRPS = parsed
	}

	return &Config{
		AccessToken:          accessToken,
		GroupID:              groupID,
		GraphBaseURL:         baseURL,
		GraphAPIVersion:      envOrDefault("GRAPH_API_VERSION", "v17.0"),
		Fields:               os.Getenv("GRAPH_FIELDS"),
		FieldsConfigPath:     envOrDefault("FIELDS_CONFIG_PATH", "config/fields.json"),
		PageLimit:            pageLimit,
		InitialDelay:         initialDelay,
		MaxDelay:             maxDelay,
		MaxRetries:           maxRetries,
		HTTPTimeout:          httpTimeout,
		MaxRequestsPerSecond: maxRPS,
		OutputDir:            envOrDefault("OUTPUT_DIR", "."),
		OutputPrefix:         envOrDefault("OUTPUT_PREFIX", "facebook_group_posts"),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		DiscordWebhookURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
	}, nil
}

// FeedURL is the first-page endpoint, e.g.
// https://graph.facebook.com/v17.0/<group>/feed.
func (c *Config) FeedURL() string {
	return fmt.Sprintf("%s/%s/%s/feed", c.GraphBaseURL, url.PathEscape(c.GraphAPIVersion), url.PathEscape(c.GroupID))
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

func durationFromEnv(key, def string) (time.Duration, error) {
	v := envOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
