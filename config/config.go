package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jonwraymond/boardproxy/secret"
)

var (
	// ErrMissingAPIKey indicates no API key was configured.
	ErrMissingAPIKey = errors.New("config: BOARDPROXY_API_KEY is required")

	// ErrMissingWorkspaceID indicates no workspace id was configured.
	ErrMissingWorkspaceID = errors.New("config: BOARDPROXY_WORKSPACE_ID is required")
)

// TeamIDs identifies the boards the aggregator reads from.
type TeamIDs struct {
	Current          int64
	Planned          int64
	BugsAndChores    int64
	FeaturesAndIdeas int64
}

// TagIDs identifies the tags used to classify tasks.
type TagIDs struct {
	Milestone int64
	Bug       int64
	Chore     int64
}

// CacheConfig configures the cache store.
type CacheConfig struct {
	// MemcacheAddr is the memcached address. Empty selects the in-memory store.
	MemcacheAddr string

	// Namespace prefixes every cache key.
	Namespace string

	// TTL is how long cached responses live.
	// Default: 24 hours
	TTL time.Duration
}

// RetryConfig configures upstream retry behavior.
type RetryConfig struct {
	// Backoff is the fixed wait between attempts.
	// Default: 10 seconds
	Backoff time.Duration

	// MaxAttempts caps retry attempts. Zero means retry until the
	// request context is canceled.
	MaxAttempts int
}

// Config holds the full service configuration.
type Config struct {
	// APIKey authenticates against the upstream API.
	APIKey string

	// BaseURL overrides the upstream API base URL.
	BaseURL string

	// Listen is the HTTP listen address.
	// Default: ":8080"
	Listen string

	// LogLevel sets the minimum log level (debug, info, warn, error).
	// Default: "info"
	LogLevel string

	// WorkspaceID is the workspace everything is scoped to.
	WorkspaceID int64

	Teams TeamIDs
	Tags  TagIDs
	Cache CacheConfig
	Retry RetryConfig

	// MembersFile is the path to the YAML member directory. Optional.
	MembersFile string

	// Fanout bounds concurrent detail fetches during aggregation.
	// Default: 1
	Fanout int
}

// FromEnv loads configuration from BOARDPROXY_* environment variables.
// The API key value may reference another variable as "${VAR}"; the
// reference is expanded strictly, so a missing variable is an error.
func FromEnv() (Config, error) {
	cfg := Config{
		Listen:   ":8080",
		LogLevel: "info",
		Cache: CacheConfig{
			Namespace: "boardproxy",
			TTL:       24 * time.Hour,
		},
		Retry: RetryConfig{
			Backoff: 10 * time.Second,
		},
		Fanout: 1,
	}

	apiKey, err := secret.ExpandEnvStrict(os.Getenv("BOARDPROXY_API_KEY"))
	if err != nil {
		return Config{}, fmt.Errorf("config: expand BOARDPROXY_API_KEY: %w", err)
	}
	cfg.APIKey = apiKey

	cfg.BaseURL = os.Getenv("BOARDPROXY_BASE_URL")
	cfg.MembersFile = os.Getenv("BOARDPROXY_MEMBERS_FILE")

	if v := os.Getenv("BOARDPROXY_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("BOARDPROXY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOARDPROXY_MEMCACHE_ADDR"); v != "" {
		cfg.Cache.MemcacheAddr = v
	}
	if v := os.Getenv("BOARDPROXY_CACHE_NAMESPACE"); v != "" {
		cfg.Cache.Namespace = v
	}

	ids := []struct {
		env string
		dst *int64
	}{
		{"BOARDPROXY_WORKSPACE_ID", &cfg.WorkspaceID},
		{"BOARDPROXY_CURRENT_TEAM_ID", &cfg.Teams.Current},
		{"BOARDPROXY_PLANNED_TEAM_ID", &cfg.Teams.Planned},
		{"BOARDPROXY_BUGS_AND_CHORES_TEAM_ID", &cfg.Teams.BugsAndChores},
		{"BOARDPROXY_FEATURES_AND_IDEAS_TEAM_ID", &cfg.Teams.FeaturesAndIdeas},
		{"BOARDPROXY_MILESTONE_TAG_ID", &cfg.Tags.Milestone},
		{"BOARDPROXY_BUG_TAG_ID", &cfg.Tags.Bug},
		{"BOARDPROXY_CHORE_TAG_ID", &cfg.Tags.Chore},
	}
	for _, id := range ids {
		v := os.Getenv(id.env)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", id.env, err)
		}
		*id.dst = n
	}

	if v := os.Getenv("BOARDPROXY_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse BOARDPROXY_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}
	if v := os.Getenv("BOARDPROXY_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse BOARDPROXY_RETRY_BACKOFF: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if v := os.Getenv("BOARDPROXY_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse BOARDPROXY_MAX_RETRIES: %w", err)
		}
		cfg.Retry.MaxAttempts = n
	}
	if v := os.Getenv("BOARDPROXY_FANOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse BOARDPROXY_FANOUT: %w", err)
		}
		cfg.Fanout = n
	}

	return cfg, nil
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.WorkspaceID == 0 {
		return ErrMissingWorkspaceID
	}
	if c.Cache.TTL <= 0 {
		return errors.New("config: cache TTL must be positive")
	}
	if c.Retry.Backoff <= 0 {
		return errors.New("config: retry backoff must be positive")
	}
	if c.Fanout < 1 {
		return errors.New("config: fanout must be at least 1")
	}
	return nil
}
