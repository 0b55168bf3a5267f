package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single ICS subscription (typically a Canvas
// calendar feed).
type FeedConfig struct {
	// URL is the feed endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for dedup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label; feed events carry it as their course.
	Name string `yaml:"name" json:"name"`
}

// GoogleConfig holds the Google Calendar API source settings. When nil the
// adapter is disabled.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	// TokenFile is a JSON-serialized oauth2.Token obtained out of band.
	TokenFile string `yaml:"token_file" json:"token_file"`
	// CalendarIDs lists the calendars to pull ("primary" is valid).
	CalendarIDs []string `yaml:"calendar_ids" json:"calendar_ids"`
}

// ProxyConfig points at the Apps Script JSON proxy. When nil the adapter is
// disabled.
type ProxyConfig struct {
	URL string `yaml:"url" json:"url"`
}

// StudyConfig controls study-block generation.
type StudyConfig struct {
	// Policy is one of "single", "rotate", "optimize".
	Policy string `yaml:"policy" json:"policy"`
	// StudyTime is the fixed slot ("HH:MM") for single/optimize policies.
	StudyTime string `yaml:"study_time" json:"study_time"`
	// PreferredTimes are the rotating slots for the rotate policy.
	PreferredTimes []string `yaml:"preferred_times" json:"preferred_times"`
	// DurationMinutes is the block length.
	DurationMinutes int `yaml:"duration_minutes" json:"duration_minutes"`
	// DaysBefore schedules blocks this many days ahead of the due date.
	DaysBefore int `yaml:"days_before" json:"days_before"`
	// MaxBlocksPerDay caps the rotate policy.
	MaxBlocksPerDay int `yaml:"max_blocks_per_day" json:"max_blocks_per_day"`
	// MaxHoursPerDay caps the optimize policy.
	MaxHoursPerDay int `yaml:"max_hours_per_day" json:"max_hours_per_day"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "America/New_York").
	// Date keys and clock strings are derived in this zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules source refreshes (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how far ahead feeds are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
	// BackfillDays is how far back feeds are expanded.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// CacheDir is where feed bodies and validators are cached.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// SampleOnFailure merges the built-in sample feed when every configured
	// source fails on a refresh, so the API never goes completely dark.
	SampleOnFailure bool `yaml:"sample_on_failure" json:"sample_on_failure"`

	Feeds  []FeedConfig  `yaml:"feeds" json:"feeds"`
	Google *GoogleConfig `yaml:"google,omitempty" json:"google,omitempty"`
	Proxy  *ProxyConfig  `yaml:"proxy,omitempty" json:"proxy,omitempty"`

	Study StudyConfig `yaml:"study" json:"study"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "America/New_York",
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  30,
		BackfillDays: 1,
		CacheDir:     "./var/feed-cache",
		Feeds:        []FeedConfig{},
		Study: StudyConfig{
			Policy:          "single",
			StudyTime:       "19:00",
			DurationMinutes: 60,
			DaysBefore:      1,
			MaxBlocksPerDay: 3,
			MaxHoursPerDay:  3,
		},
		LogLevel: "info",
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/feed-cache"
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	switch c.Study.Policy {
	case "single", "rotate", "optimize":
	default:
		c.Study.Policy = "single"
	}
	if c.Study.StudyTime == "" {
		c.Study.StudyTime = "19:00"
	}
	if c.Study.DurationMinutes <= 0 {
		c.Study.DurationMinutes = 60
	}
	if c.Study.DaysBefore <= 0 {
		c.Study.DaysBefore = 1
	}
	if c.Study.MaxBlocksPerDay <= 0 {
		c.Study.MaxBlocksPerDay = 3
	}
	if c.Study.MaxHoursPerDay <= 0 {
		c.Study.MaxHoursPerDay = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load loads configuration from the given YAML path. If the file does not
// exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".studycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
