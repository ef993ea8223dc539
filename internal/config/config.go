package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pcdogyu/market-closure/internal/holidays"
	"github.com/pcdogyu/market-closure/internal/market"
)

type Config struct {
	DBPath        string `yaml:"db_path,omitempty"`
	HTTPAddr      string `yaml:"http_addr,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty"`

	Logging Logging       `yaml:"logging,omitempty"`
	Monitor MonitorConfig `yaml:"monitor,omitempty"`
	Cleanup CleanupConfig `yaml:"cleanup,omitempty"`
	Alpaca  Alpaca        `yaml:"alpaca,omitempty"`

	Venues []Venue `yaml:"venues"`
}

type Logging struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type MonitorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds,omitempty"`

	// If false, every tick is written to the status history, not only changes.
	OnlyRecordChanges *bool `yaml:"only_record_changes,omitempty"`
}

type CleanupConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	RunAt   string `yaml:"run_at,omitempty"` // "HH:MM" UTC
}

// Alpaca holds credentials for importing the broker's trading calendar.
type Alpaca struct {
	APIKey    string `yaml:"api_key,omitempty"`
	APISecret string `yaml:"api_secret,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// Venue is one trading venue. Preset fills Timezone and Hours when they are
// left empty; HolidayCalendars are expanded for CalendarYears on top of the
// explicit Holidays list.
type Venue struct {
	Name   string `yaml:"name" json:"name"`
	Preset string `yaml:"preset,omitempty" json:"preset,omitempty"`

	market.Schedule `yaml:",inline"`

	HolidayCalendars []string `yaml:"holiday_calendars,omitempty" json:"holiday_calendars,omitempty"`
	CalendarYears    []int    `yaml:"calendar_years,omitempty" json:"calendar_years,omitempty"`

	// Suffixes routes symbols such as "600519.SH" to this venue. "" matches
	// bare codes.
	Suffixes []string `yaml:"suffixes,omitempty" json:"suffixes,omitempty"`
}

var now = time.Now

func Load(path string) (Config, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Resolve(raw)
}

// LoadFile parses path as written, without environment overrides or
// defaults. This is the form that may be saved back to disk.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve returns a copy of raw with environment overrides and defaults
// applied, validated. raw is not modified.
func Resolve(raw Config) (Config, error) {
	cfg := raw.Clone()
	applyEnvOverrides(&cfg)
	if err := NormalizeAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment settings and secrets come from the
// environment instead of the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLOSURE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CLOSURE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CLOSURE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	// Canonical names used by the Alpaca SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Monitor.IntervalSeconds == 0 {
		cfg.Monitor.IntervalSeconds = 30
	}
	if cfg.Monitor.OnlyRecordChanges == nil {
		v := true
		cfg.Monitor.OnlyRecordChanges = &v
	}
	if cfg.Cleanup.RunAt == "" {
		cfg.Cleanup.RunAt = "03:10"
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	for i := range cfg.Venues {
		applyVenueDefaults(&cfg.Venues[i])
	}
}

func applyVenueDefaults(v *Venue) {
	if v.Preset != "" {
		if p, ok := market.Preset(v.Preset); ok {
			if v.Timezone == "" {
				v.Timezone = p.Timezone
			}
			if v.Hours == nil {
				v.Hours = p.Hours
			}
		}
	}
	if len(v.HolidayCalendars) > 0 && len(v.CalendarYears) == 0 {
		y := now().Year()
		v.CalendarYears = []int{y, y + 1}
	}
}

// NormalizeAndValidate applies defaults and checks invariants.
func NormalizeAndValidate(cfg *Config) error {
	applyDefaults(cfg)
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if cfg.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor.interval_seconds must be > 0")
	}
	if cfg.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be >= 1")
	}
	if _, err := time.Parse("15:04", cfg.Cleanup.RunAt); err != nil {
		return fmt.Errorf("cleanup.run_at must be HH:MM: %q", cfg.Cleanup.RunAt)
	}

	var errs []error
	seen := make(map[string]bool, len(cfg.Venues))
	suffixOwner := make(map[string]string)
	for i, v := range cfg.Venues {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("venues[%d]: name is required", i))
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("venue %s: duplicate name", v.Name))
		}
		seen[v.Name] = true
		if v.Preset != "" {
			if _, ok := market.Preset(v.Preset); !ok {
				errs = append(errs, fmt.Errorf("venue %s: unknown preset %q", v.Name, v.Preset))
			}
		}
		for _, c := range v.HolidayCalendars {
			if !holidays.Known(c) {
				errs = append(errs, fmt.Errorf("venue %s: unknown holiday calendar %q", v.Name, c))
			}
		}
		for _, sfx := range v.Suffixes {
			sfx = strings.ToUpper(sfx)
			if owner, ok := suffixOwner[sfx]; ok && owner != v.Name {
				errs = append(errs, fmt.Errorf("venue %s: suffix %q already routed to %s", v.Name, sfx, owner))
			}
			suffixOwner[sfx] = v.Name
		}
		if err := market.Validate(v.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("venue %s: %w", v.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Venue returns the venue with the given name.
func (c Config) Venue(name string) (Venue, bool) {
	for _, v := range c.Venues {
		if v.Name == name {
			return v, true
		}
	}
	return Venue{}, false
}

// VenueForSuffix returns the venue that symbols with suffix are routed to.
func (c Config) VenueForSuffix(suffix string) (Venue, bool) {
	for _, v := range c.Venues {
		for _, s := range v.Suffixes {
			if strings.EqualFold(s, suffix) {
				return v, true
			}
		}
	}
	return Venue{}, false
}

// Clone returns a deep copy, so a caller can patch it without touching c.
func (c Config) Clone() Config {
	out := c
	if c.Monitor.OnlyRecordChanges != nil {
		v := *c.Monitor.OnlyRecordChanges
		out.Monitor.OnlyRecordChanges = &v
	}
	if c.Cleanup.Enabled != nil {
		v := *c.Cleanup.Enabled
		out.Cleanup.Enabled = &v
	}
	out.Venues = make([]Venue, len(c.Venues))
	for i, v := range c.Venues {
		cv := v
		if v.Hours != nil {
			cv.Hours = make(map[string][]string, len(v.Hours))
			for d, spans := range v.Hours {
				cv.Hours[d] = append([]string(nil), spans...)
			}
		}
		cv.Holidays = append([]market.Holiday(nil), v.Holidays...)
		cv.HolidayCalendars = append([]string(nil), v.HolidayCalendars...)
		cv.CalendarYears = append([]int(nil), v.CalendarYears...)
		cv.Suffixes = append([]string(nil), v.Suffixes...)
		out.Venues[i] = cv
	}
	return out
}
