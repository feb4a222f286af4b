// Package config provides configuration management for the leapyear CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/leapyear/internal/template"
)

// RateLimitConfig paces requests to the workspace API.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// Config holds all CLI configuration options.
type Config struct {
	Token      string        `koanf:"token"`
	APIURL     string        `koanf:"api_url"`
	APIVersion string        `koanf:"api_version"`
	Timeout    time.Duration `koanf:"timeout"`

	// Target is the container reference: a page URL or id.
	Target       string `koanf:"target"`
	Year         int    `koanf:"year"`
	TemplateYear int    `koanf:"template_year"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	// Sources maps a table key to the id of its template-year source table.
	Sources      map[string]string `koanf:"sources"`
	TopologyFile string            `koanf:"topology_file"`

	StatePath    string `koanf:"state_path"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Years pairs the configured template year with the target year.
func (c *Config) Years() template.Years {
	return template.Years{Template: c.TemplateYear, Target: c.Year}
}

// Default configuration values.
const (
	DefaultAPIURL        = "https://api.notion.com"
	DefaultAPIVersion    = "2022-06-28"
	DefaultTimeout       = 30 * time.Second
	DefaultTemplateYear  = 2025
	DefaultRatePerSecond = 3.0
	DefaultBurst         = 1
	DefaultStateFile     = ".leapyear/state.db"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Year bounds accepted for both the target and the template year.
const (
	MinYear = 1900
	MaxYear = 9999
)

// DefaultYear is the year after now.
func DefaultYear(now time.Time) int {
	return now.Year() + 1
}

// Default returns a config holding only default values.
func Default() *Config {
	return &Config{
		APIURL:       DefaultAPIURL,
		APIVersion:   DefaultAPIVersion,
		Timeout:      DefaultTimeout,
		Year:         DefaultYear(time.Now()),
		TemplateYear: DefaultTemplateYear,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: DefaultRatePerSecond,
			Burst:             DefaultBurst,
		},
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
	}
}
