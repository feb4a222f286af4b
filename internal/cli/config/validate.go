package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid. Every problem is reported,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Year < MinYear || c.Year > MaxYear {
		errs = append(errs, fmt.Errorf("year %d out of range [%d, %d]", c.Year, MinYear, MaxYear))
	}
	if c.TemplateYear < MinYear || c.TemplateYear > MaxYear {
		errs = append(errs, fmt.Errorf("template_year %d out of range [%d, %d]", c.TemplateYear, MinYear, MaxYear))
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive, got %v", c.RateLimit.RequestsPerSecond))
	}
	if c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "auto", "text", "markdown", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q (want auto|text|markdown|json)", c.OutputFormat))
	}

	return errors.Join(errs...)
}

// ValidateToken checks that commands reaching the workspace have credentials.
func (c *Config) ValidateToken() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("token is required\nHint: set LEAPYEAR_TOKEN or add token to leapyear.yaml")
	}
	return nil
}
