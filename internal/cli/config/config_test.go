package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with a fixed clock.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	saved := now
	now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		now = saved
		ResetConfig()
	})
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "leapyear.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("target", "", "")
	fs.Int("year", 0, "")
	fs.Int("template-year", 0, "")
	fs.String("state", "", "")
	fs.Float64("rate", 0, "")
	fs.Int("burst", 0, "")
	fs.String("topology", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, 2027, cfg.Year)
	assert.Equal(t, DefaultTemplateYear, cfg.TemplateYear)
	assert.Equal(t, DefaultRatePerSecond, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, DefaultBurst, cfg.RateLimit.Burst)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Equal(t, filepath.Join(".leapyear", "state.db"), filepath.Join(filepath.Base(filepath.Dir(cfg.StatePath)), filepath.Base(cfg.StatePath)))
	assert.Empty(t, GetConfigFileUsed())
	assert.Empty(t, cfg.Token)
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	t.Setenv("MY_WORKSPACE_TOKEN", "secret_abc")
	writeConfig(t, dir, `
token: ${MY_WORKSPACE_TOKEN}
target: https://www.notion.so/acme/Planning-0123456789abcdef0123456789abcdef
year: 2028
template_year: 2024
timeout: 5s
rate_limit:
  requests_per_second: 2.5
  burst: 2
sources:
  WEEKS: weeks-source
  MONTHS: months-source
topology_file: topo/custom.yaml
state_path: state/journal.db
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "secret_abc", cfg.Token)
	assert.Equal(t, "https://www.notion.so/acme/Planning-0123456789abcdef0123456789abcdef", cfg.Target)
	assert.Equal(t, 2028, cfg.Year)
	assert.Equal(t, 2024, cfg.TemplateYear)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.Equal(t, map[string]string{"WEEKS": "weeks-source", "MONTHS": "months-source"}, cfg.Sources)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "topo", "custom.yaml"), cfg.TopologyFile)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "state", "journal.db"), cfg.StatePath)
	assert.NotEmpty(t, GetConfigFileUsed())
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "year: 2031\n")

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2031, cfg.Year)
	assert.Equal(t, filepath.Base(dir), filepath.Base(cfg.ProjectRoot))
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	other := filepath.Join(dir, "elsewhere")
	require.NoError(t, os.MkdirAll(other, 0o755))
	path := writeConfig(t, other, "template_year: 2023\nstate_path: j.db\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2023, cfg.TemplateYear)
	assert.Equal(t, "elsewhere", filepath.Base(filepath.Dir(cfg.StatePath)))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "year: 2028\nsources:\n  WEEKS: from-file\n")
	t.Setenv("LEAPYEAR_YEAR", "2030")
	t.Setenv("LEAPYEAR_TOKEN", "env-token")
	t.Setenv("LEAPYEAR_RATE_LIMIT_BURST", "4")
	t.Setenv("LEAPYEAR_SOURCES_MONTHS", "from-env")
	t.Setenv("LEAPYEAR_TIMEOUT", "90s")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2030, cfg.Year)
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "from-file", cfg.Sources["WEEKS"])
	assert.Equal(t, "from-env", cfg.Sources["MONTHS"])
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("LEAPYEAR_YEAR", "2030")
	t.Setenv("LEAPYEAR_OUTPUT", "markdown")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{
		"--year", "2029",
		"--rate", "1.5",
		"--state", "flag.db",
		"--target", "0123456789abcdef0123456789abcdef",
		"--config", "",
	}))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)
	assert.Equal(t, 2029, cfg.Year)
	assert.Equal(t, 1.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "markdown", cfg.OutputFormat, "unset flags do not override env")
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Target)
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Equal(t, "flag.db", filepath.Base(cfg.StatePath))
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "year: 1800\nrate_limit:\n  requests_per_second: 0\noutput: yaml\n")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year 1800 out of range")
	assert.Contains(t, err.Error(), "requests_per_second must be positive")
	assert.Contains(t, err.Error(), `unknown output format "yaml"`)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LEAPYEAR_TOKEN", "token"},
		{"LEAPYEAR_TEMPLATE_YEAR", "template_year"},
		{"LEAPYEAR_RATE_LIMIT_REQUESTS_PER_SECOND", "rate_limit.requests_per_second"},
		{"LEAPYEAR_SOURCES_WEEKLY_REVIEWS", "sources.WEEKLY_REVIEWS"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.Burst = 0
	cfg.Timeout = 0
	cfg.TemplateYear = 10000
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "burst must be at least 1")
	assert.Contains(t, err.Error(), "timeout must be positive")
	assert.Contains(t, err.Error(), "template_year 10000 out of range")
}

func TestConfig_ValidateToken(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateToken())

	cfg.Token = "  "
	assert.Error(t, cfg.ValidateToken())

	cfg.Token = "secret"
	assert.NoError(t, cfg.ValidateToken())
}

func TestConfig_Years(t *testing.T) {
	cfg := &Config{Year: 2027, TemplateYear: 2025}
	y := cfg.Years()
	assert.Equal(t, 2027, y.Target)
	assert.Equal(t, 2025, y.Template)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx))
	assert.Equal(t, DefaultAPIURL, GetConfig(ctx).APIURL)

	cfg := &Config{Year: 2040}
	assert.Same(t, cfg, GetConfig(WithConfig(ctx, cfg)))
}
