// Package config loads the immutable run configuration from flags, environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/stk-reviewer/internal/core"
	"github.com/sevigo/stk-reviewer/internal/logger"
)

// Keys shared by viper, cobra flags and the config file.
const (
	KeyConfigFile         = "config"
	KeyQuickCommandID     = "quick-command-id"
	KeyClientID           = "client-id"
	KeyClientSecret       = "client-secret"
	KeyHost               = "host-stk-ai"
	KeyTokenHost          = "host-token-stk-ai"
	KeyRealm              = "realm"
	KeyMaxAttempts        = "retry-max-attempts"
	KeyRetryTimeout       = "retry-timeout"
	KeyConcurrency        = "concurrency"
	KeyHTTPTimeout        = "http-timeout"
	KeyHTTPProxy          = "http-proxy"
	KeyHTTPSProxy         = "https-proxy"
	KeyDirectory          = "directory"
	KeyExtension          = "extension"
	KeyIgnoredFiles       = "ignored-files"
	KeyIgnoredDirectories = "ignored-directories"
	KeyReportDirectory    = "report-directory"
	KeyReportFilename     = "report-filename"
	KeyLimit              = "limit"
	KeyLogLevel           = "log-level"
	KeyLogFormat          = "log-format"
	KeyDebug              = "debug"
	KeyGitHubToken        = "github-token"
)

const (
	DefaultHost            = "https://genai-code-buddy-api.stackspot.com"
	DefaultTokenHost       = "https://idm.stackspot.com"
	DefaultRealm           = "zup"
	DefaultMaxAttempts     = 10
	DefaultRetryTimeout    = "10"
	DefaultHTTPTimeout     = "60"
	DefaultDirectory       = "."
	DefaultExtension       = ".py"
	DefaultReportDirectory = "report"
	DefaultReportFilename  = "code-report"
)

// Python projects get these skipped unless the user already lists them.
var (
	DefaultIgnoredDirectories = []string{"venv", ".git", "pytest_cache", "__pycache__"}
	DefaultIgnoredFiles       = []string{"setup.py", "manage.py", "__init__.py"}
)

var envBindings = map[string][]string{
	KeyQuickCommandID:  {"CR_STK_AI_ID_QUICK_COMMAND"},
	KeyClientID:        {"CR_STK_AI_CLIENT_ID"},
	KeyClientSecret:    {"CR_STK_AI_CLIENT_SECRET"},
	KeyHost:            {"CR_STK_AI_HOST", "HOST_STK_AI"},
	KeyTokenHost:       {"CR_STK_AI_HOST_TOKEN", "HOST_TOKEN_STK_AI"},
	KeyRealm:           {"CR_STK_AI_REALM"},
	KeyMaxAttempts:     {"CR_STK_AI_MAX_ATTEMPTS"},
	KeyRetryTimeout:    {"CR_STK_AI_RETRY_TIMEOUT"},
	KeyConcurrency:     {"CR_STK_AI_CONCURRENCY"},
	KeyHTTPTimeout:     {"CR_STK_AI_HTTP_TIMEOUT"},
	KeyHTTPProxy:       {"HTTP_PROXY"},
	KeyHTTPSProxy:      {"HTTPS_PROXY"},
	KeyDirectory:       {"CR_STK_AI_DIRECTORY"},
	KeyExtension:       {"CR_STK_AI_EXTENSION"},
	KeyReportDirectory: {"CR_STK_AI_REPORT_DIRECTORY"},
	KeyReportFilename:  {"CR_STK_AI_REPORT_FILENAME"},
	KeyLimit:           {"CR_STK_AI_LIMIT"},
	KeyLogLevel:        {"LOG_LEVEL"},
	KeyLogFormat:       {"LOG_FORMAT"},
	KeyGitHubToken:     {"CR_STK_AI_GITHUB_TOKEN", "GITHUB_TOKEN"},
}

var (
	ErrMissingQuickCommand = errors.New("the remote quick command ID is required. Provide --quick-command-id or the environment variable CR_STK_AI_ID_QUICK_COMMAND")
	ErrMissingClientID     = errors.New("the client_id is required to connect to STK AI. Provide --client-id or the environment variable CR_STK_AI_CLIENT_ID")
	ErrMissingClientSecret = errors.New("the client_secret is required to connect to STK AI. Provide --client-secret or the environment variable CR_STK_AI_CLIENT_SECRET")
	ErrMissingRealm        = errors.New("the realm is required to connect to STK AI. Provide --realm or the environment variable CR_STK_AI_REALM")
)

// Config is the immutable snapshot of one run's settings.
type Config struct {
	STK    STKConfig
	Review ReviewConfig
	Log    logger.Config
	GitHub GitHubConfig
}

// STKConfig holds everything needed to talk to the remote review service.
type STKConfig struct {
	QuickCommandID string
	ClientID       string
	ClientSecret   string
	Host           string
	TokenHost      string
	Realm          string
	MaxAttempts    int
	PollInterval   time.Duration
	Concurrency    int
	HTTPTimeout    time.Duration
	HTTPProxy      string
	HTTPSProxy     string
}

// LogValue keeps credentials out of log output.
func (c STKConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("quick_command_id", c.QuickCommandID),
		slog.String("client_id", mask(c.ClientID)),
		slog.String("client_secret", mask(c.ClientSecret)),
		slog.String("host", c.Host),
		slog.String("token_host", c.TokenHost),
		slog.String("realm", c.Realm),
		slog.Int("max_attempts", c.MaxAttempts),
		slog.Duration("poll_interval", c.PollInterval),
		slog.Int("concurrency", c.Concurrency),
		slog.String("http_proxy", c.HTTPProxy),
		slog.String("https_proxy", c.HTTPSProxy),
	)
}

// ReviewConfig selects which files are reviewed and where the report goes.
type ReviewConfig struct {
	Directory          string
	Extension          string
	IgnoredFiles       []string
	IgnoredDirectories []string
	ReportDirectory    string
	ReportFilename     string
	Limit              int
}

// GitHubConfig is only needed when publishing the report to a pull request.
type GitHubConfig struct {
	Token string
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, DefaultHost)
	v.SetDefault(KeyTokenHost, DefaultTokenHost)
	v.SetDefault(KeyRealm, DefaultRealm)
	v.SetDefault(KeyMaxAttempts, DefaultMaxAttempts)
	v.SetDefault(KeyRetryTimeout, DefaultRetryTimeout)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyConcurrency, 0)
	v.SetDefault(KeyDirectory, DefaultDirectory)
	v.SetDefault(KeyExtension, DefaultExtension)
	v.SetDefault(KeyReportDirectory, DefaultReportDirectory)
	v.SetDefault(KeyReportFilename, DefaultReportFilename)
	v.SetDefault(KeyLimit, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		_ = v.BindEnv(args...) // only fails without a key
	}
}

// LoadConfig reads the configuration from the global viper instance.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load builds and validates a Config from v. When v names a config file it is
// read first; flags and environment variables still take precedence over it.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	pollInterval, err := seconds(v.GetString(KeyRetryTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyRetryTimeout, err)
	}
	httpTimeout, err := seconds(v.GetString(KeyHTTPTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyHTTPTimeout, err)
	}

	concurrency := v.GetInt(KeyConcurrency)
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	logLevel := v.GetString(KeyLogLevel)
	if v.GetBool(KeyDebug) {
		logLevel = "debug"
	}

	cfg := &Config{
		STK: STKConfig{
			QuickCommandID: strings.TrimSpace(v.GetString(KeyQuickCommandID)),
			ClientID:       strings.TrimSpace(v.GetString(KeyClientID)),
			ClientSecret:   strings.TrimSpace(v.GetString(KeyClientSecret)),
			Host:           strings.TrimSuffix(v.GetString(KeyHost), "/"),
			TokenHost:      strings.TrimSuffix(v.GetString(KeyTokenHost), "/"),
			Realm:          strings.TrimSpace(v.GetString(KeyRealm)),
			MaxAttempts:    v.GetInt(KeyMaxAttempts),
			PollInterval:   pollInterval,
			Concurrency:    concurrency,
			HTTPTimeout:    httpTimeout,
			HTTPProxy:      v.GetString(KeyHTTPProxy),
			HTTPSProxy:     v.GetString(KeyHTTPSProxy),
		},
		Review: ReviewConfig{
			Directory:          v.GetString(KeyDirectory),
			Extension:          v.GetString(KeyExtension),
			IgnoredFiles:       v.GetStringSlice(KeyIgnoredFiles),
			IgnoredDirectories: v.GetStringSlice(KeyIgnoredDirectories),
			ReportDirectory:    v.GetString(KeyReportDirectory),
			ReportFilename:     v.GetString(KeyReportFilename),
			Limit:              v.GetInt(KeyLimit),
		},
		Log: logger.Config{
			Level:  logLevel,
			Format: v.GetString(KeyLogFormat),
		},
		GitHub: GitHubConfig{
			Token: v.GetString(KeyGitHubToken),
		},
	}
	cfg.Review = cfg.Review.withLanguageDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.STK.QuickCommandID == "":
		return ErrMissingQuickCommand
	case c.STK.ClientID == "":
		return ErrMissingClientID
	case c.STK.ClientSecret == "":
		return ErrMissingClientSecret
	case c.STK.Realm == "":
		return ErrMissingRealm
	}
	if c.STK.MaxAttempts < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyMaxAttempts, c.STK.MaxAttempts)
	}
	if c.STK.PollInterval < 0 {
		return fmt.Errorf("%s must not be negative", KeyRetryTimeout)
	}
	if c.Review.Limit < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyLimit, c.Review.Limit)
	}
	return nil
}

// WithRepoConfig returns a copy of r extended by a repository's .stk-reviewer.yml.
func (r ReviewConfig) WithRepoConfig(rc *core.RepoConfig) ReviewConfig {
	if rc == nil {
		return r
	}
	out := r
	if rc.Extension != "" {
		out.Extension = rc.Extension
	}
	out.IgnoredFiles = union(r.IgnoredFiles, rc.IgnoredFiles)
	out.IgnoredDirectories = union(r.IgnoredDirectories, rc.IgnoredDirectories)
	return out.withLanguageDefaults()
}

func (r ReviewConfig) withLanguageDefaults() ReviewConfig {
	if !strings.Contains(r.Extension, "py") {
		return r
	}
	r.IgnoredFiles = union(r.IgnoredFiles, DefaultIgnoredFiles)
	r.IgnoredDirectories = union(r.IgnoredDirectories, DefaultIgnoredDirectories)
	return r
}

func union(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range slices.Concat(base, extra) {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// seconds accepts either a plain number of seconds ("10", "0.5") or a Go duration ("500ms").
func seconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + "****"
}
