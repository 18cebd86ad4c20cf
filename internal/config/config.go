package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mode is what happens to a document after its fences are rewritten
type Mode string

const (
	ModeWrite  Mode = "write"
	ModeVerify Mode = "verify"
	ModeDryRun Mode = "dry-run"
	ModeStdout Mode = "stdout"
)

// ErrStripNeedsStdout rejects --strip-embed-comment without --stdout, since
// rewriting in place would lose the comments that locate the targets.
var ErrStripNeedsStdout = errors.New("if you use the --strip-embed-comment flag, you must use the --stdout flag and redirect the result to your destination file, otherwise your source file(s) will be rewritten and comment source is lost")

// Config holds the run configuration
type Config struct {
	SourceRoot        string        `mapstructure:"source_root"`
	StripEmbedComment bool          `mapstructure:"strip_embed_comment"`
	Verify            bool          `mapstructure:"verify"`
	DryRun            bool          `mapstructure:"dry_run"`
	Stdout            bool          `mapstructure:"stdout"`
	Silent            bool          `mapstructure:"silent"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	Concurrency       int           `mapstructure:"concurrency"`
	CacheSize         int           `mapstructure:"cache_size"`
	IgnoreFiles       []string      `mapstructure:"ignore_files"`
}

// flagKeys maps config keys to command line flag names
var flagKeys = map[string]string{
	"source_root":         "source-root",
	"strip_embed_comment": "strip-embed-comment",
	"verify":              "verify",
	"dry_run":             "dry-run",
	"stdout":              "stdout",
	"silent":              "silent",
	"fetch_timeout":       "fetch-timeout",
	"concurrency":         "concurrency",
}

// Load builds the configuration from defaults, an optional embedme.yaml,
// a .env file, EMBEDME_* environment variables and the given flags, in
// increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("source_root", "")
	v.SetDefault("strip_embed_comment", false)
	v.SetDefault("verify", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("stdout", false)
	v.SetDefault("silent", false)
	v.SetDefault("fetch_timeout", 10*time.Second)
	v.SetDefault("concurrency", 4)
	v.SetDefault("cache_size", 128)
	v.SetDefault("ignore_files", []string{".embedmeignore", ".gitignore"})

	v.SetConfigName("embedme")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "embedme"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("EMBEDME")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.SourceRoot = expandTilde(strings.TrimSpace(cfg.SourceRoot))
	return &cfg, nil
}

// Validate rejects option combinations that would lose data
func (c *Config) Validate() error {
	if c.StripEmbedComment && !c.Stdout {
		return ErrStripNeedsStdout
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// Mode resolves the output mode. verify beats dry-run beats stdout.
func (c *Config) Mode() Mode {
	switch {
	case c.Verify:
		return ModeVerify
	case c.DryRun:
		return ModeDryRun
	case c.Stdout:
		return ModeStdout
	default:
		return ModeWrite
	}
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
