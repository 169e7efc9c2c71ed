// Package config loads run defaults from an optional YAML file and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"gopkg.in/yaml.v3"

	"github.com/famomatic/totalsize/client"
)

// PathEnv names the variable that points at an explicit config file.
const PathEnv = "TOTALSIZE_CONFIG"

// ErrInvalidConfig indicates an unreadable or malformed config file.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings a run starts from.
type Config struct {
	YtDlpPath     string        `yaml:"ytdlp_path"`
	Format        string        `yaml:"format"`
	Retries       int           `yaml:"retries"`
	SocketTimeout time.Duration `yaml:"socket_timeout"`
	Proxy         string        `yaml:"proxy"`
	RateLimit     float64       `yaml:"rate_limit"`
	Cookies       string        `yaml:"cookies"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		YtDlpPath:     "yt-dlp",
		Format:        client.DefaultFormatFilter,
		Retries:       client.DefaultRetries,
		SocketTimeout: client.DefaultSocketTimeout,
	}
}

// DefaultPath returns <user config dir>/totalsize/config.yaml, or "" when
// the platform has no user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "totalsize", "config.yaml")
}

// Load builds the run settings. An explicit path (argument or PathEnv) must
// exist; the default path is optional. Environment overrides are applied
// after the file.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = env.Str(PathEnv, "")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.YtDlpPath = env.Str("TOTALSIZE_YTDLP", cfg.YtDlpPath)
	cfg.Format = env.Str("TOTALSIZE_FORMAT", cfg.Format)
	cfg.Retries = env.Int("TOTALSIZE_RETRIES", cfg.Retries)
	cfg.SocketTimeout = env.Duration("TOTALSIZE_SOCKET_TIMEOUT", cfg.SocketTimeout)
	cfg.Proxy = env.Str("TOTALSIZE_PROXY", cfg.Proxy)
	cfg.RateLimit = env.Float("TOTALSIZE_RATE_LIMIT", cfg.RateLimit)
	cfg.Cookies = env.Str("TOTALSIZE_COOKIES", cfg.Cookies)
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	switch {
	case c.Retries < 0:
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidConfig)
	case c.SocketTimeout < 0:
		return fmt.Errorf("%w: socket_timeout must not be negative", ErrInvalidConfig)
	case c.RateLimit < 0:
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
