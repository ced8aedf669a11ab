// Package config loads selgraph settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/selgraph/config.toml (or
// ~/.config/selgraph/config.toml) unless a path is given explicitly. A
// missing default file is not an error; every setting has a default and
// command-line flags override whatever the file sets.
//
//	[server]
//	addr  = ":8080"
//	graph = "graph.json"
//	watch = true
//
//	[session]
//	backend = "redis"
//	url     = "redis://localhost:6379/0"
//	ttl     = "12h"
//
//	[cache]
//	enabled = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	selerrors "github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/session"
)

const appName = "selgraph"

// DefaultAddr is the default HTTP listen address.
const DefaultAddr = ":8080"

// Config is the complete selgraph configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Session Session `toml:"session"`
	Cache   Cache   `toml:"cache"`
}

// Server configures `selgraph serve`.
type Server struct {
	Addr  string `toml:"addr"`
	Graph string `toml:"graph"` // Graph document served when no argument is given
	Watch bool   `toml:"watch"` // Reload the graph when the file changes
}

// Session selects the session backend.
type Session struct {
	Backend    string   `toml:"backend"`
	Dir        string   `toml:"dir"`
	URL        string   `toml:"url"`
	Prefix     string   `toml:"prefix"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	TTL        Duration `toml:"ttl"`
}

// Cache configures the rendered SVG cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Duration is a time.Duration written as a Go duration string ("90m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{Addr: DefaultAddr},
		Session: Session{
			Backend: session.BackendFile,
			TTL:     Duration{session.DefaultTTL},
		},
		Cache: Cache{Enabled: true},
	}
}

// SessionConfig converts the session section for [session.Open].
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Backend:    c.Session.Backend,
		Dir:        c.Session.Dir,
		URL:        c.Session.URL,
		Prefix:     c.Session.Prefix,
		Database:   c.Session.Database,
		Collection: c.Session.Collection,
	}
}

// Validate checks values the TOML decoder cannot.
func (c Config) Validate() error {
	switch c.Session.Backend {
	case session.BackendMemory, session.BackendFile:
	case session.BackendRedis, session.BackendMongo:
		if c.Session.URL == "" {
			return selerrors.New(selerrors.ErrCodeInvalidConfig, "session backend %q requires a url", c.Session.Backend)
		}
	default:
		return selerrors.New(selerrors.ErrCodeInvalidConfig, "unknown session backend %q", c.Session.Backend)
	}
	if c.Session.TTL.Duration <= 0 {
		return selerrors.New(selerrors.ErrCodeInvalidConfig, "session ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// Load reads the config at path on top of the defaults. An empty path
// reads the default location, where a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, selerrors.Wrap(selerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, selerrors.Wrap(selerrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, selerrors.New(selerrors.ErrCodeInvalidConfig, "config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the XDG config file location.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the cache directory, following XDG (~/.cache/selgraph/)
// unless the config names one.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
