package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultColor     = "auto"

	// userConfigEnv overrides the user config location.
	userConfigEnv = "DELIVER_CONFIG"

	// logLevelEnv overrides logging.level from the user config.
	logLevelEnv = "DELIVER_LOG_LEVEL"
)

// Logging contains diagnostic logger settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Output contains terminal presentation settings.
type Output struct {
	// Color is one of "auto", "always" or "never".
	Color string `toml:"color"`
}

// User is the per-user configuration.
type User struct {
	Logging Logging `toml:"logging"`
	Output  Output  `toml:"output"`
}

// DefaultUser returns a User populated with built-in defaults.
func DefaultUser() User {
	return User{
		Logging: Logging{Level: defaultLogLevel, Format: defaultLogFormat},
		Output:  Output{Color: defaultColor},
	}
}

// DefaultUserPath returns the user config location, honouring
// DELIVER_CONFIG and the platform config directory.
func DefaultUserPath() (string, error) {
	if env := strings.TrimSpace(os.Getenv(userConfigEnv)); env != "" {
		return env, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, "deliver", "config.toml"), nil
}

// LoadUser reads the user configuration from path, or from
// DefaultUserPath when path is empty. A missing file yields defaults.
func LoadUser(path string) (*User, string, bool, error) {
	cfg := DefaultUser()

	if path == "" {
		var err error
		if path, err = DefaultUserPath(); err != nil {
			// No config dir (e.g. HOME unset): run with defaults.
			cfg.applyEnv()
			cfg.normalize()
			return &cfg, "", false, nil
		}
	}

	exists := true
	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open user config: %w", err)
	default:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse user config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, path, exists, err
	}

	return &cfg, path, exists, nil
}

func (u *User) applyEnv() {
	if level := strings.TrimSpace(os.Getenv(logLevelEnv)); level != "" {
		u.Logging.Level = level
	}
}

func (u *User) normalize() {
	u.Logging.Level = strings.ToLower(strings.TrimSpace(u.Logging.Level))
	if u.Logging.Level == "" {
		u.Logging.Level = defaultLogLevel
	}
	u.Logging.Format = strings.ToLower(strings.TrimSpace(u.Logging.Format))
	if u.Logging.Format == "" {
		u.Logging.Format = defaultLogFormat
	}
	u.Output.Color = strings.ToLower(strings.TrimSpace(u.Output.Color))
	if u.Output.Color == "" {
		u.Output.Color = defaultColor
	}
}

// Validate ensures enumerated settings hold known values.
func (u *User) Validate() error {
	switch u.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", u.Logging.Level)
	}
	switch u.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", u.Logging.Format)
	}
	switch u.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color: unsupported value %q", u.Output.Color)
	}
	return nil
}
