// Package config loads the application configuration from defaults, a YAML
// file, the environment and command-line flags, in increasing precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/scheduler"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes every environment variable read. Nested keys are
	// separated by a double underscore: SRS_DATABASE__PATH.
	EnvPrefix = "SRS_"
	// DefaultFile is read when --config is not given. It may be absent.
	DefaultFile = "srs.yaml"
	// EnvFile is loaded into the environment before it is read. It may be absent.
	EnvFile = ".env"
)

// Config is the complete application configuration.
type Config struct {
	Database     DatabaseConfig   `koanf:"database"`
	Timezone     string           `koanf:"timezone" validate:"omitempty,timezone"`
	DayStartHour int              `koanf:"day_start_hour" validate:"min=0,max=23"`
	Log          LogConfig        `koanf:"log"`
	Scheduler    scheduler.Params `koanf:"scheduler"`
	Reminder     ReminderConfig   `koanf:"reminder"`
	Sources      SourcesConfig    `koanf:"sources"`
}

// DatabaseConfig locates the sqlite database file.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// ReminderConfig sets how often the remind command checks for due cards.
type ReminderConfig struct {
	Every time.Duration `koanf:"every" validate:"min=1s"`
}

// SourcesConfig holds settings shared by all note sources. ReposDir is where
// git sources are cloned.
type SourcesConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:     DatabaseConfig{Path: "srs.db"},
		DayStartHour: clock.DefaultDayStartHour,
		Log:          LogConfig{Level: "info", Format: "text"},
		Scheduler:    scheduler.DefaultParams(),
		Reminder:     ReminderConfig{Every: time.Hour},
		Sources:      SourcesConfig{ReposDir: "repos"},
	}
}

// flagKeys maps command-line flag names to configuration keys. Other flags
// are not configuration.
var flagKeys = map[string]string{
	"db":             "database.path",
	"timezone":       "timezone",
	"day-start-hour": "day_start_hour",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", DefaultFile, "Path to the YAML configuration file")
	fs.String("db", "", "Path to the SQLite database file")
	fs.String("timezone", "", "IANA time zone the day boundary is computed in")
	fs.Int("day-start-hour", clock.DefaultDayStartHour, "Local hour at which a new review day starts")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (text, json)")
}

// Load builds the configuration. fs may be nil; otherwise it must carry the
// flags added by RegisterFlags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, explicit := DefaultFile, false
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path, explicit = f.Value.String(), f.Changed
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	if err := godotenv.Load(EnvFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "load %s", EnvFile)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, errors.Wrap(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns SRS_LOG__LEVEL into log.level.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validate = validator.New()

// Validate checks every field of the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// DayBoundary returns the day-cycle rule described by the configuration.
func (c *Config) DayBoundary() (clock.DayBoundary, error) {
	loc, err := clock.ParseZone(c.Timezone)
	if err != nil {
		return clock.DayBoundary{}, errors.WithStack(err)
	}
	return clock.FixedZone(loc, c.DayStartHour), nil
}
