package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "srs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 4, cfg.DayStartHour)
	assert.Equal(t, 365, cfg.Scheduler.SuspendThreshold)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeYAML(t, `
database:
  path: from-file.db
timezone: Europe/Paris
log:
  level: debug
scheduler:
  growth_factor: 3
  leech_threshold: 6
reminder:
  every: 15m
`)
	t.Setenv("SRS_LOG__LEVEL", "warn")
	t.Setenv("SRS_DAY_START_HOUR", "5")

	cfg, err := Load(newFlags(t, "--config", path, "--db", "from-flag.db"))
	require.NoError(t, err)

	assert.Equal(t, "from-flag.db", cfg.Database.Path, "flag beats file")
	assert.Equal(t, "warn", cfg.Log.Level, "environment beats file")
	assert.Equal(t, 5, cfg.DayStartHour)
	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.Reminder.Every)
	assert.Equal(t, 3.0, cfg.Scheduler.GrowthFactor)
	assert.Equal(t, 6, cfg.Scheduler.LeechThreshold)
	// Untouched scheduler keys keep their defaults.
	assert.Equal(t, 0.7, cfg.Scheduler.PenaltyFactor)
	assert.Len(t, cfg.Scheduler.FuzzBands, 2)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestUnchangedFlagsKeepFileValues(t *testing.T) {
	path := writeYAML(t, "database:\n  path: from-file.db\nday_start_hour: 6\n")

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.Database.Path)
	assert.Equal(t, 6, cfg.DayStartHour)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		args []string
	}{
		{"Bad timezone", "timezone: Mars/Olympus\n", nil},
		{"Hour out of range", "day_start_hour: 24\n", nil},
		{"Unknown log level", "", []string{"--log-level", "loud"}},
		{"Bad penalty", "scheduler:\n  penalty_factor: 2\n", nil},
		{"Malformed YAML", "database: [\n", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeYAML(t, tc.yaml)
			args := append([]string{"--config", path}, tc.args...)
			_, err := Load(newFlags(t, args...))
			assert.Error(t, err)
		})
	}

	t.Run("Missing explicit file", func(t *testing.T) {
		_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
		assert.Error(t, err)
	})
}

func TestDayBoundary(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "UTC"
	cfg.DayStartHour = 5

	b, err := cfg.DayBoundary()
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 4, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC), b.StartOfNextDay(now))

	cfg.Timezone = "Nowhere/Special"
	_, err = cfg.DayBoundary()
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.path", envKey("SRS_DATABASE__PATH"))
	assert.Equal(t, "day_start_hour", envKey("SRS_DAY_START_HOUR"))
	assert.Equal(t, "scheduler.leech_threshold", envKey("SRS_SCHEDULER__LEECH_THRESHOLD"))
}
