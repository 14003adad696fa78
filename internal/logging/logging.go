// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/conorfennell/srs/internal/config"
	"github.com/pkg/errors"
)

// New returns a logger writing to w with the configured level and format.
func New(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("invalid log format %q", cfg.Format)
	}
}

// Setup builds a logger and installs it as the slog default.
func Setup(w io.Writer, cfg config.LogConfig) error {
	logger, err := New(w, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
