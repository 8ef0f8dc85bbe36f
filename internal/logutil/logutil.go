package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type loggerConfig struct {
	Level  string
	Format string
	File   string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromViper builds the root logger from the logging.* keys. The returned
// closer releases the optional file sink.
func FromViper(cfg *viper.Viper, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	return newLogger(loggerConfig{
		Level:  cfg.GetString("logging.level"),
		Format: cfg.GetString("logging.format"),
		File:   cfg.GetString("logging.file"),
	}, stderr)
}

func newLogger(cfg loggerConfig, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var console io.Writer
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console", "text":
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	case "json":
		console = stderr
	default:
		return zerolog.Nop(), nil, fmt.Errorf("unknown logging.format: %s", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	out := console
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func parseLevel(raw string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown logging.level: %s", raw)
	}
}

func init() {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
