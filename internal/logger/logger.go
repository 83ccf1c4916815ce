package logger

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"hostsync/internal/config"
)

// New creates a zerolog logger from the application log configuration.
// Console output always goes to stderr; file output is enabled when a log
// file path is configured and is rotated with lumberjack.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{consoleWriter(cfg.LogFormat, os.Stderr, false)}

	if cfg.LogFile != "" {
		fileWriter, err := newFileWriter(cfg)
		if err != nil {
			return zerolog.Logger{}, err
		}
		writers = append(writers, fileWriter)
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)

	// Route anything using the standard log package through zerolog.
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}

// consoleWriter returns a writer matching the configured format.
// "console" uses zerolog's human-readable writer, everything else is raw JSON.
func consoleWriter(format string, out io.Writer, noColor bool) io.Writer {
	switch strings.ToLower(format) {
	case "console", "text", "":
		return zerolog.ConsoleWriter{Out: out, NoColor: noColor}
	default:
		return out
	}
}

// newFileWriter builds a rotating file writer.
func newFileWriter(cfg config.LogConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, err
	}

	maxSize := cfg.MaxLogSizeMB
	if maxSize <= 0 {
		maxSize = config.DefaultMaxLogSizeMB
	}
	maxBackups := cfg.MaxLogBackups
	if maxBackups <= 0 {
		maxBackups = config.DefaultMaxLogBackups
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		LocalTime:  true,
	}

	if strings.ToLower(cfg.LogFormat) == "console" || strings.ToLower(cfg.LogFormat) == "text" {
		return consoleWriter(cfg.LogFormat, rotator, true), nil
	}
	return rotator, nil
}
