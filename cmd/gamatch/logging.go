package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/parameter"
)

// maxLogSize triggers rotation of an existing log file on startup
const maxLogSize = 10 * 1024 * 1024

// setupLogging builds the process logger
// Output goes to the configured log file; toFile forces a file when none is configured
// because the terminal viewer owns stdout
func setupLogging(s config.Settings, stderr io.Writer, toFile bool) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, nil, errors.Wrapf(config.ErrConfig, "log level %q", s.LogLevel)
	}

	path := s.LogFile
	if path == "" && toFile {
		path = parameter.LogFileName
	}

	var (
		w      = stderr
		closer io.Closer
	)
	if path != "" {
		f, err := openLogFile(path)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), closer, nil
}

// openLogFile appends to path, rotating it first when it exceeds maxLogSize
func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create log directory")
		}
	}

	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		ext := filepath.Ext(path)
		rotated := strings.TrimSuffix(path, ext) + "-" + time.Now().Format("20060102-150405") + ext
		if err := os.Rename(path, rotated); err != nil {
			return nil, errors.Wrap(err, "rotate log file")
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	return f, nil
}
