// Package logging builds the process logger: slog text output to stdout
// and, optionally, to a size-rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log records go.
type Options struct {
	// File is the path of the rotated log file. Empty disables the file sink.
	File  string
	Level slog.Level
}

// New returns a logger and a closer for the file sink.
func New(opts Options) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	return NewWithWriter(w, opts.Level), closer
}

// NewWithWriter returns a text logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return NewWithWriter(io.Discard, slog.LevelError+1)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
