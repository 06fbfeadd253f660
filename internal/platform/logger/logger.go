package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON lines in production, human-readable
// text with debug output in development.
func New(development bool) *slog.Logger {
	return NewWithWriter(os.Stdout, development)
}

func NewWithWriter(w io.Writer, development bool) *slog.Logger {
	if development {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
