package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default slog logger writing JSON to stdout and returns
// its handler so callers can fan it out with NewMultiHandler later.
func Setup() slog.Handler {
	return SetupWriter(os.Stdout, slog.LevelInfo)
}

func SetupWriter(w io.Writer, level slog.Level) slog.Handler {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return handler
}
