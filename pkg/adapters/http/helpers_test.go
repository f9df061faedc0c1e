package http_test

import (
	"io"
	"log/slog"
)

func canopyTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
