package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/canopy/internal/logging"
	"golang.org/x/term"
)

// createLogger configures the application logger. Logs always go to Stderr, so that
// Stdout stays free for views and JSON-RPC. The auto format picks text on a terminal and
// JSON otherwise.
func createLogger(level, format string, debug bool) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		lvl = slog.LevelDebug
	}

	switch format {
	case "json":
		return logging.NewJSON(lvl), nil
	case "text":
		return logging.New(lvl), nil
	case "", "auto":
		if term.IsTerminal(int(os.Stderr.Fd())) {
			return logging.New(lvl), nil
		}
		return logging.NewJSON(lvl), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
