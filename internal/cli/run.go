package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/adapters/stdio"
	"github.com/aretw0/canopy/pkg/adapters/terminal"
	"github.com/aretw0/canopy/pkg/domain"
)

// terminalViewID identifies the single view of an interactive run.
const terminalViewID domain.ViewID = "terminal"

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	Demo       string
	// JSON switches from the interactive terminal to JSON lines on stdin/stdout.
	JSON      bool
	Width     int
	LogLevel  string
	LogFormat string
	Debug     bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run drives a single demo widget from the terminal until the user quits or ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	cfg, err := loadConfig(opts.ConfigPath, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg.Logging.Level, cfg.Logging.Format, opts.Debug)
	if err != nil {
		return err
	}

	l, err := NewDemo(opts.Demo, logger)
	if err != nil {
		return err
	}
	w, err := canopy.New(l,
		canopy.WithID(opts.Demo),
		canopy.WithLogger(logger),
		canopy.WithExitTimeout(cfg.Views.ExitTimeout),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("widget did not stop cleanly", "err", err)
		}
	}()

	if opts.JSON {
		t := stdio.New(opts.Stdin, opts.Stdout,
			stdio.WithQueueSize(cfg.Views.QueueSize),
			stdio.WithLogger(logger),
		)
		return t.Serve(ctx, w)
	}
	return runTerminal(ctx, w, opts, logger)
}

func runTerminal(ctx context.Context, w *canopy.Widget, opts RunOptions, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tui.PrintBanner(opts.Stdout)
	view := terminal.NewView(opts.Stdout,
		terminal.WithRenderer(tui.NewRenderer(opts.Width)),
		terminal.WithLogger(logger),
	)
	go func() { _ = view.Run(ctx) }()

	ready := map[string]any{"type": domain.MessageClientReady, "viewId": string(terminalViewID)}
	if err := w.Handle(ctx, ready, view); err != nil {
		return err
	}
	defer func() {
		removed := map[string]any{"type": domain.MessageClientRemoved, "viewId": string(terminalViewID)}
		_ = w.Handle(context.WithoutCancel(ctx), removed, nil)
	}()

	printSystemMessage(opts.Stdout, "type 'click <target> [json-args]' to fire a handler, 'quit' to leave")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(opts.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Done():
			return w.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			quit, err := handleLine(ctx, w, line)
			if err != nil {
				printSystemMessage(opts.Stdout, "%v", err)
				continue
			}
			if quit {
				return nil
			}
		}
	}
}

// handleLine applies one line of terminal input. Empty lines redraw nothing and are ignored.
func handleLine(ctx context.Context, w *canopy.Widget, line string) (quit bool, err error) {
	clean, err := terminal.SanitizeInput(line)
	if err != nil {
		return false, err
	}
	cmd, err := terminal.ParseCommand(clean)
	if errors.Is(err, terminal.ErrEmptyCommand) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cmd.Name == terminal.CommandQuit {
		return true, nil
	}
	if err := w.Handle(ctx, cmd.Message(terminalViewID), nil); err != nil {
		return false, fmt.Errorf("dispatch %s: %w", cmd.Target, err)
	}
	return false, nil
}
