package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// stderrIsTTY reports whether stderr is attached to a terminal. The log
// handler and the progress renderer key their output mode off the same probe.
func stderrIsTTY() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}

func setSlog(level slog.Level) {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, level, stderrIsTTY())))
}

// newLogHandler builds a colored handler for terminals and a plain text
// handler for pipes and files. Source locations are annotated at debug level
// only, which the config's debug flag selects.
func newLogHandler(w io.Writer, level slog.Level, tty bool) slog.Handler {
	addSource := level <= slog.LevelDebug

	if tty {
		return tint.NewHandler(w, &tint.Options{
			Level:     level,
			AddSource: addSource,
			NoColor:   false,
		})
	}

	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
	})
}
