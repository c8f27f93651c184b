// Package bemlog sets up the process-wide structured logger. It mirrors
// the teacher's mode-gated setupLogging (stdio mode redirects to stderr
// and drops verbosity unless debug is set; server mode logs normally)
// but speaks slog so per-field and per-document log lines carry
// structured attributes instead of formatted strings.
package bemlog

import (
	"io"
	"log/slog"
	"os"
)

// Mode selects which of the two logging postures the teacher's CLI
// distinguished: Stdio (an MCP server talking newline-JSON over stdio,
// where stray log output corrupts the protocol stream) or Server
// (a long-running process free to log to stdout/stderr normally).
type Mode int

const (
	ModeServer Mode = iota
	ModeStdio
)

// Setup builds the process-wide slog.Logger for mode and installs it as
// slog's default, returning it for callers that want to hold a
// reference directly. debug raises the level to Debug; otherwise Info.
// In ModeStdio without debug, output is discarded entirely so nothing
// reaches the transport stream.
func Setup(mode Mode, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	if mode == ModeStdio && !debug {
		out = io.Discard
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Field builds a slog string attribute scoping subsequent log lines to one
// field id, the unit every C1-C8 component logs against.
func Field(fieldID string) slog.Attr {
	return slog.String("field_id", fieldID)
}

// Document builds a slog string attribute scoping subsequent log lines to
// one source document path.
func Document(path string) slog.Attr {
	return slog.String("document", path)
}
