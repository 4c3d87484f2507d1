// Package log configures the CLI's structured logger from command flags.
// Logs can be written as text or JSON, filtered by level, and sent to stdout
// or stderr.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/flags"
)

const (
	FormatFlagName = "logformat"

	FormatText = "text"
	FormatJSON = "json"
)

const (
	LevelFlagName = "loglevel"

	LevelWarn  = "warn"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelError = "error"
)

const (
	OutputFlagName = "logoutput"

	OutputStderr = "stderr"
	OutputStdout = "stdout"
)

// RegisterLoggingFlags adds the logging flags to flagset. Register them as
// persistent flags to make them available to every subcommand.
//
//	--logformat json     # one JSON object per line
//	--loglevel debug     # include extension discovery details
//	--logoutput stdout   # mix logs into command output
func RegisterLoggingFlags(flagset *pflag.FlagSet) {
	flags.EnumVar(flagset, FormatFlagName, []string{
		FormatText,
		FormatJSON,
	}, `set the log output format
   text: human-readable key=value pairs (default)
   json: one JSON object per line`)

	flags.EnumVar(flagset, LevelFlagName, []string{
		LevelWarn,
		LevelDebug,
		LevelInfo,
		LevelError,
	}, `set the logging level
   debug: show everything, including skipped extensions
   info:  show discovered extensions and deploy progress
   warn:  show warnings and errors only (default)
   error: show errors only`)

	flags.EnumVar(flagset, OutputFlagName, []string{
		OutputStderr,
		OutputStdout,
	}, `set the log output destination
   stderr: write logs to standard error (default)
   stdout: write logs to standard output`)
}

// GetBaseLogger builds a logger from the logging flags of cmd.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := levelFromFlags(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to get log level: %w", err)
	}

	format, err := cmd.Flags().GetString(FormatFlagName)
	if err != nil {
		return nil, fmt.Errorf("failed to get the log format from the command flag: %w", err)
	}

	output, err := cmd.Flags().GetString(OutputFlagName)
	if err != nil {
		return nil, fmt.Errorf("failed to get the log output from the command flag: %w", err)
	}

	var w io.Writer
	switch output {
	case OutputStdout:
		w = cmd.OutOrStdout()
	case OutputStderr:
		w = cmd.ErrOrStderr()
	default:
		return nil, fmt.Errorf("invalid log output: %s", output)
	}

	return New(w, format, level)
}

// New returns a logger writing format to w at level.
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

// ParseLevel converts a level flag value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", s)
	}
}

func levelFromFlags(fs *pflag.FlagSet) (slog.Level, error) {
	s, err := fs.GetString(LevelFlagName)
	if err != nil {
		return slog.LevelWarn, err
	}
	return ParseLevel(s)
}

// WithLogger stores logger in ctx for slogcontext.FromCtx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return slogcontext.NewCtx(ctx, logger)
}
