package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogcontext "github.com/veqryn/slog-context"
)

func newCommand(args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterLoggingFlags(cmd.PersistentFlags())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	return cmd, &stdout, &stderr
}

func TestGetBaseLogger_Defaults(t *testing.T) {
	cmd, stdout, stderr := newCommand()
	require.NoError(t, cmd.Execute())

	logger, err := GetBaseLogger(cmd)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("name", "meshify"))

	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "level=WARN msg=shown name=meshify")
}

func TestGetBaseLogger_JSONDebugStdout(t *testing.T) {
	cmd, stdout, stderr := newCommand("--logformat", "json", "--loglevel", "debug", "--logoutput", "stdout")
	require.NoError(t, cmd.Execute())

	logger, err := GetBaseLogger(cmd)
	require.NoError(t, err)

	logger.Debug("discovered", slog.String("name", "meshify"))

	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), `"level":"DEBUG"`)
	assert.Contains(t, stdout.String(), `"name":"meshify"`)
}

func TestRegisterLoggingFlags_RejectsUnknownValues(t *testing.T) {
	cmd, _, _ := newCommand("--loglevel", "trace")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	assert.Error(t, cmd.Execute())
}

func TestGetBaseLogger_MissingFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	_, err := GetBaseLogger(cmd)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		LevelDebug: slog.LevelDebug,
		LevelInfo:  slog.LevelInfo,
		LevelWarn:  slog.LevelWarn,
		LevelError: slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatText, slog.LevelInfo)
	require.NoError(t, err)

	ctx := WithLogger(context.Background(), logger)
	slogcontext.FromCtx(ctx).Info("from context")
	assert.Contains(t, buf.String(), "msg=\"from context\"")
}
