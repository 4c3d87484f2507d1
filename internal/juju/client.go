package juju

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

// Runner executes one juju invocation and returns its standard output.
type Runner func(ctx context.Context, binary string, args ...string) (string, error)

// Client runs juju commands against one model.
type Client struct {
	// Model is passed as --model; empty means the current model.
	Model string
	// Binary is the juju executable. Empty means "juju" on PATH.
	Binary string
	// WaitTimeout bounds every command that has no earlier deadline.
	WaitTimeout time.Duration
	// Runner defaults to ExecRunner.
	Runner Runner
	// Stderr receives juju's stderr as it runs, if set.
	Stderr io.Writer
}

var _ extension.Deployer = (*Client)(nil)

// CLIError is returned when juju exits with a non-zero status.
type CLIError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CLIError) Error() string {
	msg := fmt.Sprintf("juju %s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CLIError) Unwrap() error { return e.Err }

// Deploy runs `juju deploy` for charm, named app when app is non-empty.
func (c *Client) Deploy(ctx context.Context, charm, app string, args extension.DeployArgs) error {
	argv := DeployArgv(charm, app, args)
	_, err := c.Run(ctx, argv...)
	return err
}

// Integrate relates two applications, given as "app" or "app:endpoint".
func (c *Client) Integrate(ctx context.Context, app1, app2 string) error {
	_, err := c.Run(ctx, "integrate", app1, app2)
	return err
}

// Run executes the juju subcommand in args[0] with --model inserted after
// it when a model is set.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("no juju command given")
	}
	if c.Model != "" {
		args = slices.Insert(slices.Clone(args), 1, "--model", c.Model)
	}
	return c.run(ctx, args...)
}

// run executes args without adding --model.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.WaitTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.WaitTimeout)
			defer cancel()
		}
	}

	binary := c.Binary
	if binary == "" {
		binary = "juju"
	}
	runner := c.Runner
	if runner == nil {
		runner = execRunner(c.Stderr)
	}

	slogcontext.FromCtx(ctx).DebugContext(ctx, "running juju",
		slog.String("realm", "juju"),
		slog.String("args", strings.Join(args, " ")))

	return runner(ctx, binary, args...)
}

// ExecRunner runs juju as a subprocess.
func ExecRunner(ctx context.Context, binary string, args ...string) (string, error) {
	return execRunner(nil)(ctx, binary, args...)
}

func execRunner(stderr io.Writer) Runner {
	return func(ctx context.Context, binary string, args ...string) (string, error) {
		cmd := exec.CommandContext(ctx, binary, args...)

		var stdoutBuf, stderrBuf bytes.Buffer
		cmd.Stdout = &stdoutBuf
		if stderr != nil {
			cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)
		} else {
			cmd.Stderr = &stderrBuf
		}

		if err := cmd.Run(); err != nil {
			return stdoutBuf.String(), &CLIError{Args: args, Stderr: stderrBuf.String(), Err: err}
		}
		return stdoutBuf.String(), nil
	}
}

// DeployArgv returns the juju arguments deploying charm with args, without
// --model. Map-valued arguments are emitted in key order.
func DeployArgv(charm, app string, args extension.DeployArgs) []string {
	argv := []string{"deploy", charm}
	if app != "" {
		argv = append(argv, app)
	}

	if len(args.AttachStorage) > 0 {
		argv = append(argv, "--attach-storage", strings.Join(args.AttachStorage, ","))
	}
	if args.Base != "" {
		argv = append(argv, "--base", args.Base)
	}
	if len(args.Bind) > 0 {
		var binds []string
		for _, k := range sortedKeys(args.Bind) {
			if k == "" {
				binds = append(binds, args.Bind[k])
				continue
			}
			binds = append(binds, k+"="+args.Bind[k])
		}
		argv = append(argv, "--bind", strings.Join(binds, " "))
	}
	if args.Channel != "" {
		argv = append(argv, "--channel", args.Channel)
	}
	for _, k := range sortedKeys(args.Config) {
		argv = append(argv, "--config", k+"="+FormatConfigValue(args.Config[k]))
	}
	if len(args.Constraints) > 0 {
		var cons []string
		for _, k := range sortedKeys(args.Constraints) {
			cons = append(cons, k+"="+args.Constraints[k])
		}
		argv = append(argv, "--constraints", strings.Join(cons, " "))
	}
	if args.Force {
		argv = append(argv, "--force")
	}
	if args.NumUnits != 1 {
		argv = append(argv, "--num-units", strconv.Itoa(args.NumUnits))
	}
	for _, o := range args.Overlays {
		argv = append(argv, "--overlay", o)
	}
	for _, k := range sortedKeys(args.Resources) {
		argv = append(argv, "--resource", k+"="+args.Resources[k])
	}
	if args.Revision != nil {
		argv = append(argv, "--revision", strconv.Itoa(*args.Revision))
	}
	for _, k := range sortedKeys(args.Storage) {
		argv = append(argv, "--storage", k+"="+args.Storage[k])
	}
	if len(args.To) > 0 {
		argv = append(argv, "--to", strings.Join(args.To, ","))
	}
	if args.Trust {
		argv = append(argv, "--trust")
	}
	return argv
}

// FormatConfigValue renders a charm config value the way juju parses it.
func FormatConfigValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
