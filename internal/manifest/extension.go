package manifest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/branding"
	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

// Runner runs one hook command with extra environment variables.
type Runner func(ctx context.Context, argv []string, env []string) error

// Extension is an extension.Extension driven by a Manifest.
type Extension struct {
	manifest *Manifest
	run      Runner
	models   []string
}

var _ extension.Extension = (*Extension)(nil)

// NewExtension returns an extension for m. A nil run executes commands with
// os/exec.
func NewExtension(m *Manifest, run Runner) *Extension {
	if run == nil {
		run = ExecRunner
	}
	return &Extension{manifest: m, run: run}
}

// Factory returns an extension.Factory producing a fresh Extension for m on
// every call.
func Factory(m *Manifest, run Runner) extension.Factory {
	return func() (extension.Extension, error) {
		return NewExtension(m, run), nil
	}
}

func (e *Extension) Name() string      { return e.manifest.Name }
func (e *Extension) CLIOption() string { return e.manifest.Option() }
func (e *Extension) HelpText() string  { return e.manifest.Help }

// SetupInfrastructure adds the manifest's models and runs its setup command.
func (e *Extension) SetupInfrastructure(ctx context.Context, models extension.ModelFactory) error {
	for _, name := range e.manifest.Models {
		full, err := models.AddModel(ctx, name)
		if err != nil {
			return fmt.Errorf("adding model %s: %w", name, err)
		}
		e.models = append(e.models, full)
	}
	return e.hook(ctx, "setup", e.manifest.Hooks.Setup, nil)
}

// ModifyDeployArgs applies the manifest's deploy overrides.
func (e *Extension) ModifyDeployArgs(args extension.DeployArgs) extension.DeployArgs {
	o := e.manifest.Deploy

	if o.AttachStorage != nil {
		args.AttachStorage = slices.Clone(o.AttachStorage)
	}
	if o.Base != nil {
		args.Base = *o.Base
	}
	args.Bind = merge(args.Bind, o.Bind)
	if o.Channel != nil {
		args.Channel = *o.Channel
	}
	args.Config = merge(args.Config, o.Config)
	args.Constraints = merge(args.Constraints, o.Constraints)
	if o.Force != nil {
		args.Force = *o.Force
	}
	if o.NumUnits != nil {
		args.NumUnits = *o.NumUnits
	}
	if o.Overlays != nil {
		args.Overlays = slices.Clone(o.Overlays)
	}
	args.Resources = merge(args.Resources, o.Resources)
	if o.Revision != nil {
		rev := *o.Revision
		args.Revision = &rev
	}
	args.Storage = merge(args.Storage, o.Storage)
	if o.To != nil {
		args.To = slices.Clone(o.To)
	}
	if o.Trust != nil {
		args.Trust = *o.Trust
	}
	return args
}

func merge[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// PreDeployHook runs the manifest's pre_deploy command.
func (e *Extension) PreDeployHook(ctx context.Context, _ extension.Deployer, charm, appName string) error {
	return e.hook(ctx, "pre_deploy", e.manifest.Hooks.PreDeploy, deployEnv(charm, appName))
}

// PostDeployHook runs the manifest's post_deploy command.
func (e *Extension) PostDeployHook(ctx context.Context, _ extension.Deployer, appName, charm string) error {
	return e.hook(ctx, "post_deploy", e.manifest.Hooks.PostDeploy, deployEnv(charm, appName))
}

// TeardownHook runs the manifest's teardown command and destroys the models
// added during setup, even when the command fails.
func (e *Extension) TeardownHook(ctx context.Context, models extension.ModelFactory) error {
	err := e.hook(ctx, "teardown", e.manifest.Hooks.Teardown, nil)
	for _, name := range e.models {
		if derr := models.DestroyModel(ctx, name); derr != nil && err == nil {
			err = fmt.Errorf("destroying model %s: %w", name, derr)
		}
	}
	e.models = nil
	return err
}

func deployEnv(charm, appName string) []string {
	return []string{
		branding.EnvVar("APP") + "=" + appName,
		branding.EnvVar("CHARM") + "=" + charm,
	}
}

func (e *Extension) hook(ctx context.Context, point string, argv []string, env []string) error {
	if len(argv) == 0 {
		return nil
	}
	env = append(env, branding.EnvVar("EXTENSION")+"="+e.manifest.Name)
	if len(e.models) > 0 {
		env = append(env, branding.EnvVar("MODELS")+"="+strings.Join(e.models, ","))
	}

	slogcontext.FromCtx(ctx).DebugContext(ctx, "running extension hook",
		slog.String("extension", e.manifest.Name),
		slog.String("hook", point),
		slog.String("command", argv[0]))

	if err := e.run(ctx, argv, env); err != nil {
		return fmt.Errorf("%s hook: %w", point, err)
	}
	return nil
}

// ExecRunner runs argv as a subprocess inheriting the current environment
// plus env. Output is captured and reported on failure.
func ExecRunner(ctx context.Context, argv []string, env []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), env...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(output.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
