package manifest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

type call struct {
	argv []string
	env  []string
}

type recordingRunner struct {
	calls []call
	err   error
}

func (r *recordingRunner) run(_ context.Context, argv []string, env []string) error {
	r.calls = append(r.calls, call{argv: argv, env: env})
	return r.err
}

type fakeModels struct {
	added     []string
	destroyed []string
	addErr    error
}

func (f *fakeModels) AddModel(_ context.Context, name string) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	full := "test-" + name
	f.added = append(f.added, full)
	return full, nil
}

func (f *fakeModels) DestroyModel(_ context.Context, name string) error {
	f.destroyed = append(f.destroyed, name)
	return nil
}

func loadSidecar(t *testing.T) *Manifest {
	t.Helper()
	m, err := ParseFile(testPath("valid-sidecar.yaml"))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	return m
}

func TestExtension_Metadata(t *testing.T) {
	ext := NewExtension(&Manifest{Name: "minimal", CLIOption: "tiny", Help: "h"}, nil)
	if ext.Name() != "minimal" || ext.CLIOption() != "tiny" || ext.HelpText() != "h" {
		t.Errorf("metadata = %+v", extension.Describe(ext))
	}
}

func TestExtension_ModifyDeployArgs(t *testing.T) {
	ext := NewExtension(loadSidecar(t), nil)

	in := extension.NewDeployArgs()
	in.Config = map[string]any{"log-level": "info", "other": "kept"}
	in.Constraints = map[string]string{"cores": "2"}
	in.Base = "ubuntu@22.04"

	out := ext.ModifyDeployArgs(in.Clone())

	if !out.Trust {
		t.Error("Trust not applied")
	}
	if out.Channel != "latest/edge" {
		t.Errorf("Channel = %q", out.Channel)
	}
	if out.NumUnits != 2 {
		t.Errorf("NumUnits = %d", out.NumUnits)
	}
	if out.Revision == nil || *out.Revision != 12 {
		t.Errorf("Revision = %v", out.Revision)
	}
	if out.Base != "ubuntu@22.04" {
		t.Errorf("Base = %q, unset override must keep the value", out.Base)
	}
	if out.Config["log-level"] != "debug" || out.Config["other"] != "kept" || out.Config["replicas"] != 3 {
		t.Errorf("Config = %v", out.Config)
	}
	if out.Constraints["cores"] != "2" || out.Constraints["mem"] != "2G" {
		t.Errorf("Constraints = %v", out.Constraints)
	}
	if out.Bind != nil {
		t.Errorf("Bind = %v, want nil", out.Bind)
	}
	if in.Config["log-level"] != "info" {
		t.Error("input args were mutated")
	}
}

func TestExtension_ModifyDeployArgsNoOverrides(t *testing.T) {
	ext := NewExtension(&Manifest{Name: "minimal", Help: "h"}, nil)
	in := extension.NewDeployArgs()
	in.Channel = "stable"

	out := ext.ModifyDeployArgs(in.Clone())
	if out.Channel != "stable" || out.NumUnits != 1 || out.Trust || out.Config != nil {
		t.Errorf("args changed without overrides: %+v", out)
	}
}

func TestExtension_Hooks(t *testing.T) {
	ctx := context.Background()
	r := &recordingRunner{}
	models := &fakeModels{}
	ext := NewExtension(loadSidecar(t), r.run)

	if err := ext.SetupInfrastructure(ctx, models); err != nil {
		t.Fatalf("SetupInfrastructure error: %v", err)
	}
	if err := ext.PreDeployHook(ctx, nil, "my-charm", "my-app"); err != nil {
		t.Fatalf("PreDeployHook error: %v", err)
	}
	if err := ext.PostDeployHook(ctx, nil, "my-app", "my-charm"); err != nil {
		t.Fatalf("PostDeployHook error: %v", err)
	}
	if err := ext.TeardownHook(ctx, models); err != nil {
		t.Fatalf("TeardownHook error: %v", err)
	}

	// pre_deploy and teardown are not configured.
	if len(r.calls) != 2 {
		t.Fatalf("runner called %d times, want 2", len(r.calls))
	}

	setup := r.calls[0]
	if strings.Join(setup.argv, " ") != "sh -c echo setup" {
		t.Errorf("setup argv = %v", setup.argv)
	}
	if !slices.Contains(setup.env, "JUBILANTX_EXTENSION=sidecar") || !slices.Contains(setup.env, "JUBILANTX_MODELS=test-logging") {
		t.Errorf("setup env = %v", setup.env)
	}

	post := r.calls[1]
	for _, want := range []string{"JUBILANTX_APP=my-app", "JUBILANTX_CHARM=my-charm", "JUBILANTX_EXTENSION=sidecar"} {
		if !slices.Contains(post.env, want) {
			t.Errorf("post_deploy env missing %s: %v", want, post.env)
		}
	}

	if !slices.Equal(models.added, []string{"test-logging"}) || !slices.Equal(models.destroyed, []string{"test-logging"}) {
		t.Errorf("models added=%v destroyed=%v", models.added, models.destroyed)
	}
}

func TestExtension_TeardownDestroysModelsOnFailure(t *testing.T) {
	ctx := context.Background()
	r := &recordingRunner{}
	models := &fakeModels{}
	m := loadSidecar(t)
	m.Hooks.Teardown = []string{"false"}
	ext := NewExtension(m, r.run)

	if err := ext.SetupInfrastructure(ctx, models); err != nil {
		t.Fatalf("SetupInfrastructure error: %v", err)
	}

	r.err = errors.New("exit status 1")
	err := ext.TeardownHook(ctx, models)
	if err == nil || !strings.Contains(err.Error(), "teardown hook") {
		t.Errorf("TeardownHook error = %v, want teardown hook failure", err)
	}
	if !slices.Equal(models.destroyed, []string{"test-logging"}) {
		t.Errorf("destroyed = %v", models.destroyed)
	}
}

func TestExtension_SetupModelFailure(t *testing.T) {
	r := &recordingRunner{}
	ext := NewExtension(loadSidecar(t), r.run)

	err := ext.SetupInfrastructure(context.Background(), &fakeModels{addErr: errors.New("no controller")})
	if err == nil || !strings.Contains(err.Error(), "adding model logging") {
		t.Errorf("error = %v", err)
	}
	if len(r.calls) != 0 {
		t.Error("setup command ran after model failure")
	}
}

func TestFactory_FreshInstances(t *testing.T) {
	f := Factory(&Manifest{Name: "minimal", Help: "h"}, nil)
	a, err := f()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := f()
	if a == b {
		t.Error("factory returned the same instance twice")
	}
}

func TestExecRunner(t *testing.T) {
	ctx := context.Background()
	if err := ExecRunner(ctx, []string{"sh", "-c", `test "$JUBILANTX_APP" = demo`}, []string{"JUBILANTX_APP=demo"}); err != nil {
		t.Errorf("ExecRunner error: %v", err)
	}
	err := ExecRunner(ctx, []string{"sh", "-c", "echo boom >&2; exit 3"}, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("ExecRunner error = %v, want output in error", err)
	}
}
