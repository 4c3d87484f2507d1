package registry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

type stubExtension struct {
	extension.Hooks
	name string
}

func (s *stubExtension) Name() string      { return s.name }
func (s *stubExtension) CLIOption() string { return s.name }
func (s *stubExtension) HelpText() string  { return "the " + s.name + " extension" }

func (s *stubExtension) SetupInfrastructure(context.Context, extension.ModelFactory) error {
	return nil
}

func (s *stubExtension) ModifyDeployArgs(a extension.DeployArgs) extension.DeployArgs { return a }

func (s *stubExtension) PostDeployHook(context.Context, extension.Deployer, string, string) error {
	return nil
}

// meshExtension is loaded as a prototype and instantiated from its type.
type meshExtension struct {
	extension.Hooks
	trusted int
}

func (*meshExtension) Name() string      { return "meshify" }
func (*meshExtension) CLIOption() string { return "meshify" }
func (*meshExtension) HelpText() string  { return "Deploy into a service mesh" }

func (*meshExtension) SetupInfrastructure(context.Context, extension.ModelFactory) error {
	return nil
}

func (m *meshExtension) ModifyDeployArgs(a extension.DeployArgs) extension.DeployArgs {
	m.trusted++
	a.Trust = true
	return a
}

func (*meshExtension) PostDeployHook(context.Context, extension.Deployer, string, string) error {
	return nil
}

// statelessExtension has no fields, so pointers to it need not be distinct.
type statelessExtension struct{}

func (*statelessExtension) Name() string      { return "stateless" }
func (*statelessExtension) CLIOption() string { return "stateless" }
func (*statelessExtension) HelpText() string  { return "Does nothing" }

func (*statelessExtension) SetupInfrastructure(context.Context, extension.ModelFactory) error {
	return nil
}

func (*statelessExtension) ModifyDeployArgs(a extension.DeployArgs) extension.DeployArgs { return a }

func (*statelessExtension) PostDeployHook(context.Context, extension.Deployer, string, string) error {
	return nil
}

func (*statelessExtension) PreDeployHook(context.Context, extension.Deployer, string, string) error {
	return nil
}

func (*statelessExtension) TeardownHook(context.Context, extension.ModelFactory) error { return nil }

func stubFactory(name string) extension.Factory {
	return func() (extension.Extension, error) { return &stubExtension{name: name}, nil }
}

func failingFactory() (extension.Extension, error) {
	return nil, errors.New("missing kubeconfig")
}

func entry(name string, v any) EntryPoint {
	return EntryPoint{Name: name, Load: func() (any, error) { return v, nil }}
}

func failingEntry(name string, err error) EntryPoint {
	return EntryPoint{Name: name, Load: func() (any, error) { return nil, err }}
}

type staticSource struct {
	name string
	eps  []EntryPoint
	err  error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) EntryPoints() ([]EntryPoint, error) { return s.eps, s.err }

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

type mapConfig map[string]string

func (c mapConfig) GetString(name string) (string, error) {
	v, ok := c[name]
	if !ok {
		return "", errors.New("flag accessed but not defined: " + name)
	}
	return v, nil
}

type boolConfig map[string]bool

func (c boolConfig) GetBool(name string) (bool, error) {
	return c[name], nil
}
