package extension

import "context"

// Deployer is the deploy operation hooks receive. The extension-aware wrapper
// passes itself, so a hook that deploys further charms goes through the same
// extension.
type Deployer interface {
	Deploy(ctx context.Context, charm, app string, args DeployArgs) error
}

// Integrator relates two applications, given as "app" or "app:endpoint".
// Hooks can type-assert their Deployer to it.
type Integrator interface {
	Integrate(ctx context.Context, app1, app2 string) error
}

// ModelFactory creates and destroys temporary models. It is handed to
// SetupInfrastructure and TeardownHook untouched.
type ModelFactory interface {
	// AddModel creates a temporary model and returns its full name.
	AddModel(ctx context.Context, name string) (string, error)
	// DestroyModel removes a model created by AddModel.
	DestroyModel(ctx context.Context, name string) error
}

// ModelDeployer deploys into a model created by a ModelFactory. Factories
// that can do so implement it next to ModelFactory.
type ModelDeployer interface {
	DeployToModel(ctx context.Context, model, charm, app string, args DeployArgs) error
}

// Extension is a bundle of lifecycle hooks that customizes how charms are
// deployed during a test run.
//
// Name, CLIOption, HelpText, SetupInfrastructure, ModifyDeployArgs and
// PostDeployHook have no default and must be implemented. PreDeployHook and
// TeardownHook are optional: embed Hooks to get no-op versions.
type Extension interface {
	// Name returns the identifying name used for selection.
	Name() string
	// CLIOption returns the token a command-line flag is derived from
	// (e.g. "meshify" for --meshify).
	CLIOption() string
	// HelpText returns the description shown in CLI help.
	HelpText() string

	// SetupInfrastructure prepares anything the extension needs before
	// tests run.
	SetupInfrastructure(ctx context.Context, models ModelFactory) error
	// ModifyDeployArgs rewrites the deploy arguments. It must not mutate
	// the maps or slices of args in place when it intends to keep the
	// original; the wrapper already hands it a private copy.
	ModifyDeployArgs(args DeployArgs) DeployArgs
	// PostDeployHook runs after a successful deploy.
	PostDeployHook(ctx context.Context, d Deployer, appName, charm string) error

	// PreDeployHook runs before every deploy.
	PreDeployHook(ctx context.Context, d Deployer, charm, appName string) error
	// TeardownHook runs once when the test session ends.
	TeardownHook(ctx context.Context, models ModelFactory) error
}

// Hooks supplies no-op bodies for the optional hooks of Extension.
type Hooks struct{}

// PreDeployHook does nothing.
func (Hooks) PreDeployHook(context.Context, Deployer, string, string) error { return nil }

// TeardownHook does nothing.
func (Hooks) TeardownHook(context.Context, ModelFactory) error { return nil }

// Factory constructs a fresh Extension. The registry maps names to
// factories, never to instances.
type Factory func() (Extension, error)

// Descriptor is a snapshot of an extension's identifying metadata.
type Descriptor struct {
	Name      string
	CLIOption string
	HelpText  string
}

// Describe returns the descriptor of ext.
func Describe(ext Extension) Descriptor {
	return Descriptor{
		Name:      ext.Name(),
		CLIOption: ext.CLIOption(),
		HelpText:  ext.HelpText(),
	}
}
