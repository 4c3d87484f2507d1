package extension

import "context"

// DefaultName is the name of the no-op extension used when none is selected.
const DefaultName = "default"

// Default is the no-op extension. It stands in whenever no extension was
// selected or the selected name is unknown.
type Default struct {
	Hooks

	// Pointers to zero-size values may all share one address, and every
	// NewDefault call must return a distinct instance.
	_ byte
}

var _ Extension = (*Default)(nil)

// NewDefault is the Factory of Default.
func NewDefault() (Extension, error) {
	return &Default{}, nil
}

func (*Default) Name() string      { return DefaultName }
func (*Default) CLIOption() string { return DefaultName }
func (*Default) HelpText() string  { return "Default extension (no-op)" }

// SetupInfrastructure does nothing.
func (*Default) SetupInfrastructure(context.Context, ModelFactory) error { return nil }

// ModifyDeployArgs returns args unchanged.
func (*Default) ModifyDeployArgs(args DeployArgs) DeployArgs { return args }

// PostDeployHook does nothing.
func (*Default) PostDeployHook(context.Context, Deployer, string, string) error { return nil }
