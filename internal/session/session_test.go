package session

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
	"github.com/jubilantx-labs/jubilantx/internal/registry"
)

type lifecycleExtension struct {
	setupErr    error
	teardownErr error
	setups      int
	teardowns   int
	models      extension.ModelFactory
}

func (e *lifecycleExtension) Name() string      { return "lifecycle" }
func (e *lifecycleExtension) CLIOption() string { return "lifecycle" }
func (e *lifecycleExtension) HelpText() string  { return "counts hook calls" }

func (e *lifecycleExtension) SetupInfrastructure(_ context.Context, models extension.ModelFactory) error {
	e.setups++
	e.models = models
	return e.setupErr
}

func (e *lifecycleExtension) ModifyDeployArgs(a extension.DeployArgs) extension.DeployArgs {
	a.Trust = true
	return a
}

func (e *lifecycleExtension) PreDeployHook(context.Context, extension.Deployer, string, string) error {
	return nil
}

func (e *lifecycleExtension) PostDeployHook(context.Context, extension.Deployer, string, string) error {
	return nil
}

func (e *lifecycleExtension) TeardownHook(context.Context, extension.ModelFactory) error {
	e.teardowns++
	return e.teardownErr
}

type fixedResolver struct {
	ext extension.Extension
	err error
}

func (r fixedResolver) GetActiveExtension(registry.RunConfig) (extension.Extension, error) {
	return r.ext, r.err
}

type recordingClient struct {
	args []extension.DeployArgs
}

func (c *recordingClient) Deploy(_ context.Context, _, _ string, args extension.DeployArgs) error {
	c.args = append(c.args, args)
	return nil
}

type noModels struct{}

func (noModels) AddModel(context.Context, string) (string, error) { return "", nil }
func (noModels) DestroyModel(context.Context, string) error         { return nil }

func TestOpen_RunsSetupAndWrapsClient(t *testing.T) {
	ctx := context.Background()
	ext := &lifecycleExtension{}
	client := &recordingClient{}
	models := noModels{}

	s, err := Open(ctx, fixedResolver{ext: ext}, pflag.NewFlagSet("t", pflag.ContinueOnError), client, models)
	require.NoError(t, err)

	assert.Equal(t, 1, ext.setups)
	assert.Equal(t, models, ext.models)
	assert.Same(t, ext, s.Extension())

	require.NoError(t, s.Deployer().Deploy(ctx, "my-charm", "", extension.NewDeployArgs()))
	require.Len(t, client.args, 1)
	assert.True(t, client.args[0].Trust)
}

func TestClose_RunsTeardownOnce(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("model stuck")
	ext := &lifecycleExtension{teardownErr: boom}

	s, err := Start(ctx, ext, &recordingClient{}, noModels{})
	require.NoError(t, err)

	err = s.Close(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Close(ctx), boom)
	assert.Equal(t, 1, ext.teardowns)
}

func TestOpen_SetupFailureSkipsTeardown(t *testing.T) {
	boom := errors.New("no controller")
	ext := &lifecycleExtension{setupErr: boom}

	s, err := Open(context.Background(), fixedResolver{ext: ext}, nil, &recordingClient{}, noModels{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ext.teardowns)
}

func TestOpen_ResolverError(t *testing.T) {
	boom := errors.New("factory failed")
	_, err := Open(context.Background(), fixedResolver{err: boom}, nil, &recordingClient{}, noModels{})
	assert.ErrorIs(t, err, boom)
}

func TestOpen_WithManagerDefaultsWhenUnset(t *testing.T) {
	mgr := registry.NewManager(nil, nil)
	fs := pflag.NewFlagSet("t", pflag.ContinueOnError)

	s, err := Open(context.Background(), mgr, fs, &recordingClient{}, noModels{})
	require.NoError(t, err)
	assert.Equal(t, extension.DefaultName, s.Extension().Name())
	assert.NoError(t, s.Close(context.Background()))
}
