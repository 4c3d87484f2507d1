package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

// Deployer deploys a charm. An empty app deploys under the charm's name.
type Deployer = extension.Deployer

// ExtensionAware decorates a Deployer with the hooks of one extension. It is
// itself a Deployer and can be used wherever the plain client is expected.
type ExtensionAware struct {
	client    Deployer
	extension extension.Extension
}

var (
	_ Deployer             = (*ExtensionAware)(nil)
	_ extension.Integrator = (*ExtensionAware)(nil)
)

// New wraps client with ext. A nil ext is replaced by the default no-op
// extension.
func New(client Deployer, ext extension.Extension) *ExtensionAware {
	if ext == nil {
		ext = &extension.Default{}
	}
	return &ExtensionAware{client: client, extension: ext}
}

// Extension returns the extension the wrapper runs.
func (d *ExtensionAware) Extension() extension.Extension {
	return d.extension
}

// Deploy runs the pre-deploy hook, lets the extension rewrite args, deploys
// through the wrapped client and finally runs the post-deploy hook. The first
// failure aborts the sequence and is returned; nothing is rolled back.
func (d *ExtensionAware) Deploy(ctx context.Context, charm, app string, args extension.DeployArgs) error {
	appName := app
	if appName == "" {
		appName = charm
	}
	ext := d.extension.Name()
	logger := slogcontext.FromCtx(ctx).With(slog.String("extension", ext), slog.String("app", appName))

	if err := d.extension.PreDeployHook(ctx, d, charm, appName); err != nil {
		return fmt.Errorf("extension %s pre-deploy hook for %s: %w", ext, appName, err)
	}

	modified := d.extension.ModifyDeployArgs(args.Clone())
	logger.DebugContext(ctx, "deploying charm", slog.String("charm", charm), slog.Bool("trust", modified.Trust))

	if err := d.client.Deploy(ctx, charm, app, modified); err != nil {
		return fmt.Errorf("deploying %s: %w", appName, err)
	}

	if err := d.extension.PostDeployHook(ctx, d, appName, charm); err != nil {
		return fmt.Errorf("extension %s post-deploy hook for %s: %w", ext, appName, err)
	}
	return nil
}

// Integrate forwards to the wrapped client. It returns errors.ErrUnsupported
// when the client cannot integrate applications.
func (d *ExtensionAware) Integrate(ctx context.Context, app1, app2 string) error {
	i, ok := d.client.(extension.Integrator)
	if !ok {
		return fmt.Errorf("integrating %s with %s: %w", app1, app2, errors.ErrUnsupported)
	}
	return i.Integrate(ctx, app1, app2)
}
