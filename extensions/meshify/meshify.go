// Package meshify deploys charms into an Istio service mesh. Importing it
// registers the "meshify" extension with the compiled-in registry.
package meshify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
	"github.com/jubilantx-labs/jubilantx/internal/registry"
)

const (
	// Name is the registered name and CLI option of the extension.
	Name = "meshify"
	// MeshModel is the model the mesh control plane runs in.
	MeshModel = "istio-system"
	// ControlPlaneCharm is deployed into MeshModel.
	ControlPlaneCharm = "istio-k8s"
	// BeaconApp enrolls the applications of the deploy model into the mesh.
	BeaconApp = "istio-beacon-k8s"
	// BeaconEndpoint is the BeaconApp endpoint applications relate to.
	BeaconEndpoint = "service-mesh"
)

func init() {
	registry.Register(registry.EntryPointGroup, Name, New)
}

// Extension enables mesh enrollment for every deployed application.
type Extension struct {
	extension.Hooks
	models []string
	beacon bool
}

var _ extension.Extension = (*Extension)(nil)

// New is the extension.Factory of meshify.
func New() (extension.Extension, error) {
	return &Extension{}, nil
}

func (*Extension) Name() string      { return Name }
func (*Extension) CLIOption() string { return Name }
func (*Extension) HelpText() string {
	return "Deploy charms with trust into an Istio service mesh"
}

// SetupInfrastructure adds the mesh model and deploys the control plane into
// it. The model factory must be able to deploy.
func (e *Extension) SetupInfrastructure(ctx context.Context, models extension.ModelFactory) error {
	md, ok := models.(extension.ModelDeployer)
	if !ok {
		return fmt.Errorf("deploying the mesh control plane: model factory %T cannot deploy: %w", models, errors.ErrUnsupported)
	}

	name, err := models.AddModel(ctx, MeshModel)
	if err != nil {
		return fmt.Errorf("adding mesh model: %w", err)
	}
	e.models = append(e.models, name)

	args := extension.NewDeployArgs()
	args.Trust = true
	if err := md.DeployToModel(ctx, name, ControlPlaneCharm, "", args); err != nil {
		err = fmt.Errorf("deploying the mesh control plane: %w", err)
		if derr := models.DestroyModel(ctx, name); derr != nil {
			return errors.Join(err, derr)
		}
		e.models = e.models[:len(e.models)-1]
		return err
	}
	return nil
}

// PreDeployHook deploys the beacon before the first application. It goes
// through d, so the beacon is trusted like every other application.
func (e *Extension) PreDeployHook(ctx context.Context, d extension.Deployer, _, appName string) error {
	if e.beacon || appName == BeaconApp {
		return nil
	}
	if err := d.Deploy(ctx, BeaconApp, "", extension.NewDeployArgs()); err != nil {
		return fmt.Errorf("deploying %s: %w", BeaconApp, err)
	}
	e.beacon = true
	return nil
}

// ModifyDeployArgs trusts every application; mesh enrollment needs cluster
// access.
func (*Extension) ModifyDeployArgs(args extension.DeployArgs) extension.DeployArgs {
	args.Trust = true
	return args
}

// PostDeployHook relates appName to the mesh beacon. Deployers that cannot
// integrate are left alone.
func (*Extension) PostDeployHook(ctx context.Context, d extension.Deployer, appName, _ string) error {
	if appName == BeaconApp {
		return nil
	}
	logger := slogcontext.FromCtx(ctx).With(slog.String("extension", Name), slog.String("app", appName))

	i, ok := d.(extension.Integrator)
	if !ok {
		logger.DebugContext(ctx, "deployer cannot integrate, skipping mesh enrollment")
		return nil
	}
	err := i.Integrate(ctx, appName+":"+BeaconEndpoint, BeaconApp)
	if errors.Is(err, errors.ErrUnsupported) {
		logger.DebugContext(ctx, "deployer cannot integrate, skipping mesh enrollment")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enrolling %s into the mesh: %w", appName, err)
	}
	return nil
}

// TeardownHook destroys the models added by SetupInfrastructure.
func (e *Extension) TeardownHook(ctx context.Context, models extension.ModelFactory) error {
	var errs []error
	for _, name := range e.models {
		if err := models.DestroyModel(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	e.models = nil
	e.beacon = false
	return errors.Join(errs...)
}
