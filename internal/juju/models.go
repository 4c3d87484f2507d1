package juju

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

// TempModels adds and destroys models on behalf of extensions. Model names
// are prefixed with Prefix so parallel runs do not collide.
type TempModels struct {
	Client *Client
	Prefix string

	mu     sync.Mutex
	models []string
}

var (
	_ extension.ModelFactory  = (*TempModels)(nil)
	_ extension.ModelDeployer = (*TempModels)(nil)
)

// AddModel creates the model and returns its full name. The current model
// is not switched.
func (t *TempModels) AddModel(ctx context.Context, name string) (string, error) {
	full := name
	if t.Prefix != "" {
		full = t.Prefix + "-" + name
	}
	if _, err := t.Client.run(ctx, "add-model", "--no-switch", full); err != nil {
		return "", fmt.Errorf("adding model %s: %w", full, err)
	}

	t.mu.Lock()
	t.models = append(t.models, full)
	t.mu.Unlock()
	return full, nil
}

// DestroyModel destroys a model created by AddModel, along with its storage.
func (t *TempModels) DestroyModel(ctx context.Context, name string) error {
	if _, err := t.Client.run(ctx, "destroy-model", name, "--no-prompt", "--destroy-storage", "--force"); err != nil {
		return fmt.Errorf("destroying model %s: %w", name, err)
	}

	t.mu.Lock()
	t.models = slices.DeleteFunc(t.models, func(m string) bool { return m == name })
	t.mu.Unlock()
	return nil
}

// DeployToModel deploys charm into model with the settings of Client.
func (t *TempModels) DeployToModel(ctx context.Context, model, charm, app string, args extension.DeployArgs) error {
	c := *t.Client
	c.Model = model
	if err := c.Deploy(ctx, charm, app, args); err != nil {
		return fmt.Errorf("deploying %s into %s: %w", charm, model, err)
	}
	return nil
}

// Models returns the names of the models added and not yet destroyed.
func (t *TempModels) Models() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.models)
}
