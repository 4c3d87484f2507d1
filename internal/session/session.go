package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/deploy"
	"github.com/jubilantx-labs/jubilantx/internal/extension"
	"github.com/jubilantx-labs/jubilantx/internal/registry"
)

// Resolver picks the extension for a run. *registry.Manager implements it.
type Resolver interface {
	GetActiveExtension(cfg registry.RunConfig) (extension.Extension, error)
}

// Session is a prepared test run.
type Session struct {
	ext      extension.Extension
	models   extension.ModelFactory
	deployer *deploy.ExtensionAware

	closeOnce sync.Once
	closeErr  error
}

// Open resolves the active extension from cfg and runs its infrastructure
// setup. If setup fails no teardown is run and the error is returned.
func Open(ctx context.Context, resolver Resolver, cfg registry.RunConfig, client deploy.Deployer, models extension.ModelFactory) (*Session, error) {
	ext, err := resolver.GetActiveExtension(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving active extension: %w", err)
	}
	return Start(ctx, ext, client, models)
}

// Start runs the infrastructure setup of ext and returns the session.
func Start(ctx context.Context, ext extension.Extension, client deploy.Deployer, models extension.ModelFactory) (*Session, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("extension", ext.Name()))

	logger.InfoContext(ctx, "setting up extension infrastructure")
	if err := ext.SetupInfrastructure(ctx, models); err != nil {
		return nil, fmt.Errorf("setting up extension %s: %w", ext.Name(), err)
	}

	return &Session{
		ext:      ext,
		models:   models,
		deployer: deploy.New(client, ext),
	}, nil
}

// Extension returns the extension of the run.
func (s *Session) Extension() extension.Extension { return s.ext }

// Deployer returns the extension-aware deployer of the run.
func (s *Session) Deployer() *deploy.ExtensionAware { return s.deployer }

// Close runs the extension's teardown hook. Only the first call does
// anything; later calls return the same error.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		slogcontext.FromCtx(ctx).InfoContext(ctx, "tearing down extension infrastructure",
			slog.String("extension", s.ext.Name()))
		if err := s.ext.TeardownHook(ctx, s.models); err != nil {
			s.closeErr = fmt.Errorf("tearing down extension %s: %w", s.ext.Name(), err)
		}
	})
	return s.closeErr
}
