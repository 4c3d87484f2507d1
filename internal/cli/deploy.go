package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/jubilantx-labs/jubilantx/internal/config"
	"github.com/jubilantx-labs/jubilantx/internal/extension"
	"github.com/jubilantx-labs/jubilantx/internal/session"
)

type deployOptions struct {
	model       string
	modelPrefix string
	keep        bool

	attachStorage []string
	base          string
	bind          map[string]string
	channel       string
	config        []string
	constraints   map[string]string
	force         bool
	numUnits      int
	overlays      []string
	resources     map[string]string
	revision      int
	storage       map[string]string
	to            []string
	trust         bool
}

func newDeployCmd(app *App) *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy <charm> [app]",
		Short: "Deploy a charm through the selected extension",
		Long: `Deploy a charm with juju, letting the extension chosen with --extension
set up its infrastructure, rewrite the deploy arguments and run its hooks.
The extension's teardown runs when the command finishes unless --keep is
given.

Example:
  jubilantx deploy ./my.charm --extension meshify
  jubilantx deploy postgresql-k8s db --channel 14/stable -n 3`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, app, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "", "Model to deploy into (default from config)")
	f.StringVar(&opts.modelPrefix, "model-prefix", "jubilant", "Prefix for models added by extensions")
	f.BoolVar(&opts.keep, "keep", false, "Skip the extension teardown")

	f.StringSliceVar(&opts.attachStorage, "attach-storage", nil, "Existing storage to attach")
	f.StringVar(&opts.base, "base", "", "Base to deploy on, e.g. ubuntu@22.04")
	f.StringToStringVar(&opts.bind, "bind", nil, "Endpoint to space bindings")
	f.StringVar(&opts.channel, "channel", "", "Charmhub channel")
	f.StringArrayVar(&opts.config, "config", nil, "Charm config as key=value (repeatable)")
	f.StringToStringVar(&opts.constraints, "constraints", nil, "Machine constraints, e.g. mem=2G")
	f.BoolVar(&opts.force, "force", false, "Deploy despite validation failures")
	f.IntVarP(&opts.numUnits, "num-units", "n", 1, "Number of units")
	f.StringArrayVar(&opts.overlays, "overlay", nil, "Bundle overlay file (repeatable)")
	f.StringToStringVar(&opts.resources, "resource", nil, "Resources as name=value")
	f.IntVar(&opts.revision, "revision", 0, "Charm revision")
	f.StringToStringVar(&opts.storage, "storage", nil, "Storage directives as name=directive")
	f.StringSliceVar(&opts.to, "to", nil, "Placement directives")
	f.BoolVar(&opts.trust, "trust", false, "Grant the application cloud credentials")

	return cmd
}

// deployArgs converts the flags to deploy arguments. Only flags given on the
// command line are set.
func (o *deployOptions) deployArgs(cmd *cobra.Command) (extension.DeployArgs, error) {
	args := extension.NewDeployArgs()
	f := cmd.Flags()

	args.AttachStorage = o.attachStorage
	args.Base = o.base
	args.Channel = o.channel
	args.Force = o.force
	args.NumUnits = o.numUnits
	args.Overlays = o.overlays
	args.To = o.to
	args.Trust = o.trust
	if len(o.bind) > 0 {
		args.Bind = o.bind
	}
	if len(o.constraints) > 0 {
		args.Constraints = o.constraints
	}
	if len(o.resources) > 0 {
		args.Resources = o.resources
	}
	if len(o.storage) > 0 {
		args.Storage = o.storage
	}
	if f.Changed("revision") {
		rev := o.revision
		args.Revision = &rev
	}

	for _, kv := range o.config {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return args, fmt.Errorf("invalid --config %q: expected key=value", kv)
		}
		if args.Config == nil {
			args.Config = make(map[string]any)
		}
		args.Config[key] = value
	}
	return args, nil
}

func runDeploy(cmd *cobra.Command, app *App, opts *deployOptions, positional []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)

	charm := positional[0]
	appName := ""
	if len(positional) > 1 {
		appName = positional[1]
	}

	args, err := opts.deployArgs(cmd)
	if err != nil {
		return err
	}

	model := opts.model
	if model == "" {
		model = config.Model()
	}
	client, models := app.Backend(model, opts.modelPrefix)

	s, err := session.Open(ctx, app.Manager, cmd.Flags(), client, models)
	if err != nil {
		return err
	}
	ext := s.Extension().Name()
	logger.InfoContext(ctx, "extension selected", slog.String("extension", ext))

	deployErr := s.Deployer().Deploy(ctx, charm, appName, args)

	if opts.keep {
		logger.InfoContext(ctx, "keeping extension infrastructure", slog.String("extension", ext))
	} else if err := s.Close(ctx); err != nil {
		if deployErr != nil {
			logger.ErrorContext(ctx, "teardown failed", slog.Any("error", err))
			return deployErr
		}
		return err
	}
	if deployErr != nil {
		return deployErr
	}

	name := appName
	if name == "" {
		name = charm
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deployed %s with extension %s.\n", name, ext)
	return nil
}
