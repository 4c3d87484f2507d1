package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jubilantx-labs/jubilantx/internal/branding"
	"github.com/jubilantx-labs/jubilantx/internal/config"
	"github.com/jubilantx-labs/jubilantx/internal/deploy"
	"github.com/jubilantx-labs/jubilantx/internal/extension"
	"github.com/jubilantx-labs/jubilantx/internal/flags"
	"github.com/jubilantx-labs/jubilantx/internal/juju"
	"github.com/jubilantx-labs/jubilantx/internal/log"
	"github.com/jubilantx-labs/jubilantx/internal/manifest"
	"github.com/jubilantx-labs/jubilantx/internal/registry"
)

// App carries what the commands share.
type App struct {
	Manager *registry.Manager

	// Backend returns the deployer and model factory for a model. It
	// defaults to the juju CLI.
	Backend func(model, prefix string) (deploy.Deployer, extension.ModelFactory)

	Version string
	Commit  string
	Date    string

	options *flags.FlagSetParser
}

// NewRootCommand builds the command tree. The manager's --extension flag is
// registered as a persistent flag of the root command.
func NewRootCommand(app *App) *cobra.Command {
	if app.Backend == nil {
		app.Backend = jujuBackend
	}

	root := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` deploys charms into Juju models for integration tests and lets
registered extensions customize every deployment: setting up extra models,
rewriting deploy arguments and running hooks around each deploy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := log.GetBaseLogger(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(log.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	log.RegisterLoggingFlags(root.PersistentFlags())
	app.options = flags.NewParser(root.PersistentFlags())
	app.Manager.RegisterCLIOptions(app.options)

	root.AddCommand(
		newExtensionsCmd(app),
		newDeployCmd(app),
		newConfigCmd(),
		newVersionCmd(app),
	)
	return root
}

// Execute discovers extensions and runs the root command with build info
// injected via ldflags.
func Execute(version, commit, date string) error {
	config.Load()

	args := os.Args[1:]
	manager := registry.NewManager(discoveryLogger(args), DefaultSource())

	root := NewRootCommand(&App{
		Manager: manager,
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	root.SetArgs(args)

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// DefaultSource is the discovery chain of the CLI: compiled-in extensions,
// then the manifests of ./.jubilantx/extensions, or of the configured
// extensions directory when the project has none.
func DefaultSource() registry.Source {
	return registry.Multi(
		registry.Builtin(registry.EntryPointGroup),
		registry.Fallback(
			manifest.DirSource(filepath.Join(".", branding.HomeDir(), "extensions"), nil),
			manifest.DirSource(config.ExtensionsDir(), nil),
		),
	)
}

// discoveryLogger builds the logger used while discovering extensions, which
// happens before cobra parses the command line. Only the logging flags are
// read from args; everything else is ignored.
func discoveryLogger(args []string) *slog.Logger {
	fs := pflag.NewFlagSet("discovery", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.ParseErrorsWhitelist.UnknownFlags = true
	log.RegisterLoggingFlags(fs)
	_ = fs.Parse(args)

	format, _ := fs.GetString(log.FormatFlagName)
	levelName, _ := fs.GetString(log.LevelFlagName)
	output, _ := fs.GetString(log.OutputFlagName)

	level, err := log.ParseLevel(levelName)
	if err != nil {
		level = slog.LevelWarn
	}
	var w io.Writer = os.Stderr
	if output == log.OutputStdout {
		w = os.Stdout
	}
	logger, err := log.New(w, format, level)
	if err != nil {
		return slog.Default()
	}
	return logger
}

func jujuBackend(model, prefix string) (deploy.Deployer, extension.ModelFactory) {
	client := &juju.Client{
		Model:       model,
		Binary:      config.JujuBinary(),
		WaitTimeout: config.WaitTimeout(),
		Stderr:      os.Stderr,
	}
	return client, &juju.TempModels{Client: client, Prefix: prefix}
}
