package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jubilantx-labs/jubilantx/internal/branding"
	"github.com/jubilantx-labs/jubilantx/internal/config"
	"github.com/jubilantx-labs/jubilantx/internal/flags"
	"github.com/jubilantx-labs/jubilantx/internal/manifest"
	"github.com/jubilantx-labs/jubilantx/internal/registry"
	"github.com/jubilantx-labs/jubilantx/internal/scaffold"
)

func newExtensionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extensions",
		Aliases: []string{"ext"},
		Short:   "Inspect deployment extensions",
		Long: fmt.Sprintf(`Inspect the extensions available to --extension.

Extensions are compiled into the binary or declared as YAML manifests in
./%[1]s/extensions/ or, when the project has none, in the configured
extensions directory (~/%[1]s/extensions/ by default).`, branding.HomeDir()),
	}
	cmd.AddCommand(newExtensionsListCmd(app), newExtensionsValidateCmd(), newExtensionsNewCmd())
	return cmd
}

func newExtensionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			descriptors := app.Manager.Descriptors()
			if len(descriptors) == 0 {
				fmt.Fprintln(out, "No extensions discovered.")
				fmt.Fprintf(out, "Add manifests to %s or run with --loglevel debug to see skipped ones.\n",
					config.ExtensionsDir())
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tOPTION\tDESCRIPTION")
			for _, d := range descriptors {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.CLIOption, d.HelpText)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return printOptionGroup(out, app.options)
		},
	}
}

// printOptionGroup lists the flags registered in the extension option group.
func printOptionGroup(out io.Writer, p *flags.FlagSetParser) error {
	if p == nil {
		return nil
	}
	group, err := p.Group(registry.GroupName)
	if err != nil {
		return nil
	}
	names := group.Names()
	if len(names) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\n%s:\n", group.Description())
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, name := range names {
		f := group.Lookup(name)
		values := f.Value.Type()
		if c, ok := f.Value.(*flags.Choice); ok {
			values = strings.Join(c.Options(), "|")
		}
		fmt.Fprintf(w, "  --%s\t%s\n", f.Name, values)
	}
	return w.Flush()
}

func newExtensionsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Validate extension manifests",
		Long: `Validate extension manifests against the manifest schema and check
that their requires constraint accepts this version of the extension API.

Example:
  ` + branding.CLIName() + ` extensions validate .jubilantx/extensions/sidecar.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if !checkManifest(cmd, path) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d manifests failed validation", failed, len(args))
			}
			return nil
		},
	}
}

func checkManifest(cmd *cobra.Command, path string) bool {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Manifest validation: %s\n", path)

	m, err := manifest.LoadManifest(path)
	var invalid *manifest.InvalidError
	switch {
	case err == nil:
		fmt.Fprintf(out, "  [ OK ] Valid extension %s (--%s %s)\n", m.Name, registry.OptionName, m.Name)
		return true
	case errors.As(err, &invalid) && len(invalid.Issues) > 0:
		for _, issue := range invalid.Issues {
			fmt.Fprintf(out, "  [FAIL] %s\n", issue)
		}
	case errors.Is(err, registry.ErrUnavailable):
		fmt.Fprintf(out, "  [SKIP] %v\n", err)
	default:
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
	}
	return false
}

func newExtensionsNewCmd() *cobra.Command {
	var (
		help   string
		models []string
		trust  bool
		user   bool
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an extension manifest",
		Long: fmt.Sprintf(`Create a manifest skeleton for a new extension in ./%[1]s/extensions/,
or in the configured extensions directory with --user.

Example:
  %[2]s extensions new sidecar --help-text "Inject a logging sidecar" --model logging --trust`,
			branding.HomeDir(), branding.CLIName()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			outputDir := dir
			switch {
			case outputDir != "":
			case user:
				config.Load()
				outputDir = config.ExtensionsDir()
			default:
				outputDir = filepath.Join(".", branding.HomeDir(), "extensions")
			}

			data := scaffold.NewScaffoldData(args[0])
			if help != "" {
				data.Help = help
			}
			data.Models = models
			data.Trust = trust

			result, err := scaffold.Generate(data, outputDir)
			if err != nil {
				return fmt.Errorf("creating extension %s: %w", args[0], err)
			}

			fmt.Fprintf(out, "Created %s\n", result.Path)
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "  [WARN] %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&help, "help-text", "", "Help text of the extension")
	cmd.Flags().StringSliceVar(&models, "model", nil, "Model the extension adds during setup (repeatable)")
	cmd.Flags().BoolVar(&trust, "trust", false, "Trust every deployed application")
	cmd.Flags().BoolVar(&user, "user", false, "Write to the user extensions directory")
	cmd.Flags().StringVar(&dir, "dir", "", "Write to this directory")
	return cmd
}
