package scaffold

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/jubilantx-labs/jubilantx/internal/branding"
	"github.com/jubilantx-labs/jubilantx/internal/manifest"
)

//go:embed templates/extension.yaml.tmpl
var extensionTemplate string

var tmpl = template.Must(template.New("extension.yaml").Parse(extensionTemplate))

// ScaffoldData holds all template variables available to the manifest
// template.
type ScaffoldData struct {
	Name     string   // e.g., "sidecar"
	Help     string   // Help text shown by --help and "extensions list"
	Requires string   // Derived: ^<major> of the current extension API
	Models   []string // Extra models the extension needs
	Trust    bool     // Whether deployed applications are trusted
	CLIName  string   // Derived: the CLI binary name
	Date     string   // Derived: today, YYYY-MM-DD
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	Path     string
	Warnings []string
}

// NewScaffoldData creates a ScaffoldData with derived fields populated.
func NewScaffoldData(name string) *ScaffoldData {
	d := &ScaffoldData{
		Name:     name,
		Help:     fmt.Sprintf("%s extension: %s", branding.DisplayName(), name),
		Requires: ">= " + manifest.APIVersion,
		CLIName:  branding.CLIName(),
		Date:     time.Now().Format(time.DateOnly),
	}
	if v, err := semver.NewVersion(manifest.APIVersion); err == nil {
		d.Requires = fmt.Sprintf("^%d", v.Major())
	}
	return d
}

// Generate writes <outputDir>/<name>.yaml. It refuses to overwrite an
// existing manifest. Schema violations of the result are reported as
// warnings, since the caller may have supplied an invalid name on purpose
// to fix it by hand.
func Generate(data *ScaffoldData, outputDir string) (*Result, error) {
	if data.Name == "" {
		return nil, fmt.Errorf("extension name is required")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, data.Name+".yaml")
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists; remove it first", path)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	result := &Result{Path: path}

	valResult, valErr := manifest.Validate(buf.Bytes())
	if valErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not validate manifest: %v", valErr))
	} else if !valResult.Valid {
		for _, issue := range valResult.Issues {
			result.Warnings = append(result.Warnings, issue.String())
		}
	}

	return result, nil
}
