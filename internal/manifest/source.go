package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jubilantx-labs/jubilantx/internal/registry"
)

// dirSource exposes every manifest file in a directory as an entry point.
type dirSource struct {
	dir string
	run Runner
}

// DirSource returns a registry.Source over the *.yaml and *.yml files in
// dir. The source is unavailable when dir does not exist. Entry points are
// named after the file without extension, which must match the manifest
// name, and sorted by name.
func DirSource(dir string, run Runner) registry.Source {
	return &dirSource{dir: dir, run: run}
}

func (s *dirSource) Name() string { return "manifests:" + s.dir }

func (s *dirSource) EntryPoints() ([]registry.EntryPoint, error) {
	if s.dir == "" {
		return nil, registry.ErrSourceUnavailable
	}
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, registry.ErrSourceUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("reading extensions directory %s: %w", s.dir, err)
	}

	var eps []registry.EntryPoint
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		eps = append(eps, registry.EntryPoint{
			Name: name,
			Load: func() (any, error) {
				m, err := LoadManifest(path)
				if err != nil {
					return nil, err
				}
				if m.Name != name {
					return nil, &InvalidError{Path: path, Err: fmt.Errorf("name %q does not match file name %q", m.Name, name)}
				}
				return Factory(m, s.run), nil
			},
		})
	}
	sort.Slice(eps, func(i, j int) bool { return eps[i].Name < eps[j].Name })
	return eps, nil
}

func isManifestFile(name string) bool {
	ext := filepath.Ext(name)
	return (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(name, ".")
}

// LoadManifest reads, validates and version-checks the manifest at path. An
// unreadable file or an unsatisfied requires constraint is reported as
// registry.ErrUnavailable; anything wrong with the content is an
// *InvalidError.
func LoadManifest(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", registry.ErrUnavailable, err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, &InvalidError{Path: path, Err: err}
	}
	if !result.Valid {
		return nil, &InvalidError{Path: path, Issues: result.Issues}
	}

	m, err := Parse(data)
	if err != nil {
		return nil, &InvalidError{Path: path, Err: err}
	}

	if err := CheckCompatibility(m.Requires); err != nil {
		if errors.Is(err, registry.ErrUnavailable) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, &InvalidError{Path: path, Err: err}
	}

	return m, nil
}
