package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
)

// EntryPointGroup is the group compiled-in extensions register under.
const EntryPointGroup = "jubilantx.extensions"

var (
	// ErrUnavailable marks an entry point that cannot be loaded in this
	// environment, e.g. because something it depends on is missing. Such
	// entry points are skipped quietly.
	ErrUnavailable = errors.New("extension not available")

	// ErrSourceUnavailable is returned by Source.EntryPoints when the
	// discovery facility itself does not exist.
	ErrSourceUnavailable = errors.New("extension source not available")
)

// EntryPoint names one loadable extension. Load returns something the
// manager can turn into an extension.Factory: a Factory, a
// func() extension.Extension, or an extension.Extension value whose type is
// instantiated afresh on every resolution.
type EntryPoint struct {
	Name string
	Load func() (any, error)
}

// Source enumerates entry points.
type Source interface {
	Name() string
	EntryPoints() ([]EntryPoint, error)
}

var builtin = struct {
	sync.RWMutex
	groups map[string][]EntryPoint
}{groups: make(map[string][]EntryPoint)}

// Register adds a compiled-in extension to group. It is meant to be called
// from the init function of an extension package.
func Register(group, name string, factory extension.Factory) {
	builtin.Lock()
	defer builtin.Unlock()
	builtin.groups[group] = append(builtin.groups[group], EntryPoint{
		Name: name,
		Load: func() (any, error) { return factory, nil },
	})
}

type builtinSource struct {
	group string
}

// Builtin returns the source of extensions registered into group with
// Register.
func Builtin(group string) Source {
	return &builtinSource{group: group}
}

func (s *builtinSource) Name() string { return "builtin:" + s.group }

func (s *builtinSource) EntryPoints() ([]EntryPoint, error) {
	builtin.RLock()
	defer builtin.RUnlock()
	return slices.Clone(builtin.groups[s.group]), nil
}

type fallbackSource struct {
	primary, secondary Source
}

// Fallback returns a source that enumerates primary, or secondary when
// primary reports ErrSourceUnavailable.
func Fallback(primary, secondary Source) Source {
	return &fallbackSource{primary: primary, secondary: secondary}
}

func (s *fallbackSource) Name() string {
	return fmt.Sprintf("%s|%s", s.primary.Name(), s.secondary.Name())
}

func (s *fallbackSource) EntryPoints() ([]EntryPoint, error) {
	eps, err := s.primary.EntryPoints()
	if !errors.Is(err, ErrSourceUnavailable) {
		return eps, err
	}
	return s.secondary.EntryPoints()
}

type multiSource struct {
	sources []Source
}

// Multi returns a source enumerating every member in order. Members that are
// unavailable are left out; Multi itself is unavailable only when all of its
// members are. A member failing for another reason does not hide the entry
// points of the others: they are returned together with the combined error.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

func (s *multiSource) Name() string {
	name := "multi("
	for i, src := range s.sources {
		if i > 0 {
			name += ","
		}
		name += src.Name()
	}
	return name + ")"
}

func (s *multiSource) EntryPoints() ([]EntryPoint, error) {
	var (
		all       []EntryPoint
		errs      error
		available bool
	)
	for _, src := range s.sources {
		eps, err := src.EntryPoints()
		if errors.Is(err, ErrSourceUnavailable) {
			continue
		}
		available = true
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("enumerating %s: %w", src.Name(), err))
		}
		all = append(all, eps...)
	}
	if !available && len(s.sources) > 0 {
		return nil, ErrSourceUnavailable
	}
	return all, errs
}
