package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/jubilantx-labs/jubilantx/internal/extension"
	"github.com/jubilantx-labs/jubilantx/internal/flags"
)

const (
	// OptionName is the flag selecting the active extension.
	OptionName = "extension"
	// GroupName is the option group the extension flags are registered in.
	GroupName = "jubilant"
	// GroupDescription describes GroupName when it has to be created.
	GroupDescription = "pytest-jubilant options"

	fallbackHelp = "Extension available"
)

// RunConfig is the run configuration the active extension is read from.
// *pflag.FlagSet satisfies it.
type RunConfig interface {
	GetString(name string) (string, error)
}

// ToggleConfig is the run configuration of the per-extension boolean flags.
// *pflag.FlagSet satisfies it.
type ToggleConfig interface {
	GetBool(name string) (bool, error)
}

// Manager maps extension names to factories. The mapping is built once by
// NewManager and only read afterwards.
type Manager struct {
	logger    *slog.Logger
	names     []string
	factories map[string]extension.Factory
}

// NewManager discovers the extensions of source. Entry points that fail to
// load or do not provide an extension are logged and left out; a nil or
// unavailable source yields a manager that only knows the default extension.
func NewManager(logger *slog.Logger, source Source) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger:    logger.With(slog.String("realm", "extensions")),
		factories: make(map[string]extension.Factory),
	}
	m.discover(source)
	return m
}

func (m *Manager) discover(source Source) {
	if source == nil {
		m.logger.Debug("no extension discovery mechanism available")
		return
	}

	eps, err := source.EntryPoints()
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		m.logger.Debug("no extension discovery mechanism available", slog.String("source", source.Name()))
		return
	case err != nil:
		m.logger.Warn("extension discovery incomplete", slog.String("source", source.Name()), slog.Any("error", err))
	}

	var skipped error
	for _, ep := range eps {
		factory, err := load(ep)
		if err != nil {
			skipped = multierr.Append(skipped, err)
			if errors.Is(err, ErrUnavailable) {
				m.logger.Debug("extension not available", slog.String("name", ep.Name), slog.Any("error", err))
			} else {
				m.logger.Warn("skipping extension", slog.String("name", ep.Name), slog.Any("error", err))
			}
			continue
		}
		m.add(ep.Name, factory)
		m.logger.Info("discovered extension", slog.String("name", ep.Name))
	}

	if skipped != nil {
		m.logger.Debug("extension discovery finished with skipped entries",
			slog.Int("discovered", len(m.names)),
			slog.Int("skipped", len(multierr.Errors(skipped))))
	}
}

func (m *Manager) add(name string, factory extension.Factory) {
	if _, exists := m.factories[name]; !exists {
		m.names = append(m.names, name)
	}
	m.factories[name] = factory
}

// load runs the loader of ep and checks that the result can produce
// extensions.
func load(ep EntryPoint) (factory extension.Factory, err error) {
	if ep.Load == nil {
		return nil, fmt.Errorf("entry point %s has no loader", ep.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loading %s panicked: %v", ep.Name, r)
		}
	}()

	v, err := ep.Load()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", ep.Name, err)
	}

	switch t := v.(type) {
	case extension.Factory:
		if t != nil {
			return t, nil
		}
	case func() (extension.Extension, error):
		if t != nil {
			return t, nil
		}
	case func() extension.Extension:
		if t != nil {
			return func() (extension.Extension, error) { return t(), nil }, nil
		}
	case extension.Extension:
		if t != nil {
			return typeFactory(ep.Name, reflect.TypeOf(t))
		}
	}
	return nil, fmt.Errorf("%s: %T does not implement the extension contract", ep.Name, v)
}

// typeFactory instantiates a new zero value of t for every call, so that a
// loaded prototype value is never shared between runs. Pointers to zero-size
// types are refused: reflect.New may return the same address for all of
// them, so their instances would not be distinct.
func typeFactory(name string, t reflect.Type) (extension.Factory, error) {
	if t.Kind() == reflect.Pointer && t.Elem().Size() == 0 {
		return nil, fmt.Errorf("%s: %s has zero size and cannot produce distinct instances, register a factory instead", name, t)
	}
	return func() (extension.Extension, error) {
		if t.Kind() == reflect.Pointer {
			return reflect.New(t.Elem()).Interface().(extension.Extension), nil
		}
		return reflect.Zero(t).Interface().(extension.Extension), nil
	}, nil
}

// GetExtension returns the factory registered under name, or the default
// extension's factory if there is none.
func (m *Manager) GetExtension(name string) extension.Factory {
	if f, ok := m.factories[name]; ok {
		return f
	}
	return extension.NewDefault
}

// Has reports whether name was discovered.
func (m *Manager) Has(name string) bool {
	_, ok := m.factories[name]
	return ok
}

// AvailableExtensions returns the discovered names in discovery order.
func (m *Manager) AvailableExtensions() []string {
	return slices.Clone(m.names)
}

// GetExtensionInstance constructs a new instance of the extension registered
// under name, or of the default extension. Instances are never reused.
func (m *Manager) GetExtensionInstance(name string) (extension.Extension, error) {
	return newInstance(name, m.GetExtension(name))
}

func newInstance(name string, factory extension.Factory) (ext extension.Extension, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructing extension %s panicked: %v", name, r)
		}
	}()
	ext, err = factory()
	if err != nil {
		return nil, fmt.Errorf("constructing extension %s: %w", name, err)
	}
	if ext == nil {
		return nil, fmt.Errorf("constructing extension %s: factory returned nil", name)
	}
	return ext, nil
}

// GetActiveExtension returns a new instance of the extension selected in
// cfg, or a new default extension when none was selected.
//
// An unknown name also yields the default extension and is logged as a
// warning.
func (m *Manager) GetActiveExtension(cfg RunConfig) (extension.Extension, error) {
	name, err := cfg.GetString(OptionName)
	if err != nil || name == "" {
		return extension.NewDefault()
	}
	if !m.Has(name) {
		m.logger.Warn("unknown extension requested, using default",
			slog.String("name", name),
			slog.String("available", strings.Join(m.names, ",")))
	}
	return m.GetExtensionInstance(name)
}

// GetToggledExtension returns a new instance of the first extension, in
// discovery order, whose boolean flag is set in cfg. Without any set flag it
// returns the default extension. It pairs with RegisterToggleOptions.
func (m *Manager) GetToggledExtension(cfg ToggleConfig) (extension.Extension, error) {
	for _, name := range m.names {
		ext, err := newInstance(name, m.factories[name])
		if err != nil {
			continue
		}
		on, err := cfg.GetBool(ext.CLIOption())
		if err == nil && on {
			return ext, nil
		}
	}
	return extension.NewDefault()
}

// Descriptors returns the metadata of every discovered extension. An
// extension that cannot be constructed is described generically.
func (m *Manager) Descriptors() []extension.Descriptor {
	out := make([]extension.Descriptor, 0, len(m.names))
	for _, name := range m.names {
		ext, err := newInstance(name, m.factories[name])
		if err != nil {
			m.logger.Warn("cannot describe extension", slog.String("name", name), slog.Any("error", err))
			out = append(out, extension.Descriptor{Name: name, HelpText: fallbackHelp})
			continue
		}
		d := extension.Describe(ext)
		d.Name = name
		out = append(out, d)
	}
	return out
}

// RegisterCLIOptions registers --extension in the jubilant option group of
// p, creating the group if needed. The flag accepts the discovered names and
// is unset by default. Nothing is registered when no extension was
// discovered or the flag already exists.
func (m *Manager) RegisterCLIOptions(p flags.Parser) {
	group := optionGroup(p)

	if len(m.names) == 0 {
		return
	}
	if group.Defined(OptionName) {
		m.logger.Debug("extension option already registered")
		return
	}

	descriptions := make([]string, 0, len(m.names))
	for _, d := range m.Descriptors() {
		descriptions = append(descriptions, d.Name+": "+d.HelpText)
	}
	help := "Enable extension for testing. Available extensions: " + strings.Join(m.names, ", ")
	help += ". " + strings.Join(descriptions, "; ")

	group.Var(flags.NewChoice(m.names...), OptionName, help)
}

// RegisterToggleOptions registers one boolean flag per discovered extension,
// named after its CLI option. Extensions whose metadata cannot be read, or
// whose flag name is taken, are skipped with a warning.
func (m *Manager) RegisterToggleOptions(p flags.Parser) {
	group := optionGroup(p)

	for _, name := range m.names {
		ext, err := newInstance(name, m.factories[name])
		if err != nil {
			m.logger.Warn("skipping extension option", slog.String("name", name), slog.Any("error", err))
			continue
		}
		opt := ext.CLIOption()
		if opt == "" || group.Defined(opt) {
			m.logger.Warn("skipping extension option", slog.String("name", name), slog.String("option", opt))
			continue
		}
		group.Bool(opt, false, ext.HelpText())
	}
}

func optionGroup(p flags.Parser) *flags.Group {
	group, err := p.Group(GroupName)
	if err != nil {
		group = p.AddGroup(GroupName, GroupDescription)
	}
	return group
}
