package flags

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/pflag"
)

// GroupAnnotation is the flag annotation recording which option group a
// flag was registered through.
const GroupAnnotation = "jubilantx_group"

// ErrNoGroup is returned by Parser.Group when the group does not exist.
var ErrNoGroup = errors.New("option group not found")

// Parser is the host argument parser extensions register options into.
type Parser interface {
	// Group returns an existing group or ErrNoGroup.
	Group(name string) (*Group, error)
	// AddGroup creates the group, or returns it if it already exists.
	AddGroup(name, description string) *Group
}

// Group is a named set of options. Its flags live in the host flag set.
type Group struct {
	name        string
	description string
	flags       *pflag.FlagSet
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Description returns the group description.
func (g *Group) Description() string { return g.description }

// Lookup returns the named flag if it was registered through this group.
func (g *Group) Lookup(name string) *pflag.Flag {
	f := g.flags.Lookup(name)
	if f == nil || !inGroup(f, g.name) {
		return nil
	}
	return f
}

// Defined reports whether name is taken in the host flag set, by this or any
// other group.
func (g *Group) Defined(name string) bool {
	return g.flags.Lookup(name) != nil
}

// Var registers a flag with a custom value in the group. Like pflag, it
// panics when the name is already taken; check Lookup first.
func (g *Group) Var(value pflag.Value, name, usage string) {
	g.flags.Var(value, name, usage)
	g.annotate(name)
}

// Bool registers a boolean flag in the group.
func (g *Group) Bool(name string, value bool, usage string) *bool {
	p := g.flags.Bool(name, value, usage)
	g.annotate(name)
	return p
}

// Names returns the sorted names of the group's flags.
func (g *Group) Names() []string {
	var names []string
	g.flags.VisitAll(func(f *pflag.Flag) {
		if inGroup(f, g.name) {
			names = append(names, f.Name)
		}
	})
	sort.Strings(names)
	return names
}

func (g *Group) annotate(name string) {
	// SetAnnotation only fails for unknown flags, and name was just added.
	_ = g.flags.SetAnnotation(name, GroupAnnotation, []string{g.name})
}

func inGroup(f *pflag.Flag, group string) bool {
	for _, v := range f.Annotations[GroupAnnotation] {
		if v == group {
			return true
		}
	}
	return false
}

// FlagSetParser implements Parser on top of a single pflag.FlagSet, e.g. a
// cobra command's persistent flags.
type FlagSetParser struct {
	flags  *pflag.FlagSet
	groups map[string]*Group
}

var _ Parser = (*FlagSetParser)(nil)

// NewParser returns a Parser that registers into fs.
func NewParser(fs *pflag.FlagSet) *FlagSetParser {
	return &FlagSetParser{flags: fs, groups: make(map[string]*Group)}
}

func (p *FlagSetParser) Group(name string) (*Group, error) {
	g, ok := p.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoGroup, name)
	}
	return g, nil
}

func (p *FlagSetParser) AddGroup(name, description string) *Group {
	if g, ok := p.groups[name]; ok {
		return g
	}
	g := &Group{name: name, description: description, flags: p.flags}
	p.groups[name] = g
	return g
}

// FlagSet returns the underlying flag set.
func (p *FlagSetParser) FlagSet() *pflag.FlagSet { return p.flags }
