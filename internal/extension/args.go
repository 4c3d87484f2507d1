package extension

import (
	"maps"
	"slices"
)

// DeployArgs is the full set of named parameters controlling how a charm is
// deployed. Extensions may rewrite values; the set of parameters is fixed by
// the type.
type DeployArgs struct {
	AttachStorage []string
	Base          string
	// Bind maps endpoints to spaces. The empty key sets the default space.
	Bind        map[string]string
	Channel     string
	Config      map[string]any
	Constraints map[string]string
	Force       bool
	NumUnits    int
	Overlays    []string
	Resources   map[string]string
	// Revision is nil when no revision is pinned.
	Revision *int
	Storage  map[string]string
	To       []string
	Trust    bool
}

// NewDeployArgs returns the arguments of a plain deploy: one unit, everything
// else unset.
func NewDeployArgs() DeployArgs {
	return DeployArgs{NumUnits: 1}
}

// Clone returns a deep copy of a so that rewriting the copy never changes a.
func (a DeployArgs) Clone() DeployArgs {
	c := a
	c.AttachStorage = slices.Clone(a.AttachStorage)
	c.Bind = maps.Clone(a.Bind)
	c.Config = maps.Clone(a.Config)
	c.Constraints = maps.Clone(a.Constraints)
	c.Overlays = slices.Clone(a.Overlays)
	c.Resources = maps.Clone(a.Resources)
	c.Storage = maps.Clone(a.Storage)
	c.To = slices.Clone(a.To)
	if a.Revision != nil {
		rev := *a.Revision
		c.Revision = &rev
	}
	return c
}
