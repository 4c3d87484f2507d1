package flags

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
)

// Choice is a pflag.Value that accepts only one of its options. Unlike an
// enum with a default, its zero value is unset ("").
//
// Type reports "string" so that FlagSet.GetString reads it like any string
// flag.
type Choice struct {
	value   string
	options []string
}

var _ pflag.Value = (*Choice)(nil)

// NewChoice returns an unset Choice over options.
func NewChoice(options ...string) *Choice {
	return &Choice{options: slices.Clone(options)}
}

func (c *Choice) String() string { return c.value }

func (c *Choice) Type() string { return "string" }

// Options returns the accepted values.
func (c *Choice) Options() []string { return slices.Clone(c.options) }

func (c *Choice) Set(value string) error {
	if !slices.Contains(c.options, value) {
		return fmt.Errorf("expected one of %q", c.options)
	}
	c.value = value
	return nil
}
