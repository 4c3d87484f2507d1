package flags

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
)

// NewEnum returns a Choice over options that defaults to the first option.
func NewEnum(options ...string) *Choice {
	if len(options) == 0 {
		panic("options must not be empty")
	}
	c := NewChoice(options...)
	c.value = options[0]
	return c
}

// EnumVar registers an enum flag in fs. The first option is the default and
// the accepted options are appended to usage.
func EnumVar(fs *pflag.FlagSet, name string, options []string, usage string) {
	sorted := slices.Clone(options)
	slices.Sort(sorted)
	fs.Var(NewEnum(options...), name, fmt.Sprintf("%s\n(must be one of %v)", usage, sorted))
}
