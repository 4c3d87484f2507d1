// Package flags provides named option groups over a pflag.FlagSet and a
// choice-valued flag whose value must be one of a fixed set of options.
package flags
