// Package cli defines the Cobra command tree for the jubilantx CLI. Extension
// discovery runs once, before the tree is built, so that the --extension
// flag can offer the discovered names. Command implementations delegate to
// internal packages and only handle flags and output.
package cli
