// Package scaffold generates extension manifests from an embedded template.
// It powers the "extensions new" command and validates what it writes.
package scaffold
