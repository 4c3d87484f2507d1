// Package manifest handles declarative extensions: YAML manifests that name
// an extension, override deploy arguments and run commands at the hook
// points. Manifests are validated against an embedded JSON Schema and gated
// on the extension API version. DirSource exposes a directory of manifests
// as a registry.Source.
package manifest
