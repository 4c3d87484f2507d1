// Package registry discovers deployment extensions and resolves which one a
// test run uses.
//
// Extensions are found through a Source, which enumerates entry points: a
// name plus a loader. Extension packages compiled into the binary register
// themselves from init() with Register; other sources (such as manifest
// directories) live in their own packages. A Manager walks its source once,
// at construction, and keeps a read-only name to factory mapping:
//
//	mgr := registry.NewManager(logger, registry.Multi(
//	    registry.Builtin(registry.EntryPointGroup),
//	    registry.Fallback(projectDir, userDir),
//	))
//	mgr.RegisterCLIOptions(parser)
//	ext, err := mgr.GetActiveExtension(cmd.Flags())
//
// Lookups never fail: an unknown or missing name resolves to the default
// no-op extension.
package registry
