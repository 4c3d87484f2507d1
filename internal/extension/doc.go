// Package extension defines the contract deployment extensions implement:
// identifying metadata, infrastructure setup and teardown, a rewrite of the
// deploy arguments, and hooks around each deploy. Default is the no-op
// implementation used whenever no extension is selected.
package extension
