// Package session ties one extension to one test run: it resolves the
// selected extension, prepares its infrastructure, hands out the
// extension-aware deployer and tears everything down at the end.
package session
