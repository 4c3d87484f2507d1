// Package juju adapts the juju command line to the deploy and model
// interfaces extensions are written against. Client runs `juju deploy` and
// `juju integrate`; TempModels creates and destroys the extra models an
// extension asks for.
package juju
