// Package config manages user-level settings stored at ~/.jubilantx/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the juju model to deploy into and the directory extension manifests are
// discovered from. Every key can be overridden with a JUBILANTX_ environment
// variable.
package config
