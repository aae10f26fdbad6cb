// Package configs provides embedded default configuration files.
package configs

import _ "embed"

// Embedded configuration files for the `perms config` command.

// DefaultConfigBytes is the default process configuration (perms.yml).
//
//go:embed perms.yml
var DefaultConfigBytes []byte

// WorldConfigBytes is an example world permission file (worlds/world.yml).
//
//go:embed world.yml
var WorldConfigBytes []byte
