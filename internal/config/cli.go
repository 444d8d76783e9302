// Package config declares the fswgen command line.
package config

import (
	"github.com/Alia5/fswgen/internal/cmd"
)

type Log struct {
	Level  string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"FSWGEN_LOG_LEVEL"`
	File   string `help:"Also write logs to this file" env:"FSWGEN_LOG_FILE"`
	Format string `help:"Log output format: auto, text, json" default:"auto" enum:"auto,text,json" env:"FSWGEN_LOG_FORMAT"`
}

// CLI is the root kong model.
type CLI struct {
	Config string `help:"Path to a configuration file (JSON, YAML or TOML)" env:"FSWGEN_CONFIG" placeholder:"FILE"`
	Log    Log    `embed:"" prefix:"log."`

	Generate  cmd.Generate      `cmd:"" help:"Generate flight software artifacts from a dictionary snapshot"`
	Import    cmd.Import        `cmd:"" help:"Import C header structures into a dictionary snapshot"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
	Version   cmd.Version       `cmd:"" help:"Print the fswgen version"`
}
