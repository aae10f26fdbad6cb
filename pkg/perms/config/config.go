// Package config is the process configuration of the perms command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"go.minekube.com/perms/pkg/util/configutil"
	"go.minekube.com/perms/pkg/util/errs"
	"go.minekube.com/perms/pkg/util/validation"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. PERMS_DEFAULTWORLD.
const EnvPrefix = "PERMS"

// DefaultConfig is a default Config.
var DefaultConfig = Config{
	Directory:    "worlds",
	DefaultWorld: "world",
}

// Config is the root configuration of the perms command.
type Config struct {
	// Directory holds one permission file per world.
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
	// DefaultWorld is the world of world-less queries.
	// It is created empty if it has no file.
	DefaultWorld string `json:"defaultWorld,omitempty" yaml:"defaultWorld,omitempty"`
	// Worlds are loaded at startup in addition to the files found in Directory.
	// Worlds without file are created empty.
	Worlds []string `json:"worlds,omitempty" yaml:"worlds,omitempty"`
	// Watch reloads world files when they change.
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`
	// Debug enables debug logging.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
	// Telemetry exports metrics and traces with OpenTelemetry.
	// Exporters are configured by the OTEL_* environment variables.
	Telemetry bool `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// SetDefaults sets Config defaults to use with Viper.
func SetDefaults(i configutil.SetDefault) {
	i.SetDefault("directory", DefaultConfig.Directory)
	i.SetDefault("defaultWorld", DefaultConfig.DefaultWorld)
	i.SetDefault("watch", DefaultConfig.Watch)
	i.SetDefault("debug", DefaultConfig.Debug)
	i.SetDefault("telemetry", DefaultConfig.Telemetry)
}

// Validate validates a Config.
func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }
	if c == nil {
		e("config must not be nil")
		return
	}

	if strings.TrimSpace(c.Directory) == "" {
		e("World directory must not be empty")
	} else if info, err := os.Stat(c.Directory); err == nil && !info.IsDir() {
		e("World directory %q is not a directory", c.Directory)
	} else if errors.Is(err, fs.ErrNotExist) {
		w("World directory %q does not exist, only empty worlds can be loaded", c.Directory)
	}

	if err := validation.WorldName(c.DefaultWorld); err != nil {
		e("Invalid default world: %v", err)
	}
	seen := map[string]bool{}
	for i, name := range c.Worlds {
		if err := validation.WorldName(name); err != nil {
			e("Invalid world at index %d: %v", i, err)
			continue
		}
		if seen[name] {
			w("World %q is listed more than once", name)
		}
		seen[name] = true
	}
	return
}

// Load reads the Config from v. A config file that does not exist is not an
// error as long as optional is true; the defaults and environment apply.
func Load(v *viper.Viper, file string, optional bool) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			if !optional || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file %q: %w", file, err)
			}
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// Validated returns an error if c has validation errors.
// Warnings are returned for the caller to log.
func Validated(c *Config) (warns []error, err error) {
	if c == nil {
		return nil, errs.ErrMissingConfig
	}
	warns, es := c.Validate()
	if len(es) != 0 {
		return warns, errors.Join(errs.Prefix("config", es)...)
	}
	return warns, nil
}
