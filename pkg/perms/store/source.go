package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

// Source is a configuration tree a World is parsed from.
// *viper.Viper implements Source.
type Source interface {
	// Get returns the value at a top-level key, or nil.
	Get(key string) any
}

// MapSource is a Source backed by a plain map, e.g. one decoded from YAML.
type MapSource map[string]any

// Get implements Source.
func (m MapSource) Get(key string) any { return m[key] }

var _ Source = (*viper.Viper)(nil)

// Extensions are the world file extensions in lookup order.
var Extensions = []string{".yml", ".yaml", ".json", ".jsonc", ".toml"}

// FindWorldFile returns the config file of a world inside dir.
func FindWorldFile(dir, world string) (string, bool) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, world+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// WorldFiles lists the world names that have a config file in dir.
// A missing directory yields no worlds.
func WorldFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading world directory: %w", err)
	}
	var worlds []string
	seen := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !isWorldExt(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if !seen[name] {
			seen[name] = true
			worlds = append(worlds, name)
		}
	}
	return worlds, nil
}

func isWorldExt(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// ReadFile reads a world config file into a fresh viper instance.
// Commented JSON (.jsonc) is converted to plain JSON first.
func ReadFile(path string) (*viper.Viper, error) {
	v := viper.New()
	if strings.EqualFold(filepath.Ext(path), ".jsonc") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigType("json")
		if err = v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
			return nil, err
		}
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseFile reads and parses a world config file.
func ParseFile(world, path string) (*World, error) {
	v, err := ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, path)
		}
		return nil, &ConfigError{World: world, File: path, Err: err}
	}
	w, err := Parse(world, v)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	return w, nil
}
