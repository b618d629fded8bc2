package main

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/jilvan1234/VTIL-SymEx/parse"
	"github.com/jilvan1234/VTIL-SymEx/rewrite"
)

// Config represents the settings read from a configuration file.
//
//	width = 32
//	prettify = true
//	cache-size = 1024
//
//	[variables]
//	rax = 64
//	al = 8
type Config struct {
	Width     uint            `toml:"width"`
	Prettify  bool            `toml:"prettify"`
	CacheSize int             `toml:"cache-size"`
	Variables map[string]uint `toml:"variables"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Width:     parse.DefaultWidth,
		CacheSize: rewrite.DefaultCacheSize,
	}
}

// LoadConfig reads the configuration file at path. Settings missing from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot load config %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Config{}, errors.Errorf("%s: unknown setting %q", path, keys[0].String())
	}
	return config, nil
}

// parseVar parses a variable width given as name=width.
func parseVar(s string) (string, uint, error) {
	name, width, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", 0, errors.Errorf("invalid variable %q: expected name=width", s)
	}
	w, err := strconv.ParseUint(width, 10, 8)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid width for variable %s", name)
	}
	return name, uint(w), nil
}
