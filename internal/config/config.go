// Package config handles nix.toml engine and logging configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"nix/pkg/interpreter"
)

// FileName is the configuration file looked up by FindAndLoad
const FileName = "nix.toml"

// Config represents a nix.toml file.
type Config struct {
	Engine Engine `toml:"engine"`
	Log    Log    `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Engine sizes the interpreter.
type Engine struct {
	StackCapacity int `toml:"stack_capacity"`
	FrameCapacity int `toml:"frame_capacity"`
	CallCapacity  int `toml:"call_capacity"`
	MaxSteps      int `toml:"max_steps"` // 0 means unlimited
}

// Log configures the process logger.
type Log struct {
	Verbose bool `toml:"verbose"`
	NoColor bool `toml:"no_color"`
}

// Default returns the configuration used when no nix.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	c.applyDefaults()
	c.Path = path

	return &c, nil
}

// FindAndLoad walks up from startDir to find a nix.toml file and loads it.
// Returns the defaults if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// Options translates the engine section into interpreter options.
func (c *Config) Options() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithStackCapacity(c.Engine.StackCapacity),
		interpreter.WithFrameCapacity(c.Engine.FrameCapacity),
		interpreter.WithCallCapacity(c.Engine.CallCapacity),
		interpreter.WithMaxSteps(c.Engine.MaxSteps),
	}
}

func (c *Config) validate() error {
	switch {
	case c.Engine.StackCapacity < 0:
		return fmt.Errorf("engine.stack_capacity must not be negative, got %d", c.Engine.StackCapacity)
	case c.Engine.FrameCapacity < 0:
		return fmt.Errorf("engine.frame_capacity must not be negative, got %d", c.Engine.FrameCapacity)
	case c.Engine.CallCapacity < 0:
		return fmt.Errorf("engine.call_capacity must not be negative, got %d", c.Engine.CallCapacity)
	case c.Engine.MaxSteps < 0:
		return fmt.Errorf("engine.max_steps must not be negative, got %d", c.Engine.MaxSteps)
	}
	return nil
}

// Defaults
func (c *Config) applyDefaults() {
	if c.Engine.StackCapacity == 0 {
		c.Engine.StackCapacity = interpreter.DefaultStackCapacity
	}
	if c.Engine.FrameCapacity == 0 {
		c.Engine.FrameCapacity = interpreter.DefaultFrameCapacity
	}
	if c.Engine.CallCapacity == 0 {
		c.Engine.CallCapacity = interpreter.DefaultCallCapacity
	}
}
