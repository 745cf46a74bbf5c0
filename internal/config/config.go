// Package config loads process configuration from YAML.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/talgya/underkeep/internal/engine"
	"github.com/talgya/underkeep/internal/world"
)

// AdminKeyEnv overrides the admin key from the file when set.
const AdminKeyEnv = "UNDERKEEP_ADMIN_KEY"

// ErrInvalid wraps every schema or range violation.
var ErrInvalid = errors.New("invalid config")

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("underkeep.schema.json", schemaJSON)

// Config holds everything the process needs at startup.
type Config struct {
	Seed    int64 `yaml:"seed"` // 0 picks a random seed
	Width   int   `yaml:"width"`
	Height  int   `yaml:"height"`
	Veins   int   `yaml:"veins"`
	Workers int   `yaml:"workers"`

	ViewWidth  int `yaml:"view_width"` // 0 means the whole map
	ViewHeight int `yaml:"view_height"`

	TickInterval       time.Duration `yaml:"tick_interval"`
	Speed              float64       `yaml:"speed"`
	ReportEveryTicks   uint64        `yaml:"report_every_ticks"`
	AutosaveEveryTicks uint64        `yaml:"autosave_every_ticks"` // 0 disables
	Resume             bool          `yaml:"resume"`                // Load the latest save on start

	DBPath   string `yaml:"db_path"`
	APIPort  int    `yaml:"api_port"` // 0 disables the HTTP API
	AdminKey string `yaml:"admin_key"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the standard configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	return Config{
		Width:              gen.Width,
		Height:             gen.Height,
		Veins:              gen.Veins,
		Workers:            4,
		TickInterval:       time.Second,
		Speed:              1,
		ReportEveryTicks:   engine.DefaultReportEvery,
		AutosaveEveryTicks: 600,
		Resume:             true,
		DBPath:             "data/underkeep.db",
		APIPort:            8080,
		LogLevel:           "info",
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. The admin key may come from the environment instead.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if cfg, err = Parse(raw); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if key := os.Getenv(AdminKeyEnv); key != "" {
		cfg.AdminKey = key
	}
	return cfg, nil
}

// Parse validates raw YAML against the schema and decodes it over the
// defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Default()

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc != nil {
		// The schema validator wants plain JSON values.
		js, err := json.Marshal(doc)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		dec := json.NewDecoder(bytes.NewReader(js))
		dec.UseNumber()
		var plain any
		if err := dec.Decode(&plain); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := schema.Validate(plain); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks constraints the schema cannot express.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalid)
	}
	if c.ViewWidth > c.Width || c.ViewHeight > c.Height {
		return fmt.Errorf("%w: view %dx%d larger than map %dx%d",
			ErrInvalid, c.ViewWidth, c.ViewHeight, c.Width, c.Height)
	}
	if _, err := c.level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// GenConfig returns the dungeon generation parameters.
func (c Config) GenConfig() world.GenConfig {
	gen := world.DefaultGenConfig()
	gen.Seed = c.Seed
	gen.Width = c.Width
	gen.Height = c.Height
	gen.Veins = c.Veins
	return gen
}

// Options returns the colony options.
func (c Config) Options() engine.Options {
	return engine.Options{
		Gen:        c.GenConfig(),
		Workers:    c.Workers,
		ViewWidth:  c.ViewWidth,
		ViewHeight: c.ViewHeight,
	}
}

// SlogLevel returns the configured log level, Info if unset.
func (c Config) SlogLevel() slog.Level {
	lvl, _ := c.level()
	return lvl
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}
