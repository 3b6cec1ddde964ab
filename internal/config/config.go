package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".pep257.yaml"

type Config struct {
	Warnings    bool     `yaml:"warnings"`
	Format      string   `yaml:"format"`
	NoFail      bool     `yaml:"no_fail"`
	Recursive   bool     `yaml:"recursive"`
	Jobs        int      `yaml:"jobs"`
	Color       string   `yaml:"color"` // auto, always, never
	FileModules bool     `yaml:"file_modules"`
	Exclude     []string `yaml:"exclude"`
	Ignore      []string `yaml:"ignore"`
	Select      []string `yaml:"select"`
	Cache       string   `yaml:"cache"`
	Vocabulary  struct {
		Imperative    []string `yaml:"imperative"`
		NonImperative []string `yaml:"non_imperative"`
	} `yaml:"vocabulary"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Format: "text",
		Color:  "auto",
	}
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error. Environment variables, including those from a .env file, override
// file values.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := validateFile(file); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateFile checks the raw YAML document against the embedded schema so
// that misspelled keys are reported instead of ignored.
func validateFile(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize config for schema validation: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize config for schema validation: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}
	return schema.Validate(v)
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config.schema.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("config.schema.json")
	})
	return compiledSchema, schemaErr
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PEP257_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("PEP257_CACHE"); v != "" {
		cfg.Cache = v
	}
	if v := os.Getenv("PEP257_WARNINGS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PEP257_WARNINGS: %w", err)
		}
		cfg.Warnings = b
	}
	if v := os.Getenv("PEP257_NO_FAIL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PEP257_NO_FAIL: %w", err)
		}
		cfg.NoFail = b
	}
	if v := os.Getenv("PEP257_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PEP257_JOBS: %w", err)
		}
		cfg.Jobs = n
	}
	return nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	switch strings.ToLower(c.Color) {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unknown color mode %q", c.Color)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}
	return nil
}
