// Package natuscfg loads deployment configuration for the Natus CLI and
// host programs: logging, the engines search directory, and the default
// require search path. Config does not cover the require subsystem's own
// JSON config shape (§6 Config shape), which is a wire contract rather
// than a deployment knob; that shape is read through RequireView
// (require_config.go) instead.
package natuscfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the CLI / host-level deployment configuration: where to find
// backend plugins, default logging, and the NATUS_PATH-derived module
// search path.
type Config struct {
	EnginesDir string   `json:"engines_dir" yaml:"engines_dir" env:"NATUS_ENGINES_DIR"`
	ModulePath []string `json:"module_path" yaml:"module_path"`

	LogLevel  string `json:"log_level" yaml:"log_level" env:"NATUS_LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" env:"NATUS_LOG_FORMAT"`
	LogOutput string `json:"log_output" yaml:"log_output" env:"NATUS_LOG_OUTPUT"`
}

// Default returns a permissive baseline configuration.
func Default() Config {
	return Config{
		EnginesDir: "./engines",
		LogLevel:   "info",
		LogFormat:  "text",
		LogOutput:  "stdout",
	}
}

// Load builds a Config from, in order: the built-in default, an optional
// YAML sidecar file (if path is non-empty), a ".env" file in the working
// directory (ignored if absent), and environment variable overrides.
// Later sources win. The NATUS_PATH environment variable, if set, is
// split on the OS path-list separator and prepended to ModulePath,
// matching §6's "Environment" contract.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// godotenv.Load populates process environment from .env; a missing
	// file is not an error, matching typical CLI ergonomics.
	_ = godotenv.Load()

	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}

	if natusPath := os.Getenv("NATUS_PATH"); natusPath != "" {
		prefixes := strings.Split(natusPath, string(os.PathListSeparator))
		cfg.ModulePath = append(prefixes, cfg.ModulePath...)
	}

	return cfg, nil
}
