package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spinor-lang/spinor/internal/executor"
)

// RunConfig is the YAML run-configuration document accepted by --config.
//
//	backend:
//	  type: cpu_dense
//	  threads: 4
type RunConfig struct {
	Backend struct {
		Type    string `yaml:"type"`
		Threads int    `yaml:"threads"`
	} `yaml:"backend"`
}

// loadRunConfig reads a YAML run configuration and converts it to a backend
// configuration. An empty path yields the default dense CPU backend.
func loadRunConfig(path string) (executor.BackendConfig, error) {
	if path == "" {
		return executor.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return executor.BackendConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return executor.BackendConfig{}, fmt.Errorf("parse config: %w", err)
	}

	backend := executor.DefaultConfig()
	if cfg.Backend.Type != "" {
		backend.BackendType = executor.BackendType(cfg.Backend.Type)
	}
	backend.NumThreads = cfg.Backend.Threads

	return backend, nil
}
