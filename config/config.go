// Package config defines the DispatcherConfig loaded at process startup: the
// tunable knobs for Feedback, GraphOrchestrator, and the worker pool.
//
// The YAML-with-defaults loading style mirrors the pack's config loaders
// (e.g. internal/workspace/loader.go in dpopsuev-asterisk): unmarshal onto a
// struct pre-populated with defaults so a partial or absent config file
// still yields a fully usable configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DispatcherConfig is the top-level operator-facing configuration.
type DispatcherConfig struct {
	Workers int `yaml:"workers"`

	FusionThreshold     int `yaml:"fusion_threshold"`
	AnalysisInterval    int `yaml:"analysis_interval"`
	PlanHistoryCapacity int `yaml:"plan_history_capacity"`

	LearningRate     float64 `yaml:"learning_rate"`
	BaseLearningRate float64 `yaml:"base_learning_rate"`
	QuarkThreshold   float64 `yaml:"quark_threshold"`
	ExplorationRate  float64 `yaml:"exploration_rate"`

	HardwareProfilePath string `yaml:"hardware_profile_path"`
	MetricsListenAddr   string `yaml:"metrics_listen_addr"`
}

// Default returns the authoritative default configuration.
func Default() DispatcherConfig {
	return DispatcherConfig{
		Workers:              4,
		FusionThreshold:      10,
		AnalysisInterval:     5,
		PlanHistoryCapacity:  256,
		LearningRate:         0.1,
		BaseLearningRate:     0.05,
		QuarkThreshold:       0.15,
		ExplorationRate:      0.10,
		HardwareProfilePath: "",
		MetricsListenAddr:   ":9090",
	}
}

// Load reads a YAML config file at path, overlaying it onto Default(). A
// missing file is not an error: Default() is returned unchanged.
func Load(path string) (DispatcherConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return DispatcherConfig{}, fmt.Errorf("read dispatcher config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DispatcherConfig{}, fmt.Errorf("unmarshal dispatcher config: %w", err)
	}
	return cfg, nil
}
