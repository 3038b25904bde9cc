package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`
	Cascade struct {
		MaxLevels          int     `yaml:"max_levels"`
		MaxEffectsPerLevel int     `yaml:"max_effects_per_level"`
		ProbThreshold      float64 `yaml:"probability_threshold"`
		MinInfluence       float64 `yaml:"min_influence_factor"`
		IncludeIndirect    bool    `yaml:"include_indirect_effects"`
	} `yaml:"cascade"`
	World struct {
		CatalogPath string `yaml:"catalog_path"` // optional JSON catalog override
	} `yaml:"world"`
	Narrative struct {
		MaxConsequences int `yaml:"max_consequences"`
	} `yaml:"narrative"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level        string `yaml:"level"`
		EnableColors bool   `yaml:"enable_colors"`
	} `yaml:"logging"`
}

var Global Config

// Load reads the config.yaml file. A missing file is not an error; defaults
// apply either way.
func Load() error {
	// Boolean default has to land before unmarshal so an explicit false in
	// the file still wins.
	Global.Cascade.IncludeIndirect = true
	Global.Logging.EnableColors = true
	applyDefaults()

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, &Global); err != nil {
		return err
	}
	applyDefaults()
	return nil
}

func applyDefaults() {
	if Global.App.Name == "" {
		Global.App.Name = "Saga"
	}
	if Global.App.Version == "" {
		Global.App.Version = "0.3.0"
	}
	if Global.Cascade.MaxLevels == 0 {
		Global.Cascade.MaxLevels = 3
	}
	if Global.Cascade.MaxEffectsPerLevel == 0 {
		Global.Cascade.MaxEffectsPerLevel = 4
	}
	if Global.Cascade.ProbThreshold == 0 {
		Global.Cascade.ProbThreshold = 0.3
	}
	if Global.Cascade.MinInfluence == 0 {
		Global.Cascade.MinInfluence = 0.3
	}
	if Global.Narrative.MaxConsequences == 0 {
		Global.Narrative.MaxConsequences = 3
	}
	if Global.Storage.Path == "" {
		Global.Storage.Path = "saga_history.db"
	}
	if Global.Server.Port == "" {
		Global.Server.Port = ":8080"
	}
	if Global.Logging.Level == "" {
		Global.Logging.Level = "info"
	}
}
