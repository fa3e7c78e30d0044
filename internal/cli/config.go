package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config names the files a flowlink session works against.
type Config struct {
	// Database is the path of the local reference database.
	Database string `yaml:"database"`

	// MappingFile is the path of the persisted mapping table.
	MappingFile string `yaml:"mapping_file"`

	// MinScore overrides the search relevance threshold when > 0.
	MinScore int `yaml:"min_score"`
}

// DefaultConfig returns the config used when no file is present.
func DefaultConfig() Config {
	return Config{
		Database:    "refdata.db",
		MappingFile: "mappings.csv",
	}
}

// LoadConfig reads a YAML config file. A missing file is not an error, the
// defaults apply; a present but unreadable or malformed file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Database == "" {
		return Config{}, fmt.Errorf("config %s: database must not be empty", path)
	}
	if cfg.MappingFile == "" {
		return Config{}, fmt.Errorf("config %s: mapping_file must not be empty", path)
	}
	return cfg, nil
}
