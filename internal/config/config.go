package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the file-based configuration used by the cmd binaries. The
// library itself takes plain structs; this only exists so the tools can
// be pointed at a data directory without flags.
type Config struct {
	DataDir       string `yaml:"dataDir"`
	MinimumFreeGB int    `yaml:"minimumFreeGB"`
	CacheCapacity int    `yaml:"cacheCapacity"`
}

// Load reads a yaml config file and fills in defaults. A missing file is
// not an error; the defaults are returned.
func Load(path string) (Config, error) {
	config := Config{
		DataDir:       "./tsundoku-data",
		MinimumFreeGB: 1,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error parsing config %s: %w", path, err)
	}

	if config.DataDir == "" {
		config.DataDir = "./tsundoku-data"
	}
	if config.MinimumFreeGB == 0 {
		config.MinimumFreeGB = 1
	}

	return config, nil
}
