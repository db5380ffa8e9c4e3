package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
)

type StorageConfig struct {
	// DBPath is the path to the BoltDB file for tier-set persistence.
	// Default: "./data/tier-engine.db"
	DBPath string

	// PersistenceEnabled controls whether tier sets are persisted to disk.
	// Default: true
	PersistenceEnabled bool
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("DB_PATH", "./data/tier-engine.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("PERSISTENCE_ENABLED", "true") == "true"
	return nil
}

func (c *StorageConfig) Validate() error {
	return nil
}
