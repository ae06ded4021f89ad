package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultDatasetPath is where the dataset file is read from when neither
// DATASET_URL nor DATASET_PATH is set.
const DefaultDatasetPath = "data/districts_trees_needed_lookup.json"

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatasetURL     string
	DatasetPath    string
	DatasetTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Reload triggers.
	ReloadSchedule    string
	ReloadMinInterval time.Duration

	NormalizeCacheSize int

	// Kafka reload notifications and snapshot events.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaNotifyTopic   string
	KafkaSnapshotTopic string
	KafkaGroupID       string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	datasetTimeout, err := parsePositiveDuration("DATASET_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	minInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RELOAD_MIN_INTERVAL", "5s"))
	if err != nil || minInterval < 0 {
		return nil, errors.New("invalid RELOAD_MIN_INTERVAL")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatasetURL:     os.Getenv("DATASET_URL"),
		DatasetPath:    sharedcfg.EnvOrDefault("DATASET_PATH", DefaultDatasetPath),
		DatasetTimeout: datasetTimeout,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReloadSchedule:    os.Getenv("RELOAD_SCHEDULE"),
		ReloadMinInterval: minInterval,

		NormalizeCacheSize: cacheSize,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotifyTopic:   sharedcfg.EnvOrDefault("KAFKA_NOTIFY_TOPIC", "treecover-dataset-published"),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "treecover-snapshots"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "treecover-lookup"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaNotifyTopic == "" {
			return nil, errors.New("KAFKA_NOTIFY_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSnapshotTopic == "" {
			return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// DatasetLocation describes where the dataset is read from.
func (c *Config) DatasetLocation() string {
	if c.DatasetURL != "" {
		return c.DatasetURL
	}
	return c.DatasetPath
}

func parsePositiveDuration(name, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("NORMALIZE_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid NORMALIZE_CACHE_SIZE")
	}
	return n, nil
}
