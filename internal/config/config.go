package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vexsearch/sysdb/pkg/objectstore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	MetricsAddr string            `json:"metrics_addr" yaml:"metrics_addr"`
	SeedPath    string            `json:"seed_path" yaml:"seed_path"`
	LogLevel    string            `json:"log_level" yaml:"log_level"`
	Catalog     CatalogConfig     `json:"catalog" yaml:"catalog"`
	ObjectStore ObjectStoreConfig `json:"object_store" yaml:"object_store"`
}

// ObjectStoreConfig holds the S3-compatible endpoint used for s3:// seed locations.
// The bucket comes from the location itself.
type ObjectStoreConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	Region    string `json:"region" yaml:"region"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
}

// S3Config returns the store configuration for bucket.
func (c ObjectStoreConfig) S3Config(bucket string) objectstore.S3Config {
	return objectstore.S3Config{
		Endpoint:  c.Endpoint,
		Bucket:    bucket,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Region:    c.Region,
		UseSSL:    c.UseSSL,
	}
}

// OpenBucket returns an instrumented S3 store for bucket.
func (c ObjectStoreConfig) OpenBucket(bucket string) (objectstore.Store, error) {
	store, err := objectstore.NewS3Store(c.S3Config(bucket))
	if err != nil {
		return nil, err
	}
	return objectstore.NewInstrumentedStore(store), nil
}

// CatalogConfig holds catalog query defaults.
type CatalogConfig struct {
	// DefaultListLimit caps ListDatabases results when the caller gives no limit.
	// 0 means no limit.
	DefaultListLimit int `json:"default_list_limit,omitempty" yaml:"default_list_limit,omitempty"`
}

// ListLimit returns the default list limit as a ListDatabases argument.
// Returns nil when no limit is configured.
func (c CatalogConfig) ListLimit() *uint32 {
	if c.DefaultListLimit <= 0 {
		return nil
	}
	limit := uint32(c.DefaultListLimit)
	return &limit
}

func Default() *Config {
	return &Config{
		MetricsAddr: ":9464",
		LogLevel:    "info",
		ObjectStore: ObjectStoreConfig{
			Endpoint: "http://localhost:9000",
			Region:   "us-east-1",
		},
	}
}

// Load reads configuration from path, or from $SYSDB_CONFIG when path is empty,
// then applies SYSDB_* environment overrides. Files ending in .yaml or .yml are
// decoded as YAML; anything else as JSON.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SYSDB_CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env := os.Getenv("SYSDB_METRICS_ADDR"); env != "" {
		cfg.MetricsAddr = env
	}
	if env := os.Getenv("SYSDB_SEED_PATH"); env != "" {
		cfg.SeedPath = env
	}
	if env := os.Getenv("SYSDB_LOG_LEVEL"); env != "" {
		cfg.LogLevel = env
	}
	if env := os.Getenv("SYSDB_DEFAULT_LIST_LIMIT"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Catalog.DefaultListLimit = n
		}
	}

	if env := os.Getenv("SYSDB_OBJECT_STORE_ENDPOINT"); env != "" {
		cfg.ObjectStore.Endpoint = env
	}
	if env := os.Getenv("SYSDB_OBJECT_STORE_ACCESS_KEY"); env != "" {
		cfg.ObjectStore.AccessKey = env
	}
	if env := os.Getenv("SYSDB_OBJECT_STORE_SECRET_KEY"); env != "" {
		cfg.ObjectStore.SecretKey = env
	}
	if env := os.Getenv("SYSDB_OBJECT_STORE_REGION"); env != "" {
		cfg.ObjectStore.Region = env
	}
	if env := os.Getenv("SYSDB_OBJECT_STORE_USE_SSL"); env != "" {
		cfg.ObjectStore.UseSSL = env == "true" || env == "1"
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func parseIntEnv(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
