// Package config loads the YAML configuration that assembles a storage
// backend and a filesystem registry.
//
// Example:
//
//	backend: minio
//	default_encoding: utf8
//	minio:
//	  endpoint: localhost:9000
//	  bucket: documents
//	  access_key: minioadmin
//	  secret_key: minioadmin
//	watch:
//	  enabled: true
//	  interval: 2s
//	logging:
//	  level: debug
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/filesystem"
	"github.com/tobimo/brackets/fs/billy"
	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/minio"
	"github.com/tobimo/brackets/fs/textenc"
	"github.com/tobimo/brackets/logging"
	"github.com/tobimo/brackets/metrics"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendMinIO  = "minio"
)

// Config is the top-level configuration.
type Config struct {
	Backend         string         `yaml:"backend"`
	DefaultEncoding string         `yaml:"default_encoding,omitempty"`
	Local           LocalConfig    `yaml:"local,omitempty"`
	MinIO           MinIOConfig    `yaml:"minio,omitempty"`
	Watch           WatchConfig    `yaml:"watch,omitempty"`
	Logging         logging.Config `yaml:"logging,omitempty"`
	Metrics         MetricsConfig  `yaml:"metrics,omitempty"`
}

// LocalConfig configures the local disk backend.
type LocalConfig struct {
	Root string `yaml:"root"`
}

// MinIOConfig configures the MinIO/S3 backend.
type MinIOConfig struct {
	Endpoint             string `yaml:"endpoint"`
	Bucket               string `yaml:"bucket"`
	AccessKey            string `yaml:"access_key"`
	SecretKey            string `yaml:"secret_key"`
	UseSSL               bool   `yaml:"use_ssl,omitempty"`
	Prefix               string `yaml:"prefix,omitempty"`
	MultipartThreshold   int64  `yaml:"multipart_threshold,omitempty"`
	MaxRenameConcurrency int    `yaml:"max_rename_concurrency,omitempty"`
}

// WatchConfig configures the polling watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Root     string        `yaml:"root,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used for empty fields.
func Default() Config {
	return Config{
		Backend:         BackendMemory,
		DefaultEncoding: core.DefaultEncoding,
		Watch: WatchConfig{
			Root:     "/",
			Interval: 5 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromFS(err, "read", path)
	}
	return Parse(data)
}

// Parse checks YAML data against the schema, decodes it on top of
// Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParams, "failed to parse config")
	}
	if err := CheckSchema(data); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParams, "invalid config")
	}
	return &cfg, nil
}

// applyDefaults fills fields an explicit empty value cleared.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.DefaultEncoding == "" {
		c.DefaultEncoding = d.DefaultEncoding
	}
	if c.Watch.Root == "" {
		c.Watch.Root = d.Watch.Root
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = d.Watch.Interval
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendLocal:
		if c.Local.Root == "" {
			return fmt.Errorf("local.root is required for the local backend")
		}
	case BackendMinIO:
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("minio.bucket is required for the minio backend")
		}
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("minio.endpoint is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if _, err := textenc.Lookup(c.DefaultEncoding); err != nil {
		return fmt.Errorf("default_encoding: %w", err)
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("watch.interval must not be negative")
	}
	return nil
}

// NewStorage creates the configured backend.
func (c *Config) NewStorage() (core.Storage, error) {
	switch c.Backend {
	case BackendLocal:
		return billy.NewLocal(c.Local.Root, billy.WithDefaultEncoding(c.DefaultEncoding)), nil
	case BackendMinIO:
		storage, err := minio.NewMinIO(minio.Config{
			Endpoint:             c.MinIO.Endpoint,
			Bucket:               c.MinIO.Bucket,
			AccessKey:            c.MinIO.AccessKey,
			SecretKey:            c.MinIO.SecretKey,
			UseSSL:               c.MinIO.UseSSL,
			Prefix:               c.MinIO.Prefix,
			DefaultEncoding:      c.DefaultEncoding,
			MultipartThreshold:   c.MinIO.MultipartThreshold,
			MaxRenameConcurrency: c.MinIO.MaxRenameConcurrency,
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	default:
		return billy.NewMemory(billy.WithDefaultEncoding(c.DefaultEncoding)), nil
	}
}

// Open builds the storage, logger and metrics described by c and returns
// a registry over them. Metrics are registered with reg when enabled; reg
// may be nil to skip registration.
func Open(c *Config, reg prometheus.Registerer) (*filesystem.FileSystem, error) {
	storage, err := c.NewStorage()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(c.Logging)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParams, "failed to build logger")
	}

	opts := []filesystem.Option{
		filesystem.WithLogger(logger.With(zap.String("backend", c.Backend))),
	}
	if c.Metrics.Enabled {
		opts = append(opts, filesystem.WithMetrics(metrics.New(reg)))
	}
	if c.Watch.Enabled {
		opts = append(opts, filesystem.WithWatcher(c.Watch.Root, c.Watch.Interval))
	}

	return filesystem.New(storage, opts...), nil
}
