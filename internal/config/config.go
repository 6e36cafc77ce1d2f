// Package config loads the lookupdesk configuration: built-in defaults, then
// an optional YAML file, then LOOKUPDESK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lookupdesk/internal/blob"
	"lookupdesk/internal/core"
	"lookupdesk/internal/logging"
)

// EnvPath names the variable consulted when no config path is given.
const EnvPath = "LOOKUPDESK_CONFIG"

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Storage StorageConfig  `yaml:"storage"`
	Blob    blob.Config    `yaml:"blob"`
	Exports ExportsConfig  `yaml:"exports"`
	Logging logging.Config `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageConfig selects the ledger backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Core converts the section into the core storage settings.
func (s StorageConfig) Core() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(s.Driver),
		SQLitePath:  s.SQLitePath,
		PostgresDSN: s.PostgresDSN,
	}
}

// ExportsConfig sizes the export worker.
type ExportsConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{Driver: string(core.StorageSQLite), SQLitePath: "lookupdesk.db"},
		Blob:    blob.Config{Driver: blob.DriverFilesystem, FSRoot: "./blobdata"},
		Exports: ExportsConfig{QueueSize: 32},
		Logging: logging.Defaults(),
	}
}

// Load builds the configuration. An empty path falls back to
// $LOOKUPDESK_CONFIG; when both are empty only defaults and the environment
// apply.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"LOOKUPDESK_HTTP_ADDR":                 &c.Server.Addr,
		"LOOKUPDESK_STORAGE_DRIVER":            &c.Storage.Driver,
		"LOOKUPDESK_SQLITE_PATH":               &c.Storage.SQLitePath,
		"LOOKUPDESK_POSTGRES_DSN":              &c.Storage.PostgresDSN,
		"LOOKUPDESK_BLOB_FS_ROOT":              &c.Blob.FSRoot,
		"LOOKUPDESK_BLOB_BASE_URL":             &c.Blob.BaseURL,
		"LOOKUPDESK_BLOB_S3_BUCKET":            &c.Blob.S3.Bucket,
		"LOOKUPDESK_BLOB_S3_REGION":            &c.Blob.S3.Region,
		"LOOKUPDESK_BLOB_S3_ENDPOINT":          &c.Blob.S3.Endpoint,
		"LOOKUPDESK_BLOB_S3_ACCESS_KEY_ID":     &c.Blob.S3.AccessKeyID,
		"LOOKUPDESK_BLOB_S3_SECRET_ACCESS_KEY": &c.Blob.S3.SecretAccessKey,
		"LOOKUPDESK_BLOB_S3_SESSION_TOKEN":     &c.Blob.S3.SessionToken,
		"LOOKUPDESK_LOG_LEVEL":                 &c.Logging.Level,
		"LOOKUPDESK_LOG_FORMAT":                &c.Logging.Format,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookup("LOOKUPDESK_BLOB_DRIVER"); ok && strings.TrimSpace(v) != "" {
		c.Blob.Driver = blob.Driver(strings.TrimSpace(v))
	}
	if v, ok := lookup("LOOKUPDESK_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: LOOKUPDESK_BLOB_S3_PATH_STYLE: %w", err)
		}
		c.Blob.S3.PathStyle = b
	}
	if v, ok := lookup("LOOKUPDESK_EXPORT_QUEUE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: LOOKUPDESK_EXPORT_QUEUE_SIZE: %w", err)
		}
		c.Exports.QueueSize = n
	}
	durations := map[string]*time.Duration{
		"LOOKUPDESK_HTTP_READ_TIMEOUT":  &c.Server.ReadTimeout,
		"LOOKUPDESK_HTTP_WRITE_TIMEOUT": &c.Server.WriteTimeout,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr required"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageSQLite, "":
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn required for postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q unknown", c.Storage.Driver))
	}
	switch c.Blob.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket required for s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q unknown", c.Blob.Driver))
	}
	if c.Exports.QueueSize <= 0 {
		errs = append(errs, errors.New("exports.queue_size must be positive"))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
