package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

// Config is the tap configuration surface. Files may be YAML or JSON; the
// key names follow the tap's published settings.
type Config struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	Database string `yaml:"database" json:"database"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Schema   string `yaml:"schema,omitempty" json:"schema,omitempty"` // default: dbo

	// DriverOptions are appended to the connection URL query verbatim,
	// e.g. encrypt, TrustServerCertificate, app name.
	DriverOptions map[string]string `yaml:"driver_options,omitempty" json:"driver_options,omitempty"`

	// Engine construction parameters. Pool sizing is an explicit engine
	// parameter here, never a process-wide driver toggle.
	Engine EngineConfig `yaml:"engine,omitempty" json:"engine,omitempty"`

	// HDJSONSchemaTypes selects the detailed type mapping: exact native
	// bounds, formats and content encodings per column.
	HDJSONSchemaTypes bool `yaml:"hd_jsonschema_types,omitempty" json:"hd_jsonschema_types,omitempty"`

	// StartDate is the earliest replication-key timestamp to sync when a
	// stream has no bookmark yet (RFC 3339).
	StartDate string `yaml:"start_date,omitempty" json:"start_date,omitempty"`

	// AbortAtRecordCount caps a single stream read. The read itself fetches
	// one extra row so the runner can tell "exactly at the cap" from "more
	// data exists".
	AbortAtRecordCount int `yaml:"abort_at_record_count,omitempty" json:"abort_at_record_count,omitempty"`

	Batch     *BatchConfig    `yaml:"batch_config,omitempty" json:"batch_config,omitempty"`
	Audit     AuditConfig     `yaml:"audit,omitempty" json:"audit,omitempty"`
	ResultLog ResultLogConfig `yaml:"result_log,omitempty" json:"result_log,omitempty"`
}

// EngineConfig holds sql.DB construction parameters.
type EngineConfig struct {
	MaxOpenConns    int `yaml:"max_open_conns,omitempty" json:"max_open_conns,omitempty"`
	MaxIdleConns    int `yaml:"max_idle_conns,omitempty" json:"max_idle_conns,omitempty"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime_sec,omitempty" json:"conn_max_lifetime_sec,omitempty"`
}

// BatchConfig enables batch file output instead of inline RECORD messages.
type BatchConfig struct {
	Encoding EncodingConfig `yaml:"encoding" json:"encoding"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	// BatchSize is the row count per batch file (default 10000).
	BatchSize int `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// EncodingConfig describes the batch file encoding. Only jsonl + gzip are
// supported.
type EncodingConfig struct {
	Format      string `yaml:"format" json:"format"`
	Compression string `yaml:"compression" json:"compression"`
}

// StorageConfig describes where batch files land.
type StorageConfig struct {
	// Root is a file:// directory or s3://bucket/prefix URL.
	Root string `yaml:"root" json:"root"`
	// Prefix is prepended to every batch filename.
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// AuditConfig controls the audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	File    string `yaml:"file,omitempty" json:"file,omitempty"`
	MaxSize int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	Console bool   `yaml:"console,omitempty" json:"console,omitempty"`
}

// ResultLogConfig controls publishing per-stream sync results to Redis.
type ResultLogConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	// TTL of the state key in seconds (default 86400).
	TTL int `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

const (
	defaultPort      = 1433
	defaultSchema    = "dbo"
	defaultBatchSize = 10000
)

// Load reads configuration from a YAML or JSON file, applies defaults and
// validates it.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if strings.HasSuffix(filename, ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Schema == "" {
		c.Schema = defaultSchema
	}
	if c.Batch != nil && c.Batch.BatchSize <= 0 {
		c.Batch.BatchSize = defaultBatchSize
	}
	if c.ResultLog.Enabled && c.ResultLog.TTL <= 0 {
		c.ResultLog.TTL = 86400
	}
}

// Validate checks required connection parameters and option values.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("config: host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("config: database is required")
	}
	if c.User == "" {
		return fmt.Errorf("config: user is required")
	}
	if c.Password == "" {
		return fmt.Errorf("config: password is required")
	}
	if c.StartDate != "" {
		if _, err := time.Parse(time.RFC3339, c.StartDate); err != nil {
			return fmt.Errorf("config: start_date must be RFC 3339: %w", err)
		}
	}
	if c.AbortAtRecordCount < 0 {
		return fmt.Errorf("config: abort_at_record_count must not be negative")
	}
	if c.Batch != nil {
		if f := c.Batch.Encoding.Format; f != "" && f != "jsonl" {
			return fmt.Errorf("config: unsupported batch format %q (only jsonl)", f)
		}
		if z := c.Batch.Encoding.Compression; z != "" && z != "gzip" {
			return fmt.Errorf("config: unsupported batch compression %q (only gzip)", z)
		}
		if c.Batch.Storage.Root == "" {
			return fmt.Errorf("config: batch_config.storage.root is required")
		}
	}
	if c.ResultLog.Enabled && c.ResultLog.Address == "" {
		return fmt.Errorf("config: result_log.address is required when enabled")
	}
	return nil
}

// MapMode returns the type mapping mode selected by hd_jsonschema_types.
func (c *Config) MapMode() jsonschema.MapMode {
	if c.HDJSONSchemaTypes {
		return jsonschema.MapDetailed
	}
	return jsonschema.MapReduced
}

// StartTimestamp parses start_date; the zero time means "no start date".
func (c *Config) StartTimestamp() time.Time {
	if c.StartDate == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.StartDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// BuildDSN constructs the go-mssqldb connection URL. Encryption is on by
// default for Azure SQL; driver_options override or extend the query.
func (c *Config) BuildDSN() string {
	query := url.Values{}
	query.Set("database", c.Database)
	query.Set("encrypt", "true")
	query.Set("TrustServerCertificate", "true")
	for k, v := range c.DriverOptions {
		query.Set(k, v)
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Save writes the configuration to a YAML file.
func Save(filename string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Sample returns a starter configuration for --create-config.
func Sample() *Config {
	return &Config{
		Host:     "myserver.database.windows.net",
		Port:     defaultPort,
		Database: "aptify",
		User:     "taps",
		Password: "ChangeMe123",
		Schema:   defaultSchema,
		DriverOptions: map[string]string{
			"encrypt":                "true",
			"TrustServerCertificate": "yes",
		},
		HDJSONSchemaTypes: true,
		StartDate:         "2024-01-01T00:00:00Z",
	}
}
