package roster

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StorageMode selects the storage adapter.
type StorageMode string

const (
	StorageModeInMemory StorageMode = "in-memory"
	StorageModeKeyValue StorageMode = "key-value"

	// storageModeLocalStorage is accepted as an alias of StorageModeKeyValue.
	storageModeLocalStorage StorageMode = "local-storage"
)

// ParseStorageMode normalizes a configured mode. Empty selects the in-memory adapter.
func ParseStorageMode(s string) (StorageMode, error) {
	switch StorageMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StorageModeInMemory:
		return StorageModeInMemory, nil
	case StorageModeKeyValue, storageModeLocalStorage:
		return StorageModeKeyValue, nil
	default:
		return "", NewUnsupportedModeError(ErrCodeUnsupportedMode, s)
	}
}

// KVBackend selects the durable key/value namespace used by the key-value adapter.
type KVBackend string

const (
	KVBackendFile     KVBackend = "file"
	KVBackendPostgres KVBackend = "postgres"
	KVBackendSQL      KVBackend = "sql"
	KVBackendS3       KVBackend = "s3"
)

// ParseKVBackend normalizes a configured backend. Empty selects the file backend.
func ParseKVBackend(s string) (KVBackend, error) {
	switch KVBackend(strings.ToLower(strings.TrimSpace(s))) {
	case "", KVBackendFile:
		return KVBackendFile, nil
	case KVBackendPostgres:
		return KVBackendPostgres, nil
	case KVBackendSQL:
		return KVBackendSQL, nil
	case KVBackendS3:
		return KVBackendS3, nil
	default:
		return "", NewUnsupportedModeError(ErrCodeUnsupportedDriver, s)
	}
}

// Config is the engine configuration.
type Config struct {
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// StorageConfig selects and configures the storage adapter. It is read once, when the
// adapter is constructed.
type StorageConfig struct {
	Mode       StorageMode    `json:"mode" yaml:"mode"`
	Backend    KVBackend      `json:"backend" yaml:"backend"`
	RecordsKey string         `json:"recordsKey" yaml:"recordsKey"`
	FieldsKey  string         `json:"fieldsKey" yaml:"fieldsKey"`
	File       FileConfig     `json:"file" yaml:"file"`
	Postgres   PostgresConfig `json:"postgres" yaml:"postgres"`
	SQL        SQLConfig      `json:"sql" yaml:"sql"`
	S3         S3Config       `json:"s3" yaml:"s3"`
}

// FileConfig configures the file-per-key backend.
type FileConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// PostgresConfig configures the pgx backend.
type PostgresConfig struct {
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	Database       string `json:"database" yaml:"database"`
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"password" yaml:"password"`
	SSLMode        string `json:"sslMode" yaml:"sslMode"`
	Table          string `json:"table" yaml:"table"`
	MaxConnections int    `json:"maxConnections" yaml:"maxConnections"`
	// UseIAM replaces Password with a DSQL IAM auth token generated for Region.
	UseIAM bool   `json:"useIAM" yaml:"useIAM"`
	Region string `json:"region" yaml:"region"`
}

// SQLConfig configures the database/sql backend.
type SQLConfig struct {
	Driver string `json:"driver" yaml:"driver"` // duckdb | postgres
	DSN    string `json:"dsn" yaml:"dsn"`
	Table  string `json:"table" yaml:"table"`
}

// S3Config configures the object storage backend.
type S3Config struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix" yaml:"prefix"`
	Region       string `json:"region" yaml:"region"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	AccessKey    string `json:"accessKey" yaml:"accessKey"`
	SecretKey    string `json:"secretKey" yaml:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle" yaml:"usePathStyle"`
	CreateBucket bool   `json:"createBucket" yaml:"createBucket"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Format      string `json:"format" yaml:"format"` // json | console
	Development bool   `json:"development" yaml:"development"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Mode:       StorageModeInMemory,
			Backend:    KVBackendFile,
			RecordsKey: "member-table-records",
			FieldsKey:  "member-table-fields",
			File: FileConfig{
				Dir: "data",
			},
			Postgres: PostgresConfig{
				Host:           "localhost",
				Port:           5432,
				Database:       "roster",
				Username:       "postgres",
				SSLMode:        "disable",
				Table:          "roster_kv",
				MaxConnections: 4,
			},
			SQL: SQLConfig{
				Driver: "duckdb",
				Table:  "roster_kv",
			},
			S3: S3Config{
				Prefix: "roster",
				Region: "us-east-1",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads a YAML (or JSON) file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables on the configuration. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	var mode, backend string
	str("ROSTER_STORAGE", &mode)
	if mode != "" {
		c.Storage.Mode = StorageMode(mode)
	}
	str("ROSTER_KV_BACKEND", &backend)
	if backend != "" {
		c.Storage.Backend = KVBackend(backend)
	}
	str("ROSTER_RECORDS_KEY", &c.Storage.RecordsKey)
	str("ROSTER_FIELDS_KEY", &c.Storage.FieldsKey)
	str("ROSTER_FILE_DIR", &c.Storage.File.Dir)

	str("DB_HOST", &c.Storage.Postgres.Host)
	num("DB_PORT", &c.Storage.Postgres.Port)
	str("DB_NAME", &c.Storage.Postgres.Database)
	str("DB_USER", &c.Storage.Postgres.Username)
	str("DB_PASSWORD", &c.Storage.Postgres.Password)
	str("DB_SSL_MODE", &c.Storage.Postgres.SSLMode)
	str("DB_KV_TABLE", &c.Storage.Postgres.Table)
	num("DB_MAX_CONNECTIONS", &c.Storage.Postgres.MaxConnections)
	flag("DB_USE_IAM", &c.Storage.Postgres.UseIAM)
	str("DB_REGION", &c.Storage.Postgres.Region)

	str("ROSTER_SQL_DRIVER", &c.Storage.SQL.Driver)
	str("ROSTER_SQL_DSN", &c.Storage.SQL.DSN)
	str("ROSTER_SQL_TABLE", &c.Storage.SQL.Table)

	str("ROSTER_S3_BUCKET", &c.Storage.S3.Bucket)
	str("ROSTER_S3_PREFIX", &c.Storage.S3.Prefix)
	str("ROSTER_S3_REGION", &c.Storage.S3.Region)
	str("ROSTER_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("ROSTER_S3_ACCESS_KEY", &c.Storage.S3.AccessKey)
	str("ROSTER_S3_SECRET_KEY", &c.Storage.S3.SecretKey)
	flag("ROSTER_S3_PATH_STYLE", &c.Storage.S3.UsePathStyle)
	flag("ROSTER_S3_CREATE_BUCKET", &c.Storage.S3.CreateBucket)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	flag("LOG_DEVELOPMENT", &c.Logging.Development)
}

// Validate validates the configuration and normalizes the storage mode and backend.
func (c *Config) Validate() error {
	mode, err := ParseStorageMode(string(c.Storage.Mode))
	if err != nil {
		return &ConfigError{Field: "storage.mode", Message: err.Error()}
	}
	c.Storage.Mode = mode

	if c.Storage.RecordsKey == "" {
		return &ConfigError{Field: "storage.recordsKey", Message: "must not be empty"}
	}
	if c.Storage.FieldsKey == "" {
		return &ConfigError{Field: "storage.fieldsKey", Message: "must not be empty"}
	}
	if c.Storage.RecordsKey == c.Storage.FieldsKey {
		return &ConfigError{Field: "storage.fieldsKey", Message: "must differ from recordsKey"}
	}

	if mode == StorageModeKeyValue {
		backend, err := ParseKVBackend(string(c.Storage.Backend))
		if err != nil {
			return &ConfigError{Field: "storage.backend", Message: err.Error()}
		}
		c.Storage.Backend = backend

		switch backend {
		case KVBackendFile:
			if c.Storage.File.Dir == "" {
				return &ConfigError{Field: "storage.file.dir", Message: "must not be empty"}
			}
		case KVBackendPostgres:
			if c.Storage.Postgres.Table == "" {
				return &ConfigError{Field: "storage.postgres.table", Message: "must not be empty"}
			}
			if c.Storage.Postgres.MaxConnections <= 0 {
				return &ConfigError{Field: "storage.postgres.maxConnections", Message: "must be greater than 0"}
			}
			if c.Storage.Postgres.UseIAM && c.Storage.Postgres.Region == "" {
				return &ConfigError{Field: "storage.postgres.region", Message: "is required when useIAM is set"}
			}
		case KVBackendSQL:
			switch c.Storage.SQL.Driver {
			case "duckdb", "postgres":
			default:
				return &ConfigError{Field: "storage.sql.driver", Message: fmt.Sprintf("unsupported driver %q", c.Storage.SQL.Driver)}
			}
			if c.Storage.SQL.Table == "" {
				return &ConfigError{Field: "storage.sql.table", Message: "must not be empty"}
			}
		case KVBackendS3:
			if c.Storage.S3.Bucket == "" {
				return &ConfigError{Field: "storage.s3.bucket", Message: "must not be empty"}
			}
			if (c.Storage.S3.AccessKey == "") != (c.Storage.S3.SecretKey == "") {
				return &ConfigError{Field: "storage.s3.accessKey", Message: "accessKey and secretKey must be set together"}
			}
		}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
