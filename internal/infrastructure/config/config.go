package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers for the durable key-value store
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Sample data bounds
const (
	DefaultSampleSize    = 25
	MaxSampleSize        = 100
	DefaultSeedBatchSize = 10
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Log           LogConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	ObjectStorage ObjectStorageConfig
	Inventory     InventoryConfig
	Telemetry     TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console; empty uses the app.env preset
	Output string // stdout, stderr, or file path; empty uses the app.env preset
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// StorageConfig selects the durable key-value store behind the asset repository
type StorageConfig struct {
	Driver     string // memory, sqlite, postgres, redis
	KeyPrefix  string // namespace for the snapshot key
	SQLitePath string // file path for the sqlite driver
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ObjectStorageConfig holds S3-compatible storage settings for CSV archives
type ObjectStorageConfig struct {
	Enabled         bool
	Endpoint        string // empty for AWS, set for MinIO/RustFS
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	ArchivePrefix   string
	PresignExpiry   time.Duration
	CreateBucket    bool // create the bucket on startup when missing
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // export traces over OTLP gRPC
	MetricsEnabled        bool    // export metrics over OTLP gRPC
	LogsEnabled           bool    // mirror zap logs to OTLP gRPC
	DBTraceEnabled        bool    // trace SQL statements of the gorm drivers
	CollectorEndpoint     string  // host:port of the OTLP collector
	SamplingRatio         float64 // 0.0 to 1.0
	ServiceName           string
	Insecure              bool
	MetricsExportInterval time.Duration
}

// InventoryConfig holds inventory store settings
type InventoryConfig struct {
	HospitalID        string // hospital whose schema the store runs with
	HospitalConfigDir string // extra hospital TOML files, overriding the bundled ones
	SampleSize        int    // assets generated when the repository is empty
	SeedBatchSize     int    // assets persisted per seeding batch
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MEDTRACK_ prefix (e.g., MEDTRACK_STORAGE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/medtrack")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}
	return load(v)
}

// LoadFile loads configuration from an explicit TOML file plus environment variables
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("storage.driver")),
			KeyPrefix:  v.GetString("storage.key_prefix"),
			SQLitePath: v.GetString("storage.sqlite_path"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		ObjectStorage: ObjectStorageConfig{
			Enabled:         v.GetBool("object_storage.enabled"),
			Endpoint:        v.GetString("object_storage.endpoint"),
			Region:          v.GetString("object_storage.region"),
			Bucket:          v.GetString("object_storage.bucket"),
			AccessKeyID:     v.GetString("object_storage.access_key_id"),
			SecretAccessKey: v.GetString("object_storage.secret_access_key"),
			UsePathStyle:    v.GetBool("object_storage.use_path_style"),
			ArchivePrefix:   v.GetString("object_storage.archive_prefix"),
			PresignExpiry:   v.GetDuration("object_storage.presign_expiry"),
			CreateBucket:    v.GetBool("object_storage.create_bucket"),
		},
		Inventory: InventoryConfig{
			HospitalID:        v.GetString("inventory.hospital_id"),
			HospitalConfigDir: v.GetString("inventory.hospital_config_dir"),
			SampleSize:        v.GetInt("inventory.sample_size"),
			SeedBatchSize:     v.GetInt("inventory.seed_batch_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:        v.GetBool("telemetry.db_trace_enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "medtrack"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "medtrack"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "medtrack.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "medtrack"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.ObjectStorage.Region == "" {
		cfg.ObjectStorage.Region = "us-east-1"
	}
	if cfg.ObjectStorage.ArchivePrefix == "" {
		cfg.ObjectStorage.ArchivePrefix = "exports"
	}
	if cfg.ObjectStorage.PresignExpiry == 0 {
		cfg.ObjectStorage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Inventory.HospitalID == "" {
		cfg.Inventory.HospitalID = DefaultHospitalID
	}
	if cfg.Inventory.SampleSize == 0 {
		cfg.Inventory.SampleSize = DefaultSampleSize
	}
	if cfg.Inventory.SeedBatchSize == 0 {
		cfg.Inventory.SeedBatchSize = DefaultSeedBatchSize
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "medtrack-inventory"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("storage.driver must be one of memory, sqlite, postgres, redis, got %q", c.Storage.Driver)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Inventory.SampleSize < 0 || c.Inventory.SampleSize > MaxSampleSize {
		return fmt.Errorf("inventory.sample_size must be between 0 and %d, got %d", MaxSampleSize, c.Inventory.SampleSize)
	}
	if c.Inventory.SeedBatchSize < 0 {
		return fmt.Errorf("inventory.seed_batch_size cannot be negative")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.ObjectStorage.Enabled {
		if c.ObjectStorage.Bucket == "" {
			return fmt.Errorf("object_storage.bucket is required when object storage is enabled")
		}
		if c.ObjectStorage.AccessKeyID == "" || c.ObjectStorage.SecretAccessKey == "" {
			return fmt.Errorf("object_storage credentials are required when object storage is enabled")
		}
	}

	if c.App.Env == "production" {
		if c.Storage.Driver == DriverMemory {
			return fmt.Errorf("storage.driver cannot be 'memory' in production")
		}
		if c.Storage.Driver == DriverPostgres {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
	}

	return nil
}

// DSN returns the postgres connection URL
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
