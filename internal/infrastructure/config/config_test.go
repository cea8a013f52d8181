package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"MEDTRACK_APP_ENV",
	"MEDTRACK_STORAGE_DRIVER",
	"MEDTRACK_STORAGE_KEY_PREFIX",
	"MEDTRACK_DATABASE_HOST",
	"MEDTRACK_DATABASE_PASSWORD",
	"MEDTRACK_DATABASE_SSLMODE",
	"MEDTRACK_DATABASE_MAX_OPEN_CONNS",
	"MEDTRACK_DATABASE_MAX_IDLE_CONNS",
	"MEDTRACK_INVENTORY_SAMPLE_SIZE",
	"MEDTRACK_INVENTORY_HOSPITAL_ID",
	"MEDTRACK_OBJECT_STORAGE_ENABLED",
	"MEDTRACK_OBJECT_STORAGE_BUCKET",
	"MEDTRACK_TELEMETRY_SAMPLING_RATIO",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "medtrack", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "medtrack", cfg.Storage.KeyPrefix)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, DefaultHospitalID, cfg.Inventory.HospitalID)
		assert.Equal(t, DefaultSampleSize, cfg.Inventory.SampleSize)
		assert.Equal(t, DefaultSeedBatchSize, cfg.Inventory.SeedBatchSize)
		assert.Equal(t, 15*time.Minute, cfg.ObjectStorage.PresignExpiry)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "medtrack-inventory", cfg.Telemetry.ServiceName)
		assert.Equal(t, time.Minute, cfg.Telemetry.MetricsExportInterval)
	})

	t.Run("loads values from environment variables with MEDTRACK prefix", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_STORAGE_DRIVER", "Redis")
		t.Setenv("MEDTRACK_STORAGE_KEY_PREFIX", "ward7")
		t.Setenv("MEDTRACK_INVENTORY_SAMPLE_SIZE", "40")
		t.Setenv("MEDTRACK_INVENTORY_HOSPITAL_ID", "riverside")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverRedis, cfg.Storage.Driver)
		assert.Equal(t, "ward7", cfg.Storage.KeyPrefix)
		assert.Equal(t, 40, cfg.Inventory.SampleSize)
		assert.Equal(t, "riverside", cfg.Inventory.HospitalID)
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_STORAGE_DRIVER", "localstorage")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver")
	})

	t.Run("rejects oversized sample", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_INVENTORY_SAMPLE_SIZE", "101")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inventory.sample_size")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_DATABASE_MAX_OPEN_CONNS", "2")
		t.Setenv("MEDTRACK_DATABASE_MAX_IDLE_CONNS", "5")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_TELEMETRY_SAMPLING_RATIO", "1.5")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("object storage requires a bucket", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_OBJECT_STORAGE_ENABLED", "true")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object_storage.bucket")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("memory driver is rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_APP_ENV", "production")
		t.Setenv("MEDTRACK_STORAGE_DRIVER", "memory")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be 'memory' in production")
	})

	t.Run("postgres needs a password and ssl", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("MEDTRACK_APP_ENV", "production")
		t.Setenv("MEDTRACK_STORAGE_DRIVER", "postgres")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")

		t.Setenv("MEDTRACK_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")

		t.Setenv("MEDTRACK_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "medtrack.toml")
	content := `
[storage]
driver = "memory"

[inventory]
hospital_id = "riverside"
seed_batch_size = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "riverside", cfg.Inventory.HospitalID)
	assert.Equal(t, 5, cfg.Inventory.SeedBatchSize)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := &DatabaseConfig{Host: "localhost", Port: 5432, User: "testuser", Password: "testpass", DBName: "testdb", SSLMode: "disable"}
		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := &DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
