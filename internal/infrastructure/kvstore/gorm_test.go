package kvstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewGormStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func setupMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return NewGormStore(db), mock
}

func TestGormStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store := setupSQLiteStore(t)

	t.Run("missing key", func(t *testing.T) {
		value, ok, err := store.Get(ctx, "medtrack:assets")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "medtrack:assets", []byte(`[]`)))
		value, ok, err := store.Get(ctx, "medtrack:assets")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[]`, string(value))
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "medtrack:assets", []byte(`[{"id":"1"}]`)))
		value, _, err := store.Get(ctx, "medtrack:assets")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"1"}]`, string(value))

		var count int64
		require.NoError(t, store.db.Model(&Entry{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "medtrack:assets:riverside", []byte(`[1]`)))
		value, _, err := store.Get(ctx, "medtrack:assets")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"1"}]`, string(value))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "medtrack:assets"))
		require.NoError(t, store.Delete(ctx, "medtrack:assets"))
		_, ok, err := store.Get(ctx, "medtrack:assets")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGormStore_Postgres_Get(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"entry_key", "value", "updated_at"}).
		AddRow("medtrack:assets", []byte(`[]`), nil)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "kv_entries" WHERE entry_key = $1 LIMIT $2`)).
		WithArgs("medtrack:assets", 1).
		WillReturnRows(rows)

	value, ok, err := store.Get(context.Background(), "medtrack:assets")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(value))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Postgres_GetMissing(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "kv_entries" WHERE entry_key = $1 LIMIT $2`)).
		WithArgs("medtrack:assets", 1).
		WillReturnRows(sqlmock.NewRows([]string{"entry_key", "value", "updated_at"}))

	_, ok, err := store.Get(context.Background(), "medtrack:assets")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Postgres_GetError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "kv_entries"`)).
		WillReturnError(assert.AnError)

	_, ok, err := store.Get(context.Background(), "medtrack:assets")
	assert.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, ok)
}

func TestGormStore_Postgres_Delete(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "kv_entries" WHERE entry_key = $1`)).
		WithArgs("medtrack:assets").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "medtrack:assets"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Postgres_SetError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kv_entries"`)).
		WillReturnError(assert.AnError)

	err := store.Set(context.Background(), "medtrack:assets", []byte(`[]`))
	assert.ErrorIs(t, err, assert.AnError)
}
