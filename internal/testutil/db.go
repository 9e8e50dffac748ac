package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
)

// OpenDB opens an isolated in-memory SQLite database with the full schema
// applied. Each call gets its own database so parallel tests never share
// state.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// cache=shared keeps the database alive across pooled connections, but a
	// single connection avoids SQLite table-lock flakiness under transactions.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&models.Customer{},
		&models.Unit{},
		&models.Part{},
		&models.LaborService{},
		&models.Estimate{},
		&models.EstimateLine{},
		&models.Invoice{},
		&models.Setting{},
		&models.Sequence{},
	))

	return gdb
}

// TxRunner adapts a bare GORM connection to the transactional runner
// contract the services expect.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}
