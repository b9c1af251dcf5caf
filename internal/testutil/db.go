// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMockDB returns a gorm postgres handle backed by sqlmock.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	silent := logger.New(log.New(io.Discard, "", log.LstdFlags), logger.Config{LogLevel: logger.Silent})
	dialector := postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"})

	db, err := gorm.Open(dialector, &gorm.Config{Logger: silent, TranslateError: true})
	require.NoError(t, err)
	return db, mock
}
