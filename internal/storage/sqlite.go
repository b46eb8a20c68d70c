package storage

import (
	_ "github.com/mattn/go-sqlite3"

	"tablet-checkout/internal/config"
)

type SQLiteProvider struct {
	SQLProvider
}

func NewSQLiteProvider(config *config.Storage) (provider *SQLiteProvider) {
	inner := NewSQLProvider(config, "sqlite3", config.SQLite.Path+"?_foreign_keys=on&_busy_timeout=5000")
	if inner == nil {
		return nil
	}
	return &SQLiteProvider{
		SQLProvider: *inner,
	}
}
