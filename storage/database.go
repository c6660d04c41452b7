package storage

import (
	"fmt"
)

// DatabaseType identifies a supported relational database
type DatabaseType string

const (
	// MySQL database
	MySQL DatabaseType = "mysql"
	// PostgreSQL database
	PostgreSQL DatabaseType = "postgresql"
)

// DatabaseStorage is a Backend backed by a relational database
type DatabaseStorage interface {
	Backend
	// InitDatabase creates the schema if it does not exist
	InitDatabase() error
}

// NewDatabaseStorage creates a database backend for the given type
func NewDatabaseStorage(dbType string, dsn string) (DatabaseStorage, error) {
	switch DatabaseType(dbType) {
	case MySQL:
		return NewMySQLStorage(dsn)
	case PostgreSQL:
		return NewPostgreSQLStorage(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
