package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/transformer"
)

// MySQLStorage represents the MySQL storage backend
type MySQLStorage struct {
	db       *sql.DB
	dsn      string
	database string
}

// NewMySQLStorage creates a new MySQL backend, creating the target database
// and schema when they do not exist
func NewMySQLStorage(dsn string) (*MySQLStorage, error) {
	database, serverDSN, err := parseMySQLDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %v", err)
	}

	// Connect to the server first, without selecting the target database
	serverDB, err := sql.Open("mysql", serverDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL server: %v", err)
	}
	defer serverDB.Close()

	_, err = serverDB.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", database))
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL connection test failed: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	storage := &MySQLStorage{
		db:       db,
		dsn:      dsn,
		database: database,
	}

	if err := storage.InitDatabase(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize MySQL schema: %v", err)
	}

	logger.Info("MySQL storage initialized")
	return storage, nil
}

// parseMySQLDSN extracts the database name and a server-only DSN from a
// connection string of the form user:pass@tcp(host:port)/dbname?params
func parseMySQLDSN(dsn string) (database string, serverDSN string, err error) {
	parts := strings.Split(dsn, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid DSN, cannot extract database name")
	}

	dbParts := strings.Split(parts[len(parts)-1], "?")
	database = dbParts[0]
	if database == "" {
		return "", "", fmt.Errorf("invalid DSN, cannot extract database name")
	}

	serverDSN = strings.Join(parts[:len(parts)-1], "/") + "/"
	if len(dbParts) > 1 {
		serverDSN += "?" + dbParts[1]
	}

	return database, serverDSN, nil
}

// InitDatabase creates the weather_data table and its indexes
func (ms *MySQLStorage) InitDatabase() error {
	tableSQL := `
	CREATE TABLE IF NOT EXISTS weather_data (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		device_id VARCHAR(255) NOT NULL,
		recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		temperature DECIMAL(5,2) NOT NULL,
		pressure DECIMAL(6,2) NOT NULL,
		humidity DECIMAL(5,2) NOT NULL,
		raw_data JSON NOT NULL,
		INDEX idx_weather_recorded_at (recorded_at),
		INDEX idx_weather_recorded_at_temperature (recorded_at, temperature)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := ms.db.Exec(tableSQL); err != nil {
		return fmt.Errorf("failed to create weather_data table: %v", err)
	}

	logger.Info("MySQL schema initialized")
	return nil
}

// Store inserts a record into the weather_data table
func (ms *MySQLStorage) Store(ctx context.Context, deviceID string, record *transformer.Record) error {
	insertSQL := `INSERT INTO weather_data (device_id, temperature, pressure, humidity, raw_data) VALUES (?, ?, ?, ?, ?)`

	_, err := ms.db.ExecContext(ctx, insertSQL,
		deviceID,
		record.Temperature.StringFixed(2),
		record.Pressure.StringFixed(2),
		record.Humidity.StringFixed(2),
		[]byte(record.RawData),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %v", err)
	}

	logger.Debug("stored record from device %s in MySQL", deviceID)
	return nil
}

// Close closes the database connection
func (ms *MySQLStorage) Close() error {
	if ms.db != nil {
		if err := ms.db.Close(); err != nil {
			return fmt.Errorf("failed to close MySQL connection: %v", err)
		}
		logger.Info("MySQL connection closed")
	}
	return nil
}
