package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/transformer"
)

// FileStorage writes records as JSON files, one directory per device.
// Intended for offline debugging and air-gapped setups.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file backend
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %v", basePath, err)
	}

	logger.Info("file storage initialized: %s", basePath)
	return &FileStorage{
		basePath: basePath,
	}, nil
}

// Store writes a record to <base>/<device_id>/<timestamp>.json
func (fs *FileStorage) Store(ctx context.Context, deviceID string, record *transformer.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deviceDir := filepath.Join(fs.basePath, deviceID)
	if err := os.MkdirAll(deviceDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", deviceDir, err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	filename := filepath.Join(deviceDir, fmt.Sprintf("%s.json", timestamp))

	jsonData, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %v", err)
	}

	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %v", filename, err)
	}

	logger.Debug("stored record to file: %s", filename)
	return nil
}

// Close implements Backend
func (fs *FileStorage) Close() error {
	return nil
}
