package storage

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LogStorage discards snapshots after logging their size.
type LogStorage struct{}

func NewLogStorage() *LogStorage {
	return &LogStorage{}
}

func (s *LogStorage) Save(path string, file io.Reader) error {
	n, err := io.Copy(io.Discard, file)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	slog.Info("goal snapshot taken", "path", path, "bytes", n)
	return nil
}

// SnapshotPath returns a unique object key for a snapshot taken at t.
func SnapshotPath(t time.Time) string {
	return fmt.Sprintf("snapshots/goals-%s-%s.json", t.UTC().Format("20060102T150405Z"), uuid.New().String())
}
