// Package archive persists workout records and the cumulative index as
// pretty-printed JSON files in the output directory.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wodarchive/wodcrawler/internal/wod"
)

// IndexFileName is the name of the cumulative index file.
const IndexFileName = "index.json"

// Store writes records and the index to disk. A single writer owns the
// output directory; there is no concurrent access.
type Store struct {
	root   string
	logger *zap.Logger
}

// New returns a Store rooted at dir, creating it if needed.
func New(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger}, nil
}

// RecordFileName is the fixed per-date file naming pattern.
func RecordFileName(dateCode string) string {
	return fmt.Sprintf("wod_%s.json", dateCode)
}

// SaveRecord writes one record file named by the record's date, replacing
// any previous file for that date. Saving is idempotent per date.
func (s *Store) SaveRecord(ctx context.Context, rec wod.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if rec.Date == "" {
		return "", fmt.Errorf("record has no date")
	}
	target := filepath.Join(s.root, RecordFileName(rec.Date))
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record %s: %w", rec.Date, err)
	}
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return "", fmt.Errorf("write record %s: %w", target, err)
	}
	s.logger.Info("saved workout record",
		zap.String("date", rec.Date),
		zap.String("path", target),
	)
	return target, nil
}

// WriteIndex rewrites the index file wholesale from the given snapshot.
func (s *Store) WriteIndex(ctx context.Context, idx wod.Index) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	target := filepath.Join(s.root, IndexFileName)
	payload, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write index %s: %w", target, err)
	}
	s.logger.Debug("updated index",
		zap.Int("total_workouts", idx.TotalWorkouts),
		zap.String("path", target),
	)
	return nil
}
