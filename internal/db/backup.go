package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const backupPrefix = "clinicgrid_"

// Backup writes a consistent snapshot of the database to dir and returns
// its path.
func (db *DB) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	dest := filepath.Join(dir, backupPrefix+time.Now().Format("20060102_150405")+".db")
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return "", fmt.Errorf("backup to %s: %w", dest, err)
	}
	return dest, nil
}

// CleanupBackups removes backups in dir older than retentionDays and
// returns how many were deleted.
func CleanupBackups(dir string, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// BackupLoop snapshots the database every interval until ctx is done.
type BackupLoop struct {
	db            *DB
	dir           string
	interval      time.Duration
	retentionDays int
	logger        *zerolog.Logger
}

func NewBackupLoop(db *DB, dir string, interval time.Duration, retentionDays int, logger *zerolog.Logger) *BackupLoop {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &BackupLoop{db: db, dir: dir, interval: interval, retentionDays: retentionDays, logger: logger}
}

func (b *BackupLoop) Run(ctx context.Context) {
	b.logger.Info().Dur("interval", b.interval).Str("dir", b.dir).Msg("backup loop started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runOnce(ctx)
		}
	}
}

func (b *BackupLoop) runOnce(ctx context.Context) {
	path, err := b.db.Backup(ctx, b.dir)
	if err != nil {
		b.logger.Error().Err(err).Msg("database backup failed")
		return
	}
	b.logger.Info().Str("path", path).Msg("database backup completed")

	removed, err := CleanupBackups(b.dir, b.retentionDays, time.Now())
	if err != nil {
		b.logger.Error().Err(err).Msg("backup cleanup failed")
		return
	}
	if removed > 0 {
		b.logger.Info().Int("removed", removed).Msg("old backups deleted")
	}
}
