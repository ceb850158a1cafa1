package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meetmed/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")

	db := setupFileDB(t, filepath.Join(tempDir, "source.db"))
	seedDoctor(t, db, "backup@example.com")

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	logger := zerolog.Nop()
	s := NewBackupService(db, cfg, &logger)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	var backupPath string
	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "meetmed_20250601_120000.db", filepath.Base(path))
		backupPath = path

		copyDB, err := sql.Open("sqlite3", path)
		require.NoError(t, err)
		defer copyDB.Close()

		var count int
		require.NoError(t, copyDB.QueryRow(`SELECT COUNT(*) FROM doctors`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("SameSecondRefused", func(t *testing.T) {
		_, err := s.PerformBackup(context.Background())
		assert.Error(t, err)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "meetmed_20200101_000000.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		foreign := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

		oldTime := s.now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))
		// the fresh backup is dated in the future relative to the fixed clock's cutoff
		require.NoError(t, os.Chtimes(backupPath, s.now(), s.now()))

		assert.Equal(t, 1, s.CleanupOldBackups())

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		assert.ElementsMatch(t, []string{"meetmed_20250601_120000.db", "notes.txt"}, names)
	})
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(nil, config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { s.Start(ctx) })
}

func TestBackupService_Interval(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, 6*time.Hour, NewBackupService(nil, config.BackupConfig{Schedule: "6h"}, &logger).interval())
	assert.Equal(t, 24*time.Hour, NewBackupService(nil, config.BackupConfig{Schedule: "daily"}, &logger).interval())
	assert.Equal(t, 24*time.Hour, NewBackupService(nil, config.BackupConfig{}, &logger).interval())
}
