package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	backupPrefix     = "iptv-channels-"
	backupSuffix     = ".json"
	backupTimeLayout = "20060102T150405Z"
)

// BackupService writes the export document of the catalog to timestamped
// files and keeps only the most recent ones.
type BackupService struct {
	catalog *CatalogService
	dir     string
	keep    int
	logger  *slog.Logger
	now     func() time.Time
	cron    *cron.Cron
}

// NewBackupService creates a BackupService writing into dir and keeping at
// most keep snapshots.
func NewBackupService(catalog *CatalogService, dir string, keep int, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{
		catalog: catalog,
		dir:     dir,
		keep:    keep,
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot writes the current catalog and prunes old snapshots.
// It returns the path of the new file.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	doc, err := s.catalog.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("exporting catalog: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	name := backupPrefix + s.now().UTC().Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("renaming backup file: %w", err)
	}

	if err := s.prune(); err != nil {
		s.logger.Warn("failed to prune old backups", "dir", s.dir, "error", err)
	}

	s.logger.Info("catalog backup written", "path", path)
	return path, nil
}

// Backups lists snapshot file names, oldest first.
func (s *BackupService) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			names = append(names, name)
		}
	}
	// The timestamp layout sorts lexically.
	sort.Strings(names)
	return names, nil
}

func (s *BackupService) prune() error {
	if s.keep <= 0 {
		return nil
	}

	names, err := s.Backups()
	if err != nil {
		return err
	}
	for len(names) > s.keep {
		if err := os.Remove(filepath.Join(s.dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}

// Start schedules snapshots with a standard cron expression.
func (s *BackupService) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Snapshot(context.Background()); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("catalog backups scheduled", "schedule", schedule, "dir", s.dir, "keep", s.keep)
	return nil
}

// Stop stops the scheduler and waits for a running snapshot to finish.
func (s *BackupService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
