// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/util"
)

const backupTimeLayout = "20060102-150405"

var backupNameRe = regexp.MustCompile(`^kpp-backup-\d{8}-\d{6}\.db$`)

// RestoredTables are replaced by a restore, parents before children.
// Append-only logs (audit, events, analytics) are left untouched.
var RestoredTables = []string{
	"users",
	"role_permissions",
	"pages",
	"projects",
	"content_versions",
	"media",
	"menus",
	"settings",
	"contact_messages",
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService writes consistent SQLite snapshots with VACUUM INTO and
// restores content tables from them.
type BackupService struct {
	db     *sql.DB
	dir    string
	keep   int
	caches *cache.Manager
	now    func() time.Time

	// mu serialises create, restore and prune so names stay unique and a
	// restore never races a scheduled snapshot.
	mu sync.Mutex
}

// NewBackupService creates a BackupService writing to dir. keep <= 0
// disables pruning.
func NewBackupService(db *sql.DB, dir string, keep int, cm *cache.Manager) *BackupService {
	return &BackupService{
		db:     db,
		dir:    dir,
		keep:   keep,
		caches: cm,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ValidBackupName reports whether name is a backup file name this service
// could have produced.
func ValidBackupName(name string) bool {
	return backupNameRe.MatchString(name)
}

// Create snapshots the live database.
func (s *BackupService) Create(ctx context.Context) (BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx)
}

func (s *BackupService) create(ctx context.Context) (BackupInfo, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return BackupInfo{}, fmt.Errorf("creating backup dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".kpp-backup-*.tmp")
	if err != nil {
		return BackupInfo{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	// VACUUM INTO accepts an existing empty file.
	if err := store.VacuumInto(ctx, s.db, tmpPath); err != nil {
		return BackupInfo{}, err
	}

	at := s.now().Truncate(time.Second)
	var final string
	for {
		final = filepath.Join(s.dir, "kpp-backup-"+at.Format(backupTimeLayout)+".db")
		if _, err := os.Stat(final); errors.Is(err, fs.ErrNotExist) {
			break
		}
		at = at.Add(time.Second)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		return BackupInfo{}, fmt.Errorf("finalising backup: %w", err)
	}

	info, err := os.Stat(final)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	b := BackupInfo{Name: filepath.Base(final), Size: info.Size(), CreatedAt: at}
	slog.Info("backup created", "name", b.Name, "size", b.Size)
	return b, nil
}

// List returns backups newest first.
func (s *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("reading backup dir: %w", err)
	}
	out := []BackupInfo{}
	for _, e := range entries {
		if e.IsDir() || !ValidBackupName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{Name: e.Name(), Size: info.Size(), CreatedAt: backupTime(e.Name(), info)})
	}
	// The timestamp is embedded in the name, so lexical order is time order.
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Get describes one backup.
func (s *BackupService) Get(name string) (BackupInfo, error) {
	p, err := s.Path(name)
	if err != nil {
		return BackupInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return BackupInfo{}, fmt.Errorf("backup %s: %w", name, ErrNotFound)
		}
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Name: name, Size: info.Size(), CreatedAt: backupTime(name, info)}, nil
}

// Path returns the absolute location of a validly named backup. It does not
// check that the file exists.
func (s *BackupService) Path(name string) (string, error) {
	if !ValidBackupName(name) {
		return "", invalid("name", "invalid backup name")
	}
	return util.SafeJoinPath(s.dir, name)
}

// Delete removes a backup file.
func (s *BackupService) Delete(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	p, _ := s.Path(name)
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("removing backup: %w", err)
	}
	slog.Info("backup deleted", "name", name)
	return nil
}

// Restore replaces the content tables with those in the named backup. A
// safety backup of the current state is written first and returned.
func (s *BackupService) Restore(ctx context.Context, name string) (BackupInfo, error) {
	if _, err := s.Get(name); err != nil {
		return BackupInfo{}, err
	}
	src, _ := s.Path(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	safety, err := s.create(ctx)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("safety backup: %w", err)
	}
	if err := store.RestoreTables(ctx, s.db, src, RestoredTables); err != nil {
		if errors.Is(err, store.ErrSchemaMismatch) {
			return safety, conflict("%v", err)
		}
		return safety, fmt.Errorf("restoring %s: %w", name, err)
	}
	if s.caches != nil {
		if err := s.caches.ClearAll(ctx); err != nil {
			slog.Warn("failed to clear cache after restore", "error", err)
		}
	}
	slog.Info("backup restored", "name", name, "safety_backup", safety.Name)
	return safety, nil
}

// Prune deletes the oldest backups beyond the keep count.
func (s *BackupService) Prune() (int, error) {
	if s.keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, b := range backups[min(s.keep, len(backups)):] {
		if err := os.Remove(filepath.Join(s.dir, b.Name)); err != nil {
			slog.Warn("failed to prune backup", "name", b.Name, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("old backups pruned", "removed", removed, "kept", s.keep)
	}
	return removed, nil
}

func backupTime(name string, info fs.FileInfo) time.Time {
	stamp := name[len("kpp-backup-") : len(name)-len(".db")]
	if t, err := time.Parse(backupTimeLayout, stamp); err == nil {
		return t
	}
	return info.ModTime().UTC()
}
