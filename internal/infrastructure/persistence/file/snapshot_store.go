// Package file implements the snapshot repository on top of per-account JSON
// files. This is the default backend: one file per account key under the
// state directory, overwritten whole on every save.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/internal/domain/shared"
	"github.com/librus-hub/librus-notify/pkg/logger"
)

// Compile-time interface check.
var _ librus.SnapshotRepository = (*SnapshotStore)(nil)

// SnapshotStore persists account snapshots as JSON files.
type SnapshotStore struct {
	dir string
	log *logger.Logger
}

// NewSnapshotStore creates the store and ensures the state directory exists.
func NewSnapshotStore(dir string, log *logger.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, shared.WrapError("snapshot", "Init", shared.ErrExternalService,
			"failed to create state directory", err)
	}
	return &SnapshotStore{dir: dir, log: log}, nil
}

func (s *SnapshotStore) path(accountKey string) string {
	// Account keys are portal usernames; keep anything path-hostile out of
	// the filename.
	safe := filepath.Base(accountKey)
	return filepath.Join(s.dir, safe+".json")
}

// Load reads the snapshot for an account. A missing file means first run and
// a corrupt file means lost history; both return the empty snapshot so the
// next diff treats current state as new instead of aborting.
func (s *SnapshotStore) Load(ctx context.Context, accountKey string) (*librus.AccountSnapshot, error) {
	data, err := os.ReadFile(s.path(accountKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no previous snapshot, starting fresh", logger.Account(accountKey))
			return librus.EmptySnapshot(), nil
		}
		s.log.Warn("failed to read snapshot, starting fresh",
			logger.Account(accountKey), logger.Err(err))
		return librus.EmptySnapshot(), nil
	}

	var snapshot librus.AccountSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.log.Warn("snapshot file corrupted, starting fresh",
			logger.Account(accountKey), logger.Err(err))
		return librus.EmptySnapshot(), nil
	}

	normalize(&snapshot)
	return &snapshot, nil
}

// Save overwrites the account's snapshot file. The write goes through a temp
// file in the same directory plus rename, so a crash mid-write leaves the
// previous snapshot intact rather than a truncated file.
func (s *SnapshotStore) Save(ctx context.Context, accountKey string, snapshot *librus.AccountSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			"failed to encode snapshot", err)
	}

	target := s.path(accountKey)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			"failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			"failed to write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			"failed to close temp file", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			fmt.Sprintf("failed to replace %s", filepath.Base(target)), err)
	}

	return nil
}

// normalize replaces nil category slices with empty ones so that diffing and
// re-serialization see the same shape regardless of what was on disk.
func normalize(s *librus.AccountSnapshot) {
	if s.Grades == nil {
		s.Grades = []librus.Grade{}
	}
	if s.Messages == nil {
		s.Messages = []librus.Message{}
	}
	if s.Announcements == nil {
		s.Announcements = []librus.Announcement{}
	}
	if s.Schedule == nil {
		s.Schedule = []librus.ScheduleEntry{}
	}
	if s.Attendance == nil {
		s.Attendance = []librus.AttendanceRecord{}
	}
}
