package local

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// Export returns a snapshot of the seven collections. Records are copied;
// ids are carried as stored, never regenerated.
func (s *Store) Export(_ context.Context) (*store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// Empty collections export as empty arrays, never null: every key is always
// present in the wire shape.
func (s *Store) snapshotLocked() *store.Snapshot {
	snap := &store.Snapshot{
		Missions:         []models.Mission{},
		MissionSteps:     []models.MissionStep{},
		Groups:           []models.Group{},
		GroupMembers:     []models.GroupMember{},
		Sessions:         []models.Session{},
		SessionSteps:     []models.SessionStep{},
		GroupDailyStatus: []models.GroupDailyStatus{},
	}
	snap.Missions = append(snap.Missions, s.missions...)
	snap.MissionSteps = append(snap.MissionSteps, s.missionSteps...)
	snap.Groups = append(snap.Groups, s.groups...)
	snap.GroupMembers = append(snap.GroupMembers, s.groupMembers...)
	snap.Sessions = append(snap.Sessions, s.sessions...)
	snap.SessionSteps = append(snap.SessionSteps, s.sessionSteps...)
	snap.GroupDailyStatus = append(snap.GroupDailyStatus, s.dailyStatus...)
	return snap
}

// Import overwrites only the collections present in the input (a nil slice
// means the key was absent) and leaves the rest untouched.
func (s *Store) Import(_ context.Context, snap *store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type target struct {
		file    string
		present bool
		apply   func()
	}
	targets := []target{
		{fileMissions, snap.Missions != nil, func() { s.missions = snap.Missions }},
		{fileMissionSteps, snap.MissionSteps != nil, func() { s.missionSteps = snap.MissionSteps }},
		{fileGroups, snap.Groups != nil, func() { s.groups = snap.Groups }},
		{fileGroupMembers, snap.GroupMembers != nil, func() { s.groupMembers = snap.GroupMembers }},
		{fileSessions, snap.Sessions != nil, func() { s.sessions = snap.Sessions }},
		{fileSessionSteps, snap.SessionSteps != nil, func() { s.sessionSteps = snap.SessionSteps }},
		{fileDailyStatus, snap.GroupDailyStatus != nil, func() { s.dailyStatus = snap.GroupDailyStatus }},
	}
	for _, t := range targets {
		if !t.present {
			continue
		}
		t.apply()
	}
	for _, t := range targets {
		if !t.present {
			continue
		}
		var v any
		switch t.file {
		case fileMissions:
			v = s.missions
		case fileMissionSteps:
			v = s.missionSteps
		case fileGroups:
			v = s.groups
		case fileGroupMembers:
			v = s.groupMembers
		case fileSessions:
			v = s.sessions
		case fileSessionSteps:
			v = s.sessionSteps
		case fileDailyStatus:
			v = s.dailyStatus
		}
		if err := s.saveFile(t.file, v); err != nil {
			return err
		}
	}
	return nil
}

// SaveBackup snapshots every collection under the single backup key,
// replacing any previous backup.
func (s *Store) SaveBackup(_ context.Context) (*store.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &store.Backup{
		CreatedAt: time.Now().UnixMilli(),
		Snap:      *s.snapshotLocked(),
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, fileBackup), data, 0o644); err != nil {
		return nil, err
	}
	return b, nil
}

// LatestBackup returns the stored backup, or ErrNotFound when none exists.
func (s *Store) LatestBackup(_ context.Context) (*store.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, fileBackup))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var b store.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
