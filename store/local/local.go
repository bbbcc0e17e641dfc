// Package local implements store.Store over plain JSON files, one per
// collection, for the single-device local-first mode. Every mutation persists
// synchronously with an atomic write, so a crash never leaves a torn file.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

const (
	fileUsers        = "users.json"
	fileMissions     = "missions.json"
	fileMissionSteps = "mission_steps.json"
	fileGroups       = "groups.json"
	fileGroupMembers = "group_members.json"
	fileSessions     = "sessions.json"
	fileSessionSteps = "session_steps.json"
	fileDailyStatus  = "group_daily_status.json"
	fileBackup       = "backup_latest.json"
)

// Store keeps every collection in memory and mirrors each mutation to disk.
// A single mutex serializes access; the read-modify-write sequences of the
// engine are therefore race-free against concurrent HTTP callers.
type Store struct {
	mu  sync.Mutex
	dir string

	users        []models.User
	missions     []models.Mission
	missionSteps []models.MissionStep
	groups       []models.Group
	groupMembers []models.GroupMember
	sessions     []models.Session
	sessionSteps []models.SessionStep
	dailyStatus  []models.GroupDailyStatus
}

// Open loads (or initializes) the store under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir}
	for _, c := range []struct {
		file string
		dst  any
	}{
		{fileUsers, &s.users},
		{fileMissions, &s.missions},
		{fileMissionSteps, &s.missionSteps},
		{fileGroups, &s.groups},
		{fileGroupMembers, &s.groupMembers},
		{fileSessions, &s.sessions},
		{fileSessionSteps, &s.sessionSteps},
		{fileDailyStatus, &s.dailyStatus},
	} {
		if err := s.loadFile(c.file, c.dst); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) loadFile(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (s *Store) saveFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, name), data, 0o644)
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = models.NewID("u")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users = append(s.users, *u)
	return s.saveFile(fileUsers, s.users)
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// --- missions ---

func (s *Store) CreateMission(_ context.Context, m *models.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = models.NewID("m")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.missions = append(s.missions, *m)
	return s.saveFile(fileMissions, s.missions)
}

func (s *Store) GetMission(_ context.Context, id string) (*models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.missions {
		if s.missions[i].ID == id {
			m := s.missions[i]
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListMissionsByOwner(_ context.Context, ownerID string) ([]models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Mission{}
	for _, m := range s.missions {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteMission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.missions[:0]
	found := false
	for _, m := range s.missions {
		if m.ID == id {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return store.ErrNotFound
	}
	s.missions = kept
	if err := s.saveFile(fileMissions, s.missions); err != nil {
		return err
	}
	// cascade delete step templates
	keptSteps := s.missionSteps[:0]
	for _, st := range s.missionSteps {
		if st.MissionID != id {
			keptSteps = append(keptSteps, st)
		}
	}
	s.missionSteps = keptSteps
	return s.saveFile(fileMissionSteps, s.missionSteps)
}

// --- mission steps ---

func (s *Store) CreateMissionStep(_ context.Context, st *models.MissionStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = models.NewID("ms")
	}
	s.missionSteps = append(s.missionSteps, *st)
	return s.saveFile(fileMissionSteps, s.missionSteps)
}

func (s *Store) ListMissionSteps(_ context.Context, missionID string) ([]models.MissionStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MissionStep{}
	for _, st := range s.missionSteps {
		if st.MissionID == missionID {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Store) DeleteMissionStep(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.missionSteps[:0]
	found := false
	for _, st := range s.missionSteps {
		if st.ID == id {
			found = true
			continue
		}
		kept = append(kept, st)
	}
	if !found {
		return store.ErrNotFound
	}
	s.missionSteps = kept
	return s.saveFile(fileMissionSteps, s.missionSteps)
}

// --- groups ---

func (s *Store) CreateGroup(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = models.NewID("g")
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	s.groups = append(s.groups, *g)
	return s.saveFile(fileGroups, s.groups)
}

func (s *Store) GetGroup(_ context.Context, id string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].ID == id {
			g := s.groups[i]
			return &g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListGroupsByOwner(_ context.Context, ownerID string) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Group{}
	for _, g := range s.groups {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PutGroupMember(_ context.Context, m *models.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = models.MemberID(m.GroupID, m.UserID)
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	replaced := false
	for i := range s.groupMembers {
		if s.groupMembers[i].ID == m.ID {
			s.groupMembers[i] = *m
			replaced = true
			break
		}
	}
	if !replaced {
		s.groupMembers = append(s.groupMembers, *m)
	}
	return s.saveFile(fileGroupMembers, s.groupMembers)
}

func (s *Store) ListGroupMembers(_ context.Context, groupID string) ([]models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.GroupMember{}
	for _, m := range s.groupMembers {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// --- sessions ---

func (s *Store) CreateSession(_ context.Context, sess *models.Session, steps []models.SessionStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == "" {
		sess.ID = models.NewID("s")
	}
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = models.NewID("ss")
		}
		steps[i].SessionID = sess.ID
	}

	prevSessions := len(s.sessions)
	prevSteps := len(s.sessionSteps)
	s.sessions = append(s.sessions, *sess)
	s.sessionSteps = append(s.sessionSteps, steps...)

	// Persist steps first, then the session row; on any failure roll the
	// in-memory state back so a partial snapshot is never observable.
	if err := s.saveFile(fileSessionSteps, s.sessionSteps); err != nil {
		s.sessions = s.sessions[:prevSessions]
		s.sessionSteps = s.sessionSteps[:prevSteps]
		return err
	}
	if err := s.saveFile(fileSessions, s.sessions); err != nil {
		s.sessions = s.sessions[:prevSessions]
		s.sessionSteps = s.sessionSteps[:prevSteps]
		_ = s.saveFile(fileSessionSteps, s.sessionSteps)
		return err
	}
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			sess := s.sessions[i]
			return &sess, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SaveSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sess.ID {
			s.sessions[i] = *sess
			return s.saveFile(fileSessions, s.sessions)
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListSessionsByUserAndDate(_ context.Context, userID, date string) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.Date == date {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *Store) ListSessionsByGroupAndDate(_ context.Context, groupID, date string) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Session{}
	for _, sess := range s.sessions {
		if sess.GroupID == groupID && sess.Date == date {
			out = append(out, sess)
		}
	}
	return out, nil
}

// --- session steps ---

func (s *Store) GetSessionStep(_ context.Context, id string) (*models.SessionStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessionSteps {
		if s.sessionSteps[i].ID == id {
			st := s.sessionSteps[i]
			return &st, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListSessionSteps(_ context.Context, sessionID string) ([]models.SessionStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SessionStep{}
	for _, st := range s.sessionSteps {
		if st.SessionID == sessionID {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Store) SaveSessionStep(_ context.Context, st *models.SessionStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessionSteps {
		if s.sessionSteps[i].ID == st.ID {
			s.sessionSteps[i] = *st
			return s.saveFile(fileSessionSteps, s.sessionSteps)
		}
	}
	return store.ErrNotFound
}

// --- group daily status ---

func (s *Store) GetGroupDailyStatus(_ context.Context, groupID, date string) (*models.GroupDailyStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := models.DailyStatusID(groupID, date)
	for i := range s.dailyStatus {
		if s.dailyStatus[i].ID == id {
			st := s.dailyStatus[i]
			return &st, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) PutGroupDailyStatus(_ context.Context, st *models.GroupDailyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = models.DailyStatusID(st.GroupID, st.Date)
	replaced := false
	for i := range s.dailyStatus {
		if s.dailyStatus[i].ID == st.ID {
			s.dailyStatus[i] = *st
			replaced = true
			break
		}
	}
	if !replaced {
		s.dailyStatus = append(s.dailyStatus, *st)
	}
	return s.saveFile(fileDailyStatus, s.dailyStatus)
}

var _ store.Store = (*Store)(nil)
var _ store.Exporter = (*Store)(nil)
