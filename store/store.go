// Package store defines the backend-agnostic persistence interface over the
// record kinds of the application. Two implementations exist: a file-backed
// local store and a MySQL-backed cloud store. The backend is selected once at
// boot and injected; callers never branch on the variant.
package store

import (
	"context"
	"errors"

	"github.com/mzlab/mzwake/models"
)

// ErrNotFound is returned when a referenced id does not exist. Both backends
// return it unwrapped so callers can test with errors.Is.
var ErrNotFound = errors.New("record not found")

// Store is the full capability set over the record kinds. Create methods fill
// in a generated id (and created-at where zero) on the passed record. List
// methods return an empty slice, never an error, when nothing matches.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Missions are listed newest first. Deleting a mission cascades to its
	// step templates.
	CreateMission(ctx context.Context, m *models.Mission) error
	GetMission(ctx context.Context, id string) (*models.Mission, error)
	ListMissionsByOwner(ctx context.Context, ownerID string) ([]models.Mission, error)
	DeleteMission(ctx context.Context, id string) error

	// Mission steps are listed by order ascending.
	CreateMissionStep(ctx context.Context, s *models.MissionStep) error
	ListMissionSteps(ctx context.Context, missionID string) ([]models.MissionStep, error)
	DeleteMissionStep(ctx context.Context, id string) error

	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsByOwner(ctx context.Context, ownerID string) ([]models.Group, error)
	// PutGroupMember upserts on the composite membership id.
	PutGroupMember(ctx context.Context, m *models.GroupMember) error
	ListGroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)

	// CreateSession stores the session and its snapshot steps as one logical
	// write: either all rows land or none do.
	CreateSession(ctx context.Context, s *models.Session, steps []models.SessionStep) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error
	ListSessionsByUserAndDate(ctx context.Context, userID, date string) ([]models.Session, error)
	ListSessionsByGroupAndDate(ctx context.Context, groupID, date string) ([]models.Session, error)

	// Session steps are listed by order ascending.
	GetSessionStep(ctx context.Context, id string) (*models.SessionStep, error)
	ListSessionSteps(ctx context.Context, sessionID string) ([]models.SessionStep, error)
	SaveSessionStep(ctx context.Context, s *models.SessionStep) error

	GetGroupDailyStatus(ctx context.Context, groupID, date string) (*models.GroupDailyStatus, error)
	PutGroupDailyStatus(ctx context.Context, st *models.GroupDailyStatus) error
}

// Snapshot is the export wire shape: one JSON object with exactly the seven
// collection keys. A nil slice means the key was absent from the input, which
// import treats as "leave untouched"; an empty array overwrites.
type Snapshot struct {
	Missions         []models.Mission          `json:"missions"`
	MissionSteps     []models.MissionStep      `json:"mission_steps"`
	Groups           []models.Group            `json:"groups"`
	GroupMembers     []models.GroupMember      `json:"group_members"`
	Sessions         []models.Session          `json:"sessions"`
	SessionSteps     []models.SessionStep      `json:"session_steps"`
	GroupDailyStatus []models.GroupDailyStatus `json:"group_daily_status"`
}

// Backup wraps a snapshot with its creation time (epoch milliseconds),
// stored latest-only under a single well-known key.
type Backup struct {
	CreatedAt int64    `json:"created_at"`
	Snap      Snapshot `json:"snap"`
}

// Exporter is the bulk transfer capability of the local backend.
type Exporter interface {
	Export(ctx context.Context) (*Snapshot, error)
	Import(ctx context.Context, snap *Snapshot) error
	SaveBackup(ctx context.Context) (*Backup, error)
	LatestBackup(ctx context.Context) (*Backup, error)
}
