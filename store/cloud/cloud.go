// Package cloud implements store.Store over a shared SQL database via GORM.
// Multi-record writes (session start, mission delete) run in transactions so
// a crash mid-sequence cannot leave a session with a partial step set.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// Store wraps a gorm DB handle. The handle is opened once at boot (MySQL in
// production; tests inject a sqlite dialector).
type Store struct {
	db *gorm.DB
}

// New wraps an already-opened gorm DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema for every record kind.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Mission{},
		&models.MissionStep{},
		&models.Group{},
		&models.GroupMember{},
		&models.Session{},
		&models.SessionStep{},
		&models.GroupDailyStatus{},
	)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return fmt.Errorf("cloud store: %w", err)
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID("u")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return wrap(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

// --- missions ---

func (s *Store) CreateMission(ctx context.Context, m *models.Mission) error {
	if m.ID == "" {
		m.ID = models.NewID("m")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return wrap(s.db.WithContext(ctx).Create(m).Error)
}

func (s *Store) GetMission(ctx context.Context, id string) (*models.Mission, error) {
	var m models.Mission
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *Store) ListMissionsByOwner(ctx context.Context, ownerID string) ([]models.Mission, error) {
	out := []models.Mission{}
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *Store) DeleteMission(ctx context.Context, id string) error {
	return wrap(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Mission{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// cascade delete step templates
		return tx.Delete(&models.MissionStep{}, "mission_id = ?", id).Error
	}))
}

// --- mission steps ---

func (s *Store) CreateMissionStep(ctx context.Context, st *models.MissionStep) error {
	if st.ID == "" {
		st.ID = models.NewID("ms")
	}
	return wrap(s.db.WithContext(ctx).Create(st).Error)
}

func (s *Store) ListMissionSteps(ctx context.Context, missionID string) ([]models.MissionStep, error) {
	out := []models.MissionStep{}
	err := s.db.WithContext(ctx).
		Where("mission_id = ?", missionID).
		Order("step_order ASC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *Store) DeleteMissionStep(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.MissionStep{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- groups ---

func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	if g.ID == "" {
		g.ID = models.NewID("g")
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	return wrap(s.db.WithContext(ctx).Create(g).Error)
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &g, nil
}

func (s *Store) ListGroupsByOwner(ctx context.Context, ownerID string) ([]models.Group, error) {
	out := []models.Group{}
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *Store) PutGroupMember(ctx context.Context, m *models.GroupMember) error {
	m.ID = models.MemberID(m.GroupID, m.UserID)
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	// upsert: re-joining refreshes joined_at instead of duplicating
	return wrap(s.db.WithContext(ctx).Save(m).Error)
}

func (s *Store) ListGroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	out := []models.GroupMember{}
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, sess *models.Session, steps []models.SessionStep) error {
	if sess.ID == "" {
		sess.ID = models.NewID("s")
	}
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = models.NewID("ss")
		}
		steps[i].SessionID = sess.ID
	}
	return wrap(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sess).Error; err != nil {
			return err
		}
		if len(steps) == 0 {
			return nil
		}
		return tx.Create(&steps).Error
	}))
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess *models.Session) error {
	res := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", sess.ID).
		Select("*").Omit("id").Updates(sess)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSessionsByUserAndDate(ctx context.Context, userID, date string) ([]models.Session, error) {
	out := []models.Session{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("started_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *Store) ListSessionsByGroupAndDate(ctx context.Context, groupID, date string) ([]models.Session, error) {
	out := []models.Session{}
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND date = ?", groupID, date).
		Order("started_at ASC").
		Find(&out).Error
	return out, wrap(err)
}

// --- session steps ---

func (s *Store) GetSessionStep(ctx context.Context, id string) (*models.SessionStep, error) {
	var st models.SessionStep
	if err := s.db.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &st, nil
}

func (s *Store) ListSessionSteps(ctx context.Context, sessionID string) ([]models.SessionStep, error) {
	out := []models.SessionStep{}
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("step_order ASC").
		Find(&out).Error
	return out, wrap(err)
}

func (s *Store) SaveSessionStep(ctx context.Context, st *models.SessionStep) error {
	res := s.db.WithContext(ctx).Model(&models.SessionStep{}).Where("id = ?", st.ID).
		Select("*").Omit("id").Updates(st)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- group daily status ---

func (s *Store) GetGroupDailyStatus(ctx context.Context, groupID, date string) (*models.GroupDailyStatus, error) {
	var st models.GroupDailyStatus
	id := models.DailyStatusID(groupID, date)
	if err := s.db.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &st, nil
}

func (s *Store) PutGroupDailyStatus(ctx context.Context, st *models.GroupDailyStatus) error {
	st.ID = models.DailyStatusID(st.GroupID, st.Date)
	return wrap(s.db.WithContext(ctx).Save(st).Error)
}

var _ store.Store = (*Store)(nil)
