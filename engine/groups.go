package engine

import (
	"context"
	"sort"
	"time"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// Groups manages group membership and read views over group scoring output.
type Groups struct {
	store store.Store
	now   func() time.Time
}

// NewGroups creates the group service.
func NewGroups(st store.Store) *Groups {
	return &Groups{store: st, now: time.Now}
}

// Create stores a new group and auto-joins the creator. Mode is immutable
// after creation.
func (g *Groups) Create(ctx context.Context, ownerID, name, mode string) (string, error) {
	if mode != models.ModeRace && mode != models.ModeAll {
		return "", ErrInvalidMode
	}
	grp := &models.Group{Name: name, Mode: mode, OwnerID: ownerID}
	if err := g.store.CreateGroup(ctx, grp); err != nil {
		return "", err
	}
	if err := g.store.PutGroupMember(ctx, &models.GroupMember{GroupID: grp.ID, UserID: ownerID}); err != nil {
		return "", err
	}
	return grp.ID, nil
}

// Get resolves a group by id.
func (g *Groups) Get(ctx context.Context, id string) (*models.Group, error) {
	return g.store.GetGroup(ctx, id)
}

// Join adds the user to the group; re-joining refreshes joined_at.
func (g *Groups) Join(ctx context.Context, userID, groupID string) error {
	if _, err := g.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return g.store.PutGroupMember(ctx, &models.GroupMember{GroupID: groupID, UserID: userID})
}

// Members lists the group's members by join time.
func (g *Groups) Members(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	if _, err := g.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return g.store.ListGroupMembers(ctx, groupID)
}

// DailyStatus returns the ALL-mode status row for the date (today when date
// is empty), or nil data when no scoring pass has run yet.
func (g *Groups) DailyStatus(ctx context.Context, groupID, date string) (*models.GroupDailyStatus, error) {
	if date == "" {
		date = models.LocalDate(g.now())
	}
	return g.store.GetGroupDailyStatus(ctx, groupID, date)
}

// LeaderboardEntry is one row of the group's daily finish board.
type LeaderboardEntry struct {
	UserID     string     `json:"user_id"`
	SessionID  string     `json:"session_id"`
	Status     string     `json:"status"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Rank       *int       `json:"rank,omitempty"`
}

// TodayLeaderboard returns the group's sessions for today, finishers first by
// finish time, then the still-in-progress by start order.
func (g *Groups) TodayLeaderboard(ctx context.Context, groupID string) ([]LeaderboardEntry, error) {
	if _, err := g.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	sessions, err := g.store.ListSessionsByGroupAndDate(ctx, groupID, models.LocalDate(g.now()))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if (a.FinishedAt != nil) != (b.FinishedAt != nil) {
			return a.FinishedAt != nil
		}
		if a.FinishedAt != nil && b.FinishedAt != nil {
			return a.FinishedAt.Before(*b.FinishedAt)
		}
		return a.StartedAt.Before(b.StartedAt)
	})
	out := make([]LeaderboardEntry, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, LeaderboardEntry{
			UserID:     s.UserID,
			SessionID:  s.ID,
			Status:     s.Status,
			FinishedAt: s.FinishedAt,
			Rank:       s.Rank,
		})
	}
	return out, nil
}
