package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// CacheInvalidator drops cached group views after a scoring write. A nil
// invalidator disables caching concerns entirely.
type CacheInvalidator interface {
	InvalidateByPrefix(prefix string)
}

// Scorer computes RACE ranks and ALL-mode daily status when a session
// transitions to completed.
type Scorer struct {
	store store.Store
	cache CacheInvalidator
	log   *zap.SugaredLogger
}

// NewScorer builds a scorer; cache may be nil.
func NewScorer(st store.Store, cache CacheInvalidator, log *zap.SugaredLogger) *Scorer {
	return &Scorer{store: st, cache: cache, log: log}
}

// ScoreSession scores the group of a just-completed session. Sessions without
// a group, and groups that no longer resolve, are a no-op rather than an
// error: by the time scoring runs the completion is already committed.
func (s *Scorer) ScoreSession(ctx context.Context, sess *models.Session) error {
	if sess.GroupID == "" {
		return nil
	}
	group, err := s.store.GetGroup(ctx, sess.GroupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	switch group.Mode {
	case models.ModeRace:
		err = s.scoreRace(ctx, group, sess)
	case models.ModeAll:
		err = s.scoreAll(ctx, group, sess)
	default:
		s.log.Warnw("group has unknown mode, skipping scoring", "group_id", group.ID, "mode", group.Mode)
		return nil
	}
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateByPrefix("cache:group:" + group.ID + ":")
	}
	return nil
}

// scoreRace assigns the triggering session its 1-based finish position among
// the group's completed sessions for the date. Ranks are assigned at
// computation time; a later finisher never rewrites earlier ranks. Sessions
// with equal finished_at keep store read order (stable sort).
func (s *Scorer) scoreRace(ctx context.Context, group *models.Group, sess *models.Session) error {
	sessions, err := s.store.ListSessionsByGroupAndDate(ctx, group.ID, sess.Date)
	if err != nil {
		return err
	}
	completed := sessions[:0:0]
	for _, c := range sessions {
		if c.Status == models.SessionCompleted && c.FinishedAt != nil {
			completed = append(completed, c)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].FinishedAt.Before(*completed[j].FinishedAt)
	})
	for i, c := range completed {
		if c.ID == sess.ID {
			rank := i + 1
			sess.Rank = &rank
			return s.store.SaveSession(ctx, sess)
		}
	}
	return nil
}

// scoreAll recomputes the group's daily status row. The streak is seeded from
// the previous calendar day's record (continuing only when yesterday was all
// cleared), which keeps the computation deterministic and idempotent within a
// day.
func (s *Scorer) scoreAll(ctx context.Context, group *models.Group, sess *models.Session) error {
	members, err := s.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return err
	}
	sessions, err := s.store.ListSessionsByGroupAndDate(ctx, group.ID, sess.Date)
	if err != nil {
		return err
	}

	cleared := map[string]bool{}
	clearedList := []string{}
	for _, c := range sessions {
		if c.Status == models.SessionCompleted && !cleared[c.UserID] {
			cleared[c.UserID] = true
			clearedList = append(clearedList, c.UserID)
		}
	}
	allCleared := len(members) > 0
	for _, m := range members {
		if !cleared[m.UserID] {
			allCleared = false
			break
		}
	}

	streak := 0
	if allCleared {
		streak = 1
		if prev, err := s.store.GetGroupDailyStatus(ctx, group.ID, previousDay(sess.Date)); err == nil && prev.AllCleared {
			streak = prev.ClearStreak + 1
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	return s.store.PutGroupDailyStatus(ctx, &models.GroupDailyStatus{
		GroupID:         group.ID,
		Date:            sess.Date,
		AllCleared:      allCleared,
		ClearedMembers:  clearedList,
		LastClearMember: sess.UserID,
		ClearStreak:     streak,
	})
}

func previousDay(date string) string {
	t, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(models.DateLayout)
}
