package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// BLEEventFalse is the wireless-tag bridge's "fake completion detected"
// event. Steps carrying it are rejected rather than completed.
const BLEEventFalse = "FALSE"

// Provenance describes how a step was verified by a device bridge.
type Provenance struct {
	BLETagID      string   `json:"ble_tag_id,omitempty"`
	BLEEvent      string   `json:"ble_event,omitempty"`
	BLEConfidence *float64 `json:"ble_confidence,omitempty"`
	DurationMS    *int64   `json:"duration_ms,omitempty"`
}

// Sessions is the state machine governing one attempt at a mission:
// in_progress until every snapshot step reports success, then completed,
// which is terminal and triggers group scoring.
type Sessions struct {
	store  store.Store
	scorer *Scorer
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewSessions builds the session engine. The scorer is invoked on the
// completion edge; its failures are logged, never surfaced.
func NewSessions(st store.Store, scorer *Scorer, log *zap.SugaredLogger) *Sessions {
	return &Sessions{store: st, scorer: scorer, log: log, now: time.Now}
}

// Start creates a session for today (local calendar day) and snapshot-copies
// the mission's step templates into session steps. Later edits to the mission
// never touch the created steps. Multiple sessions for the same
// user+mission+date are allowed; retrying is always a new session.
func (e *Sessions) Start(ctx context.Context, userID, missionID, groupID string) (string, error) {
	if _, err := e.store.GetMission(ctx, missionID); err != nil {
		return "", err
	}
	templates, err := e.store.ListMissionSteps(ctx, missionID)
	if err != nil {
		return "", err
	}

	now := e.now()
	sess := &models.Session{
		UserID:    userID,
		GroupID:   groupID,
		MissionID: missionID,
		Date:      models.LocalDate(now),
		Status:    models.SessionInProgress,
		StartedAt: now,
	}
	steps := make([]models.SessionStep, 0, len(templates))
	for _, t := range templates {
		steps = append(steps, models.SessionStep{
			MissionStepID: t.ID,
			Label:         t.Label,
			ActionType:    t.ActionType,
			ActionConfig:  t.ActionConfig,
			Order:         t.Order, // inherited verbatim
			StartedAt:     now,
			Result:        models.StepNotStarted,
		})
	}
	if err := e.store.CreateSession(ctx, sess, steps); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// Get resolves a session by id.
func (e *Sessions) Get(ctx context.Context, id string) (*models.Session, error) {
	return e.store.GetSession(ctx, id)
}

// Steps returns the session's steps by order ascending.
func (e *Sessions) Steps(ctx context.Context, sessionID string) ([]models.SessionStep, error) {
	return e.store.ListSessionSteps(ctx, sessionID)
}

// TodayByUser lists the user's sessions for the local calendar day.
func (e *Sessions) TodayByUser(ctx context.Context, userID string) ([]models.Session, error) {
	return e.store.ListSessionsByUserAndDate(ctx, userID, models.LocalDate(e.now()))
}

// TodayByGroup lists the group's sessions for the local calendar day.
func (e *Sessions) TodayByGroup(ctx context.Context, groupID string) ([]models.Session, error) {
	return e.store.ListSessionsByGroupAndDate(ctx, groupID, models.LocalDate(e.now()))
}

// CompleteStep marks a session step successful.
//
// Completing an already-successful step never re-mutates the step, but it
// still runs completion detection: if every step is success and the session
// is somehow still open (a concurrent completer, or a retry after the finish
// write failed), the call closes the session instead of leaving it stuck.
// The completed-status guard keeps scoring from ever running twice. The
// final step by order is gated: it is rejected with ErrOrderingViolation,
// mutating nothing, until every earlier step succeeded. When the session
// transitions to completed the group scorer runs; scoring errors do not fail
// the call.
func (e *Sessions) CompleteStep(ctx context.Context, stepID string, prov *Provenance) error {
	step, err := e.store.GetSessionStep(ctx, stepID)
	if err != nil {
		return err
	}

	if step.Result != models.StepSuccess {
		if prov != nil && prov.BLEEvent == BLEEventFalse {
			return ErrFakeCompletion
		}

		siblings, err := e.store.ListSessionSteps(ctx, step.SessionID)
		if err != nil {
			return err
		}
		maxOrder := step.Order
		for _, s := range siblings {
			if s.Order > maxOrder {
				maxOrder = s.Order
			}
		}
		if step.Order == maxOrder {
			for _, s := range siblings {
				if s.Order < step.Order && s.Result != models.StepSuccess {
					return ErrOrderingViolation
				}
			}
		}

		now := e.now()
		lap := now.Sub(step.StartedAt).Milliseconds()
		step.FinishedAt = &now
		step.Result = models.StepSuccess
		step.LapMS = &lap
		if prov != nil {
			step.BLETagID = prov.BLETagID
			step.BLEEvent = prov.BLEEvent
			step.BLEConfidence = prov.BLEConfidence
			step.DurationMS = prov.DurationMS
		}
		if err := e.store.SaveSessionStep(ctx, step); err != nil {
			return err
		}
	}

	// Completion detection re-reads the steps rather than trusting the
	// pre-save snapshot: steps sharing an order value can complete
	// concurrently, and each writer must see the other's committed result.
	steps, err := e.store.ListSessionSteps(ctx, step.SessionID)
	if err != nil {
		return err
	}
	for _, s := range steps {
		if s.Result != models.StepSuccess {
			return nil
		}
	}

	sess, err := e.store.GetSession(ctx, step.SessionID)
	if err != nil {
		return err
	}
	if sess.Status == models.SessionCompleted {
		return nil
	}
	fin := e.now()
	sess.Status = models.SessionCompleted
	sess.FinishedAt = &fin
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	// The step and session are committed; scoring failures are non-fatal.
	if err := e.scorer.ScoreSession(ctx, sess); err != nil {
		e.log.Warnw("group scoring failed after session completion",
			"session_id", sess.ID, "group_id", sess.GroupID, "error", err)
	}
	return nil
}
