package models

import "time"

// Session status and step result values. Both transitions are one-way.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"

	StepNotStarted = "not_started"
	StepSuccess    = "success"
)

// DateLayout is the local-calendar-day key used on sessions and daily status.
const DateLayout = "2006-01-02"

// LocalDate formats t as the local calendar day.
func LocalDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// Session is one dated attempt at a mission by one user. Retrying a mission
// creates a new session; completed is terminal.
type Session struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	UserID     string     `gorm:"index;size:64;not null" json:"user_id"`
	GroupID    string     `gorm:"index;size:64" json:"group_id,omitempty"`
	MissionID  string     `gorm:"index;size:64;not null" json:"mission_id"`
	Date       string     `gorm:"size:10;index" json:"date"`
	Status     string     `gorm:"size:16;not null" json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Rank       *int       `json:"rank,omitempty"` // RACE mode only
}

// SessionStep is the per-session snapshot of a mission step, with its own
// completion state and optional provenance of how it was verified.
type SessionStep struct {
	ID            string         `gorm:"primaryKey;size:64" json:"id"`
	SessionID     string         `gorm:"index;size:64;not null" json:"session_id"`
	MissionStepID string         `gorm:"size:64" json:"mission_step_id"`
	Label         string         `gorm:"size:255" json:"label"`
	ActionType    string         `gorm:"size:16" json:"action_type"`
	ActionConfig  map[string]any `gorm:"serializer:json" json:"action_config"`
	Order         int            `gorm:"column:step_order;not null" json:"order"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
	Result        string         `gorm:"size:16;default:'not_started'" json:"result"`
	LapMS         *int64         `json:"lap_ms,omitempty"`
	BLETagID      string         `gorm:"size:64" json:"ble_tag_id,omitempty"`
	BLEEvent      string         `gorm:"size:32" json:"ble_event,omitempty"`
	BLEConfidence *float64       `json:"ble_confidence,omitempty"`
	DurationMS    *int64         `json:"duration_ms,omitempty"`
}
