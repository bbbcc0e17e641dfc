package models

import "time"

// Step action types. The action config carries the per-type parameters:
// shake -> {count}, gps -> {distance}, qr -> {targetValue}, ai_detect -> {targetLabel}.
const (
	ActionManual   = "manual"
	ActionShake    = "shake"
	ActionQR       = "qr"
	ActionGPS      = "gps"
	ActionAIDetect = "ai_detect"
)

// Mission is a named, reusable template of ordered verification steps with a
// target wake time. Deleting a mission cascades to its steps.
type Mission struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	OwnerID    string    `gorm:"index;size:64;not null" json:"owner_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	WakeTime   string    `gorm:"size:8" json:"wake_time"` // HH:MM
	RepeatRule string    `gorm:"size:32" json:"repeat_rule"`
	CreatedAt  time.Time `json:"created_at"`
}

// MissionStep is an authored recipe step. Sessions snapshot-copy these at start
// time, so later edits never touch an in-flight session.
type MissionStep struct {
	ID           string         `gorm:"primaryKey;size:64" json:"id"`
	MissionID    string         `gorm:"index;size:64;not null" json:"mission_id"`
	Label        string         `gorm:"size:255" json:"label"`
	Order        int            `gorm:"column:step_order;not null" json:"order"`
	ActionType   string         `gorm:"size:16;default:'manual'" json:"action_type"`
	ActionConfig map[string]any `gorm:"serializer:json" json:"action_config"`
}
