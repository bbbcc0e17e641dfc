package models

import "time"

// Group scoring modes. Mode is immutable after creation.
const (
	ModeRace = "RACE"
	ModeAll  = "ALL"
)

// Group is a set of users racing or cooperating on their morning sessions.
type Group struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Mode      string    `gorm:"size:8;not null" json:"mode"`
	OwnerID   string    `gorm:"index;size:64;not null" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMember relates a user to a group. The composite id guarantees at most
// one row per (group, user); re-joining overwrites joined_at.
type GroupMember struct {
	ID       string    `gorm:"primaryKey;size:130" json:"id"`
	GroupID  string    `gorm:"index;size:64;not null" json:"group_id"`
	UserID   string    `gorm:"index;size:64;not null" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MemberID builds the composite membership key.
func MemberID(groupID, userID string) string {
	return groupID + "_" + userID
}

// GroupDailyStatus is the ALL-mode scoring row, one per (group, date),
// recomputed on every scoring pass rather than appended.
type GroupDailyStatus struct {
	ID              string   `gorm:"primaryKey;size:80" json:"id"` // group_id+"_"+date
	GroupID         string   `gorm:"index;size:64;not null" json:"group_id"`
	Date            string   `gorm:"size:10;index" json:"date"`
	AllCleared      bool     `json:"all_cleared"`
	ClearedMembers  []string `gorm:"serializer:json" json:"cleared_members"`
	LastClearMember string   `gorm:"size:64" json:"last_clear_member"`
	ClearStreak     int      `json:"clear_streak"`
}

// DailyStatusID builds the composite status key.
func DailyStatusID(groupID, date string) string {
	return groupID + "_" + date
}
