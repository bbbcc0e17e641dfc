package models

import "time"

// User is a guest identity created on first launch. There are no credentials;
// the JWT issued for the id is the only proof of identity.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
