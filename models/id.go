package models

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a fresh record id with a per-kind prefix, e.g. "s-1f2c9a0b".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:12]
}
