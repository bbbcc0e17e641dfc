package engine

import (
	"context"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// Catalog is the author-time CRUD layer for missions and their step templates.
// It performs no domain validation beyond the order-assignment policy; callers
// validate labels and configs.
type Catalog struct {
	store store.Store
}

// NewCatalog creates a catalog over the given backend.
func NewCatalog(st store.Store) *Catalog {
	return &Catalog{store: st}
}

// CreateMission stores a new mission for the owner and returns its id.
func (c *Catalog) CreateMission(ctx context.Context, ownerID, name, wakeTime, repeatRule string) (string, error) {
	if repeatRule == "" {
		repeatRule = "everyday"
	}
	m := &models.Mission{
		OwnerID:    ownerID,
		Name:       name,
		WakeTime:   wakeTime,
		RepeatRule: repeatRule,
	}
	if err := c.store.CreateMission(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// ListMissions returns the owner's missions, newest first.
func (c *Catalog) ListMissions(ctx context.Context, ownerID string) ([]models.Mission, error) {
	return c.store.ListMissionsByOwner(ctx, ownerID)
}

// GetMission resolves a mission by id.
func (c *Catalog) GetMission(ctx context.Context, id string) (*models.Mission, error) {
	return c.store.GetMission(ctx, id)
}

// DeleteMission removes the mission and cascades to its step templates.
func (c *Catalog) DeleteMission(ctx context.Context, id string) error {
	return c.store.DeleteMission(ctx, id)
}

// CreateStep appends a step template to a mission. When order is zero the next
// order is assigned as max(existing)+1; order numbers are never reused or
// compacted after deletion.
func (c *Catalog) CreateStep(ctx context.Context, missionID, label, actionType string, actionConfig map[string]any, order int) (string, error) {
	if _, err := c.store.GetMission(ctx, missionID); err != nil {
		return "", err
	}
	if order <= 0 {
		existing, err := c.store.ListMissionSteps(ctx, missionID)
		if err != nil {
			return "", err
		}
		order = 1
		for _, st := range existing {
			if st.Order >= order {
				order = st.Order + 1
			}
		}
	}
	if actionType == "" {
		actionType = models.ActionManual
	}
	if actionConfig == nil {
		actionConfig = map[string]any{}
	}
	st := &models.MissionStep{
		MissionID:    missionID,
		Label:        label,
		Order:        order,
		ActionType:   actionType,
		ActionConfig: actionConfig,
	}
	if err := c.store.CreateMissionStep(ctx, st); err != nil {
		return "", err
	}
	return st.ID, nil
}

// ListSteps returns a mission's step templates by order ascending.
func (c *Catalog) ListSteps(ctx context.Context, missionID string) ([]models.MissionStep, error) {
	return c.store.ListMissionSteps(ctx, missionID)
}

// DeleteStep removes a single step template.
func (c *Catalog) DeleteStep(ctx context.Context, id string) error {
	return c.store.DeleteMissionStep(ctx, id)
}
