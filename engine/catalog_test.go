package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

func TestCreateMissionDefaultsRepeatRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.catalog.CreateMission(ctx, "u1", "early run", "06:00", "")
	require.NoError(t, err)

	m, err := f.catalog.GetMission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "everyday", m.RepeatRule)
	assert.Equal(t, "u1", m.OwnerID)
}

func TestCreateStepAssignsNextOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID, err := f.catalog.CreateMission(ctx, "u1", "m", "07:00", "")
	require.NoError(t, err)

	first, err := f.catalog.CreateStep(ctx, missionID, "a", "", nil, 0)
	require.NoError(t, err)
	_, err = f.catalog.CreateStep(ctx, missionID, "b", "", nil, 0)
	require.NoError(t, err)

	steps, err := f.catalog.ListSteps(ctx, missionID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].Order)
	assert.Equal(t, 2, steps[1].Order)
	assert.Equal(t, models.ActionManual, steps[0].ActionType)
	assert.NotNil(t, steps[0].ActionConfig)

	// Orders are never compacted: after deleting step 1, the next assigned
	// order is still max+1.
	require.NoError(t, f.catalog.DeleteStep(ctx, first))
	_, err = f.catalog.CreateStep(ctx, missionID, "c", "", nil, 0)
	require.NoError(t, err)

	steps, err = f.catalog.ListSteps(ctx, missionID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 2, steps[0].Order)
	assert.Equal(t, 3, steps[1].Order)
}

func TestCreateStepExplicitOrderKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID, err := f.catalog.CreateMission(ctx, "u1", "m", "07:00", "")
	require.NoError(t, err)

	_, err = f.catalog.CreateStep(ctx, missionID, "late", models.ActionQR,
		map[string]any{"targetValue": "bathroom-mirror"}, 7)
	require.NoError(t, err)

	steps, err := f.catalog.ListSteps(ctx, missionID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, 7, steps[0].Order)
	assert.Equal(t, models.ActionQR, steps[0].ActionType)
}

func TestCreateStepUnknownMission(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.CreateStep(context.Background(), "m-none", "a", "", nil, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMissionCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 3)
	require.NoError(t, f.catalog.DeleteMission(ctx, missionID))

	_, err := f.catalog.GetMission(ctx, missionID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	steps, err := f.catalog.ListSteps(ctx, missionID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestListMissionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateMission(ctx, "u1", "older", "06:00", "")
	require.NoError(t, err)
	_, err = f.catalog.CreateMission(ctx, "u1", "newer", "07:00", "")
	require.NoError(t, err)
	_, err = f.catalog.CreateMission(ctx, "u2", "other owner", "08:00", "")
	require.NoError(t, err)

	missions, err := f.catalog.ListMissions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, missions, 2)
	assert.Equal(t, "newer", missions[0].Name)
	assert.Equal(t, "older", missions[1].Name)
}
