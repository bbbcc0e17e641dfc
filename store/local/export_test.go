package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

func seed(t *testing.T, s *Store) (missionID, groupID string) {
	t.Helper()
	ctx := context.Background()

	m := &models.Mission{OwnerID: "u1", Name: "morning"}
	require.NoError(t, s.CreateMission(ctx, m))
	require.NoError(t, s.CreateMissionStep(ctx, &models.MissionStep{
		MissionID: m.ID, Label: "shake", Order: 1, ActionType: models.ActionShake,
	}))

	g := &models.Group{Name: "team", Mode: models.ModeRace, OwnerID: "u1"}
	require.NoError(t, s.CreateGroup(ctx, g))
	require.NoError(t, s.PutGroupMember(ctx, &models.GroupMember{GroupID: g.ID, UserID: "u1"}))

	require.NoError(t, s.CreateSession(ctx, &models.Session{
		UserID: "u1", GroupID: g.ID, MissionID: m.ID, Date: "2025-06-01", Status: models.SessionInProgress,
	}, []models.SessionStep{{Order: 1, Result: models.StepNotStarted}}))

	require.NoError(t, s.PutGroupDailyStatus(ctx, &models.GroupDailyStatus{
		GroupID: g.ID, Date: "2025-06-01",
	}))
	return m.ID, g.ID
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := openTestStore(t)
	missionID, groupID := seed(t, src)
	ctx := context.Background()

	snap, err := src.Export(ctx)
	require.NoError(t, err)

	dst, dstDir := openTestStore(t)
	require.NoError(t, dst.Import(ctx, snap))

	// Imported records keep their ids byte for byte.
	m, err := dst.GetMission(ctx, missionID)
	require.NoError(t, err)
	assert.Equal(t, missionID, m.ID)
	g, err := dst.GetGroup(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, groupID, g.ID)

	roundTrip, err := dst.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, roundTrip)

	// And the import persisted: a reopen sees the same data.
	reopened, err := Open(dstDir)
	require.NoError(t, err)
	_, err = reopened.GetMission(ctx, missionID)
	assert.NoError(t, err)
}

func TestImportSkipsAbsentCollections(t *testing.T) {
	s, _ := openTestStore(t)
	missionID, groupID := seed(t, s)
	ctx := context.Background()

	// Only groups present; everything else is a nil slice, meaning "absent".
	require.NoError(t, s.Import(ctx, &store.Snapshot{
		Groups: []models.Group{{ID: "g-imported", Name: "new", Mode: models.ModeAll, OwnerID: "u9"}},
	}))

	_, err := s.GetGroup(ctx, groupID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetGroup(ctx, "g-imported")
	assert.NoError(t, err)

	// Missions were untouched.
	_, err = s.GetMission(ctx, missionID)
	assert.NoError(t, err)
}

func TestImportEmptySliceClearsCollection(t *testing.T) {
	s, _ := openTestStore(t)
	missionID, _ := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Import(ctx, &store.Snapshot{Missions: []models.Mission{}}))
	_, err := s.GetMission(ctx, missionID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBackupRoundTrip(t *testing.T) {
	s, dir := openTestStore(t)
	missionID, _ := seed(t, s)
	ctx := context.Background()

	_, err := s.LatestBackup(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	b, err := s.SaveBackup(ctx)
	require.NoError(t, err)
	assert.Greater(t, b.CreatedAt, int64(0))
	require.Len(t, b.Snap.Missions, 1)
	assert.Equal(t, missionID, b.Snap.Missions[0].ID)

	got, err := s.LatestBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.CreatedAt, got.CreatedAt)
	assert.Equal(t, missionID, got.Snap.Missions[0].ID)

	// The on-disk document is {created_at, snap}.
	raw, err := os.ReadFile(filepath.Join(dir, fileBackup))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "created_at")
	assert.Contains(t, doc, "snap")
}
