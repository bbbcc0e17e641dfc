package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// seedGroup creates a group owned by the first user and joins the rest.
func seedGroup(t *testing.T, f *fixture, mode string, users ...string) string {
	t.Helper()
	ctx := context.Background()
	groupID, err := f.groups.Create(ctx, users[0], "early birds", mode)
	require.NoError(t, err)
	for _, u := range users[1:] {
		require.NoError(t, f.groups.Join(ctx, u, groupID))
	}
	return groupID
}

func TestRaceRanksByFinishOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeRace, "u1", "u2", "u3")

	var sessionIDs []string
	for _, u := range []string{"u1", "u2", "u3"} {
		id, err := f.sessions.Start(ctx, u, missionID, groupID)
		require.NoError(t, err)
		sessionIDs = append(sessionIDs, id)
	}

	// Finish in reverse start order: u3, then u2, then u1.
	f.completeAll(t, sessionIDs[2])
	f.completeAll(t, sessionIDs[1])
	f.completeAll(t, sessionIDs[0])

	wantRank := map[string]int{sessionIDs[2]: 1, sessionIDs[1]: 2, sessionIDs[0]: 3}
	for id, want := range wantRank {
		sess, err := f.store.GetSession(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, sess.Rank, "session %s has no rank", id)
		assert.Equal(t, want, *sess.Rank)
	}
}

func TestRaceLaterFinisherKeepsEarlierRanks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeRace, "u1", "u2")

	first, err := f.sessions.Start(ctx, "u1", missionID, groupID)
	require.NoError(t, err)
	second, err := f.sessions.Start(ctx, "u2", missionID, groupID)
	require.NoError(t, err)

	f.completeAll(t, first)
	got, err := f.store.GetSession(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, got.Rank)
	assert.Equal(t, 1, *got.Rank)

	f.completeAll(t, second)
	got, err = f.store.GetSession(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.Rank)
	got, err = f.store.GetSession(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, got.Rank)
	assert.Equal(t, 2, *got.Rank)
}

func TestAllModePartialThenCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeAll, "u1", "u2")

	s1, err := f.sessions.Start(ctx, "u1", missionID, groupID)
	require.NoError(t, err)
	s2, err := f.sessions.Start(ctx, "u2", missionID, groupID)
	require.NoError(t, err)

	f.completeAll(t, s1)
	sess, err := f.store.GetSession(ctx, s1)
	require.NoError(t, err)

	status, err := f.store.GetGroupDailyStatus(ctx, groupID, sess.Date)
	require.NoError(t, err)
	assert.False(t, status.AllCleared)
	assert.Equal(t, []string{"u1"}, status.ClearedMembers)
	assert.Equal(t, "u1", status.LastClearMember)
	assert.Equal(t, 0, status.ClearStreak)

	f.completeAll(t, s2)
	status, err = f.store.GetGroupDailyStatus(ctx, groupID, sess.Date)
	require.NoError(t, err)
	assert.True(t, status.AllCleared)
	assert.ElementsMatch(t, []string{"u1", "u2"}, status.ClearedMembers)
	assert.Equal(t, "u2", status.LastClearMember)
	assert.Equal(t, 1, status.ClearStreak)

	// Re-completing an already-successful step never runs a second scoring
	// pass, so the streak stays put.
	f.completeAll(t, s2)
	status, err = f.store.GetGroupDailyStatus(ctx, groupID, sess.Date)
	require.NoError(t, err)
	assert.Equal(t, 1, status.ClearStreak)
}

func TestAllModeStreakContinuesFromPreviousDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeAll, "u1")

	sessionID, err := f.sessions.Start(ctx, "u1", missionID, groupID)
	require.NoError(t, err)
	sess, err := f.store.GetSession(ctx, sessionID)
	require.NoError(t, err)

	require.NoError(t, f.store.PutGroupDailyStatus(ctx, &models.GroupDailyStatus{
		GroupID:     groupID,
		Date:        previousDay(sess.Date),
		AllCleared:  true,
		ClearStreak: 3,
	}))

	f.completeAll(t, sessionID)
	status, err := f.store.GetGroupDailyStatus(ctx, groupID, sess.Date)
	require.NoError(t, err)
	assert.True(t, status.AllCleared)
	assert.Equal(t, 4, status.ClearStreak)
}

func TestAllModeStreakResetsAfterMissedDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeAll, "u1")

	sessionID, err := f.sessions.Start(ctx, "u1", missionID, groupID)
	require.NoError(t, err)
	sess, err := f.store.GetSession(ctx, sessionID)
	require.NoError(t, err)

	// Yesterday exists but was not all-cleared, so the streak restarts at 1.
	require.NoError(t, f.store.PutGroupDailyStatus(ctx, &models.GroupDailyStatus{
		GroupID:     groupID,
		Date:        previousDay(sess.Date),
		AllCleared:  false,
		ClearStreak: 0,
	}))

	f.completeAll(t, sessionID)
	status, err := f.store.GetGroupDailyStatus(ctx, groupID, sess.Date)
	require.NoError(t, err)
	assert.Equal(t, 1, status.ClearStreak)
}

func TestScoringSkipsSoloSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	sessionID, err := f.sessions.Start(ctx, "u1", missionID, "")
	require.NoError(t, err)
	f.completeAll(t, sessionID)

	sess, err := f.store.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)
	assert.Nil(t, sess.Rank)
}

type spyInvalidator struct {
	prefixes []string
}

func (s *spyInvalidator) InvalidateByPrefix(prefix string) {
	s.prefixes = append(s.prefixes, prefix)
}

func TestScoringInvalidatesGroupCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	spy := &spyInvalidator{}
	f.scorer.cache = spy

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeRace, "u1")
	sessionID, err := f.sessions.Start(ctx, "u1", missionID, groupID)
	require.NoError(t, err)
	f.completeAll(t, sessionID)

	require.Len(t, spy.prefixes, 1)
	assert.Equal(t, "cache:group:"+groupID+":", spy.prefixes[0])
}

func TestScoringToleratesVanishedGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	sessionID, err := f.sessions.Start(ctx, "u1", missionID, "g-gone")
	require.NoError(t, err)

	// Completion must still succeed even though the group cannot be resolved.
	f.completeAll(t, sessionID)
	sess, err := f.store.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)

	_, err = f.store.GetGroupDailyStatus(ctx, "g-gone", sess.Date)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
