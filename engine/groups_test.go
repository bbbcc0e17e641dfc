package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

func TestCreateGroupValidatesMode(t *testing.T) {
	f := newFixture(t)
	_, err := f.groups.Create(context.Background(), "u1", "bad", "TOURNAMENT")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCreateGroupAutoJoinsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	groupID, err := f.groups.Create(ctx, "u1", "racers", models.ModeRace)
	require.NoError(t, err)

	members, err := f.groups.Members(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "u1", members[0].UserID)
}

func TestJoinIsIdempotentPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	groupID, err := f.groups.Create(ctx, "u1", "racers", models.ModeRace)
	require.NoError(t, err)
	require.NoError(t, f.groups.Join(ctx, "u2", groupID))
	require.NoError(t, f.groups.Join(ctx, "u2", groupID))

	members, err := f.groups.Members(ctx, groupID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestJoinUnknownGroup(t *testing.T) {
	f := newFixture(t)
	err := f.groups.Join(context.Background(), "u1", "g-none")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDailyStatusDefaultsToToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	groupID, err := f.groups.Create(ctx, "u1", "team", models.ModeAll)
	require.NoError(t, err)

	_, err = f.groups.DailyStatus(ctx, groupID, "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	date := models.LocalDate(f.clock.t)
	require.NoError(t, f.store.PutGroupDailyStatus(ctx, &models.GroupDailyStatus{
		GroupID: groupID, Date: date, AllCleared: true, ClearStreak: 1,
	}))

	status, err := f.groups.DailyStatus(ctx, groupID, "")
	require.NoError(t, err)
	assert.True(t, status.AllCleared)
}

func TestTodayLeaderboardFinishersFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missionID := f.missionWithSteps(t, "u1", 1)
	groupID := seedGroup(t, f, models.ModeRace, "u1", "u2", "u3")

	s1, err := f.sessions.Start(ctx, "u1", missionID, groupID)
	require.NoError(t, err)
	s2, err := f.sessions.Start(ctx, "u2", missionID, groupID)
	require.NoError(t, err)
	_, err = f.sessions.Start(ctx, "u3", missionID, groupID)
	require.NoError(t, err)

	// u2 finishes first, u1 second, u3 never does.
	f.completeAll(t, s2)
	f.completeAll(t, s1)

	board, err := f.groups.TodayLeaderboard(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "u2", board[0].UserID)
	require.NotNil(t, board[0].Rank)
	assert.Equal(t, 1, *board[0].Rank)
	assert.Equal(t, "u1", board[1].UserID)
	assert.Equal(t, "u3", board[2].UserID)
	assert.Equal(t, models.SessionInProgress, board[2].Status)
	assert.Nil(t, board[2].FinishedAt)
}
