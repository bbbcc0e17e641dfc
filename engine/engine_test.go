package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzlab/mzwake/store/local"
)

// testClock hands out strictly increasing times so finish order is
// deterministic in tests.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 7, 0, 0, 0, time.Local)}
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type fixture struct {
	store    *local.Store
	catalog  *Catalog
	groups   *Groups
	sessions *Sessions
	scorer   *Scorer
	clock    *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := local.Open(t.TempDir())
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	clock := newTestClock()
	scorer := NewScorer(st, nil, log)
	sessions := NewSessions(st, scorer, log)
	sessions.now = clock.Now
	groups := NewGroups(st)
	groups.now = clock.Now

	return &fixture{
		store:    st,
		catalog:  NewCatalog(st),
		groups:   groups,
		sessions: sessions,
		scorer:   scorer,
		clock:    clock,
	}
}

// missionWithSteps creates a mission with n manual steps ordered 1..n and
// returns the mission id.
func (f *fixture) missionWithSteps(t *testing.T, owner string, n int) string {
	t.Helper()
	ctx := context.Background()
	missionID, err := f.catalog.CreateMission(ctx, owner, "morning", "07:00", "")
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := f.catalog.CreateStep(ctx, missionID, "step", "", nil, i)
		require.NoError(t, err)
	}
	return missionID
}

// completeAll drives every step of a session to success in order.
func (f *fixture) completeAll(t *testing.T, sessionID string) {
	t.Helper()
	ctx := context.Background()
	steps, err := f.sessions.Steps(ctx, sessionID)
	require.NoError(t, err)
	for _, st := range steps {
		require.NoError(t, f.sessions.CompleteStep(ctx, st.ID, nil))
	}
}
