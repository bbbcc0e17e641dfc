// Package migrate moves data between the local and cloud backends and
// produces the external file/QR representations of a local snapshot.
package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mzlab/mzwake/models"
	"github.com/mzlab/mzwake/store"
)

// Report summarizes a local-to-cloud copy. The copy is best-effort and not
// transactional: failed records are counted and logged, already-copied
// records stay in the cloud.
type Report struct {
	Missions     int      `json:"missions"`
	MissionSteps int      `json:"mission_steps"`
	Groups       int      `json:"groups"`
	Members      int      `json:"members"`
	Failures     []string `json:"failures,omitempty"`
}

// LocalToCloud copies missions, step templates, groups and memberships from
// the local snapshot into the cloud backend with freshly generated ids,
// remapping parent references and membership composite keys. Sessions and
// their steps are deliberately excluded so past attempts are never duplicated
// as new ones.
func LocalToCloud(ctx context.Context, src store.Exporter, dst store.Store, log *zap.SugaredLogger) (*Report, error) {
	snap, err := src.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export local snapshot: %w", err)
	}

	rep := &Report{}
	fail := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		rep.Failures = append(rep.Failures, msg)
		log.Warnw("cloud migration: record skipped", "reason", msg)
	}

	missionIDs := map[string]string{}
	for _, m := range snap.Missions {
		clone := m
		clone.ID = "" // fresh cloud id
		if err := dst.CreateMission(ctx, &clone); err != nil {
			fail("mission %s: %v", m.ID, err)
			continue
		}
		missionIDs[m.ID] = clone.ID
		rep.Missions++
	}

	for _, s := range snap.MissionSteps {
		newMission, ok := missionIDs[s.MissionID]
		if !ok {
			fail("step %s: parent mission %s not migrated", s.ID, s.MissionID)
			continue
		}
		clone := s
		clone.ID = ""
		clone.MissionID = newMission
		if err := dst.CreateMissionStep(ctx, &clone); err != nil {
			fail("step %s: %v", s.ID, err)
			continue
		}
		rep.MissionSteps++
	}

	groupIDs := map[string]string{}
	for _, g := range snap.Groups {
		clone := g
		clone.ID = ""
		if err := dst.CreateGroup(ctx, &clone); err != nil {
			fail("group %s: %v", g.ID, err)
			continue
		}
		groupIDs[g.ID] = clone.ID
		rep.Groups++
	}

	for _, m := range snap.GroupMembers {
		newGroup, ok := groupIDs[m.GroupID]
		if !ok {
			fail("member %s: parent group %s not migrated", m.ID, m.GroupID)
			continue
		}
		member := models.GroupMember{GroupID: newGroup, UserID: m.UserID, JoinedAt: m.JoinedAt}
		if err := dst.PutGroupMember(ctx, &member); err != nil {
			fail("member %s: %v", m.ID, err)
			continue
		}
		rep.Members++
	}

	return rep, nil
}
