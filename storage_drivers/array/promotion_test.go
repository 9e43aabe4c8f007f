// Copyright 2025 Arraykit Authors. All Rights Reserved.

package array

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraykit/arraykit/storage"
	"github.com/arraykit/arraykit/utils/errors"
)

func graphOf(resources ...storage.PhysicalResource) Graph {
	return NewGraph(resources)
}

func at(minutes int) time.Time {
	return time.Date(2025, 6, 1, 0, minutes, 0, 0, time.UTC)
}

func TestPlanSnapshotRemovalNoDependents(t *testing.T) {
	g := graphOf(
		storage.PhysicalResource{Name: "s_snap1_vol1", CreatedAt: at(1)},
	)

	steps, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "")
	require.NoError(t, err)
	assert.Equal(t, []PlanStep{{Action: ActionDelete, Target: "s_snap1_vol1"}}, steps)
}

func TestPlanSnapshotRemovalExcludesDeletingVolume(t *testing.T) {
	g := graphOf(
		storage.PhysicalResource{Name: "s_snap1_vol1", Dependents: []string{"v_vol1"}, CreatedAt: at(1)},
		storage.PhysicalResource{Name: "v_vol1", CreatedAt: at(0)},
	)

	steps, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "v_vol1")
	require.NoError(t, err)
	assert.Equal(t, []PlanStep{{Action: ActionDelete, Target: "s_snap1_vol1"}}, steps)
}

func TestPlanSnapshotRemovalPrefersLiveDependent(t *testing.T) {
	// Two tombstoned placeholders are newer than the live clone, but a live
	// clone always wins the promotion.
	g := graphOf(
		storage.PhysicalResource{
			Name: "s_snap1_vol1", Dependents: []string{"t_c1", "t_c2", "v_c3"}, CreatedAt: at(1),
		},
		storage.PhysicalResource{Name: "v_c3", CreatedAt: at(2)},
		storage.PhysicalResource{Name: "t_c1", CreatedAt: at(3)},
		storage.PhysicalResource{Name: "t_c2", CreatedAt: at(4)},
	)

	steps, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "")
	require.NoError(t, err)
	assert.Equal(t, []PlanStep{
		{Action: ActionPromote, Target: "v_c3", Onto: "s_snap1_vol1"},
		{Action: ActionDelete, Target: "s_snap1_vol1"},
		{Action: ActionDelete, Target: "t_c1"},
		{Action: ActionDelete, Target: "t_c2"},
	}, steps)
}

func TestPlanSnapshotRemovalPicksNewestLiveDependent(t *testing.T) {
	g := graphOf(
		storage.PhysicalResource{
			Name: "s_snap1_vol1", Dependents: []string{"v_old", "v_new"}, CreatedAt: at(1),
		},
		storage.PhysicalResource{Name: "v_old", CreatedAt: at(2)},
		storage.PhysicalResource{Name: "v_new", CreatedAt: at(5)},
	)

	steps, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "")
	require.NoError(t, err)
	require.NotEmpty(t, steps)
	assert.Equal(t, PlanStep{Action: ActionPromote, Target: "v_new", Onto: "s_snap1_vol1"}, steps[0])
}

func TestPlanSnapshotRemovalTieBreaksOnName(t *testing.T) {
	g := graphOf(
		storage.PhysicalResource{
			Name: "s_snap1_vol1", Dependents: []string{"v_bbb", "v_aaa"}, CreatedAt: at(1),
		},
		storage.PhysicalResource{Name: "v_bbb", CreatedAt: at(2)},
		storage.PhysicalResource{Name: "v_aaa", CreatedAt: at(2)},
	)

	steps, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "")
	require.NoError(t, err)
	require.NotEmpty(t, steps)
	assert.Equal(t, "v_aaa", steps[0].Target)
}

func TestPlanSnapshotRemovalRecursesIntoPlaceholder(t *testing.T) {
	// The only dependent is a tombstone that itself carries a live clone.
	// The placeholder has to be resolved one level down before the snapshot
	// can go.
	g := graphOf(
		storage.PhysicalResource{Name: "s_snap1_vol1", Dependents: []string{"t_mid"}, CreatedAt: at(1)},
		storage.PhysicalResource{Name: "t_mid", Dependents: []string{"v_leaf"}, CreatedAt: at(2)},
		storage.PhysicalResource{Name: "v_leaf", CreatedAt: at(3)},
	)

	steps, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "")
	require.NoError(t, err)
	assert.Equal(t, []PlanStep{
		{Action: ActionPromote, Target: "v_leaf", Onto: "t_mid"},
		{Action: ActionDelete, Target: "t_mid"},
		{Action: ActionDelete, Target: "s_snap1_vol1"},
	}, steps)
}

func TestPlanSnapshotRemovalDepthBounded(t *testing.T) {
	// A corrupt graph with a self-referential placeholder must not loop.
	g := graphOf(
		storage.PhysicalResource{Name: "s_snap1_vol1", Dependents: []string{"t_loop"}, CreatedAt: at(1)},
		storage.PhysicalResource{Name: "t_loop", Dependents: []string{"t_loop"}, CreatedAt: at(2)},
	)

	_, err := PlanSnapshotRemoval(g, "s_snap1_vol1", "")
	require.Error(t, err)
	assert.True(t, errors.IsResourceBusyError(err))
}

func TestLiveDependents(t *testing.T) {
	g := graphOf(
		storage.PhysicalResource{
			Name: "s_snap1_vol1", Dependents: []string{"t_dead", "v_live", "v_excluded"},
		},
		storage.PhysicalResource{Name: "t_dead"},
		storage.PhysicalResource{Name: "v_live"},
		storage.PhysicalResource{Name: "v_excluded"},
	)

	assert.Equal(t, []string{"v_live"}, g.LiveDependents("s_snap1_vol1", "v_excluded"))
	assert.Empty(t, g.LiveDependents("s_missing_x", ""))
}
