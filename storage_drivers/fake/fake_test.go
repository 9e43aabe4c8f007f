// Copyright 2025 Arraykit Authors. All Rights Reserved.

package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraykit/arraykit/storage"
	"github.com/arraykit/arraykit/utils/errors"
)

func newTestBackend() *Backend {
	return NewBackend(storage.PoolCapacity{Name: "pool0", TotalGiB: 100, FreeGiB: 90, ReserveFreePct: 50})
}

func create(t *testing.T, b *Backend, op string, params ...storage.Param) {
	t.Helper()
	_, err := b.Execute(context.Background(), storage.NewCommand(op, params...))
	require.NoError(t, err)
}

func TestDuplicateCreateRefused(t *testing.T) {
	b := newTestBackend()
	create(t, b, storage.OpCreateVolume,
		storage.Param{Key: "name", Value: "v_a"}, storage.Param{Key: "size", Value: "10"})

	_, err := b.Execute(context.Background(), storage.NewCommand(storage.OpCreateVolume,
		storage.Param{Key: "name", Value: "v_a"}, storage.Param{Key: "size", Value: "10"}))
	assert.True(t, errors.IsAlreadyExistsError(err))
}

func TestDeleteWithDependentsRefused(t *testing.T) {
	b := newTestBackend()
	create(t, b, storage.OpCreateVolume,
		storage.Param{Key: "name", Value: "v_a"}, storage.Param{Key: "size", Value: "10"})
	create(t, b, storage.OpCreateSnapshot,
		storage.Param{Key: "name", Value: "s_x_a"}, storage.Param{Key: "volume", Value: "v_a"})

	_, err := b.Execute(context.Background(), storage.NewCommand(storage.OpDeleteVolume,
		storage.Param{Key: "name", Value: "v_a"}))
	assert.True(t, errors.IsBusyError(err))
}

func TestCloneRequiresActivatedSnapshot(t *testing.T) {
	b := newTestBackend()
	ctx := context.Background()
	create(t, b, storage.OpCreateVolume,
		storage.Param{Key: "name", Value: "v_a"}, storage.Param{Key: "size", Value: "10"})
	create(t, b, storage.OpCreateSnapshot,
		storage.Param{Key: "name", Value: "s_x_a"}, storage.Param{Key: "volume", Value: "v_a"})

	_, err := b.Execute(ctx, storage.NewCommand(storage.OpCreateClone,
		storage.Param{Key: "name", Value: "v_c"}, storage.Param{Key: "snapshot", Value: "s_x_a"}))
	assert.True(t, errors.IsInvalidArgumentError(err))

	create(t, b, storage.OpActivateSnapshot, storage.Param{Key: "name", Value: "s_x_a"})
	_, err = b.Execute(ctx, storage.NewCommand(storage.OpCreateClone,
		storage.Param{Key: "name", Value: "v_c"}, storage.Param{Key: "snapshot", Value: "s_x_a"}))
	assert.NoError(t, err)
}

func TestPromoteRepointsRemainingDependents(t *testing.T) {
	b := newTestBackend()
	b.Add(storage.PhysicalResource{Name: "s_x_a", SizeGiB: 10, Dependents: []string{"v_c1", "v_c2"}}, true)
	b.Add(storage.PhysicalResource{Name: "v_c1", SizeGiB: 10, Origin: "s_x_a"}, false)
	b.Add(storage.PhysicalResource{Name: "v_c2", SizeGiB: 10, Origin: "s_x_a"}, false)

	create(t, b, storage.OpPromoteClone,
		storage.Param{Key: "clone", Value: "v_c1"}, storage.Param{Key: "snapshot", Value: "s_x_a"})

	c1, _ := b.Resource("v_c1")
	assert.Empty(t, c1.Origin)
	assert.Equal(t, []string{"v_c2"}, c1.Dependents)

	c2, _ := b.Resource("v_c2")
	assert.Equal(t, "v_c1", c2.Origin)

	snap, _ := b.Resource("s_x_a")
	assert.Empty(t, snap.Dependents)
}

func TestRenamePreservesGraphEdges(t *testing.T) {
	b := newTestBackend()
	b.Add(storage.PhysicalResource{Name: "v_a", SizeGiB: 10, Dependents: []string{"s_x_a"}}, false)
	b.Add(storage.PhysicalResource{Name: "s_x_a", SizeGiB: 10, Origin: "v_a"}, true)

	create(t, b, storage.OpRenameVolume,
		storage.Param{Key: "name", Value: "v_a"}, storage.Param{Key: "newname", Value: "t_a"})

	_, ok := b.Resource("v_a")
	assert.False(t, ok)
	renamed, ok := b.Resource("t_a")
	require.True(t, ok)
	assert.Equal(t, []string{"s_x_a"}, renamed.Dependents)

	snap, _ := b.Resource("s_x_a")
	assert.Equal(t, "t_a", snap.Origin)
}
