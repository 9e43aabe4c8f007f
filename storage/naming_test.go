// Copyright 2025 Arraykit Authors. All Rights Reserved.

package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraykit/arraykit/utils/errors"
)

func TestVolumeNameRoundTrip(t *testing.T) {
	for i := 0; i < 10; i++ {
		id := uuid.New().String()

		name, err := VolumeName(id)
		require.NoError(t, err)

		kind, err := KindOf(name)
		require.NoError(t, err)
		assert.Equal(t, KindVolume, kind)

		back, err := LogicalID(name)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	}
}

func TestVolumeNameRejectsPrefixedIDs(t *testing.T) {
	for _, id := range []string{"v_abc", "s_abc_def", "t_abc", ""} {
		_, err := VolumeName(id)
		assert.Error(t, err, id)
		assert.True(t, errors.IsInvalidNameError(err), id)
	}
}

func TestSnapshotNameRoundTrip(t *testing.T) {
	snapID := uuid.New().String()
	volID := uuid.New().String()

	name, err := SnapshotName(snapID, volID)
	require.NoError(t, err)

	kind, err := KindOf(name)
	require.NoError(t, err)
	assert.Equal(t, KindSnapshot, kind)

	gotSnap, gotVol, err := SnapshotParts(name)
	require.NoError(t, err)
	assert.Equal(t, snapID, gotSnap)
	assert.Equal(t, volID, gotVol)

	logical, err := LogicalID(name)
	require.NoError(t, err)
	assert.Equal(t, snapID, logical)
}

func TestSnapshotNameRejectsUnderscoreInSnapshotID(t *testing.T) {
	_, err := SnapshotName("snap_1", "vol")
	assert.True(t, errors.IsInvalidNameError(err))
}

func TestTombstoneRoundTrip(t *testing.T) {
	id := uuid.New().String()

	name, err := VolumeName(id)
	require.NoError(t, err)

	hidden, err := Tombstone(name)
	require.NoError(t, err)
	assert.True(t, IsHidden(hidden))
	assert.False(t, IsHidden(name))

	kind, err := KindOf(hidden)
	require.NoError(t, err)
	assert.Equal(t, KindTombstone, kind)

	logical, err := LogicalID(hidden)
	require.NoError(t, err)
	assert.Equal(t, id, logical)

	// Tombstoning is idempotent.
	again, err := Tombstone(hidden)
	require.NoError(t, err)
	assert.Equal(t, hidden, again)
}

func TestExtensionNameRoundTrip(t *testing.T) {
	name, err := VolumeName(uuid.New().String())
	require.NoError(t, err)

	ext := ExtensionName(name, 3)
	assert.True(t, IsExtension(ext))
	assert.False(t, IsExtension(name))

	idx, ok := ExtensionIndex(ext, name)
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = ExtensionIndex(ext, "v_other")
	assert.False(t, ok)
}

func TestExtensionIndexRejectsMalformedNames(t *testing.T) {
	for _, name := range []string{"v_vol1", "v_vol1.ext", "v_vol1.extX", "v_vol1.ext0", "v_vol1.ext-1"} {
		_, ok := ExtensionIndex(name, "v_vol1")
		assert.False(t, ok, name)
		assert.False(t, IsExtension(name), name)
	}
}

func TestKindOfRejectsMalformedNames(t *testing.T) {
	for _, name := range []string{"", "x_abc", "v_", "s_", "s_onlyone", "t_", "abc"} {
		_, err := KindOf(name)
		assert.Error(t, err, name)
		assert.True(t, errors.IsInvalidNameError(err), name)
	}
}
