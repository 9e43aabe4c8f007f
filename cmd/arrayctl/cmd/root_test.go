// Copyright 2025 Arraykit Authors. All Rights Reserved.

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arraykit/arraykit/utils/errors"
)

func TestSetExitCodeFromError(t *testing.T) {
	ExitCode = ExitCodeSuccess
	SetExitCodeFromError(nil)
	assert.Equal(t, ExitCodeSuccess, ExitCode)

	SetExitCodeFromError(errors.New("failed"))
	assert.Equal(t, ExitCodeFailure, ExitCode)

	ExitCode = ExitCodeSuccess
}

func TestVolumeOptionsFlagMapping(t *testing.T) {
	createThin, createThick = false, false
	assert.Nil(t, volumeOptions().Thin)

	createThin = true
	opts := volumeOptions()
	if assert.NotNil(t, opts.Thin) {
		assert.True(t, *opts.Thin)
	}

	createThin, createThick = false, true
	opts = volumeOptions()
	if assert.NotNil(t, opts.Thin) {
		assert.False(t, *opts.Thin)
	}

	createThin, createThick = false, false
}

func TestFriendlyError(t *testing.T) {
	plain := errors.New("no such volume")
	assert.Equal(t, plain, friendlyError(plain))

	exhausted := errors.ExhaustedRetriesError("2 cycles over 3 endpoints")
	assert.Contains(t, friendlyError(exhausted).Error(), "unreachable")
}
