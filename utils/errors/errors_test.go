// Copyright 2025 Arraykit Authors. All Rights Reserved.

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("object %s missing", "v_123")
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "object v_123 missing", err.Error())
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(New("other")))
}

func TestWrapWithNotFoundError(t *testing.T) {
	inner := New("entry doesn't exist")
	err := WrapWithNotFoundError(inner, "delete snapshot")
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "delete snapshot; entry doesn't exist", err.Error())
	assert.Equal(t, inner, Unwrap(err))
}

func TestWrappedErrorsSurviveFurtherWrapping(t *testing.T) {
	err := BusyError("volume has dependent clones")
	wrapped := fmt.Errorf("destroy failed: %w", err)
	assert.True(t, IsBusyError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
}

func TestTransportErrorKindsAreDistinct(t *testing.T) {
	cases := []struct {
		err  error
		is   func(error) bool
		isnt []func(error) bool
	}{
		{
			err:  UnreachableError("connection refused"),
			is:   IsUnreachableError,
			isnt: []func(error) bool{IsTimeoutError, IsProtocolViolationError, IsExhaustedRetriesError},
		},
		{
			err:  TimeoutError("no response within %d seconds", 30),
			is:   IsTimeoutError,
			isnt: []func(error) bool{IsUnreachableError, IsProtocolViolationError},
		},
		{
			err:  ProtocolViolationError("unparseable response"),
			is:   IsProtocolViolationError,
			isnt: []func(error) bool{IsRemoteError, IsTimeoutError},
		},
		{
			err:  ExhaustedRetriesError("all endpoints failed"),
			is:   IsExhaustedRetriesError,
			isnt: []func(error) bool{IsUnreachableError, IsBusyError},
		},
	}

	for _, c := range cases {
		assert.True(t, c.is(c.err), c.err.Error())
		for _, isnt := range c.isnt {
			assert.False(t, isnt(c.err), c.err.Error())
		}
	}
}

func TestInvalidNameError(t *testing.T) {
	err := InvalidNameError("x_abc", "unknown kind prefix")
	assert.True(t, IsInvalidNameError(err))
	assert.Contains(t, err.Error(), "x_abc")
	assert.False(t, IsInvalidArgumentError(err))
}

func TestResourceBusyError(t *testing.T) {
	err := ResourceBusyError("volume %s has %d live dependent clones", "v_1", 2)
	assert.True(t, IsResourceBusyError(err))
	assert.Equal(t, "volume v_1 has 2 live dependent clones", err.Error())
}

func TestCloneCopyErrorUnwraps(t *testing.T) {
	inner := RemoteError("copy aborted by controller")
	err := WrapWithCloneCopyError(inner, "clone %s", "v_2")
	assert.True(t, IsCloneCopyError(err))
	assert.True(t, IsRemoteError(err))
}
