// Copyright 2025 Arraykit Authors. All Rights Reserved.

package errors

import (
	"errors"
	"fmt"
)

// ///////////////////////////////////////////////////////////////////////////
// Wrappers for standard library errors package
// ///////////////////////////////////////////////////////////////////////////

func New(message string) error {
	return errors.New(message)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ///////////////////////////////////////////////////////////////////////////
// notFoundError
// ///////////////////////////////////////////////////////////////////////////

type notFoundError struct {
	inner   error
	message string
}

func (e *notFoundError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *notFoundError) Unwrap() error { return e.inner }

func NotFoundError(message string, a ...any) error {
	if len(a) == 0 {
		return &notFoundError{message: message}
	}
	return &notFoundError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithNotFoundError(err error, message string, a ...any) error {
	return &notFoundError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *notFoundError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// alreadyExistsError
// ///////////////////////////////////////////////////////////////////////////

type alreadyExistsError struct {
	inner   error
	message string
}

func (e *alreadyExistsError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *alreadyExistsError) Unwrap() error { return e.inner }

func AlreadyExistsError(message string, a ...any) error {
	if len(a) == 0 {
		return &alreadyExistsError{message: message}
	}
	return &alreadyExistsError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithAlreadyExistsError(err error, message string, a ...any) error {
	return &alreadyExistsError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *alreadyExistsError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// busyError - the array refused an operation because the object is in use
// ///////////////////////////////////////////////////////////////////////////

type busyError struct {
	inner   error
	message string
}

func (e *busyError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *busyError) Unwrap() error { return e.inner }

func BusyError(message string, a ...any) error {
	if len(a) == 0 {
		return &busyError{message: message}
	}
	return &busyError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithBusyError(err error, message string, a ...any) error {
	return &busyError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *busyError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// invalidArgumentError
// ///////////////////////////////////////////////////////////////////////////

type invalidArgumentError struct {
	message string
}

func (e *invalidArgumentError) Error() string { return e.message }

func InvalidArgumentError(message string, a ...any) error {
	if len(a) == 0 {
		return &invalidArgumentError{message: message}
	}
	return &invalidArgumentError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsInvalidArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *invalidArgumentError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// remoteError - array-reported failure that matched no known classification
// ///////////////////////////////////////////////////////////////////////////

type remoteError struct {
	message string
}

func (e *remoteError) Error() string { return e.message }

func RemoteError(message string, a ...any) error {
	if len(a) == 0 {
		return &remoteError{message: message}
	}
	return &remoteError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsRemoteError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *remoteError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// unreachableError
// ///////////////////////////////////////////////////////////////////////////

type unreachableError struct {
	inner   error
	message string
}

func (e *unreachableError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *unreachableError) Unwrap() error { return e.inner }

func UnreachableError(message string, a ...any) error {
	if len(a) == 0 {
		return &unreachableError{message: message}
	}
	return &unreachableError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithUnreachableError(err error, message string, a ...any) error {
	return &unreachableError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsUnreachableError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *unreachableError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// timeoutError
// ///////////////////////////////////////////////////////////////////////////

type timeoutError struct {
	message string
}

func (e *timeoutError) Error() string { return e.message }

func TimeoutError(message string, a ...any) error {
	if len(a) == 0 {
		return &timeoutError{message: message}
	}
	return &timeoutError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *timeoutError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// protocolViolationError - response did not match any known shape
// ///////////////////////////////////////////////////////////////////////////

type protocolViolationError struct {
	message string
}

func (e *protocolViolationError) Error() string { return e.message }

func ProtocolViolationError(message string, a ...any) error {
	if len(a) == 0 {
		return &protocolViolationError{message: message}
	}
	return &protocolViolationError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsProtocolViolationError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *protocolViolationError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// exhaustedRetriesError
// ///////////////////////////////////////////////////////////////////////////

type exhaustedRetriesError struct {
	inner   error
	message string
}

func (e *exhaustedRetriesError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *exhaustedRetriesError) Unwrap() error { return e.inner }

func ExhaustedRetriesError(message string, a ...any) error {
	if len(a) == 0 {
		return &exhaustedRetriesError{message: message}
	}
	return &exhaustedRetriesError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithExhaustedRetriesError(err error, message string, a ...any) error {
	return &exhaustedRetriesError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsExhaustedRetriesError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *exhaustedRetriesError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// resourceBusyError - a delete was refused because live dependents remain
// ///////////////////////////////////////////////////////////////////////////

type resourceBusyError struct {
	message string
}

func (e *resourceBusyError) Error() string { return e.message }

func ResourceBusyError(message string, a ...any) error {
	if len(a) == 0 {
		return &resourceBusyError{message: message}
	}
	return &resourceBusyError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsResourceBusyError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *resourceBusyError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// insufficientCapacityError
// ///////////////////////////////////////////////////////////////////////////

type insufficientCapacityError struct {
	message string
}

func (e *insufficientCapacityError) Error() string { return e.message }

func InsufficientCapacityError(message string, a ...any) error {
	if len(a) == 0 {
		return &insufficientCapacityError{message: message}
	}
	return &insufficientCapacityError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsInsufficientCapacityError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *insufficientCapacityError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// snapshotActivationError
// ///////////////////////////////////////////////////////////////////////////

type snapshotActivationError struct {
	inner   error
	message string
}

func (e *snapshotActivationError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *snapshotActivationError) Unwrap() error { return e.inner }

func SnapshotActivationError(message string, a ...any) error {
	if len(a) == 0 {
		return &snapshotActivationError{message: message}
	}
	return &snapshotActivationError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithSnapshotActivationError(err error, message string, a ...any) error {
	return &snapshotActivationError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsSnapshotActivationError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *snapshotActivationError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// cloneCopyError - an asynchronous background copy ended in a failure state
// ///////////////////////////////////////////////////////////////////////////

type cloneCopyError struct {
	inner   error
	message string
}

func (e *cloneCopyError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *cloneCopyError) Unwrap() error { return e.inner }

func CloneCopyError(message string, a ...any) error {
	if len(a) == 0 {
		return &cloneCopyError{message: message}
	}
	return &cloneCopyError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func WrapWithCloneCopyError(err error, message string, a ...any) error {
	return &cloneCopyError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsCloneCopyError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *cloneCopyError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// invalidNameError - a physical name did not parse under the naming scheme
// ///////////////////////////////////////////////////////////////////////////

type invalidNameError struct {
	name    string
	message string
}

func (e *invalidNameError) Error() string { return e.message }

// Name returns the physical name that failed to parse.
func (e *invalidNameError) Name() string { return e.name }

func InvalidNameError(name, message string) error {
	return &invalidNameError{
		name:    name,
		message: fmt.Sprintf("invalid physical name %q: %s", name, message),
	}
}

func IsInvalidNameError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *invalidNameError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// maxWaitExceededError
// ///////////////////////////////////////////////////////////////////////////

type maxWaitExceededError struct {
	message string
}

func (e *maxWaitExceededError) Error() string { return e.message }

func MaxWaitExceededError(message string, a ...any) error {
	if len(a) == 0 {
		return &maxWaitExceededError{message: message}
	}
	return &maxWaitExceededError{message: fmt.Sprintf(fmt.Sprintf("%s", message), a...)}
}

func IsMaxWaitExceededError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *maxWaitExceededError
	return errors.As(err, &errPtr)
}
