// Copyright 2025 Arraykit Authors. All Rights Reserved.

// Package fake provides an in-memory array backend implementing the same
// command surface as a real array's management interface. It enforces the
// array-side dependency rules (duplicate names, busy deletes, promotion
// re-pointing) so driver behavior can be tested without hardware.
package fake

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/arraykit/arraykit/storage"
	"github.com/arraykit/arraykit/utils/errors"
)

type object struct {
	storage.PhysicalResource
	active bool // snapshots only
}

type copyProgress struct {
	percent int
	failed  bool
}

// Backend is an in-memory array. The zero value is not usable; call
// NewBackend.
type Backend struct {
	mutex   sync.Mutex
	objects map[string]*object
	copies  map[string]*copyProgress
	pool    storage.PoolCapacity
	now     time.Time

	// CopyStepPercent is how far a background copy advances per status
	// poll. Defaults to 50, so a copy completes on the second poll.
	CopyStepPercent int

	// FailCopy marks clone names whose background copy reports failure.
	FailCopy map[string]bool

	// FailActivation marks snapshot names whose activation fails.
	FailActivation map[string]bool
}

func NewBackend(pool storage.PoolCapacity) *Backend {
	return &Backend{
		objects:         make(map[string]*object),
		copies:          make(map[string]*copyProgress),
		pool:            pool,
		now:             time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CopyStepPercent: 50,
		FailCopy:        make(map[string]bool),
		FailActivation:  make(map[string]bool),
	}
}

// Add seeds one resource directly, bypassing command semantics. Tests use
// this to lay out pre-existing dependency graphs.
func (b *Backend) Add(res storage.PhysicalResource, active bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.objects[res.Name] = &object{PhysicalResource: res, active: active}
}

// Resource returns a copy of the named object, if present.
func (b *Backend) Resource(name string) (storage.PhysicalResource, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	obj, ok := b.objects[name]
	if !ok {
		return storage.PhysicalResource{}, false
	}
	return b.snapshotOf(obj), true
}

// Names returns the names of all objects, for asserting end states.
func (b *Backend) Names() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	names := make([]string, 0, len(b.objects))
	for name := range b.objects {
		names = append(names, name)
	}
	return names
}

// SetReserveFreePct adjusts the reported snapshot reserve.
func (b *Backend) SetReserveFreePct(pct int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pool.ReserveFreePct = pct
}

// tick returns a strictly increasing timestamp so creation order is always
// recoverable from CreatedAt.
func (b *Backend) tick() time.Time {
	b.now = b.now.Add(time.Minute)
	return b.now
}

func (b *Backend) snapshotOf(obj *object) storage.PhysicalResource {
	res := obj.PhysicalResource
	res.Dependents = append([]string{}, obj.Dependents...)
	return res
}

// Execute implements api.Executor.
func (b *Backend) Execute(_ context.Context, cmd storage.Command) (*storage.Response, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch cmd.Op {
	case storage.OpCreateVolume:
		return b.createVolume(cmd)
	case storage.OpGetVolume:
		return b.getVolume(cmd)
	case storage.OpListVolumes:
		return b.listVolumes()
	case storage.OpListDependents:
		return b.listDependents(cmd)
	case storage.OpExtendVolume:
		return b.extendVolume(cmd)
	case storage.OpRenameVolume:
		return b.renameVolume(cmd)
	case storage.OpDeleteVolume:
		return b.deleteVolume(cmd)
	case storage.OpCreateSnapshot:
		return b.createSnapshot(cmd)
	case storage.OpActivateSnapshot:
		return b.activateSnapshot(cmd)
	case storage.OpDeleteSnapshot:
		return b.deleteSnapshot(cmd)
	case storage.OpCreateClone:
		return b.createClone(cmd)
	case storage.OpCloneStatus:
		return b.cloneStatus(cmd)
	case storage.OpPromoteClone:
		return b.promoteClone(cmd)
	case storage.OpGetPoolCapacity:
		capacity := b.pool
		return &storage.Response{Capacity: &capacity}, nil
	default:
		return nil, errors.InvalidArgumentError("unknown operation %q", cmd.Op)
	}
}

func (b *Backend) createVolume(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	if _, ok := b.objects[name]; ok {
		return nil, errors.AlreadyExistsError("object %s already exists", name)
	}
	sizeStr, _ := cmd.Param("size")
	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil || size <= 0 {
		return nil, errors.InvalidArgumentError("bad size %q for volume %s", sizeStr, name)
	}
	thinStr, _ := cmd.Param("thin")
	thin, _ := strconv.ParseBool(thinStr)

	b.objects[name] = &object{PhysicalResource: storage.PhysicalResource{
		Name:      name,
		SizeGiB:   size,
		Thin:      thin,
		CreatedAt: b.tick(),
	}}
	return &storage.Response{}, nil
}

func (b *Backend) getVolume(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("object %s does not exist", name)
	}
	return &storage.Response{Resources: []storage.PhysicalResource{b.snapshotOf(obj)}}, nil
}

func (b *Backend) listVolumes() (*storage.Response, error) {
	resources := make([]storage.PhysicalResource, 0, len(b.objects))
	for _, obj := range b.objects {
		resources = append(resources, b.snapshotOf(obj))
	}
	return &storage.Response{Resources: resources}, nil
}

func (b *Backend) listDependents(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("object %s does not exist", name)
	}
	var resources []storage.PhysicalResource
	for _, dep := range obj.Dependents {
		if depObj, ok := b.objects[dep]; ok {
			resources = append(resources, b.snapshotOf(depObj))
		}
	}
	return &storage.Response{Resources: resources}, nil
}

func (b *Backend) extendVolume(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("object %s does not exist", name)
	}

	if extName, ok := cmd.Param("extension"); ok {
		ext, found := b.objects[extName]
		if !found {
			return nil, errors.NotFoundError("extension object %s does not exist", extName)
		}
		obj.SizeGiB += ext.SizeGiB
		return &storage.Response{}, nil
	}

	sizeStr, _ := cmd.Param("size")
	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil || size <= obj.SizeGiB {
		return nil, errors.InvalidArgumentError("bad size %q for extend of %s", sizeStr, name)
	}
	obj.SizeGiB = size
	return &storage.Response{}, nil
}

func (b *Backend) renameVolume(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	newName, _ := cmd.Param("newname")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("object %s does not exist", name)
	}
	if _, ok = b.objects[newName]; ok {
		return nil, errors.AlreadyExistsError("object %s already exists", newName)
	}

	delete(b.objects, name)
	obj.Name = newName
	b.objects[newName] = obj

	// Keep the graph consistent under the new name.
	for _, other := range b.objects {
		if other.Origin == name {
			other.Origin = newName
		}
		for i, dep := range other.Dependents {
			if dep == name {
				other.Dependents[i] = newName
			}
		}
	}
	return &storage.Response{}, nil
}

func (b *Backend) deleteVolume(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("object %s does not exist", name)
	}
	if len(obj.Dependents) > 0 {
		return nil, errors.BusyError("object %s has dependent objects", name)
	}
	b.detachFromOrigin(obj)
	delete(b.objects, name)
	delete(b.copies, name)
	return &storage.Response{}, nil
}

func (b *Backend) createSnapshot(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	volName, _ := cmd.Param("volume")
	if _, ok := b.objects[name]; ok {
		return nil, errors.AlreadyExistsError("object %s already exists", name)
	}
	vol, ok := b.objects[volName]
	if !ok {
		return nil, errors.NotFoundError("volume %s does not exist", volName)
	}

	b.objects[name] = &object{PhysicalResource: storage.PhysicalResource{
		Name:      name,
		SizeGiB:   vol.SizeGiB,
		Origin:    volName,
		CreatedAt: b.tick(),
	}}
	vol.Dependents = append(vol.Dependents, name)
	return &storage.Response{}, nil
}

func (b *Backend) activateSnapshot(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("snapshot %s does not exist", name)
	}
	if b.FailActivation[name] {
		return nil, errors.RemoteError("could not activate snapshot %s", name)
	}
	obj.active = true
	return &storage.Response{}, nil
}

func (b *Backend) deleteSnapshot(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	obj, ok := b.objects[name]
	if !ok {
		return nil, errors.NotFoundError("snapshot %s does not exist", name)
	}
	if len(obj.Dependents) > 0 {
		return nil, errors.BusyError("snapshot %s has dependent clones", name)
	}
	b.detachFromOrigin(obj)
	delete(b.objects, name)
	return &storage.Response{}, nil
}

func (b *Backend) createClone(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	snapName, _ := cmd.Param("snapshot")
	if _, ok := b.objects[name]; ok {
		return nil, errors.AlreadyExistsError("object %s already exists", name)
	}
	snap, ok := b.objects[snapName]
	if !ok {
		return nil, errors.NotFoundError("snapshot %s does not exist", snapName)
	}
	if !snap.active {
		return nil, errors.InvalidArgumentError("snapshot %s is not activated", snapName)
	}

	size := snap.SizeGiB
	if sizeStr, ok := cmd.Param("size"); ok {
		parsed, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil || parsed < snap.SizeGiB {
			return nil, errors.InvalidArgumentError("bad size %q for clone %s", sizeStr, name)
		}
		size = parsed
	}

	b.objects[name] = &object{PhysicalResource: storage.PhysicalResource{
		Name:      name,
		SizeGiB:   size,
		Origin:    snapName,
		CreatedAt: b.tick(),
	}}
	snap.Dependents = append(snap.Dependents, name)
	b.copies[name] = &copyProgress{}
	return &storage.Response{}, nil
}

func (b *Backend) cloneStatus(cmd storage.Command) (*storage.Response, error) {
	name, _ := cmd.Param("name")
	if _, ok := b.objects[name]; !ok {
		return nil, errors.NotFoundError("clone %s does not exist", name)
	}

	progress, ok := b.copies[name]
	if !ok {
		// No copy in flight; the clone is long since independent.
		return &storage.Response{Copy: &storage.CopyStatus{
			Name: name, State: storage.CopyStateComplete, PercentDone: 100,
		}}, nil
	}

	if b.FailCopy[name] {
		progress.failed = true
		return &storage.Response{Copy: &storage.CopyStatus{
			Name: name, State: storage.CopyStateFailed, PercentDone: progress.percent,
		}}, nil
	}

	step := b.CopyStepPercent
	if step <= 0 {
		step = 50
	}
	progress.percent += step
	if progress.percent < 100 {
		return &storage.Response{Copy: &storage.CopyStatus{
			Name: name, State: storage.CopyStateRunning, PercentDone: progress.percent,
		}}, nil
	}

	// The copy is complete but the clone remains a dependent of its source
	// snapshot until explicitly promoted.
	delete(b.copies, name)
	return &storage.Response{Copy: &storage.CopyStatus{
		Name: name, State: storage.CopyStateComplete, PercentDone: 100,
	}}, nil
}

func (b *Backend) promoteClone(cmd storage.Command) (*storage.Response, error) {
	cloneName, _ := cmd.Param("clone")
	snapName, _ := cmd.Param("snapshot")
	clone, ok := b.objects[cloneName]
	if !ok {
		return nil, errors.NotFoundError("clone %s does not exist", cloneName)
	}
	snap, ok := b.objects[snapName]
	if !ok {
		return nil, errors.NotFoundError("snapshot %s does not exist", snapName)
	}

	// The promoted clone detaches from the snapshot and inherits every
	// other dependent, which re-points to the clone.
	clone.Origin = ""
	for _, dep := range snap.Dependents {
		if dep == cloneName {
			continue
		}
		if depObj, ok := b.objects[dep]; ok {
			depObj.Origin = cloneName
		}
		clone.Dependents = append(clone.Dependents, dep)
	}
	snap.Dependents = nil
	return &storage.Response{}, nil
}

// detachFromOrigin removes obj from its origin's dependent list.
func (b *Backend) detachFromOrigin(obj *object) {
	if obj.Origin == "" {
		return
	}
	origin, ok := b.objects[obj.Origin]
	if !ok {
		return
	}
	deps := origin.Dependents[:0]
	for _, dep := range origin.Dependents {
		if dep != obj.Name {
			deps = append(deps, dep)
		}
	}
	origin.Dependents = deps
	obj.Origin = ""
}
