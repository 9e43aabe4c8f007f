// Copyright 2025 Arraykit Authors. All Rights Reserved.

// Package array implements the resource graph manager for block storage
// arrays reached over a failover-capable command transport. It maps logical
// volume, snapshot, and clone lifecycles onto physical array objects, and
// resolves delete-time dependency conflicts by clone promotion and deferred
// tombstone collection.
package array

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/arraykit/arraykit/config"
	. "github.com/arraykit/arraykit/logging"
	"github.com/arraykit/arraykit/storage"
	drivers "github.com/arraykit/arraykit/storage_drivers"
	"github.com/arraykit/arraykit/storage_drivers/array/api"
	"github.com/arraykit/arraykit/utils/errors"
)

// Driver is the array storage driver. All methods re-query the array before
// destructive decisions; nothing about the dependency graph is cached across
// calls.
type Driver struct {
	initialized bool
	Config      drivers.ArrayStorageDriverConfig
	API         api.Executor

	// Copy polling cadence, overridable in tests. Zero means defaults.
	clonePollInterval time.Duration
	cloneWaitTimeout  time.Duration
}

func (d *Driver) Name() string {
	return "array"
}

// BackendName returns the configured backend name, or the first endpoint
// host when none was set.
func (d *Driver) BackendName() string {
	if d.Config.BackendName != "" {
		return d.Config.BackendName
	}
	if len(d.Config.Endpoints) > 0 {
		return d.Name() + "_" + d.Config.Endpoints[0].Host
	}
	return d.Name()
}

func (d *Driver) Initialized() bool {
	return d.initialized
}

// Initialize parses the backend configuration, builds the transport, and
// verifies the configured pool is reachable.
func (d *Driver) Initialize(ctx context.Context, configJSON string) error {
	fields := log.Fields{"Method": "Initialize", "Type": "Driver"}
	Logc(ctx).WithFields(fields).Debug(">>>> Initialize")
	defer Logc(ctx).WithFields(fields).Debug("<<<< Initialize")

	cfg, err := drivers.ParseConfigJSON(configJSON)
	if err != nil {
		return fmt.Errorf("could not parse backend configuration: %v", err)
	}
	return d.initWithConfig(ctx, cfg)
}

// NewDriver builds an initialized driver from an already-parsed backend
// configuration. arrayctl loads its YAML config and comes in here.
func NewDriver(ctx context.Context, cfg *drivers.ArrayStorageDriverConfig) (*Driver, error) {
	d := &Driver{}
	if err := d.initWithConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) initWithConfig(ctx context.Context, cfg *drivers.ArrayStorageDriverConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid backend configuration: %v", err)
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return err
	}

	d.Config = *cfg
	d.API = client

	if _, err = d.GetCapacity(ctx); err != nil {
		return fmt.Errorf("could not reach pool %s: %v", cfg.Pool, err)
	}

	d.initialized = true
	return nil
}

func (d *Driver) Terminate(ctx context.Context) {
	fields := log.Fields{"Method": "Terminate", "Type": "Driver"}
	Logc(ctx).WithFields(fields).Debug(">>>> Terminate")
	defer Logc(ctx).WithFields(fields).Debug("<<<< Terminate")

	d.initialized = false
}

// VolumeOptions carries per-volume provisioning overrides. Zero values fall
// back to the backend config.
type VolumeOptions struct {
	Thin        *bool
	WritePolicy string
	StripeDepth string
	Tiering     string
}

func (d *Driver) volumeParams(name string, sizeGiB int64, opts VolumeOptions) []storage.Param {
	thin := d.Config.ThinProvision
	if opts.Thin != nil {
		thin = *opts.Thin
	}
	writePolicy := d.Config.WritePolicy
	if opts.WritePolicy != "" {
		writePolicy = opts.WritePolicy
	}
	stripeDepth := d.Config.StripeDepth
	if opts.StripeDepth != "" {
		stripeDepth = opts.StripeDepth
	}
	tiering := d.Config.Tiering
	if opts.Tiering != "" {
		tiering = opts.Tiering
	}

	params := []storage.Param{
		{Key: "name", Value: name},
		{Key: "size", Value: strconv.FormatInt(sizeGiB, 10)},
		{Key: "pool", Value: d.Config.Pool},
		{Key: "thin", Value: strconv.FormatBool(thin)},
	}
	if writePolicy != "" {
		params = append(params, storage.Param{Key: "writepolicy", Value: writePolicy})
	}
	if stripeDepth != "" {
		params = append(params, storage.Param{Key: "stripedepth", Value: stripeDepth})
	}
	if tiering != "" {
		params = append(params, storage.Param{Key: "tiering", Value: tiering})
	}
	return params
}

// Create provisions a volume for the given logical ID. A volume that already
// exists with the requested size is reported as success, so a replayed
// request after a timed-out answer converges instead of failing.
func (d *Driver) Create(ctx context.Context, volumeID string, sizeGiB int64, opts VolumeOptions) (string, error) {
	fields := log.Fields{"Method": "Create", "Type": "Driver", "volumeID": volumeID, "sizeGiB": sizeGiB}
	Logc(ctx).WithFields(fields).Debug(">>>> Create")
	defer Logc(ctx).WithFields(fields).Debug("<<<< Create")

	name, err := storage.VolumeName(volumeID)
	if err != nil {
		return "", err
	}
	if sizeGiB <= 0 {
		return "", errors.InvalidArgumentError("volume size must be positive, got %d", sizeGiB)
	}

	cmd := storage.NewCommand(storage.OpCreateVolume, d.volumeParams(name, sizeGiB, opts)...)
	if _, err = d.API.Execute(ctx, cmd); err != nil {
		if errors.IsAlreadyExistsError(err) {
			existing, getErr := d.getResource(ctx, name)
			if getErr == nil && existing.SizeGiB == sizeGiB {
				Logc(ctx).WithField("volume", name).Debug("Volume already exists with requested size.")
				return name, nil
			}
			return "", errors.WrapWithAlreadyExistsError(err, "volume %s exists with a different size", volumeID)
		}
		return "", fmt.Errorf("create volume %s: %w", volumeID, err)
	}
	return name, nil
}

// Resize grows a volume to newSizeGiB. Shrinking is refused before any
// command is sent. Thin volumes grow by attaching a hidden extension object,
// matching how the array extends thin-provisioned space.
func (d *Driver) Resize(ctx context.Context, volumeID string, newSizeGiB int64) error {
	fields := log.Fields{"Method": "Resize", "Type": "Driver", "volumeID": volumeID, "newSizeGiB": newSizeGiB}
	Logc(ctx).WithFields(fields).Debug(">>>> Resize")
	defer Logc(ctx).WithFields(fields).Debug("<<<< Resize")

	name, err := storage.VolumeName(volumeID)
	if err != nil {
		return err
	}
	vol, err := d.getResource(ctx, name)
	if err != nil {
		return fmt.Errorf("resize volume %s: %w", volumeID, err)
	}
	if newSizeGiB <= vol.SizeGiB {
		return errors.InvalidArgumentError(
			"requested size %d GiB does not exceed current size %d GiB of volume %s",
			newSizeGiB, vol.SizeGiB, volumeID)
	}

	if !vol.Thin {
		cmd := storage.NewCommand(storage.OpExtendVolume,
			storage.Param{Key: "name", Value: name},
			storage.Param{Key: "size", Value: strconv.FormatInt(newSizeGiB, 10)},
		)
		if _, err = d.API.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("resize volume %s: %w", volumeID, err)
		}
		return nil
	}

	// Thin volumes cannot be extended in place. Create an extension object
	// of the size delta and splice it onto the volume. The next index comes
	// from the inventory, not from process state, so numbering continues
	// where it left off after a restart.
	inventory, err := d.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("resize volume %s: %w", volumeID, err)
	}
	next := 1
	for _, r := range inventory {
		if idx, ok := storage.ExtensionIndex(r.Name, name); ok && idx >= next {
			next = idx + 1
		}
	}
	auxName := storage.ExtensionName(name, next)

	createCmd := storage.NewCommand(storage.OpCreateVolume,
		d.volumeParams(auxName, newSizeGiB-vol.SizeGiB, VolumeOptions{})...)
	if _, err = d.API.Execute(ctx, createCmd); err != nil {
		return fmt.Errorf("create extension for volume %s: %w", volumeID, err)
	}

	extendCmd := storage.NewCommand(storage.OpExtendVolume,
		storage.Param{Key: "name", Value: name},
		storage.Param{Key: "extension", Value: auxName},
	)
	if _, err = d.API.Execute(ctx, extendCmd); err != nil {
		// The orphaned extension would leak pool space, so undo it.
		if cleanupErr := d.deleteVolumeObject(ctx, auxName); cleanupErr != nil {
			Logc(ctx).WithError(cleanupErr).WithField("extension", auxName).Warning(
				"Could not delete orphaned extension object.")
			err = multierr.Append(err, cleanupErr)
		}
		return fmt.Errorf("extend volume %s: %w", volumeID, err)
	}
	return nil
}

// CreateSnapshot creates and activates a snapshot of a volume. An inactive
// snapshot is unusable as a clone source, so a failed activation rolls the
// snapshot back rather than leaving it behind.
func (d *Driver) CreateSnapshot(ctx context.Context, snapshotID, volumeID string) (string, error) {
	fields := log.Fields{"Method": "CreateSnapshot", "Type": "Driver", "snapshotID": snapshotID, "volumeID": volumeID}
	Logc(ctx).WithFields(fields).Debug(">>>> CreateSnapshot")
	defer Logc(ctx).WithFields(fields).Debug("<<<< CreateSnapshot")

	volName, err := storage.VolumeName(volumeID)
	if err != nil {
		return "", err
	}
	snapName, err := storage.SnapshotName(snapshotID, volumeID)
	if err != nil {
		return "", err
	}

	if _, err = d.getResource(ctx, volName); err != nil {
		return "", errors.WrapWithNotFoundError(err, "source volume %s for snapshot %s", volumeID, snapshotID)
	}

	if err = d.checkSnapshotReserve(ctx); err != nil {
		return "", err
	}

	createCmd := storage.NewCommand(storage.OpCreateSnapshot,
		storage.Param{Key: "name", Value: snapName},
		storage.Param{Key: "volume", Value: volName},
	)
	if _, err = d.API.Execute(ctx, createCmd); err != nil {
		if errors.IsAlreadyExistsError(err) {
			Logc(ctx).WithField("snapshot", snapName).Debug("Snapshot already exists.")
			return snapName, nil
		}
		return "", fmt.Errorf("create snapshot %s of volume %s: %w", snapshotID, volumeID, err)
	}

	activateCmd := storage.NewCommand(storage.OpActivateSnapshot,
		storage.Param{Key: "name", Value: snapName})
	if _, err = d.API.Execute(ctx, activateCmd); err != nil {
		deleteCmd := storage.NewCommand(storage.OpDeleteSnapshot,
			storage.Param{Key: "name", Value: snapName})
		if _, delErr := d.API.Execute(ctx, deleteCmd); delErr != nil && !errors.IsNotFoundError(delErr) {
			Logc(ctx).WithError(delErr).WithField("snapshot", snapName).Warning(
				"Could not roll back inactive snapshot.")
			err = multierr.Append(err, delErr)
		}
		return "", errors.WrapWithSnapshotActivationError(err, "snapshot %s of volume %s", snapshotID, volumeID)
	}

	return snapName, nil
}

// DeleteSnapshot removes a snapshot. An absent snapshot is success. A
// snapshot refused as busy is resolved by promoting one of its dependent
// clones, then deleted.
func (d *Driver) DeleteSnapshot(ctx context.Context, snapshotID, volumeID string) error {
	fields := log.Fields{"Method": "DeleteSnapshot", "Type": "Driver", "snapshotID": snapshotID, "volumeID": volumeID}
	Logc(ctx).WithFields(fields).Debug(">>>> DeleteSnapshot")
	defer Logc(ctx).WithFields(fields).Debug("<<<< DeleteSnapshot")

	snapName, err := storage.SnapshotName(snapshotID, volumeID)
	if err != nil {
		return err
	}

	cmd := storage.NewCommand(storage.OpDeleteSnapshot, storage.Param{Key: "name", Value: snapName})
	_, err = d.API.Execute(ctx, cmd)
	switch {
	case err == nil:
		return nil
	case errors.IsNotFoundError(err):
		Logc(ctx).WithField("snapshot", snapName).Debug("Snapshot not found, already deleted.")
		return nil
	case errors.IsBusyError(err):
		g, gErr := d.dependencyGraph(ctx)
		if gErr != nil {
			return fmt.Errorf("delete snapshot %s: %w", snapshotID, gErr)
		}
		if live := g.LiveDependents(snapName, ""); len(live) > 0 {
			return errors.ResourceBusyError(
				"snapshot %s of volume %s has dependent clones: %v", snapshotID, volumeID, live)
		}
		return d.removeSnapshotWithPromotion(ctx, g, snapName, "")
	default:
		return fmt.Errorf("delete snapshot %s of volume %s: %w", snapshotID, volumeID, err)
	}
}

// CreateClone provisions a new volume whose contents are copied from another
// volume. The copy runs from a transient snapshot named after the clone; the
// snapshot is removed once the background copy completes, and every object
// this call created is rolled back if any stage fails.
func (d *Driver) CreateClone(ctx context.Context, cloneID, sourceVolumeID string, sizeGiB int64) (string, error) {
	fields := log.Fields{
		"Method": "CreateClone", "Type": "Driver",
		"cloneID": cloneID, "sourceVolumeID": sourceVolumeID, "sizeGiB": sizeGiB,
	}
	Logc(ctx).WithFields(fields).Debug(">>>> CreateClone")
	defer Logc(ctx).WithFields(fields).Debug("<<<< CreateClone")

	cloneName, err := storage.VolumeName(cloneID)
	if err != nil {
		return "", err
	}

	snapName, err := d.CreateSnapshot(ctx, cloneID, sourceVolumeID)
	if err != nil {
		return "", fmt.Errorf("create clone %s of volume %s: %w", cloneID, sourceVolumeID, err)
	}

	if err = d.cloneFromSnapshot(ctx, cloneName, snapName, sizeGiB); err != nil {
		if cleanupErr := d.deleteSnapshotObject(ctx, snapName); cleanupErr != nil {
			Logc(ctx).WithError(cleanupErr).WithField("snapshot", snapName).Warning(
				"Could not roll back transient clone snapshot.")
			err = multierr.Append(err, cleanupErr)
		}
		return "", fmt.Errorf("create clone %s of volume %s: %w", cloneID, sourceVolumeID, err)
	}

	// The clone holds a full copy of the data, so promote it off the
	// transient snapshot and drop the snapshot.
	promoteCmd := storage.NewCommand(storage.OpPromoteClone,
		storage.Param{Key: "clone", Value: cloneName},
		storage.Param{Key: "snapshot", Value: snapName},
	)
	if _, err = d.API.Execute(ctx, promoteCmd); err != nil {
		return "", fmt.Errorf("detach clone %s from transient snapshot: %w", cloneID, err)
	}
	if err = d.deleteSnapshotObject(ctx, snapName); err != nil {
		return "", fmt.Errorf("remove transient snapshot for clone %s: %w", cloneID, err)
	}

	return cloneName, nil
}

// CreateVolumeFromSnapshot provisions a new volume copied from an existing
// snapshot of the given volume. The snapshot belongs to the caller and is
// left in place.
func (d *Driver) CreateVolumeFromSnapshot(
	ctx context.Context, volumeID, snapshotID, sourceVolumeID string, sizeGiB int64,
) (string, error) {
	fields := log.Fields{
		"Method": "CreateVolumeFromSnapshot", "Type": "Driver",
		"volumeID": volumeID, "snapshotID": snapshotID, "sourceVolumeID": sourceVolumeID,
	}
	Logc(ctx).WithFields(fields).Debug(">>>> CreateVolumeFromSnapshot")
	defer Logc(ctx).WithFields(fields).Debug("<<<< CreateVolumeFromSnapshot")

	name, err := storage.VolumeName(volumeID)
	if err != nil {
		return "", err
	}
	snapName, err := storage.SnapshotName(snapshotID, sourceVolumeID)
	if err != nil {
		return "", err
	}
	if _, err = d.getResource(ctx, snapName); err != nil {
		return "", errors.WrapWithNotFoundError(err, "source snapshot %s of volume %s", snapshotID, sourceVolumeID)
	}

	if err = d.cloneFromSnapshot(ctx, name, snapName, sizeGiB); err != nil {
		return "", fmt.Errorf("create volume %s from snapshot %s: %w", volumeID, snapshotID, err)
	}
	return name, nil
}

// cloneFromSnapshot creates a clone object, waits for its background copy,
// and deletes the clone again if the copy does not complete.
func (d *Driver) cloneFromSnapshot(ctx context.Context, cloneName, snapName string, sizeGiB int64) error {
	params := []storage.Param{
		{Key: "name", Value: cloneName},
		{Key: "snapshot", Value: snapName},
		{Key: "pool", Value: d.Config.Pool},
	}
	if sizeGiB > 0 {
		params = append(params, storage.Param{Key: "size", Value: strconv.FormatInt(sizeGiB, 10)})
	}

	if _, err := d.API.Execute(ctx, storage.NewCommand(storage.OpCreateClone, params...)); err != nil {
		return err
	}

	if err := d.waitForCopy(ctx, cloneName); err != nil {
		if cleanupErr := d.deleteVolumeObject(ctx, cloneName); cleanupErr != nil {
			Logc(ctx).WithError(cleanupErr).WithField("clone", cloneName).Warning(
				"Could not roll back failed clone.")
			err = multierr.Append(err, cleanupErr)
		}
		return err
	}
	return nil
}

// waitForCopy polls the background copy of cloneName until it completes.
func (d *Driver) waitForCopy(ctx context.Context, cloneName string) error {
	var permErr error
	permanent := func(err error) error {
		permErr = err
		return backoff.Permanent(err)
	}

	checkCopy := func() error {
		cmd := storage.NewCommand(storage.OpCloneStatus, storage.Param{Key: "name", Value: cloneName})
		resp, err := d.API.Execute(ctx, cmd)
		if err != nil {
			return permanent(err)
		}
		if resp.Copy == nil {
			return permanent(errors.ProtocolViolationError(
				"clone status response for %s carried no copy payload", cloneName))
		}
		switch resp.Copy.State {
		case storage.CopyStateComplete:
			return nil
		case storage.CopyStateFailed:
			return permanent(errors.CloneCopyError(
				"background copy for clone %s failed at %d%%", cloneName, resp.Copy.PercentDone))
		default:
			return fmt.Errorf("copy %d%% done", resp.Copy.PercentDone)
		}
	}
	copyNotify := func(err error, duration time.Duration) {
		Logc(ctx).WithFields(log.Fields{
			"clone":     cloneName,
			"increment": duration,
		}).Debugf("Copy not complete, waiting. %v", err)
	}
	interval := d.clonePollInterval
	if interval <= 0 {
		interval = config.DefaultCloneCopyPollInterval
	}
	timeout := d.cloneWaitTimeout
	if timeout <= 0 {
		timeout = config.DefaultCloneCopyTimeout
	}
	copyBackoff := backoff.NewExponentialBackOff()
	copyBackoff.InitialInterval = interval
	copyBackoff.Multiplier = 1.414
	copyBackoff.RandomizationFactor = 0.1
	copyBackoff.MaxElapsedTime = timeout

	if err := backoff.RetryNotify(checkCopy, copyBackoff, copyNotify); err != nil {
		if permErr != nil {
			return permErr
		}
		return errors.MaxWaitExceededError(
			"background copy for clone %s did not complete after %v: %v",
			cloneName, copyBackoff.MaxElapsedTime, err)
	}
	return nil
}

// Destroy removes a volume and resolves its dependency graph. An absent
// volume is success. Without cascade, any snapshot carrying a live dependent
// clone refuses the whole operation before anything is deleted. A final
// delete the array still refuses is converted into a tombstone rename so the
// caller's delete completes and the object is collected later.
func (d *Driver) Destroy(ctx context.Context, volumeID string, cascade bool) error {
	fields := log.Fields{"Method": "Destroy", "Type": "Driver", "volumeID": volumeID, "cascade": cascade}
	Logc(ctx).WithFields(fields).Debug(">>>> Destroy")
	defer Logc(ctx).WithFields(fields).Debug("<<<< Destroy")

	if d.Config.DisableDelete {
		Logc(ctx).WithField("volumeID", volumeID).Info("Volume deletion is disabled by backend config.")
		return nil
	}

	name, err := storage.VolumeName(volumeID)
	if err != nil {
		return err
	}
	volName := name

	g, err := d.dependencyGraph(ctx)
	if err != nil {
		return fmt.Errorf("destroy volume %s: %w", volumeID, err)
	}

	// An earlier refused delete may have left the volume tombstoned.
	if _, ok := g.Nodes[name]; !ok {
		ts, tsErr := storage.Tombstone(name)
		if tsErr != nil {
			return tsErr
		}
		if _, ok = g.Nodes[ts]; ok {
			name = ts
		} else {
			Logc(ctx).WithField("volumeID", volumeID).Debug("Volume not found, already deleted.")
			return nil
		}
	}

	// Only snapshot dependents are resolved here. Tombstones re-pointed
	// onto this volume by earlier promotions stay, and make the final
	// delete defer via a tombstone rename.
	var snapshots []string
	for _, dep := range g.Nodes[name].Dependents {
		if kind, kindErr := storage.KindOf(dep); kindErr == nil && kind == storage.KindSnapshot {
			snapshots = append(snapshots, dep)
		}
	}

	if !cascade {
		for _, snap := range snapshots {
			if live := g.LiveDependents(snap, name); len(live) > 0 {
				return errors.ResourceBusyError(
					"volume %s has snapshot %s with dependent clones: %v", volumeID, snap, live)
			}
		}
	}

	for _, snap := range snapshots {
		if err = d.removeSnapshotWithPromotion(ctx, g, snap, name); err != nil {
			return fmt.Errorf("destroy volume %s: %w", volumeID, err)
		}
	}

	// Extension objects carry their owner in the name, so the inventory is
	// the source of truth for them. A driver restarted since the resize
	// still cascades to every extension here.
	var extensions []string
	for nodeName := range g.Nodes {
		if _, ok := storage.ExtensionIndex(nodeName, volName); ok {
			extensions = append(extensions, nodeName)
		}
	}
	sort.Strings(extensions)
	for _, auxName := range extensions {
		if err = d.deleteVolumeObject(ctx, auxName); err != nil {
			return fmt.Errorf("destroy extension of volume %s: %w", volumeID, err)
		}
	}

	cmd := storage.NewCommand(storage.OpDeleteVolume, storage.Param{Key: "name", Value: name})
	_, err = d.API.Execute(ctx, cmd)
	switch {
	case err == nil, errors.IsNotFoundError(err):
		return nil
	case errors.IsBusyError(err) && !storage.IsHidden(name):
		// The array still refuses the delete, typically because promoted
		// dependents now hang off this object. Hide it and collect later.
		ts, tsErr := storage.Tombstone(name)
		if tsErr != nil {
			return tsErr
		}
		renameCmd := storage.NewCommand(storage.OpRenameVolume,
			storage.Param{Key: "name", Value: name},
			storage.Param{Key: "newname", Value: ts},
		)
		if _, err = d.API.Execute(ctx, renameCmd); err != nil {
			return fmt.Errorf("tombstone volume %s: %w", volumeID, err)
		}
		Logc(ctx).WithFields(log.Fields{
			"volume":    name,
			"tombstone": ts,
		}).Info("Volume delete deferred, tombstoned for later collection.")
		return nil
	default:
		return fmt.Errorf("destroy volume %s: %w", volumeID, err)
	}
}

// removeSnapshotWithPromotion executes the promotion plan that makes snap
// deletable, excluding exclude from the dependent count.
func (d *Driver) removeSnapshotWithPromotion(ctx context.Context, g Graph, snap, exclude string) error {
	steps, err := PlanSnapshotRemoval(g, snap, exclude)
	if err != nil {
		return err
	}
	for _, step := range steps {
		Logc(ctx).WithFields(log.Fields{
			"action": step.Action.String(),
			"target": step.Target,
			"onto":   step.Onto,
		}).Debug("Executing promotion plan step.")

		switch step.Action {
		case ActionPromote:
			cmd := storage.NewCommand(storage.OpPromoteClone,
				storage.Param{Key: "clone", Value: step.Target},
				storage.Param{Key: "snapshot", Value: step.Onto},
			)
			if _, err = d.API.Execute(ctx, cmd); err != nil {
				return fmt.Errorf("promote clone %s over snapshot %s: %w", step.Target, step.Onto, err)
			}
		case ActionDelete:
			kind, kindErr := storage.KindOf(step.Target)
			if kindErr != nil {
				return kindErr
			}
			if kind == storage.KindSnapshot {
				err = d.deleteSnapshotObject(ctx, step.Target)
			} else {
				err = d.deleteVolumeObject(ctx, step.Target)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// GetCapacity reports the configured pool's capacity.
func (d *Driver) GetCapacity(ctx context.Context) (*storage.PoolCapacity, error) {
	return d.poolCapacity(ctx, d.Config.Pool)
}

func (d *Driver) poolCapacity(ctx context.Context, pool string) (*storage.PoolCapacity, error) {
	cmd := storage.NewCommand(storage.OpGetPoolCapacity, storage.Param{Key: "pool", Value: pool})
	resp, err := d.API.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Capacity == nil {
		return nil, errors.ProtocolViolationError("capacity response for pool %s carried no payload", pool)
	}
	return resp.Capacity, nil
}

// checkSnapshotReserve refuses snapshot creation when the snapshot reserve
// has drained below the configured minimum. Snapshots in a full reserve go
// read-only or fail in ways far harder to diagnose than this error.
func (d *Driver) checkSnapshotReserve(ctx context.Context) error {
	pool := d.Config.ReservePool
	if pool == "" {
		pool = d.Config.Pool
	}
	capacity, err := d.poolCapacity(ctx, pool)
	if err != nil {
		return fmt.Errorf("check snapshot reserve: %w", err)
	}
	if capacity.ReserveFreePct < d.Config.ReservePctMin {
		return errors.InsufficientCapacityError(
			"snapshot reserve in pool %s is %d%% free, below the %d%% minimum",
			pool, capacity.ReserveFreePct, d.Config.ReservePctMin)
	}
	return nil
}

// List returns the logical IDs of all live volumes. Hidden objects,
// extension objects, and snapshots are not listed.
func (d *Driver) List(ctx context.Context) ([]string, error) {
	resp, err := d.API.Execute(ctx, storage.NewCommand(storage.OpListVolumes))
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range resp.Resources {
		if r.Kind() != storage.KindVolume || storage.IsExtension(r.Name) {
			continue
		}
		id, idErr := storage.LogicalID(r.Name)
		if idErr != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListResources returns every physical object on the array, including
// snapshots and tombstones. arrayctl uses this for the raw inventory view.
func (d *Driver) ListResources(ctx context.Context) ([]storage.PhysicalResource, error) {
	resp, err := d.API.Execute(ctx, storage.NewCommand(storage.OpListVolumes))
	if err != nil {
		return nil, err
	}
	return resp.Resources, nil
}

// dependencyGraph builds the adjacency view from a single inventory query.
func (d *Driver) dependencyGraph(ctx context.Context) (Graph, error) {
	resp, err := d.API.Execute(ctx, storage.NewCommand(storage.OpListVolumes))
	if err != nil {
		return Graph{}, err
	}
	return NewGraph(resp.Resources), nil
}

func (d *Driver) getResource(ctx context.Context, name string) (*storage.PhysicalResource, error) {
	cmd := storage.NewCommand(storage.OpGetVolume, storage.Param{Key: "name", Value: name})
	resp, err := d.API.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return resp.Resource()
}

// deleteVolumeObject deletes one physical volume object, treating absence as
// success.
func (d *Driver) deleteVolumeObject(ctx context.Context, name string) error {
	cmd := storage.NewCommand(storage.OpDeleteVolume, storage.Param{Key: "name", Value: name})
	if _, err := d.API.Execute(ctx, cmd); err != nil && !errors.IsNotFoundError(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// deleteSnapshotObject deletes one physical snapshot object, treating
// absence as success.
func (d *Driver) deleteSnapshotObject(ctx context.Context, name string) error {
	cmd := storage.NewCommand(storage.OpDeleteSnapshot, storage.Param{Key: "name", Value: name})
	if _, err := d.API.Execute(ctx, cmd); err != nil && !errors.IsNotFoundError(err) {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return nil
}
