// Copyright 2025 Arraykit Authors. All Rights Reserved.

package storage

import (
	"strconv"
	"strings"

	"github.com/arraykit/arraykit/utils/errors"
)

// Physical names encode the resource kind in a prefix so that the kind is
// always recoverable from the name alone:
//
//	v_<volume-id>                  live volume
//	s_<snapshot-id>_<volume-id>    snapshot of a volume
//	t_<id>                         tombstoned object awaiting garbage collection
const (
	volumePrefix    = "v_"
	snapshotPrefix  = "s_"
	tombstonePrefix = "t_"
)

// Kind is the resource kind encoded in a physical name.
type Kind int

const (
	KindUnknown Kind = iota
	KindVolume
	KindSnapshot
	KindTombstone
)

func (k Kind) String() string {
	switch k {
	case KindVolume:
		return "volume"
	case KindSnapshot:
		return "snapshot"
	case KindTombstone:
		return "tombstone"
	default:
		return "unknown"
	}
}

// VolumeName maps a logical volume id to its physical name. Ids that already
// carry a kind prefix are rejected; passing a physical name here is always a
// caller bug.
func VolumeName(id string) (string, error) {
	if id == "" {
		return "", errors.InvalidNameError(id, "empty volume id")
	}
	for _, prefix := range []string{volumePrefix, snapshotPrefix, tombstonePrefix} {
		if strings.HasPrefix(id, prefix) {
			return "", errors.InvalidNameError(id, "volume id already carries a kind prefix")
		}
	}
	return volumePrefix + id, nil
}

// SnapshotName maps a snapshot id and its source volume id to the snapshot's
// physical name. The source volume id is recoverable from the result.
func SnapshotName(snapshotID, volumeID string) (string, error) {
	if snapshotID == "" || volumeID == "" {
		return "", errors.InvalidNameError(snapshotID+"_"+volumeID, "empty snapshot or volume id")
	}
	if strings.Contains(snapshotID, "_") {
		return "", errors.InvalidNameError(snapshotID, "snapshot id must not contain an underscore")
	}
	return snapshotPrefix + snapshotID + "_" + volumeID, nil
}

// Tombstone converts any physical name into its tombstoned form, preserving
// the id portion so the original object remains identifiable during GC walks.
func Tombstone(name string) (string, error) {
	kind, err := KindOf(name)
	if err != nil {
		return "", err
	}
	if kind == KindTombstone {
		return name, nil
	}
	return tombstonePrefix + name[len(volumePrefix):], nil
}

// KindOf reports the resource kind encoded in a physical name.
func KindOf(name string) (Kind, error) {
	switch {
	case strings.HasPrefix(name, volumePrefix) && len(name) > len(volumePrefix):
		return KindVolume, nil
	case strings.HasPrefix(name, snapshotPrefix) && len(name) > len(snapshotPrefix):
		if _, _, err := SnapshotParts(name); err != nil {
			return KindUnknown, err
		}
		return KindSnapshot, nil
	case strings.HasPrefix(name, tombstonePrefix) && len(name) > len(tombstonePrefix):
		return KindTombstone, nil
	default:
		return KindUnknown, errors.InvalidNameError(name, "unknown kind prefix")
	}
}

// LogicalID recovers the logical id from a physical name. For snapshots this
// is the snapshot id; the source volume id is available via SnapshotParts.
func LogicalID(name string) (string, error) {
	kind, err := KindOf(name)
	if err != nil {
		return "", err
	}
	switch kind {
	case KindSnapshot:
		snapshotID, _, err := SnapshotParts(name)
		return snapshotID, err
	default:
		return name[len(volumePrefix):], nil
	}
}

// SnapshotParts splits a snapshot physical name into snapshot id and source
// volume id.
func SnapshotParts(name string) (snapshotID, volumeID string, err error) {
	if !strings.HasPrefix(name, snapshotPrefix) {
		return "", "", errors.InvalidNameError(name, "not a snapshot name")
	}
	rest := name[len(snapshotPrefix):]
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.InvalidNameError(name, "snapshot name must encode snapshot and volume ids")
	}
	return parts[0], parts[1], nil
}

// IsHidden reports whether a physical name refers to a tombstoned object,
// which dependency walks skip except during final garbage collection.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, tombstonePrefix)
}

// Extension objects splice extra space onto thin volumes that cannot be
// extended in place. The owning volume is encoded in the name, so ownership
// is recoverable from an inventory listing alone and survives process
// restarts:
//
//	v_<volume-id>.ext<n>
const extensionInfix = ".ext"

// ExtensionName returns the physical name of the nth extension object of a
// volume.
func ExtensionName(volumeName string, n int) string {
	return volumeName + extensionInfix + strconv.Itoa(n)
}

// ExtensionIndex reports the index encoded in an extension object name, if
// name is an extension of volumeName.
func ExtensionIndex(name, volumeName string) (int, bool) {
	rest, found := strings.CutPrefix(name, volumeName+extensionInfix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// IsExtension reports whether a physical name refers to an extension object
// of any volume.
func IsExtension(name string) bool {
	i := strings.LastIndex(name, extensionInfix)
	if i < 1 {
		return false
	}
	_, ok := ExtensionIndex(name, name[:i])
	return ok
}
