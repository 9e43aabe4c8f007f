// Copyright 2025 Arraykit Authors. All Rights Reserved.

package storage

import (
	"fmt"
	"time"
)

// Operation names understood by every dialect. The codec maps these onto the
// wire format; the graph manager never sees wire syntax.
const (
	OpCreateVolume    = "create-volume"
	OpDeleteVolume    = "delete-volume"
	OpExtendVolume    = "extend-volume"
	OpRenameVolume    = "rename-volume"
	OpGetVolume       = "get-volume"
	OpListVolumes     = "list-volumes"
	OpCreateSnapshot  = "create-snapshot"
	OpActivateSnapshot = "activate-snapshot"
	OpDeleteSnapshot  = "delete-snapshot"
	OpListDependents  = "list-dependents"
	OpCreateClone     = "create-clone"
	OpPromoteClone    = "promote-clone"
	OpCloneStatus     = "clone-status"
	OpGetPoolCapacity = "get-pool-capacity"
)

// Param is one ordered command parameter. Order matters for the CLI dialect,
// so parameters are a slice, not a map.
type Param struct {
	Key   string
	Value string
}

// Command is an immutable operation request. It is built by the graph
// manager, encoded once by a dialect, and not retained afterward.
type Command struct {
	Op     string
	Params []Param
}

func NewCommand(op string, params ...Param) Command {
	return Command{Op: op, Params: params}
}

// Param returns the value for key, if present.
func (c Command) Param(key string) (string, bool) {
	for _, p := range c.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%d params)", c.Op, len(c.Params))
}

// CopyState is the lifecycle state of an asynchronous background copy.
type CopyState string

const (
	CopyStateRunning  CopyState = "running"
	CopyStateComplete CopyState = "complete"
	CopyStateFailed   CopyState = "failed"
)

// CopyStatus reports the progress of one background clone copy.
type CopyStatus struct {
	Name        string
	State       CopyState
	PercentDone int
}

// PoolCapacity describes one array-side resource pool, including the
// snapshot reserve set aside for metadata operations.
type PoolCapacity struct {
	Name           string
	TotalGiB       int64
	FreeGiB        int64
	ReserveFreePct int
}

// PhysicalResource is a volume, snapshot, or tombstoned object as reported by
// the array. The array is the source of truth; callers re-query before any
// destructive operation rather than caching these.
type PhysicalResource struct {
	Name       string
	SizeGiB    int64
	Thin       bool
	Origin     string   // snapshot a clone was created from, if any
	Dependents []string // physical names of dependent clones
	CreatedAt  time.Time
}

// Kind reports the resource kind encoded in the physical name. An
// unparseable name reports KindUnknown.
func (r PhysicalResource) Kind() Kind {
	k, err := KindOf(r.Name)
	if err != nil {
		return KindUnknown
	}
	return k
}

// Response is the decoded result of one command. Exactly one payload field
// is populated, per the command's operation; a bare successful response has
// only Raw set.
type Response struct {
	Resources []PhysicalResource
	Capacity  *PoolCapacity
	Copy      *CopyStatus
	Raw       string
}

// Resource returns the single resource payload of the response.
func (r *Response) Resource() (*PhysicalResource, error) {
	if len(r.Resources) != 1 {
		return nil, fmt.Errorf("expected one resource in response, got %d", len(r.Resources))
	}
	return &r.Resources[0], nil
}
