// Copyright 2025 Arraykit Authors. All Rights Reserved.

package array

import (
	"sort"

	"github.com/arraykit/arraykit/storage"
	"github.com/arraykit/arraykit/utils/errors"
)

// maxPromotionDepth bounds recursion into tombstoned placeholders. The
// dependency graph is acyclic, so this only trips on corrupt arrays.
const maxPromotionDepth = 8

// Graph is a point-in-time adjacency view of the array's resources, built
// from a single inventory query. The planner never talks to the array; it
// emits a plan the driver executes step by step.
type Graph struct {
	Nodes map[string]storage.PhysicalResource
}

// NewGraph indexes resources by physical name.
func NewGraph(resources []storage.PhysicalResource) Graph {
	nodes := make(map[string]storage.PhysicalResource, len(resources))
	for _, r := range resources {
		nodes[r.Name] = r
	}
	return Graph{Nodes: nodes}
}

// LiveDependents returns the dependents of name that are live volumes,
// excluding exclude. These are the objects that make a delete refuse.
func (g Graph) LiveDependents(name, exclude string) []string {
	var live []string
	for _, dep := range g.Nodes[name].Dependents {
		if dep == exclude || storage.IsHidden(dep) {
			continue
		}
		if kind, err := storage.KindOf(dep); err == nil && kind == storage.KindVolume {
			live = append(live, dep)
		}
	}
	sort.Strings(live)
	return live
}

// Action is one step kind in a promotion plan.
type Action int

const (
	ActionPromote Action = iota
	ActionDelete
)

func (a Action) String() string {
	if a == ActionPromote {
		return "promote"
	}
	return "delete"
}

// PlanStep is one executable step. For ActionPromote, Target inherits the
// role of the snapshot named by Onto; for ActionDelete, Target is removed.
type PlanStep struct {
	Action Action
	Target string
	Onto   string
}

// PlanSnapshotRemoval computes the ordered steps that make snapshotName
// deletable, promoting its newest surviving dependent clone where one
// exists. exclude names a volume being deleted in the same pass, which does
// not count as a dependent. Ties on creation time break toward the
// lexicographically smallest physical name so the plan is deterministic.
func PlanSnapshotRemoval(g Graph, snapshotName, exclude string) ([]PlanStep, error) {
	return planRemoval(g, snapshotName, exclude, 0)
}

func planRemoval(g Graph, snapshotName, exclude string, depth int) ([]PlanStep, error) {
	if depth > maxPromotionDepth {
		return nil, errors.ResourceBusyError(
			"dependency chain under %s exceeds %d levels, no promotion possible", snapshotName, maxPromotionDepth)
	}

	node, ok := g.Nodes[snapshotName]
	if !ok {
		// Already gone remotely; deleting it is a no-op the driver treats
		// as success.
		return []PlanStep{{Action: ActionDelete, Target: snapshotName}}, nil
	}

	deps := make([]string, 0, len(node.Dependents))
	for _, dep := range node.Dependents {
		if dep != exclude {
			deps = append(deps, dep)
		}
	}
	if len(deps) == 0 {
		return []PlanStep{{Action: ActionDelete, Target: snapshotName}}, nil
	}

	// Live clones take precedence as promotion targets; a tombstone only
	// inherits the snapshot's role when nothing live remains.
	candidates := g.LiveDependents(snapshotName, exclude)
	if len(candidates) == 0 {
		candidates = deps
	}
	target := newestCandidate(g, candidates)

	var steps []PlanStep

	// A tombstoned placeholder with its own dependents cannot take over the
	// snapshot's role as-is; resolve it one level down, then re-plan this
	// level against the reduced graph.
	if storage.IsHidden(target) && len(g.Nodes[target].Dependents) > 0 {
		sub, err := planRemoval(g, target, exclude, depth+1)
		if err != nil {
			return nil, errors.ResourceBusyError(
				"snapshot %s has no promotable dependent: %v", snapshotName, err)
		}
		rest, err := planRemoval(g.without(target), snapshotName, exclude, depth+1)
		if err != nil {
			return nil, err
		}
		return append(sub, rest...), nil
	}

	steps = append(steps,
		PlanStep{Action: ActionPromote, Target: target, Onto: snapshotName},
		PlanStep{Action: ActionDelete, Target: snapshotName},
	)

	// Tombstones freed by the promotion and carrying nothing of their own
	// are hard-deleted in the same pass.
	rest := append([]string{}, deps...)
	sort.Strings(rest)
	for _, dep := range rest {
		if dep == target {
			continue
		}
		if storage.IsHidden(dep) && len(g.Nodes[dep].Dependents) == 0 {
			steps = append(steps, PlanStep{Action: ActionDelete, Target: dep})
		}
	}

	return steps, nil
}

// without returns a copy of the graph with name removed, both as a node and
// as a dependent of any other node.
func (g Graph) without(name string) Graph {
	nodes := make(map[string]storage.PhysicalResource, len(g.Nodes))
	for n, res := range g.Nodes {
		if n == name {
			continue
		}
		deps := make([]string, 0, len(res.Dependents))
		for _, dep := range res.Dependents {
			if dep != name {
				deps = append(deps, dep)
			}
		}
		res.Dependents = deps
		nodes[n] = res
	}
	return Graph{Nodes: nodes}
}

// newestCandidate picks the candidate with the most recent creation
// timestamp, breaking ties toward the lexicographically smallest name.
func newestCandidate(g Graph, candidates []string) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		bestAt := g.Nodes[best].CreatedAt
		at := g.Nodes[c].CreatedAt
		if at.After(bestAt) || (at.Equal(bestAt) && c < best) {
			best = c
		}
	}
	return best
}
