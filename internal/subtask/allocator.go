// Package subtask assigns structure to the children of an expanded task: it
// allocates hierarchical ids under the parent and sanitizes the dependency
// sets the children were drafted with. Child content comes from the caller.
//
// The package holds no state. Callers pass an existence check backed by the
// graph store and run the whole plan under the store's write lock, so the ids
// it returns are still free when they are inserted.
package subtask

import (
	"fmt"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// ExistsFunc reports whether an id is already present in the store.
type ExistsFunc func(id string) bool

// Plan is the structural outcome of an expansion, aligned with the input
// drafts by index.
type Plan struct {
	ParentID     string
	IDs          []string
	Dependencies [][]string
}

// Allocate returns n child ids for parentID in generation order. Sequence
// numbers start at 1 and skip any id for which exists reports true.
func Allocate(parentID string, n int, exists ExistsFunc) []string {
	ids := make([]string, 0, n)
	seq := 1
	for len(ids) < n {
		id := task.ChildID(parentID, seq)
		seq++
		if exists(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Sanitize resolves each draft's dependencies against the allocated ids.
//
// The parent id is dropped first, so it always means the parent even when a
// sibling's Ref spells the same id; such a Ref is never registered. A
// dependency naming a sibling's Ref is rewritten to that sibling's allocated
// id. Anything left must be one of the
// allocated ids or an existing task; otherwise the whole expansion is
// rejected with a DependencyError.
func Sanitize(parentID string, drafts []task.ChildDraft, ids []string, exists ExistsFunc) ([][]string, error) {
	if len(drafts) != len(ids) {
		return nil, fmt.Errorf("sanitize: %d drafts but %d ids", len(drafts), len(ids))
	}

	refs := make(map[string]string, len(drafts))
	batch := make(map[string]struct{}, len(ids))
	for i, d := range drafts {
		batch[ids[i]] = struct{}{}
		if d.Ref == "" || d.Ref == parentID {
			continue
		}
		if _, dup := refs[d.Ref]; dup {
			return nil, errors.NewValidationError("two children share the same ref").
				WithField("ref").WithValue(d.Ref)
		}
		refs[d.Ref] = ids[i]
	}

	out := make([][]string, len(drafts))
	for i, d := range drafts {
		deps := make([]string, 0, len(d.Dependencies))
		for _, dep := range task.NormalizeSet(d.Dependencies) {
			if dep == parentID {
				continue
			}
			if mapped, ok := refs[dep]; ok {
				dep = mapped
			}
			if _, ok := batch[dep]; !ok && !exists(dep) {
				return nil, errors.NewDependencyError(ids[i], dep,
					"dependency is neither an existing task nor a sibling in this expansion")
			}
			deps = append(deps, dep)
		}
		out[i] = task.NormalizeSet(deps)
	}
	return out, nil
}

// NewPlan allocates ids for drafts under parentID and sanitizes their
// dependencies.
func NewPlan(parentID string, drafts []task.ChildDraft, exists ExistsFunc) (*Plan, error) {
	ids := Allocate(parentID, len(drafts), exists)
	deps, err := Sanitize(parentID, drafts, ids, exists)
	if err != nil {
		return nil, err
	}
	return &Plan{ParentID: parentID, IDs: ids, Dependencies: deps}, nil
}
