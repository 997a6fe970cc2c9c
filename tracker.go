/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

// changeTracker folds the included operations of a chunk down to one legal
// operation per entity. Entities are compared by handle identity, not by
// value: a caller reusing the same *Entity sees the e-tag from the previous
// step; two distinct handles against the same row key are a contract
// violation and are rejected outright.
type changeTracker struct {
	order    []*Entity
	folded   map[*Entity]*EntityOperation
	byRowKey map[string]*Entity
}

func newChangeTracker() *changeTracker {
	return &changeTracker{
		folded:   make(map[*Entity]*EntityOperation),
		byRowKey: make(map[string]*Entity),
	}
}

// record registers one operation, folding it into the entity's pending
// operation when the handle was seen before.
func (t *changeTracker) record(op *EntityOperation) error {
	entity := op.Entity

	if owner, seen := t.byRowKey[entity.RowKey]; seen && owner != entity {
		return invalidOperationError(
			"different entity instances were used to operate on the same row key %q", entity.RowKey)
	}

	current, seen := t.folded[entity]
	if !seen {
		t.order = append(t.order, entity)
		t.byRowKey[entity.RowKey] = entity
		t.folded[entity] = op
		return nil
	}

	merged, err := merge(current, op)
	if err != nil {
		return err
	}
	t.folded[entity] = merged
	return nil
}

// operations emits the final per-entity operations in order of first
// appearance, skipping pairs that collapsed to OpNull.
func (t *changeTracker) operations() []*EntityOperation {
	ops := make([]*EntityOperation, 0, len(t.order))
	for _, entity := range t.order {
		op := t.folded[entity]
		if op.Kind == OpNull {
			continue
		}
		ops = append(ops, op)
	}
	return ops
}
