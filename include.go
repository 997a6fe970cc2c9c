/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"github.com/waywedo/Streamstone/table"
)

// Entity is a user-owned row co-committed with an event append: a read-model
// projection, an idempotency marker, a lookup row. Its partition key is
// always forced to the stream's partition on write; callers only choose the
// row key, e-tag and attributes.
//
// Identity matters: operations against the same row within one write must
// share the same *Entity handle, so the e-tag the store returns for one step
// is visible to the next.
type Entity struct {
	PartitionKey string
	RowKey       string
	ETag         string
	Properties   PropertyMap
}

// NewEntity creates an entity for the given row key.
func NewEntity(rowKey string, properties PropertyMap) *Entity {
	return &Entity{RowKey: rowKey, Properties: properties.Clone()}
}

// OperationKind enumerates the operations of the include algebra.
type OperationKind int

const (
	// OpNull marks a cancelled insert/delete pair. It is never submitted.
	OpNull OperationKind = iota
	// OpInsert adds the row, failing when it exists.
	OpInsert
	// OpReplace replaces the row, guarded by the entity's e-tag.
	OpReplace
	// OpDelete removes the row.
	OpDelete
	// OpInsertOrMerge merges into the row, creating it when absent.
	OpInsertOrMerge
	// OpInsertOrReplace replaces the row, creating it when absent.
	OpInsertOrReplace
	// OpUpdateMerge merges into an existing row, guarded by its e-tag. It
	// is internal: only the stream header uses it, to update the version
	// without disturbing stored properties.
	OpUpdateMerge
)

// String returns the canonical operation name.
func (k OperationKind) String() string {
	switch k {
	case OpNull:
		return "Null"
	case OpInsert:
		return "Insert"
	case OpReplace:
		return "Replace"
	case OpDelete:
		return "Delete"
	case OpInsertOrMerge:
		return "InsertOrMerge"
	case OpInsertOrReplace:
		return "InsertOrReplace"
	case OpUpdateMerge:
		return "UpdateMerge"
	default:
		return "Unknown"
	}
}

// EntityOperation is one typed operation against an included entity.
type EntityOperation struct {
	Kind   OperationKind
	Entity *Entity

	// replaceOnSubmit is set when a Delete→Insert sequence collapsed to
	// Insert: the row is known to exist, so the insert must be submitted as
	// a replace.
	replaceOnSubmit bool
}

// IncludeInsert builds an Insert operation for the entity.
func IncludeInsert(e *Entity) *EntityOperation {
	return &EntityOperation{Kind: OpInsert, Entity: e}
}

// IncludeReplace builds a Replace operation for the entity. The entity must
// carry the e-tag of the revision being replaced, or ETagAny.
func IncludeReplace(e *Entity) *EntityOperation {
	return &EntityOperation{Kind: OpReplace, Entity: e}
}

// IncludeDelete builds a Delete operation for the entity.
func IncludeDelete(e *Entity) *EntityOperation {
	return &EntityOperation{Kind: OpDelete, Entity: e}
}

// IncludeInsertOrMerge builds an InsertOrMerge operation for the entity.
func IncludeInsertOrMerge(e *Entity) *EntityOperation {
	return &EntityOperation{Kind: OpInsertOrMerge, Entity: e}
}

// IncludeInsertOrReplace builds an InsertOrReplace operation for the entity.
func IncludeInsertOrReplace(e *Entity) *EntityOperation {
	return &EntityOperation{Kind: OpInsertOrReplace, Entity: e}
}

// merge folds a subsequent operation on the same entity into the current
// one, yielding the single operation that has the combined effect, OpNull
// for a cancelled pair, or an error for an illegal sequence.
func merge(first, second *EntityOperation) (*EntityOperation, error) {
	result := func(kind OperationKind) *EntityOperation {
		return &EntityOperation{Kind: kind, Entity: second.Entity}
	}
	followErr := func() (*EntityOperation, error) {
		return nil, invalidOperationError("operation %s cannot be followed by operation %s on the same entity",
			first.Kind, second.Kind)
	}

	switch first.Kind {
	case OpInsert:
		switch second.Kind {
		case OpReplace:
			return result(OpInsert), nil
		case OpDelete:
			return result(OpNull), nil
		}
		return followErr()

	case OpReplace:
		switch second.Kind {
		case OpReplace:
			return result(OpReplace), nil
		case OpDelete:
			return result(OpDelete), nil
		}
		return followErr()

	case OpDelete:
		if second.Kind == OpInsert {
			// The row was persisted before the delete, so the insert that
			// revives it must go to the store as a replace.
			op := result(OpInsert)
			op.replaceOnSubmit = true
			return op, nil
		}
		return followErr()

	case OpNull:
		switch second.Kind {
		case OpInsert:
			return result(OpInsert), nil
		case OpInsertOrMerge:
			return result(OpInsertOrMerge), nil
		case OpInsertOrReplace:
			return result(OpInsertOrReplace), nil
		}
		return nil, invalidOperationError("operation %s cannot be applied to NULL", second.Kind)

	case OpInsertOrMerge:
		if second.Kind == OpInsertOrMerge {
			return result(OpInsertOrMerge), nil
		}
		return followErr()

	case OpInsertOrReplace:
		if second.Kind == OpInsertOrReplace {
			return result(OpInsertOrReplace), nil
		}
		return followErr()
	}

	return followErr()
}

// toAction maps the operation onto a store action, applying the
// Delete→Insert reclassification and validating e-tag requirements.
func (op *EntityOperation) toAction(partitionKey string) (table.Action, error) {
	row := table.Row{
		PartitionKey: partitionKey,
		RowKey:       op.Entity.RowKey,
		ETag:         op.Entity.ETag,
		Properties:   map[string]any{},
	}
	op.Entity.Properties.writeTo(row.Properties)

	kind := op.Kind
	if kind == OpInsert && op.replaceOnSubmit {
		kind = OpReplace
	}

	switch kind {
	case OpInsert:
		return table.Action{Kind: table.ActionAdd, Row: row}, nil
	case OpReplace:
		if row.ETag == "" {
			return table.Action{}, invalidOperationError(
				"replace of row %q requires a non-empty e-tag or %q", row.RowKey, table.ETagAny)
		}
		return table.Action{Kind: table.ActionUpdateReplace, Row: row}, nil
	case OpDelete:
		return table.Action{Kind: table.ActionDelete, Row: row}, nil
	case OpInsertOrMerge:
		return table.Action{Kind: table.ActionUpsertMerge, Row: row}, nil
	case OpInsertOrReplace:
		return table.Action{Kind: table.ActionUpsertReplace, Row: row}, nil
	case OpUpdateMerge:
		if row.ETag == "" {
			return table.Action{}, invalidOperationError(
				"merge of row %q requires a non-empty e-tag or %q", row.RowKey, table.ETagAny)
		}
		return table.Action{Kind: table.ActionUpdateMerge, Row: row}, nil
	}
	return table.Action{}, invalidOperationError("operation %s cannot be submitted", op.Kind)
}
