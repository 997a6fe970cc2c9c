/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of table.Table for testing
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/waywedo/Streamstone/table"
)

// Table is an in-memory table.Table with the same per-partition transaction
// semantics as the DynamoDB implementation: batches are atomic, inserts fail
// on existing rows, guarded updates fail on e-tag mismatch, and the failing
// action's index is reported.
type Table struct {
	mu         sync.RWMutex
	name       string
	partitions map[string]map[string]table.Row
	submitErr  error
}

// New creates a new in-memory table.
func New(name string) *Table {
	return &Table{
		name:       name,
		partitions: make(map[string]map[string]table.Row),
	}
}

// WithSubmitError makes every SubmitTransaction call fail with err, for
// exercising transport failure paths.
func (t *Table) WithSubmitError(err error) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.submitErr = err
	return t
}

// Name returns the table's name.
func (t *Table) Name() string {
	return t.name
}

// GetRow fetches a single row, or (nil, nil) when absent.
func (t *Table) GetRow(ctx context.Context, partitionKey, rowKey string) (*table.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	partition, ok := t.partitions[partitionKey]
	if !ok {
		return nil, nil
	}
	row, ok := partition[rowKey]
	if !ok {
		return nil, nil
	}
	c := row.Clone()
	return &c, nil
}

// QueryRange returns the partition's rows with row keys in
// [fromRowKey, toRowKey] in ascending row-key order.
func (t *Table) QueryRange(ctx context.Context, partitionKey, fromRowKey, toRowKey string, limit int32) ([]table.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	partition := t.partitions[partitionKey]
	keys := make([]string, 0, len(partition))
	for k := range partition {
		if k >= fromRowKey && k <= toRowKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var rows []table.Row
	for _, k := range keys {
		if limit > 0 && int32(len(rows)) >= limit {
			break
		}
		rows = append(rows, partition[k].Clone())
	}
	return rows, nil
}

// SubmitTransaction validates the whole batch against the current state and
// applies it only when every action would succeed, mirroring the all-or-
// nothing contract of the real store.
func (t *Table) SubmitTransaction(ctx context.Context, actions []table.Action) ([]table.ActionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.submitErr != nil {
		return nil, t.submitErr
	}

	if err := validateShape(actions); err != nil {
		return nil, err
	}

	partitionKey := actions[0].Row.PartitionKey
	partition := t.partitions[partitionKey]

	// First pass: find the first action that would fail.
	for i, a := range actions {
		existing, exists := partition[a.Row.RowKey]
		switch a.Kind {
		case table.ActionAdd:
			if exists {
				return nil, table.NewTransactionError(table.CodeEntityAlreadyExists, i,
					fmt.Errorf("row %q already exists", a.Row.RowKey))
			}
		case table.ActionUpdateReplace, table.ActionUpdateMerge:
			if !exists {
				return nil, table.NewTransactionError(table.CodeEntityNotFound, i,
					fmt.Errorf("row %q not found", a.Row.RowKey))
			}
			if a.Row.ETag != table.ETagAny && a.Row.ETag != existing.ETag {
				return nil, table.NewTransactionError(table.CodeUpdateConditionNotSatisfied, i,
					fmt.Errorf("e-tag mismatch on row %q", a.Row.RowKey))
			}
		case table.ActionDelete:
			if a.Row.ETag != "" {
				if !exists {
					return nil, table.NewTransactionError(table.CodeEntityNotFound, i,
						fmt.Errorf("row %q not found", a.Row.RowKey))
				}
				if a.Row.ETag != table.ETagAny && a.Row.ETag != existing.ETag {
					return nil, table.NewTransactionError(table.CodeUpdateConditionNotSatisfied, i,
						fmt.Errorf("e-tag mismatch on row %q", a.Row.RowKey))
				}
			}
		case table.ActionUpsertReplace, table.ActionUpsertMerge:
			// Never conflicts.
		default:
			return nil, table.NewTransactionError(table.CodeInvalidTransaction, i,
				fmt.Errorf("unknown action kind %d", a.Kind))
		}
	}

	// Second pass: apply.
	if partition == nil {
		partition = make(map[string]table.Row)
		t.partitions[partitionKey] = partition
	}

	results := make([]table.ActionResult, len(actions))
	for i, a := range actions {
		switch a.Kind {
		case table.ActionAdd, table.ActionUpdateReplace, table.ActionUpsertReplace:
			stored := a.Row.Clone()
			stored.ETag = uuid.NewString()
			partition[a.Row.RowKey] = stored
			results[i] = table.ActionResult{ETag: stored.ETag}
		case table.ActionUpdateMerge, table.ActionUpsertMerge:
			stored, exists := partition[a.Row.RowKey]
			if !exists {
				stored = table.Row{
					PartitionKey: a.Row.PartitionKey,
					RowKey:       a.Row.RowKey,
					Properties:   make(map[string]any),
				}
			}
			merged := stored.Clone()
			for k, v := range a.Row.Properties {
				merged.Properties[k] = v
			}
			merged.ETag = uuid.NewString()
			partition[a.Row.RowKey] = merged
			results[i] = table.ActionResult{ETag: merged.ETag}
		case table.ActionDelete:
			delete(partition, a.Row.RowKey)
			results[i] = table.ActionResult{}
		}
	}
	return results, nil
}

func validateShape(actions []table.Action) error {
	if len(actions) == 0 {
		return table.NewTransactionError(table.CodeInvalidTransaction, -1,
			fmt.Errorf("empty transaction"))
	}
	if len(actions) > table.MaxTransactionActions {
		return table.NewTransactionError(table.CodeInvalidTransaction, -1,
			fmt.Errorf("%d actions exceed the limit of %d", len(actions), table.MaxTransactionActions))
	}

	partitionKey := actions[0].Row.PartitionKey
	seen := make(map[string]struct{}, len(actions))
	for i, a := range actions {
		if a.Row.PartitionKey != partitionKey {
			return table.NewTransactionError(table.CodeInvalidTransaction, i,
				fmt.Errorf("action targets partition %q, transaction is scoped to %q", a.Row.PartitionKey, partitionKey))
		}
		if _, dup := seen[a.Row.RowKey]; dup {
			return table.NewTransactionError(table.CodeInvalidTransaction, i,
				fmt.Errorf("row %q is targeted by more than one action", a.Row.RowKey))
		}
		seen[a.Row.RowKey] = struct{}{}
	}
	return nil
}

// RowCount reports the number of rows currently stored in a partition.
func (t *Table) RowCount(partitionKey string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.partitions[partitionKey])
}
