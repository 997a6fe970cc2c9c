/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"strings"
	"testing"
)

func trackAll(t *testing.T, ops ...*EntityOperation) ([]*EntityOperation, error) {
	t.Helper()
	tracker := newChangeTracker()
	for _, op := range ops {
		if err := tracker.record(op); err != nil {
			return nil, err
		}
	}
	return tracker.operations(), nil
}

func TestTrackerFoldsInsertReplace(t *testing.T) {
	e := NewEntity("row", Properties(map[string]any{"A": int64(1)}))

	ops, err := trackAll(t, IncludeInsert(e), IncludeReplace(e))
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Kind != OpInsert {
		t.Fatalf("expected a single Insert, got %v", ops)
	}
}

func TestTrackerCancelsInsertDelete(t *testing.T) {
	e := NewEntity("row", nil)

	ops, err := trackAll(t, IncludeInsert(e), IncludeDelete(e))
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 0 {
		t.Fatalf("cancelled pair should emit nothing, got %v", ops)
	}
}

func TestTrackerCancelsInsertReplaceDelete(t *testing.T) {
	e := NewEntity("row", nil)

	ops, err := trackAll(t, IncludeInsert(e), IncludeReplace(e), IncludeDelete(e))
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 0 {
		t.Fatalf("sequence should cancel out, got %v", ops)
	}
}

func TestTrackerRejectsInsertAfterInsert(t *testing.T) {
	e := NewEntity("row", nil)

	_, err := trackAll(t, IncludeInsert(e), IncludeInsert(e))
	if !IsInvalidOperation(err) || !strings.Contains(err.Error(), "cannot be followed by") {
		t.Fatalf("expected illegal sequence error, got %v", err)
	}
}

func TestTrackerRejectsDifferentHandlesForSameRowKey(t *testing.T) {
	e1 := NewEntity("row", nil)
	e2 := NewEntity("row", nil)

	_, err := trackAll(t, IncludeInsert(e1), IncludeReplace(e2))
	if !IsInvalidOperation(err) || !strings.Contains(err.Error(), "different entity instances") {
		t.Fatalf("expected distinct-handle rejection, got %v", err)
	}
}

func TestTrackerRejectsOperationOnCancelledPair(t *testing.T) {
	e := NewEntity("row", nil)

	_, err := trackAll(t, IncludeInsert(e), IncludeDelete(e), IncludeReplace(e))
	if !IsInvalidOperation(err) || !strings.Contains(err.Error(), "cannot be applied to NULL") {
		t.Fatalf("expected NULL rejection, got %v", err)
	}
}

func TestTrackerPreservesFirstAppearanceOrder(t *testing.T) {
	a := NewEntity("row-a", nil)
	b := NewEntity("row-b", nil)
	c := NewEntity("row-c", nil)

	ops, err := trackAll(t,
		IncludeInsertOrMerge(a),
		IncludeInsertOrMerge(b),
		IncludeInsertOrMerge(a),
		IncludeInsertOrMerge(c),
	)
	if err != nil {
		t.Fatal(err)
	}

	var keys []string
	for _, op := range ops {
		keys = append(keys, op.Entity.RowKey)
	}
	want := []string{"row-a", "row-b", "row-c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("emitted order %v, want %v", keys, want)
		}
	}
}
