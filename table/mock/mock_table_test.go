/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/waywedo/Streamstone/table"
)

func row(pk, rk string, props map[string]any) table.Row {
	return table.Row{PartitionKey: pk, RowKey: rk, Properties: props}
}

func TestSubmitTransactionAddAndGet(t *testing.T) {
	tbl := New("t")

	results, err := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionAdd, Row: row("p", "a", map[string]any{"X": int64(1)})},
	})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ETag == "" {
		t.Fatal("add should mint an e-tag")
	}

	got, err := tbl.GetRow(context.Background(), "p", "a")
	if err != nil || got == nil {
		t.Fatalf("row missing: %v", err)
	}
	if got.ETag != results[0].ETag || got.Properties["X"] != int64(1) {
		t.Errorf("row = %+v", got)
	}
}

func TestSubmitTransactionIsAtomic(t *testing.T) {
	tbl := New("t")
	if _, err := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionAdd, Row: row("p", "exists", nil)},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionAdd, Row: row("p", "new", nil)},
		{Kind: table.ActionAdd, Row: row("p", "exists", nil)},
	})

	te, ok := table.AsTransactionError(err)
	if !ok {
		t.Fatalf("expected transaction error, got %v", err)
	}
	if te.Code != table.CodeEntityAlreadyExists || te.FailedIndex != 1 {
		t.Errorf("code=%s index=%d", te.Code, te.FailedIndex)
	}
	if !errors.Is(err, table.ErrConditionFailed) {
		t.Error("conflict should satisfy ErrConditionFailed")
	}

	// Nothing from the failed batch may be visible.
	if got, _ := tbl.GetRow(context.Background(), "p", "new"); got != nil {
		t.Error("failed batch leaked a row")
	}
}

func TestSubmitTransactionETagGuards(t *testing.T) {
	tbl := New("t")
	results, err := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionAdd, Row: row("p", "a", map[string]any{"X": int64(1)})},
	})
	if err != nil {
		t.Fatal(err)
	}
	current := results[0].ETag

	t.Run("StaleETagFails", func(t *testing.T) {
		r := row("p", "a", map[string]any{"X": int64(2)})
		r.ETag = "stale"
		_, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionUpdateReplace, Row: r},
		})
		te, ok := table.AsTransactionError(err)
		if !ok || te.Code != table.CodeUpdateConditionNotSatisfied {
			t.Fatalf("expected condition failure, got %v", err)
		}
	})

	t.Run("MatchingETagReplaces", func(t *testing.T) {
		r := row("p", "a", map[string]any{"X": int64(2)})
		r.ETag = current
		results, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionUpdateReplace, Row: r},
		})
		if err != nil {
			t.Fatal(err)
		}
		if results[0].ETag == current {
			t.Error("replace should mint a fresh e-tag")
		}
		got, _ := tbl.GetRow(context.Background(), "p", "a")
		if got.Properties["X"] != int64(2) {
			t.Errorf("row = %+v", got)
		}
		current = results[0].ETag
	})

	t.Run("WildcardETagMatchesAnyRevision", func(t *testing.T) {
		r := row("p", "a", map[string]any{"X": int64(3)})
		r.ETag = table.ETagAny
		if _, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionUpdateReplace, Row: r},
		}); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("UpdateMissingRowFails", func(t *testing.T) {
		r := row("p", "missing", nil)
		r.ETag = table.ETagAny
		_, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionUpdateReplace, Row: r},
		})
		te, ok := table.AsTransactionError(err)
		if !ok || te.Code != table.CodeEntityNotFound {
			t.Fatalf("expected not-found, got %v", err)
		}
	})
}

func TestSubmitTransactionMergePreservesOtherAttributes(t *testing.T) {
	tbl := New("t")
	results, _ := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionAdd, Row: row("p", "a", map[string]any{"Keep": "yes", "N": int64(1)})},
	})

	r := row("p", "a", map[string]any{"N": int64(2)})
	r.ETag = results[0].ETag
	if _, err := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionUpdateMerge, Row: r},
	}); err != nil {
		t.Fatal(err)
	}

	got, _ := tbl.GetRow(context.Background(), "p", "a")
	if got.Properties["Keep"] != "yes" || got.Properties["N"] != int64(2) {
		t.Errorf("merged row = %+v", got.Properties)
	}
}

func TestSubmitTransactionShapeValidation(t *testing.T) {
	tbl := New("t")

	t.Run("Empty", func(t *testing.T) {
		_, err := tbl.SubmitTransaction(context.Background(), nil)
		if !errors.Is(err, table.ErrInvalidTransaction) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("TooLarge", func(t *testing.T) {
		actions := make([]table.Action, table.MaxTransactionActions+1)
		for i := range actions {
			actions[i] = table.Action{Kind: table.ActionUpsertMerge, Row: row("p", string(rune('a'+i%26))+string(rune('0'+i/26)), nil)}
		}
		_, err := tbl.SubmitTransaction(context.Background(), actions)
		if !errors.Is(err, table.ErrInvalidTransaction) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("CrossPartition", func(t *testing.T) {
		_, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionUpsertMerge, Row: row("p1", "a", nil)},
			{Kind: table.ActionUpsertMerge, Row: row("p2", "b", nil)},
		})
		if !errors.Is(err, table.ErrInvalidTransaction) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("DuplicateRowKey", func(t *testing.T) {
		_, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionUpsertMerge, Row: row("p", "a", nil)},
			{Kind: table.ActionUpsertMerge, Row: row("p", "a", nil)},
		})
		if !errors.Is(err, table.ErrInvalidTransaction) {
			t.Errorf("got %v", err)
		}
	})
}

func TestQueryRange(t *testing.T) {
	tbl := New("t")
	for _, rk := range []string{"b", "a", "d", "c", "e"} {
		if _, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionAdd, Row: row("p", rk, nil)},
		}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := tbl.QueryRange(context.Background(), "p", "b", "d", 0)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, r := range rows {
		keys = append(keys, r.RowKey)
	}
	if len(keys) != 3 || keys[0] != "b" || keys[1] != "c" || keys[2] != "d" {
		t.Errorf("keys = %v", keys)
	}

	limited, err := tbl.QueryRange(context.Background(), "p", "a", "e", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].RowKey != "a" || limited[1].RowKey != "b" {
		t.Errorf("limited = %v", limited)
	}
}

func TestDeleteSemantics(t *testing.T) {
	tbl := New("t")
	results, _ := tbl.SubmitTransaction(context.Background(), []table.Action{
		{Kind: table.ActionAdd, Row: row("p", "a", nil)},
	})

	t.Run("GuardedDeleteWithStaleETag", func(t *testing.T) {
		r := row("p", "a", nil)
		r.ETag = "stale"
		_, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionDelete, Row: r},
		})
		te, ok := table.AsTransactionError(err)
		if !ok || te.Code != table.CodeUpdateConditionNotSatisfied {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("GuardedDelete", func(t *testing.T) {
		r := row("p", "a", nil)
		r.ETag = results[0].ETag
		if _, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionDelete, Row: r},
		}); err != nil {
			t.Fatal(err)
		}
		if got, _ := tbl.GetRow(context.Background(), "p", "a"); got != nil {
			t.Error("row survived delete")
		}
	})

	t.Run("UnguardedDeleteOfMissingRow", func(t *testing.T) {
		if _, err := tbl.SubmitTransaction(context.Background(), []table.Action{
			{Kind: table.ActionDelete, Row: row("p", "gone", nil)},
		}); err != nil {
			t.Fatal(err)
		}
	})
}
