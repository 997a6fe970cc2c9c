/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"

	streamstone "github.com/waywedo/Streamstone"
	"github.com/waywedo/Streamstone/table/mock"
	"github.com/waywedo/Streamstone/testmodels"
)

// TestOrderStreamScenario walks the full surface the way a consumer would:
// provision a stream, append events with ids and a co-committed read model,
// lose a race, and read everything back.
func TestOrderStreamScenario(t *testing.T) {
	ctx := context.Background()
	tbl := mock.New("streams")
	partition := streamstone.NewPartition(tbl, "order-11")

	stream, err := streamstone.ProvisionWithProperties(ctx, partition, streamstone.Properties(map[string]any{
		"Aggregate": "Order",
	}))
	if err != nil {
		t.Fatal(err)
	}

	orderID := "order-11"
	amount := 125.50
	placedAt := strfmt.DateTime(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	placed := testmodels.OrderPlaced{
		OrderID:  &orderID,
		Amount:   &amount,
		Currency: "CAD",
		PlacedAt: &placedAt,
	}

	// The summary read model is maintained in the same partition and
	// updated atomically with every append.
	summary := streamstone.NewEntity("summary", streamstone.PropertiesOf(testmodels.OrderSummary{
		OrderID:   &orderID,
		ItemCount: 1,
		Status:    "placed",
	}))

	result, err := streamstone.Write(ctx, stream, []streamstone.EventData{
		streamstone.EventWithID("placed-1",
			streamstone.PropertiesOf(placed),
			streamstone.IncludeInsert(summary)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stream.Version != 1 {
		t.Fatalf("version = %d", result.Stream.Version)
	}

	// A second process holding a stale header loses the race.
	stale, err := streamstone.Open(ctx, partition)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := streamstone.Write(ctx, result.Stream, []streamstone.EventData{
		streamstone.Event(streamstone.Properties(map[string]any{"Type": "ItemAdded"})),
	}); err != nil {
		t.Fatal(err)
	}
	_, err = streamstone.Write(ctx, stale, []streamstone.EventData{
		streamstone.Event(nil),
	})
	if !streamstone.IsConcurrencyConflict(err) {
		t.Fatalf("stale writer should conflict, got %v", err)
	}

	// Retrying the same event id after a success reports the duplicate.
	current, err := streamstone.Open(ctx, partition)
	if err != nil {
		t.Fatal(err)
	}
	_, err = streamstone.Write(ctx, current, []streamstone.EventData{
		streamstone.EventWithID("placed-1", nil),
	})
	if !streamstone.IsDuplicateEvent(err) {
		t.Fatalf("expected duplicate event, got %v", err)
	}

	// Read the whole stream back as typed events.
	type orderEvent struct {
		Version  int64
		OrderID  string
		Currency string
		Type     string
	}
	slice, err := streamstone.Read[orderEvent](ctx, partition, 1, streamstone.DefaultSliceSize)
	if err != nil {
		t.Fatal(err)
	}
	if len(slice.Events) != 2 || !slice.IsEndOfStream {
		t.Fatalf("slice = %+v", slice)
	}
	if slice.Events[0].OrderID != "order-11" || slice.Events[0].Currency != "CAD" {
		t.Errorf("first event = %+v", slice.Events[0])
	}
	if slice.Events[1].Type != "ItemAdded" {
		t.Errorf("second event = %+v", slice.Events[1])
	}
	if slice.Stream.Properties["Aggregate"] != "Order" {
		t.Errorf("header properties = %v", slice.Stream.Properties)
	}

	// The read model row landed next to the stream.
	row, err := tbl.GetRow(ctx, "order-11", "summary")
	if err != nil || row == nil {
		t.Fatalf("summary row missing: %v", err)
	}
	if row.Properties["Status"] != "placed" || row.Properties["ItemCount"] != int64(1) {
		t.Errorf("summary = %v", row.Properties)
	}
}
