/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"github.com/waywedo/Streamstone/table"
)

// EventData is a caller-supplied event waiting to be appended. ID is
// optional; when present the write also reserves the id row, enforcing
// uniqueness across all events ever written to the partition. Includes are
// co-mutations of unrelated rows committed atomically with the event.
type EventData struct {
	ID         string
	Properties PropertyMap
	Includes   []*EntityOperation
}

// Event builds an EventData with the given properties.
func Event(properties PropertyMap, includes ...*EntityOperation) EventData {
	return EventData{Properties: properties, Includes: includes}
}

// EventWithID builds an EventData carrying a caller-assigned id.
func EventWithID(id string, properties PropertyMap, includes ...*EntityOperation) EventData {
	return EventData{ID: id, Properties: properties, Includes: includes}
}

// record assigns the event its position in the stream and materializes its
// row operations. Property maps are copied so later caller mutations cannot
// leak into the write. Include partition keys are stamped with the stream's
// partition.
func (e EventData) record(p *Partition, version int64) *RecordedEvent {
	properties := e.Properties.Clone()
	if properties == nil {
		properties = PropertyMap{}
	}

	eventRow := map[string]any{versionAttribute: version}
	properties.writeTo(eventRow)

	actions := []table.Action{{
		Kind: table.ActionAdd,
		Row: table.Row{
			PartitionKey: p.Key,
			RowKey:       p.EventVersionRowKey(version),
			Properties:   eventRow,
		},
	}}

	if e.ID != "" {
		actions = append(actions, table.Action{
			Kind: table.ActionAdd,
			Row: table.Row{
				PartitionKey: p.Key,
				RowKey:       p.EventIdRowKey(e.ID),
				Properties:   map[string]any{versionAttribute: version},
			},
		})
	}

	for _, include := range e.Includes {
		include.Entity.PartitionKey = p.Key
	}

	return &RecordedEvent{
		Version:      version,
		ID:           e.ID,
		Properties:   properties,
		eventActions: actions,
		includes:     e.Includes,
	}
}

// RecordedEvent is an event with its assigned position: versions start at 1
// and increase by one per event, with no gaps.
type RecordedEvent struct {
	Version    int64
	ID         string
	Properties PropertyMap

	eventActions []table.Action
	includes     []*EntityOperation
}

// Operations reports the total number of store actions this event
// contributes to a transaction: the event row, the id row when an id is
// carried, and one per include.
func (e *RecordedEvent) Operations() int {
	return len(e.eventActions) + len(e.includes)
}

// IncludedOperations returns the event's co-mutations.
func (e *RecordedEvent) IncludedOperations() []*EntityOperation {
	return e.includes
}
