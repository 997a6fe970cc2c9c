/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"context"
	"strconv"
	"strings"

	"github.com/waywedo/Streamstone/table"
)

// WriteResult carries the outcome of a successful write: the fresh header
// snapshot to use for the next operation and the recorded events with their
// assigned versions.
type WriteResult struct {
	Stream *Stream
	Events []*RecordedEvent
}

// writeOptions configures a single write.
type writeOptions struct {
	trackChanges bool
}

// WriteOption is a functional option for configuring a write.
type WriteOption func(*writeOptions)

// WithTrackChanges toggles folding of included operations. Tracking is on
// by default; with tracking off, includes pass through to the store in the
// order given and conflicting operations against the same row are the
// caller's responsibility.
func WithTrackChanges(enabled bool) WriteOption {
	return func(o *writeOptions) {
		o.trackChanges = enabled
	}
}

// Write appends the events to the stream, together with their included
// operations, in one or more partition-scoped atomic transactions. The
// returned snapshot carries the new version and e-tag; the supplied stream
// value is not mutated.
//
// Writes race on the header's e-tag: of several concurrent writers exactly
// one commits, the others fail with a concurrency conflict and must retry
// from a re-opened stream. A write larger than one transaction commits
// chunk by chunk; cancellation between chunks leaves the stream at the last
// committed chunk's version.
func Write(ctx context.Context, stream *Stream, events []EventData, opts ...WriteOption) (*WriteResult, error) {
	if stream == nil {
		return nil, validationError("stream", "must not be nil")
	}
	if len(events) == 0 {
		return nil, validationError("events", "must contain at least one event")
	}

	options := writeOptions{trackChanges: true}
	for _, opt := range opts {
		opt(&options)
	}

	recorded, err := recordEvents(stream, events)
	if err != nil {
		return nil, err
	}

	chunks, err := chunkEvents(recorded)
	if err != nil {
		return nil, err
	}

	current := stream
	for _, c := range chunks {
		current, err = writeChunk(ctx, current, c, options)
		if err != nil {
			return nil, err
		}
	}

	return &WriteResult{Stream: current, Events: recorded}, nil
}

// WriteAt appends events to the stream in the partition, verifying it is at
// the expected version first. Version 0 means the stream must not exist yet.
func WriteAt(ctx context.Context, p *Partition, expectedVersion int64, events []EventData, opts ...WriteOption) (*WriteResult, error) {
	if p == nil {
		return nil, validationError("partition", "must not be nil")
	}
	if expectedVersion < 0 {
		return nil, validationError("expectedVersion", "must be greater than or equal to 0")
	}

	stream := NewStream(p)
	if expectedVersion > 0 {
		opened, err := Open(ctx, p)
		if err != nil {
			return nil, err
		}
		if opened.Version != expectedVersion {
			return nil, &ConcurrencyConflictError{
				Partition: p,
				Details: "expected stream version " + strconv.FormatInt(expectedVersion, 10) +
					", found " + strconv.FormatInt(opened.Version, 10),
			}
		}
		stream = opened
	}

	return Write(ctx, stream, events, opts...)
}

// recordEvents assigns versions v+1..v+n in caller order and materializes
// row operations. Event ids must be unique within the write; include row
// keys must stay clear of the reserved stream layout.
func recordEvents(stream *Stream, events []EventData) ([]*RecordedEvent, error) {
	seenIDs := make(map[string]struct{})
	recorded := make([]*RecordedEvent, len(events))

	for i, event := range events {
		if event.ID != "" {
			if _, dup := seenIDs[event.ID]; dup {
				return nil, invalidOperationError("event with id %q appears more than once in the write", event.ID)
			}
			seenIDs[event.ID] = struct{}{}
		}
		for _, include := range event.Includes {
			if include == nil || include.Entity == nil {
				return nil, validationError("events", "included operation must carry an entity")
			}
			if isReservedRowKey(include.Entity.RowKey) {
				return nil, invalidOperationError(
					"included row key %q collides with the reserved stream layout", include.Entity.RowKey)
			}
		}
		recorded[i] = event.record(stream.Partition, stream.Version+int64(i)+1)
	}
	return recorded, nil
}

func isReservedRowKey(rowKey string) bool {
	return rowKey == headerRowKey ||
		strings.HasPrefix(rowKey, eventRowKeyPrefix) ||
		strings.HasPrefix(rowKey, eventIDRowKeyPrefix)
}

// writeChunk submits one transaction: the header operation first, then the
// chunk's event and id rows in event order, then the resolved includes. The
// batch order is what makes failed-action indexes classifiable.
func writeChunk(ctx context.Context, stream *Stream, c chunk, options writeOptions) (*Stream, error) {
	version := stream.Version + int64(len(c.events))

	actions := []table.Action{stream.headerOperation(version)}
	includeForIndex := []*EntityOperation{nil}

	for _, event := range c.events {
		actions = append(actions, event.eventActions...)
		for range event.eventActions {
			includeForIndex = append(includeForIndex, nil)
		}
	}

	includes, err := resolveIncludes(c.events, options)
	if err != nil {
		return nil, err
	}
	for _, include := range includes {
		action, err := include.toAction(stream.Partition.Key)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
		includeForIndex = append(includeForIndex, include)
	}

	results, err := stream.Partition.Table.SubmitTransaction(ctx, actions)
	if err != nil {
		return nil, classifyWriteError(stream.Partition, actions, includeForIndex, err)
	}

	// Thread the stored e-tags back onto the include handles so a caller
	// reusing them in a follow-up write holds the current revision.
	for i, include := range includeForIndex {
		if include != nil {
			include.Entity.ETag = results[i].ETag
		}
	}

	return &Stream{
		Partition:  stream.Partition,
		ETag:       results[0].ETag,
		Version:    version,
		Properties: stream.Properties.Clone(),
	}, nil
}

// resolveIncludes folds the chunk's included operations through the change
// tracker, or passes them through untouched when tracking is off.
func resolveIncludes(events []*RecordedEvent, options writeOptions) ([]*EntityOperation, error) {
	if !options.trackChanges {
		var includes []*EntityOperation
		for _, event := range events {
			includes = append(includes, event.includes...)
		}
		return includes, nil
	}

	tracker := newChangeTracker()
	for _, event := range events {
		for _, include := range event.includes {
			if err := tracker.record(include); err != nil {
				return nil, err
			}
		}
	}
	return tracker.operations(), nil
}

// classifyWriteError maps a transaction failure onto the library's error
// taxonomy using the failing action's index: position 0 is the header, rows
// under the reserved prefixes are event or id rows, anything else is an
// include. Unrecognized failures propagate as transport errors.
func classifyWriteError(p *Partition, actions []table.Action, includeForIndex []*EntityOperation, err error) error {
	te, ok := table.AsTransactionError(err)
	if !ok {
		return err
	}

	switch te.Code {
	case table.CodeUpdateConditionNotSatisfied:
		return newStreamChangedError(p)

	case table.CodeEntityAlreadyExists:
		i := te.FailedIndex
		if i <= 0 || i >= len(actions) {
			return newStreamChangedOrExistsError(p)
		}
		if include := includeForIndex[i]; include != nil {
			return newIncludedOperationConflictError(p, include)
		}
		rowKey := actions[i].Row.RowKey
		if strings.HasPrefix(rowKey, eventIDRowKeyPrefix) {
			return newDuplicateEventError(p, strings.TrimPrefix(rowKey, eventIDRowKeyPrefix))
		}
		if strings.HasPrefix(rowKey, eventRowKeyPrefix) {
			version, _ := strconv.ParseInt(strings.TrimPrefix(rowKey, eventRowKeyPrefix), 10, 64)
			return newEventVersionExistsError(p, version)
		}
		return newStreamChangedOrExistsError(p)
	}

	return err
}
