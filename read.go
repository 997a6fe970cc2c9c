/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"context"
	"fmt"
	"reflect"

	"github.com/waywedo/Streamstone/registry"
	"github.com/waywedo/Streamstone/table"
)

// DefaultSliceSize is the conventional slice size for sequential reads.
const DefaultSliceSize = 1000

// StreamSlice is a bounded contiguous read window over a stream: at most
// SliceSize events starting at StartVersion, together with the header
// snapshot observed alongside them.
type StreamSlice[T any] struct {
	Stream       *Stream
	Events       []T
	StartVersion int64
	SliceSize    int

	// IsEndOfStream is true when the next version a caller would request
	// exceeds the version the header reported for this read.
	IsEndOfStream bool
}

// Read fetches one slice of events from the partition, issuing the bounded
// row-key range query and the header point read in parallel. Events are
// materialized as T: a transform registered for T wins, otherwise table.Row
// yields the raw row, PropertyMap the attribute bag, and any struct type a
// reflective copy of matching exported fields.
//
// The library never continues past the slice on its own; callers paginate
// by reading again from the last version plus one.
func Read[T any](ctx context.Context, p *Partition, startVersion int64, sliceSize int) (*StreamSlice[T], error) {
	if p == nil {
		return nil, validationError("partition", "must not be nil")
	}
	if startVersion < 1 {
		return nil, validationError("startVersion", "must be greater than or equal to 1")
	}
	if sliceSize < 1 {
		return nil, validationError("sliceSize", "must be greater than or equal to 1")
	}

	type headerResult struct {
		row *table.Row
		err error
	}
	headerCh := make(chan headerResult, 1)
	go func() {
		row, err := p.Table.GetRow(ctx, p.Key, p.StreamRowKey())
		headerCh <- headerResult{row: row, err: err}
	}()

	rows, queryErr := p.Table.QueryRange(ctx, p.Key,
		p.EventVersionRowKey(startVersion),
		p.EventVersionRowKey(startVersion+int64(sliceSize)-1),
		int32(sliceSize))
	header := <-headerCh

	if queryErr != nil {
		return nil, queryErr
	}
	if header.err != nil {
		return nil, header.err
	}
	if header.row == nil {
		return nil, newStreamNotFoundError(p)
	}

	stream, err := streamFromRow(p, *header.row)
	if err != nil {
		return nil, err
	}

	transform := transformFor[T]()
	events := make([]T, 0, len(rows))
	for _, row := range rows {
		event, err := transform(row)
		if err != nil {
			return nil, fmt.Errorf("failed to transform event row %q: %w", row.RowKey, err)
		}
		events = append(events, event)
	}

	return &StreamSlice[T]{
		Stream:        stream,
		Events:        events,
		StartVersion:  startVersion,
		SliceSize:     sliceSize,
		IsEndOfStream: len(events) < sliceSize || startVersion+int64(len(events))-1 >= stream.Version,
	}, nil
}

// transformFor resolves the row transform for T: registered transform
// first, then one of the canonical ones.
func transformFor[T any]() func(table.Row) (T, error) {
	if custom, ok := registry.TransformFor[T](); ok {
		return custom
	}

	switch any(*new(T)).(type) {
	case table.Row:
		return func(row table.Row) (T, error) {
			return any(row.Clone()).(T), nil
		}
	case PropertyMap:
		return func(row table.Row) (T, error) {
			return any(PropertyMap(row.Clone().Properties)).(T), nil
		}
	case map[string]any:
		return func(row table.Row) (T, error) {
			return any(row.Clone().Properties).(T), nil
		}
	}

	return reflectiveTransform[T]()
}

// reflectiveTransform copies row attributes into the exported fields of T
// by name, converting representations where the backend widened or narrowed
// the stored type.
func reflectiveTransform[T any]() func(table.Row) (T, error) {
	return func(row table.Row) (T, error) {
		var value T
		v := reflect.ValueOf(&value).Elem()
		if v.Kind() == reflect.Pointer {
			v.Set(reflect.New(v.Type().Elem()))
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return value, fmt.Errorf("type %T is not a struct and has no registered transform", value)
		}

		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			attribute, ok := row.Properties[field.Name]
			if !ok {
				continue
			}
			if err := setField(v.Field(i), attribute); err != nil {
				return value, fmt.Errorf("field %s: %w", field.Name, err)
			}
		}
		return value, nil
	}
}

func setField(field reflect.Value, attribute any) error {
	if attribute == nil {
		return nil
	}

	target := field
	if target.Kind() == reflect.Pointer {
		target.Set(reflect.New(target.Type().Elem()))
		target = target.Elem()
	}

	av := reflect.ValueOf(attribute)
	switch {
	case av.Type().AssignableTo(target.Type()):
		target.Set(av)
	case target.Kind() == reflect.String && av.Kind() != reflect.String:
		// Integer-to-string conversion is legal Go but yields a rune string.
		return fmt.Errorf("cannot assign stored %s to %s", av.Type(), target.Type())
	case av.Type().ConvertibleTo(target.Type()):
		target.Set(av.Convert(target.Type()))
	default:
		return fmt.Errorf("cannot assign stored %s to %s", av.Type(), target.Type())
	}
	return nil
}
