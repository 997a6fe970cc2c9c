/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"github.com/waywedo/Streamstone/table"
)

// Stream is the in-memory snapshot of a stream header: the partition it
// lives in, its current version, the e-tag guarding the next mutation, and
// user metadata. A stream is transient until its header has been persisted;
// after any successful operation callers must continue with the returned
// snapshot, which carries the fresh version and e-tag.
type Stream struct {
	Partition  *Partition
	ETag       string
	Version    int64
	Properties PropertyMap
}

// NewStream creates a transient stream for the partition. Its header is
// written by the first Write. Properties stay nil, so writes preserve
// whatever header properties may already be stored.
func NewStream(p *Partition) *Stream {
	return &Stream{Partition: p}
}

// NewStreamWithProperties creates a transient stream whose header will carry
// the given properties once written.
func NewStreamWithProperties(p *Partition, properties PropertyMap) *Stream {
	return &Stream{Partition: p, Properties: Properties(properties)}
}

// IsTransient reports whether the stream header has not been persisted yet.
func (s *Stream) IsTransient() bool {
	return s.ETag == ""
}

// headerRow renders the header at the given version, flattening the
// stream's properties alongside the Version attribute.
func (s *Stream) headerRow(version int64) table.Row {
	attributes := map[string]any{versionAttribute: version}
	s.Properties.writeTo(attributes)
	return table.Row{
		PartitionKey: s.Partition.Key,
		RowKey:       s.Partition.StreamRowKey(),
		ETag:         s.ETag,
		Properties:   attributes,
	}
}

// headerOperation builds the header action opening every stream-touching
// transaction: an insert for transient streams, an e-tag guarded replace
// when properties are carried, and an e-tag guarded merge of the version
// alone when they are nil, so stored properties survive.
func (s *Stream) headerOperation(version int64) table.Action {
	row := s.headerRow(version)

	if s.IsTransient() {
		return table.Action{Kind: table.ActionAdd, Row: row}
	}
	if s.Properties == nil {
		return table.Action{Kind: table.ActionUpdateMerge, Row: row}
	}
	return table.Action{Kind: table.ActionUpdateReplace, Row: row}
}

// streamFromRow rebuilds a header snapshot from its stored row.
func streamFromRow(p *Partition, row table.Row) (*Stream, error) {
	version, ok := asInt64(row.Properties[versionAttribute])
	if !ok {
		return nil, invalidOperationError(
			"header row in partition %q carries no usable Version attribute", p)
	}

	properties := make(PropertyMap, len(row.Properties))
	for k, v := range row.Properties {
		if k == versionAttribute {
			continue
		}
		properties[k] = v
	}

	return &Stream{
		Partition:  p,
		ETag:       row.ETag,
		Version:    version,
		Properties: properties,
	}, nil
}

// versionAttribute names the int64 attribute carried by the header, every
// event row and every event-id row.
const versionAttribute = "Version"

// asInt64 normalizes the numeric representations backends hand back for the
// Version attribute.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}
