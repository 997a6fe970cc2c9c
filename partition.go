/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"fmt"

	"github.com/waywedo/Streamstone/table"
)

// Row keys and row-key prefixes reserved for the stream layout within a
// partition. User rows placed in the same partition must not collide with
// these.
const (
	headerRowKey        = "SS-HEAD"
	eventRowKeyPrefix   = "SS-SE-"
	eventIDRowKeyPrefix = "SS-UID-"
)

// eventVersionFormat pads event versions to ten digits so the row-key range
// stays in numeric order lexicographically for versions up to 10 billion.
const eventVersionFormat = "%s%010d"

// Partition pairs a table handle with a partition key. It is the atomicity
// and range-query unit of the store: a stream and everything co-committed
// with it lives inside one partition.
type Partition struct {
	Table table.Table
	Key   string
}

// NewPartition creates a partition value for the given table and key.
func NewPartition(t table.Table, key string) *Partition {
	return &Partition{Table: t, Key: key}
}

// StreamRowKey returns the fixed row key of the stream header.
func (p *Partition) StreamRowKey() string {
	return headerRowKey
}

// EventVersionRowKey returns the row key of the event stored at the given
// version. For any two versions a < b the returned keys compare the same
// way lexicographically.
func (p *Partition) EventVersionRowKey(version int64) string {
	return fmt.Sprintf(eventVersionFormat, eventRowKeyPrefix, version)
}

// EventIdRowKey returns the row key reserving the given event id within the
// partition.
func (p *Partition) EventIdRowKey(id string) string {
	return eventIDRowKeyPrefix + id
}

// String renders the partition as "table/key" for diagnostics.
func (p *Partition) String() string {
	if p.Table != nil {
		return p.Table.Name() + "/" + p.Key
	}
	return p.Key
}
