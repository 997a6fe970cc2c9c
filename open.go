/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"context"
)

// Open returns the stream header stored in the partition, or a
// StreamNotFoundError when the partition holds none.
func Open(ctx context.Context, p *Partition) (*Stream, error) {
	if p == nil {
		return nil, validationError("partition", "must not be nil")
	}

	row, err := p.Table.GetRow(ctx, p.Key, p.StreamRowKey())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, newStreamNotFoundError(p)
	}
	return streamFromRow(p, *row)
}

// TryOpen returns the stream header and whether one exists, reserving the
// error return for transport failures.
func TryOpen(ctx context.Context, p *Partition) (*Stream, bool, error) {
	stream, err := Open(ctx, p)
	if err != nil {
		if IsStreamNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return stream, true, nil
}

// Exists reports whether the partition holds a stream header.
func Exists(ctx context.Context, p *Partition) (bool, error) {
	_, found, err := TryOpen(ctx, p)
	return found, err
}
