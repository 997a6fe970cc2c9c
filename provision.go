/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"context"

	"github.com/waywedo/Streamstone/table"
)

// Provision creates the stream header in the partition at version 0 with no
// metadata. It fails with a concurrency conflict when a header already
// exists there.
func Provision(ctx context.Context, p *Partition) (*Stream, error) {
	return ProvisionWithProperties(ctx, p, nil)
}

// ProvisionWithProperties creates the stream header at version 0 carrying
// the given metadata, reserved names filtered.
func ProvisionWithProperties(ctx context.Context, p *Partition, properties PropertyMap) (*Stream, error) {
	if p == nil {
		return nil, validationError("partition", "must not be nil")
	}

	stream := &Stream{Partition: p, Properties: Properties(properties)}
	results, err := p.Table.SubmitTransaction(ctx, []table.Action{stream.headerOperation(0)})
	if err != nil {
		if te, ok := table.AsTransactionError(err); ok && te.Code == table.CodeEntityAlreadyExists {
			return nil, newStreamChangedOrExistsError(p)
		}
		return nil, err
	}

	stream.ETag = results[0].ETag
	return stream, nil
}

// SetProperties replaces the header's metadata, guarded by the stream's
// e-tag. The stream must have been persisted; its version is untouched.
func SetProperties(ctx context.Context, stream *Stream, properties PropertyMap) (*Stream, error) {
	if stream == nil {
		return nil, validationError("stream", "must not be nil")
	}
	if stream.IsTransient() {
		return nil, invalidOperationError("properties of a transient stream cannot be set; write or provision it first")
	}

	updated := &Stream{
		Partition:  stream.Partition,
		ETag:       stream.ETag,
		Version:    stream.Version,
		Properties: Properties(properties),
	}

	action := table.Action{Kind: table.ActionUpdateReplace, Row: updated.headerRow(stream.Version)}
	results, err := stream.Partition.Table.SubmitTransaction(ctx, []table.Action{action})
	if err != nil {
		if te, ok := table.AsTransactionError(err); ok && te.Code == table.CodeUpdateConditionNotSatisfied {
			return nil, newStreamChangedError(stream.Partition)
		}
		return nil, err
	}

	updated.ETag = results[0].ETag
	return updated, nil
}
