/*
Package streamstone implements event streams on top of a wide-column NoSQL
row store with per-partition batch transactions.

A stream is an append-only, gap-free, version-numbered sequence of events
persisted into a single partition. Every stream-touching transaction also
mutates the stream header, whose e-tag gives optimistic concurrency: of
several concurrent writers exactly one commits, the rest fail with a
concurrency conflict and retry from a re-opened stream. Alongside the
events, a write can carry included operations: co-mutations of unrelated
rows in the same partition (read models, idempotency markers, lookups) that
commit atomically with the append.

Basic usage:

	t, _ := ddb.NewWithCredentials(accessKey, secretKey, region, "streams")
	partition := streamstone.NewPartition(t, "order-11")

	stream, err := streamstone.Provision(ctx, partition)

	result, err := streamstone.Write(ctx, stream, []streamstone.EventData{
	    streamstone.Event(streamstone.Properties(map[string]any{
	        "Type":   "OrderPlaced",
	        "Amount": 125.50,
	    })),
	})

	slice, err := streamstone.Read[streamstone.PropertyMap](ctx, partition, 1, streamstone.DefaultSliceSize)

Writes larger than one transaction are split into chunks of at most
MaxOperationsPerChunk operations; each chunk commits atomically on its own.
Callers needing all-or-nothing semantics across an entire set of events must
keep it below the cap.

The persisted layout reserves three row keys per partition: the header at
"SS-HEAD", event rows under "SS-SE-", and event-id rows under "SS-UID-".
Rows owned by included entities must keep clear of these.
*/
package streamstone
