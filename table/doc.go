/*
Package table defines the narrow row-store surface the stream layer builds on.

A Table is a wide-column store addressed by (partition key, row key) whose
atomic unit is a batch of row mutations confined to one partition. Optimistic
concurrency uses per-row e-tags: guarded actions carry the e-tag the caller
last observed and fail with CodeUpdateConditionNotSatisfied when the stored
row has moved on.

	actions := []table.Action{
	    {Kind: table.ActionAdd, Row: table.Row{
	        PartitionKey: "order-11",
	        RowKey:       "SS-HEAD",
	        Properties:   map[string]any{"Version": int64(0)},
	    }},
	}
	results, err := t.SubmitTransaction(ctx, actions)

Implementations:
  - ddb: DynamoDB single-table implementation using TransactWriteItems
  - mock: in-memory implementation with full partition semantics, for tests
*/
package table
