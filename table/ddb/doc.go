/*
Package ddb implements table.Table on AWS DynamoDB.

The implementation uses single-table design with a string partition key "PK"
and string sort key "SK". Partition-scoped batches map onto
TransactWriteItems (at most 100 actions per call); action kinds translate to
condition expressions:

	Add            Put   attribute_not_exists(PK)
	UpdateReplace  Put   ETag = :etag  (attribute_exists(PK) for "*")
	UpdateMerge    Update SET ...      same guard
	Delete         Delete              guarded only when an e-tag is supplied
	UpsertReplace  Put   unconditional
	UpsertMerge    Update SET ...      unconditional

DynamoDB assigns no revision tokens of its own, so this layer mints an
opaque e-tag per mutating action, stores it in the "ETag" attribute and
returns it in the action result. A TransactionCanceledException is mapped to
a *table.TransactionError carrying the failing action's index taken from the
cancellation reasons.
*/
package ddb
