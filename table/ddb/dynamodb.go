/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/waywedo/Streamstone/table"
)

// Table implements table.Table on a DynamoDB table using single-table
// design: partition key attribute "PK", sort key attribute "SK". Row
// revisions are tracked in an "ETag" attribute minted by this layer; guarded
// actions translate to condition expressions on it.
type Table struct {
	client    *sdk.Client
	tableName string
}

// NewDynamoDBClient initializes a DynamoDB client using AWS credentials.
func NewDynamoDBClient(awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg), nil
}

// New wraps an existing DynamoDB client.
func New(client *sdk.Client, tableName string) *Table {
	return &Table{client: client, tableName: tableName}
}

// NewWithCredentials constructs a Table with its own client from static
// credentials.
func NewWithCredentials(awsAccessKey, awsSecretKey, awsRegion, tableName string) (*Table, error) {
	client, err := NewDynamoDBClient(awsAccessKey, awsSecretKey, awsRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return New(client, tableName), nil
}

// Name returns the DynamoDB table name.
func (t *Table) Name() string {
	return t.tableName
}

// GetRow fetches a single row with a consistent read, or (nil, nil) when the
// row does not exist.
func (t *Table) GetRow(ctx context.Context, partitionKey, rowKey string) (*table.Row, error) {
	out, err := t.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &t.tableName,
		Key:            keyOf(partitionKey, rowKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	row, err := unmarshalRow(out.Item)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// QueryRange returns the partition's rows with sort keys in
// [fromRowKey, toRowKey], ascending, following continuation keys until limit
// rows are collected or the range is exhausted.
func (t *Table) QueryRange(ctx context.Context, partitionKey, fromRowKey, toRowKey string, limit int32) ([]table.Row, error) {
	keyCond := "PK = :pk AND SK BETWEEN :from AND :to"
	input := &sdk.QueryInput{
		TableName:              &t.tableName,
		KeyConditionExpression: &keyCond,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: partitionKey},
			":from": &types.AttributeValueMemberS{Value: fromRowKey},
			":to":   &types.AttributeValueMemberS{Value: toRowKey},
		},
		ConsistentRead:   aws.Bool(true),
		ScanIndexForward: aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	var rows []table.Row
	for {
		out, err := t.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		for _, item := range out.Items {
			row, err := unmarshalRow(item)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
			if limit > 0 && int32(len(rows)) >= limit {
				return rows, nil
			}
		}
		if out.LastEvaluatedKey == nil || len(out.LastEvaluatedKey) == 0 {
			return rows, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// SubmitTransaction maps the actions onto a single TransactWriteItems call.
// Fresh e-tags are minted here and written with each mutated row, so the
// per-action results can be reported without a read-back.
func (t *Table) SubmitTransaction(ctx context.Context, actions []table.Action) ([]table.ActionResult, error) {
	if len(actions) == 0 {
		return nil, table.NewTransactionError(table.CodeInvalidTransaction, -1,
			errors.New("empty transaction"))
	}
	if len(actions) > table.MaxTransactionActions {
		return nil, table.NewTransactionError(table.CodeInvalidTransaction, -1,
			fmt.Errorf("%d actions exceed the limit of %d", len(actions), table.MaxTransactionActions))
	}

	items := make([]types.TransactWriteItem, len(actions))
	results := make([]table.ActionResult, len(actions))
	for i, a := range actions {
		item, newETag, err := t.transactItem(a)
		if err != nil {
			return nil, err
		}
		items[i] = item
		results[i] = table.ActionResult{ETag: newETag}
	}

	_, err := t.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return nil, mapTransactionError(err, actions)
	}
	return results, nil
}

func (t *Table) transactItem(a table.Action) (types.TransactWriteItem, string, error) {
	switch a.Kind {
	case table.ActionAdd:
		etag := uuid.NewString()
		item, err := marshalRow(a.Row, etag)
		if err != nil {
			return types.TransactWriteItem{}, "", err
		}
		cond := "attribute_not_exists(PK)"
		return types.TransactWriteItem{Put: &types.Put{
			TableName:           &t.tableName,
			Item:                item,
			ConditionExpression: &cond,
		}}, etag, nil

	case table.ActionUpdateReplace:
		etag := uuid.NewString()
		item, err := marshalRow(a.Row, etag)
		if err != nil {
			return types.TransactWriteItem{}, "", err
		}
		cond, vals := etagCondition(a.Row.ETag)
		return types.TransactWriteItem{Put: &types.Put{
			TableName:                 &t.tableName,
			Item:                      item,
			ConditionExpression:       &cond,
			ExpressionAttributeValues: vals,
		}}, etag, nil

	case table.ActionUpdateMerge:
		etag := uuid.NewString()
		expr, names, vals, err := mergeExpression(a.Row.Properties, etag)
		if err != nil {
			return types.TransactWriteItem{}, "", err
		}
		cond, condVals := etagCondition(a.Row.ETag)
		for k, v := range condVals {
			vals[k] = v
		}
		return types.TransactWriteItem{Update: &types.Update{
			TableName:                 &t.tableName,
			Key:                       keyOf(a.Row.PartitionKey, a.Row.RowKey),
			UpdateExpression:          &expr,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: vals,
			ConditionExpression:       &cond,
		}}, etag, nil

	case table.ActionDelete:
		del := &types.Delete{
			TableName: &t.tableName,
			Key:       keyOf(a.Row.PartitionKey, a.Row.RowKey),
		}
		if a.Row.ETag != "" {
			cond, vals := etagCondition(a.Row.ETag)
			del.ConditionExpression = &cond
			del.ExpressionAttributeValues = vals
		}
		return types.TransactWriteItem{Delete: del}, "", nil

	case table.ActionUpsertReplace:
		etag := uuid.NewString()
		item, err := marshalRow(a.Row, etag)
		if err != nil {
			return types.TransactWriteItem{}, "", err
		}
		return types.TransactWriteItem{Put: &types.Put{
			TableName: &t.tableName,
			Item:      item,
		}}, etag, nil

	case table.ActionUpsertMerge:
		etag := uuid.NewString()
		expr, names, vals, err := mergeExpression(a.Row.Properties, etag)
		if err != nil {
			return types.TransactWriteItem{}, "", err
		}
		return types.TransactWriteItem{Update: &types.Update{
			TableName:                 &t.tableName,
			Key:                       keyOf(a.Row.PartitionKey, a.Row.RowKey),
			UpdateExpression:          &expr,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: vals,
		}}, etag, nil
	}

	return types.TransactWriteItem{}, "", table.NewTransactionError(table.CodeInvalidTransaction, -1,
		fmt.Errorf("unknown action kind %d", a.Kind))
}

// etagCondition builds the optimistic guard for an action carrying the given
// e-tag. ETagAny still requires the row to exist.
func etagCondition(etag string) (string, map[string]types.AttributeValue) {
	if etag == table.ETagAny {
		return "attribute_exists(PK)", nil
	}
	return "ETag = :cond_etag", map[string]types.AttributeValue{
		":cond_etag": &types.AttributeValueMemberS{Value: etag},
	}
}

// mergeExpression transforms a property bag into a SET update expression
// with placeholder names and values, plus the new e-tag assignment.
func mergeExpression(properties map[string]any, newETag string) (string, map[string]string, map[string]types.AttributeValue, error) {
	setClauses := make([]string, 0, len(properties)+1)
	names := make(map[string]string, len(properties)+1)
	vals := make(map[string]types.AttributeValue, len(properties)+1)

	i := 0
	for field, value := range properties {
		namePlaceholder := fmt.Sprintf("#f%d", i)
		valuePlaceholder := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(value)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to marshal attribute %q: %w", field, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", namePlaceholder, valuePlaceholder))
		names[namePlaceholder] = field
		vals[valuePlaceholder] = av
		i++
	}

	setClauses = append(setClauses, "#etag = :new_etag")
	names["#etag"] = table.ETagAttribute
	vals[":new_etag"] = &types.AttributeValueMemberS{Value: newETag}

	return "SET " + strings.Join(setClauses, ", "), names, vals, nil
}

// mapTransactionError converts a TransactWriteItems failure into the store's
// error taxonomy. DynamoDB reports per-action cancellation reasons in
// submission order; a ConditionalCheckFailed reason means "already exists"
// for inserts and "condition not satisfied" for guarded actions.
func mapTransactionError(err error, actions []table.Action) error {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return fmt.Errorf("transaction failed: %w", err)
	}

	for i, reason := range canceled.CancellationReasons {
		code := aws.ToString(reason.Code)
		if code == "" || code == "None" {
			continue
		}
		if code != "ConditionalCheckFailed" {
			return fmt.Errorf("transaction failed at action %d (%s): %w", i, code, err)
		}
		if i >= len(actions) {
			break
		}
		switch actions[i].Kind {
		case table.ActionAdd:
			return table.NewTransactionError(table.CodeEntityAlreadyExists, i, err)
		default:
			return table.NewTransactionError(table.CodeUpdateConditionNotSatisfied, i, err)
		}
	}
	return fmt.Errorf("transaction failed: %w", err)
}

func keyOf(partitionKey, rowKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		table.PartitionKeyAttribute: &types.AttributeValueMemberS{Value: partitionKey},
		table.RowKeyAttribute:       &types.AttributeValueMemberS{Value: rowKey},
	}
}

// marshalRow flattens a row into a DynamoDB item: key attributes, the new
// e-tag, and one attribute per property.
func marshalRow(row table.Row, etag string) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(row.Properties)+3)
	for k, v := range row.Properties {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal attribute %q: %w", k, err)
		}
		item[k] = av
	}
	item[table.PartitionKeyAttribute] = &types.AttributeValueMemberS{Value: row.PartitionKey}
	item[table.RowKeyAttribute] = &types.AttributeValueMemberS{Value: row.RowKey}
	item[table.ETagAttribute] = &types.AttributeValueMemberS{Value: etag}
	return item, nil
}

// unmarshalRow splits a DynamoDB item back into row address, e-tag and
// property bag.
func unmarshalRow(item map[string]types.AttributeValue) (table.Row, error) {
	row := table.Row{Properties: make(map[string]any, len(item))}
	for k, av := range item {
		switch k {
		case table.PartitionKeyAttribute:
			if err := attributevalue.Unmarshal(av, &row.PartitionKey); err != nil {
				return table.Row{}, fmt.Errorf("failed to unmarshal PK: %w", err)
			}
		case table.RowKeyAttribute:
			if err := attributevalue.Unmarshal(av, &row.RowKey); err != nil {
				return table.Row{}, fmt.Errorf("failed to unmarshal SK: %w", err)
			}
		case table.ETagAttribute:
			if err := attributevalue.Unmarshal(av, &row.ETag); err != nil {
				return table.Row{}, fmt.Errorf("failed to unmarshal ETag: %w", err)
			}
		default:
			var value any
			if err := attributevalue.Unmarshal(av, &value); err != nil {
				return table.Row{}, fmt.Errorf("failed to unmarshal attribute %q: %w", k, err)
			}
			row.Properties[k] = value
		}
	}
	return row, nil
}
