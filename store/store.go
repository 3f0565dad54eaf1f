package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dynabatch/attr"
	"github.com/jacentio/dynabatch/batch"
)

// Client is the subset of the DynamoDB API the Store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

var _ batch.Writer = (*Store)(nil)

// Store reads items as attr values and writes batches for batch.Executor.
type Store struct {
	client   Client
	config   Config
	registry *Registry
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	return NewWithRegistry(client, config, NewRegistry())
}

// NewWithRegistry creates a new Store instance that resolves key schemas
// through registry before calling DescribeTable.
func NewWithRegistry(client Client, config Config, registry *Registry) *Store {
	config.validate()
	if registry == nil {
		registry = NewRegistry()
	}
	return &Store{
		client:   client,
		config:   config,
		registry: registry,
	}
}

// Registry returns the key schema registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Get retrieves an item by key, returning ErrNotFound if it is missing.
func (s *Store) Get(ctx context.Context, table string, key *attr.Map) (*attr.Map, error) {
	k, err := attr.EncodeItem(key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            k,
		ConsistentRead: aws.Bool(s.config.ConsistentRead),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return attr.DecodeItem(result.Item)
}

// Scan calls fn for each item in table until fn fails or limit items have
// been seen. A limit of zero or less scans the whole table.
func (s *Store) Scan(ctx context.Context, table string, limit int, fn func(item *attr.Map) error) error {
	pageSize := s.config.ScanPageSize
	if limit > 0 && limit < int(pageSize) {
		pageSize = int32(limit)
	}

	seen := 0
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(s.config.ConsistentRead),
		Limit:          aws.Int32(pageSize),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		for _, raw := range page.Items {
			item, err := attr.DecodeItem(raw)
			if err != nil {
				return fmt.Errorf("scan %s: %w", table, err)
			}
			if err := fn(item); err != nil {
				return err
			}
			seen++
			if limit > 0 && seen >= limit {
				return nil
			}
		}
	}
	return nil
}

// DescribeKeys returns the key schema of table, asking DynamoDB once and
// caching the answer in the registry.
func (s *Store) DescribeKeys(ctx context.Context, table string) (KeySchema, error) {
	if schema, ok := s.registry.Lookup(table); ok {
		return schema, nil
	}

	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return KeySchema{}, fmt.Errorf("describe table %s: %w", table, err)
	}
	if out.Table == nil {
		return KeySchema{}, fmt.Errorf("%w: %s", ErrNoKeySchema, table)
	}

	schema := KeySchema{
		Table: table,
		Types: make(map[string]types.ScalarAttributeType),
	}
	for _, k := range out.Table.KeySchema {
		switch k.KeyType {
		case types.KeyTypeHash:
			schema.PartitionKey = aws.ToString(k.AttributeName)
		case types.KeyTypeRange:
			schema.SortKey = aws.ToString(k.AttributeName)
		}
	}
	if schema.PartitionKey == "" {
		return KeySchema{}, fmt.Errorf("%w: %s", ErrNoKeySchema, table)
	}
	for _, d := range out.Table.AttributeDefinitions {
		name := aws.ToString(d.AttributeName)
		if name == schema.PartitionKey || name == schema.SortKey {
			schema.Types[name] = d.AttributeType
		}
	}

	s.registry.Register(schema)
	return schema, nil
}

// BatchWrite submits entries in one BatchWriteItem call and maps the items
// DynamoDB returns as unprocessed back to the entries they came from.
func (s *Store) BatchWrite(ctx context.Context, entries []batch.Entry) (batch.WriteResult, error) {
	requests := make(map[string][]types.WriteRequest)
	fingerprints := make([]string, len(entries))

	for i, e := range entries {
		item, err := attr.EncodeItem(e.Request.Attrs)
		if err != nil {
			return batch.WriteResult{}, &batch.EntryError{Table: e.Table, Index: e.Index, Err: err}
		}
		var wr types.WriteRequest
		switch e.Request.Op {
		case batch.OpPut:
			wr.PutRequest = &types.PutRequest{Item: item}
		case batch.OpDelete:
			wr.DeleteRequest = &types.DeleteRequest{Key: item}
		default:
			return batch.WriteResult{}, &batch.EntryError{Table: e.Table, Index: e.Index, Err: fmt.Errorf("unknown op %s", e.Request.Op)}
		}
		fp, err := fingerprint(e.Table, wr)
		if err != nil {
			return batch.WriteResult{}, &batch.EntryError{Table: e.Table, Index: e.Index, Err: err}
		}
		fingerprints[i] = fp
		requests[e.Table] = append(requests[e.Table], wr)
	}

	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: requests,
	})
	if err != nil {
		return batch.WriteResult{}, err
	}

	// Count the unprocessed requests per fingerprint, then claim entries in
	// submission order so duplicates resolve deterministically.
	left := make(map[string]int)
	total := 0
	for table, wrs := range out.UnprocessedItems {
		for _, wr := range wrs {
			fp, err := fingerprint(table, wr)
			if err != nil {
				return batch.WriteResult{}, fmt.Errorf("unprocessed item for %s: %w", table, err)
			}
			left[fp]++
			total++
		}
	}

	var unprocessed []batch.Entry
	for i, e := range entries {
		if left[fingerprints[i]] > 0 {
			left[fingerprints[i]]--
			unprocessed = append(unprocessed, e)
		}
	}
	if len(unprocessed) != total {
		return batch.WriteResult{}, fmt.Errorf("%d of %d unprocessed items match no submitted entry", total-len(unprocessed), total)
	}

	return batch.WriteResult{
		Applied:     len(entries) - len(unprocessed),
		Unprocessed: unprocessed,
	}, nil
}

// fingerprint identifies a write request independently of attribute order.
func fingerprint(table string, wr types.WriteRequest) (string, error) {
	var (
		op   batch.Op
		body map[string]types.AttributeValue
	)
	switch {
	case wr.PutRequest != nil:
		op, body = batch.OpPut, wr.PutRequest.Item
	case wr.DeleteRequest != nil:
		op, body = batch.OpDelete, wr.DeleteRequest.Key
	default:
		return "", fmt.Errorf("empty write request")
	}

	// DecodeItem sorts keys at every level.
	item, err := attr.DecodeItem(body)
	if err != nil {
		return "", err
	}
	data, err := attr.MarshalWireItem(item)
	if err != nil {
		return "", err
	}
	return table + "\x00" + op.String() + "\x00" + string(data), nil
}
