package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dynabatch/attr"
	"github.com/jacentio/dynabatch/batch"
	"github.com/jacentio/dynabatch/store"
)

func key(t *testing.T, pairs ...string) *attr.Map {
	t.Helper()
	m := attr.NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := m.Set(pairs[i], attr.String(pairs[i+1])); err != nil {
			t.Fatalf("set %s: %v", pairs[i], err)
		}
	}
	return m
}

// --- Get ---

func TestGet_DecodesItem(t *testing.T) {
	client := &fakeClient{getItem: map[string]types.AttributeValue{
		"pk":        s("ichi"),
		"PageCount": &types.AttributeValueMemberNS{Value: []string{"42.2", "-19"}},
	}}
	st := store.New(client, store.DefaultConfig())

	item, err := st.Get(context.Background(), "Books", key(t, "pk", "ichi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := attr.ItemToJSON(item)
	if err != nil {
		t.Fatalf("display: %v", err)
	}
	if string(out) != `{"PageCount":[-19,42.2],"pk":"ichi"}` {
		t.Errorf("unexpected item %s", out)
	}

	in := client.getInputs[0]
	if aws.ToString(in.TableName) != "Books" {
		t.Errorf("expected table Books, got %q", aws.ToString(in.TableName))
	}
	if pk, ok := in.Key["pk"].(*types.AttributeValueMemberS); !ok || pk.Value != "ichi" {
		t.Errorf("unexpected key %#v", in.Key)
	}
	if aws.ToBool(in.ConsistentRead) {
		t.Error("expected eventually consistent read by default")
	}
}

func TestGet_NotFound(t *testing.T) {
	st := store.New(&fakeClient{}, store.DefaultConfig())

	_, err := st.Get(context.Background(), "Books", key(t, "pk", "missing"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_ConsistentRead(t *testing.T) {
	client := &fakeClient{getItem: map[string]types.AttributeValue{"pk": s("a")}}
	cfg := store.DefaultConfig()
	cfg.ConsistentRead = true
	st := store.New(client, cfg)

	if _, err := st.Get(context.Background(), "T", key(t, "pk", "a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !aws.ToBool(client.getInputs[0].ConsistentRead) {
		t.Error("expected ConsistentRead to be sent")
	}
}

func TestGet_ClientErrorPassesThrough(t *testing.T) {
	notFound := &types.ResourceNotFoundException{Message: aws.String("no table")}
	st := store.New(&fakeClient{getErr: notFound}, store.DefaultConfig())

	_, err := st.Get(context.Background(), "Nope", key(t, "pk", "a"))
	var rnf *types.ResourceNotFoundException
	if !errors.As(err, &rnf) {
		t.Errorf("expected ResourceNotFoundException, got %v", err)
	}
}

func TestGet_MalformedStoredItem(t *testing.T) {
	client := &fakeClient{getItem: map[string]types.AttributeValue{
		"pk":  s("a"),
		"bad": n("not-a-number"),
	}}
	st := store.New(client, store.DefaultConfig())

	_, err := st.Get(context.Background(), "T", key(t, "pk", "a"))
	if !errors.Is(err, attr.ErrInvalidNumber) {
		t.Errorf("expected ErrInvalidNumber, got %v", err)
	}
}

// --- Scan ---

func page(pks ...string) []map[string]types.AttributeValue {
	items := make([]map[string]types.AttributeValue, len(pks))
	for i, pk := range pks {
		items[i] = map[string]types.AttributeValue{"pk": s(pk)}
	}
	return items
}

func TestScan_AllPages(t *testing.T) {
	client := &fakeClient{scanPages: [][]map[string]types.AttributeValue{
		page("a", "b"),
		page("c"),
		page("d", "e"),
	}}
	st := store.New(client, store.DefaultConfig())

	var got []string
	err := st.Scan(context.Background(), "T", 0, func(item *attr.Map) error {
		v, _ := item.Get("pk")
		got = append(got, v.Text())
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 || got[0] != "a" || got[4] != "e" {
		t.Errorf("unexpected items %v", got)
	}
	if len(client.scanInputs) != 3 {
		t.Errorf("expected 3 pages, got %d", len(client.scanInputs))
	}
	if client.scanInputs[1].ExclusiveStartKey == nil {
		t.Error("expected second page to continue from the first")
	}
	if aws.ToInt32(client.scanInputs[0].Limit) != 100 {
		t.Errorf("expected page size 100, got %d", aws.ToInt32(client.scanInputs[0].Limit))
	}
}

func TestScan_Limit(t *testing.T) {
	client := &fakeClient{scanPages: [][]map[string]types.AttributeValue{
		page("a", "b"),
		page("c", "d"),
		page("e"),
	}}
	st := store.New(client, store.DefaultConfig())

	count := 0
	err := st.Scan(context.Background(), "T", 3, func(*attr.Map) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 items, got %d", count)
	}
	if len(client.scanInputs) != 2 {
		t.Errorf("expected scan to stop after 2 pages, got %d", len(client.scanInputs))
	}
	if aws.ToInt32(client.scanInputs[0].Limit) != 3 {
		t.Errorf("expected page size to shrink to the limit, got %d", aws.ToInt32(client.scanInputs[0].Limit))
	}
}

func TestScan_CallbackErrorStops(t *testing.T) {
	client := &fakeClient{scanPages: [][]map[string]types.AttributeValue{page("a", "b", "c")}}
	st := store.New(client, store.DefaultConfig())

	stop := errors.New("stop")
	count := 0
	err := st.Scan(context.Background(), "T", 0, func(*attr.Map) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("expected callback error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 call, got %d", count)
	}
}

func TestScan_ClientError(t *testing.T) {
	boom := errors.New("boom")
	st := store.New(&fakeClient{scanErr: boom}, store.DefaultConfig())

	err := st.Scan(context.Background(), "T", 0, func(*attr.Map) error { return nil })
	if !errors.Is(err, boom) {
		t.Errorf("expected client error, got %v", err)
	}
}

// --- DescribeKeys ---

func describeOutput(keys []types.KeySchemaElement, defs []types.AttributeDefinition) *dynamodb.DescribeTableOutput {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		KeySchema:            keys,
		AttributeDefinitions: defs,
	}}
}

func TestDescribeKeys_HashAndRange(t *testing.T) {
	client := &fakeClient{describe: describeOutput(
		[]types.KeySchemaElement{
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
		[]types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeN},
			{AttributeName: aws.String("gsi_pk"), AttributeType: types.ScalarAttributeTypeS},
		},
	)}
	st := store.New(client, store.DefaultConfig())

	schema, err := st.DescribeKeys(context.Background(), "Books")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.PartitionKey != "pk" || schema.SortKey != "sk" {
		t.Errorf("unexpected schema %+v", schema)
	}
	if schema.Types["sk"] != types.ScalarAttributeTypeN {
		t.Errorf("expected sk to be N, got %q", schema.Types["sk"])
	}
	if _, ok := schema.Types["gsi_pk"]; ok {
		t.Error("non-key attribute definitions should be ignored")
	}

	// Second lookup is served from the registry.
	if _, err := st.DescribeKeys(context.Background(), "Books"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.describeCalls != 1 {
		t.Errorf("expected 1 DescribeTable call, got %d", client.describeCalls)
	}
	if _, ok := st.Registry().Lookup("Books"); !ok {
		t.Error("expected schema in registry")
	}
}

func TestDescribeKeys_UsesProvidedRegistry(t *testing.T) {
	reg := store.NewRegistry()
	reg.Register(store.KeySchema{Table: "Books", PartitionKey: "id"})
	client := &fakeClient{}
	st := store.NewWithRegistry(client, store.DefaultConfig(), reg)

	schema, err := st.DescribeKeys(context.Background(), "Books")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.PartitionKey != "id" {
		t.Errorf("expected id, got %q", schema.PartitionKey)
	}
	if client.describeCalls != 0 {
		t.Errorf("expected no DescribeTable calls, got %d", client.describeCalls)
	}
}

func TestDescribeKeys_NoSchema(t *testing.T) {
	tests := []struct {
		name string
		out  *dynamodb.DescribeTableOutput
	}{
		{"nil table", &dynamodb.DescribeTableOutput{}},
		{"no keys", describeOutput(nil, nil)},
		{"range only", describeOutput([]types.KeySchemaElement{
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		}, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(&fakeClient{describe: tt.out}, store.DefaultConfig())
			_, err := st.DescribeKeys(context.Background(), "T")
			if !errors.Is(err, store.ErrNoKeySchema) {
				t.Errorf("expected ErrNoKeySchema, got %v", err)
			}
		})
	}
}

// --- BatchWrite ---

func entry(t *testing.T, table string, index int, op batch.Op, pairs ...string) batch.Entry {
	t.Helper()
	return batch.Entry{Table: table, Index: index, Request: batch.WriteRequest{Op: op, Attrs: key(t, pairs...)}}
}

func TestBatchWrite_AllApplied(t *testing.T) {
	client := &fakeClient{}
	st := store.New(client, store.DefaultConfig())

	entries := []batch.Entry{
		entry(t, "Books", 0, batch.OpPut, "pk", "ichi", "title", "One"),
		entry(t, "Books", 1, batch.OpDelete, "pk", "ni"),
		entry(t, "Authors", 0, batch.OpPut, "name", "Joe"),
	}
	res, err := st.BatchWrite(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Applied != 3 || len(res.Unprocessed) != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	req := client.batchInputs[0].RequestItems
	if len(req["Books"]) != 2 || len(req["Authors"]) != 1 {
		t.Fatalf("unexpected request items %#v", req)
	}
	if req["Books"][0].PutRequest == nil || req["Books"][1].DeleteRequest == nil {
		t.Error("expected a put then a delete for Books")
	}
	if v, ok := req["Books"][0].PutRequest.Item["title"].(*types.AttributeValueMemberS); !ok || v.Value != "One" {
		t.Errorf("unexpected item %#v", req["Books"][0].PutRequest.Item)
	}
}

func TestBatchWrite_MapsUnprocessed(t *testing.T) {
	client := &fakeClient{batchWrite: func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
		// Hand back the second put and the delete.
		return &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{
			"Books": {in.RequestItems["Books"][2], in.RequestItems["Books"][1]},
		}}, nil
	}}
	st := store.New(client, store.DefaultConfig())

	entries := []batch.Entry{
		entry(t, "Books", 0, batch.OpPut, "pk", "a", "v", "1"),
		entry(t, "Books", 1, batch.OpPut, "v", "2", "pk", "b"),
		entry(t, "Books", 2, batch.OpDelete, "pk", "c"),
	}
	res, err := st.BatchWrite(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Applied != 1 {
		t.Errorf("expected 1 applied, got %d", res.Applied)
	}
	if len(res.Unprocessed) != 2 || res.Unprocessed[0].Index != 1 || res.Unprocessed[1].Index != 2 {
		t.Errorf("expected entries 1 and 2 in submission order, got %+v", res.Unprocessed)
	}
}

func TestBatchWrite_PutAndDeleteOfSameAttrsAreDistinct(t *testing.T) {
	client := &fakeClient{batchWrite: func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
		return &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{
			"A": {in.RequestItems["A"][0]},
		}}, nil
	}}
	st := store.New(client, store.DefaultConfig())

	entries := []batch.Entry{
		entry(t, "A", 0, batch.OpDelete, "pk", "x"),
		entry(t, "B", 0, batch.OpDelete, "pk", "x"),
	}
	res, err := st.BatchWrite(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Unprocessed) != 1 || res.Unprocessed[0].Table != "A" {
		t.Errorf("expected only the A entry, got %+v", res.Unprocessed)
	}
}

func TestBatchWrite_UnmatchedUnprocessed(t *testing.T) {
	client := &fakeClient{batchWrite: func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
		return &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{
			"Books": {{DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{"pk": s("stranger")}}}},
		}}, nil
	}}
	st := store.New(client, store.DefaultConfig())

	_, err := st.BatchWrite(context.Background(), []batch.Entry{entry(t, "Books", 0, batch.OpDelete, "pk", "a")})
	if err == nil {
		t.Fatal("expected error for an unprocessed item that was never submitted")
	}
	if batch.IsRetryable(err) {
		t.Error("unmatched unprocessed items must not be retried")
	}
}

func TestBatchWrite_ClientErrorPassesThrough(t *testing.T) {
	throttled := &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	client := &fakeClient{batchWrite: func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
		return nil, throttled
	}}
	st := store.New(client, store.DefaultConfig())

	_, err := st.BatchWrite(context.Background(), []batch.Entry{entry(t, "T", 0, batch.OpPut, "pk", "a")})
	if !batch.IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}

func TestBatchWrite_InvalidEntry(t *testing.T) {
	client := &fakeClient{}
	st := store.New(client, store.DefaultConfig())

	bad := batch.Entry{Table: "T", Index: 4, Request: batch.Put(attr.NewMap())}
	if err := bad.Request.Attrs.Set("x", attr.Value{}); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, err := st.BatchWrite(context.Background(), []batch.Entry{bad})
	var ee *batch.EntryError
	if !errors.As(err, &ee) || ee.Index != 4 {
		t.Errorf("expected EntryError for index 4, got %v", err)
	}
	if len(client.batchInputs) != 0 {
		t.Error("nothing should be sent when an entry fails to encode")
	}
}

// BatchWrite drives a real executor retry cycle end to end.
func TestBatchWrite_WithExecutor(t *testing.T) {
	calls := 0
	client := &fakeClient{batchWrite: func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
		calls++
		if calls == 1 {
			return &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{
				"Books": in.RequestItems["Books"][:2],
			}}, nil
		}
		return &dynamodb.BatchWriteItemOutput{}, nil
	}}
	st := store.New(client, store.DefaultConfig())

	var entries []batch.Entry
	for i, pk := range []string{"a", "b", "c", "d"} {
		entries = append(entries, entry(t, "Books", i, batch.OpPut, "pk", pk))
	}
	chunks, err := batch.Planner{}.Plan(entries)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	policy := batch.DefaultPolicy()
	policy.Concurrency = 1
	if err := batch.NewExecutor(st, policy, nil).Execute(context.Background(), chunks); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 BatchWriteItem calls, got %d", calls)
	}
	if n := len(client.batchInputs[1].RequestItems["Books"]); n != 2 {
		t.Errorf("expected retry of 2 items, got %d", n)
	}
}
