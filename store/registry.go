package store

import (
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeySchema describes a table's primary key.
type KeySchema struct {
	// Table is the DynamoDB table name.
	Table string

	// PartitionKey is the hash key attribute name.
	PartitionKey string

	// SortKey is the range key attribute name, empty for hash-only tables.
	SortKey string

	// Types maps each key attribute to its scalar type (S, N or B).
	Types map[string]types.ScalarAttributeType
}

// Names returns the key attribute names, partition key first.
func (k KeySchema) Names() []string {
	if k.PartitionKey == "" {
		return nil
	}
	if k.SortKey == "" {
		return []string{k.PartitionKey}
	}
	return []string{k.PartitionKey, k.SortKey}
}

// Registry holds known key schemas by table. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]KeySchema
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]KeySchema),
	}
}

// Register adds or replaces the schema for schema.Table.
func (r *Registry) Register(schema KeySchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schema.Table] = schema
}

// Lookup returns the schema registered for table.
func (r *Registry) Lookup(table string) (KeySchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[table]
	return schema, ok
}

// Tables returns the registered table names in lexical order.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// KeyNames maps each registered table to its key attribute names, the shape
// batch.Planner takes.
func (r *Registry) KeyNames() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.schemas))
	for t, s := range r.schemas {
		out[t] = s.Names()
	}
	return out
}
