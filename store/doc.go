// Package store connects dynabatch to DynamoDB.
//
// [Store] reads items as [attr.Map] values and implements [batch.Writer] on
// top of BatchWriteItem. It talks to DynamoDB through the narrow [Client]
// interface, which *dynamodb.Client satisfies and tests replace with fakes.
//
// # Key schemas
//
// [Store.DescribeKeys] reads a table's key attributes with DescribeTable and
// caches them in a [Registry]. The CLI uses them to build keys from
// arguments ([KeyFromArgs]), to pick the key columns of scan output, and to
// let batch.Planner keep duplicate keys out of one chunk.
//
// # Clients
//
// [LoadClient] builds a client from the shared AWS configuration. The region
// "local" points it at DynamoDB Local on http://localhost:8000:
//
//	client, err := store.LoadClient(ctx, store.ClientConfig{Region: store.LocalRegion})
//	s := store.New(client, store.DefaultConfig())
//
// # Errors
//
//   - [ErrNotFound] - Get found no item
//   - [ErrNoKeySchema] - DescribeTable returned no key schema
//   - [ErrInvalidKey] - key arguments don't fit the schema
//
// Errors from DynamoDB are returned unchanged so callers can match them
// with errors.As.
package store
