package store

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dynabatch/attr"
)

// KeyFromArgs builds a primary key from command-line text: one value for a
// hash-only table, two when the table has a sort key. Values are typed by
// the schema; B keys are given as base64.
func KeyFromArgs(schema KeySchema, args ...string) (*attr.Map, error) {
	names := schema.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoKeySchema, schema.Table)
	}
	if len(args) != len(names) {
		return nil, fmt.Errorf("%w: %s needs %d key values (%s), got %d",
			ErrInvalidKey, schema.Table, len(names), strings.Join(names, ", "), len(args))
	}

	key := attr.NewMap()
	for i, name := range names {
		av, err := marshalKey(schema.Types[name], args[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidKey, name, err)
		}
		v, err := attr.Decode(av)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidKey, name, err)
		}
		if err := key.Set(name, v); err != nil {
			return nil, err
		}
	}
	return key, nil
}

func marshalKey(t types.ScalarAttributeType, text string) (types.AttributeValue, error) {
	switch t {
	case types.ScalarAttributeTypeN:
		return attributevalue.Marshal(attributevalue.Number(text))
	case types.ScalarAttributeTypeB:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, err
		}
		return attributevalue.Marshal(b)
	default:
		return attributevalue.Marshal(text)
	}
}
