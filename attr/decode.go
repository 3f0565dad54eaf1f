package attr

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Decode converts an SDK attribute value into a Value.
func Decode(av types.AttributeValue) (Value, error) {
	return decode(av, "")
}

// DecodeItem converts an SDK item. Keys are stored in lexical order since
// SDK maps carry no order.
func DecodeItem(item map[string]types.AttributeValue) (*Map, error) {
	return decodeMap(item, "")
}

func decode(av types.AttributeValue, path string) (Value, error) {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return String(t.Value), nil
	case *types.AttributeValueMemberN:
		v, err := Number(t.Value)
		return v, atPath(path, err)
	case *types.AttributeValueMemberB:
		return Binary(t.Value), nil
	case *types.AttributeValueMemberSS:
		v, err := StringSet(t.Value...)
		return v, atPath(path, err)
	case *types.AttributeValueMemberNS:
		v, err := NumberSet(t.Value...)
		return v, atPath(path, err)
	case *types.AttributeValueMemberBS:
		v, err := BinarySet(t.Value...)
		return v, atPath(path, err)
	case *types.AttributeValueMemberBOOL:
		return Bool(t.Value), nil
	case *types.AttributeValueMemberNULL:
		if !t.Value {
			return Value{}, atPath(path, fmt.Errorf("%w: NULL must be true", ErrMalformedAttribute))
		}
		return Null(), nil
	case *types.AttributeValueMemberL:
		elems := make([]Value, len(t.Value))
		for i, e := range t.Value {
			v, err := decode(e, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{kind: KindList, list: elems}, nil
	case *types.AttributeValueMemberM:
		m, err := decodeMap(t.Value, path)
		if err != nil {
			return Value{}, err
		}
		return MapValue(m), nil
	case nil:
		return Value{}, atPath(path, fmt.Errorf("%w: missing value", ErrMalformedAttribute))
	default:
		return Value{}, atPath(path, fmt.Errorf("%w: unknown member %T", ErrMalformedAttribute, av))
	}
}

func decodeMap(item map[string]types.AttributeValue, path string) (*Map, error) {
	names := make([]string, 0, len(item))
	for name := range item {
		names = append(names, name)
	}
	sort.Strings(names)

	m := NewMap()
	for _, name := range names {
		v, err := decode(item[name], joinPath(path, name))
		if err != nil {
			return nil, err
		}
		if err := m.Set(name, v); err != nil {
			return nil, atPath(path, err)
		}
	}
	return m, nil
}
