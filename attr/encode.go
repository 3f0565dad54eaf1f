package attr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Encode converts a Value into an SDK attribute value.
func Encode(v Value) (types.AttributeValue, error) {
	return encode(v, "")
}

// EncodeItem converts a Map into an SDK item.
func EncodeItem(m *Map) (map[string]types.AttributeValue, error) {
	return encodeMap(m, "")
}

func encode(v Value, path string) (types.AttributeValue, error) {
	switch v.kind {
	case KindString:
		return &types.AttributeValueMemberS{Value: v.text}, nil
	case KindNumber:
		return &types.AttributeValueMemberN{Value: v.text}, nil
	case KindBinary:
		return &types.AttributeValueMemberB{Value: bytes.Clone(v.bin)}, nil
	case KindStringSet, KindNumberSet, KindBinarySet:
		if len(v.set) == 0 {
			return nil, atPath(path, fmt.Errorf("%w: %s", ErrEmptySet, v.kind))
		}
		switch v.kind {
		case KindStringSet:
			return &types.AttributeValueMemberSS{Value: append([]string(nil), v.set...)}, nil
		case KindNumberSet:
			return &types.AttributeValueMemberNS{Value: append([]string(nil), v.set...)}, nil
		}
		return &types.AttributeValueMemberBS{Value: v.BinaryMembers()}, nil
	case KindBool:
		return &types.AttributeValueMemberBOOL{Value: v.b}, nil
	case KindNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case KindList:
		elems := make([]types.AttributeValue, len(v.list))
		for i, e := range v.list {
			av, err := encode(e, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			elems[i] = av
		}
		return &types.AttributeValueMemberL{Value: elems}, nil
	case KindMap:
		m, err := encodeMap(v.m, path)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	}
	return nil, atPath(path, fmt.Errorf("%w: zero value", ErrMalformedAttribute))
}

func encodeMap(m *Map, path string) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, m.Len())
	var err error
	m.Range(func(name string, v Value) bool {
		var av types.AttributeValue
		if av, err = encode(v, joinPath(path, name)); err != nil {
			return false
		}
		out[name] = av
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedAttribute, err)
	}
	return b, nil
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
