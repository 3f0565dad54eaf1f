package attr

import "encoding/base64"

// Size estimates the bytes DynamoDB bills for v:
//
//   - S: UTF-8 length; B: raw length
//   - N: one byte per two significant digits, plus one
//   - BOOL, NULL: 1
//   - sets: sum of members
//   - L, M: 3 bytes plus 1 per element, plus element (and name) sizes
func Size(v Value) int {
	switch v.kind {
	case KindString:
		return len(v.text)
	case KindNumber:
		return numberSize(v.text)
	case KindBinary:
		return len(v.bin)
	case KindStringSet:
		n := 0
		for _, s := range v.set {
			n += len(s)
		}
		return n
	case KindNumberSet:
		n := 0
		for _, s := range v.set {
			n += numberSize(s)
		}
		return n
	case KindBinarySet:
		n := 0
		for _, s := range v.set {
			n += base64.StdEncoding.DecodedLen(len(s)) - padding(s)
		}
		return n
	case KindBool, KindNull:
		return 1
	case KindList:
		n := 3
		for _, e := range v.list {
			n += 1 + Size(e)
		}
		return n
	case KindMap:
		n := 3
		v.m.Range(func(name string, e Value) bool {
			n += 1 + len(name) + Size(e)
			return true
		})
		return n
	}
	return 0
}

// ItemSize is the size of an item: attribute names plus values.
func ItemSize(m *Map) int {
	n := 0
	m.Range(func(name string, v Value) bool {
		n += len(name) + Size(v)
		return true
	})
	return n
}

func padding(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '='; i-- {
		n++
	}
	return n
}
