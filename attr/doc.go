// Package attr converts between DynamoDB's typed attribute-value wire format
// and plain JSON.
//
// The wire format tags every value with its type ({"S": "x"}, {"N": "42"},
// {"SS": [...]}, ...). Plain JSON cannot tell an integer from a float, a set
// from a list or an explicit null from a missing attribute, so every
// conversion goes through [Value], a closed tagged union with one variant per
// wire tag.
//
// # Directions
//
//   - [Decode] / [Encode]: SDK attribute values to and from [Value]
//   - [ParseWire] / [MarshalWire]: wire-tagged JSON text to and from [Value]
//   - [ToJSON]: [Value] to plain JSON for display
//   - [FromJSON]: plain JSON to [Value], with optional [Hints] for sets
//
// Decode and ParseWire share one set of rules, so batch-input files and
// items returned by the store are validated identically.
//
// # Numbers
//
// Numbers keep the caller's text. Display writes that text back as a JSON
// number: an integer literal when it has no fractional part or exponent,
// otherwise a floating literal. Digits are never rounded through float64.
//
// # Errors
//
//   - [ErrMalformedAttribute] - unknown, missing or repeated type tag
//   - [ErrInvalidNumber] - text in an N or NS slot is not a decimal number
//   - [ErrEmptySet] - SS, NS or BS with no members
//   - [ErrDuplicateMapKey] - a map or item names the same attribute twice
//
// Errors are wrapped in [*PathError] naming the offending attribute.
//
// The package holds no mutable state and is safe for concurrent use.
package attr
