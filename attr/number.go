package attr

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// maxExponent bounds exponents well past DynamoDB's 1E-130..1E+126 range so
// comparisons through big.Rat stay cheap.
const maxExponent = 1000

func checkNumber(text string) error {
	if !numberPattern.MatchString(text) {
		return fmt.Errorf("%w %q", ErrInvalidNumber, text)
	}
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		exp, err := strconv.Atoi(text[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return fmt.Errorf("%w %q: exponent out of range", ErrInvalidNumber, text)
		}
	}
	return nil
}

// IsInteger reports whether an N value renders as an integer literal: its
// text has neither a fractional part nor an exponent.
func (v Value) IsInteger() bool {
	return v.kind == KindNumber && !strings.ContainsAny(v.text, ".eE")
}

// compareNumbers orders two valid number texts numerically.
func compareNumbers(a, b string) int {
	ra, okA := new(big.Rat).SetString(a)
	rb, okB := new(big.Rat).SetString(b)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	return ra.Cmp(rb)
}

// jsonNumber rewrites valid number text as a JSON number literal without
// changing any digit: "+5" -> "5", ".5" -> "0.5", "5." -> "5.0", "007" -> "7".
func jsonNumber(text string) string {
	var sign string
	switch {
	case strings.HasPrefix(text, "-"):
		sign, text = "-", text[1:]
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	}

	var exp string
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		text, exp = text[:i], text[i:]
	}

	intPart, frac, hasDot := strings.Cut(text, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(intPart)
	if hasDot {
		if frac == "" {
			frac = "0"
		}
		b.WriteByte('.')
		b.WriteString(frac)
	}
	b.WriteString(exp)
	return b.String()
}

// numberSize follows DynamoDB's sizing: roughly one byte per two
// significant digits, plus one.
func numberSize(text string) int {
	mant := strings.TrimLeft(text, "+-")
	if i := strings.IndexAny(mant, "eE"); i >= 0 {
		mant = mant[:i]
	}
	digits := strings.Replace(mant, ".", "", 1)
	digits = strings.TrimLeft(digits, "0")
	digits = strings.TrimRight(digits, "0")
	n := len(digits)
	if n == 0 {
		n = 1
	}
	return (n+1)/2 + 1
}
