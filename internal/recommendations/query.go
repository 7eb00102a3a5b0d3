package recommendations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	limitErrorMessage = "Limit must be a number from 1 to 100"
)

var ErrInvalidQuery = errors.New("invalid recommendations query")

// ValidationError names the single offending field of a rejected query.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuery
}

type valueKind int

const (
	kindAbsent valueKind = iota
	kindString
	kindBool
	kindNumber
	// any other JSON value (object, array)
	kindUnsupported
)

// Value is a weakly typed query parameter: absent, a string, a bool or a number.
// The zero Value is absent.
type Value struct {
	kind valueKind
	str  string
	b    bool
	num  float64
}

func String(s string) Value {
	return Value{kind: kindString, str: s}
}

func Bool(b bool) Value {
	return Value{kind: kindBool, b: b}
}

func Number(n float64) Value {
	return Value{kind: kindNumber, num: n}
}

func (v Value) IsAbsent() bool {
	return v.kind == kindAbsent
}

// RawQuery holds the recognised, still untyped, list parameters.
type RawQuery struct {
	IsRead Value
	Limit  Value
}

// RecommendationQuery is the normalized form of RawQuery.
// IsRead is nil when no read status filter is requested.
type RecommendationQuery struct {
	IsRead *bool   `json:"isRead,omitempty"`
	Limit  float64 `json:"limit"`
}

// PageSize is the row limit to use in storage queries. A fractional limit
// is rounded up, so any valid query asks for at least one row.
func (q RecommendationQuery) PageSize() int {
	return int(math.Ceil(q.Limit))
}

// RawQueryFromValues extracts the recognised keys from a query string.
// Keys other than isRead and limit are ignored.
func RawQueryFromValues(values url.Values) RawQuery {
	var raw RawQuery
	if values.Has("isRead") {
		raw.IsRead = String(values.Get("isRead"))
	}
	if values.Has("limit") {
		raw.Limit = String(values.Get("limit"))
	}
	return raw
}

// RawQueryFromJSON extracts the recognised keys from a JSON object body.
// A JSON null is treated as absent. Objects and arrays are kept as unsupported
// values, which read as false for isRead and fail the limit check.
// Numbers beyond float64 become infinities, so they fail the limit check too.
func RawQueryFromJSON(data []byte) (RawQuery, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return RawQuery{}, fmt.Errorf("decode query json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return RawQuery{}, errors.New("decode query json: unexpected data after object")
	}

	return RawQuery{
		IsRead: valueFromJSON(fields["isRead"]),
		Limit:  valueFromJSON(fields["limit"]),
	}, nil
}

func valueFromJSON(v any) Value {
	switch typed := v.(type) {
	case nil:
		return Value{}
	case string:
		return String(typed)
	case bool:
		return Bool(typed)
	case json.Number:
		return Number(numberFromJSON(typed))
	default:
		return Value{kind: kindUnsupported}
	}
}

func numberFromJSON(n json.Number) float64 {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			// ParseFloat returns ±Inf or 0 for out of range input
			return f
		}
		return math.NaN()
	}
	return f
}

// NormalizeQuery coerces raw into a RecommendationQuery.
//
// isRead: only the exact string "true" is true, every other string is false.
// limit: defaults to DefaultLimit when absent, strings are read as a leading
// base-10 integer, then the value must satisfy 0 < limit <= MaxLimit.
func NormalizeQuery(raw RawQuery) (RecommendationQuery, error) {
	var q RecommendationQuery

	if !raw.IsRead.IsAbsent() {
		isRead := coerceIsRead(raw.IsRead)
		q.IsRead = &isRead
	}

	// default goes in before the range check, so it is never validated
	limit := float64(DefaultLimit)
	if !raw.Limit.IsAbsent() {
		limit = coerceLimit(raw.Limit)
	}
	if math.IsNaN(limit) || limit <= 0 || limit > MaxLimit {
		return RecommendationQuery{}, &ValidationError{
			Field:   "limit",
			Message: limitErrorMessage,
		}
	}
	q.Limit = limit

	return q, nil
}

func coerceIsRead(v Value) bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindString:
		return v.str == "true"
	default:
		return false
	}
}

func coerceLimit(v Value) float64 {
	switch v.kind {
	case kindNumber:
		return v.num
	case kindString:
		return parseIntPrefix(v.str)
	default:
		return math.NaN()
	}
}

// parseIntPrefix reads an optionally signed run of leading decimal digits,
// ignoring leading (unicode) whitespace and anything after the digits.
// Returns NaN when no digit is found.
func parseIntPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})

	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	n, digits := 0.0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		n = n*10 + float64(s[digits]-'0')
	}
	if digits == 0 {
		return math.NaN()
	}
	return sign * n
}
