// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// UnserializableValue is returned when a value cannot be rendered at all.
const UnserializableValue = "Unserializable value"

// TimestampLayout is the ISO-8601 layout used for every rendered timestamp
const TimestampLayout = time.RFC3339

// Normalize converts a value returned by a metadata library into a value that
// is safe to render. It never panics.
func Normalize(v any) (out any) {
	defer func() {
		if recover() != nil {
			out = UnserializableValue
		}
	}()

	if v == nil || isNilPointer(v) {
		return nil
	}

	switch val := v.(type) {
	case string:
		return val
	case bool:
		return val
	case int, int8, int16, int32, int64:
		return val
	case uint, uint8, uint16, uint32, uint64:
		return val
	case float32, float64:
		return val
	case []byte:
		return decodeBytes(val)
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val.Format(TimestampLayout)
	case *time.Time:
		if val.IsZero() {
			return nil
		}
		return val.Format(TimestampLayout)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	}
	return fallback(v)
}

// Stringify renders any normalized value as display text
func Stringify(v any) string {
	switch val := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// Tuple renders a sequence as "(a, b, c)"
func Tuple(values ...any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Stringify(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func decodeBytes(b []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return strings.TrimRight(string(decoded), "\x00")
}

func fallback(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = UnserializableValue
		}
	}()

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return Tuple(items...)
	}
	return fmt.Sprint(v)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
