package schema

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// JSONSafetyError reports a value that cannot be represented in JSON, with the
// dotted/bracketed path to the offending element.
type JSONSafetyError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *JSONSafetyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
)

// AssertJSONSerializable verifies that a realized value round-trips through
// JSON without loss: nil, booleans, strings, finite numbers, slices, arrays,
// string-keyed maps, and plain structs pass; times, big integers, regexps,
// non-string-keyed maps, channels, functions, complex numbers, and reference
// cycles fail with a path-qualified error. The visited set is scoped to the
// call.
func AssertJSONSerializable(v any) error {
	return assertValue(reflect.ValueOf(v), "root", make(map[uintptr]bool))
}

func assertValue(v reflect.Value, path string, visited map[uintptr]bool) error {
	if !v.IsValid() {
		return nil // nil interface
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &JSONSafetyError{Path: path, Message: fmt.Sprintf("non-finite number %v has no JSON representation", f)}
		}
		return nil

	case reflect.Interface:
		return assertValue(v.Elem(), path, visited)

	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if visited[ptr] {
			return &JSONSafetyError{Path: path, Message: "reference cycle detected"}
		}
		visited[ptr] = true
		err := assertValue(v.Elem(), path, visited)
		delete(visited, ptr)
		return err

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if visited[ptr] {
			return &JSONSafetyError{Path: path, Message: "reference cycle detected"}
		}
		visited[ptr] = true
		defer delete(visited, ptr)
		fallthrough

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := assertValue(v.Index(i), fmt.Sprintf("%s[%d]", path, i), visited); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return &JSONSafetyError{Path: path, Message: fmt.Sprintf("map keyed by %s is not JSON-serializable; use string keys", v.Type().Key())}
		}
		ptr := v.Pointer()
		if visited[ptr] {
			return &JSONSafetyError{Path: path, Message: "reference cycle detected"}
		}
		visited[ptr] = true
		defer delete(visited, ptr)
		for _, key := range v.MapKeys() {
			if err := assertValue(v.MapIndex(key), path+"."+key.String(), visited); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		switch v.Type() {
		case timeType:
			return &JSONSafetyError{Path: path, Message: "time.Time is not JSON-serializable; use an ISO-8601 string"}
		case bigIntType:
			return &JSONSafetyError{Path: path, Message: "big.Int is not JSON-serializable; use a string"}
		case regexpType:
			return &JSONSafetyError{Path: path, Message: "regexp.Regexp is not JSON-serializable; use its pattern string"}
		}
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			if err := assertValue(v.Field(i), path+"."+jsonFieldName(field), visited); err != nil {
				return err
			}
		}
		return nil

	case reflect.Func:
		return &JSONSafetyError{Path: path, Message: "functions are not JSON-serializable"}
	case reflect.Chan:
		return &JSONSafetyError{Path: path, Message: "channels are not JSON-serializable"}
	case reflect.Complex64, reflect.Complex128:
		return &JSONSafetyError{Path: path, Message: "complex numbers are not JSON-serializable"}
	default:
		return &JSONSafetyError{Path: path, Message: fmt.Sprintf("%s is not JSON-serializable", v.Kind())}
	}
}

// MakeJSONSafe converts a value to a JSON-representable shape on a
// best-effort basis: times become RFC3339 strings, big integers and regexps
// become strings, non-string map keys are stringified, and nil pointer fields
// are dropped. Functions and channels cannot be converted and return an
// error. Cyclic references are preserved in the output graph: the converted
// container is memoized by source identity and reused at the cycle point.
func MakeJSONSafe(v any) (any, error) {
	return makeSafe(reflect.ValueOf(v), "root", make(map[uintptr]any))
}

func makeSafe(v reflect.Value, path string, memo map[uintptr]any) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	case reflect.Interface:
		return makeSafe(v.Elem(), path, memo)

	case reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		if converted, ok := memo[v.Pointer()]; ok {
			return converted, nil
		}
		return makeSafePointee(v, path, memo)

	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if converted, ok := memo[v.Pointer()]; ok {
			return converted, nil
		}
		out := make([]any, v.Len())
		memo[v.Pointer()] = out
		for i := 0; i < v.Len(); i++ {
			elem, err := makeSafe(v.Index(i), fmt.Sprintf("%s[%d]", path, i), memo)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	case reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := makeSafe(v.Index(i), fmt.Sprintf("%s[%d]", path, i), memo)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil

	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		if converted, ok := memo[v.Pointer()]; ok {
			return converted, nil
		}
		out := make(map[string]any, v.Len())
		memo[v.Pointer()] = out
		for _, key := range v.MapKeys() {
			name := stringifyKey(key)
			converted, err := makeSafe(v.MapIndex(key), path+"."+name, memo)
			if err != nil {
				return nil, err
			}
			out[name] = converted
		}
		return out, nil

	case reflect.Struct:
		switch v.Type() {
		case timeType:
			return v.Interface().(time.Time).Format(time.RFC3339Nano), nil
		case bigIntType:
			b := v.Interface().(big.Int)
			return b.String(), nil
		case regexpType:
			r := v.Interface().(regexp.Regexp)
			return r.String(), nil
		}
		out := make(map[string]any)
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			fv := v.Field(i)
			if fv.Kind() == reflect.Ptr && fv.IsNil() {
				continue // absent field, dropped
			}
			converted, err := makeSafe(fv, path+"."+jsonFieldName(field), memo)
			if err != nil {
				return nil, err
			}
			out[jsonFieldName(field)] = converted
		}
		return out, nil

	case reflect.Func:
		return nil, &JSONSafetyError{Path: path, Message: "cannot convert function to JSON"}
	case reflect.Chan:
		return nil, &JSONSafetyError{Path: path, Message: "cannot convert channel to JSON"}
	default:
		return nil, &JSONSafetyError{Path: path, Message: fmt.Sprintf("cannot convert %s to JSON", v.Kind())}
	}
}

// makeSafePointee converts the value behind a pointer, memoizing the result
// before descending so self-referential structs terminate.
func makeSafePointee(v reflect.Value, path string, memo map[uintptr]any) (any, error) {
	elem := v.Elem()

	// Only containers can participate in cycles through a pointer; memoize a
	// struct's output map up front so a cycle back to this pointer reuses it.
	if elem.Kind() == reflect.Struct {
		switch elem.Type() {
		case timeType, bigIntType, regexpType:
			return makeSafe(elem, path, memo)
		}
		out := make(map[string]any)
		memo[v.Pointer()] = out
		for i := 0; i < elem.NumField(); i++ {
			field := elem.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			fv := elem.Field(i)
			if fv.Kind() == reflect.Ptr && fv.IsNil() {
				continue
			}
			converted, err := makeSafe(fv, path+"."+jsonFieldName(field), memo)
			if err != nil {
				return nil, err
			}
			out[jsonFieldName(field)] = converted
		}
		return out, nil
	}

	converted, err := makeSafe(elem, path, memo)
	if err != nil {
		return nil, err
	}
	memo[v.Pointer()] = converted
	return converted, nil
}

// stringifyKey renders a map key as a string.
func stringifyKey(key reflect.Value) string {
	if key.Kind() == reflect.String {
		return key.String()
	}
	return fmt.Sprint(key.Interface())
}

// jsonFieldName returns the effective JSON name of a struct field, honoring a
// `json` tag when present.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return field.Name
	}
	return tag
}
