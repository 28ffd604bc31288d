package model

import (
	"fmt"
	"math"
	"reflect"

	"github.com/goccy/go-json"
)

// DataType describes the kind of value an attribute carries
type DataType string

const (
	DataTypeAny    DataType = "any"
	DataTypeInt    DataType = "int"
	DataTypeFloat  DataType = "float"
	DataTypeString DataType = "string"
	DataTypeBool   DataType = "bool"
	DataTypeList   DataType = "list"
	DataTypeMap    DataType = "map"
)

// IsValid reports whether d is a known data type
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeAny, DataTypeInt, DataTypeFloat, DataTypeString, DataTypeBool, DataTypeList, DataTypeMap:
		return true
	}
	return false
}

// Compatible reports whether values of d can flow into other.
// Any is compatible with everything.
func (d DataType) Compatible(other DataType) bool {
	return d == DataTypeAny || other == DataTypeAny || d == other
}

// ParseDataType validates a data type name. An empty name means any.
func ParseDataType(s string) (DataType, error) {
	if s == "" {
		return DataTypeAny, nil
	}
	d := DataType(s)
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown data type %q", ErrInvalidValue, s)
	}
	return d, nil
}

// InferDataType derives the data type of v
func InferDataType(v interface{}) DataType {
	switch t := v.(type) {
	case nil:
		return DataTypeAny
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return DataTypeInt
		}
		return DataTypeFloat
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return DataTypeInt
	case reflect.Float32, reflect.Float64:
		return DataTypeFloat
	case reflect.String:
		return DataTypeString
	case reflect.Bool:
		return DataTypeBool
	case reflect.Slice, reflect.Array:
		return DataTypeList
	case reflect.Map:
		if reflect.TypeOf(v).Key().Kind() == reflect.String {
			return DataTypeMap
		}
	}
	return DataTypeAny
}

// Coerce converts v into the canonical representation of d:
// int64, float64, string, bool, []interface{} or map[string]interface{}.
// Numbers nested in lists and maps are normalized the same way, for any
// included. Nil is valid for every data type.
func (d DataType) Coerce(v interface{}) (interface{}, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: unknown data type %q", ErrInvalidValue, string(d))
	}
	if v == nil {
		return nil, nil
	}

	c, err := canonicalValue(v)
	if err != nil {
		return nil, err
	}

	switch d {
	case DataTypeAny:
		return c, nil
	case DataTypeInt:
		switch t := c.(type) {
		case int64:
			return t, nil
		case float64:
			// -(1<<63) is exact in float64, 1<<63 is already out of range
			if t != math.Trunc(t) || t >= 1<<63 || t < -(1<<63) {
				return nil, fmt.Errorf("%w: %v is not an int", ErrInvalidValue, v)
			}
			return int64(t), nil
		}
	case DataTypeFloat:
		switch t := c.(type) {
		case float64:
			return t, nil
		case int64:
			return float64(t), nil
		}
	case DataTypeString:
		rv := reflect.ValueOf(c)
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case DataTypeBool:
		rv := reflect.ValueOf(c)
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	case DataTypeList:
		if list, ok := c.([]interface{}); ok {
			return list, nil
		}
	case DataTypeMap:
		if m, ok := c.(map[string]interface{}); ok {
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %T is not a %s", ErrInvalidValue, v, string(d))
}

// canonicalValue turns every integer into int64, every float and non
// integral json.Number into float64, slices into []interface{} and string
// keyed maps into map[string]interface{}, recursively. Anything else is
// returned unchanged.
func canonicalValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		return numberValue(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v overflows int", ErrInvalidValue, v)
		}
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		list := make([]interface{}, rv.Len())
		for i := range list {
			item, err := canonicalValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v, nil
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := canonicalValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = item
		}
		return m, nil
	}

	return v, nil
}

// numberValue keeps integral JSON numbers as int64
func numberValue(n json.Number) (interface{}, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", ErrInvalidValue, string(n))
	}
	return f, nil
}
