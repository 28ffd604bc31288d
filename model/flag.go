package model

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/siherrmann/flowly/helper"
)

// AttributeFlag marks the role an attribute plays on its node
type AttributeFlag int

const (
	AttributeFlagOption AttributeFlag = 0
	AttributeFlagInput  AttributeFlag = 1
	AttributeFlagOutput AttributeFlag = 2
)

// AttributeFlags lists every valid flag
var AttributeFlags = []AttributeFlag{
	AttributeFlagOption,
	AttributeFlagInput,
	AttributeFlagOutput,
}

// String returns the upper case flag name
func (f AttributeFlag) String() string {
	switch f {
	case AttributeFlagOption:
		return "OPTION"
	case AttributeFlagInput:
		return "INPUT"
	case AttributeFlagOutput:
		return "OUTPUT"
	default:
		return fmt.Sprintf("AttributeFlag(%d)", int(f))
	}
}

// IsValid reports whether f is one of OPTION, INPUT or OUTPUT
func (f AttributeFlag) IsValid() bool {
	return f >= AttributeFlagOption && f <= AttributeFlagOutput
}

// ParseAttributeFlag converts a flag name or number into an AttributeFlag.
// Numbers may be of any Go integer kind, an integral float or a json.Number.
func ParseAttributeFlag(v interface{}) (AttributeFlag, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: attribute flag is nil", ErrInvalidValue)
	case string:
		for _, candidate := range AttributeFlags {
			if strings.EqualFold(t, candidate.String()) {
				return candidate, nil
			}
		}
		return 0, fmt.Errorf("%w: unknown attribute flag %q", ErrInvalidValue, t)
	case json.Number:
		n, err := numberValue(t)
		if err != nil {
			return 0, err
		}
		v = n
	}

	var f AttributeFlag
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("%w: attribute flag %d out of range", ErrInvalidValue, i)
		}
		f = AttributeFlag(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt32 {
			return 0, fmt.Errorf("%w: attribute flag %d out of range", ErrInvalidValue, u)
		}
		f = AttributeFlag(u)
	case reflect.Float32, reflect.Float64:
		x := rv.Float()
		if x != math.Trunc(x) || x < math.MinInt32 || x > math.MaxInt32 {
			return 0, fmt.Errorf("%w: attribute flag %v is not integral", ErrInvalidValue, x)
		}
		f = AttributeFlag(int(x))
	default:
		return 0, fmt.Errorf("%w: attribute flag of type %T", ErrInvalidValue, v)
	}

	if !f.IsValid() {
		return 0, fmt.Errorf("%w: attribute flag %d", ErrInvalidValue, int(f))
	}
	return f, nil
}

// MarshalJSON writes the flag name
func (f AttributeFlag) MarshalJSON() ([]byte, error) {
	if !f.IsValid() {
		return nil, helper.NewError("marshal attribute flag", fmt.Errorf("%w: attribute flag %d", ErrInvalidValue, int(f)))
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts the flag name or number
func (f *AttributeFlag) UnmarshalJSON(b []byte) error {
	var raw interface{}
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return helper.NewError("unmarshal attribute flag", err)
	}

	parsed, err := ParseAttributeFlag(raw)
	if err != nil {
		return helper.NewError("unmarshal attribute flag", err)
	}
	*f = parsed
	return nil
}

// MarshalYAML writes the flag name
func (f AttributeFlag) MarshalYAML() (interface{}, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("%w: attribute flag %d", ErrInvalidValue, int(f))
	}
	return f.String(), nil
}

// Value implements the driver.Valuer interface for database storage
func (f AttributeFlag) Value() (driver.Value, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("%w: attribute flag %d", ErrInvalidValue, int(f))
	}
	return int64(f), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (f *AttributeFlag) Scan(value interface{}) error {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	if s, ok := value.(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			value = n
		}
	}

	parsed, err := ParseAttributeFlag(value)
	if err != nil {
		return helper.NewError("scan attribute flag", err)
	}
	*f = parsed
	return nil
}
