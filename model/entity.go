package model

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/siherrmann/flowly/helper"
	"gopkg.in/yaml.v3"
)

// Identifiable is anything carrying an entity identifier
type Identifiable interface {
	UUID() uuid.UUID
}

// BaseEntity is the identity every flowly object is built on.
// The identifier is assigned once and never changes. Equality and
// hashing only look at the identifier.
type BaseEntity struct {
	id uuid.UUID
}

// NewBaseEntity creates an entity with a fresh time based identifier
func NewBaseEntity() BaseEntity {
	return BaseEntity{id: newUUID()}
}

// NewBaseEntityWithUUID creates an entity with the given identifier
func NewBaseEntityWithUUID(id uuid.UUID) (BaseEntity, error) {
	if id == uuid.Nil {
		return BaseEntity{}, helper.NewError("base entity", fmt.Errorf("%w: nil uuid", ErrInvalidValue))
	}
	return BaseEntity{id: id}, nil
}

// newUUID prefers version 1 identifiers and falls back to random ones
// if the clock sequence cannot be initialised.
func newUUID() uuid.UUID {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.New()
	}
	return id
}

// UUID returns the identifier
func (e BaseEntity) UUID() uuid.UUID {
	return e.id
}

// Equal reports whether other has the same identifier.
// A nil other is never equal.
func (e BaseEntity) Equal(other Identifiable) bool {
	if other == nil {
		return false
	}
	if rv := reflect.ValueOf(other); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return false
	}
	return e.id == other.UUID()
}

// Hash returns a stable hash of the identifier
func (e BaseEntity) Hash() uint64 {
	return xxhash.Sum64(e.id[:])
}

// String returns the identifier in its canonical form
func (e BaseEntity) String() string {
	return e.id.String()
}

// ToMap returns the map representation of the entity
func (e BaseEntity) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"uuid": e.id.String(),
	}
}

// ToJSON returns the JSON representation of the entity
func (e BaseEntity) ToJSON() (string, error) {
	return marshalJSON(e.ToMap())
}

// ToYAML returns the YAML representation of the entity
func (e BaseEntity) ToYAML() (string, error) {
	return marshalYAML(e.ToMap())
}

// MarshalJSON implements json.Marshaler
func (e BaseEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// UnmarshalJSON implements json.Unmarshaler
func (e *BaseEntity) UnmarshalJSON(b []byte) error {
	m, err := unmarshalJSONMap(b)
	if err != nil {
		return err
	}
	entity, err := BaseEntityFromMap(m)
	if err != nil {
		return err
	}
	*e = entity
	return nil
}

// BaseEntityFromMap creates an entity from its map representation
func BaseEntityFromMap(m map[string]interface{}) (BaseEntity, error) {
	id, err := uuidFromMap(m, "uuid")
	if err != nil {
		return BaseEntity{}, helper.NewError("base entity from map", err)
	}
	return NewBaseEntityWithUUID(id)
}

// BaseEntityFromJSON creates an entity from its JSON representation
func BaseEntityFromJSON(s string) (BaseEntity, error) {
	m, err := unmarshalJSONMap([]byte(s))
	if err != nil {
		return BaseEntity{}, helper.NewError("base entity from json", err)
	}
	return BaseEntityFromMap(m)
}

// BaseEntityFromYAML creates an entity from its YAML representation
func BaseEntityFromYAML(s string) (BaseEntity, error) {
	m, err := unmarshalYAMLMap([]byte(s))
	if err != nil {
		return BaseEntity{}, helper.NewError("base entity from yaml", err)
	}
	return BaseEntityFromMap(m)
}

func uuidFromMap(m map[string]interface{}, key string) (uuid.UUID, error) {
	raw, ok := m[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: map must contain a '%s' key", ErrInvalidValue, key)
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: '%s' must be a string, got %T", ErrInvalidValue, key, raw)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid uuid %q: %v", ErrInvalidValue, s, err)
	}
	return id, nil
}

func marshalJSON(m map[string]interface{}) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", helper.NewError("json marshal", err)
	}
	return string(b), nil
}

func marshalYAML(m map[string]interface{}) (string, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return "", helper.NewError("yaml marshal", err)
	}
	return string(b), nil
}

// unmarshalJSONValue decodes b keeping integral numbers as int64
func unmarshalJSONValue(b []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()

	var v interface{}
	err := decoder.Decode(&v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: unexpected data after json value", ErrInvalidValue)
	}
	return canonicalValue(v)
}

func unmarshalJSONMap(b []byte) (map[string]interface{}, error) {
	v, err := unmarshalJSONValue(b)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected a json object", ErrInvalidValue)
	}
	return m, nil
}

func unmarshalYAMLMap(b []byte) (map[string]interface{}, error) {
	var m map[string]interface{}
	err := yaml.Unmarshal(b, &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: expected a yaml mapping", ErrInvalidValue)
	}
	v, err := canonicalValue(m)
	if err != nil {
		return nil, err
	}
	return v.(map[string]interface{}), nil
}
