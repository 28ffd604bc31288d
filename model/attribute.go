package model

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/siherrmann/flowly/helper"
)

// Attribute is a named, typed and flagged value of a node.
// The parent is a reference to the owning node's identifier only.
type Attribute struct {
	BaseEntity
	Name     string
	data     interface{}
	dataType DataType
	flag     AttributeFlag
	parent   *uuid.UUID
}

// NewAttribute creates an attribute with a fresh identifier and no parent.
// An empty data type is inferred from data.
func NewAttribute(name string, data interface{}, dataType DataType, flag AttributeFlag) (*Attribute, error) {
	return newAttribute(NewBaseEntity(), name, data, dataType, flag, nil)
}

// NewAttributeWithUUID creates an attribute with a known identifier and parent
func NewAttributeWithUUID(id uuid.UUID, name string, data interface{}, dataType DataType, flag AttributeFlag, parent *uuid.UUID) (*Attribute, error) {
	entity, err := NewBaseEntityWithUUID(id)
	if err != nil {
		return nil, helper.NewError("new attribute", err)
	}
	return newAttribute(entity, name, data, dataType, flag, parent)
}

func newAttribute(entity BaseEntity, name string, data interface{}, dataType DataType, flag AttributeFlag, parent *uuid.UUID) (*Attribute, error) {
	if !flag.IsValid() {
		return nil, helper.NewError("new attribute", fmt.Errorf("%w: attribute flag %d", ErrInvalidValue, int(flag)))
	}

	if dataType == "" {
		dataType = InferDataType(data)
	}
	if !dataType.IsValid() {
		return nil, helper.NewError("new attribute", fmt.Errorf("%w: unknown data type %q", ErrInvalidValue, string(dataType)))
	}

	coerced, err := dataType.Coerce(data)
	if err != nil {
		return nil, helper.NewError("new attribute", err)
	}

	a := &Attribute{
		BaseEntity: entity,
		Name:       name,
		data:       coerced,
		dataType:   dataType,
		flag:       flag,
	}
	if parent != nil && *parent != uuid.Nil {
		p := *parent
		a.parent = &p
	}

	return a, nil
}

// Data returns the current value
func (a *Attribute) Data() interface{} {
	return a.data
}

// SetData replaces the value after coercing it to the data type
func (a *Attribute) SetData(v interface{}) error {
	coerced, err := a.dataType.Coerce(v)
	if err != nil {
		return helper.NewError("set data", err)
	}
	a.data = coerced
	return nil
}

// DataType returns the declared type of the value
func (a *Attribute) DataType() DataType {
	return a.dataType
}

// Flag returns the role of the attribute
func (a *Attribute) Flag() AttributeFlag {
	return a.flag
}

// IsInput reports whether the attribute is flagged INPUT
func (a *Attribute) IsInput() bool { return a.flag == AttributeFlagInput }

// IsOutput reports whether the attribute is flagged OUTPUT
func (a *Attribute) IsOutput() bool { return a.flag == AttributeFlagOutput }

// IsOption reports whether the attribute is flagged OPTION
func (a *Attribute) IsOption() bool { return a.flag == AttributeFlagOption }

// Parent returns the identifier of the owning node, if any
func (a *Attribute) Parent() (uuid.UUID, bool) {
	if a.parent == nil {
		return uuid.Nil, false
	}
	return *a.parent, true
}

// SetParent points the attribute at n. A nil node clears the parent.
func (a *Attribute) SetParent(n *Node) {
	if n == nil {
		a.parent = nil
		return
	}
	id := n.UUID()
	a.parent = &id
}

// ClearParent removes the parent reference
func (a *Attribute) ClearParent() {
	a.parent = nil
}

// String returns a short description for logs
func (a *Attribute) String() string {
	return fmt.Sprintf("Attribute(name=%s, uuid=%s, flag=%s)", a.Name, a.id, a.flag)
}

// ToMap returns the map representation of the attribute
func (a *Attribute) ToMap() map[string]interface{} {
	m := a.BaseEntity.ToMap()
	m["name"] = a.Name
	m["data"] = a.data
	m["data_type"] = string(a.dataType)
	m["flag"] = a.flag.String()
	if a.parent != nil {
		m["parent"] = a.parent.String()
	} else {
		m["parent"] = nil
	}
	return m
}

// ToJSON returns the JSON representation of the attribute
func (a *Attribute) ToJSON() (string, error) {
	return marshalJSON(a.ToMap())
}

// ToYAML returns the YAML representation of the attribute
func (a *Attribute) ToYAML() (string, error) {
	return marshalYAML(a.ToMap())
}

// MarshalJSON implements json.Marshaler
func (a Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToMap())
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Attribute) UnmarshalJSON(b []byte) error {
	m, err := unmarshalJSONMap(b)
	if err != nil {
		return helper.NewError("unmarshal attribute", err)
	}
	attribute, err := AttributeFromMap(m)
	if err != nil {
		return err
	}
	*a = *attribute
	return nil
}

// AttributeFromMap creates an attribute from its map representation.
// uuid, name and flag are required.
func AttributeFromMap(m map[string]interface{}) (*Attribute, error) {
	entity, err := BaseEntityFromMap(m)
	if err != nil {
		return nil, helper.NewError("attribute from map", err)
	}

	rawName, ok := m["name"]
	if !ok {
		return nil, helper.NewError("attribute from map", fmt.Errorf("%w: map must contain a 'name' key", ErrInvalidValue))
	}
	name, ok := rawName.(string)
	if !ok {
		return nil, helper.NewError("attribute from map", fmt.Errorf("%w: 'name' must be a string, got %T", ErrInvalidValue, rawName))
	}

	rawFlag, ok := m["flag"]
	if !ok {
		return nil, helper.NewError("attribute from map", fmt.Errorf("%w: map must contain a 'flag' key", ErrInvalidValue))
	}
	flag, err := ParseAttributeFlag(rawFlag)
	if err != nil {
		return nil, helper.NewError("attribute from map", err)
	}

	dataType := DataTypeAny
	if rawDataType, ok := m["data_type"]; ok && rawDataType != nil {
		s, ok := rawDataType.(string)
		if !ok {
			return nil, helper.NewError("attribute from map", fmt.Errorf("%w: 'data_type' must be a string, got %T", ErrInvalidValue, rawDataType))
		}
		dataType, err = ParseDataType(s)
		if err != nil {
			return nil, helper.NewError("attribute from map", err)
		}
	}

	var parent *uuid.UUID
	if rawParent, ok := m["parent"]; ok && rawParent != nil {
		id, err := uuidFromMap(m, "parent")
		if err != nil {
			return nil, helper.NewError("attribute from map", err)
		}
		parent = &id
	}

	return newAttribute(entity, name, m["data"], dataType, flag, parent)
}

// AttributeFromJSON creates an attribute from its JSON representation
func AttributeFromJSON(s string) (*Attribute, error) {
	m, err := unmarshalJSONMap([]byte(s))
	if err != nil {
		return nil, helper.NewError("attribute from json", err)
	}
	return AttributeFromMap(m)
}

// AttributeFromYAML creates an attribute from its YAML representation
func AttributeFromYAML(s string) (*Attribute, error) {
	m, err := unmarshalYAMLMap([]byte(s))
	if err != nil {
		return nil, helper.NewError("attribute from yaml", err)
	}
	return AttributeFromMap(m)
}
