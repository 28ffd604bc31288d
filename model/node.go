package model

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/siherrmann/flowly/helper"
)

// Node is a named container of attributes. Attributes keep the order
// in which they were added.
type Node struct {
	BaseEntity
	Name       string
	attributes []*Attribute
}

// NewNode creates a node with a fresh identifier
func NewNode(name string) *Node {
	return &Node{
		BaseEntity: NewBaseEntity(),
		Name:       name,
	}
}

// NewNodeWithUUID creates a node with a known identifier
func NewNodeWithUUID(id uuid.UUID, name string) (*Node, error) {
	entity, err := NewBaseEntityWithUUID(id)
	if err != nil {
		return nil, helper.NewError("new node", err)
	}
	return &Node{
		BaseEntity: entity,
		Name:       name,
	}, nil
}

// AddAttribute appends a to the node and makes the node its parent.
// It fails if a already belongs to another node or is already present.
func (n *Node) AddAttribute(a *Attribute) error {
	if a == nil {
		return helper.NewError("add attribute", fmt.Errorf("%w: attribute is nil", ErrInvalidValue))
	}
	if parent, ok := a.Parent(); ok && parent != n.UUID() {
		return helper.NewError("add attribute", fmt.Errorf("%w: attribute %s already belongs to node %s", ErrInvalidValue, a.UUID(), parent))
	}
	if n.AttributeByUUID(a.UUID()) != nil {
		return helper.NewError("add attribute", fmt.Errorf("%w: attribute %s already added", ErrInvalidValue, a.UUID()))
	}

	a.SetParent(n)
	n.attributes = append(n.attributes, a)
	return nil
}

// RemoveAttribute detaches the attribute with the given identifier.
// It reports whether the attribute was present.
func (n *Node) RemoveAttribute(id uuid.UUID) bool {
	for i, a := range n.attributes {
		if a.UUID() == id {
			a.ClearParent()
			n.attributes = append(n.attributes[:i], n.attributes[i+1:]...)
			return true
		}
	}
	return false
}

// Attributes returns all attributes in insertion order
func (n *Node) Attributes() []*Attribute {
	return append([]*Attribute(nil), n.attributes...)
}

// AttributesByFlag returns the attributes with the given flag in insertion order
func (n *Node) AttributesByFlag(flag AttributeFlag) []*Attribute {
	var attributes []*Attribute
	for _, a := range n.attributes {
		if a.Flag() == flag {
			attributes = append(attributes, a)
		}
	}
	return attributes
}

// Inputs returns the INPUT attributes
func (n *Node) Inputs() []*Attribute { return n.AttributesByFlag(AttributeFlagInput) }

// Outputs returns the OUTPUT attributes
func (n *Node) Outputs() []*Attribute { return n.AttributesByFlag(AttributeFlagOutput) }

// Options returns the OPTION attributes
func (n *Node) Options() []*Attribute { return n.AttributesByFlag(AttributeFlagOption) }

// AttributeByName returns the first attribute with the given name or nil
func (n *Node) AttributeByName(name string) *Attribute {
	for _, a := range n.attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AttributeByUUID returns the attribute with the given identifier or nil
func (n *Node) AttributeByUUID(id uuid.UUID) *Attribute {
	for _, a := range n.attributes {
		if a.UUID() == id {
			return a
		}
	}
	return nil
}

// String returns a short description for logs
func (n *Node) String() string {
	return fmt.Sprintf("Node(name=%s, uuid=%s, attributes=%d)", n.Name, n.id, len(n.attributes))
}

// ToMap returns the map representation of the node including its attributes
func (n *Node) ToMap() map[string]interface{} {
	m := n.BaseEntity.ToMap()
	m["name"] = n.Name

	attributes := make([]interface{}, 0, len(n.attributes))
	for _, a := range n.attributes {
		attributes = append(attributes, a.ToMap())
	}
	m["attributes"] = attributes

	return m
}

// ToJSON returns the JSON representation of the node
func (n *Node) ToJSON() (string, error) {
	return marshalJSON(n.ToMap())
}

// ToYAML returns the YAML representation of the node
func (n *Node) ToYAML() (string, error) {
	return marshalYAML(n.ToMap())
}

// MarshalJSON implements json.Marshaler
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Node) UnmarshalJSON(b []byte) error {
	m, err := unmarshalJSONMap(b)
	if err != nil {
		return helper.NewError("unmarshal node", err)
	}
	node, err := NodeFromMap(m)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}

// NodeFromMap creates a node and its attributes from the map representation
func NodeFromMap(m map[string]interface{}) (*Node, error) {
	entity, err := BaseEntityFromMap(m)
	if err != nil {
		return nil, helper.NewError("node from map", err)
	}

	name := ""
	if rawName, ok := m["name"]; ok && rawName != nil {
		name, ok = rawName.(string)
		if !ok {
			return nil, helper.NewError("node from map", fmt.Errorf("%w: 'name' must be a string, got %T", ErrInvalidValue, rawName))
		}
	}

	n := &Node{BaseEntity: entity, Name: name}

	rawAttributes, ok := m["attributes"]
	if !ok || rawAttributes == nil {
		return n, nil
	}
	list, ok := rawAttributes.([]interface{})
	if !ok {
		return nil, helper.NewError("node from map", fmt.Errorf("%w: 'attributes' must be a list, got %T", ErrInvalidValue, rawAttributes))
	}

	for i, raw := range list {
		am, ok := raw.(map[string]interface{})
		if !ok {
			return nil, helper.NewError(fmt.Sprintf("node from map attribute %d", i), fmt.Errorf("%w: expected a map, got %T", ErrInvalidValue, raw))
		}
		a, err := AttributeFromMap(am)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("node from map attribute %d", i), err)
		}
		err = n.AddAttribute(a)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("node from map attribute %d", i), err)
		}
	}

	return n, nil
}

// NodeFromJSON creates a node from its JSON representation
func NodeFromJSON(s string) (*Node, error) {
	m, err := unmarshalJSONMap([]byte(s))
	if err != nil {
		return nil, helper.NewError("node from json", err)
	}
	return NodeFromMap(m)
}

// NodeFromYAML creates a node from its YAML representation
func NodeFromYAML(s string) (*Node, error) {
	m, err := unmarshalYAMLMap([]byte(s))
	if err != nil {
		return nil, helper.NewError("node from yaml", err)
	}
	return NodeFromMap(m)
}
