package database

import (
	"math"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/flowly/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initAttributeHandlers(t *testing.T) (*NodesDBHandler, *AttributesDBHandler) {
	database := initDB(t)

	// Needed because attributes reference nodes
	nodesDbHandler, err := NewNodesDBHandler(database, true)
	require.NoError(t, err, "Expected NewNodesDBHandler to not return an error")

	attributesDbHandler, err := NewAttributesDBHandler(database, true)
	require.NoError(t, err, "Expected NewAttributesDBHandler to not return an error")

	return nodesDbHandler, attributesDbHandler
}

func TestAttributesNewAttributesDBHandler(t *testing.T) {
	_, attributesDbHandler := initAttributeHandlers(t)

	t.Run("Valid call NewAttributesDBHandler", func(t *testing.T) {
		require.NotNil(t, attributesDbHandler)
		require.NotNil(t, attributesDbHandler.db)
	})

	t.Run("Invalid call NewAttributesDBHandler with nil database", func(t *testing.T) {
		_, err := NewAttributesDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestAttributesUpsertAndSelect(t *testing.T) {
	nodesDbHandler, attributesDbHandler := initAttributeHandlers(t)

	node := model.NewNode("adder")
	require.NoError(t, nodesDbHandler.UpsertNode(node))
	defer nodesDbHandler.DeleteNode(node.UUID())

	t.Run("Insert attribute with parent", func(t *testing.T) {
		attribute, err := model.NewAttribute("A", 5, model.DataTypeInt, model.AttributeFlagInput)
		require.NoError(t, err)
		require.NoError(t, node.AddAttribute(attribute))

		err = attributesDbHandler.UpsertAttribute(attribute, 0)
		require.NoError(t, err, "Expected UpsertAttribute to not return an error")

		retrieved, err := attributesDbHandler.SelectAttribute(attribute.UUID())
		require.NoError(t, err)
		assert.True(t, attribute.Equal(retrieved))
		assert.Equal(t, "A", retrieved.Name)
		assert.Equal(t, int64(5), retrieved.Data(), "Expected JSONB number to be coerced back to int")
		assert.Equal(t, model.DataTypeInt, retrieved.DataType())
		assert.Equal(t, model.AttributeFlagInput, retrieved.Flag())

		parent, ok := retrieved.Parent()
		require.True(t, ok)
		assert.Equal(t, node.UUID(), parent)
	})

	t.Run("Insert attribute without parent and nil data", func(t *testing.T) {
		attribute, err := model.NewAttribute("orphan", nil, model.DataTypeAny, model.AttributeFlagOption)
		require.NoError(t, err)

		require.NoError(t, attributesDbHandler.UpsertAttribute(attribute, 0))
		defer attributesDbHandler.DeleteAttribute(attribute.UUID())

		retrieved, err := attributesDbHandler.SelectAttribute(attribute.UUID())
		require.NoError(t, err)
		assert.Nil(t, retrieved.Data())
		_, ok := retrieved.Parent()
		assert.False(t, ok)
	})

	t.Run("Insert structured data", func(t *testing.T) {
		attribute, err := model.NewAttribute("settings", map[string]interface{}{"mode": "fast", "tags": []interface{}{"a"}}, model.DataTypeMap, model.AttributeFlagOption)
		require.NoError(t, err)
		require.NoError(t, node.AddAttribute(attribute))
		require.NoError(t, attributesDbHandler.UpsertAttribute(attribute, 1))

		retrieved, err := attributesDbHandler.SelectAttribute(attribute.UUID())
		require.NoError(t, err)
		assert.Equal(t, attribute.Data(), retrieved.Data())
	})

	t.Run("Large and nested integers keep their value", func(t *testing.T) {
		big, err := model.NewAttribute("big", int64(math.MaxInt64), model.DataTypeInt, model.AttributeFlagInput)
		require.NoError(t, err)
		counts, err := model.NewAttribute("counts", []int{1, 1<<53 + 1}, model.DataTypeAny, model.AttributeFlagOption)
		require.NoError(t, err)

		for i, attribute := range []*model.Attribute{big, counts} {
			require.NoError(t, node.AddAttribute(attribute))
			require.NoError(t, attributesDbHandler.UpsertAttribute(attribute, 2+i))

			retrieved, err := attributesDbHandler.SelectAttribute(attribute.UUID())
			require.NoError(t, err)
			assert.Equal(t, attribute.Data(), retrieved.Data())
		}
		assert.Equal(t, []interface{}{int64(1), int64(1<<53 + 1)}, counts.Data())
	})

	t.Run("Insert attribute of unknown node fails", func(t *testing.T) {
		attribute, err := model.NewAttribute("stray", 1, model.DataTypeInt, model.AttributeFlagInput)
		require.NoError(t, err)
		require.NoError(t, model.NewNode("not stored").AddAttribute(attribute))

		err = attributesDbHandler.UpsertAttribute(attribute, 0)
		assert.Error(t, err, "Expected foreign key violation")
	})

	t.Run("Select missing attribute", func(t *testing.T) {
		_, err := attributesDbHandler.SelectAttribute(uuid.New())
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestAttributesByNodeAndFlag(t *testing.T) {
	nodesDbHandler, attributesDbHandler := initAttributeHandlers(t)

	node := model.NewNode("multiplier")
	require.NoError(t, nodesDbHandler.UpsertNode(node))
	defer nodesDbHandler.DeleteNode(node.UUID())

	cases := []struct {
		name string
		flag model.AttributeFlag
	}{
		{"Res", model.AttributeFlagOutput},
		{"A", model.AttributeFlagInput},
		{"B", model.AttributeFlagInput},
		{"scale", model.AttributeFlagOption},
	}
	for i, tc := range cases {
		attribute, err := model.NewAttribute(tc.name, nil, model.DataTypeFloat, tc.flag)
		require.NoError(t, err)
		require.NoError(t, node.AddAttribute(attribute))
		require.NoError(t, attributesDbHandler.UpsertAttribute(attribute, i))
	}

	t.Run("Select by node keeps position order", func(t *testing.T) {
		attributes, err := attributesDbHandler.SelectAttributesByNode(node.UUID())
		require.NoError(t, err)
		require.Len(t, attributes, 4)
		for i, tc := range cases {
			assert.Equal(t, tc.name, attributes[i].Name)
		}
	})

	t.Run("Select by flag", func(t *testing.T) {
		inputs, err := attributesDbHandler.SelectAttributesByFlag(node.UUID(), model.AttributeFlagInput)
		require.NoError(t, err)
		require.Len(t, inputs, 2)
		assert.Equal(t, "A", inputs[0].Name)
		assert.Equal(t, "B", inputs[1].Name)

		outputs, err := attributesDbHandler.SelectAttributesByFlag(node.UUID(), model.AttributeFlagOutput)
		require.NoError(t, err)
		assert.Len(t, outputs, 1)
	})

	t.Run("Select by invalid flag fails", func(t *testing.T) {
		_, err := attributesDbHandler.SelectAttributesByFlag(node.UUID(), model.AttributeFlag(8))
		assert.ErrorIs(t, err, model.ErrInvalidValue)
	})

	t.Run("Select by unknown node is empty", func(t *testing.T) {
		attributes, err := attributesDbHandler.SelectAttributesByNode(uuid.New())
		require.NoError(t, err)
		assert.Empty(t, attributes)
	})
}

func TestAttributesUpdateAndDelete(t *testing.T) {
	nodesDbHandler, attributesDbHandler := initAttributeHandlers(t)

	node := model.NewNode("counter")
	require.NoError(t, nodesDbHandler.UpsertNode(node))

	var attributes []*model.Attribute
	for i, name := range []string{"count", "step", "limit"} {
		attribute, err := model.NewAttribute(name, i, model.DataTypeInt, model.AttributeFlagInput)
		require.NoError(t, err)
		require.NoError(t, node.AddAttribute(attribute))
		require.NoError(t, attributesDbHandler.UpsertAttribute(attribute, i))
		attributes = append(attributes, attribute)
	}

	t.Run("Update data", func(t *testing.T) {
		require.NoError(t, attributes[0].SetData(42))

		err := attributesDbHandler.UpdateAttributeData(attributes[0])
		require.NoError(t, err)

		retrieved, err := attributesDbHandler.SelectAttribute(attributes[0].UUID())
		require.NoError(t, err)
		assert.Equal(t, int64(42), retrieved.Data())
	})

	t.Run("Update data of missing attribute fails", func(t *testing.T) {
		attribute, err := model.NewAttribute("ghost", 1, model.DataTypeInt, model.AttributeFlagInput)
		require.NoError(t, err)

		err = attributesDbHandler.UpdateAttributeData(attribute)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Delete all but kept attributes", func(t *testing.T) {
		deleted, err := attributesDbHandler.DeleteAttributesByNodeExcept(node.UUID(), []uuid.UUID{attributes[0].UUID(), attributes[2].UUID()})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		remaining, err := attributesDbHandler.SelectAttributesByNode(node.UUID())
		require.NoError(t, err)
		require.Len(t, remaining, 2)
		assert.Equal(t, "count", remaining[0].Name)
		assert.Equal(t, "limit", remaining[1].Name)
	})

	t.Run("Delete single attribute", func(t *testing.T) {
		require.NoError(t, attributesDbHandler.DeleteAttribute(attributes[0].UUID()))

		_, err := attributesDbHandler.SelectAttribute(attributes[0].UUID())
		assert.Error(t, err)
	})

	t.Run("Deleting the node cascades", func(t *testing.T) {
		require.NoError(t, nodesDbHandler.DeleteNode(node.UUID()))

		remaining, err := attributesDbHandler.SelectAttributesByNode(node.UUID())
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("Delete with empty keep list removes everything", func(t *testing.T) {
		other := model.NewNode("other")
		require.NoError(t, nodesDbHandler.UpsertNode(other))
		defer nodesDbHandler.DeleteNode(other.UUID())

		attribute, err := model.NewAttribute("x", nil, model.DataTypeAny, model.AttributeFlagOutput)
		require.NoError(t, err)
		require.NoError(t, other.AddAttribute(attribute))
		require.NoError(t, attributesDbHandler.UpsertAttribute(attribute, 0))

		deleted, err := attributesDbHandler.DeleteAttributesByNodeExcept(other.UUID(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
	})
}
