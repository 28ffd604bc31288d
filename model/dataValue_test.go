package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataValueValue(t *testing.T) {
	t.Run("Nil data is NULL", func(t *testing.T) {
		v, err := DataValue{}.Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("Data is stored as JSON text", func(t *testing.T) {
		v, err := DataValue{Data: map[string]interface{}{"k": "v"}}.Value()
		require.NoError(t, err)
		assert.JSONEq(t, `{"k":"v"}`, v.(string))
	})

	t.Run("Scalars", func(t *testing.T) {
		v, err := DataValue{Data: int64(3)}.Value()
		require.NoError(t, err)
		assert.Equal(t, "3", v)
	})
}

func TestDataValueScan(t *testing.T) {
	t.Run("Scan from JSON bytes", func(t *testing.T) {
		var d DataValue
		require.NoError(t, d.Scan([]byte(`[1,"a"]`)))
		assert.Equal(t, []interface{}{int64(1), "a"}, d.Data)
	})

	t.Run("Scan keeps large integers exact", func(t *testing.T) {
		var d DataValue
		require.NoError(t, d.Scan([]byte(`[9223372036854775807, 9007199254740993, 1.5]`)))
		assert.Equal(t, []interface{}{int64(math.MaxInt64), int64(1<<53 + 1), float64(1.5)}, d.Data)
	})

	t.Run("Value and Scan round-trip", func(t *testing.T) {
		in := DataValue{Data: map[string]interface{}{"max": int64(math.MaxInt64), "odd": int64(1<<53 + 1)}}
		v, err := in.Value()
		require.NoError(t, err)

		var out DataValue
		require.NoError(t, out.Scan(v))
		assert.Equal(t, in.Data, out.Data)
	})

	t.Run("Scan trailing data fails", func(t *testing.T) {
		var d DataValue
		assert.Error(t, d.Scan([]byte(`1 2`)))
	})

	t.Run("Scan from string", func(t *testing.T) {
		var d DataValue
		require.NoError(t, d.Scan(`"text"`))
		assert.Equal(t, "text", d.Data)
	})

	t.Run("Scan from nil", func(t *testing.T) {
		d := DataValue{Data: "old"}
		require.NoError(t, d.Scan(nil))
		assert.Nil(t, d.Data)
	})

	t.Run("Scan from empty bytes", func(t *testing.T) {
		d := DataValue{Data: "old"}
		require.NoError(t, d.Scan([]byte{}))
		assert.Nil(t, d.Data)
	})

	t.Run("Scan from DataValue", func(t *testing.T) {
		var d DataValue
		require.NoError(t, d.Scan(DataValue{Data: true}))
		assert.Equal(t, true, d.Data)
	})

	t.Run("Scan invalid JSON", func(t *testing.T) {
		var d DataValue
		assert.Error(t, d.Scan([]byte(`{invalid`)))
	})

	t.Run("Scan invalid type", func(t *testing.T) {
		var d DataValue
		err := d.Scan(12345)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})
}
