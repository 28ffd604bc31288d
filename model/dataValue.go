package model

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
	"github.com/siherrmann/flowly/helper"
)

// DataValue carries attribute data in and out of a JSONB column
type DataValue struct {
	Data interface{}
}

// Value implements the driver.Valuer interface for database storage
func (d DataValue) Value() (driver.Value, error) {
	if d.Data == nil {
		return nil, nil
	}
	b, err := d.Marshal()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (d *DataValue) Scan(value interface{}) error {
	return d.Unmarshal(value)
}

// Marshal converts the data to JSON bytes
func (d DataValue) Marshal() ([]byte, error) {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return nil, helper.NewError("marshal data", err)
	}
	return b, nil
}

// Unmarshal converts JSON bytes, a JSON string or a DataValue into the data
func (d *DataValue) Unmarshal(value interface{}) error {
	switch v := value.(type) {
	case nil:
		d.Data = nil
		return nil
	case DataValue:
		d.Data = v.Data
		return nil
	case string:
		value = []byte(v)
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}
	if len(b) == 0 {
		d.Data = nil
		return nil
	}

	data, err := unmarshalJSONValue(b)
	if err != nil {
		return helper.NewError("unmarshal data", err)
	}
	d.Data = data
	return nil
}
