package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/flowly/helper"
	"github.com/siherrmann/flowly/model"
	loadSql "github.com/siherrmann/flowly/sql"
)

// AttributesDBHandlerFunctions defines the interface for Attributes database operations.
type AttributesDBHandlerFunctions interface {
	UpsertAttribute(attribute *model.Attribute, position int) error
	SelectAttribute(id uuid.UUID) (*model.Attribute, error)
	SelectAttributesByNode(nodeID uuid.UUID) ([]*model.Attribute, error)
	SelectAttributesByFlag(nodeID uuid.UUID, flag model.AttributeFlag) ([]*model.Attribute, error)
	UpdateAttributeData(attribute *model.Attribute) error
	DeleteAttribute(id uuid.UUID) error
	DeleteAttributesByNodeExcept(nodeID uuid.UUID, keep []uuid.UUID) (int, error)
}

// AttributesDBHandler handles attribute-related database operations
type AttributesDBHandler struct {
	db *helper.Database
}

// NewAttributesDBHandler creates a new attributes database handler.
// The nodes table has to exist already, as attributes reference it.
// If force is true, it will reload the SQL functions even if they already exist.
func NewAttributesDBHandler(db *helper.Database, force bool) (*AttributesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	attributesDbHandler := &AttributesDBHandler{
		db: db,
	}

	err := loadSql.LoadAttributesSql(attributesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load attributes sql", err)
	}

	err = attributesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized AttributesDBHandler")

	return attributesDbHandler, nil
}

// CreateTable creates the 'attributes' table, its indexes and trigger if missing
func (h *AttributesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_attributes();`)
	if err != nil {
		return helper.NewError("init attributes", err)
	}

	h.db.Logger.Info("Checked/created table attributes")

	return nil
}

// UpsertAttribute inserts or replaces an attribute. Position orders the
// attributes of one node.
func (h *AttributesDBHandler) UpsertAttribute(attribute *model.Attribute, position int) error {
	if attribute == nil {
		return helper.NewError("upsert attribute", fmt.Errorf("%w: attribute is nil", model.ErrInvalidValue))
	}

	parent, ok := attribute.Parent()

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_attribute($1, $2, $3, $4, $5, $6, $7)`,
		attribute.UUID(),
		uuid.NullUUID{UUID: parent, Valid: ok},
		position,
		attribute.Name,
		model.DataValue{Data: attribute.Data()},
		string(attribute.DataType()),
		attribute.Flag(),
	)

	stored, err := scanAttribute(row)
	if err != nil {
		return helper.NewError("scan", err)
	}

	attribute.Name = stored.Name

	return nil
}

// SelectAttribute retrieves an attribute by its identifier
func (h *AttributesDBHandler) SelectAttribute(id uuid.UUID) (*model.Attribute, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_attribute($1)`,
		id,
	)

	attribute, err := scanAttribute(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return attribute, nil
}

// SelectAttributesByNode retrieves the attributes of a node in position order
func (h *AttributesDBHandler) SelectAttributesByNode(nodeID uuid.UUID) ([]*model.Attribute, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_attributes_by_node($1)`,
		nodeID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanAttributes(rows)
}

// SelectAttributesByFlag retrieves the attributes of a node with the given flag
func (h *AttributesDBHandler) SelectAttributesByFlag(nodeID uuid.UUID, flag model.AttributeFlag) ([]*model.Attribute, error) {
	if !flag.IsValid() {
		return nil, helper.NewError("select attributes by flag", fmt.Errorf("%w: attribute flag %d", model.ErrInvalidValue, int(flag)))
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_attributes_by_flag($1, $2)`,
		nodeID,
		flag,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanAttributes(rows)
}

// UpdateAttributeData stores the current data of the attribute
func (h *AttributesDBHandler) UpdateAttributeData(attribute *model.Attribute) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_attribute_data($1, $2)`,
		attribute.UUID(),
		model.DataValue{Data: attribute.Data()},
	)

	_, err := scanAttribute(row)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteAttribute deletes an attribute by its identifier
func (h *AttributesDBHandler) DeleteAttribute(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_attribute($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteAttributesByNodeExcept deletes every attribute of the node whose
// identifier is not in keep and returns how many were deleted.
func (h *AttributesDBHandler) DeleteAttributesByNodeExcept(nodeID uuid.UUID, keep []uuid.UUID) (int, error) {
	keepIDs := make([]string, len(keep))
	for i, id := range keep {
		keepIDs[i] = id.String()
	}

	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_attributes_by_node_except($1, $2)`,
		nodeID,
		pq.Array(keepIDs),
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return deleted, nil
}

func scanAttribute(row scanner) (*model.Attribute, error) {
	var id uuid.UUID
	var nodeID uuid.NullUUID
	var position int
	var name string
	var data model.DataValue
	var dataType string
	var flag model.AttributeFlag

	err := row.Scan(
		&id,
		&nodeID,
		&position,
		&name,
		&data,
		&dataType,
		&flag,
	)
	if err != nil {
		return nil, err
	}

	parsedDataType, err := model.ParseDataType(dataType)
	if err != nil {
		return nil, err
	}

	var parent *uuid.UUID
	if nodeID.Valid {
		parent = &nodeID.UUID
	}

	return model.NewAttributeWithUUID(id, name, data.Data, parsedDataType, flag, parent)
}

func scanAttributes(rows *sql.Rows) ([]*model.Attribute, error) {
	var attributes []*model.Attribute
	for rows.Next() {
		attribute, err := scanAttribute(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		attributes = append(attributes, attribute)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return attributes, nil
}
