package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/flowly/helper"
	"github.com/siherrmann/flowly/model"
	loadSql "github.com/siherrmann/flowly/sql"
)

// NodesDBHandlerFunctions defines the interface for Nodes database operations.
type NodesDBHandlerFunctions interface {
	UpsertNode(node *model.Node) error
	SelectNode(id uuid.UUID) (*model.Node, error)
	SelectNodesBySearch(searchTerm string, limit int) ([]*model.Node, error)
	SelectAllNodes(offset int, limit int) ([]*model.Node, error)
	DeleteNode(id uuid.UUID) error
}

// NodesDBHandler handles node-related database operations.
// Attributes are stored separately by the AttributesDBHandler.
type NodesDBHandler struct {
	db *helper.Database
}

// NewNodesDBHandler creates a new nodes database handler.
// It loads the node-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(db *helper.Database, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	nodesDbHandler := &NodesDBHandler{
		db: db,
	}

	err := loadSql.LoadNodesSql(nodesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = nodesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'nodes' table, its indexes and trigger if missing
func (h *NodesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_nodes();`)
	if err != nil {
		return helper.NewError("init nodes", err)
	}

	h.db.Logger.Info("Checked/created table nodes")

	return nil
}

// UpsertNode inserts the node or renames an existing one.
// Attributes of the node are not touched.
func (h *NodesDBHandler) UpsertNode(node *model.Node) error {
	if node == nil {
		return helper.NewError("upsert node", fmt.Errorf("%w: node is nil", model.ErrInvalidValue))
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_node($1, $2)`,
		node.UUID(),
		node.Name,
	)

	var id uuid.UUID
	err := row.Scan(
		&id,
		&node.Name,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNode retrieves a node by its identifier, without attributes
func (h *NodesDBHandler) SelectNode(id uuid.UUID) (*model.Node, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node($1)`,
		id,
	)

	node, err := scanNode(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SelectNodesBySearch searches nodes by a name pattern
func (h *NodesDBHandler) SelectNodesBySearch(searchTerm string, limit int) ([]*model.Node, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_nodes_by_search($1, $2)`,
		searchTerm,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// SelectAllNodes retrieves nodes in creation order
func (h *NodesDBHandler) SelectAllNodes(offset int, limit int) ([]*model.Node, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_nodes($1, $2)`,
		offset,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// DeleteNode deletes a node. Its attributes are removed by cascade.
func (h *NodesDBHandler) DeleteNode(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_node($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row scanner) (*model.Node, error) {
	var id uuid.UUID
	var name string

	err := row.Scan(
		&id,
		&name,
	)
	if err != nil {
		return nil, err
	}

	return model.NewNodeWithUUID(id, name)
}

func scanNodes(rows *sql.Rows) ([]*model.Node, error) {
	var nodes []*model.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		nodes = append(nodes, node)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return nodes, nil
}
