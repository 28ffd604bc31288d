package flowly

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/flowly/database"
	"github.com/siherrmann/flowly/helper"
	"github.com/siherrmann/flowly/model"
	loadSql "github.com/siherrmann/flowly/sql"
)

// Flowly persists nodes together with their attributes
type Flowly struct {
	DB         *helper.Database
	Nodes      *database.NodesDBHandler
	Attributes *database.AttributesDBHandler
	// Logging
	log *slog.Logger
}

// NewFlowly connects to the database and prepares all tables
func NewFlowly(config *helper.DatabaseConfiguration) (*Flowly, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("flowly", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database functions", err)
	}

	// Nodes first, attributes reference them.
	// force=false to not reload if functions already exist
	nodes, err := database.NewNodesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create nodes handler", err)
	}

	attributes, err := database.NewAttributesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create attributes handler", err)
	}

	return &Flowly{
		DB:         db,
		Nodes:      nodes,
		Attributes: attributes,
		log:        logger,
	}, nil
}

// Close closes the database connection
func (f *Flowly) Close() error {
	if f.DB != nil && f.DB.Instance != nil {
		return f.DB.Instance.Close()
	}
	return nil
}

// SaveNode stores the node and its attributes in their current order.
// Stored attributes the node no longer has are deleted.
func (f *Flowly) SaveNode(node *model.Node) error {
	if node == nil {
		return helper.NewError("save node", fmt.Errorf("%w: node is nil", model.ErrInvalidValue))
	}

	err := f.Nodes.UpsertNode(node)
	if err != nil {
		return helper.NewError("upsert node", err)
	}

	attributes := node.Attributes()
	keep := make([]uuid.UUID, 0, len(attributes))
	for i, attribute := range attributes {
		err := f.Attributes.UpsertAttribute(attribute, i)
		if err != nil {
			return helper.NewError(fmt.Sprintf("upsert attribute %d", i), err)
		}
		keep = append(keep, attribute.UUID())
	}

	deleted, err := f.Attributes.DeleteAttributesByNodeExcept(node.UUID(), keep)
	if err != nil {
		return helper.NewError("delete stale attributes", err)
	}

	f.log.Info("Saved node",
		slog.String("node_uuid", node.UUID().String()),
		slog.String("name", node.Name),
		slog.Int("attributes", len(attributes)),
		slog.Int("deleted_attributes", deleted),
	)

	return nil
}

// LoadNode loads a node with all its attributes
func (f *Flowly) LoadNode(id uuid.UUID) (*model.Node, error) {
	node, err := f.Nodes.SelectNode(id)
	if err != nil {
		return nil, helper.NewError("select node", err)
	}

	err = f.loadAttributes(node)
	if err != nil {
		return nil, err
	}

	f.log.Debug("Loaded node", slog.String("node_uuid", id.String()), slog.Int("attributes", len(node.Attributes())))

	return node, nil
}

// SearchNodes finds nodes by name and loads their attributes
func (f *Flowly) SearchNodes(searchTerm string, limit int) ([]*model.Node, error) {
	nodes, err := f.Nodes.SelectNodesBySearch(searchTerm, limit)
	if err != nil {
		return nil, helper.NewError("select nodes by search", err)
	}

	for _, node := range nodes {
		err := f.loadAttributes(node)
		if err != nil {
			return nil, err
		}
	}

	return nodes, nil
}

// DeleteNode deletes a node and, by cascade, its attributes
func (f *Flowly) DeleteNode(id uuid.UUID) error {
	err := f.Nodes.DeleteNode(id)
	if err != nil {
		return helper.NewError("delete node", err)
	}

	f.log.Info("Deleted node", slog.String("node_uuid", id.String()))

	return nil
}

// ImportNodeJSON parses a node in its JSON representation and saves it
func (f *Flowly) ImportNodeJSON(s string) (*model.Node, error) {
	node, err := model.NodeFromJSON(s)
	if err != nil {
		return nil, helper.NewError("import node json", err)
	}

	err = f.SaveNode(node)
	if err != nil {
		return nil, helper.NewError("import node json", err)
	}

	return node, nil
}

// ExportNodeJSON loads a node and returns its JSON representation
func (f *Flowly) ExportNodeJSON(id uuid.UUID) (string, error) {
	node, err := f.LoadNode(id)
	if err != nil {
		return "", helper.NewError("export node json", err)
	}
	return node.ToJSON()
}

// ImportNodeYAML parses a node in its YAML representation and saves it
func (f *Flowly) ImportNodeYAML(s string) (*model.Node, error) {
	node, err := model.NodeFromYAML(s)
	if err != nil {
		return nil, helper.NewError("import node yaml", err)
	}

	err = f.SaveNode(node)
	if err != nil {
		return nil, helper.NewError("import node yaml", err)
	}

	return node, nil
}

// ExportNodeYAML loads a node and returns its YAML representation
func (f *Flowly) ExportNodeYAML(id uuid.UUID) (string, error) {
	node, err := f.LoadNode(id)
	if err != nil {
		return "", helper.NewError("export node yaml", err)
	}
	return node.ToYAML()
}

func (f *Flowly) loadAttributes(node *model.Node) error {
	attributes, err := f.Attributes.SelectAttributesByNode(node.UUID())
	if err != nil {
		return helper.NewError("select attributes by node", err)
	}

	for _, attribute := range attributes {
		err := node.AddAttribute(attribute)
		if err != nil {
			return helper.NewError("add attribute", err)
		}
	}

	return nil
}
