package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed nodes.sql
var nodesSQL string

//go:embed attributes.sql
var attributesSQL string

// Function lists for verification
var InitFunctions = []string{
	"set_updated_at",
}

var NodesFunctions = []string{
	"init_nodes",
	"upsert_node",
	"select_node",
	"select_nodes_by_search",
	"select_all_nodes",
	"delete_node",
}

var AttributesFunctions = []string{
	"init_attributes",
	"upsert_attribute",
	"select_attribute",
	"select_attributes_by_node",
	"select_attributes_by_flag",
	"update_attribute_data",
	"delete_attribute",
	"delete_attributes_by_node_except",
}

// Init creates the helper functions shared by all tables
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing init SQL: %w", err)
	}

	exist, err := checkFunctions(db, InitFunctions)
	if err != nil {
		return fmt.Errorf("error checking init functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required init SQL functions were created")
	}

	log.Println("Database helper functions initialized successfully")
	return nil
}

// LoadNodesSql loads node-related SQL functions
func LoadNodesSql(db *sql.DB, force bool) error {
	return loadSql(db, "nodes", nodesSQL, NodesFunctions, force)
}

// LoadAttributesSql loads attribute-related SQL functions
func LoadAttributesSql(db *sql.DB, force bool) error {
	return loadSql(db, "attributes", attributesSQL, AttributesFunctions, force)
}

// LoadAllSql loads all SQL functions. Nodes come first because
// attributes reference them.
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadNodesSql(db, force); err != nil {
		return err
	}

	if err := LoadAttributesSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSql executes sqlText unless force is false and all functions already exist
func loadSql(db *sql.DB, name string, sqlText string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(sqlText)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
