package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/flowly"
	"github.com/siherrmann/flowly/helper"
	"github.com/siherrmann/flowly/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	f, err := flowly.NewFlowly(dbConfig)
	if err != nil {
		log.Fatalf("Failed to create flowly: %v", err)
	}
	defer f.Close()

	// Build an adder node with two inputs, one output and one option
	node := model.NewNode("Adder")
	for _, a := range []struct {
		name     string
		data     interface{}
		dataType model.DataType
		flag     model.AttributeFlag
	}{
		{"A", 3, model.DataTypeInt, model.AttributeFlagInput},
		{"B", 4, model.DataTypeInt, model.AttributeFlagInput},
		{"Result", nil, model.DataTypeInt, model.AttributeFlagOutput},
		{"label", "a + b", model.DataTypeString, model.AttributeFlagOption},
	} {
		attribute, err := model.NewAttribute(a.name, a.data, a.dataType, a.flag)
		if err != nil {
			log.Fatalf("Failed to create attribute %s: %v", a.name, err)
		}
		if err := node.AddAttribute(attribute); err != nil {
			log.Fatalf("Failed to add attribute %s: %v", a.name, err)
		}
	}

	// Fill the output from the inputs
	sum := node.AttributeByName("A").Data().(int64) + node.AttributeByName("B").Data().(int64)
	if err := node.AttributeByName("Result").SetData(sum); err != nil {
		log.Fatalf("Failed to set result: %v", err)
	}

	if err := f.SaveNode(node); err != nil {
		log.Fatalf("Failed to save node: %v", err)
	}

	loaded, err := f.LoadNode(node.UUID())
	if err != nil {
		log.Fatalf("Failed to load node: %v", err)
	}

	fmt.Printf("Loaded node %s (equal: %v)\n", loaded, loaded.Equal(node))
	for _, attribute := range loaded.Attributes() {
		fmt.Printf("  %-6s %-8s %-6s %v\n", attribute.Flag(), attribute.Name, attribute.DataType(), attribute.Data())
	}

	// Round-trip through JSON
	s, err := loaded.ToJSON()
	if err != nil {
		log.Fatalf("Failed to encode node: %v", err)
	}
	fmt.Printf("\nJSON:\n%s\n", s)

	restored, err := model.NodeFromJSON(s)
	if err != nil {
		log.Fatalf("Failed to decode node: %v", err)
	}
	fmt.Printf("\nRestored %d attributes, equal: %v\n", len(restored.Attributes()), restored.Equal(node))

	if err := f.DeleteNode(node.UUID()); err != nil {
		log.Fatalf("Failed to delete node: %v", err)
	}
}
