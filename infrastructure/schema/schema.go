// Package schema generates JSON Schemas for the files the pipeline writes.
package schema

import (
	"reflect"

	"baseball-vector-search/domain"

	"github.com/invopop/jsonschema"
)

var statBlockType = reflect.TypeOf(domain.StatBlock{})

// Generate creates a JSON schema for the specified type T. Definitions are
// inlined and unknown properties are allowed.
func Generate[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		Mapper:                    mapType,
	}
	var v T
	return reflector.Reflect(v)
}

// Document is the schema of one entry of documents.json.
func Document() *jsonschema.Schema {
	s := Generate[domain.Document]()
	s.Title = "Baseball player document"
	return s
}

// mapType describes types whose JSON form differs from their Go fields.
func mapType(t reflect.Type) *jsonschema.Schema {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != statBlockType {
		return nil
	}
	props := jsonschema.NewProperties()
	props.Set("playerID", &jsonschema.Schema{Type: "string"})
	props.Set("calculated", &jsonschema.Schema{
		Type:                 "object",
		Description:          "Derived rates; a negative value means not applicable.",
		AdditionalProperties: &jsonschema.Schema{Type: "number"},
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "Counting stats by column name plus derived rates.",
		Properties:           props,
		Required:             []string{"calculated"},
		AdditionalProperties: &jsonschema.Schema{Type: "number"},
	}
}
