package catalogs

import "github.com/santhosh-tekuri/jsonschema/v5"

const itemsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "icon"],
    "additionalProperties": false,
    "properties": {
      "id": {"type": "string", "pattern": "^[A-Z][A-Z0-9_]*$"},
      "icon": {"type": "string", "minLength": 1}
    }
  }
}`

const recipesSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["recipe_id", "size", "inputs", "output"],
    "additionalProperties": false,
    "properties": {
      "recipe_id": {"type": "string", "minLength": 1},
      "size": {
        "type": "array",
        "minItems": 2,
        "maxItems": 2,
        "items": {"type": "integer", "minimum": 1, "maximum": 3}
      },
      "inputs": {
        "type": "array",
        "minItems": 1,
        "maxItems": 9,
        "items": {"type": ["string", "null"]}
      },
      "output": {
        "type": "object",
        "required": ["item", "count"],
        "additionalProperties": false,
        "properties": {
          "item": {"type": "string", "minLength": 1},
          "count": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var (
	itemsSchema   = jsonschema.MustCompileString("items.schema.json", itemsSchemaJSON)
	recipesSchema = jsonschema.MustCompileString("recipes.schema.json", recipesSchemaJSON)
)
