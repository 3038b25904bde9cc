package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// catalogSchema validates catalog documents before they are trusted to build
// the registry. Shape errors surface here with field paths; referential
// errors (unknown system ids) surface in NewCatalog.
const catalogSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["systems"],
  "properties": {
    "systems": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "connected": {"type": "array", "items": {"type": "string"}},
          "influence": {
            "type": "object",
            "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
          }
        }
      }
    },
    "regions": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["x", "y"],
        "properties": {
          "x": {"type": "number"},
          "y": {"type": "number"}
        }
      }
    },
    "type_relations": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

type catalogDoc struct {
	Systems       []System            `json:"systems"`
	Regions       map[string]Coord    `json:"regions"`
	TypeRelations map[string][]string `json:"type_relations"`
}

// Load reads a catalog override document from a JSON file, validates it
// against the embedded schema, and builds the registry from it. Regions and
// type relations fall back to the built-in tables when the document omits
// them.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("world catalog: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("catalog.schema.json", bytes.NewReader([]byte(catalogSchema))); err != nil {
		return nil, fmt.Errorf("world catalog schema: %w", err)
	}
	schema, err := compiler.Compile("catalog.schema.json")
	if err != nil {
		return nil, fmt.Errorf("world catalog schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("world catalog %s: %w", path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("world catalog %s: %w", path, err)
	}

	var doc catalogDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("world catalog %s: %w", path, err)
	}

	defaults := DefaultCatalog()
	regions := doc.Regions
	if len(regions) == 0 {
		regions = defaults.regions
	}
	typeRelations := doc.TypeRelations
	if len(typeRelations) == 0 {
		// The built-in table references built-in system ids; keep only the
		// entries the declared systems can satisfy.
		declared := make(map[string]bool, len(doc.Systems))
		for _, s := range doc.Systems {
			declared[s.ID] = true
		}
		typeRelations = make(map[string][]string)
		for cat, ids := range defaults.typeRelations {
			var kept []string
			for _, id := range ids {
				if declared[id] {
					kept = append(kept, id)
				}
			}
			if len(kept) > 0 {
				typeRelations[cat] = kept
			}
		}
	}

	return NewCatalog(doc.Systems, regions, typeRelations)
}
