package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutrisyn/nutrients"
)

type NutrientLookup struct{ lookup nutrients.Lookup }

func NewNutrientLookup(lookup nutrients.Lookup) *NutrientLookup {
	return &NutrientLookup{lookup: lookup}
}

func (t *NutrientLookup) Name() string  { return "nutrient_lookup" }
func (t *NutrientLookup) Title() string { return "Look Up Nutrients" }
func (t *NutrientLookup) Description() string {
	return "Returns the nutrient profile of a crop from USDA FoodData Central. found is false when no data is available."
}

func (t *NutrientLookup) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"crop": {Type: "string"},
		},
		Required: []string{"crop"},
	}
}

func (t *NutrientLookup) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"crop":  {Type: "string"},
			"found": {Type: "boolean"},
			"food":  {Type: "string"},
			"nutrients": {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "number"},
			},
			"highlights": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":  {Type: "string"},
						"value": {Type: "number"},
						"unit":  {Type: "string"},
					},
					Required: []string{"name", "value"},
				},
			},
		},
		Required: []string{"crop", "found"},
	}
}

func (t *NutrientLookup) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	crop, err := stringInput(input, "crop")
	if err != nil {
		return nil, err
	}
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, fmt.Errorf("%w: crop is required", ErrInvalidInput)
	}

	out := struct {
		Crop       string               `json:"crop"`
		Found      bool                 `json:"found"`
		Food       string               `json:"food,omitempty"`
		Nutrients  map[string]float64   `json:"nutrients,omitempty"`
		Highlights []nutrients.Nutrient `json:"highlights,omitempty"`
	}{Crop: crop}

	if p, ok := t.lookup.Lookup(ctx, crop); ok {
		out.Found = true
		out.Food = p.Food
		out.Nutrients = p.Nutrients
		out.Highlights = nutrients.Highlights(p)
	}

	return toMap(out)
}
