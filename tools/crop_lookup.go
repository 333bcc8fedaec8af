package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutrisyn/dataset"
)

// TableProvider supplies the loaded nutrition table.
type TableProvider interface {
	Table(ctx context.Context) (*dataset.Table, error)
}

type CropLookup struct{ provider TableProvider }

func NewCropLookup(provider TableProvider) *CropLookup { return &CropLookup{provider: provider} }

func (t *CropLookup) Name() string  { return "crop_lookup" }
func (t *CropLookup) Title() string { return "Look Up Crops" }
func (t *CropLookup) Description() string {
	return "Returns dataset rows matching region, condition and age_group. Omitted fields match any value."
}

func (t *CropLookup) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"region":    {Type: "string"},
			"condition": {Type: "string"},
			"age_group": {Type: "string"},
		},
	}
}

func (t *CropLookup) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"matches": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"region":           {Type: "string"},
						"condition":        {Type: "string"},
						"age_group":        {Type: "string"},
						"crop":             {Type: "string"},
						"nutrient_summary": {Type: "string"},
						"benefits":         {Type: "string"},
					},
					Required: []string{"region", "condition", "age_group", "crop"},
				},
			},
			"crops": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"matches", "crops"},
	}
}

func (t *CropLookup) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var q dataset.Query
	var err error
	if q.Region, err = stringInput(input, "region"); err != nil {
		return nil, err
	}
	if q.Condition, err = stringInput(input, "condition"); err != nil {
		return nil, err
	}
	if q.AgeGroup, err = stringInput(input, "age_group"); err != nil {
		return nil, err
	}

	table, err := t.provider.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("crop lookup: %w", err)
	}

	matches := make([]dataset.Row, 0)
	for _, r := range table.Rows() {
		if matchesOptional(q, r) {
			matches = append(matches, r)
		}
	}

	return toMap(struct {
		Matches []dataset.Row `json:"matches"`
		Crops   []string      `json:"crops"`
	}{matches, dataset.UniqueCrops(matches)})
}

// matchesOptional is an exact match on every non-empty field of q.
func matchesOptional(q dataset.Query, r dataset.Row) bool {
	return (q.Region == "" || q.Region == r.Region) &&
		(q.Condition == "" || q.Condition == r.Condition) &&
		(q.AgeGroup == "" || q.AgeGroup == r.AgeGroup)
}
