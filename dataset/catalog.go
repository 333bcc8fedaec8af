package dataset

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"nutrisyn/dataset/storage"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog describes the semi-synthetic table: every crop listed for a
// condition is recommended in every region for every age group.
type Catalog struct {
	Regions    []string           `yaml:"regions"`
	AgeGroups  []string           `yaml:"age_groups"`
	AgeNotes   map[string]string  `yaml:"age_notes"`
	Conditions []CatalogCondition `yaml:"conditions"`
}

type CatalogCondition struct {
	Name  string        `yaml:"name"`
	Crops []CatalogCrop `yaml:"crops"`
}

type CatalogCrop struct {
	Name      string `yaml:"name"`
	Nutrients string `yaml:"nutrients"`
	Benefits  string `yaml:"benefits"`
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Regions) == 0 || len(c.AgeGroups) == 0 || len(c.Conditions) == 0 {
		return Catalog{}, fmt.Errorf("parse catalog: regions, age_groups and conditions must not be empty")
	}
	return c, nil
}

// Build expands the catalog into a flat table ordered by region, condition, age group, crop.
func (c Catalog) Build() (*Table, error) {
	var rows []Row
	for _, region := range c.Regions {
		for _, cond := range c.Conditions {
			for _, age := range c.AgeGroups {
				for _, crop := range cond.Crops {
					benefits := crop.Benefits
					if note := c.AgeNotes[age]; note != "" {
						benefits += " " + note
					}
					rows = append(rows, Row{
						Region:          region,
						Condition:       cond.Name,
						AgeGroup:        age,
						Crop:            crop.Name,
						NutrientSummary: crop.Nutrients,
						Benefits:        benefits,
					})
				}
			}
		}
	}
	return NewTable(rows)
}

// CatalogLoader builds the synthetic table from a YAML catalog read from src.
func CatalogLoader(src storage.Source) Loader {
	return func(ctx context.Context) (*Table, error) {
		b, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		c, err := ParseCatalog(b)
		if err != nil {
			return nil, err
		}
		return c.Build()
	}
}

// DefaultCatalogLoader builds the synthetic table from the catalog compiled into the binary.
func DefaultCatalogLoader() Loader {
	return CatalogLoader(storage.BytesSource(defaultCatalog))
}
