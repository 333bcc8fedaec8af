package dataset

import (
	"fmt"
	"slices"
)

// Row is one recommendation: a crop suggested for a region, condition and age group.
type Row struct {
	Region          string `json:"region" yaml:"region"`
	Condition       string `json:"condition" yaml:"condition"`
	AgeGroup        string `json:"age_group" yaml:"age_group"`
	Crop            string `json:"crop" yaml:"crop"`
	NutrientSummary string `json:"nutrient_summary,omitempty" yaml:"nutrient_summary,omitempty"`
	Benefits        string `json:"benefits,omitempty" yaml:"benefits,omitempty"`
}

// Validate reports an error when any of the key fields is empty.
func (r Row) Validate() error {
	switch {
	case r.Region == "":
		return fmt.Errorf("empty region")
	case r.Condition == "":
		return fmt.Errorf("empty condition")
	case r.AgeGroup == "":
		return fmt.Errorf("empty age group")
	case r.Crop == "":
		return fmt.Errorf("empty crop")
	}
	return nil
}

// Query selects rows by exact, case-sensitive match on all three fields.
type Query struct {
	Region    string `json:"region" query:"region" form:"region"`
	Condition string `json:"condition" query:"condition" form:"condition"`
	AgeGroup  string `json:"age_group" query:"age_group" form:"age_group"`
}

func (q Query) Matches(r Row) bool {
	return r.Region == q.Region && r.Condition == q.Condition && r.AgeGroup == q.AgeGroup
}

// Table is an immutable, ordered set of rows.
type Table struct {
	rows []Row
}

// NewTable validates and copies rows into a table.
func NewTable(rows []Row) (*Table, error) {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = r
	}
	return &Table{rows: out}, nil
}

func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of every row in load order.
func (t *Table) Rows() []Row { return slices.Clone(t.rows) }

func (t *Table) Filter(q Query) []Row { return Filter(t.rows, q) }

func (t *Table) Regions() []string    { return t.distinct(func(r Row) string { return r.Region }) }
func (t *Table) Conditions() []string { return t.distinct(func(r Row) string { return r.Condition }) }
func (t *Table) AgeGroups() []string  { return t.distinct(func(r Row) string { return r.AgeGroup }) }

func (t *Table) distinct(field func(Row) string) []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, r := range t.rows {
		v := field(r)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Filter returns the rows matching q in their original order. It never returns nil.
func Filter(rows []Row, q Query) []Row {
	out := make([]Row, 0)
	for _, r := range rows {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// UniqueCrops returns crop names in first-seen order.
func UniqueCrops(rows []Row) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if seen[r.Crop] {
			continue
		}
		seen[r.Crop] = true
		out = append(out, r.Crop)
	}
	return out
}
