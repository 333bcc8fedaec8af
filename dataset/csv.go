package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"nutrisyn/dataset/storage"
)

const (
	ColumnRegion          = "Region"
	ColumnCondition       = "Condition"
	ColumnAgeGroup        = "Age Group"
	ColumnCrop            = "Crop"
	ColumnNutrientSummary = "Nutrient Summary"
	ColumnBenefits        = "Benefits"
)

var requiredColumns = []string{ColumnRegion, ColumnCondition, ColumnAgeGroup, ColumnCrop}

// ParseCSV parses a table with a header row. Region, Condition, Age Group and
// Crop are required columns; Nutrient Summary and Benefits are optional.
func ParseCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}

	index := map[string]int{}
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("parse csv: missing column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		row := Row{
			Region:          field(rec, ColumnRegion),
			Condition:       field(rec, ColumnCondition),
			AgeGroup:        field(rec, ColumnAgeGroup),
			Crop:            field(rec, ColumnCrop),
			NutrientSummary: field(rec, ColumnNutrientSummary),
			Benefits:        field(rec, ColumnBenefits),
		}
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return NewTable(rows)
}

// CSVLoader loads a CSV table from src.
func CSVLoader(src storage.Source) Loader {
	return func(ctx context.Context) (*Table, error) {
		b, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		return ParseCSV(b)
	}
}
