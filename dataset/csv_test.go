package dataset

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisyn/dataset/storage"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantRows    int
		errContains string
	}{
		{
			name:     "required columns only",
			data:     "Region,Condition,Age Group,Crop\nSouth Asia,Diabetes,Adults,Lentils\n",
			wantRows: 1,
		},
		{
			name:     "optional columns and reordered header",
			data:     "Crop,Benefits,Age Group,Condition,Region,Nutrient Summary\nLentils,Satiety,Adults,Diabetes,South Asia,\"Fiber, protein\"\n",
			wantRows: 1,
		},
		{
			name:     "byte order mark",
			data:     "\ufeffRegion,Condition,Age Group,Crop\nSouth Asia,Diabetes,Adults,Lentils\n",
			wantRows: 1,
		},
		{
			name:     "header only",
			data:     "Region,Condition,Age Group,Crop\n",
			wantRows: 0,
		},
		{
			name:        "empty file",
			data:        "",
			errContains: "missing header",
		},
		{
			name:        "missing column",
			data:        "Region,Condition,Crop\nSouth Asia,Diabetes,Lentils\n",
			errContains: `missing column "Age Group"`,
		},
		{
			name:        "empty crop",
			data:        "Region,Condition,Age Group,Crop\nSouth Asia,Diabetes,Adults,\n",
			errContains: "line 2: empty crop",
		},
		{
			name:        "short row",
			data:        "Region,Condition,Age Group,Crop\nSouth Asia,Diabetes\n",
			errContains: "parse csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseCSV([]byte(tt.data))
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, table.Len())
		})
	}
}

func TestParseCSV_Fields(t *testing.T) {
	table, err := ParseCSV([]byte("Region,Condition,Age Group,Crop,Nutrient Summary,Benefits\nSouth Asia,Diabetes,Adults,Lentils,\"Fiber, protein\",Slows glucose absorption.\n"))
	require.NoError(t, err)

	assert.Equal(t, []Row{{
		Region:          "South Asia",
		Condition:       "Diabetes",
		AgeGroup:        "Adults",
		Crop:            "Lentils",
		NutrientSummary: "Fiber, protein",
		Benefits:        "Slows glucose absorption.",
	}}, table.Rows())
}

func TestParseCSV_TrimsFieldPadding(t *testing.T) {
	table, err := ParseCSV([]byte("Region,Condition,Age Group,Crop\nSouth Asia ,Diabetes,Adults ,Lentils  \n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Adults"}, table.AgeGroups())
	got := table.Filter(Query{Region: "South Asia", Condition: "Diabetes", AgeGroup: table.AgeGroups()[0]})
	assert.Equal(t, []string{"Lentils"}, UniqueCrops(got))

	_, err = ParseCSV([]byte("Region,Condition,Age Group,Crop\nSouth Asia,Diabetes,   ,Lentils\n"))
	assert.Error(t, err)
}

func TestCSVLoader_BundledData(t *testing.T) {
	_, err := os.Stat("../data/nutrisyn_mock_data.csv")
	require.NoError(t, err)

	table, err := CSVLoader(storage.NewFileSource("../data/nutrisyn_mock_data.csv"))(context.Background())
	require.NoError(t, err)

	got := table.Filter(Query{Region: "South Asia", Condition: "Diabetes", AgeGroup: "Adults"})
	assert.Equal(t, []string{"Lentils", "Millet"}, UniqueCrops(got))
}

func TestCSVLoader_SourceError(t *testing.T) {
	_, err := CSVLoader(storage.NewTestSourceWithError())(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dataset")
}
