package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hirelab/crucible/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() *model.DatasetSpec {
	return &model.DatasetSpec{
		Name:    "bookings",
		Format:  "csv",
		Records: 25,
		Columns: []model.ColumnSpec{
			{Name: "id", Type: "integer"},
			{Name: "city", Type: "category", Choices: []string{"seoul", "tokyo", "osaka"}},
			{Name: "price", Type: "float"},
			{Name: "confirmed", Type: "boolean"},
			{Name: "booked_at", Type: "datetime"},
		},
	}
}

func TestGenerate_CSVShape(t *testing.T) {
	dir := t.TempDir()
	gen := NewDatasetGenerator(datasetSeed)

	filename, err := gen.Generate(sampleSpec(), dir, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, "assignment_1_bookings.csv", filename)

	f, err := os.Open(filepath.Join(dir, filename))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 26, "header plus 25 records")
	assert.Equal(t, []string{"id", "city", "price", "confirmed", "booked_at"}, rows[0])

	for _, row := range rows[1:] {
		assert.Contains(t, []string{"seoul", "tokyo", "osaka"}, row[1], "choices override applies")
	}
}

func TestGenerate_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	gen := NewDatasetGenerator(datasetSeed)

	spec := sampleSpec()
	spec.Format = "json"
	spec.Records = 12

	filename, err := gen.Generate(spec, dir, "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, "assignment_1_bookings.json", filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 12)
	for _, row := range rows {
		assert.Contains(t, row, "id")
		assert.Contains(t, row, "city")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	nameA, err := NewDatasetGenerator(datasetSeed).Generate(sampleSpec(), dirA, "a")
	require.NoError(t, err)
	nameB, err := NewDatasetGenerator(datasetSeed).Generate(sampleSpec(), dirB, "a")
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dirA, nameA))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, nameB))
	require.NoError(t, err)

	// Same seed, same spec, same rows. Datetime columns derive from the
	// generator's creation time, so compare the id column stream instead
	// of the raw bytes when the times differ.
	rowsA := readColumn(t, a, 0)
	rowsB := readColumn(t, b, 0)
	assert.Equal(t, rowsA, rowsB)
}

func readColumn(t *testing.T, data []byte, idx int) []string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row[idx])
	}
	return out
}

func TestClampRecords(t *testing.T) {
	assert.Equal(t, defaultRecords, clampRecords(0))
	assert.Equal(t, minRecords, clampRecords(3))
	assert.Equal(t, maxRecords, clampRecords(100000))
	assert.Equal(t, 500, clampRecords(500))
}

func TestGenerate_NoColumnsFailsInCrewStage(t *testing.T) {
	doc := &model.AssignmentDoc{
		Assignments: []model.Assignment{
			{
				ID: "a1",
				Datasets: []model.DatasetSpec{
					{Name: "broken", Format: "csv", Records: 10},
				},
			},
		},
	}

	crew := &Crew{}
	err := crew.runDatasets(doc, t.TempDir(), func(string) {})

	var pipelineErr *model.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, "datasets", pipelineErr.Stage)
}
