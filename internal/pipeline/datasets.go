package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hirelab/crucible/internal/model"
)

const (
	minRecords     = 10
	maxRecords     = 5000
	defaultRecords = 200
)

// words feeds the fake-data generator. Values only need to look
// plausible; candidates receive them as practice input.
var words = []string{
	"alpha", "harbor", "signal", "vector", "ledger", "quartz", "meadow",
	"cobalt", "summit", "delta", "orchid", "pioneer", "relay", "tundra",
	"beacon", "cipher", "willow", "argon", "lattice", "monsoon",
}

// DatasetGenerator produces deterministic practice data from a seed.
type DatasetGenerator struct {
	rng *rand.Rand
	now time.Time
}

// NewDatasetGenerator creates a generator. The same seed always yields
// the same rows for the same specs.
func NewDatasetGenerator(seed int64) *DatasetGenerator {
	return &DatasetGenerator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now().UTC(),
	}
}

// runDatasets materializes every dataset spec of every assignment under
// outDir/datasets and records the generated filenames back on the specs.
func (c *Crew) runDatasets(doc *model.AssignmentDoc, outDir string, sink Sink) error {
	datasetDir := filepath.Join(outDir, "datasets")
	if err := os.MkdirAll(datasetDir, 0o755); err != nil {
		return &model.PipelineError{Stage: "datasets", Err: err}
	}

	gen := NewDatasetGenerator(datasetSeed)
	generated := 0

	for ai := range doc.Assignments {
		assignment := &doc.Assignments[ai]
		for di := range assignment.Datasets {
			spec := &assignment.Datasets[di]
			if len(spec.Columns) == 0 {
				return &model.PipelineError{
					Stage: "datasets",
					Err:   fmt.Errorf("dataset %q of %q has no columns", spec.Name, assignment.ID),
				}
			}

			filename, err := gen.Generate(spec, datasetDir, assignment.ID)
			if err != nil {
				return &model.PipelineError{Stage: "datasets", Err: err}
			}

			spec.Filename = filename
			spec.Path = filepath.ToSlash(filepath.Join("datasets", filename))
			generated++
			sink(fmt.Sprintf("[data] Generated %s (%d records)", spec.Path, clampRecords(spec.Records)))
		}
	}

	sink(fmt.Sprintf("[data] Dataset stage completed, %d files", generated))
	return nil
}

// Generate writes one dataset file and returns its filename.
func (g *DatasetGenerator) Generate(spec *model.DatasetSpec, dir, defaultStem string) (string, error) {
	format := strings.ToLower(spec.Format)
	if format != "json" {
		format = "csv"
	}

	stem := spec.Filename
	if stem == "" {
		stem = defaultStem + "_" + spec.Name
	}
	filename := datasetFilename(stem, format)
	records := clampRecords(spec.Records)

	rows := make([]map[string]interface{}, 0, records)
	for i := 0; i < records; i++ {
		row := make(map[string]interface{}, len(spec.Columns))
		for _, col := range spec.Columns {
			if col.Name == "" {
				continue
			}
			row[col.Name] = g.value(col)
		}
		rows = append(rows, row)
	}

	path := filepath.Join(dir, filename)
	var err error
	if format == "json" {
		err = writeJSONRows(path, rows)
	} else {
		err = writeCSVRows(path, spec.Columns, rows)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write dataset %q: %w", spec.Name, err)
	}
	return filename, nil
}

func (g *DatasetGenerator) value(col model.ColumnSpec) interface{} {
	if len(col.Choices) > 0 {
		return col.Choices[g.rng.Intn(len(col.Choices))]
	}

	switch strings.ToLower(col.Type) {
	case "text":
		return g.sentence(8)
	case "integer":
		return g.rng.Intn(1000)
	case "float":
		return float64(g.rng.Intn(100000)) / 100
	case "boolean":
		return g.rng.Intn(2) == 0
	case "date":
		return g.pastTime().Format("2006-01-02")
	case "datetime":
		return g.pastTime().Format(time.RFC3339)
	default: // string, category, unknown
		return g.word()
	}
}

func (g *DatasetGenerator) word() string {
	return words[g.rng.Intn(len(words))]
}

func (g *DatasetGenerator) sentence(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = g.word()
	}
	return strings.Join(parts, " ") + "."
}

// pastTime returns a timestamp within roughly the last two years.
func (g *DatasetGenerator) pastTime() time.Time {
	back := time.Duration(g.rng.Int63n(int64(730 * 24 * time.Hour)))
	return g.now.Add(-back)
}

func clampRecords(n int) int {
	if n == 0 {
		return defaultRecords
	}
	if n < minRecords {
		return minRecords
	}
	if n > maxRecords {
		return maxRecords
	}
	return n
}

func datasetFilename(stem, format string) string {
	base := strings.TrimSuffix(filepath.Base(stem), filepath.Ext(stem))
	safe := sanitizeName(base)
	if safe == "unknown" {
		safe = "dataset"
	}
	return safe + "." + format
}

func writeJSONRows(path string, rows []map[string]interface{}) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSVRows(path string, columns []model.ColumnSpec, rows []map[string]interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, len(columns))
	for _, col := range columns {
		if col.Name != "" {
			header = append(header, col.Name)
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, name := range header {
			record[i] = formatCSVValue(row[name])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatCSVValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
