package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hirelab/crucible/internal/llm"
	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/search"
)

// datasetSeed makes practice-data generation reproducible across runs.
const datasetSeed = 42

// Crew is the production Runner: a staged pipeline that researches the
// role, drafts assignments, reviews them, and materializes the output
// directory (datasets, starter code, HTML portal).
type Crew struct {
	llm        *llm.Client
	search     *search.Client
	manifest   *Manifest
	rules      []model.Rule
	company    string
	outputRoot string
}

// NewCrew creates the staged pipeline runner.
func NewCrew(llmClient *llm.Client, searchClient *search.Client, manifest *Manifest, company, outputRoot string) *Crew {
	return &Crew{
		llm:        llmClient,
		search:     searchClient,
		manifest:   manifest,
		rules:      DefaultReviewRules(),
		company:    company,
		outputRoot: outputRoot,
	}
}

// Run executes all stages and returns the output directory name. Any
// stage error is wrapped as a PipelineError naming the failed stage.
func (c *Crew) Run(ctx context.Context, params model.Params, sink Sink) (string, error) {
	dirName := OutputDirName(params.Role, params.Level, time.Now().UTC())
	outDir := filepath.Join(c.outputRoot, dirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", &model.PipelineError{Stage: "setup", Err: fmt.Errorf("failed to create output directory: %w", err)}
	}

	sink(fmt.Sprintf("[pm] Crew assembled for %s (%s), output: %s", params.Role, params.Level, dirName))

	summary := c.runResearch(ctx, params, sink)
	if err := os.WriteFile(filepath.Join(outDir, "research.md"), []byte(summary), 0o644); err != nil {
		return "", &model.PipelineError{Stage: "research", Err: err}
	}

	doc, err := c.runAssignments(ctx, params, summary, sink)
	if err != nil {
		return "", err
	}

	if err := c.runReview(ctx, doc, sink); err != nil {
		return "", err
	}

	if err := c.runDatasets(doc, outDir, sink); err != nil {
		return "", err
	}

	c.runStarterCode(ctx, doc, outDir, sink)

	if err := writeAssignmentsJSON(doc, outDir); err != nil {
		return "", &model.PipelineError{Stage: "assignments", Err: err}
	}

	if err := c.runPortal(doc, summary, outDir, sink); err != nil {
		return "", err
	}

	sink(fmt.Sprintf("[pm] Generation complete: %d assignments ready", len(doc.Assignments)))
	return dirName, nil
}

func writeAssignmentsJSON(doc *model.AssignmentDoc, outDir string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal assignments: %w", err)
	}
	return os.WriteFile(filepath.Join(outDir, "assignments.json"), data, 0o644)
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_]+`)

// OutputDirName builds the per-job output directory name from the role,
// level, and submission time: lowercase, underscore-separated, suffixed
// with a UTC timestamp.
func OutputDirName(role, level string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		sanitizeName(role),
		sanitizeName(level),
		ts.Format("20060102150405"),
	)
}

func sanitizeName(s string) string {
	cleaned := unsafeNameChars.ReplaceAllString(strings.ToLower(s), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
