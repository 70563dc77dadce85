package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hirelab/crucible/internal/evaluator"
	"github.com/hirelab/crucible/internal/model"
)

// DefaultReviewRules is the structural checklist applied to every
// generated assignments document before it is published.
func DefaultReviewRules() []model.Rule {
	return []model.Rule{
		{
			Name:        "assignment_count",
			Description: "the document carries the full set of assignments",
			Expression:  fmt.Sprintf("$.assignments[%d].title", assignmentCount-1),
			Operator:    "exists",
		},
		{
			Name:        "first_assignment_title",
			Description: "assignments have titles",
			Expression:  "$.assignments[0].title",
			Operator:    "exists",
		},
		{
			Name:        "first_assignment_requirements",
			Description: "assignments list concrete requirements",
			Expression:  "$.assignments[0].requirements[0]",
			Operator:    "exists",
		},
		{
			Name:        "starter_code_language",
			Description: "starter code names its language",
			Expression:  "$.assignments[0].starter_code.language",
			Operator:    "exists",
		},
		{
			Name:        "company_present",
			Description: "the document names the hiring company",
			Expression:  "$.company",
			Operator:    "exists",
		},
	}
}

const reviewSystemPrompt = `You are a QA reviewer for technical hiring assessments.
Review the assignments document and respond with ONLY a JSON object mapping each
assignment id to one short review note (strengths, risks, suggested tweaks):
{"notes": {"<assignment id>": "<note>"}}`

// runReview gates the document on the structural rules, then asks the LLM
// for review notes. Rule violations fail the job; the note pass is
// best-effort.
func (c *Crew) runReview(ctx context.Context, doc *model.AssignmentDoc, sink Sink) error {
	sink("[reviewer] Review stage started")

	document, err := json.Marshal(doc)
	if err != nil {
		return &model.PipelineError{Stage: "review", Err: err}
	}

	eval := evaluator.NewEvaluator()
	var violations []string
	for _, result := range eval.EvaluateRules(c.rules, document) {
		if result.Passed {
			continue
		}
		detail := result.RuleName
		if result.Error != "" {
			detail += ": " + result.Error
		}
		violations = append(violations, detail)
	}

	if len(violations) > 0 {
		sink(fmt.Sprintf("[reviewer] Structural review failed: %s", strings.Join(violations, "; ")))
		return &model.PipelineError{
			Stage: "review",
			Err:   fmt.Errorf("structural rules violated: %s", strings.Join(violations, "; ")),
		}
	}
	sink("[reviewer] Structural rules passed")

	raw, err := c.llm.Complete(ctx, reviewSystemPrompt, string(document))
	if err != nil {
		sink(fmt.Sprintf("[reviewer] Review notes unavailable: %v", err))
		return nil
	}

	var parsed struct {
		Notes map[string]string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(SanitizeText(ExtractJSON(raw))), &parsed); err != nil {
		sink("[reviewer] Review notes were not parseable, skipping")
		return nil
	}

	attached := 0
	for i := range doc.Assignments {
		if note, ok := parsed.Notes[doc.Assignments[i].ID]; ok && note != "" {
			doc.Assignments[i].ReviewNotes = note
			attached++
		}
	}
	sink(fmt.Sprintf("[reviewer] Attached review notes to %d assignments", attached))
	return nil
}
