package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirelab/crucible/internal/model"
)

const assignmentCount = 5

const assignmentsSystemPrompt = `You are a senior assessment author. Using the research
report, draft exactly 5 take-home assignments for the given role and level. Respond
with ONLY a JSON object matching this schema, no prose outside the JSON:

{
  "company": string,
  "job_role": string,
  "job_level": string,
  "assignments": [
    {
      "id": string,
      "title": string,
      "mission": string,
      "summary": string,
      "requirements": [string],
      "deliverables": [string],
      "ai_guidelines": [string],
      "evaluation": [string],
      "timeline": string,
      "discussion_questions": [string],  // 3 to 5 questions
      "datasets": [
        {
          "name": string,
          "description": string,
          "format": "csv" | "json",
          "records": number,
          "columns": [  // 2 to 8 columns
            {"name": string, "type": "string|text|integer|float|boolean|date|datetime|category", "description": string, "choices": [string]}
          ]
        }
      ],
      "starter_code": {"language": string, "description": string, "filename": string}
    }
  ]
}

Write all candidate-facing text in the requested language.`

// runAssignments drafts the assignments document. This stage is
// load-bearing: a response that does not parse into the schema fails the
// job.
func (c *Crew) runAssignments(ctx context.Context, params model.Params, research string, sink Sink) (*model.AssignmentDoc, error) {
	sink("[designer] Drafting assignments")

	user := fmt.Sprintf(
		"Company: %s\nRole: %s\nLevel: %s\nLanguage: %s\n\nResearch report:\n%s",
		c.company, params.Role, params.Level, params.Language, research,
	)

	raw, err := c.llm.Complete(ctx, assignmentsSystemPrompt, user)
	if err != nil {
		return nil, &model.PipelineError{Stage: "assignments", Err: err}
	}

	doc, err := ParseAssignments(raw)
	if err != nil {
		return nil, &model.PipelineError{Stage: "assignments", Err: err}
	}

	doc.Company = c.company
	doc.JobRole = params.Role
	doc.JobLevel = params.Level

	sink(fmt.Sprintf("[designer] Drafted %d assignments", len(doc.Assignments)))
	return doc, nil
}

// ParseAssignments extracts and decodes the assignments JSON from a raw
// LLM response.
func ParseAssignments(raw string) (*model.AssignmentDoc, error) {
	payload := SanitizeText(ExtractJSON(raw))

	var doc model.AssignmentDoc
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("assignments response is not valid JSON: %w", err)
	}

	if len(doc.Assignments) == 0 {
		return nil, fmt.Errorf("assignments response contains no assignments")
	}

	for i := range doc.Assignments {
		if doc.Assignments[i].ID == "" {
			doc.Assignments[i].ID = fmt.Sprintf("assignment-%d", i+1)
		}
	}

	return &doc, nil
}
