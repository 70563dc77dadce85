package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/search"
)

const researchSystemPrompt = `You are a technical hiring researcher. Synthesize the
provided search findings into a concise research report on how to assess candidates
for the given role and seniority. Focus on current expectations, realistic take-home
assignment scope, and evaluation criteria. Write in markdown.`

// runResearch gathers recent search findings and asks the LLM to distill
// them into a research report. Research is best-effort: missing search
// credentials or upstream failures degrade to the model's own knowledge
// and never fail the job.
func (c *Crew) runResearch(ctx context.Context, params model.Params, sink Sink) string {
	sink("[researcher] Research stage started")

	var findings []string
	if c.search.Enabled() {
		for _, query := range c.manifest.RenderQueries(params.Role, params.Level) {
			results, err := c.search.Search(ctx, query)
			if err != nil {
				sink(fmt.Sprintf("[researcher] Search failed for %q: %v", query, err))
				continue
			}
			sink(fmt.Sprintf("[researcher] Search %q returned %d results", query, len(results)))
			findings = append(findings, search.FormatResults(results))
		}
	} else {
		sink("[researcher] Search not configured, relying on model knowledge")
	}

	user := fmt.Sprintf(
		"Role: %s\nLevel: %s\nLanguage: %s\n\nSearch findings:\n%s",
		params.Role, params.Level, params.Language, findingsBlock(findings),
	)

	report, err := c.llm.Complete(ctx, researchSystemPrompt, user)
	if err != nil {
		sink(fmt.Sprintf("[researcher] Report synthesis failed, continuing with raw findings: %v", err))
		report = fmt.Sprintf("# Research findings (raw)\n\n%s", findingsBlock(findings))
	}

	sink("[researcher] Research stage completed")
	return report
}

func findingsBlock(findings []string) string {
	if len(findings) == 0 {
		return "No external findings available; use established industry knowledge."
	}
	return strings.Join(findings, "\n\n")
}
