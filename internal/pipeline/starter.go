package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hirelab/crucible/internal/model"
)

// languageExtensions maps starter-code languages to file extensions.
var languageExtensions = map[string]string{
	"python":     "py",
	"go":         "go",
	"golang":     "go",
	"javascript": "js",
	"typescript": "ts",
	"java":       "java",
	"kotlin":     "kt",
	"ruby":       "rb",
	"rust":       "rs",
	"c#":         "cs",
	"csharp":     "cs",
	"sql":        "sql",
	"shell":      "sh",
	"bash":       "sh",
}

const starterSystemPrompt = `You are a senior engineer preparing scaffold code for a
take-home assignment. Produce a single starter file: imports, type/function stubs,
and TODO markers where the candidate works. Respond with ONLY a fenced code block.`

// runStarterCode generates a scaffold file per assignment. The stage is
// best-effort: an LLM failure logs a warning and skips the file.
func (c *Crew) runStarterCode(ctx context.Context, doc *model.AssignmentDoc, outDir string, sink Sink) {
	codeDir := filepath.Join(outDir, "starter_code")
	if err := os.MkdirAll(codeDir, 0o755); err != nil {
		sink(fmt.Sprintf("[code] Skipping starter code, cannot create directory: %v", err))
		return
	}

	written := 0
	for i := range doc.Assignments {
		assignment := &doc.Assignments[i]
		if assignment.StarterCode.Language == "" {
			continue
		}

		user := fmt.Sprintf(
			"Language: %s\nAssignment: %s\nMission: %s\nRequirements:\n- %s\nScaffold description: %s",
			assignment.StarterCode.Language,
			assignment.Title,
			assignment.Mission,
			strings.Join(assignment.Requirements, "\n- "),
			assignment.StarterCode.Description,
		)

		raw, err := c.llm.Complete(ctx, starterSystemPrompt, user)
		if err != nil {
			sink(fmt.Sprintf("[code] Starter code for %s failed, skipping: %v", assignment.ID, err))
			continue
		}

		code := ExtractCode(raw)
		if code == "" {
			sink(fmt.Sprintf("[code] Starter code for %s was empty, skipping", assignment.ID))
			continue
		}

		filename := starterFilename(assignment)
		if err := os.WriteFile(filepath.Join(codeDir, filename), []byte(code+"\n"), 0o644); err != nil {
			sink(fmt.Sprintf("[code] Failed to write starter code for %s: %v", assignment.ID, err))
			continue
		}

		assignment.StarterCode.Filename = filename
		assignment.StarterCode.Path = filepath.ToSlash(filepath.Join("starter_code", filename))
		written++
		sink(fmt.Sprintf("[code] Wrote %s", assignment.StarterCode.Path))
	}

	sink(fmt.Sprintf("[code] Starter code stage completed, %d files", written))
}

func starterFilename(assignment *model.Assignment) string {
	if assignment.StarterCode.Filename != "" {
		return filepath.Base(assignment.StarterCode.Filename)
	}

	ext, ok := languageExtensions[strings.ToLower(assignment.StarterCode.Language)]
	if !ok {
		ext = "txt"
	}
	return sanitizeName(assignment.ID) + "." + ext
}
