package model

// AssignmentDoc is the structured output of the assignment drafting stage,
// persisted as assignments.json in the job's output directory.
type AssignmentDoc struct {
	Company     string       `json:"company"`
	JobRole     string       `json:"job_role"`
	JobLevel    string       `json:"job_level"`
	Assignments []Assignment `json:"assignments"`
}

// Assignment is one take-home exercise.
type Assignment struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Mission             string        `json:"mission"`
	Summary             string        `json:"summary,omitempty"`
	Requirements        []string      `json:"requirements"`
	Deliverables        []string      `json:"deliverables"`
	AIGuidelines        []string      `json:"ai_guidelines"`
	Evaluation          []string      `json:"evaluation"`
	Timeline            string        `json:"timeline"`
	DiscussionQuestions []string      `json:"discussion_questions"`
	Datasets            []DatasetSpec `json:"datasets"`
	StarterCode         StarterCode   `json:"starter_code"`
	ReviewNotes         string        `json:"review_notes,omitempty"`
}

// DatasetSpec describes one practice dataset to synthesize.
type DatasetSpec struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Format      string       `json:"format"` // "csv" | "json"
	Records     int          `json:"records"`
	Filename    string       `json:"filename,omitempty"`
	Columns     []ColumnSpec `json:"columns"`
	Path        string       `json:"path,omitempty"` // relative path, set after generation
}

// ColumnSpec describes one dataset column.
type ColumnSpec struct {
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"` // string|text|integer|float|boolean|date|datetime|category
	Description string   `json:"description,omitempty"`
	Choices     []string `json:"choices,omitempty"`
}

// StarterCode is the metadata for an assignment's scaffold file.
type StarterCode struct {
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Path        string `json:"path,omitempty"` // relative path, set after generation
}
