package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var defaultManifest []byte

// Agent describes one member of the generation crew. The roster is
// informational (served by /api/agents) and feeds the stage prompts.
type Agent struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Role      string `yaml:"role" json:"role"`
	Goal      string `yaml:"goal" json:"goal"`
	Backstory string `yaml:"backstory" json:"backstory"`
}

// Manifest is the crew configuration: the agent roster and the research
// query templates. Templates may reference {role} and {level}.
type Manifest struct {
	Agents          []Agent  `yaml:"agents" json:"agents"`
	ResearchQueries []string `yaml:"research_queries" json:"research_queries"`
}

// LoadManifest reads the manifest from path, or the embedded default when
// path is empty.
func LoadManifest(path string) (*Manifest, error) {
	data := defaultManifest
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read crew manifest: %w", err)
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse crew manifest: %w", err)
	}

	if len(m.Agents) == 0 {
		return nil, fmt.Errorf("crew manifest defines no agents")
	}
	if len(m.ResearchQueries) == 0 {
		return nil, fmt.Errorf("crew manifest defines no research queries")
	}

	return &m, nil
}

// AgentByID returns the agent with the given id.
func (m *Manifest) AgentByID(id string) (Agent, bool) {
	for _, a := range m.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// RenderQueries substitutes {role} and {level} into the research query
// templates.
func (m *Manifest) RenderQueries(role, level string) []string {
	queries := make([]string, 0, len(m.ResearchQueries))
	for _, tmpl := range m.ResearchQueries {
		q := strings.ReplaceAll(tmpl, "{role}", role)
		q = strings.ReplaceAll(q, "{level}", level)
		queries = append(queries, q)
	}
	return queries
}
