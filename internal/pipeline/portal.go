package pipeline

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/hirelab/crucible/internal/model"
)

//go:embed templates/*.html.tmpl
var portalTemplates embed.FS

type portalData struct {
	Doc      *model.AssignmentDoc
	Research string
	Pages    []portalPage
}

type portalPage struct {
	Assignment *model.Assignment
	Filename   string
}

// runPortal renders the static HTML portal: an index page plus one page
// per assignment, all linking the generated datasets and starter files.
func (c *Crew) runPortal(doc *model.AssignmentDoc, research, outDir string, sink Sink) error {
	sink("[web] Rendering assessment portal")

	tmpl, err := template.ParseFS(portalTemplates, "templates/*.html.tmpl")
	if err != nil {
		return &model.PipelineError{Stage: "portal", Err: err}
	}

	data := portalData{Doc: doc, Research: research}
	for i := range doc.Assignments {
		data.Pages = append(data.Pages, portalPage{
			Assignment: &doc.Assignments[i],
			Filename:   fmt.Sprintf("%s.html", sanitizeName(doc.Assignments[i].ID)),
		})
	}

	if err := renderTemplate(tmpl, "index.html.tmpl", filepath.Join(outDir, "index.html"), data); err != nil {
		return &model.PipelineError{Stage: "portal", Err: err}
	}

	for _, page := range data.Pages {
		out := filepath.Join(outDir, page.Filename)
		if err := renderTemplate(tmpl, "assignment.html.tmpl", out, page); err != nil {
			return &model.PipelineError{Stage: "portal", Err: err}
		}
	}

	sink(fmt.Sprintf("[web] Portal rendered, %d pages", len(data.Pages)+1))
	return nil
}

func renderTemplate(tmpl *template.Template, name, path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := tmpl.ExecuteTemplate(f, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}
