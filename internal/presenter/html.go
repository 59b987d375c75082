package presenter

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"matchday/predictor/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data behind the HTML page
type Page struct {
	Date   string
	Report *models.Report
	Error  string
}

// HTMLPresenter renders the prediction page
type HTMLPresenter struct {
	tmpl *template.Template
}

// NewHTMLPresenter parses the embedded page template
func NewHTMLPresenter() (*HTMLPresenter, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"odds":    FormatOdds,
		"implied": ImpliedOdds,
		"label":   func(r models.PredictionResult) string { return r.Verdict.Label(r.Fixture) },
		"dash":    orDash,
		"score":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"title":   leagueTitle,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &HTMLPresenter{tmpl: tmpl}, nil
}

// Render writes the page for page.Report, or the error banner when page.Error is set
func (p *HTMLPresenter) Render(w io.Writer, page Page) error {
	return p.tmpl.ExecuteTemplate(w, "index.html", page)
}

// RenderJSON writes the report as indented JSON
func RenderJSON(w io.Writer, report *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
