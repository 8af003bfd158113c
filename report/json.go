package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

type jsonCounts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

func countsToJSON(c ldtest.Counts) jsonCounts {
	return jsonCounts{Passed: c.Passed, Failed: c.Failed, Errors: c.Errors, Skipped: c.Skipped, Total: c.Total()}
}

type jsonCategory struct {
	Name string `json:"name"`
	jsonCounts
}

type jsonTest struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Status          string   `json:"status"`
	DurationSeconds float64  `json:"duration_seconds"`
	SkipReason      string   `json:"skip_reason,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// JSONReport is the document written by WriteJSON.
type JSONReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	BackendURL  string         `json:"backend_url"`
	Totals      jsonCounts     `json:"totals"`
	Categories  []jsonCategory `json:"categories"`
	Tests       []jsonTest     `json:"tests"`
}

func NewJSONReport(results ldtest.Results, backendURL string, generatedAt time.Time) JSONReport {
	r := JSONReport{
		GeneratedAt: generatedAt.UTC(),
		BackendURL:  backendURL,
		Totals:      countsToJSON(results.Counts()),
		Categories:  []jsonCategory{},
		Tests:       []jsonTest{},
	}
	for _, c := range results.ByCategory() {
		r.Categories = append(r.Categories, jsonCategory{Name: c.Category, jsonCounts: countsToJSON(c.Counts)})
	}
	for _, t := range results.Tests {
		jt := jsonTest{
			ID:              t.TestID.String(),
			Category:        t.TestID.Category(),
			Status:          string(t.Status),
			DurationSeconds: t.Duration.Seconds(),
			SkipReason:      t.SkipReason,
		}
		for _, err := range t.Errors {
			jt.Errors = append(jt.Errors, err.Error())
		}
		r.Tests = append(r.Tests, jt)
	}
	return r
}

func WriteJSON(w io.Writer, report JSONReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func WriteJSONFile(path string, report JSONReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSON report: %w", err)
	}
	if err := WriteJSON(f, report); err != nil {
		_ = f.Close()
		return fmt.Errorf("write JSON report: %w", err)
	}
	return f.Close()
}
