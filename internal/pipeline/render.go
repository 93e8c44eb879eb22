package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/biasprobe/internal/model"
	"github.com/ppiankov/biasprobe/internal/validate"
)

// Renderer writes the audit summary in YAML and Markdown
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer that prints summaries to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// RenderYAML writes the report as YAML
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return writeFile(path, data)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.markdown(report)))
}

func (r *Renderer) markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Bias Audit Summary\n\n")
	fmt.Fprintf(&b, "**Run:** `%s`  \n", report.RunID)
	fmt.Fprintf(&b, "**Generated:** %s  \n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Responses:** %d  \n", report.Responses)
	fmt.Fprintf(&b, "**Entities in fact sheet:** %d\n\n", report.Entities)

	b.WriteString("## Groups\n\n")
	if len(report.Groups) == 0 {
		b.WriteString("No responses were validated.\n\n")
	} else {
		b.WriteString("| Model | Condition | Responses | Supported | Support rate | Mean precision-like | Top entity | Top share |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, g := range report.Groups {
			top := g.TopEntity
			if top == "" {
				top = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %.3f | %.3f | %s | %.3f |\n",
				g.Model, g.Condition, g.Responses, g.Supported, g.SupportRate, g.MeanPrecision, top, g.TopShare)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Signals\n\n")
	if len(report.Signals) == 0 {
		b.WriteString("No signals.\n\n")
	}
	for _, sig := range report.Signals {
		fmt.Fprintf(&b, "- %s **%s** `%s`: %s\n", severityIcon(sig.Severity), sig.Type, sig.Subject, sig.Description)
		if f, ok := sig.Data["formula"].(string); ok {
			fmt.Fprintf(&b, "  - formula: `%s`\n", f)
		}
	}
	if len(report.Signals) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## How to read this\n\n")
	if report.Principles.Descriptive {
		b.WriteString("- Rates and shares are descriptive; no significance test is applied.\n")
	}
	if report.Principles.Transparent {
		b.WriteString("- Every signal lists the formula it was computed with.\n")
	}
	if report.Principles.PositionInsensitive {
		b.WriteString("- A number is credited to every mentioned entity whose facts contain it, wherever it appears in the text. Hit counts are an upper bound.\n")
	}

	return b.String()
}

// RenderSummary prints a short summary to the renderer output
func (r *Renderer) RenderSummary(report *model.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(r.out, "\nRun %s: %d responses, %d entities\n", report.RunID, report.Responses, report.Entities)
	for _, g := range report.Groups {
		fmt.Fprintf(r.out, "  %-12s %-14s supported %d/%d  precision %.3f\n",
			g.Model, g.Condition, g.Supported, g.Responses, g.MeanPrecision)
	}

	warnings := 0
	for _, sig := range report.Signals {
		if sig.Severity == model.SeverityInfo {
			continue
		}
		warnings++
		fmt.Fprintf(r.out, "  %s %s %s: %s\n", severityIcon(sig.Severity), sig.Type, sig.Subject, sig.Description)
	}
	if warnings == 0 {
		fmt.Fprintln(r.out, "  ✓ No warnings")
	}
}

func severityIcon(s model.SignalSeverity) string {
	switch s {
	case model.SeverityCritical:
		return "✗"
	case model.SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// validationRow is the parquet layout of the validation table
type validationRow struct {
	PromptID           string  `parquet:"prompt_id"`
	Condition          string  `parquet:"condition"`
	Model              string  `parquet:"model"`
	Run                string  `parquet:"run"`
	Mentioned          string  `parquet:"mentioned_entities"`
	MentionedCount     int64   `parquet:"mentioned_entities_count"`
	TotalHits          int64   `parquet:"total_ground_truth_hits"`
	AnyEntitySupported bool    `parquet:"any_entity_supported"`
	DistinctNumbers    int64   `parquet:"distinct_numbers_in_text"`
	PrecisionLike      float64 `parquet:"precision_like"`
	PerEntityHits      string  `parquet:"per_entity_hits"`
}

// WriteParquet writes validation results as a parquet file with the CSV column names
func WriteParquet(path string, results []model.ValidationResult) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	rows := make([]validationRow, len(results))
	for i, r := range results {
		rows[i] = validationRow{
			PromptID:           r.PromptID,
			Condition:          r.Condition,
			Model:              r.Model,
			Run:                r.Run,
			Mentioned:          strings.Join(r.Mentioned, ", "),
			MentionedCount:     int64(len(r.Mentioned)),
			TotalHits:          int64(r.TotalHits),
			AnyEntitySupported: r.AnySupported,
			DistinctNumbers:    int64(r.DistinctNumbers),
			PrecisionLike:      r.PrecisionLike,
			PerEntityHits:      validate.FormatPerEntity(r.PerEntity),
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := parquet.NewGenericWriter[validationRow](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
