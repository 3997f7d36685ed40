// Package report builds the markdown experiment report and renders it
// to HTML.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"regsim/domain/simulation"
	"regsim/domain/summary"
)

// Markdown builds the report source for one experiment. The summary
// and calibration sections appear only when provided.
func Markdown(exp *simulation.Experiment, sum *summary.ResultSummary, cal *summary.CalibrationReport) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Experiment %s\n\n", exp.ID.String())
	fmt.Fprintf(&b, "Status: **%s**", exp.Status)
	if exp.Error != "" {
		fmt.Fprintf(&b, " (%s)", exp.Error)
	}
	fmt.Fprintf(&b, ", created %s", exp.CreatedAt.String())
	if !exp.CompletedAt.IsZero() {
		fmt.Fprintf(&b, ", finished %s in %dms", exp.CompletedAt.String(), exp.RuntimeMs)
	}
	b.WriteString(".\n\n")

	b.WriteString("## Model\n\n")
	b.WriteString("| parameter | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| true slope | %g |\n", exp.Params.SlopeTrue)
	fmt.Fprintf(&b, "| true intercept | %g |\n", exp.Params.InterceptTrue)
	fmt.Fprintf(&b, "| sigma | %g |\n", exp.Params.Sigma)
	fmt.Fprintf(&b, "| observations per trial | %d |\n", exp.Params.N())
	fmt.Fprintf(&b, "| seed | %d |\n", exp.Seed)
	fmt.Fprintf(&b, "| trials | %d |\n", exp.TrialCount)
	fmt.Fprintf(&b, "| workers | %d |\n", exp.Workers)
	if exp.Fingerprint != "" {
		fmt.Fprintf(&b, "| fingerprint | `%s` |\n", exp.Fingerprint)
	}
	if exp.OutputPath != "" {
		fmt.Fprintf(&b, "| output | `%s` |\n", exp.OutputPath)
	}

	if sum != nil {
		b.WriteString("\n## Trial summary\n\n")
		fmt.Fprintf(&b, "| field | mean | std dev | min | median | max | %.0f%% CI |\n", sum.Confidence*100)
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, fs := range sum.Fields() {
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.4f | %.4f | [%.4f, %.4f] |\n",
				fs.Field, fs.Mean, fs.StdDev, fs.Min, fs.Median, fs.Max, fs.CILower, fs.CIUpper)
		}
	}

	if cal != nil {
		verdict := "drifted"
		if cal.Calibrated {
			verdict = "calibrated"
		}
		b.WriteString("\n## Calibration\n\n")
		fmt.Fprintf(&b, "Recovered means against the data-generating model, |z| limit %.1f: **%s**.\n\n", cal.ZLimit, verdict)
		b.WriteString("| field | expected | observed | z | in range |\n|---|---|---|---|---|\n")
		for _, fc := range cal.Checks() {
			mark := "no"
			if fc.InRange {
				mark = "yes"
			}
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %+.2f | %s |\n",
				fc.Field, fc.Expected, fc.Observed, fc.ZScore, mark)
		}
	}

	return []byte(b.String())
}

// HTML renders markdown to an HTML fragment with table support
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}
