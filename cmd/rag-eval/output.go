package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

func parseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return FormatTable
	case "json", "jsonl":
		return FormatJSON
	default:
		return ""
	}
}

func resolveOutputFormat(flagValue string, configValue string) (OutputFormat, error) {
	if strings.TrimSpace(flagValue) != "" {
		out := parseOutputFormat(flagValue)
		if out == "" {
			return "", fmt.Errorf("invalid --output %q (expected table|json)", flagValue)
		}
		return out, nil
	}
	if out := parseOutputFormat(configValue); out != "" {
		return out, nil
	}
	return FormatTable, nil
}

func FormatReport(report *evalrun.Report, format OutputFormat) string {
	switch format {
	case FormatTable:
		return formatReportTable(report)
	case FormatJSON:
		return formatReportJSON(report)
	default:
		return fmt.Sprintf("error: unknown output format %q\n", format)
	}
}

func formatReportJSON(report *evalrun.Report) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: marshal report: %v\n", err)
	}
	return string(data) + "\n"
}

var tableMetrics = []struct {
	key   string
	label string
}{
	{"faithfulness", "Faithfulness"},
	{"answer_relevancy", "Answer relevancy"},
	{"context_precision", "Context precision"},
	{"context_recall", "Context recall"},
	{"answer_correctness", "Answer correctness"},
}

func formatReportTable(report *evalrun.Report) string {
	if report == nil {
		return "no report\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Run %s", report.RunID)
	if report.QuestionSet != "" {
		fmt.Fprintf(&buf, " (question set %q)", report.QuestionSet)
	}
	fmt.Fprintf(&buf, ": %d questions\n\n", report.Total)

	orig := report.Summaries[retrieval.VariantOriginal]
	rer := report.Summaries[retrieval.VariantReranked]

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tORIGINAL\tRERANKED\tIMPROVEMENT\tSIGNIFICANT")
	for _, m := range tableMetrics {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\t%s\n",
			m.label,
			summaryMetric(orig, m.key),
			summaryMetric(rer, m.key),
			formatImprovement(report.Improvements[m.key]),
			formatSignificance(report, m.key),
		)
	}
	w.Flush()

	fmt.Fprintf(&buf, "\nScored questions: original %d, reranked %d\n",
		scoredCount(orig), scoredCount(rer))
	fmt.Fprintf(&buf, "Refusal rate: original %.1f%%, reranked %.1f%%\n",
		refusalRate(orig), refusalRate(rer))

	failures := collectFailures(report)
	if len(failures) > 0 {
		fmt.Fprintf(&buf, "\nIncomplete questions:\n")
		for _, f := range failures {
			fmt.Fprintf(&buf, "  %s\n", f)
		}
	}
	return buf.String()
}

func summaryMetric(s *evalrun.VariantSummary, key string) float64 {
	if s == nil {
		return 0
	}
	switch key {
	case "faithfulness":
		return s.Faithfulness
	case "answer_relevancy":
		return s.AnswerRelevancy
	case "context_precision":
		return s.ContextPrecision
	case "context_recall":
		return s.ContextRecall
	case "answer_correctness":
		return s.Correctness
	default:
		return 0
	}
}

func scoredCount(s *evalrun.VariantSummary) int {
	if s == nil {
		return 0
	}
	return s.Scored
}

func refusalRate(s *evalrun.VariantSummary) float64 {
	if s == nil {
		return 0
	}
	return s.RefusalRate
}

func formatImprovement(imp evalrun.Improvement) string {
	if imp.Infinite {
		return colorGreen + "inf" + colorReset
	}
	switch {
	case imp.Value > 0:
		return fmt.Sprintf("%s+%.1f%%%s", colorGreen, imp.Value, colorReset)
	case imp.Value < 0:
		return fmt.Sprintf("%s%.1f%%%s", colorRed, imp.Value, colorReset)
	default:
		return "0.0%"
	}
}

func formatSignificance(report *evalrun.Report, key string) string {
	res, ok := report.Significance[key]
	if !ok || res == nil {
		return "-"
	}
	if res.Significant {
		return fmt.Sprintf("yes (p=%.3f)", res.P)
	}
	return fmt.Sprintf("no (p=%.3f)", res.P)
}

func collectFailures(report *evalrun.Report) []string {
	var out []string
	for _, rec := range report.Records {
		for _, v := range []retrieval.Variant{retrieval.VariantOriginal, retrieval.VariantReranked} {
			res := rec.Result(v)
			if res == nil {
				out = append(out, fmt.Sprintf("%s [%s]: missing", rec.Question.ID, v))
				continue
			}
			if res.Error != "" {
				out = append(out, fmt.Sprintf("%s [%s]: %s", rec.Question.ID, v, res.Error))
			}
		}
	}
	sort.Strings(out)
	return out
}
