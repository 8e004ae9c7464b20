// Package export writes evaluation reports to CSV and JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/stellarlinkco/rag-eval/internal/evalrun"
	"github.com/stellarlinkco/rag-eval/internal/retrieval"
)

var csvHeader = []string{
	"question_id",
	"question",
	"variant",
	"scored",
	"refusal",
	"faithfulness",
	"answer_relevancy",
	"context_precision",
	"context_recall",
	"answer_correctness",
	"elapsed_ms",
	"error",
	"answer",
}

// WriteCSV writes one row per question and variant.
func WriteCSV(w io.Writer, report *evalrun.Report) error {
	if report == nil {
		return fmt.Errorf("export: nil report")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	variants := []retrieval.Variant{retrieval.VariantOriginal, retrieval.VariantReranked}
	for _, rec := range report.Records {
		for _, v := range variants {
			res := rec.Result(v)
			if res == nil {
				continue
			}
			if err := cw.Write(csvRow(rec, res)); err != nil {
				return fmt.Errorf("export: write row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

func csvRow(rec *evalrun.EvaluationRecord, res *evalrun.VariantResult) []string {
	row := []string{
		rec.Question.ID,
		rec.Question.Question,
		string(res.Variant),
		strconv.FormatBool(res.Metrics != nil),
		strconv.FormatBool(res.Refusal),
	}

	if res.Metrics != nil {
		m := res.Metrics
		row = append(row,
			formatScore(m.Faithfulness),
			formatScore(m.AnswerRelevancy),
			formatScore(m.ContextPrecision),
			formatScore(m.ContextRecall),
			formatScore(m.Correctness.Standard),
		)
	} else {
		row = append(row, "", "", "", "", "")
	}

	row = append(row,
		strconv.FormatInt(res.ElapsedMs, 10),
		res.Error,
		res.Answer,
	)
	return row
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// WriteJSON writes the full report with indentation.
func WriteJSON(w io.Writer, report *evalrun.Report) error {
	if report == nil {
		return fmt.Errorf("export: nil report")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("export: encode report: %w", err)
	}
	return nil
}

// ToFile writes the report to path, picking the format from the
// extension (.csv or .json).
func ToFile(path string, report *evalrun.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %q: %w", path, err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".csv":
		return WriteCSV(f, report)
	case ".json":
		return WriteJSON(f, report)
	default:
		return fmt.Errorf("export: unsupported extension %q", filepath.Ext(path))
	}
}
