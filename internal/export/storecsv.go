package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/stellarlinkco/rag-eval/internal/store"
)

// WriteStoreCSV writes persisted question records in the same row
// layout as WriteCSV.
func WriteStoreCSV(w io.Writer, records []*store.QuestionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := []string{
			rec.QuestionID,
			rec.Question,
			rec.Variant,
			strconv.FormatBool(rec.Scored),
			strconv.FormatBool(rec.Refusal),
		}
		if rec.Scored {
			row = append(row,
				formatScore(rec.Faithfulness),
				formatScore(rec.AnswerRelevancy),
				formatScore(rec.ContextPrecision),
				formatScore(rec.ContextRecall),
				formatScore(rec.Correctness),
			)
		} else {
			row = append(row, "", "", "", "", "")
		}
		row = append(row,
			strconv.FormatInt(rec.ElapsedMs, 10),
			rec.Error,
			rec.Answer,
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}
