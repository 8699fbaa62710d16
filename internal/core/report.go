package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteReport serializes rows as a two-column CSV report in the order
// supplied: a `mail_id,Pct_spam` header followed by one data row per
// ReportRow. Scores are written with one decimal place. The header literals
// and formatting are part of the report's contract with downstream
// consumers; no reordering, merging or summary rows.
func WriteReport(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"mail_id", "Pct_spam"}); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.MailID, strconv.FormatFloat(row.PctSpam, 'f', 1, 64)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", row.MailID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
