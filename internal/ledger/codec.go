package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fractracker/complaints/internal/models"
)

// Columns is the fixed row layout of a persisted ledger.
var Columns = []string{
	"id", "report_date", "state", "county", "agency",
	"submission_type", "status", "status_reason", "submission_time",
}

// Encode writes a header row followed by one row per record. Null values are
// written as empty cells.
func Encode(w io.Writer, records []models.SubmissionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		var submitted string
		if r.SubmissionTime != nil {
			submitted = r.SubmissionTime.UTC().Format(time.RFC3339Nano)
		}
		row := []string{
			r.ID,
			r.ReportDate,
			cell(r.State),
			cell(r.County),
			r.Agency,
			string(r.SubmissionType),
			string(r.Status),
			cell(r.StatusReason),
			submitted,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads rows written by Encode. An empty input is an empty ledger.
func Decode(r io.Reader) ([]models.SubmissionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, name := range Columns {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected ledger column %d: %q, want %q", i, header[i], name)
		}
	}

	var out []models.SubmissionRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := models.SubmissionRecord{
			ID:             row[0],
			ReportDate:     row[1],
			State:          null(row[2]),
			County:         null(row[3]),
			Agency:         row[4],
			SubmissionType: models.Channel(row[5]),
			Status:         models.Status(row[6]),
			StatusReason:   null(row[7]),
		}
		if row[8] != "" {
			t, err := time.Parse(time.RFC3339Nano, row[8])
			if err != nil {
				return nil, fmt.Errorf("record %s: submission_time: %w", rec.ID, err)
			}
			rec.SubmissionTime = &t
		}
		out = append(out, rec)
	}
	return out, nil
}

func cell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func null(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
