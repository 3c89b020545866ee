package models

import (
	"encoding/json"
	"time"
)

type Channel string

const (
	ChannelWeb   Channel = "web"
	ChannelEmail Channel = "email"
)

type Status string

const (
	StatusSubmitted    Status = "submitted"
	StatusNotSubmitted Status = "not_submitted"
)

const (
	ReasonInvalidLocation = "Location data invalid."
	ReasonNotConfigured   = "State not yet configured for submission."
)

// SubmissionRecord is one ledger row. Records are never updated; a retry
// produces a new record for the same (report, agency) pair.
type SubmissionRecord struct {
	ID             string     `json:"id"`
	ReportDate     string     `json:"report_date"`
	State          *string    `json:"state"`
	County         *string    `json:"county"`
	Agency         string     `json:"agency"`
	SubmissionType Channel    `json:"submission_type"`
	Status         Status     `json:"status"`
	StatusReason   *string    `json:"status_reason"`
	SubmissionTime *time.Time `json:"submission_time"`
}

func (r SubmissionRecord) Submitted() bool {
	return r.Status == StatusSubmitted
}

// NewRecord fills the report-derived columns. State and county are only
// copied from a valid location.
func NewRecord(report Report) SubmissionRecord {
	rec := SubmissionRecord{
		ID:         report.ID,
		ReportDate: report.Date,
		Status:     StatusNotSubmitted,
	}
	if report.Location != nil && report.Location.IsValid {
		rec.State = report.Location.State
		rec.County = report.Location.County
	}
	return rec
}

func InvalidLocationRecord(report Report) SubmissionRecord {
	rec := NewRecord(report)
	reason := ReasonInvalidLocation
	rec.StatusReason = &reason
	return rec
}

func NotConfiguredRecord(report Report) SubmissionRecord {
	rec := NewRecord(report)
	reason := ReasonNotConfigured
	rec.StatusReason = &reason
	return rec
}

func SubmittedRecord(report Report, agency string, channel Channel, at time.Time) SubmissionRecord {
	rec := NewRecord(report)
	rec.Agency = agency
	rec.SubmissionType = channel
	rec.Status = StatusSubmitted
	at = at.UTC()
	rec.SubmissionTime = &at
	return rec
}

func FailedRecord(report Report, agency string, channel Channel, reason string) SubmissionRecord {
	rec := NewRecord(report)
	rec.Agency = agency
	rec.SubmissionType = channel
	rec.StatusReason = &reason
	return rec
}

type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
}
