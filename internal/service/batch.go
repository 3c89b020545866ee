package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/models"
)

var ErrBatchInProgress = errors.New("a submission batch is already running")

type OutcomeStatus string

const (
	OutcomeNoReports OutcomeStatus = "no_reports"
	OutcomeCompleted OutcomeStatus = "completed"
)

const (
	RunRunning   = "RUNNING"
	RunCompleted = "COMPLETED"
	RunNoReports = "NO_REPORTS"
	RunFailed    = "FAILED"
)

// RunRecorder keeps an audit trail of batches. Optional.
type RunRecorder interface {
	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, id, status string, summary []byte) error
}

type Outcome struct {
	Status  OutcomeStatus             `json:"status"`
	RunID   string                    `json:"run_id,omitempty"`
	Begin   string                    `json:"start_date"`
	End     string                    `json:"end_date"`
	Counts  Counts                    `json:"counts"`
	Records []models.SubmissionRecord `json:"-"`
}

// BatchService runs one ingestion-to-ledger pass. Batches are serialized so
// the ledger has a single writer per process.
type BatchService struct {
	Source      fractracker.Source
	Ledger      *ledger.Ledger
	Submissions *SubmissionService
	Runs        RunRecorder
	Logger      zerolog.Logger

	mu sync.Mutex
}

func NewBatchService(src fractracker.Source, l *ledger.Ledger, subs *SubmissionService, runs RunRecorder, logger zerolog.Logger) *BatchService {
	return &BatchService{Source: src, Ledger: l, Submissions: subs, Runs: runs, Logger: logger}
}

// Execute fetches the reports for r, submits the unsettled ones and appends
// the resulting records. An ingestion or ledger read failure leaves the
// ledger untouched.
func (b *BatchService) Execute(ctx context.Context, r fractracker.DateRange) (Outcome, error) {
	if !b.mu.TryLock() {
		return Outcome{}, ErrBatchInProgress
	}
	defer b.mu.Unlock()

	out := Outcome{
		Begin: r.Begin.Format(fractracker.DateLayout),
		End:   r.End.Format(fractracker.DateLayout),
	}
	logger := b.Logger.With().Str("start_date", out.Begin).Str("end_date", out.End).Logger()
	start := time.Now()

	out.RunID = b.startRun(ctx)

	outcome, err := b.execute(ctx, r, out, logger)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("submission batch failed")
		b.finishRun(outcome, RunFailed)
		return outcome, err
	}

	status := RunCompleted
	if outcome.Status == OutcomeNoReports {
		status = RunNoReports
	}
	b.finishRun(outcome, status)
	logger.Info().
		Str("status", string(outcome.Status)).
		Int("reports", outcome.Counts.Reports).
		Int("skipped", outcome.Counts.Skipped).
		Int("submitted", outcome.Counts.Submitted).
		Int("failed", outcome.Counts.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("submission batch finished")
	return outcome, nil
}

func (b *BatchService) execute(ctx context.Context, r fractracker.DateRange, out Outcome, logger zerolog.Logger) (Outcome, error) {
	reports, err := b.Source.Reports(ctx, r)
	if err != nil {
		return out, err
	}
	logger.Info().Int("reports", len(reports)).Msg("fetched reports")
	if len(reports) == 0 {
		out.Status = OutcomeNoReports
		return out, nil
	}

	snap, err := b.Ledger.Load(ctx)
	if err != nil {
		return out, err
	}

	pending := make([]models.Report, 0, len(reports))
	for _, rep := range reports {
		if !snap.Settled(rep.ID) {
			pending = append(pending, rep)
		}
	}
	out.Counts.Reports = len(reports)
	out.Counts.Skipped = len(reports) - len(pending)
	if len(pending) == 0 {
		logger.Info().Msg("all reports already processed")
		out.Status = OutcomeNoReports
		return out, nil
	}

	records, counts, procErr := b.Submissions.Process(ctx, snap, pending)
	counts.Reports = len(reports)
	counts.Skipped += out.Counts.Skipped
	out.Counts = counts
	out.Records = records

	// Records of finished reports are kept even when the batch was cut short,
	// otherwise their agencies would be contacted again on the next run.
	if len(records) > 0 {
		if _, err := b.Ledger.Append(context.WithoutCancel(ctx), snap, records); err != nil {
			return out, err
		}
	}
	if procErr != nil {
		return out, procErr
	}
	out.Status = OutcomeCompleted
	return out, nil
}

func (b *BatchService) startRun(ctx context.Context) string {
	if b.Runs == nil {
		return ""
	}
	id, err := b.Runs.CreateRun(ctx, RunRunning)
	if err != nil {
		b.Logger.Warn().Err(err).Msg("could not record batch run")
		return ""
	}
	return id
}

func (b *BatchService) finishRun(out Outcome, status string) {
	if b.Runs == nil || out.RunID == "" {
		return
	}
	summary, _ := json.Marshal(struct {
		Begin  string `json:"start_date"`
		End    string `json:"end_date"`
		Counts Counts `json:"counts"`
	}{out.Begin, out.End, out.Counts})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.Runs.FinishRun(ctx, out.RunID, status, summary); err != nil {
		b.Logger.Warn().Err(err).Str("run_id", out.RunID).Msg("could not finish batch run")
	}
}
