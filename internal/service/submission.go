package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fractracker/complaints/internal/agency"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/models"
)

const DefaultHandlerTimeout = 10 * time.Minute

type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) models.Location
}

type Router interface {
	Route(report models.Report) []agency.Descriptor
}

// SubmissionService drives reports through resolution, routing and agency
// handlers. A failing handler only ever produces a not_submitted record.
type SubmissionService struct {
	Resolver       Resolver
	Router         Router
	HandlerTimeout time.Duration
	Workers        int
	Now            func() time.Time
	Logger         zerolog.Logger
}

// Counts tallies one batch.
type Counts struct {
	Reports         int `json:"reports"`
	Skipped         int `json:"skipped"`
	Records         int `json:"records"`
	Submitted       int `json:"submitted"`
	Failed          int `json:"failed"`
	InvalidLocation int `json:"invalid_location"`
	NotConfigured   int `json:"not_configured"`
}

func (c *Counts) add(records []models.SubmissionRecord) {
	c.Records += len(records)
	for _, r := range records {
		switch {
		case r.Submitted():
			c.Submitted++
		case r.Agency != "":
			c.Failed++
		case r.StatusReason != nil && *r.StatusReason == models.ReasonInvalidLocation:
			c.InvalidLocation++
		default:
			c.NotConfigured++
		}
	}
}

// Process handles reports against a ledger snapshot taken before the batch.
// Records come back in report order. When ctx is cancelled no further
// reports are started; the records of finished reports are still returned
// alongside the context error.
func (s *SubmissionService) Process(ctx context.Context, snap *ledger.Snapshot, reports []models.Report) ([]models.SubmissionRecord, Counts, error) {
	results := make([][]models.SubmissionRecord, len(reports))
	skipped := make([]bool, len(reports))

	var g errgroup.Group
	g.SetLimit(s.workers())
	for i := range reports {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], skipped[i] = s.processReport(ctx, snap, reports[i])
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	counts := Counts{Reports: len(reports)}
	var out []models.SubmissionRecord
	for i, recs := range results {
		if skipped[i] {
			counts.Skipped++
		}
		out = append(out, recs...)
	}
	counts.add(out)
	return out, counts, err
}

func (s *SubmissionService) processReport(ctx context.Context, snap *ledger.Snapshot, report models.Report) ([]models.SubmissionRecord, bool) {
	logger := s.Logger.With().Str("report_id", report.ID).Logger()

	if snap.Settled(report.ID) {
		logger.Debug().Msg("report already processed")
		return nil, true
	}

	if report.Location == nil {
		loc := s.Resolver.Resolve(ctx, report.Lat, report.Lon)
		report.Location = &loc
	}
	if !report.Location.IsValid {
		logger.Info().Float64("lat", report.Lat).Float64("lon", report.Lon).Msg("invalid location")
		return []models.SubmissionRecord{models.InvalidLocationRecord(report)}, false
	}

	descriptors := s.Router.Route(report)
	if len(descriptors) == 0 {
		logger.Info().Str("state", report.Location.StateName()).Msg("state not configured for submission")
		return []models.SubmissionRecord{models.NotConfiguredRecord(report)}, false
	}

	var records []models.SubmissionRecord
	for _, d := range descriptors {
		if snap.Submitted(report.ID, d.Agency) {
			logger.Debug().Str("agency", d.Agency).Msg("already submitted to agency")
			continue
		}
		if err := s.invoke(ctx, d, report); err != nil {
			logger.Warn().Err(err).Str("agency", d.Agency).Str("channel", string(d.Channel)).Msg("submission failed")
			records = append(records, models.FailedRecord(report, d.Agency, d.Channel, err.Error()))
			continue
		}
		logger.Info().Str("agency", d.Agency).Str("channel", string(d.Channel)).Msg("submitted")
		records = append(records, models.SubmittedRecord(report, d.Agency, d.Channel, s.now()))
	}
	return records, false
}

// invoke runs one handler under a wall-clock limit. Panics become errors.
// A handler that ignores its context is abandoned once the limit passes.
func (s *SubmissionService) invoke(ctx context.Context, d agency.Descriptor, report models.Report) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s handler panicked: %v", d.Agency, r)
			}
		}()
		done <- d.Handler.Submit(ctx, report)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s handler: %w", d.Agency, ctx.Err())
	}
}

func (s *SubmissionService) timeout() time.Duration {
	if s.HandlerTimeout <= 0 {
		return DefaultHandlerTimeout
	}
	return s.HandlerTimeout
}

func (s *SubmissionService) workers() int {
	if s.Workers <= 0 {
		return 1
	}
	return s.Workers
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
