package fractracker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/models"
)

// Source yields the reports for a date range.
type Source interface {
	Reports(ctx context.Context, r DateRange) ([]models.Report, error)
}

// Ingestor walks every page of a date range and folds duplicate records
// into single reports.
type Ingestor struct {
	Fetcher PageFetcher
	Logger  zerolog.Logger
}

func NewIngestor(f PageFetcher, logger zerolog.Logger) *Ingestor {
	return &Ingestor{Fetcher: f, Logger: logger}
}

// Reports is all-or-nothing: any page failure discards what was merged.
func (in *Ingestor) Reports(ctx context.Context, r DateRange) ([]models.Report, error) {
	first, err := in.Fetcher.FetchPage(ctx, r, 1)
	if err != nil {
		return nil, err
	}
	total := first.Properties.TotalPages
	in.Logger.Info().
		Int("total_pages", total).
		Int("total_results", first.Properties.NumResults).
		Msg("report query summary")

	var reports []models.Report
	for page := 1; page <= total; page++ {
		current := first
		if page > 1 {
			current, err = in.Fetcher.FetchPage(ctx, r, page)
			if err != nil {
				return nil, err
			}
		}
		reports, err = mergePage(reports, current.Features, in.Logger)
		if err != nil {
			return nil, &IngestionError{Page: page, Err: err}
		}
		in.Logger.Debug().Int("page", page).Int("total_pages", total).Int("reports", len(reports)).Msg("processed page")
	}
	return reports, nil
}

// Merge folds incoming reports into acc. A duplicate keeps the id of the
// report seen first and gains the new image URLs.
func Merge(acc []models.Report, incoming ...models.Report) []models.Report {
	for _, candidate := range incoming {
		merged := false
		for i := range acc {
			if acc[i].DuplicateOf(candidate) {
				acc[i].MergeImages(candidate.ImageURLs)
				merged = true
				break
			}
		}
		if !merged {
			acc = append(acc, candidate)
		}
	}
	return acc
}

func mergePage(acc []models.Report, features []Feature, logger zerolog.Logger) ([]models.Report, error) {
	for _, f := range features {
		report, err := f.ToReport()
		if err != nil {
			return nil, err
		}
		before := len(acc)
		acc = Merge(acc, report)
		if len(acc) == before {
			logger.Debug().Str("report_id", report.ID).Msg("merged duplicate report")
		}
	}
	return acc, nil
}
