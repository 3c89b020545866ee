package ledger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/models"
)

// Ledger loads and extends the submission ledger. It assumes a single writer:
// callers must serialize batches that share a store.
type Ledger struct {
	Store  Store
	Logger zerolog.Logger
}

func New(store Store, logger zerolog.Logger) *Ledger {
	return &Ledger{Store: store, Logger: logger}
}

func (l *Ledger) Load(ctx context.Context) (*Snapshot, error) {
	records, err := l.Store.Read(ctx)
	if err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}
	l.Logger.Debug().Int("records", len(records)).Msg("ledger loaded")
	return NewSnapshot(records), nil
}

// Append writes the prior records followed by the new ones and returns the
// resulting snapshot.
func (l *Ledger) Append(ctx context.Context, prior *Snapshot, records []models.SubmissionRecord) (*Snapshot, error) {
	all := prior.Records()
	all = append(all, records...)
	if err := l.Store.Write(ctx, all); err != nil {
		return nil, &IOError{Op: "write", Err: err}
	}
	l.Logger.Info().Int("added", len(records)).Int("total", len(all)).Msg("ledger saved")
	return NewSnapshot(all), nil
}
