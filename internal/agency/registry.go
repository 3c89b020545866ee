package agency

import (
	"context"

	"github.com/fractracker/complaints/internal/models"
)

// Handler delivers one report to one agency. Any returned error is a
// submission failure for that (report, agency) pair only.
type Handler interface {
	Submit(ctx context.Context, report models.Report) error
}

type HandlerFunc func(ctx context.Context, report models.Report) error

func (f HandlerFunc) Submit(ctx context.Context, report models.Report) error {
	return f(ctx, report)
}

// Descriptor names the agency and channel a handler delivers through.
type Descriptor struct {
	Agency  string
	Channel models.Channel
	Handler Handler
}

// Predicate selects reports for a conditional entry.
type Predicate func(models.Report) bool

// Always matches every report.
func Always(models.Report) bool { return true }

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(r models.Report) bool { return !p(r) }
}

type Entry struct {
	When       Predicate
	Descriptor Descriptor
}

// Registry maps each jurisdiction to an ordered list of entries.
type Registry struct {
	entries map[Jurisdiction][]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[Jurisdiction][]Entry)}
}

func (r *Registry) Register(j Jurisdiction, entries ...Entry) {
	r.entries[j] = append(r.entries[j], entries...)
}

// Route returns the descriptors for a report in registration order. Reports
// without a valid location and unknown jurisdictions yield nil.
func (r *Registry) Route(report models.Report) []Descriptor {
	if report.Location == nil || !report.Location.IsValid {
		return nil
	}
	entries, ok := r.entries[Normalize(report.Location.StateName())]
	if !ok {
		return nil
	}
	var out []Descriptor
	for _, e := range entries {
		if e.When == nil || e.When(report) {
			out = append(out, e.Descriptor)
		}
	}
	return out
}

// Jurisdictions lists the registered jurisdictions.
func (r *Registry) Jurisdictions() []Jurisdiction {
	out := make([]Jurisdiction, 0, len(r.entries))
	for _, j := range Jurisdictions {
		if _, ok := r.entries[j]; ok {
			out = append(out, j)
		}
	}
	return out
}
