package ledger

import (
	"strings"

	"github.com/fractracker/complaints/internal/models"
)

// Key identifies one (report, agency) pair. Agency-less records use an
// empty agency.
type Key struct {
	ReportID string
	Agency   string
}

// Snapshot is an immutable view of the ledger taken at batch start.
type Snapshot struct {
	records  []models.SubmissionRecord
	byReport map[string][]int
	latest   map[Key]int
}

func NewSnapshot(records []models.SubmissionRecord) *Snapshot {
	s := &Snapshot{
		records:  records,
		byReport: make(map[string][]int),
		latest:   make(map[Key]int),
	}
	for i, r := range records {
		s.byReport[r.ID] = append(s.byReport[r.ID], i)
		s.latest[Key{ReportID: r.ID, Agency: r.Agency}] = i
	}
	return s
}

// Records returns a copy of every record in persisted order.
func (s *Snapshot) Records() []models.SubmissionRecord {
	out := make([]models.SubmissionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Snapshot) Len() int {
	return len(s.records)
}

// Submitted reports whether any record for the pair succeeded.
func (s *Snapshot) Submitted(reportID, agency string) bool {
	for _, i := range s.byReport[reportID] {
		r := s.records[i]
		if r.Agency == agency && r.Submitted() {
			return true
		}
	}
	return false
}

// Latest returns the most recent record for a pair.
func (s *Snapshot) Latest(k Key) (models.SubmissionRecord, bool) {
	i, ok := s.latest[k]
	if !ok {
		return models.SubmissionRecord{}, false
	}
	return s.records[i], true
}

// Keys lists every distinct pair in first-seen order.
func (s *Snapshot) Keys() []Key {
	seen := make(map[Key]struct{}, len(s.latest))
	out := make([]Key, 0, len(s.latest))
	for _, r := range s.records {
		k := Key{ReportID: r.ID, Agency: r.Agency}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Settled reports whether a report needs no further work: it has records and
// every agency that appears for it has been submitted to. Agency-less
// records (invalid location, unconfigured jurisdiction) are terminal.
func (s *Snapshot) Settled(reportID string) bool {
	idx := s.byReport[reportID]
	if len(idx) == 0 {
		return false
	}
	for _, i := range idx {
		r := s.records[i]
		if r.Agency == "" {
			continue
		}
		if !s.Submitted(reportID, r.Agency) {
			return false
		}
	}
	return true
}

// Filter narrows a record listing. Empty fields match everything; State is
// compared case-insensitively.
type Filter struct {
	Status   string
	State    string
	ReportID string
}

func (f Filter) Match(r models.SubmissionRecord) bool {
	if f.Status != "" && string(r.Status) != f.Status {
		return false
	}
	if f.State != "" && (r.State == nil || !strings.EqualFold(*r.State, f.State)) {
		return false
	}
	return f.ReportID == "" || r.ID == f.ReportID
}

// Find returns the matching records in persisted order.
func (s *Snapshot) Find(f Filter) []models.SubmissionRecord {
	out := []models.SubmissionRecord{}
	for _, r := range s.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
