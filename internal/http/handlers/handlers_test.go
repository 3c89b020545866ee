package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractracker/complaints/internal/agency"
	"github.com/fractracker/complaints/internal/db"
	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/models"
	"github.com/fractracker/complaints/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)

type fakeBatch struct {
	got fractracker.DateRange
	out service.Outcome
	err error
}

func (f *fakeBatch) Execute(_ context.Context, r fractracker.DateRange) (service.Outcome, error) {
	f.got = r
	return f.out, f.err
}

type fakeLedger struct {
	records []models.SubmissionRecord
	err     error
}

func (f fakeLedger) Load(context.Context) (*ledger.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return ledger.NewSnapshot(f.records), nil
}

type fakeRuns struct{ err error }

func (f fakeRuns) GetLatestRun(context.Context) (*models.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Run{ID: "run-1", Status: "COMPLETED", Summary: json.RawMessage(`{"counts":{}}`)}, nil
}

func newHandler(b BatchRunner, l LedgerReader) *Handler {
	return &Handler{
		Batch:     b,
		Ledger:    l,
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return now },
	}
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/submissions/run", h.Run)
	r.GET("/api/submissions", h.SubmissionsList)
	r.GET("/api/runs/latest", h.RunsLatest)
	r.GET("/healthz", h.Healthz)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRunCompleted(t *testing.T) {
	b := &fakeBatch{out: service.Outcome{Status: service.OutcomeCompleted, Counts: service.Counts{Reports: 2, Records: 3, Submitted: 2, Failed: 1}}}
	w := serve(newHandler(b, fakeLedger{}), http.MethodPost, "/api/submissions/run", `{"start_date":"03-01-2024","end_date":"03-02-2024"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Counts.Submitted)
	assert.Equal(t, 1, resp.Counts.Failed)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), b.got.Begin)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), b.got.End)
}

func TestRunWithoutBodyUsesDefaultRange(t *testing.T) {
	b := &fakeBatch{out: service.Outcome{Status: service.OutcomeNoReports}}
	w := serve(newHandler(b, fakeLedger{}), http.MethodPost, "/api/submissions/run", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No reports found in timespan.")
	assert.Equal(t, fractracker.DefaultRange(now), b.got)
}

func TestRunRejectsBadDates(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"wrong layout", `{"start_date":"2024-03-01","end_date":"2024-03-02"}`, "INVALID_REQUEST"},
		{"start after end", `{"start_date":"03-03-2024","end_date":"03-01-2024"}`, "INVALID_RANGE"},
		{"future end", `{"start_date":"03-01-2024","end_date":"03-09-2024"}`, "INVALID_RANGE"},
		{"malformed json", `{"start_date":`, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBatch{}
			w := serve(newHandler(b, fakeLedger{}), http.MethodPost, "/api/submissions/run", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestRunMapsBatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ingestion", &fractracker.IngestionError{Page: 2, Status: 500, Err: errors.New("upstream")}, http.StatusInternalServerError, "INGESTION_ERROR"},
		{"ledger", &ledger.IOError{Op: "write", Err: errors.New("disk full")}, http.StatusInternalServerError, "LEDGER_ERROR"},
		{"busy", service.ErrBatchInProgress, http.StatusConflict, "BATCH_IN_PROGRESS"},
		{"other", context.Canceled, http.StatusInternalServerError, "PROCESSING_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newHandler(&fakeBatch{err: tt.err}, fakeLedger{}), http.MethodPost, "/api/submissions/run", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestSubmissionsListFilters(t *testing.T) {
	ohio := "Ohio"
	at := now
	records := []models.SubmissionRecord{
		{ID: "r1", State: &ohio, Agency: "Ohio EPA", Status: models.StatusSubmitted, SubmissionTime: &at},
		{ID: "r2", State: &ohio, Agency: "Ohio EPA", Status: models.StatusNotSubmitted},
		{ID: "r3", Status: models.StatusNotSubmitted},
	}
	h := newHandler(&fakeBatch{}, fakeLedger{records: records})

	tests := []struct {
		query string
		ids   []string
	}{
		{"", []string{"r1", "r2", "r3"}},
		{"?status=not_submitted", []string{"r2", "r3"}},
		{"?state=ohio", []string{"r1", "r2"}},
		{"?report_id=r3", []string{"r3"}},
		{"?limit=1&offset=1", []string{"r2"}},
		{"?offset=10", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(h, http.MethodGet, "/api/submissions"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Items []models.SubmissionRecord `json:"items"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			ids := []string{}
			for _, it := range body.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestSubmissionsListLedgerFailure(t *testing.T) {
	w := serve(newHandler(&fakeBatch{}, fakeLedger{err: &ledger.IOError{Op: "read", Err: errors.New("denied")}}), http.MethodGet, "/api/submissions", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "LEDGER_ERROR", errorCode(t, w))
}

func TestRunsLatest(t *testing.T) {
	h := newHandler(&fakeBatch{}, fakeLedger{})

	w := serve(h, http.MethodGet, "/api/runs/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.Runs = fakeRuns{err: db.ErrNoRuns}
	w = serve(h, http.MethodGet, "/api/runs/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.Runs = fakeRuns{}
	w = serve(h, http.MethodGet, "/api/runs/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"summary":{"counts":{}}`)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthz(t *testing.T) {
	h := newHandler(&fakeBatch{}, fakeLedger{})
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "").Code)

	h.Health = fakePinger{err: errors.New("connection refused")}
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/healthz", "").Code)
}

type memStore struct {
	mu      sync.Mutex
	records []models.SubmissionRecord
}

func (m *memStore) Read(context.Context) ([]models.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SubmissionRecord(nil), m.records...), nil
}

func (m *memStore) Write(_ context.Context, records []models.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]models.SubmissionRecord(nil), records...)
	return nil
}

type oneReport struct{}

func (oneReport) Reports(context.Context, fractracker.DateRange) ([]models.Report, error) {
	loc := models.Location{IsValid: true, State: models.StringPtr("Ohio")}
	return []models.Report{{ID: "r1", Lat: 40, Lon: -80, Senses: models.NewSenses(), Location: &loc}}, nil
}

// slowBatch wires a real batch whose only handler takes longer than the
// caller is willing to wait.
func slowBatch(store *memStore) *service.BatchService {
	reg := agency.NewRegistry()
	reg.Register(agency.Ohio, agency.Entry{When: agency.Always, Descriptor: agency.Descriptor{
		Agency: "Ohio", Channel: models.ChannelWeb,
		Handler: agency.HandlerFunc(func(ctx context.Context, _ models.Report) error {
			select {
			case <-time.After(150 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	}})
	subs := &service.SubmissionService{Router: reg, HandlerTimeout: time.Minute, Logger: zerolog.Nop()}
	return service.NewBatchService(oneReport{}, ledger.New(store, zerolog.Nop()), subs, nil, zerolog.Nop())
}

func TestRunSurvivesCallerTimeout(t *testing.T) {
	store := &memStore{}
	h := newHandler(slowBatch(store), fakeLedger{})
	r := gin.New()
	r.POST("/api/submissions/run", h.Run)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/submissions/run", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, store.records, 1)
	assert.True(t, store.records[0].Submitted())
	assert.Equal(t, "Ohio", store.records[0].Agency)
}

func TestRunStopsOnShutdown(t *testing.T) {
	store := &memStore{}
	shutdown, stop := context.WithCancel(context.Background())
	h := newHandler(slowBatch(store), fakeLedger{})
	h.Shutdown = shutdown
	r := gin.New()
	r.POST("/api/submissions/run", h.Run)

	time.AfterFunc(20*time.Millisecond, stop)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/submissions/run", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PROCESSING_ERROR", errorCode(t, w))
	require.Len(t, store.records, 1)
	assert.Equal(t, models.StatusNotSubmitted, store.records[0].Status)
}

func TestSubmissionsListHugeLimit(t *testing.T) {
	records := []models.SubmissionRecord{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}
	h := newHandler(&fakeBatch{}, fakeLedger{records: records})

	w := serve(h, http.MethodGet, "/api/submissions?limit=9223372036854775807&offset=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items []models.SubmissionRecord `json:"items"`
		Limit int                       `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "r2", body.Items[0].ID)
	assert.Equal(t, maxListLimit, body.Limit)
}
