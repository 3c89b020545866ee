package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fractracker/complaints/internal/db"
	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/service"
)

type RunRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=01-02-2006" example:"03-01-2024"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=01-02-2006" example:"03-02-2024"`
}

type RunResponse struct {
	Message   string         `json:"message"`
	RunID     string         `json:"run_id,omitempty"`
	StartDate string         `json:"start_date,omitempty"`
	EndDate   string         `json:"end_date,omitempty"`
	Counts    service.Counts `json:"counts"`
}

const (
	noReportsMessage = "No reports found in timespan."
	maxListLimit     = 1000
)

// @Summary Run a submission batch
// @Description Fetch the reports for the date range (default yesterday through today) and submit them to the responsible agencies
// @Tags submissions
// @Accept json
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Param request body RunRequest false "Date range (MM-DD-YYYY)"
// @Success 200 {object} RunResponse
// @Success 201 {object} RunResponse
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Router /api/submissions/run [post]
func (h *Handler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dates must use MM-DD-YYYY", err.Error())
		return
	}
	r, err := fractracker.ParseRange(req.StartDate, req.EndDate, h.now())
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_RANGE", "Invalid date range", err.Error())
		return
	}

	// A batch outlives its request: a dropped connection must not cancel
	// submissions already in flight. Only server shutdown stops it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	if h.Shutdown != nil {
		stop := context.AfterFunc(h.Shutdown, cancel)
		defer stop()
	}

	out, err := h.Batch.Execute(ctx, r)
	if err != nil {
		h.writeBatchError(c, err)
		return
	}

	resp := RunResponse{RunID: out.RunID, StartDate: out.Begin, EndDate: out.End, Counts: out.Counts}
	if out.Status == service.OutcomeNoReports {
		resp.Message = noReportsMessage
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Message = "Submissions processed."
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) writeBatchError(c *gin.Context, err error) {
	var ingestErr *fractracker.IngestionError
	var ioErr *ledger.IOError
	switch {
	case errors.Is(err, service.ErrBatchInProgress):
		writeError(c, http.StatusConflict, "BATCH_IN_PROGRESS", "A submission batch is already running", nil)
	case errors.As(err, &ingestErr):
		writeError(c, http.StatusInternalServerError, "INGESTION_ERROR", "Failed to fetch reports", err.Error())
	case errors.As(err, &ioErr):
		writeError(c, http.StatusInternalServerError, "LEDGER_ERROR", "Failed to access submission ledger", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Submission batch failed", err.Error())
	}
}

// @Summary List ledger records
// @Tags submissions
// @Produce json
// @Param status query string false "submitted or not_submitted"
// @Param state query string false "State name"
// @Param report_id query string false "Report ID"
// @Param limit query int false "Page size (max 1000)" default(100)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]any
// @Router /api/submissions [get]
func (h *Handler) SubmissionsList(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	state := strings.TrimSpace(c.Query("state"))
	reportID := strings.TrimSpace(c.Query("report_id"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 100
	}
	limit = min(limit, maxListLimit)
	if offset < 0 {
		offset = 0
	}

	snap, err := h.Ledger.Load(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "LEDGER_ERROR", "Failed to read submission ledger", err.Error())
		return
	}

	items := snap.Find(ledger.Filter{Status: status, State: state, ReportID: reportID})
	total := len(items)
	if offset > total {
		offset = total
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}

	c.JSON(http.StatusOK, gin.H{"items": items[offset:end], "total": total, "limit": limit, "offset": offset})
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	if h.Runs == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Run history requires the postgres ledger backend", nil)
		return
	}
	result, err := h.Runs.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNoRuns) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load latest run", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
