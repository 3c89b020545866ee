package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/models"
	"github.com/fractracker/complaints/internal/service"
)

type BatchRunner interface {
	Execute(ctx context.Context, r fractracker.DateRange) (service.Outcome, error)
}

type LedgerReader interface {
	Load(ctx context.Context) (*ledger.Snapshot, error)
}

type RunReader interface {
	GetLatestRun(ctx context.Context) (*models.Run, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the trigger and read-only endpoints. Runs and Health are
// nil unless the PostgreSQL backend is configured. Shutdown, when set, is
// cancelled as the server stops and aborts running batches.
type Handler struct {
	Shutdown  context.Context
	Batch     BatchRunner
	Ledger    LedgerReader
	Runs      RunReader
	Health    Pinger
	Validator *validator.Validate
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Health.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
