package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fractracker/complaints/internal/agency"
	"github.com/fractracker/complaints/internal/config"
	"github.com/fractracker/complaints/internal/db"
	"github.com/fractracker/complaints/internal/email"
	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/geocode"
	httpapi "github.com/fractracker/complaints/internal/http"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/models"
	"github.com/fractracker/complaints/internal/service"
	"github.com/fractracker/complaints/internal/webform"
)

// App holds the wired services shared by the server and the CLI.
type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Batch    *service.BatchService
	Ledger   *ledger.Ledger
	Registry *agency.Registry
	DB       *db.Store

	browser *webform.RodBrowser
}

func NewLogger(cfg config.Config, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return log.Level(level).With().Str("service", service).Str("env", cfg.Env).Logger()
}

func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := a.ledgerStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Ledger = ledger.New(store, logger.With().Str("component", "ledger").Logger())

	a.browser = webform.NewRodBrowser(cfg.BrowserBin, cfg.BrowserHeadless, cfg.PageLoadTimeout)
	a.Registry, err = agency.Catalog(&builder{cfg: cfg, logger: logger, browser: a.browser, sender: newSender(cfg)})
	if err != nil {
		a.Close()
		return nil, err
	}

	geocoder := &geocode.NominatimGeocoder{
		BaseURL:     cfg.GeocoderURL,
		UserAgent:   cfg.GeocoderUserAgent,
		MinInterval: cfg.GeocoderMinInterval,
		Client:      &http.Client{Timeout: cfg.GeocoderTimeout},
	}
	subs := &service.SubmissionService{
		Resolver:       geocode.NewResolver(geocoder, logger.With().Str("component", "geocode").Logger()),
		Router:         a.Registry,
		HandlerTimeout: cfg.HandlerTimeout,
		Workers:        cfg.SubmitWorkers,
		Logger:         logger.With().Str("component", "submissions").Logger(),
	}

	var runs service.RunRecorder
	if a.DB != nil {
		runs = a.DB
	}
	a.Batch = service.NewBatchService(a.source(), a.Ledger, subs, runs, logger.With().Str("component", "batch").Logger())

	logger.Info().
		Str("ledger", cfg.LedgerBackend).
		Str("email", cfg.EmailProvider).
		Bool("live_forms", cfg.Live()).
		Int("jurisdictions", len(a.Registry.Jurisdictions())).
		Msg("application wired")
	return a, nil
}

// Deps exposes the services the HTTP API needs.
func (a *App) Deps() httpapi.Deps {
	deps := httpapi.Deps{Batch: a.Batch, Ledger: a.Ledger}
	if a.DB != nil {
		deps.Runs = a.DB
		deps.Health = a.DB
	}
	return deps
}

func (a *App) Close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close browser")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func (a *App) source() fractracker.Source {
	if a.Config.UseMockReports() {
		a.Logger.Info().Str("file", a.Config.MockLocationsFile).Msg("using mock reports")
		return &fractracker.MockSource{Path: a.Config.MockLocationsFile}
	}
	fetcher := &fractracker.Client{BaseURL: a.Config.FracTrackerURL, Client: &http.Client{Timeout: a.Config.RequestTimeout}}
	return fractracker.NewIngestor(fetcher, a.Logger.With().Str("component", "ingest").Logger())
}

func (a *App) ledgerStore(ctx context.Context) (ledger.Store, error) {
	cfg := a.Config
	switch cfg.LedgerBackend {
	case config.LedgerFile:
		return &ledger.FileStore{Path: cfg.LedgerPath}, nil
	case config.LedgerMinIO:
		if cfg.MinIOEndpoint == "" {
			return nil, errors.New("MINIO_ENDPOINT is required for the minio ledger backend")
		}
		return ledger.NewObjectStore(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL, cfg.MinIOBucket, cfg.MinIOObject)
	case config.LedgerPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres ledger backend")
		}
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		a.DB = store
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
}

func newSender(cfg config.Config) email.Sender {
	if cfg.EmailProvider == config.EmailSendGrid {
		return email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	}
	return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailFromName)
}

// builder turns catalog entries into email and web form handlers.
type builder struct {
	cfg     config.Config
	logger  zerolog.Logger
	browser webform.Browser
	sender  email.Sender
	images  email.ImageFetcher
}

func (b *builder) recipient(j agency.Jurisdiction) string {
	switch j {
	case agency.Colorado:
		return b.cfg.AgencyEmailCO
	case agency.Kentucky:
		return b.cfg.AgencyEmailKY
	case agency.Nebraska:
		return b.cfg.AgencyEmailNE
	case agency.NorthDakota:
		return b.cfg.AgencyEmailND
	case agency.Tennessee:
		return b.cfg.AgencyEmailTN
	case agency.WestVirginia:
		return b.cfg.AgencyEmailWV
	}
	return ""
}

// EmailHandler falls back to a failing handler when no recipient is
// configured, so the gap shows up in the ledger instead of blocking startup.
func (b *builder) EmailHandler(j agency.Jurisdiction, name string) (agency.Handler, error) {
	to := b.recipient(j)
	if to == "" {
		b.logger.Warn().Str("jurisdiction", string(j)).Str("agency", name).Msg("no recipient address configured")
		return agency.HandlerFunc(func(context.Context, models.Report) error {
			return fmt.Errorf("no recipient address configured for %s", name)
		}), nil
	}
	return email.NewHandler(b.sender, &b.images, name, to, b.cfg.EmailCC, b.cfg.EmailSubject,
		b.logger.With().Str("component", "email").Str("agency", name).Logger())
}

func (b *builder) WebHandler(j agency.Jurisdiction, name string) (agency.Handler, error) {
	s := &webform.Submitter{
		Browser:       b.browser,
		Live:          b.cfg.Live(),
		ScreenshotDir: b.cfg.ScreenshotDir,
		ConfirmWait:   b.cfg.ConfirmWait,
		Logger:        b.logger.With().Str("component", "webform").Str("agency", name).Logger(),
	}
	return webform.NewHandler(string(j), s)
}
