package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractracker/complaints/internal/agency"
	"github.com/fractracker/complaints/internal/config"
	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/models"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:               config.EnvDev,
		LedgerBackend:     config.LedgerFile,
		LedgerPath:        filepath.Join(t.TempDir(), "submissions.csv"),
		EmailProvider:     config.EmailSMTP,
		EmailSubject:      "Environmental Complaint",
		AgencyEmailCO:     "complaints@colorado.example.org",
		ScreenshotDir:     t.TempDir(),
		MockLocationsFile: filepath.Join("..", "..", "testdata", "mock_locations.json"),
	}
}

func reportIn(state string) models.Report {
	loc := models.Location{IsValid: true, State: models.StringPtr(state)}
	return models.Report{ID: "r1", Senses: models.NewSenses(), Location: &loc}
}

func TestNewWiresEveryJurisdiction(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, agency.Jurisdictions, a.Registry.Jurisdictions())
	assert.Nil(t, a.DB)
	assert.Nil(t, a.Deps().Runs)

	_, isIngestor := a.Batch.Source.(*fractracker.Ingestor)
	assert.True(t, isIngestor)
}

func TestMissingRecipientFailsAtSubmission(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	routes := a.Registry.Route(reportIn("Kentucky"))
	require.Len(t, routes, 1)
	assert.Equal(t, models.ChannelEmail, routes[0].Channel)
	err = routes[0].Handler.Submit(context.Background(), reportIn("Kentucky"))
	assert.ErrorContains(t, err, "no recipient address configured")
}

func TestTestEnvUsesMockSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = config.EnvTest
	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	src, ok := a.Batch.Source.(*fractracker.MockSource)
	require.True(t, ok)
	assert.Equal(t, cfg.MockLocationsFile, src.Path)
}

func TestNewRejectsBadLedgerConfig(t *testing.T) {
	tests := []struct {
		name string
		edit func(*config.Config)
		msg  string
	}{
		{"unknown backend", func(c *config.Config) { c.LedgerBackend = "s3" }, "unknown LEDGER_BACKEND"},
		{"minio without endpoint", func(c *config.Config) { c.LedgerBackend = config.LedgerMinIO }, "MINIO_ENDPOINT"},
		{"postgres without url", func(c *config.Config) { c.LedgerBackend = config.LedgerPostgres }, "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.edit(&cfg)
			_, err := New(context.Background(), cfg, zerolog.Nop())
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestMalformedRecipientRejected(t *testing.T) {
	cfg := testConfig(t)
	cfg.AgencyEmailTN = "not-an-address"
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "tennessee")
}
