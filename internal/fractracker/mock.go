package fractracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fractracker/complaints/internal/models"
)

const (
	mockDescription = "PLEASE DISREGARD THIS SUBMISSION."
	mockDate        = "2018-01-02T22:08:12.510696"
	mockName        = "N/A"
	mockEmail       = "noreply@noreply.com"
)

type mockLocation struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	State       string  `json:"state"`
	Zip         string  `json:"zip"`
	County      string  `json:"county"`
	FullAddress string  `json:"full_address"`
}

// MockSource serves one synthetic report per configured test location,
// with the location already resolved. The date range is ignored.
type MockSource struct {
	Path string
	Now  func() time.Time
}

func (m *MockSource) Reports(ctx context.Context, _ DateRange) ([]models.Report, error) {
	raw, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mock reports: %w", err)
	}
	var locations []mockLocation
	if err := json.Unmarshal(raw, &locations); err != nil {
		return nil, fmt.Errorf("failed to generate mock reports: %w", err)
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	stamp := now().UTC().Format("2006_01_02")

	reports := make([]models.Report, 0, len(locations))
	for _, loc := range locations {
		name := mockName
		last := mockName
		reports = append(reports, models.Report{
			ID:          fmt.Sprintf("test_%s_%s", stamp, uuid.NewString()),
			Lat:         loc.Lat,
			Lon:         loc.Lon,
			Description: mockDescription,
			FirstName:   &name,
			LastName:    &last,
			Email:       mockEmail,
			Date:        mockDate,
			Senses:      models.NewSenses(),
			ImageURLs:   []string{},
			ReportTypes: []string{"Wells"},
			Location: &models.Location{
				Lat:         loc.Lat,
				Lon:         loc.Lon,
				IsValid:     true,
				State:       models.StringPtr(loc.State),
				County:      models.StringPtr(loc.County),
				Zip:         models.StringPtr(loc.Zip),
				FullAddress: models.StringPtr(loc.FullAddress),
			},
		})
	}
	return reports, nil
}
