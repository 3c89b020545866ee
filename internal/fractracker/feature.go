package fractracker

import (
	"encoding/json"
	"fmt"

	"github.com/fractracker/complaints/internal/models"
)

// Feature is one GeoJSON report as served by the FracTracker API.
type Feature struct {
	ID         json.RawMessage   `json:"id"`
	Geometry   featureGeometry   `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type featureGeometry struct {
	Coordinates []float64 `json:"coordinates"`
	Geometries  []struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometries"`
}

type named struct {
	Properties struct {
		Name     string `json:"name"`
		Original string `json:"original"`
	} `json:"properties"`
}

type featureProperties struct {
	Description string `json:"description"`
	ReportDate  string `json:"report_date"`
	CreatedBy   struct {
		Properties struct {
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
			Email     string  `json:"email"`
		} `json:"properties"`
	} `json:"created_by"`
	Senses     []named `json:"senses"`
	Images     []named `json:"images"`
	Industries []named `json:"industries"`
}

// ToReport converts an upstream feature. The location is left unresolved.
func (f Feature) ToReport() (models.Report, error) {
	id, err := featureID(f.ID)
	if err != nil {
		return models.Report{}, err
	}

	coords := f.Geometry.Coordinates
	if len(f.Geometry.Geometries) > 0 {
		coords = f.Geometry.Geometries[0].Coordinates
	}
	if len(coords) < 2 {
		return models.Report{}, fmt.Errorf("report %s has no coordinates", id)
	}

	p := f.Properties
	senses := models.NewSenses()
	for _, s := range p.Senses {
		senses[models.Sense(s.Properties.Name)] = true
	}

	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.Properties.Original)
	}
	types := make([]string, 0, len(p.Industries))
	for _, ind := range p.Industries {
		types = append(types, ind.Properties.Name)
	}

	return models.Report{
		ID:          id,
		Lat:         coords[1],
		Lon:         coords[0],
		Description: p.Description,
		FirstName:   nullable(p.CreatedBy.Properties.FirstName),
		LastName:    nullable(p.CreatedBy.Properties.LastName),
		Email:       p.CreatedBy.Properties.Email,
		Date:        p.ReportDate,
		Senses:      senses,
		ImageURLs:   images,
		ReportTypes: types,
	}, nil
}

// featureID accepts both numeric and string ids.
func featureID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("report without id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("unsupported report id %s", string(raw))
	}
	return n.String(), nil
}

func nullable(v *string) *string {
	if v == nil {
		return nil
	}
	return models.StringPtr(*v)
}
