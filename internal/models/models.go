package models

import (
	"fmt"
	"strings"
	"time"
)

type Sense string

const (
	SenseSight Sense = "Sight"
	SenseSmell Sense = "Smell"
	SenseTaste Sense = "Taste"
	SenseTouch Sense = "Touch"
	SenseSound Sense = "Sound"
)

// AllSenses lists the fixed keys of a report's sense map.
var AllSenses = []Sense{SenseSight, SenseSmell, SenseTaste, SenseTouch, SenseSound}

type Senses map[Sense]bool

// NewSenses returns a sense map with every key present and false.
func NewSenses() Senses {
	s := make(Senses, len(AllSenses))
	for _, k := range AllSenses {
		s[k] = false
	}
	return s
}

func (s Senses) Has(k Sense) bool {
	return s[k]
}

type Location struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	IsValid     bool    `json:"is_valid"`
	State       *string `json:"state"`
	County      *string `json:"county"`
	Zip         *string `json:"zip"`
	FullAddress *string `json:"full_address"`
}

// InvalidLocation is the terminal result for coordinates that could not be resolved.
func InvalidLocation(lat, lon float64) Location {
	return Location{Lat: lat, Lon: lon}
}

func (l Location) StateName() string {
	return deref(l.State)
}

func (l Location) CountyName() string {
	return deref(l.County)
}

func (l Location) ZipCode() string {
	return deref(l.Zip)
}

func (l Location) Address() string {
	return deref(l.FullAddress)
}

func (l Location) String() string {
	return fmt.Sprintf("Location(lat=%v, lon=%v, is_valid=%t, state=%s, county=%s, zip=%s)",
		l.Lat, l.Lon, l.IsValid, l.StateName(), l.CountyName(), l.ZipCode())
}

type Report struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Description string    `json:"description"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	Email       string    `json:"email"`
	Date        string    `json:"date"`
	Senses      Senses    `json:"senses"`
	ImageURLs   []string  `json:"image_urls"`
	ReportTypes []string  `json:"report_types"`
	Location    *Location `json:"location,omitempty"`
}

// DuplicateOf reports whether r and other describe the same incident.
// Id and images are ignored since the upstream API assigns them per page.
func (r Report) DuplicateOf(other Report) bool {
	return r.Date == other.Date &&
		r.Description == other.Description &&
		equalPtr(r.FirstName, other.FirstName) &&
		equalPtr(r.LastName, other.LastName) &&
		r.Lon == other.Lon &&
		r.Lat == other.Lat
}

// MergeImages appends the URLs not already present, keeping order.
func (r *Report) MergeImages(urls []string) {
	seen := make(map[string]struct{}, len(r.ImageURLs))
	for _, u := range r.ImageURLs {
		seen[u] = struct{}{}
	}
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		r.ImageURLs = append(r.ImageURLs, u)
	}
}

func (r Report) HasType(name string) bool {
	for _, t := range r.ReportTypes {
		if strings.EqualFold(strings.TrimSpace(t), name) {
			return true
		}
	}
	return false
}

// FullName is empty unless both names are present.
func (r Report) FullName() string {
	first := strings.TrimSpace(deref(r.FirstName))
	last := strings.TrimSpace(deref(r.LastName))
	if first == "" || last == "" {
		return ""
	}
	return first + " " + last
}

// ParsedDate parses the upstream ISO timestamp, with or without a zone.
func (r Report) ParsedDate() (time.Time, error) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, r.Date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized report date %q", r.Date)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// StringPtr returns nil for blank strings.
func StringPtr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
