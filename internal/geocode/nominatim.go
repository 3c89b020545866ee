package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// NominatimGeocoder reverse geocodes through an OpenStreetMap Nominatim
// instance. Calls are spaced by MinInterval and answers are cached per
// coordinate pair.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Client      *http.Client

	once    sync.Once
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]*Address
}

type nominatimReverse struct {
	DisplayName any            `json:"display_name"`
	Address     map[string]any `json:"address"`
	Error       string         `json:"error"`
}

func (g *NominatimGeocoder) init() {
	g.once.Do(func() {
		if g.Client == nil {
			g.Client = &http.Client{Timeout: 30 * time.Second}
		}
		if g.BaseURL == "" {
			g.BaseURL = "https://nominatim.openstreetmap.org"
		}
		if g.UserAgent == "" {
			g.UserAgent = "fractracker-complaints"
		}
		if g.MinInterval <= 0 {
			g.MinInterval = time.Second
		}
		g.limiter = rate.NewLimiter(rate.Every(g.MinInterval), 1)
		g.cache = map[string]*Address{}
	})
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	g.init()

	key := cacheKey(lat, lon)
	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	endpoint := fmt.Sprintf("%s/reverse?%s", g.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var body nominatimReverse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	addr := parseNominatimReverse(body)

	g.mu.Lock()
	g.cache[key] = addr
	g.mu.Unlock()

	return addr, nil
}

// parseNominatimReverse extracts each field on its own so that a missing or
// malformed one does not discard the others. A nil result means no match.
func parseNominatimReverse(body nominatimReverse) *Address {
	if body.Error != "" || body.Address == nil {
		return nil
	}
	return &Address{
		State:       stringField(body.Address, "state"),
		County:      stringField(body.Address, "county"),
		Zip:         stringField(body.Address, "postcode"),
		DisplayName: stringValue(body.DisplayName),
	}
}

func stringField(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return stringValue(v)
}

func stringValue(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func cacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
