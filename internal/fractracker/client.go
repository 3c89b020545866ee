package fractracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DateLayout = "01-02-2006"

// DateRange is an inclusive range of report dates.
type DateRange struct {
	Begin time.Time
	End   time.Time
}

// DefaultRange covers yesterday through today.
func DefaultRange(now time.Time) DateRange {
	today := truncateDay(now)
	return DateRange{Begin: today.AddDate(0, 0, -1), End: today}
}

// ParseRange parses MM-DD-YYYY bounds. Blank bounds fall back to DefaultRange.
func ParseRange(begin, end string, now time.Time) (DateRange, error) {
	if begin == "" || end == "" {
		return DefaultRange(now), nil
	}
	b, err := time.Parse(DateLayout, begin)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start_date %q: %w", begin, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end_date %q: %w", end, err)
	}
	r := DateRange{Begin: b, End: e}
	return r, r.Validate(now)
}

func (r DateRange) Validate(now time.Time) error {
	today := truncateDay(now)
	if r.Begin.After(r.End) {
		return fmt.Errorf("start date %s is after end date %s", r.Begin.Format(DateLayout), r.End.Format(DateLayout))
	}
	if r.End.After(today) {
		return fmt.Errorf("end date %s is in the future", r.End.Format(DateLayout))
	}
	return nil
}

type filter struct {
	Val  string `json:"val"`
	Op   string `json:"op"`
	Name string `json:"name"`
}

type query struct {
	Filters []filter `json:"filters"`
}

// Query renders the upstream "q" parameter for the range. The end bound is
// exclusive midnight of the following day so fractional seconds late on the
// end day still match.
func (r DateRange) Query() string {
	q := query{Filters: []filter{
		{Val: r.Begin.Format("2006-01-02") + "T00:00:00", Op: "ge", Name: "report_date"},
		{Val: r.End.AddDate(0, 0, 1).Format("2006-01-02") + "T00:00:00", Op: "lt", Name: "report_date"},
	}}
	b, _ := json.Marshal(q)
	return string(b)
}

type Page struct {
	Features   []Feature `json:"features"`
	Properties struct {
		TotalPages int `json:"total_pages"`
		NumResults int `json:"num_results"`
	} `json:"properties"`
}

type PageFetcher interface {
	FetchPage(ctx context.Context, r DateRange, page int) (Page, error)
}

type Client struct {
	BaseURL string
	Client  *http.Client
}

func (c *Client) FetchPage(ctx context.Context, r DateRange, page int) (Page, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 60 * time.Second}
	}

	params := url.Values{}
	params.Set("q", r.Query())
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, &IngestionError{Page: page, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Page{}, &IngestionError{Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, &IngestionError{Page: page, Status: resp.StatusCode, Err: fmt.Errorf("call for reports failed with status %q", resp.Status)}
	}

	var p Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Page{}, &IngestionError{Page: page, Err: fmt.Errorf("decode page: %w", err)}
	}
	return p, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
