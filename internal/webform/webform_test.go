package webform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractracker/complaints/internal/models"
)

type fakePage struct {
	title   string
	html    string
	class   string
	present map[string]bool
	failOn  string
	sticky  bool

	actions []string
	files   []string
	closed  bool
}

func (p *fakePage) record(action, selector string) error {
	p.actions = append(p.actions, action+" "+selector)
	if selector == p.failOn {
		return errors.New("element not found")
	}
	return nil
}

func (p *fakePage) Title() (string, error)         { return p.title, nil }
func (p *fakePage) Fill(sel, _ string) error       { return p.record("fill", sel) }
func (p *fakePage) SelectText(sel, _ string) error { return p.record("select", sel) }
func (p *fakePage) SelectValue(sel string, _ []string) error {
	return p.record("select", sel)
}
func (p *fakePage) EnterFrame(sel string) error { return p.record("frame", sel) }
func (p *fakePage) Click(sel string) error {
	if err := p.record("click", sel); err != nil {
		return err
	}
	if !p.sticky {
		delete(p.present, sel)
	}
	return nil
}
func (p *fakePage) SetFiles(sel string, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		p.files = append(p.files, string(data))
	}
	return p.record("upload", sel)
}
func (p *fakePage) Has(sel string) (bool, error)             { return p.present[sel], nil }
func (p *fakePage) Attribute(string, string) (string, error) { return p.class, nil }
func (p *fakePage) HTML() (string, error)                    { return p.html, nil }
func (p *fakePage) Screenshot() ([]byte, error)              { return []byte("png"), nil }
func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeBrowser struct {
	page   *fakePage
	opened []string
}

func (b *fakeBrowser) Open(_ context.Context, url string) (Page, error) {
	b.opened = append(b.opened, url)
	return b.page, nil
}

func (b *fakeBrowser) Close() error { return nil }

func strPtr(s string) *string { return &s }

func report() models.Report {
	return models.Report{
		ID:          "r42",
		Lat:         40.1,
		Lon:         -80.2,
		Description: "dust",
		FirstName:   strPtr("Jane"),
		LastName:    strPtr("Doe"),
		Email:       "jane@example.com",
		Date:        "2024-03-02T13:52:00",
		Senses:      models.NewSenses(),
		Location: &models.Location{
			IsValid:     true,
			State:       strPtr("Pennsylvania"),
			County:      strPtr("Washington County"),
			FullAddress: strPtr("12 Main St, Amwell Township, Washington County, Pennsylvania, 15301"),
		},
	}
}

func testForm() Form {
	return Form{
		Name:   "test",
		URL:    "https://forms.example.gov/complaint",
		Title:  "Complaint",
		Submit: "#submit",
		Steps: func(r models.Report) ([]Step, error) {
			return []Step{fill("#desc", r.Description), click("#next"), shot("filled")}, nil
		},
	}
}

func TestIsXPath(t *testing.T) {
	assert.True(t, IsXPath("//*[@id='x']"))
	assert.True(t, IsXPath("(//input)[2]"))
	assert.False(t, IsXPath("#x"))
	assert.False(t, IsXPath("[name='c_county']"))
}

func TestCaliforniaComplaintType(t *testing.T) {
	r := report()
	assert.Equal(t, "air", CaliforniaComplaintType(r))

	r.ReportTypes = []string{"Landfills"}
	assert.Equal(t, "waste", CaliforniaComplaintType(r))

	r = report()
	r.Senses[models.SenseTouch] = true
	assert.Equal(t, "waste", CaliforniaComplaintType(r))

	r.Senses[models.SenseTaste] = true
	assert.Equal(t, "water", CaliforniaComplaintType(r))
}

func TestOhioCategory(t *testing.T) {
	tests := []struct {
		name   string
		senses []models.Sense
		types  []string
		want   int
	}{
		{"taste wins", []models.Sense{models.SenseTaste, models.SenseSmell}, nil, 3},
		{"smell", []models.Sense{models.SenseSmell}, nil, 1},
		{"sound", []models.Sense{models.SenseSound}, []string{"Pits"}, 4},
		{"compressors", nil, []string{"Compressors"}, 1},
		{"refineries", nil, []string{"Refineries"}, 1},
		{"mines", nil, []string{"Mines"}, 2},
		{"fallback", []models.Sense{models.SenseSight}, []string{"Wells"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := report()
			for _, s := range tt.senses {
				r.Senses[s] = true
			}
			r.ReportTypes = tt.types
			assert.Equal(t, tt.want, OhioCategory(r))
		})
	}
}

func TestObservedTime(t *testing.T) {
	tests := []struct {
		at         time.Time
		clock, day string
	}{
		{time.Date(2024, 3, 2, 13, 52, 0, 0, time.UTC), "1:45", "pm"},
		{time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC), "12:00", "am"},
		{time.Date(2024, 3, 2, 11, 53, 0, 0, time.UTC), "12:00", "pm"},
		{time.Date(2024, 3, 2, 9, 38, 0, 0, time.UTC), "9:45", "am"},
	}
	for _, tt := range tests {
		clock, day := observedTime(tt.at)
		assert.Equal(t, tt.clock, clock)
		assert.Equal(t, tt.day, day)
	}
}

func TestEveryFormBuildsSteps(t *testing.T) {
	for name, form := range Forms {
		t.Run(name, func(t *testing.T) {
			steps, err := form.Steps(report())
			require.NoError(t, err)
			assert.NotEmpty(t, steps)
			assert.NotEmpty(t, form.Submit)
			assert.Equal(t, name, form.Name)
		})
	}
}

func TestFormsRequireCounty(t *testing.T) {
	r := report()
	r.Location.County = nil
	for _, name := range []string{"new_mexico", "pennsylvania", "texas", "west_virginia"} {
		_, err := Forms[name].Steps(r)
		assert.Error(t, err, name)
	}
}

func TestPennsylvaniaTownshipCandidates(t *testing.T) {
	steps, err := Forms["pennsylvania"].Steps(report())
	require.NoError(t, err)
	var township *Step
	for i := range steps {
		if steps[i].Selector == "#locationProblem" {
			township = &steps[i]
		}
	}
	require.NotNil(t, township)
	assert.Contains(t, township.Values, "Amwell Township")
}

func TestOhioLimitsPhotos(t *testing.T) {
	r := report()
	r.ImageURLs = []string{"a", "b", "c", "d"}
	steps, err := Forms["ohio"].Steps(r)
	require.NoError(t, err)
	last := steps[len(steps)-1]
	assert.Equal(t, Upload, last.Action)
	assert.Len(t, last.Values, maxOhioPhotos)
}

func TestSubmitterDryRunDoesNotSubmit(t *testing.T) {
	page := &fakePage{title: "Environmental Complaint Form", present: map[string]bool{"#submit": true}}
	browser := &fakeBrowser{page: page}
	dir := t.TempDir()
	s := &Submitter{Browser: browser, ScreenshotDir: dir, Logger: zerolog.Nop()}

	require.NoError(t, s.Submit(context.Background(), testForm(), report()))

	assert.Equal(t, []string{"fill #desc", "click #next"}, page.actions)
	assert.True(t, page.closed)
	assert.FileExists(t, filepath.Join(dir, "test_r42_filled.png"))
}

func TestSubmitterLiveConfirmsSubmitGone(t *testing.T) {
	page := &fakePage{title: "Complaint", present: map[string]bool{"#submit": true}}
	s := &Submitter{Browser: &fakeBrowser{page: page}, Live: true, Logger: zerolog.Nop()}

	require.NoError(t, s.Submit(context.Background(), testForm(), report()))
	assert.Contains(t, page.actions, "click #submit")
}

func TestSubmitterLiveFailsWithoutConfirmationText(t *testing.T) {
	form := testForm()
	form.Confirm = "#confirm"
	form.Confirmation = Confirmation{Kind: BodyContains, Text: "Your notification has been received."}
	page := &fakePage{title: "Complaint", html: "<p>Something went wrong</p>"}
	s := &Submitter{Browser: &fakeBrowser{page: page}, Live: true, Logger: zerolog.Nop()}

	err := s.Submit(context.Background(), form, report())
	require.Error(t, err)
	assert.Contains(t, page.actions, "click #confirm")

	page.html = "<p>Your notification has been received.</p>"
	assert.NoError(t, s.Submit(context.Background(), form, report()))
}

func TestSubmitterLiveFailsWhenSubmitRemains(t *testing.T) {
	page := &fakePage{title: "Complaint", present: map[string]bool{"#submit": true}, sticky: true}
	s := &Submitter{Browser: &fakeBrowser{page: page}, Live: true, Logger: zerolog.Nop()}

	err := s.Submit(context.Background(), testForm(), report())
	assert.ErrorContains(t, err, "still present")
}

func TestSubmitterConfirmationChecks(t *testing.T) {
	form := testForm()
	form.Confirmation = Confirmation{Kind: ClassLacks, Selector: "#screenContentPage", Text: "hide"}

	page := &fakePage{title: "Complaint", class: "screen hide"}
	s := &Submitter{Browser: &fakeBrowser{page: page}, Live: true, Logger: zerolog.Nop()}
	assert.Error(t, s.Submit(context.Background(), form, report()))

	page = &fakePage{title: "Complaint", class: "screen"}
	s.Browser = &fakeBrowser{page: page}
	assert.NoError(t, s.Submit(context.Background(), form, report()))
}

func TestSubmitterRejectsUnexpectedPage(t *testing.T) {
	page := &fakePage{title: "Maintenance"}
	s := &Submitter{Browser: &fakeBrowser{page: page}, Logger: zerolog.Nop()}

	err := s.Submit(context.Background(), testForm(), report())
	assert.ErrorContains(t, err, "unexpected page")
	assert.Empty(t, page.actions)
}

func TestSubmitterStopsOnStepFailure(t *testing.T) {
	page := &fakePage{title: "Complaint", failOn: "#desc"}
	s := &Submitter{Browser: &fakeBrowser{page: page}, Live: true, Logger: zerolog.Nop()}

	err := s.Submit(context.Background(), testForm(), report())
	assert.Error(t, err)
	assert.Equal(t, []string{"fill #desc"}, page.actions)
	assert.True(t, page.closed)
}

func TestSubmitterUploadsPhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img" + r.URL.Path))
	}))
	defer srv.Close()

	form := testForm()
	form.Steps = func(models.Report) ([]Step, error) {
		return []Step{upload("#photos", []string{srv.URL + "/1", srv.URL + "/2"})}, nil
	}
	page := &fakePage{title: "Complaint"}
	s := &Submitter{Browser: &fakeBrowser{page: page}, HTTPClient: srv.Client(), Logger: zerolog.Nop()}

	require.NoError(t, s.Submit(context.Background(), form, report()))
	assert.Equal(t, []string{"img/1", "img/2"}, page.files)
}

func TestNewHandler(t *testing.T) {
	h, err := NewHandler("texas", &Submitter{})
	require.NoError(t, err)
	assert.Equal(t, "texas", h.Form.Name)

	_, err = NewHandler("wyoming", &Submitter{})
	assert.Error(t, err)
}
