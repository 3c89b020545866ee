package webform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/models"
)

// Submitter fills a form for a report and, in live environments, submits it
// and checks the confirmation page.
type Submitter struct {
	Browser       Browser
	Live          bool
	ScreenshotDir string
	ConfirmWait   time.Duration
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

func (s *Submitter) Submit(ctx context.Context, form Form, report models.Report) error {
	steps, err := form.Steps(report)
	if err != nil {
		return fmt.Errorf("%s form: %w", form.Name, err)
	}

	page, err := s.Browser.Open(ctx, form.URL)
	if err != nil {
		return err
	}
	defer page.Close()

	title, err := page.Title()
	if err != nil {
		return fmt.Errorf("read page title: %w", err)
	}
	if !strings.Contains(title, form.Title) {
		return fmt.Errorf("unexpected page %q for %s form", title, form.Name)
	}

	prefix := fmt.Sprintf("%s_%s", form.Name, report.ID)
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.run(ctx, page, prefix, step); err != nil {
			return err
		}
	}

	if !s.Live {
		s.Logger.Info().Str("form", form.Name).Str("report_id", report.ID).Msg("form filled, submission skipped outside live environments")
		return nil
	}

	s.screenshot(page, prefix, "pre_submission")
	if err := page.Click(form.Submit); err != nil {
		return err
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	if form.Confirm != "" {
		s.screenshot(page, prefix, "confirmation")
		if err := page.Click(form.Confirm); err != nil {
			return err
		}
		if err := s.wait(ctx); err != nil {
			return err
		}
	}
	s.screenshot(page, prefix, "post_submission")

	if err := confirm(page, form); err != nil {
		return fmt.Errorf("failed to submit %s form for report %s: %w", form.Name, report.ID, err)
	}
	s.Logger.Info().Str("form", form.Name).Str("report_id", report.ID).Msg("form submitted")
	return nil
}

func (s *Submitter) run(ctx context.Context, page Page, prefix string, step Step) error {
	switch step.Action {
	case Fill:
		return page.Fill(step.Selector, step.Value)
	case Click:
		return page.Click(step.Selector)
	case SelectText:
		return page.SelectText(step.Selector, step.Value)
	case SelectValue:
		return page.SelectValue(step.Selector, step.Values)
	case EnterFrame:
		return page.EnterFrame(step.Selector)
	case Screenshot:
		s.screenshot(page, prefix, step.Value)
		return nil
	case Upload:
		return s.upload(ctx, page, step)
	default:
		return fmt.Errorf("unknown form action %q", step.Action)
	}
}

// upload downloads the images into a scratch directory and hands the files
// to the input element.
func (s *Submitter) upload(ctx context.Context, page Page, step Step) error {
	dir, err := os.MkdirTemp("", "complaint-photos-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	paths := make([]string, 0, len(step.Values))
	for i, u := range step.Values {
		path := filepath.Join(dir, fmt.Sprintf("photo_%d.jpg", i+1))
		if err := download(ctx, client, u, path); err != nil {
			return err
		}
		paths = append(paths, path)
	}
	if err := page.SetFiles(step.Selector, paths); err != nil {
		return fmt.Errorf("upload photos: %w", err)
	}
	return s.wait(ctx)
}

func download(ctx context.Context, client *http.Client, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to retrieve FracTracker photo from %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to retrieve FracTracker photo from %q: status %d", url, resp.StatusCode)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Submitter) wait(ctx context.Context) error {
	if s.ConfirmWait <= 0 {
		return nil
	}
	t := time.NewTimer(s.ConfirmWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// screenshot failures are logged only; they never fail a submission.
func (s *Submitter) screenshot(page Page, prefix, name string) {
	if s.ScreenshotDir == "" {
		return
	}
	data, err := page.Screenshot()
	if err == nil {
		err = os.MkdirAll(s.ScreenshotDir, 0o755)
	}
	if err == nil {
		err = os.WriteFile(filepath.Join(s.ScreenshotDir, fmt.Sprintf("%s_%s.png", prefix, name)), data, 0o644)
	}
	if err != nil {
		s.Logger.Warn().Err(err).Str("screenshot", prefix+"_"+name).Msg("screenshot failed")
	}
}

func confirm(page Page, form Form) error {
	switch form.Confirmation.Kind {
	case BodyContains:
		html, err := page.HTML()
		if err != nil {
			return err
		}
		if !strings.Contains(html, form.Confirmation.Text) {
			return fmt.Errorf("confirmation text %q not found", form.Confirmation.Text)
		}
	case ClassLacks:
		class, err := page.Attribute(form.Confirmation.Selector, "class")
		if err != nil {
			return err
		}
		for _, c := range strings.Fields(class) {
			if c == form.Confirmation.Text {
				return fmt.Errorf("%s still has class %q", form.Confirmation.Selector, c)
			}
		}
	default:
		still, err := page.Has(form.Submit)
		if err != nil {
			return err
		}
		if still {
			return fmt.Errorf("submit control %s is still present", form.Submit)
		}
	}
	return nil
}

// Handler submits one agency's form. It satisfies agency.Handler.
type Handler struct {
	Form      Form
	Submitter *Submitter
}

func NewHandler(jurisdiction string, s *Submitter) (*Handler, error) {
	form, ok := Forms[jurisdiction]
	if !ok {
		return nil, fmt.Errorf("no web form defined for %s", jurisdiction)
	}
	return &Handler{Form: form, Submitter: s}, nil
}

func (h *Handler) Submit(ctx context.Context, report models.Report) error {
	return h.Submitter.Submit(ctx, h.Form, report)
}
