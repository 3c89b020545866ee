package webform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// RodBrowser drives headless Chrome through the DevTools protocol. The
// browser process is launched on first use and shared by every page.
type RodBrowser struct {
	Bin         string
	Headless    bool
	PageTimeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

func NewRodBrowser(bin string, headless bool, pageTimeout time.Duration) *RodBrowser {
	return &RodBrowser{Bin: bin, Headless: headless, PageTimeout: pageTimeout}
}

func (b *RodBrowser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return b.browser, nil
		}
		_ = b.browser.Close()
		b.browser = nil
	}

	launch := launcher.New().
		Headless(b.Headless).
		NoSandbox(true).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("hide-scrollbars")).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	if b.Bin != "" {
		launch = launch.Bin(b.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	b.browser = browser
	return browser, nil
}

func (b *RodBrowser) Open(ctx context.Context, url string) (Page, error) {
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Context(ctx)

	timeout := b.PageTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if err := page.Timeout(timeout).Navigate(url); err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	return &rodPage{context: incognito, root: page, scope: page, timeout: timeout}, nil
}

func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

// rodPage owns its incognito browser context; closing the page disposes it.
type rodPage struct {
	context *rod.Browser
	root    *rod.Page
	scope   *rod.Page
	timeout time.Duration
}

func (p *rodPage) element(selector string) (*rod.Element, error) {
	page := p.scope.Timeout(p.timeout)
	var (
		el  *rod.Element
		err error
	)
	if IsXPath(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	return el.CancelTimeout(), nil
}

func (p *rodPage) Title() (string, error) {
	info, err := p.root.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *rodPage) Fill(selector, value string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return el.Blur()
}

func (p *rodPage) Click(selector string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) SelectText(selector, text string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	if err := el.Select([]string{text}, true, rod.SelectorTypeText); err != nil {
		return fmt.Errorf("select %q in %s: %w", text, selector, err)
	}
	return nil
}

func (p *rodPage) SelectValue(selector string, candidates []string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	for _, v := range candidates {
		css := fmt.Sprintf(`option[value="%s"]`, strings.ReplaceAll(v, `"`, `\"`))
		has, _, err := el.Has(css)
		if err != nil {
			return fmt.Errorf("options of %s: %w", selector, err)
		}
		if !has {
			continue
		}
		if err := el.Select([]string{css}, true, rod.SelectorTypeCSSSector); err != nil {
			return fmt.Errorf("select %q in %s: %w", v, selector, err)
		}
		return nil
	}
	return fmt.Errorf("no option of %s matches %q", selector, candidates)
}

func (p *rodPage) SetFiles(selector string, paths []string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	return el.SetFiles(paths)
}

func (p *rodPage) EnterFrame(selector string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	frame, err := el.Frame()
	if err != nil {
		return fmt.Errorf("enter frame %s: %w", selector, err)
	}
	p.scope = frame
	return nil
}

func (p *rodPage) Has(selector string) (bool, error) {
	var (
		has bool
		err error
	)
	if IsXPath(selector) {
		has, _, err = p.scope.HasX(selector)
	} else {
		has, _, err = p.scope.Has(selector)
	}
	return has, err
}

func (p *rodPage) Attribute(selector, name string) (string, error) {
	el, err := p.element(selector)
	if err != nil {
		return "", err
	}
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (p *rodPage) HTML() (string, error) {
	return p.scope.HTML()
}

func (p *rodPage) Screenshot() ([]byte, error) {
	return p.root.Screenshot(true, nil)
}

func (p *rodPage) Close() error {
	err := p.root.Close()
	if cerr := p.context.Close(); err == nil {
		err = cerr
	}
	return err
}
