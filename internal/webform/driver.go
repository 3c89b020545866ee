package webform

import "context"

// Browser opens pages for form submission.
type Browser interface {
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is the subset of browser interaction the forms need. Selectors follow
// the rules of IsXPath.
type Page interface {
	Title() (string, error)
	Fill(selector, value string) error
	Click(selector string) error
	SelectText(selector, text string) error
	// SelectValue selects the first candidate value the element offers.
	SelectValue(selector string, candidates []string) error
	SetFiles(selector string, paths []string) error
	// EnterFrame scopes later lookups to the iframe at selector.
	EnterFrame(selector string) error
	Has(selector string) (bool, error)
	Attribute(selector, name string) (string, error)
	HTML() (string, error)
	Screenshot() ([]byte, error)
	Close() error
}
