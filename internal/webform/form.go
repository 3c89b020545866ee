package webform

import (
	"strings"

	"github.com/fractracker/complaints/internal/models"
)

type Action string

const (
	Fill        Action = "fill"
	Click       Action = "click"
	SelectText  Action = "select_text"
	SelectValue Action = "select_value"
	Upload      Action = "upload"
	Screenshot  Action = "screenshot"
	EnterFrame  Action = "frame"
)

// Step is one browser interaction. Selectors beginning with "/" or "(" are
// XPath expressions, everything else is CSS.
type Step struct {
	Action   Action
	Selector string
	Value    string
	// Values holds the candidate option values for SelectValue, tried in
	// order, and the image URLs for Upload.
	Values []string
}

// ConfirmationKind describes how a successful submission is recognised.
type ConfirmationKind int

const (
	// SubmitGone expects the submit control to disappear.
	SubmitGone ConfirmationKind = iota
	// BodyContains expects Text to appear in the page HTML.
	BodyContains
	// ClassLacks expects the element at Selector to lose the class Text.
	ClassLacks
)

type Confirmation struct {
	Kind     ConfirmationKind
	Selector string
	Text     string
}

// Form is a declarative description of one agency's complaint form.
type Form struct {
	Name  string
	URL   string
	Title string
	// Steps produces the fill-in sequence for a report.
	Steps func(models.Report) ([]Step, error)
	// Submit is clicked only in live environments.
	Submit string
	// Confirm is an optional second click after Submit.
	Confirm      string
	Confirmation Confirmation
}

// IsXPath reports whether a selector should be resolved as XPath.
func IsXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

func fill(sel, value string) Step  { return Step{Action: Fill, Selector: sel, Value: value} }
func click(sel string) Step        { return Step{Action: Click, Selector: sel} }
func byText(sel, text string) Step { return Step{Action: SelectText, Selector: sel, Value: text} }
func byValue(sel string, vs ...string) Step {
	return Step{Action: SelectValue, Selector: sel, Values: vs}
}
func upload(sel string, urls []string) Step { return Step{Action: Upload, Selector: sel, Values: urls} }
func frame(sel string) Step                 { return Step{Action: EnterFrame, Selector: sel} }
func shot(name string) Step                 { return Step{Action: Screenshot, Value: name} }
