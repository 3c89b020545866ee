package email

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fractracker/complaints/internal/models"
)

// Compose renders the plain-text complaint addressed to an agency.
func Compose(report models.Report, agency string) (string, error) {
	date, err := report.ParsedDate()
	if err != nil {
		return "", err
	}
	formattedDate := fmt.Sprintf("%s %s", date.Month(), Ordinal(date.Day()))

	var intro, closing string
	if name := report.FullName(); name != "" {
		intro = fmt.Sprintf("Hi, my name is %s. ", name)
		closing = fmt.Sprintf("\n\nSincerely,\n%s", name)
	}

	var county string
	if report.Location != nil && report.Location.CountyName() != "" {
		county = " in " + report.Location.CountyName()
	}

	var images string
	if len(report.ImageURLs) > 0 {
		images = "find supporting images attached and "
	}

	description := "."
	if report.Description != "" {
		description = fmt.Sprintf(`. In the app, I included the following description: "%s".`, report.Description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To the %s:\n\n%s", agency, intro)
	fmt.Fprintf(&b, "On %s, I reported an environmental complaint using the FracTracker mobile app "+
		"and agreed that it be forwarded to your agency. ", formattedDate)
	fmt.Fprintf(&b, "The incident I witnessed occurred at roughly %.4f degrees latitude and %.4f degrees longitude%s%s",
		report.Lat, report.Lon, county, description)
	fmt.Fprintf(&b, " Please %scontact me directly at %s to follow up with next steps. Thank you, and have a great day!%s",
		images, report.Email, closing)
	return b.String(), nil
}

// Ordinal appends the English ordinal suffix: 1st, 2nd, 3rd, 11th, 212th.
func Ordinal(n int) string {
	s := strconv.Itoa(n)
	switch n % 100 {
	case 11, 12, 13:
		return s + "th"
	}
	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	}
	return s + "th"
}
