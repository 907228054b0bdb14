package app

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contentgrid/internal/model"
)

// FormatError renders err as user-facing lines. Joined errors become one
// line each; errors tied to a manifest position are prefixed with it as
// "file(line,col): ".
func FormatError(err error) []string {
	if err == nil {
		return nil
	}
	var lines []string
	for _, e := range flatten(err) {
		lines = append(lines, formatOne(e)...)
	}
	return lines
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func formatOne(err error) []string {
	if diags, ok := err.(hcl.Diagnostics); ok {
		lines := make([]string, 0, len(diags))
		for _, d := range diags {
			lines = append(lines, formatDiagnostic(d))
		}
		return lines
	}

	if loc, ok := model.LocationFromError(err); ok {
		return []string{fmt.Sprintf("%s: %s", loc, err)}
	}
	return []string{err.Error()}
}

func formatDiagnostic(d *hcl.Diagnostic) string {
	msg := d.Summary
	if d.Detail != "" {
		msg += "; " + strings.TrimSuffix(d.Detail, ".")
	}
	if d.Subject == nil {
		return msg
	}
	return fmt.Sprintf("%s: %s", model.LocationOf(*d.Subject), msg)
}
