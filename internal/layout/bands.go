package layout

import (
	"fmt"
	"strings"
	"unicode"

	"reportexport/internal/report"
)

// BuildDateRangeString renders the date-range filter for the filter
// band. The four phrasings are a user-facing contract and must not be
// reworded.
func BuildDateRangeString(rng report.DateRange) string {
	const day = "2006-01-02"
	switch {
	case rng.Start != nil && rng.End != nil:
		return fmt.Sprintf("Date range: %s to %s", rng.Start.Format(day), rng.End.Format(day))
	case rng.Start != nil:
		return fmt.Sprintf("Date range: %s onwards", rng.Start.Format(day))
	case rng.End != nil:
		return fmt.Sprintf("Date range: up to %s", rng.End.Format(day))
	default:
		return "Date range: All"
	}
}

// filterLines renders the filter band content: the date range first,
// then each active filter in input order.
func filterLines(spec Spec) []string {
	lines := []string{BuildDateRangeString(spec.DateRange)}
	for _, f := range spec.Filters {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Name, f.Value))
	}
	return lines
}

// summaryLines builds the summary band for a report. The shape varies by
// report type; every variant terminates with a bold "Total Records" line
// derived from the row slice itself, never from the supplied counts.
func summaryLines(spec Spec) []SummaryLine {
	var lines []SummaryLine

	switch spec.Type {
	case report.TypeIncidents:
		lines = append(lines, SummaryLine{Text: "By Status", Bold: true})
		for _, lc := range spec.Summary.ByStatus {
			lines = append(lines, SummaryLine{Text: fmt.Sprintf("%s: %d", lc.Label, lc.Count), Indent: true})
		}
		lines = append(lines, SummaryLine{Text: "By Severity", Bold: true})
		for _, lc := range spec.Summary.BySeverity {
			lines = append(lines, SummaryLine{Text: fmt.Sprintf("%s: %d", lc.Label, lc.Count), Indent: true})
		}
	case report.TypeInspections:
		lines = append(lines,
			SummaryLine{Text: fmt.Sprintf("Total Inspections: %d", spec.Summary.Total)},
			SummaryLine{Text: fmt.Sprintf("Passed: %d", spec.Summary.Passed)},
			SummaryLine{Text: fmt.Sprintf("Failed: %d", spec.Summary.Failed)},
		)
	case report.TypeActions:
		lines = append(lines, SummaryLine{Text: "By Status", Bold: true})
		for _, lc := range spec.Summary.ByStatus {
			lines = append(lines, SummaryLine{Text: fmt.Sprintf("%s: %d", lc.Label, lc.Count), Indent: true})
		}
	}

	lines = append(lines, SummaryLine{Text: fmt.Sprintf("Total Records: %d", len(spec.Rows)), Bold: true})
	return lines
}

// initials derives a two-to-three-letter badge from the organisation
// name, used when no logo can be loaded.
func initials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	var b strings.Builder
	for _, w := range words {
		b.WriteRune(unicode.ToUpper([]rune(w)[0]))
		if b.Len() >= 3 {
			break
		}
	}
	if b.Len() >= 2 {
		return b.String()
	}

	// Single short word: take its first two letters.
	runes := []rune(strings.Join(words, ""))
	if len(runes) >= 2 {
		return strings.ToUpper(string(runes[:2]))
	}
	if len(runes) == 1 {
		return strings.ToUpper(string(runes))
	}
	return "?"
}
