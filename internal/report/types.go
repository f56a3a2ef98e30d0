package report

import (
	"fmt"
	"strconv"
	"time"
)

// ReportType identifies one of the supported tabular report domains.
type ReportType string

const (
	TypeIncidents   ReportType = "incidents"
	TypeInspections ReportType = "inspections"
	TypeActions     ReportType = "actions"
)

// ParseReportType validates a report type string from a request path.
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case TypeIncidents, TypeInspections, TypeActions:
		return ReportType(s), nil
	}
	return "", fmt.Errorf("unknown report type: %q", s)
}

// Format identifies the requested export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat validates a format string from a request.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported format: %q", s)
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// CellKind discriminates the scalar value held by a Cell.
type CellKind int

const (
	CellNull CellKind = iota
	CellString
	CellNumber
	CellTime
)

// Cell is a single scalar value in a row. Exactly one of the value
// fields is meaningful, selected by Kind.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Time time.Time
}

// Null returns the empty cell.
func Null() Cell { return Cell{Kind: CellNull} }

// String returns a string-valued cell.
func String(s string) Cell { return Cell{Kind: CellString, Str: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// Timestamp returns a timestamp-valued cell.
func Timestamp(t time.Time) Cell { return Cell{Kind: CellTime, Time: t} }

// Format renders the cell's string form. Timestamps render as full
// ISO-8601 unless dateOnly is set, in which case YYYY-MM-DD is used.
// Null cells render as the empty string.
func (c Cell) Format(dateOnly bool) string {
	switch c.Kind {
	case CellNull:
		return ""
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellTime:
		if dateOnly {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format(time.RFC3339)
	}
	return ""
}

// Row is an ordered sequence of cells, positionally aligned with the
// report's column specs. Columns are never reordered after layout begins.
type Row []Cell

// ColumnSpec describes one column of a report table.
type ColumnSpec struct {
	Header     string
	WidthRatio float64 // fraction of usable page width; all ratios for a report sum to 1.0
	DateOnly   bool    // render timestamp cells in this column as YYYY-MM-DD
}

// Filter is one active filter rendered in the PDF filter band.
// Filters are ordered; the order is preserved in output.
type Filter struct {
	Name  string
	Value string
}

// DateRange holds an optional date-range filter. Either bound may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.Start == nil && r.End == nil }

// LabelCount is one line of a summary breakdown.
type LabelCount struct {
	Label string
	Count int
}

// SummaryStats carries per-report-type summary statistics computed by the
// caller's data layer. The pipeline renders these opaquely; only the final
// "Total Records" line is derived from the row slice itself. Per-category
// counts may legitimately not sum to the row count (e.g. a row with no
// assigned severity).
type SummaryStats struct {
	ByStatus   []LabelCount // incidents, actions
	BySeverity []LabelCount // incidents
	Total      int          // inspections
	Passed     int          // inspections
	Failed     int          // inspections
}

// Organisation identifies the org a report is generated for.
type Organisation struct {
	Name     string
	Slug     string
	LogoPath string // optional; resolved against the assets directory
	Timezone string // IANA zone name for header timestamps
}

// Location resolves the organisation's timezone, falling back to UTC when
// the zone name is absent or unknown.
func (o Organisation) Location() *time.Location {
	if o.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
