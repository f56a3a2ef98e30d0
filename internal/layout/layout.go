package layout

import (
	"time"

	"reportexport/internal/report"
)

// Geometry fixes the page dimensions and band heights used by the
// engine, in points. All values are independent of content.
type Geometry struct {
	PageWidth          float64
	PageHeight         float64
	Margin             float64
	HeaderBandHeight   float64
	FilterBandHeight   float64
	TableHeaderHeight  float64
	RowHeight          float64
	FooterHeight       float64
	SummaryTitleHeight float64
	SummaryLineHeight  float64

	// NearEndRows is the lookahead count: once this few rows remain,
	// the page-break threshold tightens by the summary height so the
	// summary band is not orphaned when avoidable.
	NearEndRows int
}

// DefaultGeometry returns the A4 portrait geometry used in production.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:          595.28,
		PageHeight:         841.89,
		Margin:             36,
		HeaderBandHeight:   64,
		FilterBandHeight:   46,
		TableHeaderHeight:  20,
		RowHeight:          16,
		FooterHeight:       28,
		SummaryTitleHeight: 20,
		SummaryLineHeight:  14,
		NearEndRows:        3,
	}
}

// contentWidth is the usable horizontal space inside the margins.
func (g Geometry) contentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// tableHeight is the vertical space available to table rows on a page.
// The filter band appears on the first page only.
func (g Geometry) tableHeight(firstPage bool) float64 {
	h := g.PageHeight - 2*g.Margin - g.HeaderBandHeight - g.TableHeaderHeight - g.FooterHeight
	if firstPage {
		h -= g.FilterBandHeight
	}
	return h
}

// Spec is the full input to a layout run: everything needed to place and
// later draw one report document.
type Spec struct {
	Type        report.ReportType
	Org         report.Organisation
	Columns     []report.ColumnSpec
	Rows        []report.Row
	Filters     []report.Filter
	DateRange   report.DateRange
	Summary     report.SummaryStats
	GeneratedAt time.Time
}

// SummaryLine is one rendered line of the summary band.
type SummaryLine struct {
	Text   string
	Bold   bool
	Indent bool
}

// Page is one laid-out page. Pages are append-only: the engine emits the
// sequence once and the renderer consumes it once.
type Page struct {
	// Index is 1-based, assigned after the full sequence is known.
	Index int

	// ShowFilterBand is set on the first page only.
	ShowFilterBand bool

	// Rows are the table rows placed on this page. May be empty on a
	// trailing summary-only page or a zero-row report.
	Rows []report.Row

	// Summary holds the summary band lines on the terminating page,
	// nil elsewhere.
	Summary []SummaryLine
}

// Engine lays out report pages against a fixed geometry. It holds no
// mutable state; independent layouts may run fully in parallel.
type Engine struct {
	geom Geometry
}

// NewEngine creates an engine with the given geometry.
func NewEngine(geom Geometry) *Engine {
	return &Engine{geom: geom}
}

// Geometry returns the engine's page geometry.
func (e *Engine) Geometry() Geometry {
	return e.geom
}

// Layout computes the page sequence for a report. Every input row lands
// on exactly one page, in order. A zero-row input still produces one
// page carrying the header, filter and summary bands.
func (e *Engine) Layout(spec Spec) []Page {
	g := e.geom
	summary := summaryLines(spec)
	summaryHeight := g.SummaryTitleHeight + float64(len(summary))*g.SummaryLineHeight

	pages := []Page{{ShowFilterBand: true}}
	cur := &pages[len(pages)-1]
	used := 0.0
	avail := g.tableHeight(true)

	for i := range spec.Rows {
		threshold := avail
		if len(spec.Rows)-i <= g.NearEndRows {
			// Near the end of the data: reserve room for the summary so
			// the last rows do not fill the page and push the summary
			// onto an otherwise-avoidable trailing page.
			threshold = avail - summaryHeight
		}
		if used+g.RowHeight > threshold && len(cur.Rows) > 0 {
			pages = append(pages, Page{})
			cur = &pages[len(pages)-1]
			used = 0
			avail = g.tableHeight(false)
		}
		cur.Rows = append(cur.Rows, spec.Rows[i])
		used += g.RowHeight
	}

	if used+summaryHeight > avail {
		pages = append(pages, Page{Summary: summary})
	} else {
		cur.Summary = summary
	}

	for i := range pages {
		pages[i].Index = i + 1
	}
	return pages
}

// columnWidths converts width ratios to point widths against the content
// width. A ratio set that does not sum to 1.0 (within tolerance) falls
// back to an equal split; a malformed set is never partially honored.
func columnWidths(g Geometry, columns []report.ColumnSpec) []float64 {
	widths := make([]float64, len(columns))
	if len(columns) == 0 {
		return widths
	}

	sum := 0.0
	for _, c := range columns {
		sum += c.WidthRatio
	}
	if sum < 0.999 || sum > 1.001 {
		equal := g.contentWidth() / float64(len(columns))
		for i := range widths {
			widths[i] = equal
		}
		return widths
	}

	for i, c := range columns {
		widths[i] = c.WidthRatio * g.contentWidth()
	}
	return widths
}
