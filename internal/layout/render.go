package layout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"reportexport/internal/report"
)

// Renderer draws buffered page sequences into PDF documents.
type Renderer struct {
	geom      Geometry
	assetsDir string
	logger    *slog.Logger
}

// NewRenderer creates a renderer. assetsDir is the base directory for
// resolving relative organisation logo paths.
func NewRenderer(geom Geometry, assetsDir string, logger *slog.Logger) *Renderer {
	return &Renderer{
		geom:      geom,
		assetsDir: assetsDir,
		logger:    logger.With(slog.String("component", "pdf_renderer")),
	}
}

// Render draws the laid-out pages and returns the finished PDF bytes.
// The page sequence is consumed once; the total page count is already
// known, so each footer carries its final "Page i of N" stamp.
func (r *Renderer) Render(spec Spec, pages []Page) ([]byte, error) {
	g := r.geom
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetTitle(report.Title(spec.Type), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(g.Margin, g.Margin, g.Margin)

	widths := columnWidths(g, spec.Columns)
	total := len(pages)

	for _, page := range pages {
		pdf.AddPage()
		y := g.Margin

		r.drawHeaderBand(pdf, spec, y)
		y += g.HeaderBandHeight

		if page.ShowFilterBand {
			r.drawFilterBand(pdf, spec, y)
			y += g.FilterBandHeight
		}

		// The table header repeats on every page that carries rows, and
		// is also drawn on a zero-row first page so the empty table is
		// visibly a table.
		if len(page.Rows) > 0 || page.ShowFilterBand {
			r.drawTableHeader(pdf, spec.Columns, widths, y)
			y += g.TableHeaderHeight
		}

		for _, row := range page.Rows {
			r.drawRow(pdf, spec.Columns, widths, row, y)
			y += g.RowHeight
		}

		if page.Summary != nil {
			r.drawSummary(pdf, page.Summary, y)
		}

		r.drawFooter(pdf, page.Index, total)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeaderBand(pdf *fpdf.Fpdf, spec Spec, y float64) {
	g := r.geom

	const logoSize = 36.0
	if path, imgType, ok := r.resolveLogo(spec.Org); ok {
		pdf.ImageOptions(path, g.Margin, y, logoSize, logoSize, false,
			fpdf.ImageOptions{ImageType: imgType, ReadDpi: true}, 0, "")
	} else {
		r.drawInitialsBadge(pdf, spec.Org, g.Margin, y, logoSize)
	}

	textX := g.Margin + logoSize + 12
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(textX, y+4)
	pdf.CellFormat(0, 18, report.Title(spec.Type), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(textX, y+24)
	pdf.CellFormat(0, 12, spec.Org.Name, "", 0, "L", false, 0, "")

	generated := spec.GeneratedAt.In(spec.Org.Location()).Format("02 Jan 2006 15:04 MST")
	pdf.SetXY(textX, y+38)
	pdf.CellFormat(0, 12, "Generated: "+generated, "", 0, "L", false, 0, "")

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(g.Margin, y+g.HeaderBandHeight-6, g.PageWidth-g.Margin, y+g.HeaderBandHeight-6)
}

// resolveLogo checks that the organisation's logo file exists and decodes
// as a supported image before handing it to fpdf. Any failure falls back
// to the initials badge: a report with a plain badge beats no report.
func (r *Renderer) resolveLogo(org report.Organisation) (path, imgType string, ok bool) {
	if org.LogoPath == "" {
		return "", "", false
	}
	path = org.LogoPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.assetsDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		r.logger.Debug("logo not readable, using initials badge",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return "", "", false
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil || (format != "png" && format != "jpeg") {
		r.logger.Debug("logo not decodable, using initials badge",
			slog.String("path", path))
		return "", "", false
	}
	if format == "jpeg" {
		format = "jpg"
	}
	return path, format, true
}

func (r *Renderer) drawInitialsBadge(pdf *fpdf.Fpdf, org report.Organisation, x, y, size float64) {
	radius := size / 2
	pdf.SetFillColor(52, 73, 94)
	pdf.Circle(x+radius, y+radius, radius, "F")

	badge := initials(org.Name)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(255, 255, 255)
	w := pdf.GetStringWidth(badge)
	pdf.Text(x+radius-w/2, y+radius+4.5, badge)
}

func (r *Renderer) drawFilterBand(pdf *fpdf.Fpdf, spec Spec, y float64) {
	g := r.geom
	lines := filterLines(spec)

	pdf.SetFillColor(245, 246, 248)
	pdf.Rect(g.Margin, y, g.contentWidth(), g.FilterBandHeight-8, "F")

	// Fixed three-column grid, filling left to right.
	const cols = 3
	cellW := g.contentWidth() / cols
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(70, 70, 70)
	for i, line := range lines {
		col := i % cols
		rowIdx := i / cols
		pdf.SetXY(g.Margin+float64(col)*cellW+6, y+6+float64(rowIdx)*12)
		pdf.CellFormat(cellW-12, 10, line, "", 0, "L", false, 0, "")
	}
}

func (r *Renderer) drawTableHeader(pdf *fpdf.Fpdf, columns []report.ColumnSpec, widths []float64, y float64) {
	g := r.geom
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(g.Margin, y)
	for i, col := range columns {
		pdf.CellFormat(widths[i], g.TableHeaderHeight-2, col.Header, "1", 0, "L", true, 0, "")
	}
}

func (r *Renderer) drawRow(pdf *fpdf.Fpdf, columns []report.ColumnSpec, widths []float64, row report.Row, y float64) {
	g := r.geom
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(g.Margin, y)
	for i, col := range columns {
		var cell report.Cell
		if i < len(row) {
			cell = row[i]
		}
		text := sanitizeCellText(cell.Format(col.DateOnly))
		pdf.CellFormat(widths[i], g.RowHeight-1, text, "1", 0, "L", false, 0, "")
	}
}

func (r *Renderer) drawSummary(pdf *fpdf.Fpdf, lines []SummaryLine, y float64) {
	g := r.geom
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(g.Margin, y+4)
	pdf.CellFormat(0, g.SummaryTitleHeight-4, "Summary", "", 0, "L", false, 0, "")
	y += g.SummaryTitleHeight

	for _, line := range lines {
		style := ""
		if line.Bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		x := g.Margin
		if line.Indent {
			x += 12
		}
		pdf.SetXY(x, y)
		pdf.CellFormat(0, g.SummaryLineHeight, line.Text, "", 0, "L", false, 0, "")
		y += g.SummaryLineHeight
	}
}

func (r *Renderer) drawFooter(pdf *fpdf.Fpdf, index, total int) {
	g := r.geom
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(g.Margin, g.PageHeight-g.Margin-12)
	pdf.CellFormat(g.contentWidth(), 10, fmt.Sprintf("Page %d of %d", index, total), "", 0, "C", false, 0, "")
}

// sanitizeCellText flattens line breaks for single-line table cells.
func sanitizeCellText(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
