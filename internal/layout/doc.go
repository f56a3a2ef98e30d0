// Package layout computes and renders the paginated PDF form of a report.
//
// Layout is split into two passes. Engine.Layout is a pure function that
// walks the row slice and produces the full page sequence: which rows land
// on which page, where the filter band appears, and whether the summary
// fits on the final table page or needs a trailing page of its own. Page
// numbers are only stamped once the whole sequence is known, because the
// "Page i of N" footer needs the total. Renderer then draws the buffered
// pages with go-pdf/fpdf.
//
// Buffering the page sequence before rendering trades memory for
// simplicity; at realistic row counts (low thousands) a single-pass
// page-count-aware footer is not worth its complexity.
package layout
