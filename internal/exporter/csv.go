package exporter

import (
	"bufio"
	"fmt"
	"io"

	"reportexport/internal/report"
)

// Encoder streams CSV output row-at-a-time to an underlying writer, so
// arbitrarily large exports never buffer the whole document in memory.
// An Encoder is single-use: write the header, then rows, then Flush.
type Encoder struct {
	w       *bufio.Writer
	columns []report.ColumnSpec
	rows    int
}

// Options configures encoder behavior.
type Options struct {
	// BOMPrefix emits a UTF-8 BOM before the header line so Excel
	// recognizes the encoding.
	BOMPrefix bool
}

// NewEncoder creates an encoder writing to w with the given column specs.
func NewEncoder(w io.Writer, columns []report.ColumnSpec) *Encoder {
	return &Encoder{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader emits the header line. Header names pass through the same
// escaping rule as data cells.
func (e *Encoder) WriteHeader(opts Options) error {
	if opts.BOMPrefix {
		if _, err := e.w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	for i, col := range e.columns {
		if i > 0 {
			if err := e.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := e.w.WriteString(escapeCell(col.Header)); err != nil {
			return err
		}
	}
	return e.w.WriteByte('\n')
}

// WriteRow emits a single row. Cells are positionally aligned with the
// encoder's column specs; a short row pads with empty cells.
func (e *Encoder) WriteRow(row report.Row) error {
	for i, col := range e.columns {
		if i > 0 {
			if err := e.w.WriteByte(','); err != nil {
				return err
			}
		}
		var cell report.Cell
		if i < len(row) {
			cell = row[i]
		}
		if _, err := e.w.WriteString(escapeCell(cell.Format(col.DateOnly))); err != nil {
			return err
		}
	}
	e.rows++
	return e.w.WriteByte('\n')
}

// WriteAll encodes every row in order. Used by callers that already hold
// the full row slice; streaming callers use WriteRow directly.
func (e *Encoder) WriteAll(rows []report.Row) error {
	for i, row := range rows {
		if err := e.WriteRow(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

// Flush drains buffered output to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// RowsWritten returns the number of data rows emitted so far.
func (e *Encoder) RowsWritten() int {
	return e.rows
}
