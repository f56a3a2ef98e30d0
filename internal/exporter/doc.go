// Package exporter provides streaming CSV encoding for report exports.
//
// The Encoder writes one row at a time to any io.Writer, which lets HTTP
// handlers stream large exports straight to the response without holding
// the full document in memory. Cell formatting (timestamps, numbers,
// nulls) follows the column specs supplied at construction.
package exporter
