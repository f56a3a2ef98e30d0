// Package http contains the chi HTTP handlers for the export pipeline.
//
// The handlers are thin: they extract the principal and query
// parameters, draw the single rate-limit grant, and delegate to the
// export service. Rate-limit headers appear on every export response,
// denial or success.
package http
