// Package http provides the HTTP REST API implementation.
//
// The HTTP server is the rendering-surface boundary. It exposes endpoints for:
//   - Graph snapshot and import
//   - Node and edge edits, single or as change batches
//   - Running and cancelling generation nodes
//   - Resolved inputs and display views
//   - Palette templates and the model catalogue
//   - API key settings
//   - Health checks and Prometheus metrics
package http
