// Package api defines the wire types of the FlowCanvas HTTP API.
//
// # API Overview
//
// The canvas UI talks to a single workflow executor through:
//   - POST /api/v1/workflows/run       run a canvas definition and wait for the result
//   - POST /api/v1/workflows/validate  validate a definition without running it
//   - POST /api/v1/workflows/cancel    cooperatively cancel the active run
//   - GET  /api/v1/workflows/status    executor state and live progress
//   - GET  /api/v1/workflows/events    WebSocket stream of run events
//   - GET  /api/v1/runs, /api/v1/runs/{id}  finished runs
//   - /health, /healthz, /ready, /version
//
// Only one run is active at a time; a second run request receives
// 409 EXECUTION_IN_PROGRESS.
//
// # Authentication
//
// When server.api_keys is configured, every /api/ route requires the
// X-API-Key header:
//
//	X-API-Key: your-api-key
//
// # Base URL
//
//	http://localhost:8080
package api
