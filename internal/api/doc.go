// Package api implements the read-only HTTP status API of the presence gateway.
//
// This package provides:
//   - a snapshot of the live device registry
//   - per-device signal history from the journal
//   - dispatcher counters and infrastructure health
//   - middleware stack (request ID, logging, recovery)
//
// # Routes
//
//	GET /api/v1/health
//	GET /api/v1/devices
//	GET /api/v1/devices/{host}
//	GET /api/v1/devices/{host}/history?limit=50
//	GET /api/v1/stats
//
// # Graceful Degradation
//
// The server runs without the journal; only the history route answers 503.
// Health checks for disabled components are simply not registered.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
