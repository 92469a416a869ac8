// Package journal keeps an append-only SQLite history of applied signals.
//
// The journal is an audit trail, not registry persistence: on restart the
// registry still starts empty. It plugs into the dispatcher as a hook and
// backs the status API's history route.
//
// Entries are pruned by age (database.retention_days) from the gateway.
package journal
