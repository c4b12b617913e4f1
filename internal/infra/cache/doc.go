// Package cache holds the read-through caches used by the catalog: page
// counts for paginated collections and small lookup lists such as genres.
//
// Caches sit behind a ListBackend (Redis in production) guarded by a circuit
// breaker. With the default FailOpen policy a broken backend only costs a
// log line and a metric; the value is recomputed from the database.
package cache
