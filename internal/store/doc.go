// Package store provides SQLite-backed durable storage for analysis runs.
//
// The store is an append-only audit trail:
//   - Runs: which rule set (framebook hash, overlays) produced a run
//   - Documents: the aggregated tension profile per document
//   - Segment Profiles: the consolidated per-segment scores
//   - Annotations: every pattern match, content-addressed
//
// Idempotency: annotation ids are content-addressed, and every insert uses
// ON CONFLICT DO NOTHING, so re-persisting the same run is a no-op. Two runs
// over identical input share annotation ids but keep separate rows; run
// attribution is part of the primary key, not the identity.
//
// Determinism: reads order by stored document position and span offsets,
// never by rowid or wall time. JSON columns (flags, overlays, peak segments)
// are written as canonical JSON so byte comparison across runs is valid.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
