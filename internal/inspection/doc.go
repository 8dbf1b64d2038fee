// Package inspection persists inspection sessions and per-frame scan
// records in SQLite.
//
// The store is the single source of truth for session counters. Frame
// counts and rates are recomputed inside one guarded UPDATE so concurrent
// ingestion never loses an increment, and every mutation bumps a revision
// counter that feeds the list digests used by polling clients.
package inspection
