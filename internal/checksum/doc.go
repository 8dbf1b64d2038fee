// Package checksum computes stable list digests for change detection.
//
// A digest is computed from the identity and revision of every item in
// scope, not from any rendered page. Two datasets with the same membership
// and revisions always hash identically regardless of how a client pages or
// sorts them, while any insert, update, or delete in scope changes the
// digest. Polling clients compare digests to decide whether a full refetch
// is worth the bandwidth.
package checksum
