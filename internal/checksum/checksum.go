package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
)

// Row is the identity and revision of one item in a digest scope. Revision
// must change whenever the item's content changes; a monotonically updated
// timestamp in nanoseconds or a bumped counter both work.
type Row struct {
	Kind     string
	ID       int64
	Revision int64
}

// Compute returns the hex digest of the given rows. The input order does
// not matter; rows are canonicalized before hashing. An empty scope has a
// well-defined digest so "no items" and "never computed" stay
// distinguishable to callers.
func Compute(rows []Row) string {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].ID < sorted[j].ID
	})

	hasher := sha256.New()
	buf := make([]byte, 0, 64)
	for _, row := range sorted {
		buf = buf[:0]
		buf = append(buf, row.Kind...)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, row.ID, 10)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, row.Revision, 10)
		buf = append(buf, '\n')
		hasher.Write(buf)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Equal reports whether two digests match. Empty strings never match
// anything, including each other, so an unset client digest always forces
// a fetch.
func Equal(a, b string) bool {
	return a != "" && b != "" && a == b
}
