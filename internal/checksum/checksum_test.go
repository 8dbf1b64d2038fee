package checksum

import "testing"

func TestComputeIsOrderInsensitive(t *testing.T) {
	forward := []Row{
		{Kind: "session", ID: 1, Revision: 100},
		{Kind: "session", ID: 2, Revision: 200},
		{Kind: "session", ID: 3, Revision: 300},
	}
	backward := []Row{forward[2], forward[0], forward[1]}

	if Compute(forward) != Compute(backward) {
		t.Fatal("digest should not depend on row order")
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	rows := []Row{{Kind: "scan", ID: 7, Revision: 42}}
	first := Compute(rows)
	second := Compute(rows)
	if first != second {
		t.Fatalf("repeated digests differ: %q vs %q", first, second)
	}
}

func TestComputeChangesOnMutation(t *testing.T) {
	base := []Row{
		{Kind: "session", ID: 1, Revision: 100},
		{Kind: "session", ID: 2, Revision: 200},
	}
	baseline := Compute(base)

	inserted := append(append([]Row{}, base...), Row{Kind: "session", ID: 3, Revision: 50})
	if Compute(inserted) == baseline {
		t.Error("insert in scope should change the digest")
	}

	updated := []Row{base[0], {Kind: "session", ID: 2, Revision: 201}}
	if Compute(updated) == baseline {
		t.Error("revision bump should change the digest")
	}

	deleted := []Row{base[0]}
	if Compute(deleted) == baseline {
		t.Error("delete in scope should change the digest")
	}
}

func TestComputeDistinguishesKinds(t *testing.T) {
	sessions := []Row{{Kind: "session", ID: 1, Revision: 1}}
	scans := []Row{{Kind: "scan", ID: 1, Revision: 1}}
	if Compute(sessions) == Compute(scans) {
		t.Fatal("kind must participate in the digest")
	}
}

func TestComputeEmptyScope(t *testing.T) {
	empty := Compute(nil)
	if empty == "" {
		t.Fatal("empty scope should still have a digest")
	}
	if empty == Compute([]Row{{Kind: "session", ID: 1, Revision: 1}}) {
		t.Fatal("empty scope digest should differ from populated scope")
	}
}

func TestEqualTreatsEmptyAsNeverMatching(t *testing.T) {
	digest := Compute([]Row{{Kind: "session", ID: 1, Revision: 1}})
	if Equal("", digest) || Equal(digest, "") || Equal("", "") {
		t.Fatal("empty digests must never match")
	}
	if !Equal(digest, digest) {
		t.Fatal("identical digests must match")
	}
}
