package txlog

import "testing"

func TestEntrySnapshotRoundTrip(t *testing.T) {
	src := EntrySnapshot{
		ID:      "abc",
		Topic:   "t",
		Content: "c",
		Tags:    []string{"x", "y"},
		Status:  "active",
	}
	raw, err := Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalEntry(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != src.ID || got.Topic != src.Topic || len(got.Tags) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestMergeSnapshotRoundTrip(t *testing.T) {
	src := MergeSnapshot{
		KeepID:        "k1",
		MergeID:       "m1",
		SubjTripleIDs: []string{"t1", "t2"},
	}
	raw, err := Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalMerge(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SubjTripleIDs) != 2 {
		t.Errorf("expected 2 subj triple ids, got %d", len(got.SubjTripleIDs))
	}
}
