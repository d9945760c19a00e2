package conflict

import (
	"testing"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

type fakeLister struct {
	triples []models.Triple
}

func (f fakeLister) ActiveTriplesWithSubjectPredicate(subject, predicate string) ([]models.Triple, error) {
	return f.triples, nil
}

func TestDetectNoConflictWhenObjectsMatch(t *testing.T) {
	lister := fakeLister{triples: []models.Triple{{Subject: "sf", Predicate: "capital_of", Object: "california"}}}
	info, err := Detect(lister, models.TripleCandidate{Subject: "sf", Predicate: "capital_of", Object: "california"})
	if err != nil {
		t.Fatal(err)
	}
	if info != nil {
		t.Fatal("expected no conflict for matching object")
	}
}

func TestDetectConflictOnDifferingObject(t *testing.T) {
	lister := fakeLister{triples: []models.Triple{{ID: "t1", Subject: "sacramento", Predicate: "capital_of", Object: "california"}}}
	info, err := Detect(lister, models.TripleCandidate{Subject: "sacramento", Predicate: "capital_of", Object: "nevada"})
	if err != nil {
		t.Fatal(err)
	}
	if info == nil {
		t.Fatal("expected conflict")
	}
	if info.Existing.ID != "t1" {
		t.Fatalf("unexpected existing triple: %+v", info.Existing)
	}
	if len(info.AllowedResolutions) != 3 {
		t.Fatalf("expected 3 allowed resolutions, got %d", len(info.AllowedResolutions))
	}
}
