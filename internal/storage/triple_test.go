package storage

import "testing"

func TestCreateTripleFieldBoundary(t *testing.T) {
	s := setupStore(t)

	if _, err := s.CreateTriple(CreateTripleInput{Subject: repeat('a', maxTripleFieldLen), Predicate: "p", Object: "o"}); err != nil {
		t.Fatalf("subject at the limit should be accepted: %v", err)
	}
	if _, err := s.CreateTriple(CreateTripleInput{Subject: repeat('a', maxTripleFieldLen+1), Predicate: "p", Object: "o"}); err == nil {
		t.Fatal("expected validation error for subject over the limit")
	}
	if _, err := s.CreateTriple(CreateTripleInput{Subject: "s", Predicate: "p", Object: repeat('a', maxTripleFieldLen+1)}); err == nil {
		t.Fatal("expected validation error for object over the limit")
	}
}

func TestUpdateTripleFieldBoundary(t *testing.T) {
	s := setupStore(t)
	tr, err := s.CreateTriple(CreateTripleInput{Subject: "s", Predicate: "p", Object: "o"})
	if err != nil {
		t.Fatalf("CreateTriple: %v", err)
	}

	tooLong := repeat('a', maxTripleFieldLen+1)
	if _, err := s.UpdateTriple(tr.ID, UpdateTriplePatch{Object: &tooLong}); err == nil {
		t.Fatal("expected validation error for object over the limit on update")
	}
}
