package storage

import "testing"

func TestCreateEntryTopicBoundary(t *testing.T) {
	s := setupStore(t)

	if _, err := s.CreateEntry(CreateEntryInput{Topic: repeat('a', maxTopicLen), Content: "c"}); err != nil {
		t.Fatalf("topic at the limit should be accepted: %v", err)
	}
	if _, err := s.CreateEntry(CreateEntryInput{Topic: repeat('a', maxTopicLen+1), Content: "c"}); err == nil {
		t.Fatal("expected validation error for topic over the limit")
	}
}

func TestCreateEntryContentBoundary(t *testing.T) {
	s := setupStore(t)

	if _, err := s.CreateEntry(CreateEntryInput{Topic: "t", Content: repeat('a', maxContentLen)}); err != nil {
		t.Fatalf("content at the limit should be accepted: %v", err)
	}
	if _, err := s.CreateEntry(CreateEntryInput{Topic: "t", Content: repeat('a', maxContentLen+1)}); err == nil {
		t.Fatal("expected validation error for content over the limit")
	}
}

func TestUpdateEntryContentBoundary(t *testing.T) {
	s := setupStore(t)
	e, err := s.CreateEntry(CreateEntryInput{Topic: "t", Content: "c"})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	tooLong := repeat('a', maxContentLen+1)
	if _, err := s.UpdateEntry(e.ID, UpdateEntryPatch{Content: &tooLong}); err == nil {
		t.Fatal("expected validation error for content over the limit on update")
	}

	atLimit := repeat('a', maxContentLen)
	updated, err := s.UpdateEntry(e.ID, UpdateEntryPatch{Content: &atLimit})
	if err != nil {
		t.Fatalf("content at the limit should be accepted on update: %v", err)
	}
	if len(updated.Content) != maxContentLen {
		t.Errorf("Content length = %d, want %d", len(updated.Content), maxContentLen)
	}
}
