package errs

import (
	"fmt"
	"testing"
)

func TestRetryableByKind(t *testing.T) {
	cases := map[Kind]bool{
		Validation: false,
		NotFound:   false,
		Conflict:   false,
		Policy:     false,
		Dependency: true,
		Internal:   true,
	}
	for kind, want := range cases {
		e := New(kind, "boom")
		if got := e.Retryable(); got != want {
			t.Errorf("Kind(%s).Retryable() = %v, want %v", kind, got, want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(NotFound, "entry %s missing", "abc")
	wrapped := fmt.Errorf("query failed: %w", inner)
	if KindOf(wrapped) != NotFound {
		t.Errorf("KindOf(wrapped) = %v, want %v", KindOf(wrapped), NotFound)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(fmt.Errorf("plain")) != Internal {
		t.Error("KindOf(plain error) should default to Internal")
	}
}
