package ingest

import "testing"

func TestChunkSplitsOnBlankLineRuns(t *testing.T) {
	text := "First paragraph.\n\n\nSecond paragraph."
	chunks := Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected paragraphs to merge into one chunk under the 500-char cap, got %d: %v", len(chunks), chunks)
	}
}

func TestChunkNeverSplitsAParagraph(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "0123456789"
	}
	text := long + "\n\n" + long
	chunks := Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected each 400-char paragraph in its own chunk, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c != long {
			t.Fatalf("paragraph was split: %q", c)
		}
	}
}

func TestFirstLineTopicTruncatesAndDefaults(t *testing.T) {
	if got := FirstLineTopic("hello\nworld"); got != "hello" {
		t.Fatalf("expected 'hello', got %q", got)
	}
	if got := FirstLineTopic("   \n\nrest"); got != "ingested" {
		t.Fatalf("expected default 'ingested', got %q", got)
	}
	long := ""
	for i := 0; i < 150; i++ {
		long += "x"
	}
	if got := FirstLineTopic(long); len(got) != 100 {
		t.Fatalf("expected truncation to 100 chars, got %d", len(got))
	}
}
