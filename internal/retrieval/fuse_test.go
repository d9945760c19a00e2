package retrieval

import (
	"testing"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

func TestFuseOrdersByScoreThenID(t *testing.T) {
	entries := map[string]models.Entry{
		"b": {ID: "b", Topic: "b"},
		"a": {ID: "a", Topic: "a"},
	}
	lexical := map[string]float64{"a": 0.5, "b": 0.5}
	out := Fuse(lexical, entries, nil, nil, nil, nil, nil, Weights{Lexical: 1})
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].Entry.ID != "a" {
		t.Fatalf("expected tie broken by ascending id, got %s first", out[0].Entry.ID)
	}
}

func TestFuseWeightsComponents(t *testing.T) {
	entries := map[string]models.Entry{"a": {ID: "a"}}
	lexical := map[string]float64{"a": 1.0}
	semantic := map[string]float64{"a": 0.0}
	out := Fuse(lexical, entries, semantic, entries, nil, nil, nil, Weights{Lexical: 0.3, Semantic: 0.5, Graph: 0.2})
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	if out[0].Score != 0.3 {
		t.Fatalf("expected score 0.3, got %f", out[0].Score)
	}
}

func TestFuseCarriesBreakdownAndGraphHops(t *testing.T) {
	entries := map[string]models.Entry{"a": {ID: "a"}}
	lexical := map[string]float64{"a": 0.4}
	graph := map[string]float64{"a": 0.5}
	hops := map[string]int{"a": 1}
	out := Fuse(lexical, entries, nil, nil, graph, entries, hops, Weights{Lexical: 1, Graph: 1})
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	b := out[0].Breakdown
	if b.Lexical != 0.4 || b.Graph != 0.5 || b.GraphHops != 1 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestRedistributeWeightsWhenSemanticUnavailable(t *testing.T) {
	w := RedistributeWeights(Weights{Lexical: 0.3, Semantic: 0.5, Graph: 0.2}, false)
	if w.Lexical != 0.3+0.3 {
		t.Fatalf("expected lexical 0.6, got %f", w.Lexical)
	}
	if w.Graph != 0.2+0.2 {
		t.Fatalf("expected graph 0.4, got %f", w.Graph)
	}
}

func TestPageStartsAfterCursor(t *testing.T) {
	results := []Scored{
		{Entry: models.Entry{ID: "c"}, Score: 0.9},
		{Entry: models.Entry{ID: "b"}, Score: 0.8},
		{Entry: models.Entry{ID: "a"}, Score: 0.7},
	}
	page, next := Page(results, EncodeCursor("c"), 1)
	if len(page) != 1 || page[0].Entry.ID != "b" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if next == "" {
		t.Fatal("expected a next cursor")
	}
}

func TestPageIgnoresInvalidCursor(t *testing.T) {
	results := []Scored{{Entry: models.Entry{ID: "a"}, Score: 1}}
	page, _ := Page(results, "not-a-real-cursor!!", 10)
	if len(page) != 1 {
		t.Fatalf("expected invalid cursor to degrade to first page, got %d items", len(page))
	}
}
