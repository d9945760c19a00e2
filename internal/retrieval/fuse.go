package retrieval

import (
	"sort"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// Weights are the per-scorer fusion weights. They need not sum to one.
type Weights struct {
	Lexical  float64
	Semantic float64
	Graph    float64
}

// ScoreBreakdown is the per-component detail behind a fused score.
type ScoreBreakdown struct {
	Lexical   float64
	Semantic  float64
	Graph     float64
	GraphHops int
}

// Scored is one fused candidate ready for pagination.
type Scored struct {
	Entry     models.Entry
	Score     float64
	Breakdown ScoreBreakdown
}

// Fuse unions lexical, semantic, and graph component scores keyed by entry
// id, filling any missing component with 0, computes the weighted total,
// and returns candidates sorted by score descending, ties broken by id
// ascending. Entries not present in any of the three entry maps are
// skipped (a component may know a score for an id it never hydrated).
// graphHops carries the hop count backing each graph score; ids absent
// from it were not discovered through graph expansion.
func Fuse(
	lexical map[string]float64, lexicalEntries map[string]models.Entry,
	semantic map[string]float64, semanticEntries map[string]models.Entry,
	graph map[string]float64, graphEntries map[string]models.Entry,
	graphHops map[string]int,
	weights Weights,
) []Scored {
	entries := map[string]models.Entry{}
	for id, e := range lexicalEntries {
		entries[id] = e
	}
	for id, e := range semanticEntries {
		entries[id] = e
	}
	for id, e := range graphEntries {
		entries[id] = e
	}

	ids := map[string]bool{}
	for id := range lexical {
		ids[id] = true
	}
	for id := range semantic {
		ids[id] = true
	}
	for id := range graph {
		ids[id] = true
	}

	out := make([]Scored, 0, len(ids))
	for id := range ids {
		e, ok := entries[id]
		if !ok {
			continue
		}
		l, s, g := lexical[id], semantic[id], graph[id]
		total := l*weights.Lexical + s*weights.Semantic + g*weights.Graph
		out = append(out, Scored{
			Entry: e,
			Score: total,
			Breakdown: ScoreBreakdown{
				Lexical:   l,
				Semantic:  s,
				Graph:     g,
				GraphHops: graphHops[id],
			},
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.ID < out[j].Entry.ID
	})
	return out
}

// RedistributeWeights implements the fallback rule: when the semantic
// scorer is unavailable, 60% of its weight goes to lexical and 40% to
// graph.
func RedistributeWeights(w Weights, semanticAvailable bool) Weights {
	if semanticAvailable {
		return w
	}
	return Weights{
		Lexical: w.Lexical + w.Semantic*0.6,
		Graph:   w.Graph + w.Semantic*0.4,
	}
}
