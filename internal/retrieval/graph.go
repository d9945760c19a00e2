package retrieval

import "github.com/wagneradl/knowledge-mcp/internal/models"

// graphSource is the storage dependency for single-hop graph expansion.
type graphSource interface {
	GraphNeighbors(topics []string, exclude map[string]bool) ([]models.Entry, error)
}

// GraphSearch expands from the topics of the current seed candidates by
// one hop and scores every newly discovered entry at 1/(1+hops) with
// hops=1. The returned hops map records that hop count per id so callers
// can surface it alongside the score.
func GraphSearch(store graphSource, seedTopics []string, seedIDs map[string]bool) (entries map[string]models.Entry, scores map[string]float64, hops map[string]int) {
	neighbors, err := store.GraphNeighbors(seedTopics, seedIDs)
	if err != nil {
		return map[string]models.Entry{}, map[string]float64{}, map[string]int{}
	}
	entries = map[string]models.Entry{}
	scores = map[string]float64{}
	hops = map[string]int{}
	for _, e := range neighbors {
		entries[e.ID] = e
		scores[e.ID] = 0.5 // 1 / (1 + hops), hops = 1
		hops[e.ID] = 1
	}
	return entries, scores, hops
}
