package retrieval

import (
	"context"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// SemanticSearch embeds query and performs a top-k nearest-neighbor lookup
// against the vector index, returning entry ids mapped to their similarity
// in [0, 1]. Returns an empty map, not an error, whenever either
// collaborator is absent or a call fails — the caller redistributes the
// semantic weight in that case.
func SemanticSearch(ctx context.Context, embedder *EmbeddingClient, index *VectorIndex, query string, k int) map[string]float64 {
	if embedder == nil || index == nil {
		return map[string]float64{}
	}
	vec, err := embedder.Embed(ctx, query)
	if err != nil || len(vec) == 0 {
		return map[string]float64{}
	}
	scores, err := index.TopK(ctx, vec, k)
	if err != nil {
		return map[string]float64{}
	}
	return scores
}

// entryLookup fetches full rows for a set of ids, used to hydrate
// semantic/graph candidates back into models.Entry.
type entryLookup interface {
	GetEntry(id string) (*models.Entry, error)
}

func hydrate(lookup entryLookup, ids []string) map[string]models.Entry {
	out := map[string]models.Entry{}
	for _, id := range ids {
		if e, err := lookup.GetEntry(id); err == nil {
			out[id] = *e
		}
	}
	return out
}
