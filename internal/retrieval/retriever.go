// Package retrieval implements the hybrid retriever: parallel lexical,
// semantic, and graph-neighborhood scorers fused into one ranked,
// cursor-paginated result set.
package retrieval

import (
	"context"
	"sync"
	"time"

	"github.com/wagneradl/knowledge-mcp/internal/models"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Retriever fans a query out to the three scorers and fuses their output.
type Retriever struct {
	store    *storage.Store
	embedder *EmbeddingClient
	index    *VectorIndex
	weights  Weights
}

// New builds a Retriever. embedder and index may be nil, in which case the
// semantic scorer always degrades to empty.
func New(store *storage.Store, embedder *EmbeddingClient, index *VectorIndex, weights Weights) *Retriever {
	return &Retriever{store: store, embedder: embedder, index: index, weights: weights}
}

// Item is one fused, hydrated candidate: the full entry plus the fused
// score and its per-component breakdown.
type Item struct {
	Entry     models.Entry
	Score     float64
	Breakdown ScoreBreakdown
}

// Result is one page of fused, hydrated candidates.
type Result struct {
	Items       []Item
	NextCursor  string
	RetrievalMs int64
}

// Query runs the full pipeline: fetch depth limit*3 for each scorer, fuse
// with configured weights (redistributing the semantic share when it
// degrades to empty), sort deterministically, and paginate from cursor.
func (r *Retriever) Query(ctx context.Context, query string, limit int, cursor string, weightOverride *Weights) (*Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	fetchDepth := limit * 3

	weights := r.weights
	if weightOverride != nil {
		weights = *weightOverride
	}

	start := time.Now()

	var (
		wg             sync.WaitGroup
		lexicalScored  []storage.ScoredEntry
		lexicalErr     error
		semanticScores map[string]float64
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexicalScored, lexicalErr = r.store.LexicalSearch(query, fetchDepth)
	}()
	go func() {
		defer wg.Done()
		semanticScores = SemanticSearch(ctx, r.embedder, r.index, query, fetchDepth)
	}()
	wg.Wait()
	if lexicalErr != nil {
		lexicalScored = nil
	}

	semanticAvailable := len(semanticScores) > 0
	weights = RedistributeWeights(weights, semanticAvailable)

	lexicalScores := map[string]float64{}
	lexicalEntries := map[string]models.Entry{}
	seedTopics := map[string]bool{}
	seedIDs := map[string]bool{}
	for _, s := range lexicalScored {
		lexicalScores[s.Entry.ID] = s.Score
		lexicalEntries[s.Entry.ID] = s.Entry
		seedTopics[s.Entry.Topic] = true
		seedIDs[s.Entry.ID] = true
	}

	semanticEntries := hydrate(r.store, keysOf(semanticScores))
	for id, e := range semanticEntries {
		seedTopics[e.Topic] = true
		seedIDs[id] = true
	}

	topicList := make([]string, 0, len(seedTopics))
	for t := range seedTopics {
		topicList = append(topicList, t)
	}
	graphEntries, graphScores, graphHops := GraphSearch(r.store, topicList, seedIDs)

	fused := Fuse(lexicalScores, lexicalEntries, semanticScores, semanticEntries, graphScores, graphEntries, graphHops, weights)

	page, next := Page(fused, cursor, limit)
	items := make([]Item, 0, len(page))
	for _, p := range page {
		items = append(items, Item{Entry: p.Entry, Score: p.Score, Breakdown: p.Breakdown})
	}

	return &Result{
		Items:       items,
		NextCursor:  next,
		RetrievalMs: time.Since(start).Milliseconds(),
	}, nil
}

func keysOf(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
