package retrieval

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/redis/go-redis/v9"
)

const vectorIndexKey = "vecidx:entries"

// VectorIndex is a nearest-neighbor lookup over entry embeddings, backed
// by a Redis set of member ids plus one JSON-encoded vector per id. A nil
// *VectorIndex is a valid "not configured" collaborator.
type VectorIndex struct {
	rdb *redis.Client
}

// NewVectorIndex wraps an existing Redis client. Passing nil yields a nil
// index so callers degrade to the documented fallback.
func NewVectorIndex(rdb *redis.Client) *VectorIndex {
	if rdb == nil {
		return nil
	}
	return &VectorIndex{rdb: rdb}
}

func vectorKey(id string) string { return "vec:" + id }

// Upsert stores id's embedding, adding id to the index's member set.
func (v *VectorIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	b, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	pipe := v.rdb.TxPipeline()
	pipe.Set(ctx, vectorKey(id), b, 0)
	pipe.SAdd(ctx, vectorIndexKey, id)
	_, err = pipe.Exec(ctx)
	return err
}

// Remove drops id from the index.
func (v *VectorIndex) Remove(ctx context.Context, id string) error {
	pipe := v.rdb.TxPipeline()
	pipe.Del(ctx, vectorKey(id))
	pipe.SRem(ctx, vectorIndexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// TopK returns the k ids with highest cosine similarity to query, paired
// with their similarity in [0, 1] (clamped from [-1, 1]).
func (v *VectorIndex) TopK(ctx context.Context, query []float32, k int) (map[string]float64, error) {
	ids, err := v.rdb.SMembers(ctx, vectorIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	type scored struct {
		id    string
		score float64
	}
	var candidates []scored
	for _, id := range ids {
		raw, err := v.rdb.Get(ctx, vectorKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err != nil {
			continue
		}
		candidates = append(candidates, scored{id: id, score: cosineSimilarity(query, vec)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		out[c.id] = normalizeSimilarity(c.score)
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func normalizeSimilarity(cos float64) float64 {
	v := cos
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
