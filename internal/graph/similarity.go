package graph

import (
	"math"
	"runtime"
	"sort"
	"sync"
)

const (
	similarityThreshold = 0.7
	similarityTopK      = 5
)

// AddSimilarityEdges computes cosine similarity between symbol mean
// vectors and appends the resulting edges to g. Each symbol contributes at
// most its top five neighbors at or above the threshold; an unordered pair
// appears once, oriented with the lexicographically smaller id first. The
// pairwise pass is sharded over numWorkers, with a single merge afterwards
// so the output does not depend on scheduling.
func AddSimilarityEdges(g *Graph, vectors map[string][]float32, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) < 2 {
		return
	}

	type neighbor struct {
		id     string
		weight float64
	}
	top := make([][]neighbor, len(ids))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for i := shard; i < len(ids); i += numWorkers {
				a := vectors[ids[i]]
				var best []neighbor
				for j, other := range ids {
					if j == i {
						continue
					}
					sim := cosine(a, vectors[other])
					if sim < similarityThreshold {
						continue
					}
					best = append(best, neighbor{id: other, weight: sim})
				}
				sort.Slice(best, func(x, y int) bool {
					if best[x].weight != best[y].weight {
						return best[x].weight > best[y].weight
					}
					return best[x].id < best[y].id
				})
				if len(best) > similarityTopK {
					best = best[:similarityTopK]
				}
				top[i] = best
			}
		}(w)
	}
	wg.Wait()

	// Merge: canonicalize pairs so A->B and B->A collapse, keeping the
	// higher weight (they are equal up to float noise).
	type pair struct{ a, b string }
	merged := make(map[pair]float64)
	for i, best := range top {
		from := ids[i]
		for _, n := range best {
			p := pair{from, n.id}
			if p.b < p.a {
				p.a, p.b = p.b, p.a
			}
			if w, ok := merged[p]; !ok || n.weight > w {
				merged[p] = n.weight
			}
		}
	}

	edges := make([]Edge, 0, len(merged))
	for p, w := range merged {
		edges = append(edges, Edge{From: p.a, To: p.b, Kind: EdgeSimilarity, Weight: w})
	}
	g.Edges = append(g.Edges, edges...)
	sortEdges(g.Edges)
}

// cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
