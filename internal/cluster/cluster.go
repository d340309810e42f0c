// Package cluster groups symbols by embedding similarity using
// deterministic k-means. The same job input always yields the same
// partition: the RNG is seeded from the symbol id set, ties resolve to the
// lowest cluster index, and member lists come out sorted.
package cluster

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"

	"docpack/internal/model"
)

// Unassigned marks symbols that could not be clustered because none of
// their chunks carried a vector.
const Unassigned = -1

// Cluster is one group of symbols sharing a centroid.
type Cluster struct {
	ID      int
	Members []string // symbol ids, sorted
}

// Result is the full clustering outcome. SymbolVectors holds the mean
// embedding per clustered symbol; the graph stage reuses it for similarity
// edges so the means are computed once.
type Result struct {
	Clusters      []Cluster
	Assignment    map[string]int // symbol id -> cluster id, Unassigned if excluded
	Centroids     [][]float32
	SymbolVectors map[string][]float32
	Warnings      []string
}

// Run partitions the job's symbols. Symbols with no resolvable chunk
// vectors are excluded with a warning. An empty vector set yields zero
// clusters; a single clusterable symbol yields one cluster.
func Run(symbols []model.Symbol, vectors map[string][]float32) *Result {
	res := &Result{
		Assignment:    make(map[string]int, len(symbols)),
		SymbolVectors: make(map[string][]float32),
	}

	var ids []string
	for _, s := range symbols {
		mean, missing := meanVector(s.ChunkIDs, vectors)
		if mean == nil {
			res.Assignment[s.SymbolID] = Unassigned
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("symbol %s has no chunk vectors, excluded from clustering", s.SymbolID))
			continue
		}
		if len(missing) > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("symbol %s: chunks %s have no vectors, excluded from its mean",
					s.SymbolID, strings.Join(missing, ", ")))
		}
		res.SymbolVectors[s.SymbolID] = mean
		ids = append(ids, s.SymbolID)
	}
	sort.Strings(ids)

	switch len(ids) {
	case 0:
		return res
	case 1:
		res.Assignment[ids[0]] = 0
		res.Clusters = []Cluster{{ID: 0, Members: ids}}
		res.Centroids = [][]float32{res.SymbolVectors[ids[0]]}
		return res
	}

	points := make([][]float32, len(ids))
	for i, id := range ids {
		points[i] = res.SymbolVectors[id]
	}

	k := chooseK(len(ids))
	rng := rand.New(rand.NewSource(seedFor(ids)))
	assign, centroids := kMeans(points, k, rng)

	members := make(map[int][]string)
	for i, id := range ids {
		res.Assignment[id] = assign[i]
		members[assign[i]] = append(members[assign[i]], id)
	}

	// Empty clusters are dropped and ids compacted so cluster ids are
	// contiguous in the output.
	occupied := make([]int, 0, len(members))
	for c := range members {
		occupied = append(occupied, c)
	}
	sort.Ints(occupied)
	remap := make(map[int]int, len(occupied))
	for newID, old := range occupied {
		remap[old] = newID
		m := members[old]
		sort.Strings(m)
		res.Clusters = append(res.Clusters, Cluster{ID: newID, Members: m})
		res.Centroids = append(res.Centroids, centroids[old])
	}
	for id, c := range res.Assignment {
		if c != Unassigned {
			res.Assignment[id] = remap[c]
		}
	}
	if len(res.Clusters) == 1 && k > 1 {
		// Degenerate input, typically all vectors identical. Not an
		// error; the single cluster stands and the caller is told.
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("degenerate vector set: %d symbols collapsed into one cluster", len(ids)))
	}
	return res
}

// chooseK picks the cluster count: round(sqrt(n/2)) clamped to [2, n].
func chooseK(n int) int {
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	return k
}

// seedFor derives the RNG seed from the sorted symbol id list, so the same
// symbol set always clusters the same way.
func seedFor(sortedIDs []string) int64 {
	h := fnv.New64a()
	for i, id := range sortedIDs {
		if i > 0 {
			h.Write([]byte{'\n'})
		}
		h.Write([]byte(id))
	}
	return int64(h.Sum64())
}

// meanVector averages the vectors of the chunks that have one and reports
// the chunk ids that had none. A nil mean result means no chunk resolved.
func meanVector(chunkIDs []string, vectors map[string][]float32) ([]float32, []string) {
	var sum []float64
	var missing []string
	count := 0
	for _, cid := range chunkIDs {
		v, ok := vectors[cid]
		if !ok {
			missing = append(missing, cid)
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		for i, f := range v {
			sum[i] += float64(f)
		}
		count++
	}
	if count == 0 {
		return nil, missing
	}
	out := make([]float32, len(sum))
	for i, f := range sum {
		out[i] = float32(f / float64(count))
	}
	return out, missing
}
