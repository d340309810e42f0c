package cluster

import (
	"math"
	"math/rand"
)

const maxIterations = 100

// kMeans runs Lloyd's algorithm with k-means++ seeding over the given
// points. All randomness comes from rng, so the same points and seed
// produce the same assignment. Returns the per-point cluster index and the
// final centroids.
func kMeans(points [][]float32, k int, rng *rand.Rand) ([]int, [][]float32) {
	n := len(points)
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	centroids := seedPlusPlus(points, k, rng)
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			c := nearestCentroid(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		recomputeCentroids(points, assign, centroids)
	}
	return assign, centroids
}

// seedPlusPlus picks the initial centroids: the first uniformly, the rest
// weighted by squared distance to the nearest centroid chosen so far.
func seedPlusPlus(points [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(points)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, cloneVec(points[rng.Intn(n)]))

	dist := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := sqDist(p, centroids[len(centroids)-1])
			if len(centroids) == 1 || d < dist[i] {
				dist[i] = d
			}
			total += dist[i]
		}
		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids = append(centroids, cloneVec(points[rng.Intn(n)]))
			continue
		}
		target := rng.Float64() * total
		idx := n - 1
		var acc float64
		for i, d := range dist {
			acc += d
			if acc >= target {
				idx = i
				break
			}
		}
		centroids = append(centroids, cloneVec(points[idx]))
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid, preferring the
// lowest index on ties.
func nearestCentroid(p []float32, centroids [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		if d := sqDist(p, c); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func recomputeCentroids(points [][]float32, assign []int, centroids [][]float32) {
	dims := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dims)
	}
	for i, p := range points {
		c := assign[i]
		counts[c]++
		for d, v := range p {
			sums[c][d] += float64(v)
		}
	}
	for i := range centroids {
		if counts[i] == 0 {
			// Empty cluster keeps its previous centroid.
			continue
		}
		for d := range centroids[i] {
			centroids[i][d] = float32(sums[i][d] / float64(counts[i]))
		}
	}
}

func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
