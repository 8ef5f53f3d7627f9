// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays a fixed sequence of IntN results.
type scriptedRand struct {
	values []int
	calls  []int
}

func (r *scriptedRand) IntN(n int) int {
	r.calls = append(r.calls, n)
	v := r.values[0]
	r.values = r.values[1:]

	return v % n
}

func twoGroups() []Point[int] {
	offsets := [][2]float64{
		{0, 0}, {0.001, 0}, {0, 0.001}, {-0.001, 0}, {0, -0.001}, {0.001, 0.001},
	}

	points := make([]Point[int], 0, 12)
	for i, o := range offsets {
		points = append(points, NewPoint(40.0+o[0], -74.0+o[1], i))
	}

	for i, o := range offsets {
		points = append(points, NewPoint(41.0+o[0], -75.0+o[1], 6+i))
	}

	return points
}

func mean(points []Point[int]) spatial.Point {
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}

	return spatial.Point{Lat: lat / float64(len(points)), Lng: lng / float64(len(points))}
}

func payloads[T any](clusters []Cluster[T]) [][]T {
	out := make([][]T, len(clusters))

	for i, c := range clusters {
		for _, p := range c.Points {
			out[i] = append(out[i], p.Payload)
		}
	}

	return out
}

func TestClusterEmpty(t *testing.T) {
	clusters, err := Partition[int](nil, 3, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusterInvalidArguments(t *testing.T) {
	_, err := Partition(twoGroups(), 0, DefaultOptions())
	assert.True(t, errors.Is(err, ErrInvalidK))

	opts := DefaultOptions()
	opts.MaxIterations = 0
	_, err = Partition(twoGroups(), 2, opts)
	assert.True(t, errors.Is(err, ErrInvalidIterations))
}

func TestRunTwoSeparatedGroups(t *testing.T) {
	points := twoGroups()

	opts := DefaultOptions()
	// seeds points[0] and points[6], one per group
	opts.Rand = &scriptedRand{values: []int{0, 5}}

	result, err := Run(points, 2, opts)
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.LessOrEqual(t, result.Iterations, 3)
	require.Len(t, result.Clusters, 2)

	assert.Equal(t, "cluster_0", result.Clusters[0].ID)
	assert.Equal(t, "cluster_1", result.Clusters[1].ID)

	want := [][]int{{0, 1, 2, 3, 4, 5}, {6, 7, 8, 9, 10, 11}}
	if diff := cmp.Diff(want, payloads(result.Clusters)); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}

	for i, c := range result.Clusters {
		expected := mean(points[i*6 : i*6+6])
		assert.InDelta(t, expected.Lat, c.Centroid.Lat, 1e-9)
		assert.InDelta(t, expected.Lng, c.Centroid.Lng, 1e-9)
	}
}

func TestRunSeparatesGroupsFromAnySeed(t *testing.T) {
	points := twoGroups()

	for s := uint64(0); s < 20; s++ {
		opts := DefaultOptions()
		opts.Rand = rand.New(rand.NewPCG(s, s+1))

		clusters, err := Partition(points, 2, opts)
		require.NoError(t, err)
		require.Len(t, clusters, 2, "seed %d", s)

		for _, c := range clusters {
			assert.Len(t, c.Points, 6, "seed %d", s)
		}
	}
}

func TestSeedPicksDistinctPoints(t *testing.T) {
	points := twoGroups()

	for s := uint64(0); s < 50; s++ {
		centroids := seed(points, 11, rand.New(rand.NewPCG(s, 7)))
		require.Len(t, centroids, 11)

		seen := make(map[spatial.Point]bool)
		for _, c := range centroids {
			assert.False(t, seen[c], "seed %d picked %v twice", s, c)
			seen[c] = true
		}
	}
}

func TestSeedSamplesWithoutReplacement(t *testing.T) {
	points := twoGroups()
	rng := &scriptedRand{values: []int{3, 3, 3}}

	centroids := seed(points, 3, rng)

	// the candidate pool shrinks by one on every pick
	assert.Equal(t, []int{12, 11, 10}, rng.calls)
	assert.Equal(t, []spatial.Point{points[3].Point, points[4].Point, points[5].Point}, centroids)
}

func TestClusterCoversEveryPoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))

	for n := 1; n < 40; n++ {
		points := make([]Point[int], n)
		for i := range points {
			points[i] = NewPoint(rng.Float64(), rng.Float64(), i)
		}

		for k := 1; k <= 6; k++ {
			opts := DefaultOptions()
			opts.Rand = rng

			clusters, err := Partition(points, k, opts)
			require.NoError(t, err)

			seen := make(map[int]int)

			for _, c := range clusters {
				assert.NotEmpty(t, c.Points)

				for _, p := range c.Points {
					seen[p.Payload]++
				}
			}

			assert.Len(t, seen, n, "n=%d k=%d", n, k)

			for id, count := range seen {
				assert.Equal(t, 1, count, "point %d assigned %d times", id, count)
			}

			if n == 1 {
				assert.Len(t, clusters, 1)
			} else {
				assert.LessOrEqual(t, len(clusters), min(k, n-1))
			}
		}
	}
}

func TestClusterDeterministicWithFixedSeed(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))

	points := make([]Point[int], 30)
	for i := range points {
		points[i] = NewPoint(40+rng.Float64(), -74+rng.Float64(), i)
	}

	run := func() []Cluster[int] {
		opts := DefaultOptions()
		opts.Rand = rand.New(rand.NewPCG(1, 2))

		clusters, err := Partition(points, 4, opts)
		require.NoError(t, err)

		return clusters
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestClusterIdenticalPoints(t *testing.T) {
	points := make([]Point[int], 5)
	for i := range points {
		points[i] = NewPoint(10, 20, i)
	}

	clusters, err := Partition(points, 3, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	assert.Equal(t, "cluster_0", clusters[0].ID)
	assert.Len(t, clusters[0].Points, 5)
	assert.Equal(t, spatial.Point{Lat: 10, Lng: 20}, clusters[0].Centroid)
}

func TestClusterSinglePoint(t *testing.T) {
	clusters, err := Partition([]Point[string]{NewPoint(1, 2, "only")}, 5, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"only"}, payloads(clusters)[0])
}

func TestAssignTieGoesToLowestIndex(t *testing.T) {
	points := []Point[int]{NewPoint(0, 0, 0)}
	centroids := []spatial.Point{{Lat: 1, Lng: 0}, {Lat: -1, Lng: 0}, {Lat: 0, Lng: 1}}

	assert.Equal(t, []int{0}, assign(points, centroids))
}

func TestUpdateKeepsEmptyCentroid(t *testing.T) {
	points := []Point[int]{NewPoint(0, 0, 0), NewPoint(2, 2, 1)}
	centroids := []spatial.Point{{Lat: 0, Lng: 0}, {Lat: 50, Lng: 50}}

	next := update(points, []int{0, 0}, centroids)

	assert.Equal(t, spatial.Point{Lat: 1, Lng: 1}, next[0])
	assert.Equal(t, spatial.Point{Lat: 50, Lng: 50}, next[1])
}

func TestBuildDropsEmptyClusters(t *testing.T) {
	points := []Point[int]{NewPoint(0, 0, 0), NewPoint(5, 5, 1)}
	centroids := []spatial.Point{{Lat: 0, Lng: 0}, {Lat: 9, Lng: 9}, {Lat: 5, Lng: 5}}

	clusters := build(points, []int{0, 2}, centroids)

	require.Len(t, clusters, 2)
	assert.Equal(t, "cluster_0", clusters[0].ID)
	assert.Equal(t, "cluster_1", clusters[1].ID)
	assert.Equal(t, spatial.Point{Lat: 5, Lng: 5}, clusters[1].Centroid)
}

func TestRunStopsAtIterationCap(t *testing.T) {
	points := twoGroups()

	opts := DefaultOptions()
	opts.MaxIterations = 1
	opts.Rand = &scriptedRand{values: []int{0, 0}}

	result, err := Run(points, 2, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.False(t, result.Converged)

	total := 0
	for _, c := range result.Clusters {
		total += len(c.Points)
	}

	assert.Equal(t, len(points), total)
}

func TestEffectiveK(t *testing.T) {
	tests := []struct{ k, n, want int }{
		{k: 5, n: 1, want: 1},
		{k: 2, n: 2, want: 1},
		{k: 2, n: 3, want: 2},
		{k: 5, n: 4, want: 3},
		{k: 5, n: 100, want: 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectiveK(tt.k, tt.n), "k=%d n=%d", tt.k, tt.n)
	}
}
