// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package kmeans implements Lloyd's algorithm over latitude/longitude points
// carrying an opaque payload.
//
// Coordinates are treated as planar: distances are Euclidean on the raw
// degrees, which is good enough for city-scale data.
package kmeans

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jcodagnone/hotspots/spatial"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultMaxIterations bounds the number of assignment/update passes.
	DefaultMaxIterations = 100
	// DefaultTolerance is the centroid displacement under which a run is
	// considered converged.
	DefaultTolerance = 1e-4
)

var (
	// ErrInvalidK is returned when fewer than one cluster is requested.
	ErrInvalidK = errors.New("kmeans: k must be at least 1")
	// ErrInvalidIterations is returned when MaxIterations is not positive.
	ErrInvalidIterations = errors.New("kmeans: max iterations must be at least 1")
)

// Rand is the source of randomness used to seed the centroids.
// *rand.Rand from math/rand/v2 satisfies it. Implementations shared between
// goroutines must be safe for concurrent use.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the top-level math/rand/v2 functions, which are safe for
// concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Point is an input coordinate with its attached payload.
type Point[T any] struct {
	spatial.Point
	Payload T
}

// NewPoint builds a point at lat/lng.
func NewPoint[T any](lat, lng float64, payload T) Point[T] {
	return Point[T]{Point: spatial.Point{Lat: lat, Lng: lng}, Payload: payload}
}

// Cluster is a group of points around a centroid.
type Cluster[T any] struct {
	ID       string
	Centroid spatial.Point
	Points   []Point[T]
}

// Options tunes a clustering run. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	MaxIterations int
	Tolerance     float64
	// Rand seeds the centroids. Nil means the process-wide source.
	Rand Rand
}

// DefaultOptions returns the options used by the hotspot predictor.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

// Result is the outcome of Run.
type Result[T any] struct {
	Clusters []Cluster[T]
	// Iterations is the number of assignment/update passes performed.
	Iterations int
	// Converged is false when the run stopped at MaxIterations.
	Converged bool
}

// Partition groups points into at most k non-empty clusters.
func Partition[T any](points []Point[T], k int, opts Options) ([]Cluster[T], error) {
	r, err := Run(points, k, opts)
	if err != nil {
		return nil, err
	}

	return r.Clusters, nil
}

// EffectiveK is the number of centroids seeded for n points when k are
// requested: never more than n-1, never less than one.
func EffectiveK(k, n int) int {
	return min(k, max(1, n-1))
}

// Run is Partition with convergence details.
func Run[T any](points []Point[T], k int, opts Options) (*Result[T], error) {
	if k < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidK, k)
	}

	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidIterations, opts.MaxIterations)
	}

	if len(points) == 0 {
		return &Result[T]{Clusters: []Cluster[T]{}, Converged: true}, nil
	}

	rng := opts.Rand
	if rng == nil {
		rng = globalRand{}
	}

	centroids := seed(points, EffectiveK(k, len(points)), rng)
	result := &Result[T]{}

	for result.Iterations < opts.MaxIterations {
		result.Iterations++

		assignment := assign(points, centroids)
		next := update(points, assignment, centroids)

		converged := true

		for i := range centroids {
			if distance(centroids[i], next[i]) >= opts.Tolerance {
				converged = false

				break
			}
		}

		centroids = next

		if converged {
			result.Converged = true

			break
		}
	}

	result.Clusters = build(points, assign(points, centroids), centroids)

	return result, nil
}

// seed picks k distinct points as initial centroids using a partial
// Fisher-Yates shuffle of the indices.
func seed[T any](points []Point[T], k int, rng Rand) []spatial.Point {
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}

	centroids := make([]spatial.Point, k)

	for i := range k {
		j := i + rng.IntN(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
		centroids[i] = points[indices[i]].Point
	}

	return centroids
}

// assign returns, for each point, the index of its nearest centroid. On equal
// distance the lowest index wins.
func assign[T any](points []Point[T], centroids []spatial.Point) []int {
	assignment := make([]int, len(points))

	for i, p := range points {
		best, bestDist := 0, distance(p.Point, centroids[0])

		for c := 1; c < len(centroids); c++ {
			if d := distance(p.Point, centroids[c]); d < bestDist {
				best, bestDist = c, d
			}
		}

		assignment[i] = best
	}

	return assignment
}

// update computes the mean of every centroid's members. Centroids without
// members keep their previous coordinate.
func update[T any](points []Point[T], assignment []int, centroids []spatial.Point) []spatial.Point {
	lats := make([][]float64, len(centroids))
	lngs := make([][]float64, len(centroids))

	for i, c := range assignment {
		lats[c] = append(lats[c], points[i].Lat)
		lngs[c] = append(lngs[c], points[i].Lng)
	}

	next := make([]spatial.Point, len(centroids))

	for c := range centroids {
		if len(lats[c]) == 0 {
			next[c] = centroids[c]

			continue
		}

		next[c] = spatial.Point{Lat: stat.Mean(lats[c], nil), Lng: stat.Mean(lngs[c], nil)}
	}

	return next
}

// build groups points by centroid, drops empty groups and labels the rest by
// their position in the filtered list.
func build[T any](points []Point[T], assignment []int, centroids []spatial.Point) []Cluster[T] {
	members := make([][]Point[T], len(centroids))
	for i, c := range assignment {
		members[c] = append(members[c], points[i])
	}

	clusters := make([]Cluster[T], 0, len(centroids))

	for c, ps := range members {
		if len(ps) == 0 {
			continue
		}

		clusters = append(clusters, Cluster[T]{
			ID:       fmt.Sprintf("cluster_%d", len(clusters)),
			Centroid: centroids[c],
			Points:   ps,
		})
	}

	return clusters
}

func distance(a, b spatial.Point) float64 {
	return floats.Distance([]float64{a.Lat, a.Lng}, []float64{b.Lat, b.Lng}, 2)
}
