package geo

import (
	"math"
	"testing"
)

func TestHaversineIdenticalPointsIsZero(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{28.6139, 77.2090},
		{-33.8688, 151.2093},
		{90, 0},
	}
	for _, p := range points {
		if d := HaversineDistanceKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Fatalf("distance from (%v,%v) to itself = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestHaversineSymmetry(t *testing.T) {
	// Connaught Place to Hauz Khas, Delhi.
	ab := HaversineDistanceKm(28.6315, 77.2167, 28.5494, 77.2001)
	ba := HaversineDistanceKm(28.5494, 77.2001, 28.6315, 77.2167)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Delhi to Mumbai, roughly 1150 km.
	d := HaversineDistanceKm(28.6139, 77.2090, 19.0760, 72.8777)
	if d < 1100 || d > 1200 {
		t.Fatalf("Delhi-Mumbai distance %v km outside expected range", d)
	}
}

func TestHaversineShortHop(t *testing.T) {
	// Two points ~1.11 km apart along a meridian (0.01 degrees latitude).
	d := HaversineDistanceKm(28.60, 77.20, 28.61, 77.20)
	if d < 1.0 || d > 1.2 {
		t.Fatalf("short hop distance %v km outside expected range", d)
	}
}
