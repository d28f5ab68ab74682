package models

import (
	"errors"
	"testing"
)

func TestParseActivityType(t *testing.T) {
	cases := map[string]ActivityType{
		"":       ActivityRun,
		"run":    ActivityRun,
		"Walk":   ActivityWalk,
		" bike ": ActivityBike,
		"hike":   ActivityHike,
	}
	for in, want := range cases {
		got, err := ParseActivityType(in)
		if err != nil {
			t.Fatalf("ParseActivityType(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseActivityType(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseActivityType("swim"); !errors.Is(err, ErrInvalidActivityType) {
		t.Fatalf("expected ErrInvalidActivityType, got %v", err)
	}
}

func TestAverageSpeedKmh(t *testing.T) {
	if got := AverageSpeedKmh(10, 3600); got != 10 {
		t.Errorf("expected 10 km/h, got %v", got)
	}
	if got := AverageSpeedKmh(10, 0); got != 0 {
		t.Errorf("expected 0 for zero duration, got %v", got)
	}
	if got := AverageSpeedKmh(10, -5); got != 0 {
		t.Errorf("expected 0 for negative duration, got %v", got)
	}
}

func TestNewActivitySummary(t *testing.T) {
	s := NewActivitySummary(7, 5, 1800, nil)
	if s.SessionID != 7 || s.AvgSpeedKmh != 10 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestRouteRegion(t *testing.T) {
	a := Activity{Polyline: []RoutePoint{
		{Latitude: 48.0, Longitude: 2.0},
		{Latitude: 48.2, Longitude: 2.4},
	}}
	r := a.RouteRegion()
	if r.Latitude < 48.099 || r.Latitude > 48.101 {
		t.Errorf("center latitude = %v, want 48.1", r.Latitude)
	}
	if r.LongitudeDelta < 0.599 || r.LongitudeDelta > 0.601 {
		t.Errorf("longitude delta = %v, want 0.6", r.LongitudeDelta)
	}

	if empty := (Activity{}).RouteRegion(); empty.LatitudeDelta != 0.05 {
		t.Errorf("empty route should use the default region, got %+v", empty)
	}
}
