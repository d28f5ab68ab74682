package models

// GlobalStats aggregates every finalized activity
type GlobalStats struct {
	TotalActivities      int64   `json:"totalActivities"`
	TotalDistanceKm      float64 `json:"totalDistanceKm"`
	TotalDurationSeconds float64 `json:"totalDurationSeconds"`
}
