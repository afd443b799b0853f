package types

import "time"

// EngineStats is a snapshot of the engine's internal counters, served by
// the status endpoint. Counts from FlightsSeen through ActiveSessions
// describe the most recent poll cycle; TotalSnapshots, SummariesWritten
// and InteractionsByType accumulate since start.
type EngineStats struct {
	StartTime          time.Time        `json:"start_time"`
	LastUpdate         time.Time        `json:"last_update"`
	TotalSnapshots     int64            `json:"total_snapshots"`
	FlightsSeen        int              `json:"flights_seen"`
	FlightsInBoundary  int              `json:"flights_in_boundary"`
	FlightsFiltered    int64            `json:"flights_filtered"`
	PassedUnverified   int64            `json:"passed_unverified"`
	ActiveControllers  int              `json:"active_controllers"`
	OpenOccupancies    int              `json:"open_occupancies"`
	ActiveSessions     int              `json:"active_sessions"`
	SummariesWritten   int64            `json:"summaries_written"`
	InteractionsByType map[string]int64 `json:"interactions_by_type"`
	LastCycleMillis    int64            `json:"last_cycle_ms"`
}
