package boundary

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/ozscope/airspace-stats/geo"
	"github.com/ozscope/airspace-stats/types"
)

// Filter keeps the entities whose position falls inside a reference
// polygon. Entities without a usable position pass through: an upstream
// data gap must not make a flight vanish from tracking.
type Filter struct {
	latencyBudget time.Duration

	included   atomic.Int64
	excluded   atomic.Int64
	unverified atomic.Int64
	lastMillis atomic.Int64

	cycleExcluded   atomic.Int64
	cycleUnverified atomic.Int64
}

func NewFilter(latencyBudget time.Duration) *Filter {
	return &Filter{latencyBudget: latencyBudget}
}

// Filter returns the entities inside poly plus all entities with no
// position. The input order is preserved.
func (f *Filter) Filter(entities []types.PositionedEntity, poly *geo.Polygon) []types.PositionedEntity {
	start := time.Now()

	var excluded, unverified int64
	kept := make([]types.PositionedEntity, 0, len(entities))
	for _, e := range entities {
		if e.Position == nil || !e.Position.Valid() {
			unverified++
			kept = append(kept, e)
			continue
		}
		if poly.Contains(*e.Position) {
			f.included.Add(1)
			kept = append(kept, e)
		} else {
			excluded++
		}
	}
	f.excluded.Add(excluded)
	f.unverified.Add(unverified)
	f.cycleExcluded.Store(excluded)
	f.cycleUnverified.Store(unverified)

	elapsed := time.Since(start)
	f.lastMillis.Store(elapsed.Milliseconds())
	if f.latencyBudget > 0 && elapsed > f.latencyBudget {
		log.Printf("Warning: boundary filter took %v for %d entities (budget %v)",
			elapsed, len(entities), f.latencyBudget)
	}

	return kept
}

// Counters returns cumulative included/excluded/unverified counts.
func (f *Filter) Counters() (included, excluded, unverified int64) {
	return f.included.Load(), f.excluded.Load(), f.unverified.Load()
}

// CycleCounters returns the excluded/unverified counts of the most
// recent Filter call only, matching the per-cycle figures in the
// status payload.
func (f *Filter) CycleCounters() (excluded, unverified int64) {
	return f.cycleExcluded.Load(), f.cycleUnverified.Load()
}
