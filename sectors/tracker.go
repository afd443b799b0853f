package sectors

import (
	"sync"
	"time"

	"github.com/ozscope/airspace-stats/geo"
	"github.com/ozscope/airspace-stats/polygons"
	"github.com/ozscope/airspace-stats/types"
)

// Occupancy is one closed visit to a sector: opened when the flight is
// first seen inside, closed when it is seen elsewhere or its session ends.
// Never mutated after Close.
type Occupancy struct {
	Callsign      string
	Sector        string
	EntryTime     time.Time
	ExitTime      time.Time
	EntryPosition geo.Point
	ExitPosition  geo.Point
	EntryAltitude int
	ExitAltitude  int
}

// DurationSeconds is the whole-second length of the visit.
func (o Occupancy) DurationSeconds() int64 {
	return int64(o.ExitTime.Sub(o.EntryTime).Seconds())
}

type openOccupancy struct {
	sector    string
	entryTime time.Time
	entryPos  geo.Point
	entryAlt  int

	// last known state, used to close the record when the flight
	// disappears rather than transitions.
	lastTime time.Time
	lastPos  geo.Point
	lastAlt  int
}

// Tracker runs the per-flight sector state machine. Each flight is either
// outside all sectors or inside exactly one; when a poll shows a different
// sector than the previous poll, the old visit closes and a new one opens.
// Update is called from the single polling goroutine; the read methods may
// be called concurrently from the API.
type Tracker struct {
	mu      sync.RWMutex
	sectors []*polygons.Sector // smallest area first
	open    map[string]*openOccupancy
}

func NewTracker(enroute []*polygons.Sector) *Tracker {
	return &Tracker{
		sectors: enroute,
		open:    make(map[string]*openOccupancy),
	}
}

// locate returns the sector containing p. With overlapping polygons the
// smallest sector wins; the slice is pre-sorted by area, so the first hit
// is the answer and the choice cannot flap between two sectors.
func (t *Tracker) locate(p geo.Point) string {
	for _, s := range t.sectors {
		if s.Polygon.Contains(p) {
			return s.Name
		}
	}
	return ""
}

// Update advances every flight's state machine by one poll and returns the
// visits that closed this cycle. Flights without a position this cycle
// keep their previous state; a flight that never produces a valid position
// never enters the machine at all.
func (t *Tracker) Update(flights []types.PositionedEntity) []Occupancy {
	t.mu.Lock()
	defer t.mu.Unlock()

	var closed []Occupancy
	for _, f := range flights {
		if f.Position == nil || !f.Position.Valid() {
			continue
		}
		pos := *f.Position
		alt := f.AltitudeOrZero()
		current := t.locate(pos)
		prev := t.open[f.Callsign]

		if prev != nil && prev.sector == current {
			prev.lastTime = f.Timestamp
			prev.lastPos = pos
			prev.lastAlt = alt
			continue
		}

		if prev != nil {
			if occ, ok := closeAt(f.Callsign, prev, f.Timestamp, pos, alt); ok {
				closed = append(closed, occ)
			}
			delete(t.open, f.Callsign)
		}
		if current != "" {
			t.open[f.Callsign] = &openOccupancy{
				sector:    current,
				entryTime: f.Timestamp,
				entryPos:  pos,
				entryAlt:  alt,
				lastTime:  f.Timestamp,
				lastPos:   pos,
				lastAlt:   alt,
			}
		}
	}
	return closed
}

// Complete ends a flight's session, closing any open visit at the last
// known position. Returns nil if the flight had no open visit.
func (t *Tracker) Complete(callsign string) *Occupancy {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.open[callsign]
	if !ok {
		return nil
	}
	delete(t.open, callsign)
	if occ, ok := closeAt(callsign, prev, prev.lastTime, prev.lastPos, prev.lastAlt); ok {
		return &occ
	}
	return nil
}

// closeAt builds the closed record. A visit whose exit does not strictly
// follow its entry (a flight gone within one poll of arriving) carries no
// measurable time and is dropped.
func closeAt(callsign string, open *openOccupancy, at time.Time, pos geo.Point, alt int) (Occupancy, bool) {
	if !at.After(open.entryTime) {
		return Occupancy{}, false
	}
	return Occupancy{
		Callsign:      callsign,
		Sector:        open.sector,
		EntryTime:     open.entryTime,
		ExitTime:      at,
		EntryPosition: open.entryPos,
		ExitPosition:  pos,
		EntryAltitude: open.entryAlt,
		ExitAltitude:  alt,
	}, true
}

// CurrentSectors returns a copy of the flight → sector mapping.
func (t *Tracker) CurrentSectors() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.open))
	for cs, o := range t.open {
		out[cs] = o.sector
	}
	return out
}

// OpenCount returns the number of flights currently inside a sector.
func (t *Tracker) OpenCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.open)
}
