package contact

import (
	"sync"
	"time"

	"github.com/ozscope/airspace-stats/atc"
	"github.com/ozscope/airspace-stats/geo"
)

// Sample is one transceiver observation: a station keyed on a tuned
// frequency at a reported position.
type Sample struct {
	Callsign  string
	Frequency int64 // Hz
	Position  *geo.Point
	Altitude  *int // feet; flights only
	Timestamp time.Time
}

// Record is one matched flight/controller contact for one poll cycle. The
// same record serves both directions of the relationship; matching is
// symmetric by construction.
type Record struct {
	FlightCallsign     string
	ControllerCallsign string
	ControllerType     atc.ControllerType
	FrequencyHz        int64
	DistanceNM         float64
	Airborne           bool
	Timestamp          time.Time
}

const airborneAltitudeFt = 1500

// Matcher pairs flights with ATC positions that share a frequency and sit
// within the controller type's proximity radius.
type Matcher struct {
	classifier *atc.Classifier

	mu      sync.Mutex
	perType map[string]int64
}

func NewMatcher(classifier *atc.Classifier) *Matcher {
	return &Matcher{
		classifier: classifier,
		perType:    make(map[string]int64),
	}
}

// pairKey identifies one flight/controller relationship on one frequency.
// Stations carry several transceivers, often tuned to the same frequency
// (remote transmitters for Center, COM1/COM2 for flights); all of a pair's
// sample combinations collapse into a single record per cycle, because
// contact minutes are derived from record counts.
type pairKey struct {
	flight     string
	controller string
	frequency  int64
}

// Match emits at most one record per (flight, controller, frequency) tuple
// whose samples share the frequency, were observed within the controller
// type's time window, and are within its radius; when several sample
// pairs qualify, the closest one is kept. A flight in a handoff can match
// several controllers in one cycle; each pair is independent. Pairs with
// no usable position on either side produce no record, which is a data
// gap, not an error.
func (m *Matcher) Match(flights, controllers []Sample) []Record {
	byFreq := make(map[int64][]Sample)
	for _, c := range controllers {
		byFreq[c.Frequency] = append(byFreq[c.Frequency], c)
	}

	best := make(map[pairKey]int)
	var records []Record
	for _, f := range flights {
		if f.Position == nil || !f.Position.Valid() {
			continue
		}
		for _, c := range byFreq[f.Frequency] {
			if c.Position == nil || !c.Position.Valid() {
				continue
			}
			profile := m.classifier.Classify(c.Callsign)
			delta := f.Timestamp.Sub(c.Timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta > profile.Window {
				continue
			}
			distance := geo.NMDistance(*f.Position, *c.Position)
			if distance > profile.RadiusNM {
				continue
			}
			rec := Record{
				FlightCallsign:     f.Callsign,
				ControllerCallsign: c.Callsign,
				ControllerType:     profile.Type,
				FrequencyHz:        f.Frequency,
				DistanceNM:         distance,
				Airborne:           f.Altitude != nil && *f.Altitude > airborneAltitudeFt,
				Timestamp:          f.Timestamp,
			}
			key := pairKey{f.Callsign, c.Callsign, f.Frequency}
			if i, seen := best[key]; seen {
				if distance < records[i].DistanceNM {
					records[i] = rec
				}
				continue
			}
			best[key] = len(records)
			records = append(records, rec)
		}
	}

	m.mu.Lock()
	for _, r := range records {
		m.perType[r.ControllerType.String()]++
	}
	m.mu.Unlock()

	return records
}

// CountsByType returns cumulative match counts keyed by controller type.
func (m *Matcher) CountsByType() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.perType))
	for k, v := range m.perType {
		out[k] = v
	}
	return out
}
