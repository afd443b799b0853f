package types

import (
	"time"

	"github.com/ozscope/airspace-stats/geo"
)

// PositionedEntity is one flight or radio station as seen in a single
// snapshot. Rebuilt from the feed every cycle; never persisted directly.
type PositionedEntity struct {
	Callsign  string
	Position  *geo.Point // nil when upstream gave no usable fix
	Altitude  *int       // feet MSL; nil when unknown
	Timestamp time.Time
}

// AltitudeOrZero returns the altitude sample, treating unknown as 0 ft.
func (e PositionedEntity) AltitudeOrZero() int {
	if e.Altitude == nil {
		return 0
	}
	return *e.Altitude
}
