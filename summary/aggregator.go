package summary

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ozscope/airspace-stats/contact"
	"github.com/ozscope/airspace-stats/sectors"
)

type SessionKind string

const (
	KindFlight     SessionKind = "flight"
	KindController SessionKind = "controller"
)

// Input is everything known about one completed session: its closed
// sector visits, its per-cycle contact records, and the airborne time the
// collector accumulated while the session ran.
type Input struct {
	Callsign        string
	Kind            SessionKind
	Start           time.Time
	End             time.Time
	Occupancies     []sectors.Occupancy
	Contacts        []contact.Record
	PollInterval    time.Duration
	AirborneSeconds int64 // session seconds with altitude above 1500 ft
}

// Summary is the rolled-up record archived for one session. Immutable
// once built.
type Summary struct {
	ID                     uuid.UUID      `json:"id"`
	Callsign               string         `json:"callsign"`
	Kind                   SessionKind    `json:"kind"`
	Start                  time.Time      `json:"start"`
	End                    time.Time      `json:"end"`
	SectorMinutes          map[string]int `json:"sector_minutes"`
	PrimarySector          string         `json:"primary_sector,omitempty"`
	Controllers            []string       `json:"controllers"`
	ContactMinutes         float64        `json:"contact_minutes"`
	AirborneContactMinutes float64        `json:"airborne_contact_minutes"`
	CoveragePct            float64        `json:"coverage_pct"`
	AirborneCoveragePct    float64        `json:"airborne_coverage_pct"`
}

// Summarize reduces one session's records to a Summary. It is a pure
// reduction: the same input always produces the same summary (the ID
// aside) and no external state is consulted.
//
// Contact minutes are record count times the poll interval, not wall-clock
// spans between first and last contact; sparse sampling would make spans
// overstate coverage. Coverage percentages are clamped to [0, 100], and a
// session with no airborne time reports 0 airborne coverage rather than a
// division error.
func Summarize(in Input) (Summary, error) {
	if !in.End.After(in.Start) {
		return Summary{}, fmt.Errorf("session %s: end %v does not follow start %v", in.Callsign, in.End, in.Start)
	}
	if in.PollInterval <= 0 {
		return Summary{}, fmt.Errorf("session %s: poll interval must be positive", in.Callsign)
	}

	sectorMinutes := make(map[string]int)
	for _, occ := range in.Occupancies {
		if occ.DurationSeconds() < 0 {
			return Summary{}, fmt.Errorf("session %s: occupancy in %s has negative duration", in.Callsign, occ.Sector)
		}
		sectorMinutes[occ.Sector] += int(math.Round(float64(occ.DurationSeconds()) / 60))
	}

	intervalMinutes := in.PollInterval.Minutes()
	contactMinutes := float64(len(in.Contacts)) * intervalMinutes
	airborneContacts := 0
	controllerSet := make(map[string]bool)
	for _, r := range in.Contacts {
		if r.Airborne {
			airborneContacts++
		}
		controllerSet[r.ControllerCallsign] = true
	}
	airborneContactMinutes := float64(airborneContacts) * intervalMinutes

	sessionMinutes := in.End.Sub(in.Start).Minutes()
	airborneMinutes := float64(in.AirborneSeconds) / 60

	controllers := make([]string, 0, len(controllerSet))
	for cs := range controllerSet {
		controllers = append(controllers, cs)
	}
	sort.Strings(controllers)

	return Summary{
		ID:                     uuid.New(),
		Callsign:               in.Callsign,
		Kind:                   in.Kind,
		Start:                  in.Start,
		End:                    in.End,
		SectorMinutes:          sectorMinutes,
		PrimarySector:          primarySector(sectorMinutes),
		Controllers:            controllers,
		ContactMinutes:         contactMinutes,
		AirborneContactMinutes: airborneContactMinutes,
		CoveragePct:            coverage(contactMinutes, sessionMinutes),
		AirborneCoveragePct:    coverage(airborneContactMinutes, airborneMinutes),
	}, nil
}

// primarySector is the arg-max of the breakdown; ties break on name so the
// result is stable.
func primarySector(minutes map[string]int) string {
	best, bestMinutes := "", -1
	for name, m := range minutes {
		if m > bestMinutes || (m == bestMinutes && name < best) {
			best, bestMinutes = name, m
		}
	}
	return best
}

func coverage(contactMinutes, totalMinutes float64) float64 {
	if totalMinutes <= 0 {
		return 0
	}
	pct := contactMinutes / totalMinutes * 100
	return math.Min(100, math.Max(0, pct))
}
