package collector

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ozscope/airspace-stats/atc"
	"github.com/ozscope/airspace-stats/boundary"
	"github.com/ozscope/airspace-stats/config"
	"github.com/ozscope/airspace-stats/contact"
	"github.com/ozscope/airspace-stats/db"
	"github.com/ozscope/airspace-stats/geo"
	"github.com/ozscope/airspace-stats/polygons"
	"github.com/ozscope/airspace-stats/sectors"
	"github.com/ozscope/airspace-stats/services/feed"
	"github.com/ozscope/airspace-stats/summary"
	"github.com/ozscope/airspace-stats/types"
)

// observerFrequency is the placeholder frequency of positions that are not
// actually controlling.
const observerFrequency = "199.998"

const airborneAltitudeFt = 1500

// Collector drives one poll cycle of the engine: fetch the snapshot,
// filter to the airspace, advance sector state, match flight/ATC contacts
// and hand the cycle's records to the database in one batch. A separate,
// slower pass rolls completed sessions into summaries.
type Collector struct {
	cfg      config.Config
	feed     *feed.Client
	filter   *boundary.Filter
	airspace *geo.Polygon // nil when boundary filtering is disabled
	tracker  *sectors.Tracker
	matcher  *contact.Matcher

	lastUpdate string

	mu       sync.Mutex // guards sessions and stats
	sessions map[sessionKey]*session
	stats    types.EngineStats

	aggMu sync.Mutex // at most one aggregation pass at a time
}

type sessionKey struct {
	callsign string
	kind     summary.SessionKind
}

// session accumulates one flight's or controller's records between its
// first sighting and the inactivity cutoff.
type session struct {
	callsign        string
	kind            summary.SessionKind
	cid             int
	start           time.Time
	lastSeen        time.Time
	airborneSeconds int64
	occupancies     []sectors.Occupancy
	contacts        []contact.Record
}

func NewCollector(cfg config.Config, airspace *geo.Polygon, enroute []*polygons.Sector) *Collector {
	classifier := atc.NewClassifier(cfg.Profiles)
	return &Collector{
		cfg:      cfg,
		feed:     feed.NewClient(cfg.DataURL, cfg.TransceiversURL),
		filter:   boundary.NewFilter(cfg.FilterLatencyBudget),
		airspace: airspace,
		tracker:  sectors.NewTracker(enroute),
		matcher:  contact.NewMatcher(classifier),
		sessions: make(map[sessionKey]*session),
		stats: types.EngineStats{
			StartTime: time.Now(),
		},
	}
}

// Poll runs one full cycle. An unchanged snapshot is skipped outright. A
// cycle that overruns the poll interval is logged and allowed to finish:
// partial results beat dropped cycles, and all record creation happens
// after the computation so an abandoned cycle leaves nothing half-written.
func (c *Collector) Poll() error {
	data, err := c.feed.FetchData()
	if err != nil {
		return fmt.Errorf("error fetching snapshot: %v", err)
	}
	if data.General.Update == c.lastUpdate {
		return nil
	}

	transceivers, err := c.feed.FetchTransceivers()
	if err != nil {
		return fmt.Errorf("error fetching transceivers: %v", err)
	}

	cycleStart := time.Now()

	flights := flightEntities(data.Pilots)
	inBoundary := flights
	if c.airspace != nil {
		inBoundary = c.filter.Filter(flights, c.airspace)
	}
	byCallsign := make(map[string]types.PositionedEntity, len(inBoundary))
	for _, f := range inBoundary {
		byCallsign[f.Callsign] = f
	}

	controllers := activeControllers(data.Controllers)

	closed := c.tracker.Update(inBoundary)

	flightSamples := flightContactSamples(inBoundary, transceivers)
	atcSamples := controllerContactSamples(controllers, transceivers)
	matched := c.matcher.Match(flightSamples, atcSamples)

	c.updateSessions(data, byCallsign, controllers, closed, matched)

	sightings := sessionSightings(data.Pilots, byCallsign, controllers)
	if err := db.StoreCycle(closed, matched, sightings); err != nil {
		return fmt.Errorf("error storing cycle records: %v", err)
	}

	elapsed := time.Since(cycleStart)
	c.finishCycle(len(flights), len(inBoundary), len(controllers), elapsed)

	if elapsed > c.cfg.UpdateInterval {
		log.Printf("Warning: poll cycle took %v, longer than the %v interval", elapsed, c.cfg.UpdateInterval)
	}

	c.lastUpdate = data.General.Update
	return nil
}

// flightEntities converts pilot records to positioned entities. A (0,0)
// fix is the feed's stand-in for no position and becomes a nil position so
// downstream components apply their pass-through policies.
func flightEntities(pilots []types.Pilot) []types.PositionedEntity {
	entities := make([]types.PositionedEntity, 0, len(pilots))
	for _, p := range pilots {
		e := types.PositionedEntity{
			Callsign:  p.Callsign,
			Timestamp: p.LastUpdated,
		}
		if p.Latitude != 0 || p.Longitude != 0 {
			pos := geo.Point{Lon: p.Longitude, Lat: p.Latitude}
			if pos.Valid() {
				e.Position = &pos
			}
		}
		alt := p.Altitude
		e.Altitude = &alt
		entities = append(entities, e)
	}
	return entities
}

// activeControllers drops ATIS broadcasts and observer connections; only
// positions actually working a frequency take part in contact matching.
func activeControllers(all []types.Controller) []types.Controller {
	active := make([]types.Controller, 0, len(all))
	for _, ctrl := range all {
		if len(ctrl.TextAtis) > 0 && strings.Contains(ctrl.Callsign, "_ATIS") {
			continue
		}
		if ctrl.Frequency == "" || ctrl.Frequency == observerFrequency {
			continue
		}
		active = append(active, ctrl)
	}
	return active
}

func flightContactSamples(flights []types.PositionedEntity, transceivers map[string]types.TransceiverSet) []contact.Sample {
	var samples []contact.Sample
	for _, f := range flights {
		set, ok := transceivers[f.Callsign]
		if !ok {
			continue
		}
		for _, tr := range set.Transceivers {
			samples = append(samples, contact.Sample{
				Callsign:  f.Callsign,
				Frequency: tr.Frequency,
				Position:  f.Position,
				Altitude:  f.Altitude,
				Timestamp: f.Timestamp,
			})
		}
	}
	return samples
}

func controllerContactSamples(controllers []types.Controller, transceivers map[string]types.TransceiverSet) []contact.Sample {
	var samples []contact.Sample
	for _, ctrl := range controllers {
		set, ok := transceivers[ctrl.Callsign]
		if !ok {
			continue
		}
		for _, tr := range set.Transceivers {
			pos := geo.Point{Lon: tr.LonDeg, Lat: tr.LatDeg}
			sample := contact.Sample{
				Callsign:  ctrl.Callsign,
				Frequency: tr.Frequency,
				Timestamp: ctrl.LastUpdated,
			}
			if pos.Valid() && (pos.Lat != 0 || pos.Lon != 0) {
				sample.Position = &pos
			}
			samples = append(samples, sample)
		}
	}
	return samples
}

// updateSessions refreshes the in-memory session set with this cycle's
// sightings and distributes the new records to their owning sessions.
func (c *Collector) updateSessions(data *types.VatsimData, flights map[string]types.PositionedEntity,
	controllers []types.Controller, closed []sectors.Occupancy, matched []contact.Record) {

	intervalSeconds := int64(c.cfg.UpdateInterval / time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range data.Pilots {
		f, ok := flights[p.Callsign]
		if !ok {
			continue
		}
		s := c.ensureSession(sessionKey{p.Callsign, summary.KindFlight}, p.CID, p.LogonTime)
		s.lastSeen = p.LastUpdated
		if f.Altitude != nil && *f.Altitude > airborneAltitudeFt {
			s.airborneSeconds += intervalSeconds
		}
	}
	for _, ctrl := range controllers {
		s := c.ensureSession(sessionKey{ctrl.Callsign, summary.KindController}, ctrl.CID, ctrl.LogonTime)
		s.lastSeen = ctrl.LastUpdated
	}

	for _, occ := range closed {
		if s, ok := c.sessions[sessionKey{occ.Callsign, summary.KindFlight}]; ok {
			s.occupancies = append(s.occupancies, occ)
		}
	}
	for _, rec := range matched {
		if s, ok := c.sessions[sessionKey{rec.FlightCallsign, summary.KindFlight}]; ok {
			s.contacts = append(s.contacts, rec)
		}
		if s, ok := c.sessions[sessionKey{rec.ControllerCallsign, summary.KindController}]; ok {
			s.contacts = append(s.contacts, rec)
		}
	}
}

// sessionSightings lists the last-seen refreshes for every session
// observed this cycle, stored with the cycle's records so the active rows
// stay current between open and close.
func sessionSightings(pilots []types.Pilot, flights map[string]types.PositionedEntity,
	controllers []types.Controller) []db.SessionSighting {

	out := make([]db.SessionSighting, 0, len(flights)+len(controllers))
	for _, p := range pilots {
		if _, ok := flights[p.Callsign]; !ok {
			continue
		}
		out = append(out, db.SessionSighting{
			Callsign: p.Callsign,
			Kind:     string(summary.KindFlight),
			LastSeen: p.LastUpdated,
		})
	}
	for _, ctrl := range controllers {
		out = append(out, db.SessionSighting{
			Callsign: ctrl.Callsign,
			Kind:     string(summary.KindController),
			LastSeen: ctrl.LastUpdated,
		})
	}
	return out
}

// ensureSession must be called with c.mu held.
func (c *Collector) ensureSession(key sessionKey, cid int, logon time.Time) *session {
	if s, ok := c.sessions[key]; ok {
		return s
	}
	start := logon
	if start.IsZero() {
		start = time.Now()
	}
	s := &session{
		callsign: key.callsign,
		kind:     key.kind,
		cid:      cid,
		start:    start,
		lastSeen: start,
	}
	c.sessions[key] = s
	if err := db.OpenSession(key.callsign, string(key.kind), cid, start, start); err != nil {
		log.Printf("Error opening session for %s: %v", key.callsign, err)
	}
	return s
}

func (c *Collector) finishCycle(seen, inBoundary, controllers int, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	excluded, unverified := c.filter.CycleCounters()
	c.stats.LastUpdate = time.Now()
	c.stats.TotalSnapshots++
	c.stats.FlightsSeen = seen
	c.stats.FlightsInBoundary = inBoundary
	c.stats.FlightsFiltered = excluded
	c.stats.PassedUnverified = unverified
	c.stats.ActiveControllers = controllers
	c.stats.OpenOccupancies = c.tracker.OpenCount()
	c.stats.ActiveSessions = len(c.sessions)
	c.stats.InteractionsByType = c.matcher.CountsByType()
	c.stats.LastCycleMillis = elapsed.Milliseconds()

	log.Printf("Cycle update: flights %d (%d in boundary), controllers %d, open occupancies %d, sessions %d, took %v",
		seen, inBoundary, controllers, c.stats.OpenOccupancies, c.stats.ActiveSessions, elapsed.Round(time.Millisecond))
}

// Aggregate rolls every session past the inactivity cutoff into a summary
// and archives it. At most one pass runs at a time; a pass that finds the
// previous one still running simply skips its turn. One bad session is
// logged and skipped without blocking the rest of the pass.
func (c *Collector) Aggregate() {
	if !c.aggMu.TryLock() {
		log.Printf("Warning: aggregation pass still running, skipping this round")
		return
	}
	defer c.aggMu.Unlock()

	cutoff := time.Now().Add(-c.cfg.SessionTimeout)

	c.mu.Lock()
	var complete []*session
	for key, s := range c.sessions {
		if s.lastSeen.Before(cutoff) {
			complete = append(complete, s)
			delete(c.sessions, key)
		}
	}
	c.mu.Unlock()

	if len(complete) == 0 {
		return
	}

	archived := 0
	for _, s := range complete {
		if err := c.summarizeSession(s); err != nil {
			log.Printf("Error summarizing session %s (%s): %v", s.callsign, s.kind, err)
			continue
		}
		archived++
	}

	c.mu.Lock()
	c.stats.SummariesWritten += int64(archived)
	c.mu.Unlock()

	log.Printf("Aggregation pass: %d sessions complete, %d summaries archived", len(complete), archived)
}

func (c *Collector) summarizeSession(s *session) error {
	if s.kind == summary.KindFlight {
		if final := c.tracker.Complete(s.callsign); final != nil {
			s.occupancies = append(s.occupancies, *final)
			if err := db.StoreCycle([]sectors.Occupancy{*final}, nil, nil); err != nil {
				return err
			}
		}
	}

	sum, err := summary.Summarize(summary.Input{
		Callsign:        s.callsign,
		Kind:            s.kind,
		Start:           s.start,
		End:             s.lastSeen,
		Occupancies:     s.occupancies,
		Contacts:        s.contacts,
		PollInterval:    c.cfg.UpdateInterval,
		AirborneSeconds: s.airborneSeconds,
	})
	if err != nil {
		return err
	}

	if err := db.ArchiveSummary(sum); err != nil {
		return err
	}
	return db.CloseSession(s.callsign, string(s.kind), s.lastSeen)
}

// GetStats returns a copy of the engine counters.
func (c *Collector) GetStats() types.EngineStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// CurrentSectors returns the live flight → sector mapping.
func (c *Collector) CurrentSectors() map[string]string {
	return c.tracker.CurrentSectors()
}
