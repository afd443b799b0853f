package contact

import (
	"math"
	"testing"
	"time"

	"github.com/ozscope/airspace-stats/atc"
	"github.com/ozscope/airspace-stats/config"
	"github.com/ozscope/airspace-stats/geo"
)

func newTestMatcher() *Matcher {
	return NewMatcher(atc.NewClassifier(config.DefaultProfiles()))
}

func point(lon, lat float64) *geo.Point {
	return &geo.Point{Lon: lon, Lat: lat}
}

func intp(v int) *int { return &v }

const testFreq = 125_500_000 // Hz

func flightSample(callsign string, pos *geo.Point, alt *int, ts time.Time) Sample {
	return Sample{Callsign: callsign, Frequency: testFreq, Position: pos, Altitude: alt, Timestamp: ts}
}

func atcSample(callsign string, pos *geo.Point, ts time.Time) Sample {
	return Sample{Callsign: callsign, Frequency: testFreq, Position: pos, Timestamp: ts}
}

func TestRadiusSelectsByControllerType(t *testing.T) {
	now := time.Now()
	// Tower (15 nm radius) and Center (400 nm) on the same frequency,
	// both ~100 nm north of the flight: only Center is in range.
	flight := flightSample("QFA1", point(151, -33.9), intp(35000), now)
	tower := atcSample("SY_TWR", point(151, -32.2333), now)
	center := atcSample("ML-BIK_CTR", point(151, -32.2333), now)

	records := newTestMatcher().Match([]Sample{flight}, []Sample{tower, center})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ControllerCallsign != "ML-BIK_CTR" || rec.ControllerType != atc.Center {
		t.Errorf("matched %s (%v), want ML-BIK_CTR (CTR)", rec.ControllerCallsign, rec.ControllerType)
	}
	if math.Abs(rec.DistanceNM-100) > 1 {
		t.Errorf("distance = %.2f nm, want ~100 nm", rec.DistanceNM)
	}
	if !rec.Airborne {
		t.Error("flight at 35000 ft must be airborne")
	}
}

func TestMatchIsSymmetric(t *testing.T) {
	now := time.Now()
	flights := []Sample{
		flightSample("QFA1", point(151, -33.9), intp(35000), now),
		flightSample("VOZ2", point(150, -34.5), intp(2000), now),
	}
	controllers := []Sample{
		atcSample("ML-BIK_CTR", point(149, -33), now),
		atcSample("SY_APP", point(151.2, -33.9), now),
	}

	classifier := atc.NewClassifier(config.DefaultProfiles())
	records := newTestMatcher().Match(flights, controllers)
	if len(records) == 0 {
		t.Fatal("expected matches")
	}

	// Every record reports identical values whether read from the flight
	// side or the controller side: one record serves both directions, and
	// its type and distance agree with direct computation.
	for _, rec := range records {
		if got := classifier.Classify(rec.ControllerCallsign).Type; got != rec.ControllerType {
			t.Errorf("record type %v disagrees with classifier %v for %s",
				rec.ControllerType, got, rec.ControllerCallsign)
		}
		var f, c *Sample
		for i := range flights {
			if flights[i].Callsign == rec.FlightCallsign {
				f = &flights[i]
			}
		}
		for i := range controllers {
			if controllers[i].Callsign == rec.ControllerCallsign {
				c = &controllers[i]
			}
		}
		if f == nil || c == nil {
			t.Fatalf("record references unknown pair %s/%s", rec.FlightCallsign, rec.ControllerCallsign)
		}
		forward := geo.NMDistance(*f.Position, *c.Position)
		backward := geo.NMDistance(*c.Position, *f.Position)
		if forward != backward || math.Abs(rec.DistanceNM-forward) > 1e-9 {
			t.Errorf("distance asymmetry for %s/%s: record %v, forward %v, backward %v",
				rec.FlightCallsign, rec.ControllerCallsign, rec.DistanceNM, forward, backward)
		}
	}
}

func TestTimeWindowExcludesStaleSamples(t *testing.T) {
	now := time.Now()
	flight := flightSample("QFA1", point(151, -33.9), intp(35000), now)
	// 5 nm away but observed 10 minutes apart; Tower's 60s window excludes it.
	tower := atcSample("SY_TWR", point(151, -33.8167), now.Add(-10*time.Minute))

	if records := newTestMatcher().Match([]Sample{flight}, []Sample{tower}); len(records) != 0 {
		t.Fatalf("expected no records outside the time window, got %d", len(records))
	}
}

func TestAirborneFlag(t *testing.T) {
	now := time.Now()
	controller := atcSample("ML-BIK_CTR", point(151, -33.9), now)

	testCases := []struct {
		name     string
		altitude *int
		airborne bool
	}{
		{"Cruise", intp(35000), true},
		{"JustAboveThreshold", intp(1501), true},
		{"AtThreshold", intp(1500), false},
		{"OnGround", intp(0), false},
		{"MissingAltitude", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flight := flightSample("QFA1", point(151, -33.9), tc.altitude, now)
			records := newTestMatcher().Match([]Sample{flight}, []Sample{controller})
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			if records[0].Airborne != tc.airborne {
				t.Errorf("airborne = %v, want %v", records[0].Airborne, tc.airborne)
			}
		})
	}
}

func TestMissingDataProducesNoRecord(t *testing.T) {
	now := time.Now()
	m := newTestMatcher()

	// Flight with no position.
	if records := m.Match(
		[]Sample{flightSample("QFA1", nil, intp(35000), now)},
		[]Sample{atcSample("ML-BIK_CTR", point(151, -33.9), now)},
	); len(records) != 0 {
		t.Errorf("flight without position matched %d records", len(records))
	}

	// Controller with no position.
	if records := m.Match(
		[]Sample{flightSample("QFA1", point(151, -33.9), intp(35000), now)},
		[]Sample{atcSample("ML-BIK_CTR", nil, now)},
	); len(records) != 0 {
		t.Errorf("controller without position matched %d records", len(records))
	}

	// No shared frequency.
	far := Sample{Callsign: "ML-BIK_CTR", Frequency: 118_700_000, Position: point(151, -33.9), Timestamp: now}
	if records := m.Match(
		[]Sample{flightSample("QFA1", point(151, -33.9), intp(35000), now)},
		[]Sample{far},
	); len(records) != 0 {
		t.Errorf("mismatched frequencies matched %d records", len(records))
	}
}

func TestHandoffMatchesMultipleControllers(t *testing.T) {
	now := time.Now()
	flight := flightSample("QFA1", point(150, -34), intp(35000), now)
	controllers := []Sample{
		atcSample("ML-BIK_CTR", point(149, -34), now),
		atcSample("BN-TSN_CTR", point(151, -34), now),
	}

	records := newTestMatcher().Match([]Sample{flight}, controllers)
	if len(records) != 2 {
		t.Fatalf("expected 2 records during handoff, got %d", len(records))
	}
}

func TestSameFrequencyTransceiversCollapseToOneRecord(t *testing.T) {
	now := time.Now()
	flight := flightSample("QFA1", point(150, -34), intp(35000), now)
	// Center station with two remote transmitters tuned to the same
	// frequency: the pair must yield a single record, kept at the
	// closer transmitter's distance, or contact minutes double.
	controllers := []Sample{
		atcSample("ML-BIK_CTR", point(152, -34), now),
		atcSample("ML-BIK_CTR", point(149, -34), now),
	}

	m := newTestMatcher()
	records := m.Match([]Sample{flight}, controllers)
	if len(records) != 1 {
		t.Fatalf("pair QFA1/ML-BIK_CTR produced %d records in one cycle, want 1", len(records))
	}
	near := geo.NMDistance(geo.Point{Lon: 150, Lat: -34}, geo.Point{Lon: 149, Lat: -34})
	if math.Abs(records[0].DistanceNM-near) > 0.01 {
		t.Errorf("kept distance %.2f nm, want closest transmitter at %.2f nm", records[0].DistanceNM, near)
	}
	if counts := m.CountsByType(); counts["CTR"] != 1 {
		t.Errorf("CTR count = %d, want 1", counts["CTR"])
	}

	// Flight side behaves the same: COM1 and COM2 on one frequency.
	records = newTestMatcher().Match(
		[]Sample{flight, flightSample("QFA1", point(150.1, -34), intp(35000), now)},
		[]Sample{atcSample("ML-BIK_CTR", point(149, -34), now)},
	)
	if len(records) != 1 {
		t.Fatalf("duplicate flight radios produced %d records, want 1", len(records))
	}
}
