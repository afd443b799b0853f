package summary

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ozscope/airspace-stats/atc"
	"github.com/ozscope/airspace-stats/contact"
	"github.com/ozscope/airspace-stats/sectors"
)

var t0 = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

func occupancy(sector string, start time.Time, minutes int) sectors.Occupancy {
	return sectors.Occupancy{
		Callsign:  "QFA1",
		Sector:    sector,
		EntryTime: start,
		ExitTime:  start.Add(time.Duration(minutes) * time.Minute),
	}
}

func contactRecords(n, airborne int) []contact.Record {
	recs := make([]contact.Record, n)
	for i := range recs {
		recs[i] = contact.Record{
			FlightCallsign:     "QFA1",
			ControllerCallsign: "ML-BIK_CTR",
			ControllerType:     atc.Center,
			Airborne:           i < airborne,
			Timestamp:          t0.Add(time.Duration(i) * time.Minute),
		}
	}
	return recs
}

func TestSectorBreakdownAndPrimarySector(t *testing.T) {
	in := Input{
		Callsign: "QFA1",
		Kind:     KindFlight,
		Start:    t0,
		End:      t0.Add(60 * time.Minute),
		Occupancies: []sectors.Occupancy{
			occupancy("ARL", t0, 5),
			occupancy("WOL", t0.Add(5*time.Minute), 45),
			occupancy("HUO", t0.Add(50*time.Minute), 10),
		},
		PollInterval: time.Minute,
	}

	sum, err := Summarize(in)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	want := map[string]int{"ARL": 5, "WOL": 45, "HUO": 10}
	if !reflect.DeepEqual(sum.SectorMinutes, want) {
		t.Errorf("sector minutes = %v, want %v", sum.SectorMinutes, want)
	}
	if sum.PrimarySector != "WOL" {
		t.Errorf("primary sector = %q, want WOL", sum.PrimarySector)
	}
	total := 0
	for _, m := range sum.SectorMinutes {
		total += m
	}
	if total != 60 {
		t.Errorf("total enroute minutes = %d, want 60", total)
	}
}

func TestCoverageFromContactCounts(t *testing.T) {
	in := Input{
		Callsign:        "QFA1",
		Kind:            KindFlight,
		Start:           t0,
		End:             t0.Add(60 * time.Minute),
		Contacts:        contactRecords(30, 20),
		PollInterval:    time.Minute,
		AirborneSeconds: 1800, // 30 airborne minutes
	}

	sum, err := Summarize(in)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.ContactMinutes != 30 {
		t.Errorf("contact minutes = %v, want 30 (count x interval)", sum.ContactMinutes)
	}
	if sum.CoveragePct != 50 {
		t.Errorf("coverage = %v%%, want 50", sum.CoveragePct)
	}
	if sum.AirborneContactMinutes != 20 {
		t.Errorf("airborne contact minutes = %v, want 20", sum.AirborneContactMinutes)
	}
	// 20 airborne contact minutes over 30 airborne minutes.
	if diff := sum.AirborneCoveragePct - 100*20.0/30.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("airborne coverage = %v%%, want %v", sum.AirborneCoveragePct, 100*20.0/30.0)
	}
	if !reflect.DeepEqual(sum.Controllers, []string{"ML-BIK_CTR"}) {
		t.Errorf("controllers = %v, want [ML-BIK_CTR]", sum.Controllers)
	}
}

func TestZeroAirborneTimeReportsZeroCoverage(t *testing.T) {
	in := Input{
		Callsign:        "QFA1",
		Kind:            KindFlight,
		Start:           t0,
		End:             t0.Add(30 * time.Minute),
		Contacts:        contactRecords(10, 0),
		PollInterval:    time.Minute,
		AirborneSeconds: 0,
	}

	sum, err := Summarize(in)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.AirborneCoveragePct != 0 {
		t.Errorf("airborne coverage with zero airborne time = %v, want exactly 0", sum.AirborneCoveragePct)
	}
}

func TestCoverageClampedToHundred(t *testing.T) {
	// Two controllers at once for the whole session: raw coverage would
	// be 200%.
	in := Input{
		Callsign:     "QFA1",
		Kind:         KindFlight,
		Start:        t0,
		End:          t0.Add(60 * time.Minute),
		Contacts:     contactRecords(120, 0),
		PollInterval: time.Minute,
	}

	sum, err := Summarize(in)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.CoveragePct != 100 {
		t.Errorf("coverage = %v%%, want clamp at 100", sum.CoveragePct)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	in := Input{
		Callsign:        "QFA1",
		Kind:            KindFlight,
		Start:           t0,
		End:             t0.Add(60 * time.Minute),
		Occupancies:     []sectors.Occupancy{occupancy("WOL", t0, 45)},
		Contacts:        contactRecords(12, 6),
		PollInterval:    time.Minute,
		AirborneSeconds: 900,
	}

	first, err := Summarize(in)
	if err != nil {
		t.Fatalf("first Summarize: %v", err)
	}
	second, err := Summarize(in)
	if err != nil {
		t.Fatalf("second Summarize: %v", err)
	}

	first.ID, second.ID = uuid.Nil, uuid.Nil
	if !reflect.DeepEqual(first, second) {
		t.Errorf("summaries differ for identical input:\n%+v\n%+v", first, second)
	}
}

func TestSummarizeRejectsBadSessions(t *testing.T) {
	if _, err := Summarize(Input{Callsign: "QFA1", Start: t0, End: t0, PollInterval: time.Minute}); err == nil {
		t.Error("expected error when end does not follow start")
	}
	if _, err := Summarize(Input{Callsign: "QFA1", Start: t0, End: t0.Add(time.Hour)}); err == nil {
		t.Error("expected error for zero poll interval")
	}
}
