package db

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/ozscope/airspace-stats/contact"
	"github.com/ozscope/airspace-stats/sectors"
	"github.com/ozscope/airspace-stats/summary"
)

// StoreCycle writes one poll cycle's closed occupancies, interaction
// records and session sightings in a single transaction. Grouping the
// cycle's small writes into one transaction keeps the poll loop from
// contending with the aggregation pass for connections.
func StoreCycle(occupancies []sectors.Occupancy, interactions []contact.Record, sightings []SessionSighting) error {
	if len(occupancies) == 0 && len(interactions) == 0 && len(sightings) == 0 {
		return nil
	}

	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, occ := range occupancies {
		_, err = tx.Exec(`
			INSERT INTO sector_occupancies (
				callsign, sector, entry_time, exit_time,
				entry_lat, entry_lon, entry_alt,
				exit_lat, exit_lon, exit_alt, duration_seconds
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, occ.Callsign, occ.Sector, occ.EntryTime, occ.ExitTime,
			occ.EntryPosition.Lat, occ.EntryPosition.Lon, occ.EntryAltitude,
			occ.ExitPosition.Lat, occ.ExitPosition.Lon, occ.ExitAltitude,
			occ.DurationSeconds())
		if err != nil {
			return err
		}
	}

	for _, rec := range interactions {
		_, err = tx.Exec(`
			INSERT INTO atc_interactions (
				flight_callsign, controller_callsign, controller_type,
				frequency_hz, distance_nm, airborne, observed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rec.FlightCallsign, rec.ControllerCallsign, rec.ControllerType.String(),
			rec.FrequencyHz, rec.DistanceNM, rec.Airborne, rec.Timestamp)
		if err != nil {
			return err
		}
	}

	for _, s := range sightings {
		_, err = tx.Exec(`
			UPDATE sessions SET last_seen = $1
			WHERE callsign = $2 AND kind = $3 AND active
		`, s.LastSeen, s.Callsign, s.Kind)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ArchiveSummary writes a completed session's summary and prunes that
// session's raw detail rows in the same transaction; once the summary
// exists the per-cycle records have served their purpose.
func ArchiveSummary(sum summary.Summary) error {
	breakdown, err := json.Marshal(sum.SectorMinutes)
	if err != nil {
		return err
	}

	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO session_summaries (
			id, callsign, kind, start_time, end_time,
			sector_minutes, primary_sector, controllers,
			contact_minutes, airborne_contact_minutes,
			coverage_pct, airborne_coverage_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, sum.ID, sum.Callsign, string(sum.Kind), sum.Start, sum.End,
		breakdown, sum.PrimarySector, pq.Array(sum.Controllers),
		sum.ContactMinutes, sum.AirborneContactMinutes,
		sum.CoveragePct, sum.AirborneCoveragePct)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM sector_occupancies
		WHERE callsign = $1 AND entry_time >= $2 AND exit_time <= $3
	`, sum.Callsign, sum.Start, sum.End)
	if err != nil {
		return err
	}

	column := "flight_callsign"
	if sum.Kind == summary.KindController {
		column = "controller_callsign"
	}
	_, err = tx.Exec(`
		DELETE FROM atc_interactions
		WHERE `+column+` = $1 AND observed_at >= $2 AND observed_at <= $3
	`, sum.Callsign, sum.Start, sum.End)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SummaryRow is the API-facing shape of an archived summary.
type SummaryRow struct {
	ID                     string         `json:"id"`
	Callsign               string         `json:"callsign"`
	Kind                   string         `json:"kind"`
	Start                  time.Time      `json:"start"`
	End                    time.Time      `json:"end"`
	SectorMinutes          map[string]int `json:"sector_minutes"`
	PrimarySector          string         `json:"primary_sector"`
	Controllers            []string       `json:"controllers"`
	ContactMinutes         float64        `json:"contact_minutes"`
	AirborneContactMinutes float64        `json:"airborne_contact_minutes"`
	CoveragePct            float64        `json:"coverage_pct"`
	AirborneCoveragePct    float64        `json:"airborne_coverage_pct"`
}

// SummariesForCallsign returns archived summaries for one callsign, most
// recent first.
func SummariesForCallsign(callsign string, limit int) ([]SummaryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := DB.Query(`
		SELECT id, callsign, kind, start_time, end_time,
			sector_minutes, COALESCE(primary_sector, ''), controllers,
			contact_minutes, airborne_contact_minutes,
			coverage_pct, airborne_coverage_pct
		FROM session_summaries
		WHERE callsign = $1
		ORDER BY end_time DESC
		LIMIT $2
	`, callsign, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		var breakdown []byte
		if err := rows.Scan(&r.ID, &r.Callsign, &r.Kind, &r.Start, &r.End,
			&breakdown, &r.PrimarySector, pq.Array(&r.Controllers),
			&r.ContactMinutes, &r.AirborneContactMinutes,
			&r.CoveragePct, &r.AirborneCoveragePct); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(breakdown, &r.SectorMinutes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
