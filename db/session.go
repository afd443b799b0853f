package db

import "time"

// OpenSession records a newly seen flight or controller, or refreshes the
// last-seen time of one already active. Upsert keyed on the active row so
// a reconnect after the inactivity window starts a fresh session row.
func OpenSession(callsign, kind string, cid int, start, lastSeen time.Time) error {
	res, err := DB.Exec(`
		UPDATE sessions SET last_seen = $1
		WHERE callsign = $2 AND kind = $3 AND active
	`, lastSeen, callsign, kind)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = DB.Exec(`
		INSERT INTO sessions (callsign, kind, cid, start_time, last_seen, active)
		VALUES ($1, $2, $3, $4, $5, true)
	`, callsign, kind, cid, start, lastSeen)
	return err
}

// SessionSighting marks one session as seen during a poll cycle; the
// batch of a cycle's sightings is written alongside its records so the
// active rows' last_seen stays current for the whole session.
type SessionSighting struct {
	Callsign string
	Kind     string
	LastSeen time.Time
}

// ExpireStaleSessions closes active rows last seen before the cutoff.
// Run at startup: rows left active by an earlier process must not be
// merged into the new process's sessions once they are past the
// inactivity window.
func ExpireStaleSessions(cutoff time.Time) (int64, error) {
	res, err := DB.Exec(`
		UPDATE sessions SET active = false
		WHERE active AND last_seen < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CloseSession marks a session inactive at its completion time.
func CloseSession(callsign, kind string, end time.Time) error {
	_, err := DB.Exec(`
		UPDATE sessions SET active = false, last_seen = $1
		WHERE callsign = $2 AND kind = $3 AND active
	`, end, callsign, kind)
	return err
}
