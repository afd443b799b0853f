package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

func InitDB() error {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error opening database: %v", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("error connecting to the database: %v", err)
	}

	if err = createTables(); err != nil {
		return fmt.Errorf("error creating tables: %v", err)
	}

	return nil
}

func createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			callsign VARCHAR(255) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			cid INTEGER NOT NULL DEFAULT 0,
			start_time TIMESTAMP WITH TIME ZONE NOT NULL,
			last_seen TIMESTAMP WITH TIME ZONE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS sector_occupancies (
			id BIGSERIAL PRIMARY KEY,
			callsign VARCHAR(255) NOT NULL,
			sector VARCHAR(32) NOT NULL,
			entry_time TIMESTAMP WITH TIME ZONE NOT NULL,
			exit_time TIMESTAMP WITH TIME ZONE NOT NULL,
			entry_lat DOUBLE PRECISION NOT NULL,
			entry_lon DOUBLE PRECISION NOT NULL,
			entry_alt INTEGER NOT NULL,
			exit_lat DOUBLE PRECISION NOT NULL,
			exit_lon DOUBLE PRECISION NOT NULL,
			exit_alt INTEGER NOT NULL,
			duration_seconds BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS atc_interactions (
			id BIGSERIAL PRIMARY KEY,
			flight_callsign VARCHAR(255) NOT NULL,
			controller_callsign VARCHAR(255) NOT NULL,
			controller_type VARCHAR(10) NOT NULL,
			frequency_hz BIGINT NOT NULL,
			distance_nm DOUBLE PRECISION NOT NULL,
			airborne BOOLEAN NOT NULL,
			observed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_summaries (
			id UUID PRIMARY KEY,
			callsign VARCHAR(255) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			start_time TIMESTAMP WITH TIME ZONE NOT NULL,
			end_time TIMESTAMP WITH TIME ZONE NOT NULL,
			sector_minutes JSONB NOT NULL,
			primary_sector VARCHAR(32),
			controllers TEXT[],
			contact_minutes DOUBLE PRECISION NOT NULL,
			airborne_contact_minutes DOUBLE PRECISION NOT NULL,
			coverage_pct DOUBLE PRECISION NOT NULL,
			airborne_coverage_pct DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_callsign ON sessions(callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_active ON sessions(active)`,
		`CREATE INDEX IF NOT EXISTS idx_occupancies_callsign ON sector_occupancies(callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_occupancies_sector ON sector_occupancies(sector)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_flight ON atc_interactions(flight_callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_controller ON atc_interactions(controller_callsign)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_callsign ON session_summaries(callsign)`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return err
		}
	}

	return nil
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
