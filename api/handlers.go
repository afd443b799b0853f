package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/ozscope/airspace-stats/db"
	"github.com/ozscope/airspace-stats/polygons"
)

// GetStatus serves the engine's counters.
func GetStatus(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, engine.GetStats())
	}
}

// GetFlightSectors serves the live flight → sector mapping.
func GetFlightSectors(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, engine.CurrentSectors())
	}
}

type sectorInfo struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Vertices int     `json:"vertices"`
	Area     float64 `json:"area_steradians"`
}

// GetSectors lists the loaded enroute sectors.
func GetSectors(sectors []*polygons.Sector) http.HandlerFunc {
	out := make([]sectorInfo, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, sectorInfo{
			Name:     s.Name,
			Type:     s.Type,
			Vertices: len(s.Polygon.Vertices()),
			Area:     s.Polygon.Area(),
		})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, out)
	}
}

// GetSummaries serves archived session summaries for one callsign.
func GetSummaries(w http.ResponseWriter, r *http.Request) {
	callsign := mux.Vars(r)["callsign"]
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	rows, err := db.SummariesForCallsign(callsign, limit)
	if err != nil {
		log.Printf("Error fetching summaries for %s: %v", callsign, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []db.SummaryRow{}
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
