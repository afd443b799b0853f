package api

import (
	"github.com/gorilla/mux"
	"github.com/ozscope/airspace-stats/polygons"
	"github.com/ozscope/airspace-stats/types"
)

// Engine is the read-only view of the collector the API serves from.
type Engine interface {
	GetStats() types.EngineStats
	CurrentSectors() map[string]string
}

// NewRouter creates and configures a router with the engine's
// observability endpoints. Everything here is read-only; persistence and
// reporting surfaces live with their own collaborators.
func NewRouter(engine Engine, sectors []*polygons.Sector) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", GetStatus(engine)).Methods("GET")
	api.HandleFunc("/flights/sectors", GetFlightSectors(engine)).Methods("GET")
	api.HandleFunc("/sectors", GetSectors(sectors)).Methods("GET")
	api.HandleFunc("/summaries/{callsign}", GetSummaries).Methods("GET")

	return r
}
