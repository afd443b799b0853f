package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/ozscope/airspace-stats/api"
	"github.com/ozscope/airspace-stats/collector"
	"github.com/ozscope/airspace-stats/config"
	"github.com/ozscope/airspace-stats/db"
	"github.com/ozscope/airspace-stats/geo"
	"github.com/ozscope/airspace-stats/polygons"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := config.Load()

	// Initialize database connection
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Session rows a previous run left active are closed once they pass
	// the inactivity window, not merged into this run's sessions.
	if n, err := db.ExpireStaleSessions(time.Now().Add(-cfg.SessionTimeout)); err != nil {
		log.Printf("Error expiring stale sessions: %v", err)
	} else if n > 0 {
		log.Printf("Expired %d stale sessions", n)
	}

	// Polygon configuration is fatal at startup: the engine must not run
	// with partial or absent sector data.
	store := polygons.NewStore()
	var airspace *geo.Polygon
	if cfg.BoundaryEnabled {
		var err error
		airspace, err = store.Load(cfg.BoundaryFile)
		if err != nil {
			log.Fatalf("Failed to load airspace boundary: %v", err)
		}
	}
	if err := store.LoadSectors(cfg.SectorIndexFile); err != nil {
		log.Fatalf("Failed to load sectors: %v", err)
	}
	enroute := store.Enroute()
	log.Printf("Loaded %d enroute sectors from %s", len(enroute), cfg.SectorIndexFile)

	c := collector.NewCollector(cfg, airspace, enroute)

	// Start the API server in a goroutine
	router := api.NewRouter(c, enroute)
	go func() {
		log.Printf("Starting API server on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	log.Printf("Starting airspace collector (poll %v, aggregation %v, session timeout %v)",
		cfg.UpdateInterval, cfg.AggregationInterval, cfg.SessionTimeout)

	// Initial collection
	if err := c.Poll(); err != nil {
		log.Printf("Error collecting data: %v", err)
	}

	pollTicker := time.NewTicker(cfg.UpdateInterval)
	defer pollTicker.Stop()
	aggTicker := time.NewTicker(cfg.AggregationInterval)
	defer aggTicker.Stop()

	for {
		select {
		case <-pollTicker.C:
			if err := c.Poll(); err != nil {
				log.Printf("Error collecting data: %v", err)
			}
		case <-aggTicker.C:
			go c.Aggregate()
		}
	}
}
