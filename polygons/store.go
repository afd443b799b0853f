package polygons

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ozscope/airspace-stats/geo"
)

// ConfigurationError means a polygon or sector definition is missing or
// unusable. It is fatal at startup: the engine must not run with partial
// sector data.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("polygon configuration error in %s: %s", e.Path, e.Reason)
}

// Sector is one named enroute region of the airspace.
type Sector struct {
	Name    string
	Type    string
	Polygon *geo.Polygon
}

// Store loads polygon definition files and caches them by path. Load once
// at startup; all reads afterwards are lock-free on the caller's side and
// the cached polygons are never mutated.
type Store struct {
	mu      sync.Mutex
	byPath  map[string]*geo.Polygon
	sectors map[string]*Sector
	ordered []*Sector // enroute sectors, smallest area first
}

func NewStore() *Store {
	return &Store{
		byPath:  make(map[string]*geo.Polygon),
		sectors: make(map[string]*Sector),
	}
}

// Load parses the polygon file at path, or returns the cached polygon if
// the path was loaded before. Repeated loads of one path return the same
// *geo.Polygon value.
func (s *Store) Load(path string) (*geo.Polygon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if poly, ok := s.byPath[path]; ok {
		return poly, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Reason: err.Error()}
	}

	vertices, err := parseVertices(raw)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Reason: err.Error()}
	}

	poly, err := geo.NewPolygon(vertices)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Reason: err.Error()}
	}

	s.byPath[path] = poly
	return poly, nil
}

// sectorIndex is the on-disk shape of the sector index file.
type sectorIndex struct {
	Sectors []sectorEntry `json:"sectors"`
}

type sectorEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	File string `json:"file"`
}

// LoadSectors reads the sector index at indexPath and loads every enroute
// sector's polygon file (paths are resolved relative to the index file).
// Terminal and ground sectors in the index are skipped: only enroute
// sectors participate in occupancy tracking.
func (s *Store) LoadSectors(indexPath string) error {
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return &ConfigurationError{Path: indexPath, Reason: err.Error()}
	}

	var idx sectorIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return &ConfigurationError{Path: indexPath, Reason: "malformed sector index: " + err.Error()}
	}
	if len(idx.Sectors) == 0 {
		return &ConfigurationError{Path: indexPath, Reason: "sector index defines no sectors"}
	}

	dir := filepath.Dir(indexPath)
	for _, entry := range idx.Sectors {
		if entry.Name == "" {
			return &ConfigurationError{Path: indexPath, Reason: "sector with empty name"}
		}
		if !strings.EqualFold(entry.Type, "enroute") {
			continue
		}
		if _, dup := s.sectors[entry.Name]; dup {
			return &ConfigurationError{Path: indexPath, Reason: "duplicate sector name " + entry.Name}
		}
		poly, err := s.Load(filepath.Join(dir, entry.File))
		if err != nil {
			return err
		}
		sector := &Sector{Name: entry.Name, Type: "enroute", Polygon: poly}
		s.mu.Lock()
		s.sectors[entry.Name] = sector
		s.ordered = append(s.ordered, sector)
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ordered) == 0 {
		return &ConfigurationError{Path: indexPath, Reason: "sector index defines no enroute sectors"}
	}
	// Smallest area first so overlap resolution is deterministic; ties
	// break on name.
	sort.Slice(s.ordered, func(i, j int) bool {
		a, b := s.ordered[i], s.ordered[j]
		if a.Polygon.Area() != b.Polygon.Area() {
			return a.Polygon.Area() < b.Polygon.Area()
		}
		return a.Name < b.Name
	})
	return nil
}

// Get returns a named sector's polygon.
func (s *Store) Get(name string) (*geo.Polygon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sector, ok := s.sectors[name]
	if !ok {
		return nil, false
	}
	return sector.Polygon, true
}

// Enroute returns all enroute sectors ordered smallest area first. The
// slice is shared; callers must not modify it.
func (s *Store) Enroute() []*Sector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordered
}
