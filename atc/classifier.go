package atc

import (
	"strings"
	"time"

	"github.com/ozscope/airspace-stats/config"
)

// ControllerType is the functional class of an ATC position, derived from
// its callsign suffix.
type ControllerType int

const (
	Default ControllerType = iota
	Ground
	Tower
	Approach
	Center
	FSS
)

func (t ControllerType) String() string {
	switch t {
	case Ground:
		return "GND"
	case Tower:
		return "TWR"
	case Approach:
		return "APP"
	case Center:
		return "CTR"
	case FSS:
		return "FSS"
	default:
		return "DEFAULT"
	}
}

// Profile is the matching rule for one controller type: how far out the
// position can plausibly work traffic, and how stale a frequency sample
// may be and still count.
type Profile struct {
	Type     ControllerType
	RadiusNM float64
	Window   time.Duration
}

// Classifier maps callsigns to profiles. The table is fixed at
// construction; Classify is a pure function of its input.
type Classifier struct {
	profiles map[ControllerType]Profile
}

// NewClassifier builds the lookup table from configuration, falling back
// to the stock table for any type the config omits.
func NewClassifier(profiles map[string]config.Profile) *Classifier {
	stock := config.DefaultProfiles()
	table := make(map[ControllerType]Profile, 6)
	for _, t := range []ControllerType{Default, Ground, Tower, Approach, Center, FSS} {
		p, ok := profiles[t.String()]
		if !ok {
			p = stock[t.String()]
		}
		table[t] = Profile{Type: t, RadiusNM: p.RadiusNM, Window: p.Window}
	}
	return &Classifier{profiles: table}
}

// suffix token → type. Delivery positions work the ramp, so they share the
// ground profile.
var suffixTypes = map[string]ControllerType{
	"GND": Ground,
	"DEL": Ground,
	"TWR": Tower,
	"APP": Approach,
	"DEP": Approach,
	"CTR": Center,
	"FSS": FSS,
}

// Classify returns the profile for a callsign like "SY_APP" or
// "ML-BIK_CTR". The suffix after the last underscore decides the type,
// case-insensitively; anything unrecognised gets the default profile.
func (c *Classifier) Classify(callsign string) Profile {
	if i := strings.LastIndex(callsign, "_"); i >= 0 && i+1 < len(callsign) {
		token := strings.ToUpper(callsign[i+1:])
		if t, ok := suffixTypes[token]; ok {
			return c.profiles[t]
		}
	}
	return c.profiles[Default]
}
