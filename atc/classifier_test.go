package atc

import (
	"testing"

	"github.com/ozscope/airspace-stats/config"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(config.DefaultProfiles())

	testCases := []struct {
		callsign string
		expected ControllerType
	}{
		{"SY_TWR", Tower},
		{"sy_twr", Tower},
		{"BN_GND", Ground},
		{"AD_DEL", Ground},
		{"SY_APP", Approach},
		{"SY_DEP", Approach},
		{"ML-BIK_CTR", Center},
		{"BN-TSN_CTR", Center},
		{"AU_FSS", FSS},
		{"SY_OBS", Default},
		{"QFA123", Default},
		{"", Default},
		{"TRAILING_", Default},
	}

	for _, tc := range testCases {
		t.Run(tc.callsign, func(t *testing.T) {
			if got := c.Classify(tc.callsign); got.Type != tc.expected {
				t.Errorf("Classify(%q).Type = %v, want %v", tc.callsign, got.Type, tc.expected)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier(config.DefaultProfiles())
	first := c.Classify("ML-BIK_CTR")
	for i := 0; i < 10; i++ {
		if got := c.Classify("ML-BIK_CTR"); got != first {
			t.Fatalf("Classify changed between calls: %+v then %+v", first, got)
		}
	}
}

func TestProfileRadiiFromConfig(t *testing.T) {
	profiles := config.DefaultProfiles()
	profiles["TWR"] = config.Profile{RadiusNM: 25, Window: profiles["TWR"].Window}
	c := NewClassifier(profiles)

	if got := c.Classify("SY_TWR").RadiusNM; got != 25 {
		t.Errorf("overridden Tower radius = %v, want 25", got)
	}
	// Stock values back-fill omitted types.
	delete(profiles, "CTR")
	c = NewClassifier(profiles)
	if got := c.Classify("ML-BIK_CTR").RadiusNM; got != 400 {
		t.Errorf("stock Center radius = %v, want 400", got)
	}
}
