package cascade

import (
	"reflect"
	"testing"
)

func TestDecayMagnitude(t *testing.T) {
	cases := []struct {
		name      string
		magnitude int
		level     int
		influence float64
		want      int
	}{
		{"full influence level 1", 8, 1, 1.0, 5}, // floor(8*1.0/1.5)
		{"partial influence", 8, 1, 0.6, 3},      // floor(4.8/1.5)
		{"deep level shrinks", 8, 3, 0.6, 1},     // floor(4.8/2.5)
		{"floors at one", 1, 3, 0.1, 1},
		{"zero influence floors at one", 10, 1, 0.0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parent := ImpactProfile{
				Severity:  SeverityMajor,
				Magnitude: tc.magnitude,
				Duration:  DurationMedium,
			}
			got := Decay(parent, tc.level, tc.influence, "economic")
			if got.Magnitude != tc.want {
				t.Errorf("magnitude = %d, want %d", got.Magnitude, tc.want)
			}
		})
	}
}

func TestDecayStepsDownScales(t *testing.T) {
	parent := ImpactProfile{
		Severity:  SeverityCritical,
		Magnitude: 10,
		Duration:  DurationPermanent,
	}

	child := Decay(parent, 1, 0.8, "social")
	if child.Severity != SeveritySignificant {
		t.Errorf("severity = %s, want %s", child.Severity, SeveritySignificant)
	}
	if child.Duration != DurationLong {
		t.Errorf("duration = %s, want %s", child.Duration, DurationLong)
	}

	// Floors hold at the bottom of both scales.
	bottom := ImpactProfile{Severity: SeverityMinor, Magnitude: 1, Duration: DurationTemporary}
	child = Decay(bottom, 2, 0.5, "social")
	if child.Severity != SeverityMinor || child.Duration != DurationTemporary {
		t.Errorf("floors broken: severity=%s duration=%s", child.Severity, child.Duration)
	}
}

func TestDecayTargetsSingleSystem(t *testing.T) {
	parent := ImpactProfile{
		Severity:        SeverityMajor,
		Magnitude:       6,
		Duration:        DurationMedium,
		AffectedSystems: []string{"military", "political"},
		AffectedRegions: []string{"village", "forest"},
	}

	child := Decay(parent, 1, 0.7, "economic")
	if !reflect.DeepEqual(child.AffectedSystems, []string{"economic"}) {
		t.Errorf("affected systems = %v, want [economic]", child.AffectedSystems)
	}
	if !reflect.DeepEqual(child.AffectedRegions, []string{"village", "forest"}) {
		t.Errorf("affected regions = %v, want inherited", child.AffectedRegions)
	}
}

func TestDecayDeterministic(t *testing.T) {
	parent := ImpactProfile{Severity: SeverityMajor, Magnitude: 7, Duration: DurationLong}
	a := Decay(parent, 2, 0.65, "criminal")
	b := Decay(parent, 2, 0.65, "criminal")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("decay not deterministic: %+v vs %+v", a, b)
	}
}

func TestDecayNeverExceedsParentMagnitude(t *testing.T) {
	for mag := 1; mag <= 10; mag++ {
		for level := 1; level <= 5; level++ {
			parent := ImpactProfile{Severity: SeverityModerate, Magnitude: mag, Duration: DurationShort}
			child := Decay(parent, level, 1.0, "economic")
			if child.Magnitude > parent.Magnitude {
				t.Fatalf("magnitude grew: parent %d level %d child %d", mag, level, child.Magnitude)
			}
		}
	}
}
