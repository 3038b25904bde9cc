package cascade

import "testing"

func TestSeverityScale(t *testing.T) {
	if SeverityMinor.Rank() >= SeverityCritical.Rank() {
		t.Fatal("severity scale out of order")
	}
	if got := SeverityCritical.StepDown(); got != SeveritySignificant {
		t.Errorf("critical steps down to %s", got)
	}
	if got := SeverityMinor.StepDown(); got != SeverityMinor {
		t.Errorf("minor should floor, got %s", got)
	}
	if got := Severity("apocalyptic").Rank(); got != 0 {
		t.Errorf("unknown severity rank = %d, want 0", got)
	}
}

func TestDurationScale(t *testing.T) {
	if got := DurationPermanent.StepDown(); got != DurationLong {
		t.Errorf("permanent steps down to %s", got)
	}
	if got := DurationTemporary.StepDown(); got != DurationTemporary {
		t.Errorf("temporary should floor, got %s", got)
	}
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	cases := []struct {
		name     string
		in       RootConsequence
		wantMag  int
		wantProb float64
	}{
		{
			"magnitude too high",
			RootConsequence{Impact: ImpactProfile{Magnitude: 99, Severity: SeverityMajor, Duration: DurationShort}, Probability: 0.5},
			10, 0.5,
		},
		{
			"magnitude too low",
			RootConsequence{Impact: ImpactProfile{Magnitude: -3, Severity: SeverityMajor, Duration: DurationShort}, Probability: 0.5},
			1, 0.5,
		},
		{
			"probability above one",
			RootConsequence{Impact: ImpactProfile{Magnitude: 5, Severity: SeverityMajor, Duration: DurationShort}, Probability: 3.2},
			5, 1.0,
		},
		{
			"probability negative",
			RootConsequence{Impact: ImpactProfile{Magnitude: 5, Severity: SeverityMajor, Duration: DurationShort}, Probability: -0.4},
			5, 0.0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Impact.Magnitude != tc.wantMag {
				t.Errorf("magnitude = %d, want %d", got.Impact.Magnitude, tc.wantMag)
			}
			if got.Probability != tc.wantProb {
				t.Errorf("probability = %v, want %v", got.Probability, tc.wantProb)
			}
		})
	}
}

func TestNormalizeBackfillsScales(t *testing.T) {
	got := RootConsequence{Impact: ImpactProfile{Magnitude: 5}}.Normalize()
	if got.Impact.Severity != SeverityMinor {
		t.Errorf("severity = %s, want minor", got.Impact.Severity)
	}
	if got.Impact.Duration != DurationTemporary {
		t.Errorf("duration = %s, want temporary", got.Impact.Duration)
	}
}
