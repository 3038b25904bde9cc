package cascade

import "math"

// Decay derives a child impact profile from its parent. Magnitude shrinks
// with the influence factor and the cascade level, severity and duration step
// one notch down their scales, and the child affects only the target system.
// Deterministic given its inputs.
func Decay(parent ImpactProfile, level int, influence float64, targetSystem string) ImpactProfile {
	if level < 1 {
		level = 1
	}

	mag := int(math.Floor(float64(parent.Magnitude) * influence / (1 + 0.5*float64(level))))
	if mag < 1 {
		mag = 1
	}

	return ImpactProfile{
		Severity:        parent.Severity.StepDown(),
		Magnitude:       mag,
		Duration:        parent.Duration.StepDown(),
		AffectedSystems: []string{targetSystem},
		AffectedRegions: append([]string(nil), parent.AffectedRegions...),
	}
}
