package cascade

// Severity is the ordered severity scale for an effect.
type Severity string

const (
	SeverityMinor       Severity = "minor"
	SeverityModerate    Severity = "moderate"
	SeverityMajor       Severity = "major"
	SeveritySignificant Severity = "significant"
	SeverityCritical    Severity = "critical"
)

var severityOrder = []Severity{
	SeverityMinor,
	SeverityModerate,
	SeverityMajor,
	SeveritySignificant,
	SeverityCritical,
}

// Rank returns the position of the severity on the ordered scale. Unknown
// values rank as minor.
func (s Severity) Rank() int {
	for i, v := range severityOrder {
		if v == s {
			return i
		}
	}
	return 0
}

// StepDown returns the next severity down the scale, flooring at minor.
func (s Severity) StepDown() Severity {
	r := s.Rank()
	if r == 0 {
		return SeverityMinor
	}
	return severityOrder[r-1]
}

// Duration is the ordered duration scale for an effect.
type Duration string

const (
	DurationTemporary Duration = "temporary"
	DurationShort     Duration = "short"
	DurationMedium    Duration = "medium"
	DurationLong      Duration = "long"
	DurationPermanent Duration = "permanent"
)

var durationOrder = []Duration{
	DurationTemporary,
	DurationShort,
	DurationMedium,
	DurationLong,
	DurationPermanent,
}

// Rank returns the position of the duration on the ordered scale. Unknown
// values rank as temporary.
func (d Duration) Rank() int {
	for i, v := range durationOrder {
		if v == d {
			return i
		}
	}
	return 0
}

// StepDown returns the next duration down the scale, flooring at temporary.
func (d Duration) StepDown() Duration {
	r := d.Rank()
	if r == 0 {
		return DurationTemporary
	}
	return durationOrder[r-1]
}

// ImpactProfile describes how hard an effect lands and where.
type ImpactProfile struct {
	Severity        Severity `json:"severity"`
	Magnitude       int      `json:"magnitude"` // 1..10
	Duration        Duration `json:"duration"`
	AffectedSystems []string `json:"affected_systems"`
	AffectedRegions []string `json:"affected_regions"`
}

// RootConsequence is a direct consequence of an actor's action, supplied by
// the narrative collaborator as already-structured input.
type RootConsequence struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Type        string        `json:"type"` // effect category (world.Category*)
	Impact      ImpactProfile `json:"impact"`
	Probability float64       `json:"probability"` // 0..1
}

// CascadingEffect is a derived effect some number of hops away from a root.
type CascadingEffect struct {
	ID             string        `json:"id"`
	Description    string        `json:"description"`
	Type           string        `json:"type"`
	Impact         ImpactProfile `json:"impact"`
	Probability    float64       `json:"probability"`
	ParentEffectID string        `json:"parent_effect_id"`
	DelayMs        int64         `json:"delay_ms"`
	Level          int           `json:"level"` // 1..MaxLevels
}

// RelationshipKind classifies a parent->child edge.
type RelationshipKind string

const (
	RelationDirect     RelationshipKind = "direct"
	RelationIndirect   RelationshipKind = "indirect"
	RelationAmplifying RelationshipKind = "amplifying"
	RelationMitigating RelationshipKind = "mitigating"
)

// EffectRelationship is a directed edge between two effects.
type EffectRelationship struct {
	ParentID string           `json:"parent_id"`
	ChildID  string           `json:"child_id"`
	Kind     RelationshipKind `json:"kind"`
	Strength float64          `json:"strength"`
	DelayMs  int64            `json:"delay_ms"`
}

// CascadeNetwork is the expanded effect graph for one action. It is built
// fresh per action and never mutated after construction.
type CascadeNetwork struct {
	RootConsequences []RootConsequence    `json:"root_consequences"`
	CascadingEffects []CascadingEffect    `json:"cascading_effects"` // ordered by level, then creation
	Relationships    []EffectRelationship `json:"relationships"`
	TotalEffects     int                  `json:"total_effects"`
	MaxDepthReached  int                  `json:"max_depth_reached"`
	ProcessingMs     int64                `json:"processing_ms"`
}

// clampMagnitude forces a magnitude into 1..10.
func clampMagnitude(m int) int {
	if m < 1 {
		return 1
	}
	if m > 10 {
		return 10
	}
	return m
}

// clampProbability forces a probability into 0..1.
func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Normalize defensively clamps out-of-range numeric fields and backfills the
// ordered scales. The engine trusts structure, not values.
func (r RootConsequence) Normalize() RootConsequence {
	r.Impact.Magnitude = clampMagnitude(r.Impact.Magnitude)
	r.Probability = clampProbability(r.Probability)
	if r.Impact.Severity.Rank() == 0 {
		r.Impact.Severity = SeverityMinor
	}
	if r.Impact.Duration.Rank() == 0 {
		r.Impact.Duration = DurationTemporary
	}
	return r
}
