package cascade

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/world"
)

// Options bound a single expansion. The zero value is meaningful (MaxLevels
// 0 expands nothing); use DefaultOptions for the standard tuning.
type Options struct {
	MaxLevels            int     `json:"max_levels"`
	MaxEffectsPerLevel   int     `json:"max_effects_per_level"`
	ProbabilityThreshold float64 `json:"probability_threshold"`
	MinInfluenceFactor   float64 `json:"min_influence_factor"`
	IncludeIndirect      bool    `json:"include_indirect_effects"`
}

// DefaultOptions returns the standard expansion tuning.
func DefaultOptions() Options {
	return Options{
		MaxLevels:            3,
		MaxEffectsPerLevel:   4,
		ProbabilityThreshold: 0.3,
		MinInfluenceFactor:   0.3,
		IncludeIndirect:      true,
	}
}

// frontierEntry is what the next level expands from: either a root
// consequence (level 0) or an accepted cascading effect.
type frontierEntry struct {
	id          string
	effectType  string
	impact      ImpactProfile
	probability float64
	delayMs     int64
}

// candidate is a synthesized child effect competing for a fan-out slot.
type candidate struct {
	target      string
	factor      float64
	probability float64
	delayMs     int64
	impact      ImpactProfile
	parentID    string
	kind        RelationshipKind
	strength    float64
}

// Expander walks the effect frontier one level at a time. Construct one per
// action; it is not safe for concurrent use, but separate expansions sharing
// a catalog are.
type Expander struct {
	catalog *world.Catalog
	opts    Options
	rng     *rand.Rand
	log     *logger.Logger

	roots    []RootConsequence
	ledger   *Ledger
	frontier []frontierEntry
	effects  []CascadingEffect
	level    int
	maxDepth int
	seq      int
	done     bool
}

// NewExpander prepares an expansion over the given roots. Roots are clamped
// defensively, never rejected. A nil rng gets a time-seeded source; tests
// inject a fixed seed for structural idempotence.
func NewExpander(catalog *world.Catalog, opts Options, rng *rand.Rand, log *logger.Logger, roots []RootConsequence) *Expander {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Expander{
		catalog: catalog,
		opts:    opts,
		rng:     rng,
		log:     log,
		ledger:  NewLedger(),
	}

	for _, r := range roots {
		r = r.Normalize()
		if r.ID == "" {
			e.seq++
			r.ID = fmt.Sprintf("root_%d", e.seq)
		}
		e.roots = append(e.roots, r)
		e.frontier = append(e.frontier, frontierEntry{
			id:          r.ID,
			effectType:  r.Type,
			impact:      r.Impact,
			probability: r.Probability,
		})
	}

	return e
}

// Roots returns the normalized root consequences.
func (e *Expander) Roots() []RootConsequence {
	return e.roots
}

// Ledger returns the relationship ledger built so far.
func (e *Expander) Ledger() *Ledger {
	return e.ledger
}

// MaxDepth returns the last level that produced output.
func (e *Expander) MaxDepth() int {
	return e.maxDepth
}

// Next expands one level and returns its accepted effects. It reports false
// when the level limit is reached or a level yields nothing; callers wanting
// cost control can stop early without computing the full graph.
func (e *Expander) Next() ([]CascadingEffect, bool) {
	if e.done || e.level >= e.opts.MaxLevels || len(e.frontier) == 0 {
		e.done = true
		return nil, false
	}
	e.level++

	var accepted []CascadingEffect
	var next []frontierEntry

	for _, parent := range e.frontier {
		direct := e.acceptPool(e.directCandidates(parent))

		var directEffects []CascadingEffect
		for _, c := range direct {
			eff := e.materialize(c)
			directEffects = append(directEffects, eff)
			accepted = append(accepted, eff)
			next = append(next, frontierEntry{
				id:          eff.ID,
				effectType:  eff.Type,
				impact:      eff.Impact,
				probability: eff.Probability,
				delayMs:     eff.DelayMs,
			})
		}

		// Second-order ripples compete in their own pool, one further hop
		// out from each surviving direct effect.
		if e.opts.IncludeIndirect && e.level < e.opts.MaxLevels {
			indirect := e.acceptPool(e.indirectCandidates(parent, directEffects))
			for _, c := range indirect {
				eff := e.materialize(c)
				accepted = append(accepted, eff)
				next = append(next, frontierEntry{
					id:          eff.ID,
					effectType:  eff.Type,
					impact:      eff.Impact,
					probability: eff.Probability,
					delayMs:     eff.DelayMs,
				})
			}
		}
	}

	if len(accepted) == 0 {
		e.done = true
		return nil, false
	}

	e.maxDepth = e.level
	e.effects = append(e.effects, accepted...)
	e.frontier = next

	e.log.DebugDepth(1, logger.StatusCascade, "level %d: %d effects accepted (frontier %d)", e.level, len(accepted), len(next))
	return accepted, true
}

// ExpandAll drains the iterator and assembles the network.
func (e *Expander) ExpandAll() *CascadeNetwork {
	for {
		if _, ok := e.Next(); !ok {
			break
		}
	}

	return &CascadeNetwork{
		RootConsequences: e.roots,
		CascadingEffects: e.effects,
		Relationships:    e.ledger.All(),
		TotalEffects:     len(e.roots) + len(e.effects),
		MaxDepthReached:  e.maxDepth,
	}
}

// directCandidates synthesizes the direct children of one frontier effect.
func (e *Expander) directCandidates(parent frontierEntry) []candidate {
	systems := e.catalog.InfluencedBy(parent.effectType, parent.impact.AffectedSystems)

	best := make(map[string]candidate)
	for _, sys := range systems {
		for _, entry := range e.catalog.InfluenceRow(sys) {
			if entry.Factor <= e.opts.MinInfluenceFactor {
				continue
			}

			prob := math.Min(0.8, entry.Factor*0.6) / float64(e.level)
			// Probability never rises along a chain.
			if prob > parent.probability {
				prob = parent.probability
			}
			if prob < e.opts.ProbabilityThreshold {
				continue
			}

			c := candidate{
				target:      entry.Target,
				factor:      entry.Factor,
				probability: prob,
				delayMs:     e.baseDelay() + e.rng.Int63n(501),
				impact:      Decay(parent.impact, e.level, entry.Factor, entry.Target),
				parentID:    parent.id,
				kind:        RelationDirect,
				strength:    prob,
			}

			// The same system can be reached through several influenced
			// systems; keep the strongest path.
			if prev, ok := best[c.target]; !ok || c.probability > prev.probability {
				best[c.target] = c
			}
		}
	}

	return sortedCandidates(best)
}

// indirectCandidates synthesizes weaker second-order children for one parent
// given its surviving direct effects.
func (e *Expander) indirectCandidates(parent frontierEntry, direct []CascadingEffect) []candidate {
	best := make(map[string]candidate)
	for _, d := range direct {
		if len(d.Impact.AffectedSystems) == 0 {
			continue
		}
		src := d.Impact.AffectedSystems[0]

		for _, entry := range e.catalog.SecondOrder(src) {
			prob := d.Probability * 0.4
			if prob < e.opts.ProbabilityThreshold {
				continue
			}

			c := candidate{
				target:      entry.Target,
				factor:      entry.Factor,
				probability: prob,
				delayMs:     d.DelayMs + 2000 + e.rng.Int63n(5001),
				impact:      Decay(d.Impact, e.level, entry.Factor, entry.Target),
				parentID:    parent.id,
				kind:        RelationIndirect,
				strength:    prob * 0.5,
			}

			if prev, ok := best[c.target]; !ok || c.probability > prev.probability {
				best[c.target] = c
			}
		}
	}

	return sortedCandidates(best)
}

// sortedCandidates extracts a candidate map in target-id order. The pools must
// not inherit map iteration order, or the seeded tie-break below stops being
// reproducible.
func sortedCandidates(best map[string]candidate) []candidate {
	out := make([]candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].target < out[j].target })
	return out
}

// acceptPool ranks one candidate pool by probability and keeps at most
// MaxEffectsPerLevel. Ties break randomly via the injected source; the sort
// itself is stable so a fixed seed repeats structure exactly.
func (e *Expander) acceptPool(pool []candidate) []candidate {
	if len(pool) == 0 {
		return nil
	}

	e.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].probability > pool[j].probability
	})

	if len(pool) > e.opts.MaxEffectsPerLevel {
		pool = pool[:e.opts.MaxEffectsPerLevel]
	}
	return pool
}

// materialize turns an accepted candidate into a cascading effect and records
// its edge in the ledger.
func (e *Expander) materialize(c candidate) CascadingEffect {
	e.seq++
	eff := CascadingEffect{
		ID:             fmt.Sprintf("eff_%d_%s_%d", e.level, c.target, e.seq),
		Description:    e.describe(c),
		Type:           c.target,
		Impact:         c.impact,
		Probability:    c.probability,
		ParentEffectID: c.parentID,
		DelayMs:        c.delayMs,
		Level:          e.level,
	}

	e.ledger.Append(EffectRelationship{
		ParentID: c.parentID,
		ChildID:  eff.ID,
		Kind:     c.kind,
		Strength: c.strength,
		DelayMs:  c.delayMs,
	})

	return eff
}

var directTemplates = []string{
	"The %s feels the aftershock: %s pressure builds",
	"Word spreads through the %s, stirring %s unrest",
	"The %s shifts in response, a %s strain taking hold",
	"Pressure mounts on the %s as %s consequences land",
}

var indirectTemplates = []string{
	"A distant ripple reaches the %s, faint but %s",
	"Far from the source, the %s registers a %s tremor",
	"The %s bends under a slow %s undertow",
}

// describe synthesizes a short human-readable line for a derived effect. Only
// the template choice is random; structure never depends on it.
func (e *Expander) describe(c candidate) string {
	name := c.target
	if sys, ok := e.catalog.Get(c.target); ok {
		name = sys.Name
	}

	templates := directTemplates
	if c.kind == RelationIndirect {
		templates = indirectTemplates
	}
	tpl := templates[e.rng.Intn(len(templates))]
	return fmt.Sprintf(tpl, name, c.impact.Severity)
}

// baseDelay grows with the level so deeper effects land later on screen.
func (e *Expander) baseDelay() int64 {
	return int64(e.level) * 1500
}
