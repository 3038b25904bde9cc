package viz

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/BonChain/saga-sub000/cascade"
	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/world"
)

const (
	rootRadius        = 150.0 // roots circle around the action node
	childRadius       = 100.0 // children circle around their parent
	keyframeStepMs    = 2000
	minTimelineMs     = 15000
	animationWindowMs = 3000
	msPerDistanceUnit = 400
)

// Synthesizer converts an expanded cascade network into the renderable
// structure the client consumes. Stateless apart from the catalog; one
// instance serves concurrent invocations.
type Synthesizer struct {
	catalog *world.Catalog
	log     *logger.Logger
}

// NewSynthesizer returns a synthesizer over the given world catalog.
func NewSynthesizer(catalog *world.Catalog, log *logger.Logger) *Synthesizer {
	return &Synthesizer{catalog: catalog, log: log}
}

// Synthesize lays out nodes, times connections, samples the animation
// timeline, and derives cross-region and opportunity annotations.
func (s *Synthesizer) Synthesize(actionID, actionDescription string, network *cascade.CascadeNetwork, ledger *cascade.Ledger) *Result {
	res := &Result{}

	res.RootNode = Node{
		ID:          "action_" + actionID,
		Role:        RoleAction,
		Label:       "Action",
		Description: actionDescription,
		Position:    Position{X: 0, Y: 0},
		Layer:       0,
		VisualHint:  "pulse",
	}

	positions := map[string]Position{res.RootNode.ID: {X: 0, Y: 0}}
	res.Nodes = append(res.Nodes, res.RootNode)

	// Roots sit on a fixed-radius circle around the action, evenly spaced.
	n := len(network.RootConsequences)
	for i, root := range network.RootConsequences {
		angle := 2 * math.Pi * float64(i) / float64(max(n, 1))
		pos := Position{X: rootRadius * math.Cos(angle), Y: rootRadius * math.Sin(angle)}
		positions[root.ID] = pos

		res.Nodes = append(res.Nodes, Node{
			ID:          root.ID,
			Role:        RoleConsequence,
			Label:       root.Type,
			Description: root.Description,
			Position:    pos,
			Layer:       1,
			Severity:    root.Impact.Severity,
			Magnitude:   root.Impact.Magnitude,
			Systems:     root.Impact.AffectedSystems,
			Regions:     root.Impact.AffectedRegions,
			VisualHint:  severityHint(root.Impact.Severity),
		})

		res.Connections = append(res.Connections, Connection{
			ID:          fmt.Sprintf("conn_%s_%s", res.RootNode.ID, root.ID),
			SourceID:    res.RootNode.ID,
			TargetID:    root.ID,
			Kind:        cascade.RelationDirect,
			Strength:    root.Probability,
			DelayMs:     0,
			Probability: root.Probability,
			VisualHint:  "solid",
			StartMs:     0,
			EndMs:       animationWindowMs,
		})
	}

	// Children sit on circles around their parent's resolved position.
	// Effects arrive ordered by level, so parents are always placed first.
	siblings := make(map[string][]string)
	for _, eff := range network.CascadingEffects {
		siblings[eff.ParentEffectID] = append(siblings[eff.ParentEffectID], eff.ID)
	}
	placed := make(map[string]int)

	for _, eff := range network.CascadingEffects {
		parentPos := positions[eff.ParentEffectID]
		group := siblings[eff.ParentEffectID]
		idx := placed[eff.ParentEffectID]
		placed[eff.ParentEffectID]++

		angle := 2 * math.Pi * float64(idx) / float64(max(len(group), 1))
		pos := Position{
			X: parentPos.X + childRadius*math.Cos(angle),
			Y: parentPos.Y + childRadius*math.Sin(angle),
		}
		positions[eff.ID] = pos

		res.Nodes = append(res.Nodes, Node{
			ID:          eff.ID,
			Role:        RoleCascadingEffect,
			Label:       s.systemLabel(eff.Type),
			Description: eff.Description,
			Position:    pos,
			Layer:       eff.Level + 1,
			Severity:    eff.Impact.Severity,
			Magnitude:   eff.Impact.Magnitude,
			Systems:     eff.Impact.AffectedSystems,
			Regions:     eff.Impact.AffectedRegions,
			VisualHint:  severityHint(eff.Impact.Severity),
		})
	}

	// Every accepted effect has exactly one incoming ledger edge.
	for _, eff := range network.CascadingEffects {
		rel, ok := ledger.ByChild(eff.ID)
		if !ok {
			continue
		}
		hint := "solid"
		if rel.Kind == cascade.RelationIndirect {
			hint = "dashed"
		}
		res.Connections = append(res.Connections, Connection{
			ID:          fmt.Sprintf("conn_%s_%s", rel.ParentID, rel.ChildID),
			SourceID:    rel.ParentID,
			TargetID:    rel.ChildID,
			Kind:        rel.Kind,
			Strength:    rel.Strength,
			DelayMs:     rel.DelayMs,
			Probability: eff.Probability,
			VisualHint:  hint,
			StartMs:     rel.DelayMs,
			EndMs:       rel.DelayMs + animationWindowMs,
		})
	}

	res.TemporalProgression = s.keyframes(res.Nodes, res.Connections)
	res.CrossRegionEffects = s.crossRegion(res.Nodes)
	res.EmergentOpportunities = s.opportunities(res.Nodes)

	res.Metadata = Metadata{
		ActionID:         actionID,
		TotalNodes:       len(res.Nodes),
		TotalConnections: len(res.Connections),
		TotalEffects:     network.TotalEffects,
		MaxDepth:         network.MaxDepthReached,
		ProcessingMs:     network.ProcessingMs,
		GeneratedAt:      time.Now().UTC(),
	}

	s.log.Debug(logger.StatusViz, "synthesized %d nodes, %d connections, %d opportunities",
		len(res.Nodes), len(res.Connections), len(res.EmergentOpportunities))
	return res
}

// keyframes samples the timeline every two seconds out to the last connection
// end (never shorter than the minimum window). Nodes have no entry delay;
// connections are active inside their own window.
func (s *Synthesizer) keyframes(nodes []Node, conns []Connection) []Keyframe {
	endMs := int64(minTimelineMs)
	for _, c := range conns {
		if c.EndMs > endMs {
			endMs = c.EndMs
		}
	}

	allNodes := make([]string, 0, len(nodes))
	for _, n := range nodes {
		allNodes = append(allNodes, n.ID)
	}

	var frames []Keyframe
	for t := int64(0); t <= endMs; t += keyframeStepMs {
		frame := Keyframe{TimeMs: t, ActiveNodes: allNodes}
		for _, c := range conns {
			if c.StartMs <= t && t <= c.EndMs {
				frame.ActiveConnIDs = append(frame.ActiveConnIDs, c.ID)
			}
		}
		frames = append(frames, frame)
	}
	return frames
}

// crossRegion emits one record per additional region relative to a node's
// first region, with travel time proportional to map distance.
func (s *Synthesizer) crossRegion(nodes []Node) []CrossRegionRecord {
	var out []CrossRegionRecord
	for _, n := range nodes {
		if len(n.Regions) < 2 {
			continue
		}
		src := n.Regions[0]
		for _, dst := range n.Regions[1:] {
			out = append(out, CrossRegionRecord{
				NodeID:       n.ID,
				SourceRegion: src,
				TargetRegion: dst,
				TravelTimeMs: int64(s.catalog.RegionDistance(src, dst) * msPerDistanceUnit),
			})
		}
	}
	return out
}

// opportunityRule pairs two complementary system categories with the
// gameplay suggestion their co-occurrence unlocks.
type opportunityRule struct {
	a, b       string
	title      string
	desc       string
	conditions []string
	outcomes   []string
}

var opportunityRules = []opportunityRule{
	{
		a: "economic", b: "criminal",
		title:      "Black Market Opening",
		desc:       "Economic strain and underworld activity converge; smugglers look for a broker.",
		conditions: []string{"economic disruption active", "underworld presence active"},
		outcomes:   []string{"contraband trade route", "underworld reputation"},
	},
	{
		a: "military", b: "economic",
		title:      "War Profiteering",
		desc:       "Armed mobilization meets a strained economy; someone will supply the war chest.",
		conditions: []string{"military escalation active", "economic disruption active"},
		outcomes:   []string{"supply contract", "faction leverage"},
	},
	{
		a: "political", b: "religious",
		title:      "Divine Mandate",
		desc:       "Political upheaval and religious fervor align; a claim to sanctioned rule is possible.",
		conditions: []string{"political instability active", "religious fervor active"},
		outcomes:   []string{"legitimacy boost", "zealot followers"},
	},
	{
		a: "social", b: "environmental",
		title:      "Rally the Displaced",
		desc:       "Social unrest amid environmental damage; displaced folk seek a champion.",
		conditions: []string{"social unrest active", "environmental damage active"},
		outcomes:   []string{"loyal settlers", "restoration quest line"},
	},
	{
		a: "technological", b: "military",
		title:      "Arms Patronage",
		desc:       "New techniques surface while armies gather; an inventor needs a sponsor.",
		conditions: []string{"technological discovery active", "military escalation active"},
		outcomes:   []string{"prototype weapon", "artisan alliance"},
	},
}

// opportunities scans every unordered node pair against the rule table.
// Quadratic in node count, which the fan-out caps keep small.
func (s *Synthesizer) opportunities(nodes []Node) []EmergentOpportunity {
	var out []EmergentOpportunity
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			for _, rule := range opportunityRules {
				if !pairMatches(nodes[i].Systems, nodes[j].Systems, rule.a, rule.b) {
					continue
				}
				out = append(out, EmergentOpportunity{
					ID:                 uuid.NewString(),
					Title:              rule.title,
					Description:        rule.desc,
					RequiredConditions: rule.conditions,
					PotentialOutcomes:  rule.outcomes,
					RelatedNodeIDs:     []string{nodes[i].ID, nodes[j].ID},
				})
			}
		}
	}
	return out
}

func pairMatches(sysA, sysB []string, a, b string) bool {
	return (contains(sysA, a) && contains(sysB, b)) ||
		(contains(sysA, b) && contains(sysB, a))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Synthesizer) systemLabel(id string) string {
	if sys, ok := s.catalog.Get(id); ok {
		return sys.Name
	}
	return id
}

func severityHint(sev cascade.Severity) string {
	switch sev {
	case cascade.SeverityCritical, cascade.SeveritySignificant:
		return "glow"
	case cascade.SeverityMajor:
		return "bold"
	default:
		return "plain"
	}
}
