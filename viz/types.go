package viz

import (
	"time"

	"github.com/BonChain/saga-sub000/cascade"
)

// NodeRole classifies a visualization node.
type NodeRole string

const (
	RoleAction          NodeRole = "action"
	RoleConsequence     NodeRole = "consequence"
	RoleCascadingEffect NodeRole = "cascadingEffect"
)

// Position is a 2D layout coordinate for the force-layout client. The client
// treats it as a starting hint, not a fixed point.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a positioned, renderable effect.
type Node struct {
	ID          string           `json:"id"`
	Role        NodeRole         `json:"role"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Position    Position         `json:"position"`
	Layer       int              `json:"layer"`
	Severity    cascade.Severity `json:"severity,omitempty"`
	Magnitude   int              `json:"magnitude,omitempty"`
	Systems     []string         `json:"systems,omitempty"`
	Regions     []string         `json:"regions,omitempty"`
	VisualHint  string           `json:"visual_hint"`
}

// Connection is a timed, renderable edge between two nodes.
type Connection struct {
	ID          string                   `json:"id"`
	SourceID    string                   `json:"source_id"`
	TargetID    string                   `json:"target_id"`
	Kind        cascade.RelationshipKind `json:"kind"`
	Strength    float64                  `json:"strength"`
	DelayMs     int64                    `json:"delay_ms"`
	Probability float64                  `json:"probability"`
	VisualHint  string                   `json:"visual_hint"`
	StartMs     int64                    `json:"start_ms"`
	EndMs       int64                    `json:"end_ms"`
}

// Keyframe is one sampled moment of the animation timeline.
type Keyframe struct {
	TimeMs        int64    `json:"time_ms"`
	ActiveNodes   []string `json:"active_nodes"`
	ActiveConnIDs []string `json:"active_connections"`
}

// CrossRegionRecord captures an effect's influence travelling between two
// named regions.
type CrossRegionRecord struct {
	NodeID       string `json:"node_id"`
	SourceRegion string `json:"source_region"`
	TargetRegion string `json:"target_region"`
	TravelTimeMs int64  `json:"travel_time_ms"`
}

// EmergentOpportunity is a system-generated gameplay suggestion arising from
// the co-occurrence of two complementary effects.
type EmergentOpportunity struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	RequiredConditions []string `json:"required_conditions"`
	PotentialOutcomes  []string `json:"potential_outcomes"`
	RelatedNodeIDs     []string `json:"related_node_ids"`
}

// Metadata summarizes one synthesized result.
type Metadata struct {
	ActionID         string    `json:"action_id"`
	TotalNodes       int       `json:"total_nodes"`
	TotalConnections int       `json:"total_connections"`
	TotalEffects     int       `json:"total_effects"`
	MaxDepth         int       `json:"max_depth"`
	ProcessingMs     int64     `json:"processing_ms"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Result is the single self-describing artifact handed to storage and
// rendering. Fully serializable, no references back into engine state.
type Result struct {
	RootNode              Node                  `json:"root_node"`
	Nodes                 []Node                `json:"nodes"`
	Connections           []Connection          `json:"connections"`
	TemporalProgression   []Keyframe            `json:"temporal_progression"`
	CrossRegionEffects    []CrossRegionRecord   `json:"cross_region_effects"`
	EmergentOpportunities []EmergentOpportunity `json:"emergent_opportunities"`
	Metadata              Metadata              `json:"metadata"`
}
