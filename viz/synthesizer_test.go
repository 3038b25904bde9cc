package viz

import (
	"encoding/json"
	"io"
	"math"
	"testing"

	"github.com/BonChain/saga-sub000/cascade"
	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/world"
)

func testSynthesizer() *Synthesizer {
	return NewSynthesizer(world.DefaultCatalog(), logger.New(io.Discard, "error", false))
}

func rootOf(id, typ string, systems, regions []string) cascade.RootConsequence {
	return cascade.RootConsequence{
		ID:          id,
		Description: "test consequence",
		Type:        typ,
		Impact: cascade.ImpactProfile{
			Severity:        cascade.SeverityModerate,
			Magnitude:       5,
			Duration:        cascade.DurationShort,
			AffectedSystems: systems,
			AffectedRegions: regions,
		},
		Probability: 0.8,
	}
}

func TestSynthesizeActionNode(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{rootOf("r1", "combat", []string{"military"}, []string{"village"})},
		TotalEffects:     1,
	}

	res := testSynthesizer().Synthesize("a1", "burn the granary", net, cascade.NewLedger())

	if res.RootNode.ID != "action_a1" {
		t.Errorf("root node id = %s", res.RootNode.ID)
	}
	if res.RootNode.Position.X != 0 || res.RootNode.Position.Y != 0 {
		t.Errorf("action node not at origin: %+v", res.RootNode.Position)
	}
	if res.RootNode.Layer != 0 || res.RootNode.Role != RoleAction {
		t.Errorf("action node layer/role wrong: %+v", res.RootNode)
	}
	if res.RootNode.Description != "burn the granary" {
		t.Errorf("action description = %q", res.RootNode.Description)
	}
}

func TestRootsPlacedOnCircle(t *testing.T) {
	roots := []cascade.RootConsequence{
		rootOf("r1", "combat", []string{"military"}, nil),
		rootOf("r2", "trade", []string{"economic"}, nil),
		rootOf("r3", "ritual", []string{"religious"}, nil),
		rootOf("r4", "theft", []string{"criminal"}, nil),
	}
	net := &cascade.CascadeNetwork{RootConsequences: roots, TotalEffects: 4}

	res := testSynthesizer().Synthesize("a1", "x", net, cascade.NewLedger())

	if len(res.Nodes) != 5 { // action + four roots
		t.Fatalf("got %d nodes, want 5", len(res.Nodes))
	}
	if len(res.Connections) != 4 {
		t.Fatalf("got %d connections, want 4", len(res.Connections))
	}
	for _, n := range res.Nodes[1:] {
		dist := math.Hypot(n.Position.X, n.Position.Y)
		if math.Abs(dist-150) > 1e-9 {
			t.Errorf("root %s at distance %v, want 150", n.ID, dist)
		}
		if n.Layer != 1 {
			t.Errorf("root %s at layer %d, want 1", n.ID, n.Layer)
		}
	}
	for _, c := range res.Connections {
		if c.SourceID != "action_a1" {
			t.Errorf("connection %s does not originate at the action node", c.ID)
		}
		if c.StartMs != 0 {
			t.Errorf("root connection %s starts at %d, want 0", c.ID, c.StartMs)
		}
	}
}

func TestSynthesizeEmptyNetwork(t *testing.T) {
	net := &cascade.CascadeNetwork{}

	res := testSynthesizer().Synthesize("a1", "nothing happens", net, cascade.NewLedger())

	if len(res.Nodes) != 1 {
		t.Fatalf("got %d nodes, want action node only", len(res.Nodes))
	}
	if len(res.Connections) != 0 {
		t.Fatalf("got %d connections, want 0", len(res.Connections))
	}
	if res.Metadata.TotalNodes != 1 || res.Metadata.TotalConnections != 0 {
		t.Errorf("metadata counts wrong: %+v", res.Metadata)
	}
	// The timeline never collapses below its minimum window.
	if len(res.TemporalProgression) == 0 {
		t.Fatal("expected keyframes even for an empty network")
	}
	last := res.TemporalProgression[len(res.TemporalProgression)-1]
	if last.TimeMs < 14000 {
		t.Errorf("timeline ends at %dms, want at least 14000", last.TimeMs)
	}
}

func TestChildLayoutAndLayers(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{rootOf("r1", "combat", []string{"military"}, nil)},
		CascadingEffects: []cascade.CascadingEffect{
			{
				ID:          "e1",
				Description: "ripple",
				Type:        "political",
				Impact: cascade.ImpactProfile{
					Severity:        cascade.SeverityMinor,
					Magnitude:       2,
					Duration:        cascade.DurationTemporary,
					AffectedSystems: []string{"political"},
				},
				Probability:    0.4,
				ParentEffectID: "r1",
				DelayMs:        1500,
				Level:          1,
			},
		},
		TotalEffects:    2,
		MaxDepthReached: 1,
	}
	ledger := cascade.NewLedger()
	ledger.Append(cascade.EffectRelationship{
		ParentID: "r1", ChildID: "e1",
		Kind: cascade.RelationDirect, Strength: 0.4, DelayMs: 1500,
	})

	res := testSynthesizer().Synthesize("a1", "x", net, ledger)

	var child *Node
	for i := range res.Nodes {
		if res.Nodes[i].ID == "e1" {
			child = &res.Nodes[i]
		}
	}
	if child == nil {
		t.Fatal("effect node missing")
	}
	if child.Layer != 2 {
		t.Errorf("child layer = %d, want 2", child.Layer)
	}
	if child.Label != "Politics" {
		t.Errorf("child label = %q, want catalog name", child.Label)
	}

	var edge *Connection
	for i := range res.Connections {
		if res.Connections[i].TargetID == "e1" {
			edge = &res.Connections[i]
		}
	}
	if edge == nil {
		t.Fatal("effect connection missing")
	}
	if edge.StartMs != 1500 || edge.EndMs != 4500 {
		t.Errorf("edge window [%d,%d], want [1500,4500]", edge.StartMs, edge.EndMs)
	}
	if edge.Probability != 0.4 {
		t.Errorf("edge probability = %v, want effect probability", edge.Probability)
	}
	if edge.VisualHint != "solid" {
		t.Errorf("direct edge hint = %q", edge.VisualHint)
	}
}

func TestIndirectEdgesRenderDashed(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{rootOf("r1", "combat", []string{"military"}, nil)},
		CascadingEffects: []cascade.CascadingEffect{
			{
				ID:   "e1",
				Type: "criminal",
				Impact: cascade.ImpactProfile{
					Severity:        cascade.SeverityMinor,
					Magnitude:       1,
					Duration:        cascade.DurationTemporary,
					AffectedSystems: []string{"criminal"},
				},
				Probability:    0.15,
				ParentEffectID: "r1",
				DelayMs:        4000,
				Level:          1,
			},
		},
		TotalEffects: 2,
	}
	ledger := cascade.NewLedger()
	ledger.Append(cascade.EffectRelationship{
		ParentID: "r1", ChildID: "e1",
		Kind: cascade.RelationIndirect, Strength: 0.075, DelayMs: 4000,
	})

	res := testSynthesizer().Synthesize("a1", "x", net, ledger)

	for _, c := range res.Connections {
		if c.TargetID != "e1" {
			continue
		}
		if c.VisualHint != "dashed" {
			t.Errorf("indirect edge hint = %q, want dashed", c.VisualHint)
		}
		if c.Kind != cascade.RelationIndirect {
			t.Errorf("edge kind = %s", c.Kind)
		}
		return
	}
	t.Fatal("indirect edge missing")
}

func TestCrossRegionTravelTime(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{
			rootOf("r1", "combat", []string{"military"}, []string{"forest", "village"}),
		},
		TotalEffects: 1,
	}

	res := testSynthesizer().Synthesize("a1", "x", net, cascade.NewLedger())

	if len(res.CrossRegionEffects) != 1 {
		t.Fatalf("got %d cross-region records, want 1", len(res.CrossRegionEffects))
	}
	rec := res.CrossRegionEffects[0]
	if rec.SourceRegion != "forest" || rec.TargetRegion != "village" {
		t.Errorf("record regions %s -> %s", rec.SourceRegion, rec.TargetRegion)
	}
	// forest (3,1) to village (0,0): sqrt(10) units at 400ms per unit.
	want := int64(math.Sqrt(10) * 400)
	if rec.TravelTimeMs != want {
		t.Errorf("travel time = %d, want %d", rec.TravelTimeMs, want)
	}
}

func TestKeyframeCadence(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{rootOf("r1", "combat", []string{"military"}, nil)},
		TotalEffects:     1,
	}

	res := testSynthesizer().Synthesize("a1", "x", net, cascade.NewLedger())

	for i, frame := range res.TemporalProgression {
		if frame.TimeMs != int64(i)*2000 {
			t.Fatalf("frame %d at %dms, want %dms", i, frame.TimeMs, i*2000)
		}
		if len(frame.ActiveNodes) != len(res.Nodes) {
			t.Errorf("frame %d has %d active nodes, want all %d", i, len(frame.ActiveNodes), len(res.Nodes))
		}
	}

	// The root connection runs 0..3000ms, so it is active in the first two
	// frames and gone by 4000ms.
	if len(res.TemporalProgression) < 3 {
		t.Fatal("too few frames")
	}
	if len(res.TemporalProgression[0].ActiveConnIDs) != 1 {
		t.Errorf("frame 0 active connections = %d, want 1", len(res.TemporalProgression[0].ActiveConnIDs))
	}
	if len(res.TemporalProgression[2].ActiveConnIDs) != 0 {
		t.Errorf("frame at 4000ms still has active connections")
	}
}

func TestEmergentOpportunities(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{
			rootOf("r1", "trade", []string{"economic"}, nil),
			rootOf("r2", "theft", []string{"criminal"}, nil),
		},
		TotalEffects: 2,
	}

	res := testSynthesizer().Synthesize("a1", "x", net, cascade.NewLedger())

	var found *EmergentOpportunity
	for i := range res.EmergentOpportunities {
		if res.EmergentOpportunities[i].Title == "Black Market Opening" {
			found = &res.EmergentOpportunities[i]
		}
	}
	if found == nil {
		t.Fatal("economic+criminal pair produced no opportunity")
	}
	if len(found.RelatedNodeIDs) != 2 {
		t.Errorf("related nodes = %v", found.RelatedNodeIDs)
	}
	if found.ID == "" {
		t.Error("opportunity has no id")
	}
	if len(found.RequiredConditions) == 0 || len(found.PotentialOutcomes) == 0 {
		t.Error("opportunity missing conditions or outcomes")
	}
}

func TestNoOpportunityWithoutPair(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{
			rootOf("r1", "ritual", []string{"religious"}, nil),
		},
		TotalEffects: 1,
	}

	res := testSynthesizer().Synthesize("a1", "x", net, cascade.NewLedger())
	if len(res.EmergentOpportunities) != 0 {
		t.Fatalf("single-system network produced %d opportunities", len(res.EmergentOpportunities))
	}
}

func TestResultSerializes(t *testing.T) {
	net := &cascade.CascadeNetwork{
		RootConsequences: []cascade.RootConsequence{rootOf("r1", "combat", []string{"military"}, []string{"village"})},
		TotalEffects:     1,
		MaxDepthReached:  0,
	}
	res := testSynthesizer().Synthesize("a1", "x", net, cascade.NewLedger())

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Result
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Metadata.TotalNodes != res.Metadata.TotalNodes {
		t.Errorf("round trip lost node count")
	}
	if back.RootNode.ID != "action_a1" {
		t.Errorf("round trip lost root node")
	}
}
