package world

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestNewCatalogRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name    string
		systems []System
		wantErr string
	}{
		{
			name:    "empty id",
			systems: []System{{ID: "", Name: "Nameless"}},
			wantErr: "empty id",
		},
		{
			name: "duplicate id",
			systems: []System{
				{ID: "economic", Name: "Economy"},
				{ID: "economic", Name: "Economy Again"},
			},
			wantErr: "duplicate",
		},
		{
			name: "unknown connection",
			systems: []System{
				{ID: "economic", Name: "Economy", Connected: []string{"ghost"}},
			},
			wantErr: "unknown system",
		},
		{
			name: "unknown influence target",
			systems: []System{
				{ID: "economic", Name: "Economy", Influence: map[string]float64{"ghost": 0.5}},
			},
			wantErr: "unknown system",
		},
		{
			name: "influence out of range",
			systems: []System{
				{ID: "economic", Name: "Economy"},
				{ID: "social", Name: "Society", Influence: map[string]float64{"economic": 1.5}},
			},
			wantErr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.systems, nil, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewCatalogRejectsUnknownTypeRelation(t *testing.T) {
	systems := []System{{ID: "economic", Name: "Economy"}}
	_, err := NewCatalog(systems, nil, map[string][]string{"combat": {"military"}})
	if err == nil || !strings.Contains(err.Error(), "unknown system") {
		t.Fatalf("err = %v", err)
	}
}

func TestInfluencedByUnionsAndSorts(t *testing.T) {
	c := DefaultCatalog()

	got := c.InfluencedBy(CategoryCombat, []string{"military", "phantom"})
	want := []string{"military", "political", "social"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// An unknown category contributes nothing beyond the named systems.
	got = c.InfluencedBy("unheard-of", []string{"economic"})
	if !reflect.DeepEqual(got, []string{"economic"}) {
		t.Errorf("got %v", got)
	}
}

func TestInfluenceRowStableOrder(t *testing.T) {
	c := DefaultCatalog()

	row := c.InfluenceRow("military")
	if len(row) != 3 {
		t.Fatalf("got %d entries, want 3", len(row))
	}
	for i := 1; i < len(row); i++ {
		if row[i-1].Target >= row[i].Target {
			t.Errorf("row out of order at %d: %v", i, row)
		}
	}
	if c.InfluenceRow("phantom") != nil {
		t.Error("unknown system should yield nil row")
	}
}

func TestSecondOrderExcludesSelfAndDirect(t *testing.T) {
	c := DefaultCatalog()

	second := c.SecondOrder("political")
	direct := map[string]bool{"economic": true, "military": true, "social": true, "religious": true}
	for _, e := range second {
		if e.Target == "political" {
			t.Error("second order includes the source itself")
		}
		if direct[e.Target] {
			t.Errorf("second order includes direct target %s", e.Target)
		}
	}

	// politics -> economy (0.6) -> underworld (0.5) is the strongest path.
	var criminal *InfluenceEntry
	for i := range second {
		if second[i].Target == "criminal" {
			criminal = &second[i]
		}
	}
	if criminal == nil {
		t.Fatal("expected a two-hop path to the underworld")
	}
	if math.Abs(criminal.Factor-0.3) > 1e-9 {
		t.Errorf("criminal factor = %v, want 0.30", criminal.Factor)
	}
}

func TestRegionDistance(t *testing.T) {
	c := DefaultCatalog()

	if d := c.RegionDistance("village", "village"); d != 0 {
		t.Errorf("self distance = %v", d)
	}
	want := math.Sqrt(10) // village (0,0) to forest (3,1)
	if d := c.RegionDistance("village", "forest"); math.Abs(d-want) > 1e-9 {
		t.Errorf("distance = %v, want %v", d, want)
	}
	if d := c.RegionDistance("village", "atlantis"); d != 0 {
		t.Errorf("unknown region distance = %v, want 0", d)
	}
}

func TestDefaultCatalogIsClosed(t *testing.T) {
	c := DefaultCatalog()

	if len(c.Systems()) != 8 {
		t.Fatalf("got %d systems", len(c.Systems()))
	}
	if len(c.Regions()) != 8 {
		t.Fatalf("got %d regions", len(c.Regions()))
	}
	for _, s := range c.Systems() {
		for target := range s.Influence {
			if _, ok := c.Get(target); !ok {
				t.Errorf("system %s influences unregistered %s", s.ID, target)
			}
		}
	}
}

func TestLoadCatalogFile(t *testing.T) {
	doc := `{
	  "systems": [
	    {"id": "guilds", "name": "Guilds", "connected": ["temples"], "influence": {"temples": 0.5}},
	    {"id": "temples", "name": "Temples", "influence": {"guilds": 0.4}}
	  ],
	  "regions": {"harbor": {"x": 1, "y": 2}},
	  "type_relations": {"trade": ["guilds"]}
	}`
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Systems()) != 2 {
		t.Errorf("got %d systems", len(c.Systems()))
	}
	if got := c.InfluencedBy("trade", nil); !reflect.DeepEqual(got, []string{"guilds"}) {
		t.Errorf("type relations not honored: %v", got)
	}
	if got := c.Regions(); !reflect.DeepEqual(got, []string{"harbor"}) {
		t.Errorf("regions = %v, want declared harbor only", got)
	}
}

func TestLoadFallsBackToDefaultRegions(t *testing.T) {
	doc := `{"systems": [{"id": "guilds", "name": "Guilds"}]}`
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Regions()) != 8 {
		t.Errorf("expected built-in regions, got %v", c.Regions())
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"systems": [`},
		{"missing systems", `{"regions": {}}`},
		{"empty systems", `{"systems": []}`},
		{"system without name", `{"systems": [{"id": "guilds"}]}`},
		{"influence above one", `{"systems": [{"id": "a", "name": "A", "influence": {"a": 2.0}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
