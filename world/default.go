package world

// Effect categories understood by the default world. Root consequences carry
// one of these; unknown categories simply get no static system associations.
const (
	CategoryCombat      = "combat"
	CategoryTrade       = "trade"
	CategoryDiplomacy   = "diplomacy"
	CategoryTheft       = "theft"
	CategoryConstruct   = "construction"
	CategoryDestruction = "destruction"
	CategoryRitual      = "ritual"
	CategoryDiscovery   = "discovery"
)

// DefaultCatalog builds the built-in world: eight interconnected systems and
// the fixed region map. Influence factors are hand-tuned; they only need to
// be plausible, the cascade math does the rest.
func DefaultCatalog() *Catalog {
	systems := []System{
		{
			ID: "economic", Name: "Economy",
			Connected: []string{"political", "social", "criminal", "technological"},
			Influence: map[string]float64{
				"political":     0.7,
				"social":        0.6,
				"criminal":      0.5,
				"technological": 0.4,
			},
		},
		{
			ID: "political", Name: "Politics",
			Connected: []string{"economic", "military", "social", "religious"},
			Influence: map[string]float64{
				"economic":  0.6,
				"military":  0.8,
				"social":    0.5,
				"religious": 0.4,
			},
		},
		{
			ID: "social", Name: "Society",
			Connected: []string{"economic", "political", "religious", "criminal"},
			Influence: map[string]float64{
				"economic":  0.5,
				"political": 0.4,
				"religious": 0.6,
				"criminal":  0.3,
			},
		},
		{
			ID: "environmental", Name: "Environment",
			Connected: []string{"economic", "social"},
			Influence: map[string]float64{
				"economic": 0.6,
				"social":   0.4,
			},
		},
		{
			ID: "military", Name: "Military",
			Connected: []string{"political", "economic", "social"},
			Influence: map[string]float64{
				"political": 0.7,
				"economic":  0.5,
				"social":    0.6,
			},
		},
		{
			ID: "religious", Name: "Religion",
			Connected: []string{"social", "political"},
			Influence: map[string]float64{
				"social":    0.7,
				"political": 0.5,
			},
		},
		{
			ID: "technological", Name: "Technology",
			Connected: []string{"economic", "military"},
			Influence: map[string]float64{
				"economic": 0.6,
				"military": 0.5,
			},
		},
		{
			ID: "criminal", Name: "Underworld",
			Connected: []string{"economic", "social", "political"},
			Influence: map[string]float64{
				"economic":  0.5,
				"social":    0.4,
				"political": 0.3,
			},
		},
	}

	regions := map[string]Coord{
		"village":   {X: 0, Y: 0},
		"forest":    {X: 3, Y: 1},
		"city":      {X: 6, Y: -2},
		"mountains": {X: 2, Y: 6},
		"coast":     {X: -5, Y: 3},
		"plains":    {X: -2, Y: -4},
		"swamp":     {X: 5, Y: 4},
		"ruins":     {X: 8, Y: 2},
	}

	typeRelations := map[string][]string{
		CategoryCombat:      {"military", "political", "social"},
		CategoryTrade:       {"economic", "criminal"},
		CategoryDiplomacy:   {"political", "religious"},
		CategoryTheft:       {"criminal", "economic"},
		CategoryConstruct:   {"economic", "social", "environmental"},
		CategoryDestruction: {"environmental", "economic", "social"},
		CategoryRitual:      {"religious", "social"},
		CategoryDiscovery:   {"technological", "economic"},
	}

	c, err := NewCatalog(systems, regions, typeRelations)
	if err != nil {
		// The built-in tables are static; a failure here is a programming
		// error, not a runtime condition.
		panic(err)
	}
	return c
}
