package world

import (
	"fmt"
	"math"
	"sort"
)

// System is an abstract named subsystem of the simulated world (economy,
// politics, ...) with weighted influence links to other systems.
type System struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Connected []string           `json:"connected"`
	Influence map[string]float64 `json:"influence"` // connected id -> factor 0..1
}

// Coord is a region position on the abstract world map.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Catalog is the read-only registry of world systems and regions. It is built
// once at startup and safe for concurrent reads by simultaneous cascade
// invocations.
type Catalog struct {
	systems map[string]*System
	order   []string
	regions map[string]Coord

	// effect category -> system ids statically associated with it
	typeRelations map[string][]string
}

// NewCatalog validates the declared systems and builds the registry. It fails
// fast when a connection or influence entry references an unknown system id.
func NewCatalog(systems []System, regions map[string]Coord, typeRelations map[string][]string) (*Catalog, error) {
	c := &Catalog{
		systems:       make(map[string]*System, len(systems)),
		regions:       make(map[string]Coord, len(regions)),
		typeRelations: make(map[string][]string, len(typeRelations)),
	}

	for i := range systems {
		s := systems[i]
		if s.ID == "" {
			return nil, fmt.Errorf("world catalog: system %d has empty id", i)
		}
		if _, dup := c.systems[s.ID]; dup {
			return nil, fmt.Errorf("world catalog: duplicate system id %q", s.ID)
		}
		c.systems[s.ID] = &s
		c.order = append(c.order, s.ID)
	}

	for _, s := range c.systems {
		for _, conn := range s.Connected {
			if _, ok := c.systems[conn]; !ok {
				return nil, fmt.Errorf("world catalog: system %q connects to unknown system %q", s.ID, conn)
			}
		}
		for target, factor := range s.Influence {
			if _, ok := c.systems[target]; !ok {
				return nil, fmt.Errorf("world catalog: system %q influences unknown system %q", s.ID, target)
			}
			if factor < 0 || factor > 1 {
				return nil, fmt.Errorf("world catalog: system %q -> %q influence %.2f out of range", s.ID, target, factor)
			}
		}
	}

	for cat, ids := range typeRelations {
		for _, id := range ids {
			if _, ok := c.systems[id]; !ok {
				return nil, fmt.Errorf("world catalog: category %q relates to unknown system %q", cat, id)
			}
		}
		c.typeRelations[cat] = append([]string(nil), ids...)
	}

	for id, pos := range regions {
		c.regions[id] = pos
	}

	sort.Strings(c.order)
	return c, nil
}

// Systems returns all systems in stable id order.
func (c *Catalog) Systems() []*System {
	out := make([]*System, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.systems[id])
	}
	return out
}

// Get returns the system for the given id.
func (c *Catalog) Get(id string) (*System, bool) {
	s, ok := c.systems[id]
	return s, ok
}

// InfluencedBy resolves which systems an effect touches: the systems the
// effect explicitly names, plus the systems statically associated with its
// category. Unknown ids are dropped rather than rejected.
func (c *Catalog) InfluencedBy(effectType string, affectedSystems []string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(id string) {
		if seen[id] {
			return
		}
		if _, ok := c.systems[id]; !ok {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, id := range affectedSystems {
		add(id)
	}
	for _, id := range c.typeRelations[effectType] {
		add(id)
	}

	sort.Strings(out)
	return out
}

// InfluenceRow returns the outgoing influence entries of a system, in stable
// target-id order.
func (c *Catalog) InfluenceRow(systemID string) []InfluenceEntry {
	s, ok := c.systems[systemID]
	if !ok {
		return nil
	}
	out := make([]InfluenceEntry, 0, len(s.Influence))
	for target, factor := range s.Influence {
		out = append(out, InfluenceEntry{Target: target, Factor: factor})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// InfluenceEntry is a single weighted link out of a system.
type InfluenceEntry struct {
	Target string
	Factor float64
}

// SecondOrder returns systems one further hop away from the given system:
// targets influenced by its direct targets, excluding itself and its direct
// targets. The factor is the strongest two-hop product.
func (c *Catalog) SecondOrder(systemID string) []InfluenceEntry {
	s, ok := c.systems[systemID]
	if !ok {
		return nil
	}

	direct := make(map[string]bool, len(s.Influence))
	for target := range s.Influence {
		direct[target] = true
	}

	best := make(map[string]float64)
	for mid, f1 := range s.Influence {
		midSys := c.systems[mid]
		for far, f2 := range midSys.Influence {
			if far == systemID || direct[far] {
				continue
			}
			if combined := f1 * f2; combined > best[far] {
				best[far] = combined
			}
		}
	}

	out := make([]InfluenceEntry, 0, len(best))
	for target, factor := range best {
		out = append(out, InfluenceEntry{Target: target, Factor: factor})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

// Regions returns all known region ids in stable order.
func (c *Catalog) Regions() []string {
	out := make([]string, 0, len(c.regions))
	for id := range c.regions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RegionDistance returns the map distance between two regions, or 0 when
// either is unknown.
func (c *Catalog) RegionDistance(a, b string) float64 {
	pa, okA := c.regions[a]
	pb, okB := c.regions[b]
	if !okA || !okB {
		return 0
	}
	dx := pa.X - pb.X
	dy := pa.Y - pb.Y
	return math.Sqrt(dx*dx + dy*dy)
}
