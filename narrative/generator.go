package narrative

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BonChain/saga-sub000/cascade"
	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/world"
)

// Generator produces structured root consequences for an action: via the LLM
// when a provider is configured, via deterministic templates otherwise. The
// cascade engine only ever sees the structured output.
type Generator struct {
	client  *Client
	rng     *rand.Rand
	regions []string
	maxOut  int
	log     *logger.Logger
}

// NewGenerator builds a generator. A nil rng gets a time-seeded source.
func NewGenerator(client *Client, catalog *world.Catalog, maxConsequences int, rng *rand.Rand, log *logger.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxConsequences < 1 {
		maxConsequences = 3
	}
	return &Generator{
		client:  client,
		rng:     rng,
		regions: catalog.Regions(),
		maxOut:  maxConsequences,
		log:     log,
	}
}

// llmConsequence is the shape we ask the model to emit.
type llmConsequence struct {
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Magnitude   int      `json:"magnitude"`
	Duration    string   `json:"duration"`
	Systems     []string `json:"systems"`
	Regions     []string `json:"regions"`
	Probability float64  `json:"probability"`
}

// RootConsequences generates 1..max structured root consequences for an
// actor's action. LLM output is clamped, never trusted; any failure falls
// back to the offline templates so an action always cascades.
func (g *Generator) RootConsequences(actionDescription string) []cascade.RootConsequence {
	if g.client.Configured() {
		if roots, err := g.fromLLM(actionDescription); err == nil && len(roots) > 0 {
			return roots
		} else if err != nil {
			g.log.Warn(logger.StatusWarn, "narrative generation failed (%v), using templates", err)
		}
	}
	return g.fromTemplates(actionDescription)
}

func (g *Generator) fromLLM(actionDescription string) ([]cascade.RootConsequence, error) {
	prompt := fmt.Sprintf(`
An actor in a fantasy world just did this: "%s"
List the %d most plausible direct consequences.
Categories: combat, trade, diplomacy, theft, construction, destruction, ritual, discovery.
Severities: minor, moderate, major, significant, critical. Durations: temporary, short, medium, long, permanent.
Systems: economic, political, social, environmental, military, religious, technological, criminal.
Regions: %s.
Return ONLY a JSON array like:
[{"description":"...","type":"combat","severity":"major","magnitude":7,"duration":"medium","systems":["military"],"regions":["village"],"probability":0.8}]
`, actionDescription, g.maxOut, strings.Join(g.regions, ", "))

	resp, err := g.client.Complete(prompt)
	if err != nil {
		return nil, err
	}

	var raw []llmConsequence
	if err := json.Unmarshal([]byte(cleanJSON(resp)), &raw); err != nil {
		return nil, fmt.Errorf("parse narrative response: %w", err)
	}

	var roots []cascade.RootConsequence
	for _, rc := range raw {
		if len(roots) >= g.maxOut {
			break
		}
		roots = append(roots, cascade.RootConsequence{
			ID:          "root_" + uuid.NewString(),
			Description: rc.Description,
			Type:        rc.Type,
			Impact: cascade.ImpactProfile{
				Severity:        cascade.Severity(rc.Severity),
				Magnitude:       rc.Magnitude,
				Duration:        cascade.Duration(rc.Duration),
				AffectedSystems: rc.Systems,
				AffectedRegions: rc.Regions,
			},
			Probability: rc.Probability,
		}.Normalize())
	}

	g.log.Info(logger.StatusNarr, "LLM produced %d root consequences", len(roots))
	return roots, nil
}

// rootTemplate seeds the offline generator: a keyword gate, a category, and
// the profile ranges the consequence draws from.
type rootTemplate struct {
	keywords []string
	category string
	severity cascade.Severity
	duration cascade.Duration
	systems  []string
	describe string
}

var rootTemplates = []rootTemplate{
	{
		keywords: []string{"attack", "fight", "kill", "raid", "battle"},
		category: world.CategoryCombat,
		severity: cascade.SeverityMajor,
		duration: cascade.DurationMedium,
		systems:  []string{"military"},
		describe: "Blood is spilled and word of the violence travels fast",
	},
	{
		keywords: []string{"buy", "sell", "trade", "merchant", "caravan"},
		category: world.CategoryTrade,
		severity: cascade.SeverityModerate,
		duration: cascade.DurationShort,
		systems:  []string{"economic"},
		describe: "Coin changes hands and local prices shift",
	},
	{
		keywords: []string{"steal", "rob", "pickpocket", "smuggle"},
		category: world.CategoryTheft,
		severity: cascade.SeverityModerate,
		duration: cascade.DurationShort,
		systems:  []string{"criminal"},
		describe: "Something goes missing and suspicion spreads",
	},
	{
		keywords: []string{"build", "construct", "erect", "found"},
		category: world.CategoryConstruct,
		severity: cascade.SeverityModerate,
		duration: cascade.DurationLong,
		systems:  []string{"economic", "social"},
		describe: "New walls rise and the locals take notice",
	},
	{
		keywords: []string{"burn", "destroy", "raze", "demolish"},
		category: world.CategoryDestruction,
		severity: cascade.SeveritySignificant,
		duration: cascade.DurationLong,
		systems:  []string{"environmental", "economic"},
		describe: "Smoke on the horizon; what stood is gone",
	},
	{
		keywords: []string{"pray", "ritual", "sacrifice", "bless", "curse"},
		category: world.CategoryRitual,
		severity: cascade.SeverityModerate,
		duration: cascade.DurationMedium,
		systems:  []string{"religious"},
		describe: "The faithful stir; omens are read into everything",
	},
	{
		keywords: []string{"negotiate", "treaty", "ally", "envoy", "parley"},
		category: world.CategoryDiplomacy,
		severity: cascade.SeverityModerate,
		duration: cascade.DurationMedium,
		systems:  []string{"political"},
		describe: "Factions recalculate their loyalties",
	},
	{
		keywords: nil, // catch-all
		category: world.CategoryDiscovery,
		severity: cascade.SeverityMinor,
		duration: cascade.DurationShort,
		systems:  []string{"technological"},
		describe: "Curiosity ripples outward from the deed",
	},
}

// fromTemplates keyword-matches the action text against the template table
// and synthesizes consequences locally. Deterministic given the injected rng.
func (g *Generator) fromTemplates(actionDescription string) []cascade.RootConsequence {
	lower := strings.ToLower(actionDescription)

	var matched []rootTemplate
	for _, tpl := range rootTemplates {
		for _, kw := range tpl.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, tpl)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = append(matched, rootTemplates[len(rootTemplates)-1])
	}
	if len(matched) > g.maxOut {
		matched = matched[:g.maxOut]
	}

	var roots []cascade.RootConsequence
	for i, tpl := range matched {
		region := g.regions[g.rng.Intn(len(g.regions))]
		roots = append(roots, cascade.RootConsequence{
			ID:          fmt.Sprintf("root_tpl_%d_%s", i+1, tpl.category),
			Description: tpl.describe,
			Type:        tpl.category,
			Impact: cascade.ImpactProfile{
				Severity:        tpl.severity,
				Magnitude:       5 + g.rng.Intn(4),
				Duration:        tpl.duration,
				AffectedSystems: tpl.systems,
				AffectedRegions: []string{region},
			},
			Probability: 0.7 + 0.2*g.rng.Float64(),
		}.Normalize())
	}

	g.log.Info(logger.StatusNarr, "templates produced %d root consequences", len(roots))
	return roots
}
