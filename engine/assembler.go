package engine

import (
	"math/rand"
	"time"

	"github.com/BonChain/saga-sub000/cascade"
	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/viz"
	"github.com/BonChain/saga-sub000/world"
)

// Action is one actor action together with its root consequences, as the
// narrative collaborator delivers them.
type Action struct {
	ID          string
	ActorID     string
	Description string
	Roots       []cascade.RootConsequence
}

// Assembler runs the full pipeline for one action: expansion, ledger,
// visualization synthesis, summary metadata. Stateless across invocations;
// safe for concurrent use as long as each call gets its own rand source.
type Assembler struct {
	catalog *world.Catalog
	synth   *viz.Synthesizer
	log     *logger.Logger
}

// NewAssembler builds an assembler over the given immutable catalog.
func NewAssembler(catalog *world.Catalog, log *logger.Logger) *Assembler {
	return &Assembler{
		catalog: catalog,
		synth:   viz.NewSynthesizer(catalog, log),
		log:     log,
	}
}

// Build expands the action's consequences and synthesizes the renderable
// result. Any panic during the pipeline is converted into a successfully
// returned empty network, never a partial one; the caller decides whether to
// retry. A nil rng means time-seeded randomness.
func (a *Assembler) Build(action Action, opts cascade.Options, rng *rand.Rand) (res *viz.Result) {
	start := time.Now()

	exp := cascade.NewExpander(a.catalog, opts, rng, a.log, action.Roots)
	defer func() {
		if r := recover(); r != nil {
			a.log.Error(logger.StatusErr,
				"expansion failed for action %s after %dms: %v (level=%d, roots=%d, edges=%d)",
				action.ID, time.Since(start).Milliseconds(), r,
				exp.MaxDepth(), len(exp.Roots()), exp.Ledger().Len())
			res = a.emptyResult(action, start)
		}
	}()

	a.log.Info(logger.StatusCascade, "expanding action %s (%d roots, max %d levels)",
		action.ID, len(action.Roots), opts.MaxLevels)

	network := exp.ExpandAll()
	network.ProcessingMs = time.Since(start).Milliseconds()

	res = a.synth.Synthesize(action.ID, action.Description, network, exp.Ledger())
	res.Metadata.ProcessingMs = time.Since(start).Milliseconds()

	a.log.Info(logger.StatusOK, "action %s: %d effects across %d levels in %dms",
		action.ID, len(network.CascadingEffects), network.MaxDepthReached, res.Metadata.ProcessingMs)
	return res
}

// emptyResult synthesizes a zero-effect network so failed expansions still
// yield a consistent, renderable value.
func (a *Assembler) emptyResult(action Action, start time.Time) *viz.Result {
	empty := &cascade.CascadeNetwork{ProcessingMs: time.Since(start).Milliseconds()}
	res := a.synth.Synthesize(action.ID, action.Description, empty, cascade.NewLedger())
	res.Metadata.ProcessingMs = time.Since(start).Milliseconds()
	return res
}
