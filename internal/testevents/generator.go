package testevents

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/ragged"
	"github.com/okian/ucbtag/pkg/logger"
)

// generator draws events from one seeded stream.
type generator struct {
	cfg   *Config
	rng   *rand.Rand
	stats *Stats
}

func newGenerator(cfg *Config, stats *Stats) *generator {
	return &generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^pcgStreamSalt)), //nolint:gosec // reproducible test data
		stats: stats,
	}
}

// uniform returns a value in [lo, lo+width).
func (g *generator) uniform(lo, width float64) float64 {
	return lo + width*g.rng.Float64()
}

func (g *generator) phi() float64 {
	return g.uniform(-math.Pi, 2*math.Pi)
}

type direction struct{ pt, eta, phi float64 }

func (d direction) cartesian() (px, py, pz float64) {
	return d.pt * math.Cos(d.phi), d.pt * math.Sin(d.phi), d.pt * math.Sinh(d.eta)
}

func (d direction) p() float64 {
	return d.pt * math.Cosh(d.eta)
}

// Generate builds the jet and truth tables of cfg.Events events. The same
// Config always yields the same tables.
func Generate(ctx context.Context, cfg *Config, stats *Stats) (*event.Table, *event.Table, error) {
	if cfg.Events < 0 || cfg.MaxJets < 0 || cfg.MaxTracks < 0 {
		return nil, nil, fmt.Errorf("%w: negative event, jet or track count", ErrConfig)
	}
	if len(cfg.Branches.TruthPrefixes) == 0 {
		return nil, nil, fmt.Errorf("%w: no truth prefixes", ErrConfig)
	}
	if stats == nil {
		stats = &Stats{}
	}

	logger.Get().Info(ctx, "generating events",
		logger.Int("events", cfg.Events),
		logger.Int("maxJets", cfg.MaxJets),
		logger.Int("maxTracks", cfg.MaxTracks),
		logger.Any("seed", cfg.Seed))

	g := newGenerator(cfg, stats)
	br := cfg.Branches
	nTruth := len(br.TruthPrefixes)

	truthCols := make(map[string][]float64)
	for _, n := range br.AllTruthColumns() {
		truthCols[n] = make([]float64, cfg.Events)
	}
	jetRows := make([][][]float64, len(br.JetColumns()))
	trackRows := make([][][]float64, len(br.TrackColumns()))
	jetCounts := make([]int, cfg.Events)

	for ev := 0; ev < cfg.Events; ev++ {
		if ev%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		truths := make([]direction, nTruth)
		for k, prefix := range br.TruthPrefixes {
			d := direction{pt: g.uniform(minTruthPt, truthPtRange), eta: g.uniform(-maxAbsEta, 2*maxAbsEta), phi: g.phi()}
			truths[k] = d
			px, py, pz := d.cartesian()
			truthCols[prefix+br.TruthPDGID][ev] = float64(pdgChoices[g.rng.IntN(len(pdgChoices))])
			truthCols[prefix+br.TruthEnergy][ev] = d.p()
			truthCols[prefix+br.TruthPx][ev] = px
			truthCols[prefix+br.TruthPy][ev] = py
			truthCols[prefix+br.TruthPz][ev] = pz
		}

		n := g.rng.IntN(cfg.MaxJets + 1)
		jetCounts[ev] = n
		jets := make([][]float64, len(jetRows))
		for j := 0; j < n; j++ {
			jd := g.jet(truths)
			px, py, pz := jd.cartesian()
			mass := g.uniform(0, maxJetMass)
			for c, v := range []float64{px, py, pz, math.Hypot(jd.p(), mass), mass} {
				jets[c] = append(jets[c], v)
			}
			for c, row := range g.tracks(jd) {
				trackRows[c] = append(trackRows[c], row)
			}
		}
		for c := range jetRows {
			jetRows[c] = append(jetRows[c], jets[c])
		}
		stats.JetsGenerated += n
	}
	stats.EventsGenerated += cfg.Events

	return g.tables(jetRows, trackRows, jetCounts, truthCols)
}

// jet draws a jet axis, aimed near one of the truth particles with
// probability MatchFraction.
func (g *generator) jet(truths []direction) direction {
	d := direction{pt: g.uniform(minJetPt, jetPtRange)}
	if g.rng.Float64() < g.cfg.MatchFraction {
		t := truths[g.rng.IntN(len(truths))]
		d.eta = t.eta + aimSpread*g.rng.NormFloat64()
		d.phi = t.phi + aimSpread*g.rng.NormFloat64()
		g.stats.AimedJets++
	} else {
		d.eta = g.uniform(-maxAbsEta, 2*maxAbsEta)
		d.phi = g.phi()
	}
	d.phi = math.Remainder(d.phi, 2*math.Pi)
	return d
}

// tracks draws the constituents of one jet, one slice per track column.
func (g *generator) tracks(jet direction) [][]float64 {
	n := g.rng.IntN(g.cfg.MaxTracks + 1)
	cols := make([][]float64, 7)
	for i := range cols {
		cols[i] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		omega := 0.0
		if g.rng.Float64() >= g.cfg.ZeroOmegaFraction {
			omega = g.uniform(minAbsOmega, omegaRange)
			if g.rng.IntN(2) == 0 {
				omega = -omega
			}
		} else {
			g.stats.ZeroOmegaTracks++
		}
		eta := jet.eta + trackSpread*g.rng.NormFloat64()
		phi := math.Remainder(jet.phi+trackSpread*g.rng.NormFloat64(), 2*math.Pi)

		// Column order follows Branches.TrackColumns.
		cols[0][k] = omega
		cols[1][k] = math.Sinh(eta)
		cols[2][k] = d0Width * g.rng.NormFloat64()
		cols[3][k] = g.uniform(minD0Sigma, d0SigmaRange)
		cols[4][k] = z0Width * g.rng.NormFloat64()
		cols[5][k] = g.uniform(minZ0Sigma, z0SigmaRange)
		cols[6][k] = phi
	}
	g.stats.TracksGenerated += n
	return cols
}

func (g *generator) tables(jetRows, trackRows [][][]float64, jetCounts []int, truthCols map[string][]float64) (*event.Table, *event.Table, error) {
	br := g.cfg.Branches
	jets := event.NewTable(orDefault(g.cfg.JetTree, defaultJetTree), g.cfg.Events)
	for c, name := range br.JetColumns() {
		if err := jets.PutJagged(name, ragged.FromRows(jetRows[c])); err != nil {
			return nil, nil, err
		}
	}
	outer, err := ragged.NewIndex(jetCounts)
	if err != nil {
		return nil, nil, err
	}
	for c, name := range br.TrackColumns() {
		inner := ragged.FromRows(trackRows[c])
		if err := jets.PutNested(name, event.Nested{Outer: outer, Inner: inner}); err != nil {
			return nil, nil, err
		}
	}

	truths := event.NewTable(orDefault(g.cfg.TruthTree, defaultTruthTree), g.cfg.Events)
	for _, name := range br.AllTruthColumns() {
		if err := truths.PutScalar(name, truthCols[name]); err != nil {
			return nil, nil, err
		}
	}
	return jets, truths, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// GenerateBatch generates events and assembles them into a Batch.
func GenerateBatch(ctx context.Context, cfg *Config) (*event.Batch, error) {
	jets, truths, err := Generate(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return event.Build(jets, truths, cfg.Branches)
}
