// Package service converts in-memory event batches into the dense jet and
// constituent records, splitting the event axis across a worker pool.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	workerpool "github.com/okian/ucbtag/internal/adapters/worker"
	"github.com/okian/ucbtag/internal/domain/assemble"
	"github.com/okian/ucbtag/internal/domain/event"
	"github.com/okian/ucbtag/internal/domain/kinematics"
	"github.com/okian/ucbtag/internal/domain/match"
	"github.com/okian/ucbtag/internal/domain/schema"
	"github.com/okian/ucbtag/internal/domain/tracks"
	"github.com/okian/ucbtag/pkg/logger"
	"github.com/okian/ucbtag/pkg/metrics"
)

// Result is the output of one conversion.
type Result struct {
	RunID  string
	Events int
	Jets   []schema.JetRecord
	// Constituents is row-major [len(Jets), Capacity].
	Constituents []schema.ConstituentRecord
	Capacity     int
	LabelNames   []string
	Audit        assemble.Audit
}

// ConstituentsOf returns the constituent slots of jet j.
func (r *Result) ConstituentsOf(j int) []schema.ConstituentRecord {
	return assemble.Dense{Records: r.Constituents, Capacity: r.Capacity}.Row(j)
}

// Service implements the conversion pipeline.
type Service struct {
	mu sync.Mutex

	// Configuration
	workerCount  int
	minPartition int
	threshold    float64
	capacity     int
	params       tracks.Params
	overflow     assemble.OverflowPolicy
	flavour      assemble.FlavourPolicy
	labels       schema.LabelTable
	newRunID     func() string

	// Collaborators
	metrics *metrics.Manager
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of partition workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMinPartition sets the smallest number of events worth a worker of
// its own.
func WithMinPartition(events int) Option {
	return func(s *Service) {
		if events > 0 {
			s.minPartition = events
		}
	}
}

// WithThreshold sets the DeltaR below which a jet counts as matched.
func WithThreshold(dr float64) Option {
	return func(s *Service) {
		if dr > 0 {
			s.threshold = dr
		}
	}
}

// WithCapacity sets the number of constituent slots per jet.
func WithCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithBField sets the solenoid field used for track pt.
func WithBField(tesla float64) Option {
	return func(s *Service) {
		if tesla > 0 {
			s.params.BField = tesla
		}
	}
}

// WithSignConvention selects the impact-parameter sign convention.
func WithSignConvention(c tracks.SignConvention) Option {
	return func(s *Service) {
		s.params.Sign = c
	}
}

// WithOverflowPolicy sets what happens to jets with too many tracks.
func WithOverflowPolicy(p assemble.OverflowPolicy) Option {
	return func(s *Service) {
		s.overflow = p
	}
}

// WithFlavourPolicy sets what happens to matched flavours missing from the
// label table.
func WithFlavourPolicy(p assemble.FlavourPolicy) Option {
	return func(s *Service) {
		s.flavour = p
	}
}

// WithLabels replaces the flavour label table.
func WithLabels(t schema.LabelTable) Option {
	return func(s *Service) {
		if len(t.Names()) > 0 {
			s.labels = t
		}
	}
}

// WithMetrics records into m instead of the process-wide manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRunID overrides run id generation.
func WithRunID(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newRunID = f
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		threshold:   match.DefaultThreshold,
		capacity:    assemble.DefaultCapacity,
		params:      tracks.DefaultParams(),
		overflow:    assemble.Truncate,
		flavour:     assemble.Passthrough,
		labels:      schema.DefaultLabels(),
		newRunID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("convert")
	}
	return s
}

// Convert runs the whole pipeline over b. Events are split into contiguous
// ranges; each range writes only its own slice of the preallocated output,
// so the result does not depend on the worker count.
func (s *Service) Convert(ctx context.Context, b *event.Batch) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := b.Validate(); err != nil {
		s.recordError(metrics.StageConvert)
		return nil, fmt.Errorf("validate batch: %w", err)
	}

	runID := s.newRunID()
	log := s.logger.With(logger.String("run_id", runID))
	start := time.Now()
	log.Info(ctx, "conversion started",
		logger.Int("events", b.Events()),
		logger.Int("jets", b.NumJets()),
		logger.Int("tracks", b.NumTracks()),
		logger.Int("workers", s.workerCount),
	)

	res := &Result{
		RunID:        runID,
		Events:       b.Events(),
		Jets:         make([]schema.JetRecord, b.NumJets()),
		Constituents: make([]schema.ConstituentRecord, b.NumJets()*s.capacity),
		Capacity:     s.capacity,
		LabelNames:   s.labels.Names(),
	}

	pool := workerpool.NewPool(s.workerCount,
		workerpool.WithName("convert-pool"),
		workerpool.WithMinPartition(s.minPartition),
		workerpool.WithLogger(log.Named("pool")),
	)
	audits := make([]assemble.Audit, len(pool.Plan(b.Events())))
	jetIndex := b.Jets.Px.Index()

	err := pool.Run(ctx, b.Events(), func(ctx context.Context, part int, r workerpool.Range) error {
		jlo, jhi := jetIndex.Offset(r.Lo), jetIndex.Offset(r.Hi)
		a, err := s.convertRange(b.Slice(r.Lo, r.Hi),
			res.Jets[jlo:jhi],
			res.Constituents[jlo*s.capacity:jhi*s.capacity],
		)
		audits[part] = a
		return err
	})
	if err != nil {
		s.recordError(metrics.StageConvert)
		log.Error(ctx, "conversion failed", logger.Error(err))
		return nil, err
	}

	for _, a := range audits {
		res.Audit.Add(a)
	}
	s.record(b, res.Audit, pool.Workers(), time.Since(start))

	if res.Audit.TruncatedJets > 0 {
		log.Warn(ctx, "constituents truncated",
			logger.Int("truncated_jets", res.Audit.TruncatedJets),
			logger.Int("dropped_tracks", res.Audit.DroppedTracks),
			logger.Int("capacity", s.capacity),
		)
	}
	if res.Audit.UnknownFlavours > 0 {
		log.Warn(ctx, "matched flavours outside the label table passed through",
			logger.Int("jets", res.Audit.UnknownFlavours),
		)
	}
	sum := Summarize(res.Jets, s.threshold)
	log.Info(ctx, "conversion finished",
		logger.Int("matched_jets", res.Audit.MatchedJets),
		logger.Float64("match_dr_mean", sum.MeanDR),
		logger.Float64("match_dr_std", sum.StdDR),
		logger.Int("unmatched_jets", res.Audit.UnmatchedJets),
		logger.Int("kept_tracks", res.Audit.KeptTracks),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// convertRange runs every stage over a sub-batch and fills its output
// slices.
func (s *Service) convertRange(b *event.Batch, jetDst []schema.JetRecord, consDst []schema.ConstituentRecord) (assemble.Audit, error) {
	t0 := time.Now()
	jk, err := kinematics.FromCartesian(b.Jets.Px, b.Jets.Py, b.Jets.Pz)
	if err != nil {
		return assemble.Audit{}, fmt.Errorf("jet kinematics: %w", err)
	}
	tk, err := kinematics.FromCartesian(b.Truths.Px, b.Truths.Py, b.Truths.Pz)
	if err != nil {
		return assemble.Audit{}, fmt.Errorf("truth kinematics: %w", err)
	}
	m, err := match.Match(
		match.Direction{Eta: jk.Eta, Phi: jk.Phi},
		match.Truths{Direction: match.Direction{Eta: tk.Eta, Phi: tk.Phi}, Pt: tk.Pt, PDGID: b.Truths.PDGID},
		s.threshold,
	)
	if err != nil {
		return assemble.Audit{}, fmt.Errorf("match: %w", err)
	}
	t1 := time.Now()

	pt, eta, phi := jk.Pt.Data(), jk.Eta.Data(), jk.Phi.Data()
	axes := make([]tracks.Axis, len(pt))
	for j := range axes {
		axes[j] = tracks.Axis{Eta: eta[j], Phi: phi[j], Pt: pt[j]}
	}
	set, err := tracks.DeriveAll(b.Tracks, axes, s.params)
	if err != nil {
		return assemble.Audit{}, fmt.Errorf("derive tracks: %w", err)
	}
	t2 := time.Now()

	ja, err := assemble.FillJets(jetDst, assemble.JetColumns{
		Kinematics: jk,
		Energy:     b.Jets.Energy.Data(),
		Mass:       b.Jets.Mass.Data(),
		Match:      m,
	}, s.labels, s.flavour)
	if err != nil {
		return ja, fmt.Errorf("assemble jets: %w", err)
	}
	ca, err := assemble.FillConstituents(consDst, set, s.capacity, s.overflow)
	if err != nil {
		return ja, fmt.Errorf("assemble constituents: %w", err)
	}
	ja.Add(ca)

	s.metricsManager().ObserveStage(metrics.StageMatch, t1.Sub(t0))
	s.metricsManager().ObserveStage(metrics.StageTracks, t2.Sub(t1))
	s.metricsManager().ObserveStage(metrics.StageAssemble, time.Since(t2))
	return ja, nil
}

func (s *Service) record(b *event.Batch, a assemble.Audit, workers int, elapsed time.Duration) {
	m := s.metricsManager()
	m.RecordInput(b.Events(), b.NumJets(), b.NumTracks())
	m.RecordMatching(a.MatchedJets, a.UnmatchedJets, a.UnknownFlavours)
	m.RecordAssembly(a.TruncatedJets, a.DroppedTracks, a.KeptTracks)
	m.SetWorkers(workers)
	m.ObserveStage(metrics.StageConvert, elapsed)
}

func (s *Service) recordError(stage string) {
	s.metricsManager().RecordStageError(stage)
}

func (s *Service) metricsManager() *metrics.Manager {
	if s.metrics != nil {
		return s.metrics
	}
	return metrics.Default()
}
