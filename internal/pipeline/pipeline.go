// Package pipeline orchestrates a full load: every indicator export is read,
// resolved, intersected into one country universe and returned as an
// immutable snapshot.
package pipeline

import (
	"context"
	"demography/internal/config"
	"demography/internal/loader"
	"demography/internal/resolver"
	"demography/internal/universe"
	"demography/pkg/domain"
	"demography/pkg/logger"
	"demography/pkg/metrics"
	"demography/pkg/registry"
	"demography/pkg/serrors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "demography/internal/pipeline"

// Options configure where the exports live and how they are parsed.
type Options struct {
	// Dir is the root directory of the exports.
	Dir string
	// Sources overrides the path of individual indicators. Relative paths are
	// resolved against Dir; indicators without an entry use their default
	// location Dir/<descriptor.Dir>/<descriptor.File>.
	Sources map[domain.Indicator]string
	// Loader describes the export layout.
	Loader loader.Options
}

// NewOptions constructs Options from the application config.
func NewOptions(cfg *config.Config) (Options, error) {
	opts := Options{
		Dir:     cfg.Data.Dir,
		Sources: make(map[domain.Indicator]string, len(cfg.Data.Sources)),
		Loader: loader.Options{
			PreambleRows:    cfg.Data.PreambleRows,
			TrailingColumns: cfg.Data.TrailingColumns,
			FirstYear:       cfg.Data.FirstYear,
			Continents:      true,
		},
	}
	if err := opts.Loader.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid data layout: %w", err)
	}
	for name, path := range cfg.Data.Sources {
		indicator, err := domain.ParseIndicator(name)
		if err != nil {
			return Options{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid data source")
		}
		opts.Sources[indicator] = path
	}

	return opts, nil
}

// NewResolver builds the resolver described by the application config.
func NewResolver(cfg *config.Config) (*resolver.Resolver, error) {
	reg := registry.ISO()
	if len(cfg.Resolver.ExtraCountries) > 0 {
		reg = registry.Chain(reg, registry.Map(cfg.Resolver.ExtraCountries))
	}
	tables := resolver.DefaultTables().With(cfg.Resolver.ExtraDenied, cfg.Resolver.ExtraRenames)

	res, err := resolver.New(domain.ResolutionMode(cfg.Resolver.Mode), tables, reg)
	if err != nil {
		return nil, fmt.Errorf("could not create resolver: %w", err)
	}

	return res, nil
}

// Pipeline is the single entry point of the presentation layer. It keeps no
// state between runs: every Run re-reads every export.
type Pipeline struct {
	options  Options
	resolver *resolver.Resolver
	loader   *loader.Loader
	metrics  *metrics.Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates a Pipeline. A nil recorder disables metrics.
func New(res *resolver.Resolver, recorder *metrics.Recorder, options Options) *Pipeline {
	if recorder == nil {
		recorder = metrics.Nop()
	}

	return &Pipeline{
		options:  options,
		resolver: res,
		loader:   loader.New(res, options.Loader),
		metrics:  recorder,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// Source returns the path the export of indicator is read from.
func (p *Pipeline) Source(indicator domain.Indicator) string {
	if path, ok := p.options.Sources[indicator]; ok {
		if filepath.IsAbs(path) {
			return path
		}

		return filepath.Join(p.options.Dir, path)
	}

	d, _ := indicator.Describe()

	return filepath.Join(p.options.Dir, d.Dir, d.File)
}

// Run executes the pipeline. Any error is fatal for the run; no partial
// snapshot is returned.
func (p *Pipeline) Run(ctx context.Context) (*domain.Snapshot, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("resolver.mode", string(p.resolver.Mode())),
	))
	defer span.End()

	snapshot, err := p.run(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "pipeline run failed",
			zap.String("kind", serrors.KindOf(err).Error()), zap.Error(err))

		return nil, err
	}
	span.SetAttributes(attribute.Int("universe.size", len(snapshot.Codes)))

	return snapshot, nil
}

func (p *Pipeline) run(ctx context.Context, runID string) (*domain.Snapshot, error) {
	start := p.now()
	logger.Info(ctx, "pipeline run started",
		zap.String("mode", string(p.resolver.Mode())),
		zap.String("dir", p.options.Dir))

	indicators := domain.Indicators()
	tables := make(map[domain.Indicator]*domain.IndicatorTable, len(indicators))
	continents := make(map[domain.Indicator]*domain.ContinentTable, len(indicators))
	ordered := make([]*domain.IndicatorTable, 0, len(indicators))

	stage := p.now()
	for _, indicator := range indicators {
		res, err := p.loader.Load(ctx, p.Source(indicator), indicator)
		if err != nil {
			return nil, fmt.Errorf("could not load %s: %w", indicator, err)
		}
		p.recordRows(ctx, indicator, res.Stats)

		tables[indicator] = res.Table
		continents[indicator] = res.Continents
		ordered = append(ordered, res.Table)
	}
	p.metrics.Stage(ctx, "load", p.now().Sub(stage))

	stage = p.now()
	ids, err := universe.Intersect(ordered...)
	if err != nil {
		return nil, fmt.Errorf("could not build country universe: %w", err)
	}
	tables, err = universe.Restrict(tables, ids)
	if err != nil {
		return nil, fmt.Errorf("could not align indicator tables: %w", err)
	}
	if err := universe.Check(tables, ids); err != nil {
		return nil, err
	}
	p.metrics.Stage(ctx, "intersect", p.now().Sub(stage))
	p.metrics.Universe(ctx, len(ids))

	names := make([]string, len(ids))
	for i, id := range ids {
		name, ok := p.resolver.DisplayName(id)
		if !ok {
			return nil, serrors.With(serrors.ErrInternal, "no display name for %q", id)
		}
		names[i] = name
	}

	logger.Info(ctx, "pipeline run finished",
		zap.Int("countries", len(ids)),
		zap.Duration("took", p.now().Sub(start)))

	return &domain.Snapshot{
		RunID:      runID,
		Mode:       p.resolver.Mode(),
		LoadedAt:   start,
		Tables:     tables,
		Continents: continents,
		Codes:      ids,
		Names:      names,
	}, nil
}

func (p *Pipeline) recordRows(ctx context.Context, indicator domain.Indicator, stats loader.Stats) {
	name := indicator.String()
	p.metrics.Rows(ctx, name, metrics.OutcomeKept, stats.Kept)
	p.metrics.Rows(ctx, name, metrics.OutcomeIncomplete, stats.Incomplete)
	p.metrics.Rows(ctx, name, metrics.OutcomeUnresolved, stats.Unresolved)
	p.metrics.Rows(ctx, name, metrics.OutcomeDuplicate, stats.Duplicate)
}
