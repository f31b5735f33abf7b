package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bikedash/internal/infrastructure"
	"bikedash/pkg/contracts/domain"
)

// PipelineConfig holds what a run needs besides its collaborators.
type PipelineConfig struct {
	DailySource  string
	HourlySource string
	Months       []string
	Days         []string
	Policy       Policy
}

// Result is one pipeline run: the filtered dataset and the vocabularies it
// was normalized with.
type Result struct {
	Dataset      *domain.Dataset
	Vocabularies VocabularySet
}

// Pipeline runs Loader, Normalizer and RangeFilter in sequence. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	cfg        PipelineConfig
	loader     *Loader
	normalizer *Normalizer
	filter     *RangeFilter
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline validates the configured vocabularies up front so that a bad
// configuration fails at startup rather than on the first page load.
func NewPipeline(cfg PipelineConfig, loader *Loader, logger *slog.Logger, tracer trace.Tracer, metrics *infrastructure.BusinessMetrics) (*Pipeline, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if _, err := NewVocabulary(ColMonthName, cfg.Months); err != nil {
		return nil, err
	}
	if _, err := NewVocabulary(ColDayName, cfg.Days); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}

	return &Pipeline{
		cfg:        cfg,
		loader:     loader,
		normalizer: NewNormalizer(cfg.Policy, logger),
		filter:     NewRangeFilter(logger),
		tracer:     tracer,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "pipeline")),
		now:        time.Now,
	}, nil
}

// Run loads, normalizes and filters both tables. Any error aborts the run
// with no partial output.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	start := p.now()
	defer func() {
		infrastructure.RecordPipelineRun(ctx, p.metrics, err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			p.logger.ErrorContext(ctx, "pipeline run failed",
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)))
		}
	}()

	var raw *RawTables
	err = p.stage(ctx, "load", func(ctx context.Context) error {
		var err error
		raw, err = p.loader.Load(ctx, p.cfg.DailySource, p.cfg.HourlySource)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The yearmonth ordering is captured from the raw daily table before any
	// row can be removed.
	var vocab VocabularySet
	err = p.stage(ctx, "vocabulary", func(context.Context) error {
		ym, err := DeriveYearMonthVocabulary(raw.Daily)
		if err != nil {
			return err
		}
		vocab, err = NewVocabularySet(p.cfg.Months, p.cfg.Days, ym)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		daily  *domain.DailyTable
		hourly *domain.HourlyTable
		issues []domain.DataQualityIssue
	)
	err = p.stage(ctx, "normalize", func(ctx context.Context) error {
		var dailyIssues, hourlyIssues []domain.DataQualityIssue
		var err error
		if daily, dailyIssues, err = p.normalizer.NormalizeDaily(ctx, raw.Daily, vocab); err != nil {
			return err
		}
		if hourly, hourlyIssues, err = p.normalizer.NormalizeHourly(ctx, raw.Hourly, vocab); err != nil {
			return err
		}
		issues = append(dailyIssues, hourlyIssues...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.recordIssues(ctx, issues)

	var filtered *FilterResult
	err = p.stage(ctx, "filter", func(ctx context.Context) error {
		var err error
		filtered, err = p.filter.Apply(ctx, daily, hourly)
		return err
	})
	if err != nil {
		return nil, err
	}

	infrastructure.RecordRows(ctx, p.metrics, TableDaily, daily.Len(), filtered.DailyDropped)
	infrastructure.RecordRows(ctx, p.metrics, TableHourly, hourly.Len(), filtered.HourlyDropped)

	span.SetAttributes(
		attribute.Int("pipeline.daily_rows", filtered.Daily.Len()),
		attribute.Int("pipeline.hourly_rows", filtered.Hourly.Len()),
		attribute.Int("pipeline.issues", len(issues)),
	)

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("daily_rows", filtered.Daily.Len()),
		slog.Int("hourly_rows", filtered.Hourly.Len()),
		slog.Int("issues", len(issues)),
		slog.Duration("duration", time.Since(start)))

	return &Result{
		Dataset: &domain.Dataset{
			Daily:    filtered.Daily,
			Hourly:   filtered.Hourly,
			Bounds:   filtered.Bounds,
			Issues:   issues,
			LoadedAt: p.now(),
		},
		Vocabularies: vocab,
	}, nil
}

// stage runs fn inside a child span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	infrastructure.RecordPipelineStage(ctx, p.metrics, name, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	return nil
}

func (p *Pipeline) recordIssues(ctx context.Context, issues []domain.DataQualityIssue) {
	type key struct{ table, column string }
	counts := make(map[key]int)
	for _, issue := range issues {
		counts[key{issue.Table, issue.Column}]++
	}
	for k, n := range counts {
		infrastructure.RecordDataQualityIssues(ctx, p.metrics, k.table, k.column, n)
	}
}
