package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PublicationMetrics provides business metrics for the listing publication
// pipeline. It tracks publish/unpublish/sync attempts, compensation runs,
// catalog writes, and the public footprint per company.
type PublicationMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	publicationTotal   *Counter
	compensationTotal  *Counter
	catalogUpsertTotal *Counter
	mediaUploadTotal   *Counter

	// Histogram metrics
	publicationDuration *Histogram

	// Gauge metrics (point-in-time values)
	publishedHomesCount      *Gauge
	unmappedCommunitiesCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	catalogProvider CatalogMetricsProvider
}

// CatalogMetricsProvider provides listing state for periodic metrics
// collection. The interface keeps the telemetry layer off the listing
// repositories directly.
type CatalogMetricsProvider interface {
	// GetPublishedHomeCount returns the number of currently published homes for a company
	GetPublishedHomeCount(ctx context.Context, companyID uuid.UUID) (int64, error)

	// GetUnmappedCommunityCount returns the number of communities without a catalog mapping for a company
	GetUnmappedCommunityCount(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// PublicationMetricsConfig holds configuration for publication metrics.
type PublicationMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	CatalogProvider CatalogMetricsProvider
}

// NewPublicationMetrics creates a new PublicationMetrics instance.
func NewPublicationMetrics(cfg PublicationMetricsConfig) (*PublicationMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PublicationMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		catalogProvider: cfg.CatalogProvider,
	}

	var err error

	pm.publicationTotal, err = NewCounter(
		cfg.Meter,
		"keepup_publication_total",
		"Total number of publication operations by operation and outcome",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	pm.compensationTotal, err = NewCounter(
		cfg.Meter,
		"keepup_publication_compensation_total",
		"Total number of compensation runs after a failed publication step",
		"{compensations}",
	)
	if err != nil {
		return nil, err
	}

	pm.catalogUpsertTotal, err = NewCounter(
		cfg.Meter,
		"keepup_catalog_upsert_total",
		"Total number of public catalog upserts by table",
		"{upserts}",
	)
	if err != nil {
		return nil, err
	}

	pm.mediaUploadTotal, err = NewCounter(
		cfg.Meter,
		"keepup_media_upload_total",
		"Total number of confirmed media uploads by kind",
		"{uploads}",
	)
	if err != nil {
		return nil, err
	}

	pm.publicationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "keepup_publication_duration_seconds",
		Description: "Duration of publication operations including remote catalog writes",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	pm.publishedHomesCount, err = NewGauge(
		cfg.Meter,
		"keepup_published_homes_count",
		"Number of homes currently published to the public catalog",
		"{homes}",
	)
	if err != nil {
		return nil, err
	}

	pm.unmappedCommunitiesCount, err = NewGauge(
		cfg.Meter,
		"keepup_unmapped_communities_count",
		"Number of communities without a valid catalog mapping",
		"{communities}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// =============================================================================
// Publication Metrics
// =============================================================================

// Outcome represents the result of a publication operation for metrics labeling.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// RecordOperation records a completed publication operation and its duration.
// Operation is one of publish, unpublish, sync, or publish_community.
func (pm *PublicationMetrics) RecordOperation(ctx context.Context, companyID uuid.UUID, operation string, outcome Outcome, elapsed time.Duration) {
	pm.publicationTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrOperation.String(operation),
		AttrOutcome.String(string(outcome)),
	)
	pm.publicationDuration.RecordDuration(ctx, elapsed,
		AttrOperation.String(operation),
		AttrOutcome.String(string(outcome)),
	)
}

// RecordCompensation records a compensation run after a failed remote write.
func (pm *PublicationMetrics) RecordCompensation(ctx context.Context, companyID uuid.UUID, operation string) {
	pm.compensationTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrOperation.String(operation),
	)
}

// RecordCatalogUpsert records a write to the public catalog store.
// Table is "public_communities" or "public_homes".
func (pm *PublicationMetrics) RecordCatalogUpsert(ctx context.Context, companyID uuid.UUID, table string) {
	pm.catalogUpsertTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrDBTable.String(table),
	)
}

// RecordMediaUpload records a confirmed media upload.
func (pm *PublicationMetrics) RecordMediaUpload(ctx context.Context, companyID uuid.UUID, kind string) {
	pm.mediaUploadTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrMediaKind.String(kind),
	)
}

// =============================================================================
// Catalog Footprint Gauges
// =============================================================================

// RecordPublishedHomes records how many homes a company currently has live.
// This is a gauge metric that should be updated periodically.
func (pm *PublicationMetrics) RecordPublishedHomes(ctx context.Context, companyID uuid.UUID, count int64) {
	pm.publishedHomesCount.Record(ctx, count,
		AttrCompanyID.String(companyID.String()),
	)
}

// RecordUnmappedCommunities records how many of a company's communities lack
// a catalog mapping. A rising value usually means new communities were
// imported without onboarding.
func (pm *PublicationMetrics) RecordUnmappedCommunities(ctx context.Context, companyID uuid.UUID, count int64) {
	pm.unmappedCommunitiesCount.Record(ctx, count,
		AttrCompanyID.String(companyID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// CompanyProvider provides company IDs for periodic metrics collection.
type CompanyProvider interface {
	GetActiveCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects catalog footprint metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (pm *PublicationMetrics) StartPeriodicCollection(ctx context.Context, companyProvider CompanyProvider, interval time.Duration) {
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go pm.runPeriodicCollection(ctx, companyProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (pm *PublicationMetrics) runPeriodicCollection(ctx context.Context, companyProvider CompanyProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	pm.collectCatalogMetrics(ctx, companyProvider)

	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic publication metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic publication metrics collection")
			return
		case <-ticker.C:
			pm.collectCatalogMetrics(ctx, companyProvider)
		}
	}
}

// collectCatalogMetrics collects catalog footprint gauges for all companies.
func (pm *PublicationMetrics) collectCatalogMetrics(ctx context.Context, companyProvider CompanyProvider) {
	if pm.catalogProvider == nil {
		pm.logger.Debug("No catalog provider configured, skipping footprint metrics collection")
		return
	}

	companyIDs, err := companyProvider.GetActiveCompanyIDs(ctx)
	if err != nil {
		pm.logger.Error("Failed to get company IDs for metrics collection", zap.Error(err))
		return
	}

	for _, companyID := range companyIDs {
		pm.collectCompanyCatalogMetrics(ctx, companyID)
	}
}

// collectCompanyCatalogMetrics collects footprint metrics for a single company.
func (pm *PublicationMetrics) collectCompanyCatalogMetrics(ctx context.Context, companyID uuid.UUID) {
	published, err := pm.catalogProvider.GetPublishedHomeCount(ctx, companyID)
	if err != nil {
		pm.logger.Warn("Failed to get published home count for company",
			zap.String("company_id", companyID.String()),
			zap.Error(err),
		)
	} else {
		pm.RecordPublishedHomes(ctx, companyID, published)
	}

	unmapped, err := pm.catalogProvider.GetUnmappedCommunityCount(ctx, companyID)
	if err != nil {
		pm.logger.Warn("Failed to get unmapped community count for company",
			zap.String("company_id", companyID.String()),
			zap.Error(err),
		)
	} else {
		pm.RecordUnmappedCommunities(ctx, companyID, unmapped)
	}
}

// Stop stops the periodic collection.
func (pm *PublicationMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPublicationMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
