package publication

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keepup/backend/internal/domain/catalog"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/infrastructure/telemetry"
)

const (
	// DefaultOperationTimeout bounds one whole publication operation. A
	// timeout during the remote write step is compensated exactly like a
	// remote failure.
	DefaultOperationTimeout = 30 * time.Second

	remoteMaxRetries = 3
)

// Public catalog table labels for metrics.
const (
	tablePublicCommunities = "public_communities"
	tablePublicHomes       = "public_homes"
)

// Service orchestrates Publish, Unpublish, Sync, and PublishCommunity.
// It is the only layer that compensates: the loader, resolver, and builder
// raise and let the orchestration decide.
type Service struct {
	homes    listing.HomeRepository
	loader   *ContextLoader
	builder  *Builder
	store    catalog.Store
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
	backOff  func() backoff.BackOff
	metrics  *telemetry.PublicationMetrics
}

// NewService creates a new publication Service
func NewService(
	homes listing.HomeRepository,
	loader *ContextLoader,
	builder *Builder,
	store catalog.Store,
	notifier Notifier,
	logger *zap.Logger,
	timeout time.Duration,
) *Service {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &Service{
		homes:    homes,
		loader:   loader,
		builder:  builder,
		store:    store,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		backOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), remoteMaxRetries)
		},
	}
}

// SetMetrics sets the business metrics collector
func (s *Service) SetMetrics(pm *telemetry.PublicationMetrics) {
	s.metrics = pm
}

// Publish projects a home into the public catalog.
//
// The local bookkeeping write always precedes the remote upserts: a crash
// in between leaves the home provisionally published locally, which Sync
// repairs, rather than published remotely but invisible locally. Every
// local write is a compare-and-swap on the publish version so concurrent
// publications of the same home serialize instead of racing.
func (s *Service) Publish(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*PublishResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "publication", "publish",
		telemetry.WithAttribute(telemetry.SpanAttrHomeID, homeID),
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID))
	defer span.End()

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	agg, err := s.loader.Load(ctx, companyID, homeID, true)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	home := agg.Home

	prev := home.Publish
	nowTime := time.Now()

	next := prev
	next.IsPublished = true
	next.IsListed = true
	next.PublishedAt = &nowTime
	next.ContentSyncedAt = &nowTime
	next.PublishVersion = prev.PublishVersion + 1

	var publicCommunityID, publicHomeID uuid.UUID

	steps := []step{
		{
			name: "mark_publishing",
			forward: func(ctx context.Context) error {
				return s.homes.UpdatePublishState(ctx, companyID, homeID, prev.PublishVersion, next)
			},
			compensate: func(ctx context.Context, cause error) error {
				s.recordCompensation(ctx, companyID, "publish")
				restore := prev
				restore.LastPublishStatus = listing.PublishStatusError
				restore.LastPublishError = cause.Error()
				return s.homes.UpdatePublishState(ctx, companyID, homeID, next.PublishVersion, restore)
			},
		},
		{
			name: "upsert_public_community",
			forward: func(ctx context.Context) error {
				return s.withRetry(ctx, func() error {
					id, err := s.store.UpsertCommunity(ctx, s.builder.BuildCommunityDoc(agg))
					if err != nil {
						return err
					}
					publicCommunityID = id
					s.recordCatalogUpsert(ctx, companyID, tablePublicCommunities)
					return nil
				})
			},
		},
		{
			name: "upsert_public_home",
			forward: func(ctx context.Context) error {
				return s.withRetry(ctx, func() error {
					doc := s.builder.BuildHomeDoc(agg, next.PublishVersion, publicCommunityID)
					id, err := s.store.UpsertHome(ctx, doc)
					if err != nil {
						return err
					}
					publicHomeID = id
					s.recordCatalogUpsert(ctx, companyID, tablePublicHomes)
					return nil
				})
			},
		},
		{
			name: "record_success",
			forward: func(ctx context.Context) error {
				final := next
				final.ExternalID = &publicHomeID
				final.ExternalCommunityID = &agg.CatalogCommunityID
				final.LastPublishStatus = listing.PublishStatusOK
				final.LastPublishError = ""
				return s.homes.UpdatePublishState(ctx, companyID, homeID, next.PublishVersion, final)
			},
		},
	}

	if err := runSaga(ctx, s.logger, steps); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("publish failed",
			zap.String("home_id", homeID.String()),
			zap.String("company_id", companyID.String()),
			zap.String("actor_id", actorID.String()),
			zap.Error(err))
		s.notifier.OperationFailed(ctx, companyID, homeID, "publish", err)
		s.recordOperation(ctx, companyID, "publish", started, err)
		return nil, err
	}

	s.recordOperation(ctx, companyID, "publish", started, nil)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPublishVersion, next.PublishVersion,
		telemetry.SpanAttrExternalID, publicHomeID.String())
	s.logger.Info("home published",
		zap.String("home_id", homeID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int("publish_version", next.PublishVersion))

	return &PublishResult{
		Success:           true,
		PublicHomeID:      publicHomeID,
		PublicCommunityID: publicCommunityID,
	}, nil
}

// Unpublish removes a home's projection from the public catalog. No
// mapping is required: a home must stay unpublishable even after an
// operator removed or changed the community mapping.
func (s *Service) Unpublish(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*UnpublishResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "publication", "unpublish",
		telemetry.WithAttribute(telemetry.SpanAttrHomeID, homeID),
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID))
	defer span.End()

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	agg, err := s.loader.Load(ctx, companyID, homeID, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	home := agg.Home

	prev := home.Publish

	// Flags drop first, the external reference only after the remote
	// delete confirmed, so local state never points at a record that is
	// already gone while claiming to be published.
	next := prev
	next.IsPublished = false
	next.IsListed = false
	next.PublishedAt = nil
	next.ContentSyncedAt = nil

	steps := []step{
		{
			name: "mark_unpublished",
			forward: func(ctx context.Context) error {
				return s.homes.UpdatePublishState(ctx, companyID, homeID, prev.PublishVersion, next)
			},
			compensate: func(ctx context.Context, cause error) error {
				s.recordCompensation(ctx, companyID, "unpublish")
				restore := prev
				restore.LastPublishStatus = listing.PublishStatusError
				restore.LastPublishError = cause.Error()
				return s.homes.UpdatePublishState(ctx, companyID, homeID, prev.PublishVersion, restore)
			},
		},
		{
			name: "delete_public_home",
			forward: func(ctx context.Context) error {
				return s.withRetry(ctx, func() error {
					return s.store.DeleteHome(ctx, companyID, homeID)
				})
			},
		},
		{
			name: "clear_external_reference",
			forward: func(ctx context.Context) error {
				final := next
				final.ExternalID = nil
				final.ExternalCommunityID = nil
				final.LastPublishStatus = listing.PublishStatusOK
				final.LastPublishError = ""
				return s.homes.UpdatePublishState(ctx, companyID, homeID, prev.PublishVersion, final)
			},
		},
	}

	if err := runSaga(ctx, s.logger, steps); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("unpublish failed",
			zap.String("home_id", homeID.String()),
			zap.String("company_id", companyID.String()),
			zap.String("actor_id", actorID.String()),
			zap.Error(err))
		s.notifier.OperationFailed(ctx, companyID, homeID, "unpublish", err)
		s.recordOperation(ctx, companyID, "unpublish", started, err)
		return nil, err
	}

	s.recordOperation(ctx, companyID, "unpublish", started, nil)
	s.logger.Info("home unpublished",
		zap.String("home_id", homeID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("actor_id", actorID.String()))

	return &UnpublishResult{Success: true}, nil
}

// Sync refreshes both public documents with the home's current content at
// its current publish version. Sync is a content refresh, not a new
// publication event: publish flags and the version never change, only
// content_synced_at moves. It also repairs a home left provisionally
// published by a crash between the local write and the remote upserts.
func (s *Service) Sync(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*PublishResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "publication", "sync",
		telemetry.WithAttribute(telemetry.SpanAttrHomeID, homeID),
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID))
	defer span.End()

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	agg, err := s.loader.Load(ctx, companyID, homeID, true)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	home := agg.Home

	var publicCommunityID, publicHomeID uuid.UUID
	err = s.withRetry(ctx, func() error {
		id, err := s.store.UpsertCommunity(ctx, s.builder.BuildCommunityDoc(agg))
		if err != nil {
			return err
		}
		publicCommunityID = id
		s.recordCatalogUpsert(ctx, companyID, tablePublicCommunities)
		return nil
	})
	if err == nil {
		err = s.withRetry(ctx, func() error {
			doc := s.builder.BuildHomeDoc(agg, home.Publish.PublishVersion, publicCommunityID)
			id, err := s.store.UpsertHome(ctx, doc)
			if err != nil {
				return err
			}
			publicHomeID = id
			s.recordCatalogUpsert(ctx, companyID, tablePublicHomes)
			return nil
		})
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("sync failed",
			zap.String("home_id", homeID.String()),
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		s.notifier.OperationFailed(ctx, companyID, homeID, "sync", err)
		s.recordOperation(ctx, companyID, "sync", started, err)
		return nil, err
	}

	if s.needsWriteBack(home, publicHomeID) {
		telemetry.AddEvent(span, "bookkeeping_repaired",
			telemetry.SpanAttrExternalID, publicHomeID.String())
		state := home.Publish
		nowTime := time.Now()
		state.ContentSyncedAt = &nowTime
		state.ExternalID = &publicHomeID
		state.ExternalCommunityID = &agg.CatalogCommunityID
		state.LastPublishStatus = listing.PublishStatusOK
		state.LastPublishError = ""
		if err := s.homes.UpdatePublishState(ctx, companyID, homeID, state.PublishVersion, state); err != nil {
			return nil, err
		}
	} else if err := s.homes.TouchContentSynced(ctx, companyID, homeID); err != nil {
		return nil, err
	}

	s.recordOperation(ctx, companyID, "sync", started, nil)
	s.logger.Info("home synced",
		zap.String("home_id", homeID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int("publish_version", home.Publish.PublishVersion))

	return &PublishResult{
		Success:           true,
		PublicHomeID:      publicHomeID,
		PublicCommunityID: publicCommunityID,
	}, nil
}

// PublishCommunity republishes only the community-level document, for
// operators updating marketing copy independent of any home. No home
// bookkeeping is involved.
func (s *Service) PublishCommunity(ctx context.Context, companyID, communityID, actorID uuid.UUID) (*CommunityPublishResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "publication", "publish_community",
		telemetry.WithAttribute(telemetry.SpanAttrCommunityID, communityID),
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID))
	defer span.End()

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	agg, err := s.loader.LoadCommunity(ctx, companyID, communityID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var publicCommunityID uuid.UUID
	err = s.withRetry(ctx, func() error {
		id, err := s.store.UpsertCommunity(ctx, s.builder.BuildCommunityDoc(agg))
		if err != nil {
			return err
		}
		publicCommunityID = id
		s.recordCatalogUpsert(ctx, companyID, tablePublicCommunities)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("community publish failed",
			zap.String("community_id", communityID.String()),
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		s.notifier.OperationFailed(ctx, companyID, communityID, "publish_community", err)
		s.recordOperation(ctx, companyID, "publish_community", started, err)
		return nil, err
	}

	s.recordOperation(ctx, companyID, "publish_community", started, nil)
	s.logger.Info("community published",
		zap.String("community_id", communityID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("actor_id", actorID.String()))

	return &CommunityPublishResult{Success: true, PublicCommunityID: publicCommunityID}, nil
}

// needsWriteBack reports whether Sync must repair the home's bookkeeping:
// after a crash between the optimistic local write and the remote upserts
// the external reference is missing or stale.
func (s *Service) needsWriteBack(home *listing.Home, publicHomeID uuid.UUID) bool {
	p := home.Publish
	if p.ExternalID == nil || *p.ExternalID != publicHomeID {
		return true
	}
	return p.LastPublishStatus == listing.PublishStatusError
}

// recordOperation records an operation's outcome and duration. All three
// recorders are nil-safe so deployments without telemetry skip them.
func (s *Service) recordOperation(ctx context.Context, companyID uuid.UUID, operation string, started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := telemetry.OutcomeSuccess
	if err != nil {
		outcome = telemetry.OutcomeError
	}
	s.metrics.RecordOperation(ctx, companyID, operation, outcome, time.Since(started))
}

func (s *Service) recordCompensation(ctx context.Context, companyID uuid.UUID, operation string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCompensation(ctx, companyID, operation)
}

func (s *Service) recordCatalogUpsert(ctx context.Context, companyID uuid.UUID, table string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCatalogUpsert(ctx, companyID, table)
}

// withRetry wraps a remote catalog write in bounded exponential backoff.
// Only the remote step retries: precondition failures are not transient
// and local writes are version-checked.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(op, backoff.WithContext(s.backOff(), ctx))
}
