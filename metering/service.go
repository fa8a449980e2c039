package metering

import (
	"context"
	"fmt"

	"github.com/jrsteele09/enedis-gateway/enedis"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Upstream fetches a metering payload over the rolling window ending now.
type Upstream interface {
	FetchRecentMeteringData(ctx context.Context, kind enedis.MeteringKind, accessToken, usagePointID string) (*enedis.MeteringPayload, error)
}

// TokenResolver yields the access token to present upstream for a user.
type TokenResolver interface {
	ResolveAccessToken(ctx context.Context, userID string) (string, error)
}

// Service serves metering data from the record store, fetching from the provider on a miss.
type Service struct {
	records  Repo
	upstream Upstream
	tokens   TokenResolver
}

func NewService(records Repo, upstream Upstream, tokens TokenResolver) *Service {
	return &Service{
		records:  records,
		upstream: upstream,
		tokens:   tokens,
	}
}

// GetMeteringData returns stored readings of kind when the user has any, otherwise fetches,
// stores and returns a fresh dataset. A single stored row of the kind counts as a hit.
func (s *Service) GetMeteringData(ctx context.Context, kind enedis.MeteringKind, userID, usagePointID string) (Dataset, error) {
	records, err := s.records.ListByUserAndType(ctx, userID, kind.StorageType())
	if err != nil {
		return nil, fmt.Errorf("[metering GetMeteringData] failed to read %s records: %w", kind, err)
	}

	if len(records) > 0 {
		metrics.CacheLookups.WithLabelValues(kind.String(), metrics.CacheHit).Inc()
		log.Debug().Str("kind", kind.String()).Str("user_id", userID).Int("records", len(records)).Msg("Serving stored metering data")
		return DatasetFromRecords(records), nil
	}

	metrics.CacheLookups.WithLabelValues(kind.String(), metrics.CacheMiss).Inc()
	return s.fetchAndStore(ctx, kind, userID, usagePointID)
}

// RefreshData always goes to the provider. Previously stored readings are kept, so the
// store may end up holding the same reading more than once.
func (s *Service) RefreshData(ctx context.Context, kind enedis.MeteringKind, userID, usagePointID string) (Dataset, error) {
	return s.fetchAndStore(ctx, kind, userID, usagePointID)
}

// DeleteAllData removes every stored reading of the user. Failures are logged only.
func (s *Service) DeleteAllData(ctx context.Context, userID string) {
	deleted, err := s.records.DeleteForUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID).Msg("Failed to delete metering records")
		return
	}
	log.Info().Str("user_id", userID).Int64("deleted", deleted).Msg("Deleted metering records")
}

func (s *Service) fetchAndStore(ctx context.Context, kind enedis.MeteringKind, userID, usagePointID string) (Dataset, error) {
	accessToken, err := s.tokens.ResolveAccessToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[metering fetch] %s: %w", kind, err)
	}

	payload, err := s.upstream.FetchRecentMeteringData(ctx, kind, accessToken, usagePointID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUpstreamUnauthorized) {
			log.Warn().Str("kind", kind.String()).Str("user_id", userID).Msg("Enedis rejected the client")
		} else {
			log.Err(err).Str("kind", kind.String()).Str("user_id", userID).Msg("Failed to fetch metering data")
		}
		return nil, fmt.Errorf("[metering fetch] %s: %w", kind, err)
	}

	dataset, err := DatasetFromPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("[metering fetch] %s: %w", kind, apperrors.Malformed("%v", err))
	}

	// A failed write does not fail the request; the next lookup simply misses again.
	records := dataset.Records(userID, kind.StorageType())
	if len(records) > 0 {
		if err := s.records.InsertBatch(ctx, records); err != nil {
			log.Err(err).Str("kind", kind.String()).Str("user_id", userID).Msg("Failed to persist metering records")
		} else {
			metrics.RecordsPersisted.WithLabelValues(kind.String()).Add(float64(len(records)))
		}
	}
	return dataset, nil
}
