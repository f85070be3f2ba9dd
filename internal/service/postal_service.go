package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

const postalCacheKeyPrefix = "postal:"

type postalLookup interface {
	Lookup(ctx context.Context, cep string) (*models.PostalAddress, error)
}

type postalCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// PostalService resolves postal codes, caching hits.
type PostalService struct {
	repo   postalLookup
	cache  postalCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewPostalService constructs PostalService. cache may be nil.
func NewPostalService(repo postalLookup, cache postalCache, ttl time.Duration, logger *zap.Logger) *PostalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostalService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Lookup resolves a postal code. Punctuation is ignored; anything but 8 digits is rejected.
// The boolean reports a cache hit.
func (s *PostalService) Lookup(ctx context.Context, raw string) (*models.PostalAddress, bool, error) {
	cep := NormalizePostalCode(raw)
	if len(cep) != 8 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "postal code must have 8 digits")
	}

	key := postalCacheKeyPrefix + cep
	if s.cache != nil {
		var cached models.PostalAddress
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	addr, err := s.repo.Lookup(ctx, cep)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, addr, s.ttl); err != nil {
			s.logger.Debug("postal cache write skipped", zap.String("cep", cep), zap.Error(err))
		}
	}
	return addr, false, nil
}

// NormalizePostalCode keeps the digits of a postal code.
func NormalizePostalCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
