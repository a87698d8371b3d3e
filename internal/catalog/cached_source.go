package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alexanderramin/coursechat/internal/cache"
)

// CachedSource serves the feed from cache while it is fresh and falls back
// to the last good copy when the live fetch fails.
type CachedSource struct {
	inner    Source
	cache    cache.Cache
	freshTTL time.Duration
	staleTTL time.Duration
	logger   *slog.Logger
}

func NewCachedSource(inner Source, c cache.Cache, freshTTL, staleTTL time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedSource{inner: inner, cache: c, freshTTL: freshTTL, staleTTL: staleTTL, logger: logger}
}

func (s *CachedSource) Name() string { return s.inner.Name() }

func (s *CachedSource) freshKey() string { return "feed:fresh:" + s.inner.Name() }
func (s *CachedSource) staleKey() string { return "feed:stale:" + s.inner.Name() }

func (s *CachedSource) Fetch(ctx context.Context) ([]byte, error) {
	if body, err := s.cache.Get(s.freshKey()); err == nil {
		s.logger.Debug("catalog feed served from cache", "source", s.Name())
		return body, nil
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		s.logger.Warn("catalog cache read failed", "error", err)
	}

	body, fetchErr := s.inner.Fetch(ctx)
	if fetchErr == nil {
		if _, err := DecodeFeed(body, nil); err == nil {
			s.store(body)
			return body, nil
		}
	}

	stale, err := s.cache.Get(s.staleKey())
	if err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		// Undecodable body and nothing cached: let the caller report it.
		return body, nil
	}
	s.logger.Warn("catalog feed fetch failed, using cached copy", "source", s.Name(), "error", fetchErr)
	return stale, nil
}

func (s *CachedSource) store(body []byte) {
	if err := s.cache.Set(s.freshKey(), body, s.freshTTL); err != nil {
		s.logger.Warn("catalog cache write failed", "error", err)
		return
	}
	if err := s.cache.Set(s.staleKey(), body, s.staleTTL); err != nil {
		s.logger.Warn("catalog cache write failed", "error", err)
	}
}
