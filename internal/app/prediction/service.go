package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/prima-scholar/internal/app/excellence"
	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

// DefaultTTL is how long a cached prediction stays valid.
const DefaultTTL = 10 * time.Minute

// Service serves distinction predictions through a cache.
type Service struct {
	engine *excellence.Engine
	store  domain.PredictionStore
	cache  domain.Cache
	ttl    time.Duration
}

// NewService wires the engine with a prediction store and a cache. A nil
// cache disables caching.
func NewService(engine *excellence.Engine, store domain.PredictionStore, cache domain.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		engine: engine,
		store:  store,
		cache:  cache,
		ttl:    ttl,
	}
}

// CacheKey is the cache key of one student's prediction for a distinction.
func CacheKey(id domain.StudentID, d domain.Distinction) string {
	return fmt.Sprintf("prediction:%s:%s", id, d)
}

// Predict returns the cached prediction when present, otherwise computes,
// stores and caches a fresh one.
func (s *Service) Predict(ctx context.Context, id domain.StudentID, d domain.Distinction) (*domain.Prediction, error) {
	if _, err := domain.RequirementFor(d); err != nil {
		return nil, err
	}
	if p := s.cached(ctx, id, d); p != nil {
		return p, nil
	}

	snap, err := s.engine.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, snap, d)
}

// PredictAll predicts every distinction concurrently from one snapshot and
// returns them in declaration order.
func (s *Service) PredictAll(ctx context.Context, id domain.StudentID) ([]*domain.Prediction, error) {
	snap, err := s.engine.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Prediction, len(domain.Requirements))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range domain.Requirements {
		g.Go(func() error {
			p, err := s.finish(gctx, snap, req.Distinction)
			if err != nil {
				return fmt.Errorf("%s: %w", req.Distinction, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the latest stored prediction per distinction.
func (s *Service) History(ctx context.Context, id domain.StudentID) ([]*domain.Prediction, error) {
	return s.store.ListPredictions(ctx, id)
}

// TestCache reports whether the cache answers a ping.
func (s *Service) TestCache(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Ping(ctx) == nil
}

func (s *Service) finish(ctx context.Context, snap *excellence.Snapshot, d domain.Distinction) (*domain.Prediction, error) {
	p, err := snap.Predict(d)
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePrediction(ctx, p); err != nil {
		return nil, fmt.Errorf("saving prediction: %w", err)
	}
	s.put(ctx, p)
	return p, nil
}

func (s *Service) cached(ctx context.Context, id domain.StudentID, d domain.Distinction) *domain.Prediction {
	if s.cache == nil {
		return nil
	}
	log := observability.LoggerFromContext(ctx)

	raw, ok, err := s.cache.Get(ctx, CacheKey(id, d))
	if err != nil {
		log.Warn("prediction cache read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var p domain.Prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Warn("prediction cache entry unreadable", "error", err)
		return nil
	}
	return &p
}

func (s *Service) put(ctx context.Context, p *domain.Prediction) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKey(p.StudentID, p.Distinction), raw, s.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn("prediction cache write failed", "error", err)
	}
}
