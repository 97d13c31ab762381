package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"cartera/internal/pass/models"
	id "cartera/pkg/domain"
)

// CachedPassStore layers a short-lived token lookup cache over a PassStore.
// Scanner traffic hits the same handful of tokens in bursts, so reads by
// token are served from cache between writes.
type CachedPassStore struct {
	inner PassStore
	cache *gocache.Cache
}

func NewCachedPassStore(inner PassStore, ttl time.Duration) *CachedPassStore {
	return &CachedPassStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedPassStore) Create(ctx context.Context, pass *models.Pass) error {
	if err := s.inner.Create(ctx, pass); err != nil {
		return err
	}
	s.cache.Delete(pass.PassToken)
	return nil
}

// FindByToken serves cached lookups as clones. Callers mutate the pass
// they load before persisting it, so handing out the cached pointer
// would let concurrent scans write through each other.
func (s *CachedPassStore) FindByToken(ctx context.Context, passToken string) (*models.Pass, error) {
	if cached, ok := s.cache.Get(passToken); ok {
		return clone(cached.(*models.Pass)), nil
	}
	pass, err := s.inner.FindByToken(ctx, passToken)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(passToken, clone(pass))
	return pass, nil
}

func (s *CachedPassStore) FindByClaimCode(ctx context.Context, claimCode string) (*models.Pass, error) {
	return s.inner.FindByClaimCode(ctx, claimCode)
}

func (s *CachedPassStore) FindBySerial(ctx context.Context, serialNumber string) (*models.Pass, error) {
	return s.inner.FindBySerial(ctx, serialNumber)
}

func (s *CachedPassStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Pass, error) {
	return s.inner.ListByProject(ctx, projectID)
}

func (s *CachedPassStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Pass, error) {
	return s.inner.ListByUser(ctx, userID)
}

func (s *CachedPassStore) Update(ctx context.Context, pass *models.Pass) error {
	if err := s.inner.Update(ctx, pass); err != nil {
		return err
	}
	s.cache.Delete(pass.PassToken)
	return nil
}
