package cities

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/repository"
)

type CityUseCase interface {
	List(ctx context.Context) ([]domain.City, error)
	Get(ctx context.Context, id int64) (*domain.City, error)
}

type CityCache interface {
	GetCities(ctx context.Context) ([]domain.City, error)
	SetCities(ctx context.Context, cities []domain.City) error
}

type CityService struct {
	repo  repository.CityRepository
	cache CityCache
}

func NewCityService(repo repository.CityRepository, cache CityCache) *CityService {
	return &CityService{repo: repo, cache: cache}
}

// List serves the directory from the cache when it can. The directory only
// changes on seeding, so there is no invalidation.
func (s *CityService) List(ctx context.Context) ([]domain.City, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCities(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	cities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetCities(ctx, cities); err != nil {
			slog.Warn("cities cache not filled", "error", err)
		}
	}
	return cities, nil
}

func (s *CityService) Get(ctx context.Context, id int64) (*domain.City, error) {
	return s.repo.GetByID(ctx, id)
}

var _ CityUseCase = (*CityService)(nil)
