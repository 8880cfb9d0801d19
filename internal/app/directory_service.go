package app

import (
	"context"
	"strings"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

type DirectoryRepository interface {
	ListDoctors(ctx context.Context) ([]domain.Doctor, error)
	GetDoctor(ctx context.Context, id string) (domain.Doctor, error)
	CreateDoctor(ctx context.Context, d domain.Doctor) error
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id string) (domain.Service, error)
	CreateService(ctx context.Context, s domain.Service) error
}

const (
	directoryCacheSize = 256
	doctorsCacheKey    = "doctors"
	servicesCacheKey   = "services"
)

// DirectoryService is the doctor/service read model. Listings sit behind a
// small LRU cache; writes invalidate it.
type DirectoryService struct {
	repo  DirectoryRepository
	cache *lru.Cache[string, any]
}

func NewDirectoryService(repo DirectoryRepository) *DirectoryService {
	cache, _ := lru.New[string, any](directoryCacheSize)
	return &DirectoryService{
		repo:  repo,
		cache: cache,
	}
}

func (s *DirectoryService) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	if cached, ok := s.cache.Get(doctorsCacheKey); ok {
		return cached.([]domain.Doctor), nil
	}
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Add(doctorsCacheKey, doctors)
	return doctors, nil
}

func (s *DirectoryService) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *DirectoryService) CreateDoctor(ctx context.Context, name, specialty string) (domain.Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Doctor{}, domain.ErrDoctorNameRequired
	}
	doctor := domain.Doctor{
		ID:        uuid.NewString(),
		Name:      name,
		Specialty: specialty,
	}
	if err := s.repo.CreateDoctor(ctx, doctor); err != nil {
		return domain.Doctor{}, err
	}
	s.cache.Remove(doctorsCacheKey)
	return doctor, nil
}

func (s *DirectoryService) ListServices(ctx context.Context) ([]domain.Service, error) {
	if cached, ok := s.cache.Get(servicesCacheKey); ok {
		return cached.([]domain.Service), nil
	}
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Add(servicesCacheKey, services)
	return services, nil
}

func (s *DirectoryService) GetService(ctx context.Context, id string) (domain.Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *DirectoryService) CreateService(ctx context.Context, name string, durationMin int) (domain.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Service{}, domain.ErrServiceNameRequired
	}
	if durationMin <= 0 {
		return domain.Service{}, domain.ErrInvalidTimeRange
	}
	service := domain.Service{
		ID:          uuid.NewString(),
		Name:        name,
		DurationMin: durationMin,
	}
	if err := s.repo.CreateService(ctx, service); err != nil {
		return domain.Service{}, err
	}
	s.cache.Remove(servicesCacheKey)
	return service, nil
}
