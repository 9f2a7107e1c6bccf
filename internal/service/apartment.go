package service

import (
	"context"
	"fmt"
	"strings"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/repository"
)

type apartmentService struct {
	apartmentRepo repository.ApartmentRepository
}

func NewApartmentService(apartmentRepo repository.ApartmentRepository) ApartmentService {
	return &apartmentService{apartmentRepo: apartmentRepo}
}

func (s *apartmentService) AddApartment(ctx context.Context, a *domain.Apartment) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return validationError("apartment name is required")
	}
	if a.Type == "" {
		a.Type = domain.ApartmentTypeApartment
	}
	if !a.Type.Valid() {
		return validationError("invalid apartment type %q", a.Type)
	}
	return persistenceError("create apartment", s.apartmentRepo.Create(ctx, a))
}

func (s *apartmentService) GetApartment(ctx context.Context, id int32) (*domain.Apartment, error) {
	a, err := s.apartmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(fmt.Sprintf("get apartment %d", id), err)
	}
	return a, nil
}

func (s *apartmentService) ListApartments(ctx context.Context) ([]domain.Apartment, error) {
	list, err := s.apartmentRepo.List(ctx)
	if err != nil {
		return nil, persistenceError("list apartments", err)
	}
	return list, nil
}
