package service

import (
	"errors"
	"fmt"

	"vacation-rental-backend/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrPersistence  = errors.New("persistence failure")
	ErrNotification = errors.New("notification failure")
	ErrConflict     = errors.New("conflict")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// persistenceError classifies a repository error. A missing row stays
// distinguishable as ErrNotFound; anything else becomes ErrPersistence.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrPersistence) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	if errors.Is(err, repository.ErrOverlap) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
