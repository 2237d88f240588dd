// Package service holds the business rules that sit between HTTP handlers
// and the repositories: validation, permission checks, cache upkeep.
package service

import (
	"errors"
	"fmt"

	"ainews/internal/models"
	"ainews/internal/repository"
)

// appError maps repository sentinels onto AppErrors so handlers can pick a
// status. AppErrors pass through unchanged.
func appError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, repository.ErrDuplicate):
		return &models.AppError{
			Code:    models.CodeConflict,
			Message: fmt.Sprintf("%s already exists", resource),
			Err:     err,
		}
	case errors.Is(err, repository.ErrInvalidCursor):
		return models.NewValidationError("Invalid cursor")
	default:
		return models.NewInternalError(err)
	}
}
