package repository

import (
	"context"
	"time"

	"seedbot/entities"
)

type FieldRepository interface {
	// Upsert matches an existing field by start date and dimensions and
	// returns its id, creating the field when none matches.
	Upsert(ctx context.Context, f *entities.Field) (uint, error)
	FindByID(ctx context.Context, id uint) (*entities.Field, error)
	FindWithSowedCount(ctx context.Context, id uint) (*entities.Field, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string, end *time.Time) error
}
