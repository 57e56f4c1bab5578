package service

import (
	"context"

	"seedbot/entities"
	sowing "seedbot/pkg/sowing/service"
)

// FieldReport is a stored field with its sowing progress. Progress is nil
// when the field geometry yields no cells.
type FieldReport struct {
	Field    *entities.Field      `json:"field"`
	Progress *sowing.ProgressInfo `json:"progress_info"`
}

type FieldService interface {
	GetField(ctx context.Context, id uint) (FieldReport, error)
}
