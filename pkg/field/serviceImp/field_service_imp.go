package serviceImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"seedbot/pkg/apperr"
	repo "seedbot/pkg/field/repository"
	"seedbot/pkg/field/service"
	sowing "seedbot/pkg/sowing/service"
)

type fieldSvc struct{ r repo.FieldRepository }

func NewFieldService(r repo.FieldRepository) service.FieldService { return &fieldSvc{r} }

func (s *fieldSvc) GetField(ctx context.Context, id uint) (service.FieldReport, error) {
	f, sowed, err := s.r.FindWithSowedCount(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return service.FieldReport{}, apperr.E(apperr.KindNotFound, "field", "Field not found", sowing.ErrFieldNotFound)
	}
	if err != nil {
		return service.FieldReport{}, apperr.E(apperr.KindInternal, "field", "An unexpected error occurred", err)
	}
	out := service.FieldReport{Field: f}
	if info, err := sowing.ComputeProgress(f.Length, f.Width, f.SquareSize, sowed); err == nil {
		out.Progress = &info
	}
	return out, nil
}
