package repositoryImp

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"seedbot/entities"
	"seedbot/pkg/field/repository"
)

type fieldRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.FieldRepository { return &fieldRepo{db} }

func (r *fieldRepo) Upsert(ctx context.Context, f *entities.Field) (uint, error) {
	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur entities.Field
		err := tx.Where("start_sowing_date = ? AND f_length = ? AND f_width = ?", f.StartSowingDate, f.Length, f.Width).
			First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(f).Error; err != nil {
				return err
			}
			id = f.ID
			return nil
		}
		if err != nil {
			return err
		}
		id = cur.ID
		upd := map[string]any{}
		if cur.SquareSize != f.SquareSize {
			upd["square_size"] = f.SquareSize
		}
		if !timePtrEqual(cur.EndSowingDate, f.EndSowingDate) {
			upd["end_sowing_date"] = f.EndSowingDate
		}
		if !strPtrEqual(cur.SowingStatus, f.SowingStatus) {
			upd["sowing_status"] = f.SowingStatus
		}
		if len(upd) == 0 {
			return nil
		}
		return tx.Model(&cur).Updates(upd).Error
	})
	return id, err
}

func (r *fieldRepo) FindByID(ctx context.Context, id uint) (*entities.Field, error) {
	var f entities.Field
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fieldRepo) FindWithSowedCount(ctx context.Context, id uint) (*entities.Field, int64, error) {
	f, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Cell{}).
		Where("field_id = ? AND sowed IS NOT NULL", id).Count(&n).Error; err != nil {
		return nil, 0, err
	}
	return f, n, nil
}

func (r *fieldRepo) UpdateStatus(ctx context.Context, id uint, status string, end *time.Time) error {
	upd := map[string]any{"sowing_status": status}
	if end != nil {
		upd["end_sowing_date"] = *end
	}
	res := r.db.WithContext(ctx).Model(&entities.Field{}).Where("id = ?", id).Updates(upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
