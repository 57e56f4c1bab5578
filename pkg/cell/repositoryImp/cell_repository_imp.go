package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"seedbot/entities"
	"seedbot/pkg/cell/repository"
)

type cellRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.CellRepository { return &cellRepo{db} }

func (r *cellRepo) Upsert(ctx context.Context, c *entities.Cell) (repository.Outcome, error) {
	out := repository.Unchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur entities.Cell
		err := tx.Where("field_id = ? AND c_row = ? AND c_col = ?", c.FieldID, c.Row, c.Col).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = repository.Created
			return tx.Create(c).Error
		}
		if err != nil {
			return err
		}
		upd := diff(&cur, c)
		if len(upd) == 0 {
			return nil
		}
		out = repository.Updated
		return tx.Model(&entities.Cell{}).
			Where("field_id = ? AND c_row = ? AND c_col = ?", c.FieldID, c.Row, c.Col).
			Updates(upd).Error
	})
	if err != nil {
		return repository.Unchanged, err
	}
	return out, nil
}

func (r *cellRepo) ListByField(ctx context.Context, fieldID uint) ([]entities.Cell, error) {
	var out []entities.Cell
	if err := r.db.WithContext(ctx).Where("field_id = ?", fieldID).
		Order("c_row ASC, c_col ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func diff(cur, next *entities.Cell) map[string]any {
	upd := map[string]any{}
	floats := []struct {
		col       string
		old, next *float64
	}{
		{"n", cur.N, next.N},
		{"p", cur.P, next.P},
		{"k", cur.K, next.K},
		{"moisture", cur.Moisture, next.Moisture},
		{"ph", cur.PH, next.PH},
		{"temperature", cur.Temperature, next.Temperature},
	}
	for _, f := range floats {
		if !floatPtrEqual(f.old, f.next) {
			upd[f.col] = f.next
		}
	}
	if !intPtrEqual(cur.Sowed, next.Sowed) {
		upd["sowed"] = next.Sowed
	}
	return upd
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
