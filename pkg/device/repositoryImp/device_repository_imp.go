package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"seedbot/entities"
	"seedbot/pkg/device/repository"
)

type deviceRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.DeviceRepository { return &deviceRepo{db} }

func (r *deviceRepo) FindByName(ctx context.Context, name string) (*entities.Device, error) {
	var d entities.Device
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deviceRepo) Upsert(ctx context.Context, name, address string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur entities.Device
		err := tx.Where("name = ?", name).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(&entities.Device{Name: name, IPv6Address: address}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&cur).Update("ipv6_address", address).Error
	})
	return created, err
}

func (r *deviceRepo) List(ctx context.Context) ([]entities.Device, error) {
	var out []entities.Device
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
