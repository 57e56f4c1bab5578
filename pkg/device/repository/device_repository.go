package repository

import (
	"context"

	"seedbot/entities"
)

type DeviceRepository interface {
	FindByName(ctx context.Context, name string) (*entities.Device, error)
	// Upsert reports created=true when the name was not known before.
	Upsert(ctx context.Context, name, address string) (created bool, err error)
	List(ctx context.Context) ([]entities.Device, error)
}
