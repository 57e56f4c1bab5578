package repository

import (
	"context"

	"seedbot/entities"
)

// Outcome of an Upsert.
type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

type CellRepository interface {
	// Upsert writes only the attributes that differ from the stored cell.
	Upsert(ctx context.Context, c *entities.Cell) (Outcome, error)
	ListByField(ctx context.Context, fieldID uint) ([]entities.Cell, error)
}
