// Package service declares the sowing lifecycle: the single session that
// relays operator commands to the actuator and tracks its progress.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"seedbot/entities"
)

var (
	ErrAlreadyInitialized     = errors.New("sowing already initialized")
	ErrNotInitialized         = errors.New("sowing not initialized")
	ErrInvalidState           = errors.New("invalid sowing state for toggle")
	ErrNotInProgress          = errors.New("sowing not in progress")
	ErrActuatorNotFound       = errors.New("actuator not found")
	ErrActuatorAddressUnknown = errors.New("actuator address unknown")
	ErrCommandFailed          = errors.New("actuator command failed")
	ErrFieldNotFound          = errors.New("field not found")
	ErrInvalidGrid            = errors.New("field grid has no cells")
)

// FieldSpec is the geometry given with Start. Nil means the value was absent.
type FieldSpec struct {
	Length     *float64
	Width      *float64
	SquareSize *float64
}

type ProgressInfo struct {
	TotalCells         int64   `json:"total_cells"`
	SowedCells         int64   `json:"sowed_cells"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// Progress is the answer to a progress query. Info is nil unless the
// session is in progress.
type Progress struct {
	Info   *ProgressInfo         `json:"progress_info"`
	Status entities.SowingStatus `json:"status"`
}

type Snapshot struct {
	SessionID     string                `json:"session_id,omitempty"`
	Initialized   bool                  `json:"initialized"`
	Status        entities.SowingStatus `json:"status"`
	ActiveFieldID *uint                 `json:"active_field_id"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
}

type SowingService interface {
	Start(ctx context.Context, spec FieldSpec) (uint, error)
	// Toggle pauses a running session or resumes a paused one and returns
	// the new status.
	Toggle(ctx context.Context) (entities.SowingStatus, error)
	Stop(ctx context.Context) error
	// QueryProgress checks the lifecycle state before it parses rawFieldID.
	QueryProgress(ctx context.Context, rawFieldID string) (Progress, error)
	Snapshot() Snapshot
	// ApplyObserved records a status reduced from an actuator notification.
	// Updates for a session other than the current one are ignored.
	ApplyObserved(sessionID string, status entities.SowingStatus)
}

// ComputeProgress derives grid size and completion for a field.
func ComputeProgress(length, width, squareSize float64, sowed int64) (ProgressInfo, error) {
	if squareSize <= 0 || math.IsNaN(squareSize) {
		return ProgressInfo{}, ErrInvalidGrid
	}
	total := int64(math.Floor(length/squareSize)) * int64(math.Floor(width/squareSize))
	if total <= 0 {
		return ProgressInfo{}, ErrInvalidGrid
	}
	return ProgressInfo{
		TotalCells:         total,
		SowedCells:         sowed,
		ProgressPercentage: float64(sowed) / float64(total) * 100,
	}, nil
}
