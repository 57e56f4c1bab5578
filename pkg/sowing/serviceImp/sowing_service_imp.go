package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"seedbot/entities"
	"seedbot/pkg/actuator"
	"seedbot/pkg/apperr"
	deviceRepo "seedbot/pkg/device/repository"
	fieldRepo "seedbot/pkg/field/repository"
	"seedbot/pkg/observability"
	"seedbot/pkg/publisher"
	"seedbot/pkg/sowing/service"
)

const (
	DefaultActuatorName = "sowing_actuator"
	bookkeepingTimeout  = 3 * time.Second
	subscribeTimeout    = 5 * time.Second
)

// Observer follows actuator status for one session.
type Observer interface {
	Subscribe(ctx context.Context) error
	Cancel()
}

// ObserverFactory builds an observer for the actuator at endpoint. apply
// receives every reduced status.
type ObserverFactory func(endpoint string, apply func(entities.SowingStatus)) Observer

func ActuatorObservers(t actuator.Transport, pub publisher.Publisher, log zerolog.Logger) ObserverFactory {
	return func(endpoint string, apply func(entities.SowingStatus)) Observer {
		return actuator.NewObserver(t, endpoint, pub, apply, log)
	}
}

type Config struct {
	ActuatorName string
	Now          func() time.Time
}

type session struct {
	id          string
	initialized bool
	status      entities.SowingStatus
	fieldID     *uint
	startedAt   *time.Time
	observer    Observer
}

type sowingSvc struct {
	devices deviceRepo.DeviceRepository
	fields  fieldRepo.FieldRepository
	client  *actuator.Client
	observe ObserverFactory
	name    string
	now     func() time.Time
	log     zerolog.Logger

	// cmdMu serializes lifecycle operations for their full duration.
	cmdMu sync.Mutex
	// mu guards sess. The observer only ever takes mu.
	mu   sync.RWMutex
	sess session
}

func NewSowingService(devices deviceRepo.DeviceRepository, fields fieldRepo.FieldRepository, client *actuator.Client, observe ObserverFactory, cfg Config, log zerolog.Logger) service.SowingService {
	if cfg.ActuatorName == "" {
		cfg.ActuatorName = DefaultActuatorName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &sowingSvc{
		devices: devices,
		fields:  fields,
		client:  client,
		observe: observe,
		name:    cfg.ActuatorName,
		now:     cfg.Now,
		log:     log,
		sess:    session{status: entities.StatusNotStarted},
	}
}

func positive(v *float64) bool { return v != nil && *v > 0 }

func (s *sowingSvc) Start(ctx context.Context, spec service.FieldSpec) (fieldID uint, err error) {
	const op = "start"
	defer func() { observability.RecordLifecycle(op, err) }()
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.Snapshot().Initialized {
		return 0, apperr.E(apperr.KindStateConflict, op, "Sowing already initialized", service.ErrAlreadyInitialized)
	}
	if !positive(spec.Length) || !positive(spec.Width) || !positive(spec.SquareSize) {
		return 0, apperr.Validation(op, "Missing required fields")
	}

	address, err := s.actuatorAddress(ctx)
	if err != nil {
		return 0, apperr.Upstream(op, "Actuator not found", fmt.Errorf("%w: %w", service.ErrActuatorNotFound, err))
	}

	now := s.now()
	notStarted := string(entities.StatusNotStarted)
	field := &entities.Field{
		Length:          *spec.Length,
		Width:           *spec.Width,
		SquareSize:      *spec.SquareSize,
		StartSowingDate: day(now),
		SowingStatus:    &notStarted,
	}
	fieldID, err = s.fields.Upsert(ctx, field)
	if err != nil {
		return 0, apperr.Persistence(op, "An unexpected error occurred", err)
	}

	payload := actuator.StartPayload(field.Length, field.Width, field.SquareSize, fieldID)
	if _, err := s.client.Send(ctx, actuator.Create, address, payload); err != nil {
		return 0, apperr.Upstream(op, "Failed to send COAP message", fmt.Errorf("%w: %w", service.ErrCommandFailed, err))
	}

	sid := uuid.NewString()
	obs := s.observe(s.client.Endpoint(address), func(st entities.SowingStatus) { s.ApplyObserved(sid, st) })
	s.mu.Lock()
	s.sess = session{
		id:          sid,
		initialized: true,
		status:      entities.StatusInProgress,
		fieldID:     &fieldID,
		startedAt:   &now,
		observer:    obs,
	}
	s.mu.Unlock()
	s.recordField(ctx, fieldID, entities.StatusInProgress, nil)

	subCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), subscribeTimeout)
	defer cancel()
	if err := obs.Subscribe(subCtx); err != nil {
		s.log.Warn().Err(err).Str("session", sid).Msg("status observation unavailable")
	}
	s.log.Info().Str("session", sid).Uint("field_id", fieldID).Str("actuator", address).Msg("sowing initialized")
	return fieldID, nil
}

func (s *sowingSvc) Toggle(ctx context.Context) (next entities.SowingStatus, err error) {
	const op = "toggle"
	defer func() { observability.RecordLifecycle(op, err) }()
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	snap := s.Snapshot()
	if !snap.Initialized {
		return snap.Status, apperr.E(apperr.KindStateConflict, op, "Sowing not initialized", service.ErrNotInitialized)
	}

	var body, failure string
	switch snap.Status {
	case entities.StatusInProgress:
		body, next, failure = actuator.CommandStop, entities.StatusPaused, "Failed to pause sowing process"
	case entities.StatusPaused:
		body, next, failure = actuator.CommandStart, entities.StatusInProgress, "Failed to resume sowing process"
	default:
		return snap.Status, apperr.E(apperr.KindStateConflict, op,
			fmt.Sprintf("Sowing cannot be toggled while %s", snap.Status), service.ErrInvalidState)
	}

	address, err := s.actuatorAddress(ctx)
	if err != nil {
		return snap.Status, apperr.Upstream(op, "Actuator IP not found", fmt.Errorf("%w: %w", service.ErrActuatorAddressUnknown, err))
	}
	if _, err := s.client.Send(ctx, actuator.Update, address, []byte(body)); err != nil {
		return snap.Status, apperr.Upstream(op, failure, fmt.Errorf("%w: %w", service.ErrCommandFailed, err))
	}

	s.mu.Lock()
	applied := s.sess.id == snap.SessionID && s.sess.status != entities.StatusComplete
	if applied {
		s.sess.status = next
	} else {
		next = s.sess.status
	}
	s.mu.Unlock()
	if applied && snap.ActiveFieldID != nil {
		s.recordField(ctx, *snap.ActiveFieldID, next, nil)
	}
	s.log.Info().Str("session", snap.SessionID).Str("status", string(next)).Msg("sowing toggled")
	return next, nil
}

func (s *sowingSvc) Stop(ctx context.Context) (err error) {
	const op = "stop"
	defer func() { observability.RecordLifecycle(op, err) }()
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	snap := s.Snapshot()
	if !snap.Initialized {
		return apperr.E(apperr.KindStateConflict, op, "Sowing not initialized", service.ErrNotInitialized)
	}
	address, err := s.actuatorAddress(ctx)
	if err != nil {
		return apperr.Upstream(op, "Actuator IP not found", fmt.Errorf("%w: %w", service.ErrActuatorAddressUnknown, err))
	}
	if _, err := s.client.Send(ctx, actuator.Delete, address, nil); err != nil {
		return apperr.Upstream(op, "Failed to stop sowing process", fmt.Errorf("%w: %w", service.ErrCommandFailed, err))
	}

	s.mu.Lock()
	obs := s.sess.observer
	status := s.sess.status
	s.sess = session{status: entities.StatusNotStarted}
	s.mu.Unlock()
	if obs != nil {
		obs.Cancel()
	}
	if snap.ActiveFieldID != nil && status != entities.StatusComplete {
		end := s.now()
		s.recordField(ctx, *snap.ActiveFieldID, entities.StatusStopped, &end)
	}
	s.log.Info().Str("session", snap.SessionID).Msg("sowing stopped")
	return nil
}

func (s *sowingSvc) QueryProgress(ctx context.Context, rawFieldID string) (service.Progress, error) {
	const op = "progress"
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	status := s.Snapshot().Status
	if status != entities.StatusInProgress {
		return service.Progress{Status: status}, apperr.E(apperr.KindStateConflict, op, "Sowing not in progress", service.ErrNotInProgress)
	}
	id, err := strconv.ParseUint(rawFieldID, 10, 0)
	if err != nil {
		return service.Progress{Status: status}, apperr.Validation(op, "Invalid field_id parameter")
	}

	info, err := s.progress(ctx, op, uint(id))
	if err != nil {
		return service.Progress{Status: status}, err
	}
	return service.Progress{Info: &info, Status: status}, nil
}

func (s *sowingSvc) progress(ctx context.Context, op string, id uint) (service.ProgressInfo, error) {
	f, sowed, err := s.fields.FindWithSowedCount(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return service.ProgressInfo{}, apperr.E(apperr.KindNotFound, op, "Field not found", service.ErrFieldNotFound)
	}
	if err != nil {
		return service.ProgressInfo{}, apperr.E(apperr.KindInternal, op, "An unexpected error occurred", err)
	}
	info, err := service.ComputeProgress(f.Length, f.Width, f.SquareSize, sowed)
	if err != nil {
		return service.ProgressInfo{}, apperr.E(apperr.KindInternal, op, "An unexpected error occurred", err)
	}
	return info, nil
}

func (s *sowingSvc) Snapshot() service.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := service.Snapshot{
		SessionID:   s.sess.id,
		Initialized: s.sess.initialized,
		Status:      s.sess.status,
	}
	if s.sess.fieldID != nil {
		id := *s.sess.fieldID
		snap.ActiveFieldID = &id
	}
	if s.sess.startedAt != nil {
		t := *s.sess.startedAt
		snap.StartedAt = &t
	}
	return snap
}

func (s *sowingSvc) ApplyObserved(sessionID string, status entities.SowingStatus) {
	s.mu.Lock()
	if !s.sess.initialized || s.sess.id != sessionID {
		s.mu.Unlock()
		s.log.Debug().Str("session", sessionID).Str("status", string(status)).Msg("ignoring stale notification")
		return
	}
	s.sess.status = status
	fieldID := s.sess.fieldID
	s.mu.Unlock()

	if status == entities.StatusComplete && fieldID != nil {
		end := s.now()
		s.recordField(context.Background(), *fieldID, status, &end)
	}
}

// actuatorAddress resolves the configured actuator name to its last
// registered address.
func (s *sowingSvc) actuatorAddress(ctx context.Context) (string, error) {
	d, err := s.devices.FindByName(ctx, s.name)
	if err != nil {
		return "", err
	}
	if d.IPv6Address == "" {
		return "", fmt.Errorf("device %q has no address", s.name)
	}
	return d.IPv6Address, nil
}

// recordField writes the field status without failing the caller.
func (s *sowingSvc) recordField(ctx context.Context, id uint, status entities.SowingStatus, end *time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()
	if end != nil {
		d := day(*end)
		end = &d
	}
	if err := s.fields.UpdateStatus(ctx, id, string(status), end); err != nil {
		s.log.Warn().Err(err).Uint("field_id", id).Str("status", string(status)).Msg("record field status")
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
