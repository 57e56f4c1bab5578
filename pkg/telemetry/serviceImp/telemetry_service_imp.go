package serviceImp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	cellRepo "seedbot/pkg/cell/repository"
	deviceRepo "seedbot/pkg/device/repository"
	"seedbot/pkg/observability"
	"seedbot/pkg/publisher"
	"seedbot/pkg/telemetry/service"
)

type telemetrySvc struct {
	devices deviceRepo.DeviceRepository
	cells   cellRepo.CellRepository
	pub     publisher.Publisher
	acc     *accumulator
	log     zerolog.Logger
}

func NewTelemetryService(devices deviceRepo.DeviceRepository, cells cellRepo.CellRepository, pub publisher.Publisher, partition service.Partition, log zerolog.Logger) service.TelemetryService {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &telemetrySvc{
		devices: devices,
		cells:   cells,
		pub:     pub,
		acc:     newAccumulator(partition),
		log:     log,
	}
}

// host strips a port from a transport address.
func host(source string) string {
	if h, _, err := net.SplitHostPort(source); err == nil {
		return h
	}
	return source
}

func (s *telemetrySvc) Register(ctx context.Context, payload []byte, source string) service.Reply {
	name := strings.TrimSpace(string(payload))
	if name == "" {
		return service.Text(service.BadRequest, "Error: Device name is required.")
	}
	ip := host(source)
	created, err := s.devices.Upsert(ctx, name, ip)
	if err != nil {
		s.log.Error().Err(err).Str("device", name).Msg("register failed")
		return service.Text(service.InternalError, fmt.Sprintf("Error in registration: %v", err))
	}
	if created {
		s.log.Info().Str("device", name).Str("ip", ip).Msg("device registered")
		return service.Text(service.Created, fmt.Sprintf("Device '%s' registered successfully from IP %s.", name, ip))
	}
	s.log.Info().Str("device", name).Str("ip", ip).Msg("device address updated")
	return service.Text(service.Changed, fmt.Sprintf("Device '%s' updated successfully, new IP %s.", name, ip))
}

func jsonReply(code service.Code, v any) service.Reply {
	body, err := json.Marshal(v)
	if err != nil {
		return service.Text(service.InternalError, err.Error())
	}
	return service.Reply{Code: code, Format: service.AppJSON, Body: body}
}

func errorReply(code service.Code, msg string) service.Reply {
	return jsonReply(code, map[string]string{"error": msg})
}

func (s *telemetrySvc) Discover(ctx context.Context, payload []byte) service.Reply {
	var req map[string]any
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorReply(service.BadRequest, "Invalid JSON payload")
	}
	name, _ := req["name"].(string)
	if name == "" {
		return errorReply(service.BadRequest, "Device name is required")
	}

	d, err := s.devices.FindByName(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorReply(service.NotFound, "Device not found")
	case err != nil:
		s.log.Error().Err(err).Str("device", name).Msg("discover failed")
		return errorReply(service.InternalError, err.Error())
	case d.Name == "" || d.IPv6Address == "":
		return errorReply(service.InternalError, "Device data is incomplete")
	}
	return jsonReply(service.Content, map[string]string{d.Name: d.IPv6Address})
}

func (s *telemetrySvc) Save(ctx context.Context, payload []byte, source string) service.Reply {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return service.Text(service.BadRequest, "No payload received")
	}
	var fragment report
	if err := json.Unmarshal(payload, &fragment); err != nil || fragment == nil {
		return service.Text(service.BadRequest, "Invalid JSON payload")
	}
	src := host(source)

	s.acc.mu.Lock()
	merged := s.acc.merge(src, fragment)
	if !merged.complete() {
		s.log.Debug().Str("source", src).Strs("have", s.acc.pending(src)).Msg("cell report incomplete")
		s.acc.mu.Unlock()
		return service.Text(service.Valid, "Data received, waiting for more.")
	}
	cell, err := merged.toCell()
	if err != nil {
		s.acc.clear(src)
		s.acc.mu.Unlock()
		s.log.Warn().Err(err).Str("source", src).Msg("discarding cell report")
		return service.Text(service.BadRequest, err.Error())
	}
	outcome, err := s.cells.Upsert(ctx, cell)
	s.acc.clear(src)
	s.acc.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Uint("field_id", cell.FieldID).Int("row", cell.Row).Int("col", cell.Col).Msg("save cell failed")
		return service.Text(service.InternalError, fmt.Sprintf("Error: %v", err))
	}

	observability.RecordCellSaved(outcome.String())
	s.log.Info().Uint("field_id", cell.FieldID).Int("row", cell.Row).Int("col", cell.Col).Str("outcome", outcome.String()).Msg("cell report saved")
	if outcome != cellRepo.Unchanged {
		if err := s.pub.Emit(ctx, publisher.EventCellSaved, map[string]any{"cell": cell, "outcome": outcome.String()}); err != nil {
			s.log.Warn().Err(err).Msg("push cell_saved")
		}
	}

	switch outcome {
	case cellRepo.Created:
		return service.Text(service.Created, "New cell added")
	case cellRepo.Updated:
		return service.Text(service.Changed, "Cell updated")
	default:
		return service.Text(service.Content, "Cell data unchanged")
	}
}
