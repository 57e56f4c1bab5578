package controllerImp

import (
	"bytes"
	"context"

	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/mux"
	"github.com/rs/zerolog"

	"seedbot/pkg/telemetry/service"
)

type TelemetryCtrl struct {
	svc service.TelemetryService
	log zerolog.Logger
}

func New(svc service.TelemetryService, log zerolog.Logger) *TelemetryCtrl {
	return &TelemetryCtrl{svc: svc, log: log}
}

func (h *TelemetryCtrl) Register(w mux.ResponseWriter, r *mux.Message) {
	h.serve(w, r, func(ctx context.Context, body []byte, source string) service.Reply {
		return h.svc.Register(ctx, body, source)
	})
}

func (h *TelemetryCtrl) Discover(w mux.ResponseWriter, r *mux.Message) {
	h.serve(w, r, func(ctx context.Context, body []byte, _ string) service.Reply {
		return h.svc.Discover(ctx, body)
	})
}

func (h *TelemetryCtrl) Save(w mux.ResponseWriter, r *mux.Message) {
	h.serve(w, r, func(ctx context.Context, body []byte, source string) service.Reply {
		return h.svc.Save(ctx, body, source)
	})
}

type resource func(ctx context.Context, body []byte, source string) service.Reply

func (h *TelemetryCtrl) serve(w mux.ResponseWriter, r *mux.Message, fn resource) {
	var body []byte
	if r.Body() != nil {
		b, err := r.ReadBody()
		if err != nil {
			h.write(w, service.Text(service.BadRequest, "unreadable payload"))
			return
		}
		body = b
	}
	h.write(w, Dispatch(r.Context(), r.Code(), body, w.Conn().RemoteAddr().String(), fn))
}

// Dispatch runs fn for POST requests and answers MethodNotAllowed otherwise.
func Dispatch(ctx context.Context, method codes.Code, body []byte, source string, fn resource) service.Reply {
	if method != codes.POST {
		return service.Text(service.MethodNotAllowed, "Method not allowed")
	}
	return fn(ctx, body, source)
}

func (h *TelemetryCtrl) write(w mux.ResponseWriter, rep service.Reply) {
	if err := w.SetResponse(ToCoAP(rep.Code), mediaType(rep.Format), bytes.NewReader(rep.Body)); err != nil {
		h.log.Error().Err(err).Msg("set coap response")
	}
}

func ToCoAP(c service.Code) codes.Code {
	switch c {
	case service.Created:
		return codes.Created
	case service.Valid:
		return codes.Valid
	case service.Changed:
		return codes.Changed
	case service.Content:
		return codes.Content
	case service.BadRequest:
		return codes.BadRequest
	case service.NotFound:
		return codes.NotFound
	case service.MethodNotAllowed:
		return codes.MethodNotAllowed
	default:
		return codes.InternalServerError
	}
}

func mediaType(f service.Format) message.MediaType {
	if f == service.AppJSON {
		return message.AppJSON
	}
	return message.TextPlain
}
