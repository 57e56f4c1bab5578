// Package actuator talks to the sowing actuator over CoAP: one-shot commands
// on its command resource and an observation of its status resource.
package actuator

import (
	"context"
	"errors"
	"strconv"
)

const (
	CommandResource = "sowing_actuator"
	StatusResource  = "sowing_actuator/status"
	DefaultPort     = 5683
)

var (
	ErrUnreachable     = errors.New("actuator unreachable")
	ErrCommandRejected = errors.New("actuator rejected command")
)

type Method int

const (
	Create Method = iota + 1
	Update
	Delete
)

func (m Method) String() string {
	switch m {
	case Create:
		return "POST"
	case Update:
		return "PUT"
	case Delete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Response is the raw reply to a command.
type Response struct {
	Code    string
	Success bool
	Payload []byte
}

// Transport is the request/response/observe primitive. Framing, retransmission
// and ACKs are its concern.
type Transport interface {
	Do(ctx context.Context, m Method, endpoint, resource string, payload []byte) (Response, error)
	Observe(ctx context.Context, endpoint, resource string, notify func(payload []byte)) (Subscription, error)
}

type Subscription interface {
	Cancel(ctx context.Context) error
}

// Toggle command bodies understood by the actuator PUT handler.
const (
	CommandStart = "start"
	CommandStop  = "stop"
)

// StartPayload renders the POST body. The firmware parses it positionally,
// so key order and spacing are fixed.
func StartPayload(length, width, squareSize float64, fieldID uint) []byte {
	return []byte(`{"length": ` + num(length) +
		`, "width": ` + num(width) +
		`, "square_size": ` + num(squareSize) +
		`, "field_id": ` + strconv.FormatUint(uint64(fieldID), 10) + `}`)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
