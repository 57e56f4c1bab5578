package actuator

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/udp"
)

// CoAPTransport dials a fresh UDP connection per command and keeps one open
// for the lifetime of each observation.
type CoAPTransport struct{}

func (CoAPTransport) Do(ctx context.Context, m Method, endpoint, resource string, payload []byte) (Response, error) {
	co, err := udp.Dial(endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer co.Close()

	path := "/" + resource
	var resp *pool.Message
	switch m {
	case Create:
		resp, err = co.Post(ctx, path, message.AppJSON, bytes.NewReader(payload))
	case Update:
		resp, err = co.Put(ctx, path, message.TextPlain, bytes.NewReader(payload))
	case Delete:
		resp, err = co.Delete(ctx, path)
	default:
		return Response{}, fmt.Errorf("unsupported method %v", m)
	}
	if err != nil {
		return Response{}, err
	}
	body, err := resp.ReadBody()
	if err != nil {
		return Response{}, fmt.Errorf("read reply: %w", err)
	}
	return Response{
		Code:    resp.Code().String(),
		Success: resp.Code() < codes.BadRequest,
		Payload: body,
	}, nil
}

func (CoAPTransport) Observe(ctx context.Context, endpoint, resource string, notify func([]byte)) (Subscription, error) {
	co, err := udp.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	obs, err := co.Observe(ctx, "/"+resource, func(m *pool.Message) {
		body, err := m.ReadBody()
		if err != nil {
			body = nil
		}
		notify(body)
	})
	if err != nil {
		_ = co.Close()
		return nil, err
	}
	return &coapSubscription{obs: obs, conn: co}, nil
}

type observation interface {
	Cancel(ctx context.Context, opts ...message.Option) error
}

type coapSubscription struct {
	obs  observation
	conn io.Closer
}

// Cancel deregisters the observation and closes the transport handle.
func (s *coapSubscription) Cancel(ctx context.Context) error {
	err := s.obs.Cancel(ctx)
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
