package actuator

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"seedbot/pkg/observability"
)

// Client sends one-shot commands to the actuator command resource.
// It never retries; a missing reply is terminal for that call.
type Client struct {
	t       Transport
	port    int
	timeout time.Duration
	log     zerolog.Logger
}

func NewClient(t Transport, port int, timeout time.Duration, log zerolog.Logger) *Client {
	if port <= 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{t: t, port: port, timeout: timeout, log: log}
}

func (c *Client) Endpoint(address string) string {
	return net.JoinHostPort(address, strconv.Itoa(c.port))
}

func (c *Client) Send(ctx context.Context, m Method, address string, payload []byte) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.t.Do(ctx, m, c.Endpoint(address), CommandResource, payload)
	observability.RecordActuatorCommand(m.String(), time.Since(start), err == nil && resp.Success)
	if err != nil {
		c.log.Error().Err(err).Str("method", m.String()).Str("address", address).Msg("actuator command failed")
		return Response{}, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, m, address, err)
	}
	c.log.Info().Str("method", m.String()).Str("address", address).Str("code", resp.Code).Msg("actuator command sent")
	if !resp.Success {
		return resp, fmt.Errorf("%w: %s replied %s", ErrCommandRejected, m, resp.Code)
	}
	return resp, nil
}
