package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"seedbot/entities"
	"seedbot/pkg/observability"
	"seedbot/pkg/publisher"
)

const (
	notificationBuffer = 16
	cancelTimeout      = 3 * time.Second
	emitTimeout        = 2 * time.Second
)

var ErrMalformedNotification = errors.New("malformed notification")

// Notification is one status update from the actuator.
type Notification struct {
	Complete bool
	Active   bool
}

// ParseNotification accepts JSON booleans as well as the 0/1 integers the
// firmware emits. Both keys are required.
func ParseNotification(payload []byte) (Notification, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	complete, err := flag(raw, "complete")
	if err != nil {
		return Notification{}, err
	}
	active, err := flag(raw, "active")
	if err != nil {
		return Notification{}, err
	}
	return Notification{Complete: complete, Active: active}, nil
}

func flag(raw map[string]json.RawMessage, key string) (bool, error) {
	v, ok := raw[key]
	if !ok {
		return false, fmt.Errorf("%w: missing %q", ErrMalformedNotification, key)
	}
	v = bytes.TrimSpace(v)
	switch string(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	n, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q is %s", ErrMalformedNotification, key, v)
	}
	return n != 0, nil
}

// Reduce maps a notification onto the lifecycle status it implies.
func Reduce(n Notification) entities.SowingStatus {
	switch {
	case n.Complete:
		return entities.StatusComplete
	case n.Active:
		return entities.StatusInProgress
	default:
		return entities.StatusPaused
	}
}

// Observer follows the actuator status resource for one sowing session.
// Notifications are queued and reduced one at a time by a single goroutine.
type Observer struct {
	t        Transport
	endpoint string
	pub      publisher.Publisher
	apply    func(entities.SowingStatus)
	log      zerolog.Logger

	queue chan []byte
	done  chan struct{}
	once  sync.Once

	// mu is the reducer lock, independent of the session command lock.
	mu   sync.Mutex
	last entities.SowingStatus

	subMu    sync.Mutex
	sub      Subscription
	canceled bool
}

func NewObserver(t Transport, endpoint string, pub publisher.Publisher, apply func(entities.SowingStatus), log zerolog.Logger) *Observer {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &Observer{
		t:        t,
		endpoint: endpoint,
		pub:      pub,
		apply:    apply,
		log:      log.With().Str("endpoint", endpoint).Logger(),
		queue:    make(chan []byte, notificationBuffer),
		done:     make(chan struct{}),
	}
}

// Subscribe registers the observation and returns without waiting for
// notifications. On error the observer is already cancelled.
func (o *Observer) Subscribe(ctx context.Context) error {
	go o.run()
	sub, err := o.t.Observe(ctx, o.endpoint, StatusResource, o.enqueue)
	if err != nil {
		o.Cancel()
		return fmt.Errorf("observe %s/%s: %w", o.endpoint, StatusResource, err)
	}

	o.subMu.Lock()
	if o.canceled {
		o.subMu.Unlock()
		o.cancelSub(sub)
		return nil
	}
	o.sub = sub
	o.subMu.Unlock()
	o.log.Info().Str("resource", StatusResource).Msg("subscribed, waiting for notifications")
	return nil
}

func (o *Observer) enqueue(payload []byte) {
	select {
	case <-o.done:
	case o.queue <- payload:
	}
}

func (o *Observer) run() {
	for {
		select {
		case <-o.done:
			return
		case p := <-o.queue:
			o.handle(p)
		}
	}
}

func (o *Observer) handle(payload []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Canceled() {
		return
	}

	n, err := ParseNotification(payload)
	if err != nil {
		observability.RecordNotification("malformed")
		o.log.Warn().Err(err).Bytes("payload", payload).Msg("dropping notification")
		return
	}
	status := Reduce(n)
	observability.RecordNotification(string(status))
	o.log.Info().Bool("complete", n.Complete).Bool("active", n.Active).Str("status", string(status)).Msg("notification")

	if status == entities.StatusComplete {
		o.Cancel()
	}
	o.last = status
	if o.apply != nil {
		o.apply(status)
	}
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()
	if err := o.pub.Emit(ctx, publisher.EventSowingStatus, map[string]string{"status": string(status)}); err != nil {
		o.log.Warn().Err(err).Msg("push sowing status")
	}
}

// Cancel stops the observation. Repeated calls are no-ops.
func (o *Observer) Cancel() {
	o.once.Do(func() {
		close(o.done)
		o.subMu.Lock()
		o.canceled = true
		sub := o.sub
		o.sub = nil
		o.subMu.Unlock()
		if sub != nil {
			o.cancelSub(sub)
		}
	})
}

func (o *Observer) cancelSub(sub Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := sub.Cancel(ctx); err != nil {
		o.log.Warn().Err(err).Msg("cancel observation")
		return
	}
	o.log.Info().Msg("stopped observing")
}

func (o *Observer) Canceled() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Done is closed once the observer is cancelled.
func (o *Observer) Done() <-chan struct{} { return o.done }

// Last returns the most recently reduced status, or "" before the first one.
func (o *Observer) Last() entities.SowingStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
