package actuator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedbot/entities"
	"seedbot/pkg/publisher"
)

type call struct {
	method   Method
	endpoint string
	resource string
	payload  string
}

type fakeSub struct {
	mu      sync.Mutex
	cancels int
}

func (s *fakeSub) Cancel(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	return nil
}

func (s *fakeSub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

type fakeTransport struct {
	mu         sync.Mutex
	calls      []call
	resp       Response
	err        error
	observeErr error
	notify     func([]byte)
	sub        *fakeSub
}

func (f *fakeTransport) Do(_ context.Context, m Method, endpoint, resource string, payload []byte) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{m, endpoint, resource, string(payload)})
	return f.resp, f.err
}

func (f *fakeTransport) Observe(_ context.Context, endpoint, resource string, notify func([]byte)) (Subscription, error) {
	if f.observeErr != nil {
		return nil, f.observeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notify = notify
	f.sub = &fakeSub{}
	return f.sub, nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Emit(_ context.Context, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+payload.(map[string]string)["status"])
	return nil
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestParseNotification(t *testing.T) {
	cases := []struct {
		in   string
		want Notification
		bad  bool
	}{
		{in: `{"complete": true, "active": false}`, want: Notification{Complete: true}},
		{in: `{"complete": 0, "active": 1}`, want: Notification{Active: true}},
		{in: `{"complete": 0, "active": 0}`, want: Notification{}},
		{in: `{"complete": 1, "active": 0}`, want: Notification{Complete: true}},
		{in: `{"active": 1}`, bad: true},
		{in: `{"complete": "yes", "active": 1}`, bad: true},
		{in: `not json`, bad: true},
		{in: ``, bad: true},
	}
	for _, tc := range cases {
		got, err := ParseNotification([]byte(tc.in))
		if tc.bad {
			assert.ErrorIs(t, err, ErrMalformedNotification, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestReduce(t *testing.T) {
	assert.Equal(t, entities.StatusComplete, Reduce(Notification{Complete: true, Active: true}))
	assert.Equal(t, entities.StatusComplete, Reduce(Notification{Complete: true}))
	assert.Equal(t, entities.StatusPaused, Reduce(Notification{}))
	assert.Equal(t, entities.StatusInProgress, Reduce(Notification{Active: true}))
}

func TestStartPayloadMatchesFirmwareFormat(t *testing.T) {
	got := string(StartPayload(10, 10, 5, 3))
	assert.Equal(t, `{"length": 10, "width": 10, "square_size": 5, "field_id": 3}`, got)
	assert.Equal(t, `{"length": 12.5, "width": 4, "square_size": 0.5, "field_id": 1}`, string(StartPayload(12.5, 4, 0.5, 1)))
}

func TestClientSend(t *testing.T) {
	ft := &fakeTransport{resp: Response{Code: "Changed", Success: true}}
	c := NewClient(ft, 0, time.Second, zerolog.Nop())

	_, err := c.Send(context.Background(), Update, "fd00::202:2:2:2", []byte(CommandStop))
	require.NoError(t, err)
	require.Len(t, ft.calls, 1)
	assert.Equal(t, call{Update, "[fd00::202:2:2:2]:5683", CommandResource, "stop"}, ft.calls[0])
}

func TestClientSendUnreachable(t *testing.T) {
	ft := &fakeTransport{err: context.DeadlineExceeded}
	c := NewClient(ft, 5683, time.Second, zerolog.Nop())
	_, err := c.Send(context.Background(), Delete, "fd00::1", nil)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Len(t, ft.calls, 1, "no retries")
}

func TestClientSendRejected(t *testing.T) {
	ft := &fakeTransport{resp: Response{Code: "BadRequest"}}
	c := NewClient(ft, 5683, time.Second, zerolog.Nop())
	resp, err := c.Send(context.Background(), Create, "fd00::1", StartPayload(1, 1, 1, 1))
	assert.ErrorIs(t, err, ErrCommandRejected)
	assert.Equal(t, "BadRequest", resp.Code)
}

func newTestObserver(t *testing.T) (*Observer, *fakeTransport, *recorder, func() []entities.SowingStatus) {
	t.Helper()
	ft := &fakeTransport{}
	rec := &recorder{}
	var mu sync.Mutex
	var applied []entities.SowingStatus
	apply := func(s entities.SowingStatus) {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, s)
	}
	o := NewObserver(ft, "[fd00::1]:5683", rec, apply, zerolog.Nop())
	require.NoError(t, o.Subscribe(context.Background()))
	t.Cleanup(o.Cancel)
	return o, ft, rec, func() []entities.SowingStatus {
		mu.Lock()
		defer mu.Unlock()
		return append([]entities.SowingStatus(nil), applied...)
	}
}

func TestObserverPausedNotification(t *testing.T) {
	_, ft, rec, applied := newTestObserver(t)

	ft.notify([]byte(`{"complete": false, "active": false}`))

	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{publisher.EventSowingStatus + ":Paused"}, rec.list())
	assert.Equal(t, []entities.SowingStatus{entities.StatusPaused}, applied())
}

func TestObserverProcessesInOrder(t *testing.T) {
	o, ft, rec, applied := newTestObserver(t)

	ft.notify([]byte(`{"complete": 0, "active": 0}`))
	ft.notify([]byte(`garbage`))
	ft.notify([]byte(`{"complete": 0, "active": 1}`))

	require.Eventually(t, func() bool { return len(rec.list()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []entities.SowingStatus{entities.StatusPaused, entities.StatusInProgress}, applied())
	assert.Equal(t, entities.StatusInProgress, o.Last())
	assert.False(t, o.Canceled())
}

func TestObserverCompleteUnsubscribes(t *testing.T) {
	o, ft, rec, applied := newTestObserver(t)

	ft.notify([]byte(`{"complete": 1, "active": 0}`))

	require.Eventually(t, o.Canceled, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{publisher.EventSowingStatus + ":Complete"}, rec.list())
	assert.Equal(t, 1, ft.sub.count())

	// late notifications on a closed subscription are ignored
	done := make(chan struct{})
	go func() {
		ft.notify([]byte(`{"complete": 0, "active": 1}`))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked after cancel")
	}
	assert.Equal(t, []entities.SowingStatus{entities.StatusComplete}, applied())
}

func TestObserverCancelIsIdempotent(t *testing.T) {
	o, ft, _, _ := newTestObserver(t)
	o.Cancel()
	o.Cancel()
	assert.Equal(t, 1, ft.sub.count())
	<-o.Done()
}

func TestObserverSubscribeFailure(t *testing.T) {
	ft := &fakeTransport{observeErr: errors.New("no route to host")}
	o := NewObserver(ft, "[fd00::1]:5683", nil, nil, zerolog.Nop())
	err := o.Subscribe(context.Background())
	require.Error(t, err)
	assert.True(t, o.Canceled())
}

// stuckSink never delivers; it only returns once the caller gives up.
type stuckSink struct {
	mu        sync.Mutex
	calls     int
	deadlines []bool
}

func (s *stuckSink) Emit(ctx context.Context, _ string, _ any) error {
	_, ok := ctx.Deadline()
	s.mu.Lock()
	s.calls++
	s.deadlines = append(s.deadlines, ok)
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (s *stuckSink) snapshot() (int, []bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]bool(nil), s.deadlines...)
}

func TestObserverStalledSinkDoesNotBlockReduction(t *testing.T) {
	ft := &fakeTransport{}
	sink := &stuckSink{}
	var mu sync.Mutex
	var applied []entities.SowingStatus
	o := NewObserver(ft, "[fd00::1]:5683", sink, func(s entities.SowingStatus) {
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, s)
	}, zerolog.Nop())
	require.NoError(t, o.Subscribe(context.Background()))
	t.Cleanup(o.Cancel)

	ft.notify([]byte(`{"complete": 0, "active": 0}`))
	ft.notify([]byte(`{"complete": 0, "active": 1}`))

	require.Eventually(t, func() bool {
		n, _ := sink.snapshot()
		return n == 2
	}, 3*emitTimeout, 10*time.Millisecond)
	_, deadlines := sink.snapshot()
	assert.Equal(t, []bool{true, true}, deadlines)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []entities.SowingStatus{entities.StatusPaused, entities.StatusInProgress}, applied)
}
