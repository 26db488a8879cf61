package mail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSender records every message. When gate is non-nil each Send
// first announces itself on started and then waits for gate to close.
type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	err     error
	started chan struct{}
	gate    chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

// failures collects OnFailure calls.
type failures struct {
	mu   sync.Mutex
	errs []error
	jobs []Job
}

func (f *failures) handle(job Job, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	f.errs = append(f.errs, err)
}

func (f *failures) all() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.errs...)
}

func msgTo(to string) Message {
	return Message{To: to, Subject: "s", Body: "b"}
}

func TestDispatcher_DeliversEverythingBeforeStopReturns(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, Config{Workers: 3, QueueSize: 10}, discardLogger())
	d.Start()

	ids := make(map[string]bool)
	for _, to := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
		ids[d.Dispatch(msgTo(to))] = true
	}
	d.Stop()

	assert.Len(t, ids, 4, "job ids must be unique")
	assert.Len(t, sender.messages(), 4)
}

func TestDispatcher_DispatchDoesNotWaitForDelivery(t *testing.T) {
	sender := &recordingSender{gate: make(chan struct{})}
	d := NewDispatcher(sender, Config{Workers: 1, QueueSize: 5}, discardLogger())
	d.Start()

	done := make(chan struct{})
	go func() {
		d.Dispatch(msgTo("a@x.com"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a slow sender")
	}

	close(sender.gate)
	d.Stop()
	assert.Len(t, sender.messages(), 1)
}

func TestDispatcher_QueueFullFailsImmediately(t *testing.T) {
	var f failures
	sender := &recordingSender{
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	d := NewDispatcher(sender, Config{Workers: 1, QueueSize: 1, OnFailure: f.handle}, discardLogger())
	d.Start()

	d.Dispatch(msgTo("busy@x.com")) // taken by the only worker
	<-sender.started
	d.Dispatch(msgTo("queued@x.com")) // fills the queue
	rejected := d.Dispatch(msgTo("rejected@x.com"))

	errs := f.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrQueueFull)
	assert.Equal(t, rejected, f.jobs[0].ID)

	// Let the remaining sends through; started is buffered for the second.
	close(sender.gate)
	d.Stop()
	assert.Len(t, sender.messages(), 2)
}

func TestDispatcher_DispatchAfterStop(t *testing.T) {
	var f failures
	d := NewDispatcher(&recordingSender{}, Config{OnFailure: f.handle}, discardLogger())
	d.Start()
	d.Stop()

	id := d.Dispatch(msgTo("late@x.com"))

	assert.NotEmpty(t, id)
	errs := f.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrStopped)
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, DefaultConfig(), discardLogger())
	d.Start()

	assert.NotPanics(t, func() {
		d.Stop()
		d.Stop()
	})
}

func TestDispatcher_SendErrorGoesToFailureHandler(t *testing.T) {
	var f failures
	boom := errors.New("smtp down")
	d := NewDispatcher(&recordingSender{err: boom}, Config{Workers: 1, OnFailure: f.handle}, discardLogger())
	d.Start()

	id := d.Dispatch(msgTo("a@x.com"))
	d.Stop()

	errs := f.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.Equal(t, id, f.jobs[0].ID)
	assert.Equal(t, "a@x.com", f.jobs[0].Message.To)
}

type ctxSender struct{}

func (ctxSender) Send(ctx context.Context, _ Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcher_EachSendHasItsOwnTimeout(t *testing.T) {
	var f failures
	d := NewDispatcher(ctxSender{}, Config{
		Workers:     1,
		SendTimeout: 20 * time.Millisecond,
		OnFailure:   f.handle,
	}, discardLogger())
	d.Start()

	d.Dispatch(msgTo("a@x.com"))
	d.Dispatch(msgTo("b@x.com"))
	d.Stop()

	errs := f.all()
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestNewDispatcher_FillsDefaults(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, Config{}, discardLogger())

	def := DefaultConfig()
	assert.Equal(t, def.Workers, d.config.Workers)
	assert.Equal(t, def.QueueSize, cap(d.jobs))
	assert.Equal(t, def.SendTimeout, d.config.SendTimeout)
	assert.NotNil(t, d.config.OnFailure)
}
