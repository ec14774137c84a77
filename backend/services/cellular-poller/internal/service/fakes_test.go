package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"cellmon/backend/services/cellular-poller/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeRunner struct {
	outputs  map[string][]string
	errs     map[string]error
	clock    *fakeClock
	cost     time.Duration
	commands []string
	closed   bool
}

func newFakeRunner(outputs map[string][]string) *fakeRunner {
	return &fakeRunner{outputs: outputs, errs: map[string]error{}}
}

func (r *fakeRunner) Run(ctx context.Context, command string) ([]string, error) {
	r.commands = append(r.commands, command)
	if r.clock != nil {
		r.clock.Advance(r.cost)
	}
	if err := r.errs[command]; err != nil {
		return nil, err
	}
	out, ok := r.outputs[command]
	if !ok {
		return nil, errors.New("unexpected command: " + command)
	}
	return append([]string(nil), out...), nil
}

func (r *fakeRunner) Close() error {
	r.closed = true
	return nil
}

type fakeSink struct {
	rows      []*models.TelemetryRow
	writeErr  error
	ensureErr error
	ensured   []bool
	closed    bool
	clock     *fakeClock
	cost      time.Duration
	onWrite   func(n int)
}

func (s *fakeSink) Write(ctx context.Context, row *models.TelemetryRow) (time.Time, error) {
	if s.clock != nil {
		s.clock.Advance(s.cost)
	}
	if s.writeErr != nil {
		return time.Time{}, s.writeErr
	}
	s.rows = append(s.rows, row)
	if s.onWrite != nil {
		s.onWrite(len(s.rows))
	}
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), nil
}

func (s *fakeSink) EnsureSchema(ctx context.Context, hypertable bool) error {
	s.ensured = append(s.ensured, hypertable)
	return s.ensureErr
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	sessions []*fakeSink
	errs     []error
	opened   int
}

func (o *fakeOpener) Open(ctx context.Context) (StorageSession, error) {
	i := o.opened
	o.opened++
	if i < len(o.errs) && o.errs[i] != nil {
		return nil, o.errs[i]
	}
	if i >= len(o.sessions) {
		return nil, errors.New("no more storage sessions")
	}
	return o.sessions[i], nil
}

type fakeDialer struct {
	sessions []*fakeRunner
	errs     []error
	dialed   int
}

func (d *fakeDialer) Dial(ctx context.Context) (RemoteSession, error) {
	i := d.dialed
	d.dialed++
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i >= len(d.sessions) {
		return nil, errors.New("no more remote sessions")
	}
	return d.sessions[i], nil
}

type fakePublisher struct {
	published []time.Time
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, ts time.Time, row *models.TelemetryRow) error {
	p.published = append(p.published, ts)
	return p.err
}

type fakeRecorder struct {
	completed  int
	failures   []Outcome
	reconnects int
	states     []State
}

func (r *fakeRecorder) CycleCompleted(time.Duration) { r.completed++ }
func (r *fakeRecorder) CycleFailed(o Outcome)        { r.failures = append(r.failures, o) }
func (r *fakeRecorder) Reconnecting()                { r.reconnects++ }
func (r *fakeRecorder) StateChanged(s State)         { r.states = append(r.states, s) }

type sleepRecorder struct {
	calls []time.Duration
}

// sleep records the request and returns immediately unless ctx is already cancelled.
func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

const lteServingLine = `serving: up, conn, LTE, 0, "310","260","1A2B","99","1800","7","10","20","-5.0","-10.0","-60.5","12.3","5.0"`

// diagnosticOutput returns one line per diagnostic field, with serving set to serving.
func diagnosticOutput(serving string) []string {
	out := make([]string, len(models.DiagnosticFields))
	for i, f := range models.DiagnosticFields {
		out[i] = "v-" + string(f.Name)
	}
	out[len(out)-1] = serving
	return out
}

func routerOutputs(serving string) map[string][]string {
	return map[string][]string{
		PrimaryCommand():        diagnosticOutput(serving),
		CounterCommand("eth1"):  {"1000", "2000"},
		CounterCommand("wwan0"): {"3000", "4000"},
	}
}
