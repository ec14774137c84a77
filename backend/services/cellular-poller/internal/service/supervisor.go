package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the connection lifecycle state of a Supervisor.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StatePolling
	StateStopped
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SupervisorConfig wires a Supervisor.
type SupervisorConfig struct {
	Storage  StorageOpener
	Remote   RemoteDialer
	Poller   *Poller
	Interval time.Duration
	// Hypertable requests conversion of the table into a TimescaleDB hypertable.
	Hypertable bool
	Recorder   Recorder
}

// Supervisor owns the storage and router sessions, polls while both are up and rebuilds
// them after any failure. It only returns when ctx is cancelled.
type Supervisor struct {
	storage    StorageOpener
	remote     RemoteDialer
	poller     *Poller
	interval   time.Duration
	hypertable bool
	recorder   Recorder
	logger     *zap.Logger

	// Set once conversion succeeded or was found done; later attempts skip it.
	hypertableDone bool
	state          atomic.Int32

	sleep func(ctx context.Context, d time.Duration) error
}

// NewSupervisor validates cfg and returns a Supervisor in the disconnected state.
func NewSupervisor(cfg SupervisorConfig, logger *zap.Logger) (*Supervisor, error) {
	if cfg.Storage == nil || cfg.Remote == nil || cfg.Poller == nil {
		return nil, errors.New("supervisor: storage, remote and poller are required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("supervisor: interval must be positive, got %s", cfg.Interval)
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		storage:    cfg.Storage,
		remote:     cfg.Remote,
		poller:     cfg.Poller,
		interval:   cfg.Interval,
		hypertable: cfg.Hypertable,
		recorder:   recorder,
		logger:     logger,
		sleep:      sleepContext,
	}, nil
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(state State) {
	if State(s.state.Swap(int32(state))) != state {
		s.logger.Debug("state changed", zap.Stringer("state", state))
		s.recorder.StateChanged(state)
	}
}

// Run connects, polls and reconnects until ctx is cancelled. Connection problems never end
// the loop; there is no retry limit.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		outcome, err := s.attempt(ctx)
		if outcome == OutcomeStopped {
			s.setState(StateStopped)
			s.logger.Info("supervisor stopped")
			return nil
		}

		s.recorder.CycleFailed(outcome)
		s.logger.Error("session failed, reconnecting",
			zap.Stringer("kind", outcome),
			zap.Duration("backoff", s.interval),
			zap.Error(err),
		)
		s.setState(StateDisconnected)

		if err := s.sleep(ctx, s.interval); err != nil {
			s.setState(StateStopped)
			s.logger.Info("supervisor stopped during backoff")
			return nil
		}
		s.recorder.Reconnecting()
	}
}

// attempt runs one Connecting -> Polling pass. It only returns OutcomeStopped or a failure;
// sessions opened during the pass are closed before it returns.
func (s *Supervisor) attempt(ctx context.Context) (Outcome, error) {
	s.setState(StateConnecting)

	store, outcome, err := s.connectStorage(ctx)
	if outcome != OutcomeOK {
		return outcome, err
	}
	defer s.closeSession("storage", store)

	remote, outcome, err := s.connectRemote(ctx)
	if outcome != OutcomeOK {
		return outcome, err
	}
	defer s.closeSession("remote", remote)

	s.setState(StatePolling)
	s.logger.Info("polling router", zap.Duration("interval", s.interval))

	for {
		if _, err := s.poller.RunOnce(ctx, remote, store); err != nil {
			return Classify(ctx, err), err
		}
	}
}

func (s *Supervisor) connectStorage(ctx context.Context) (StorageSession, Outcome, error) {
	s.logger.Info("connecting to database")
	store, err := s.storage.Open(ctx)
	if err != nil {
		err = &StorageError{Op: "open", Err: err}
		return nil, Classify(ctx, err), err
	}

	convert := s.hypertable && !s.hypertableDone
	if err := store.EnsureSchema(ctx, convert); err != nil {
		s.closeSession("storage", store)
		err = &StorageError{Op: "ensure schema", Err: err}
		return nil, Classify(ctx, err), err
	}
	if convert {
		s.hypertableDone = true
	}

	return store, OutcomeOK, nil
}

func (s *Supervisor) connectRemote(ctx context.Context) (RemoteSession, Outcome, error) {
	s.logger.Info("connecting to router")
	remote, err := s.remote.Dial(ctx)
	if err != nil {
		err = &TransportError{Op: "dial", Err: err}
		return nil, Classify(ctx, err), err
	}
	return remote, OutcomeOK, nil
}

type closer interface {
	Close() error
}

func (s *Supervisor) closeSession(name string, c closer) {
	if err := c.Close(); err != nil {
		s.logger.Warn("failed to close session", zap.String("session", name), zap.Error(err))
	}
}
