package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cellmon/backend/services/cellular-poller/internal/models"
)

const countersPerInterface = 2

// PollerConfig configures one Poller.
type PollerConfig struct {
	Interval time.Duration
	// Devices are the monitored network devices in counter order (wired WAN, then mobile).
	Devices    []string
	Publishers []SamplePublisher
	Recorder   Recorder
}

// Poller runs one polling cycle at a time and keeps cycles spaced at Interval.
type Poller struct {
	interval   time.Duration
	devices    []string
	publishers []SamplePublisher
	recorder   Recorder
	logger     *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// CycleResult describes a completed cycle.
type CycleResult struct {
	Row       *models.TelemetryRow
	Timestamp time.Time
	Elapsed   time.Duration
	Slept     time.Duration
}

// NewPoller validates cfg and returns a Poller.
func NewPoller(cfg PollerConfig, logger *zap.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poller: interval must be positive, got %s", cfg.Interval)
	}
	if len(cfg.Devices)*countersPerInterface != len(models.CounterFields) {
		return nil, fmt.Errorf("poller: expected %d monitored devices, got %d", len(models.CounterFields)/countersPerInterface, len(cfg.Devices))
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		interval:   cfg.Interval,
		devices:    append([]string(nil), cfg.Devices...),
		publishers: cfg.Publishers,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
	}, nil
}

// PrimaryCommand reads every diagnostic field in one gsmctl call.
func PrimaryCommand() string {
	flags := make([]string, len(models.DiagnosticFields))
	for i, f := range models.DiagnosticFields {
		flags[i] = f.Flag()
	}
	return "gsmctl " + strings.Join(flags, " ")
}

// CounterCommand reads the sent and received byte counters of device, in that order.
func CounterCommand(device string) string {
	return fmt.Sprintf("cat /sys/class/net/%[1]s/statistics/tx_bytes /sys/class/net/%[1]s/statistics/rx_bytes", device)
}

// RunOnce polls the router, stores one row and then waits out the rest of the interval.
//
// Counters are read with their own commands: reading them in the same invocation as gsmctl
// returns stale values on the router.
func (p *Poller) RunOnce(ctx context.Context, runner CommandRunner, sink TelemetrySink) (*CycleResult, error) {
	start := p.now()

	primary := PrimaryCommand()
	lines, err := runner.Run(ctx, primary)
	if err != nil {
		return nil, &TransportError{Op: "run gsmctl", Err: err}
	}
	raw := p.normalize(primary, lines, len(models.DiagnosticFields))

	for _, device := range p.devices {
		cmd := CounterCommand(device)
		lines, err := runner.Run(ctx, cmd)
		if err != nil {
			return nil, &TransportError{Op: "read counters " + device, Err: err}
		}
		raw = append(raw, p.normalize(cmd, lines, countersPerInterface)...)
	}

	row, err := AssembleValues(raw, models.Catalog)
	if err != nil {
		return nil, err
	}

	ts, err := sink.Write(ctx, row)
	if err != nil {
		return nil, &StorageError{Op: "insert row", Err: err}
	}
	p.logger.Debug("row stored", zap.Time("time", ts), zap.Stringer("row", row))

	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, ts, row); err != nil {
			p.logger.Warn("failed to publish sample", zap.Error(err))
		}
	}

	elapsed := p.now().Sub(start)
	p.recorder.CycleCompleted(elapsed)

	result := &CycleResult{Row: row, Timestamp: ts, Elapsed: elapsed}
	if remaining := p.interval - elapsed; remaining > 0 {
		result.Slept = remaining
		if err := p.sleep(ctx, remaining); err != nil {
			return result, err
		}
	} else {
		p.logger.Warn("poll cycle overran interval", zap.Duration("elapsed", elapsed), zap.Duration("interval", p.interval))
	}

	return result, nil
}

// normalize pads or truncates a command's output to want lines so that the outputs of later
// commands keep their catalog positions. Padded lines are nil.
func (p *Poller) normalize(cmd string, lines []string, want int) []*string {
	if len(lines) != want {
		p.logger.Warn("unexpected command output length",
			zap.String("command", cmd),
			zap.Int("want", want),
			zap.Int("got", len(lines)),
		)
	}
	out := make([]*string, want)
	for i := 0; i < want && i < len(lines); i++ {
		out[i] = &lines[i]
	}
	return out
}
