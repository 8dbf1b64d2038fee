package syncpoll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"facet/internal/checksum"
	"facet/internal/logging"
)

// State is the poller's externally visible condition.
type State string

const (
	// StateIdle means the poller is armed and waiting for the next tick.
	StateIdle State = "idle"
	// StateChecking means a digest comparison is in flight.
	StateChecking State = "checking"
	// StateFetching means the digest moved and a full fetch is in flight.
	StateFetching State = "fetching"
	// StateRetrying means the current cycle failed and is being retried.
	StateRetrying State = "retrying"
	// StatePaused means no cycles run until every pause reason clears.
	StatePaused State = "paused"
)

// ManualPauseReason is the reserved reason used by Pause and Resume. It is
// sticky: automatic conditions clearing never lifts it.
const ManualPauseReason = "manual"

// Options configures a Poller.
type Options struct {
	// Interval between digest checks.
	Interval time.Duration
	// MaxAttempts bounds how often a failing check or fetch is tried
	// within one cycle before the poller gives up and re-arms.
	MaxAttempts int
	// RetryBackoff is the constant delay between attempts.
	RetryBackoff time.Duration
	// Check returns the server's current digest for the list.
	Check func(ctx context.Context) (string, error)
	// Fetch retrieves and applies the full list, returning the digest it
	// observed so the poller can arm the next comparison.
	Fetch func(ctx context.Context) (string, error)
	// Logger is optional.
	Logger *slog.Logger
}

// Snapshot is a point-in-time view of the poller for status surfaces.
type Snapshot struct {
	State        State
	LastDigest   string
	LastSync     time.Time
	LastError    string
	PauseReasons []string
}

// Poller runs the digest-check/fetch loop. All cycles execute on one
// goroutine, so at most one check or fetch is outstanding at any moment;
// ticks that arrive mid-cycle coalesce.
type Poller struct {
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	force  chan struct{}
	done   chan struct{}

	mu         sync.Mutex
	state      State
	lastDigest string
	lastSync   time.Time
	lastError  string
	reasons    map[string]struct{}
}

// New validates options and returns an unstarted poller.
func New(opts Options) (*Poller, error) {
	if opts.Check == nil || opts.Fetch == nil {
		return nil, errors.New("syncpoll: Check and Fetch are required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "syncpoll"),
		ctx:     ctx,
		cancel:  cancel,
		force:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   StateIdle,
		reasons: make(map[string]struct{}),
	}, nil
}

// Start launches the polling loop. An immediate first cycle runs before
// the interval timer takes over.
func (p *Poller) Start() {
	go p.run()
}

func (p *Poller) run() {
	defer close(p.done)

	p.runCycle(false)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runCycle(false)
		case <-p.force:
			p.runCycle(true)
		}
	}
}

// Close tears the poller down. Any in-flight callback sees its context
// canceled and is abandoned; nothing fires after Close returns.
func (p *Poller) Close() {
	p.cancel()
	<-p.done
}

// ForceRefresh schedules an unconditional fetch that skips the digest
// comparison. It counts as an explicit user action, so it also lifts the
// sticky manual pause; automatic conditions stay with their owners. The
// forced fetch itself runs even while paused.
func (p *Poller) ForceRefresh() {
	p.SetCondition(ManualPauseReason, false)
	select {
	case p.force <- struct{}{}:
	default:
	}
}

// Pause sets the sticky manual pause.
func (p *Poller) Pause() {
	p.SetCondition(ManualPauseReason, true)
}

// Resume clears the manual pause. Automatic conditions stay in force.
func (p *Poller) Resume() {
	p.SetCondition(ManualPauseReason, false)
}

// SetCondition raises or clears one named pause reason. Cycles stay
// suspended while any reason is set.
func (p *Poller) SetCondition(reason string, paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if paused {
		p.reasons[reason] = struct{}{}
	} else {
		delete(p.reasons, reason)
	}
	if len(p.reasons) > 0 {
		p.state = StatePaused
	} else if p.state == StatePaused {
		p.state = StateIdle
	}
}

// Snapshot reports the poller's current condition.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	reasons := make([]string, 0, len(p.reasons))
	for reason := range p.reasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return Snapshot{
		State:        p.state,
		LastDigest:   p.lastDigest,
		LastSync:     p.lastSync,
		LastError:    p.lastError,
		PauseReasons: reasons,
	}
}

func (p *Poller) paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reasons) > 0
}

func (p *Poller) setState(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *Poller) settle() {
	p.mu.Lock()
	if len(p.reasons) > 0 {
		p.state = StatePaused
	} else {
		p.state = StateIdle
	}
	p.mu.Unlock()
}

// runCycle executes one check-and-maybe-fetch cycle. A forced cycle skips
// both the pause gate and the digest comparison.
func (p *Poller) runCycle(forced bool) {
	if p.ctx.Err() != nil {
		return
	}
	if !forced && p.paused() {
		return
	}
	defer p.settle()

	if !forced {
		p.setState(StateChecking)
		digest, err := p.withRetries(func(ctx context.Context) (string, error) {
			return p.opts.Check(ctx)
		})
		if err != nil {
			p.recordError(fmt.Errorf("check: %w", err))
			return
		}

		p.mu.Lock()
		unchanged := checksum.Equal(digest, p.lastDigest)
		p.mu.Unlock()
		if unchanged {
			p.clearError()
			return
		}
	}

	p.setState(StateFetching)
	digest, err := p.withRetries(func(ctx context.Context) (string, error) {
		return p.opts.Fetch(ctx)
	})
	if err != nil {
		p.recordError(fmt.Errorf("fetch: %w", err))
		return
	}

	p.mu.Lock()
	p.lastDigest = digest
	p.lastSync = time.Now()
	p.lastError = ""
	p.mu.Unlock()
}

// withRetries runs op up to MaxAttempts times with a constant backoff.
// Exhausting the attempts abandons the cycle; the next tick starts fresh.
func (p *Poller) withRetries(op func(ctx context.Context) (string, error)) (string, error) {
	var result string
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(p.opts.MaxAttempts-1), retry.NewConstant(p.opts.RetryBackoff))
	err := retry.Do(p.ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.setState(StateRetrying)
		}
		value, err := op(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func (p *Poller) recordError(err error) {
	if p.ctx.Err() != nil {
		return
	}
	p.logger.Warn("poll cycle abandoned", logging.Error(err))
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
}

func (p *Poller) clearError() {
	p.mu.Lock()
	p.lastError = ""
	p.mu.Unlock()
}
