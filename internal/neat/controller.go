package neat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"neatrun/internal/model"
)

// GenerationRunner is the per-generation-step capability the controller
// drives. The generation engine is the concrete implementation; variants
// compose by injection rather than subclassing.
type GenerationRunner interface {
	InitializeRun(ctx context.Context, evaluator GenomeListEvaluator, genomes []*model.Genome) error
	PerformOneGeneration(ctx context.Context) error
	Generation() uint32
}

// PauseObserver is implemented by runners that record output when the run
// pauses. Failures are logged and never abort the worker.
type PauseObserver interface {
	OnPause() error
}

// RunCloser is implemented by runners holding external resources, released
// on Reset.
type RunCloser interface {
	CloseRun() error
}

var (
	// ErrNotInitialized is returned when a start is requested before
	// Initialize has run.
	ErrNotInitialized = errors.New("controller is not initialized")
	// ErrTerminated is returned when a start is requested after the run has
	// been terminated. A fresh controller is required to run again.
	ErrTerminated = errors.New("controller is terminated")
)

type listener struct {
	id int
	fn func(*EvolutionController)
}

// EvolutionController owns the worker lifecycle and the pause/resume/
// terminate protocol for one evolution run. All generation logic executes on
// a single worker goroutine; callers interact only through the operations
// below. The pending-pause flag is honored at generation boundaries, so a
// pause request may let at most one extra generation complete.
type EvolutionController struct {
	runner GenerationRunner
	logger Logger
	scheme UpdateScheme

	state        atomic.Int32
	pausePending atomic.Bool

	mu              sync.Mutex
	initialized     bool
	evaluator       GenomeListEvaluator
	resume          chan struct{}
	done            chan struct{}
	closeDone       sync.Once
	runCtx          context.Context
	cancel          context.CancelFunc
	err             error
	pauseWaiters    []chan struct{}
	updateListeners []listener
	pausedListeners []listener
	nextListenerID  int

	lastFireGeneration uint32
	lastFireTime       time.Time
}

// ControllerOption customizes controller construction.
type ControllerOption func(*EvolutionController)

// WithLogger injects the logging capability.
func WithLogger(l Logger) ControllerOption {
	return func(c *EvolutionController) { c.logger = l }
}

// WithUpdateScheme replaces the default once-per-second progress cadence.
func WithUpdateScheme(u UpdateScheme) ControllerOption {
	return func(c *EvolutionController) { c.scheme = u }
}

// NewController wraps a generation runner in a lifecycle controller.
func NewController(runner GenerationRunner, opts ...ControllerOption) *EvolutionController {
	c := &EvolutionController{
		runner: runner,
		logger: StdLogger(),
		scheme: NewTimeUpdateScheme(time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(int32(RunStateReady))
	return c
}

// Initialize binds the evaluator and a pre-built population, runs the
// runner's initialization pass, and leaves the controller Ready. Must be
// called exactly once before any start request.
func (c *EvolutionController) Initialize(ctx context.Context, evaluator GenomeListEvaluator, genomes []*model.Genome) error {
	if evaluator == nil {
		return fmt.Errorf("evaluator is required")
	}
	if len(genomes) == 0 {
		return fmt.Errorf("initial population is required")
	}

	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return fmt.Errorf("controller is already initialized")
	}
	c.initialized = true
	c.evaluator = evaluator
	c.lastFireTime = time.Now()
	c.mu.Unlock()

	if err := c.runner.InitializeRun(ctx, evaluator, genomes); err != nil {
		return fmt.Errorf("initialize run: %w", err)
	}
	return nil
}

// InitializeSized asks the factory to build the initial population and then
// initializes as Initialize does.
func (c *EvolutionController) InitializeSized(ctx context.Context, evaluator GenomeListEvaluator, factory GenomeFactory, size int) error {
	if factory == nil {
		return fmt.Errorf("genome factory is required")
	}
	if size <= 0 {
		return fmt.Errorf("population size must be > 0, got %d", size)
	}
	return c.Initialize(ctx, evaluator, factory.CreateGenomeList(size, 0))
}

// State may be read from any goroutine.
func (c *EvolutionController) State() RunState {
	return RunState(c.state.Load())
}

// Err reports the failure that terminated the run, if any.
func (c *EvolutionController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done returns a channel closed when the run terminates, whether by Reset or
// by a generation failure. It is nil before the first start.
func (c *EvolutionController) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// StartContinue starts a Ready run or resumes a Paused one. Calling it while
// Running is a warn-level no-op; calling it after termination is an error.
func (c *EvolutionController) StartContinue() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case RunStateReady:
		if !c.initialized {
			return ErrNotInitialized
		}
		c.resume = make(chan struct{}, 1)
		c.done = make(chan struct{})
		c.closeDone = sync.Once{}
		c.runCtx, c.cancel = context.WithCancel(context.Background())
		c.state.Store(int32(RunStateRunning))
		go c.loop()
		return nil
	case RunStateRunning:
		c.logger.Warnf("start requested while already running; ignored")
		return nil
	case RunStatePaused:
		c.state.Store(int32(RunStateRunning))
		select {
		case c.resume <- struct{}{}:
		default:
		}
		return nil
	case RunStateTerminated:
		return ErrTerminated
	default:
		return fmt.Errorf("start requested from unexpected run state %s", c.State())
	}
}

// RequestPause asks the worker to pause at its next generation boundary. At
// most one extra generation may run before the request is honored.
func (c *EvolutionController) RequestPause() {
	if c.State() != RunStateRunning {
		c.logger.Warnf("pause requested while %s; ignored", c.State())
		return
	}
	c.pausePending.Store(true)
}

// RequestPauseAndWait blocks the calling goroutine until the worker
// acknowledges the pause. It must not be called from a goroutine that an
// update or pause listener blocks on, or the two deadlock. When the run is
// not Running it returns immediately.
func (c *EvolutionController) RequestPauseAndWait() {
	c.mu.Lock()
	if c.State() != RunStateRunning {
		c.mu.Unlock()
		c.logger.Warnf("pause-and-wait requested while %s; ignored", c.State())
		return
	}
	waiter := make(chan struct{})
	c.pauseWaiters = append(c.pauseWaiters, waiter)
	c.pausePending.Store(true)
	c.mu.Unlock()

	<-waiter
}

// Reset forces Terminated, drops the worker and releases external resources.
// Safe to call from any state. Terminated is absorbing.
func (c *EvolutionController) Reset() {
	c.mu.Lock()
	if c.State() == RunStateTerminated {
		c.mu.Unlock()
		return
	}
	c.state.Store(int32(RunStateTerminated))
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		c.closeDone.Do(func() { close(c.done) })
	}
	waiters := c.pauseWaiters
	c.pauseWaiters = nil
	c.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
	if closer, ok := c.runner.(RunCloser); ok {
		if err := closer.CloseRun(); err != nil {
			c.logger.Errorf("close run resources: %v", err)
		}
	}
}

// AddUpdateListener registers a progress callback invoked synchronously on
// the worker goroutine. The returned handle removes it.
func (c *EvolutionController) AddUpdateListener(fn func(*EvolutionController)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListenerID++
	c.updateListeners = append(c.updateListeners, listener{id: c.nextListenerID, fn: fn})
	return c.nextListenerID
}

// AddPausedListener registers a callback fired when the worker acknowledges
// a pause.
func (c *EvolutionController) AddPausedListener(fn func(*EvolutionController)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListenerID++
	c.pausedListeners = append(c.pausedListeners, listener{id: c.nextListenerID, fn: fn})
	return c.nextListenerID
}

// RemoveListener drops a listener by handle from either registry.
func (c *EvolutionController) RemoveListener(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateListeners = removeListener(c.updateListeners, id)
	c.pausedListeners = removeListener(c.pausedListeners, id)
}

func removeListener(ls []listener, id int) []listener {
	out := ls[:0]
	for _, l := range ls {
		if l.id != id {
			out = append(out, l)
		}
	}
	return out
}

// loop is the single worker. It is the sole mutator of population, species
// and statistics; state transitions are totally ordered by its sequential
// execution.
func (c *EvolutionController) loop() {
	// Initial progress notification before generation 1.
	c.notifyListeners(c.snapshotListeners(&c.updateListeners))

	for {
		select {
		case <-c.done:
			return
		default:
		}

		if err := c.runner.PerformOneGeneration(c.runCtx); err != nil {
			c.failRun(err)
			return
		}

		generation := c.runner.Generation()
		now := time.Now()
		updated := false
		if c.scheme.due(generation, c.lastFireGeneration, now, c.lastFireTime) {
			c.lastFireGeneration = generation
			c.lastFireTime = now
			c.notifyListeners(c.snapshotListeners(&c.updateListeners))
			updated = true
		}

		if !c.pausePending.Load() && !c.evaluator.StopConditionSatisfied() {
			continue
		}
		c.pausePending.Store(false)

		c.mu.Lock()
		if c.State() == RunStateTerminated {
			c.mu.Unlock()
			return
		}
		c.state.Store(int32(RunStatePaused))
		waiters := c.pauseWaiters
		c.pauseWaiters = nil
		updateLs := append([]listener(nil), c.updateListeners...)
		pausedLs := append([]listener(nil), c.pausedListeners...)
		c.mu.Unlock()

		for _, w := range waiters {
			close(w)
		}
		if po, ok := c.runner.(PauseObserver); ok {
			if err := po.OnPause(); err != nil {
				c.logger.Errorf("pause output: %v", err)
			}
		}
		// A pause delivers one progress notification followed by the pause
		// notification. Skip the progress half when the cadence already fired
		// for this generation, so listeners see it exactly once.
		if !updated {
			c.lastFireGeneration = generation
			c.lastFireTime = time.Now()
			c.notifyListeners(updateLs)
		}
		c.notifyListeners(pausedLs)

		select {
		case <-c.resume:
		case <-c.done:
			return
		}
	}
}

func (c *EvolutionController) failRun(err error) {
	c.mu.Lock()
	alreadyTerminated := c.State() == RunStateTerminated
	if !alreadyTerminated {
		c.err = err
		c.state.Store(int32(RunStateTerminated))
		if c.cancel != nil {
			c.cancel()
		}
		c.closeDone.Do(func() { close(c.done) })
	}
	waiters := c.pauseWaiters
	c.pauseWaiters = nil
	c.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
	if !alreadyTerminated {
		c.logger.Errorf("run terminated: %v", err)
	}
}

func (c *EvolutionController) snapshotListeners(src *[]listener) []listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]listener(nil), *src...)
}

// notifyListeners invokes listeners without holding c.mu. A listener that
// panics is reported and skipped; algorithm correctness never depends on
// listener success.
func (c *EvolutionController) notifyListeners(ls []listener) {
	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Errorf("listener %d failed: %v", l.id, r)
				}
			}()
			l.fn(c)
		}()
	}
}
