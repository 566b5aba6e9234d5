package raug

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/internal/runtime"
	"github.com/pipelined/raug/internal/state"
	"github.com/pipelined/raug/metric"
	"github.com/pipelined/raug/param"
	"github.com/pipelined/raug/signal"
	"github.com/pipelined/raug/wav"
)

// Option configures a Runtime.
type Option func(*Runtime) error

// WithLogger sets the runtime logger.
func WithLogger(l Logger) Option {
	return func(r *Runtime) error {
		r.log = l
		return nil
	}
}

// WithName sets the name used in logs.
func WithName(name string) Option {
	return func(r *Runtime) error {
		r.name = name
		return nil
	}
}

// WithRegisterer registers runtime metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runtime) error {
		m, err := metric.New(reg, r.id)
		if err != nil {
			return fmt.Errorf("error registering metrics: %w", err)
		}
		r.metric = m
		return nil
	}
}

// WithBitDepth sets the bit depth of RunOfflineToFile.
func WithBitDepth(bitDepth signal.BitDepth) Option {
	return func(r *Runtime) error {
		if !bitDepth.Valid() {
			return fmt.Errorf("bit depth %d: %w", bitDepth, wav.ErrUnsupportedBitDepth)
		}
		r.bitDepth = bitDepth
		return nil
	}
}

// Runtime executes a compiled graph. Lifecycle methods are safe for
// concurrent use.
type Runtime struct {
	id       string
	name     string
	graph    *graph.Graph
	plan     *graph.Plan
	engine   *runtime.Engine
	machine  *state.Machine
	log      Logger
	metric   *metric.Metric
	bitDepth signal.BitDepth

	mu      sync.Mutex
	handle  *Handle
	resumec chan struct{}

	paused atomic.Bool
	blocks atomic.Uint64
}

// NewRuntime compiles g and freezes it.
func NewRuntime(g *graph.Graph, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		id:       newUID(),
		graph:    g,
		machine:  state.New(),
		log:      silentLogger{},
		bitDepth: signal.BitDepth16,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	plan, err := graph.Compile(g)
	if err != nil {
		return nil, err
	}
	g.Freeze()
	engine, err := runtime.NewEngine(plan, g.Params())
	if err != nil {
		return nil, err
	}
	if _, err := r.machine.Handle(state.Compile); err != nil {
		return nil, err
	}
	r.plan = plan
	r.engine = engine
	r.log.Debug(fmt.Sprintf("%v compiled %d steps", r, len(plan.Steps)))
	return r, nil
}

// ID returns the unique runtime id.
func (r *Runtime) ID() string {
	return r.id
}

func (r *Runtime) String() string {
	if r.name == "" {
		return r.id
	}
	return fmt.Sprintf("%s %s", r.name, r.id)
}

// Plan returns the compiled plan.
func (r *Runtime) Plan() *graph.Plan {
	return r.plan
}

// SampleRate returns the graph sample rate.
func (r *Runtime) SampleRate() float64 {
	return r.plan.SampleRate
}

// BlockSize returns the graph block size.
func (r *Runtime) BlockSize() int {
	return r.plan.BlockSize
}

// State returns the current lifecycle state.
func (r *Runtime) State() State {
	return r.machine.State()
}

// BlocksProcessed returns the number of blocks processed by the current or
// the last run.
func (r *Runtime) BlocksProcessed() uint64 {
	return r.blocks.Load()
}

// Params returns the parameter store.
func (r *Runtime) Params() *param.Store {
	return r.graph.Params()
}

// ParamNamed returns the parameter with name.
func (r *Runtime) ParamNamed(name string) (*param.Param, error) {
	return r.graph.Params().Named(name)
}

// ParamNames returns parameter names in declaration order.
func (r *Runtime) ParamNames() []string {
	return r.graph.Params().Names()
}

// Run starts processing on a new goroutine until Stop is called or ctx is
// done.
func (r *Runtime) Run(ctx context.Context, sinks ...Sink) (*Handle, error) {
	return r.start(ctx, -1, sinks)
}

// RunFor processes exactly as many blocks as needed to cover d, then
// stops. It blocks until the runtime is stopped.
func (r *Runtime) RunFor(ctx context.Context, d time.Duration, sinks ...Sink) error {
	h, err := r.start(ctx, signal.BlocksIn(d, r.plan.SampleRate, r.plan.BlockSize), sinks)
	if err != nil {
		return err
	}
	return h.Wait()
}

// RunOffline processes the blocks covering d on the calling goroutine.
func (r *Runtime) RunOffline(ctx context.Context, d time.Duration, sinks ...Sink) error {
	h, l, err := r.prepare(signal.BlocksIn(d, r.plan.SampleRate, r.plan.BlockSize), sinks)
	if err != nil {
		return err
	}
	r.run(ctx, h, l)
	return h.err
}

// RunOfflineToFile renders d of audio to a WAV file.
func (r *Runtime) RunOfflineToFile(path string, d time.Duration) error {
	sink, err := wav.NewSink(path, r.bitDepth)
	if err != nil {
		return err
	}
	return r.RunOffline(context.Background(), d, sink)
}

// Stop asks the current run to halt after the in-flight block and returns
// without waiting, so sinks may call it from the block loop. Stopping a
// runtime that is not running is a no-op.
func (r *Runtime) Stop() {
	r.mu.Lock()
	h := r.handle
	r.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// Wait blocks until the current run is done and returns its error. It
// returns nil if the runtime is not running.
func (r *Runtime) Wait() error {
	r.mu.Lock()
	h := r.handle
	r.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Wait()
}

// Pause suspends processing at the next block boundary.
func (r *Runtime) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.machine.Handle(state.Pause); err != nil {
		return err
	}
	r.resumec = make(chan struct{})
	r.paused.Store(true)
	r.log.Debug(fmt.Sprintf("%v paused", r))
	return nil
}

// Resume continues a paused runtime.
func (r *Runtime) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.machine.Handle(state.Resume); err != nil {
		return err
	}
	r.wake()
	r.log.Debug(fmt.Sprintf("%v resumed", r))
	return nil
}

// wake releases a paused block loop. Must be called with mu held.
func (r *Runtime) wake() {
	r.paused.Store(false)
	if r.resumec != nil {
		close(r.resumec)
		r.resumec = nil
	}
}

func (r *Runtime) start(ctx context.Context, limit int64, sinks []Sink) (*Handle, error) {
	h, l, err := r.prepare(limit, sinks)
	if err != nil {
		return nil, err
	}
	go r.run(ctx, h, l)
	return h, nil
}

// prepare moves the runtime to running and creates the block loop.
func (r *Runtime) prepare(limit int64, sinks []Sink) (*Handle, *blockLoop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.machine.Handle(state.Run); err != nil {
		return nil, nil, err
	}
	r.paused.Store(false)
	r.blocks.Store(0)
	h := &Handle{r: r, done: make(chan struct{})}
	r.handle = h
	l := &blockLoop{
		r:      r,
		h:      h,
		sinks:  sinks,
		limit:  limit,
		budget: signal.DurationOf(r.plan.SampleRate, int64(r.plan.BlockSize)),
	}
	return h, l, nil
}

func (r *Runtime) run(ctx context.Context, h *Handle, l *blockLoop) {
	r.log.Info(fmt.Sprintf("%v started", r))
	err := runtime.Run(ctx, l)

	r.mu.Lock()
	if _, serr := r.machine.Handle(state.Stop); serr != nil {
		r.log.Warn(fmt.Sprintf("%v: %v", r, serr))
	}
	r.wake()
	if r.handle == h {
		r.handle = nil
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Error(fmt.Sprintf("%v stopped: %v", r, err))
	} else {
		r.log.Info(fmt.Sprintf("%v stopped after %d blocks", r, r.blocks.Load()))
	}
	h.err = err
	close(h.done)
}

// waitResume blocks a paused loop. It returns false if the loop should
// stop.
func (r *Runtime) waitResume(ctx context.Context, h *Handle) bool {
	r.mu.Lock()
	c := r.resumec
	r.mu.Unlock()
	if c != nil {
		select {
		case <-c:
		case <-ctx.Done():
			return false
		}
	}
	return !h.stopping.Load()
}

// Handle controls a started run. Its methods only ever affect that run,
// even after the runtime was started again.
type Handle struct {
	r        *Runtime
	done     chan struct{}
	err      error
	stopping atomic.Bool
}

// Cancel asks the run to finish after the in-flight block. It doesn't
// wait and is safe to call from sinks.
func (h *Handle) Cancel() {
	h.stopping.Store(true)
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	if h.r.handle == h {
		h.r.wake()
	}
}

// Stop halts the run after the in-flight block and returns its error. It
// must not be called from the block loop, use Cancel there.
func (h *Handle) Stop() error {
	select {
	case <-h.done:
		return h.err
	default:
	}
	h.Cancel()
	return h.Wait()
}

// Wait blocks until the run is done and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done is closed when the run is done.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// blockLoop is the executor of a single run.
type blockLoop struct {
	r         *Runtime
	h         *Handle
	sinks     []Sink
	fns       []func(signal.Float64) error
	limit     int64
	done      int64
	budget    time.Duration
	nonFinite uint64
}

// Start resets the engine and allocates sinks. Sinks allocated before a
// failure are flushed.
func (l *blockLoop) Start(ctx context.Context) error {
	l.r.engine.Reset()
	sampleRate := int(math.Round(l.r.plan.SampleRate))
	for i, s := range l.sinks {
		fn, err := s.Sink(l.r.id, sampleRate, l.r.plan.Channels, l.r.plan.BlockSize)
		if err != nil {
			l.sinks = l.sinks[:i]
			errs := runtime.Errors{fmt.Errorf("error allocating sink: %w", err)}
			if err := l.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
			return errs.Ret()
		}
		l.fns = append(l.fns, fn)
	}
	return nil
}

// Execute processes one block and passes it to every sink.
func (l *blockLoop) Execute(ctx context.Context) error {
	if l.limit >= 0 && l.done >= l.limit {
		return io.EOF
	}
	if l.h.stopping.Load() {
		return io.EOF
	}
	select {
	case <-ctx.Done():
		return io.EOF
	default:
	}
	if l.r.paused.Load() && !l.r.waitResume(ctx, l.h) {
		return io.EOF
	}

	began := time.Now()
	out := l.r.engine.ProcessBlock()
	l.r.metric.Measure(l.r.plan.BlockSize, time.Since(began), l.budget)
	if nf := l.r.engine.NonFinite(); nf != l.nonFinite {
		l.r.metric.NonFinite(nf - l.nonFinite)
		l.nonFinite = nf
	}
	for _, fn := range l.fns {
		if err := fn(out); err != nil {
			return fmt.Errorf("error sinking block %d: %w", l.done, err)
		}
	}
	l.done++
	l.r.blocks.Add(1)
	return nil
}

// Flush flushes every allocated sink.
func (l *blockLoop) Flush(context.Context) error {
	var errs runtime.Errors
	for _, s := range l.sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(l.r.id); err != nil {
				errs = append(errs, fmt.Errorf("error flushing sink: %w", err))
			}
		}
	}
	if d := l.r.engine.Dropped(); d > 0 {
		l.r.log.Warn(fmt.Sprintf("%v dropped %d messages", l.r, d))
	}
	return errs.Ret()
}
