package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

const tracerName = "github.com/cansoftinc/vaadin-on-kotlin/components/executor"

var errNilTask = errors.New("executor: nil task")

func errInvalidPeriod(d time.Duration) error {
	return fmt.Errorf("executor: period must be positive, got %s", d)
}

type state int

const (
	stateNew state = iota
	stateRunning
	stateShutdown
)

type job struct {
	ctx  context.Context
	kind string
	run  func(ctx context.Context)
	// skip completes a job whose context ended before a worker picked it up
	skip func(err error)
}

// Executor is a fixed-size worker pool fed by a bounded queue. One-shot tasks
// go through Submit, recurring ones through ScheduleAtFixedRate. Every task runs
// under a guard that logs failures and recovered panics before handing them
// back to the caller.
type Executor struct {
	*core.BaseComponent
	cfg *Config

	mu      sync.RWMutex // guards state and sends on queue
	state   state
	queue   chan *job
	loopCtx context.Context
	cancel  context.CancelFunc

	workers sync.WaitGroup
	schedWG sync.WaitGroup

	metrics *metrics
	tracer  trace.Tracer
}

func New(cfg *Config) *Executor {
	setDefaults(cfg)
	return &Executor{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_EXECUTOR, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		queue:         make(chan *job, cfg.QueueSize),
		metrics:       &metrics{},
		tracer:        otel.Tracer(tracerName),
	}
}

// Start implements core.Component
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateNew {
		return fmt.Errorf("executor already started")
	}
	if err := e.BaseComponent.Start(ctx); err != nil {
		return err
	}
	e.metrics = newMetrics()
	// lifecycle 传入的 ctx 在 Start 返回后会被取消, 长期运行的 goroutine 使用独立的 context
	e.loopCtx, e.cancel = context.WithCancel(context.Background())
	for i := 0; i < e.cfg.PoolSize; i++ {
		e.workers.Add(1)
		go e.worker()
	}
	e.state = stateRunning
	logging.Info(ctx, "executor started", zap.Int("pool_size", e.cfg.PoolSize), zap.Int("queue_size", e.cfg.QueueSize))
	return nil
}

// Stop shuts the executor down and waits up to await_timeout for running tasks.
func (e *Executor) Stop(ctx context.Context) error {
	defer func() { _ = e.BaseComponent.Stop(ctx) }()
	e.Shutdown()
	awaitCtx, cancel := context.WithTimeout(ctx, e.cfg.AwaitTimeout)
	defer cancel()
	if err := e.AwaitTermination(awaitCtx); err != nil {
		logging.Warn(ctx, "executor tasks still running after await timeout", zap.Duration("await_timeout", e.cfg.AwaitTimeout))
		return fmt.Errorf("executor await termination: %w", err)
	}
	logging.Info(ctx, "executor stopped")
	return nil
}

func (e *Executor) HealthCheck() error {
	if err := e.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if e.IsShutdown() {
		return fmt.Errorf("executor is shut down")
	}
	return nil
}

// Shutdown stops intake and cancels every fixed-rate schedule. Queued one-shot
// tasks still run. It is safe to call more than once.
func (e *Executor) Shutdown() {
	e.mu.RLock()
	running := e.state == stateRunning
	cancel := e.cancel
	e.mu.RUnlock()
	if cancel != nil {
		// 先取消调度, 让阻塞在 enqueueWait 里的调度循环释放读锁
		cancel()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateShutdown {
		return
	}
	if running {
		close(e.queue)
	}
	e.state = stateShutdown
}

// IsShutdown reports whether Shutdown has been called.
func (e *Executor) IsShutdown() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == stateShutdown
}

// AwaitTermination blocks until every worker and schedule has exited after
// Shutdown, or ctx is done.
func (e *Executor) AwaitTermination(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.schedWG.Wait()
		e.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit runs fn once on the pool. It fails with ErrRejected when the executor
// is not running or its queue is full.
func Submit[T any](e *Executor, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, errNilTask
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := newFuture[T](cancel)
	j := &job{
		ctx:  ctx,
		kind: kindOnce,
		run: func(ctx context.Context) {
			var v T
			err := e.guard(ctx, "submit", kindOnce, func(ctx context.Context) error {
				var err error
				v, err = fn(ctx)
				return err
			})
			f.complete(v, err)
		},
		skip: func(err error) {
			var zero T
			f.complete(zero, err)
		},
	}
	if err := e.enqueue(j); err != nil {
		cancel()
		return nil, err
	}
	return f, nil
}

// Go is Submit for tasks without a result.
func (e *Executor) Go(fn func(ctx context.Context) error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, errNilTask
	}
	return Submit(e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

func (e *Executor) enqueue(j *job) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != stateRunning {
		e.metrics.rejected(j.kind)
		return ErrRejected
	}
	select {
	case e.queue <- j:
		e.metrics.submitted(j.kind)
		return nil
	default:
		e.metrics.rejected(j.kind)
		return fmt.Errorf("%w: queue full (%d)", ErrRejected, cap(e.queue))
	}
}

// enqueueWait blocks while the queue is full. ctx must be derived from loopCtx
// so that Shutdown can interrupt it.
func (e *Executor) enqueueWait(ctx context.Context, j *job) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != stateRunning {
		e.metrics.rejected(j.kind)
		return ErrRejected
	}
	select {
	case e.queue <- j:
		e.metrics.submitted(j.kind)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) worker() {
	defer e.workers.Done()
	for j := range e.queue {
		if err := j.ctx.Err(); err != nil {
			j.skip(err)
			continue
		}
		j.run(j.ctx)
	}
}

// guard runs fn, turning a panic into *PanicError. Failures are logged with
// the full error before being returned.
func (e *Executor) guard(ctx context.Context, name, kind string, fn func(ctx context.Context) error) (err error) {
	ctx = logging.EnsureTraceID(ctx)
	ctx, span := e.tracer.Start(ctx, "executor."+kind, trace.WithAttributes(attribute.String("executor.task", name)))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.metrics.failed(kind)
			fields := []zap.Field{zap.String("task", name), zap.String("kind", kind), zap.Duration("elapsed", time.Since(start)), zap.Error(err)}
			var pe *PanicError
			if errors.As(err, &pe) {
				fields = append(fields, zap.ByteString("stack", pe.Stack))
			}
			logging.Error(ctx, "background task failed", fields...)
		}
		span.End()
	}()
	return fn(ctx)
}
