package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
)

// ScheduledTask is the handle of a fixed-rate task.
type ScheduledTask struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	runs   atomic.Int64
	mu     sync.Mutex
	err    error
}

// Cancel stops future executions. A run in progress sees its context cancelled.
func (s *ScheduledTask) Cancel() { s.cancel() }

// Done is closed when the schedule has ended: cancelled, executor shut down,
// or an execution failed.
func (s *ScheduledTask) Done() <-chan struct{} { return s.done }

// Err returns the failure that ended the schedule, nil otherwise.
func (s *ScheduledTask) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Runs counts completed executions.
func (s *ScheduledTask) Runs() int64 { return s.runs.Load() }

func (s *ScheduledTask) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// ScheduleAtFixedRate runs fn on the pool first after initialDelay and then
// every period. Executions of one task never overlap: a run that overruns the
// period delays the next one instead of queueing a backlog. The first error or
// panic is logged and ends the schedule.
func (e *Executor) ScheduleAtFixedRate(name string, initialDelay, period time.Duration, fn func(ctx context.Context) error) (*ScheduledTask, error) {
	if period <= 0 {
		return nil, errInvalidPeriod(period)
	}
	if fn == nil {
		return nil, errNilTask
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != stateRunning {
		e.metrics.rejected(kindPeriodic)
		return nil, ErrRejected
	}
	ctx, cancel := context.WithCancel(e.loopCtx)
	st := &ScheduledTask{name: name, cancel: cancel, done: make(chan struct{})}
	e.schedWG.Add(1)
	go e.runSchedule(ctx, st, initialDelay, period, fn)
	return st, nil
}

func (e *Executor) runSchedule(ctx context.Context, st *ScheduledTask, initialDelay, period time.Duration, fn func(ctx context.Context) error) {
	defer e.schedWG.Done()
	defer close(st.done)
	defer st.cancel()

	if initialDelay > 0 {
		timer := time.NewTimer(initialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		result := make(chan error, 1)
		j := &job{
			ctx:  ctx,
			kind: kindPeriodic,
			run: func(ctx context.Context) {
				result <- e.guard(ctx, st.name, kindPeriodic, fn)
			},
			skip: func(err error) { result <- err },
		}
		if err := e.enqueueWait(ctx, j); err != nil {
			if ctx.Err() == nil {
				st.fail(err)
			}
			return
		}
		// wait for this run even when cancelled so runs never overlap
		err := <-result
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			st.fail(err)
			logging.Warn(ctx, "scheduled task stopped after failure", zap.String("task", st.name), zap.Int64("runs", st.runs.Load()))
			return
		}
		st.runs.Add(1)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
