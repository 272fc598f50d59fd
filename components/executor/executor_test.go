package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/components/prometheus"
)

func startExecutor(t *testing.T, cfg *Config) *Executor {
	t.Helper()
	cfg.Enabled = true
	e := New(cfg)
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Stop(context.Background()) })
	return e
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	l := logging.NewZapBacked(zap.New(core))
	logging.SetGlobalLogger(l)
	t.Cleanup(func() { logging.ResetGlobalLogger(l) })
	return logs
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmit(t *testing.T) {
	e := startExecutor(t, &Config{PoolSize: 2})
	f, err := Submit(e, func(ctx context.Context) (int, error) { return 42, nil })
	if err != nil {
		t.Fatal(err)
	}
	v, err := f.Get(waitCtx(t))
	if err != nil || v != 42 {
		t.Errorf("Get() = %d, %v, want 42", v, err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done() should be closed after Get returned")
	}
}

func TestSubmit_ErrorIsLoggedAndReturned(t *testing.T) {
	logs := observeLogs(t)
	e := startExecutor(t, &Config{PoolSize: 1})
	boom := errors.New("boom")
	f, err := Submit(e, func(ctx context.Context) (string, error) { return "", boom })
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Get(waitCtx(t)); !errors.Is(err, boom) {
		t.Fatalf("Get() err = %v, want boom", err)
	}
	if n := logs.FilterMessage("background task failed").Len(); n != 1 {
		t.Errorf("logged %d failures, want 1", n)
	}
}

func TestSubmit_Panic(t *testing.T) {
	logs := observeLogs(t)
	e := startExecutor(t, &Config{PoolSize: 1})
	f, err := e.Go(func(ctx context.Context) error { panic("kaboom") })
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Get(waitCtx(t))
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Get() err = %v, want *PanicError", err)
	}
	if pe.Value != "kaboom" || !strings.Contains(string(pe.Stack), "executor_test.go") {
		t.Errorf("PanicError = %v, stack missing test frame", pe.Value)
	}
	entries := logs.FilterMessage("background task failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d failures, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["stack"]; !ok {
		t.Error("panic log should carry the stack")
	}

	// the worker survives the panic
	g, _ := Submit(e, func(ctx context.Context) (int, error) { return 1, nil })
	if v, err := g.Get(waitCtx(t)); err != nil || v != 1 {
		t.Errorf("pool unusable after panic: %d, %v", v, err)
	}
}

func TestSubmit_Rejected(t *testing.T) {
	e := New(&Config{Enabled: true})
	if _, err := e.Go(func(context.Context) error { return nil }); !errors.Is(err, ErrRejected) {
		t.Errorf("submit before Start err = %v, want ErrRejected", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Go(func(context.Context) error { return nil }); !errors.Is(err, ErrRejected) {
		t.Errorf("submit after Shutdown err = %v, want ErrRejected", err)
	}
	if _, err := e.ScheduleAtFixedRate("late", 0, time.Second, func(context.Context) error { return nil }); !errors.Is(err, ErrRejected) {
		t.Errorf("schedule after Shutdown err = %v, want ErrRejected", err)
	}
	if !e.IsShutdown() {
		t.Error("IsShutdown() = false")
	}
	e.Shutdown() // idempotent
}

func TestSubmit_QueueFull(t *testing.T) {
	e := startExecutor(t, &Config{PoolSize: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	if _, err := e.Go(func(context.Context) error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	<-started
	if _, err := e.Go(func(context.Context) error { return nil }); err != nil {
		t.Fatalf("queue should hold one task: %v", err)
	}
	if _, err := e.Go(func(context.Context) error { return nil }); !errors.Is(err, ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
	close(release)
}

func TestFuture_CancelBeforeStart(t *testing.T) {
	e := startExecutor(t, &Config{PoolSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	_, _ = e.Go(func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	var ran atomic.Bool
	f, err := e.Go(func(context.Context) error {
		ran.Store(true)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	f.Cancel()
	close(release)
	if _, err := f.Get(waitCtx(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() err = %v, want context.Canceled", err)
	}
	if ran.Load() {
		t.Error("cancelled task should not run")
	}
}

func TestShutdown_DrainsQueuedTasks(t *testing.T) {
	e := New(&Config{Enabled: true, PoolSize: 1})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	var done atomic.Int32
	for range 5 {
		if _, err := e.Go(func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			done.Add(1)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	e.Shutdown()
	if err := e.AwaitTermination(waitCtx(t)); err != nil {
		t.Fatal(err)
	}
	if done.Load() != 5 {
		t.Errorf("completed %d tasks, want 5", done.Load())
	}
}

func TestAwaitTermination_Timeout(t *testing.T) {
	e := New(&Config{Enabled: true, PoolSize: 1, AwaitTimeout: 20 * time.Millisecond})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	defer close(release)
	_, _ = e.Go(func(context.Context) error {
		<-release
		return nil
	})
	if err := e.Stop(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() err = %v, want DeadlineExceeded", err)
	}
}

func TestScheduleAtFixedRate(t *testing.T) {
	e := startExecutor(t, &Config{PoolSize: 4})
	var running, overlapped atomic.Int32
	var mu sync.Mutex
	var starts []time.Time

	st, err := e.ScheduleAtFixedRate("tick", 5*time.Millisecond, 10*time.Millisecond, func(ctx context.Context) error {
		if running.Add(1) > 1 {
			overlapped.Add(1)
		}
		defer running.Add(-1)
		mu.Lock()
		starts = append(starts, time.Now())
		n := len(starts)
		mu.Unlock()
		if n == 2 {
			// overrun the period
			time.Sleep(35 * time.Millisecond)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for st.Runs() < 5 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs", st.Runs())
		case <-time.After(time.Millisecond):
		}
	}
	st.Cancel()
	select {
	case <-st.Done():
	case <-deadline:
		t.Fatal("schedule did not end after Cancel")
	}
	if overlapped.Load() != 0 {
		t.Errorf("%d overlapping executions", overlapped.Load())
	}
	if st.Err() != nil {
		t.Errorf("Err() = %v after Cancel", st.Err())
	}
	mu.Lock()
	defer mu.Unlock()
	if gap := starts[2].Sub(starts[1]); gap < 35*time.Millisecond {
		t.Errorf("run after an overrun started %s after the previous one", gap)
	}
}

func TestScheduleAtFixedRate_StopsOnError(t *testing.T) {
	logs := observeLogs(t)
	e := startExecutor(t, &Config{PoolSize: 1})
	var calls atomic.Int32
	boom := errors.New("boom")
	st, err := e.ScheduleAtFixedRate("flaky", 0, time.Millisecond, func(context.Context) error {
		if calls.Add(1) == 3 {
			return boom
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-st.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("schedule kept running after an error")
	}
	if !errors.Is(st.Err(), boom) {
		t.Errorf("Err() = %v, want boom", st.Err())
	}
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != 3 || st.Runs() != 2 {
		t.Errorf("calls = %d runs = %d, want 3 and 2", calls.Load(), st.Runs())
	}
	if logs.FilterMessage("background task failed").Len() != 1 {
		t.Error("failure should be logged once")
	}
}

func TestScheduleAtFixedRate_EndsOnShutdown(t *testing.T) {
	e := New(&Config{Enabled: true, PoolSize: 1})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	st, err := e.ScheduleAtFixedRate("idle", time.Hour, time.Hour, func(context.Context) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.ScheduleAtFixedRate("bad", 0, 0, func(context.Context) error { return nil }); err == nil {
		t.Error("zero period should fail")
	}
	if err := e.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-st.Done():
	default:
		t.Error("schedule should be done after Stop")
	}
	if st.Err() != nil || st.Runs() != 0 {
		t.Errorf("Err() = %v Runs() = %d", st.Err(), st.Runs())
	}
}

func TestMetrics(t *testing.T) {
	off := false
	pc := prometheus.NewComponent(&prometheus.Config{Enabled: true, Path: "/metrics", CollectGoMetrics: &off, CollectProcess: &off})
	if err := pc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pc.Stop(context.Background()) })

	e := startExecutor(t, &Config{PoolSize: 1})
	f, _ := e.Go(func(context.Context) error { return errors.New("x") })
	_, _ = f.Get(waitCtx(t))
	e.Shutdown()
	_, _ = e.Go(func(context.Context) error { return nil })

	submitted, failed, rejected := e.metrics.submittedTotal, e.metrics.failedTotal, e.metrics.rejectedTotal
	if submitted == nil {
		t.Fatal("metrics not wired to the prometheus component")
	}
	if testutil.ToFloat64(submitted.WithLabelValues(kindOnce)) != 1 ||
		testutil.ToFloat64(failed.WithLabelValues(kindOnce)) != 1 ||
		testutil.ToFloat64(rejected.WithLabelValues(kindOnce)) != 1 {
		t.Errorf("unexpected counters submitted=%v failed=%v rejected=%v",
			testutil.ToFloat64(submitted.WithLabelValues(kindOnce)),
			testutil.ToFloat64(failed.WithLabelValues(kindOnce)),
			testutil.ToFloat64(rejected.WithLabelValues(kindOnce)))
	}
}
