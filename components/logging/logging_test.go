package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGlobalHelpersAttachTraceID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	lc := NewZapBacked(zap.New(core))
	SetGlobalLogger(lc)
	defer ResetGlobalLogger(lc)

	ctx := ContextWithTraceID(context.Background(), "trace-1")
	Infof(ctx, "fetched %d rows", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "fetched 3 rows" {
		t.Fatalf("message = %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["trace_id"]; got != "trace-1" {
		t.Fatalf("trace_id = %v", got)
	}
}

func TestEnsureTraceIDKeepsExisting(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc")
	if got := TraceIDFromContext(EnsureTraceID(ctx)); got != "abc" {
		t.Fatalf("trace id replaced: %q", got)
	}
	if got := TraceIDFromContext(EnsureTraceID(context.Background())); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestNoopBeforeStart(t *testing.T) {
	if _, ok := L().(*noopLogger); !ok {
		t.Skip("global logger already installed by another test")
	}
	Info(context.Background(), "dropped")
}

func TestFactoryDefaultsAndValidation(t *testing.T) {
	f := NewFactory()
	cfg := &LoggingConfig{Enabled: true, Output: "file"}
	comp, err := f.Create(cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if comp.Name() != "logging" || cfg.Level != "info" || cfg.Format != "json" || cfg.FileConfig == nil {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, err := f.Create(&LoggingConfig{Enabled: true, Level: "chatty"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := f.Create(&LoggingConfig{Enabled: false}); err == nil {
		t.Fatalf("expected disabled error")
	}
}

func TestComponentWritesToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &LoggingConfig{Enabled: true, Level: "debug", Format: "json", Output: "file",
		FileConfig: &FileConfig{Dir: dir, Filename: "vok"}}
	lc := NewLoggerComponent(cfg)
	ctx := context.Background()
	if err := lc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	lc.Debug(ctx, "hello file")
	if err := lc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "vok.log"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("log file is empty")
	}
}

func TestIntervalRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	w, err := newIntervalRotatingWriter(dir, "app", &RotateConfig{Enabled: true, RotateInterval: time.Minute})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()
	w.now = func() time.Time { return clock }
	// reopen deterministically with the fake clock
	w.mu.Lock()
	w.openedAt = time.Time{}
	w.mu.Unlock()

	if _, err := w.Write([]byte("a\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = base.Add(2 * time.Minute)
	if _, err := w.Write([]byte("b\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, name := range []string{"app.log.20240501100000", "app.log.20240501100200"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}
