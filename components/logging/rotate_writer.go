package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// intervalRotatingWriter 按 RotateInterval 切换文件.
// 文件名: <base>.log.YYYYMMDD (间隔>=24h) 或 <base>.log.YYYYMMDDHHmmss
type intervalRotatingWriter struct {
	mu        sync.Mutex
	dir       string
	baseName  string
	rotateCfg *RotateConfig

	currentFile *os.File
	openedAt    time.Time
	now         func() time.Time
}

var rotatedFileRegex = regexp.MustCompile(`\.log\.([0-9]{8}|[0-9]{14})$`)

func newIntervalRotatingWriter(dir, baseName string, rc *RotateConfig) (*intervalRotatingWriter, error) {
	if rc == nil || rc.RotateInterval <= 0 {
		return nil, fmt.Errorf("invalid rotate interval: %v", rc)
	}
	w := &intervalRotatingWriter{dir: dir, baseName: baseName, rotateCfg: rc, now: time.Now}
	if err := w.rotateIfNeededLocked(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *intervalRotatingWriter) layout() string {
	if w.rotateCfg.RotateInterval >= 24*time.Hour {
		return "20060102"
	}
	return "20060102150405"
}

func (w *intervalRotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateIfNeededLocked(w.now()); err != nil {
		return 0, err
	}
	return w.currentFile.Write(p)
}

func (w *intervalRotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentFile != nil {
		return w.currentFile.Sync()
	}
	return nil
}

func (w *intervalRotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentFile == nil {
		return nil
	}
	err := w.currentFile.Close()
	w.currentFile = nil
	return err
}

func (w *intervalRotatingWriter) rotateIfNeededLocked(now time.Time) error {
	if w.currentFile != nil {
		if now.Sub(w.openedAt) < w.rotateCfg.RotateInterval {
			return nil
		}
		_ = w.currentFile.Sync()
		_ = w.currentFile.Close()
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s.log.%s", w.baseName, now.Format(w.layout())))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open rotated log file: %w", err)
	}
	w.currentFile = f
	w.openedAt = now

	if w.rotateCfg.CleanupEnabled && w.rotateCfg.MaxAge > 0 {
		w.cleanupOldLocked(now)
	}
	return nil
}

func (w *intervalRotatingWriter) cleanupOldLocked(now time.Time) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff := now.Add(-w.rotateCfg.MaxAge)
	prefix := w.baseName + ".log."
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !rotatedFileRegex.MatchString(name) {
			continue
		}
		stamp := strings.TrimPrefix(name, prefix)
		layout := "20060102"
		if len(stamp) == 14 {
			layout = "20060102150405"
		}
		parsed, err := time.ParseInLocation(layout, stamp, now.Location())
		if err != nil {
			continue
		}
		if parsed.Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}
