package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits after the last change before
// re-rendering.
const DefaultDebounce = 400 * time.Millisecond

// Watch renders everything once and then re-renders whenever a file under
// the kind directories or {Source}/images changes. Bursts of events are
// collapsed into one render. Watch blocks until ctx is cancelled; render
// failures are logged and do not stop it.
func (r *Renderer) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := r.RenderAll(); err != nil {
		r.logger.Error("initial render failed", zap.Error(err))
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dirs := append(append([]string{}, Kinds...), "images")
	watched := 0
	for _, d := range dirs {
		dir := filepath.Join(r.Source, d)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch under %s", r.Source)
	}
	r.logger.Info("watching content", zap.String("source", r.Source), zap.Duration("debounce", debounce))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			r.logger.Debug("content changed", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if err := r.RenderAll(); err != nil {
				r.logger.Error("render failed", zap.Error(err))
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
