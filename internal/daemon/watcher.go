package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"reelgate/internal/config"
	"reelgate/internal/logging"
	"reelgate/internal/services"
)

// watchIngest turns files appearing in the watch directory into
// announcements. The file name is the announcement text; content is never
// read.
type watchIngest struct {
	dir           string
	handleTimeout time.Duration
	daemon        *Daemon
	logger        *slog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func newWatchIngest(cfg *config.Config, d *Daemon, logger *slog.Logger) *watchIngest {
	dir := strings.TrimSpace(cfg.Ingest.WatchDir)
	if dir == "" {
		return nil
	}
	timeout := time.Duration(cfg.Ingest.HandleTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &watchIngest{
		dir:           dir,
		handleTimeout: timeout,
		daemon:        d,
		logger:        logger,
	}
}

func (w *watchIngest) start(ctx context.Context) error {
	if w == nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.watcher = watcher
	w.done = make(chan struct{})

	go w.run(ctx)
	w.log().Info("watching ingest directory", logging.String(logging.FieldPath, w.dir))
	return nil
}

func (w *watchIngest) stop() {
	if w == nil || w.watcher == nil {
		return
	}
	_ = w.watcher.Close()
	<-w.done
	w.watcher = nil
}

func (w *watchIngest) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			go w.handle(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log().Warn("watcher error", logging.Error(err))
		}
	}
}

func (w *watchIngest) handle(ctx context.Context, path string) {
	start := time.Now()
	handleCtx, cancel := context.WithTimeout(ctx, w.handleTimeout)
	defer cancel()
	handleCtx = services.WithCorrelationID(handleCtx, uuid.NewString())
	handleCtx = services.WithEvent(handleCtx, "ingest")
	logger := logging.WithContext(handleCtx, w.log())

	text := filepath.Base(path)
	outcome, err := w.daemon.Ingest(handleCtx, text)
	if err != nil {
		logger.Error("ingest announcement failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err))
		return
	}
	logger.Info("ingested announcement",
		logging.String(logging.FieldPath, path),
		logging.String("resolution", string(outcome.Path)),
		logging.Int("completed", len(outcome.Completed)),
		logging.Duration("elapsed", time.Since(start)))
}

func (w *watchIngest) log() *slog.Logger {
	return logging.NewComponentLogger(w.logger, "watch-ingest")
}
