package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelgate/internal/availability"
	"reelgate/internal/catalog"
	"reelgate/internal/config"
	"reelgate/internal/logging"
	"reelgate/internal/match"
	"reelgate/internal/notifications"
	"reelgate/internal/reconcile"
	"reelgate/internal/requests"
	"reelgate/internal/services"
	"reelgate/internal/tmdb"
)

// Daemon coordinates the API server and ingestion sources and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *requests.Store
	catalog    *catalog.Store
	searcher   tmdb.Searcher
	notifier   notifications.Service
	checker    *availability.Checker
	reconciler *reconcile.Reconciler

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	watcher *watchIngest

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	RequestsDBPath string
	CatalogDBPath  string
	LockFilePath   string
	Requests       requests.Stats
	CatalogSize    int64
}

// Option adjusts daemon construction, primarily for tests.
type Option func(*Daemon)

// WithSearcher overrides the TMDB client.
func WithSearcher(searcher tmdb.Searcher) Option {
	return func(d *Daemon) {
		if searcher != nil {
			d.searcher = searcher
		}
	}
}

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(d *Daemon) {
		if notifier != nil {
			d.notifier = notifier
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *requests.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "reelgated.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifications.NewService(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.searcher == nil {
		searcher, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "daemon", "tmdb", "build client", err)
		}
		d.searcher = searcher
	}

	cat, err := catalog.Open(cfg.Paths.CatalogDB)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "catalog", "open store", err)
	}
	d.catalog = cat

	engine := match.NewEngine(cfg.Matching.Threshold, cfg.Matching.YearTolerance)
	d.checker = availability.NewChecker(d.searcher, cat, engine, cfg.Matching.CandidateLimit, logger)
	d.reconciler = reconcile.New(store, d.notifier, cfg.Matching.Threshold,
		cfg.Matching.YearTolerance, cfg.Matching.PendingScanLimit, logger)

	d.api = newAPIServer(cfg, d, logger)
	d.watcher = newWatchIngest(cfg, d, logger)

	return d, nil
}

// Start acquires the daemon lock and launches the API server and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelgate daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx, d.cancel = nil, nil
			return err
		}
	}
	if d.watcher != nil {
		if err := d.watcher.start(d.ctx); err != nil {
			d.api.stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx, d.cancel = nil, nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("reelgate daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelgate daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if d.catalog != nil {
		firstErr = d.catalog.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// APIAddr returns the bound API address, or empty when the API is off.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Ingest runs one announcement through the reconciler.
func (d *Daemon) Ingest(ctx context.Context, text string) (reconcile.Outcome, error) {
	return d.reconciler.HandleAnnouncement(ctx, text)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.UserTopic == "" && d.cfg.Notifications.OperatorTopic == "" {
		return false, "no ntfy topic configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status. Stats failures leave the
// counts zeroed rather than failing the whole status call.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		RequestsDBPath: d.cfg.RequestsDBPath(),
		CatalogDBPath:  d.cfg.Paths.CatalogDB,
		LockFilePath:   d.lockPath,
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Requests = stats
	} else {
		d.logger.Warn("request stats failed", logging.Error(err))
	}
	if count, err := d.catalog.Count(ctx); err == nil {
		status.CatalogSize = count
	} else {
		d.logger.Warn("catalog count failed", logging.Error(err))
	}
	return status
}
