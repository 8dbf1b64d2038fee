package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"facet/internal/cameramon"
	"facet/internal/config"
	"facet/internal/inspection"
	"facet/internal/live"
	"facet/internal/logging"
	"facet/internal/server"
	"facet/internal/services/detector"
	"facet/internal/settings"
)

// Daemon owns the facet background services and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store    *inspection.Store
	machine  *live.Machine
	settings *settings.Store
	api      *server.Server
	camera   *cameramon.Monitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status reports daemon runtime information.
type Status struct {
	Running       bool
	APIAddress    string
	DatabasePath  string
	LockFilePath  string
	DetectorURL   string
	CameraPresent bool
}

// New constructs a daemon with initialized dependencies. The caller
// remains responsible for calling Close.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	store, err := inspection.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open inspection store: %w", err)
	}

	det := detector.NewClient(cfg.Detector.BaseURL,
		detector.WithHealthTimeout(time.Duration(cfg.Detector.HealthTimeoutSeconds)*time.Second),
		detector.WithDetectTimeout(time.Duration(cfg.Detector.DetectTimeoutSeconds)*time.Second),
	)
	images := live.NewImageStore(cfg.Paths.ImageDir)
	machine := live.NewMachine(store, det, images, logger)
	settingsStore := settings.NewStore(cfg.SettingsPath())

	api := server.New(cfg, machine, store, settingsStore, logger)
	camera := cameramon.New(cfg, logger)
	if camera != nil {
		api.SetCameraMonitor(camera)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		machine:  machine,
		settings: settingsStore,
		api:      api,
		camera:   camera,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the API server and
// camera monitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another facet daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}
	if err := d.camera.Start(d.ctx); err != nil {
		d.logger.Warn("camera monitor failed to start", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("facet daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.Addr()))
	return nil
}

// Stop shuts down background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.camera.Stop()
	d.api.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("facet daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the API listen address once started.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		APIAddress:    d.api.Addr(),
		DatabasePath:  d.store.Path(),
		LockFilePath:  d.lockPath,
		DetectorURL:   d.cfg.Detector.BaseURL,
		CameraPresent: d.camera.Present(),
	}
}
