package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"arheritage/internal/accounts"
	"arheritage/internal/app"
	"arheritage/internal/config"
	"arheritage/internal/contributions"
	"arheritage/internal/deps"
	"arheritage/internal/device"
	"arheritage/internal/discovery"
	"arheritage/internal/gemini"
	"arheritage/internal/httpapi"
	"arheritage/internal/kvstore"
	"arheritage/internal/logging"
	"arheritage/internal/narration"
	"arheritage/internal/notifications"
	"arheritage/internal/preflight"
	"arheritage/internal/records"
	"arheritage/internal/scan"
)

// Gateway is the AI content service used by scans and discoveries.
type Gateway interface {
	scan.Describer
	discovery.Gateway
}

// Daemon owns the process lifecycle.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *kvstore.SQLite
	records *records.Store
	gateway Gateway
	camera  *device.Camera
	speech  *device.Speech
	hotplug *device.HotplugMonitor
	handler *httpapi.Server

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	api       *apiServer
}

// Status summarizes daemon health for operators.
type Status struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	StartedAt    time.Time     `json:"startedAt,omitzero"`
	StorePath    string        `json:"storePath"`
	LockFilePath string        `json:"lockFilePath"`
	APIAddress   string        `json:"apiAddress,omitempty"`
	Camera       CameraStatus  `json:"camera"`
	Dependencies []deps.Status `json:"dependencies"`
}

// CameraStatus reports the capture device as the daemon sees it.
type CameraStatus struct {
	Device    string `json:"device"`
	Detail    string `json:"detail"`
	Available bool   `json:"available"`
	Stream    string `json:"stream"`
	Hotplug   bool   `json:"hotplug"`
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithGateway replaces the Gemini client.
func WithGateway(gw Gateway) Option {
	return func(d *Daemon) {
		d.gateway = gw
	}
}

// WithCamera replaces the configured camera.
func WithCamera(camera *device.Camera) Option {
	return func(d *Daemon) {
		d.camera = camera
	}
}

// WithSpeech replaces the configured speech engine.
func WithSpeech(speech *device.Speech) Option {
	return func(d *Daemon) {
		d.speech = speech
	}
}

// New constructs the service graph without starting anything.
func New(cfg *config.Config, store *kvstore.SQLite, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.gateway == nil {
		d.gateway = gemini.NewClientFromConfig(cfg.GetGateway())
	}
	if d.camera == nil && cfg.Camera.Device != "" {
		d.camera = device.NewCameraFromConfig(cfg, logger)
	}
	if d.speech == nil && cfg.Speech.Enabled {
		d.speech = device.NewSpeech(cfg, logger)
	}

	d.records = records.New(store, logger)
	accountSvc, err := accounts.NewService(d.records, cfg.Session.Secret,
		time.Duration(cfg.Session.TTLMinutes)*time.Minute, accounts.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}

	var (
		speaker      narration.Speaker
		discoverOpts []discovery.Option
	)
	if d.speech != nil {
		speaker = d.speech
		discoverOpts = append(discoverOpts, discovery.WithSpeaker(d.speech))
	}
	if d.camera != nil && cfg.Camera.WatchHotplug {
		d.hotplug = device.NewHotplugMonitor(cfg.Camera.Device, logger, d.camera.SetAvailable)
	}

	contributionSvc := contributions.NewService(d.records, cfg.Paths.MediaDir, logger,
		contributions.WithNotifier(notifications.NewService(cfg.Notifications)))
	d.handler = httpapi.New(httpapi.Deps{
		Accounts:      accountSvc,
		Settings:      app.NewContext(context.Background(), d.records, logger),
		Records:       d.records,
		Gateway:       d.gateway,
		Discovery:     discovery.NewService(d.gateway, d.records, logger, discoverOpts...),
		Contributions: contributionSvc,
		Camera:        d.camera,
		Speech:        speaker,
		Locator:       device.NewFixedLocator(cfg),
		Status: func(ctx context.Context) any {
			return d.Status(ctx)
		},
	}, logger, httpapi.WithOperatorToken(cfg.Paths.APIToken))

	return d, nil
}

// Start acquires the daemon lock, opens the API listener and begins watching
// for camera hotplug events.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another arheritage daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	api := newAPIServer(d.cfg.Paths.APIBind, d.handler.Handler(), d.logger)
	if err := api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	if d.hotplug != nil {
		if err := d.hotplug.Start(runCtx); err != nil {
			logging.WarnWithContext(d.logger, "camera hotplug monitor unavailable", "hotplug_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "set camera.watch_hotplug = false or run with netlink access"),
				logging.String(logging.FieldImpact, "camera unplug is only noticed on the next capture"),
			)
		}
	}
	if d.speech != nil {
		d.speech.RefreshVoices(runCtx)
	}

	d.api = api
	d.cancel = cancel
	d.running = true
	d.startedAt = time.Now()
	d.logger.Info("arheritage daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", api.addr()),
	)
	return nil
}

// Stop ends open screens, closes the listener and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}

	d.cancel()
	d.api.stop()
	d.hotplug.Stop()
	d.handler.Close()
	if d.camera != nil {
		d.camera.Stop()
	}
	if d.speech != nil {
		d.speech.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}

	d.api = nil
	d.cancel = nil
	d.running = false
	d.startedAt = time.Time{}
	d.logger.Info("arheritage daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and closes the record store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Records exposes the persisted user data.
func (d *Daemon) Records() *records.Store {
	return d.records
}

// APIAddress returns the bound listener address while running.
func (d *Daemon) APIAddress() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.addr()
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status(context.Context) Status {
	d.mu.Lock()
	status := Status{
		Running:      d.running,
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		StorePath:    d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.addr(),
	}
	d.mu.Unlock()

	status.Camera = CameraStatus{
		Device:  d.cfg.Camera.Device,
		Stream:  device.StreamStopped.String(),
		Hotplug: d.hotplug.Running(),
	}
	if d.camera != nil {
		status.Camera.Detail = preflight.ProbeCamera(d.cfg.Camera.Device).CameraDetail()
		status.Camera.Available = d.camera.Available()
		status.Camera.Stream = d.camera.State().String()
	}
	status.Dependencies = preflight.CheckSystemDeps(d.cfg)
	return status
}
