package cameramon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"facet/internal/config"
	"facet/internal/logging"
)

// Monitor listens for udev netlink events on the configured camera
// subsystem and tracks whether a capture device is currently attached.
type Monitor struct {
	subsystem string
	logger    *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
	present bool
	device  string
}

// New creates a camera monitor from the daemon configuration. Returns
// nil when camera monitoring is disabled, which callers treat as "no
// hardware signal available".
func New(cfg *config.Config, logger *slog.Logger) *Monitor {
	if cfg == nil || !cfg.Camera.Enabled {
		return nil
	}

	subsystem := strings.TrimSpace(cfg.Camera.Subsystem)
	if subsystem == "" {
		return nil
	}

	return &Monitor{
		subsystem: subsystem,
		logger:    logging.NewComponentLogger(logger, "camera-monitor"),
	}
}

// Start connects to the udev netlink socket and begins tracking camera
// presence. A connection failure is non-fatal; the daemon keeps running
// and simply reports no hardware signal.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; camera presence unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("camera monitor started",
		logging.String(logging.FieldEventType, "camera_monitor_started"),
		logging.String("subsystem", m.subsystem),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("camera monitor stopped",
		logging.String(logging.FieldEventType, "camera_monitor_stopped"))
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Present reports whether a camera device is currently attached.
func (m *Monitor) Present() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"))
		}
	}
}

// buildMatcher matches add and remove events on the camera subsystem.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": m.subsystem,
		},
	})
	return rules
}

func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	devname := deviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj))
		return
	}

	switch uevent.Action {
	case netlink.ADD:
		m.setPresence(true, devname)
	case netlink.REMOVE:
		m.setPresence(false, devname)
	}
}

func (m *Monitor) setPresence(present bool, devname string) {
	m.mu.Lock()
	changed := m.present != present
	m.present = present
	if present {
		m.device = devname
	} else {
		m.device = ""
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if present {
		m.logger.Info("camera attached",
			logging.String(logging.FieldEventType, "camera_attached"),
			logging.String("device", devname))
	} else {
		m.logger.Info("camera detached",
			logging.String(logging.FieldEventType, "camera_detached"),
			logging.String("device", devname))
	}
}

func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
