// Package settings owns the process-wide user-configuration snapshot: it
// loads the record from the backend at startup, validates configuration
// groups against their live services before persisting, and hands the
// current snapshot to callers that need it for provider selection.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"torrentstream/webclient/internal/api"
	"torrentstream/webclient/internal/domain"
	"torrentstream/webclient/internal/ui"
)

const saveLabel = "Save Settings"

// Backend is the slice of the API client the manager needs.
type Backend interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	TestProxy(ctx context.Context, proxyURL string) (string, error)
	TestProwlarr(ctx context.Context, host, apiKey string) error
	TestJackett(ctx context.Context, host, apiKey string) error
	SaveProxySettings(ctx context.Context, group domain.ProxySettings) error
	SaveProwlarrSettings(ctx context.Context, group domain.ProwlarrSettings) error
	SaveJackettSettings(ctx context.Context, group domain.JackettSettings) error
}

// Controls groups the UI surfaces the manager drives. Any field may be nil
// when the corresponding surface is not rendered.
type Controls struct {
	SaveProxy    *ui.Control
	SaveProwlarr *ui.Control
	SaveJackett  *ui.Control

	ProxySwitch    *ui.Switch
	ProwlarrSwitch *ui.Switch
	JackettSwitch  *ui.Switch

	// SearchRegion is shown whenever at least one provider is enabled.
	SearchRegion *ui.Toggle
}

// Manager holds the single authoritative Settings snapshot. Mutations go
// through the save path only; readers get value copies.
type Manager struct {
	backend  Backend
	notifier ui.Notifier
	sink     ui.EventSink
	logger   *slog.Logger
	controls Controls

	mu      sync.RWMutex
	current domain.Settings
}

func NewManager(backend Backend, notifier ui.Notifier, sink ui.EventSink, controls Controls, logger *slog.Logger) *Manager {
	if sink == nil {
		sink = ui.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:  backend,
		notifier: notifier,
		sink:     sink,
		logger:   logger,
		controls: controls,
	}
}

// Snapshot returns the current settings record by value.
func (m *Manager) Snapshot() domain.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Load fetches the stored settings once and populates the form state from
// them. A failure is logged and leaves the zero-value defaults in place.
func (m *Manager) Load(ctx context.Context) {
	snapshot, err := m.backend.GetSettings(ctx)
	if err != nil {
		m.logger.Warn("settings load failed, keeping defaults", slog.String("error", err.Error()))
		return
	}
	m.mu.Lock()
	m.current = snapshot
	m.mu.Unlock()

	m.sink.Emit("settings", snapshot)
	m.setSwitch(m.controls.ProxySwitch, snapshot.EnableProxy)
	m.setSwitch(m.controls.ProwlarrSwitch, snapshot.EnableProwlarr)
	m.setSwitch(m.controls.JackettSwitch, snapshot.EnableJackett)
	if m.controls.SearchRegion != nil {
		m.controls.SearchRegion.SetVisible(snapshot.SearchEnabled())
	}
	m.logger.Info("settings loaded",
		slog.Bool("proxy", snapshot.EnableProxy),
		slog.Bool("prowlarr", snapshot.EnableProwlarr),
		slog.Bool("jackett", snapshot.EnableJackett))
}

// TestProxy validates the proxy group against the live proxy. It never
// mutates the stored snapshot.
func (m *Manager) TestProxy(ctx context.Context, group domain.ProxySettings) bool {
	if strings.TrimSpace(group.ProxyURL) == "" {
		m.notifier.Error("Proxy URL is required")
		return false
	}
	origin, err := m.backend.TestProxy(ctx, group.ProxyURL)
	if err != nil {
		m.notifier.Error(api.UserMessage(err))
		return false
	}
	m.notifier.Success(fmt.Sprintf("Proxy is working. Origin: %s", origin))
	return true
}

// TestProwlarr validates the primary provider credentials.
func (m *Manager) TestProwlarr(ctx context.Context, group domain.ProwlarrSettings) bool {
	if strings.TrimSpace(group.ProwlarrHost) == "" || strings.TrimSpace(group.ProwlarrAPIKey) == "" {
		m.notifier.Error("Prowlarr host and API key are required")
		return false
	}
	if err := m.backend.TestProwlarr(ctx, group.ProwlarrHost, group.ProwlarrAPIKey); err != nil {
		m.notifier.Error(api.UserMessage(err))
		return false
	}
	m.notifier.Success("Prowlarr connection successful")
	return true
}

// TestJackett validates the secondary provider credentials.
func (m *Manager) TestJackett(ctx context.Context, group domain.JackettSettings) bool {
	if strings.TrimSpace(group.JackettHost) == "" || strings.TrimSpace(group.JackettAPIKey) == "" {
		m.notifier.Error("Jackett host and API key are required")
		return false
	}
	if err := m.backend.TestJackett(ctx, group.JackettHost, group.JackettAPIKey); err != nil {
		m.notifier.Error(api.UserMessage(err))
		return false
	}
	m.notifier.Success("Jackett connection successful")
	return true
}

// SaveProxy persists the proxy group. Enabling the proxy requires a passing
// test first; a failed test aborts the save and nothing is persisted.
func (m *Manager) SaveProxy(ctx context.Context, group domain.ProxySettings) bool {
	m.busy(m.controls.SaveProxy)
	defer m.ready(m.controls.SaveProxy)

	if group.EnableProxy && !m.TestProxy(ctx, group) {
		return false
	}
	if err := m.backend.SaveProxySettings(ctx, group); err != nil {
		m.notifier.Error(api.UserMessage(err))
		return false
	}
	m.mu.Lock()
	m.current = m.current.WithProxy(group)
	m.mu.Unlock()

	m.setSwitch(m.controls.ProxySwitch, group.EnableProxy)
	m.notifier.Success("Proxy settings saved")
	return true
}

// SaveProwlarr persists the primary provider group and recomputes the search
// region visibility from the patched snapshot.
func (m *Manager) SaveProwlarr(ctx context.Context, group domain.ProwlarrSettings) bool {
	m.busy(m.controls.SaveProwlarr)
	defer m.ready(m.controls.SaveProwlarr)

	if group.EnableProwlarr && !m.TestProwlarr(ctx, group) {
		return false
	}
	if err := m.backend.SaveProwlarrSettings(ctx, group); err != nil {
		m.notifier.Error(api.UserMessage(err))
		return false
	}
	m.mu.Lock()
	m.current = m.current.WithProwlarr(group)
	snapshot := m.current
	m.mu.Unlock()

	m.setSwitch(m.controls.ProwlarrSwitch, group.EnableProwlarr)
	m.applySearchVisibility(snapshot)
	m.notifier.Success("Prowlarr settings saved")
	return true
}

// SaveJackett persists the secondary provider group and recomputes the
// search region visibility from the patched snapshot.
func (m *Manager) SaveJackett(ctx context.Context, group domain.JackettSettings) bool {
	m.busy(m.controls.SaveJackett)
	defer m.ready(m.controls.SaveJackett)

	if group.EnableJackett && !m.TestJackett(ctx, group) {
		return false
	}
	if err := m.backend.SaveJackettSettings(ctx, group); err != nil {
		m.notifier.Error(api.UserMessage(err))
		return false
	}
	m.mu.Lock()
	m.current = m.current.WithJackett(group)
	snapshot := m.current
	m.mu.Unlock()

	m.setSwitch(m.controls.JackettSwitch, group.EnableJackett)
	m.applySearchVisibility(snapshot)
	m.notifier.Success("Jackett settings saved")
	return true
}

func (m *Manager) applySearchVisibility(snapshot domain.Settings) {
	if m.controls.SearchRegion != nil {
		m.controls.SearchRegion.SetVisible(snapshot.SearchEnabled())
	}
}

func (m *Manager) setSwitch(s *ui.Switch, on bool) {
	if s != nil {
		s.Set(on)
	}
}

func (m *Manager) busy(c *ui.Control) {
	if c != nil {
		c.SetBusy("")
	}
}

func (m *Manager) ready(c *ui.Control) {
	if c != nil {
		c.SetReady(saveLabel)
	}
}
