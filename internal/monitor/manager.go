// Package monitor keeps exactly one panel per display.
//
// The registry maps connector names to displays that own a panel. It only
// grows: a display that disappears keeps its entry and its panel.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"waybarx/internal/log"
	"waybarx/internal/wm"
)

// DefaultConnector names the single panel spawned when displays cannot be enumerated
const DefaultConnector = "default"

const (
	minWatchRetry = time.Second
	maxWatchRetry = 30 * time.Second
)

// Spawner constructs the panel for one display
type Spawner interface {
	Spawn(display wm.Display) error
}

// SpawnerFunc adapts a function to Spawner
type SpawnerFunc func(display wm.Display) error

func (f SpawnerFunc) Spawn(display wm.Display) error { return f(display) }

type Manager struct {
	source  wm.DisplaySource
	spawner Spawner
	logger  zerolog.Logger

	mu       sync.Mutex
	registry map[string]wm.Display
	// the default panel still stands in for a display nobody enumerated
	fallback bool

	retryMin, retryMax time.Duration
}

func NewManager(source wm.DisplaySource, spawner Spawner) *Manager {
	return &Manager{
		source:   source,
		spawner:  spawner,
		logger:   log.With("monitor"),
		registry: make(map[string]wm.Display),
		retryMin: minWatchRetry,
		retryMax: maxWatchRetry,
	}
}

// Activate performs the initial scan. When displays cannot be enumerated a
// single default panel is spawned instead of failing. The first display a
// later scan reports is adopted by that panel rather than given a second one.
func (m *Manager) Activate(ctx context.Context) error {
	if m.source != nil {
		displays, err := m.source.Displays(ctx)
		if err == nil && len(displays) > 0 {
			_, err = m.spawnMissing(displays)
			return err
		}
		if err != nil {
			m.logger.Warn().Err(err).Msg("display enumeration failed, spawning default panel")
		} else {
			m.logger.Warn().Msg("no displays reported, spawning default panel")
		}
	}
	spawned, err := m.spawnMissing([]wm.Display{{Connector: DefaultConnector}})
	if len(spawned) > 0 && m.source != nil {
		m.mu.Lock()
		m.fallback = true
		m.mu.Unlock()
	}
	return err
}

// Scan spawns panels for displays not yet registered and returns their
// connectors. Already registered displays are left untouched.
func (m *Manager) Scan(ctx context.Context) ([]string, error) {
	if m.source == nil {
		return nil, nil
	}
	displays, err := m.source.Displays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate displays: %w", err)
	}
	return m.spawnMissing(displays)
}

func (m *Manager) spawnMissing(displays []wm.Display) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var spawned []string
	var firstErr error
	for _, d := range displays {
		if d.Connector == "" {
			continue
		}
		if _, ok := m.registry[d.Connector]; ok {
			continue
		}
		if m.fallback {
			m.fallback = false
			m.registry[d.Connector] = d
			m.logger.Info().Str("connector", d.Connector).Msg("default panel adopted by display")
			continue
		}
		// a failed spawn stays unregistered so the next scan retries it
		if err := m.spawner.Spawn(d); err != nil {
			m.logger.Error().Err(err).Str("connector", d.Connector).Msg("failed to spawn panel")
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to spawn panel for %s: %w", d.Connector, err)
			}
			continue
		}
		m.registry[d.Connector] = d
		spawned = append(spawned, d.Connector)
		m.logger.Info().Str("connector", d.Connector).Str("description", d.Description).Msg("panel spawned")
	}
	return spawned, firstErr
}

// Watch rescans on every display change event until ctx is done. A dropped
// event stream is resubscribed with exponential backoff, followed by a scan
// to catch displays that arrived in between.
func (m *Manager) Watch(ctx context.Context) error {
	if m.source == nil {
		<-ctx.Done()
		return nil
	}

	delay := m.retryMin
	for {
		delivered := false
		err := m.source.Watch(ctx, func() {
			delivered = true
			if _, err := m.Scan(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("hot-plug scan failed")
			}
		})
		if ctx.Err() != nil {
			return nil
		}
		if delivered {
			delay = m.retryMin
		}
		m.logger.Warn().Err(err).Dur("retry_in", delay).Msg("display event stream closed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		delay = min(delay*2, m.retryMax)

		if _, err := m.Scan(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("rescan after reconnect failed")
		}
	}
}

// Has reports whether connector owns a panel
func (m *Manager) Has(connector string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registry[connector]
	return ok
}

// Registered returns the registered displays sorted by connector
func (m *Manager) Registered() []wm.Display {
	m.mu.Lock()
	defer m.mu.Unlock()

	displays := make([]wm.Display, 0, len(m.registry))
	for _, d := range m.registry {
		displays = append(displays, d)
	}
	sort.Slice(displays, func(i, j int) bool { return displays[i].Connector < displays[j].Connector })
	return displays
}
