package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waybarx/internal/wm"
)

type fakeSource struct {
	mu       sync.Mutex
	displays []wm.Display
	err      error
	changes  chan struct{}
}

func (f *fakeSource) set(connectors ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displays = nil
	for _, c := range connectors {
		f.displays = append(f.displays, wm.Display{Connector: c})
	}
}

func (f *fakeSource) Displays(ctx context.Context) ([]wm.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wm.Display(nil), f.displays...), f.err
}

func (f *fakeSource) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-f.changes:
			onChange()
		case <-ctx.Done():
			return nil
		}
	}
}

type recordingSpawner struct {
	mu      sync.Mutex
	spawned []string
	fail    map[string]error
}

func (r *recordingSpawner) Spawn(d wm.Display) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[d.Connector]; err != nil {
		return err
	}
	r.spawned = append(r.spawned, d.Connector)
	return nil
}

func (r *recordingSpawner) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spawned...)
}

func connectors(displays []wm.Display) []string {
	out := make([]string, 0, len(displays))
	for _, d := range displays {
		out = append(out, d.Connector)
	}
	return out
}

func TestActivateSpawnsOnePanelPerDisplay(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1", "DP-2", "eDP-1")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)

	require.NoError(t, m.Activate(context.Background()))

	assert.Equal(t, []string{"HDMI-1", "DP-2", "eDP-1"}, spawner.list())
	assert.Equal(t, []string{"DP-2", "HDMI-1", "eDP-1"}, connectors(m.Registered()))
}

func TestActivateFallsBackToDefaultPanel(t *testing.T) {
	tests := []struct {
		name   string
		source wm.DisplaySource
	}{
		{name: "enumeration error", source: &fakeSource{err: errors.New("no compositor")}},
		{name: "no displays", source: &fakeSource{}},
		{name: "no source", source: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spawner := &recordingSpawner{}
			m := NewManager(tt.source, spawner)

			require.NoError(t, m.Activate(context.Background()))
			assert.Equal(t, []string{DefaultConnector}, spawner.list())
			assert.True(t, m.Has(DefaultConnector))
		})
	}
}

func TestLateDisplaysAdoptDefaultPanel(t *testing.T) {
	source := &fakeSource{err: errors.New("socket not ready")}
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)
	ctx := context.Background()

	require.NoError(t, m.Activate(ctx))
	require.Equal(t, []string{DefaultConnector}, spawner.list())

	source.mu.Lock()
	source.err = nil
	source.mu.Unlock()
	source.set("eDP-1", "HDMI-1")

	spawned, err := m.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HDMI-1"}, spawned)
	assert.Equal(t, []string{DefaultConnector, "HDMI-1"}, spawner.list())
	assert.True(t, m.Has("eDP-1"))
	assert.Equal(t, []string{"HDMI-1", DefaultConnector, "eDP-1"}, connectors(m.Registered()))

	source.set("eDP-1", "HDMI-1", "DP-3")
	spawned, err = m.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DP-3"}, spawned)
}

func TestAdoptionOnlyFollowsFallback(t *testing.T) {
	source := &fakeSource{}
	source.set("eDP-1")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)
	ctx := context.Background()

	require.NoError(t, m.Activate(ctx))
	source.set("eDP-1", "HDMI-1")
	_, err := m.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"eDP-1", "HDMI-1"}, spawner.list())
}

func TestScanIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1", "DP-2")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)
	require.NoError(t, m.Activate(context.Background()))

	spawned, err := m.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, spawned)

	spawned, err = m.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, spawned)
	assert.Len(t, spawner.list(), 2)
}

func TestScanHotPlugArrival(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)
	require.NoError(t, m.Activate(context.Background()))

	source.set("HDMI-1", "DP-2")
	spawned, err := m.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"DP-2"}, spawned)
	assert.Equal(t, []string{"HDMI-1", "DP-2"}, spawner.list())
	assert.Equal(t, []string{"DP-2", "HDMI-1"}, connectors(m.Registered()))
}

func TestScanKeepsRemovedDisplays(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1", "DP-2")
	m := NewManager(source, &recordingSpawner{})
	require.NoError(t, m.Activate(context.Background()))

	source.set("HDMI-1")
	_, err := m.Scan(context.Background())
	require.NoError(t, err)

	assert.True(t, m.Has("DP-2"))
	assert.Len(t, m.Registered(), 2)
}

func TestScanEnumerationError(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1")
	m := NewManager(source, &recordingSpawner{})
	require.NoError(t, m.Activate(context.Background()))

	source.mu.Lock()
	source.err = errors.New("socket closed")
	source.mu.Unlock()

	_, err := m.Scan(context.Background())
	assert.ErrorContains(t, err, "failed to enumerate displays")
	assert.Len(t, m.Registered(), 1)
}

func TestFailedSpawnIsRetried(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1", "DP-2")
	spawner := &recordingSpawner{fail: map[string]error{"DP-2": errors.New("shell missing")}}
	m := NewManager(source, spawner)

	err := m.Activate(context.Background())
	assert.ErrorContains(t, err, "DP-2")
	assert.False(t, m.Has("DP-2"))
	assert.True(t, m.Has("HDMI-1"))

	spawner.mu.Lock()
	spawner.fail = nil
	spawner.mu.Unlock()

	spawned, err := m.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DP-2"}, spawned)
}

func TestScanSkipsEmptyConnector(t *testing.T) {
	source := &fakeSource{displays: []wm.Display{{Connector: ""}, {Connector: "DP-1"}}}
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)

	spawned, err := m.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DP-1"}, spawned)
}

func TestWatchScansOnChange(t *testing.T) {
	source := &fakeSource{changes: make(chan struct{})}
	source.set("HDMI-1")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)
	require.NoError(t, m.Activate(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	source.set("HDMI-1", "DP-2")
	source.changes <- struct{}{}
	// an unchanged display set spawns nothing
	source.changes <- struct{}{}

	require.Eventually(t, func() bool { return m.Has("DP-2") }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"HDMI-1", "DP-2"}, spawner.list())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

// droppingSource closes its event stream a few times before it stays up
type droppingSource struct {
	*fakeSource
	drops int

	mu    sync.Mutex
	calls int
}

func (d *droppingSource) Watch(ctx context.Context, onChange func()) error {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.mu.Unlock()

	if call <= d.drops {
		return errors.New("event socket closed")
	}
	return d.fakeSource.Watch(ctx, onChange)
}

func (d *droppingSource) subscriptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestWatchResubscribesAfterStreamCloses(t *testing.T) {
	source := &droppingSource{fakeSource: &fakeSource{changes: make(chan struct{})}, drops: 2}
	source.set("HDMI-1")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)
	m.retryMin, m.retryMax = time.Millisecond, 4*time.Millisecond
	require.NoError(t, m.Activate(context.Background()))

	// arrives while the stream is down and must be picked up by the rescan
	source.set("HDMI-1", "DP-2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	require.Eventually(t, func() bool { return m.Has("DP-2") }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return source.subscriptions() == 3 }, time.Second, time.Millisecond)

	// the third subscription stays up and still delivers events
	source.set("HDMI-1", "DP-2", "eDP-1")
	source.changes <- struct{}{}
	require.Eventually(t, func() bool { return m.Has("eDP-1") }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"HDMI-1", "DP-2", "eDP-1"}, spawner.list())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchStopsRetryingOnCancel(t *testing.T) {
	source := &droppingSource{fakeSource: &fakeSource{}, drops: 1 << 30}
	m := NewManager(source, &recordingSpawner{})
	m.retryMin, m.retryMax = time.Hour, time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	require.Eventually(t, func() bool { return source.subscriptions() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch kept waiting to resubscribe after cancel")
	}
}

func TestConcurrentScansSpawnOnce(t *testing.T) {
	source := &fakeSource{}
	source.set("HDMI-1", "DP-2")
	spawner := &recordingSpawner{}
	m := NewManager(source, spawner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Scan(context.Background())
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"HDMI-1", "DP-2"}, spawner.list())
}

func TestSpawnerFunc(t *testing.T) {
	var got wm.Display
	s := SpawnerFunc(func(d wm.Display) error {
		got = d
		return nil
	})

	require.NoError(t, s.Spawn(wm.Display{Connector: "DP-3"}))
	assert.Equal(t, "DP-3", got.Connector)
}
