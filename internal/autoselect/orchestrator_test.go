package autoselect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
)

func testSettings(tolerance time.Duration) Settings {
	s := DefaultSettings()
	s.FastSelect.LowTierTolerance = tolerance
	return s
}

func TestOrchestrator_FastPathJoinedBeforeFallback(t *testing.T) {
	// Every provider finishes at once. The completion fallback alone would
	// pick the first web media in discovery order (high); the fast path
	// must commit the low tier one first.
	s, sel, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	got := recordCommits(sel)
	high := s.AddResult("high-1", "high", media.KindWeb, fetch.StateWorking)
	low := s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking)
	bt := s.AddResult("bt-1", "bt", media.KindBitTorrent, fetch.StateWorking)
	after(t, 20*time.Millisecond, func() {
		succeed(high, &media.Media{ID: "high"})
		succeed(bt, &media.Media{ID: "bt"})
		succeed(low, &media.Media{ID: "low"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, testSettings(time.Second), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "low", m.ID)
	assert.Equal(t, []string{"low"}, got.list())
}

func TestOrchestrator_CompletionFallback(t *testing.T) {
	// No web providers: the fast path is a no-op and the completion
	// fallback picks by preferences.
	s, _, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	bt := s.AddResult("bt-1", "bt", media.KindBitTorrent, fetch.StateWorking)
	after(t, 10*time.Millisecond, func() { succeed(bt, &media.Media{ID: "bt"}) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, testSettings(time.Hour), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "bt", m.ID)
}

func TestOrchestrator_NoOverrideAfterManualPick(t *testing.T) {
	s, sel, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	bt := s.AddResult("bt-1", "bt", media.KindBitTorrent, fetch.StateWorking)
	succeed(bt, &media.Media{ID: "bt"})
	low := s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking)
	high := s.AddResult("high-1", "high", media.KindWeb, fetch.StateWorking)
	cache := s.AddResult("cache-1", "cache", media.KindLocalCache, fetch.StateWorking)

	require.NoError(t, sel.Select(context.Background(), sel.Included()[0].Media))

	after(t, 10*time.Millisecond, func() { succeed(low, &media.Media{ID: "low"}) })
	after(t, 20*time.Millisecond, func() { succeed(high, &media.Media{ID: "high"}) })
	after(t, 30*time.Millisecond, func() { succeed(cache, &media.Media{ID: "cached"}) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, testSettings(5*time.Millisecond), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bt", m.ID)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "bt", sel.Selected().ID)
	assert.True(t, sel.IsManual())
}

func TestOrchestrator_ManualPickCancelsRun(t *testing.T) {
	s, sel, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	bt := s.AddResult("bt-1", "bt", media.KindBitTorrent, fetch.StateWorking)
	require.NoError(t, bt.Emit(&media.Media{ID: "bt"}))
	s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking) // never finishes

	after(t, 20*time.Millisecond, func() {
		assert.NoError(t, sel.Select(context.Background(), sel.Included()[0].Media))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	m, err := NewOrchestrator(auto, testSettings(time.Hour), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bt", m.ID)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOrchestrator_CachedWins(t *testing.T) {
	s, _, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	s.AddResult("high-1", "high", media.KindWeb, fetch.StateWorking) // never finishes
	cache := s.AddResult("cache-1", "cache", media.KindLocalCache, fetch.StateWorking)
	after(t, 10*time.Millisecond, func() { succeed(cache, &media.Media{ID: "cached"}) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, testSettings(time.Hour), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "cached", m.ID)
}

func TestOrchestrator_PreferredWebSource(t *testing.T) {
	s, _, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	high := s.AddResult("high-1", "high", media.KindWeb, fetch.StateWorking)
	s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking) // never finishes
	after(t, 10*time.Millisecond, func() { succeed(high, &media.Media{ID: "high"}) })

	settings := testSettings(time.Hour)
	settings.PreferredWebSource = "high"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, settings, nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "high", m.ID, "learned source beats the tier gate")
}

func TestOrchestrator_RecoversDeadEnd(t *testing.T) {
	s, sel, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	bt := s.AddResult("bt-1", "bt", media.KindBitTorrent, fetch.StateWorking)
	succeed(bt, &media.Media{ID: "bt", Resolution: "720p"})
	sel.Preferences().Resolution.Prefer("2160p")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	settings := testSettings(time.Hour)
	settings.RecoverDeadEnd = false
	m, err := NewOrchestrator(auto, settings, nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)

	settings.RecoverDeadEnd = true
	m, err = NewOrchestrator(auto, settings, nil, "run-2", nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "bt", m.ID)
}

func TestOrchestrator_CanceledIsNotAnError(t *testing.T) {
	s, sel, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking)

	ctx, cancel := context.WithCancel(context.Background())
	after(t, 20*time.Millisecond, cancel)

	m, err := NewOrchestrator(auto, testSettings(time.Hour), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Nil(t, sel.Selected())
}

func TestOrchestrator_PublishesEvents(t *testing.T) {
	bus := events.NewBus(nil, nil)
	defer bus.Close()
	ch := bus.SubscribeRun("run-9", 32)

	s := fetch.NewSession(fetch.Request{EpisodeID: "ep-1"}, testTiers, nil)
	sel := selector.New(s, nil, selector.Options{PreferKind: media.KindWeb, Bus: bus, RunID: "run-9"})
	auto := New(sel, Options{})
	succeed(s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking), &media.Media{ID: "low"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewOrchestrator(auto, testSettings(time.Hour), bus, "run-9", nil).Run(ctx)
	require.NoError(t, err)

	var finished *events.RunFinished
	strategies := map[string]bool{}
	timeout := time.After(time.Second)
	for finished == nil {
		select {
		case e := <-ch:
			switch e := e.(type) {
			case *events.StrategyFinished:
				strategies[e.Strategy] = true
			case *events.RunFinished:
				finished = e
			}
		case <-timeout:
			t.Fatal("no run finished event")
		}
	}

	assert.Equal(t, "low", finished.MediaID)
	assert.Equal(t, "ep-1", finished.EntityID())
	assert.True(t, strategies[StrategyFastSelectWeb])
}

func TestOrchestrator_AutoEnabledProviderIsSelected(t *testing.T) {
	// The only web provider starts disabled and is turned on for the user.
	// Its query finishes on another goroutine; nothing may treat it as idle
	// before then.
	for i := 0; i < 20; i++ {
		s := fetch.NewSession(fetch.Request{}, testTiers, nil)
		sel := selector.New(s, nil, selector.Options{PreferKind: media.KindWeb})
		auto := New(sel, Options{LastSelectedSource: "low1"})

		web := s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateDisabled)
		web.SetOnEnable(func() {
			go succeed(web, &media.Media{ID: "remembered"})
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		m, err := NewOrchestrator(auto, testSettings(time.Hour), nil, "run-1", nil).Run(ctx)
		cancel()
		require.NoError(t, err)
		require.NotNil(t, m, "iteration %d", i)
		assert.Equal(t, "remembered", m.ID)
	}
}

func TestOrchestrator_AutoEnableDisabled(t *testing.T) {
	// Without auto enable the disabled provider stays idle and the run ends
	// with nothing selected instead of waiting on it.
	s := fetch.NewSession(fetch.Request{}, testTiers, nil)
	sel := selector.New(s, nil, selector.Options{PreferKind: media.KindWeb})
	auto := New(sel, Options{LastSelectedSource: "low1"})
	web := s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateDisabled)

	settings := testSettings(time.Hour)
	settings.AutoEnableLastSelected = false

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, settings, nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, fetch.StateDisabled, web.State())
}

func TestOrchestrator_WaitsForFirstProvider(t *testing.T) {
	s, _, auto := newAuto(t, fetch.Request{}, selector.Options{PreferKind: media.KindWeb})
	after(t, 10*time.Millisecond, func() {
		succeed(s.AddResult("low1-1", "low1", media.KindWeb, fetch.StateWorking), &media.Media{ID: "late"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := NewOrchestrator(auto, testSettings(time.Hour), nil, "run-1", nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "late", m.ID)
}

func TestOrchestrator_NoProvidersUntilCanceled(t *testing.T) {
	bus := events.NewBus(nil, nil)
	defer bus.Close()
	ch := bus.SubscribeRun("run-3", 8)

	s := fetch.NewSession(fetch.Request{EpisodeID: "ep-1"}, testTiers, nil)
	auto := New(selector.New(s, nil, selector.Options{PreferKind: media.KindWeb}), Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	m, err := NewOrchestrator(auto, testSettings(time.Hour), bus, "run-3", nil).Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "waits instead of giving up")

	select {
	case e := <-ch:
		assert.Equal(t, events.EventRunFinished, e.EventType())
	case <-time.After(time.Second):
		t.Fatal("no run finished event")
	}
}
