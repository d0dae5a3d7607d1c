package srv

import (
	"context"
	"errors"
	"github.com/jypelle/btclcd/internal/srv/screen"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"image"
	"reflect"
	"sync"
	"testing"
	"time"
)

type recordPanel struct {
	frames []image.Image
	fail   int
}

func (p *recordPanel) ShowImage(img image.Image) error {
	if p.fail > 0 {
		p.fail--
		return errors.New("spi write failed")
	}
	p.frames = append(p.frames, img)
	return nil
}

type staticSource struct {
	snap  *snapshot.Snapshot
	calls int
}

func (s *staticSource) Snapshot(ctx context.Context, now time.Time) *snapshot.Snapshot {
	s.calls++
	return s.snap
}

type countingFetcher struct {
	lock  sync.Mutex
	calls int
	err   error
	snap  *snapshot.Snapshot
}

func (f *countingFetcher) FetchSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// fakeClock advances only when the cycler sleeps
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	// cancel is called once sleeps reaches cancelAfter
	cancel      context.CancelFunc
	cancelAfter int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.cancel != nil && len(c.sleeps) >= c.cancelAfter {
		c.cancel()
	}
	return ctx.Err()
}

func (c *fakeClock) options() CyclerOptions {
	return CyclerOptions{
		ErrorBackoff: 5 * time.Second,
		MinPassSleep: time.Second,
		Now:          c.Now,
		Sleep:        c.Sleep,
	}
}

// visits records the screens in drawing order
type visits struct {
	names []string
	snaps []*snapshot.Snapshot
}

func (v *visits) entry(name string, duration time.Duration, fail func() error) screen.Entry {
	return screen.Entry{
		Name:     name,
		Duration: duration,
		Renderer: screen.RendererFunc(func(snap *snapshot.Snapshot) (*image.RGBA, error) {
			v.names = append(v.names, name)
			v.snaps = append(v.snaps, snap)
			if fail != nil {
				if err := fail(); err != nil {
					return nil, err
				}
			}
			return image.NewRGBA(image.Rect(0, 0, 128, 160)), nil
		}),
	}
}

func TestCyclerOrder(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	panel := &recordPanel{}
	source := &staticSource{snap: snapshot.Empty()}
	entries := []screen.Entry{
		v.entry(screen.PriceScreen, 30*time.Second, nil),
		v.entry(screen.HeightScreen, 30*time.Second, nil),
	}

	c := NewCycler(entries, panel, source, clock.options())
	if err := c.RunPasses(context.Background(), 3); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}

	want := []string{"Price", "Height", "Price", "Height", "Price", "Height"}
	if !reflect.DeepEqual(v.names, want) {
		t.Errorf("visits = %v, want %v", v.names, want)
	}
	if len(panel.frames) != 6 {
		t.Errorf("panel got %d frames, want 6", len(panel.frames))
	}
	for i, d := range clock.sleeps {
		if d != 30*time.Second {
			t.Errorf("sleep %d = %v, want 30s", i, d)
		}
	}
	if source.calls != 6 {
		t.Errorf("snapshot asked %d times, want 6", source.calls)
	}
}

func TestCyclerRenderFaultShortensOnlyItsScreen(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	panel := &recordPanel{}
	entries := []screen.Entry{
		v.entry(screen.PriceScreen, 30*time.Second, func() error { return errors.New("font missing") }),
		v.entry(screen.HeightScreen, 30*time.Second, nil),
	}

	c := NewCycler(entries, panel, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.RunPasses(context.Background(), 2); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}

	want := []time.Duration{5 * time.Second, 30 * time.Second, 5 * time.Second, 30 * time.Second}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}
	if len(panel.frames) != 2 {
		t.Errorf("panel got %d frames, want 2", len(panel.frames))
	}
}

func TestCyclerRecoversFromPanic(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	entries := []screen.Entry{
		{
			Name:     screen.FeesScreen,
			Duration: 30 * time.Second,
			Renderer: screen.RendererFunc(func(snap *snapshot.Snapshot) (*image.RGBA, error) {
				var values map[string]int
				values["boom"]++
				return nil, nil
			}),
		},
		v.entry(screen.TimeScreen, 30*time.Second, nil),
	}

	c := NewCycler(entries, &recordPanel{}, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.RunPasses(context.Background(), 1); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	if !reflect.DeepEqual(v.names, []string{"Time"}) {
		t.Errorf("visits = %v, want [Time]", v.names)
	}

	err := c.show(context.Background(), entries[0])
	var fault *RenderFault
	if !errors.As(err, &fault) || fault.Screen != screen.FeesScreen {
		t.Errorf("show() error = %v, want RenderFault for Fees", err)
	}
}

func TestCyclerNilFrame(t *testing.T) {
	entry := screen.Entry{
		Name:     screen.NetworkScreen,
		Duration: 30 * time.Second,
		Renderer: screen.RendererFunc(func(snap *snapshot.Snapshot) (*image.RGBA, error) {
			return nil, nil
		}),
	}
	c := NewCycler(nil, &recordPanel{}, &staticSource{snap: snapshot.Empty()}, newFakeClock().options())

	var fault *RenderFault
	if err := c.show(context.Background(), entry); !errors.As(err, &fault) {
		t.Errorf("show() error = %v, want RenderFault", err)
	}
}

func TestCyclerPanelFault(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	panel := &recordPanel{fail: 1}
	entries := []screen.Entry{
		v.entry(screen.PriceScreen, 30*time.Second, nil),
		v.entry(screen.HeightScreen, 30*time.Second, nil),
	}

	c := NewCycler(entries, panel, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.RunPasses(context.Background(), 1); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	want := []time.Duration{5 * time.Second, 30 * time.Second}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}

	panel.fail = 1
	err := c.show(context.Background(), entries[0])
	var fault *PanelFault
	if !errors.As(err, &fault) || fault.Screen != screen.PriceScreen {
		t.Errorf("show() error = %v, want PanelFault for Price", err)
	}
}

func TestCyclerBackoffBelowScreenDuration(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	entries := []screen.Entry{
		v.entry(screen.ChannelsScreen, 4*time.Second, func() error { return errors.New("no data") }),
	}

	c := NewCycler(entries, &recordPanel{}, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.RunPasses(context.Background(), 1); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	want := []time.Duration{2 * time.Second}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}
}

func TestCyclerEmptySelection(t *testing.T) {
	clock := newFakeClock()
	source := &staticSource{snap: snapshot.Empty()}

	c := NewCycler(nil, &recordPanel{}, source, clock.options())
	if err := c.RunPasses(context.Background(), 5); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	want := []time.Duration{time.Second, time.Second, time.Second, time.Second, time.Second}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}
	if source.calls != 0 {
		t.Errorf("snapshot asked %d times, want 0", source.calls)
	}
}

func TestCyclerShortPassIsToppedUp(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	entries := []screen.Entry{
		v.entry(screen.LogoScreen, 200*time.Millisecond, nil),
	}

	c := NewCycler(entries, &recordPanel{}, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.RunPasses(context.Background(), 1); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	want := []time.Duration{200 * time.Millisecond, 800 * time.Millisecond}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}
}

func TestCyclerRunStopsOnCancel(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock.cancel = cancel
	clock.cancelAfter = 3
	entries := []screen.Entry{
		v.entry(screen.PriceScreen, 30*time.Second, nil),
		v.entry(screen.HeightScreen, 30*time.Second, nil),
	}

	c := NewCycler(entries, &recordPanel{}, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(v.names) != 3 {
		t.Errorf("visits = %v, want 3 screens", v.names)
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("sleepContext() ignored cancellation")
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext() error = %v", err)
	}
}

func TestCyclerRefreshesAtInterval(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	fetcher := &countingFetcher{snap: snapshot.New("USD", clock.now, map[snapshot.Metric]float64{snapshot.Price: 50000})}
	cache := snapshot.NewCache(fetcher, time.Minute, time.Second)
	entries := []screen.Entry{
		v.entry(screen.PriceScreen, 30*time.Second, nil),
		v.entry(screen.HeightScreen, 30*time.Second, nil),
	}

	c := NewCycler(entries, &recordPanel{}, cache, clock.options())
	if err := c.RunPasses(context.Background(), 4); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	// Screens drawn at 0s, 30s, ... 210s, a fetch every 60s
	if fetcher.calls != 4 {
		t.Errorf("fetcher called %d times, want 4", fetcher.calls)
	}
	for i := 0; i < len(v.snaps); i += 2 {
		if v.snaps[i] != v.snaps[i+1] {
			t.Errorf("screens %d and %d got different snapshots", i, i+1)
		}
	}
}

func TestCyclerFirstFetchFailure(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{err: snapshot.NewFetchError("rpc", errors.New("connection refused"))}
	cache := snapshot.NewCache(fetcher, time.Minute, time.Second)
	layout, err := screen.NewLayout(128, 160, "USD")
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}
	registry := screen.NewRegistry(layout, nil)
	entries := registry.Select(screen.ParseSelector("Price,Height"))
	panel := &recordPanel{}

	c := NewCycler(entries, panel, cache, clock.options())
	if err := c.RunPasses(context.Background(), 1); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	// Placeholders are drawn, no screen is a fault
	if len(panel.frames) != 2 {
		t.Errorf("panel got %d frames, want 2", len(panel.frames))
	}
	want := []time.Duration{screen.DefaultDuration, screen.DefaultDuration}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Errorf("sleeps = %v, want %v", clock.sleeps, want)
	}
}

type powerPanel struct {
	recordPanel
	on     bool
	events []string
}

func (p *powerPanel) SetOn() error {
	p.on = true
	p.events = append(p.events, "on")
	return nil
}

func (p *powerPanel) SetOff() error {
	p.on = false
	p.events = append(p.events, "off")
	return nil
}

func (p *powerPanel) IsOn() bool {
	return p.on
}

func TestCyclerOffHours(t *testing.T) {
	clock := newFakeClock()
	v := &visits{}
	panel := &powerPanel{on: true}
	entries := []screen.Entry{
		v.entry(screen.PriceScreen, 30*time.Second, nil),
		v.entry(screen.HeightScreen, 30*time.Second, nil),
	}
	offFrom := clock.now.Add(time.Minute)
	offUntil := offFrom.Add(time.Minute)
	options := clock.options()
	options.OffHours = func(t time.Time) bool {
		return !t.Before(offFrom) && t.Before(offUntil)
	}

	c := NewCycler(entries, panel, &staticSource{snap: snapshot.Empty()}, options)
	if err := c.RunPasses(context.Background(), 3); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}

	// The middle pass falls in the off window
	if want := []string{"off", "on"}; !reflect.DeepEqual(panel.events, want) {
		t.Errorf("power events = %v, want %v", panel.events, want)
	}
	if want := []string{"Price", "Height", "Price", "Height"}; !reflect.DeepEqual(v.names, want) {
		t.Errorf("visits = %v, want %v", v.names, want)
	}
	if len(panel.frames) != 4 {
		t.Errorf("panel got %d frames, want 4", len(panel.frames))
	}
	if len(clock.sleeps) != 6 {
		t.Fatalf("sleeps = %v, want 6 screen slots", clock.sleeps)
	}
	for i, d := range clock.sleeps {
		if d != 30*time.Second {
			t.Errorf("sleep %d = %v, want 30s", i, d)
		}
	}
}

func TestCyclerWithoutOffHoursLeavesPowerAlone(t *testing.T) {
	clock := newFakeClock()
	panel := &powerPanel{on: false}
	v := &visits{}
	entries := []screen.Entry{v.entry(screen.PriceScreen, 30*time.Second, nil)}

	c := NewCycler(entries, panel, &staticSource{snap: snapshot.Empty()}, clock.options())
	if err := c.RunPasses(context.Background(), 1); err != nil {
		t.Fatalf("RunPasses() error = %v", err)
	}
	if len(panel.events) != 0 {
		t.Errorf("power events = %v, want none", panel.events)
	}
	if len(panel.frames) != 1 {
		t.Errorf("panel got %d frames, want 1", len(panel.frames))
	}
}
