package srv

import (
	"bytes"
	"github.com/jypelle/btclcd/internal/srv/config"
	"github.com/jypelle/btclcd/internal/srv/device"
	"github.com/jypelle/btclcd/internal/srv/screen"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"image"
	"sync"
	"testing"
	"time"
)

// eventPanel logs every call made by the display
type eventPanel struct {
	lock   sync.Mutex
	events []string
	frames []*image.RGBA
}

func (p *eventPanel) ShowImage(img image.Image) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, "show")
	frame, _ := img.(*image.RGBA)
	p.frames = append(p.frames, frame)
	return nil
}

func (p *eventPanel) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 160) }

func (p *eventPanel) Halt() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, "halt")
	return nil
}

func (p *eventPanel) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.events = append(p.events, "close")
	return nil
}

func (p *eventPanel) shown() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.frames)
}

func testServerConfig(t *testing.T, selection string) *config.ServerConfig {
	t.Helper()
	param, err := config.LoadServerParam(config.ParamDefaultFile)
	if err != nil {
		t.Fatalf("LoadServerParam() error = %v", err)
	}
	param.TimingParam.SplashDuration = 0
	param.TimingParam.MinPassSleep = 0
	for _, name := range []string{screen.LogoScreen, screen.PriceScreen, screen.HeightScreen} {
		param.Screens[name] = 0
	}
	return &config.ServerConfig{
		ConfigDir:       t.TempDir(),
		Currency:        "USD",
		ScreenSelection: selection,
		ServerParam:     param,
	}
}

func TestServerAppStartStop(t *testing.T) {
	panel := &eventPanel{}
	fetcher := &countingFetcher{snap: snapshot.New("USD", time.Now(), map[snapshot.Metric]float64{snapshot.Price: 50000})}
	app := newServerApp(testServerConfig(t, "Price,Height"), device.NewDisplayWithPanel(panel), fetcher)

	app.Start()
	deadline := time.Now().Add(5 * time.Second)
	// Splash then at least one cycled screen
	for panel.shown() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("no screen shown after Start()")
		}
		time.Sleep(10 * time.Millisecond)
	}
	app.Stop()

	panel.lock.Lock()
	defer panel.lock.Unlock()
	n := len(panel.events)
	if n < 4 {
		t.Fatalf("events = %v", panel.events)
	}
	if got := panel.events[n-3:]; got[0] != "show" || got[1] != "halt" || got[2] != "close" {
		t.Errorf("events end with %v, want show, halt, close", got)
	}
	goodbye := screen.Goodbye(app.layout)
	last := panel.frames[len(panel.frames)-1]
	if last == nil || !bytes.Equal(last.Pix, goodbye.Pix) {
		t.Errorf("last frame is not the goodbye screen")
	}
	splash := screen.Splash(app.layout)
	if first := panel.frames[0]; first == nil || !bytes.Equal(first.Pix, splash.Pix) {
		t.Errorf("first frame is not the splash screen")
	}
}

func TestServerAppLogoAlways(t *testing.T) {
	for _, logoAlways := range []bool{true, false} {
		panel := &eventPanel{}
		sc := testServerConfig(t, "Price")
		sc.LogoAlways = logoAlways
		fetcher := &countingFetcher{snap: snapshot.Empty()}
		app := newServerApp(sc, device.NewDisplayWithPanel(panel), fetcher)

		app.Start()
		deadline := time.Now().Add(5 * time.Second)
		for panel.shown() < 2 {
			if time.Now().After(deadline) {
				t.Fatalf("no screen shown after Start()")
			}
			time.Sleep(10 * time.Millisecond)
		}
		app.Stop()

		logo := screen.NewRegistry(app.layout, nil).Select(screen.ParseSelector(screen.LogoScreen))[0]
		want, err := logo.Renderer.Render(snapshot.Empty())
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		panel.lock.Lock()
		second := panel.frames[1]
		panel.lock.Unlock()
		if got := second != nil && bytes.Equal(second.Pix, want.Pix); got != logoAlways {
			t.Errorf("logo_always %v: first cycled screen is logo = %v", logoAlways, got)
		}
	}
}
