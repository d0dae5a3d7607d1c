package srv

import (
	"context"
	"errors"
	"fmt"
	"github.com/jypelle/btclcd/internal/srv/screen"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"github.com/sirupsen/logrus"
	"image"
	"runtime/debug"
	"time"
)

// RenderFault is a screen that failed or panicked while drawing
type RenderFault struct {
	Screen string
	Err    error
}

func (e *RenderFault) Error() string {
	return fmt.Sprintf("unable to draw %s screen: %v", e.Screen, e.Err)
}

func (e *RenderFault) Unwrap() error {
	return e.Err
}

// PanelFault is a frame the panel could not show
type PanelFault struct {
	Screen string
	Err    error
}

func (e *PanelFault) Error() string {
	return fmt.Sprintf("unable to show %s screen: %v", e.Screen, e.Err)
}

func (e *PanelFault) Unwrap() error {
	return e.Err
}

type SnapshotSource interface {
	Snapshot(ctx context.Context, now time.Time) *snapshot.Snapshot
}

type ImageSink interface {
	ShowImage(img image.Image) error
}

// Power is a sink that can be switched off during off hours
type Power interface {
	SetOn() error
	SetOff() error
	IsOn() bool
}

const (
	DefaultErrorBackoff = 5 * time.Second
	DefaultMinPassSleep = 1 * time.Second
)

type CyclerOptions struct {
	// Wait after a faulty screen, kept below the screen duration
	ErrorBackoff time.Duration
	// Minimum total wait of a pass over the screens
	MinPassSleep time.Duration
	// Reports whether the panel should be off at a given time
	OffHours func(t time.Time) bool

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Cycler shows the screens one after the other, forever. A faulty screen
// only shortens its own display time.
type Cycler struct {
	entries      []screen.Entry
	panel        ImageSink
	source       SnapshotSource
	errorBackoff time.Duration
	minPassSleep time.Duration
	offHours     func(t time.Time) bool
	power        Power
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewCycler(entries []screen.Entry, panel ImageSink, source SnapshotSource, options CyclerOptions) *Cycler {
	c := &Cycler{
		entries:      append([]screen.Entry(nil), entries...),
		panel:        panel,
		source:       source,
		errorBackoff: options.ErrorBackoff,
		minPassSleep: options.MinPassSleep,
		offHours:     options.OffHours,
		now:          options.Now,
		sleep:        options.Sleep,
	}
	if c.errorBackoff <= 0 {
		c.errorBackoff = DefaultErrorBackoff
	}
	if c.minPassSleep <= 0 {
		c.minPassSleep = DefaultMinPassSleep
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if power, ok := panel.(Power); ok && c.offHours != nil {
		c.power = power
	}
	return c
}

// Run cycles until ctx is done and returns ctx.Err()
func (c *Cycler) Run(ctx context.Context) error {
	if len(c.entries) == 0 {
		logrus.Warnf("No screen selected, the display won't change")
	}
	for {
		if err := c.pass(ctx); err != nil {
			return err
		}
	}
}

// RunPasses stops after passes full passes over the screens
func (c *Cycler) RunPasses(ctx context.Context, passes int) error {
	for i := 0; i < passes; i++ {
		if err := c.pass(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cycler) pass(ctx context.Context) error {
	var slept time.Duration
	for _, entry := range c.entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := entry.Duration
		if c.applyPower() {
			if err := c.show(ctx, entry); err != nil {
				wait = c.backoff(entry)
				logrus.Warnf("%v, next screen in %v", err, wait)
			}
		}
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
		slept += wait
	}

	if slept < c.minPassSleep {
		if err := c.sleep(ctx, c.minPassSleep-slept); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// applyPower switches the panel for the current time and reports whether it is on
func (c *Cycler) applyPower() bool {
	if c.power == nil {
		return true
	}
	off := c.offHours(c.now())
	switch {
	case off && c.power.IsOn():
		logrus.Infof("Off hours, switching display off")
		if err := c.power.SetOff(); err != nil {
			logrus.Warnf("Unable to switch display off: %v", err)
		}
	case !off && !c.power.IsOn():
		logrus.Infof("Switching display back on")
		if err := c.power.SetOn(); err != nil {
			logrus.Warnf("Unable to switch display on: %v", err)
		}
	}
	return !off
}

func (c *Cycler) show(ctx context.Context, entry screen.Entry) error {
	logrus.Debugf("Drawing %s screen", entry.Name)
	snap := c.source.Snapshot(ctx, c.now())

	img, err := c.render(entry, snap)
	if err != nil {
		return err
	}
	if err := c.panel.ShowImage(img); err != nil {
		return &PanelFault{Screen: entry.Name, Err: err}
	}
	return nil
}

func (c *Cycler) render(entry screen.Entry, snap *snapshot.Snapshot) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Panic while drawing %s screen: %v\n%s", entry.Name, r, debug.Stack())
			img = nil
			err = &RenderFault{Screen: entry.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	img, err = entry.Renderer.Render(snap)
	if err != nil {
		return nil, &RenderFault{Screen: entry.Name, Err: err}
	}
	if img == nil {
		return nil, &RenderFault{Screen: entry.Name, Err: errors.New("no frame")}
	}
	return img, nil
}

func (c *Cycler) backoff(entry screen.Entry) time.Duration {
	if c.errorBackoff < entry.Duration {
		return c.errorBackoff
	}
	return entry.Duration / 2
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
