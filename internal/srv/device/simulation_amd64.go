package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/jypelle/btclcd/internal/version"
	"github.com/sirupsen/logrus"
	"image"
	"sync"
)

// Simulation shows the frames in a desktop window
type Simulation struct {
	lock    sync.RWMutex
	bounds  image.Rectangle
	lastImg image.Image
	on      bool
	closing bool

	window *app.Window
}

func NewSimulation(width, height int) *Simulation {
	s := &Simulation{
		bounds:  image.Rect(0, 0, width, height),
		lastImg: image.NewRGBA(image.Rect(0, 0, width, height)),
		on:      true,
	}
	s.window = app.NewWindow(
		app.Title(version.AppName),
		app.Size(unit.Px(float32(width*2)), unit.Px(float32(height*2))),
		app.MinSize(unit.Px(float32(width)), unit.Px(float32(height))),
	)
	go func() {
		if err := s.gioloop(); err != nil {
			logrus.Fatalf("Simulation window failed: %v", err)
		}
	}()
	go app.Main()
	return s
}

func (s *Simulation) Bounds() image.Rectangle {
	return s.bounds
}

func (s *Simulation) ShowImage(img image.Image) error {
	s.lock.Lock()
	s.lastImg = img
	s.lock.Unlock()
	s.window.Invalidate()
	return nil
}

func (s *Simulation) SetPower(on bool) error {
	s.lock.Lock()
	s.on = on
	s.lock.Unlock()
	s.window.Invalidate()
	return nil
}

func (s *Simulation) Halt() error {
	return s.SetPower(false)
}

func (s *Simulation) Close() error {
	s.lock.Lock()
	s.closing = true
	s.lock.Unlock()
	s.window.Close()
	return nil
}

func (s *Simulation) gioloop() error {
	var ops op.Ops
	for {
		e := <-s.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			s.lock.RLock()
			closing := s.closing
			s.lock.RUnlock()
			if !closing {
				// Window closed by the user
				interruptProcess()
			}
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			s.lock.RLock()
			lastImg := s.lastImg
			on := s.on
			s.lock.RUnlock()

			if on {
				img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
				img.Layout(gtx)
			}
			e.Frame(gtx.Ops)
		}
	}
}
