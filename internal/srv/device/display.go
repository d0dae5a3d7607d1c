package device

import (
	"errors"
	"fmt"
	"github.com/jypelle/btclcd/internal/srv/config"
	"github.com/sirupsen/logrus"
	"image"
	"io"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"sync"
)

// Panel is the pixel sink of the dashboard
type Panel interface {
	ShowImage(img image.Image) error
	Bounds() image.Rectangle
	Halt() error
}

// Switchable panels can be turned off without losing their state
type Switchable interface {
	SetPower(on bool) error
}

// Display owns the panel chosen in the config
type Display struct {
	param config.PanelParam

	lock    sync.RWMutex
	panel   Panel
	closers []io.Closer
	on      bool
	lastImg image.Image
}

func NewDisplay(param config.PanelParam) *Display {
	return &Display{param: param}
}

// NewDisplayWithPanel wraps an already opened panel
func NewDisplayWithPanel(panel Panel) *Display {
	d := &Display{panel: panel, on: true}
	if closer, ok := panel.(io.Closer); ok {
		d.closers = append(d.closers, closer)
	}
	return d
}

func (d *Display) Start() error {
	logrus.Infof("Start display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.panel == nil {
		if err := d.open(); err != nil {
			return err
		}
	}
	d.on = true
	logrus.Infof("Display ready: %s panel, %dx%d", d.param.Driver, d.panel.Bounds().Dx(), d.panel.Bounds().Dy())
	return nil
}

func (d *Display) open() error {
	width, height := d.param.LogicalSize()

	switch d.param.Driver {
	case config.SimulationPanelDriver:
		d.setPanel(NewSimulation(width, height))
	case config.TerminalPanelDriver:
		panel, err := NewTerminal(width, height)
		if err != nil {
			return fmt.Errorf("unable to open terminal: %w", err)
		}
		d.setPanel(panel)
	case config.SSD1306PanelDriver:
		if _, err := host.Init(); err != nil {
			return err
		}
		panel, err := NewSSD1306(d.param.I2cBus, d.param.Width, d.param.Height)
		if err != nil {
			return err
		}
		d.setPanel(panel)
	case config.ST7735PanelDriver:
		if _, err := host.Init(); err != nil {
			return err
		}
		port, err := spireg.Open(d.param.SpiPort)
		if err != nil {
			return fmt.Errorf("unable to open spi port %s: %w", d.param.SpiPort, err)
		}
		c, err := port.Connect(physic.Frequency(d.param.SpeedHz)*physic.Hertz, spi.Mode0, 8)
		if err != nil {
			port.Close()
			return fmt.Errorf("unable to connect to spi port %s: %w", d.param.SpiPort, err)
		}
		pins := make(map[string]gpio.PinOut)
		for _, name := range []string{d.param.DcPin, d.param.ResetPin, d.param.BacklightPin} {
			if name == "" {
				continue
			}
			pin := gpioreg.ByName(name)
			if pin == nil {
				port.Close()
				return fmt.Errorf("unknown gpio pin %s", name)
			}
			pins[name] = pin
		}
		panel, err := NewST7735(c, pins[d.param.DcPin], pins[d.param.ResetPin], pins[d.param.BacklightPin], &ST7735Opts{
			Width:    d.param.Width,
			Height:   d.param.Height,
			Rotation: d.param.Rotation,
			OffsetX:  d.param.OffsetX,
			OffsetY:  d.param.OffsetY,
			Bgr:      d.param.Bgr,
			Invert:   d.param.Invert,
		})
		if err != nil {
			port.Close()
			return err
		}
		d.setPanel(panel)
		d.closers = append(d.closers, port)
	default:
		return fmt.Errorf("unknown panel driver %q", d.param.Driver)
	}
	return nil
}

func (d *Display) setPanel(panel Panel) {
	d.panel = panel
	if closer, ok := panel.(io.Closer); ok {
		d.closers = append(d.closers, closer)
	}
}

// Stop blanks the panel and releases the hardware
func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.panel == nil {
		return
	}
	var errs []error
	if err := d.panel.Halt(); err != nil {
		errs = append(errs, err)
	}
	for _, closer := range d.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logrus.Warnf("Unable to release display properly: %v", err)
	}
	d.panel = nil
	d.closers = nil
	d.on = false
}

// Bounds is the canvas size expected by the panel
func (d *Display) Bounds() image.Rectangle {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.panel == nil {
		width, height := d.param.LogicalSize()
		return image.Rect(0, 0, width, height)
	}
	return d.panel.Bounds()
}

func (d *Display) SetOff() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.setPower(false)
}

func (d *Display) SetOn() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.setPower(true); err != nil {
		return err
	}
	if d.lastImg != nil && d.panel != nil {
		return d.panel.ShowImage(d.lastImg)
	}
	return nil
}

func (d *Display) setPower(on bool) error {
	d.on = on
	if switchable, ok := d.panel.(Switchable); ok {
		return switchable.SetPower(on)
	}
	return nil
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

// ShowImage pushes img to the panel, it is kept for SetOn while the display is off
func (d *Display) ShowImage(img image.Image) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.lastImg = img
	if d.panel == nil {
		return errors.New("display not started")
	}
	if !d.on {
		return nil
	}
	return d.panel.ShowImage(img)
}
