package device

import (
	"fmt"
	"image"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
)

// SSD1306 is a monochrome I²C OLED panel
type SSD1306 struct {
	dev *ssd1306.Dev
	bus i2c.BusCloser
}

// NewSSD1306 opens busName (first available bus when empty)
func NewSSD1306(busName string, width, height int) (*SSD1306, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("unable to open i2c bus: %w", err)
	}

	opts := ssd1306.DefaultOpts
	if width > 0 && height > 0 {
		opts.W = width
		opts.H = height
	}
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("unable to initialize oled display: %w", err)
	}
	dev.SetContrast(1)

	return &SSD1306{dev: dev, bus: bus}, nil
}

func (p *SSD1306) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

func (p *SSD1306) ShowImage(img image.Image) error {
	return p.dev.Draw(p.dev.Bounds(), img, img.Bounds().Min)
}

func (p *SSD1306) SetPower(on bool) error {
	if on {
		// Calling Draw() is not enough to switch the display back on
		return p.dev.SetContrast(1)
	}
	return p.dev.Halt()
}

func (p *SSD1306) Halt() error {
	return p.dev.Halt()
}

func (p *SSD1306) Close() error {
	return p.bus.Close()
}
