package device

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
	"time"
)

// ST7735 commands
const (
	st7735SWRESET = 0x01
	st7735SLPOUT  = 0x11
	st7735NORON   = 0x13
	st7735INVOFF  = 0x20
	st7735INVON   = 0x21
	st7735DISPOFF = 0x28
	st7735DISPON  = 0x29
	st7735CASET   = 0x2A
	st7735RASET   = 0x2B
	st7735RAMWR   = 0x2C
	st7735MADCTL  = 0x36
	st7735COLMOD  = 0x3A
	st7735FRMCTR1 = 0xB1
	st7735FRMCTR2 = 0xB2
	st7735FRMCTR3 = 0xB3
	st7735INVCTR  = 0xB4
	st7735PWCTR1  = 0xC0
	st7735PWCTR2  = 0xC1
	st7735PWCTR3  = 0xC2
	st7735PWCTR4  = 0xC3
	st7735PWCTR5  = 0xC4
	st7735VMCTR1  = 0xC5
	st7735GMCTRP1 = 0xE0
	st7735GMCTRN1 = 0xE1
)

// MADCTL bits
const (
	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlMV  = 0x20
	madctlBGR = 0x08
)

const defaultMaxTxSize = 4096

type ST7735Opts struct {
	// Native size of the panel, before rotation
	Width  int
	Height int
	// Clockwise rotation in degrees: 0, 90, 180 or 270
	Rotation int
	// Offset of the visible area in the controller memory, before rotation
	OffsetX int
	OffsetY int
	Bgr     bool
	Invert  bool
}

// ST7735 is a 16 bits colour TFT panel driven over SPI
type ST7735 struct {
	port spi.Conn
	dc   gpio.PinOut
	rst  gpio.PinOut
	bl   gpio.PinOut

	opts      ST7735Opts
	width     int
	height    int
	colOffset int
	rowOffset int
	maxTx     int
	buf       []byte

	sleep func(time.Duration)
}

type st7735Step struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

// NewST7735 resets and initializes the panel. rst and bl are optional.
func NewST7735(port spi.Conn, dc, rst, bl gpio.PinOut, opts *ST7735Opts) (*ST7735, error) {
	return newST7735(port, dc, rst, bl, opts, time.Sleep)
}

func newST7735(port spi.Conn, dc, rst, bl gpio.PinOut, opts *ST7735Opts, sleep func(time.Duration)) (*ST7735, error) {
	if dc == nil {
		return nil, errors.New("st7735: a DC pin is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("st7735: invalid size %dx%d", opts.Width, opts.Height)
	}

	d := &ST7735{
		port:  port,
		dc:    dc,
		rst:   rst,
		bl:    bl,
		opts:  *opts,
		maxTx: defaultMaxTxSize,
		sleep: sleep,
	}
	if limits, ok := port.(conn.Limits); ok {
		if size := limits.MaxTxSize(); size > 0 {
			d.maxTx = size
		}
	}

	switch opts.Rotation {
	case 0, 180:
		d.width, d.height = opts.Width, opts.Height
		d.colOffset, d.rowOffset = opts.OffsetX, opts.OffsetY
	case 90, 270:
		d.width, d.height = opts.Height, opts.Width
		d.colOffset, d.rowOffset = opts.OffsetY, opts.OffsetX
	default:
		return nil, fmt.Errorf("st7735: invalid rotation %d", opts.Rotation)
	}
	d.buf = make([]byte, d.width*d.height*2)

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ST7735) String() string {
	return fmt.Sprintf("ST7735{%s, %dx%d}", d.port, d.width, d.height)
}

// Bounds is the logical canvas, rotation applied
func (d *ST7735) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

func (d *ST7735) madctl() byte {
	var m byte
	switch d.opts.Rotation {
	case 0:
		m = madctlMX | madctlMY
	case 90:
		m = madctlMY | madctlMV
	case 180:
		m = 0
	case 270:
		m = madctlMX | madctlMV
	}
	if d.opts.Bgr {
		m |= madctlBGR
	}
	return m
}

func (d *ST7735) initSequence() []st7735Step {
	inversion := byte(st7735INVOFF)
	if d.opts.Invert {
		inversion = st7735INVON
	}
	return []st7735Step{
		{cmd: st7735SWRESET, delay: 150 * time.Millisecond},
		{cmd: st7735SLPOUT, delay: 500 * time.Millisecond},
		{cmd: st7735FRMCTR1, data: []byte{0x01, 0x2C, 0x2D}},
		{cmd: st7735FRMCTR2, data: []byte{0x01, 0x2C, 0x2D}},
		{cmd: st7735FRMCTR3, data: []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}},
		{cmd: st7735INVCTR, data: []byte{0x07}},
		{cmd: st7735PWCTR1, data: []byte{0xA2, 0x02, 0x84}},
		{cmd: st7735PWCTR2, data: []byte{0xC5}},
		{cmd: st7735PWCTR3, data: []byte{0x0A, 0x00}},
		{cmd: st7735PWCTR4, data: []byte{0x8A, 0x2A}},
		{cmd: st7735PWCTR5, data: []byte{0x8A, 0xEE}},
		{cmd: st7735VMCTR1, data: []byte{0x0E}},
		{cmd: inversion},
		{cmd: st7735MADCTL, data: []byte{d.madctl()}},
		{cmd: st7735COLMOD, data: []byte{0x05}},
		{cmd: st7735GMCTRP1, data: []byte{0x02, 0x1c, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2d, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10}},
		{cmd: st7735GMCTRN1, data: []byte{0x03, 0x1d, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10}},
		{cmd: st7735NORON, delay: 10 * time.Millisecond},
		{cmd: st7735DISPON, delay: 100 * time.Millisecond},
	}
}

func (d *ST7735) init() error {
	// Hardware reset pulse
	if d.rst != nil {
		for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
			if err := d.rst.Out(level); err != nil {
				return fmt.Errorf("st7735: reset: %w", err)
			}
			d.sleep(100 * time.Millisecond)
		}
	}

	for _, step := range d.initSequence() {
		if err := d.command(step.cmd, step.data...); err != nil {
			return err
		}
		if step.delay > 0 {
			d.sleep(step.delay)
		}
	}

	if err := d.ShowImage(image.NewUniform(color.Black)); err != nil {
		return err
	}
	return d.backlight(gpio.High)
}

func (d *ST7735) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("st7735: dc pin: %w", err)
	}
	if err := d.port.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("st7735: command 0x%02X: %w", cmd, err)
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

// data sends payload split to the port transaction size
func (d *ST7735) data(payload []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("st7735: dc pin: %w", err)
	}
	for len(payload) > 0 {
		n := len(payload)
		if n > d.maxTx {
			n = d.maxTx
		}
		if err := d.port.Tx(payload[:n], nil); err != nil {
			return fmt.Errorf("st7735: data: %w", err)
		}
		payload = payload[n:]
	}
	return nil
}

func (d *ST7735) setWindow(x0, y0, x1, y1 int) error {
	x0 += d.colOffset
	x1 += d.colOffset
	y0 += d.rowOffset
	y1 += d.rowOffset
	if err := d.command(st7735CASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(st7735RASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.command(st7735RAMWR)
}

// ShowImage sends the whole frame. img is read from its Bounds().Min, pixels
// outside of it are black.
func (d *ST7735) ShowImage(img image.Image) error {
	origin := img.Bounds().Min
	i := 0
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < d.height; y++ {
			for x := 0; x < d.width; x++ {
				c := rgba.RGBAAt(origin.X+x, origin.Y+y)
				v := rgb565(c.R, c.G, c.B)
				d.buf[i] = byte(v >> 8)
				d.buf[i+1] = byte(v)
				i += 2
			}
		}
	} else {
		for y := 0; y < d.height; y++ {
			for x := 0; x < d.width; x++ {
				c := color.RGBAModel.Convert(img.At(origin.X+x, origin.Y+y)).(color.RGBA)
				v := rgb565(c.R, c.G, c.B)
				d.buf[i] = byte(v >> 8)
				d.buf[i+1] = byte(v)
				i += 2
			}
		}
	}

	if err := d.setWindow(0, 0, d.width-1, d.height-1); err != nil {
		return err
	}
	return d.data(d.buf)
}

func rgb565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

func (d *ST7735) backlight(level gpio.Level) error {
	if d.bl == nil {
		return nil
	}
	if err := d.bl.Out(level); err != nil {
		return fmt.Errorf("st7735: backlight: %w", err)
	}
	return nil
}

// SetPower switches the panel and its backlight
func (d *ST7735) SetPower(on bool) error {
	if on {
		if err := d.command(st7735DISPON); err != nil {
			return err
		}
		return d.backlight(gpio.High)
	}
	if err := d.backlight(gpio.Low); err != nil {
		return err
	}
	return d.command(st7735DISPOFF)
}

// Halt blanks the panel and turns it off
func (d *ST7735) Halt() error {
	var errs []error
	if err := d.ShowImage(image.NewUniform(color.Black)); err != nil {
		errs = append(errs, err)
	}
	if err := d.SetPower(false); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close holds the controller in reset
func (d *ST7735) Close() error {
	if d.rst == nil {
		return nil
	}
	return d.rst.Out(gpio.Low)
}
