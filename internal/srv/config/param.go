package config

import (
	_ "embed"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	PriceParam  PriceParam       `yaml:"price"`
	RpcParam    RpcParam         `yaml:"rpc"`
	SystemParam SystemParam      `yaml:"system"`
	PanelParam  PanelParam       `yaml:"panel"`
	TimingParam TimingParam      `yaml:"timing"`
	Screens     map[string]int64 `yaml:"screens"`
	// Logo heads every pass whatever the selection
	LogoAlways  bool        `yaml:"logo_always"`
	ImagesParam ImagesParam `yaml:"images"`
}

const (
	CoingeckoPriceSource = "coingecko"
	UmbrelPriceSource    = "umbrel"
)

type PriceParam struct {
	Source   string `yaml:"source"`
	Url      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SystemParam struct {
	DiskPath    string `yaml:"disk_path"`
	ThermalZone string `yaml:"thermal_zone"`
}

const (
	ST7735PanelDriver     = "st7735"
	SSD1306PanelDriver    = "ssd1306"
	SimulationPanelDriver = "simulation"
	TerminalPanelDriver   = "terminal"
)

type PanelParam struct {
	Driver       string `yaml:"driver"`
	SpiPort      string `yaml:"spi_port"`
	SpeedHz      int64  `yaml:"speed_hz"`
	DcPin        string `yaml:"dc_pin"`
	ResetPin     string `yaml:"reset_pin"`
	BacklightPin string `yaml:"backlight_pin"`
	I2cBus       string `yaml:"i2c_bus"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Rotation     int    `yaml:"rotation"`
	OffsetX      int    `yaml:"offset_x"`
	OffsetY      int    `yaml:"offset_y"`
	Bgr          bool   `yaml:"bgr"`
	Invert       bool   `yaml:"invert"`

	OffHours OffHoursParam `yaml:"off_hours"`
}

// LogicalSize is the canvas size once the rotation is applied
func (p PanelParam) LogicalSize() (width, height int) {
	if p.Rotation%180 == 90 {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// TimingParam values are in seconds
type TimingParam struct {
	RefreshInterval int64 `yaml:"refresh_interval"`
	RequestTimeout  int64 `yaml:"request_timeout"`
	ErrorBackoff    int64 `yaml:"error_backoff"`
	MinPassSleep    int64 `yaml:"min_pass_sleep"`
	SplashDuration  int64 `yaml:"splash_duration"`
}

func (t TimingParam) GetRefreshInterval() time.Duration {
	return time.Duration(t.RefreshInterval) * time.Second
}

func (t TimingParam) GetRequestTimeout() time.Duration {
	return time.Duration(t.RequestTimeout) * time.Second
}

func (t TimingParam) GetErrorBackoff() time.Duration {
	return time.Duration(t.ErrorBackoff) * time.Second
}

func (t TimingParam) GetMinPassSleep() time.Duration {
	return time.Duration(t.MinPassSleep) * time.Second
}

func (t TimingParam) GetSplashDuration() time.Duration {
	return time.Duration(t.SplashDuration) * time.Second
}

type ImagesParam struct {
	Folder string `yaml:"folder"`
	Logo   string `yaml:"logo"`
}

// ScreenDuration returns how long the named screen stays on the panel
func (p *ServerParam) ScreenDuration(name string, fallback time.Duration) time.Duration {
	seconds, ok := p.Screens[name]
	if !ok {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
