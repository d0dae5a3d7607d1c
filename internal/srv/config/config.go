package config

import (
	"fmt"
	"github.com/jypelle/btclcd/internal/tool"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
)

const paramFilename = "param.yaml"

// ConfigError reports a missing or invalid startup setting
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool
	TerminalMode   bool

	Currency        string
	ScreenSelection string

	*ServerParam
}

func NewServerConfig(configDir string, debugMode bool, simulationMode bool, terminalMode bool, currency string, screenSelection string) *ServerConfig {
	serverConfig := &ServerConfig{
		ConfigDir:       configDir,
		DebugMode:       debugMode,
		SimulationMode:  simulationMode,
		TerminalMode:    terminalMode,
		Currency:        currency,
		ScreenSelection: screenSelection,
	}

	// Check Configuration folder
	created, err := tool.EnsureDir(configDir, 0770)
	if err != nil {
		logrus.Fatalf("Unable to access config folder %s: %v\n", configDir, err)
	}
	if created {
		logrus.Printf("Creation of config folder: %s", configDir)
	}

	// Open param file
	rawConfig, err := os.ReadFile(serverConfig.GetCompleteParamFilename())
	if err == nil {
		// Interpret param file
		serverConfig.ServerParam, err = LoadServerParam(rawConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret config file: %v\n", err)
		}
	} else {
		// Create default param file
		logrus.Infof("Create default param file")
		serverConfig.ServerParam, err = LoadServerParam(ParamDefaultFile)
		if err != nil {
			logrus.Fatalf("Unable to interpret config file: %v\n", err)
		}

		serverConfig.SaveParam()
	}

	if serverConfig.SimulationMode {
		serverConfig.PanelParam.Driver = SimulationPanelDriver
	} else if serverConfig.TerminalMode {
		serverConfig.PanelParam.Driver = TerminalPanelDriver
	}

	if err = serverConfig.ServerParam.Validate(); err != nil {
		logrus.Fatalf("Invalid config file %s: %v\n", serverConfig.GetCompleteParamFilename(), err)
	}

	return serverConfig
}

// LoadServerParam reads a param file over the embedded defaults
func LoadServerParam(rawConfig []byte) (*ServerParam, error) {
	serverParam := &ServerParam{}
	if err := yaml.Unmarshal(ParamDefaultFile, serverParam); err != nil {
		return nil, fmt.Errorf("default param file: %w", err)
	}
	// Screens listed in the user file replace the default list
	serverParam.Screens = nil
	if err := yaml.Unmarshal(rawConfig, serverParam); err != nil {
		return nil, err
	}
	if serverParam.Screens == nil {
		defaultParam := &ServerParam{}
		_ = yaml.Unmarshal(ParamDefaultFile, defaultParam)
		serverParam.Screens = defaultParam.Screens
	}
	return serverParam, nil
}

func (p *ServerParam) Validate() error {
	switch p.PriceParam.Source {
	case CoingeckoPriceSource, UmbrelPriceSource:
	default:
		return &ConfigError{Field: "price.source", Message: fmt.Sprintf("unknown price source %q", p.PriceParam.Source)}
	}
	if p.PriceParam.Url == "" {
		return &ConfigError{Field: "price.url", Message: "missing url"}
	}
	if p.RpcParam.Enabled && p.RpcParam.Url == "" {
		return &ConfigError{Field: "rpc.url", Message: "missing url"}
	}

	switch p.PanelParam.Driver {
	case ST7735PanelDriver, SSD1306PanelDriver, SimulationPanelDriver, TerminalPanelDriver:
	default:
		return &ConfigError{Field: "panel.driver", Message: fmt.Sprintf("unknown panel driver %q", p.PanelParam.Driver)}
	}
	if p.PanelParam.Width <= 0 || p.PanelParam.Height <= 0 {
		return &ConfigError{Field: "panel", Message: "width and height must be positive"}
	}
	if p.PanelParam.Rotation%90 != 0 || p.PanelParam.Rotation < 0 || p.PanelParam.Rotation >= 360 {
		return &ConfigError{Field: "panel.rotation", Message: "rotation must be 0, 90, 180 or 270"}
	}

	if _, err := p.PanelParam.OffHours.Parse(); err != nil {
		return &ConfigError{Field: "panel.off_hours", Message: err.Error()}
	}

	if p.TimingParam.RefreshInterval <= 0 {
		return &ConfigError{Field: "timing.refresh_interval", Message: "must be positive"}
	}
	if p.TimingParam.RequestTimeout <= 0 {
		return &ConfigError{Field: "timing.request_timeout", Message: "must be positive"}
	}
	if p.TimingParam.ErrorBackoff <= 0 {
		return &ConfigError{Field: "timing.error_backoff", Message: "must be positive"}
	}
	if p.TimingParam.MinPassSleep <= 0 {
		return &ConfigError{Field: "timing.min_pass_sleep", Message: "must be positive"}
	}
	for name, seconds := range p.Screens {
		if seconds <= 0 {
			return &ConfigError{Field: "screens." + name, Message: "duration must be positive"}
		}
	}
	return nil
}

// ParseCurrency normalizes a 3 letters currency code
func ParseCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", &ConfigError{Field: "currency", Message: fmt.Sprintf("%q is not a 3 letters currency code", currency)}
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", &ConfigError{Field: "currency", Message: fmt.Sprintf("%q is not a 3 letters currency code", currency)}
		}
	}
	return code, nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

// GetCompleteImagesFolder resolves the images folder relative to the config folder
func (sc *ServerConfig) GetCompleteImagesFolder() string {
	if filepath.IsAbs(sc.ImagesParam.Folder) {
		return sc.ImagesParam.Folder
	}
	return filepath.Join(sc.ConfigDir, sc.ImagesParam.Folder)
}

func (sc *ServerConfig) SaveParam() {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize param file: %v\n", err)
	}
	err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save param file: %v\n", err)
	}
}
