package srv

import (
	"context"
	"github.com/jypelle/btclcd/internal/srv/config"
	"github.com/jypelle/btclcd/internal/srv/device"
	"github.com/jypelle/btclcd/internal/srv/provider"
	"github.com/jypelle/btclcd/internal/srv/screen"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"github.com/jypelle/btclcd/internal/version"
	"github.com/sirupsen/logrus"
	"image"
	"time"
)

type ServerApp struct {
	*config.ServerConfig
	displayDevice *device.Display
	cache         *snapshot.Cache
	layout        *screen.Layout

	cyclerCancel context.CancelFunc
	cyclerDone   chan struct{}
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool, terminalMode bool, currency string, screenSelection string) *ServerApp {

	logrus.Debugf("Creation of btclcd server %s ...", version.AppVersion.String())

	serverConfig := config.NewServerConfig(configDir, debugMode, simulationMode, terminalMode, currency, screenSelection)
	app := newServerApp(serverConfig, device.NewDisplay(serverConfig.PanelParam), provider.NewServerProvider(serverConfig))

	logrus.Debugln("Server created")

	return app
}

func newServerApp(serverConfig *config.ServerConfig, displayDevice *device.Display, fetcher snapshot.Fetcher) *ServerApp {
	return &ServerApp{
		ServerConfig:  serverConfig,
		displayDevice: displayDevice,
		// Sources are read concurrently, each bounded by the request timeout
		cache: snapshot.NewCache(
			fetcher,
			serverConfig.TimingParam.GetRefreshInterval(),
			2*serverConfig.TimingParam.GetRequestTimeout(),
		),
		cyclerDone: make(chan struct{}),
	}
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting btclcd server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	if err := s.displayDevice.Start(); err != nil {
		logrus.Fatalf("Unable to start display device: %v", err)
	}

	// Screens are laid out on the panel canvas
	bounds := s.displayDevice.Bounds()
	layout, err := screen.NewLayout(bounds.Dx(), bounds.Dy(), s.Currency)
	if err != nil {
		logrus.Fatalf("Unable to create screen layout: %v", err)
	}
	layout.LoadImages(s.GetCompleteImagesFolder(), s.ImagesParam.Logo)
	s.layout = layout

	// Display startup screen
	s.show(screen.Splash(layout))
	time.Sleep(s.TimingParam.GetSplashDuration())

	// Select screens
	registry := screen.NewRegistry(layout, func(name string) time.Duration {
		return s.ScreenDuration(name, screen.DefaultDuration)
	})
	selector := screen.ParseSelector(s.ScreenSelection)
	var always []string
	if s.LogoAlways {
		always = append(always, screen.LogoScreen)
	}
	entries := registry.Select(selector, always...)
	if len(entries) == 0 {
		logrus.Warnf("No screen matches %q", selector.String())
	}
	for _, entry := range entries {
		logrus.Infof("Screen %s every pass for %v", entry.Name, entry.Duration)
	}

	options := CyclerOptions{
		ErrorBackoff: s.TimingParam.GetErrorBackoff(),
		MinPassSleep: s.TimingParam.GetMinPassSleep(),
	}
	offHours, err := s.PanelParam.OffHours.Parse()
	if err != nil {
		logrus.Fatalf("Invalid off hours: %v", err)
	}
	if offHours != nil {
		logrus.Infof("Display off from %s until %s", s.PanelParam.OffHours.From, s.PanelParam.OffHours.Until)
		options.OffHours = offHours.Contains
	}

	// Start screen cycler
	cycler := NewCycler(entries, s.displayDevice, s.cache, options)
	ctx, cancel := context.WithCancel(context.Background())
	s.cyclerCancel = cancel
	go func() {
		defer close(s.cyclerDone)
		if err := cycler.Run(ctx); err != nil && ctx.Err() == nil {
			logrus.Errorf("Screen cycler stopped: %v", err)
		}
	}()
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping btclcd server ...")

	// Stop screen cycler
	if s.cyclerCancel != nil {
		logrus.Infof("Stop screen cycler")
		s.cyclerCancel()
		<-s.cyclerDone
	}

	// Display goodbye screen
	if s.layout != nil {
		if !s.displayDevice.IsOn() {
			if err := s.displayDevice.SetOn(); err != nil {
				logrus.Warnf("Unable to switch display on: %v", err)
			}
		}
		s.show(screen.Goodbye(s.layout))
		time.Sleep(s.TimingParam.GetSplashDuration())
	}

	// Stop display device
	s.displayDevice.Stop()

	logrus.Printf("Server stopped")
}

func (s *ServerApp) show(img image.Image) {
	if err := s.displayDevice.ShowImage(img); err != nil {
		logrus.Warnf("Unable to show screen: %v", err)
	}
}
