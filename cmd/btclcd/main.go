package main

import (
	"flag"
	"fmt"
	"github.com/jypelle/btclcd/internal/srv"
	"github.com/jypelle/btclcd/internal/srv/config"
	"github.com/jypelle/btclcd/internal/version"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const configSuffix = "btclcd"

func main() {
	os.Exit(run(os.Args, os.Stdout))
}

// run parses args, runs the server until a stop signal and returns the exit code
func run(args []string, stdout io.Writer) int {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(args[0])
	flags := flag.NewFlagSet(mainCommand, flag.ContinueOnError)
	flags.SetOutput(stdout)

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flags.Bool("d", false, "Enable debug mode")

	// Simulation Mode
	simulationMode := flags.Bool("s", false, "Show the screens in a desktop window")

	// Terminal Mode
	terminalMode := flags.Bool("t", false, "Show the screens in the terminal")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flags.String("c", defaultConfigDir, "Location of btclcd config folder")

	// Usage
	flags.Usage = func() {
		fmt.Fprintf(stdout, "\nUsage: %s [OPTIONS] <CURRENCY> <SCREENS>\n", mainCommand)
		fmt.Fprintf(stdout, "       %s version\n", mainCommand)
		fmt.Fprintf(stdout, "\nA Bitcoin dashboard for small LCD panels\n")
		fmt.Fprintf(stdout, "\nArguments:\n")
		fmt.Fprintf(stdout, "  CURRENCY  3 letters currency code of the price, e.g. USD\n")
		fmt.Fprintf(stdout, "  SCREENS   Screens to show, comma separated, e.g. Price,Fees,Height\n")
		fmt.Fprintf(stdout, "            (Logo, Price, Fees, Height, Time, Network, Channels, Storage,\n")
		fmt.Fprintf(stdout, "             Screen1 to Screen7, or * for all)\n")
		fmt.Fprintf(stdout, "\nOptions:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stdout, "\nCommands:\n")
		fmt.Fprintf(stdout, "  version   Show the version number\n")
	}

	// endregion

	// region Flags and Arguments Parsing
	if err := flags.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if flags.NArg() == 1 && flags.Arg(0) == "version" {
		fmt.Fprintf(stdout, "Version %s\n", version.AppVersion.String())
		return 0
	}

	if flags.NArg() != 2 {
		fmt.Fprintf(stdout, "\n%s expects a currency and a screen list\n", mainCommand)
		flags.Usage()
		return 1
	}

	currency, err := config.ParseCurrency(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdout, "\n%v\n", err)
		flags.Usage()
		return 1
	}
	screenSelection := flags.Arg(1)
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	// Create btclcd server
	serverApp := srv.NewServerApp(*configDir, *debugMode, *simulationMode, *terminalMode, currency, screenSelection)

	// Listen stop signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	// Start btclcd server
	serverApp.Start()

	sig := <-ch
	logrus.Infof("Received signal: %v", sig)
	serverApp.Stop()
	return 0
}
