package provider

import (
	"context"
	"fmt"
	"github.com/jypelle/btclcd/internal/srv/config"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

type DiskUsage struct {
	Total uint64
	Used  uint64
	Avail uint64
}

// Percent is the used share of the disk, as shown by df
func (d DiskUsage) Percent() float64 {
	if d.Used+d.Avail == 0 {
		return 0
	}
	return float64(d.Used) * 100 / float64(d.Used+d.Avail)
}

// System reads metrics of the host running the node
type System struct {
	diskPath    string
	thermalZone string
	vcgencmd    string
}

func NewSystem(param config.SystemParam) *System {
	return &System{
		diskPath:    param.DiskPath,
		thermalZone: param.ThermalZone,
		vcgencmd:    "vcgencmd",
	}
}

func (s *System) DiskUsage() (DiskUsage, error) {
	return statfs(s.diskPath)
}

// Temperature returns the SoC temperature in °C
func (s *System) Temperature(ctx context.Context) (float64, error) {
	raw, err := os.ReadFile(s.thermalZone)
	if err == nil {
		return parseThermalZone(string(raw))
	}

	out, cmdErr := exec.CommandContext(ctx, s.vcgencmd, "measure_temp").Output()
	if cmdErr != nil {
		return 0, fmt.Errorf("no temperature source: %v, %v", err, cmdErr)
	}
	return parseMeasureTemp(string(out))
}

// parseThermalZone reads a sysfs millidegree value
func parseThermalZone(raw string) (float64, error) {
	milli, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid thermal zone value %q", raw)
	}
	return float64(milli) / 1000, nil
}

// parseMeasureTemp reads "temp=48.3'C"
func parseMeasureTemp(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "temp=")
	value = strings.TrimSuffix(value, "'C")
	temp, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid vcgencmd answer %q", raw)
	}
	return temp, nil
}
