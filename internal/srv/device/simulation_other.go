//go:build !amd64

package device

import (
	"github.com/sirupsen/logrus"
	"image"
)

// Simulation only keeps the last frame, the window needs amd64
type Simulation struct {
	bounds  image.Rectangle
	lastImg image.Image
}

func NewSimulation(width, height int) *Simulation {
	logrus.Warnf("Simulation window is only available on amd64, frames won't be shown")
	return &Simulation{bounds: image.Rect(0, 0, width, height)}
}

func (s *Simulation) Bounds() image.Rectangle {
	return s.bounds
}

func (s *Simulation) ShowImage(img image.Image) error {
	s.lastImg = img
	return nil
}

func (s *Simulation) Halt() error {
	return nil
}
