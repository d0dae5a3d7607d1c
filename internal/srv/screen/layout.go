package screen

import (
	"fmt"
	"github.com/jypelle/btclcd/internal/images"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"time"
)

var (
	black  = color.RGBA{0, 0, 0, 255}
	white  = color.RGBA{255, 255, 255, 255}
	grey   = color.RGBA{150, 150, 150, 255}
	orange = images.CoinColor
)

type faceKey struct {
	size float64
	bold bool
}

// Layout holds what every renderer shares: the canvas size, the fonts and
// the optional images found in the images folder
type Layout struct {
	Width    int
	Height   int
	Currency string
	Now      func() time.Time

	logo        image.Image
	backgrounds map[string]image.Image

	bold    *opentype.Font
	regular *opentype.Font

	faceLock sync.Mutex
	faces    map[faceKey]font.Face
}

func NewLayout(width, height int, currency string) (*Layout, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &Layout{
		Width:       width,
		Height:      height,
		Currency:    currency,
		Now:         time.Now,
		backgrounds: make(map[string]image.Image),
		bold:        bold,
		regular:     regular,
		faces:       make(map[faceKey]font.Face),
	}, nil
}

// LoadImages reads the logo and the per screen backgrounds (<Name>.png) from
// folder. Missing files are not an error, the screens fall back to plain black.
func (l *Layout) LoadImages(folder string, logoFilename string) {
	if logoFilename != "" {
		logo, err := images.LoadImage(filepath.Join(folder, logoFilename))
		if err != nil {
			logrus.Infof("No logo image, using the default one: %v", err)
		} else {
			l.logo = logo
		}
	}
	for _, name := range backgroundNames {
		bg, err := images.LoadImage(filepath.Join(folder, name+".png"))
		if err != nil {
			continue
		}
		logrus.Debugf("Background loaded for %s screen", name)
		l.backgrounds[name] = bg
	}
}

// Bounds of every frame produced with this layout
func (l *Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}

// Face returns a cached font face of the given pixel size
func (l *Layout) Face(size float64, bold bool) font.Face {
	l.faceLock.Lock()
	defer l.faceLock.Unlock()

	key := faceKey{size: size, bold: bold}
	if face, ok := l.faces[key]; ok {
		return face
	}
	f := l.regular
	if bold {
		f = l.bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// Only happens with a non positive size
		logrus.Panicf("Can't create %v px font face: %v", size, err)
	}
	l.faces[key] = face
	return face
}

// Scaled converts a size designed for a 128x160 canvas to this layout
func (l *Layout) Scaled(size float64) float64 {
	ratio := float64(l.Height) / 160
	if r := float64(l.Width) / 128; r < ratio {
		ratio = r
	}
	s := size * ratio
	if s < 6 {
		return 6
	}
	return s
}

// Y converts a vertical position designed for a 128x160 canvas
func (l *Layout) Y(y int) int {
	return y * l.Height / 160
}

// Canvas returns a new frame holding the background of the named screen
func (l *Layout) Canvas(name string) *image.RGBA {
	img := image.NewRGBA(l.Bounds())
	if bg, ok := l.backgrounds[name]; ok {
		DrawScaled(img, bg, false)
	} else {
		Fill(img, black)
	}
	return img
}

func (l *Layout) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}
