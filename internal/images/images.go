package images

import (
	"fmt"
	"github.com/jypelle/btclcd/internal/tool"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
)

// Bitcoin orange
var CoinColor = color.RGBA{0xF7, 0x93, 0x1A, 0xFF}

// CoinImage is the fallback logo: an orange coin with a darker rim
var CoinImage image.Image

func init() {
	CoinImage = newCoinImage(96)
}

// LoadImage decodes a png or jpeg file
func LoadImage(filename string) (image.Image, error) {
	exists, err := tool.IsFileExists(filename)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("image %s not found", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("can't decode image %s: %w", filename, err)
	}
	return img, nil
}

func newCoinImage(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rim := color.RGBA{0xC4, 0x6F, 0x0C, 0xFF}
	center := float64(size-1) / 2
	radius := float64(size) / 2

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-center, float64(y)-center)
			switch {
			case d <= radius-6:
				img.SetRGBA(x, y, CoinColor)
			case d <= radius:
				img.SetRGBA(x, y, rim)
			}
		}
	}
	return img
}
