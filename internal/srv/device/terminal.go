package device

import (
	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"image"
	"image/color"
	"os"
	"sync"
)

// Terminal renders the frames with coloured half blocks, two pixels per cell
type Terminal struct {
	lock      sync.Mutex
	screen    tcell.Screen
	bounds    image.Rectangle
	on        bool
	lastImg   image.Image
	interrupt func()
	done      chan struct{}
}

func NewTerminal(width, height int) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return newTerminal(screen, width, height, interruptProcess), nil
}

func newTerminal(screen tcell.Screen, width, height int, interrupt func()) *Terminal {
	t := &Terminal{
		screen:    screen,
		bounds:    image.Rect(0, 0, width, height),
		on:        true,
		interrupt: interrupt,
		done:      make(chan struct{}),
	}
	screen.HideCursor()
	screen.Clear()
	go t.pollEvents()
	return t
}

func (t *Terminal) pollEvents() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			// Screen finalized
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				logrus.Debugf("Quit asked from terminal")
				t.interrupt()
			}
		case *tcell.EventResize:
			t.lock.Lock()
			t.draw()
			t.lock.Unlock()
			t.screen.Sync()
		}
	}
}

func (t *Terminal) Bounds() image.Rectangle {
	return t.bounds
}

func (t *Terminal) ShowImage(img image.Image) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.lastImg = img
	t.draw()
	return nil
}

// step is the number of image pixels per terminal column
func (t *Terminal) step(img image.Image) int {
	cols, rows := t.screen.Size()
	b := img.Bounds()
	step := 1
	for cols > 0 && rows > 0 && (b.Dx()/step > cols || b.Dy()/step > rows*2) {
		step++
	}
	return step
}

func (t *Terminal) draw() {
	t.screen.Clear()
	if t.on && t.lastImg != nil {
		img := t.lastImg
		b := img.Bounds()
		step := t.step(img)
		for cy := 0; 2*cy*step < b.Dy(); cy++ {
			for cx := 0; cx*step < b.Dx(); cx++ {
				x := b.Min.X + cx*step
				top := img.At(x, b.Min.Y+2*cy*step)
				bottom := img.At(x, b.Min.Y+(2*cy+1)*step)
				style := tcell.StyleDefault.Foreground(tcellColor(top)).Background(tcellColor(bottom))
				t.screen.SetContent(cx, cy, '▀', nil, style)
			}
		}
	}
	t.screen.Show()
}

func tcellColor(c color.Color) tcell.Color {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return tcell.NewRGBColor(int32(rgba.R), int32(rgba.G), int32(rgba.B))
}

func (t *Terminal) SetPower(on bool) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.on = on
	t.draw()
	return nil
}

func (t *Terminal) Halt() error {
	return t.SetPower(false)
}

// Close gives the terminal back
func (t *Terminal) Close() error {
	t.screen.Fini()
	<-t.done
	return nil
}

// interruptProcess asks the process to stop as a SIGINT would
func interruptProcess() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		logrus.Errorf("Unable to find own process: %v", err)
		return
	}
	if err := p.Signal(os.Interrupt); err != nil {
		logrus.Errorf("Unable to interrupt process: %v", err)
	}
}
