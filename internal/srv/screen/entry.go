package screen

import (
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"image"
	"time"
)

// Renderer draws one frame from a snapshot
type Renderer interface {
	Render(snap *snapshot.Snapshot) (*image.RGBA, error)
}

type RendererFunc func(snap *snapshot.Snapshot) (*image.RGBA, error)

func (f RendererFunc) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	return f(snap)
}

// Entry is a registered screen
type Entry struct {
	Name     string
	Alias    string
	Duration time.Duration
	Renderer Renderer
}

// Screen names, in registry order
const (
	LogoScreen     = "Logo"
	PriceScreen    = "Price"
	FeesScreen     = "Fees"
	HeightScreen   = "Height"
	TimeScreen     = "Time"
	NetworkScreen  = "Network"
	ChannelsScreen = "Channels"
	StorageScreen  = "Storage"
)

var backgroundNames = []string{LogoScreen, PriceScreen, FeesScreen, HeightScreen, TimeScreen, NetworkScreen, ChannelsScreen, StorageScreen}

const DefaultDuration = 30 * time.Second

// Registry is the ordered, immutable list of every known screen
type Registry struct {
	entries []Entry
}

// NewRegistry builds every screen on layout. duration gives the display time
// of a screen from its name.
func NewRegistry(layout *Layout, duration func(name string) time.Duration) *Registry {
	if duration == nil {
		duration = func(string) time.Duration { return DefaultDuration }
	}
	entry := func(name, alias string, renderer Renderer) Entry {
		return Entry{Name: name, Alias: alias, Duration: duration(name), Renderer: renderer}
	}
	return &Registry{
		entries: []Entry{
			entry(LogoScreen, "", &Logo{layout: layout}),
			entry(PriceScreen, "Screen1", &Price{layout: layout}),
			entry(FeesScreen, "Screen2", &Fees{layout: layout}),
			entry(HeightScreen, "Screen3", &Height{layout: layout}),
			entry(TimeScreen, "Screen4", &Clock{layout: layout}),
			entry(NetworkScreen, "Screen5", &Network{layout: layout}),
			entry(ChannelsScreen, "Screen6", NewPlaceholder(layout, ChannelsScreen, "Coming Soon")),
			entry(StorageScreen, "Screen7", &Storage{layout: layout}),
		},
	}
}

// Entries returns a copy of every entry in registry order
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Select keeps the entries matching selector and the entries named in always,
// in registry order
func (r *Registry) Select(selector *Selector, always ...string) []Entry {
	var selected []Entry
	for _, e := range r.entries {
		if selector.Match(e) || contains(always, e.Name) {
			selected = append(selected, e)
		}
	}
	return selected
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
