package screen

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/jypelle/btclcd/internal/images"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"image"
	"math"
)

// Placeholder texts for absent values
const (
	NotAvailable = "N/A"
	Pending      = "..."
	Syncing      = "Syncing..."
)

const AppTitle = "MyBTCBox"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

func currencyOf(l *Layout, snap *snapshot.Snapshot) string {
	if c := snap.Currency(); c != "" {
		return c
	}
	return l.Currency
}

// region Logo

type Logo struct {
	layout *Layout
}

func (s *Logo) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(LogoScreen)
	if l.logo != nil {
		Fill(img, black)
		DrawScaled(img, l.logo, true)
		return img, nil
	}

	// Coin glyph with the app title below
	coinArea := image.Rect(0, 0, l.Width, l.Height*3/4).Inset(l.Height / 16)
	DrawScaled(img.SubImage(coinArea).(*image.RGBA), images.CoinImage, true)
	glyph := l.Face(l.Scaled(56), true)
	AddTextAt(img, glyph, coinArea.Min.X+coinArea.Dx()/2, coinArea.Min.Y+coinArea.Dy()/2-glyph.Metrics().Ascent.Round()/2-2, "B", white)
	AddText(img, l.FitFace(AppTitle, l.Scaled(20), true, l.Width-4), 0, l.Height*3/4+2, AppTitle, AlignCenter, white)
	return img, nil
}

// endregion

// region Price

type Price struct {
	layout *Layout
}

// priceText returns the price and the number of sats per currency unit
func priceText(currency string, snap *snapshot.Snapshot) (price string, sats string) {
	value, ok := snap.Get(snapshot.Price)
	if !ok || value <= 0 {
		return NotAvailable, NotAvailable
	}
	price = currencySymbols[currency] + humanize.Comma(int64(math.Round(value)))
	sats = humanize.Comma(int64(1e8 / value))
	return price, sats
}

func temperatureText(snap *snapshot.Snapshot) string {
	return snap.Format(snapshot.Temperature, func(v float64) string {
		return fmt.Sprintf("%.1f°C", v)
	}, "")
}

func (s *Price) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(PriceScreen)
	currency := currencyOf(l, snap)
	price, sats := priceText(currency, snap)

	AddCaption(img, 5, l.Y(5), currency, AlignRight, grey)
	AddText(img, l.FitFace(price, l.Scaled(30), true, l.Width-6), 0, l.Y(22), price, AlignCenter, orange)
	AddText(img, l.FitFace(sats, l.Scaled(30), true, l.Width-6), 0, l.Y(80), sats, AlignCenter, white)
	AddCaption(img, 5, l.Y(140), "SATS / "+currency, AlignLeft, grey)
	AddCaption(img, 5, l.Y(140), temperatureText(snap), AlignRight, grey)
	return img, nil
}

// endregion

// region Fees

type Fees struct {
	layout *Layout
}

func feeText(snap *snapshot.Snapshot, metric snapshot.Metric) string {
	return snap.Format(metric, func(v float64) string {
		return fmt.Sprintf("~%d sat/vB", int64(math.Round(v)))
	}, Pending)
}

func mempoolText(snap *snapshot.Snapshot) string {
	return snap.Format(snapshot.MempoolSize, func(v float64) string {
		return humanize.Comma(int64(v))
	}, Pending)
}

func (s *Fees) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(FeesScreen)
	medium := l.Face(l.Scaled(16), true)

	AddCaption(img, 0, l.Y(6), "Mempool", AlignCenter, grey)
	mempool := mempoolText(snap)
	AddText(img, l.FitFace(mempool, l.Scaled(28), true, l.Width-6), 0, l.Y(20), mempool, AlignCenter, white)
	AddCaption(img, 0, l.Y(54), "Transactions", AlignCenter, grey)

	AddCaption(img, 0, l.Y(80), "High Priority", AlignCenter, grey)
	AddText(img, medium, 0, l.Y(94), feeText(snap, snapshot.FeeHigh), AlignCenter, orange)
	AddCaption(img, 0, l.Y(118), "Medium Priority", AlignCenter, grey)
	AddText(img, medium, 0, l.Y(132), feeText(snap, snapshot.FeeMedium), AlignCenter, white)
	return img, nil
}

// endregion

// region Height

type Height struct {
	layout *Layout
}

func heightText(snap *snapshot.Snapshot) string {
	return snap.Format(snapshot.BlockHeight, func(v float64) string {
		return humanize.Comma(int64(v))
	}, Pending)
}

func (s *Height) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(HeightScreen)
	height := heightText(snap)

	AddCaption(img, 0, l.Y(30), "Block Height", AlignCenter, grey)
	face := l.FitFace(height, l.Scaled(34), true, l.Width-6)
	AddText(img, face, 0, (l.Height-face.Metrics().Height.Round())/2, height, AlignCenter, orange)
	return img, nil
}

// endregion

// region Time

// Clock shows the local time, it does not use the snapshot
type Clock struct {
	layout *Layout
}

func clockText(l *Layout) (hour, weekday, date string) {
	now := l.now()
	return now.Format("3:04 PM"), now.Format("Monday"), now.Format("January 02")
}

func (s *Clock) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(TimeScreen)
	hour, weekday, date := clockText(l)

	AddText(img, l.FitFace(hour, l.Scaled(30), true, l.Width-4), 0, l.Y(24), hour, AlignCenter, white)
	AddText(img, l.FitFace(weekday, l.Scaled(24), false, l.Width-4), 0, l.Y(68), weekday, AlignCenter, orange)
	AddText(img, l.FitFace(date, l.Scaled(20), false, l.Width-4), 0, l.Y(102), date, AlignCenter, white)
	return img, nil
}

// endregion

// region Network

type Network struct {
	layout *Layout
}

func networkText(snap *snapshot.Snapshot) (peers, chainSize string) {
	peers = snap.Format(snapshot.Peers, func(v float64) string {
		return humanize.Comma(int64(v))
	}, Pending)
	chainSize = snap.Format(snapshot.ChainSize, func(v float64) string {
		return fmt.Sprintf("%.2f GB", v/1e9)
	}, Syncing)
	return peers, chainSize
}

func (s *Network) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(NetworkScreen)
	peers, chainSize := networkText(snap)
	value := l.Face(l.Scaled(20), true)

	AddCaption(img, 0, l.Y(20), "Peers", AlignCenter, grey)
	AddText(img, value, 0, l.Y(40), peers, AlignCenter, white)
	AddCaption(img, 0, l.Y(90), "Chain Size", AlignCenter, grey)
	AddText(img, l.FitFace(chainSize, l.Scaled(20), true, l.Width-6), 0, l.Y(110), chainSize, AlignCenter, orange)
	return img, nil
}

// endregion

// region Storage

type Storage struct {
	layout *Layout
}

type storageInfo struct {
	usage string
	used  string
	avail string
	total string
	ratio float64
}

func storageText(snap *snapshot.Snapshot) storageInfo {
	bytes := func(v float64) string {
		return humanize.Bytes(uint64(v))
	}
	info := storageInfo{
		usage: "Disk Usage: " + NotAvailable,
		used:  snap.Format(snapshot.DiskUsed, bytes, NotAvailable),
		avail: snap.Format(snapshot.DiskAvail, bytes, NotAvailable),
		total: snap.Format(snapshot.DiskTotal, bytes, NotAvailable),
	}

	used, okUsed := snap.Get(snapshot.DiskUsed)
	avail, okAvail := snap.Get(snapshot.DiskAvail)
	if okUsed && okAvail && used+avail > 0 {
		info.ratio = used / (used + avail)
		info.usage = fmt.Sprintf("Disk Usage: %d%%", int(math.Round(info.ratio*100)))
	}
	return info
}

func (s *Storage) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(StorageScreen)
	info := storageText(snap)

	AddText(img, l.FitFace(info.usage, l.Scaled(16), true, l.Width-4), 0, l.Y(20), info.usage, AlignCenter, white)
	AddCaption(img, 10, l.Y(60), "Used: "+info.used, AlignLeft, white)
	AddCaption(img, 10, l.Y(80), "Avail: "+info.avail, AlignLeft, white)
	AddCaption(img, 10, l.Y(100), "Total: "+info.total, AlignLeft, white)
	AddProgressBar(img, image.Rect(10, l.Y(126), l.Width-10, l.Y(126)+l.Y(14)), info.ratio, orange)
	return img, nil
}

// endregion

// region Placeholder

// Placeholder stands for a screen without data source, the snapshot is ignored
type Placeholder struct {
	layout *Layout
	Title  string
	Status string
}

func NewPlaceholder(layout *Layout, title string, status string) *Placeholder {
	return &Placeholder{layout: layout, Title: title, Status: status}
}

func (s *Placeholder) Render(snap *snapshot.Snapshot) (*image.RGBA, error) {
	l := s.layout
	img := l.Canvas(s.Title)
	AddText(img, l.FitFace(s.Title, l.Scaled(24), true, l.Width-4), 0, l.Y(40), s.Title, AlignCenter, white)
	AddText(img, l.FitFace(s.Status, l.Scaled(16), false, l.Width-4), 0, l.Y(76), s.Status, AlignCenter, grey)
	return img, nil
}

// endregion

// region Splash and goodbye

// Splash is shown while the first data is fetched
func Splash(l *Layout) *image.RGBA {
	img := image.NewRGBA(l.Bounds())
	FillGradient(img, orange, black)
	AddText(img, l.FitFace(AppTitle, l.Scaled(26), true, l.Width-4), 0, l.Y(50), AppTitle, AlignCenter, white)
	AddCaption(img, 0, l.Y(96), "Initializing...", AlignCenter, white)
	return img
}

// Goodbye is the last frame before the panel is released
func Goodbye(l *Layout) *image.RGBA {
	img := image.NewRGBA(l.Bounds())
	Fill(img, black)
	face := l.FitFace("Goodbye!", l.Scaled(24), true, l.Width-4)
	AddText(img, face, 0, (l.Height-face.Metrics().Height.Round())/2, "Goodbye!", AlignCenter, white)
	return img
}

// endregion
