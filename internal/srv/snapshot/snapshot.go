package snapshot

import (
	"time"
)

type Metric int

const (
	Price Metric = iota
	BlockHeight
	FeeHigh
	FeeMedium
	MempoolSize
	Peers
	ChainSize
	DiskUsed
	DiskAvail
	DiskTotal
	Temperature
)

var metricNames = []string{
	"price",
	"block_height",
	"fee_high",
	"fee_medium",
	"mempool_size",
	"peers",
	"chain_size",
	"disk_used",
	"disk_avail",
	"disk_total",
	"temperature",
}

// Metrics lists every known metric
var Metrics = []Metric{Price, BlockHeight, FeeHigh, FeeMedium, MempoolSize, Peers, ChainSize, DiskUsed, DiskAvail, DiskTotal, Temperature}

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return "unknown"
	}
	return metricNames[m]
}

// Snapshot is a point in time bundle of metrics, any of them may be absent.
// A Snapshot is never modified after creation.
type Snapshot struct {
	values    map[Metric]float64
	currency  string
	fetchedAt time.Time
}

// New copies values into a new Snapshot
func New(currency string, fetchedAt time.Time, values map[Metric]float64) *Snapshot {
	s := &Snapshot{
		values:    make(map[Metric]float64, len(values)),
		currency:  currency,
		fetchedAt: fetchedAt,
	}
	for metric, value := range values {
		s.values[metric] = value
	}
	return s
}

// Empty returns a snapshot with every metric absent
func Empty() *Snapshot {
	return &Snapshot{values: map[Metric]float64{}}
}

func (s *Snapshot) Get(metric Metric) (float64, bool) {
	if s == nil {
		return 0, false
	}
	value, ok := s.values[metric]
	return value, ok
}

func (s *Snapshot) Has(metric Metric) bool {
	_, ok := s.Get(metric)
	return ok
}

// Format applies format to the metric value, or returns placeholder when absent
func (s *Snapshot) Format(metric Metric, format func(float64) string, placeholder string) string {
	value, ok := s.Get(metric)
	if !ok {
		return placeholder
	}
	return format(value)
}

// Len is the number of present metrics
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

func (s *Snapshot) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Snapshot) Currency() string {
	if s == nil {
		return ""
	}
	return s.currency
}

// FetchedAt is the zero time for an empty snapshot
func (s *Snapshot) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}
