package provider

import (
	"context"
	"fmt"
	"github.com/jypelle/btclcd/internal/srv/config"
	"github.com/jypelle/btclcd/internal/srv/snapshot"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

type PriceFetcher interface {
	FetchPrice(ctx context.Context, currency string) (float64, error)
}

type ChainFetcher interface {
	FetchChainMetric(ctx context.Context, metric snapshot.Metric) (float64, error)
}

type SystemReader interface {
	DiskUsage() (DiskUsage, error)
	Temperature(ctx context.Context) (float64, error)
}

// Provider gathers every metric of a snapshot. Sources are read concurrently,
// each call bounded by its own timeout. A failing source leaves its metrics
// at their last known value, or absent when it never answered.
type Provider struct {
	currency string
	price    PriceFetcher
	chain    ChainFetcher
	system   SystemReader
	timeout  time.Duration
	now      func() time.Time

	lock sync.Mutex
	last *snapshot.Snapshot
}

// NewProvider bounds every source call by timeout, 0 means no bound
func NewProvider(currency string, price PriceFetcher, chain ChainFetcher, system SystemReader, timeout time.Duration) *Provider {
	return &Provider{
		currency: currency,
		price:    price,
		chain:    chain,
		system:   system,
		timeout:  timeout,
		now:      time.Now,
	}
}

// NewServerProvider wires the providers described by the server config
func NewServerProvider(sc *config.ServerConfig) *Provider {
	timeout := sc.TimingParam.GetRequestTimeout()
	var chain ChainFetcher
	if sc.RpcParam.Enabled {
		chain = NewRpcClient(sc.RpcParam, timeout)
	}
	return NewProvider(
		sc.Currency,
		NewPriceClient(sc.PriceParam, timeout),
		chain,
		NewSystem(sc.SystemParam),
		timeout,
	)
}

func (p *Provider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

// FetchSnapshot returns a FetchError when no source answered
func (p *Provider) FetchSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	var (
		lock   sync.Mutex
		values = make(map[snapshot.Metric]float64)
		errs   []error
	)
	set := func(value float64, err error, metrics ...snapshot.Metric) {
		lock.Lock()
		defer lock.Unlock()
		for _, metric := range metrics {
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", metric, err))
				continue
			}
			values[metric] = value
		}
	}

	var g errgroup.Group

	if p.price != nil {
		g.Go(func() error {
			callCtx, cancel := p.callContext(ctx)
			defer cancel()
			price, err := p.price.FetchPrice(callCtx, p.currency)
			if err == nil && price <= 0 {
				err = fmt.Errorf("invalid price %v", price)
			}
			if err != nil {
				logrus.Debugf("Unable to get %s price: %v", p.currency, err)
			}
			set(price, err, snapshot.Price)
			return nil
		})
	}

	if p.chain != nil {
		for _, metric := range ChainMetrics {
			metric := metric
			g.Go(func() error {
				callCtx, cancel := p.callContext(ctx)
				defer cancel()
				value, err := p.chain.FetchChainMetric(callCtx, metric)
				if err != nil {
					if InWarmup(err) {
						logrus.Debugf("Node is warming up, no %s yet", metric)
					} else {
						logrus.Debugf("Unable to get %s: %v", metric, err)
					}
				}
				set(value, err, metric)
				return nil
			})
		}
	}

	if p.system != nil {
		g.Go(func() error {
			usage, err := p.system.DiskUsage()
			if err != nil {
				logrus.Debugf("Unable to get disk usage: %v", err)
			}
			set(float64(usage.Total), err, snapshot.DiskTotal)
			set(float64(usage.Used), err, snapshot.DiskUsed)
			set(float64(usage.Avail), err, snapshot.DiskAvail)
			return nil
		})
		g.Go(func() error {
			callCtx, cancel := p.callContext(ctx)
			defer cancel()
			temp, err := p.system.Temperature(callCtx)
			if err != nil {
				logrus.Debugf("Unable to get temperature: %v", err)
			}
			set(temp, err, snapshot.Temperature)
			return nil
		})
	}

	_ = g.Wait()

	if len(values) == 0 {
		return nil, snapshot.NewFetchError("all sources", errs...)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	// Metrics of failing sources keep their last known value
	carried := 0
	for _, metric := range snapshot.Metrics {
		if _, ok := values[metric]; ok {
			continue
		}
		if value, ok := p.last.Get(metric); ok {
			values[metric] = value
			carried++
		}
	}
	if carried > 0 {
		logrus.Debugf("Keeping %d last known metrics", carried)
	}

	snap := snapshot.New(p.currency, p.now(), values)
	p.last = snap
	return snap, nil
}
