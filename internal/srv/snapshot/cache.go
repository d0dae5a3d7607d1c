package snapshot

import (
	"context"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"sync"
	"time"
)

// Fetcher gathers a fresh snapshot from the upstream data sources
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// FetchError is returned by a Fetcher when no data could be gathered
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Source == "" {
		return "fetch failed: " + e.Err.Error()
	}
	return "fetch " + e.Source + " failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError joins errs into a single FetchError
func NewFetchError(source string, errs ...error) *FetchError {
	err := errors.Join(errs...)
	if err == nil {
		err = errors.New("no data")
	}
	return &FetchError{Source: source, Err: err}
}

// Cache bounds the rate of calls to its Fetcher: a fetch happens only when no
// snapshot exists yet or the last successful one is at least minInterval old.
// Fetch failures are never returned, the stale snapshot stays in use.
type Cache struct {
	fetcher      Fetcher
	minInterval  time.Duration
	fetchTimeout time.Duration

	lock        sync.RWMutex
	current     *Snapshot
	lastRefresh time.Time

	group singleflight.Group
}

func NewCache(fetcher Fetcher, minInterval time.Duration, fetchTimeout time.Duration) *Cache {
	return &Cache{
		fetcher:      fetcher,
		minInterval:  minInterval,
		fetchTimeout: fetchTimeout,
	}
}

// Snapshot returns the snapshot to render at now
func (c *Cache) Snapshot(ctx context.Context, now time.Time) *Snapshot {
	if snap, fresh := c.cached(now); fresh {
		return snap
	}

	v, _, _ := c.group.Do("refresh", func() (interface{}, error) {
		// Another caller may have refreshed while we were waiting
		if snap, fresh := c.cached(now); fresh {
			return snap, nil
		}
		return c.refresh(ctx, now), nil
	})
	return v.(*Snapshot)
}

// LastRefresh is the time of the last successful fetch
func (c *Cache) LastRefresh() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.lastRefresh
}

func (c *Cache) cached(now time.Time) (*Snapshot, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.current != nil && now.Sub(c.lastRefresh) < c.minInterval {
		return c.current, true
	}
	return c.current, false
}

func (c *Cache) refresh(ctx context.Context, now time.Time) *Snapshot {
	logrus.Debugf("Fetching fresh data ...")

	fetchCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	snap, err := c.fetcher.FetchSnapshot(fetchCtx)
	if err == nil && snap == nil {
		err = &FetchError{Err: errors.New("no snapshot returned")}
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if err != nil {
		if c.current != nil {
			logrus.Warnf("Unable to refresh data, keeping data from %s: %v", c.lastRefresh.Format(time.RFC3339), err)
			return c.current
		}
		logrus.Warnf("Unable to refresh data, no data available yet: %v", err)
		return Empty()
	}

	c.current = snap
	c.lastRefresh = now
	logrus.Debugf("Data refreshed: %d metrics", snap.Len())
	return snap
}
