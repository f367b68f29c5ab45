// Package datacache holds the in-memory snapshot of backend entities. Snapshots are
// replaced wholesale: there is no partial update.
package datacache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"

	"golang.org/x/sync/errgroup"
)

// Fetcher reads the full collection of a resource into out, a pointer to a slice.
type Fetcher interface {
	Fetch(ctx context.Context, resource models.Resource, out any) error
}

// Cache holds the current snapshot.
type Cache struct {
	mu      sync.RWMutex
	fetcher Fetcher
	logger  logging.Logger
	current *models.Snapshot
	started uint64
	now     func() time.Time
}

// New returns a cache holding an empty snapshot.
func New(fetcher Fetcher, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
		current: models.NewSnapshot(),
		now:     time.Now,
	}
}

// Snapshot returns the installed snapshot. Callers must not modify it.
func (c *Cache) Snapshot() *models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Load fetches resources in parallel and returns the next snapshot without installing it.
// Resources not listed are carried over from the installed snapshot and duplicates are
// fetched once. On error nothing is returned and the installed snapshot is untouched.
func (c *Cache) Load(ctx context.Context, resources ...models.Resource) (*models.Snapshot, error) {
	if len(resources) == 0 {
		resources = models.AllResources
	}
	resources = unique(resources)

	c.mu.Lock()
	c.started++
	gen := c.started
	next := c.current.Clone()
	c.mu.Unlock()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	loadedAt := make([]time.Time, len(resources))
	for i, r := range resources {
		target, err := next.Target(r)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			if err := c.fetcher.Fetch(gctx, r, target); err != nil {
				return fmt.Errorf("failed to load %s: %w", r, err)
			}
			loadedAt[i] = c.now()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, r := range resources {
		next.LoadedAt[r] = loadedAt[i]
		next.Generations[r] = gen
		c.logger.Debug("Resource loaded",
			logging.F(logging.FieldResource, r),
			logging.F(logging.FieldCount, next.Len(r)))
	}
	c.logger.Info("Data cache loaded",
		logging.F(logging.FieldCount, len(resources)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return next, nil
}

// Install makes s current and returns the installed snapshot. When loads overlap, each
// resource keeps the data of the load that started last: resources s holds from an older
// load than the installed ones are ignored, and s is merged into a new snapshot instead of
// being installed as is.
func (c *Cache) Install(s *models.Snapshot) *models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		return c.current
	}

	var newer, older []models.Resource
	for _, r := range models.AllResources {
		switch g := s.Generation(r); {
		case g > c.current.Generation(r):
			newer = append(newer, r)
		case g < c.current.Generation(r):
			older = append(older, r)
		}
	}
	switch {
	case len(older) == 0:
		c.current = s
	case len(newer) == 0:
		c.logger.Debug("Dropping superseded snapshot")
	default:
		merged := c.current.Clone()
		for _, r := range newer {
			merged.Adopt(s, r)
		}
		c.current = merged
	}
	return c.current
}

// Reload loads and installs in one call and returns the installed snapshot.
func (c *Cache) Reload(ctx context.Context, resources ...models.Resource) (*models.Snapshot, error) {
	next, err := c.Load(ctx, resources...)
	if err != nil {
		return nil, err
	}
	return c.Install(next), nil
}

func unique(resources []models.Resource) []models.Resource {
	seen := make(map[models.Resource]struct{}, len(resources))
	out := make([]models.Resource, 0, len(resources))
	for _, r := range resources {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
