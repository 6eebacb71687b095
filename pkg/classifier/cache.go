package classifier

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/config"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/registry"
)

// TypesLoader loads the category pattern table.
type TypesLoader func() (*config.ModelTypes, error)

// Cache memoizes the pattern table and the classification until Invalidate is
// called. Changes on disk are not observed before that.
type Cache struct {
	mu       sync.RWMutex
	types    *config.ModelTypes
	models   *Classified
	load     TypesLoader
	registry registry.FileRegistry
	log      *logrus.Entry
}

func NewCache(load TypesLoader, reg registry.FileRegistry) *Cache {
	return &Cache{
		load:     load,
		registry: reg,
		log:      logger.GetLogger("classifier"),
	}
}

// NewFileCache loads the pattern table from path on demand.
func NewFileCache(path string, reg registry.FileRegistry) *Cache {
	return NewCache(func() (*config.ModelTypes, error) {
		return config.LoadModelTypes(path)
	}, reg)
}

// ModelTypes returns the cached pattern table, loading it on first use.
func (c *Cache) ModelTypes() (*config.ModelTypes, error) {
	// Fast path: read lock
	c.mu.RLock()
	types := c.types
	c.mu.RUnlock()

	if types != nil {
		return types, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelTypesLocked()
}

func (c *Cache) modelTypesLocked() (*config.ModelTypes, error) {
	if c.types != nil {
		return c.types, nil
	}

	types, err := c.load()
	if err != nil {
		loadFailures.Inc()
		return nil, err
	}

	c.log.Debugf("Loaded %d model types", types.Len())
	c.types = types
	return types, nil
}

// Classified returns the cached classification, classifying on first use.
func (c *Cache) Classified() (*Classified, error) {
	// Fast path: read lock
	c.mu.RLock()
	models := c.models
	c.mu.RUnlock()

	if models != nil {
		return models, nil
	}

	// Slow path: write lock and build
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.models != nil {
		return c.models, nil
	}

	types, err := c.modelTypesLocked()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	entries := Checkpoints(c.registry)
	models = Classify(types, entries)
	observeClassification(models, time.Since(start))

	c.log.Infof("Classified %s checkpoints into %d categories in %s",
		humanize.Comma(int64(len(entries))), len(models.Types()), time.Since(start).Truncate(time.Microsecond))

	c.models = models
	return models, nil
}

// Invalidate drops both cached values so the next access reloads them.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = nil
	c.models = nil
	invalidations.Inc()
	c.log.Debug("Cache cleared")
}
