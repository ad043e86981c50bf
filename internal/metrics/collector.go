package metrics

import (
	"os"
	"time"

	"survey-viewer/internal/catalog"
	"survey-viewer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() catalog.Stats
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty when
// persistence is disabled.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	FoldersTotal.Set(float64(stats.Folders))
	ImagesTotal.WithLabelValues(string(catalog.StatusProcessed)).Set(float64(stats.Processed))
	ImagesTotal.WithLabelValues(string(catalog.StatusProcessing)).Set(float64(stats.Processing))
	ImagesTotal.WithLabelValues(string(catalog.StatusProcessingError)).Set(float64(stats.Errored))
	FavoritesTotal.WithLabelValues("folder").Set(float64(stats.FavoriteFolders))
	FavoritesTotal.WithLabelValues("image").Set(float64(stats.FavoriteImages))

	logging.Debug("Metrics collected: folders=%d, images=%d, processing=%d",
		stats.Folders, stats.Images, stats.Processing)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}
	for label, path := range map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	} {
		if info, err := os.Stat(path); err == nil {
			DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
		}
	}
}
