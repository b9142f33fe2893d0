package metrics

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/flashcat/flash/internal/filesystem"
	"github.com/flashcat/flash/internal/logging"
)

// StatsProvider reports the current catalog contents snapshot, per §4.13.
// No type in this module implements it; stats.Collector has no GetStats
// method.
type StatsProvider interface {
	GetStats() Stats
}

// StorageHealthChecker reports SQLite file health (existence, writability)
// for the storage error counters. No type in this module implements it;
// the catalog does not.
type StorageHealthChecker interface {
	CheckStorageHealth()
	UpdateDBMetrics()
}

// Stats holds a point-in-time snapshot of catalog contents.
type Stats struct {
	TotalAssets int
	TotalImages int
	TotalVideos int
	TotalOther  int
	TotalBytes  int64
	TotalAlbums int
	TotalPersons int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider        StatsProvider
	storageHealthChecker StorageHealthChecker
	dbPath               string
	derivedDir           string
	interval             time.Duration
	stopChan             chan struct{}
	lastGCCount          uint32
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// SetStorageHealthChecker sets the checker used for storage health monitoring.
func (c *Collector) SetStorageHealthChecker(checker StorageHealthChecker) {
	c.storageHealthChecker = checker
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

// SetDerivedDir sets the derived-artifact directory path whose size is
// periodically measured, per §3/§7 "content-addressed derived artifacts."
func (c *Collector) SetDerivedDir(dir string) {
	c.derivedDir = dir
}

func (c *Collector) collectLoop() {
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
	c.collectMemoryMetrics()
	c.collectDBSize()
	c.collectDerivedCacheSize()

	if c.storageHealthChecker != nil {
		c.storageHealthChecker.CheckStorageHealth()
		c.storageHealthChecker.UpdateDBMetrics()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	AssetsTotal.WithLabelValues("image").Set(float64(stats.TotalImages))
	AssetsTotal.WithLabelValues("video").Set(float64(stats.TotalVideos))
	AssetsTotal.WithLabelValues("other").Set(float64(stats.TotalOther))
	AssetsBytesTotal.Set(float64(stats.TotalBytes))
	AlbumsTotal.Set(float64(stats.TotalAlbums))
	PersonsTotal.Set(float64(stats.TotalPersons))

	logging.Debug("metrics collected: assets=%d images=%d videos=%d albums=%d",
		stats.TotalAssets, stats.TotalImages, stats.TotalVideos, stats.TotalAlbums)
}

func (c *Collector) collectMemoryMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	GoMemAllocBytes.Set(float64(memStats.Alloc))
	GoMemSysBytes.Set(float64(memStats.Sys))

	if memStats.NumGC > c.lastGCCount {
		GoGCRuns.Add(float64(memStats.NumGC - c.lastGCCount))
		c.lastGCCount = memStats.NumGC
	}

	GoGCPauseTotalSeconds.Add(float64(memStats.PauseTotalNs) / 1e9)
	if memStats.NumGC > 0 {
		idx := (memStats.NumGC + 255) % 256
		GoGCPauseLastSeconds.Set(float64(memStats.PauseNs[idx]) / 1e9)
	}

	GoGCCPUFraction.Set(memStats.GCCPUFraction)

	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < 1<<62 {
		GoMemLimit.Set(float64(limit))
	}
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	retryConfig := filesystem.DefaultRetryConfig()

	if fileInfo, err := filesystem.StatWithRetry(c.dbPath, retryConfig); err == nil {
		DBSizeBytes.WithLabelValues("main").Set(float64(fileInfo.Size()))
	} else if !os.IsNotExist(err) {
		logging.Debug("failed to get catalog file size: %v", err)
	}

	if walInfo, err := filesystem.StatWithRetry(c.dbPath+"-wal", retryConfig); err == nil {
		DBSizeBytes.WithLabelValues("wal").Set(float64(walInfo.Size()))
	} else {
		DBSizeBytes.WithLabelValues("wal").Set(0)
	}

	if shmInfo, err := filesystem.StatWithRetry(c.dbPath+"-shm", retryConfig); err == nil {
		DBSizeBytes.WithLabelValues("shm").Set(float64(shmInfo.Size()))
	} else {
		DBSizeBytes.WithLabelValues("shm").Set(0)
	}
}

func (c *Collector) collectDerivedCacheSize() {
	if c.derivedDir == "" {
		return
	}

	start := time.Now()
	cacheSize, err := c.getDirSizeWithRetry(c.derivedDir)
	elapsed := time.Since(start)

	if err != nil {
		if !os.IsNotExist(err) {
			logging.Debug("failed to get derived artifact cache size (took %v): %v", elapsed, err)
		}
		ThumbnailCacheSize.Set(0)
		return
	}

	ThumbnailCacheSize.Set(float64(cacheSize))
}

// getDirSizeWithRetry walks a directory tree using retry-aware filesystem
// operations, since derived artifacts frequently live on a network volume
// alongside the source media.
func (c *Collector) getDirSizeWithRetry(root string) (int64, error) {
	retryConfig := filesystem.DefaultRetryConfig()

	var size int64
	var count int64
	var walkDir func(dir string) error

	walkDir = func(dir string) error {
		entries, err := filesystem.ReadDirWithRetry(dir, retryConfig)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			fullPath := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				if err := walkDir(fullPath); err != nil {
					logging.Debug("failed to walk subdirectory %s: %v", fullPath, err)
				}
				continue
			}

			info, err := filesystem.StatWithRetry(fullPath, retryConfig)
			if err != nil {
				logging.Debug("failed to stat file %s: %v", fullPath, err)
				continue
			}
			size += info.Size()
			count++
		}
		return nil
	}

	err := walkDir(root)
	ThumbnailCacheCount.Set(float64(count))
	return size, err
}
