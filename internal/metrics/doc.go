// Package metrics provides Prometheus instrumentation for flashd.
//
// This package defines and exposes the metrics scraped by Prometheus to
// monitor the health, performance, and behavior of the indexing pipeline and
// HTTP API. All metrics are prefixed with "flash_" to avoid naming collisions
// with other applications on the same scrape target.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Catalog Metrics
//
// Monitor the SQLite catalog's query performance and storage:
//   - CatalogQueryTotal: Counter of queries by operation and status
//   - CatalogQueryDuration: Histogram of query duration by operation
//   - DBTransactionDuration: Histogram of transaction duration by kind
//   - DBConnectionsOpen: Gauge of open catalog connections
//   - DBSizeBytes: Gauge of catalog file sizes (main, WAL, SHM)
//   - DBStorageErrors: Counter of storage health check failures
//
// ## Pipeline Queue Metrics
//
// Track backpressure across the five bounded stage queues:
//   - QueueDepth, QueueCapacity: current/configured size by queue
//   - QueueDropsTotal: items dropped from a non-blocking enqueue
//
// ## Discovery Metrics
//
// Track the directory-walk and fsnotify-watch scan phases:
//   - DiscoverRunsTotal, DiscoverFilesEmitted, DiscoverDirsWalked
//   - DiscoverWatchEventsTotal, DiscoverWatchErrors, DiscoverWatchedRoots
//
// ## Skip-Gate, Hashing, Metadata Extraction
//
//   - SkipGateDecisionsTotal: by outcome (skip/hash/rehash/metadata_only)
//   - HashOperationsTotal, HashDuration, HashBytesTotal: xxh3 + SHA-256
//   - MetaExtractTotal, MetaExtractDuration: by kind (image/video)
//
// ## Catalog Writer Metrics
//
//   - CatalogWriterBatchesTotal, CatalogWriterBatchSize
//   - CatalogWriterCommitDuration, CatalogWriterFatalErrors
//
// ## Derived-Artifact (Thumbnail) Metrics
//
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration
//   - ThumbnailGenerationDurationDetailed: by generation phase
//   - ThumbnailImageDecodeByFormat, ThumbnailMemoryUsageBytes
//   - ThumbnailFFmpegDuration, ThumbnailCacheSize, ThumbnailCacheCount
//
// ## Media Toolchain (ffmpeg/ffprobe, GPU) Metrics
//
//   - MediaToolJobsTotal, MediaToolJobDuration, MediaToolJobsInProgress
//   - MediaToolGPUEnabled, MediaToolGPUConsecutiveFailures, MediaToolGPUTripsTotal
//   - TranscoderCacheSizeBytes
//
// ## Supervisor Metrics
//
//   - ScannerOperationsTotal, ScannerOperationDuration
//   - ScannerRootsTotal, ScannerIsScanning, ScannerGlobalScanning
//
// ## Catalog Contents Metrics
//
//   - AssetsTotal (by kind), AssetsBytesTotal, AlbumsTotal, PersonsTotal
//   - StatsDiscoveryRate, StatsCommitRate
//
// ## Filesystem Metrics
//
// Populated via the [filesystem.Observer] implementation in observer.go, to
// avoid internal/filesystem importing this package directly (it would create
// an import cycle, since this package's Collector already depends on
// internal/filesystem for retry-aware stat/readdir):
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors, FilesystemRetryDuration
//
// ## Go Runtime Metrics
//
//   - GoMemAllocBytes, GoMemSysBytes, GoMemLimit
//   - GoGCRuns, GoGCPauseTotalSeconds, GoGCPauseLastSeconds, GoGCCPUFraction
//
// ## Application Info
//
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount promhttp.Handler() on the metrics
// endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "github.com/flashcat/flash/internal/metrics"
//
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/assets", "200").Inc()
//	metrics.HTTPRequestDuration.WithLabelValues("GET", "/api/assets").Observe(0.123)
//	metrics.DBConnectionsOpen.Set(5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the corresponding gauges:
//
//	collector := metrics.NewCollector(statsProvider, dbPath, time.Minute)
//	collector.SetDerivedDir(cfg.DerivedDir)
//	collector.SetStorageHealthChecker(checker)
//	collector.Start()
//	defer collector.Stop()
//
// The collector updates catalog contents gauges, catalog file sizes, derived
// artifact directory size, and Go runtime memory statistics on each tick.
//
// # Prometheus Queries
//
// Request rate by endpoint:
//
//	sum(rate(flash_http_requests_total[5m])) by (path)
//
// P95 response time:
//
//	histogram_quantile(0.95, sum(rate(flash_http_request_duration_seconds_bucket[5m])) by (le))
//
// Error rate:
//
//	sum(rate(flash_http_requests_total{status=~"5.."}[5m])) / sum(rate(flash_http_requests_total[5m]))
//
// Catalog query latency by operation:
//
//	histogram_quantile(0.95, sum(rate(flash_catalog_query_duration_seconds_bucket[5m])) by (le, operation))
//
// Pipeline backpressure, per queue:
//
//	flash_pipeline_queue_depth / flash_pipeline_queue_capacity
//
// GPU circuit-breaker state:
//
//	flash_mediatool_gpu_enabled
//
// Derived-artifact generation failure rate:
//
//	rate(flash_thumbnail_generations_total{status="error"}[5m]) /
//	rate(flash_thumbnail_generations_total[5m])
package metrics
