package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog (SQLite) metrics, per §4.1/§4.2.
var (
	CatalogQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_catalog_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_catalog_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_catalog_transaction_duration_seconds",
			Help:    "Catalog transaction duration in seconds, by kind",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"}, // "commit", "rollback", "batch_insert", "batch_update", "cleanup"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_catalog_connections_open",
			Help: "Number of open catalog connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_catalog_size_bytes",
			Help: "Size of the SQLite catalog files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	DBStorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_catalog_storage_errors_total",
			Help: "Total number of catalog storage health check failures",
		},
		[]string{"file"},
	)
)

// Pipeline queue depths, per §4.3 "five bounded queues."
var (
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_pipeline_queue_depth",
			Help: "Current number of items buffered in a pipeline queue",
		},
		[]string{"queue"}, // "discover", "hash", "metaextract", "catalog_write", "thumbnail", "face"
	)

	QueueCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_pipeline_queue_capacity",
			Help: "Configured capacity of a pipeline queue",
		},
		[]string{"queue"},
	)

	QueueDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_pipeline_queue_drops_total",
			Help: "Total number of items dropped from a non-blocking enqueue",
		},
		[]string{"queue"},
	)
)

// Discovery (scan walk) metrics, per §4.4.
var (
	DiscoverRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_discover_runs_total",
			Help: "Total number of discovery walks started",
		},
		[]string{"root"},
	)

	DiscoverFilesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_discover_files_emitted_total",
			Help: "Total number of candidate files emitted by discovery",
		},
		[]string{"root"},
	)

	DiscoverDirsWalked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_discover_dirs_walked_total",
			Help: "Total number of directories walked by discovery",
		},
		[]string{"root"},
	)

	DiscoverWatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_discover_watch_events_total",
			Help: "Total number of filesystem watch events observed",
		},
		[]string{"root", "op"}, // op: create, write, remove, rename
	)

	DiscoverWatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_discover_watch_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
		[]string{"root"},
	)

	DiscoverWatchedRoots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_discover_watched_roots",
			Help: "Number of scan roots currently under fsnotify watch",
		},
	)
)

// Skip-gate metrics, per §4.5.
var (
	SkipGateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_skipgate_decisions_total",
			Help: "Total number of skip-gate decisions by outcome",
		},
		[]string{"decision"}, // "skip", "hash", "rehash", "metadata_only"
	)
)

// Hashing metrics (xxh3 + SHA-256), per §4.6.
var (
	HashOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_hash_operations_total",
			Help: "Total number of hashing operations by algorithm and status",
		},
		[]string{"algorithm", "status"}, // algorithm: xxh3, sha256
	)

	HashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_hash_duration_seconds",
			Help:    "Hashing duration in seconds by algorithm",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"algorithm"},
	)

	HashBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_hash_bytes_total",
			Help: "Total bytes processed by the hasher, by read strategy",
		},
		[]string{"strategy"}, // "mmap", "buffered"
	)
)

// Metadata extraction metrics, per §4.7.
var (
	MetaExtractTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_metaextract_total",
			Help: "Total number of metadata extractions by kind and status",
		},
		[]string{"kind", "status"}, // kind: image, video
	)

	MetaExtractDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_metaextract_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"kind"},
	)
)

// Catalog writer (batch commit) metrics, per §4.8.
var (
	CatalogWriterBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_catalogwriter_batches_total",
			Help: "Total number of catalog writer batches committed, by trigger",
		},
		[]string{"trigger"}, // "size", "time"
	)

	CatalogWriterBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flash_catalogwriter_batch_size",
			Help:    "Number of assets committed per catalog writer batch",
			Buckets: []float64{1, 10, 50, 100, 250, 500},
		},
	)

	CatalogWriterCommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flash_catalogwriter_commit_duration_seconds",
			Help:    "Catalog writer batch commit duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	CatalogWriterFatalErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flash_catalogwriter_fatal_errors_total",
			Help: "Total number of fatal catalog writer commit failures",
		},
	)
)

// Thumbnail/derived-artifact generation metrics, per §4.9/§4.10.
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_thumbnail_generations_total",
			Help: "Total number of derived-artifact generations",
		},
		[]string{"artifact", "status"}, // artifact: thumb, preview, video_frame
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_thumbnail_generation_duration_seconds",
			Help:    "Derived-artifact generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"artifact"},
	)

	ThumbnailGenerationDurationDetailed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_thumbnail_generation_phase_duration_seconds",
			Help:    "Derived-artifact generation duration in seconds, by phase",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"artifact", "phase"}, // phase: decode, resize, encode, cache
	)

	ThumbnailImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_thumbnail_image_decode_total",
			Help: "Total number of source images decoded for derived artifacts, by format",
		},
		[]string{"format"},
	)

	ThumbnailMemoryUsageBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_thumbnail_memory_usage_bytes",
			Help: "Approximate memory used by the last derived-artifact generation, by artifact",
		},
		[]string{"artifact"},
	)

	ThumbnailFFmpegDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_thumbnail_ffmpeg_duration_seconds",
			Help:    "Duration of ffmpeg invocations used for derived-artifact generation",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"}, // image, video
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_thumbnail_cache_size_bytes",
			Help: "Total size of the derived artifact directory in bytes",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_thumbnail_cache_count",
			Help: "Number of derived artifacts on disk",
		},
	)
)

// Media toolchain gateway (ffmpeg/ffprobe, GPU) metrics, per §4.11.
var (
	MediaToolJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_mediatool_jobs_total",
			Help: "Total number of media toolchain jobs by kind and status",
		},
		[]string{"kind", "status"}, // kind: thumbnail, transcode, audio_extract
	)

	MediaToolJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_mediatool_job_duration_seconds",
			Help:    "Media toolchain job duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	MediaToolJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_mediatool_jobs_in_progress",
			Help: "Number of media toolchain jobs currently in progress",
		},
	)

	MediaToolGPUEnabled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_mediatool_gpu_enabled",
			Help: "Whether a GPU accelerator is currently enabled (1) or circuit-broken to CPU (0)",
		},
		[]string{"accelerator"}, // cuda, qsv, d3d11va, videotoolbox
	)

	MediaToolGPUConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_mediatool_gpu_consecutive_failures",
			Help: "Current consecutive GPU job failure count",
		},
	)

	MediaToolGPUTripsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flash_mediatool_gpu_circuit_trips_total",
			Help: "Total number of times the GPU circuit breaker tripped to CPU fallback",
		},
	)

	TranscoderCacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_mediatool_transcode_cache_size_bytes",
			Help: "Total size of on-demand transcode cache in bytes",
		},
	)
)

// Scan/watch supervisor metrics, per §4.12.
var (
	ScannerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_supervisor_operations_total",
			Help: "Total number of scan-root supervisor operations",
		},
		[]string{"operation", "status"},
	)

	ScannerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_supervisor_operation_duration_seconds",
			Help:    "Scan-root supervisor operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	ScannerRootsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_supervisor_roots_total",
			Help: "Number of declared scan roots",
		},
	)

	ScannerIsScanning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_supervisor_scanning",
			Help: "Whether a scan root is currently scanning (1) or idle/paused (0)",
		},
		[]string{"root"},
	)

	ScannerGlobalScanning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_supervisor_any_scanning",
			Help: "Whether any scan root is currently scanning (1) or all are idle (0)",
		},
	)
)

// Catalog contents gauges, per §4.13.
var (
	AssetsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_assets_total",
			Help: "Total number of catalog assets by kind",
		},
		[]string{"kind"}, // image, video, other
	)

	AssetsBytesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_assets_bytes_total",
			Help: "Total size in bytes of all catalog assets",
		},
	)

	AlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_albums_total",
			Help: "Total number of albums",
		},
	)

	PersonsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_persons_total",
			Help: "Total number of clustered persons",
		},
	)

	StatsDiscoveryRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_stats_discovery_rate_files_per_second",
			Help: "Recent discovery throughput in files per second",
		},
	)

	StatsCommitRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_stats_commit_rate_files_per_second",
			Help: "Recent catalog commit throughput in files per second",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flash_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// Filesystem retry/observer metrics, per internal/filesystem.
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds, by volume and operation",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_filesystem_operation_errors_total",
			Help: "Total number of filesystem operation errors, by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"retry_op", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after at least one retry",
		},
		[]string{"retry_op", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted all retries",
		},
		[]string{"retry_op", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flash_filesystem_stale_handle_errors_total",
			Help: "Total number of stale-file-handle errors observed (network filesystem symptom)",
		},
		[]string{"retry_op", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flash_filesystem_retry_duration_seconds",
			Help:    "Total time spent retrying a filesystem operation before success or exhaustion",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"retry_op", "volume"},
	)
)

// Go runtime metrics, collected alongside the domain metrics above rather
// than relying solely on the default process collector, so dashboards can
// correlate GC pauses with pipeline stalls.
var (
	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_go_mem_alloc_bytes",
			Help: "Bytes of heap objects currently allocated",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_go_mem_sys_bytes",
			Help: "Total bytes of memory obtained from the OS",
		},
	)

	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_go_mem_limit_bytes",
			Help: "Configured soft memory limit (GOMEMLIMIT), 0 if unset",
		},
	)

	GoGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flash_go_gc_runs_total",
			Help: "Total number of completed GC cycles observed",
		},
	)

	GoGCPauseTotalSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flash_go_gc_pause_seconds_total",
			Help: "Cumulative GC stop-the-world pause time in seconds",
		},
	)

	GoGCPauseLastSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_go_gc_pause_last_seconds",
			Help: "Duration of the most recent GC pause in seconds",
		},
	)

	GoGCCPUFraction = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_go_gc_cpu_fraction",
			Help: "Fraction of this process's available CPU time used by the GC",
		},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flash_memory_paused",
			Help: "1 when pipeline workers are paused for critical memory pressure, else 0",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flash_memory_forced_gc_total",
			Help: "Total number of GC cycles forced by critical memory pressure",
		},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
