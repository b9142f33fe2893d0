package metrics

import (
	"testing"
)

func TestHTTPMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestCatalogMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CatalogQueryTotal", CatalogQueryTotal},
		{"CatalogQueryDuration", CatalogQueryDuration},
		{"DBTransactionDuration", DBTransactionDuration},
		{"DBConnectionsOpen", DBConnectionsOpen},
		{"DBSizeBytes", DBSizeBytes},
		{"DBStorageErrors", DBStorageErrors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestPipelineQueueMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"QueueDepth", QueueDepth},
		{"QueueCapacity", QueueCapacity},
		{"QueueDropsTotal", QueueDropsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestDiscoverMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"DiscoverRunsTotal", DiscoverRunsTotal},
		{"DiscoverFilesEmitted", DiscoverFilesEmitted},
		{"DiscoverDirsWalked", DiscoverDirsWalked},
		{"DiscoverWatchEventsTotal", DiscoverWatchEventsTotal},
		{"DiscoverWatchErrors", DiscoverWatchErrors},
		{"DiscoverWatchedRoots", DiscoverWatchedRoots},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestHashAndMetaExtractMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"SkipGateDecisionsTotal", SkipGateDecisionsTotal},
		{"HashOperationsTotal", HashOperationsTotal},
		{"HashDuration", HashDuration},
		{"HashBytesTotal", HashBytesTotal},
		{"MetaExtractTotal", MetaExtractTotal},
		{"MetaExtractDuration", MetaExtractDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestCatalogWriterMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CatalogWriterBatchesTotal", CatalogWriterBatchesTotal},
		{"CatalogWriterBatchSize", CatalogWriterBatchSize},
		{"CatalogWriterCommitDuration", CatalogWriterCommitDuration},
		{"CatalogWriterFatalErrors", CatalogWriterFatalErrors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestThumbnailMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ThumbnailGenerationsTotal", ThumbnailGenerationsTotal},
		{"ThumbnailGenerationDuration", ThumbnailGenerationDuration},
		{"ThumbnailGenerationDurationDetailed", ThumbnailGenerationDurationDetailed},
		{"ThumbnailImageDecodeByFormat", ThumbnailImageDecodeByFormat},
		{"ThumbnailMemoryUsageBytes", ThumbnailMemoryUsageBytes},
		{"ThumbnailFFmpegDuration", ThumbnailFFmpegDuration},
		{"ThumbnailCacheSize", ThumbnailCacheSize},
		{"ThumbnailCacheCount", ThumbnailCacheCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestMediaToolMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"MediaToolJobsTotal", MediaToolJobsTotal},
		{"MediaToolJobDuration", MediaToolJobDuration},
		{"MediaToolJobsInProgress", MediaToolJobsInProgress},
		{"MediaToolGPUEnabled", MediaToolGPUEnabled},
		{"MediaToolGPUConsecutiveFailures", MediaToolGPUConsecutiveFailures},
		{"MediaToolGPUTripsTotal", MediaToolGPUTripsTotal},
		{"TranscoderCacheSizeBytes", TranscoderCacheSizeBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestSupervisorMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ScannerOperationsTotal", ScannerOperationsTotal},
		{"ScannerOperationDuration", ScannerOperationDuration},
		{"ScannerRootsTotal", ScannerRootsTotal},
		{"ScannerIsScanning", ScannerIsScanning},
		{"ScannerGlobalScanning", ScannerGlobalScanning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestCatalogContentsMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"AssetsTotal", AssetsTotal},
		{"AssetsBytesTotal", AssetsBytesTotal},
		{"AlbumsTotal", AlbumsTotal},
		{"PersonsTotal", PersonsTotal},
		{"StatsDiscoveryRate", StatsDiscoveryRate},
		{"StatsCommitRate", StatsCommitRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestFilesystemMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"FilesystemOperationDuration", FilesystemOperationDuration},
		{"FilesystemOperationErrors", FilesystemOperationErrors},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"FilesystemRetrySuccess", FilesystemRetrySuccess},
		{"FilesystemRetryFailures", FilesystemRetryFailures},
		{"FilesystemStaleErrors", FilesystemStaleErrors},
		{"FilesystemRetryDuration", FilesystemRetryDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestGoRuntimeMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"GoMemAllocBytes", GoMemAllocBytes},
		{"GoMemSysBytes", GoMemSysBytes},
		{"GoMemLimit", GoMemLimit},
		{"GoGCRuns", GoGCRuns},
		{"GoGCPauseTotalSeconds", GoGCPauseTotalSeconds},
		{"GoGCPauseLastSeconds", GoGCPauseLastSeconds},
		{"GoGCCPUFraction", GoGCCPUFraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestHTTPMetricTypes(t *testing.T) {
	t.Run("HTTPRequestsTotal is CounterVec", func(_ *testing.T) {
		HTTPRequestsTotal.WithLabelValues("GET", "/test", "200").Add(0)
	})

	t.Run("HTTPRequestDuration is HistogramVec", func(_ *testing.T) {
		HTTPRequestDuration.WithLabelValues("GET", "/test").Observe(0.1)
	})

	t.Run("HTTPRequestsInFlight is Gauge", func(_ *testing.T) {
		HTTPRequestsInFlight.Set(0)
	})
}

func TestCatalogMetricOperations(t *testing.T) {
	t.Run("CatalogQueryTotal increment", func(_ *testing.T) {
		CatalogQueryTotal.WithLabelValues("upsert_asset", "success").Add(0)
	})

	t.Run("CatalogQueryDuration observe", func(_ *testing.T) {
		CatalogQueryDuration.WithLabelValues("upsert_asset").Observe(0.001)
	})

	t.Run("DBConnectionsOpen set", func(_ *testing.T) {
		DBConnectionsOpen.Set(5)
	})

	t.Run("DBSizeBytes set with labels", func(_ *testing.T) {
		DBSizeBytes.WithLabelValues("main").Set(1024)
		DBSizeBytes.WithLabelValues("wal").Set(512)
		DBSizeBytes.WithLabelValues("shm").Set(256)
	})

	t.Run("DBStorageErrors increment", func(_ *testing.T) {
		DBStorageErrors.WithLabelValues("main").Add(0)
	})
}

func TestPipelineQueueMetricOperations(t *testing.T) {
	queues := []string{"discover", "hash", "metaextract", "catalog_write", "thumbnail"}

	t.Run("QueueDepth by queue", func(_ *testing.T) {
		for _, q := range queues {
			QueueDepth.WithLabelValues(q).Set(0)
		}
	})

	t.Run("QueueCapacity by queue", func(_ *testing.T) {
		for _, q := range queues {
			QueueCapacity.WithLabelValues(q).Set(100)
		}
	})

	t.Run("QueueDropsTotal by queue", func(_ *testing.T) {
		for _, q := range queues {
			QueueDropsTotal.WithLabelValues(q).Add(0)
		}
	})
}

func TestHashMetricOperations(t *testing.T) {
	t.Run("HashOperationsTotal with labels", func(_ *testing.T) {
		HashOperationsTotal.WithLabelValues("xxh3", "success").Add(1)
		HashOperationsTotal.WithLabelValues("sha256", "success").Add(1)
	})

	t.Run("HashDuration observe", func(_ *testing.T) {
		HashDuration.WithLabelValues("xxh3").Observe(0.001)
		HashDuration.WithLabelValues("sha256").Observe(0.01)
	})

	t.Run("HashBytesTotal by strategy", func(_ *testing.T) {
		HashBytesTotal.WithLabelValues("mmap").Add(4096)
		HashBytesTotal.WithLabelValues("buffered").Add(4096)
	})
}

func TestThumbnailMetricOperations(t *testing.T) {
	t.Run("ThumbnailGenerationsTotal with labels", func(_ *testing.T) {
		ThumbnailGenerationsTotal.WithLabelValues("thumb", "success").Add(0)
		ThumbnailGenerationsTotal.WithLabelValues("preview", "error").Add(0)
	})

	t.Run("ThumbnailGenerationDuration observe", func(_ *testing.T) {
		ThumbnailGenerationDuration.WithLabelValues("thumb").Observe(0.1)
		ThumbnailGenerationDuration.WithLabelValues("video_frame").Observe(1.5)
	})

	t.Run("ThumbnailCacheSize set", func(_ *testing.T) {
		ThumbnailCacheSize.Set(1024 * 1024 * 100)
	})

	t.Run("ThumbnailCacheCount set", func(_ *testing.T) {
		ThumbnailCacheCount.Set(500)
	})

	t.Run("ThumbnailGenerationDurationDetailed by phase", func(_ *testing.T) {
		ThumbnailGenerationDurationDetailed.WithLabelValues("thumb", "decode").Observe(0.01)
		ThumbnailGenerationDurationDetailed.WithLabelValues("thumb", "resize").Observe(0.05)
		ThumbnailGenerationDurationDetailed.WithLabelValues("thumb", "encode").Observe(0.02)
	})

	t.Run("ThumbnailImageDecodeByFormat", func(_ *testing.T) {
		ThumbnailImageDecodeByFormat.WithLabelValues("jpeg").Add(1)
		ThumbnailImageDecodeByFormat.WithLabelValues("png").Add(1)
	})

	t.Run("ThumbnailFFmpegDuration", func(_ *testing.T) {
		ThumbnailFFmpegDuration.WithLabelValues("video").Observe(2.5)
	})
}

func TestMediaToolMetricOperations(t *testing.T) {
	t.Run("MediaToolJobsTotal by status", func(_ *testing.T) {
		MediaToolJobsTotal.WithLabelValues("transcode", "success").Add(10)
		MediaToolJobsTotal.WithLabelValues("transcode", "error").Add(2)
	})

	t.Run("MediaToolJobDuration", func(_ *testing.T) {
		MediaToolJobDuration.WithLabelValues("transcode").Observe(30.5)
	})

	t.Run("MediaToolJobsInProgress", func(_ *testing.T) {
		MediaToolJobsInProgress.Set(3)
		MediaToolJobsInProgress.Inc()
		MediaToolJobsInProgress.Dec()
	})

	t.Run("MediaToolGPUEnabled", func(_ *testing.T) {
		MediaToolGPUEnabled.WithLabelValues("cuda").Set(1)
		MediaToolGPUEnabled.WithLabelValues("cuda").Set(0)
	})

	t.Run("MediaToolGPUConsecutiveFailures", func(_ *testing.T) {
		MediaToolGPUConsecutiveFailures.Set(0)
		MediaToolGPUConsecutiveFailures.Inc()
	})

	t.Run("MediaToolGPUTripsTotal", func(_ *testing.T) {
		MediaToolGPUTripsTotal.Add(1)
	})

	t.Run("TranscoderCacheSizeBytes", func(_ *testing.T) {
		TranscoderCacheSizeBytes.Set(1024 * 1024 * 500)
		TranscoderCacheSizeBytes.Set(0)
	})
}

func TestSupervisorMetricOperations(t *testing.T) {
	t.Run("ScannerOperationsTotal by status", func(_ *testing.T) {
		ScannerOperationsTotal.WithLabelValues("full_scan", "success").Add(1)
	})

	t.Run("ScannerOperationDuration", func(_ *testing.T) {
		ScannerOperationDuration.WithLabelValues("full_scan").Observe(30.5)
	})

	t.Run("ScannerRootsTotal", func(_ *testing.T) {
		ScannerRootsTotal.Set(2)
	})

	t.Run("ScannerIsScanning", func(_ *testing.T) {
		ScannerIsScanning.WithLabelValues("/photos").Set(1)
		ScannerIsScanning.WithLabelValues("/photos").Set(0)
	})

	t.Run("ScannerGlobalScanning", func(_ *testing.T) {
		ScannerGlobalScanning.Set(1)
		ScannerGlobalScanning.Set(0)
	})
}

func TestCatalogContentsMetricOperations(t *testing.T) {
	t.Run("AssetsTotal by kind", func(_ *testing.T) {
		AssetsTotal.WithLabelValues("image").Set(1000)
		AssetsTotal.WithLabelValues("video").Set(500)
		AssetsTotal.WithLabelValues("other").Set(25)
	})

	t.Run("AssetsBytesTotal", func(_ *testing.T) {
		AssetsBytesTotal.Set(1024 * 1024 * 1024)
	})

	t.Run("AlbumsTotal", func(_ *testing.T) {
		AlbumsTotal.Set(50)
	})

	t.Run("PersonsTotal", func(_ *testing.T) {
		PersonsTotal.Set(12)
	})

	t.Run("StatsDiscoveryRate", func(_ *testing.T) {
		StatsDiscoveryRate.Set(42.5)
	})

	t.Run("StatsCommitRate", func(_ *testing.T) {
		StatsCommitRate.Set(40.0)
	})
}

func TestAppInfoMetric(t *testing.T) {
	if AppInfo == nil {
		t.Fatal("AppInfo metric is nil")
	}

	t.Run("SetAppInfo function", func(_ *testing.T) {
		SetAppInfo("1.0.0", "abc123", "go1.21.0")
		SetAppInfo("2.0.0", "def456", "go1.22.0")
	})
}

func TestGoRuntimeMetricOperations(t *testing.T) {
	t.Run("GoMemLimit", func(_ *testing.T) {
		GoMemLimit.Set(1024 * 1024 * 1024)
	})

	t.Run("GoMemAllocBytes", func(_ *testing.T) {
		GoMemAllocBytes.Set(100 * 1024 * 1024)
	})

	t.Run("GoMemSysBytes", func(_ *testing.T) {
		GoMemSysBytes.Set(200 * 1024 * 1024)
	})

	t.Run("GoGCRuns", func(_ *testing.T) {
		GoGCRuns.Add(10)
	})

	t.Run("GoGCPauseTotalSeconds", func(_ *testing.T) {
		GoGCPauseTotalSeconds.Add(0.005)
	})

	t.Run("GoGCPauseLastSeconds", func(_ *testing.T) {
		GoGCPauseLastSeconds.Set(0.001)
	})

	t.Run("GoGCCPUFraction", func(_ *testing.T) {
		GoGCCPUFraction.Set(0.002)
	})
}

func TestFilesystemMetricOperations(t *testing.T) {
	t.Run("FilesystemOperationDuration", func(_ *testing.T) {
		FilesystemOperationDuration.WithLabelValues("media", "stat").Observe(0.001)
		FilesystemOperationDuration.WithLabelValues("derived", "write").Observe(0.01)
	})

	t.Run("FilesystemOperationErrors", func(_ *testing.T) {
		FilesystemOperationErrors.WithLabelValues("media", "stat").Inc()
	})

	t.Run("FilesystemRetryAttempts", func(_ *testing.T) {
		FilesystemRetryAttempts.WithLabelValues("stat", "media").Inc()
	})

	t.Run("FilesystemRetrySuccess", func(_ *testing.T) {
		FilesystemRetrySuccess.WithLabelValues("stat", "media").Inc()
	})

	t.Run("FilesystemRetryFailures", func(_ *testing.T) {
		FilesystemRetryFailures.WithLabelValues("stat", "media").Inc()
	})

	t.Run("FilesystemStaleErrors", func(_ *testing.T) {
		FilesystemStaleErrors.WithLabelValues("stat", "media").Inc()
	})

	t.Run("FilesystemRetryDuration", func(_ *testing.T) {
		FilesystemRetryDuration.WithLabelValues("stat", "media").Observe(0.05)
	})
}

func TestMetricsConcurrentAccess(t *testing.T) {
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Goroutine %d panicked: %v", id, r)
				}
				done <- true
			}()

			HTTPRequestsTotal.WithLabelValues("GET", "/test", "200").Inc()
			CatalogQueryTotal.WithLabelValues("upsert_asset", "success").Inc()
			HashOperationsTotal.WithLabelValues("xxh3", "success").Inc()
			ThumbnailGenerationsTotal.WithLabelValues("thumb", "success").Inc()
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func BenchmarkHTTPMetricsIncrement(b *testing.B) {
	b.Run("Counter increment", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			HTTPRequestsTotal.WithLabelValues("GET", "/api/assets", "200").Inc()
		}
	})

	b.Run("Histogram observe", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			HTTPRequestDuration.WithLabelValues("GET", "/api/assets").Observe(0.1)
		}
	})

	b.Run("Gauge set", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			HTTPRequestsInFlight.Set(float64(i % 100))
		}
	})
}

func BenchmarkCatalogMetrics(b *testing.B) {
	b.Run("Query counter", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			CatalogQueryTotal.WithLabelValues("search_assets", "success").Inc()
		}
	})

	b.Run("Query duration", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			CatalogQueryDuration.WithLabelValues("search_assets").Observe(0.001)
		}
	})
}

func BenchmarkThumbnailMetrics(b *testing.B) {
	b.Run("Generation counter", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			ThumbnailGenerationsTotal.WithLabelValues("thumb", "success").Inc()
		}
	})

	b.Run("Duration histogram", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			ThumbnailGenerationDuration.WithLabelValues("thumb").Observe(0.1)
		}
	})
}
