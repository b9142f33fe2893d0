package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBStorageErrors.WithLabelValues(file)
		DBSizeBytes.WithLabelValues(file)
	}

	volumes := []string{"media", "derived", "catalog", "unknown"}
	fsOps := []string{"read", "write", "stat", "readdir"}
	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
	}

	retryOps := []string{"stat", "open", "readdir", "write"}
	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "heic", "avif", "unknown"} {
		ThumbnailImageDecodeByFormat.WithLabelValues(format)
	}

	artifacts := []string{"thumb", "preview", "video_frame"}
	phases := []string{"decode", "resize", "encode", "cache"}
	for _, a := range artifacts {
		for _, p := range phases {
			ThumbnailGenerationDurationDetailed.WithLabelValues(a, p)
		}
		ThumbnailMemoryUsageBytes.WithLabelValues(a)
		ThumbnailGenerationsTotal.WithLabelValues(a, "success")
		ThumbnailGenerationsTotal.WithLabelValues(a, "error")
	}

	for _, k := range []string{"image", "video"} {
		ThumbnailFFmpegDuration.WithLabelValues(k)
	}

	for _, op := range []string{
		"upsert_asset", "search_assets", "skipgate_lookup", "get_by_path", "get_by_id",
		"list_assets", "delete_asset_by_id", "delete_by_prefix", "rename_asset",
		"add_scan_root", "remove_scan_root", "clear_all", "create_album", "update_album",
		"delete_album", "add_album_assets", "remove_album_assets",
	} {
		CatalogQueryTotal.WithLabelValues(op, "success")
		CatalogQueryTotal.WithLabelValues(op, "error")
		CatalogQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback", "batch_insert", "batch_update", "cleanup"} {
		DBTransactionDuration.WithLabelValues(t)
	}

	for _, q := range []string{"discover", "hash", "metaextract", "catalog_write", "thumbnail"} {
		QueueDepth.WithLabelValues(q)
		QueueCapacity.WithLabelValues(q)
		QueueDropsTotal.WithLabelValues(q)
	}

	for _, alg := range []string{"xxh3", "sha256"} {
		HashOperationsTotal.WithLabelValues(alg, "success")
		HashOperationsTotal.WithLabelValues(alg, "error")
		HashDuration.WithLabelValues(alg)
	}

	for _, kind := range []string{"image", "video"} {
		MetaExtractTotal.WithLabelValues(kind, "success")
		MetaExtractTotal.WithLabelValues(kind, "error")
		MetaExtractDuration.WithLabelValues(kind)
	}

	for _, kind := range []string{"thumbnail", "transcode", "audio_extract"} {
		MediaToolJobsTotal.WithLabelValues(kind, "success")
		MediaToolJobsTotal.WithLabelValues(kind, "error")
		MediaToolJobDuration.WithLabelValues(kind)
	}

	for _, kind := range []string{"image", "video", "other"} {
		AssetsTotal.WithLabelValues(kind)
	}
}
