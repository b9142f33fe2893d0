// Command flashd runs the flash media indexer: a staged discover-hash-
// metadata-catalog-thumbnail pipeline, a derived-artifact cache, and the
// HTTP API.
//
// Configuration is provided via environment variables:
//   - FLASH_ROOT: path to the media root inside the container (default: /photos)
//   - FLASH_ROOT_HOST: the same root's path on the host, for display only
//   - FLASH_DATA: path to the data directory holding the catalog and derived cache (default: /flash-data)
//   - FLASH_PORT: HTTP server port (default: 9161)
//   - FLASH_HASH_THREADS, FLASH_META_THREADS, FLASH_THUMB_THREADS: pipeline worker counts
//   - FLASH_THUMB_SIZE, FLASH_PREVIEW_SIZE: derived image dimensions
//   - GPU_ACCEL: hardware acceleration override (default: auto)
//   - SEEN_HEVC_TRANSCODE: HEVC transcode policy (default: auto)
//   - METRICS_ENABLED: expose /metrics (default: true)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/catalogwriter"
	"github.com/flashcat/flash/internal/derive"
	"github.com/flashcat/flash/internal/discover"
	"github.com/flashcat/flash/internal/handlers"
	"github.com/flashcat/flash/internal/hash"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/media"
	"github.com/flashcat/flash/internal/mediatool"
	"github.com/flashcat/flash/internal/memory"
	"github.com/flashcat/flash/internal/metaextract"
	"github.com/flashcat/flash/internal/middleware"
	"github.com/flashcat/flash/internal/pipeline"
	"github.com/flashcat/flash/internal/skipgate"
	"github.com/flashcat/flash/internal/startup"
	"github.com/flashcat/flash/internal/stats"
	"github.com/flashcat/flash/internal/supervisor"
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()
	defer memMonitor.Stop()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	catStart := time.Now()
	cat, err := catalog.Open(context.Background(), config.CatalogPath)
	if err != nil {
		startup.LogFatal("Failed to open catalog: %v", err)
	}
	startup.LogCatalogInit(time.Since(catStart))

	// No face detector is wired into this repository; the faces pipeline
	// stage stays disabled so the fabric never allocates its queue.
	const facesEnabled = false
	fab := pipeline.NewFabric(facesEnabled)

	disc := discover.New(fab, cat)
	gate := skipgate.New(cat, fab)
	hashPool := hash.New(fab, config.HashThreads)
	hashPool.SetMonitor(memMonitor)
	metaPool := metaextract.New(fab, config.MetaThreads)
	writer := catalogwriter.New(cat, fab, facesEnabled)
	thumbPool := media.NewThumbPool(fab, config.ThumbThreads, config.DerivedDir, config.ThumbSize, config.PreviewSize)

	statsCollector := stats.New(fab)
	disc.SetStats(statsCollector)
	writer.SetStats(statsCollector)

	startup.LogMediaToolInit(config.GPUAccel)
	gw := mediatool.New(config.GPUAccel, os.TempDir())

	hevcPolicy := mediatool.HEVCPolicy(config.HEVCTranscode)
	derivServer := derive.New(cat, gw, config.DerivedDir, hevcPolicy)

	sup := supervisor.New(cat, fab, disc, statsCollector)

	startup.LogPipelineInit(config.HashThreads, config.MetaThreads, config.ThumbThreads)

	pipelineCtx, cancelPipeline := context.WithCancel(context.Background())
	defer cancelPipeline()

	go gate.Run(pipelineCtx)
	go hashPool.Run()
	go metaPool.Run()
	go thumbPool.Run()
	go writer.Run(func(err error) {
		startup.LogFatal("Catalog writer fatal error: %v", err)
	})

	startup.LogPipelineStarted()

	if _, rootErr := cat.GetScanRoot(context.Background(), config.Root); rootErr != nil {
		if addErr := sup.AddRoot(context.Background(), config.Root); addErr != nil {
			logging.Warn("failed to add default root %s: %v", config.Root, addErr)
		}
	} else if scanErr := sup.Scan(context.Background(), config.Root); scanErr != nil {
		logging.Warn("failed to resume scanning %s: %v", config.Root, scanErr)
	}

	h := handlers.New(cat, sup, statsCollector, gw, derivServer, hevcPolicy, config.RootHost, config.Root)
	router := handlers.NewRouter(h)

	startup.LogHTTPRoutes(router, false, true)

	var handler http.Handler = middleware.Logger(middleware.DefaultLoggingConfig())(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	shutdownComplete := make(chan struct{})
	go handleShutdown(srv, cat, cancelPipeline, shutdownComplete)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}

	<-shutdownComplete
}

func handleShutdown(srv *http.Server, cat *catalog.Catalog, cancelPipeline context.CancelFunc, done chan struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping pipeline workers")
	cancelPipeline()
	startup.LogShutdownStepComplete("Pipeline workers stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Closing catalog")
	if err := cat.Close(); err != nil {
		logging.Warn("Catalog close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Catalog closed")
	}

	startup.LogShutdownComplete()
}
