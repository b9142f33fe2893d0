package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flashcat/flash/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration, loaded from the environment
// variables described in the external-interfaces section: paths, pipeline
// concurrency, derived-artifact sizes, and media-toolchain policy.
type Config struct {
	// Root is the scannable media root (FLASH_ROOT).
	Root string
	// RootHost is the host-side path corresponding to Root, used only for
	// display/resolution when the process runs inside a container
	// (FLASH_ROOT_HOST). Empty when unset.
	RootHost string
	// DataDir holds the catalog database and derived-artifact cache
	// (FLASH_DATA).
	DataDir string
	// Port is the HTTP listen port (FLASH_PORT).
	Port string

	HashThreads  int // FLASH_HASH_THREADS
	MetaThreads  int // FLASH_META_THREADS
	ThumbThreads int // FLASH_THUMB_THREADS

	ThumbSize   int // FLASH_THUMB_SIZE
	PreviewSize int // FLASH_PREVIEW_SIZE

	// GPUAccel selects the hardware-acceleration mode probe: off, cuda,
	// qsv, d3d11va, videotoolbox, or auto (GPU_ACCEL).
	GPUAccel string
	// HEVCTranscode is the process-global transcode policy for HEVC/H.265
	// sources: auto, never, or always (SEEN_HEVC_TRANSCODE).
	HEVCTranscode string

	MetricsEnabled bool

	// Derived paths, computed once config is resolved.
	CatalogPath string
	DerivedDir  string
}

var validGPUAccel = map[string]bool{
	"off": true, "cuda": true, "qsv": true, "d3d11va": true, "videotoolbox": true, "auto": true,
}

var validHEVCPolicy = map[string]bool{
	"auto": true, "never": true, "always": true,
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	root := getEnv("FLASH_ROOT", "/photos")
	rootHost := getEnv("FLASH_ROOT_HOST", "")
	dataDir := getEnv("FLASH_DATA", "/flash-data")
	port := getEnv("FLASH_PORT", "9161")

	hashThreads := getEnvInt("FLASH_HASH_THREADS", 2)
	metaThreads := getEnvInt("FLASH_META_THREADS", 2)
	thumbThreads := getEnvInt("FLASH_THUMB_THREADS", 1)

	thumbSize := getEnvInt("FLASH_THUMB_SIZE", 256)
	previewSize := getEnvInt("FLASH_PREVIEW_SIZE", 1600)

	gpuAccel := strings.ToLower(getEnv("GPU_ACCEL", "auto"))
	if !validGPUAccel[gpuAccel] {
		logging.Warn("  Invalid GPU_ACCEL %q, using default: auto", gpuAccel)
		gpuAccel = "auto"
	}

	hevcPolicy := strings.ToLower(getEnv("SEEN_HEVC_TRANSCODE", "auto"))
	if !validHEVCPolicy[hevcPolicy] {
		logging.Warn("  Invalid SEEN_HEVC_TRANSCODE %q, using default: auto", hevcPolicy)
		hevcPolicy = "auto"
	}

	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  FLASH_ROOT:            %s", root)
	if rootHost != "" {
		logging.Info("  FLASH_ROOT_HOST:       %s", rootHost)
	}
	logging.Info("  FLASH_DATA:            %s", dataDir)
	logging.Info("  FLASH_PORT:            %s", port)
	logging.Info("  FLASH_HASH_THREADS:    %d", hashThreads)
	logging.Info("  FLASH_META_THREADS:    %d", metaThreads)
	logging.Info("  FLASH_THUMB_THREADS:   %d", thumbThreads)
	logging.Info("  FLASH_THUMB_SIZE:      %d", thumbSize)
	logging.Info("  FLASH_PREVIEW_SIZE:    %d", previewSize)
	logging.Info("  GPU_ACCEL:             %s", gpuAccel)
	logging.Info("  SEEN_HEVC_TRANSCODE:   %s", hevcPolicy)
	logging.Info("  METRICS_ENABLED:       %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root path: %w", err)
	}
	logging.Info("  Media root (absolute): %s", root)

	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	if err := ensureDirectory(root, "media"); err != nil {
		logging.Warn("  Media root issue: %v", err)
	}

	config := &Config{
		Root:           root,
		RootHost:       rootHost,
		DataDir:        dataDir,
		Port:           port,
		HashThreads:    hashThreads,
		MetaThreads:    metaThreads,
		ThumbThreads:   thumbThreads,
		ThumbSize:      thumbSize,
		PreviewSize:    previewSize,
		GPUAccel:       gpuAccel,
		HEVCTranscode:  hevcPolicy,
		MetricsEnabled: metricsEnabled,
		CatalogPath:    filepath.Join(dataDir, "db", "flash.db"),
		DerivedDir:     filepath.Join(dataDir, "derived"),
	}

	if err := ensureDirectory(filepath.Dir(config.CatalogPath), "catalog"); err != nil {
		return nil, fmt.Errorf("catalog directory error: %w", err)
	}

	logging.Debug("  Testing catalog directory write access...")
	if err := testWriteAccess(filepath.Dir(config.CatalogPath)); err != nil {
		return nil, fmt.Errorf("catalog directory is not writable (required for catalog): %w", err)
	}
	logging.Info("  [OK] Catalog directory is writable")

	if err := ensureDirectory(config.DerivedDir, "derived"); err != nil {
		return nil, fmt.Errorf("derived artifact directory error: %w", err)
	}
	logging.Info("  [OK] Derived artifact directory ready")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Catalog:  ENABLED (required)")
	logging.Info("    Derived:  ENABLED")
	logging.Info("    Metrics:  %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogCatalogInit logs catalog (SQLite) initialization.
func LogCatalogInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Catalog opened in %v", duration)
}

// LogMediaToolInit logs media-toolchain gateway initialization and checks ffmpeg/ffprobe.
func LogMediaToolInit(gpuAccel string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEDIA TOOLCHAIN INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Requested acceleration: %s", gpuAccel)

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  ffmpeg check failed: %v", err)
		logging.Warn("  video transcoding and thumbnailing may not work correctly")
		return
	}
	logging.Info("  [OK] ffmpeg is available")

	if err := checkFFprobe(); err != nil {
		logging.Warn("  ffprobe check failed: %v", err)
		logging.Warn("  video metadata extraction may not work correctly")
		return
	}
	logging.Info("  [OK] ffprobe is available")
}

// LogPipelineInit logs pipeline fabric initialization.
func LogPipelineInit(hashThreads, metaThreads, thumbThreads int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PIPELINE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Hash workers:      %d", hashThreads)
	logging.Info("  Metadata workers:  %d", metaThreads)
	logging.Info("  Thumbnail workers: %d", thumbThreads)
	logging.Info("  Starting pipeline...")
}

// LogPipelineStarted logs successful pipeline start.
func LogPipelineStarted() {
	logging.Info("  [OK] Pipeline started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    _____ _           _
   |  ___| | __ _ ___| |__
   | |_  | |/ _' / __| '_ \
   |  _| | | (_| \__ \ | | |
   |_|   |_|\__,_|___/_| |_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "media" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  ffmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  ffmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func checkFFprobe() error {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return fmt.Errorf("ffprobe not found in PATH")
	}
	logging.Debug("  ffprobe path: %s", path)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
