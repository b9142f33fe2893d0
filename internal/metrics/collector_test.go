package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Mock StatsProvider
// =============================================================================

type mockStatsProvider struct {
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	return m.stats
}

// =============================================================================
// Mock StorageHealthChecker
// =============================================================================

type mockStorageHealthChecker struct {
	mu                    sync.Mutex
	checkStorageHealthCnt int
	updateDBMetricsCnt    int
}

func (m *mockStorageHealthChecker) CheckStorageHealth() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkStorageHealthCnt++
}

func (m *mockStorageHealthChecker) UpdateDBMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateDBMetricsCnt++
}

func (m *mockStorageHealthChecker) getCheckStorageHealthCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkStorageHealthCnt
}

func (m *mockStorageHealthChecker) getUpdateDBMetricsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateDBMetricsCnt
}

// =============================================================================
// Collector Tests
// =============================================================================

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalAssets:  100,
			TotalImages:  80,
			TotalVideos:  15,
			TotalOther:   5,
			TotalBytes:   1024 * 1024,
			TotalAlbums:  10,
			TotalPersons: 3,
		},
	}

	collector := NewCollector(provider, "/tmp/test.db", 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}

	if collector.statsProvider != provider {
		t.Error("statsProvider not set correctly")
	}

	if collector.dbPath != "/tmp/test.db" {
		t.Errorf("dbPath = %q, want %q", collector.dbPath, "/tmp/test.db")
	}

	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", collector.interval, 5*time.Second)
	}

	if collector.stopChan == nil {
		t.Error("stopChan not initialized")
	}

	if collector.derivedDir != "" {
		t.Errorf("derivedDir should be empty by default, got %q", collector.derivedDir)
	}

	if collector.storageHealthChecker != nil {
		t.Error("storageHealthChecker should be nil by default")
	}
}

func TestNewCollectorWithNilProvider(t *testing.T) {
	collector := NewCollector(nil, "/tmp/test.db", 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}

	if collector.statsProvider != nil {
		t.Error("statsProvider should be nil")
	}
}

func TestCollectorStartStop(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 50},
	}

	collector := NewCollector(provider, "/tmp/test.db", 100*time.Millisecond)

	collector.Start()
	time.Sleep(150 * time.Millisecond)
	collector.Stop()
}

func TestCollectorMultipleCollectCycles(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalImages: 100,
			TotalVideos: 50,
		},
	}

	collector := NewCollector(provider, "/tmp/test.db", 50*time.Millisecond)

	collector.Start()
	time.Sleep(200 * time.Millisecond)
	collector.Stop()
}

func TestCollectorWithMinimalInterval(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}

	collector := NewCollector(provider, "", 1*time.Millisecond)

	collector.Start()
	time.Sleep(10 * time.Millisecond)
	collector.Stop()
}

func TestCollectWithNilProvider(t *testing.T) {
	collector := NewCollector(nil, "/tmp/test.db", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked with nil provider: %v", r)
		}
	}()

	collector.collect()
}

func TestCollectMemoryMetrics(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collectMemoryMetrics() panicked: %v", r)
		}
	}()

	collector.collectMemoryMetrics()
	collector.collectMemoryMetrics()
}

func TestCollectMemoryMetricsMultipleTimes(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	for i := 0; i < 5; i++ {
		collector.collectMemoryMetrics()
	}

	if collector.lastGCCount == 0 {
		t.Log("No GC runs detected (expected in short test)")
	}
}

func TestCollectDBSizeWithValidDatabase(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	if err := os.WriteFile(dbPath, []byte("test database content"), 0o644); err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	collector := NewCollector(nil, dbPath, 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collectDBSize() panicked: %v", r)
		}
	}()

	collector.collectDBSize()
}

func TestCollectDBSizeWithWALAndSHM(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	if err := os.WriteFile(dbPath, []byte("main db"), 0o644); err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := os.WriteFile(dbPath+"-wal", []byte("wal file"), 0o644); err != nil {
		t.Fatalf("failed to create WAL file: %v", err)
	}
	if err := os.WriteFile(dbPath+"-shm", []byte("shm file"), 0o644); err != nil {
		t.Fatalf("failed to create SHM file: %v", err)
	}

	collector := NewCollector(nil, dbPath, 1*time.Second)
	collector.collectDBSize()
}

func TestCollectDBSizeWithMissingDatabase(t *testing.T) {
	collector := NewCollector(nil, "/nonexistent/path/db.db", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collectDBSize() panicked with missing database: %v", r)
		}
	}()

	collector.collectDBSize()
}

func TestCollectDBSizeWithEmptyPath(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collectDBSize() panicked with empty path: %v", r)
		}
	}()

	collector.collectDBSize()
}

func TestCollectWithStatsProvider(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalAssets:  150,
			TotalImages:  100,
			TotalVideos:  45,
			TotalOther:   5,
			TotalBytes:   2048,
			TotalAlbums:  12,
			TotalPersons: 4,
		},
	}

	collector := NewCollector(provider, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked: %v", r)
		}
	}()

	collector.collect()
}

func TestCollectUpdatesMetrics(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalImages:  50,
			TotalVideos:  25,
			TotalOther:   2,
			TotalAlbums:  5,
			TotalPersons: 1,
		},
	}

	collector := NewCollector(provider, "", 1*time.Second)
	collector.collect()
	collector.collect()
}

func TestCollectorStopBeforeStart(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Stop() before Start() panicked: %v", r)
		}
	}()

	collector.Stop()
}

func TestCollectorMultipleStops(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}

	for i := 0; i < 3; i++ {
		collector := NewCollector(provider, "", 10*time.Millisecond)
		collector.Start()
		time.Sleep(5 * time.Millisecond)
		collector.Stop()
	}
}

func TestCollectorRapidStartStop(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}

	for i := 0; i < 5; i++ {
		collector := NewCollector(provider, "", 10*time.Millisecond)
		collector.Start()
		time.Sleep(5 * time.Millisecond)
		collector.Stop()
	}
}

func TestCollectorConcurrentAccess(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 100},
	}

	collector := NewCollector(provider, "", 20*time.Millisecond)
	collector.Start()
	time.Sleep(100 * time.Millisecond)
	collector.Stop()
}

func TestStatsProviderInterface(_ *testing.T) {
	var _ StatsProvider = (*mockStatsProvider)(nil)
}

func TestStorageHealthCheckerInterface(_ *testing.T) {
	var _ StorageHealthChecker = (*mockStorageHealthChecker)(nil)
}

func TestStatsStructFields(t *testing.T) {
	stats := Stats{
		TotalAssets:  100,
		TotalImages:  80,
		TotalVideos:  15,
		TotalOther:   5,
		TotalBytes:   4096,
		TotalAlbums:  10,
		TotalPersons: 3,
	}

	if stats.TotalAssets != 100 {
		t.Errorf("TotalAssets = %d, want 100", stats.TotalAssets)
	}
	if stats.TotalImages != 80 {
		t.Errorf("TotalImages = %d, want 80", stats.TotalImages)
	}
	if stats.TotalVideos != 15 {
		t.Errorf("TotalVideos = %d, want 15", stats.TotalVideos)
	}
	if stats.TotalOther != 5 {
		t.Errorf("TotalOther = %d, want 5", stats.TotalOther)
	}
	if stats.TotalBytes != 4096 {
		t.Errorf("TotalBytes = %d, want 4096", stats.TotalBytes)
	}
	if stats.TotalAlbums != 10 {
		t.Errorf("TotalAlbums = %d, want 10", stats.TotalAlbums)
	}
	if stats.TotalPersons != 3 {
		t.Errorf("TotalPersons = %d, want 3", stats.TotalPersons)
	}
}

func TestCollectorImmediateCollection(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 50},
	}

	collector := NewCollector(provider, "", 1*time.Hour)

	collector.Start()
	time.Sleep(10 * time.Millisecond)
	collector.Stop()
}

func TestCollectorWithLargeStats(_ *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			TotalAssets:  1000000,
			TotalImages:  800000,
			TotalVideos:  150000,
			TotalOther:   50000,
			TotalBytes:   1 << 40,
			TotalAlbums:  50000,
			TotalPersons: 10000,
		},
	}

	collector := NewCollector(provider, "", 1*time.Second)
	collector.collect()
}

func TestCollectorWithVeryLongInterval(t *testing.T) {
	provider := &mockStatsProvider{}

	collector := NewCollector(provider, "", 1*time.Hour)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("NewCollector with long interval panicked: %v", r)
		}
	}()

	collector.Start()
	time.Sleep(5 * time.Millisecond)
	collector.Stop()
}

func TestCollectorMemoryMetricsConsistency(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	collector.collectMemoryMetrics()
	firstGCCount := collector.lastGCCount

	collector.collectMemoryMetrics()
	secondGCCount := collector.lastGCCount

	if secondGCCount < firstGCCount {
		t.Errorf("GC count decreased: %d -> %d", firstGCCount, secondGCCount)
	}
}

func TestCollectorDBSizeWithSymlink(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("Skipping symlink test in CI environment")
	}

	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	symlinkPath := filepath.Join(tempDir, "link.db")

	if err := os.WriteFile(dbPath, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if err := os.Symlink(dbPath, symlinkPath); err != nil {
		t.Skipf("failed to create symlink (may not be supported): %v", err)
	}

	collector := NewCollector(nil, symlinkPath, 1*time.Second)
	collector.collectDBSize()
}

func TestCollectorWithDifferentIntervals(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}

	intervals := []time.Duration{
		1 * time.Millisecond,
		10 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
	}

	for _, interval := range intervals {
		t.Run(interval.String(), func(_ *testing.T) {
			collector := NewCollector(provider, "", interval)
			collector.Start()
			time.Sleep(interval * 3)
			collector.Stop()
		})
	}
}

func TestCollectorStopCompletesCleanly(_ *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, "", 50*time.Millisecond)

	collector.Start()
	time.Sleep(100 * time.Millisecond)
	collector.Stop()
	time.Sleep(10 * time.Millisecond)
}

func TestCollectorDerivedCacheSizeCollection(t *testing.T) {
	tempDir := t.TempDir()
	cacheDir := filepath.Join(tempDir, "derived-cache")

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatalf("failed to create cache dir: %v", err)
	}

	testFiles := []struct {
		name   string
		size   int
		subdir string
	}{
		{"a1b2c3.webp", 1024 * 1024, ""},
		{"d4e5f6.webp", 512 * 1024, ""},
		{"g7h8i9.mp4", 256 * 1024, "video"},
	}

	for _, tf := range testFiles {
		var filePath string
		if tf.subdir != "" {
			subPath := filepath.Join(cacheDir, tf.subdir)
			if err := os.MkdirAll(subPath, 0o755); err != nil {
				t.Fatalf("failed to create subdir: %v", err)
			}
			filePath = filepath.Join(subPath, tf.name)
		} else {
			filePath = filepath.Join(cacheDir, tf.name)
		}

		data := make([]byte, tf.size)
		if err := os.WriteFile(filePath, data, 0o644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
	}

	collector := NewCollector(nil, "", 1*time.Second)
	collector.SetDerivedDir(cacheDir)
	collector.collectDerivedCacheSize()
}

func TestCollectorDerivedCacheSizeWithEmptyDir(t *testing.T) {
	tempDir := t.TempDir()
	cacheDir := filepath.Join(tempDir, "empty-cache")

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatalf("failed to create cache dir: %v", err)
	}

	collector := NewCollector(nil, "", 1*time.Second)
	collector.SetDerivedDir(cacheDir)
	collector.collectDerivedCacheSize()
}

func TestCollectorDerivedCacheSizeWithNonexistentDir(_ *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)
	collector.SetDerivedDir("/nonexistent/cache/dir")

	collector.collectDerivedCacheSize()
}

func TestCollectorDerivedCacheSizeWithEmptyPath(_ *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)
	// derivedDir is "" by default

	collector.collectDerivedCacheSize()
}

func TestCollectorSetDerivedDir(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	if collector.derivedDir != "" {
		t.Errorf("initial derivedDir should be empty, got %q", collector.derivedDir)
	}

	testPath := "/path/to/cache"
	collector.SetDerivedDir(testPath)

	if collector.derivedDir != testPath {
		t.Errorf("derivedDir = %q, want %q", collector.derivedDir, testPath)
	}
}

func TestCollectorGetDirSizeWithRetry(t *testing.T) {
	tempDir := t.TempDir()

	files := []struct {
		path string
		size int
	}{
		{"file1.txt", 100},
		{"file2.txt", 200},
		{"subdir/file3.txt", 300},
	}

	var expectedSize int64
	for _, f := range files {
		path := filepath.Join(tempDir, f.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		data := make([]byte, f.size)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		expectedSize += int64(f.size)
	}

	collector := NewCollector(nil, "", 1*time.Second)
	size, err := collector.getDirSizeWithRetry(tempDir)
	if err != nil {
		t.Fatalf("getDirSizeWithRetry failed: %v", err)
	}

	if size != expectedSize {
		t.Errorf("getDirSizeWithRetry() = %d, want %d", size, expectedSize)
	}
}

func TestCollectorGetDirSizeWithRetryEmptyDir(t *testing.T) {
	tempDir := t.TempDir()

	collector := NewCollector(nil, "", 1*time.Second)
	size, err := collector.getDirSizeWithRetry(tempDir)
	if err != nil {
		t.Fatalf("getDirSizeWithRetry on empty dir failed: %v", err)
	}

	if size != 0 {
		t.Errorf("getDirSizeWithRetry() on empty dir = %d, want 0", size)
	}
}

func TestCollectorGetDirSizeWithRetryNonexistent(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)
	_, err := collector.getDirSizeWithRetry("/nonexistent/path")
	if err == nil {
		t.Error("getDirSizeWithRetry on nonexistent path should return error")
	}
}

func TestCollectorGetDirSizeWithRetryNestedDirs(t *testing.T) {
	tempDir := t.TempDir()

	dirs := []string{
		"a",
		"a/b",
		"a/b/c",
		"d",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(tempDir, d), 0o755); err != nil {
			t.Fatalf("failed to create dir %s: %v", d, err)
		}
	}

	files := []struct {
		path string
		size int
	}{
		{"a/f1.txt", 10},
		{"a/b/f2.txt", 20},
		{"a/b/c/f3.txt", 30},
		{"d/f4.txt", 40},
	}

	var expectedSize int64
	for _, f := range files {
		data := make([]byte, f.size)
		if err := os.WriteFile(filepath.Join(tempDir, f.path), data, 0o644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		expectedSize += int64(f.size)
	}

	collector := NewCollector(nil, "", 1*time.Second)
	size, err := collector.getDirSizeWithRetry(tempDir)
	if err != nil {
		t.Fatalf("getDirSizeWithRetry failed: %v", err)
	}

	if size != expectedSize {
		t.Errorf("getDirSizeWithRetry() = %d, want %d", size, expectedSize)
	}
}

// =============================================================================
// StorageHealthChecker Tests
// =============================================================================

func TestSetStorageHealthChecker(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	if collector.storageHealthChecker != nil {
		t.Error("storageHealthChecker should be nil initially")
	}

	checker := &mockStorageHealthChecker{}
	collector.SetStorageHealthChecker(checker)

	if collector.storageHealthChecker != checker {
		t.Error("storageHealthChecker not set correctly")
	}
}

func TestSetStorageHealthCheckerToNil(t *testing.T) {
	collector := NewCollector(nil, "", 1*time.Second)

	checker := &mockStorageHealthChecker{}
	collector.SetStorageHealthChecker(checker)
	collector.SetStorageHealthChecker(nil)

	if collector.storageHealthChecker != nil {
		t.Error("storageHealthChecker should be nil after setting to nil")
	}
}

func TestCollectCallsStorageHealthChecker(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}
	checker := &mockStorageHealthChecker{}

	collector := NewCollector(provider, "", 1*time.Second)
	collector.SetStorageHealthChecker(checker)

	collector.collect()

	if cnt := checker.getCheckStorageHealthCount(); cnt != 1 {
		t.Errorf("CheckStorageHealth called %d times, want 1", cnt)
	}
	if cnt := checker.getUpdateDBMetricsCount(); cnt != 1 {
		t.Errorf("UpdateDBMetrics called %d times, want 1", cnt)
	}
}

func TestCollectCallsStorageHealthCheckerMultipleTimes(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}
	checker := &mockStorageHealthChecker{}

	collector := NewCollector(provider, "", 1*time.Second)
	collector.SetStorageHealthChecker(checker)

	for i := 0; i < 5; i++ {
		collector.collect()
	}

	if cnt := checker.getCheckStorageHealthCount(); cnt != 5 {
		t.Errorf("CheckStorageHealth called %d times, want 5", cnt)
	}
	if cnt := checker.getUpdateDBMetricsCount(); cnt != 5 {
		t.Errorf("UpdateDBMetrics called %d times, want 5", cnt)
	}
}

func TestCollectWithNilStorageHealthChecker(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}

	collector := NewCollector(provider, "", 1*time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked with nil storageHealthChecker: %v", r)
		}
	}()

	collector.collect()
}

func TestCollectWithStorageHealthCheckerAndNilProvider(t *testing.T) {
	checker := &mockStorageHealthChecker{}

	collector := NewCollector(nil, "", 1*time.Second)
	collector.SetStorageHealthChecker(checker)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked: %v", r)
		}
	}()

	collector.collect()

	if cnt := checker.getCheckStorageHealthCount(); cnt != 1 {
		t.Errorf("CheckStorageHealth called %d times, want 1", cnt)
	}
	if cnt := checker.getUpdateDBMetricsCount(); cnt != 1 {
		t.Errorf("UpdateDBMetrics called %d times, want 1", cnt)
	}
}

func TestCollectorStartStopWithStorageHealthChecker(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalAssets: 10},
	}
	checker := &mockStorageHealthChecker{}

	collector := NewCollector(provider, "", 50*time.Millisecond)
	collector.SetStorageHealthChecker(checker)

	collector.Start()
	time.Sleep(150 * time.Millisecond)
	collector.Stop()

	if cnt := checker.getCheckStorageHealthCount(); cnt < 2 {
		t.Errorf("CheckStorageHealth called %d times, want >= 2", cnt)
	}
	if cnt := checker.getUpdateDBMetricsCount(); cnt < 2 {
		t.Errorf("UpdateDBMetrics called %d times, want >= 2", cnt)
	}
}

// =============================================================================
// Observer Tests
// =============================================================================

func TestNewFilesystemObserver(t *testing.T) {
	observer := NewFilesystemObserver()
	if observer == nil {
		t.Fatal("NewFilesystemObserver returned nil")
	}
}

func TestFilesystemObserverImplementsInterface(t *testing.T) {
	observer := NewFilesystemObserver()

	if observer == nil {
		t.Fatal("observer is nil")
	}
}

func TestObserveOperationSuccess(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveOperation panicked: %v", r)
		}
	}()

	observer.ObserveOperation("media", "stat", 0.005, nil)
	observer.ObserveOperation("derived", "write", 0.01, nil)
	observer.ObserveOperation("catalog", "stat", 0.001, nil)
	observer.ObserveOperation("unknown", "readdir", 0.02, nil)
}

func TestObserveOperationWithError(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveOperation with error panicked: %v", r)
		}
	}()

	testErr := errors.New("test filesystem error")
	observer.ObserveOperation("media", "stat", 0.1, testErr)
	observer.ObserveOperation("derived", "write", 0.5, testErr)
}

func TestObserveRetryAttempt(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveRetryAttempt panicked: %v", r)
		}
	}()

	observer.ObserveRetryAttempt("stat", "media")
	observer.ObserveRetryAttempt("open", "derived")
	observer.ObserveRetryAttempt("readdir", "catalog")
	observer.ObserveRetryAttempt("write", "unknown")
}

func TestObserveRetrySuccess(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveRetrySuccess panicked: %v", r)
		}
	}()

	observer.ObserveRetrySuccess("stat", "media")
	observer.ObserveRetrySuccess("open", "derived")
}

func TestObserveRetryFailure(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveRetryFailure panicked: %v", r)
		}
	}()

	observer.ObserveRetryFailure("stat", "media")
	observer.ObserveRetryFailure("open", "catalog")
}

func TestObserveRetryDuration(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveRetryDuration panicked: %v", r)
		}
	}()

	observer.ObserveRetryDuration("stat", "media", 0.05)
	observer.ObserveRetryDuration("open", "derived", 0.1)
	observer.ObserveRetryDuration("readdir", "catalog", 1.5)
}

func TestObserveStaleError(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveStaleError panicked: %v", r)
		}
	}()

	observer.ObserveStaleError("stat", "media")
	observer.ObserveStaleError("open", "derived")
	observer.ObserveStaleError("readdir", "catalog")
}

func TestObserverAllMethodsCombined(t *testing.T) {
	observer := NewFilesystemObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Observer combined operations panicked: %v", r)
		}
	}()

	observer.ObserveRetryAttempt("stat", "media")
	observer.ObserveStaleError("stat", "media")
	observer.ObserveRetryAttempt("stat", "media")
	observer.ObserveRetrySuccess("stat", "media")
	observer.ObserveRetryDuration("stat", "media", 0.15)
	observer.ObserveOperation("media", "stat", 0.15, nil)
}

func TestObserverConcurrentAccess(t *testing.T) {
	observer := NewFilesystemObserver()
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Goroutine %d panicked: %v", id, r)
				}
				done <- true
			}()

			observer.ObserveOperation("media", "stat", 0.001, nil)
			observer.ObserveRetryAttempt("stat", "media")
			observer.ObserveRetrySuccess("stat", "media")
			observer.ObserveRetryDuration("stat", "media", 0.01)
			observer.ObserveStaleError("open", "derived")
			observer.ObserveRetryFailure("open", "derived")
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

// =============================================================================
// InitializeMetrics Tests
// =============================================================================

func TestInitializeMetrics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("InitializeMetrics() panicked: %v", r)
		}
	}()

	InitializeMetrics()
}

func TestInitializeMetricsIdempotent(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("InitializeMetrics() panicked on second call: %v", r)
		}
	}()

	InitializeMetrics()
	InitializeMetrics()
}

func TestInitializeMetricsPrePopulatesDBStorageErrors(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated DBStorageErrors panicked: %v", r)
		}
	}()

	for _, file := range []string{"main", "wal", "shm"} {
		DBStorageErrors.WithLabelValues(file).Add(0)
	}
}

func TestInitializeMetricsPrePopulatesFilesystemMetrics(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated filesystem metrics panicked: %v", r)
		}
	}()

	volumes := []string{"media", "derived", "catalog", "unknown"}
	fsOps := []string{"read", "write", "stat", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op).Observe(0)
			FilesystemOperationErrors.WithLabelValues(vol, op).Add(0)
		}
	}

	retryOps := []string{"stat", "open", "readdir", "write"}
	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol).Add(0)
			FilesystemRetrySuccess.WithLabelValues(op, vol).Add(0)
			FilesystemRetryFailures.WithLabelValues(op, vol).Add(0)
			FilesystemStaleErrors.WithLabelValues(op, vol).Add(0)
			FilesystemRetryDuration.WithLabelValues(op, vol).Observe(0)
		}
	}
}

func TestInitializeMetricsPrePopulatesThumbnailMetrics(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated thumbnail metrics panicked: %v", r)
		}
	}()

	formats := []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "heic", "avif", "unknown"}
	for _, format := range formats {
		ThumbnailImageDecodeByFormat.WithLabelValues(format).Add(0)
	}

	artifacts := []string{"thumb", "preview", "video_frame"}
	phases := []string{"decode", "resize", "encode", "cache"}
	for _, a := range artifacts {
		for _, p := range phases {
			ThumbnailGenerationDurationDetailed.WithLabelValues(a, p).Observe(0)
		}
		ThumbnailMemoryUsageBytes.WithLabelValues(a).Set(0)
		ThumbnailGenerationsTotal.WithLabelValues(a, "success").Add(0)
		ThumbnailGenerationsTotal.WithLabelValues(a, "error").Add(0)
	}
}

func TestInitializeMetricsPrePopulatesCatalogQueryMetrics(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated catalog query metrics panicked: %v", r)
		}
	}()

	ops := []string{
		"upsert_asset", "search_assets", "skipgate_lookup", "get_by_path", "get_by_id",
		"list_assets", "delete_asset_by_id", "delete_by_prefix", "rename_asset",
		"add_scan_root", "remove_scan_root", "clear_all", "create_album", "update_album",
		"delete_album", "add_album_assets", "remove_album_assets",
	}
	for _, op := range ops {
		CatalogQueryTotal.WithLabelValues(op, "success").Add(0)
		CatalogQueryTotal.WithLabelValues(op, "error").Add(0)
		CatalogQueryDuration.WithLabelValues(op).Observe(0)
	}

	txTypes := []string{"commit", "rollback", "batch_insert", "batch_update", "cleanup"}
	for _, tt := range txTypes {
		DBTransactionDuration.WithLabelValues(tt).Observe(0)
	}
}

func TestInitializeMetricsPrePopulatesPipelineQueueMetrics(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated pipeline queue metrics panicked: %v", r)
		}
	}()

	for _, q := range []string{"discover", "hash", "metaextract", "catalog_write", "thumbnail"} {
		QueueDepth.WithLabelValues(q).Set(0)
		QueueCapacity.WithLabelValues(q).Set(0)
		QueueDropsTotal.WithLabelValues(q).Add(0)
	}
}

func TestInitializeMetricsPrePopulatesHashAndMetaExtractMetrics(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated hash/metaextract metrics panicked: %v", r)
		}
	}()

	for _, alg := range []string{"xxh3", "sha256"} {
		HashOperationsTotal.WithLabelValues(alg, "success").Add(0)
		HashOperationsTotal.WithLabelValues(alg, "error").Add(0)
		HashDuration.WithLabelValues(alg).Observe(0)
	}

	for _, kind := range []string{"image", "video"} {
		MetaExtractTotal.WithLabelValues(kind, "success").Add(0)
		MetaExtractTotal.WithLabelValues(kind, "error").Add(0)
		MetaExtractDuration.WithLabelValues(kind).Observe(0)
	}
}

func TestInitializeMetricsPrePopulatesMediaToolAndAssetsMetrics(t *testing.T) {
	InitializeMetrics()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Accessing pre-populated mediatool/assets metrics panicked: %v", r)
		}
	}()

	for _, kind := range []string{"thumbnail", "transcode", "audio_extract"} {
		MediaToolJobsTotal.WithLabelValues(kind, "success").Add(0)
		MediaToolJobsTotal.WithLabelValues(kind, "error").Add(0)
		MediaToolJobDuration.WithLabelValues(kind).Observe(0)
	}

	for _, kind := range []string{"image", "video", "other"} {
		AssetsTotal.WithLabelValues(kind).Set(0)
	}
}
