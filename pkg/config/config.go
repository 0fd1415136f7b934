// Package config loads the service-wide YAML configuration described in
// spec §6: base path, supported extensions, excluded directories, and the
// tunables for the file watcher, batch indexing, lock manager, and memory
// pressure advisory.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UserHomeDirectory is swappable in tests, mirroring the teacher's
// UserConfigDirectory var in pkg/config/cli-path.go.
var UserHomeDirectory = os.UserHomeDir

const (
	DefaultBaseDir = "~/.coa/codesearch"

	DefaultDebounceMS          = 500
	DefaultAtomicWriteWindowMS = 100
	DefaultDeleteQuietPeriodS  = 5
	DefaultWatcherBatchSize    = 50

	DefaultBatchIndexSize  = 500
	DefaultMaxBatchAgeS    = 30

	DefaultTestArtifactMinAgeM = 1
	DefaultWorkspaceMinAgeM    = 5
	DefaultStuckLockAgeM       = 15

	DefaultMaxMemoryMB            = 1024
	DefaultThrottleThresholdPercent = 85
	DefaultGCThresholdPercent       = 75

	DefaultMaxFileSizeBytes = 10 * 1024 * 1024
)

// FileWatcherConfig holds the ChangePipeline tunables (§4.7, §6).
type FileWatcherConfig struct {
	DebounceMS          int `yaml:"debounce_ms"`
	DeleteQuietPeriodS  int `yaml:"delete_quiet_period_s"`
	AtomicWriteWindowMS int `yaml:"atomic_write_window_ms"`
	BatchSize           int `yaml:"batch_size"`
}

// BatchIndexingConfig holds the BatchBuffer tunables (§4.6, §6).
type BatchIndexingConfig struct {
	BatchSize   int `yaml:"batch_size"`
	MaxBatchAgeS int `yaml:"max_batch_age_s"`
}

// LockManagerConfig holds the LockManager tier thresholds (§4.2, §6).
type LockManagerConfig struct {
	TestArtifactMinAgeM int `yaml:"test_artifact_min_age_m"`
	WorkspaceMinAgeM    int `yaml:"workspace_min_age_m"`
	StuckLockAgeM       int `yaml:"stuck_lock_age_m"`
}

// MemoryPressureConfig holds advisory thresholds consumed by the (external)
// memory pressure collaborator; Indexer and ChangePipeline only read the
// resulting advisory level, never these raw thresholds.
type MemoryPressureConfig struct {
	MaxMemoryMB            int `yaml:"max_memory_mb"`
	ThrottleThresholdPercent int `yaml:"throttle_threshold_percent"`
	GCThresholdPercent       int `yaml:"gc_threshold_percent"`
}

// Config is the top-level service configuration (§6).
type Config struct {
	BasePath             string               `yaml:"base_path"`
	SupportedExtensions  []string             `yaml:"supported_extensions,omitempty"`
	ExcludedDirectories  []string             `yaml:"excluded_directories,omitempty"`
	FileWatcher          FileWatcherConfig    `yaml:"file_watcher"`
	BatchIndexing        BatchIndexingConfig  `yaml:"batch_indexing"`
	LockManager          LockManagerConfig    `yaml:"lock_manager"`
	MemoryPressure       MemoryPressureConfig `yaml:"memory_pressure"`
	MaxFileSizeBytes     int64                `yaml:"max_file_size_bytes"`
}

// DefaultExcludedDirectories matches spec §6.
func DefaultExcludedDirectories() []string {
	return []string{
		"bin", "obj", "node_modules", ".git", ".vs", "packages",
		"TestResults", ".coa", ".codesearch",
	}
}

// DefaultSupportedExtensions matches the "must include" set in spec §6.
func DefaultSupportedExtensions() []string {
	return []string{
		".cs", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".go", ".rs",
		".cpp", ".cc", ".cxx", ".hpp", ".c", ".h", ".rb", ".php", ".swift",
		".scala", ".html", ".htm", ".css", ".scss", ".json", ".jsonc",
		".toml", ".jl", ".hs", ".ml", ".mli", ".v", ".vh", ".sv",
		".bash", ".sh", ".vue", ".razor", ".cshtml",
	}
}

// Default returns a Config populated with every default in spec §6.
func Default() Config {
	return Config{
		BasePath:            DefaultBaseDir,
		SupportedExtensions: DefaultSupportedExtensions(),
		ExcludedDirectories: DefaultExcludedDirectories(),
		FileWatcher: FileWatcherConfig{
			DebounceMS:          DefaultDebounceMS,
			DeleteQuietPeriodS:  DefaultDeleteQuietPeriodS,
			AtomicWriteWindowMS: DefaultAtomicWriteWindowMS,
			BatchSize:           DefaultWatcherBatchSize,
		},
		BatchIndexing: BatchIndexingConfig{
			BatchSize:    DefaultBatchIndexSize,
			MaxBatchAgeS: DefaultMaxBatchAgeS,
		},
		LockManager: LockManagerConfig{
			TestArtifactMinAgeM: DefaultTestArtifactMinAgeM,
			WorkspaceMinAgeM:    DefaultWorkspaceMinAgeM,
			StuckLockAgeM:       DefaultStuckLockAgeM,
		},
		MemoryPressure: MemoryPressureConfig{
			MaxMemoryMB:             DefaultMaxMemoryMB,
			ThrottleThresholdPercent: DefaultThrottleThresholdPercent,
			GCThresholdPercent:       DefaultGCThresholdPercent,
		},
		MaxFileSizeBytes: DefaultMaxFileSizeBytes,
	}
}

// Load reads a YAML config file at path and merges it onto Default(). A
// missing file is not an error: Default() alone is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var override Config
	if err := yaml.Unmarshal(content, &override); err != nil {
		return cfg, err
	}

	return cfg.merge(override), nil
}

// merge overlays non-zero fields of override onto c, the way the teacher's
// embeddings.Config.Merge does for per-vault embedding settings.
func (c Config) merge(override Config) Config {
	result := c
	if override.BasePath != "" {
		result.BasePath = override.BasePath
	}
	if len(override.SupportedExtensions) > 0 {
		result.SupportedExtensions = override.SupportedExtensions
	}
	if len(override.ExcludedDirectories) > 0 {
		result.ExcludedDirectories = override.ExcludedDirectories
	}
	if override.FileWatcher.DebounceMS > 0 {
		result.FileWatcher.DebounceMS = override.FileWatcher.DebounceMS
	}
	if override.FileWatcher.DeleteQuietPeriodS > 0 {
		result.FileWatcher.DeleteQuietPeriodS = override.FileWatcher.DeleteQuietPeriodS
	}
	if override.FileWatcher.AtomicWriteWindowMS > 0 {
		result.FileWatcher.AtomicWriteWindowMS = override.FileWatcher.AtomicWriteWindowMS
	}
	if override.FileWatcher.BatchSize > 0 {
		result.FileWatcher.BatchSize = override.FileWatcher.BatchSize
	}
	if override.BatchIndexing.BatchSize > 0 {
		result.BatchIndexing.BatchSize = override.BatchIndexing.BatchSize
	}
	if override.BatchIndexing.MaxBatchAgeS > 0 {
		result.BatchIndexing.MaxBatchAgeS = override.BatchIndexing.MaxBatchAgeS
	}
	if override.LockManager.TestArtifactMinAgeM > 0 {
		result.LockManager.TestArtifactMinAgeM = override.LockManager.TestArtifactMinAgeM
	}
	if override.LockManager.WorkspaceMinAgeM > 0 {
		result.LockManager.WorkspaceMinAgeM = override.LockManager.WorkspaceMinAgeM
	}
	if override.LockManager.StuckLockAgeM > 0 {
		result.LockManager.StuckLockAgeM = override.LockManager.StuckLockAgeM
	}
	if override.MemoryPressure.MaxMemoryMB > 0 {
		result.MemoryPressure.MaxMemoryMB = override.MemoryPressure.MaxMemoryMB
	}
	if override.MemoryPressure.ThrottleThresholdPercent > 0 {
		result.MemoryPressure.ThrottleThresholdPercent = override.MemoryPressure.ThrottleThresholdPercent
	}
	if override.MemoryPressure.GCThresholdPercent > 0 {
		result.MemoryPressure.GCThresholdPercent = override.MemoryPressure.GCThresholdPercent
	}
	if override.MaxFileSizeBytes > 0 {
		result.MaxFileSizeBytes = override.MaxFileSizeBytes
	}
	return result
}

// ExpandBasePath applies the leading "~/" expansion rule from spec §4.1.
func ExpandBasePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := UserHomeDirectory()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// DebounceInterval, etc. convert the config's millisecond/second fields into
// time.Duration for direct use by the pipeline.
func (f FileWatcherConfig) DebounceInterval() time.Duration {
	return time.Duration(f.DebounceMS) * time.Millisecond
}

func (f FileWatcherConfig) AtomicWriteWindow() time.Duration {
	return time.Duration(f.AtomicWriteWindowMS) * time.Millisecond
}

func (f FileWatcherConfig) DeleteQuietPeriod() time.Duration {
	return time.Duration(f.DeleteQuietPeriodS) * time.Second
}

func (b BatchIndexingConfig) MaxBatchAge() time.Duration {
	return time.Duration(b.MaxBatchAgeS) * time.Second
}

func (l LockManagerConfig) TestArtifactMinAge() time.Duration {
	return time.Duration(l.TestArtifactMinAgeM) * time.Minute
}

func (l LockManagerConfig) WorkspaceMinAge() time.Duration {
	return time.Duration(l.WorkspaceMinAgeM) * time.Minute
}

func (l LockManagerConfig) StuckLockAge() time.Duration {
	return time.Duration(l.StuckLockAgeM) * time.Minute
}
