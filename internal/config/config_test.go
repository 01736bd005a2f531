package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"glspool/internal/logger"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func intPtr(v int) *int { return &v }

func TestLoadFileYAML(t *testing.T) {
	content := `
pool:
  workers: 16
scenario:
  preset: stress
  name: nightly-stress
  jobs: 5000
  submitters: 8
  job_duration: 2ms
log:
  level: debug
metrics:
  namespace: nightly
server:
  addr: ":9090"
`
	cfg, err := LoadFile(writeConfig(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pool.Workers != 16 {
		t.Errorf("expected workers 16, got %d", cfg.Pool.Workers)
	}
	if cfg.Scenario.Preset != "stress" {
		t.Errorf("expected preset 'stress', got '%s'", cfg.Scenario.Preset)
	}
	if cfg.Scenario.Jobs == nil || *cfg.Scenario.Jobs != 5000 {
		t.Errorf("expected jobs 5000, got %v", cfg.Scenario.Jobs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Log.Level)
	}
	if cfg.Namespace() != "nightly" {
		t.Errorf("expected namespace 'nightly', got '%s'", cfg.Namespace())
	}
	if cfg.Addr() != ":9090" {
		t.Errorf("expected addr ':9090', got '%s'", cfg.Addr())
	}
}

func TestLoadFileJSON(t *testing.T) {
	content := `{
  "pool": {"workers": 2},
  "scenario": {
    "preset": "single",
    "jobs": 0
  }
}`
	cfg, err := LoadFile(writeConfig(t, "config.json", content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pool.Workers != 2 {
		t.Errorf("expected workers 2, got %d", cfg.Pool.Workers)
	}
	if cfg.Scenario.Jobs == nil || *cfg.Scenario.Jobs != 0 {
		t.Errorf("expected explicit jobs 0, got %v", cfg.Scenario.Jobs)
	}
	if cfg.Addr() != DefaultAddr {
		t.Errorf("expected default addr, got '%s'", cfg.Addr())
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "config.txt", "test"))
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFileMalformedYAML(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "config.yml", "pool: [unterminated"))
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestToScenarioConfig(t *testing.T) {
	cfg := &FileConfig{
		Pool: PoolConfig{Workers: 8},
		Scenario: ScenarioConfig{
			Preset:         "slow",
			Name:           "custom",
			Description:    "Custom run",
			Jobs:           intPtr(12),
			Submitters:     3,
			JobDuration:    "5ms",
			SubmitInterval: "1ms",
		},
	}

	sc, err := cfg.ToScenarioConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	if sc.Name != "custom" {
		t.Errorf("expected name 'custom', got '%s'", sc.Name)
	}
	if sc.Workers != 8 {
		t.Errorf("expected workers 8, got %d", sc.Workers)
	}
	if sc.Jobs != 12 {
		t.Errorf("expected jobs 12, got %d", sc.Jobs)
	}
	if sc.Submitters != 3 {
		t.Errorf("expected submitters 3, got %d", sc.Submitters)
	}
	if sc.JobDuration != 5*time.Millisecond {
		t.Errorf("expected job duration 5ms, got %v", sc.JobDuration)
	}
	if sc.SubmitInterval != time.Millisecond {
		t.Errorf("expected submit interval 1ms, got %v", sc.SubmitInterval)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("converted config should be valid: %v", err)
	}
}

func TestToScenarioConfigDefaultsToPreset(t *testing.T) {
	cfg := &FileConfig{}

	sc, err := cfg.ToScenarioConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}
	if sc.Name != DefaultPreset {
		t.Errorf("expected preset '%s', got '%s'", DefaultPreset, sc.Name)
	}
}

func TestToScenarioConfigExplicitZeroJobs(t *testing.T) {
	cfg := &FileConfig{
		Scenario: ScenarioConfig{Preset: "stress", Jobs: intPtr(0)},
	}

	sc, err := cfg.ToScenarioConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}
	if sc.Jobs != 0 {
		t.Errorf("expected jobs 0, got %d", sc.Jobs)
	}
}

func TestToScenarioConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		scenario ScenarioConfig
	}{
		{"unknown preset", ScenarioConfig{Preset: "nope"}},
		{"invalid job duration", ScenarioConfig{JobDuration: "invalid"}},
		{"invalid submit interval", ScenarioConfig{SubmitInterval: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FileConfig{Scenario: tt.scenario}
			if _, err := cfg.ToScenarioConfig(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &FileConfig{}
	level, err := cfg.LogLevel()
	if err != nil || level != logger.LevelInfo {
		t.Errorf("expected default INFO, got %v (err=%v)", level, err)
	}

	cfg.Log.Level = "warn"
	level, err = cfg.LogLevel()
	if err != nil || level != logger.LevelWarn {
		t.Errorf("expected WARN, got %v (err=%v)", level, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		config   FileConfig
		hasError bool
	}{
		{
			name:     "valid config",
			config:   FileConfig{},
			hasError: false,
		},
		{
			name: "negative workers",
			config: FileConfig{
				Pool: PoolConfig{Workers: -1},
			},
			hasError: true,
		},
		{
			name: "unknown preset",
			config: FileConfig{
				Scenario: ScenarioConfig{Preset: "chaos"},
			},
			hasError: true,
		},
		{
			name: "negative jobs",
			config: FileConfig{
				Scenario: ScenarioConfig{Jobs: intPtr(-1)},
			},
			hasError: true,
		},
		{
			name: "negative submitters",
			config: FileConfig{
				Scenario: ScenarioConfig{Submitters: -2},
			},
			hasError: true,
		},
		{
			name: "negative job duration",
			config: FileConfig{
				Scenario: ScenarioConfig{JobDuration: "-1s"},
			},
			hasError: true,
		},
		{
			name: "bad submit interval",
			config: FileConfig{
				Scenario: ScenarioConfig{SubmitInterval: "later"},
			},
			hasError: true,
		},
		{
			name: "bad log level",
			config: FileConfig{
				Log: LogConfig{Level: "verbose"},
			},
			hasError: true,
		},
		{
			name: "full valid config",
			config: FileConfig{
				Pool:     PoolConfig{Workers: 4},
				Scenario: ScenarioConfig{Preset: "idle", Jobs: intPtr(0), JobDuration: "0s"},
				Log:      LogConfig{Level: "error"},
			},
			hasError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.hasError && err == nil {
				t.Error("expected error")
			}
			if !tt.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
