package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"glspool/internal/logger"
	"glspool/internal/metrics"
	"glspool/internal/scenario"

	"gopkg.in/yaml.v3"
)

// DefaultPreset は preset 未指定時に使うシナリオ
const DefaultPreset = "basic"

// DefaultAddr は server.addr 未指定時の待ち受けアドレス
const DefaultAddr = ":8080"

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Pool     PoolConfig     `yaml:"pool" json:"pool"`
	Scenario ScenarioConfig `yaml:"scenario" json:"scenario"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// PoolConfig はプール設定
type PoolConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// ScenarioConfig はシナリオ設定
type ScenarioConfig struct {
	Preset         string `yaml:"preset" json:"preset"`
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	Jobs           *int   `yaml:"jobs" json:"jobs"` // 0 を明示できるようにポインタ
	Submitters     int    `yaml:"submitters" json:"submitters"`
	JobDuration    string `yaml:"job_duration" json:"job_duration"`
	SubmitInterval string `yaml:"submit_interval" json:"submit_interval"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// MetricsConfig はメトリクス設定
type MetricsConfig struct {
	Namespace string `yaml:"namespace" json:"namespace"`
}

// ServerConfig はAPIサーバー設定
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToScenarioConfig はプリセットにファイルの値を重ねて scenario.Config を作る
func (f *FileConfig) ToScenarioConfig() (scenario.Config, error) {
	sc := f.Scenario

	preset := sc.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	config, ok := scenario.GetPreset(preset)
	if !ok {
		return config, fmt.Errorf("unknown preset: %s", preset)
	}

	if sc.Name != "" {
		config.Name = sc.Name
	}
	if sc.Description != "" {
		config.Description = sc.Description
	}
	if f.Pool.Workers > 0 {
		config.Workers = f.Pool.Workers
	}
	if sc.Jobs != nil {
		config.Jobs = *sc.Jobs
	}
	if sc.Submitters > 0 {
		config.Submitters = sc.Submitters
	}
	if sc.JobDuration != "" {
		d, err := time.ParseDuration(sc.JobDuration)
		if err != nil {
			return config, fmt.Errorf("invalid job_duration: %w", err)
		}
		config.JobDuration = d
	}
	if sc.SubmitInterval != "" {
		d, err := time.ParseDuration(sc.SubmitInterval)
		if err != nil {
			return config, fmt.Errorf("invalid submit_interval: %w", err)
		}
		config.SubmitInterval = d
	}

	return config, nil
}

// LogLevel はログレベルを返す。未指定なら INFO
func (f *FileConfig) LogLevel() (logger.Level, error) {
	if f.Log.Level == "" {
		return logger.LevelInfo, nil
	}
	return logger.ParseLevel(f.Log.Level)
}

// Namespace はメトリクスの名前空間を返す
func (f *FileConfig) Namespace() string {
	if f.Metrics.Namespace == "" {
		return metrics.DefaultNamespace
	}
	return f.Metrics.Namespace
}

// Addr はAPIサーバーの待ち受けアドレスを返す
func (f *FileConfig) Addr() string {
	if f.Server.Addr == "" {
		return DefaultAddr
	}
	return f.Server.Addr
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Scenario

	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}

	if sc.Preset != "" {
		if _, ok := scenario.GetPreset(sc.Preset); !ok {
			return fmt.Errorf("unknown scenario.preset: %s", sc.Preset)
		}
	}

	if sc.Jobs != nil && *sc.Jobs < 0 {
		return fmt.Errorf("scenario.jobs must be non-negative")
	}

	if sc.Submitters < 0 {
		return fmt.Errorf("scenario.submitters must be non-negative")
	}

	for field, v := range map[string]string{
		"scenario.job_duration":    sc.JobDuration,
		"scenario.submit_interval": sc.SubmitInterval,
	} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", field, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative", field)
		}
	}

	if _, err := f.LogLevel(); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}

	return nil
}
