// Package main is the entry point for glspool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"glspool/internal/api"
	"glspool/internal/config"
	"glspool/internal/logger"
	"glspool/internal/scenario"
)

var (
	version = "dev"
)

// options はコマンドラインで指定された値
type options struct {
	configFile     string
	presetName     string
	workers        int
	jobs           int
	submitters     int
	jobDuration    time.Duration
	submitInterval time.Duration
	logLevel       string
	addr           string

	// set は明示的に指定されたフラグ名
	set map[string]bool
}

func main() {
	var opts options

	// フラグ定義
	flag.StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	flag.StringVar(&opts.presetName, "preset", "", "プリセットシナリオ名 ("+strings.Join(scenario.ListPresets(), ", ")+")")
	flag.IntVar(&opts.workers, "workers", 0, "プールのワーカー数")
	flag.IntVar(&opts.jobs, "jobs", 0, "投入するジョブ数")
	flag.IntVar(&opts.submitters, "submitters", 0, "投入側ゴルーチン数")
	flag.DurationVar(&opts.jobDuration, "job-duration", 0, "1ジョブあたりの処理時間 (例: 1ms)")
	flag.DurationVar(&opts.submitInterval, "submit-interval", 0, "投入側ごとの投入間隔 (例: 10ms)")
	flag.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	flag.StringVar(&opts.addr, "addr", "", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")
	var (
		listPresets = flag.Bool("list-presets", false, "利用可能なプリセットを表示")
		showVersion = flag.Bool("version", false, "バージョンを表示")
		serverMode  = flag.Bool("server", false, "APIサーバーモードで起動")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `glspool - Fixed-size worker pool load runner

Usage:
  glspool [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # プリセットシナリオを実行
  glspool --preset stress

  # 設定ファイルから実行
  glspool --config pool.yaml

  # フラグでカスタマイズ
  glspool --preset basic --workers 8 --jobs 10000 --submitters 4

  # プリセット一覧を表示
  glspool --list-presets

  # APIサーバーモードで起動
  glspool --server --addr :3000
`)
	}

	flag.Parse()

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	// バージョン表示
	if *showVersion {
		fmt.Printf("glspool version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	fileConfig, err := loadFileConfig(opts.configFile)
	if err != nil {
		logger.Error("main", "設定エラー: %v", err)
		os.Exit(1)
	}

	if err := applyLogLevel(fileConfig, opts); err != nil {
		logger.Error("main", "設定エラー: %v", err)
		os.Exit(1)
	}

	// APIサーバーモード
	if *serverMode {
		addr := fileConfig.Addr()
		if opts.addr != "" {
			addr = opts.addr
		}
		if err := runServer(addr, fileConfig.Namespace()); err != nil {
			logger.Error("main", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	// シナリオ設定の決定
	scenarioConfig, err := buildScenarioConfig(fileConfig, opts)
	if err != nil {
		logger.Error("main", "設定エラー: %v", err)
		os.Exit(1)
	}

	// シナリオ実行
	result, err := runScenario(scenarioConfig)
	if err != nil {
		logger.Error("main", "シナリオ実行エラー: %v", err)
		os.Exit(1)
	}
	if !result.Verified() {
		os.Exit(1)
	}
}

// loadFileConfig は設定ファイルを読み込む。未指定なら空の設定を返す
func loadFileConfig(path string) (*config.FileConfig, error) {
	if path == "" {
		return &config.FileConfig{}, nil
	}
	fileConfig, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
	}
	if err := fileConfig.Validate(); err != nil {
		return nil, fmt.Errorf("設定検証エラー: %w", err)
	}
	return fileConfig, nil
}

// applyLogLevel はフラグまたは設定ファイルのログレベルを反映する
func applyLogLevel(fileConfig *config.FileConfig, opts options) error {
	level, err := fileConfig.LogLevel()
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		if level, err = logger.ParseLevel(opts.logLevel); err != nil {
			return err
		}
	}
	logger.Default.SetLevel(level)
	return nil
}

// buildScenarioConfig はシナリオ設定を構築する
// 優先順位: フラグ > 設定ファイル > プリセット
func buildScenarioConfig(fileConfig *config.FileConfig, opts options) (scenario.Config, error) {
	fc := *fileConfig
	if opts.presetName != "" {
		if _, ok := scenario.GetPreset(opts.presetName); !ok {
			return scenario.Config{}, fmt.Errorf("不明なプリセット: %s (利用可能: %v)",
				opts.presetName, scenario.ListPresets())
		}
		fc.Scenario.Preset = opts.presetName
	}

	cfg, err := fc.ToScenarioConfig()
	if err != nil {
		return cfg, fmt.Errorf("設定変換エラー: %w", err)
	}

	// フラグが明示的に指定された場合のみオーバーライド
	if opts.set["workers"] {
		cfg.Workers = opts.workers
	}
	if opts.set["jobs"] {
		cfg.Jobs = opts.jobs
	}
	if opts.set["submitters"] {
		cfg.Submitters = opts.submitters
	}
	if opts.set["job-duration"] {
		cfg.JobDuration = opts.jobDuration
	}
	if opts.set["submit-interval"] {
		cfg.SubmitInterval = opts.submitInterval
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runScenario はシナリオを実行する
func runScenario(cfg scenario.Config) (*scenario.Result, error) {
	fmt.Println("glspool - Fixed-size worker pool load runner")
	fmt.Println("============================================")
	fmt.Printf("Scenario: %s\n", cfg.Name)
	fmt.Printf("Workers: %d, Jobs: %d, Submitters: %d\n", cfg.Workers, cfg.Jobs, cfg.Submitters)
	fmt.Printf("Job Duration: %v\n", cfg.JobDuration)
	fmt.Println("============================================")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// シナリオ実行
	engine := scenario.New(cfg)
	result, err := engine.Run(ctx)
	if err != nil {
		return result, err
	}
	if result.Interrupted {
		fmt.Println("\n中断シグナルを受信、投入を停止しました")
	}

	// レポート出力
	fmt.Println(result.Report())

	return result, nil
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセットシナリオ:")
	fmt.Println()

	for _, name := range scenario.ListPresets() {
		p, _ := scenario.GetPreset(name)
		fmt.Printf("  %-12s %s\n", p.Name, p.Description)
	}

	fmt.Println()
	fmt.Println("使用例: glspool --preset basic")
}

// runServer はAPIサーバーを起動する
func runServer(addr, namespace string) error {
	fmt.Println("glspool - API Server")
	fmt.Println("====================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Printf("Prometheus metrics at /metrics (namespace %q)\n", namespace)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(addr, namespace)
	return server.Start(ctx)
}
