package scenario

import "time"

// SingleScenario は1ワーカーでFIFO順を検証するシナリオを返す
func SingleScenario() Config {
	return Config{
		Name:        "single",
		Description: "One worker, one submitter; verifies FIFO execution order",
		Workers:     1,
		Jobs:        100,
		Submitters:  1,
	}
}

// BasicScenario は基本的なシナリオ設定を返す
func BasicScenario() Config {
	return Config{
		Name:        "basic",
		Description: "Basic run with short jobs",
		Workers:     4,
		Jobs:        200,
		Submitters:  1,
		JobDuration: time.Millisecond,
	}
}

// StressScenario は高負荷シナリオを返す
// 多数のワーカーと複数の投入側
func StressScenario() Config {
	return Config{
		Name:        "stress",
		Description: "1000 jobs across 16 workers from concurrent submitters",
		Workers:     16,
		Jobs:        1000,
		Submitters:  4,
	}
}

// IdleScenario はジョブなしで終了するシナリオを返す
func IdleScenario() Config {
	return Config{
		Name:        "idle",
		Description: "No jobs; finish must return promptly",
		Workers:     4,
		Jobs:        0,
		Submitters:  1,
	}
}

// SlowScenario は処理時間の長いジョブのシナリオを返す
func SlowScenario() Config {
	return Config{
		Name:        "slow",
		Description: "Slow jobs; finish waits for in-flight work",
		Workers:     4,
		Jobs:        40,
		Submitters:  2,
		JobDuration: 25 * time.Millisecond,
	}
}

var presets = map[string]func() Config{
	"single": SingleScenario,
	"basic":  BasicScenario,
	"stress": StressScenario,
	"idle":   IdleScenario,
	"slow":   SlowScenario,
}

// GetPreset は名前からプリセットシナリオを取得する
func GetPreset(name string) (Config, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"single", "basic", "stress", "idle", "slow"}
}
