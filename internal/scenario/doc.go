// Package scenario はワーカープールに負荷をかけて検証するシナリオ実行機能を提供する。
//
// シナリオエンジンはプールを作成し、複数の投入側ゴルーチンからジョブを投入し、
// Finish の後に各ジョブがちょうど1回ずつ実行されたことを検証する。
//
// # 機能
//
// - シナリオ定義と実行
// - 定義済みプリセットシナリオ
// - 実行結果のレポート生成
//
// # プリセットシナリオ
//
// - single: 1ワーカーでのFIFO順の検証
// - basic: 短いジョブの基本実行
// - stress: 16ワーカーで1000ジョブ
// - idle: ジョブなしでの即時終了
// - slow: 処理時間の長いジョブ
//
// # 使用例
//
//	config := scenario.StressScenario()
//	engine := scenario.New(config)
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package scenario
