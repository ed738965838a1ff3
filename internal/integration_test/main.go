// 指示: miu200521358
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_avatar_viewer/pkg/adapter/io_asset/gltfasset"
	"github.com/miu200521358/mu_avatar_viewer/pkg/adapter/io_texture/filetexture"
	"github.com/miu200521358/mu_avatar_viewer/pkg/adapter/render"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/minteractor"
)

const (
	batchComposeTimeout = 30 * time.Second
)

var targetAssetPaths = []string{
	"E:/MMD_E/202101_vroid/Glb/avatar_base.glb",
	// "E:/MMD_E/202101_vroid/Glb/avatar_meta_rig.glb",
	// "E:/MMD_E/202101_vroid/Glb/avatar_female.glb",
	// "C:/Codex/mlib/mu_avatar_viewer/internal/test_resources/glb/outfit_sampler.glb",
}

// batchConfig はバッチ検証の実行設定を表す。
type batchConfig struct {
	TextureRoot string
	Selector    string
	CloneCount  int
	DryRun      bool
	FailFast    bool
}

// viewEntry は1アセット分の検証入力情報を表す。
type viewEntry struct {
	Index      int
	SourcePath string
	AssetName  string
}

// viewResult は1アセット分の検証結果を表す。
type viewResult struct {
	Entry            viewEntry
	Status           string
	Duration         time.Duration
	Err              error
	PrepareStageInfo string
	ComposeStageInfo string
	FinalStates      []string
}

// prepareProgressCollector は PrepareInstance の進捗イベントを収集する。
type prepareProgressCollector struct {
	eventCounts map[minteractor.PrepareProgressEventType]int
	nodeMax     int
	materialMax int
	backfaceMax int
}

// composeProgressCollector は ComposeAppearance の進捗イベントを収集する。
type composeProgressCollector struct {
	eventCounts map[minteractor.ComposeProgressEventType]int
	fetchPaths  []string
}

// main は検証向けのアセット一括読込・合成を実行する。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括検証を実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	entries := buildViewEntries(targetAssetPaths)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "検証対象アセットがありません")
		return 2
	}

	results := executeBatchView(config, entries)
	printBatchSummary(results)

	hasFailed := false
	for _, result := range results {
		if result.Status == "failed" {
			hasFailed = true
			break
		}
	}
	if hasFailed {
		return 1
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	textureRoot := flag.String("texture-root", "", "テクスチャ探索ルートディレクトリ(空なら入力と同じ場所)")
	selector := flag.String("outfit", "", "バリアント選択子")
	cloneCount := flag.Int("count", 2, "インスタンス複製込みの表示数")
	dryRun := flag.Bool("dry-run", false, "実処理せず、入力解決のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	if *cloneCount < 1 {
		return batchConfig{}, errors.New("count は1以上を指定してください")
	}
	return batchConfig{
		TextureRoot: strings.TrimSpace(*textureRoot),
		Selector:    strings.TrimSpace(*selector),
		CloneCount:  *cloneCount,
		DryRun:      *dryRun,
		FailFast:    *failFast,
	}, nil
}

// buildViewEntries は入力パス一覧から検証対象エントリを生成する。
func buildViewEntries(inputPaths []string) []viewEntry {
	entries := make([]viewEntry, 0, len(inputPaths))
	for i, rawPath := range inputPaths {
		resolvedInputPath := normalizeInputPath(rawPath)
		entries = append(entries, viewEntry{
			Index:      i + 1,
			SourcePath: resolvedInputPath,
			AssetName:  resolveAssetName(rawPath),
		})
	}
	return entries
}

// executeBatchView は全アセットの検証処理を順次実行する。
func executeBatchView(config batchConfig, entries []viewEntry) []viewResult {
	results := make([]viewResult, 0, len(entries))
	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] 検証開始: asset=%s\n", entry.Index, total, entry.AssetName)
		result := viewAssetEntry(config, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] 検証成功: asset=%s elapsed=%s states=%s\n",
				entry.Index, total, entry.AssetName,
				result.Duration.Round(time.Millisecond),
				strings.Join(result.FinalStates, ","))
			if strings.TrimSpace(result.PrepareStageInfo) != "" {
				fmt.Printf("[%d/%d] PrepareInstance進捗: %s\n", entry.Index, total, result.PrepareStageInfo)
			}
			if strings.TrimSpace(result.ComposeStageInfo) != "" {
				fmt.Printf("[%d/%d] ComposeAppearance進捗: %s\n", entry.Index, total, result.ComposeStageInfo)
			}
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: asset=%s input=%s\n", entry.Index, total, entry.AssetName, entry.SourcePath)
		case "skipped_missing":
			fmt.Printf("[%d/%d] 入力不足でスキップ: asset=%s input=%s reason=%v\n", entry.Index, total, entry.AssetName, entry.SourcePath, result.Err)
		default:
			fmt.Printf("[%d/%d] 検証失敗: asset=%s reason=%v\n", entry.Index, total, entry.AssetName, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// viewAssetEntry は1アセット分の読込・準備・複製・合成を実行する。
func viewAssetEntry(config batchConfig, entry viewEntry) viewResult {
	result := viewResult{
		Entry:  entry,
		Status: "failed",
	}
	if _, err := os.Stat(entry.SourcePath); err != nil {
		result.Status = "skipped_missing"
		result.Err = err
		return result
	}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}

	textureRoot := config.TextureRoot
	if textureRoot == "" {
		textureRoot = filepath.Dir(entry.SourcePath)
	}
	usecase := minteractor.NewAvatarViewerUsecase(minteractor.AvatarViewerUsecaseDeps{
		AssetReader:   gltfasset.NewGltfAssetRepository(),
		TextureLoader: filetexture.NewFileTextureLoader(textureRoot, 0),
		RenderDevice:  render.NewSoftwareDevice(),
	})

	startedAt := time.Now()
	asset, err := usecase.LoadAsset(nil, entry.SourcePath)
	if err != nil {
		result.Err = fmt.Errorf("LoadAssetに失敗しました: %w", err)
		return result
	}

	prepareCollector := newPrepareProgressCollector()
	prepared, err := usecase.PrepareInstance(minteractor.PrepareRequest{
		Asset:            asset,
		MaterialRules:    minteractor.NewAvatarMaterialRules(),
		ProgressReporter: prepareCollector,
	})
	if err != nil {
		result.Err = fmt.Errorf("PrepareInstanceに失敗しました: %w", err)
		return result
	}

	instances := []*minteractor.AvatarInstance{prepared.Instance}
	for i := 1; i < config.CloneCount; i++ {
		clone, err := usecase.CloneInstance(prepared.Instance)
		if err != nil {
			result.Err = fmt.Errorf("CloneInstanceに失敗しました: %w", err)
			return result
		}
		instances = append(instances, clone)
	}

	composeCollector := newComposeProgressCollector()
	for _, instance := range instances {
		if _, err := usecase.ComposeAppearance(minteractor.ComposeRequest{
			Instance:         instance,
			Selector:         config.Selector,
			ProgressReporter: composeCollector,
		}); err != nil {
			result.Err = fmt.Errorf("ComposeAppearanceに失敗しました: %w", err)
			return result
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchComposeTimeout)
	defer cancel()
	for anyComposing(instances) {
		if err := usecase.WaitCompletion(ctx); err != nil {
			result.Err = fmt.Errorf("外観合成の完了待ちがタイムアウトしました: %w", err)
			return result
		}
		usecase.ProcessCompletions()
	}

	finalStates := make([]string, 0, len(instances))
	for _, instance := range instances {
		finalStates = append(finalStates, string(instance.CompositionState()))
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	result.PrepareStageInfo = prepareCollector.Summary()
	result.ComposeStageInfo = composeCollector.Summary()
	result.FinalStates = finalStates
	return result
}

// anyComposing は外観合成中のインスタンスが残っているかを返す。
func anyComposing(instances []*minteractor.AvatarInstance) bool {
	for _, instance := range instances {
		state := instance.CompositionState()
		if state == minteractor.CompositionStateVariantSelected ||
			state == minteractor.CompositionStateComposingAppearance {
			return true
		}
	}
	return false
}

// printBatchSummary は検証結果の集計を標準出力へ表示する。
func printBatchSummary(results []viewResult) {
	succeeded := 0
	failed := 0
	skipped := 0
	dryRun := 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		case "skipped_missing":
			skipped++
		default:
			failed++
		}
	}
	fmt.Printf(
		"バッチ検証サマリ: total=%d succeeded=%d failed=%d skipped_missing=%d dry_run=%d\n",
		len(results),
		succeeded,
		failed,
		skipped,
		dryRun,
	)
}

// resolveAssetName は入力パスから拡張子を除いたアセット名を返す。
func resolveAssetName(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	ext := filepath.Ext(base)
	name := strings.TrimSpace(strings.TrimSuffix(base, ext))
	if name == "" {
		return "asset"
	}
	return name
}

// normalizeInputPath は入力パスを実行環境向けに正規化する。
func normalizeInputPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return filepath.Clean(convertWindowsPathToWsl(path))
}

// convertWindowsPathToWsl は Linux 実行時に Windows パスを WSL パスへ変換する。
func convertWindowsPathToWsl(path string) string {
	trimmed := strings.TrimSpace(path)
	if runtime.GOOS != "linux" {
		return trimmed
	}
	if len(trimmed) < 2 || trimmed[1] != ':' {
		return trimmed
	}
	drive := strings.ToLower(trimmed[:1])
	rest := strings.ReplaceAll(trimmed[2:], "\\", "/")
	if rest == "" {
		return filepath.ToSlash(filepath.Join("/mnt", drive))
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return filepath.ToSlash(filepath.Join("/mnt", drive) + rest)
}

// newPrepareProgressCollector は PrepareInstance 進捗収集器を生成する。
func newPrepareProgressCollector() *prepareProgressCollector {
	return &prepareProgressCollector{
		eventCounts: map[minteractor.PrepareProgressEventType]int{},
	}
}

// ReportPrepareProgress は PrepareInstance の進捗イベントを収集する。
func (collector *prepareProgressCollector) ReportPrepareProgress(event minteractor.PrepareProgressEvent) {
	if collector == nil {
		return
	}
	if collector.eventCounts == nil {
		collector.eventCounts = map[minteractor.PrepareProgressEventType]int{}
	}
	collector.eventCounts[event.Type]++
	if event.NodeCount > collector.nodeMax {
		collector.nodeMax = event.NodeCount
	}
	if event.MaterialCount > collector.materialMax {
		collector.materialMax = event.MaterialCount
	}
	if event.BackfaceCount > collector.backfaceMax {
		collector.backfaceMax = event.BackfaceCount
	}
}

// Summary は収集した PrepareInstance 進捗の要約文字列を返す。
func (collector *prepareProgressCollector) Summary() string {
	if collector == nil || len(collector.eventCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(collector.eventCounts))
	for stageType := range collector.eventCounts {
		types = append(types, string(stageType))
	}
	sort.Strings(types)
	return fmt.Sprintf(
		"events=%d nodes=%d materials=%d backfaces=%d stages=%s",
		len(collector.eventCounts),
		collector.nodeMax,
		collector.materialMax,
		collector.backfaceMax,
		strings.Join(types, ","),
	)
}

// newComposeProgressCollector は ComposeAppearance 進捗収集器を生成する。
func newComposeProgressCollector() *composeProgressCollector {
	return &composeProgressCollector{
		eventCounts: map[minteractor.ComposeProgressEventType]int{},
	}
}

// ReportComposeProgress は ComposeAppearance の進捗イベントを収集する。
func (collector *composeProgressCollector) ReportComposeProgress(event minteractor.ComposeProgressEvent) {
	if collector == nil {
		return
	}
	if collector.eventCounts == nil {
		collector.eventCounts = map[minteractor.ComposeProgressEventType]int{}
	}
	collector.eventCounts[event.Type]++
	if strings.TrimSpace(event.FetchPath) != "" {
		collector.fetchPaths = append(collector.fetchPaths, event.FetchPath)
	}
}

// Summary は収集した ComposeAppearance 進捗の要約文字列を返す。
func (collector *composeProgressCollector) Summary() string {
	if collector == nil || len(collector.eventCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(collector.eventCounts))
	for stageType := range collector.eventCounts {
		types = append(types, string(stageType))
	}
	sort.Strings(types)
	return fmt.Sprintf(
		"events=%d fetches=%d stages=%s",
		len(collector.eventCounts),
		len(collector.fetchPaths),
		strings.Join(types, ","),
	)
}
