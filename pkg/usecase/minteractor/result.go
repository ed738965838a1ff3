// 指示: miu200521358
package minteractor

// PrepareProgressEventType は準備パスの進捗イベント種別を表す。
type PrepareProgressEventType string

const (
	// PrepareProgressEventTypeIndexBuilt は対応付けインデックス構築完了イベントを表す。
	PrepareProgressEventTypeIndexBuilt PrepareProgressEventType = "index_built"
	// PrepareProgressEventTypeNodesNormalized はノード正規化完了イベントを表す。
	PrepareProgressEventTypeNodesNormalized PrepareProgressEventType = "nodes_normalized"
	// PrepareProgressEventTypeMaterialFixesApplied は材質補正完了イベントを表す。
	PrepareProgressEventTypeMaterialFixesApplied PrepareProgressEventType = "material_fixes_applied"
	// PrepareProgressEventTypeBackfacesSynthesized は裏面メッシュ合成完了イベントを表す。
	PrepareProgressEventTypeBackfacesSynthesized PrepareProgressEventType = "backfaces_synthesized"
)

// PrepareProgressEvent は準備パスの進捗イベントを表す。
type PrepareProgressEvent struct {
	Type          PrepareProgressEventType
	NodeCount     int
	MaterialCount int
	BackfaceCount int
}

// IPrepareProgressReporter は準備パスの進捗通知契約を表す。
type IPrepareProgressReporter interface {
	// ReportPrepareProgress は準備パス進捗を通知する。
	ReportPrepareProgress(event PrepareProgressEvent)
}

// reportPrepareProgress は準備パスの進捗を通知する。
func reportPrepareProgress(reporter IPrepareProgressReporter, event PrepareProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportPrepareProgress(event)
}

// ComposeProgressEventType は外観合成の進捗イベント種別を表す。
type ComposeProgressEventType string

const (
	// ComposeProgressEventTypeVariantSelected はバリアント選択完了イベントを表す。
	ComposeProgressEventTypeVariantSelected ComposeProgressEventType = "variant_selected"
	// ComposeProgressEventTypePoseCorrected は姿勢補正適用完了イベントを表す。
	ComposeProgressEventTypePoseCorrected ComposeProgressEventType = "pose_corrected"
	// ComposeProgressEventTypeFetchIssued はテクスチャ取得発行イベントを表す。
	ComposeProgressEventTypeFetchIssued ComposeProgressEventType = "fetch_issued"
	// ComposeProgressEventTypeFetchCompleted はテクスチャ取得完了イベントを表す。
	ComposeProgressEventTypeFetchCompleted ComposeProgressEventType = "fetch_completed"
	// ComposeProgressEventTypeRevealed はインスタンス可視化イベントを表す。
	ComposeProgressEventTypeRevealed ComposeProgressEventType = "revealed"
)

// ComposeProgressEvent は外観合成の進捗イベントを表す。
type ComposeProgressEvent struct {
	Type        ComposeProgressEventType
	VariantName string
	FetchPath   string
}

// IComposeProgressReporter は外観合成の進捗通知契約を表す。
type IComposeProgressReporter interface {
	// ReportComposeProgress は外観合成進捗を通知する。
	ReportComposeProgress(event ComposeProgressEvent)
}

// reportComposeProgress は外観合成の進捗を通知する。
func reportComposeProgress(reporter IComposeProgressReporter, event ComposeProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportComposeProgress(event)
}
