// 指示: miu200521358
// Package messages はCLI表示に使うメッセージキーを提供する。
package messages

// メッセージキー一覧。
const (
	HelpUsageTitle = "使い方"
	HelpUsage      = "使い方説明"

	LabelFile        = "ファイル"
	LabelAssetPath   = "アセット入力"
	LabelSelector    = "バリアント選択子"
	LabelSelectorTip = "バリアント選択子説明"
	LabelCloneCount  = "クローン数"

	MessageLoadFailed      = "読み込み失敗"
	MessagePrepareFailed   = "準備失敗"
	MessageCloneFailed     = "クローン失敗"
	MessageComposeFailed   = "外観合成失敗"
	MessageInputRequired   = "アセットファイルを指定してください"
	MessageVariantNotFound = "バリアントが見つかりません"

	LogLoadSuccess    = "アセット読み込み成功: %s"
	LogPrepareSuccess = "準備パス完了: %s"
	LogComposeSuccess = "外観合成完了: %s"
)
