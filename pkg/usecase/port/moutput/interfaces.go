// 指示: miu200521358
// Package moutput はビューアコアが依存する外部協調者の契約を提供する。
package moutput

import "github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"

// IAssetReader はアセット読み込みの契約を表す。
// 生成されるランタイムグラフの巡回順は宣言的記述の巡回順と一致しなければならない。
type IAssetReader interface {
	// CanLoad はパスの読み込み可否を判定する。
	CanLoad(path string) bool
	// Load は宣言的記述とランタイムグラフの対を読み込む。
	Load(path string) (*model.Asset, error)
}

// TextureResult は非同期テクスチャ取得の完了結果を表す。
type TextureResult struct {
	Path    string
	Texture *model.Texture
	Err     error
}

// ITextureLoader は非同期テクスチャ取得の契約を表す。
// deliver は取得完了時に一度だけ呼び出される。呼び出しスレッドは規定しないため、
// 利用側が単一ロジックスレッドへ配送し直す責務を持つ。
type ITextureLoader interface {
	// LoadAsync はテクスチャ取得を開始する。
	LoadAsync(path string, deliver func(result TextureResult))
}

// IRenderDevice は描画デバイス機能の契約を表す。
type IRenderDevice interface {
	// GenerateMipmaps はオフスクリーンパスで縮小ミップレベル列を合成する。
	GenerateMipmaps(texture *model.Texture) error
	// XREnabled はステレオ/XR描画モードの有効状態を返す。
	XREnabled() bool
	// SetXREnabled はステレオ/XR描画モードを切り替える。
	SetXREnabled(enabled bool)
}
