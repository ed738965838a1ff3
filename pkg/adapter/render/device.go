// 指示: miu200521358
// Package render はオフスクリーン合成を担うソフトウェア描画デバイスを提供する。
package render

import (
	"fmt"
	"image"
	"sync"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"golang.org/x/image/draw"
)

// SoftwareDevice はGPU非依存の描画デバイス実装を表す。
// ミップレベル合成はCPU上の縮小描画で行う。
type SoftwareDevice struct {
	mu        sync.RWMutex
	xrEnabled bool
	scaler    draw.Scaler
}

// NewSoftwareDevice はSoftwareDeviceを生成する。
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{scaler: draw.BiLinear}
}

// XREnabled はステレオ/XR描画モードの有効状態を返す。
func (d *SoftwareDevice) XREnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.xrEnabled
}

// SetXREnabled はステレオ/XR描画モードを切り替える。
func (d *SoftwareDevice) SetXREnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xrEnabled = enabled
}

// GenerateMipmaps は元画像を逐次半減しながらミップレベル列を合成する。
// 1x1に到達するまで縮小し、結果をテクスチャへ保持する。
func (d *SoftwareDevice) GenerateMipmaps(texture *model.Texture) error {
	if texture == nil {
		return fmt.Errorf("ミップ合成対象のテクスチャがありません")
	}
	if texture.Image == nil {
		return fmt.Errorf("ミップ合成対象の画像が未設定です: %s", texture.Name)
	}

	bounds := texture.Image.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("ミップ合成対象の画像サイズが不正です: %dx%d", width, height)
	}

	mipmaps := make([]image.Image, 0)
	source := texture.Image
	for width > 1 || height > 1 {
		width = halveMipDimension(width)
		height = halveMipDimension(height)
		level := image.NewRGBA(image.Rect(0, 0, width, height))
		d.scaler.Scale(level, level.Bounds(), source, source.Bounds(), draw.Src, nil)
		mipmaps = append(mipmaps, level)
		source = level
	}
	texture.Mipmaps = mipmaps
	return nil
}

// halveMipDimension は次のミップレベルの辺長を返す。最小値は1。
func halveMipDimension(size int) int {
	half := size / 2
	if half < 1 {
		return 1
	}
	return half
}
