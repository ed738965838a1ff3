// 指示: miu200521358
package model

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// ColorSpace はテクスチャの色空間を表す。
type ColorSpace string

const (
	// ColorSpaceSRGB はsRGB色空間を表す。
	ColorSpaceSRGB ColorSpace = "srgb"
	// ColorSpaceLinear はリニア色空間を表す。
	ColorSpaceLinear ColorSpace = "linear"
)

// Texture は材質が所有するテクスチャマップを表す。
type Texture struct {
	id   int
	Name string
	// Image はデコード済み画像データを表す。クローン間で参照共有される。
	Image image.Image

	Offset     mgl64.Vec2
	Repeat     mgl64.Vec2
	ColorSpace ColorSpace

	// Mipmaps は合成済みミップレベル列を表す。クローン時には引き継がれない。
	Mipmaps []image.Image

	disposed bool
}

// NewTexture はTextureを生成する。
func NewTexture(name string, img image.Image) *Texture {
	return &Texture{
		id:         newObjectID(),
		Name:       name,
		Image:      img,
		Repeat:     mgl64.Vec2{1, 1},
		ColorSpace: ColorSpaceSRGB,
	}
}

// ID はランタイム固有IDを返す。
func (t *Texture) ID() int {
	return t.id
}

// Clone は画像データを参照共有したままテクスチャ状態を複製する。
// ミップレベルは複製へ引き継がれないため、必要なら再合成する。
func (t *Texture) Clone() *Texture {
	if t == nil {
		return nil
	}
	cloned := NewTexture(t.Name, t.Image)
	cloned.Offset = t.Offset
	cloned.Repeat = t.Repeat
	cloned.ColorSpace = t.ColorSpace
	return cloned
}

// CopyTilingFrom は置換元テクスチャのUVオフセット/リピートを引き継ぐ。
func (t *Texture) CopyTilingFrom(source *Texture) {
	if t == nil || source == nil {
		return
	}
	t.Offset = source.Offset
	t.Repeat = source.Repeat
}

// Dispose はGPU側リソースの破棄を記録する。
func (t *Texture) Dispose() {
	if t == nil {
		return
	}
	t.disposed = true
	t.Mipmaps = nil
}

// Disposed は破棄済みかを返す。
func (t *Texture) Disposed() bool {
	return t != nil && t.disposed
}
