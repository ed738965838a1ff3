// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strings"
)

// テクスチャパス規約。互換性のため綴りをそのまま維持すること。
const (
	visibilityMaskNameSuffix = "_body_visibility_mask"
	normalMapNameSuffix      = "_normal_map"
	lowpolyNameSuffix        = "_lowpoly"
	metaNameToken            = "_meta"
	recolorNameFormat        = "%s_v%d.jpg"

	standardMaskExtension  = ".png"
	standardImageExtension = ".jpg"
	metaImageExtension     = ".webp"
)

// BuildVisibilityMaskPath は体型可視マスクテクスチャのパスを生成する。
func BuildVisibilityMaskPath(variantBase string, family RigFamily) string {
	extension := standardMaskExtension
	if family == RigFamilyMeta {
		extension = metaImageExtension
	}
	return variantBase + visibilityMaskNameSuffix + extension
}

// BuildNormalMapPath は法線マップテクスチャのパスを生成する。
// meta系統では _meta トークンを除去した名前に .webp 拡張子を用いる。
func BuildNormalMapPath(variantBase string, family RigFamily) string {
	extension := standardImageExtension
	if family == RigFamilyMeta {
		extension = metaImageExtension
	}
	base := strings.ReplaceAll(variantBase, metaNameToken, "")
	return base + normalMapNameSuffix + extension
}

// BuildRecolorPath はバリアント再着色テクスチャのパスを生成する。
// _lowpoly 接尾辞と _meta トークンを除去した名前を用いる。
func BuildRecolorPath(variantName string, variantIndex int) string {
	base := strings.TrimSuffix(variantName, lowpolyNameSuffix)
	base = strings.ReplaceAll(base, metaNameToken, "")
	return fmt.Sprintf(recolorNameFormat, base, variantIndex)
}
