// 指示: miu200521358
package model

// FaceSide は描画対象面を表す。
type FaceSide int

const (
	// FaceSideFront は表面のみ描画を表す。
	FaceSideFront FaceSide = iota
	// FaceSideBack は裏面のみ描画を表す。
	FaceSideBack
	// FaceSideDouble は両面描画を表す。
	FaceSideDouble
)

// ShaderSource はコンパイル前シェーダソースを表す。
type ShaderSource struct {
	VertexSource   string
	FragmentSource string
}

// ShaderPatch はコンパイル直前にシェーダソースへ適用する書き換え処理を表す。
type ShaderPatch func(shader *ShaderSource)

// Material はインスタンスが所有する可変の材質状態を表す。
// 同一インスタンス内で複数メッシュから共有参照され得る。
type Material struct {
	id   int
	Name string

	Side       FaceSide
	ShadowSide FaceSide

	Transparent bool
	DepthWrite  bool
	// AlphaTest はアルファテスト閾値を表す。負値は常時合格を意味する。
	AlphaTest  float64
	ToneMapped bool
	// Unlit は陰影計算なし描画の材質かを表す。
	Unlit bool
	// Specialized は派生特殊化された材質かを表す。シェーダパッチの合成順に影響する。
	Specialized bool

	BaseColorMap *Texture
	NormalMap    *Texture
	EmissiveMap  *Texture
	RoughnessMap *Texture
	MetalnessMap *Texture
	OcclusionMap *Texture
	// AlphaMap は体型可視マスク等のアルファチャンネル用テクスチャを表す。
	AlphaMap *Texture

	// OnBeforeCompile はシェーダコンパイル直前のパッチフックを表す。
	OnBeforeCompile ShaderPatch
	// ProgramCacheKey はコンパイル済みプログラムのキャッシュ識別子を表す。
	ProgramCacheKey string

	needsUpdate bool
	version     int
}

// NewMaterial はMaterialを生成する。
func NewMaterial(name string) *Material {
	return &Material{
		id:         newObjectID(),
		Name:       name,
		Side:       FaceSideFront,
		ShadowSide: FaceSideFront,
		DepthWrite: true,
		ToneMapped: true,
	}
}

// ID はランタイム固有IDを返す。
func (m *Material) ID() int {
	return m.id
}

// Maps は設定済みテクスチャマップ一覧を返す。
func (m *Material) Maps() []*Texture {
	if m == nil {
		return nil
	}
	maps := make([]*Texture, 0, 7)
	for _, texture := range []*Texture{
		m.BaseColorMap, m.NormalMap, m.EmissiveMap,
		m.RoughnessMap, m.MetalnessMap, m.OcclusionMap, m.AlphaMap,
	} {
		if texture != nil {
			maps = append(maps, texture)
		}
	}
	return maps
}

// MarkNeedsUpdate は材質の再処理要求を記録する。
func (m *Material) MarkNeedsUpdate() {
	if m == nil {
		return
	}
	m.needsUpdate = true
	m.version++
}

// ClearNeedsUpdate は再処理要求を解除する。
func (m *Material) ClearNeedsUpdate() {
	if m == nil {
		return
	}
	m.needsUpdate = false
}

// NeedsUpdate は再処理要求の有無を返す。
func (m *Material) NeedsUpdate() bool {
	return m != nil && m.needsUpdate
}

// Version は再処理要求の累積回数を返す。
func (m *Material) Version() int {
	if m == nil {
		return 0
	}
	return m.version
}
