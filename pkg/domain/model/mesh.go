// 指示: miu200521358
package model

// Mesh は描画可能ノードの形状・材質参照を表す。
// Geometryは全クローン間で共有され、Materialsはインスタンス側が所有する。
type Mesh struct {
	Geometry  *Geometry
	Materials []*Material
	// Skinned はスキン変形対象メッシュかを表す。
	Skinned bool
}

// HasGeometry は形状参照の有無を返す。
func (m *Mesh) HasGeometry() bool {
	return m != nil && m.Geometry != nil
}

// PrimaryMaterial は先頭材質を返す。未設定の場合はnilを返す。
func (m *Mesh) PrimaryMaterial() *Material {
	if m == nil || len(m.Materials) == 0 {
		return nil
	}
	return m.Materials[0]
}
