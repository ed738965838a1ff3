// 指示: miu200521358
package model

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// 形状属性名。
const (
	// AttributeUV は第1UVチャンネル属性名を表す。
	AttributeUV = "uv"
	// AttributeUV2 は第2UVチャンネル属性名を表す。
	AttributeUV2 = "uv2"
)

// BoundingSphere は境界球を表す。
type BoundingSphere struct {
	Center r3.Vec
	Radius float64
}

// BoundingBox は軸平行境界箱を表す。
type BoundingBox struct {
	Min r3.Vec
	Max r3.Vec
}

// Geometry は全インスタンスで参照共有される読み取り主体の形状データを表す。
type Geometry struct {
	id          int
	Name        string
	VertexCount int
	// Attributes は属性名から頂点属性列への対応を保持する。
	Attributes     map[string][]float64
	BoundingSphere *BoundingSphere
	BoundingBox    *BoundingBox
}

// NewGeometry はGeometryを生成する。
func NewGeometry(name string, vertexCount int) *Geometry {
	return &Geometry{
		id:          newObjectID(),
		Name:        name,
		VertexCount: vertexCount,
		Attributes:  map[string][]float64{},
	}
}

// ID はランタイム固有IDを返す。
func (g *Geometry) ID() int {
	return g.id
}

// SetInfiniteBoundingSphere は境界球を無限大半径へ置き換える。
func (g *Geometry) SetInfiniteBoundingSphere() {
	if g == nil {
		return
	}
	g.BoundingSphere = &BoundingSphere{Radius: math.Inf(1)}
}

// HasInfiniteBoundingSphere は境界球が無限大かを返す。
func (g *Geometry) HasInfiniteBoundingSphere() bool {
	return g != nil && g.BoundingSphere != nil && math.IsInf(g.BoundingSphere.Radius, 1)
}

// AliasUVToSecondaryChannel は第1UV属性を第2UVスロットへ参照共有で割り当てる。
func (g *Geometry) AliasUVToSecondaryChannel() {
	if g == nil || g.Attributes == nil {
		return
	}
	uv, ok := g.Attributes[AttributeUV]
	if !ok {
		return
	}
	g.Attributes[AttributeUV2] = uv
}
