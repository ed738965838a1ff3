// 指示: miu200521358
package model

// AlphaMode は宣言的材質のアルファ処理モードを表す。
type AlphaMode string

const (
	// AlphaModeOpaque は不透明を表す。
	AlphaModeOpaque AlphaMode = "OPAQUE"
	// AlphaModeMask はアルファテストを表す。
	AlphaModeMask AlphaMode = "MASK"
	// AlphaModeBlend はアルファブレンドを表す。
	AlphaModeBlend AlphaMode = "BLEND"
)

// DocMaterial は宣言的アセット記述の材質を表す。読込後は不変。
type DocMaterial struct {
	Name        string
	DoubleSided bool
	AlphaMode   AlphaMode
	AlphaCutoff float64
	Unlit       bool
	// OcclusionUVChannel はオクルージョンテクスチャが参照するUVチャンネル番号を表す。
	OcclusionUVChannel int
	HasOcclusionMap    bool
}

// DocMesh は宣言的アセット記述のメッシュを表す。読込後は不変。
type DocMesh struct {
	Name      string
	Materials []*DocMaterial
	Skinned   bool
}

// DocNode は宣言的アセット記述のノードを表す。読込後は不変。
type DocNode struct {
	Name     string
	Mesh     *DocMesh
	Children []*DocNode
}

// Traverse はノード自身と子孫を行きがけ順で巡回する。
func (n *DocNode) Traverse(visit func(node *DocNode)) {
	if n == nil || visit == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Traverse(visit)
	}
}

// AssetDocument は読込済みの宣言的アセット記述全体を表す。読込後は不変。
type AssetDocument struct {
	Name string
	Root *DocNode
}

// Asset は宣言的記述とそこから導出されたランタイムグラフの対を表す。
// ローダ契約として両者の巡回順は一致する。
type Asset struct {
	Document *AssetDocument
	Root     *Node
}
