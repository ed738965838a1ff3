// 指示: miu200521358
// Package model はアバタービューアのシーングラフと宣言的アセット記述のドメインモデルを提供する。
package model

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// nextObjectID はランタイムオブジェクトの連番採番カウンタ。
var nextObjectID atomic.Int64

// newObjectID はランタイム固有IDを採番する。
func newObjectID() int {
	return int(nextObjectID.Add(1))
}

// Transform はノードのローカル姿勢を表す。
type Transform struct {
	Translation r3.Vec
	Rotation    mgl64.Quat
	Scale       r3.Vec
}

// NewTransform は単位姿勢のTransformを生成する。
func NewTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    r3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// Node はランタイムシーングラフの1ノードを表す。
type Node struct {
	id          int
	Name        string
	Transform   Transform
	Visible     bool
	RenderOrder int
	CastShadow  bool
	// FrustumCulled は事前計算境界による可視判定省略の許可を表す。
	FrustumCulled bool
	// Synthesized は準備パスで合成されたノード(宣言的対応なし)を表す。
	Synthesized bool
	Mesh        *Mesh

	parent   *Node
	children []*Node
}

// NewNode はNodeを生成する。
func NewNode(name string) *Node {
	return &Node{
		id:            newObjectID(),
		Name:          name,
		Transform:     NewTransform(),
		Visible:       true,
		FrustumCulled: true,
	}
}

// ID はランタイム固有IDを返す。
func (n *Node) ID() int {
	return n.id
}

// Parent は親ノードを返す。
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children は子ノード一覧を返す。
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// AddChild は子ノードを末尾に追加する。
func (n *Node) AddChild(child *Node) {
	if n == nil || child == nil {
		return
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChild は子ノードを取り外す。
func (n *Node) RemoveChild(child *Node) {
	if n == nil || child == nil {
		return
	}
	for index, current := range n.children {
		if current == child {
			n.children = append(n.children[:index], n.children[index+1:]...)
			child.parent = nil
			return
		}
	}
}

// Traverse はノード自身と子孫を行きがけ順で巡回する。
func (n *Node) Traverse(visit func(node *Node)) {
	if n == nil || visit == nil {
		return
	}
	visit(n)
	for _, child := range n.children {
		child.Traverse(visit)
	}
}

// FindByName は行きがけ順で最初に名前が一致するノードを返す。
func (n *Node) FindByName(name string) *Node {
	if n == nil {
		return nil
	}
	var found *Node
	n.Traverse(func(node *Node) {
		if found == nil && node.Name == name {
			found = node
		}
	})
	return found
}

// CountNodes は自身を含む到達可能ノード数を返す。
func (n *Node) CountNodes() int {
	count := 0
	n.Traverse(func(*Node) {
		count++
	})
	return count
}
