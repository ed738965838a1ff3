// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

// CorrelationIndex は宣言的記述要素とランタイムオブジェクトの双方向対応を表す。
// 構築・導出後は不変として扱う。準備パスで合成されたノードは対応を持たない。
type CorrelationIndex struct {
	nodeToDoc     map[*model.Node]*model.DocNode
	docToNode     map[*model.DocNode]*model.Node
	materialToDoc map[*model.Material]*model.DocMaterial
	docToMaterial map[*model.DocMaterial]*model.Material
}

// newCorrelationIndex は空のCorrelationIndexを生成する。
func newCorrelationIndex() *CorrelationIndex {
	return &CorrelationIndex{
		nodeToDoc:     map[*model.Node]*model.DocNode{},
		docToNode:     map[*model.DocNode]*model.Node{},
		materialToDoc: map[*model.Material]*model.DocMaterial{},
		docToMaterial: map[*model.DocMaterial]*model.Material{},
	}
}

// BuildCorrelationIndex はランタイムグラフと宣言的記述を同順で巡回して対応付けを構築する。
// 両者の巡回順一致はローダ契約であり、件数不一致は回復不能な前提違反として扱う。
func BuildCorrelationIndex(root *model.Node, document *model.AssetDocument) (*CorrelationIndex, error) {
	if root == nil {
		return nil, fmt.Errorf("ランタイムグラフが未設定です")
	}
	if document == nil || document.Root == nil {
		return nil, fmt.Errorf("宣言的アセット記述が未設定です")
	}

	runtimeNodes := collectCorrelatableNodes(root)
	docNodes := collectDocNodes(document.Root)
	if len(runtimeNodes) != len(docNodes) {
		return nil, fmt.Errorf(
			"ランタイムグラフと宣言的記述のノード数が一致しません: runtime=%d doc=%d",
			len(runtimeNodes), len(docNodes),
		)
	}

	index := newCorrelationIndex()
	for position, runtimeNode := range runtimeNodes {
		docNode := docNodes[position]
		index.nodeToDoc[runtimeNode] = docNode
		index.docToNode[docNode] = runtimeNode
		if err := index.correlateMaterials(runtimeNode, docNode); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// correlateMaterials はノード対の材質を位置対応で対応付ける。
func (x *CorrelationIndex) correlateMaterials(runtimeNode *model.Node, docNode *model.DocNode) error {
	if runtimeNode.Mesh == nil && docNode.Mesh == nil {
		return nil
	}
	if runtimeNode.Mesh == nil || docNode.Mesh == nil {
		return fmt.Errorf("メッシュ保持状態が一致しません: node=%s", runtimeNode.Name)
	}
	runtimeMaterials := runtimeNode.Mesh.Materials
	docMaterials := docNode.Mesh.Materials
	if len(runtimeMaterials) != len(docMaterials) {
		return fmt.Errorf(
			"材質数が一致しません: node=%s runtime=%d doc=%d",
			runtimeNode.Name, len(runtimeMaterials), len(docMaterials),
		)
	}
	for position, runtimeMaterial := range runtimeMaterials {
		if runtimeMaterial == nil || docMaterials[position] == nil {
			continue
		}
		x.materialToDoc[runtimeMaterial] = docMaterials[position]
		x.docToMaterial[docMaterials[position]] = runtimeMaterial
	}
	return nil
}

// DeriveCorrelationIndexForClone はクローングラフと親グラフを同順で巡回し、
// 親インデックスの宣言的参照を対応するクローンオブジェクトへ引き写す。
// 宣言的記述の再解析は行わず、グラフサイズに比例する計算量で完了する。
func DeriveCorrelationIndexForClone(cloneRoot *model.Node, parentRoot *model.Node, parentIndex *CorrelationIndex) (*CorrelationIndex, error) {
	if cloneRoot == nil || parentRoot == nil {
		return nil, fmt.Errorf("クローンまたは親グラフが未設定です")
	}
	if parentIndex == nil {
		return nil, fmt.Errorf("親の対応付けインデックスが未設定です")
	}

	cloneNodes := collectAllNodes(cloneRoot)
	parentNodes := collectAllNodes(parentRoot)
	if len(cloneNodes) != len(parentNodes) {
		return nil, fmt.Errorf(
			"クローンと親のグラフ構造が一致しません: clone=%d parent=%d",
			len(cloneNodes), len(parentNodes),
		)
	}

	index := newCorrelationIndex()
	for position, cloneNode := range cloneNodes {
		parentNode := parentNodes[position]
		docNode, ok := parentIndex.nodeToDoc[parentNode]
		if ok {
			index.nodeToDoc[cloneNode] = docNode
			index.docToNode[docNode] = cloneNode
		}
		if err := index.deriveMaterialCorrelations(cloneNode, parentNode, parentIndex); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// deriveMaterialCorrelations はノード対の材質対応を親インデックスから引き写す。
func (x *CorrelationIndex) deriveMaterialCorrelations(cloneNode *model.Node, parentNode *model.Node, parentIndex *CorrelationIndex) error {
	if cloneNode.Mesh == nil && parentNode.Mesh == nil {
		return nil
	}
	if cloneNode.Mesh == nil || parentNode.Mesh == nil {
		return fmt.Errorf("クローンと親のメッシュ保持状態が一致しません: node=%s", parentNode.Name)
	}
	cloneMaterials := cloneNode.Mesh.Materials
	parentMaterials := parentNode.Mesh.Materials
	if len(cloneMaterials) != len(parentMaterials) {
		return fmt.Errorf(
			"クローンと親の材質数が一致しません: node=%s clone=%d parent=%d",
			parentNode.Name, len(cloneMaterials), len(parentMaterials),
		)
	}
	for position, cloneMaterial := range cloneMaterials {
		parentMaterial := parentMaterials[position]
		if cloneMaterial == nil || parentMaterial == nil {
			continue
		}
		docMaterial, ok := parentIndex.materialToDoc[parentMaterial]
		if !ok {
			continue
		}
		x.materialToDoc[cloneMaterial] = docMaterial
		x.docToMaterial[docMaterial] = cloneMaterial
	}
	return nil
}

// DocNodeOf はランタイムノードに対応する宣言的ノードを返す。
func (x *CorrelationIndex) DocNodeOf(node *model.Node) (*model.DocNode, bool) {
	if x == nil {
		return nil, false
	}
	docNode, ok := x.nodeToDoc[node]
	return docNode, ok
}

// RuntimeNodeOf は宣言的ノードに対応するランタイムノードを返す。
func (x *CorrelationIndex) RuntimeNodeOf(docNode *model.DocNode) (*model.Node, bool) {
	if x == nil {
		return nil, false
	}
	node, ok := x.docToNode[docNode]
	return node, ok
}

// DocMaterialOf はランタイム材質に対応する宣言的材質を返す。
func (x *CorrelationIndex) DocMaterialOf(material *model.Material) (*model.DocMaterial, bool) {
	if x == nil {
		return nil, false
	}
	docMaterial, ok := x.materialToDoc[material]
	return docMaterial, ok
}

// RuntimeMaterialOf は宣言的材質に対応するランタイム材質を返す。
func (x *CorrelationIndex) RuntimeMaterialOf(docMaterial *model.DocMaterial) (*model.Material, bool) {
	if x == nil {
		return nil, false
	}
	material, ok := x.docToMaterial[docMaterial]
	return material, ok
}

// NodeCount は対応付け済みノード数を返す。
func (x *CorrelationIndex) NodeCount() int {
	if x == nil {
		return 0
	}
	return len(x.nodeToDoc)
}

// MaterialCount は対応付け済み材質数を返す。
func (x *CorrelationIndex) MaterialCount() int {
	if x == nil {
		return 0
	}
	return len(x.materialToDoc)
}

// collectCorrelatableNodes は合成ノードを除く行きがけ順ノード列を収集する。
func collectCorrelatableNodes(root *model.Node) []*model.Node {
	nodes := make([]*model.Node, 0)
	root.Traverse(func(node *model.Node) {
		if node.Synthesized {
			return
		}
		nodes = append(nodes, node)
	})
	return nodes
}

// collectAllNodes は合成ノードを含む行きがけ順ノード列を収集する。
func collectAllNodes(root *model.Node) []*model.Node {
	nodes := make([]*model.Node, 0)
	root.Traverse(func(node *model.Node) {
		nodes = append(nodes, node)
	})
	return nodes
}

// collectDocNodes は宣言的記述の行きがけ順ノード列を収集する。
func collectDocNodes(root *model.DocNode) []*model.DocNode {
	nodes := make([]*model.DocNode, 0)
	root.Traverse(func(node *model.DocNode) {
		nodes = append(nodes, node)
	})
	return nodes
}
