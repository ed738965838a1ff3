// 指示: miu200521358
package minteractor

import (
	"github.com/google/uuid"
	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

// IAssetInstance は準備済みアセットインスタンスの参照契約を表す。
type IAssetInstance interface {
	// Root はランタイムグラフのルートノードを返す。
	Root() *model.Node
	// Document は宣言的アセット記述を返す。
	Document() *model.AssetDocument
	// CorrelatedIndex は対応付けインデックスを返す。
	CorrelatedIndex() *CorrelationIndex
}

// AvatarInstance は1体の表示可能なアバターインスタンスを表す。
// Geometryは全インスタンスで共有され、Materialとそのテクスチャはインスタンスが所有する。
type AvatarInstance struct {
	id       uuid.UUID
	root     *model.Node
	document *model.AssetDocument
	index    *CorrelationIndex

	composition *appearanceComposition
	discarded   bool
}

// newAvatarInstance はAvatarInstanceを生成する。
func newAvatarInstance(root *model.Node, document *model.AssetDocument) *AvatarInstance {
	return &AvatarInstance{
		id:       uuid.New(),
		root:     root,
		document: document,
	}
}

// ID はインスタンス識別子を返す。
func (i *AvatarInstance) ID() uuid.UUID {
	if i == nil {
		return uuid.Nil
	}
	return i.id
}

// Root はランタイムグラフのルートノードを返す。
func (i *AvatarInstance) Root() *model.Node {
	if i == nil {
		return nil
	}
	return i.root
}

// Document は宣言的アセット記述を返す。
func (i *AvatarInstance) Document() *model.AssetDocument {
	if i == nil {
		return nil
	}
	return i.document
}

// CorrelatedIndex は対応付けインデックスを返す。
func (i *AvatarInstance) CorrelatedIndex() *CorrelationIndex {
	if i == nil {
		return nil
	}
	return i.index
}

// CompositionState は外観合成の現在状態を返す。
func (i *AvatarInstance) CompositionState() CompositionState {
	if i == nil || i.composition == nil {
		return CompositionStateUnconfigured
	}
	return i.composition.state
}

// Discarded は破棄済みかを返す。
func (i *AvatarInstance) Discarded() bool {
	return i != nil && i.discarded
}

// markDiscarded は破棄済み状態を記録する。
func (i *AvatarInstance) markDiscarded() {
	if i == nil {
		return
	}
	i.discarded = true
}
