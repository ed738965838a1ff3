// 指示: miu200521358
package minteractor

import "github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"

// RigFamily はリグ系統を表す。
type RigFamily string

const (
	// RigFamilyStandard は標準リグ系統を表す。
	RigFamilyStandard RigFamily = "standard"
	// RigFamilyMeta は代替命名系統のmetaリグを表す。
	RigFamilyMeta RigFamily = "meta"
)

// BodyBranch は体型分岐を表す。
type BodyBranch string

const (
	// BodyBranchMale は既定分岐の男性体型を表す。
	BodyBranchMale BodyBranch = "male"
	// BodyBranchFemale は女性体型を表す。
	BodyBranchFemale BodyBranch = "female"
)

// 体型分類の構造マーカー名。名前文字列による推定は将来構造化メタデータへ
// 置き換えられる前提で、判定規則はこのファイルに隔離する。
const (
	// standardHipsBoneName は標準リグ系統を示す骨格ボーン名を表す。
	standardHipsBoneName = "Hips"
	// metaRigRootNodeName はmetaリグ系統を示す直下ノード名を表す。
	metaRigRootNodeName = "meta_rig"
	// femaleBodyNodeName は女性体型を示す体メッシュノード名を表す。
	femaleBodyNodeName = "female_body"
	// maleBodyNodeName は男性体型を示す体メッシュノード名を表す。
	maleBodyNodeName = "male_body"
)

// BodyArchetype はインスタンスの体型分類を表す。
type BodyArchetype struct {
	RigFamily RigFamily
	Body      BodyBranch
}

// ClassifyBodyArchetype はグラフの構造マーカーから体型分類を推定する。
// 規則は固定: 直下に meta_rig があればmeta系統、Hips ボーンがあれば標準系統、
// female_body ノードがあれば女性分岐、それ以外は既定の男性分岐とする。
func ClassifyBodyArchetype(root *model.Node) BodyArchetype {
	archetype := BodyArchetype{
		RigFamily: RigFamilyStandard,
		Body:      BodyBranchMale,
	}
	if root == nil {
		return archetype
	}

	// meta系統マーカーを優先し、次に Hips ボーンで標準系統を確認する。
	// どちらのマーカーも無い場合は分類不能だが、既定系統のまま続行する。
	switch {
	case hasMetaRigMarker(root):
		archetype.RigFamily = RigFamilyMeta
	case root.FindByName(standardHipsBoneName) != nil:
		archetype.RigFamily = RigFamilyStandard
	}

	if root.FindByName(femaleBodyNodeName) != nil {
		archetype.Body = BodyBranchFemale
	}
	return archetype
}

// hasMetaRigMarker はmetaリグ系統マーカーの直下ノードを持つかを返す。
func hasMetaRigMarker(root *model.Node) bool {
	for _, child := range root.Children() {
		if child.Name == metaRigRootNodeName {
			return true
		}
	}
	return false
}

// bodyNodeName は体型分岐に対応する体メッシュノード名を返す。
func bodyNodeName(branch BodyBranch) string {
	if branch == BodyBranchFemale {
		return femaleBodyNodeName
	}
	return maleBodyNodeName
}
