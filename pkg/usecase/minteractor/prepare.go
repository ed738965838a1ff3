// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

const (
	// forcedRenderPriority は背景・環境形状より後に描画させる固定描画優先度を表す。
	forcedRenderPriority = 1000
	// backfaceRenderPriorityOffset は裏面複製メッシュを元メッシュより先に描画させる優先度差を表す。
	backfaceRenderPriorityOffset = -1
	// backfaceNodeNameSuffix は合成した裏面複製ノードの名前接尾辞を表す。
	backfaceNodeNameSuffix = "_backface"
	// fallbackNodeNamePrefix は無名ノードへ与える代替名の接頭辞を表す。
	fallbackNodeNamePrefix = "node_"
)

// IMaterialPrepareRules は準備パスへ合成で差し込む材質補正規則を表す。
type IMaterialPrepareRules interface {
	// ApplyMaterialFixes はメッシュ材質の補正を適用し、裏面複製の要否を返す。
	ApplyMaterialFixes(node *model.Node, material *model.Material, docMaterial *model.DocMaterial) (needsBackface bool)
}

// avatarMaterialRules はアバター表示向けの材質補正規則を表す。
type avatarMaterialRules struct{}

// NewAvatarMaterialRules はアバター向け材質補正規則を生成する。
func NewAvatarMaterialRules() IMaterialPrepareRules {
	return avatarMaterialRules{}
}

// ApplyMaterialFixes はアバター表示向けの材質補正を適用する。
func (avatarMaterialRules) ApplyMaterialFixes(node *model.Node, material *model.Material, docMaterial *model.DocMaterial) bool {
	if material == nil {
		return false
	}

	needsBackface := false
	// 両面かつ透過の材質は表面のみへ矯正し、裏面複製の対象として記録する。
	if material.Side == model.FaceSideDouble && material.Transparent {
		material.Side = model.FaceSideFront
		needsBackface = true
	}

	// unlit材質は自動露出・トーン調整の対象から外す。
	if material.Unlit {
		material.ToneMapped = false
	}

	// 非多様体形状の影品質のため、影描画は常に表面のみとする。
	material.ShadowSide = model.FaceSideFront

	// 宣言的記述側のオクルージョンUVチャンネルが第1チャンネルと異なる場合、
	// 第1UV属性を第2スロットへ参照共有で割り当てて不一致を補正する。
	if material.OcclusionMap != nil && docMaterial != nil &&
		docMaterial.HasOcclusionMap && docMaterial.OcclusionUVChannel != 0 {
		if node != nil && node.Mesh != nil && node.Mesh.Geometry != nil {
			node.Mesh.Geometry.AliasUVToSecondaryChannel()
		}
	}

	return needsBackface
}

// PrepareRequest はアセット準備要求を表す。
type PrepareRequest struct {
	Asset *model.Asset
	// Instance が指定された場合は同一インスタンスへ再度準備パスを適用する。
	// 構築済みの対応付けインデックスは再構築されない。
	Instance         *AvatarInstance
	MaterialRules    IMaterialPrepareRules
	ProgressReporter IPrepareProgressReporter
}

// PrepareResult はアセット準備結果を表す。
type PrepareResult struct {
	Instance      *AvatarInstance
	BackfaceCount int
}

// backfaceTarget は裏面複製対象のメッシュと材質位置を表す。
type backfaceTarget struct {
	Node          *model.Node
	MaterialIndex int
}

// PrepareInstance は読み込み直後のランタイムグラフへ一度きりの正規化パスを適用する。
func (uc *AvatarViewerUsecase) PrepareInstance(request PrepareRequest) (*PrepareResult, error) {
	instance, err := uc.resolvePrepareTarget(request)
	if err != nil {
		return nil, err
	}

	// 材質補正が宣言的記述を参照するため、対応付けインデックスを先に確保する。
	// 構築済みの場合は再構築しない。
	if instance.index == nil {
		index, err := BuildCorrelationIndex(instance.root, instance.document)
		if err != nil {
			return nil, fmt.Errorf("対応付けインデックスの構築に失敗しました: %w", err)
		}
		instance.index = index
	}
	reportPrepareProgress(request.ProgressReporter, PrepareProgressEvent{
		Type:      PrepareProgressEventTypeIndexBuilt,
		NodeCount: instance.index.NodeCount(),
	})

	rules := request.MaterialRules
	if rules == nil {
		rules = NewAvatarMaterialRules()
	}

	nodeCount := 0
	instance.root.Traverse(func(node *model.Node) {
		normalizeNodeRenderAttributes(node)
		nodeCount++
	})
	reportPrepareProgress(request.ProgressReporter, PrepareProgressEvent{
		Type:      PrepareProgressEventTypeNodesNormalized,
		NodeCount: nodeCount,
	})

	targets, materialCount := applyMaterialFixes(instance, rules)
	reportPrepareProgress(request.ProgressReporter, PrepareProgressEvent{
		Type:          PrepareProgressEventTypeMaterialFixesApplied,
		MaterialCount: materialCount,
	})

	synthesizeBackfaceMeshes(targets)
	reportPrepareProgress(request.ProgressReporter, PrepareProgressEvent{
		Type:          PrepareProgressEventTypeBackfacesSynthesized,
		BackfaceCount: len(targets),
	})

	uc.registerInstance(instance)
	return &PrepareResult{Instance: instance, BackfaceCount: len(targets)}, nil
}

// resolvePrepareTarget は準備対象インスタンスを解決する。
func (uc *AvatarViewerUsecase) resolvePrepareTarget(request PrepareRequest) (*AvatarInstance, error) {
	if request.Instance != nil {
		if request.Instance.root == nil {
			return nil, fmt.Errorf("準備対象インスタンスのグラフが未設定です")
		}
		return request.Instance, nil
	}
	if request.Asset == nil || request.Asset.Root == nil {
		return nil, fmt.Errorf("準備対象アセットが未設定です")
	}
	if request.Asset.Document == nil {
		return nil, fmt.Errorf("宣言的アセット記述が未設定です")
	}
	return newAvatarInstance(request.Asset.Root, request.Asset.Document), nil
}

// normalizeNodeRenderAttributes はノード単位の描画属性を正規化する。
func normalizeNodeRenderAttributes(node *model.Node) {
	if node == nil {
		return
	}

	// 背景形状より後に描画されるよう描画優先度を固定する。
	node.RenderOrder = forcedRenderPriority

	// アニメーション変形を境界が追跡できないため、境界による可視判定省略は常に無効化する。
	node.FrustumCulled = false

	// 無名ノードへ固有ID由来の代替名を与え、クローン後も名前参照が機能するようにする。
	if node.Name == "" {
		node.Name = fmt.Sprintf("%s%d", fallbackNodeNamePrefix, node.ID())
	}

	if node.Mesh == nil || !node.Mesh.HasGeometry() {
		return
	}

	node.CastShadow = true

	// スキン変形メッシュは読込時境界が無効となるため、可視判定・交差判定とも無限境界へ置き換える。
	if node.Mesh.Skinned {
		node.Mesh.Geometry.SetInfiniteBoundingSphere()
		node.Mesh.Geometry.BoundingBox = nil
	}
}

// applyMaterialFixes は全メッシュの材質補正を材質ごとに一度だけ適用する。
func applyMaterialFixes(instance *AvatarInstance, rules IMaterialPrepareRules) ([]backfaceTarget, int) {
	targets := make([]backfaceTarget, 0)
	seen := map[*model.Material]struct{}{}

	instance.root.Traverse(func(node *model.Node) {
		if node.Mesh == nil {
			return
		}
		for materialIndex, material := range node.Mesh.Materials {
			if material == nil {
				continue
			}
			if _, done := seen[material]; done {
				continue
			}
			seen[material] = struct{}{}

			docMaterial, _ := instance.index.DocMaterialOf(material)
			if rules.ApplyMaterialFixes(node, material, docMaterial) {
				targets = append(targets, backfaceTarget{Node: node, MaterialIndex: materialIndex})
			}
		}
	})
	return targets, len(seen)
}

// synthesizeBackfaceMeshes は記録済み対象へ裏面複製メッシュを兄弟として合成する。
// 凸の透過シェルで裏面を先に描画することで、深度ソートなしに視覚的な前後関係を近似する。
func synthesizeBackfaceMeshes(targets []backfaceTarget) {
	for _, target := range targets {
		node := target.Node
		parent := node.Parent()
		if parent == nil || node.Mesh == nil {
			continue
		}
		source := node.Mesh.Materials[target.MaterialIndex]
		if source == nil {
			continue
		}

		backface := model.NewNode(node.Name + backfaceNodeNameSuffix)
		backface.Synthesized = true
		backface.Transform = node.Transform
		backface.Visible = node.Visible
		backface.CastShadow = node.CastShadow
		backface.FrustumCulled = node.FrustumCulled
		backface.RenderOrder = node.RenderOrder + backfaceRenderPriorityOffset
		backface.Mesh = &model.Mesh{
			Geometry:  node.Mesh.Geometry,
			Materials: []*model.Material{cloneBackfaceMaterial(source)},
			Skinned:   node.Mesh.Skinned,
		}
		parent.AddChild(backface)
	}
}

// cloneBackfaceMaterial は裏面描画専用の材質複製を生成する。テクスチャは参照共有する。
func cloneBackfaceMaterial(source *model.Material) *model.Material {
	cloned := model.NewMaterial(source.Name + backfaceNodeNameSuffix)
	cloned.Side = model.FaceSideBack
	cloned.ShadowSide = source.ShadowSide
	cloned.Transparent = source.Transparent
	cloned.DepthWrite = source.DepthWrite
	cloned.AlphaTest = source.AlphaTest
	cloned.ToneMapped = source.ToneMapped
	cloned.Unlit = source.Unlit
	cloned.Specialized = source.Specialized
	cloned.BaseColorMap = source.BaseColorMap
	cloned.NormalMap = source.NormalMap
	cloned.EmissiveMap = source.EmissiveMap
	cloned.RoughnessMap = source.RoughnessMap
	cloned.MetalnessMap = source.MetalnessMap
	cloned.OcclusionMap = source.OcclusionMap
	cloned.AlphaMap = source.AlphaMap
	cloned.OnBeforeCompile = source.OnBeforeCompile
	cloned.ProgramCacheKey = source.ProgramCacheKey
	return cloned
}
