// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"github.com/miu200521358/mu_avatar_viewer/pkg/shared/logging"
	"github.com/tiendc/go-deepcopy"
)

const (
	// generatedHaircutContainerName は生成ヘアスタイルを束ねるコンテナノード名を表す。
	generatedHaircutContainerName = "generated_haircut"
	// opaqueAlphaTestBypassThreshold はアルファテスト未宣言材質へ与える常時合格閾値を表す。
	opaqueAlphaTestBypassThreshold = -1.0
	// alphaTestPatchKeyStandard は通常材質のアルファテストパッチ識別子を表す。
	alphaTestPatchKeyStandard = "_alphatest_post"
	// alphaTestPatchKeySpecialized は特殊化材質のアルファテストパッチ識別子を表す。
	alphaTestPatchKeySpecialized = "_alphatest_pre"
)

// alphaTestFragmentPatch はフラグメント段へ追補するアルファテスト処理を表す。
const alphaTestFragmentPatch = "\n// mu_avatar_viewer alpha test\nif (diffuseColor.a < alphaTestThreshold) discard;\n"

// alphaTestShaderPatch はアルファテストパッチをフラグメントソースへ適用する。
func alphaTestShaderPatch(shader *model.ShaderSource) {
	if shader == nil {
		return
	}
	shader.FragmentSource += alphaTestFragmentPatch
}

// CloneInstance は準備済みグラフまたは既存インスタンスから独立表示可能なクローンを生成する。
// ノード構造と材質は複製し、Geometryは参照共有する。
func (uc *AvatarViewerUsecase) CloneInstance(source *AvatarInstance) (*AvatarInstance, error) {
	if uc == nil {
		return nil, fmt.Errorf("ユースケースが未初期化です")
	}
	if source == nil || source.root == nil {
		return nil, fmt.Errorf("クローン元インスタンスが未設定です")
	}
	if source.index == nil {
		return nil, fmt.Errorf("クローン元インスタンスに対応付けインデックスがありません")
	}

	cloneRoot, err := cloneNodeTree(source.root)
	if err != nil {
		return nil, fmt.Errorf("ノードツリーの複製に失敗しました: %w", err)
	}

	if err := uc.cloneMaterialsInto(cloneRoot, source.root); err != nil {
		return nil, fmt.Errorf("材質の複製に失敗しました: %w", err)
	}

	applyGeneratedHaircutOverride(cloneRoot)

	index, err := DeriveCorrelationIndexForClone(cloneRoot, source.root, source.index)
	if err != nil {
		return nil, fmt.Errorf("クローンの対応付けインデックス導出に失敗しました: %w", err)
	}

	instance := newAvatarInstance(cloneRoot, source.document)
	instance.index = index
	uc.registerInstance(instance)

	logging.DefaultLogger().Verbose(logging.VERBOSE_CLONE,
		"クローン生成完了: nodes=%d materials=%d", index.NodeCount(), index.MaterialCount())
	return instance, nil
}

// cloneNodeTree はノードツリーを構造的に複製する。Geometryは参照共有し、材質は後段で複製する。
func cloneNodeTree(source *model.Node) (*model.Node, error) {
	cloned := model.NewNode(source.Name)
	if err := deepcopy.Copy(&cloned.Transform, source.Transform); err != nil {
		return nil, fmt.Errorf("姿勢の複製に失敗しました: node=%s: %w", source.Name, err)
	}
	cloned.Visible = source.Visible
	cloned.RenderOrder = source.RenderOrder
	cloned.CastShadow = source.CastShadow
	cloned.FrustumCulled = source.FrustumCulled
	cloned.Synthesized = source.Synthesized

	if source.Mesh != nil {
		cloned.Mesh = &model.Mesh{
			Geometry:  source.Mesh.Geometry,
			Materials: make([]*model.Material, len(source.Mesh.Materials)),
			Skinned:   source.Mesh.Skinned,
		}
	}

	for _, child := range source.Children() {
		clonedChild, err := cloneNodeTree(child)
		if err != nil {
			return nil, err
		}
		cloned.AddChild(clonedChild)
	}
	return cloned, nil
}

// cloneMaterialsInto はクローン木と元木を同順で巡回し、材質を共有構造を保って複製する。
// 元側で複数メッシュに共有されていた材質は、クローン側でも同一の複製を共有する。
func (uc *AvatarViewerUsecase) cloneMaterialsInto(cloneRoot *model.Node, sourceRoot *model.Node) error {
	cloneNodes := collectAllNodes(cloneRoot)
	sourceNodes := collectAllNodes(sourceRoot)
	if len(cloneNodes) != len(sourceNodes) {
		return fmt.Errorf("複製中にグラフ構造が一致しなくなりました: clone=%d source=%d",
			len(cloneNodes), len(sourceNodes))
	}

	cache := map[*model.Material]*model.Material{}
	for position, cloneNode := range cloneNodes {
		sourceNode := sourceNodes[position]
		if cloneNode.Mesh == nil || sourceNode.Mesh == nil {
			continue
		}
		// 形状や材質の参照欠落は複製対象なしとして読み飛ばす。
		if !sourceNode.Mesh.HasGeometry() {
			continue
		}
		for materialIndex, sourceMaterial := range sourceNode.Mesh.Materials {
			if sourceMaterial == nil {
				continue
			}
			clonedMaterial, ok := cache[sourceMaterial]
			if !ok {
				var err error
				clonedMaterial, err = uc.cloneMaterialDeep(sourceMaterial)
				if err != nil {
					return err
				}
				cache[sourceMaterial] = clonedMaterial
			}
			cloneNode.Mesh.Materials[materialIndex] = clonedMaterial
		}
	}
	return nil
}

// cloneMaterialDeep は材質を付属テクスチャごと複製し、複製後の既定補正を適用する。
func (uc *AvatarViewerUsecase) cloneMaterialDeep(source *model.Material) (*model.Material, error) {
	cloned := model.NewMaterial(source.Name)
	cloned.Side = source.Side
	cloned.ShadowSide = source.ShadowSide
	cloned.Transparent = source.Transparent
	cloned.DepthWrite = source.DepthWrite
	cloned.AlphaTest = source.AlphaTest
	cloned.ToneMapped = source.ToneMapped
	cloned.Unlit = source.Unlit
	cloned.Specialized = source.Specialized

	// 同一材質内でのテクスチャ同一性を保って複製する。粗さと金属度(または遮蔽)が
	// 同一テクスチャを指す場合、複製後も同一の複製テクスチャを共有させる。
	seen := map[*model.Texture]*model.Texture{}
	cloneTexture := func(texture *model.Texture) *model.Texture {
		if texture == nil {
			return nil
		}
		if clonedTexture, ok := seen[texture]; ok {
			return clonedTexture
		}
		clonedTexture := texture.Clone()
		seen[texture] = clonedTexture
		return clonedTexture
	}
	cloned.BaseColorMap = cloneTexture(source.BaseColorMap)
	cloned.NormalMap = cloneTexture(source.NormalMap)
	cloned.EmissiveMap = cloneTexture(source.EmissiveMap)
	cloned.RoughnessMap = cloneTexture(source.RoughnessMap)
	cloned.MetalnessMap = cloneTexture(source.MetalnessMap)
	cloned.OcclusionMap = cloneTexture(source.OcclusionMap)
	cloned.AlphaMap = cloneTexture(source.AlphaMap)

	// 単純複製ではミップ自動生成が引き継がれないため、粗さマップのみ再合成する。
	if cloned.RoughnessMap != nil {
		if err := uc.generateRoughnessMipmaps(cloned.RoughnessMap); err != nil {
			return nil, err
		}
	}

	composeAlphaTestPatch(cloned, source)
	applyClonedMaterialDefaults(cloned)
	return cloned, nil
}

// generateRoughnessMipmaps はオフスクリーンパスで粗さマップのミップ列を合成する。
// 合成中はステレオ/XR描画モードを一時停止し、完了後に元へ戻す。
func (uc *AvatarViewerUsecase) generateRoughnessMipmaps(texture *model.Texture) error {
	if uc.renderDevice == nil {
		logging.DefaultLogger().Verbose(logging.VERBOSE_CLONE,
			"描画デバイス未設定のためミップ合成を省略: texture=%s", texture.Name)
		return nil
	}
	xrWasEnabled := uc.renderDevice.XREnabled()
	if xrWasEnabled {
		uc.renderDevice.SetXREnabled(false)
	}
	err := uc.renderDevice.GenerateMipmaps(texture)
	if xrWasEnabled {
		uc.renderDevice.SetXREnabled(true)
	}
	if err != nil {
		return fmt.Errorf("粗さマップのミップ合成に失敗しました: texture=%s: %w", texture.Name, err)
	}
	return nil
}

// composeAlphaTestPatch は既存シェーダパッチへアルファテストパッチを合成する。
// 適用内容は同一だが、特殊化材質と通常材質で合成順とキャッシュ識別子を変え、
// 由来の異なる材質がコンパイル済みプログラムを共有しないようにする。
func composeAlphaTestPatch(cloned *model.Material, source *model.Material) {
	previous := source.OnBeforeCompile
	if source.Specialized {
		cloned.OnBeforeCompile = func(shader *model.ShaderSource) {
			alphaTestShaderPatch(shader)
			if previous != nil {
				previous(shader)
			}
		}
		cloned.ProgramCacheKey = source.ProgramCacheKey + alphaTestPatchKeySpecialized
		return
	}
	cloned.OnBeforeCompile = func(shader *model.ShaderSource) {
		if previous != nil {
			previous(shader)
		}
		alphaTestShaderPatch(shader)
	}
	cloned.ProgramCacheKey = source.ProgramCacheKey + alphaTestPatchKeyStandard
}

// applyClonedMaterialDefaults は複製後材質への既定補正を適用する。
func applyClonedMaterialDefaults(material *model.Material) {
	material.ShadowSide = model.FaceSideFront

	// 透過材質は上流レンダラーの修正が入るまでデプス書き込みを無効化する。
	if material.Transparent {
		material.DepthWrite = false
	}

	// アルファテスト未宣言かつ不透明の材質はアルファを完全に無視する扱いとし、
	// 常時合格となる負の閾値を与える。
	if !material.Transparent && material.AlphaTest == 0 {
		material.AlphaTest = opaqueAlphaTestBypassThreshold
	}
}

// applyGeneratedHaircutOverride は生成ヘアスタイルコンテナ配下のメッシュへ固定の描画補正を適用する。
func applyGeneratedHaircutOverride(root *model.Node) {
	container := root.FindByName(generatedHaircutContainerName)
	if container == nil {
		return
	}
	container.Traverse(func(node *model.Node) {
		if node.Mesh == nil {
			return
		}
		for _, material := range node.Mesh.Materials {
			if material == nil {
				continue
			}
			material.AlphaTest = 0
			material.Transparent = true
			material.DepthWrite = false
		}
	})
}
