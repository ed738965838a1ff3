// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"github.com/miu200521358/mu_avatar_viewer/pkg/shared/logging"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/port/moutput"
)

// CompositionState は外観合成の状態を表す。
type CompositionState string

const (
	// CompositionStateUnconfigured は未構成状態を表す。
	CompositionStateUnconfigured CompositionState = "unconfigured"
	// CompositionStateVariantSelected はバリアント選択済み状態を表す。
	CompositionStateVariantSelected CompositionState = "variant_selected"
	// CompositionStateComposingAppearance は外観合成中状態を表す。
	CompositionStateComposingAppearance CompositionState = "composing_appearance"
	// CompositionStateVisible は可視化済み状態を表す。
	CompositionStateVisible CompositionState = "visible"
)

const (
	// variantNamePrefix はバリアントノード名の共通接頭辞を表す。
	variantNamePrefix = "outfit"
	// variantSelectorSeparator は選択子のバリアント名と索引の区切りを表す。
	variantSelectorSeparator = "|"
	// bodyMaskAlphaTestThreshold は可視マスク適用時に体メッシュへ与えるアルファテスト閾値を表す。
	bodyMaskAlphaTestThreshold = 0.5
	// defaultBodyVariantNumberMale は男性分岐の既定バリアント番号を表す。
	defaultBodyVariantNumberMale = 1
	// defaultBodyVariantNumberFemale は女性分岐の既定バリアント番号を表す。
	defaultBodyVariantNumberFemale = 2
)

// appearanceComposition は1インスタンスの外観合成状態機械を表す。
// 可視化判定は完了フラグ集合の純関数であり、完了到着順に依存しない。
type appearanceComposition struct {
	state        CompositionState
	archetype    BodyArchetype
	variantNode  *model.Node
	variantBase  string
	variantIndex int

	// maskLoaded は体型可視マスク取得完了フラグを表す。
	maskLoaded bool
	// recolorLoaded は再着色取得完了フラグを表す。未要求の場合は最初から充足済み。
	recolorLoaded bool
	// revealed は可視化遷移の一度きり実行を保証するフラグを表す。
	revealed bool
}

// gateSatisfied は可視化ゲート条件の充足を返す。
func (c *appearanceComposition) gateSatisfied() bool {
	return c != nil && c.maskLoaded && c.recolorLoaded
}

// ComposeRequest は外観合成要求を表す。
type ComposeRequest struct {
	Instance *AvatarInstance
	// Selector は `<variantName>` または `<variantName>|<variantIndex>` 形式の外部選択子を表す。
	// 空の場合は体型分類から既定バリアントを解決する。
	Selector         string
	ProgressReporter IComposeProgressReporter
}

// ComposeResult は外観合成結果を表す。
type ComposeResult struct {
	Instance     *AvatarInstance
	State        CompositionState
	VariantBase  string
	VariantIndex int
	MaskPath     string
	RecolorPath  string
	NormalPath   string
}

// ComposeAppearance はインスタンスの可視バリアントを選択し、非同期外観合成を開始する。
// バリアント構造を持たないグラフは合成対象外として未構成のまま正常終了する。
func (uc *AvatarViewerUsecase) ComposeAppearance(request ComposeRequest) (*ComposeResult, error) {
	instance := request.Instance
	if instance == nil || instance.root == nil {
		return nil, fmt.Errorf("合成対象インスタンスが未設定です")
	}
	if instance.Discarded() {
		return nil, fmt.Errorf("破棄済みインスタンスへは合成できません")
	}

	variants := detectVariantNodes(instance.root)
	if len(variants) == 0 {
		logging.DefaultLogger().Verbose(logging.VERBOSE_COMPOSE,
			"バリアント構造が見つからないため外観合成を行いません: instance=%s", instance.ID())
		return &ComposeResult{Instance: instance, State: CompositionStateUnconfigured, VariantIndex: -1}, nil
	}

	archetype := ClassifyBodyArchetype(instance.root)

	variantBase, variantIndex, err := parseVariantSelector(request.Selector)
	if err != nil {
		return nil, err
	}
	if variantBase == "" {
		variantBase = defaultVariantBase(archetype)
	}
	variantBase = rewriteVariantBaseForFamily(variantBase, archetype.RigFamily)

	selected := resolveVariantNode(variants, variantBase, archetype)
	if selected == nil {
		logging.DefaultLogger().Warn(
			"選択バリアントが見つからないため外観合成を行いません: base=%s", variantBase)
		return &ComposeResult{Instance: instance, State: CompositionStateUnconfigured, VariantIndex: -1}, nil
	}
	variantBase = strings.TrimSuffix(selected.Name, lowpolyNameSuffix)

	enforceVariantExclusivity(variants, selected)
	reportComposeProgress(request.ProgressReporter, ComposeProgressEvent{
		Type:        ComposeProgressEventTypeVariantSelected,
		VariantName: selected.Name,
	})

	appliedCorrections := applyPoseCorrections(instance.root, poseCorrectionsFor(archetype, variantBase))
	reportComposeProgress(request.ProgressReporter, ComposeProgressEvent{
		Type:        ComposeProgressEventTypePoseCorrected,
		VariantName: selected.Name,
	})
	logging.DefaultLogger().Verbose(logging.VERBOSE_COMPOSE,
		"姿勢補正適用: variant=%s corrections=%d", variantBase, appliedCorrections)

	composition := &appearanceComposition{
		state:         CompositionStateVariantSelected,
		archetype:     archetype,
		variantNode:   selected,
		variantBase:   variantBase,
		variantIndex:  variantIndex,
		recolorLoaded: variantIndex < 0,
	}
	instance.composition = composition

	// 可視マスク未適用のまま表示すると誤った切り抜きが見えるため、
	// ゲート充足まではインスタンス全体を不可視に保つ。
	instance.root.Visible = false

	result := &ComposeResult{
		Instance:     instance,
		VariantBase:  variantBase,
		VariantIndex: variantIndex,
	}
	uc.beginAppearanceAssembly(instance, request.ProgressReporter, result)
	result.State = composition.state
	return result, nil
}

// detectVariantNodes はインスタンス直下からバリアント命名規則に合致する子ノードを収集する。
func detectVariantNodes(root *model.Node) []*model.Node {
	variants := make([]*model.Node, 0)
	for _, child := range root.Children() {
		if strings.HasPrefix(child.Name, variantNamePrefix) &&
			strings.HasSuffix(child.Name, lowpolyNameSuffix) {
			variants = append(variants, child)
		}
	}
	return variants
}

// parseVariantSelector は外部選択子を解析する。空選択子は既定解決を意味する。
func parseVariantSelector(selector string) (string, int, error) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return "", -1, nil
	}
	parts := strings.SplitN(trimmed, variantSelectorSeparator, 2)
	base := strings.TrimSpace(parts[0])
	if base == "" {
		return "", -1, fmt.Errorf("選択子のバリアント名が空です: %s", selector)
	}
	if len(parts) == 1 {
		return base, -1, nil
	}
	index, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || index < 0 {
		return "", -1, fmt.Errorf("選択子のバリアント索引が不正です: %s", selector)
	}
	return base, index, nil
}

// defaultVariantBase は体型分類から既定バリアント名を解決する。
func defaultVariantBase(archetype BodyArchetype) string {
	number := defaultBodyVariantNumberMale
	if archetype.Body == BodyBranchFemale {
		number = defaultBodyVariantNumberFemale
	}
	return rewriteVariantBaseForFamily(
		fmt.Sprintf("%s_%d", variantNamePrefix, number), archetype.RigFamily)
}

// rewriteVariantBaseForFamily はリグ系統に応じてバリアント名を対応命名系統へ書き換える。
func rewriteVariantBaseForFamily(base string, family RigFamily) string {
	if family != RigFamilyMeta || strings.Contains(base, metaNameToken) {
		return base
	}
	return strings.Replace(base, variantNamePrefix+"_", variantNamePrefix+metaNameToken+"_", 1)
}

// resolveVariantNode は選択バリアントのノードを解決する。
// 見つからない場合は既定バリアント、それも無ければ先頭バリアントへ退避する。
func resolveVariantNode(variants []*model.Node, variantBase string, archetype BodyArchetype) *model.Node {
	if node := findVariantNode(variants, variantBase); node != nil {
		return node
	}
	if node := findVariantNode(variants, defaultVariantBase(archetype)); node != nil {
		return node
	}
	if len(variants) > 0 {
		return variants[0]
	}
	return nil
}

// findVariantNode はバリアント名からノードを検索する。
func findVariantNode(variants []*model.Node, variantBase string) *model.Node {
	wanted := variantBase + lowpolyNameSuffix
	for _, variant := range variants {
		if variant.Name == wanted {
			return variant
		}
	}
	return nil
}

// enforceVariantExclusivity は選択バリアントのみ可視とし、残りを不可視へ戻す。
// 生成系バリアントが誤って保持している透過フラグも併せて初期化する。
func enforceVariantExclusivity(variants []*model.Node, selected *model.Node) {
	for _, variant := range variants {
		if variant == selected {
			variant.Visible = true
			continue
		}
		variant.Visible = false
		resetStaleVariantFlags(variant)
	}
}

// resetStaleVariantFlags は非表示バリアントの材質を不透明・デプス書き込みあり・
// アルファテストなしの状態へ強制初期化する。
func resetStaleVariantFlags(variant *model.Node) {
	variant.Traverse(func(node *model.Node) {
		if node.Mesh == nil {
			return
		}
		for _, material := range node.Mesh.Materials {
			if material == nil {
				continue
			}
			material.AlphaTest = 0
			material.Transparent = false
			material.DepthWrite = true
			material.MarkNeedsUpdate()
		}
	})
}

// beginAppearanceAssembly は外観合成の非同期テクスチャ取得を発行する。
// 3系統の取得は独立しており、完了順序に前提を置かない。
func (uc *AvatarViewerUsecase) beginAppearanceAssembly(instance *AvatarInstance, reporter IComposeProgressReporter, result *ComposeResult) {
	composition := instance.composition
	composition.state = CompositionStateComposingAppearance

	if uc.textureLoader == nil {
		// 取得系が無い構成では合成を保留し続けられないため、ゲートを即時充足させる。
		logging.DefaultLogger().Warn("テクスチャ取得系が未設定のため外観合成を省略します")
		composition.maskLoaded = true
		composition.recolorLoaded = true
		uc.checkReveal(instance, reporter)
		return
	}

	family := composition.archetype.RigFamily

	result.MaskPath = BuildVisibilityMaskPath(composition.variantBase, family)
	uc.issueTextureFetch(instance.ID(), result.MaskPath, reporter,
		func(target *AvatarInstance, texture *model.Texture) {
			applyVisibilityMask(target, texture)
		},
		func(target *AvatarInstance) {
			target.composition.maskLoaded = true
			uc.checkReveal(target, reporter)
		})

	if composition.variantIndex >= 0 {
		result.RecolorPath = BuildRecolorPath(composition.variantNode.Name, composition.variantIndex)
		uc.issueTextureFetch(instance.ID(), result.RecolorPath, reporter,
			func(target *AvatarInstance, texture *model.Texture) {
				applyVariantRecolor(target, texture)
			},
			func(target *AvatarInstance) {
				target.composition.recolorLoaded = true
				uc.checkReveal(target, reporter)
			})
	}

	// 法線マップは純粋に装飾的な詳細のため可視化ゲートに関与しない。
	result.NormalPath = BuildNormalMapPath(composition.variantBase, family)
	uc.issueTextureFetch(instance.ID(), result.NormalPath, reporter,
		func(target *AvatarInstance, texture *model.Texture) {
			applyVariantNormalMap(target, texture)
		},
		nil)
}

// issueTextureFetch はテクスチャ取得を発行し、完了をロジックスレッドへ配送する。
// 発行後にインスタンスが破棄された場合、完了結果は適用されずに捨てられる。
// 取得失敗時も resolve は実行され、可視化ゲートが恒久的に塞がらないようにする。
func (uc *AvatarViewerUsecase) issueTextureFetch(
	instanceID uuid.UUID,
	path string,
	reporter IComposeProgressReporter,
	apply func(instance *AvatarInstance, texture *model.Texture),
	resolve func(instance *AvatarInstance),
) {
	reportComposeProgress(reporter, ComposeProgressEvent{
		Type:      ComposeProgressEventTypeFetchIssued,
		FetchPath: path,
	})
	uc.textureLoader.LoadAsync(path, func(result moutput.TextureResult) {
		uc.EnqueueCompletion(func() {
			instance, ok := uc.instances[instanceID]
			if !ok || instance.Discarded() || instance.composition == nil {
				if result.Texture != nil {
					result.Texture.Dispose()
				}
				return
			}
			if result.Err != nil {
				logging.DefaultLogger().Warn(
					"テクスチャ取得に失敗しました(以前のテクスチャを維持): path=%s: %v", path, result.Err)
			} else if result.Texture != nil {
				apply(instance, result.Texture)
			}
			reportComposeProgress(reporter, ComposeProgressEvent{
				Type:      ComposeProgressEventTypeFetchCompleted,
				FetchPath: path,
			})
			if resolve != nil {
				resolve(instance)
			}
		})
	})
}

// checkReveal は完了フラグ集合から可視化遷移を判定する。遷移は一度きりで冪等に扱う。
func (uc *AvatarViewerUsecase) checkReveal(instance *AvatarInstance, reporter IComposeProgressReporter) {
	composition := instance.composition
	if composition == nil || composition.revealed {
		return
	}
	if !composition.gateSatisfied() {
		return
	}
	composition.revealed = true
	composition.state = CompositionStateVisible
	instance.root.Visible = true
	reportComposeProgress(reporter, ComposeProgressEvent{
		Type:        ComposeProgressEventTypeRevealed,
		VariantName: composition.variantBase,
	})
}

// applyVisibilityMask は体メッシュ材質へ可視マスクを適用し、アルファテストを有効化する。
func applyVisibilityMask(instance *AvatarInstance, texture *model.Texture) {
	body := instance.root.FindByName(bodyNodeName(instance.composition.archetype.Body))
	if body == nil {
		// 分岐マーカーと体メッシュ名が食い違う内容もあるため、反対分岐の名前も試す。
		body = instance.root.FindByName(bodyNodeName(oppositeBodyBranch(instance.composition.archetype.Body)))
	}
	if body == nil || body.Mesh == nil {
		logging.DefaultLogger().Warn("可視マスク適用先の体メッシュが見つかりません")
		return
	}
	material := body.Mesh.PrimaryMaterial()
	if material == nil {
		return
	}
	material.AlphaMap = swapMaterialTexture(material, material.AlphaMap, texture)
	material.AlphaTest = bodyMaskAlphaTestThreshold
}

// applyVariantRecolor は選択バリアント材質の基本色マップを置き換える。
func applyVariantRecolor(instance *AvatarInstance, texture *model.Texture) {
	material := primaryVariantMaterial(instance)
	if material == nil {
		return
	}
	material.BaseColorMap = swapMaterialTexture(material, material.BaseColorMap, texture)
}

// applyVariantNormalMap は選択バリアント材質の法線マップを置き換える。
func applyVariantNormalMap(instance *AvatarInstance, texture *model.Texture) {
	material := primaryVariantMaterial(instance)
	if material == nil {
		return
	}
	material.NormalMap = swapMaterialTexture(material, material.NormalMap, texture)
}

// primaryVariantMaterial は選択バリアント部分木の先頭材質を返す。
func primaryVariantMaterial(instance *AvatarInstance) *model.Material {
	variant := instance.composition.variantNode
	if variant == nil {
		return nil
	}
	var material *model.Material
	variant.Traverse(func(node *model.Node) {
		if material == nil && node.Mesh != nil {
			material = node.Mesh.PrimaryMaterial()
		}
	})
	return material
}

// swapMaterialTexture は材質のテクスチャを置き換える。置換元のUVタイリングを
// 引き継ぎ、置換元のGPUリソースを破棄し、材質へ再処理を要求する。
func swapMaterialTexture(material *model.Material, current *model.Texture, incoming *model.Texture) *model.Texture {
	if incoming == nil {
		return current
	}
	incoming.CopyTilingFrom(current)
	if current != nil {
		current.Dispose()
	}
	material.MarkNeedsUpdate()
	return incoming
}

// oppositeBodyBranch は反対の体型分岐を返す。
func oppositeBodyBranch(branch BodyBranch) BodyBranch {
	if branch == BodyBranchFemale {
		return BodyBranchMale
	}
	return BodyBranchFemale
}
