// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/port/moutput"
)

// fakeTextureLoader は取得要求を蓄積し、テストから任意順で完了させる。
type fakeTextureLoader struct {
	issued     []string
	deliveries map[string][]func(result moutput.TextureResult)
}

func newFakeTextureLoader() *fakeTextureLoader {
	return &fakeTextureLoader{
		deliveries: map[string][]func(result moutput.TextureResult){},
	}
}

func (l *fakeTextureLoader) LoadAsync(path string, deliver func(result moutput.TextureResult)) {
	l.issued = append(l.issued, path)
	l.deliveries[path] = append(l.deliveries[path], deliver)
}

// deliver は指定パスの最古の取得要求を完了させる。要求が無い場合はfalseを返す。
func (l *fakeTextureLoader) deliver(path string, result moutput.TextureResult) bool {
	pending := l.deliveries[path]
	if len(pending) == 0 {
		return false
	}
	l.deliveries[path] = pending[1:]
	result.Path = path
	pending[0](result)
	return true
}

// fakeRenderDevice は描画デバイス呼び出しを記録する。
type fakeRenderDevice struct {
	xrEnabled     bool
	mipTargets    []*model.Texture
	xrDuringCalls []bool
	mipErr        error
}

func (d *fakeRenderDevice) GenerateMipmaps(texture *model.Texture) error {
	d.mipTargets = append(d.mipTargets, texture)
	d.xrDuringCalls = append(d.xrDuringCalls, d.xrEnabled)
	return d.mipErr
}

func (d *fakeRenderDevice) XREnabled() bool {
	return d.xrEnabled
}

func (d *fakeRenderDevice) SetXREnabled(enabled bool) {
	d.xrEnabled = enabled
}

// newTestUsecase はテスト用の依存でユースケースを生成する。
func newTestUsecase(loader moutput.ITextureLoader, device moutput.IRenderDevice) *AvatarViewerUsecase {
	return NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{
		TextureLoader: loader,
		RenderDevice:  device,
	})
}

// buildAvatarTestAsset は標準リグ・男性分岐のバリアント付きテスト用アセットを構築する。
// ランタイムグラフと宣言的記述は同一の巡回順で組み立てる。
func buildAvatarTestAsset() *model.Asset {
	root := model.NewNode("avatar")
	docRoot := &model.DocNode{Name: "avatar"}

	root.AddChild(model.NewNode("Hips"))
	docRoot.Children = append(docRoot.Children, &model.DocNode{Name: "Hips"})

	appendMeshNodePair(root, docRoot, "male_body", "body_mat", true)
	appendMeshNodePair(root, docRoot, "outfit_1_lowpoly", "outfit_1_mat", true)
	appendMeshNodePair(root, docRoot, "outfit_2_lowpoly", "outfit_2_mat", true)

	return &model.Asset{
		Document: &model.AssetDocument{Name: "avatar", Root: docRoot},
		Root:     root,
	}
}

// appendMeshNodePair は同名のランタイム/宣言的メッシュノード対を追加する。
func appendMeshNodePair(root *model.Node, docRoot *model.DocNode, name string, materialName string, skinned bool) (*model.Node, *model.DocNode) {
	geometry := model.NewGeometry(name+"_geo", 8)
	material := model.NewMaterial(materialName)
	material.BaseColorMap = model.NewTexture(materialName+"_base", nil)

	node := model.NewNode(name)
	node.Mesh = &model.Mesh{
		Geometry:  geometry,
		Materials: []*model.Material{material},
		Skinned:   skinned,
	}
	root.AddChild(node)

	docMaterial := &model.DocMaterial{Name: materialName, AlphaMode: model.AlphaModeOpaque}
	docNode := &model.DocNode{
		Name: name,
		Mesh: &model.DocMesh{
			Name:      name + "_mesh",
			Materials: []*model.DocMaterial{docMaterial},
			Skinned:   skinned,
		},
	}
	docRoot.Children = append(docRoot.Children, docNode)
	return node, docNode
}

// prepareTestInstance はテスト用アセットへ準備パスを適用したインスタンスを返す。
func prepareTestInstance(uc *AvatarViewerUsecase, asset *model.Asset) (*AvatarInstance, error) {
	result, err := uc.PrepareInstance(PrepareRequest{Asset: asset})
	if err != nil {
		return nil, err
	}
	return result.Instance, nil
}

// composeEventCollector は外観合成進捗イベントを記録する。
type composeEventCollector struct {
	events []ComposeProgressEvent
}

func (c *composeEventCollector) ReportComposeProgress(event ComposeProgressEvent) {
	c.events = append(c.events, event)
}

// countEvents は指定種別のイベント数を返す。
func (c *composeEventCollector) countEvents(eventType ComposeProgressEventType) int {
	count := 0
	for _, event := range c.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

// prepareEventCollector は準備パス進捗イベントを記録する。
type prepareEventCollector struct {
	events []PrepareProgressEvent
}

func (c *prepareEventCollector) ReportPrepareProgress(event PrepareProgressEvent) {
	c.events = append(c.events, event)
}
