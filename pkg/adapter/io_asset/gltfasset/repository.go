// 指示: miu200521358
// Package gltfasset はGLB/glTF形式のアバターアセット読込アダプタを提供する。
package gltfasset

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"github.com/miu200521358/mu_avatar_viewer/pkg/shared/logging"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbJSONChunkType  = 0x4E4F534A
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize
)

const (
	gltfAlphaModeMask      = "MASK"
	gltfAlphaModeBlend     = "BLEND"
	gltfDefaultAlphaCutoff = 0.5
	unlitExtensionName     = "KHR_materials_unlit"
	positionAttributeName  = "POSITION"
	texCoord0AttributeName = "TEXCOORD_0"
)

// LoadProgressEventType はアセット読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeJsonParsed はJSON解析完了イベントを表す。
	LoadProgressEventTypeJsonParsed LoadProgressEventType = "json_parsed"
	// LoadProgressEventTypeGraphBuilt はランタイムグラフ構築完了イベントを表す。
	LoadProgressEventTypeGraphBuilt LoadProgressEventType = "graph_built"
	// LoadProgressEventTypeCompleted はアセット読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はアセット読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type          LoadProgressEventType
	FileSizeBytes int
	NodeCount     int
	MeshCount     int
	MaterialCount int
}

// GltfAssetRepository はGLB/glTFアセット入力の読み込み契約を表す。
type GltfAssetRepository struct {
	loadProgressReporter func(LoadProgressEvent)
}

// NewGltfAssetRepository はGltfAssetRepositoryを生成する。
func NewGltfAssetRepository() *GltfAssetRepository {
	return &GltfAssetRepository{}
}

// SetLoadProgressReporter はアセット読込進捗受信コールバックを設定する。
func (r *GltfAssetRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *GltfAssetRepository) CanLoad(path string) bool {
	ext := filepath.Ext(path)
	return strings.EqualFold(ext, ".glb") || strings.EqualFold(ext, ".gltf")
}

// InferName はパスから表示名を推定する。
func (r *GltfAssetRepository) InferName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Load はGLB/glTFアセットを読み込み、宣言的記述とランタイムグラフの対を返す。
// 両グラフの行きがけ順は一致し、相関インデックス構築の前提を満たす。
func (r *GltfAssetRepository) Load(path string) (*model.Asset, error) {
	if !r.CanLoad(path) {
		return nil, fmt.Errorf("入力形式が未対応です: %s", path)
	}
	loadTargetName := filepath.Base(path)
	logAssetInfo("アセット読込開始: file=%s", loadTargetName)

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("アセットファイルの読み取りに失敗しました: %w", err)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeFileReadComplete,
		FileSizeBytes: len(b),
	})
	logAssetInfo("アセット読込ステップ: ファイル読み取り完了 bytes=%d", len(b))

	jsonChunk := b
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		jsonChunk, err = parseGLBJSONChunk(b)
		if err != nil {
			return nil, fmt.Errorf("GLBチャンクの解析に失敗しました: %w", err)
		}
		logAssetInfo("アセット読込ステップ: GLBチャンク解析完了 jsonBytes=%d", len(jsonChunk))
	}

	doc := gltfDocument{}
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, fmt.Errorf("glTF JSONの解析に失敗しました: %w", err)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeJsonParsed,
		FileSizeBytes: len(b),
		NodeCount:     len(doc.Nodes),
		MeshCount:     len(doc.Meshes),
		MaterialCount: len(doc.Materials),
	})
	logAssetInfo(
		"アセット読込ステップ: JSON解析完了 nodes=%d meshes=%d materials=%d",
		len(doc.Nodes),
		len(doc.Meshes),
		len(doc.Materials),
	)

	builder := newAssetGraphBuilder(&doc)
	asset, err := builder.build(r.InferName(path))
	if err != nil {
		return nil, err
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeGraphBuilt,
		FileSizeBytes: len(b),
		NodeCount:     len(doc.Nodes),
		MeshCount:     len(doc.Meshes),
		MaterialCount: len(doc.Materials),
	})
	logAssetInfo("アセット読込ステップ: ランタイムグラフ構築完了 nodes=%d", asset.Root.CountNodes())

	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeCompleted,
		FileSizeBytes: len(b),
		NodeCount:     len(doc.Nodes),
		MeshCount:     len(doc.Meshes),
		MaterialCount: len(doc.Materials),
	})
	logAssetInfo("アセット読込完了: file=%s", loadTargetName)
	return asset, nil
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *GltfAssetRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// logAssetInfo はアセット読込のINFOログを出力する。
func logAssetInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// gltfDocument はアセット読込時に必要なglTFトップレベル要素を表す。
type gltfDocument struct {
	Asset     gltfAsset      `json:"asset"`
	Scene     *int           `json:"scene"`
	Scenes    []gltfScene    `json:"scenes"`
	Nodes     []gltfNode     `json:"nodes"`
	Meshes    []gltfMesh     `json:"meshes"`
	Materials []gltfMaterial `json:"materials"`
	Accessors []gltfAccessor `json:"accessors"`
	Skins     []gltfSkin     `json:"skins"`
	Textures  []gltfTexture  `json:"textures"`
	Images    []gltfImage    `json:"images"`
}

// gltfAsset はglTFアセットメタ情報を表す。
type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

// gltfScene はglTFシーンを表す。
type gltfScene struct {
	Name  string `json:"name"`
	Nodes []int  `json:"nodes"`
}

// gltfNode はglTFノードを表す。
type gltfNode struct {
	Name        string    `json:"name"`
	Mesh        *int      `json:"mesh"`
	Skin        *int      `json:"skin"`
	Children    []int     `json:"children"`
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

// gltfMesh はglTFメッシュを表す。
type gltfMesh struct {
	Name       string          `json:"name"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive はglTFプリミティブを表す。
type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Material   *int           `json:"material"`
}

// gltfAccessor はglTFアクセサを表す。
type gltfAccessor struct {
	Count int    `json:"count"`
	Type  string `json:"type"`
}

// gltfSkin はglTFスキンを表す。
type gltfSkin struct {
	Joints []int `json:"joints"`
}

// gltfMaterial はglTF材質を表す。
type gltfMaterial struct {
	Name                 string                     `json:"name"`
	DoubleSided          bool                       `json:"doubleSided"`
	AlphaMode            string                     `json:"alphaMode"`
	AlphaCutoff          *float64                   `json:"alphaCutoff"`
	PbrMetallicRoughness *gltfPbrMetallicRoughness  `json:"pbrMetallicRoughness"`
	NormalTexture        *gltfTextureRef            `json:"normalTexture"`
	EmissiveTexture      *gltfTextureRef            `json:"emissiveTexture"`
	OcclusionTexture     *gltfTextureRef            `json:"occlusionTexture"`
	Extensions           map[string]json.RawMessage `json:"extensions"`
}

// gltfPbrMetallicRoughness はglTF標準PBRパラメータを表す。
type gltfPbrMetallicRoughness struct {
	BaseColorTexture         *gltfTextureRef `json:"baseColorTexture"`
	MetallicRoughnessTexture *gltfTextureRef `json:"metallicRoughnessTexture"`
}

// gltfTextureRef はglTFテクスチャ参照を表す。
type gltfTextureRef struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord"`
}

// gltfTexture はglTFテクスチャを表す。
type gltfTexture struct {
	Name   string `json:"name"`
	Source *int   `json:"source"`
}

// gltfImage はglTF画像を表す。
type gltfImage struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// parseGLBJSONChunk はGLBバイナリからJSONチャンクを取り出す。
func parseGLBJSONChunk(b []byte) ([]byte, error) {
	if len(b) < glbMinValidLength {
		return nil, fmt.Errorf("GLBヘッダが不足しています")
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != glbMagic {
		return nil, fmt.Errorf("GLBマジックが不正です")
	}
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 2 {
		return nil, fmt.Errorf("GLBバージョンが未対応です: %d", version)
	}
	totalLength := binary.LittleEndian.Uint32(b[8:12])
	if totalLength > uint32(len(b)) {
		return nil, fmt.Errorf("GLB全体長が不正です")
	}

	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= len(b) {
		chunkLength := int(binary.LittleEndian.Uint32(b[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(b[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > len(b) {
			return nil, fmt.Errorf("GLBチャンク長が不正です")
		}
		if chunkType == glbJSONChunkType {
			return b[chunkStart:chunkEnd], nil
		}
		offset = chunkEnd
	}
	return nil, fmt.Errorf("GLB JSONチャンクが見つかりません")
}

// assetGraphBuilder は宣言的記述とランタイムグラフを同順で構築する。
// 形状はglTFメッシュ番号単位、ランタイム材質はglTF材質番号単位で共有され、
// 元アセットの共有トポロジをそのまま引き継ぐ。
type assetGraphBuilder struct {
	doc *gltfDocument

	geometries   map[int]*model.Geometry
	materials    map[int]*model.Material
	docMaterials map[int]*model.DocMaterial
	docMeshes    map[int]*model.DocMesh
}

// newAssetGraphBuilder はassetGraphBuilderを生成する。
func newAssetGraphBuilder(doc *gltfDocument) *assetGraphBuilder {
	return &assetGraphBuilder{
		doc:          doc,
		geometries:   map[int]*model.Geometry{},
		materials:    map[int]*model.Material{},
		docMaterials: map[int]*model.DocMaterial{},
		docMeshes:    map[int]*model.DocMesh{},
	}
}

// build はシーンのルートノード群から宣言的記述とランタイムグラフを組み立てる。
func (b *assetGraphBuilder) build(assetName string) (*model.Asset, error) {
	sceneIndex := 0
	if b.doc.Scene != nil {
		sceneIndex = *b.doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(b.doc.Scenes) {
		return nil, fmt.Errorf("glTFシーンが見つかりません: scene=%d", sceneIndex)
	}
	scene := b.doc.Scenes[sceneIndex]

	docRoot := &model.DocNode{Name: assetName}
	runtimeRoot := model.NewNode(assetName)
	for _, nodeIndex := range scene.Nodes {
		docChild, runtimeChild, err := b.buildNode(nodeIndex, map[int]bool{})
		if err != nil {
			return nil, err
		}
		docRoot.Children = append(docRoot.Children, docChild)
		runtimeRoot.AddChild(runtimeChild)
	}

	return &model.Asset{
		Document: &model.AssetDocument{Name: assetName, Root: docRoot},
		Root:     runtimeRoot,
	}, nil
}

// buildNode は1ノードを宣言的・ランタイム両グラフへ再帰的に展開する。
func (b *assetGraphBuilder) buildNode(nodeIndex int, visiting map[int]bool) (*model.DocNode, *model.Node, error) {
	if nodeIndex < 0 || nodeIndex >= len(b.doc.Nodes) {
		return nil, nil, fmt.Errorf("glTFノード番号が範囲外です: node=%d", nodeIndex)
	}
	if visiting[nodeIndex] {
		return nil, nil, fmt.Errorf("glTFノード階層が循環しています: node=%d", nodeIndex)
	}
	visiting[nodeIndex] = true
	defer delete(visiting, nodeIndex)

	source := b.doc.Nodes[nodeIndex]
	docNode := &model.DocNode{Name: source.Name}
	runtimeNode := model.NewNode(source.Name)
	if err := applyNodeTransform(runtimeNode, source); err != nil {
		return nil, nil, fmt.Errorf("glTFノード姿勢の解析に失敗しました: node=%d: %w", nodeIndex, err)
	}

	if source.Mesh != nil {
		skinned := source.Skin != nil
		docMesh, runtimeMesh, err := b.buildMesh(*source.Mesh, skinned)
		if err != nil {
			return nil, nil, err
		}
		docNode.Mesh = docMesh
		runtimeNode.Mesh = runtimeMesh
	}

	for _, childIndex := range source.Children {
		docChild, runtimeChild, err := b.buildNode(childIndex, visiting)
		if err != nil {
			return nil, nil, err
		}
		docNode.Children = append(docNode.Children, docChild)
		runtimeNode.AddChild(runtimeChild)
	}
	return docNode, runtimeNode, nil
}

// buildMesh はglTFメッシュを宣言的メッシュとランタイムメッシュへ展開する。
func (b *assetGraphBuilder) buildMesh(meshIndex int, skinned bool) (*model.DocMesh, *model.Mesh, error) {
	if meshIndex < 0 || meshIndex >= len(b.doc.Meshes) {
		return nil, nil, fmt.Errorf("glTFメッシュ番号が範囲外です: mesh=%d", meshIndex)
	}
	source := b.doc.Meshes[meshIndex]

	docMesh, ok := b.docMeshes[meshIndex]
	if !ok {
		docMesh = &model.DocMesh{Name: source.Name}
		for _, primitive := range source.Primitives {
			if primitive.Material == nil {
				continue
			}
			docMaterial, err := b.buildDocMaterial(*primitive.Material)
			if err != nil {
				return nil, nil, err
			}
			docMesh.Materials = append(docMesh.Materials, docMaterial)
		}
		b.docMeshes[meshIndex] = docMesh
	}
	if skinned {
		docMesh.Skinned = true
	}

	geometry, err := b.buildGeometry(meshIndex, source)
	if err != nil {
		return nil, nil, err
	}

	runtimeMesh := &model.Mesh{
		Geometry: geometry,
		Skinned:  skinned,
	}
	for _, primitive := range source.Primitives {
		if primitive.Material == nil {
			continue
		}
		material, err := b.buildRuntimeMaterial(*primitive.Material)
		if err != nil {
			return nil, nil, err
		}
		runtimeMesh.Materials = append(runtimeMesh.Materials, material)
	}
	return docMesh, runtimeMesh, nil
}

// buildGeometry はglTFメッシュから共有形状を構築する。頂点バッファは
// 展開せず、頂点数とUVチャンネル構成のみを引き継ぐ。
func (b *assetGraphBuilder) buildGeometry(meshIndex int, source gltfMesh) (*model.Geometry, error) {
	if geometry, ok := b.geometries[meshIndex]; ok {
		return geometry, nil
	}

	vertexCount := 0
	hasUV := false
	for _, primitive := range source.Primitives {
		if positionIndex, ok := primitive.Attributes[positionAttributeName]; ok {
			if positionIndex < 0 || positionIndex >= len(b.doc.Accessors) {
				return nil, fmt.Errorf("glTFアクセサ番号が範囲外です: accessor=%d", positionIndex)
			}
			vertexCount += b.doc.Accessors[positionIndex].Count
		}
		if _, ok := primitive.Attributes[texCoord0AttributeName]; ok {
			hasUV = true
		}
	}

	geometry := model.NewGeometry(source.Name, vertexCount)
	if hasUV {
		geometry.Attributes[model.AttributeUV] = make([]float64, vertexCount*2)
	}
	b.geometries[meshIndex] = geometry
	return geometry, nil
}

// buildDocMaterial はglTF材質から宣言的材質を構築する。
func (b *assetGraphBuilder) buildDocMaterial(materialIndex int) (*model.DocMaterial, error) {
	if materialIndex < 0 || materialIndex >= len(b.doc.Materials) {
		return nil, fmt.Errorf("glTF材質番号が範囲外です: material=%d", materialIndex)
	}
	if docMaterial, ok := b.docMaterials[materialIndex]; ok {
		return docMaterial, nil
	}
	source := b.doc.Materials[materialIndex]

	alphaMode := model.AlphaModeOpaque
	switch source.AlphaMode {
	case gltfAlphaModeMask:
		alphaMode = model.AlphaModeMask
	case gltfAlphaModeBlend:
		alphaMode = model.AlphaModeBlend
	}
	alphaCutoff := 0.0
	if alphaMode == model.AlphaModeMask {
		alphaCutoff = gltfDefaultAlphaCutoff
		if source.AlphaCutoff != nil {
			alphaCutoff = *source.AlphaCutoff
		}
	}
	_, unlit := source.Extensions[unlitExtensionName]

	docMaterial := &model.DocMaterial{
		Name:        source.Name,
		DoubleSided: source.DoubleSided,
		AlphaMode:   alphaMode,
		AlphaCutoff: alphaCutoff,
		Unlit:       unlit,
	}
	if source.OcclusionTexture != nil {
		docMaterial.HasOcclusionMap = true
		docMaterial.OcclusionUVChannel = source.OcclusionTexture.TexCoord
	}
	b.docMaterials[materialIndex] = docMaterial
	return docMaterial, nil
}

// buildRuntimeMaterial はglTF材質からランタイム材質を構築する。
// 同一glTF材質を参照するプリミティブは同一ランタイム材質を共有する。
func (b *assetGraphBuilder) buildRuntimeMaterial(materialIndex int) (*model.Material, error) {
	docMaterial, err := b.buildDocMaterial(materialIndex)
	if err != nil {
		return nil, err
	}
	if material, ok := b.materials[materialIndex]; ok {
		return material, nil
	}
	source := b.doc.Materials[materialIndex]

	material := model.NewMaterial(source.Name)
	if docMaterial.DoubleSided {
		material.Side = model.FaceSideDouble
	}
	switch docMaterial.AlphaMode {
	case model.AlphaModeBlend:
		material.Transparent = true
	case model.AlphaModeMask:
		material.AlphaTest = docMaterial.AlphaCutoff
	}
	material.Unlit = docMaterial.Unlit
	if material.Unlit {
		material.ToneMapped = false
	}

	if source.PbrMetallicRoughness != nil {
		if ref := source.PbrMetallicRoughness.BaseColorTexture; ref != nil {
			material.BaseColorMap = b.newPlaceholderTexture(ref.Index, model.ColorSpaceSRGB)
		}
		if ref := source.PbrMetallicRoughness.MetallicRoughnessTexture; ref != nil {
			// glTFはroughness/metalnessを1枚に同梱するため同一テクスチャを両スロットへ結ぶ。
			shared := b.newPlaceholderTexture(ref.Index, model.ColorSpaceLinear)
			material.RoughnessMap = shared
			material.MetalnessMap = shared
		}
	}
	if source.NormalTexture != nil {
		material.NormalMap = b.newPlaceholderTexture(source.NormalTexture.Index, model.ColorSpaceLinear)
	}
	if source.EmissiveTexture != nil {
		material.EmissiveMap = b.newPlaceholderTexture(source.EmissiveTexture.Index, model.ColorSpaceSRGB)
	}
	if source.OcclusionTexture != nil {
		material.OcclusionMap = b.newPlaceholderTexture(source.OcclusionTexture.Index, model.ColorSpaceLinear)
	}

	b.materials[materialIndex] = material
	return material, nil
}

// newPlaceholderTexture は画像デコード前のテクスチャ参照を生成する。
// 画像本体はテクスチャローダが非同期に差し込む。
func (b *assetGraphBuilder) newPlaceholderTexture(textureIndex int, colorSpace model.ColorSpace) *model.Texture {
	name := ""
	if textureIndex >= 0 && textureIndex < len(b.doc.Textures) {
		texture := b.doc.Textures[textureIndex]
		name = texture.Name
		if name == "" && texture.Source != nil {
			sourceIndex := *texture.Source
			if sourceIndex >= 0 && sourceIndex < len(b.doc.Images) {
				img := b.doc.Images[sourceIndex]
				name = img.Name
				if name == "" {
					name = img.URI
				}
			}
		}
	}
	placeholder := model.NewTexture(name, nil)
	placeholder.ColorSpace = colorSpace
	return placeholder
}

// applyNodeTransform はglTFノードのTRSをランタイムノードへ反映する。
func applyNodeTransform(node *model.Node, source gltfNode) error {
	if len(source.Translation) > 0 {
		if len(source.Translation) != 3 {
			return fmt.Errorf("translation要素数が不正です: %d", len(source.Translation))
		}
		node.Transform.Translation = r3.Vec{
			X: source.Translation[0],
			Y: source.Translation[1],
			Z: source.Translation[2],
		}
	}
	if len(source.Rotation) > 0 {
		if len(source.Rotation) != 4 {
			return fmt.Errorf("rotation要素数が不正です: %d", len(source.Rotation))
		}
		node.Transform.Rotation = mgl64.Quat{
			W: source.Rotation[3],
			V: mgl64.Vec3{source.Rotation[0], source.Rotation[1], source.Rotation[2]},
		}
	}
	if len(source.Scale) > 0 {
		if len(source.Scale) != 3 {
			return fmt.Errorf("scale要素数が不正です: %d", len(source.Scale))
		}
		node.Transform.Scale = r3.Vec{
			X: source.Scale[0],
			Y: source.Scale[1],
			Z: source.Scale[2],
		}
	}
	return nil
}
