// 指示: miu200521358
package gltfasset

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

func writeGLBForRepositoryTest(t *testing.T, path string, doc map[string]any) {
	t.Helper()
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	padding := (4 - (len(jsonBytes) % 4)) % 4
	if padding > 0 {
		jsonBytes = append(jsonBytes, bytes.Repeat([]byte(" "), padding)...)
	}

	totalLength := uint32(12 + 8 + len(jsonBytes))
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(0x46546C67)); err != nil {
		t.Fatalf("write magic failed: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(2)); err != nil {
		t.Fatalf("write version failed: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, totalLength); err != nil {
		t.Fatalf("write total length failed: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(jsonBytes))); err != nil {
		t.Fatalf("write chunk length failed: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(0x4E4F534A)); err != nil {
		t.Fatalf("write chunk type failed: %v", err)
	}
	if _, err := buf.Write(jsonBytes); err != nil {
		t.Fatalf("write chunk body failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write glb file failed: %v", err)
	}
}

// avatarGLTFDocument はバリアント構造とメッシュ共有を含むテスト用glTF要素を返す。
func avatarGLTFDocument() map[string]any {
	return map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"scene": 0,
		"scenes": []any{
			map[string]any{"nodes": []int{0, 1, 2, 3}},
		},
		"nodes": []any{
			map[string]any{"name": "Hips", "translation": []float64{0, 0.9, 0}},
			map[string]any{"name": "male_body", "mesh": 0, "skin": 0},
			map[string]any{"name": "outfit_1_lowpoly", "mesh": 1},
			map[string]any{"name": "outfit_1_copy", "mesh": 1},
		},
		"meshes": []any{
			map[string]any{
				"name": "body_mesh",
				"primitives": []any{
					map[string]any{
						"attributes": map[string]int{"POSITION": 0, "TEXCOORD_0": 1},
						"material":   0,
					},
				},
			},
			map[string]any{
				"name": "outfit_mesh",
				"primitives": []any{
					map[string]any{
						"attributes": map[string]int{"POSITION": 0},
						"material":   1,
					},
				},
			},
		},
		"materials": []any{
			map[string]any{
				"name":        "body_mat",
				"doubleSided": true,
				"alphaMode":   "BLEND",
				"pbrMetallicRoughness": map[string]any{
					"baseColorTexture":         map[string]any{"index": 0},
					"metallicRoughnessTexture": map[string]any{"index": 1},
				},
				"occlusionTexture": map[string]any{"index": 1, "texCoord": 1},
			},
			map[string]any{
				"name":        "outfit_mat",
				"alphaMode":   "MASK",
				"alphaCutoff": 0.4,
				"extensions": map[string]any{
					"KHR_materials_unlit": map[string]any{},
				},
			},
		},
		"accessors": []any{
			map[string]any{"count": 8, "type": "VEC3"},
			map[string]any{"count": 8, "type": "VEC2"},
		},
		"skins": []any{
			map[string]any{"joints": []int{0}},
		},
		"textures": []any{
			map[string]any{"source": 0},
			map[string]any{"source": 1},
		},
		"images": []any{
			map[string]any{"uri": "body_base.png"},
			map[string]any{"uri": "body_orm.png"},
		},
	}
}

func TestCanLoadAcceptsGlbAndGltf(t *testing.T) {
	repository := NewGltfAssetRepository()
	if !repository.CanLoad("avatar.glb") || !repository.CanLoad("AVATAR.GLTF") {
		t.Fatalf("glb/gltf should be loadable")
	}
	if repository.CanLoad("avatar.vrm") {
		t.Fatalf("unsupported extension should be rejected")
	}
}

func TestLoadBuildsMatchedGraphs(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "avatar.glb")
	writeGLBForRepositoryTest(t, inPath, avatarGLTFDocument())

	repository := NewGltfAssetRepository()
	asset, err := repository.Load(inPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if asset.Document == nil || asset.Root == nil {
		t.Fatalf("asset should carry both graphs")
	}

	runtimeNames := make([]string, 0)
	asset.Root.Traverse(func(node *model.Node) {
		runtimeNames = append(runtimeNames, node.Name)
	})
	docNames := make([]string, 0)
	asset.Document.Root.Traverse(func(node *model.DocNode) {
		docNames = append(docNames, node.Name)
	})
	if len(runtimeNames) != len(docNames) {
		t.Fatalf("graph sizes mismatch: runtime=%d doc=%d", len(runtimeNames), len(docNames))
	}
	for position := range runtimeNames {
		if runtimeNames[position] != docNames[position] {
			t.Fatalf("traversal order mismatch at %d: runtime=%s doc=%s",
				position, runtimeNames[position], docNames[position])
		}
	}
}

func TestLoadSharesGeometryAndMaterialPerGltfIndex(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "avatar.glb")
	writeGLBForRepositoryTest(t, inPath, avatarGLTFDocument())

	repository := NewGltfAssetRepository()
	asset, err := repository.Load(inPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	outfit := asset.Root.FindByName("outfit_1_lowpoly")
	outfitCopy := asset.Root.FindByName("outfit_1_copy")
	if outfit.Mesh.Geometry != outfitCopy.Mesh.Geometry {
		t.Fatalf("nodes referencing one gltf mesh should share geometry")
	}
	if outfit.Mesh.PrimaryMaterial() != outfitCopy.Mesh.PrimaryMaterial() {
		t.Fatalf("nodes referencing one gltf material should share the runtime material")
	}
}

func TestLoadMapsMaterialProperties(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "avatar.glb")
	writeGLBForRepositoryTest(t, inPath, avatarGLTFDocument())

	repository := NewGltfAssetRepository()
	asset, err := repository.Load(inPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	body := asset.Root.FindByName("male_body")
	bodyMaterial := body.Mesh.PrimaryMaterial()
	if bodyMaterial.Side != model.FaceSideDouble {
		t.Fatalf("double sided material should draw both sides")
	}
	if !bodyMaterial.Transparent {
		t.Fatalf("blend material should be transparent")
	}
	if bodyMaterial.BaseColorMap == nil || bodyMaterial.BaseColorMap.Name != "body_base.png" {
		t.Fatalf("base color placeholder mismatch: %+v", bodyMaterial.BaseColorMap)
	}
	if bodyMaterial.RoughnessMap == nil || bodyMaterial.RoughnessMap != bodyMaterial.MetalnessMap {
		t.Fatalf("packed roughness/metalness should share one texture")
	}
	if !body.Mesh.Skinned {
		t.Fatalf("node with a skin should produce a skinned mesh")
	}
	if body.Mesh.Geometry.VertexCount != 8 {
		t.Fatalf("vertex count mismatch: got=%d", body.Mesh.Geometry.VertexCount)
	}
	if _, ok := body.Mesh.Geometry.Attributes[model.AttributeUV]; !ok {
		t.Fatalf("uv attribute should be registered")
	}

	outfitMaterial := asset.Root.FindByName("outfit_1_lowpoly").Mesh.PrimaryMaterial()
	if outfitMaterial.AlphaTest != 0.4 {
		t.Fatalf("alpha cutoff mismatch: got=%v", outfitMaterial.AlphaTest)
	}
	if !outfitMaterial.Unlit || outfitMaterial.ToneMapped {
		t.Fatalf("unlit material should skip tone mapping")
	}
}

func TestLoadMapsDocMaterialOcclusionChannel(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "avatar.glb")
	writeGLBForRepositoryTest(t, inPath, avatarGLTFDocument())

	repository := NewGltfAssetRepository()
	asset, err := repository.Load(inPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var bodyDoc *model.DocNode
	asset.Document.Root.Traverse(func(node *model.DocNode) {
		if node.Name == "male_body" {
			bodyDoc = node
		}
	})
	if bodyDoc == nil || bodyDoc.Mesh == nil {
		t.Fatalf("declarative body mesh not found")
	}
	docMaterial := bodyDoc.Mesh.Materials[0]
	if !docMaterial.HasOcclusionMap || docMaterial.OcclusionUVChannel != 1 {
		t.Fatalf("occlusion channel mismatch: %+v", docMaterial)
	}
	if docMaterial.AlphaMode != model.AlphaModeBlend {
		t.Fatalf("alpha mode mismatch: got=%s", docMaterial.AlphaMode)
	}
}

func TestLoadReportsProgress(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "avatar.glb")
	writeGLBForRepositoryTest(t, inPath, avatarGLTFDocument())

	repository := NewGltfAssetRepository()
	events := make([]LoadProgressEventType, 0)
	repository.SetLoadProgressReporter(func(event LoadProgressEvent) {
		events = append(events, event.Type)
	})
	if _, err := repository.Load(inPath); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := []LoadProgressEventType{
		LoadProgressEventTypeFileReadComplete,
		LoadProgressEventTypeJsonParsed,
		LoadProgressEventTypeGraphBuilt,
		LoadProgressEventTypeCompleted,
	}
	if len(events) != len(want) {
		t.Fatalf("event count mismatch: got=%d want=%d", len(events), len(want))
	}
	for position, eventType := range want {
		if events[position] != eventType {
			t.Fatalf("event order mismatch at %d: got=%s want=%s", position, events[position], eventType)
		}
	}
}

func TestLoadRejectsBrokenGLBHeader(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "broken.glb")
	if err := os.WriteFile(inPath, []byte("not a glb"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	repository := NewGltfAssetRepository()
	if _, err := repository.Load(inPath); err == nil {
		t.Fatalf("expected error for broken glb header")
	}
}

func TestLoadPlainGltfJSON(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "avatar.gltf")
	jsonBytes, err := json.Marshal(avatarGLTFDocument())
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	if err := os.WriteFile(inPath, jsonBytes, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	repository := NewGltfAssetRepository()
	asset, err := repository.Load(inPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if asset.Root.FindByName("male_body") == nil {
		t.Fatalf("plain gltf json should load the same graph")
	}
}

func TestLoadRejectsCyclicNodeHierarchy(t *testing.T) {
	doc := avatarGLTFDocument()
	doc["nodes"] = []any{
		map[string]any{"name": "a", "children": []int{1}},
		map[string]any{"name": "b", "children": []int{0}},
	}
	doc["scenes"] = []any{map[string]any{"nodes": []int{0}}}

	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "cyclic.glb")
	writeGLBForRepositoryTest(t, inPath, doc)

	repository := NewGltfAssetRepository()
	if _, err := repository.Load(inPath); err == nil {
		t.Fatalf("expected error for cyclic node hierarchy")
	}
}
