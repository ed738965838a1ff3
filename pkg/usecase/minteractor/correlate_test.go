// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

func TestBuildCorrelationIndexRoundTrip(t *testing.T) {
	asset := buildAvatarTestAsset()
	index, err := BuildCorrelationIndex(asset.Root, asset.Document)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	runtimeNodes := collectCorrelatableNodes(asset.Root)
	docNodes := collectDocNodes(asset.Document.Root)
	if index.NodeCount() != len(runtimeNodes) {
		t.Fatalf("node count mismatch: got=%d want=%d", index.NodeCount(), len(runtimeNodes))
	}

	for position, runtimeNode := range runtimeNodes {
		docNode, ok := index.DocNodeOf(runtimeNode)
		if !ok {
			t.Fatalf("doc node not found: node=%s", runtimeNode.Name)
		}
		if docNode != docNodes[position] {
			t.Fatalf("doc node mismatch: node=%s", runtimeNode.Name)
		}
		back, ok := index.RuntimeNodeOf(docNode)
		if !ok || back != runtimeNode {
			t.Fatalf("runtime node round trip failed: node=%s", runtimeNode.Name)
		}
	}
}

func TestBuildCorrelationIndexCorrelatesMaterialsPositionally(t *testing.T) {
	asset := buildAvatarTestAsset()
	index, err := BuildCorrelationIndex(asset.Root, asset.Document)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	body := asset.Root.FindByName("male_body")
	material := body.Mesh.PrimaryMaterial()
	docMaterial, ok := index.DocMaterialOf(material)
	if !ok {
		t.Fatalf("doc material not found")
	}
	if docMaterial.Name != "body_mat" {
		t.Fatalf("doc material mismatch: got=%s", docMaterial.Name)
	}
	back, ok := index.RuntimeMaterialOf(docMaterial)
	if !ok || back != material {
		t.Fatalf("runtime material round trip failed")
	}
}

func TestBuildCorrelationIndexNodeCountMismatchFails(t *testing.T) {
	asset := buildAvatarTestAsset()
	asset.Root.AddChild(model.NewNode("extra_runtime_only"))

	if _, err := BuildCorrelationIndex(asset.Root, asset.Document); err == nil {
		t.Fatalf("expected error for node count mismatch")
	}
}

func TestBuildCorrelationIndexMaterialCountMismatchFails(t *testing.T) {
	asset := buildAvatarTestAsset()
	body := asset.Root.FindByName("male_body")
	body.Mesh.Materials = append(body.Mesh.Materials, model.NewMaterial("extra_mat"))

	if _, err := BuildCorrelationIndex(asset.Root, asset.Document); err == nil {
		t.Fatalf("expected error for material count mismatch")
	}
}

func TestBuildCorrelationIndexSkipsSynthesizedNodes(t *testing.T) {
	asset := buildAvatarTestAsset()
	synthesized := model.NewNode("male_body_backface")
	synthesized.Synthesized = true
	asset.Root.AddChild(synthesized)

	index, err := BuildCorrelationIndex(asset.Root, asset.Document)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, ok := index.DocNodeOf(synthesized); ok {
		t.Fatalf("synthesized node should not be correlated")
	}
}

func TestDeriveCorrelationIndexForCloneCopiesDocReferences(t *testing.T) {
	asset := buildAvatarTestAsset()
	parentIndex, err := BuildCorrelationIndex(asset.Root, asset.Document)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	cloneRoot, err := cloneNodeTree(asset.Root)
	if err != nil {
		t.Fatalf("clone tree failed: %v", err)
	}
	uc := newTestUsecase(nil, nil)
	if err := uc.cloneMaterialsInto(cloneRoot, asset.Root); err != nil {
		t.Fatalf("clone materials failed: %v", err)
	}

	derived, err := DeriveCorrelationIndexForClone(cloneRoot, asset.Root, parentIndex)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	parentBody := asset.Root.FindByName("male_body")
	cloneBody := cloneRoot.FindByName("male_body")
	wantDoc, _ := parentIndex.DocNodeOf(parentBody)
	gotDoc, ok := derived.DocNodeOf(cloneBody)
	if !ok || gotDoc != wantDoc {
		t.Fatalf("clone doc node mismatch")
	}

	wantDocMaterial, _ := parentIndex.DocMaterialOf(parentBody.Mesh.PrimaryMaterial())
	gotDocMaterial, ok := derived.DocMaterialOf(cloneBody.Mesh.PrimaryMaterial())
	if !ok || gotDocMaterial != wantDocMaterial {
		t.Fatalf("clone doc material mismatch")
	}
}

func TestDeriveCorrelationIndexForCloneIncludesSynthesizedPositions(t *testing.T) {
	asset := buildAvatarTestAsset()
	body := asset.Root.FindByName("male_body")
	material := body.Mesh.PrimaryMaterial()
	material.Side = model.FaceSideDouble
	material.Transparent = true

	uc := newTestUsecase(nil, nil)
	source, err := prepareTestInstance(uc, asset)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	clone, err := uc.CloneInstance(source)
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}

	cloneBackface := clone.Root().FindByName("male_body" + backfaceNodeNameSuffix)
	if cloneBackface == nil {
		t.Fatalf("synthesized backface missing in clone")
	}
	if _, ok := clone.CorrelatedIndex().DocNodeOf(cloneBackface); ok {
		t.Fatalf("synthesized backface should have no doc correlation")
	}
	if clone.CorrelatedIndex().NodeCount() != source.CorrelatedIndex().NodeCount() {
		t.Fatalf("derived node count mismatch: got=%d want=%d",
			clone.CorrelatedIndex().NodeCount(), source.CorrelatedIndex().NodeCount())
	}
}
