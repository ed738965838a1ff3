// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

func TestPoseCorrectionsForHeelVariant(t *testing.T) {
	archetype := BodyArchetype{RigFamily: RigFamilyStandard, Body: BodyBranchMale}
	corrections := poseCorrectionsFor(archetype, "outfit_2")
	if len(corrections) != len(heelPoseCorrections) {
		t.Fatalf("heel correction count mismatch: got=%d want=%d",
			len(corrections), len(heelPoseCorrections))
	}
}

func TestPoseCorrectionsForNonHeelVariant(t *testing.T) {
	archetype := BodyArchetype{RigFamily: RigFamilyStandard, Body: BodyBranchMale}
	if corrections := poseCorrectionsFor(archetype, "outfit_1"); len(corrections) != 0 {
		t.Fatalf("non-heel variant should have no corrections: got=%d", len(corrections))
	}
}

func TestPoseCorrectionsForMetaFamily(t *testing.T) {
	archetype := BodyArchetype{RigFamily: RigFamilyMeta, Body: BodyBranchFemale}
	corrections := poseCorrectionsFor(archetype, "outfit_meta_1")
	if len(corrections) != len(metaRigPoseCorrections) {
		t.Fatalf("meta correction count mismatch: got=%d want=%d",
			len(corrections), len(metaRigPoseCorrections))
	}
}

func TestPoseCorrectionsForMetaHeelVariantCombines(t *testing.T) {
	archetype := BodyArchetype{RigFamily: RigFamilyMeta, Body: BodyBranchFemale}
	corrections := poseCorrectionsFor(archetype, "outfit_meta_2")
	want := len(heelPoseCorrections) + len(metaRigPoseCorrections)
	if len(corrections) != want {
		t.Fatalf("combined correction count mismatch: got=%d want=%d", len(corrections), want)
	}
}

func TestApplyPoseCorrectionsRotatesJoints(t *testing.T) {
	root := model.NewNode("avatar")
	leftAnkle := model.NewNode(leftAnkleJointName)
	root.AddChild(leftAnkle)
	before := leftAnkle.Transform.Rotation

	applied := applyPoseCorrections(root, heelPoseCorrections)
	if applied != 1 {
		t.Fatalf("applied count mismatch: got=%d want=1", applied)
	}
	if leftAnkle.Transform.Rotation == before {
		t.Fatalf("joint rotation should change")
	}
}

func TestApplyPoseCorrectionsSkipsMissingJoints(t *testing.T) {
	root := model.NewNode("avatar")
	if applied := applyPoseCorrections(root, metaRigPoseCorrections); applied != 0 {
		t.Fatalf("missing joints should be skipped: got=%d", applied)
	}
}
