// 指示: miu200521358
package minteractor

import "testing"

func TestBuildVisibilityMaskPath(t *testing.T) {
	if got := BuildVisibilityMaskPath("outfit_1", RigFamilyStandard); got != "outfit_1_body_visibility_mask.png" {
		t.Fatalf("standard mask path mismatch: got=%s", got)
	}
	if got := BuildVisibilityMaskPath("outfit_meta_1", RigFamilyMeta); got != "outfit_meta_1_body_visibility_mask.webp" {
		t.Fatalf("meta mask path mismatch: got=%s", got)
	}
}

func TestBuildNormalMapPath(t *testing.T) {
	if got := BuildNormalMapPath("outfit_2", RigFamilyStandard); got != "outfit_2_normal_map.jpg" {
		t.Fatalf("standard normal path mismatch: got=%s", got)
	}
	if got := BuildNormalMapPath("outfit_meta_2", RigFamilyMeta); got != "outfit_2_normal_map.webp" {
		t.Fatalf("meta normal path should drop the meta token: got=%s", got)
	}
}

func TestBuildRecolorPath(t *testing.T) {
	if got := BuildRecolorPath("outfit_1_lowpoly", 3); got != "outfit_1_v3.jpg" {
		t.Fatalf("recolor path mismatch: got=%s", got)
	}
	if got := BuildRecolorPath("outfit_meta_2_lowpoly", 0); got != "outfit_2_v0.jpg" {
		t.Fatalf("meta recolor path should drop the meta token: got=%s", got)
	}
}
