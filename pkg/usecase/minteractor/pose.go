// 指示: miu200521358
package minteractor

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

const (
	// heelVariantBasePrefix はヒール靴を含むバリアント名の接頭辞を表す。
	heelVariantBasePrefix = "outfit_2"

	heelAnklePitchDegree   = 12.0
	heelToePitchDegree     = -24.0
	metaShoulderRollDegree = 4.0
	metaArmRollDegree      = -7.5
)

// 姿勢補正対象のジョイント名。
const (
	leftAnkleJointName     = "LeftAnkle"
	rightAnkleJointName    = "RightAnkle"
	leftToeJointName       = "LeftToe"
	rightToeJointName      = "RightToe"
	leftShoulderJointName  = "LeftShoulder"
	rightShoulderJointName = "RightShoulder"
	leftArmJointName       = "LeftArm"
	rightArmJointName      = "RightArm"
)

// poseCorrection は1ジョイントへの固定回転補正を表す。
type poseCorrection struct {
	JointName string
	Axis      mgl64.Vec3
	Degree    float64
}

// heelPoseCorrections はヒール靴バリアント向けの足首・つま先補正を保持する。
var heelPoseCorrections = []poseCorrection{
	{JointName: leftAnkleJointName, Axis: mgl64.Vec3{1, 0, 0}, Degree: heelAnklePitchDegree},
	{JointName: rightAnkleJointName, Axis: mgl64.Vec3{1, 0, 0}, Degree: heelAnklePitchDegree},
	{JointName: leftToeJointName, Axis: mgl64.Vec3{1, 0, 0}, Degree: heelToePitchDegree},
	{JointName: rightToeJointName, Axis: mgl64.Vec3{1, 0, 0}, Degree: heelToePitchDegree},
}

// metaRigPoseCorrections はmetaリグ系統向けの肩・腕補正を保持する。
var metaRigPoseCorrections = []poseCorrection{
	{JointName: leftShoulderJointName, Axis: mgl64.Vec3{0, 0, 1}, Degree: metaShoulderRollDegree},
	{JointName: rightShoulderJointName, Axis: mgl64.Vec3{0, 0, 1}, Degree: -metaShoulderRollDegree},
	{JointName: leftArmJointName, Axis: mgl64.Vec3{0, 0, 1}, Degree: metaArmRollDegree},
	{JointName: rightArmJointName, Axis: mgl64.Vec3{0, 0, 1}, Degree: -metaArmRollDegree},
}

// poseCorrectionsFor は体型分類とバリアント名接頭辞に応じた補正一覧を返す。
func poseCorrectionsFor(archetype BodyArchetype, variantBase string) []poseCorrection {
	corrections := make([]poseCorrection, 0)

	normalizedBase := strings.ReplaceAll(variantBase, metaNameToken, "")
	if strings.HasPrefix(normalizedBase, heelVariantBasePrefix) {
		corrections = append(corrections, heelPoseCorrections...)
	}
	if archetype.RigFamily == RigFamilyMeta {
		corrections = append(corrections, metaRigPoseCorrections...)
	}
	return corrections
}

// applyPoseCorrections は補正一覧をジョイントノードへ適用し、適用件数を返す。
// 対象ジョイントが見つからない場合は読み飛ばす。
func applyPoseCorrections(root *model.Node, corrections []poseCorrection) int {
	applied := 0
	for _, correction := range corrections {
		joint := root.FindByName(correction.JointName)
		if joint == nil {
			continue
		}
		rotation := mgl64.QuatRotate(mgl64.DegToRad(correction.Degree), correction.Axis)
		joint.Transform.Rotation = joint.Transform.Rotation.Mul(rotation)
		applied++
	}
	return applied
}
