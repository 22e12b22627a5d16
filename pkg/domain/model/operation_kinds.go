// 指示: miu200521358
package model

// OperationKind は空間変換操作の種別を表す。リグ状態ログの constraint_type に使う。
type OperationKind string

const (
	OperationWorldSpace           OperationKind = "World Space"
	OperationParentSpace          OperationKind = "Parent Space"
	OperationParentOffsetSpace    OperationKind = "Parent Offset Space"
	OperationAimSpace             OperationKind = "Aim Space"
	OperationAimOffsetSpace       OperationKind = "Aim Offset Space"
	OperationReverseHierarchy     OperationKind = "Reverse Hierarchy Space"
	OperationIKLimb               OperationKind = "IK Limb"
	OperationIKStretch            OperationKind = "IK Stretch"
	OperationRotationDistribution OperationKind = "Rotation Distribution"
	OperationCenterOfMass         OperationKind = "Center of Gravity"
	OperationSimpleCopyTransforms OperationKind = "Simple Copy Transforms"
)

// AllOperationKinds は登録済みの操作種別を返す。
func AllOperationKinds() []OperationKind {
	return []OperationKind{
		OperationWorldSpace,
		OperationParentSpace,
		OperationParentOffsetSpace,
		OperationAimSpace,
		OperationAimOffsetSpace,
		OperationReverseHierarchy,
		OperationIKLimb,
		OperationIKStretch,
		OperationRotationDistribution,
		OperationCenterOfMass,
		OperationSimpleCopyTransforms,
	}
}

// ProblemLabel は問題文字列の先頭に付ける表示名を返す。
func (k OperationKind) ProblemLabel() string {
	switch k {
	case OperationWorldSpace:
		return "World Space Constraint"
	case OperationParentSpace:
		return "Parent Space Constraint"
	case OperationParentOffsetSpace:
		return "Parent Offset Constraint"
	case OperationAimSpace, OperationAimOffsetSpace:
		return "Aim Constraint"
	case OperationReverseHierarchy:
		return "Reverse Constraint"
	case OperationIKLimb, OperationIKStretch:
		return "IK Constraint"
	case OperationRotationDistribution:
		return "Rotation Distribution Constraint"
	case OperationCenterOfMass:
		return "Center of Mass"
	case OperationSimpleCopyTransforms:
		return "Copy Transforms Constraint"
	default:
		return string(k)
	}
}

// EntryKey はリグ状態ログのキーを返す。
func (k OperationKind) EntryKey(name string) string {
	return string(k) + "|" + name
}

// Role は操作で生成される代理関節の役割を返す。
func (k OperationKind) Role() RoleKind {
	switch k {
	case OperationWorldSpace:
		return RoleWorld
	case OperationParentSpace, OperationParentOffsetSpace:
		return RoleChild
	case OperationAimSpace, OperationAimOffsetSpace:
		return RoleAim
	case OperationReverseHierarchy:
		return RoleReverse
	case OperationIKLimb, OperationIKStretch:
		return RoleIK
	case OperationRotationDistribution:
		return RoleRotationDistribution
	case OperationCenterOfMass:
		return RoleCenterOfMass
	default:
		return ""
	}
}

// BoneStateProblemLabel は関節状態適用時の問題文字列の表示名。
const BoneStateProblemLabel = "Bone State"
