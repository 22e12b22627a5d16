// 指示: miu200521358
package model

// RoleKind はエンジン所有関節の役割を表す。
type RoleKind string

const (
	RoleIK                   RoleKind = "IK"
	RoleWorld                RoleKind = "WORLD"
	RoleChild                RoleKind = "CHILD"
	RoleReverse              RoleKind = "REVERSE"
	RoleRotationDistribution RoleKind = "ROTATION_DISTRIBUTION"
	RoleAim                  RoleKind = "AIM"
	RoleCenterOfMass         RoleKind = "CENTER_OF_MASS"
)

// RoleTag はエンジン所有関節と元関節の対応を表す。
type RoleTag struct {
	Kind         RoleKind
	HostSkeleton string
	HostJoint    string
	EntryKey     string
}

// RoleOf は関節の役割を返す。
func (s *Skeleton) RoleOf(name string) (RoleTag, bool) {
	tag, ok := s.roles[NormalizeName(name)]
	return tag, ok
}

// SetRole は関節に役割を設定する。
func (s *Skeleton) SetRole(name string, tag RoleTag) {
	s.roles[NormalizeName(name)] = tag
}

// ClearRole は関節の役割を外す。
func (s *Skeleton) ClearRole(name string) {
	delete(s.roles, NormalizeName(name))
}

// IsEngineOwned はエンジン所有関節か判定する。
func (s *Skeleton) IsEngineOwned(name string) bool {
	_, ok := s.roles[NormalizeName(name)]
	return ok
}

// EngineOwnedJoints は役割付き関節名を登録順で返す。
func (s *Skeleton) EngineOwnedJoints() []string {
	names := make([]string, 0, len(s.roles))
	for _, joint := range s.joints {
		if _, ok := s.roles[joint.Name]; ok {
			names = append(names, joint.Name)
		}
	}
	return names
}

// JointsForEntry は操作キーに属する役割付き関節名を返す。
func (s *Skeleton) JointsForEntry(key string) []string {
	names := make([]string, 0)
	for _, joint := range s.joints {
		if tag, ok := s.roles[joint.Name]; ok && tag.EntryKey == key {
			names = append(names, joint.Name)
		}
	}
	return names
}
