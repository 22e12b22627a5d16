// 指示: miu200521358
package constraint

import (
	"github.com/google/uuid"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
)

// Kind はコンストレイントの種別を表す。
type Kind string

const (
	KindCopyTransforms Kind = "COPY_TRANSFORMS"
	KindCopyLocation   Kind = "COPY_LOCATION"
	KindCopyRotation   Kind = "COPY_ROTATION"
	KindCopyScale      Kind = "COPY_SCALE"
	KindDampedTrack    Kind = "DAMPED_TRACK"
	KindStretchTo      Kind = "STRETCH_TO"
	KindIK             Kind = "IK"
)

// Space は変換の基準空間を表す。
type Space string

const (
	// SpaceWorld は骨格空間の姿勢をそのまま使う。
	SpaceWorld Space = "WORLD"
	// SpaceLocal は関節のレストからの相対姿勢を使う。
	SpaceLocal Space = "LOCAL"
)

// TrackAxis は向ける軸を表す。
type TrackAxis string

const (
	TrackX         TrackAxis = "TRACK_X"
	TrackY         TrackAxis = "TRACK_Y"
	TrackZ         TrackAxis = "TRACK_Z"
	TrackNegativeX TrackAxis = "TRACK_NEGATIVE_X"
	TrackNegativeY TrackAxis = "TRACK_NEGATIVE_Y"
	TrackNegativeZ TrackAxis = "TRACK_NEGATIVE_Z"
)

// Vector は軸の単位ベクトルを返す。未知の値は +Y。
func (a TrackAxis) Vector() mmath.Vec3 {
	switch a {
	case TrackX:
		return mmath.NewVec3(1, 0, 0)
	case TrackZ:
		return mmath.NewVec3(0, 0, 1)
	case TrackNegativeX:
		return mmath.NewVec3(-1, 0, 0)
	case TrackNegativeY:
		return mmath.NewVec3(0, -1, 0)
	case TrackNegativeZ:
		return mmath.NewVec3(0, 0, -1)
	default:
		return mmath.NewVec3(0, 1, 0)
	}
}

// ParseTrackAxis は "X" や "-Y" などの表記からも軸を解決する。
func ParseTrackAxis(value string) TrackAxis {
	switch value {
	case "X", "+X", string(TrackX):
		return TrackX
	case "Z", "+Z", string(TrackZ):
		return TrackZ
	case "-X", string(TrackNegativeX):
		return TrackNegativeX
	case "-Y", string(TrackNegativeY):
		return TrackNegativeY
	case "-Z", string(TrackNegativeZ):
		return TrackNegativeZ
	default:
		return TrackY
	}
}

// JointRef は骨格と関節の組を表す。
type JointRef struct {
	Skeleton string
	Joint    string
}

// IsZero は未指定か判定する。
func (r JointRef) IsZero() bool {
	return r.Joint == ""
}

// Constraint は Owner が Target に追従する関係を表す。
type Constraint struct {
	ID          string
	Name        string
	Kind        Kind
	Owner       JointRef
	Target      JointRef
	Pole        JointRef
	OwnerSpace  Space
	TargetSpace Space
	Influence   float64
	EngineOwned bool
	Tag         string
	Offset      mmath.Mat4
	UseOffset   bool
	Axis        TrackAxis
	AxisVector  mmath.Vec3
	ChainLength int
	UseStretch  bool
	UseLocation bool
	UseRotation bool
	RestLength  float64
}

// New は既定値で初期化したコンストレイントを返す。
func New(kind Kind, owner JointRef, target JointRef) *Constraint {
	return &Constraint{
		ID:          uuid.NewString(),
		Name:        string(kind),
		Kind:        kind,
		Owner:       owner,
		Target:      target,
		OwnerSpace:  SpaceWorld,
		TargetSpace: SpaceWorld,
		Influence:   1,
		Offset:      mmath.Mat4Identity(),
		Axis:        TrackY,
		UseLocation: true,
		UseRotation: true,
	}
}

// TrackDirection は向ける軸のローカル方向を返す。AxisVector が指定されていればそれを使う。
func (c *Constraint) TrackDirection() mmath.Vec3 {
	if c.AxisVector.Length() > mmath.Epsilon {
		return c.AxisVector.Normalized()
	}
	return c.Axis.Vector()
}

// Touches は関節を所有者・対象・ポールのいずれかで参照するか判定する。
func (c *Constraint) Touches(ref JointRef) bool {
	return c.Owner == ref || c.Target == ref || c.Pole == ref
}

// Set はコンストレイントを登録順に保持する。同じ所有者の評価順は登録順。
type Set struct {
	items []*Constraint
}

// NewSet は空の集合を生成する。
func NewSet() *Set {
	return &Set{}
}

// Add はコンストレイントを追加する。
func (s *Set) Add(c *Constraint) *Constraint {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.items = append(s.items, c)
	return c
}

// Remove はIDのコンストレイントを削除する。
func (s *Set) Remove(id string) bool {
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveWhere は条件に一致するコンストレイントを削除し、削除数を返す。
func (s *Set) RemoveWhere(match func(*Constraint) bool) int {
	filtered := s.items[:0]
	removed := 0
	for _, item := range s.items {
		if match(item) {
			removed++
			continue
		}
		filtered = append(filtered, item)
	}
	s.items = filtered
	return removed
}

// All は登録順の一覧を返す。
func (s *Set) All() []*Constraint {
	return append([]*Constraint(nil), s.items...)
}

// Len は件数を返す。
func (s *Set) Len() int {
	return len(s.items)
}

// ForOwner は所有者のコンストレイントを評価順に返す。
func (s *Set) ForOwner(ref JointRef) []*Constraint {
	return s.filter(func(c *Constraint) bool { return c.Owner == ref })
}

// Touching は関節を参照するコンストレイントを返す。
func (s *Set) Touching(ref JointRef) []*Constraint {
	return s.filter(func(c *Constraint) bool { return c.Touches(ref) })
}

// EngineOwnedTouching は関節を参照するエンジン所有コンストレイントを返す。
func (s *Set) EngineOwnedTouching(ref JointRef) []*Constraint {
	return s.filter(func(c *Constraint) bool { return c.EngineOwned && c.Touches(ref) })
}

// ByTag はタグが一致するコンストレイントを返す。
func (s *Set) ByTag(tag string) []*Constraint {
	return s.filter(func(c *Constraint) bool { return c.Tag == tag })
}

// ForSkeleton は骨格に属する所有者のコンストレイントを返す。
func (s *Set) ForSkeleton(skeleton string) []*Constraint {
	return s.filter(func(c *Constraint) bool { return c.Owner.Skeleton == skeleton })
}

func (s *Set) filter(match func(*Constraint) bool) []*Constraint {
	found := make([]*Constraint, 0)
	for _, item := range s.items {
		if match(item) {
			found = append(found, item)
		}
	}
	return found
}
