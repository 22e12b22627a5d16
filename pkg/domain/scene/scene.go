// 指示: miu200521358
package scene

import (
	"fmt"
	"math"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

// Settings はベイクと解除の動作設定を表す。
type Settings struct {
	// SmartFrames は既存キー時刻のみをサンプリングする。
	SmartFrames bool
	// SmartChannels は元関節にキーがあるチャンネルのみを書き込む。
	SmartChannels bool
	// NoBakeOnRemove は解除時に元関節へのベイクを省略する。
	NoBakeOnRemove bool
}

// DefaultSettings は既定の動作設定を返す。
func DefaultSettings() Settings {
	return Settings{SmartFrames: true, SmartChannels: false, NoBakeOnRemove: false}
}

// Scene はエンジン呼び出しに渡す明示的なコンテキストを表す。
type Scene struct {
	Store       *anim.Store
	Constraints *constraint.Set
	Drivers     *constraint.DriverSet
	Settings    Settings

	skeletons []*model.Skeleton
	frame     int
	subframe  float64
}

// NewScene は空のシーンを生成する。
func NewScene() *Scene {
	return &Scene{
		Store:       anim.NewStore(),
		Constraints: constraint.NewSet(),
		Drivers:     constraint.NewDriverSet(),
		Settings:    DefaultSettings(),
		frame:       1,
	}
}

// AddSkeleton は骨格を追加する。
func (s *Scene) AddSkeleton(skeleton *model.Skeleton) error {
	if skeleton == nil || skeleton.Name == "" {
		return fmt.Errorf("骨格名が未指定です")
	}
	if _, ok := s.Skeleton(skeleton.Name); ok {
		return fmt.Errorf("骨格名が重複しています: %s", skeleton.Name)
	}
	s.skeletons = append(s.skeletons, skeleton)
	return nil
}

// RemoveSkeleton は骨格と所有するコンストレイントを取り除く。
func (s *Scene) RemoveSkeleton(name string) bool {
	for i, skeleton := range s.skeletons {
		if skeleton.Name == name {
			s.skeletons = append(s.skeletons[:i], s.skeletons[i+1:]...)
			s.Constraints.RemoveWhere(func(c *constraint.Constraint) bool { return c.Owner.Skeleton == name })
			s.Drivers.RemoveWhere(func(d *constraint.Driver) bool { return d.Owner.Skeleton == name })
			return true
		}
	}
	return false
}

// Skeleton は名前から骨格を返す。
func (s *Scene) Skeleton(name string) (*model.Skeleton, bool) {
	for _, skeleton := range s.skeletons {
		if skeleton.Name == name {
			return skeleton, true
		}
	}
	return nil, false
}

// Skeletons は登録順の骨格一覧を返す。
func (s *Scene) Skeletons() []*model.Skeleton {
	return append([]*model.Skeleton(nil), s.skeletons...)
}

// ResolveJoint は骨格と関節を解決する。
func (s *Scene) ResolveJoint(ref constraint.JointRef) (*model.Skeleton, *model.Joint, error) {
	skeleton, ok := s.Skeleton(ref.Skeleton)
	if !ok {
		return nil, nil, merr.NewReferenceError("骨格が見つかりません: %s", ref.Skeleton)
	}
	joint, err := skeleton.Get(ref.Joint)
	if err != nil {
		return nil, nil, err
	}
	return skeleton, joint, nil
}

// SetFrame は時刻カーソルを整数部と小数部に分けて設定する。
func (s *Scene) SetFrame(time float64) {
	whole := math.Floor(time)
	s.frame = int(whole)
	s.subframe = time - whole
}

// Frame は時刻カーソルを返す。
func (s *Scene) Frame() float64 {
	return float64(s.frame) + s.subframe
}

// Ref は関節参照を生成する。
func Ref(skeleton *model.Skeleton, joint string) constraint.JointRef {
	return constraint.JointRef{Skeleton: skeleton.Name, Joint: model.NormalizeName(joint)}
}
