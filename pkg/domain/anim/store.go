// 指示: miu200521358
package anim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
	"github.com/tiendc/go-deepcopy"
)

// LocalPose は関節のローカル姿勢成分を表す。
type LocalPose struct {
	Location   mmath.Vec3
	Quaternion mmath.Quaternion
	Euler      mmath.Vec3
	Scale      mmath.Vec3
}

// Rotation は回転表現に応じた回転を返す。
func (p LocalPose) Rotation(mode mmath.RotationMode) mmath.Quaternion {
	if mode.IsEuler() {
		return mmath.QuaternionFromEuler(p.Euler, mode)
	}
	return p.Quaternion.Normalized()
}

// Matrix は回転表現に応じたローカル行列を返す。
func (p LocalPose) Matrix(mode mmath.RotationMode) mmath.Mat4 {
	return mmath.NewMat4FromLocRotScale(p.Location, p.Rotation(mode), p.Scale)
}

// Component はプロパティ成分の値を返す。
func (p LocalPose) Component(property Property, index int) float64 {
	switch property {
	case PropertyLocation:
		return p.Location.Get(index)
	case PropertyRotationQuaternion:
		return p.Quaternion.Get(index)
	case PropertyRotationEuler:
		return p.Euler.Get(index)
	default:
		return p.Scale.Get(index)
	}
}

// WithComponent はプロパティ成分を差し替えた姿勢を返す。
func (p LocalPose) WithComponent(property Property, index int, value float64) LocalPose {
	switch property {
	case PropertyLocation:
		p.Location = p.Location.With(index, value)
	case PropertyRotationQuaternion:
		p.Quaternion = p.Quaternion.With(index, value)
	case PropertyRotationEuler:
		p.Euler = p.Euler.With(index, value)
	default:
		p.Scale = p.Scale.With(index, value)
	}
	return p
}

// snapshot はレイヤー構成の退避データを表す。
type snapshot struct {
	skeleton string
	stack    LayerStack
}

// Store はクリップとレイヤー構成を保持する。
type Store struct {
	clips     []*Clip
	stacks    map[string]*LayerStack
	snapshots map[string]snapshot
}

// NewStore は空のストアを生成する。
func NewStore() *Store {
	return &Store{
		stacks:    map[string]*LayerStack{},
		snapshots: map[string]snapshot{},
	}
}

// Clips は登録順のクリップ一覧を返す。
func (s *Store) Clips() []*Clip {
	return append([]*Clip(nil), s.clips...)
}

// Clip は名前からクリップを返す。
func (s *Store) Clip(name string) (*Clip, bool) {
	for _, clip := range s.clips {
		if clip.Name == name {
			return clip, true
		}
	}
	return nil, false
}

// EnsureClip はクリップを取得し、なければ追加する。
func (s *Store) EnsureClip(name string) *Clip {
	if clip, ok := s.Clip(name); ok {
		return clip
	}
	clip := NewClip(name)
	s.clips = append(s.clips, clip)
	return clip
}

// Stack は骨格のレイヤー構成を取得し、なければ生成する。
func (s *Store) Stack(skeleton string) *LayerStack {
	stack, ok := s.stacks[skeleton]
	if !ok {
		stack = NewLayerStack()
		s.stacks[skeleton] = stack
	}
	return stack
}

// StackNames はレイヤー構成を持つ骨格名を返す。
func (s *Store) StackNames() []string {
	names := make([]string, 0, len(s.stacks))
	for name := range s.stacks {
		names = append(names, name)
	}
	return names
}

// ActiveClip は骨格のアクティブクリップを返す。
func (s *Store) ActiveClip(skeleton string) (*Clip, bool) {
	stack, ok := s.stacks[skeleton]
	if !ok || stack.Active == "" {
		return nil, false
	}
	return s.Clip(stack.Active)
}

// EnsureActiveClip はアクティブクリップを返す。未設定なら骨格名のクリップを生成して割り当てる。
func (s *Store) EnsureActiveClip(skeleton string) *Clip {
	if clip, ok := s.ActiveClip(skeleton); ok {
		return clip
	}
	stack := s.Stack(skeleton)
	if stack.Active == "" {
		stack.Active = skeleton + "Action"
	}
	return s.EnsureClip(stack.Active)
}

// RelevantClips はベイク対象のクリップを返す。
func (s *Store) RelevantClips(skeleton string) []*Clip {
	stack, ok := s.stacks[skeleton]
	if !ok {
		return nil
	}
	clips := make([]*Clip, 0)
	for _, name := range stack.RelevantClipNames() {
		if clip, ok := s.Clip(name); ok {
			clips = append(clips, clip)
		}
	}
	return clips
}

// HasAnimation は骨格の関連クリップにキーフレームがあるか判定する。
func (s *Store) HasAnimation(skeleton string) bool {
	for _, clip := range s.RelevantClips(skeleton) {
		if !clip.IsEmpty() {
			return true
		}
	}
	return false
}

// HasJointAnimation は関連クリップに関節のキーフレームがあるか判定する。
func (s *Store) HasJointAnimation(skeleton string, joint string) bool {
	for _, clip := range s.RelevantClips(skeleton) {
		if clip.HasJointChannels(joint, MaskAll) {
			return true
		}
	}
	return false
}

// ClearJointKeys は関連クリップから関節の全チャンネルを削除する。
func (s *Store) ClearJointKeys(skeleton string, joint string) int {
	removed := 0
	for _, clip := range s.RelevantClips(skeleton) {
		removed += clip.RemoveJointChannels(joint)
	}
	return removed
}

// Snapshot はレイヤー構成を退避し、復元用トークンを返す。
func (s *Store) Snapshot(skeleton string) (string, error) {
	var copied LayerStack
	if err := deepcopy.Copy(&copied, s.Stack(skeleton)); err != nil {
		return "", fmt.Errorf("レイヤー構成の退避に失敗しました: %w", err)
	}
	token := uuid.NewString()
	s.snapshots[token] = snapshot{skeleton: skeleton, stack: copied}
	return token, nil
}

// Restore はトークンのレイヤー構成を復元する。トークンは1回のみ有効。
func (s *Store) Restore(token string) error {
	saved, ok := s.snapshots[token]
	if !ok {
		return merr.NewStateConsistencyError("レイヤー構成の退避データが見つかりません: %s", token)
	}
	delete(s.snapshots, token)
	stack := s.Stack(saved.skeleton)
	*stack = saved.stack
	return nil
}

// PendingSnapshots は未復元の退避データ数を返す。
func (s *Store) PendingSnapshots() int {
	return len(s.snapshots)
}

// EvaluateLocal はレイヤー構成を合成した関節のローカル姿勢を返す。アニメーションのない成分は static のまま。
func (s *Store) EvaluateLocal(skeleton string, joint string, static LocalPose, time float64) (LocalPose, bool) {
	stack, ok := s.stacks[skeleton]
	if !ok {
		return static, false
	}
	result := static
	animated := false
	for _, item := range stack.contributions() {
		clip, ok := s.Clip(item.clip)
		if !ok {
			continue
		}
		channels := clip.JointChannels(joint)
		if len(channels) == 0 {
			continue
		}
		animated = true
		result = blendChannels(result, channels, item, time)
	}
	return result, animated
}

func blendChannels(base LocalPose, channels []*Channel, item contribution, time float64) LocalPose {
	sampled := LocalPose{
		Quaternion: mmath.QuaternionIdentity(),
		Scale:      mmath.Vec3One(),
	}
	if item.blend == BlendReplace {
		sampled = base
	}
	present := map[Property]bool{}
	components := make([]ChannelKey, 0, len(channels))
	for _, channel := range channels {
		if channel.Len() == 0 {
			continue
		}
		present[channel.Key.Property] = true
		components = append(components, channel.Key)
		sampled = sampled.WithComponent(channel.Key.Property, channel.Key.Index, channel.Evaluate(time))
	}

	influence := item.influence
	result := base
	if item.blend != BlendCombine {
		for _, key := range components {
			current := base.Component(key.Property, key.Index)
			value := sampled.Component(key.Property, key.Index)
			blended := current + value*influence
			if item.blend == BlendReplace {
				blended = current + (value-current)*influence
			}
			result = result.WithComponent(key.Property, key.Index, blended)
		}
		return result
	}
	if present[PropertyLocation] {
		result.Location = base.Location.Add(sampled.Location.MulScalar(influence))
	}
	if present[PropertyRotationEuler] {
		result.Euler = base.Euler.Add(sampled.Euler.MulScalar(influence))
	}
	if present[PropertyScale] {
		factor := mmath.Vec3One().Lerp(sampled.Scale, influence)
		result.Scale = base.Scale.Mul(factor)
	}
	if present[PropertyRotationQuaternion] {
		delta := mmath.QuaternionIdentity().Slerp(sampled.Quaternion, influence)
		result.Quaternion = base.Quaternion.Normalized().Mul(delta)
	}
	return result
}
