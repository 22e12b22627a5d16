// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
	"github.com/tiendc/go-deepcopy"
)

// Skeleton は関節を排他的に所有する骨格を表す。関節の登録順が階層構築順になる。
type Skeleton struct {
	Name        string
	Matrix      mmath.Mat4
	Collections []*Collection
	State       *rigstate.Log

	joints []*Joint
	index  map[string]*Joint
	roles  map[string]RoleTag
	scope  Scope
}

// NewSkeleton は空の骨格を生成する。
func NewSkeleton(name string) *Skeleton {
	return &Skeleton{
		Name:   NormalizeName(name),
		Matrix: mmath.Mat4Identity(),
		State:  rigstate.NewLog(),
		index:  map[string]*Joint{},
		roles:  map[string]RoleTag{},
	}
}

// Joint は名前から関節を返す。
func (s *Skeleton) Joint(name string) (*Joint, bool) {
	if s == nil {
		return nil, false
	}
	joint, ok := s.index[NormalizeName(name)]
	return joint, ok
}

// Get は名前から関節を返す。見つからない場合は参照エラー。
func (s *Skeleton) Get(name string) (*Joint, error) {
	joint, ok := s.Joint(name)
	if !ok {
		return nil, merr.NewReferenceError("関節が見つかりません: %s[%s]", s.nameOrEmpty(), name)
	}
	return joint, nil
}

// Has は関節が存在するか判定する。
func (s *Skeleton) Has(name string) bool {
	_, ok := s.Joint(name)
	return ok
}

// Joints は登録順の関節一覧を返す。
func (s *Skeleton) Joints() []*Joint {
	return append([]*Joint(nil), s.joints...)
}

// Names は登録順の関節名一覧を返す。
func (s *Skeleton) Names() []string {
	names := make([]string, len(s.joints))
	for i, joint := range s.joints {
		names[i] = joint.Name
	}
	return names
}

// Len は関節数を返す。
func (s *Skeleton) Len() int {
	return len(s.joints)
}

// Children は直下の子関節を返す。
func (s *Skeleton) Children(name string) []*Joint {
	target := NormalizeName(name)
	children := make([]*Joint, 0)
	for _, joint := range s.joints {
		if joint.Parent == target {
			children = append(children, joint)
		}
	}
	return children
}

// ParentChain は親から根までの関節名を近い順に返す。
func (s *Skeleton) ParentChain(name string) []string {
	chain := make([]string, 0)
	joint, ok := s.Joint(name)
	for ok && joint.Parent != "" && len(chain) <= len(s.joints) {
		chain = append(chain, joint.Parent)
		joint, ok = s.Joint(joint.Parent)
	}
	return chain
}

// AddJoint は関節を追加する。構造編集スコープ内でのみ有効。
func (s *Skeleton) AddJoint(joint *Joint) error {
	if err := s.requireStructural("関節追加"); err != nil {
		return err
	}
	if joint == nil || joint.Name == "" {
		return fmt.Errorf("追加する関節名が未指定です")
	}
	if _, exists := s.index[joint.Name]; exists {
		return fmt.Errorf("関節名が重複しています: %s", joint.Name)
	}
	if joint.Parent != "" {
		if _, ok := s.index[joint.Parent]; !ok {
			return merr.NewReferenceError("親関節が見つかりません: %s[%s]", s.Name, joint.Parent)
		}
	}
	if joint.Props == nil {
		joint.Props = map[string]float64{}
	}
	s.joints = append(s.joints, joint)
	s.index[joint.Name] = joint
	return nil
}

// CreateJoint は関節を生成して追加する。
func (s *Skeleton) CreateJoint(name string, parent string, rest mmath.Mat4, length float64) (*Joint, error) {
	joint := NewJoint(name, parent, rest, length)
	if err := s.AddJoint(joint); err != nil {
		return nil, err
	}
	return joint, nil
}

// DuplicateJoint は関節のレスト・長さ・回転表現・表示情報を複製した新しい関節を追加する。
func (s *Skeleton) DuplicateJoint(sourceName string, newName string, parent string) (*Joint, error) {
	source, err := s.Get(sourceName)
	if err != nil {
		return nil, err
	}
	joint := source.Copy()
	joint.Name = NormalizeName(newName)
	joint.Parent = NormalizeName(parent)
	joint.ResetBasis()
	joint.Props = map[string]float64{}
	joint.Display.Collections = nil
	joint.Display.Hidden = false
	if err := s.AddJoint(joint); err != nil {
		return nil, err
	}
	return joint, nil
}

// RemoveJoint は関節を削除する。子関節はレストを保ったまま根になる。
func (s *Skeleton) RemoveJoint(name string) error {
	if err := s.requireStructural("関節削除"); err != nil {
		return err
	}
	target := NormalizeName(name)
	if _, ok := s.index[target]; !ok {
		return merr.NewReferenceError("関節が見つかりません: %s[%s]", s.Name, name)
	}
	for _, child := range s.Children(target) {
		child.Parent = ""
	}
	filtered := s.joints[:0]
	for _, joint := range s.joints {
		if joint.Name != target {
			filtered = append(filtered, joint)
		}
	}
	s.joints = filtered
	delete(s.index, target)
	delete(s.roles, target)
	return nil
}

// Reparent は関節の親を変更する。循環する親子関係は拒否する。
func (s *Skeleton) Reparent(name string, parent string) error {
	if err := s.requireStructural("親変更"); err != nil {
		return err
	}
	joint, err := s.Get(name)
	if err != nil {
		return err
	}
	parentName := NormalizeName(parent)
	if parentName != "" {
		if _, ok := s.index[parentName]; !ok {
			return merr.NewReferenceError("親関節が見つかりません: %s[%s]", s.Name, parent)
		}
		if parentName == joint.Name {
			return fmt.Errorf("自身を親にはできません: %s", joint.Name)
		}
		for _, ancestor := range s.ParentChain(parentName) {
			if ancestor == joint.Name {
				return fmt.Errorf("親子関係が循環します: %s -> %s", joint.Name, parentName)
			}
		}
	}
	joint.Parent = parentName
	return nil
}

// Clone は骨格の深い複製を返す。リグ状態ログも複製する。
func (s *Skeleton) Clone() (*Skeleton, error) {
	out := NewSkeleton(s.Name)
	out.Matrix = s.Matrix
	for _, joint := range s.joints {
		copied := &Joint{}
		if err := deepcopy.Copy(copied, joint); err != nil {
			return nil, fmt.Errorf("関節の複製に失敗しました: %w", err)
		}
		out.joints = append(out.joints, copied)
		out.index[copied.Name] = copied
	}
	for _, collection := range s.Collections {
		copied := *collection
		out.Collections = append(out.Collections, &copied)
	}
	for name, tag := range s.roles {
		out.roles[name] = tag
	}
	out.State = s.State.Clone()
	return out, nil
}

func (s *Skeleton) nameOrEmpty() string {
	if s == nil {
		return ""
	}
	return s.Name
}
