// 指示: miu200521358
package model

// HiddenCollectionName は置き換え済み元関節を退避する表示グループ名。
const HiddenCollectionName = "Unused Joints"

// Collection は関節の表示グループを表す。
type Collection struct {
	Name    string
	Visible bool
}

// Collection は名前から表示グループを返す。
func (s *Skeleton) Collection(name string) (*Collection, bool) {
	for _, collection := range s.Collections {
		if collection.Name == name {
			return collection, true
		}
	}
	return nil, false
}

// EnsureCollection は表示グループを取得し、なければ追加する。
func (s *Skeleton) EnsureCollection(name string, visible bool) *Collection {
	if collection, ok := s.Collection(name); ok {
		return collection
	}
	collection := &Collection{Name: name, Visible: visible}
	s.Collections = append(s.Collections, collection)
	return collection
}

// RemoveCollection は表示グループを削除し、所属も外す。
func (s *Skeleton) RemoveCollection(name string) {
	filtered := s.Collections[:0]
	for _, collection := range s.Collections {
		if collection.Name != name {
			filtered = append(filtered, collection)
		}
	}
	s.Collections = filtered
	for _, joint := range s.joints {
		s.unassign(joint, name)
	}
}

// AssignCollection は関節を表示グループへ所属させる。
func (s *Skeleton) AssignCollection(jointName string, collectionName string) {
	joint, ok := s.Joint(jointName)
	if !ok || joint.InCollection(collectionName) {
		return
	}
	s.EnsureCollection(collectionName, true)
	joint.Display.Collections = append(joint.Display.Collections, collectionName)
}

// UnassignCollection は関節を表示グループから外す。
func (s *Skeleton) UnassignCollection(jointName string, collectionName string) {
	joint, ok := s.Joint(jointName)
	if !ok {
		return
	}
	s.unassign(joint, collectionName)
}

// CollectionMembers は表示グループに属する関節名を返す。
func (s *Skeleton) CollectionMembers(name string) []string {
	members := make([]string, 0)
	for _, joint := range s.joints {
		if joint.InCollection(name) {
			members = append(members, joint.Name)
		}
	}
	return members
}

// RemoveEmptyCollection は所属関節のない表示グループを削除する。
func (s *Skeleton) RemoveEmptyCollection(name string) {
	if len(s.CollectionMembers(name)) == 0 {
		s.RemoveCollection(name)
	}
}

func (s *Skeleton) unassign(joint *Joint, name string) {
	filtered := joint.Display.Collections[:0]
	for _, current := range joint.Display.Collections {
		if current != name {
			filtered = append(filtered, current)
		}
	}
	joint.Display.Collections = filtered
}
