// 指示: miu200521358
package anim

import "fmt"

// Property はアニメーション対象のプロパティを表す。
type Property string

const (
	PropertyLocation           Property = "location"
	PropertyRotationQuaternion Property = "rotation_quaternion"
	PropertyRotationEuler      Property = "rotation_euler"
	PropertyScale              Property = "scale"
)

// AllProperties はプロパティ一覧を返す。
func AllProperties() []Property {
	return []Property{PropertyLocation, PropertyRotationQuaternion, PropertyRotationEuler, PropertyScale}
}

// Size は成分数を返す。
func (p Property) Size() int {
	if p == PropertyRotationQuaternion {
		return 4
	}
	return 3
}

// ChannelKey はチャンネルの識別子を表す。
type ChannelKey struct {
	Joint    string
	Property Property
	Index    int
}

// String は表示用文字列を返す。
func (k ChannelKey) String() string {
	return fmt.Sprintf("%s.%s[%d]", k.Joint, k.Property, k.Index)
}

// ChannelMask はプロパティ成分のビット集合を表す。
type ChannelMask uint16

const (
	MaskLocationX ChannelMask = 1 << iota
	MaskLocationY
	MaskLocationZ
	MaskQuaternionW
	MaskQuaternionX
	MaskQuaternionY
	MaskQuaternionZ
	MaskEulerX
	MaskEulerY
	MaskEulerZ
	MaskScaleX
	MaskScaleY
	MaskScaleZ
)

const (
	MaskLocation   = MaskLocationX | MaskLocationY | MaskLocationZ
	MaskQuaternion = MaskQuaternionW | MaskQuaternionX | MaskQuaternionY | MaskQuaternionZ
	MaskEuler      = MaskEulerX | MaskEulerY | MaskEulerZ
	MaskRotation   = MaskQuaternion | MaskEuler
	MaskScale      = MaskScaleX | MaskScaleY | MaskScaleZ
	MaskAll        = MaskLocation | MaskRotation | MaskScale
	MaskNone       = ChannelMask(0)
)

var propertyMaskBase = map[Property]int{
	PropertyLocation:           0,
	PropertyRotationQuaternion: 3,
	PropertyRotationEuler:      7,
	PropertyScale:              10,
}

// MaskFor はプロパティ成分のビットを返す。
func MaskFor(property Property, index int) ChannelMask {
	base, ok := propertyMaskBase[property]
	if !ok || index < 0 || index >= property.Size() {
		return MaskNone
	}
	return ChannelMask(1) << (base + index)
}

// Has はプロパティ成分を含むか判定する。
func (m ChannelMask) Has(property Property, index int) bool {
	bit := MaskFor(property, index)
	return bit != 0 && m&bit != 0
}

// HasAny は他のマスクと重なるか判定する。
func (m ChannelMask) HasAny(other ChannelMask) bool {
	return m&other != 0
}

// Keys は関節に対するマスク内のチャンネル識別子を返す。
func (m ChannelMask) Keys(joint string) []ChannelKey {
	keys := make([]ChannelKey, 0)
	for _, property := range AllProperties() {
		for index := 0; index < property.Size(); index++ {
			if m.Has(property, index) {
				keys = append(keys, ChannelKey{Joint: joint, Property: property, Index: index})
			}
		}
	}
	return keys
}
