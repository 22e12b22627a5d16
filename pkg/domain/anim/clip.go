// 指示: miu200521358
package anim

import (
	"math"
	"sort"
)

// Clip は名前付きのチャンネル集合を表す。
type Clip struct {
	Name        string
	ManualRange bool
	RangeStart  float64
	RangeEnd    float64

	channels []*Channel
}

// NewClip は空のクリップを生成する。
func NewClip(name string) *Clip {
	return &Clip{Name: name}
}

// Channels は登録順のチャンネル一覧を返す。
func (c *Clip) Channels() []*Channel {
	return append([]*Channel(nil), c.channels...)
}

// Channel はチャンネルを返す。
func (c *Clip) Channel(key ChannelKey) (*Channel, bool) {
	if c == nil {
		return nil, false
	}
	for _, channel := range c.channels {
		if channel.Key == key {
			return channel, true
		}
	}
	return nil, false
}

// EnsureChannel はチャンネルを取得し、なければ生成する。
func (c *Clip) EnsureChannel(key ChannelKey) *Channel {
	if channel, ok := c.Channel(key); ok {
		return channel
	}
	channel := &Channel{Key: key}
	c.channels = append(c.channels, channel)
	return channel
}

// RemoveChannel はチャンネルを削除する。
func (c *Clip) RemoveChannel(key ChannelKey) bool {
	for i, channel := range c.channels {
		if channel.Key == key {
			c.channels = append(c.channels[:i], c.channels[i+1:]...)
			return true
		}
	}
	return false
}

// JointChannels は関節のチャンネル一覧を返す。
func (c *Clip) JointChannels(joint string) []*Channel {
	found := make([]*Channel, 0)
	if c == nil {
		return found
	}
	for _, channel := range c.channels {
		if channel.Key.Joint == joint {
			found = append(found, channel)
		}
	}
	return found
}

// RemoveJointChannels は関節の全チャンネルを削除し、削除数を返す。
func (c *Clip) RemoveJointChannels(joint string) int {
	filtered := c.channels[:0]
	removed := 0
	for _, channel := range c.channels {
		if channel.Key.Joint == joint {
			removed++
			continue
		}
		filtered = append(filtered, channel)
	}
	c.channels = filtered
	return removed
}

// RenameJoint は関節名を付け替える。
func (c *Clip) RenameJoint(from, to string) {
	for _, channel := range c.channels {
		if channel.Key.Joint == from {
			channel.Key.Joint = to
		}
	}
}

// HasJointChannels は関節のチャンネルが1つでもあるか判定する。
func (c *Clip) HasJointChannels(joint string, mask ChannelMask) bool {
	for _, channel := range c.JointChannels(joint) {
		if mask.Has(channel.Key.Property, channel.Key.Index) && channel.Len() > 0 {
			return true
		}
	}
	return false
}

// KeyTimes はマスクに含まれる関節チャンネルのキー時刻の和集合を昇順で返す。
func (c *Clip) KeyTimes(joint string, mask ChannelMask) []float64 {
	seen := map[float64]struct{}{}
	for _, channel := range c.JointChannels(joint) {
		if !mask.Has(channel.Key.Property, channel.Key.Index) {
			continue
		}
		for _, key := range channel.Keyframes {
			seen[key.Time] = struct{}{}
		}
	}
	return sortedTimes(seen)
}

// FrameRange はクリップのフレーム範囲を返す。手動範囲がなければキー時刻の最小と最大。
func (c *Clip) FrameRange() (float64, float64, bool) {
	if c == nil {
		return 0, 0, false
	}
	if c.ManualRange {
		return c.RangeStart, c.RangeEnd, true
	}
	start, end := math.Inf(1), math.Inf(-1)
	for _, channel := range c.channels {
		for _, key := range channel.Keyframes {
			start = math.Min(start, key.Time)
			end = math.Max(end, key.Time)
		}
	}
	if math.IsInf(start, 1) {
		return 0, 0, false
	}
	return start, end, true
}

// SetFrameRange は手動フレーム範囲を設定する。
func (c *Clip) SetFrameRange(start, end float64) {
	c.ManualRange = true
	c.RangeStart = start
	c.RangeEnd = end
}

// IsEmpty はキーフレームを持たないか判定する。
func (c *Clip) IsEmpty() bool {
	for _, channel := range c.channels {
		if channel.Len() > 0 {
			return false
		}
	}
	return true
}

func sortedTimes(set map[float64]struct{}) []float64 {
	times := make([]float64, 0, len(set))
	for time := range set {
		times = append(times, time)
	}
	sort.Float64s(times)
	return times
}
