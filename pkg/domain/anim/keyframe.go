// 指示: miu200521358
package anim

import (
	"math"
	"sort"
)

// Interpolation は区間の補間方式を表す。
type Interpolation string

const (
	InterpolationConstant Interpolation = "CONSTANT"
	InterpolationLinear   Interpolation = "LINEAR"
	InterpolationBezier   Interpolation = "BEZIER"
)

// HandleType はベジェハンドルの種別を表す。
type HandleType string

const (
	HandleFree        HandleType = "FREE"
	HandleAligned     HandleType = "ALIGNED"
	HandleVector      HandleType = "VECTOR"
	HandleAuto        HandleType = "AUTO"
	HandleAutoClamped HandleType = "AUTO_CLAMPED"
)

func (h HandleType) isAuto() bool {
	return h == HandleAuto || h == HandleAutoClamped || h == ""
}

// Keyframe はキーフレーム1点を表す。ハンドルは (time, value)。
type Keyframe struct {
	Time            float64
	Value           float64
	Interpolation   Interpolation
	LeftHandleType  HandleType
	RightHandleType HandleType
	LeftHandle      [2]float64
	RightHandle     [2]float64
}

// NewKeyframe は自動クランプハンドルのベジェキーを生成する。
func NewKeyframe(time, value float64) Keyframe {
	return Keyframe{
		Time:            time,
		Value:           value,
		Interpolation:   InterpolationBezier,
		LeftHandleType:  HandleAutoClamped,
		RightHandleType: HandleAutoClamped,
		LeftHandle:      [2]float64{time, value},
		RightHandle:     [2]float64{time, value},
	}
}

// Channel は (関節, プロパティ, 成分) のキーフレーム列を表す。時刻順で時刻は一意。
type Channel struct {
	Key       ChannelKey
	Keyframes []Keyframe
}

// Len はキーフレーム数を返す。
func (c *Channel) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Keyframes)
}

// Times はキーフレーム時刻を返す。
func (c *Channel) Times() []float64 {
	times := make([]float64, c.Len())
	for i, key := range c.Keyframes {
		times[i] = key.Time
	}
	return times
}

// Insert はキーフレームを挿入する。同時刻は値のみ上書きする。
func (c *Channel) Insert(time, value float64) {
	i := sort.Search(len(c.Keyframes), func(i int) bool { return c.Keyframes[i].Time >= time })
	if i < len(c.Keyframes) && c.Keyframes[i].Time == time {
		c.Keyframes[i].Value = value
	} else {
		c.Keyframes = append(c.Keyframes, Keyframe{})
		copy(c.Keyframes[i+1:], c.Keyframes[i:])
		c.Keyframes[i] = NewKeyframe(time, value)
	}
	c.RecalculateHandles()
}

// SetSamples はキーフレーム列をサンプルで置き換える。既存キーと同時刻のキーは補間情報を引き継ぐ。
func (c *Channel) SetSamples(times []float64, values []float64) {
	previous := make(map[float64]Keyframe, len(c.Keyframes))
	for _, key := range c.Keyframes {
		previous[key.Time] = key
	}

	count := len(times)
	if len(values) < count {
		count = len(values)
	}
	if cap(c.Keyframes) >= count {
		c.Keyframes = c.Keyframes[:count]
	} else {
		c.Keyframes = append(c.Keyframes, make([]Keyframe, count-len(c.Keyframes))...)
	}
	for i := 0; i < count; i++ {
		key := NewKeyframe(times[i], values[i])
		if prior, ok := previous[times[i]]; ok {
			key.Interpolation = prior.Interpolation
			key.LeftHandleType = prior.LeftHandleType
			key.RightHandleType = prior.RightHandleType
			key.LeftHandle = [2]float64{prior.LeftHandle[0], values[i] + prior.LeftHandle[1] - prior.Value}
			key.RightHandle = [2]float64{prior.RightHandle[0], values[i] + prior.RightHandle[1] - prior.Value}
		}
		c.Keyframes[i] = key
	}
	sort.SliceStable(c.Keyframes, func(i, j int) bool { return c.Keyframes[i].Time < c.Keyframes[j].Time })
	c.RecalculateHandles()
}

// RecalculateHandles は自動・ベクターハンドルを再計算し、自由ハンドルを区間内に収める。
func (c *Channel) RecalculateHandles() {
	n := len(c.Keyframes)
	for i := range c.Keyframes {
		key := &c.Keyframes[i]
		dtPrev, dtNext := 1.0, 1.0
		if i > 0 {
			dtPrev = key.Time - c.Keyframes[i-1].Time
		}
		if i < n-1 {
			dtNext = c.Keyframes[i+1].Time - key.Time
		}

		slope := 0.0
		if i > 0 && i < n-1 {
			prev := c.Keyframes[i-1]
			next := c.Keyframes[i+1]
			slope = (next.Value - prev.Value) / (next.Time - prev.Time)
			isExtremum := (key.Value >= prev.Value && key.Value >= next.Value) ||
				(key.Value <= prev.Value && key.Value <= next.Value)
			if isExtremum && (key.LeftHandleType == HandleAutoClamped || key.RightHandleType == HandleAutoClamped) {
				slope = 0
			}
		}

		switch {
		case key.LeftHandleType.isAuto():
			key.LeftHandle = [2]float64{key.Time - dtPrev/3, key.Value - slope*dtPrev/3}
		case key.LeftHandleType == HandleVector && i > 0:
			prev := c.Keyframes[i-1]
			key.LeftHandle = [2]float64{key.Time - dtPrev/3, key.Value - (key.Value-prev.Value)/3}
		default:
			key.LeftHandle[0] = math.Max(key.LeftHandle[0], key.Time-dtPrev)
			key.LeftHandle[0] = math.Min(key.LeftHandle[0], key.Time)
		}
		switch {
		case key.RightHandleType.isAuto():
			key.RightHandle = [2]float64{key.Time + dtNext/3, key.Value + slope*dtNext/3}
		case key.RightHandleType == HandleVector && i < n-1:
			next := c.Keyframes[i+1]
			key.RightHandle = [2]float64{key.Time + dtNext/3, key.Value + (next.Value-key.Value)/3}
		default:
			key.RightHandle[0] = math.Min(key.RightHandle[0], key.Time+dtNext)
			key.RightHandle[0] = math.Max(key.RightHandle[0], key.Time)
		}
	}
}

// Evaluate は時刻の値を返す。範囲外は端の値を保持する。
func (c *Channel) Evaluate(time float64) float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	if time <= c.Keyframes[0].Time {
		return c.Keyframes[0].Value
	}
	if time >= c.Keyframes[n-1].Time {
		return c.Keyframes[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return c.Keyframes[i].Time > time }) - 1
	k0 := c.Keyframes[i]
	k1 := c.Keyframes[i+1]
	if time == k0.Time {
		return k0.Value
	}
	switch k0.Interpolation {
	case InterpolationConstant:
		return k0.Value
	case InterpolationLinear:
		s := (time - k0.Time) / (k1.Time - k0.Time)
		return k0.Value + (k1.Value-k0.Value)*s
	default:
		return evaluateBezier(k0, k1, time)
	}
}

// evaluateBezier は区間の3次ベジェを時刻について解いて値を返す。
func evaluateBezier(k0, k1 Keyframe, time float64) float64 {
	x0, x3 := k0.Time, k1.Time
	x1 := math.Min(math.Max(k0.RightHandle[0], x0), x3)
	x2 := math.Min(math.Max(k1.LeftHandle[0], x0), x3)
	y0, y1, y2, y3 := k0.Value, k0.RightHandle[1], k1.LeftHandle[1], k1.Value

	lo, hi := 0.0, 1.0
	s := (time - x0) / (x3 - x0)
	for iter := 0; iter < 64; iter++ {
		x := cubic(x0, x1, x2, x3, s)
		diff := x - time
		if math.Abs(diff) < 1e-12 {
			break
		}
		if diff > 0 {
			hi = s
		} else {
			lo = s
		}
		d := cubicDerivative(x0, x1, x2, x3, s)
		next := s - diff/d
		if d == 0 || next <= lo || next >= hi || math.IsNaN(next) {
			next = (lo + hi) / 2
		}
		s = next
	}
	return cubic(y0, y1, y2, y3, s)
}

func cubic(p0, p1, p2, p3, s float64) float64 {
	u := 1 - s
	return u*u*u*p0 + 3*u*u*s*p1 + 3*u*s*s*p2 + s*s*s*p3
}

func cubicDerivative(p0, p1, p2, p3, s float64) float64 {
	u := 1 - s
	return 3*u*u*(p1-p0) + 6*u*s*(p2-p1) + 3*s*s*(p3-p2)
}
