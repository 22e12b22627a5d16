// 指示: miu200521358
package anim

// BlendMode はレイヤーの合成方式を表す。
type BlendMode string

const (
	BlendReplace BlendMode = "REPLACE"
	BlendAdd     BlendMode = "ADD"
	BlendCombine BlendMode = "COMBINE"
)

// Layer はレイヤー1段を表す。
type Layer struct {
	Name      string
	Clip      string
	Blend     BlendMode
	Influence float64
	Mute      bool
	Solo      bool
}

// LayerStack は骨格インスタンスのレイヤー構成とアクティブクリップを表す。
type LayerStack struct {
	Active          string
	ActiveBlend     BlendMode
	ActiveInfluence float64
	Layers          []Layer
	SinglePose      bool
}

// NewLayerStack は空のレイヤー構成を生成する。
func NewLayerStack() *LayerStack {
	return &LayerStack{ActiveBlend: BlendReplace, ActiveInfluence: 1}
}

// contribution は評価に寄与するクリップ1件を表す。
type contribution struct {
	clip      string
	blend     BlendMode
	influence float64
}

// contributions は評価順(下層から、最後にアクティブ)の寄与一覧を返す。
func (s *LayerStack) contributions() []contribution {
	out := make([]contribution, 0, len(s.Layers)+1)
	if !s.SinglePose {
		hasSolo := false
		for _, layer := range s.Layers {
			if layer.Solo && !layer.Mute {
				hasSolo = true
				break
			}
		}
		for _, layer := range s.Layers {
			if layer.Mute || layer.Clip == "" || (hasSolo && !layer.Solo) {
				continue
			}
			out = append(out, contribution{clip: layer.Clip, blend: normalizeBlend(layer.Blend), influence: layer.Influence})
		}
	}
	if s.Active != "" {
		out = append(out, contribution{clip: s.Active, blend: normalizeBlend(s.ActiveBlend), influence: s.ActiveInfluence})
	}
	return out
}

// RelevantClipNames はアクティブと非ミュートのレイヤーのクリップ名を重複なく返す。
func (s *LayerStack) RelevantClipNames() []string {
	seen := map[string]struct{}{}
	names := make([]string, 0)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	add(s.Active)
	if !s.SinglePose {
		for _, layer := range s.Layers {
			if !layer.Mute {
				add(layer.Clip)
			}
		}
	}
	return names
}

// Isolate はクリップ単体で評価されるよう構成を変更する。
func (s *LayerStack) Isolate(clip string) {
	for i := range s.Layers {
		s.Layers[i].Mute = true
		s.Layers[i].Solo = false
	}
	s.Active = clip
	s.ActiveBlend = BlendReplace
	s.ActiveInfluence = 1
}

func normalizeBlend(blend BlendMode) BlendMode {
	switch blend {
	case BlendAdd, BlendCombine:
		return blend
	default:
		return BlendReplace
	}
}
