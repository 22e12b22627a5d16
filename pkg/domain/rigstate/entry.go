// 指示: miu200521358
package rigstate

// Entry は有効な空間変換操作1件の記録を表す。行列は行優先で Floats に平坦化する。
type Entry struct {
	Key      string
	FullName string
	Kind     string
	Joints   []string
	Bools    []bool
	Strings  []string
	Ints     []int
	Floats   []float64
}

// Copy はエントリの複製を返す。
func (e *Entry) Copy() *Entry {
	if e == nil {
		return nil
	}
	return &Entry{
		Key:      e.Key,
		FullName: e.FullName,
		Kind:     e.Kind,
		Joints:   append([]string(nil), e.Joints...),
		Bools:    append([]bool(nil), e.Bools...),
		Strings:  append([]string(nil), e.Strings...),
		Ints:     append([]int(nil), e.Ints...),
		Floats:   append([]float64(nil), e.Floats...),
	}
}

// Bool は添字の真偽値を返す。範囲外は fallback。
func (e *Entry) Bool(index int, fallback bool) bool {
	if e == nil || index < 0 || index >= len(e.Bools) {
		return fallback
	}
	return e.Bools[index]
}

// String は添字の文字列を返す。範囲外は fallback。
func (e *Entry) String(index int, fallback string) string {
	if e == nil || index < 0 || index >= len(e.Strings) {
		return fallback
	}
	return e.Strings[index]
}

// Int は添字の整数を返す。範囲外は fallback。
func (e *Entry) Int(index int, fallback int) int {
	if e == nil || index < 0 || index >= len(e.Ints) {
		return fallback
	}
	return e.Ints[index]
}

// Float は添字の実数を返す。範囲外は fallback。
func (e *Entry) Float(index int, fallback float64) float64 {
	if e == nil || index < 0 || index >= len(e.Floats) {
		return fallback
	}
	return e.Floats[index]
}

// Joint は添字の関節名を返す。範囲外は空文字。
func (e *Entry) Joint(index int) string {
	if e == nil || index < 0 || index >= len(e.Joints) {
		return ""
	}
	return e.Joints[index]
}
