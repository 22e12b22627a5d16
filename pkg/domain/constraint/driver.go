// 指示: miu200521358
package constraint

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"gopkg.in/Knetic/govaluate.v3"
)

// VariableKind はドライバー変数の取得元を表す。
type VariableKind string

const (
	// VariableLocation は関節の骨格空間位置の成分を読む。
	VariableLocation VariableKind = "LOCATION"
	// VariableProperty は関節のカスタムプロパティを読む。
	VariableProperty VariableKind = "PROPERTY"
)

// Variable はドライバー式の変数を表す。
type Variable struct {
	Name     string
	Kind     VariableKind
	Source   JointRef
	Index    int
	Property string
}

// Driver は式で関節のプロパティ成分を駆動する。
type Driver struct {
	ID          string
	Owner       JointRef
	Property    anim.Property
	Index       int
	Expression  string
	Variables   []Variable
	EngineOwned bool
	Tag         string

	compiled *govaluate.EvaluableExpression
}

// NewDriver はドライバーを生成し、式を検証する。
func NewDriver(owner JointRef, property anim.Property, index int, expression string, variables []Variable) (*Driver, error) {
	driver := &Driver{
		ID:         uuid.NewString(),
		Owner:      owner,
		Property:   property,
		Index:      index,
		Expression: expression,
		Variables:  variables,
	}
	if _, err := driver.compile(); err != nil {
		return nil, err
	}
	return driver, nil
}

func (d *Driver) compile() (*govaluate.EvaluableExpression, error) {
	if d.compiled != nil {
		return d.compiled, nil
	}
	compiled, err := govaluate.NewEvaluableExpression(d.Expression)
	if err != nil {
		return nil, fmt.Errorf("ドライバー式の解析に失敗しました: %s: %w", d.Expression, err)
	}
	d.compiled = compiled
	return compiled, nil
}

// Evaluate は変数値から式を評価する。
func (d *Driver) Evaluate(values map[string]float64) (float64, error) {
	compiled, err := d.compile()
	if err != nil {
		return 0, err
	}
	params := make(map[string]interface{}, len(values))
	for key, value := range values {
		params[key] = value
	}
	result, err := compiled.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("ドライバー式の評価に失敗しました: %s: %w", d.Expression, err)
	}
	value, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("ドライバー式の結果が数値ではありません: %v", result)
	}
	return value, nil
}

// DriverSet はドライバーを登録順に保持する。
type DriverSet struct {
	items []*Driver
}

// NewDriverSet は空の集合を生成する。
func NewDriverSet() *DriverSet {
	return &DriverSet{}
}

// Add はドライバーを追加する。同じ対象成分の既存ドライバーは置き換える。
func (s *DriverSet) Add(driver *Driver) {
	s.RemoveWhere(func(d *Driver) bool {
		return d.Owner == driver.Owner && d.Property == driver.Property && d.Index == driver.Index
	})
	s.items = append(s.items, driver)
}

// ForOwner は関節のドライバーを返す。
func (s *DriverSet) ForOwner(ref JointRef) []*Driver {
	found := make([]*Driver, 0)
	for _, item := range s.items {
		if item.Owner == ref {
			found = append(found, item)
		}
	}
	return found
}

// All は登録順の一覧を返す。
func (s *DriverSet) All() []*Driver {
	return append([]*Driver(nil), s.items...)
}

// RemoveWhere は条件に一致するドライバーを削除し、削除数を返す。
func (s *DriverSet) RemoveWhere(match func(*Driver) bool) int {
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
